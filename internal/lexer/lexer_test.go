package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/token"
)

func popAll(t *testing.T, src string, g lexer.Guidance) []token.Token {
	t.Helper()
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok, err := l.Pop(g)
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Tag == token.End {
			return toks
		}
	}
}

func TestIdentifierVersusKeyword(t *testing.T) {
	toks := popAll(t, "foo if bar", lexer.IgnoreBreak)
	require.Len(t, toks, 4)
	assert.Equal(t, token.Ident, toks[0].Tag)
	assert.Equal(t, token.Symbol, toks[1].Tag, "reserved words are retagged Symbol")
	assert.Equal(t, "if", toks[1].Text)
	assert.Equal(t, token.Ident, toks[2].Tag)
	assert.Equal(t, token.End, toks[3].Tag)
}

func TestNumberLiterals(t *testing.T) {
	toks := popAll(t, "42 3.14 0x1F 0b101 1e3 2e", lexer.IgnoreBreak)
	assert.Equal(t, token.Int, toks[0].Tag)
	assert.Equal(t, token.Real, toks[1].Tag)
	assert.Equal(t, token.Int, toks[2].Tag)
	assert.Equal(t, "0x1F", toks[2].Text)
	assert.Equal(t, token.Int, toks[3].Tag)
	assert.Equal(t, "0b101", toks[3].Text)
	assert.Equal(t, token.Real, toks[4].Tag)
	assert.Equal(t, "1e3", toks[4].Text)
	// "2e" has no digits after 'e', so the exponent is not consumed.
	assert.Equal(t, token.Int, toks[5].Tag)
	assert.Equal(t, "2", toks[5].Text)
}

func TestStringEscapes(t *testing.T) {
	toks := popAll(t, `"a\nb\x41\"c"`, lexer.IgnoreBreak)
	require.Equal(t, token.String, toks[0].Tag)
	assert.Equal(t, "a\nbA\"c", toks[0].Decoded)
}

func TestUnterminatedStringErrors(t *testing.T) {
	l := lexer.New(`"unterminated`)
	_, err := l.Pop(lexer.IgnoreBreak)
	require.Error(t, err)
	var lexErr *lexer.LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestMultiCharSymbolsGreedyMatch(t *testing.T) {
	toks := popAll(t, "a <= b == c", lexer.IgnoreBreak)
	assert.Equal(t, "<=", toks[1].Text)
	assert.Equal(t, "==", toks[3].Text)
}

func TestEndlineGuidance(t *testing.T) {
	ignoring := popAll(t, "a\nb", lexer.IgnoreBreak)
	require.Len(t, ignoring, 3)
	assert.Equal(t, token.Ident, ignoring[0].Tag)
	assert.Equal(t, token.Ident, ignoring[1].Tag)

	respecting := popAll(t, "a\nb", lexer.RespectBreak)
	require.Len(t, respecting, 4)
	assert.Equal(t, token.Endline, respecting[1].Tag)
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := popAll(t, "a // trailing comment\nb", lexer.IgnoreBreak)
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].Text)
	assert.Equal(t, "b", toks[1].Text)
}

func TestTopDoesNotConsume(t *testing.T) {
	l := lexer.New("foo bar")
	peeked, err := l.Top(lexer.IgnoreBreak)
	require.NoError(t, err)
	assert.Equal(t, "foo", peeked.Text)

	popped, err := l.Pop(lexer.IgnoreBreak)
	require.NoError(t, err)
	assert.Equal(t, "foo", popped.Text, "Top must not have advanced the stream")
}
