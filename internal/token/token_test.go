package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/funvibe/rulejitc/internal/token"
)

func TestIsReserved(t *testing.T) {
	assert.True(t, token.IsReserved("if"))
	assert.True(t, token.IsReserved("while"))
	assert.False(t, token.IsReserved("foo"))
}

func TestMultiCharSymbolsOrderedLongestFirst(t *testing.T) {
	syms := token.MultiCharSymbols()
	assert.Contains(t, syms, "<<-")
	assert.Contains(t, syms, "==")
	for i := 1; i < len(syms); i++ {
		assert.GreaterOrEqual(t, len(syms[i-1]), len(syms[i]))
	}
}

func TestPositionString(t *testing.T) {
	p := token.Position{Offset: 5, Line: 2, Column: 3}
	assert.Equal(t, "2:3", p.String())
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "Ident", token.Ident.String())
	assert.Equal(t, "Unknown", token.Tag(99).String())
}

func TestTokenString(t *testing.T) {
	tok := token.Token{Tag: token.Ident, Text: "x", Pos: token.Position{Line: 1, Column: 1}}
	assert.Equal(t, `Ident("x")@1:1`, tok.String())
}
