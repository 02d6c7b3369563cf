package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/token"
)

func rangeAt(line, col int) token.Range {
	pos := token.Position{Line: line, Column: col}
	return token.Range{Start: pos, End: pos}
}

func TestErrorIncludesKindComponentCauseAndLocation(t *testing.T) {
	d := diagnostics.New(diagnostics.TypeError, "analyzer", "undefined name \"x\"", rangeAt(3, 5))
	msg := d.Error()
	assert.Contains(t, msg, "TypeError")
	assert.Contains(t, msg, "analyzer")
	assert.Contains(t, msg, "undefined name \"x\"")
	assert.Contains(t, msg, "3:5")
}

func TestWithFrameAppendsWithoutMutatingOriginal(t *testing.T) {
	d := diagnostics.New(diagnostics.RuntimeError, "interpreter", "division by zero", rangeAt(1, 1))
	framed := d.WithFrame("call to f", rangeAt(2, 1))

	assert.Empty(t, d.Stack)
	assert.Len(t, framed.Stack, 1)
	assert.Contains(t, framed.Error(), "while checking call to f")
	assert.NotContains(t, d.Error(), "while checking")
}

func TestWithFrameChainsMultipleFrames(t *testing.T) {
	d := diagnostics.New(diagnostics.RuntimeError, "interpreter", "boom", rangeAt(1, 1))
	framed := d.WithFrame("outer", rangeAt(1, 1)).WithFrame("inner", rangeAt(2, 2))
	assert.Len(t, framed.Stack, 2)
	assert.Equal(t, "outer", framed.Stack[0].Describe)
	assert.Equal(t, "inner", framed.Stack[1].Describe)
}

func TestRenderProducesSourceSnippetWithCaretAtColumn(t *testing.T) {
	src := "a = 1\nb = bogus\n"
	lineStarts := []int{0, 6}
	d := diagnostics.New(diagnostics.TypeError, "analyzer", "undefined name \"bogus\"", rangeAt(2, 5))
	out := diagnostics.Render(d, src, lineStarts)
	assert.Contains(t, out, "b = bogus")
	assert.Contains(t, out, "    ^")
}
