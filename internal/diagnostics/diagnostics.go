// Package diagnostics implements the uniform typed-error model of
// spec.md §7: a single Diagnostic value carrying an error Kind, a human
// cause, a source Location, and the AST call stack active when the
// error was raised, plus source-snippet rendering driven by the lexer's
// recorded line-start table.
//
// Grounded on github.com/funvibe/funxy/internal/typesystem/error.go's
// typed-error values and cmd/lsp/diagnostics.go's range-to-snippet
// rendering, generalized into the six error kinds spec.md names.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/rulejitc/internal/token"
)

// Kind names one of the six fatal error families of spec.md §7.
type Kind string

const (
	LexError        Kind = "LexError"
	ParseErrorKind  Kind = "ParseError"
	TypeError       Kind = "TypeError"
	TranslatorError Kind = "TranslatorError"
	RuntimeError    Kind = "RuntimeError"
	HostError       Kind = "HostError"
)

// Frame names one entry in the AST call-stack recorded at the point of
// failure: a short description of the node plus its source range.
type Frame struct {
	Describe string
	Range    token.Range
}

// Diagnostic is the single structured error type every component raises.
type Diagnostic struct {
	Kind      Kind
	Component string
	Cause     string
	Location  token.Range
	Stack     []Frame
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s at %s", d.Kind, d.Component, d.Cause, d.Location.Start)
	for _, f := range d.Stack {
		fmt.Fprintf(&b, "\n  while checking %s (%s)", f.Describe, f.Range.Start)
	}
	return b.String()
}

// New builds a Diagnostic.
func New(kind Kind, component, cause string, loc token.Range) *Diagnostic {
	return &Diagnostic{Kind: kind, Component: component, Cause: cause, Location: loc}
}

// WithFrame returns a copy of d with one more call-stack frame pushed,
// used as errors bubble out of nested AST-walking calls (the "no
// recovery, bubble a structured cause plus the AST call stack" policy of
// spec.md §7).
func (d *Diagnostic) WithFrame(describe string, r token.Range) *Diagnostic {
	cp := *d
	cp.Stack = append(append([]Frame{}, d.Stack...), Frame{Describe: describe, Range: r})
	return &cp
}

// Render rebuilds a source snippet for d.Location from src and the
// lexer's line-start offsets, producing the "error kind, cause, and a
// source-location snippet" user-visible diagnostic of spec.md §7.
func Render(d *Diagnostic, src string, lineStarts []int) string {
	line := d.Location.Start.Line
	var snippet string
	if line >= 1 && line <= len(lineStarts) {
		start := lineStarts[line-1]
		end := len(src)
		if line < len(lineStarts) {
			end = lineStarts[line]
		}
		snippet = strings.TrimRight(src[start:end], "\n")
	}
	marker := strings.Repeat(" ", max(0, d.Location.Start.Column-1)) + "^"
	return fmt.Sprintf("%s\n%s\n%s\n%s", d.Error(), snippet, marker, "")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
