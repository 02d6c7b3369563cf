package ruleset

import (
	"fmt"
	"strings"

	"github.com/funvibe/rulejitc/internal/types"
)

// renderTypeDefines emits one `type Name struct{...}` declaration per
// TypeDefine, in declaration order (spec.md §4.F.1 "every struct type
// becomes a type T struct {...} declaration").
func renderTypeDefines(defs []TypeDefine) string {
	var b strings.Builder
	for _, td := range defs {
		b.WriteString("type ")
		b.WriteString(td.Name)
		b.WriteString(" struct{")
		for _, m := range td.Members {
			fmt.Fprintf(&b, "%s %s;", m.Name, m.Type.String())
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// predefinesPreamble is the built-in textual preamble of spec.md §4.F.1:
// fuzzy-logic helpers and math wrappers used by consequence/condition
// expressions. Grounded on github.com/funvibe/funxy's builtin math
// dispatch (sin/cos/pow/...), generalized from interpreter built-ins
// into expression-language-level wrapper functions so the analyzer can
// resolve them the same way it resolves any user function.
const predefinesPreamble = `
const PI = 3.14159265358979

func clamp01(x f64): f64 {
	if(x < 0) { 0 } else { if(x > 1) { 1 } else { x } }
}

func fuzzyAnd(a f64, b f64): f64 {
	if(a < b) { a } else { b }
}

func fuzzyOr(a f64, b f64): f64 {
	if(a > b) { a } else { b }
}

func fuzzyNot(a f64): f64 {
	1 - a
}

func lerp(a f64, b f64, t f64): f64 {
	a + (b - a) * clamp01(t)
}
`

// zeroLiteral synthesizes a default-value expression for t, used when a
// MetaInfo entry declares neither InitValue nor Value — every variable
// still needs a storage location with some starting value. Array-typed
// fields are not covered (the grammar has no array-literal form) and
// must carry an explicit InitValue or Value.
func zeroLiteral(t types.Type) string {
	switch {
	case t.Equal(types.New(types.String)):
		return `""`
	case t.IsComplexType():
		var b strings.Builder
		b.WriteString(t.String())
		b.WriteString("{")
		for i, name := range t.MemberNames() {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, ".%s: %s", name, zeroLiteral(t.SubTypes[i]))
		}
		b.WriteString("}")
		return b.String()
	default:
		return "0"
	}
}
