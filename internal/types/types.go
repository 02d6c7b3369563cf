// Package types implements the structural type model of spec.md §3/§4.B:
// a Type is an identifier vector (modifiers + head) plus a parallel
// sub-type vector, with structural equality, a recursive-descent type
// parser, and a generics-oriented Match/Apply pair.
//
// Grounded on github.com/funvibe/funxy/internal/typesystem's Type
// interface (String/Apply/FreeTypeVariables/Kind) generalized from a
// nominal+row-polymorphic system to the positional-ident structural
// system of original_source/src/ast/type.hpp's TypeInfo.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Base type names recognized verbatim by the analyzer. f64 is the sole
// numeric type; string participates per SPEC_FULL.md §C.3.
const (
	F64    = "f64"
	String = "string"
	Auto   = "auto"
)

// NoInstance is the sentinel type for "no value" (statement results,
// failed branch joins).
var NoInstance = Type{Idents: []string{"__NoInstanceType"}}

// Type is a structural value: Idents encodes modifiers ("[]", "*",
// "const") followed by a head ("func", "struct", "class", "dynamic", or
// a base-type/user-type name); SubTypes carries one entry per function
// parameter (+ return, if idents ends in ":") or one entry per member of
// a complex type, in the same order as the member idents.
type Type struct {
	Idents   []string
	SubTypes []Type
}

// New builds a base-type Type from a single name, e.g. New("f64").
func New(name string) Type { return Type{Idents: []string{name}} }

// IsValid reports whether t carries at least one non-empty ident.
func (t Type) IsValid() bool { return len(t.Idents) >= 1 && t.Idents[0] != "" }

func isModifier(id string) bool {
	return id == "*" || id == "const" || (len(id) > 0 && id[0] == '[')
}

func (t Type) headIndex() int {
	i := 0
	for i < len(t.Idents) && isModifier(t.Idents[i]) {
		i++
	}
	return i
}

// IsBaseType reports whether t is a plain, unmodified, non-complex,
// non-function named type.
func (t Type) IsBaseType() bool {
	return t.IsValid() && len(t.Idents) == 1 &&
		t.Idents[0] != "func" && t.Idents[0] != "struct" && t.Idents[0] != "class" && t.Idents[0] != "dynamic"
}

// IsComplexType reports whether t is a struct/class/dynamic record.
func (t Type) IsComplexType() bool {
	h := t.headIndex()
	return t.IsValid() && h < len(t.Idents) &&
		(t.Idents[h] == "struct" || t.Idents[h] == "class" || t.Idents[h] == "dynamic")
}

// IsFunctionType reports whether t's (unmodified) head is "func".
func (t Type) IsFunctionType() bool {
	h := t.headIndex()
	return t.IsValid() && h < len(t.Idents) && t.Idents[h] == "func"
}

// IsReturnedFunctionType reports whether a function type carries a
// return sub-type (idents ends in ":").
func (t Type) IsReturnedFunctionType() bool {
	return t.IsFunctionType() && len(t.Idents) > 0 && t.Idents[len(t.Idents)-1] == ":"
}

// ReturnType returns the function's return type, or NoInstance if it has
// none.
func (t Type) ReturnType() Type {
	if !t.IsReturnedFunctionType() {
		return NoInstance
	}
	return t.SubTypes[len(t.SubTypes)-1]
}

// ParamTypes returns the function's parameter types.
func (t Type) ParamTypes() []Type {
	if !t.IsFunctionType() {
		return nil
	}
	if t.IsReturnedFunctionType() {
		return t.SubTypes[:len(t.SubTypes)-1]
	}
	return t.SubTypes
}

// IsPointerType reports whether t's outermost modifier is "*".
func (t Type) IsPointerType() bool {
	return t.IsValid() && len(t.Idents) >= 1 && t.Idents[0] == "*"
}

// IsArrayType reports whether t's outermost modifier is "[]".
func (t Type) IsArrayType() bool {
	return t.IsValid() && len(t.Idents) >= 1 && len(t.Idents[0]) > 0 && t.Idents[0][0] == '['
}

// ElementType strips one "[]" modifier.
func (t Type) ElementType() Type {
	res := Type{Idents: append([]string{}, t.Idents[1:]...), SubTypes: t.SubTypes}
	return res
}

// PointerTo wraps t in one "*" modifier.
func PointerTo(t Type) Type {
	return Type{Idents: append([]string{"*"}, t.Idents...), SubTypes: t.SubTypes}
}

// ArrayOf wraps t in one "[]" modifier.
func ArrayOf(t Type) Type {
	return Type{Idents: append([]string{"[]"}, t.Idents...), SubTypes: t.SubTypes}
}

// HasMember reports whether a complex type names member.
func (t Type) HasMember(member string) bool {
	h := t.headIndex()
	for _, id := range t.Idents[h+1:] {
		if id == member {
			return true
		}
	}
	return false
}

// MemberType returns the declared type of member (panics if absent —
// callers must check HasMember first, matching the analyzer's
// resolve-then-type flow).
func (t Type) MemberType(member string) Type {
	h := t.headIndex()
	for i, id := range t.Idents[h+1:] {
		if id == member {
			return t.SubTypes[i]
		}
	}
	panic(fmt.Sprintf("type %s has no member %s", t.String(), member))
}

// MemberNames returns the member names of a complex type, in
// declaration order.
func (t Type) MemberNames() []string {
	h := t.headIndex()
	return t.Idents[h+1:]
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool { return t.Compare(o) == 0 }

// Compare gives a deterministic total order over Type values, used for
// sorting overload tables and for map-free set membership in tests.
func (t Type) Compare(o Type) int {
	if c := compareStrSlice(t.Idents, o.Idents); c != 0 {
		return c
	}
	if len(t.SubTypes) != len(o.SubTypes) {
		if len(t.SubTypes) < len(o.SubTypes) {
			return -1
		}
		return 1
	}
	for i := range t.SubTypes {
		if c := t.SubTypes[i].Compare(o.SubTypes[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareStrSlice(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return 0
}

// String renders t in the type grammar's surface syntax; printing a
// parsed Type then re-parsing it yields an equal Type (spec.md §8
// round-trip property).
func (t Type) String() string {
	var b strings.Builder
	i := 0
	for i < len(t.Idents) && isModifier(t.Idents[i]) {
		if t.Idents[i] == "const" {
			b.WriteString("const ")
		} else {
			b.WriteString(t.Idents[i])
		}
		i++
	}
	if i >= len(t.Idents) {
		return "[[void]]"
	}
	switch t.Idents[i] {
	case "func":
		b.WriteString("func(")
		params := t.ParamTypes()
		for j, p := range params {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(p.String())
		}
		b.WriteString(")")
		if t.IsReturnedFunctionType() {
			b.WriteString(":")
			b.WriteString(t.ReturnType().String())
		}
	case "struct", "class", "dynamic":
		b.WriteString(t.Idents[i])
		b.WriteString("{")
		names := t.Idents[i+1:]
		for j, n := range names {
			b.WriteString(n)
			b.WriteString(" ")
			b.WriteString(t.SubTypes[j].String())
			b.WriteString(";")
		}
		b.WriteString("}")
	default:
		b.WriteString(t.Idents[i])
	}
	return b.String()
}

// Subst maps a free template-parameter identifier to a concrete Type.
type Subst map[string]Type

// Match unifies a template type (t, the receiver) against a concrete
// type, treating any ident in free as a template parameter. It returns
// the binding substitution, or ok=false on a structural mismatch or an
// inconsistent re-binding of a free parameter (spec.md §4.B).
func (t Type) Match(concrete Type, free map[string]bool) (Subst, bool) {
	s := Subst{}
	if !t.match(concrete, free, s) {
		return nil, false
	}
	return s, true
}

func (t Type) match(concrete Type, free map[string]bool, s Subst) bool {
	// A bare free identifier (no modifiers, single ident) binds wholesale.
	if len(t.Idents) == 1 && free[t.Idents[0]] {
		name := t.Idents[0]
		if bound, ok := s[name]; ok {
			return bound.Equal(concrete)
		}
		s[name] = concrete
		return true
	}
	if len(t.Idents) == 0 || len(concrete.Idents) == 0 {
		return false
	}
	if t.Idents[0] != concrete.Idents[0] {
		// Both must agree on the same modifier/head at this position,
		// unless the template head is itself free (handled above).
		return false
	}
	tailT := Type{Idents: t.Idents[1:], SubTypes: t.SubTypes}
	tailC := Type{Idents: concrete.Idents[1:], SubTypes: concrete.SubTypes}
	switch t.Idents[0] {
	case "*", "[]":
		return tailT.match(tailC, free, s)
	case "const":
		return tailT.match(tailC, free, s)
	}
	// Non-modifier head reached: arities and sub-type shapes must match.
	if len(t.Idents) != len(concrete.Idents) {
		return false
	}
	if len(t.SubTypes) != len(concrete.SubTypes) {
		return false
	}
	switch t.Idents[0] {
	case "func", "struct", "class", "dynamic":
		for i := 1; i < len(t.Idents); i++ {
			if t.Idents[i] != concrete.Idents[i] && t.Idents[0] != "func" {
				return false // member/param names must match for complex types
			}
		}
		for i := range t.SubTypes {
			if !t.SubTypes[i].match(concrete.SubTypes[i], free, s) {
				return false
			}
		}
		return true
	default:
		return t.Idents[0] == concrete.Idents[0]
	}
}

// Apply substitutes every free identifier appearing in t with its
// binding in s, recursively.
func (t Type) Apply(s Subst) Type {
	if len(t.Idents) == 1 {
		if bound, ok := s[t.Idents[0]]; ok {
			return bound
		}
	}
	if len(t.Idents) > 1 && isModifier(t.Idents[0]) {
		inner := Type{Idents: t.Idents[1:], SubTypes: t.SubTypes}.Apply(s)
		return Type{Idents: append([]string{t.Idents[0]}, inner.Idents...), SubTypes: inner.SubTypes}
	}
	newSub := make([]Type, len(t.SubTypes))
	for i, st := range t.SubTypes {
		newSub[i] = st.Apply(s)
	}
	return Type{Idents: append([]string{}, t.Idents...), SubTypes: newSub}
}

// FreeIdents collects every bare single-ident component of t that is a
// member of free, for dependency/instantiation bookkeeping.
func (t Type) FreeIdents(free map[string]bool) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Type)
	walk = func(ty Type) {
		if len(ty.Idents) == 1 && free[ty.Idents[0]] && !seen[ty.Idents[0]] {
			seen[ty.Idents[0]] = true
			out = append(out, ty.Idents[0])
		}
		for _, st := range ty.SubTypes {
			walk(st)
		}
	}
	walk(t)
	sort.Strings(out)
	return out
}
