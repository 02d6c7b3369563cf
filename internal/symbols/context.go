// Package symbols implements the two-layer Context of spec.md §3/§4.D:
// a global registry of mangled real-function bodies, overload tables,
// type definitions and templates, plus a pushable/poppable frame stack
// for variable and constant scoping.
//
// Grounded on github.com/funvibe/funxy/internal/symbols's split-by-concern
// symbol-table files (symbol_table_core.go, symbol_table_dispatch.go,
// symbol_table_resolution.go, ...), generalized from that teacher's
// module-aware, row-polymorphic table to the flat mangled-name registry
// spec.md describes.
package symbols

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/types"
)

// OverloadEntry pairs one overload's parameter-type vector with its
// mangled name; types.Type is not comparable with == (it embeds
// slices), so overload tables are stored as slices searched by
// types.Type.Equal and kept small (one function's overload set is
// rarely more than a handful of entries).
type OverloadEntry struct {
	Params  []types.Type
	Mangled string
}

func sameParams(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// TemplateFunctionInfo holds a templated function's body, its free
// type-parameter names, and an instantiation cache keyed by the
// concrete substitution (compared by the rendered parameter-type
// signature, which is deterministic per types.Type.String).
type TemplateFunctionInfo struct {
	TypeParams    []string
	Body          *ast.FunctionDef
	Instantiated  map[string]string // substitution signature -> mangled name
}

// Context is the global registry (§4.D "Global"). It is safe for
// concurrent read access during analysis of independent real functions,
// but Init/registration calls are expected to come from a single
// analyzer goroutine, matching spec.md §5's single-threaded-per-instance
// scheduling model.
type Context struct {
	mu sync.Mutex

	RealFuncDefinition map[string]*ast.FunctionDef
	FuncDependency     map[string]map[string]bool
	CheckedFunc        map[string]bool

	FuncDef       map[string]string // userName -> mangled, for unique normal functions
	MemberFuncDef map[string][]OverloadEntry
	SymbolicFuncDef map[string][]OverloadEntry
	ExternFuncDef map[string]types.Type

	TypeDef map[string]types.Type

	Templates map[string]*TemplateFunctionInfo

	uniqueCounter int
}

// NewContext builds an empty global registry.
func NewContext() *Context {
	return &Context{
		RealFuncDefinition: map[string]*ast.FunctionDef{},
		FuncDependency:     map[string]map[string]bool{},
		CheckedFunc:        map[string]bool{},
		FuncDef:            map[string]string{},
		MemberFuncDef:       map[string][]OverloadEntry{},
		SymbolicFuncDef:     map[string][]OverloadEntry{},
		ExternFuncDef:      map[string]types.Type{},
		TypeDef:            map[string]types.Type{},
		Templates:          map[string]*TemplateFunctionInfo{},
	}
}

// GenerateUniqueName appends a monotone counter suffix to prefix+suffix,
// guaranteeing global mangled-name uniqueness (spec.md §8 "mangled-name
// uniqueness").
func (c *Context) GenerateUniqueName(prefix, suffix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uniqueCounter++
	return fmt.Sprintf("__buildin_%s_%d_%s", prefix, c.uniqueCounter, suffix)
}

// RegisterFunction stores def under a fresh mangled name and records it
// in RealFuncDefinition; callers are responsible for also updating the
// appropriate overload table (FuncDef/MemberFuncDef/SymbolicFuncDef).
func (c *Context) RegisterFunction(def *ast.FunctionDef) string {
	mangled := c.GenerateUniqueName("func", sanitize(def.Name))
	def.Mangled = mangled
	c.mu.Lock()
	c.RealFuncDefinition[mangled] = def
	c.mu.Unlock()
	return mangled
}

func sanitize(name string) string {
	if name == "" {
		return "anon"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
}

// LookupMember finds a member-function overload matching (recv, args...).
func (c *Context) LookupMember(name string, params []types.Type) (string, bool) {
	for _, e := range c.MemberFuncDef[name] {
		if sameParams(e.Params, params) {
			return e.Mangled, true
		}
	}
	return "", false
}

// AddMember registers a member-function overload, returning an error
// for a conflicting exact-type redefinition (invariant (a) of spec.md
// §3).
func (c *Context) AddMember(name string, params []types.Type, mangled string) error {
	if _, ok := c.LookupMember(name, params); ok {
		return fmt.Errorf("member function %q already defined for these parameter types", name)
	}
	c.MemberFuncDef[name] = append(c.MemberFuncDef[name], OverloadEntry{Params: params, Mangled: mangled})
	return nil
}

// LookupSymbolic finds an operator-overload matching op and operand
// types.
func (c *Context) LookupSymbolic(op string, params []types.Type) (string, bool) {
	for _, e := range c.SymbolicFuncDef[op] {
		if sameParams(e.Params, params) {
			return e.Mangled, true
		}
	}
	return "", false
}

// reservedOperators may never be overloaded (spec.md §4.E.5).
var reservedOperators = map[string]bool{"=": true, "<<-": true}

// AddSymbolic registers an operator overload.
func (c *Context) AddSymbolic(op string, params []types.Type, mangled string) error {
	if reservedOperators[op] {
		return fmt.Errorf("operator %q is reserved and cannot be overloaded", op)
	}
	if _, ok := c.LookupSymbolic(op, params); ok {
		return fmt.Errorf("operator %q already defined for these parameter types", op)
	}
	c.SymbolicFuncDef[op] = append(c.SymbolicFuncDef[op], OverloadEntry{Params: params, Mangled: mangled})
	return nil
}

// MarkChecked records that fn's body has been validated and its
// dependency set is final.
func (c *Context) MarkChecked(mangled string, deps map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CheckedFunc[mangled] = true
	c.FuncDependency[mangled] = deps
}

// IsChecked reports whether mangled's body has already been validated.
func (c *Context) IsChecked(mangled string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CheckedFunc[mangled]
}

// TransitiveDependencies returns the closure of mangled's call graph,
// used by the code generator and by the "every reachable dependency is
// checked" driver of spec.md §4.E.6.
func (c *Context) TransitiveDependencies(mangled string) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]bool{mangled: true}
	queue := []string{mangled}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range c.FuncDependency[cur] {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	delete(seen, mangled)
	return seen
}

// Frame is one lexical scope: local variables and constants. Frames are
// pushed on scope entry and popped on exit (§3 "Frame").
type Frame struct {
	VarDef   map[string]types.Type
	ConstDef map[string]ConstBinding
	parent   *Frame
}

// ConstBinding pairs a constant's type and its literal value.
type ConstBinding struct {
	Type  types.Type
	Value interface{}
}

func newFrame(parent *Frame) *Frame {
	return &Frame{VarDef: map[string]types.Type{}, ConstDef: map[string]ConstBinding{}, parent: parent}
}

// Stack is the context-stack-wide scope chain used during analysis of a
// single function body.
type Stack struct {
	top *Frame
}

// NewStack starts a stack with one empty frame.
func NewStack() *Stack { return &Stack{top: newFrame(nil)} }

// Push enters a new nested scope.
func (s *Stack) Push() { s.top = newFrame(s.top) }

// Pop leaves the innermost scope.
func (s *Stack) Pop() {
	if s.top.parent != nil {
		s.top = s.top.parent
	}
}

// DefineVar declares name in the innermost frame. It is an error to
// redefine a name already bound (as var, const, or function) within the
// same frame (invariant (b) of §3).
func (s *Stack) DefineVar(name string, t types.Type) error {
	if _, ok := s.top.VarDef[name]; ok {
		return fmt.Errorf("variable %q already defined in this scope", name)
	}
	if _, ok := s.top.ConstDef[name]; ok {
		return fmt.Errorf("name %q already defined as constant in this scope", name)
	}
	s.top.VarDef[name] = t
	return nil
}

// DefineConst declares a constant in the innermost frame.
func (s *Stack) DefineConst(name string, t types.Type, v interface{}) error {
	if _, ok := s.top.VarDef[name]; ok {
		return fmt.Errorf("name %q already defined as variable in this scope", name)
	}
	if _, ok := s.top.ConstDef[name]; ok {
		return fmt.Errorf("constant %q already defined in this scope", name)
	}
	s.top.ConstDef[name] = ConstBinding{Type: t, Value: v}
	return nil
}

// Lookup searches innermost-first for a variable or constant binding.
func (s *Stack) Lookup(name string) (types.Type, bool) {
	for f := s.top; f != nil; f = f.parent {
		if t, ok := f.VarDef[name]; ok {
			return t, true
		}
		if c, ok := f.ConstDef[name]; ok {
			return c.Type, true
		}
	}
	return types.Type{}, false
}

// LookupConst searches innermost-first for a constant binding
// specifically (used when an AST node needs the literal value, not just
// the type).
func (s *Stack) LookupConst(name string) (ConstBinding, bool) {
	for f := s.top; f != nil; f = f.parent {
		if c, ok := f.ConstDef[name]; ok {
			return c, true
		}
		if _, ok := f.VarDef[name]; ok {
			return ConstBinding{}, false
		}
	}
	return ConstBinding{}, false
}

// SortedMemberKeys is a small helper used by the translator and code
// generator to emit deterministic output for map-keyed data.
func SortedMemberKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
