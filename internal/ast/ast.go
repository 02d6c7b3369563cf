// Package ast defines the expression-language AST: a tagged set of node
// structs (spec.md §3), each carrying an optional inferred type that is
// nil before semantic analysis and non-nil after.
//
// Grounded on github.com/funvibe/funxy/internal/ast's tagged-struct
// style (concrete structs implementing a thin Node interface, not a
// double-dispatch visitor hierarchy — see spec.md §9's "Visitor
// pattern" design note).
package ast

import (
	"github.com/funvibe/rulejitc/internal/token"
	"github.com/funvibe/rulejitc/internal/types"
)

// Node is implemented by every AST variant.
type Node interface {
	Range() token.Range
	Type() types.Type
	SetType(types.Type)
	node()
}

type base struct {
	Pos token.Range
	Ty  types.Type
}

func (b *base) Range() token.Range    { return b.Pos }
func (b *base) Type() types.Type      { return b.Ty }
func (b *base) SetType(t types.Type)  { b.Ty = t }

// Identifier is a bare name reference; the analyzer rewrites most of
// these in place to Literal nodes carrying a mangled function name.
type Identifier struct {
	base
	Name string
}

func (*Identifier) node() {}

// LiteralKind distinguishes the underlying Go value stored in Literal.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitBool
	LitMangledFunc // Mangled holds the mangled name of a resolved function
)

// Literal is a self-typed constant. Number literals store a float64.
type Literal struct {
	base
	Kind  LiteralKind
	Num   float64
	Str   string
	Mangled string
}

func (*Literal) node() {}

// MemberAccess is base.member; Member is itself an expression — a
// string Literal names a field, anything else (must type to f64) is an
// array index.
type MemberAccess struct {
	base
	Base   Node
	Member Node
}

func (*MemberAccess) node() {}

// FunctionCall is callee(args...).
type FunctionCall struct {
	base
	Callee Node
	Args   []Node
}

func (*FunctionCall) node() {}

// BinOp is lhs op rhs. A non-primitive operand pair is rewritten by the
// analyzer into a FunctionCall against the resolved symbolic-operator
// overload, so by the time a BinOp reaches the interpreter its operands
// are the built-in f64/bool kind, except that == and != also stay a
// BinOp for two operands of the same non-f64 type (such as string).
type BinOp struct {
	base
	Op  string
	LHS Node
	RHS Node
}

func (*BinOp) node() {}

// UnaryOp is op rhs; rewritten the same way BinOp is for overloaded
// operands.
type UnaryOp struct {
	base
	Op  string
	RHS Node
}

func (*UnaryOp) node() {}

// Branch is if(Cond) Then [else Else].
type Branch struct {
	base
	Cond Node
	Then Node
	Else Node // nil if no else clause
}

func (*Branch) node() {}

// ComplexMember is one member initializer inside a ComplexLiteral.
// Designator is empty when the literal is positional.
type ComplexMember struct {
	Designator string
	Value      Node
}

// ComplexLiteral is Type{.name: value, ...} or Type{value, ...}.
type ComplexLiteral struct {
	base
	TypeExpr types.Type
	Members  []ComplexMember
}

func (*ComplexLiteral) node() {}

// Loop is while(Cond) [@Label] Body, with an optional Init clause run
// once before the first condition check.
type Loop struct {
	base
	Label string
	Init  Node // nil if absent
	Cond  Node
	Body  Node
}

func (*Loop) node() {}

// Block is { expr; expr; ... }; its value is that of the last
// expression.
type Block struct {
	base
	Exprs []Node
}

func (*Block) node() {}

// ControlFlowKind distinguishes break/continue/return.
type ControlFlowKind int

const (
	Break ControlFlowKind = iota
	Continue
	Return
)

// ControlFlow is break/continue/return [label] [value].
type ControlFlow struct {
	base
	Kind  ControlFlowKind
	Label string
	Value Node // nil if absent
}

func (*ControlFlow) node() {}

// TypeDefKind distinguishes a normal type definition from an alias.
type TypeDefKind int

const (
	TypeNormal TypeDefKind = iota
	TypeAlias
)

// TypeDef is type Name = DefinedType (kind Alias) or type Name
// DefinedType (kind Normal, struct/class/dynamic bodies).
type TypeDef struct {
	base
	Name        string
	DefinedType types.Type
	Kind        TypeDefKind
}

func (*TypeDef) node() {}

// VarDefKind distinguishes var from const.
type VarDefKind int

const (
	VarNormal VarDefKind = iota
	VarConstant
)

// VarDef is var/const Name DeclType = Value.
type VarDef struct {
	base
	Name     string
	DeclType types.Type // may be the Auto marker before inference fills it in
	Value    Node
	Kind     VarDefKind
}

func (*VarDef) node() {}

// FunctionDefKind distinguishes a normal free function, a member
// function, a symbolic (operator-overload) function, and an anonymous
// lambda.
type FunctionDefKind int

const (
	FuncNormal FunctionDefKind = iota
	FuncMember
	FuncSymbolic
	FuncLambda
)

// Param is one function parameter.
type Param struct {
	Name string
	Type types.Type
}

// FunctionDef is func Name(params...) [: RetType] { ReturnValue }. Once
// registered, FuncType is filled in with the full func(...)[:...] type.
type FunctionDef struct {
	base
	Name        string
	Mangled     string
	FuncType    types.Type
	Params      []Param
	ReturnValue Node
	Kind        FunctionDefKind
}

func (*FunctionDef) node() {}

// SymbolDefKind distinguishes import/export/extern declarations.
type SymbolDefKind int

const (
	SymImport SymbolDefKind = iota
	SymExport
	SymExtern
)

// SymbolDef declares an external symbol's type without a body.
type SymbolDef struct {
	base
	Name string
	Kind SymbolDefKind
	SymType types.Type
}

func (*SymbolDef) node() {}

// TemplateDef wraps a FunctionDef with free type-parameter names.
type TemplateDef struct {
	base
	TypeParams []string
	Body       *FunctionDef
}

func (*TemplateDef) node() {}

// Constructors. Parser and translator code outside this package cannot
// build the embedded `base` field directly (unexported), so every node
// variant gets a small New* function that also fills in its Range.

func NewIdentifier(r token.Range, name string) *Identifier {
	return &Identifier{base: base{Pos: r}, Name: name}
}

func NewNumberLiteral(r token.Range, v float64) *Literal {
	return &Literal{base: base{Pos: r, Ty: types.New(types.F64)}, Kind: LitNumber, Num: v}
}

func NewStringLiteral(r token.Range, s string) *Literal {
	return &Literal{base: base{Pos: r, Ty: types.New(types.String)}, Kind: LitString, Str: s}
}

func NewBoolLiteral(r token.Range, b bool) *Literal {
	v := 0.0
	if b {
		v = 1.0
	}
	return &Literal{base: base{Pos: r, Ty: types.New(types.F64)}, Kind: LitBool, Num: v}
}

func NewMangledLiteral(r token.Range, t types.Type, mangled string) *Literal {
	return &Literal{base: base{Pos: r, Ty: t}, Kind: LitMangledFunc, Mangled: mangled}
}

func NewMemberAccess(r token.Range, b, member Node) *MemberAccess {
	return &MemberAccess{base: base{Pos: r}, Base: b, Member: member}
}

func NewFunctionCall(r token.Range, callee Node, args []Node) *FunctionCall {
	return &FunctionCall{base: base{Pos: r}, Callee: callee, Args: args}
}

func NewBinOp(r token.Range, op string, lhs, rhs Node) *BinOp {
	return &BinOp{base: base{Pos: r}, Op: op, LHS: lhs, RHS: rhs}
}

func NewUnaryOp(r token.Range, op string, rhs Node) *UnaryOp {
	return &UnaryOp{base: base{Pos: r}, Op: op, RHS: rhs}
}

func NewBranch(r token.Range, cond, then, els Node) *Branch {
	return &Branch{base: base{Pos: r}, Cond: cond, Then: then, Else: els}
}

func NewComplexLiteral(r token.Range, t types.Type, members []ComplexMember) *ComplexLiteral {
	return &ComplexLiteral{base: base{Pos: r}, TypeExpr: t, Members: members}
}

func NewLoop(r token.Range, label string, init, cond, body Node) *Loop {
	return &Loop{base: base{Pos: r}, Label: label, Init: init, Cond: cond, Body: body}
}

func NewBlock(r token.Range, exprs []Node) *Block {
	return &Block{base: base{Pos: r}, Exprs: exprs}
}

func NewControlFlow(r token.Range, kind ControlFlowKind, label string, value Node) *ControlFlow {
	return &ControlFlow{base: base{Pos: r}, Kind: kind, Label: label, Value: value}
}

func NewTypeDef(r token.Range, name string, defined types.Type, kind TypeDefKind) *TypeDef {
	return &TypeDef{base: base{Pos: r}, Name: name, DefinedType: defined, Kind: kind}
}

func NewVarDef(r token.Range, name string, declType types.Type, value Node, kind VarDefKind) *VarDef {
	return &VarDef{base: base{Pos: r}, Name: name, DeclType: declType, Value: value, Kind: kind}
}

func NewFunctionDef(r token.Range, name string, params []Param, returnValue Node, kind FunctionDefKind) *FunctionDef {
	return &FunctionDef{base: base{Pos: r}, Name: name, Params: params, ReturnValue: returnValue, Kind: kind}
}

func NewSymbolDef(r token.Range, name string, kind SymbolDefKind, t types.Type) *SymbolDef {
	return &SymbolDef{base: base{Pos: r}, Name: name, Kind: kind, SymType: t}
}

func NewTemplateDef(r token.Range, typeParams []string, body *FunctionDef) *TemplateDef {
	return &TemplateDef{base: base{Pos: r}, TypeParams: typeParams, Body: body}
}

// CloneShallow is used by the analyzer's template instantiation: it
// copies an AST node's top-level struct (not its children), letting a
// substitution walk rebuild the children underneath. Node bodies are
// small enough that a type-switch copy is simpler than reflection.
func CloneShallow(n Node) Node {
	switch v := n.(type) {
	case *Identifier:
		cp := *v
		return &cp
	case *Literal:
		cp := *v
		return &cp
	case *MemberAccess:
		cp := *v
		return &cp
	case *FunctionCall:
		cp := *v
		cp.Args = append([]Node{}, v.Args...)
		return &cp
	case *BinOp:
		cp := *v
		return &cp
	case *UnaryOp:
		cp := *v
		return &cp
	case *Branch:
		cp := *v
		return &cp
	case *ComplexLiteral:
		cp := *v
		cp.Members = append([]ComplexMember{}, v.Members...)
		return &cp
	case *Loop:
		cp := *v
		return &cp
	case *Block:
		cp := *v
		cp.Exprs = append([]Node{}, v.Exprs...)
		return &cp
	case *ControlFlow:
		cp := *v
		return &cp
	case *VarDef:
		cp := *v
		return &cp
	case *FunctionDef:
		cp := *v
		cp.Params = append([]Param{}, v.Params...)
		return &cp
	default:
		return n
	}
}
