package analyzer

import (
	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/types"
)

// infer type-checks n, rewriting bare-name calls and operator overloads
// to mangled dispatches in place, and returns the (possibly replaced)
// node with its Type set. This is the heart of spec.md §4.E: name
// resolution, overload dispatch, and member-function call rewriting.
func (a *Analyzer) infer(n ast.Node) ast.Node {
	switch v := n.(type) {
	case *ast.Identifier:
		return a.inferIdentifier(v)
	case *ast.Literal:
		return v
	case *ast.MemberAccess:
		return a.inferMemberAccess(v)
	case *ast.FunctionCall:
		return a.inferCall(v)
	case *ast.BinOp:
		return a.inferBinOp(v)
	case *ast.UnaryOp:
		return a.inferUnaryOp(v)
	case *ast.Branch:
		return a.inferBranch(v)
	case *ast.ComplexLiteral:
		return a.inferComplexLiteral(v)
	case *ast.Loop:
		return a.inferLoop(v)
	case *ast.Block:
		return a.inferBlock(v)
	case *ast.ControlFlow:
		return a.inferControlFlow(v)
	case *ast.VarDef:
		a.analyzeVarDef(v)
		v.SetType(types.NoInstance)
		return v
	case *ast.FunctionDef:
		return a.inferClosure(v)
	default:
		return n
	}
}

func (a *Analyzer) inferIdentifier(v *ast.Identifier) ast.Node {
	if t, ok := a.scope.Lookup(v.Name); ok {
		v.SetType(t)
		return v
	}
	if mangled, ok := a.ctx.FuncDef[v.Name]; ok {
		def := a.ctx.RealFuncDefinition[mangled]
		return ast.NewMangledLiteral(v.Range(), def.FuncType, mangled)
	}
	if t, ok := a.ctx.ExternFuncDef[v.Name]; ok {
		return ast.NewMangledLiteral(v.Range(), t, v.Name)
	}
	a.errorf(v, diagnostics.TypeError, "undefined name %q", v.Name)
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) inferMemberAccess(v *ast.MemberAccess) ast.Node {
	v.Base = a.infer(v.Base)
	baseType := v.Base.Type()

	if lit, ok := v.Member.(*ast.Literal); ok && lit.Kind == ast.LitString {
		if !baseType.IsComplexType() {
			a.errorf(v, diagnostics.TypeError, "type %s has no members", baseType.String())
			v.SetType(types.NoInstance)
			return v
		}
		if !baseType.HasMember(lit.Str) {
			a.errorf(v, diagnostics.TypeError, "type %s has no member %q", baseType.String(), lit.Str)
			v.SetType(types.NoInstance)
			return v
		}
		v.SetType(baseType.MemberType(lit.Str))
		return v
	}

	v.Member = a.infer(v.Member)
	if !baseType.IsArrayType() {
		a.errorf(v, diagnostics.TypeError, "type %s is not indexable", baseType.String())
		v.SetType(types.NoInstance)
		return v
	}
	if !v.Member.Type().Equal(types.New(types.F64)) {
		a.errorf(v, diagnostics.TypeError, "array index must be f64, got %s", v.Member.Type().String())
	}
	v.SetType(baseType.ElementType())
	return v
}

// inferCall resolves callee dispatch per spec.md §4.E.1/§4.E.3/§4.E.4:
// a normal function, a template instantiation, or (when the name
// matches no normal function) a member-function call with the first
// argument as receiver.
func (a *Analyzer) inferCall(v *ast.FunctionCall) ast.Node {
	for i, arg := range v.Args {
		v.Args[i] = a.infer(arg)
	}
	argTypes := make([]types.Type, len(v.Args))
	for i, arg := range v.Args {
		argTypes[i] = arg.Type()
	}

	ident, isName := v.Callee.(*ast.Identifier)
	if !isName {
		v.Callee = a.infer(v.Callee)
		return a.finishCall(v, v.Callee.Type(), argTypes)
	}

	if mangled, ok := a.ctx.FuncDef[ident.Name]; ok {
		def := a.ctx.RealFuncDefinition[mangled]
		v.Callee = ast.NewMangledLiteral(ident.Range(), def.FuncType, mangled)
		a.recordDep(mangled)
		return a.finishCall(v, def.FuncType, argTypes)
	}

	if tmpl, ok := a.ctx.Templates[ident.Name]; ok {
		mangled, ft, err := a.instantiate(tmpl, argTypes)
		if err != nil {
			a.errorf(v, diagnostics.TypeError, "%s", err.Error())
			v.SetType(types.NoInstance)
			return v
		}
		v.Callee = ast.NewMangledLiteral(ident.Range(), ft, mangled)
		a.recordDep(mangled)
		return a.finishCall(v, ft, argTypes)
	}

	if len(argTypes) >= 1 {
		if mangled, ok := a.ctx.LookupMember(ident.Name, argTypes); ok {
			def := a.ctx.RealFuncDefinition[mangled]
			v.Callee = ast.NewMangledLiteral(ident.Range(), def.FuncType, mangled)
			a.recordDep(mangled)
			return a.finishCall(v, def.FuncType, argTypes)
		}
	}

	if t, ok := a.ctx.ExternFuncDef[ident.Name]; ok {
		v.Callee = ast.NewMangledLiteral(ident.Range(), t, ident.Name)
		return a.finishCall(v, t, argTypes)
	}

	a.errorf(v, diagnostics.TypeError, "no function %q matches the given argument types", ident.Name)
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) recordDep(mangled string) {
	if a.curDeps != nil {
		a.curDeps[mangled] = true
	}
}

func (a *Analyzer) finishCall(v *ast.FunctionCall, calleeType types.Type, argTypes []types.Type) ast.Node {
	if !calleeType.IsFunctionType() {
		a.errorf(v, diagnostics.TypeError, "cannot call a value of type %s", calleeType.String())
		v.SetType(types.NoInstance)
		return v
	}
	params := calleeType.ParamTypes()
	if len(params) != len(argTypes) {
		a.errorf(v, diagnostics.TypeError, "expected %d arguments, got %d", len(params), len(argTypes))
	} else {
		for i, p := range params {
			if !p.Equal(argTypes[i]) {
				a.errorf(v, diagnostics.TypeError, "argument %d: expected %s, got %s", i+1, p.String(), argTypes[i].String())
			}
		}
	}
	v.SetType(calleeType.ReturnType())
	return v
}

// primitiveOperators may be evaluated directly on f64 operands without
// consulting the symbolic overload table.
var primitiveOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "and": true, "or": true, "xor": true, "..": true,
}

func (a *Analyzer) inferBinOp(v *ast.BinOp) ast.Node {
	v.LHS = a.infer(v.LHS)

	if v.Op == "=" {
		v.RHS = a.infer(v.RHS)
		if !a.checkAssignable(v.LHS.Type(), v.RHS.Type()) {
			a.errorf(v, diagnostics.TypeError, "cannot assign %s to %s", v.RHS.Type().String(), v.LHS.Type().String())
		}
		v.SetType(v.LHS.Type())
		return v
	}

	v.RHS = a.infer(v.RHS)
	lt, rt := v.LHS.Type(), v.RHS.Type()
	f64 := types.New(types.F64)

	if primitiveOperators[v.Op] && lt.Equal(f64) && rt.Equal(f64) {
		v.SetType(f64)
		return v
	}
	if (v.Op == "==" || v.Op == "!=") && lt.Equal(rt) {
		// Value equality over any equal structural type, per
		// SPEC_FULL.md §C.2 (string compared by content, same as f64).
		v.SetType(f64)
		return v
	}

	if mangled, ok := a.ctx.LookupSymbolic(v.Op, []types.Type{lt, rt}); ok {
		def := a.ctx.RealFuncDefinition[mangled]
		a.recordDep(mangled)
		call := ast.NewFunctionCall(v.Range(), ast.NewMangledLiteral(v.Range(), def.FuncType, mangled), []ast.Node{v.LHS, v.RHS})
		call.SetType(def.FuncType.ReturnType())
		return call
	}

	a.errorf(v, diagnostics.TypeError, "no operator %q defined for %s and %s", v.Op, lt.String(), rt.String())
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) inferUnaryOp(v *ast.UnaryOp) ast.Node {
	v.RHS = a.infer(v.RHS)
	rt := v.RHS.Type()
	f64 := types.New(types.F64)

	switch v.Op {
	case "-", "!", "not":
		if rt.Equal(f64) {
			v.SetType(f64)
			return v
		}
	case "*":
		// Pointer dereference: the operand must already be a pointer;
		// the result carries the pointee type.
		if rt.IsPointerType() {
			v.SetType(types.Type{Idents: append([]string{}, rt.Idents[1:]...), SubTypes: rt.SubTypes})
			return v
		}
	case "&":
		v.SetType(types.PointerTo(rt))
		return v
	}

	if mangled, ok := a.ctx.LookupSymbolic(v.Op, []types.Type{rt}); ok {
		def := a.ctx.RealFuncDefinition[mangled]
		a.recordDep(mangled)
		call := ast.NewFunctionCall(v.Range(), ast.NewMangledLiteral(v.Range(), def.FuncType, mangled), []ast.Node{v.RHS})
		call.SetType(def.FuncType.ReturnType())
		return call
	}

	a.errorf(v, diagnostics.TypeError, "no unary operator %q defined for %s", v.Op, rt.String())
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) inferBranch(v *ast.Branch) ast.Node {
	v.Cond = a.infer(v.Cond)
	if !v.Cond.Type().Equal(types.New(types.F64)) {
		a.errorf(v, diagnostics.TypeError, "if condition must be f64 (nonzero is true), got %s", v.Cond.Type().String())
	}
	v.Then = a.infer(v.Then)
	if v.Else != nil {
		v.Else = a.infer(v.Else)
		if v.Then.Type().Equal(v.Else.Type()) {
			v.SetType(v.Then.Type())
			return v
		}
	}
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) inferLoop(v *ast.Loop) ast.Node {
	a.scope.Push()
	if v.Init != nil {
		v.Init = a.infer(v.Init)
	}
	v.Cond = a.infer(v.Cond)
	if !v.Cond.Type().Equal(types.New(types.F64)) {
		a.errorf(v, diagnostics.TypeError, "while condition must be f64, got %s", v.Cond.Type().String())
	}
	v.Body = a.infer(v.Body)
	a.scope.Pop()
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) inferBlock(v *ast.Block) ast.Node {
	a.scope.Push()
	defer a.scope.Pop()
	last := types.NoInstance
	for i, e := range v.Exprs {
		v.Exprs[i] = a.infer(e)
		last = v.Exprs[i].Type()
	}
	v.SetType(last)
	return v
}

func (a *Analyzer) inferControlFlow(v *ast.ControlFlow) ast.Node {
	if v.Value != nil {
		v.Value = a.infer(v.Value)
	}
	v.SetType(types.NoInstance)
	return v
}

func (a *Analyzer) inferClosure(v *ast.FunctionDef) ast.Node {
	a.scope.Push()
	for _, p := range v.Params {
		if err := a.scope.DefineVar(p.Name, p.Type); err != nil {
			a.errorf(v, diagnostics.TypeError, "%s", err.Error())
		}
	}
	v.ReturnValue = a.infer(v.ReturnValue)
	a.scope.Pop()

	paramTypes := make([]types.Type, len(v.Params))
	for i, p := range v.Params {
		paramTypes[i] = p.Type
	}
	v.FuncType = types.Type{Idents: []string{"func", ":"}, SubTypes: append(append([]types.Type{}, paramTypes...), v.ReturnValue.Type())}
	v.SetType(v.FuncType)
	return v
}

func (a *Analyzer) inferComplexLiteral(v *ast.ComplexLiteral) ast.Node {
	declared := v.TypeExpr
	if !declared.IsComplexType() {
		if resolved, ok := a.ctx.TypeDef[declared.String()]; ok {
			declared = resolved
		}
	}
	if !declared.IsComplexType() {
		a.errorf(v, diagnostics.TypeError, "%s is not a complex type", v.TypeExpr.String())
		v.SetType(types.NoInstance)
		return v
	}
	names := declared.MemberNames()
	for i := range v.Members {
		v.Members[i].Value = a.infer(v.Members[i].Value)
	}
	if len(v.Members) > 0 && v.Members[0].Designator != "" {
		for _, m := range v.Members {
			if !declared.HasMember(m.Designator) {
				a.errorf(v, diagnostics.TypeError, "%s has no member %q", declared.String(), m.Designator)
				continue
			}
			if !declared.MemberType(m.Designator).Equal(m.Value.Type()) {
				a.errorf(v, diagnostics.TypeError, "member %q: expected %s, got %s", m.Designator, declared.MemberType(m.Designator).String(), m.Value.Type().String())
			}
		}
	} else if len(v.Members) != len(names) {
		a.errorf(v, diagnostics.TypeError, "%s requires %d members, got %d", declared.String(), len(names), len(v.Members))
	} else {
		for i, name := range names {
			if !declared.MemberType(name).Equal(v.Members[i].Value.Type()) {
				a.errorf(v, diagnostics.TypeError, "member %q: expected %s, got %s", name, declared.MemberType(name).String(), v.Members[i].Value.Type().String())
			}
		}
	}
	v.TypeExpr = declared
	v.SetType(declared)
	return v
}
