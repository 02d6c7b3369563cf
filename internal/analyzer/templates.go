package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/symbols"
	"github.com/funvibe/rulejitc/internal/types"
)

// signatureKey renders a parameter-type vector into a deterministic
// cache key for TemplateFunctionInfo.Instantiated (spec.md §4.E.3:
// "templates are checked once per distinct instantiation").
func signatureKey(argTypes []types.Type) string {
	parts := make([]string, len(argTypes))
	for i, t := range argTypes {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// instantiate unifies tmpl's declared parameter types against argTypes,
// and returns the mangled name and full function type of the (cached or
// freshly checked) concrete instantiation.
func (a *Analyzer) instantiate(tmpl *symbols.TemplateFunctionInfo, argTypes []types.Type) (string, types.Type, error) {
	if len(tmpl.Body.Params) != len(argTypes) {
		return "", types.Type{}, fmt.Errorf("template %q expects %d arguments, got %d", tmpl.Body.Name, len(tmpl.Body.Params), len(argTypes))
	}

	free := map[string]bool{}
	for _, p := range tmpl.TypeParams {
		free[p] = true
	}

	subst := types.Subst{}
	for i, p := range tmpl.Body.Params {
		s, ok := p.Type.Match(argTypes[i], free)
		if !ok {
			return "", types.Type{}, fmt.Errorf("template %q: argument %d of type %s does not match parameter type %s", tmpl.Body.Name, i+1, argTypes[i].String(), p.Type.String())
		}
		for k, v := range s {
			if prev, exists := subst[k]; exists && !prev.Equal(v) {
				return "", types.Type{}, fmt.Errorf("template %q: type parameter %q bound to both %s and %s", tmpl.Body.Name, k, prev.String(), v.String())
			}
			subst[k] = v
		}
	}
	for _, p := range tmpl.TypeParams {
		if _, ok := subst[p]; !ok {
			return "", types.Type{}, fmt.Errorf("template %q: type parameter %q could not be inferred from arguments", tmpl.Body.Name, p)
		}
	}

	key := signatureKey(argTypes)
	if mangled, ok := tmpl.Instantiated[key]; ok {
		def := a.ctx.RealFuncDefinition[mangled]
		return mangled, def.FuncType, nil
	}

	cloned := deepClone(tmpl.Body).(*ast.FunctionDef)
	mangled := a.checkInstantiatedBody(cloned, subst)
	tmpl.Instantiated[key] = mangled
	def := a.ctx.RealFuncDefinition[mangled]
	return mangled, def.FuncType, nil
}

// checkInstantiatedBody type-checks one concrete instantiation of a
// template body, substituting free type parameters throughout its
// parameter list and declared return type, and files the result only
// under its mangled name: templates are dispatched through
// TemplateFunctionInfo.Instantiated, never through Context.FuncDef, so
// repeat instantiations under the same generic name never collide.
func (a *Analyzer) checkInstantiatedBody(def *ast.FunctionDef, subst types.Subst) string {
	mangled := a.ctx.RegisterFunction(def)

	a.scope.Push()
	paramTypes := make([]types.Type, len(def.Params))
	for i, p := range def.Params {
		pt := p.Type.Apply(subst)
		def.Params[i].Type = pt
		paramTypes[i] = pt
		if err := a.scope.DefineVar(p.Name, pt); err != nil {
			a.errorf(def, diagnostics.TypeError, "%s", err.Error())
		}
	}

	deps := map[string]bool{}
	body := a.inferWithDeps(def.ReturnValue, deps)
	def.ReturnValue = body
	a.scope.Pop()

	retType := body.Type()
	if def.FuncType.IsReturnedFunctionType() {
		declared := def.FuncType.ReturnType().Apply(subst)
		if !declared.Equal(retType) {
			a.errorf(def, diagnostics.TypeError, "instantiated template %q returns %s, declared %s", def.Name, retType.String(), declared.String())
		}
		retType = declared
	}

	def.FuncType = types.Type{Idents: []string{"func", ":"}, SubTypes: append(append([]types.Type{}, paramTypes...), retType)}
	a.ctx.MarkChecked(mangled, deps)

	switch def.Kind {
	case ast.FuncMember:
		_ = a.ctx.AddMember(def.Name, paramTypes, mangled)
	case ast.FuncSymbolic:
		_ = a.ctx.AddSymbolic(def.Name, paramTypes, mangled)
	}
	return mangled
}

// deepClone recursively clones n and every child, so each template
// instantiation gets its own AST that infer() can freely mutate/rewrite
// in place without disturbing other instantiations or the template's
// stored prototype body.
func deepClone(n ast.Node) ast.Node {
	if n == nil {
		return nil
	}
	cp := ast.CloneShallow(n)
	switch v := cp.(type) {
	case *ast.MemberAccess:
		v.Base = deepClone(v.Base)
		v.Member = deepClone(v.Member)
	case *ast.FunctionCall:
		v.Callee = deepClone(v.Callee)
		for i, arg := range v.Args {
			v.Args[i] = deepClone(arg)
		}
	case *ast.BinOp:
		v.LHS = deepClone(v.LHS)
		v.RHS = deepClone(v.RHS)
	case *ast.UnaryOp:
		v.RHS = deepClone(v.RHS)
	case *ast.Branch:
		v.Cond = deepClone(v.Cond)
		v.Then = deepClone(v.Then)
		v.Else = deepClone(v.Else)
	case *ast.ComplexLiteral:
		for i, m := range v.Members {
			v.Members[i] = ast.ComplexMember{Designator: m.Designator, Value: deepClone(m.Value)}
		}
	case *ast.Loop:
		v.Init = deepClone(v.Init)
		v.Cond = deepClone(v.Cond)
		v.Body = deepClone(v.Body)
	case *ast.Block:
		for i, e := range v.Exprs {
			v.Exprs[i] = deepClone(e)
		}
	case *ast.ControlFlow:
		v.Value = deepClone(v.Value)
	case *ast.VarDef:
		v.Value = deepClone(v.Value)
	case *ast.FunctionDef:
		v.ReturnValue = deepClone(v.ReturnValue)
	}
	return cp
}
