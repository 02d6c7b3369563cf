package analyzer

import (
	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/symbols"
	"github.com/funvibe/rulejitc/internal/types"
)

func (a *Analyzer) analyzeTypeDef(n *ast.TypeDef) {
	if _, exists := a.ctx.TypeDef[n.Name]; exists {
		a.errorf(n, diagnostics.TypeError, "type %q already defined", n.Name)
		return
	}
	a.ctx.TypeDef[n.Name] = n.DefinedType
}

func (a *Analyzer) analyzeSymbolDef(n *ast.SymbolDef) {
	a.ctx.ExternFuncDef[n.Name] = n.SymType
}

// analyzeVarDef type-checks var/const declarations (spec.md §4.E.2):
// infers Value's type when DeclType is auto, otherwise requires an
// exact match (see checkAssignable), and binds the name in the
// innermost scope.
func (a *Analyzer) analyzeVarDef(n *ast.VarDef) {
	value := a.infer(n.Value)
	n.Value = value
	if n.DeclType.Idents != nil && len(n.DeclType.Idents) == 1 && n.DeclType.Idents[0] == types.Auto {
		n.DeclType = value.Type()
	} else if !a.checkAssignable(n.DeclType, value.Type()) {
		a.errorf(n, diagnostics.TypeError, "cannot assign %s to variable %q of type %s", value.Type().String(), n.Name, n.DeclType.String())
	}
	var err error
	if n.Kind == ast.VarConstant {
		err = a.scope.DefineConst(n.Name, n.DeclType, nil)
	} else {
		err = a.scope.DefineVar(n.Name, n.DeclType)
	}
	if err != nil {
		a.errorf(n, diagnostics.TypeError, "%s", err.Error())
	}
}

// checkAssignable reports whether a value of type src may be stored
// into a location of type dst; spec.md's f64-only numeric model makes
// this exact structural equality, with no implicit narrowing.
func (a *Analyzer) checkAssignable(dst, src types.Type) bool {
	return dst.Equal(src)
}

// registerFunction type-checks def's body against its declared
// parameter/return types, assigns it a mangled name, and files it into
// the appropriate overload table (normal/member/symbolic), per spec.md
// §4.E.1/§4.E.5. instTypeParams, when non-nil, binds the template's
// type parameters for a template instantiation and is applied to the
// declared parameter and return types.
func (a *Analyzer) registerFunction(def *ast.FunctionDef, instTypeParams map[string]types.Type) string {
	mangled := a.ctx.RegisterFunction(def)

	a.scope.Push()
	paramTypes := make([]types.Type, len(def.Params))
	for i, p := range def.Params {
		pt := p.Type
		if instTypeParams != nil {
			pt = pt.Apply(instTypeParams)
			def.Params[i].Type = pt
		}
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
		declared := def.FuncType.ReturnType()
		if instTypeParams != nil {
			declared = declared.Apply(instTypeParams)
		}
		if !declared.Equal(retType) {
			a.errorf(def, diagnostics.TypeError, "function %q returns %s, declared %s", def.Name, retType.String(), declared.String())
		}
		retType = declared
	}

	ft := types.Type{Idents: []string{"func", ":"}, SubTypes: append(append([]types.Type{}, paramTypes...), retType)}
	def.FuncType = ft
	a.ctx.MarkChecked(mangled, deps)

	switch def.Kind {
	case ast.FuncMember:
		if err := a.ctx.AddMember(def.Name, paramTypes, mangled); err != nil {
			a.errorf(def, diagnostics.TypeError, "%s", err.Error())
		}
	case ast.FuncSymbolic:
		if err := a.ctx.AddSymbolic(def.Name, paramTypes, mangled); err != nil {
			a.errorf(def, diagnostics.TypeError, "%s", err.Error())
		}
	default:
		if _, exists := a.ctx.FuncDef[def.Name]; exists {
			a.errorf(def, diagnostics.TypeError, "function %q already defined", def.Name)
		}
		a.ctx.FuncDef[def.Name] = mangled
	}
	return mangled
}

// registerTemplate files a template's free type parameters without
// checking its body; the body is only analyzed on first instantiation
// (spec.md §4.E.3 "templates are checked once per distinct
// instantiation, not at definition").
func (a *Analyzer) registerTemplate(n *ast.TemplateDef) {
	a.ctx.Templates[n.Body.Name] = &symbols.TemplateFunctionInfo{
		TypeParams:   n.TypeParams,
		Body:         n.Body,
		Instantiated: map[string]string{},
	}
}
