package parser

import (
	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/types"
)

// parseVarDef parses var/const Name [Type] = Value, per spec.md §4.C.
// Type is optional; when absent it is left as types.Auto for the
// analyzer to infer from Value.
func (p *Parser) parseVarDef() (ast.Node, error) {
	kwTok, _ := p.pop()
	kind := ast.VarNormal
	if kwTok.Text == "const" {
		kind = ast.VarConstant
	}
	nameTok, err := p.popIgnore()
	if err != nil {
		return nil, err
	}
	declType := types.New(types.Auto)
	eqTok, err := p.top()
	if err != nil {
		return nil, err
	}
	if eqTok.Text != "=" {
		declType, err = types.Parse(p.lex)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect("="); err != nil {
		return nil, err
	}
	value, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewVarDef(rangeOf(kwTok, kwTok), nameTok.Text, declType, value, kind), nil
}

// parseFuncDef parses func [<T1,T2,...>] Name(params...) [: RetType] { Body }
// or the member-function form func (Recv) Name(...) {...}, and the
// symbolic-operator form func operator Op(params...) {...}, per
// spec.md §4.C/§4.E.
func (p *Parser) parseFuncDef() (ast.Node, error) {
	funcTok, _ := p.pop()

	var typeParams []string
	open, _ := p.topIgnore()
	if open.Text == "<" {
		p.popIgnore()
		for {
			idTok, err := p.popIgnore()
			if err != nil {
				return nil, err
			}
			typeParams = append(typeParams, idTok.Text)
			sep, err := p.popIgnore()
			if err != nil {
				return nil, err
			}
			if sep.Text == ">" {
				break
			}
			if sep.Text != "," {
				return nil, &ParseError{Tok: sep, Cause: "expected \",\" or \">\" in template parameter list"}
			}
		}
	}

	kind := ast.FuncNormal
	var recvType types.Type
	recvCheck, _ := p.topIgnore()
	if recvCheck.Text == "(" {
		p.popIgnore()
		var err error
		recvType, err = types.Parse(p.lex)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		kind = ast.FuncMember
	}

	nameTok, err := p.popIgnore()
	if err != nil {
		return nil, err
	}
	name := nameTok.Text
	if name == "operator" {
		opTok, err := p.popIgnore()
		if err != nil {
			return nil, err
		}
		name = opTok.Text
		kind = ast.FuncSymbolic
	}

	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var params []ast.Param
	if kind == ast.FuncMember {
		params = append(params, ast.Param{Name: "self", Type: recvType})
	}
	for {
		tok, err := p.topIgnore()
		if err != nil {
			return nil, err
		}
		if tok.Text == ")" {
			p.popIgnore()
			break
		}
		pNameTok, err := p.popIgnore()
		if err != nil {
			return nil, err
		}
		pType, err := types.Parse(p.lex)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: pNameTok.Text, Type: pType})
		sep, err := p.topIgnore()
		if err != nil {
			return nil, err
		}
		if sep.Text == "," {
			p.popIgnore()
		} else if sep.Text != ")" {
			return nil, &ParseError{Tok: sep, Cause: "expected \",\" or \")\" in parameter list"}
		}
	}

	var retType types.Type
	colon, _ := p.top()
	if colon.Text == ":" {
		p.pop()
		retType, err = types.Parse(p.lex)
		if err != nil {
			return nil, err
		}
	}

	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}

	fn := ast.NewFunctionDef(rangeOf(funcTok, funcTok), name, params, body, kind)
	paramTypes := make([]types.Type, len(params))
	for i, pr := range params {
		paramTypes[i] = pr.Type
	}
	ft := types.Type{Idents: []string{"func"}, SubTypes: paramTypes}
	if retType.IsValid() {
		ft.Idents = append(ft.Idents, ":")
		ft.SubTypes = append(ft.SubTypes, retType)
	}
	fn.FuncType = ft

	if len(typeParams) > 0 {
		return ast.NewTemplateDef(rangeOf(funcTok, funcTok), typeParams, fn), nil
	}
	return fn, nil
}

// parseTypeDef parses type Name = DefinedType (alias) or type Name
// DefinedType (normal, typically a struct/class/dynamic body), per
// spec.md §4.C.
func (p *Parser) parseTypeDef() (ast.Node, error) {
	kwTok, _ := p.pop()
	nameTok, err := p.popIgnore()
	if err != nil {
		return nil, err
	}
	kind := ast.TypeNormal
	eq, _ := p.top()
	if eq.Text == "=" {
		p.pop()
		kind = ast.TypeAlias
	}
	defined, err := types.Parse(p.lex)
	if err != nil {
		return nil, err
	}
	return ast.NewTypeDef(rangeOf(kwTok, kwTok), nameTok.Text, defined, kind), nil
}

// parseSymbolDef parses import/export/extern Name Type, per spec.md
// §4.C/§4.H (host-declared external symbols).
func (p *Parser) parseSymbolDef() (ast.Node, error) {
	kwTok, _ := p.pop()
	kind := ast.SymImport
	switch kwTok.Text {
	case "export":
		kind = ast.SymExport
	case "extern":
		kind = ast.SymExtern
	}
	nameTok, err := p.popIgnore()
	if err != nil {
		return nil, err
	}
	symType, err := types.Parse(p.lex)
	if err != nil {
		return nil, err
	}
	return ast.NewSymbolDef(rangeOf(kwTok, kwTok), nameTok.Text, kind, symType), nil
}
