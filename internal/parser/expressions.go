package parser

import (
	"strconv"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/token"
	"github.com/funvibe/rulejitc/internal/types"
)

// parsePostfix parses a primary expression followed by any chain of
// member access ('.'), call ('(args)'), and indexing ('[expr]')
// postfix operators, per spec.md §4.C.
func (p *Parser) parsePostfix() (ast.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.top()
		if err != nil {
			return nil, err
		}
		switch tok.Text {
		case ".":
			p.pop()
			memberTok, err := p.topIgnore()
			if err != nil {
				return nil, err
			}
			var member ast.Node
			if memberTok.Tag == token.Ident {
				p.popIgnore()
				member = ast.NewStringLiteral(rangeOf(memberTok, memberTok), memberTok.Text)
			} else {
				member, err = p.ParseExpr()
				if err != nil {
					return nil, err
				}
			}
			n = ast.NewMemberAccess(rangeOf(tok, memberTok), n, member)
		case "(":
			p.pop()
			args, closeTok, err := p.parseArgList(")")
			if err != nil {
				return nil, err
			}
			n = ast.NewFunctionCall(rangeOf(tok, closeTok), n, args)
		case "[":
			p.pop()
			idx, err := p.withIgnoreBreak(p.ParseExpr)
			if err != nil {
				return nil, err
			}
			closeTok, err := p.expect("]")
			if err != nil {
				return nil, err
			}
			n = ast.NewMemberAccess(rangeOf(tok, closeTok), n, idx)
		default:
			return n, nil
		}
	}
}

func (p *Parser) parseArgList(closer string) ([]ast.Node, token.Token, error) {
	var args []ast.Node
	for {
		tok, err := p.topIgnore()
		if err != nil {
			return nil, tok, err
		}
		if tok.Text == closer {
			p.popIgnore()
			return args, tok, nil
		}
		arg, err := p.withIgnoreBreak(p.ParseExpr)
		if err != nil {
			return nil, tok, err
		}
		args = append(args, arg)
		sep, err := p.topIgnore()
		if err != nil {
			return nil, sep, err
		}
		if sep.Text == "," {
			p.popIgnore()
		} else if sep.Text != closer {
			return nil, sep, &ParseError{Tok: sep, Cause: "expected \",\" or \"" + closer + "\""}
		}
	}
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok, err := p.top()
	if err != nil {
		return nil, err
	}

	switch tok.Tag {
	case token.Int, token.Real:
		p.pop()
		v, perr := strconv.ParseFloat(tok.Text, 64)
		if perr != nil {
			v = parseIntLiteral(tok.Text)
		}
		return ast.NewNumberLiteral(rangeOf(tok, tok), v), nil
	case token.String:
		p.pop()
		return ast.NewStringLiteral(rangeOf(tok, tok), tok.Decoded), nil
	case token.Ident:
		p.pop()
		next, err := p.top()
		if err == nil && next.Text == "{" {
			// A bare type name immediately followed by '{' is a named
			// complex literal (e.g. MissileRange{...}), per spec.md §4.C.
			return p.finishComplexLiteral(tok, types.New(tok.Text))
		}
		return ast.NewIdentifier(rangeOf(tok, tok), tok.Text), nil
	}

	switch tok.Text {
	case "true", "false":
		p.pop()
		return ast.NewBoolLiteral(rangeOf(tok, tok), tok.Text == "true"), nil
	case "(":
		p.pop()
		inner, err := p.withIgnoreBreak(p.ParseExpr)
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(")")
		if err != nil {
			return nil, err
		}
		_ = closeTok
		return inner, nil
	case "{":
		return p.parseBlock()
	case "if":
		return p.parseIf()
	case "while":
		return p.parseWhile("")
	case "break", "continue":
		return p.parseSimpleControlFlow()
	case "return":
		return p.parseReturn()
	case "|":
		return p.parseClosure()
	case "var", "const":
		return p.parseVarDef()
	}

	if tok.Text == "struct" || tok.Text == "class" || tok.Text == "dynamic" {
		// A struct/class/dynamic head starts a complex-literal prefix,
		// parsed via the type grammar.
		return p.parseComplexLiteral()
	}

	return nil, &ParseError{Tok: tok, Cause: "unexpected token in expression"}
}

func parseIntLiteral(text string) float64 {
	if len(text) > 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X') {
		n, _ := strconv.ParseInt(text[2:], 16, 64)
		return float64(n)
	}
	if len(text) > 2 && text[0] == '0' && (text[1] == 'b' || text[1] == 'B') {
		n, _ := strconv.ParseInt(text[2:], 2, 64)
		return float64(n)
	}
	n, _ := strconv.ParseInt(text, 10, 64)
	return float64(n)
}

func (p *Parser) parseBlock() (ast.Node, error) {
	open, err := p.pop()
	if err != nil {
		return nil, err
	}
	var exprs []ast.Node
	for {
		tok, err := p.top()
		if err != nil {
			return nil, err
		}
		if tok.Text == "}" {
			p.pop()
			return ast.NewBlock(rangeOf(open, tok), exprs), nil
		}
		if tok.Tag == token.Endline {
			p.pop()
			continue
		}
		e, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
}

func (p *Parser) parseIf() (ast.Node, error) {
	ifTok, _ := p.pop()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.withIgnoreBreak(p.ParseExpr)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	var elseBranch ast.Node
	nl, _ := p.top()
	if nl.Tag == token.Endline {
		p.pop()
	}
	kw, _ := p.top()
	if kw.Text == "else" {
		p.pop()
		elseBranch, err = p.ParseExpr()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewBranch(rangeOf(ifTok, ifTok), cond, then, elseBranch), nil
}

func (p *Parser) parseWhile(label string) (ast.Node, error) {
	whileTok, _ := p.pop()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var init ast.Node
	first, err := p.withIgnoreBreak(p.ParseExpr)
	if err != nil {
		return nil, err
	}
	semi, _ := p.top()
	if semi.Text == ";" {
		p.pop()
		init = first
		first, err = p.withIgnoreBreak(p.ParseExpr)
		if err != nil {
			return nil, err
		}
	}
	cond := first
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	at, _ := p.top()
	if at.Text == "@" {
		p.pop()
		lbl, err := p.pop()
		if err != nil {
			return nil, err
		}
		label = lbl.Text
	}
	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewLoop(rangeOf(whileTok, whileTok), label, init, cond, body), nil
}

func (p *Parser) parseSimpleControlFlow() (ast.Node, error) {
	kwTok, _ := p.pop()
	kind := ast.Break
	if kwTok.Text == "continue" {
		kind = ast.Continue
	}
	label := ""
	at, _ := p.top()
	if at.Text == "@" {
		p.pop()
		lbl, err := p.pop()
		if err != nil {
			return nil, err
		}
		label = lbl.Text
	}
	return ast.NewControlFlow(rangeOf(kwTok, kwTok), kind, label, nil), nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	kwTok, _ := p.pop()
	nl, _ := p.top()
	if nl.Tag == token.Endline || nl.Tag == token.End || nl.Text == "}" {
		return ast.NewControlFlow(rangeOf(kwTok, kwTok), ast.Return, "", nil), nil
	}
	val, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewControlFlow(rangeOf(kwTok, kwTok), ast.Return, "", val), nil
}

// parseClosure parses |params| [-> retType] body, e.g. |x f64| x * x.
func (p *Parser) parseClosure() (ast.Node, error) {
	openTok, _ := p.pop()
	var params []ast.Param
	for {
		tok, err := p.topIgnore()
		if err != nil {
			return nil, err
		}
		if tok.Text == "|" {
			p.popIgnore()
			break
		}
		nameTok, err := p.popIgnore()
		if err != nil {
			return nil, err
		}
		ty, err := types.Parse(p.lex)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: nameTok.Text, Type: ty})
		sep, _ := p.topIgnore()
		if sep.Text == "," {
			p.popIgnore()
		}
	}
	arrow, _ := p.top()
	var retType types.Type
	if arrow.Text == "->" {
		p.pop()
		var err error
		retType, err = types.Parse(p.lex)
		if err != nil {
			return nil, err
		}
	}
	body, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	fn := ast.NewFunctionDef(rangeOf(openTok, openTok), "", params, body, ast.FuncLambda)
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
	return fn, nil
}

// parseComplexLiteral parses Type{...}, enforcing the all-designated or
// none-designated rule of spec.md §4.C.
func (p *Parser) parseComplexLiteral() (ast.Node, error) {
	startTok, _ := p.top()
	ty, err := types.Parse(p.lex)
	if err != nil {
		return nil, err
	}
	return p.finishComplexLiteral(startTok, ty)
}

func (p *Parser) finishComplexLiteral(startTok token.Token, ty types.Type) (ast.Node, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var members []ast.ComplexMember
	hasDesignated, hasPositional := false, false
	for {
		tok, err := p.topIgnore()
		if err != nil {
			return nil, err
		}
		if tok.Text == "}" {
			p.popIgnore()
			break
		}
		var designator string
		if tok.Text == "." {
			p.popIgnore()
			nameTok, err := p.popIgnore()
			if err != nil {
				return nil, err
			}
			designator = nameTok.Text
			sepTok, err := p.popIgnore()
			if err != nil {
				return nil, err
			}
			if sepTok.Text != ":" && sepTok.Text != "=" {
				return nil, &ParseError{Tok: sepTok, Cause: "expected \":\" or \"=\" after designator"}
			}
			hasDesignated = true
		} else {
			hasPositional = true
		}
		val, err := p.withIgnoreBreak(p.ParseExpr)
		if err != nil {
			return nil, err
		}
		members = append(members, ast.ComplexMember{Designator: designator, Value: val})
		sep, err := p.topIgnore()
		if err != nil {
			return nil, err
		}
		if sep.Text == "," {
			p.popIgnore()
		} else if sep.Text != "}" {
			return nil, &ParseError{Tok: sep, Cause: "expected \",\" or \"}\""}
		}
	}
	if hasDesignated && hasPositional {
		return nil, &ParseError{Tok: startTok, Cause: "complex literal must be all-designated or all-positional"}
	}
	return ast.NewComplexLiteral(rangeOf(startTok, startTok), ty, members), nil
}
