// Package parser implements the Pratt-style recursive-descent parser of
// spec.md §4.C: parseExpr -> parseBinOpRHS(parseUnary), with a
// precedence table supporting a default "user-defined" slot for
// Ident-tagged binary operators, and postfix chains (member access,
// call, indexing) at primary level.
//
// Grounded on github.com/funvibe/funxy/internal/parser's split-by-form
// file layout (expressions_core.go, expressions_calls.go,
// statements_functions.go, ...) and its Pratt-parser control flow,
// generalized from the teacher's large user-operator table to the
// fixed symbol set plus one user-defined slot spec.md describes.
package parser

import (
	"fmt"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/token"
)

// ParseError reports an unexpected token during parsing, carrying the
// offending token, its position, and a short cause (spec.md §4.C
// diagnostics).
type ParseError struct {
	Tok      token.Token
	Expected string
	Cause    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s (found %q)", e.Tok.Pos, e.Cause, e.Tok.Text)
}

// breakMode tracks whether a '\n' should terminate the current
// expression (spec.md: "outside [parens/braces], \n terminates an
// expression unless the current context is IgnoreBreak").
type breakMode int

const (
	respectBreak breakMode = iota
	ignoreBreak
)

// Parser turns a token stream into an AST. One Parser instance parses
// one source unit (the full text submitted to the pipeline for a given
// synthesized or user-authored program).
type Parser struct {
	lex   *lexer.Lexer
	mode  breakMode
	inAssignRHS bool
}

// New wraps lex in a Parser.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lex: lex, mode: respectBreak}
}

func (p *Parser) guidance() lexer.Guidance {
	if p.mode == ignoreBreak {
		return lexer.IgnoreBreak
	}
	return lexer.RespectBreak
}

func (p *Parser) top() (token.Token, error)  { return p.lex.Top(p.guidance()) }
func (p *Parser) pop() (token.Token, error)  { return p.lex.Pop(p.guidance()) }
func (p *Parser) topIgnore() (token.Token, error) { return p.lex.Top(lexer.IgnoreBreak) }
func (p *Parser) popIgnore() (token.Token, error) { return p.lex.Pop(lexer.IgnoreBreak) }

func (p *Parser) withIgnoreBreak(fn func() (ast.Node, error)) (ast.Node, error) {
	save := p.mode
	p.mode = ignoreBreak
	n, err := fn()
	p.mode = save
	return n, err
}

func (p *Parser) expect(text string) (token.Token, error) {
	tok, err := p.pop()
	if err != nil {
		return tok, err
	}
	if tok.Text != text {
		return tok, &ParseError{Tok: tok, Expected: text, Cause: fmt.Sprintf("expected %q", text)}
	}
	return tok, nil
}

func rangeOf(start, end token.Token) token.Range {
	return token.Range{Start: start.Pos, End: end.Pos}
}

// ParseProgram parses a sequence of top-level definitions and bare
// expressions separated by line breaks, per spec.md §4.E.7 ("top-level
// expressions collected into an unnamed function").
func (p *Parser) ParseProgram() ([]ast.Node, error) {
	var nodes []ast.Node
	for {
		tok, err := p.top()
		if err != nil {
			return nil, err
		}
		if tok.Tag == token.End {
			break
		}
		if tok.Tag == token.Endline {
			p.pop()
			continue
		}
		n, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (p *Parser) parseTopLevel() (ast.Node, error) {
	tok, _ := p.top()
	switch tok.Text {
	case "var", "const":
		return p.parseVarDef()
	case "func":
		return p.parseFuncDef()
	case "type":
		return p.parseTypeDef()
	case "import", "export", "extern":
		return p.parseSymbolDef()
	default:
		return p.ParseExpr()
	}
}

// ParseExpr parses one expression at the lowest precedence, the entry
// point used both at top level and inside blocks.
func (p *Parser) ParseExpr() (ast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(precLowest, lhs)
}

func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Node) (ast.Node, error) {
	for {
		opTok, err := p.top()
		if err != nil {
			return nil, err
		}
		if opTok.Tag != token.Symbol && opTok.Tag != token.Ident {
			return lhs, nil
		}
		prec := precedenceOf(opTok.Text, opTok.Tag == token.Ident)
		if prec == precLowest || prec < minPrec {
			return lhs, nil
		}
		if prec == precAssign && p.inAssignRHS {
			return nil, &ParseError{Tok: opTok, Cause: "assignment right-hand side may not itself be an assignment"}
		}
		p.pop()
		nextMin := prec + 1
		wasAssign := prec == precAssign
		if rightAssociative[opTok.Text] {
			nextMin = prec
		}
		savedAssignRHS := p.inAssignRHS
		if wasAssign {
			p.inAssignRHS = true
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		rhs, err = p.parseBinOpRHS(nextMin, rhs)
		p.inAssignRHS = savedAssignRHS
		if err != nil {
			return nil, err
		}
		end := lastTokenOf(rhs, opTok)
		lhs = ast.NewBinOp(rangeOf(opTok, end), opTok.Text, lhs, rhs)
	}
}

// lastTokenOf is a best-effort range-end helper; exact end offsets are
// not load-bearing for evaluation, only for diagnostics snippets.
func lastTokenOf(n ast.Node, fallback token.Token) token.Token {
	r := n.Range()
	return token.Token{Pos: r.End}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	tok, err := p.top()
	if err != nil {
		return nil, err
	}
	if (tok.Tag == token.Symbol || tok.Tag == token.Ident) && unaryOperators[tok.Text] {
		p.pop()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(rangeOf(tok, tok), tok.Text, operand), nil
	}
	return p.parsePostfix()
}
