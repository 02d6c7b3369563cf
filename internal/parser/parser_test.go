package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/parser"
)

func parseExpr(t *testing.T, src string) ast.Node {
	t.Helper()
	p := parser.New(lexer.New(src))
	n, err := p.ParseExpr()
	require.NoError(t, err)
	return n
}

func TestPrecedenceOfAdditiveVsMultiplicative(t *testing.T) {
	n := parseExpr(t, "1 + 2 * 3")
	bin := n.(*ast.BinOp)
	assert.Equal(t, "+", bin.Op)
	rhs := bin.RHS.(*ast.BinOp)
	assert.Equal(t, "*", rhs.Op)
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	// "=" parses its right-hand side at its own precedence level, so the
	// second "=" of a chain is reached inside the first one's RHS and is
	// rejected there as a nested assignment.
	p := parser.New(lexer.New("a = b = 1"))
	_, err := p.ParseExpr()
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Cause, "may not itself be an assignment")
}

func TestAssignmentRHSCannotItselfAssignEvenThroughParens(t *testing.T) {
	// inAssignRHS is a parser-wide flag set for the whole RHS subtree of
	// an assignment, so a nested assignment is rejected even when
	// parenthesized.
	p := parser.New(lexer.New("a = (b = c)"))
	_, err := p.ParseExpr()
	require.Error(t, err)
}

func TestUserDefinedInfixOperator(t *testing.T) {
	n := parseExpr(t, "a isAbove b")
	bin := n.(*ast.BinOp)
	assert.Equal(t, "isAbove", bin.Op)
	assert.IsType(t, &ast.Identifier{}, bin.LHS)
}

func TestUnaryOperators(t *testing.T) {
	n := parseExpr(t, "-x")
	u := n.(*ast.UnaryOp)
	assert.Equal(t, "-", u.Op)

	n2 := parseExpr(t, "not flag")
	u2 := n2.(*ast.UnaryOp)
	assert.Equal(t, "not", u2.Op)
}

func TestMemberAccessAndCallChain(t *testing.T) {
	n := parseExpr(t, "foo.bar(1, 2).baz")
	outer := n.(*ast.MemberAccess)
	member := outer.Member.(*ast.Literal)
	assert.Equal(t, "baz", member.Str)

	call := outer.Base.(*ast.FunctionCall)
	require.Len(t, call.Args, 2)

	inner := call.Callee.(*ast.MemberAccess)
	innerMember := inner.Member.(*ast.Literal)
	assert.Equal(t, "bar", innerMember.Str)
}

func TestIndexingUsesMemberAccessWithExprMember(t *testing.T) {
	n := parseExpr(t, "arr[i + 1]")
	ma := n.(*ast.MemberAccess)
	assert.IsType(t, &ast.BinOp{}, ma.Member)
}

func TestIfElseBranch(t *testing.T) {
	n := parseExpr(t, "if (x > 0) 1 else 2")
	br := n.(*ast.Branch)
	assert.NotNil(t, br.Cond)
	assert.NotNil(t, br.Then)
	assert.NotNil(t, br.Else)
}

func TestIfWithoutElse(t *testing.T) {
	n := parseExpr(t, "if (x > 0) 1")
	br := n.(*ast.Branch)
	assert.Nil(t, br.Else)
}

func TestBlockValueIsLastExpr(t *testing.T) {
	n := parseExpr(t, "{ a = 1\n b = 2\n a + b }")
	blk := n.(*ast.Block)
	require.Len(t, blk.Exprs, 3)
}

func TestComplexLiteralRejectsMixedDesignators(t *testing.T) {
	p := parser.New(lexer.New("Point{.x: 1, 2}"))
	_, err := p.ParseExpr()
	require.Error(t, err)
}

func TestComplexLiteralAllPositional(t *testing.T) {
	n := parseExpr(t, "Point{1, 2}")
	lit := n.(*ast.ComplexLiteral)
	require.Len(t, lit.Members, 2)
	assert.Equal(t, "", lit.Members[0].Designator)
}

func TestNumberLiteralParsing(t *testing.T) {
	n := parseExpr(t, "0x1F")
	lit := n.(*ast.Literal)
	assert.Equal(t, float64(31), lit.Num)
}

func TestBoolLiteral(t *testing.T) {
	n := parseExpr(t, "true")
	lit := n.(*ast.Literal)
	assert.Equal(t, ast.LitBool, lit.Kind)
	assert.Equal(t, float64(1), lit.Num)
}

func TestParseProgramSkipsBlankLines(t *testing.T) {
	p := parser.New(lexer.New("\n\na + 1\n\nb + 2\n"))
	nodes, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

func TestUnexpectedTokenIsParseError(t *testing.T) {
	p := parser.New(lexer.New(")"))
	_, err := p.ParseExpr()
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
}
