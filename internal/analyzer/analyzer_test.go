package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/analyzer"
	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/parser"
	"github.com/funvibe/rulejitc/internal/symbols"
	"github.com/funvibe/rulejitc/internal/types"
)

func analyze(t *testing.T, src string) (*ast.FunctionDef, []*diagnostics.Diagnostic) {
	t.Helper()
	p := parser.New(lexer.New(src))
	nodes, err := p.ParseProgram()
	require.NoError(t, err)

	ctx := symbols.NewContext()
	analyzer.RegisterBuiltins(ctx)
	a := analyzer.New(ctx)
	return a.AnalyzeProgram(nodes)
}

func TestVarDefWithAutoTypeInfersFromValue(t *testing.T) {
	entry, diags := analyze(t, "var x = 1 + 2")
	require.Empty(t, diags)
	block := entry.ReturnValue.(*ast.Block)
	def := block.Exprs[0].(*ast.VarDef)
	assert.Equal(t, types.New(types.F64), def.DeclType)
}

func TestUndefinedNameIsTypeError(t *testing.T) {
	_, diags := analyze(t, "y")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.TypeError, diags[0].Kind)
	assert.Contains(t, diags[0].Cause, "undefined name")
}

func TestBuiltinMathFunctionResolves(t *testing.T) {
	entry, diags := analyze(t, "sqrt(4)")
	require.Empty(t, diags)
	block := entry.ReturnValue.(*ast.Block)
	assert.Equal(t, types.New(types.F64), block.Exprs[0].Type())
}

func TestFunctionDefRegistrationAndCall(t *testing.T) {
	entry, diags := analyze(t, "func double(x f64):f64 { x * 2 }\ndouble(5)")
	require.Empty(t, diags)
	block := entry.ReturnValue.(*ast.Block)
	call := block.Exprs[0].(*ast.FunctionCall)
	assert.Equal(t, types.New(types.F64), call.Type())
}

func TestFunctionCallArgumentCountMismatch(t *testing.T) {
	_, diags := analyze(t, "func double(x f64):f64 { x * 2 }\ndouble(1, 2)")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Cause, "expected 1 arguments")
}

func TestFunctionReturnTypeMismatch(t *testing.T) {
	_, diags := analyze(t, `func bad():f64 { "oops" }`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Cause, "returns string")
}

func TestDuplicateFunctionDefinitionErrors(t *testing.T) {
	_, diags := analyze(t, "func f():f64 { 1 }\nfunc f():f64 { 2 }")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Cause, "already defined")
}

func TestIfBranchTypeMismatchYieldsNoInstance(t *testing.T) {
	entry, diags := analyze(t, `if (1) 1 else "x"`)
	require.Empty(t, diags)
	block := entry.ReturnValue.(*ast.Block)
	assert.Equal(t, types.NoInstance, block.Exprs[0].Type())
}

func TestAssignmentTypeMismatchIsTypeError(t *testing.T) {
	_, diags := analyze(t, `var x = 1
x = "oops"`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Cause, "cannot assign")
}

func TestMemberAccessOnNonComplexTypeErrors(t *testing.T) {
	_, diags := analyze(t, `var x = 1
x.foo`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Cause, "has no members")
}

func TestSymbolicOperatorOverloadDispatches(t *testing.T) {
	entry, diags := analyze(t, `type Vec = struct{x f64;}
func operator +(a struct{x f64;}, b struct{x f64;}):struct{x f64;} { struct{x f64;}{a.x + b.x} }
Vec{1} + Vec{2}`)
	require.Empty(t, diags)
	block := entry.ReturnValue.(*ast.Block)
	call, ok := block.Exprs[len(block.Exprs)-1].(*ast.FunctionCall)
	require.True(t, ok, "overloaded binop rewrites to a call")
	assert.True(t, call.Type().IsComplexType())
}

func TestErrorsAreDeduplicatedAndSortedByPosition(t *testing.T) {
	_, diags := analyze(t, "z\na")
	require.Len(t, diags, 2)
	assert.Less(t, diags[0].Location.Start.Line, diags[1].Location.Start.Line)
}
