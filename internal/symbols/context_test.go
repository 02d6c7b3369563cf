package symbols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/symbols"
	"github.com/funvibe/rulejitc/internal/types"
)

func TestGenerateUniqueNameIsMonotonicAndUnique(t *testing.T) {
	ctx := symbols.NewContext()
	a := ctx.GenerateUniqueName("func", "foo")
	b := ctx.GenerateUniqueName("func", "foo")
	assert.NotEqual(t, a, b)
}

func TestRegisterFunctionSetsMangledAndRecordsDefinition(t *testing.T) {
	ctx := symbols.NewContext()
	def := &ast.FunctionDef{Name: "double"}
	mangled := ctx.RegisterFunction(def)
	assert.Equal(t, mangled, def.Mangled)
	assert.Same(t, def, ctx.RealFuncDefinition[mangled])
}

func TestAddMemberRejectsDuplicateOverload(t *testing.T) {
	ctx := symbols.NewContext()
	f64 := types.New(types.F64)
	require.NoError(t, ctx.AddMember("push", []types.Type{f64}, "m1"))
	err := ctx.AddMember("push", []types.Type{f64}, "m2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestLookupMemberDistinguishesOverloadsByParamTypes(t *testing.T) {
	ctx := symbols.NewContext()
	f64 := types.New(types.F64)
	str := types.New(types.String)
	require.NoError(t, ctx.AddMember("push", []types.Type{f64}, "m_f64"))
	require.NoError(t, ctx.AddMember("push", []types.Type{str}, "m_str"))

	got, ok := ctx.LookupMember("push", []types.Type{str})
	require.True(t, ok)
	assert.Equal(t, "m_str", got)
}

func TestAddSymbolicRejectsReservedOperators(t *testing.T) {
	ctx := symbols.NewContext()
	err := ctx.AddSymbolic("=", []types.Type{types.New(types.F64), types.New(types.F64)}, "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}

func TestAddSymbolicAndLookup(t *testing.T) {
	ctx := symbols.NewContext()
	f64 := types.New(types.F64)
	require.NoError(t, ctx.AddSymbolic("+", []types.Type{f64, f64}, "opPlus"))
	got, ok := ctx.LookupSymbolic("+", []types.Type{f64, f64})
	require.True(t, ok)
	assert.Equal(t, "opPlus", got)

	_, ok = ctx.LookupSymbolic("-", []types.Type{f64, f64})
	assert.False(t, ok)
}

func TestMarkCheckedAndTransitiveDependencies(t *testing.T) {
	ctx := symbols.NewContext()
	ctx.MarkChecked("a", map[string]bool{"b": true})
	ctx.MarkChecked("b", map[string]bool{"c": true})
	ctx.MarkChecked("c", map[string]bool{})

	assert.True(t, ctx.IsChecked("a"))
	assert.False(t, ctx.IsChecked("z"))

	deps := ctx.TransitiveDependencies("a")
	assert.True(t, deps["b"])
	assert.True(t, deps["c"])
	assert.False(t, deps["a"], "a's own name is excluded from its own dependency closure")
}

func TestStackScopingShadowsAndRestoresOnPop(t *testing.T) {
	s := symbols.NewStack()
	require.NoError(t, s.DefineVar("x", types.New(types.F64)))

	s.Push()
	require.NoError(t, s.DefineVar("x", types.New(types.String)))
	ty, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, types.New(types.String), ty, "inner scope shadows the outer binding")

	s.Pop()
	ty, ok = s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, types.New(types.F64), ty, "popping restores the outer binding")
}

func TestDefineVarRejectsRedefinitionInSameFrame(t *testing.T) {
	s := symbols.NewStack()
	require.NoError(t, s.DefineVar("x", types.New(types.F64)))
	err := s.DefineVar("x", types.New(types.F64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestDefineConstAndVarNamesConflict(t *testing.T) {
	s := symbols.NewStack()
	require.NoError(t, s.DefineConst("pi", types.New(types.F64), 3.14))
	err := s.DefineVar("pi", types.New(types.F64))
	require.Error(t, err)
}

func TestLookupConstReturnsFalseForPlainVariable(t *testing.T) {
	s := symbols.NewStack()
	require.NoError(t, s.DefineVar("x", types.New(types.F64)))
	_, ok := s.LookupConst("x")
	assert.False(t, ok)
}

func TestSortedMemberKeysIsDeterministic(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, symbols.SortedMemberKeys(m))
}
