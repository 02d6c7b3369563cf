package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/types"
)

func TestBaseTypePredicate(t *testing.T) {
	f64 := types.New(types.F64)
	assert.True(t, f64.IsBaseType())
	assert.False(t, f64.IsComplexType())
	assert.False(t, f64.IsFunctionType())
}

func TestPointerAndArrayWrapping(t *testing.T) {
	f64 := types.New(types.F64)
	ptr := types.PointerTo(f64)
	assert.True(t, ptr.IsPointerType())
	assert.Equal(t, "*f64", ptr.String())

	arr := types.ArrayOf(f64)
	assert.True(t, arr.IsArrayType())
	assert.Equal(t, f64, arr.ElementType())
}

func TestFunctionTypeRoundTrip(t *testing.T) {
	ft, err := types.MakeType("func(f64,string):f64")
	require.NoError(t, err)
	assert.True(t, ft.IsFunctionType())
	assert.True(t, ft.IsReturnedFunctionType())
	assert.Equal(t, types.New(types.F64), ft.ReturnType())
	assert.Len(t, ft.ParamTypes(), 2)
	assert.Equal(t, "func(f64,string):f64", ft.String())
}

func TestStructTypeRoundTrip(t *testing.T) {
	st, err := types.MakeType("struct{x f64;y f64;}")
	require.NoError(t, err)
	assert.True(t, st.IsComplexType())
	assert.True(t, st.HasMember("x"))
	assert.False(t, st.HasMember("z"))
	assert.Equal(t, types.New(types.F64), st.MemberType("y"))
	assert.Equal(t, []string{"x", "y"}, st.MemberNames())
}

func TestMemberTypePanicsOnMissingMember(t *testing.T) {
	st, err := types.MakeType("struct{x f64;}")
	require.NoError(t, err)
	assert.Panics(t, func() { st.MemberType("nope") })
}

func TestStructRequiresNoOuterModifiers(t *testing.T) {
	_, err := types.MakeType("*struct{x f64;}")
	require.Error(t, err)
}

func TestEqualAndCompare(t *testing.T) {
	a, _ := types.MakeType("f64")
	b, _ := types.MakeType("f64")
	c, _ := types.MakeType("string")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestMatchBindsFreeTypeParameter(t *testing.T) {
	tmpl, err := types.MakeType("[]T")
	require.NoError(t, err)
	concrete, err := types.MakeType("[]f64")
	require.NoError(t, err)

	subst, ok := tmpl.Match(concrete, map[string]bool{"T": true})
	require.True(t, ok)
	assert.Equal(t, types.New(types.F64), subst["T"])
}

func TestMatchRejectsInconsistentRebinding(t *testing.T) {
	tmpl, err := types.MakeType("func(T,T)")
	require.NoError(t, err)
	concrete, err := types.MakeType("func(f64,string)")
	require.NoError(t, err)

	_, ok := tmpl.Match(concrete, map[string]bool{"T": true})
	assert.False(t, ok)
}

func TestApplySubstitutesRecursively(t *testing.T) {
	tmpl, err := types.MakeType("[]T")
	require.NoError(t, err)
	applied := tmpl.Apply(types.Subst{"T": types.New(types.F64)})
	assert.Equal(t, types.ArrayOf(types.New(types.F64)), applied)
}

func TestFreeIdentsSortedAndDeduped(t *testing.T) {
	tmpl, err := types.MakeType("func(T,U,T)")
	require.NoError(t, err)
	free := tmpl.FreeIdents(map[string]bool{"T": true, "U": true})
	assert.Equal(t, []string{"T", "U"}, free)
}

func TestMalformedTypeIsParseError(t *testing.T) {
	_, err := types.MakeType("func(f64")
	require.Error(t, err)
	var perr *types.ParseError
	require.ErrorAs(t, err, &perr)
}
