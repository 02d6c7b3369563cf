package analyzer

import (
	"github.com/funvibe/rulejitc/internal/symbols"
	"github.com/funvibe/rulejitc/internal/types"
)

// mathBuiltins names every math function spec.md §4.G dispatches by
// name, paired with its arity. All of them are f64 -> f64 except
// atan2/pow, which take two f64 arguments.
var mathBuiltins = map[string]int{
	"sin": 1, "cos": 1, "tan": 1, "abs": 1, "fabs": 1, "floor": 1, "ceil": 1,
	"sqrt": 1, "exp": 1, "log": 1, "log2": 1, "log10": 1,
	"pow": 2, "atan2": 2,
}

// RegisterBuiltins pre-seeds ctx's ExternFuncDef table with the
// interpreter's name-dispatched built-in math functions, so that
// ordinary call resolution (internal/analyzer/expressions.go's
// inferCall ExternFuncDef fallback) finds them without any user-visible
// declaration. Grounded on github.com/funvibe/funxy/internal/evaluator's
// builtins dispatch table, generalized from a runtime-only name lookup
// into a type-checked extern declaration set.
func RegisterBuiltins(ctx *symbols.Context) {
	f64 := types.New(types.F64)
	for name, arity := range mathBuiltins {
		params := make([]types.Type, arity)
		for i := range params {
			params[i] = f64
		}
		ctx.ExternFuncDef[name] = types.Type{
			Idents:   []string{"func", ":"},
			SubTypes: append(append([]types.Type{}, params...), f64),
		}
	}
}
