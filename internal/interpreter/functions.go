package interpreter

import (
	"math"

	"github.com/funvibe/rulejitc/internal/ast"
)

// mathFuncs dispatches the name-resolved built-ins of spec.md §4.G.
// Grounded on github.com/funvibe/funxy/internal/evaluator's builtin
// dispatch table, narrowed to the math subset this domain's expressions
// need.
var mathFuncs = map[string]func(args []float64) float64{
	"sin": func(a []float64) float64 { return math.Sin(a[0]) },
	"cos": func(a []float64) float64 { return math.Cos(a[0]) },
	"tan": func(a []float64) float64 { return math.Tan(a[0]) },
	"abs": func(a []float64) float64 { return math.Abs(a[0]) },
	"fabs": func(a []float64) float64 { return math.Abs(a[0]) },
	"floor": func(a []float64) float64 { return math.Floor(a[0]) },
	"ceil": func(a []float64) float64 { return math.Ceil(a[0]) },
	"sqrt": func(a []float64) float64 { return math.Sqrt(a[0]) },
	"exp": func(a []float64) float64 { return math.Exp(a[0]) },
	"log": func(a []float64) float64 { return math.Log(a[0]) },
	"log2": func(a []float64) float64 { return math.Log2(a[0]) },
	"log10": func(a []float64) float64 { return math.Log10(a[0]) },
	"pow":   func(a []float64) float64 { return math.Pow(a[0], a[1]) },
	"atan2": func(a []float64) float64 { return math.Atan2(a[0], a[1]) },
}

func (it *Interpreter) evalCall(v *ast.FunctionCall) (RuntimeValue, signal, error) {
	args := make([]RuntimeValue, len(v.Args))
	for i, a := range v.Args {
		val, sig, err := it.eval(a)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		args[i] = val
	}

	name := ""
	switch c := v.Callee.(type) {
	case *ast.Identifier:
		name = c.Name
	case *ast.Literal:
		if c.Kind == ast.LitMangledFunc {
			name = c.Mangled
		}
	}
	if fn, ok := mathFuncs[name]; ok {
		floats := make([]float64, len(args))
		for i, a := range args {
			f, ok := asFloat(a)
			if !ok {
				return nil, signal{}, runtimeErr(v, "interpreter: %s expects numeric arguments", name)
			}
			floats[i] = f
		}
		return fn(floats), signal{}, nil
	}

	calleeVal, sig, err := it.eval(v.Callee)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	mangled, ok := calleeVal.(string)
	if !ok {
		return nil, signal{}, runtimeErr(v, "interpreter: callee did not resolve to a function")
	}
	return it.callMangled(v, mangled, args)
}

func (it *Interpreter) callMangled(site ast.Node, mangled string, args []RuntimeValue) (RuntimeValue, signal, error) {
	def, ok := it.ctx.RealFuncDefinition[mangled]
	if !ok {
		return nil, signal{}, runtimeErr(site, "interpreter: no function registered as %q", mangled)
	}
	if it.depth >= it.cfg.MaxRecursionDepth {
		return nil, signal{}, runtimeErr(site, "interpreter: recursion depth limit (%d) exceeded calling %q", it.cfg.MaxRecursionDepth, def.Name)
	}

	saved := it.top
	it.top = newFrame(nil)
	for i, p := range def.Params {
		if i < len(args) {
			it.top.vars[p.Name] = args[i]
		}
	}
	it.depth++
	val, sig, err := it.eval(def.ReturnValue)
	it.depth--
	it.top = saved

	if err != nil {
		return nil, signal{}, err
	}
	if sig.kind == signalReturn {
		return sig.value, signal{}, nil
	}
	return val, signal{}, nil
}
