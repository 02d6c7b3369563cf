package interpreter

import (
	"fmt"
	"math"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/symbols"
)

// signalKind distinguishes a normal fall-through evaluation from an
// in-flight break/continue/return, the "unwinding value" design-note
// translation of break/continue/return (spec.md §9).
type signalKind int

const (
	signalNone signalKind = iota
	signalBreak
	signalContinue
	signalReturn
)

type signal struct {
	kind  signalKind
	label string
	value RuntimeValue
}

// frame is one user-function-call scope: parameter/local-variable
// bindings, distinct from the ResourceHandler's rule-set field staging.
type frame struct {
	vars   map[string]RuntimeValue
	parent *frame
}

func newFrame(parent *frame) *frame {
	return &frame{vars: map[string]RuntimeValue{}, parent: parent}
}

func (f *frame) lookup(name string) (RuntimeValue, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *frame) set(name string, v RuntimeValue) bool {
	for cur := f; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return true
		}
	}
	return false
}

// Interpreter evaluates one synthesized function's body against a
// shared Context (for mangled-name function lookup) and a
// ResourceHandler (for rule-set field reads/writes), per spec.md §4.G
// "a tree-walker returning an interpreter value."
type Interpreter struct {
	ctx     *symbols.Context
	handler *ResourceHandler
	cfg     config.Config
	top     *frame
	depth   int
}

// NewInterpreter builds an Interpreter bound to ctx and handler.
func NewInterpreter(ctx *symbols.Context, handler *ResourceHandler, cfg config.Config) *Interpreter {
	return &Interpreter{ctx: ctx, handler: handler, cfg: cfg, top: newFrame(nil)}
}

func runtimeErr(n ast.Node, format string, args ...any) error {
	return diagnostics.New(diagnostics.RuntimeError, "interpreter", fmt.Sprintf(format, args...), n.Range())
}

// RunMangled evaluates the zero-argument function stored under mangled
// and returns its result.
func (it *Interpreter) RunMangled(mangled string) (RuntimeValue, error) {
	def, ok := it.ctx.RealFuncDefinition[mangled]
	if !ok {
		return nil, fmt.Errorf("interpreter: no function registered as %q", mangled)
	}
	v, sig, err := it.eval(def.ReturnValue)
	if err != nil {
		return nil, err
	}
	if sig.kind == signalReturn {
		return sig.value, nil
	}
	return v, nil
}

func (it *Interpreter) eval(n ast.Node) (RuntimeValue, signal, error) {
	switch v := n.(type) {
	case *ast.Literal:
		return it.evalLiteral(v)
	case *ast.Identifier:
		return it.evalIdentifier(v)
	case *ast.MemberAccess:
		return it.evalMemberAccess(v)
	case *ast.FunctionCall:
		return it.evalCall(v)
	case *ast.BinOp:
		return it.evalBinOp(v)
	case *ast.UnaryOp:
		return it.evalUnaryOp(v)
	case *ast.Branch:
		return it.evalBranch(v)
	case *ast.Loop:
		return it.evalLoop(v)
	case *ast.Block:
		return it.evalBlock(v)
	case *ast.ControlFlow:
		return it.evalControlFlow(v)
	case *ast.VarDef:
		return it.evalVarDef(v)
	case *ast.ComplexLiteral:
		return it.evalComplexLiteral(v)
	default:
		return nil, signal{}, runtimeErr(n, "interpreter: unsupported node %T", n)
	}
}

func (it *Interpreter) evalLiteral(v *ast.Literal) (RuntimeValue, signal, error) {
	switch v.Kind {
	case ast.LitNumber, ast.LitBool:
		return v.Num, signal{}, nil
	case ast.LitString:
		return v.Str, signal{}, nil
	case ast.LitMangledFunc:
		return v.Mangled, signal{}, nil
	default:
		return nil, signal{}, runtimeErr(v, "interpreter: unknown literal kind")
	}
}

func (it *Interpreter) evalIdentifier(v *ast.Identifier) (RuntimeValue, signal, error) {
	if val, ok := it.top.lookup(v.Name); ok {
		return val, signal{}, nil
	}
	if val, ok := it.handler.Read(v.Name); ok {
		return val, signal{}, nil
	}
	return nil, signal{}, runtimeErr(v, "interpreter: undefined name %q at runtime", v.Name)
}

func (it *Interpreter) evalComplexLiteral(v *ast.ComplexLiteral) (RuntimeValue, signal, error) {
	out := map[string]RuntimeValue{}
	names := v.TypeExpr.MemberNames()
	for i, m := range v.Members {
		val, sig, err := it.eval(m.Value)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		name := m.Designator
		if name == "" {
			name = names[i]
		}
		out[name] = val
	}
	return out, signal{}, nil
}

func (it *Interpreter) evalBlock(v *ast.Block) (RuntimeValue, signal, error) {
	it.top = newFrame(it.top)
	defer func() { it.top = it.top.parent }()
	var last RuntimeValue
	for _, e := range v.Exprs {
		val, sig, err := it.eval(e)
		if err != nil {
			return nil, sig, err
		}
		if sig.kind != signalNone {
			return val, sig, nil
		}
		last = val
	}
	return last, signal{}, nil
}

func (it *Interpreter) evalVarDef(v *ast.VarDef) (RuntimeValue, signal, error) {
	val, sig, err := it.eval(v.Value)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	it.top.vars[v.Name] = val
	return val, signal{}, nil
}

func (it *Interpreter) evalBranch(v *ast.Branch) (RuntimeValue, signal, error) {
	cond, sig, err := it.eval(v.Cond)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	if truthy(cond) {
		return it.eval(v.Then)
	}
	if v.Else != nil {
		return it.eval(v.Else)
	}
	return 0.0, signal{}, nil
}

func (it *Interpreter) evalLoop(v *ast.Loop) (RuntimeValue, signal, error) {
	it.top = newFrame(it.top)
	defer func() { it.top = it.top.parent }()

	if v.Init != nil {
		if _, sig, err := it.eval(v.Init); err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
	}
	for {
		cond, sig, err := it.eval(v.Cond)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		if !truthy(cond) {
			break
		}
		val, sig, err := it.eval(v.Body)
		if err != nil {
			return nil, sig, err
		}
		switch sig.kind {
		case signalBreak:
			if sig.label == "" || sig.label == v.Label {
				return val, signal{}, nil
			}
			return val, sig, nil
		case signalContinue:
			if sig.label != "" && sig.label != v.Label {
				return val, sig, nil
			}
		case signalReturn:
			return val, sig, nil
		}
	}
	return 0.0, signal{}, nil
}

func (it *Interpreter) evalControlFlow(v *ast.ControlFlow) (RuntimeValue, signal, error) {
	var val RuntimeValue
	if v.Value != nil {
		var sig signal
		var err error
		val, sig, err = it.eval(v.Value)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
	}
	kind := map[ast.ControlFlowKind]signalKind{
		ast.Break: signalBreak, ast.Continue: signalContinue, ast.Return: signalReturn,
	}[v.Kind]
	return val, signal{kind: kind, label: v.Label, value: val}, nil
}

func (it *Interpreter) evalUnaryOp(v *ast.UnaryOp) (RuntimeValue, signal, error) {
	rhs, sig, err := it.eval(v.RHS)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	switch v.Op {
	case "-":
		f, _ := asFloat(rhs)
		return -f, signal{}, nil
	case "!", "not":
		if truthy(rhs) {
			return 0.0, signal{}, nil
		}
		return 1.0, signal{}, nil
	default:
		return rhs, signal{}, nil
	}
}

func (it *Interpreter) evalBinOp(v *ast.BinOp) (RuntimeValue, signal, error) {
	if v.Op == "=" {
		return it.evalAssign(v)
	}
	if v.Op == "&&" || v.Op == "and" {
		lhs, sig, err := it.eval(v.LHS)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		if !truthy(lhs) {
			return 0.0, signal{}, nil
		}
		rhs, sig, err := it.eval(v.RHS)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		return boolVal(truthy(rhs)), signal{}, nil
	}
	if v.Op == "||" || v.Op == "or" {
		lhs, sig, err := it.eval(v.LHS)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		if truthy(lhs) {
			return 1.0, signal{}, nil
		}
		rhs, sig, err := it.eval(v.RHS)
		if err != nil || sig.kind != signalNone {
			return nil, sig, err
		}
		return boolVal(truthy(rhs)), signal{}, nil
	}

	lhs, sig, err := it.eval(v.LHS)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	rhs, sig, err := it.eval(v.RHS)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}

	if v.Op == "==" {
		return boolVal(valuesEqual(lhs, rhs)), signal{}, nil
	}
	if v.Op == "!=" {
		return boolVal(!valuesEqual(lhs, rhs)), signal{}, nil
	}

	lf, lok := asFloat(lhs)
	rf, rok := asFloat(rhs)
	if !lok || !rok {
		return nil, signal{}, runtimeErr(v, "interpreter: operator %q requires numeric operands", v.Op)
	}
	switch v.Op {
	case "+":
		return lf + rf, signal{}, nil
	case "-":
		return lf - rf, signal{}, nil
	case "*":
		return lf * rf, signal{}, nil
	case "/":
		if rf == 0 {
			if it.cfg.DivisionByZeroFails || config.StrictArithmetic {
				return nil, signal{}, runtimeErr(v, "interpreter: division by zero")
			}
			return 0.0, signal{}, nil
		}
		return lf / rf, signal{}, nil
	case "%":
		if rf == 0 {
			return nil, signal{}, runtimeErr(v, "interpreter: modulo by zero")
		}
		return math.Mod(lf, rf), signal{}, nil
	case "<":
		return boolVal(lf < rf), signal{}, nil
	case ">":
		return boolVal(lf > rf), signal{}, nil
	case "<=":
		return boolVal(lf <= rf), signal{}, nil
	case ">=":
		return boolVal(lf >= rf), signal{}, nil
	case "xor":
		return boolVal(truthy(lf) != truthy(rf)), signal{}, nil
	default:
		return nil, signal{}, runtimeErr(v, "interpreter: unsupported operator %q", v.Op)
	}
}

func boolVal(b bool) RuntimeValue {
	if b {
		return 1.0
	}
	return 0.0
}

func valuesEqual(a, b RuntimeValue) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return false
}

// lvalueSet resolves n as an assignment target, stores val there, and
// returns val. Supported l-values are a bare identifier, a struct member
// access, and an array index.
func (it *Interpreter) lvalueSet(n ast.Node, val RuntimeValue) (RuntimeValue, error) {
	switch v := n.(type) {
	case *ast.Identifier:
		if it.top.set(v.Name, val) {
			return val, nil
		}
		it.handler.Write(v.Name, val)
		return val, nil
	case *ast.MemberAccess:
		baseVal, sig, err := it.eval(v.Base)
		if err != nil || sig.kind != signalNone {
			return nil, err
		}
		if lit, ok := v.Member.(*ast.Literal); ok && lit.Kind == ast.LitString {
			m, ok := baseVal.(map[string]RuntimeValue)
			if !ok {
				return nil, runtimeErr(n, "interpreter: member assignment on non-struct value")
			}
			m[lit.Str] = val
			return it.lvalueSet(v.Base, m)
		}
		idxVal, sig, err := it.eval(v.Member)
		if err != nil || sig.kind != signalNone {
			return nil, err
		}
		idx, _ := asFloat(idxVal)
		arr, ok := baseVal.([]RuntimeValue)
		if !ok || int(idx) < 0 || int(idx) >= len(arr) {
			return nil, runtimeErr(n, "interpreter: array index out of range")
		}
		arr[int(idx)] = val
		return it.lvalueSet(v.Base, arr)
	default:
		return nil, runtimeErr(n, "interpreter: invalid assignment target")
	}
}

func (it *Interpreter) evalAssign(v *ast.BinOp) (RuntimeValue, signal, error) {
	rhs, sig, err := it.eval(v.RHS)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	if _, err := it.lvalueSet(v.LHS, rhs); err != nil {
		return nil, signal{}, err
	}
	return rhs, signal{}, nil
}

func (it *Interpreter) evalMemberAccess(v *ast.MemberAccess) (RuntimeValue, signal, error) {
	base, sig, err := it.eval(v.Base)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	if lit, ok := v.Member.(*ast.Literal); ok && lit.Kind == ast.LitString {
		m, ok := base.(map[string]RuntimeValue)
		if !ok {
			return nil, signal{}, runtimeErr(v, "interpreter: member access on non-struct value")
		}
		return m[lit.Str], signal{}, nil
	}
	idxVal, sig, err := it.eval(v.Member)
	if err != nil || sig.kind != signalNone {
		return nil, sig, err
	}
	idx, _ := asFloat(idxVal)
	arr, ok := base.([]RuntimeValue)
	if !ok || int(idx) < 0 || int(idx) >= len(arr) {
		return nil, signal{}, runtimeErr(v, "interpreter: array index out of range")
	}
	return arr[int(idx)], signal{}, nil
}
