package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/parser"
)

// mathBuiltinNames/predefineNames mirror
// internal/analyzer/builtins.go/internal/ruleset/predefines.go's two
// fixed name sets: every call site's callee must resolve to one of
// these (document fields have no user-declared functions of their own),
// so emitCall can dispatch by name alone without re-running analysis.
var mathBuiltinNames = map[string]bool{
	"sin": true, "cos": true, "tan": true, "abs": true, "fabs": true,
	"floor": true, "ceil": true, "sqrt": true, "exp": true, "log": true,
	"log2": true, "log10": true, "pow": true, "atan2": true,
}

var predefineNames = map[string]bool{
	"clamp01": true, "fuzzyAnd": true, "fuzzyOr": true, "fuzzyNot": true, "lerp": true,
}

// parseExprSrc parses one bare expression, the same entry point
// internal/ruleset/depsort.go's freeIdentifiers uses.
func parseExprSrc(src string) (ast.Node, error) {
	p := parser.New(lexer.New(src))
	return p.ParseExpr()
}

// unsupportedErr reports an expression shape codegen intentionally
// leaves to the interpreter back end (see DESIGN.md): control-flow nodes
// nested inside a value-producing sub-expression, where a `return`
// would need to unwind past a synthesized Go closure boundary instead of
// the whole dispatch function. None of spec.md §8's worked scenarios
// require this.
func unsupportedErr(n ast.Node, what string) error {
	return fmt.Errorf("codegen: unsupported construct %s at %v", what, n.Range())
}

// emitExpr renders n as a Go expression of type Value.
func emitExpr(n ast.Node) (string, error) {
	switch v := n.(type) {
	case *ast.Literal:
		return emitLiteral(v)
	case *ast.Identifier:
		return fmt.Sprintf("mustRead(rh, %q)", v.Name), nil
	case *ast.MemberAccess:
		return emitMemberAccessExpr(v)
	case *ast.FunctionCall:
		return emitCall(v)
	case *ast.BinOp:
		return emitBinOpExpr(v)
	case *ast.UnaryOp:
		rhs, err := emitExpr(v.RHS)
		if err != nil {
			return "", err
		}
		switch v.Op {
		case "-":
			return fmt.Sprintf("vNeg(%s)", rhs), nil
		case "!", "not":
			return fmt.Sprintf("vNot(%s)", rhs), nil
		default:
			return rhs, nil
		}
	case *ast.ComplexLiteral:
		return emitComplexLiteral(v)
	case *ast.Branch, *ast.Block:
		return "", unsupportedErr(n, "as a nested sub-expression (if/block only supported at statement position)")
	default:
		return "", unsupportedErr(n, fmt.Sprintf("(%T)", n))
	}
}

func emitLiteral(v *ast.Literal) (string, error) {
	switch v.Kind {
	case ast.LitNumber, ast.LitBool:
		return strconv.FormatFloat(v.Num, 'g', -1, 64), nil
	case ast.LitString:
		return strconv.Quote(v.Str), nil
	default:
		return "", fmt.Errorf("codegen: unsupported literal kind in document-supplied expression")
	}
}

func emitComplexLiteral(v *ast.ComplexLiteral) (string, error) {
	names := v.TypeExpr.MemberNames()
	var b strings.Builder
	b.WriteString("newComplex(")
	for i, m := range v.Members {
		if i > 0 {
			b.WriteString(", ")
		}
		name := m.Designator
		if name == "" {
			name = names[i]
		}
		val, err := emitExpr(m.Value)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%q, %s", name, val)
	}
	b.WriteString(")")
	return b.String(), nil
}

func emitMemberAccessExpr(v *ast.MemberAccess) (string, error) {
	base, err := emitExpr(v.Base)
	if err != nil {
		return "", err
	}
	if lit, ok := v.Member.(*ast.Literal); ok && lit.Kind == ast.LitString {
		return fmt.Sprintf("memberGet(%s, %q)", base, lit.Str), nil
	}
	idx, err := emitExpr(v.Member)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("indexGet(%s, %s)", base, idx), nil
}

func emitCall(v *ast.FunctionCall) (string, error) {
	ident, ok := v.Callee.(*ast.Identifier)
	if !ok {
		return "", unsupportedErr(v, "calling a non-literal callee expression")
	}
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		s, err := emitExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	switch {
	case mathBuiltinNames[ident.Name]:
		return fmt.Sprintf("callMath(%q, %s)", ident.Name, strings.Join(args, ", ")), nil
	case predefineNames[ident.Name]:
		return fmt.Sprintf("callPredefine(%q, %s)", ident.Name, strings.Join(args, ", ")), nil
	default:
		return "", fmt.Errorf("codegen: call to unresolved function %q (only math built-ins and the fixed fuzzy-logic preamble are callable from rule-set source, spec.md §4.F.1)", ident.Name)
	}
}

// emitBinOpExpr renders a BinOp used as a value (not a bare top-level
// assignment statement): "=" becomes an assign-then-yield IIFE, "&&"/"||"
// keep their short-circuit shape, everything else is a straight vXxx call.
func emitBinOpExpr(v *ast.BinOp) (string, error) {
	if v.Op == "=" {
		rhs, err := emitExpr(v.RHS)
		if err != nil {
			return "", err
		}
		assign, err := emitAssignStmt(v.LHS, "__v")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("func() Value { __v := %s; %s; return __v }()", rhs, assign), nil
	}
	lhs, err := emitExpr(v.LHS)
	if err != nil {
		return "", err
	}
	rhs, err := emitExpr(v.RHS)
	if err != nil {
		return "", err
	}
	switch v.Op {
	case "&&", "and":
		return fmt.Sprintf("boolVal(truthy(%s) && truthy(%s))", lhs, rhs), nil
	case "||", "or":
		return fmt.Sprintf("boolVal(truthy(%s) || truthy(%s))", lhs, rhs), nil
	case "+":
		return fmt.Sprintf("vAdd(%s, %s)", lhs, rhs), nil
	case "-":
		return fmt.Sprintf("vSub(%s, %s)", lhs, rhs), nil
	case "*":
		return fmt.Sprintf("vMul(%s, %s)", lhs, rhs), nil
	case "/":
		return fmt.Sprintf("vDiv(%s, %s)", lhs, rhs), nil
	case "%":
		return fmt.Sprintf("vMod(%s, %s)", lhs, rhs), nil
	case "<":
		return fmt.Sprintf("vLt(%s, %s)", lhs, rhs), nil
	case ">":
		return fmt.Sprintf("vGt(%s, %s)", lhs, rhs), nil
	case "<=":
		return fmt.Sprintf("vLe(%s, %s)", lhs, rhs), nil
	case ">=":
		return fmt.Sprintf("vGe(%s, %s)", lhs, rhs), nil
	case "==":
		return fmt.Sprintf("vEq(%s, %s)", lhs, rhs), nil
	case "!=":
		return fmt.Sprintf("vNeq(%s, %s)", lhs, rhs), nil
	case "xor":
		return fmt.Sprintf("vXor(%s, %s)", lhs, rhs), nil
	default:
		return "", fmt.Errorf("codegen: unsupported operator %q", v.Op)
	}
}

// lvaluePath decomposes an assignment target into its root field name
// and its member/index chain, the same shape setPath (support.go)
// consumes — codegen's static-time analog of
// internal/interpreter/eval.go's recursive lvalueSet.
func lvaluePath(n ast.Node) (string, []string, error) {
	var steps []string
	cur := n
	for {
		switch v := cur.(type) {
		case *ast.Identifier:
			rev := make([]string, len(steps))
			for i := range steps {
				rev[i] = steps[len(steps)-1-i]
			}
			return v.Name, rev, nil
		case *ast.MemberAccess:
			if lit, ok := v.Member.(*ast.Literal); ok && lit.Kind == ast.LitString {
				steps = append(steps, fmt.Sprintf("{Field: %q}", lit.Str))
			} else {
				idx, err := emitExpr(v.Member)
				if err != nil {
					return "", nil, err
				}
				steps = append(steps, fmt.Sprintf("{HasIndex: true, Index: %s}", idx))
			}
			cur = v.Base
		default:
			return "", nil, fmt.Errorf("codegen: invalid assignment target at %v", n.Range())
		}
	}
}

// emitAssignStmt renders "lhs = valueExpr" as a Go statement string,
// where valueExpr is either a literal Go expression or a bound variable
// name already holding the computed value.
func emitAssignStmt(lhs ast.Node, valueExpr string) (string, error) {
	root, steps, err := lvaluePath(lhs)
	if err != nil {
		return "", err
	}
	if len(steps) == 0 {
		return fmt.Sprintf("rh.Write(%q, %s)", root, valueExpr), nil
	}
	return fmt.Sprintf("setPath(rh, %q, []pathStep{%s}, %s)", root, strings.Join(steps, ", "), valueExpr), nil
}

// emitConditionExpr parses and renders a rule condition / intermediate
// value source string as a Go expression of type Value.
func emitConditionExpr(src string) (string, error) {
	n, err := parseExprSrc(src)
	if err != nil {
		return "", err
	}
	return emitExpr(n)
}

// emitTopLevelAssign parses "target = value" style source (as
// internal/ruleset/translate.go's renderConsequence/renderPreprocess
// synthesize it) and emits the matching Go assignment statement.
func emitTopLevelAssign(target, value string) (string, error) {
	lhsNode, err := parseExprSrc(target)
	if err != nil {
		return "", err
	}
	rhsExpr, err := emitConditionExpr(value)
	if err != nil {
		return "", err
	}
	return emitAssignStmt(lhsNode, rhsExpr)
}

// emitOperationStmt parses "op(target, args...)" (renderConsequence's
// ConsequenceOperation shape) and emits it as a Go expression statement,
// discarding any result, matching the interpreter's treatment of a
// consequence as a statement run purely for effect.
func emitOperationStmt(op, target string, args []string) (string, error) {
	allArgs := append([]string{target}, args...)
	parts := make([]string, len(allArgs))
	for i, a := range allArgs {
		n, err := parseExprSrc(a)
		if err != nil {
			return "", err
		}
		s, err := emitExpr(n)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	switch {
	case mathBuiltinNames[op]:
		return fmt.Sprintf("_ = callMath(%q, %s)", op, strings.Join(parts, ", ")), nil
	case predefineNames[op]:
		return fmt.Sprintf("_ = callPredefine(%q, %s)", op, strings.Join(parts, ", ")), nil
	default:
		return "", fmt.Errorf("codegen: operation consequence calls unresolved function %q", op)
	}
}
