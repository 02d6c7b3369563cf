package ruleset

import (
	"fmt"
	"sort"

	"github.com/funvibe/rulejitc/internal/ast"
	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/parser"
)

// freeIdentifiers parses src as a bare expression and collects every
// Identifier name it references, used to build the intermediate-value
// dependency graph of spec.md §4.F.3 ("walking the expression and
// intersecting referenced identifiers with the set of variables having
// intermediate expressions").
func freeIdentifiers(src string) (map[string]bool, error) {
	p := parser.New(lexer.New(src))
	n, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	walkIdents(n, out)
	return out, nil
}

func walkIdents(n ast.Node, out map[string]bool) {
	switch v := n.(type) {
	case *ast.Identifier:
		out[v.Name] = true
	case *ast.MemberAccess:
		walkIdents(v.Base, out)
		walkIdents(v.Member, out)
	case *ast.FunctionCall:
		walkIdents(v.Callee, out)
		for _, a := range v.Args {
			walkIdents(a, out)
		}
	case *ast.BinOp:
		walkIdents(v.LHS, out)
		walkIdents(v.RHS, out)
	case *ast.UnaryOp:
		walkIdents(v.RHS, out)
	case *ast.Branch:
		walkIdents(v.Cond, out)
		walkIdents(v.Then, out)
		if v.Else != nil {
			walkIdents(v.Else, out)
		}
	case *ast.ComplexLiteral:
		for _, m := range v.Members {
			walkIdents(m.Value, out)
		}
	case *ast.Loop:
		if v.Init != nil {
			walkIdents(v.Init, out)
		}
		walkIdents(v.Cond, out)
		walkIdents(v.Body, out)
	case *ast.Block:
		for _, e := range v.Exprs {
			walkIdents(e, out)
		}
	case *ast.ControlFlow:
		if v.Value != nil {
			walkIdents(v.Value, out)
		}
	}
}

// OrderIntermediates exposes the translator's topological ordering of
// doc's Value-bearing fields to other back ends (internal/codegen): the
// code generator must compute its preprocess assignment order the same
// way renderPreprocess does, or it stops being ABI-compatible with the
// interpreter for any document whose intermediates depend on each other.
func OrderIntermediates(doc *Document) ([]string, map[string]string, error) {
	vars := doc.AllVars()
	value := map[string]string{}
	var names []string
	for _, v := range vars {
		if v.Value != "" {
			value[v.Name] = v.Value
			names = append(names, v.Name)
		}
	}
	order, err := topoSortIntermediates(names, value)
	return order, value, err
}

// topoSortIntermediates orders the names of vars (those in `value`) so
// that every dependency precedes its dependent, or returns a
// TranslatorError-shaped error naming a cycle's participants.
func topoSortIntermediates(names []string, value map[string]string) ([]string, error) {
	deps := map[string]map[string]bool{}
	for _, name := range names {
		free, err := freeIdentifiers(value[name])
		if err != nil {
			return nil, fmt.Errorf("intermediate value %q: %w", name, err)
		}
		d := map[string]bool{}
		for id := range free {
			if id != name && value[id] != "" {
				d[id] = true
			}
		}
		deps[name] = d
	}

	const (
		white = iota
		gray
		black
	)
	color := map[string]int{}
	var order []string
	var stack []string
	var visit func(n string) error
	visit = func(n string) error {
		switch color[n] {
		case black:
			return nil
		case gray:
			stack = append(stack, n)
			return fmt.Errorf("cyclic intermediate dependency among: %v", cycleSlice(stack))
		}
		color[n] = gray
		stack = append(stack, n)
		depNames := make([]string, 0, len(deps[n]))
		for d := range deps[n] {
			depNames = append(depNames, d)
		}
		sort.Strings(depNames)
		for _, d := range depNames {
			if err := visit(d); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		order = append(order, n)
		return nil
	}

	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	for _, n := range sorted {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func cycleSlice(stack []string) []string {
	last := stack[len(stack)-1]
	for i, s := range stack {
		if s == last {
			return stack[i:]
		}
	}
	return stack
}
