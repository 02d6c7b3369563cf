package ruleset

import (
	"fmt"
	"strings"

	"github.com/funvibe/rulejitc/internal/analyzer"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/lexer"
	"github.com/funvibe/rulejitc/internal/parser"
	"github.com/funvibe/rulejitc/internal/symbols"
	"github.com/funvibe/rulejitc/internal/token"
)

// SubRuleSetInfo is one translated sub-rule-set: its mangled dispatch
// function and, per atom (in rule order), the set of base variable
// names that atom's consequences write — the precomputed write-back
// policy of SPEC_FULL.md §C.1.
type SubRuleSetInfo struct {
	Name             string
	Mangled          string
	AtomModifiedVars [][]string
}

// RuleSetParseInfo is the translator's output (spec.md §4.F.5): the
// mangled names of every synthesized function, ready for the
// interpreter or code generator to invoke by name.
type RuleSetParseInfo struct {
	PreprocessMangled string
	SubRuleSets       []SubRuleSetInfo
}

// Translate implements spec.md §4.F end to end: pre-defines, initial
// values, topologically sorted intermediate values, one function per
// sub-rule-set, each run through the full lexer->parser->analyzer
// pipeline against a single shared Context so later units see earlier
// ones' declarations.
func Translate(doc *Document) (*RuleSetParseInfo, *symbols.Context, []*diagnostics.Diagnostic) {
	ctx := symbols.NewContext()
	analyzer.RegisterBuiltins(ctx)
	a := analyzer.New(ctx)

	if diags := runUnit(a, renderTypeDefines(doc.Types)+predefinesPreamble); len(diags) > 0 {
		return nil, ctx, diags
	}

	fieldSrc, err := renderFieldDecls(doc)
	if err != nil {
		return nil, ctx, []*diagnostics.Diagnostic{translatorErr(err)}
	}
	if diags := runUnit(a, fieldSrc); len(diags) > 0 {
		return nil, ctx, diags
	}

	preprocessSrc, err := renderPreprocess(doc)
	if err != nil {
		return nil, ctx, []*diagnostics.Diagnostic{translatorErr(err)}
	}
	if diags := runUnit(a, preprocessSrc); len(diags) > 0 {
		return nil, ctx, diags
	}

	info := &RuleSetParseInfo{PreprocessMangled: ctx.FuncDef["__buildin_preprocess"]}

	for i, sub := range doc.SubSets {
		name := fmt.Sprintf("__buildin_subruleset_%d", i)
		src, err := renderSubRuleSet(name, sub)
		if err != nil {
			return nil, ctx, []*diagnostics.Diagnostic{translatorErr(err)}
		}
		if diags := runUnit(a, src); len(diags) > 0 {
			return nil, ctx, diags
		}
		modified := make([][]string, len(sub.Rules))
		for j, rule := range sub.Rules {
			modified[j] = modifiedVars(rule)
		}
		info.SubRuleSets = append(info.SubRuleSets, SubRuleSetInfo{
			Name:             sub.Name,
			Mangled:          ctx.FuncDef[name],
			AtomModifiedVars: modified,
		})
	}

	return info, ctx, nil
}

func translatorErr(err error) *diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.TranslatorError, "ruleset", err.Error(), token.Range{})
}

// runUnit parses one synthesized source unit and feeds it through a's
// already-open analysis (reusing its Context/root scope across calls),
// converting a parse failure into a single TranslatorError and
// forwarding any analyzer diagnostics directly.
func runUnit(a *analyzer.Analyzer, src string) []*diagnostics.Diagnostic {
	p := parser.New(lexer.New(src))
	nodes, err := p.ParseProgram()
	if err != nil {
		return []*diagnostics.Diagnostic{translatorErr(err)}
	}
	_, diags := a.AnalyzeProgram(nodes)
	return diags
}

// renderFieldDecls emits one top-level `var name Type = init` per
// MetaInfo entry (spec.md §4.F.2): InitValue when present, the field's
// Value expression when it has one (re-evaluated every tick by
// renderPreprocess, but still needs a starting value), else a
// type-appropriate zero literal.
func renderFieldDecls(doc *Document) (string, error) {
	var b strings.Builder
	for _, v := range doc.AllVars() {
		init := v.InitValue
		if init == "" {
			init = v.Value
		}
		if init == "" {
			init = zeroLiteral(v.Type)
		}
		fmt.Fprintf(&b, "var %s %s = %s\n", v.Name, v.Type.String(), init)
	}
	return b.String(), nil
}

// renderPreprocess builds the per-tick recomputation function of
// spec.md §4.F.3: every MetaInfo entry with a Value expression,
// assigned in topological dependency order.
func renderPreprocess(doc *Document) (string, error) {
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
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("func __buildin_preprocess() {\n")
	if len(order) == 0 {
		b.WriteString("0\n")
	}
	for _, name := range order {
		fmt.Fprintf(&b, "%s = (%s)\n", name, value[name])
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// renderSubRuleSet builds the if/else-if atom chain of spec.md §4.F.4,
// returning the 0-based index of the winning atom or -1.
func renderSubRuleSet(name string, sub SubRuleSetDoc) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(): f64 {\n", name)
	for i, rule := range sub.Rules {
		if i == 0 {
			fmt.Fprintf(&b, "if(%s) {\n", rule.Condition)
		} else {
			fmt.Fprintf(&b, "else if(%s) {\n", rule.Condition)
		}
		for _, c := range rule.Consequences {
			stmt, err := renderConsequence(c)
			if err != nil {
				return "", err
			}
			b.WriteString(stmt)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n}\n", i)
	}
	if len(sub.Rules) > 0 {
		b.WriteString("else { -1 }\n")
	} else {
		b.WriteString("-1\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// renderConsequence renders one rule action. A named array/struct
// operation (spec.md §6 "ArrayOperation/Operation") is synthesized as
// op(target, args...) rather than target.op(args...): this resolves
// through the analyzer's ordinary member-function overload lookup
// (LookupMember keyed on the receiver's type as the first argument)
// without needing a second, dot-call-specific dispatch path.
func renderConsequence(c Consequence) (string, error) {
	switch c.Kind {
	case ConsequenceAssign:
		return fmt.Sprintf("%s = (%s)", c.Target, c.Value), nil
	case ConsequenceOperation:
		args := append([]string{c.Target}, c.Args...)
		return fmt.Sprintf("%s(%s)", c.Op, strings.Join(args, ",")), nil
	default:
		return "", fmt.Errorf("unknown consequence kind for target %q", c.Target)
	}
}

// modifiedVars returns the base variable names rule writes, for the
// interpreter's per-atom write-back policy (SPEC_FULL.md §C.1).
func modifiedVars(rule Rule) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range rule.Consequences {
		name := baseName(c.Target)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func baseName(target string) string {
	if i := strings.IndexAny(target, ".["); i >= 0 {
		return target[:i]
	}
	return target
}
