// Package codegen implements the source-to-source back end of spec.md
// §4.H: a mirror of the tree-walking interpreter (internal/interpreter)
// with no runtime AST-walk state, emitting a standalone Go project whose
// Engine is ABI-compatible with the interpreter's — same DataStore
// input/cache/output value-map shape, same copy-on-read/write-back
// contract, same preprocess-then-every-sub-rule-set-then-reset tick
// order (spec.md §5). Each sub-rule-set becomes a generated type holding
// a private cache-staging map and a tick/writeBack method pair; tick
// returns the 0-based index of the winning atom (or -1), and writeBack
// switches on that index to merge exactly the atom's modified fields,
// the same per-atom policy internal/ruleset/translate.go precomputes as
// SubRuleSetInfo.AtomModifiedVars for the interpreter back end.
//
// Grounded on internal/ruleset/translate.go's synthesis shape (one
// generated unit per sub-rule-set, preprocess first) and
// internal/interpreter's DataStore/ResourceHandler pair (see support.go)
// — the teacher repo itself targets an AST-walking evaluator only and has
// no source-emitting back end to adapt directly (see DESIGN.md), so this
// package's control-flow shape is original to this module, built from
// spec.md §4.H's algorithm description rather than copied from an
// example.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/types"
)

// Project is a generated, standalone Go project: a set of file paths
// (relative to the project root) to their full source text.
type Project struct {
	ModulePath string
	Files      map[string]string
}

// fieldInfo is one document field's generation-time metadata.
type fieldInfo struct {
	name    string
	section string // "Input", "Cache", or "Output"
	zero    string // zeroFor() kind argument
}

// Generate translates doc into a standalone Go project implementing
// spec.md §4.H. The document must already have passed
// internal/ruleset.Translate against the interpreter back end (codegen
// does not re-implement semantic analysis; it assumes doc is
// well-formed and every condition/value/consequence expression resolves
// only to fields, math built-ins, and the fixed fuzzy-logic preamble).
func Generate(doc *ruleset.Document, modulePath string) (*Project, error) {
	fields := collectFields(doc)

	engineSrc, err := generateEngine(doc, fields)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	mainSrc := generateMain(modulePath)

	return &Project{
		ModulePath: modulePath,
		Files: map[string]string{
			"go.mod":          fmt.Sprintf("module %s\n\ngo 1.25.3\n", modulePath),
			"ruleset/support.go": supportTemplate,
			"ruleset/engine.go":  engineSrc,
			"main.go":            mainSrc,
		},
	}, nil
}

func collectFields(doc *ruleset.Document) []fieldInfo {
	var out []fieldInfo
	add := func(vs []ruleset.VarInfo, section string) {
		for _, v := range vs {
			out = append(out, fieldInfo{name: v.Name, section: section, zero: zeroKind(v.Type)})
		}
	}
	add(doc.Meta.Inputs, "Input")
	add(doc.Meta.Caches, "Cache")
	add(doc.Meta.Outputs, "Output")
	return out
}

func zeroKind(t types.Type) string {
	switch {
	case t.IsComplexType():
		return "struct"
	case t.IsArrayType():
		return "array"
	case t.String() == "string":
		return "string"
	default:
		return "f64"
	}
}

func allFieldNames(fields []fieldInfo) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// generateEngine emits ruleset/engine.go: the Engine type (DataStore +
// canonicalSlot), the preprocess method, and one SubRuleSetN type per
// document sub-rule-set.
func generateEngine(doc *ruleset.Document, fields []fieldInfo) (string, error) {
	var b strings.Builder
	b.WriteString("// Code generated by rulejitc codegen from one rule-set document. DO NOT EDIT.\n\n")
	b.WriteString("package ruleset\n\n")

	writeEngineType(&b, fields, len(doc.SubSets))

	preprocessBody, err := generatePreprocess(doc)
	if err != nil {
		return "", fmt.Errorf("preprocess: %w", err)
	}
	b.WriteString(preprocessBody)

	b.WriteString("\n// Tick runs one evaluation cycle: preprocess, then every sub-rule-set\n")
	b.WriteString("// against that snapshot, then reset (spec.md §5).\n")
	b.WriteString("func (e *Engine) Tick() (err error) {\n")
	b.WriteString("\tdefer func() {\n")
	b.WriteString("\t\tif r := recover(); r != nil {\n")
	b.WriteString("\t\t\tif re, ok := r.(runtimeError); ok {\n")
	b.WriteString("\t\t\t\terr = re\n")
	b.WriteString("\t\t\t\treturn\n")
	b.WriteString("\t\t\t}\n")
	b.WriteString("\t\t\tpanic(r)\n")
	b.WriteString("\t\t}\n")
	b.WriteString("\t}()\n")
	b.WriteString("\tprh := newResourceHandler(e)\n")
	b.WriteString("\te.preprocess(prh)\n")
	fmt.Fprintf(&b, "\tprh.WriteBack(%#v)\n", allFieldNames(fields))
	b.WriteString("\tprh.Reset()\n")
	for i := range doc.SubSets {
		fmt.Fprintf(&b, "\te.sub%d.rh = newResourceHandler(e)\n", i)
		fmt.Fprintf(&b, "\te.sub%d.LastAtom = e.sub%d.tick(e.sub%d.rh)\n", i, i, i)
	}
	for i := range doc.SubSets {
		fmt.Fprintf(&b, "\te.sub%d.writeBack()\n", i)
		fmt.Fprintf(&b, "\te.sub%d.rh.Reset()\n", i)
	}
	b.WriteString("\treturn nil\n")
	b.WriteString("}\n\n")

	for i, sub := range doc.SubSets {
		subSrc, err := generateSubRuleSet(i, sub)
		if err != nil {
			return "", fmt.Errorf("sub-rule-set %d (%s): %w", i, sub.Name, err)
		}
		b.WriteString(subSrc)
	}

	return b.String(), nil
}

func writeEngineType(b *strings.Builder, fields []fieldInfo, numSubSets int) {
	b.WriteString("// Engine owns the canonical Input/Cache/Output value maps, the same\n")
	b.WriteString("// three-section DataStore shape internal/interpreter/datastore.go uses,\n")
	b.WriteString("// plus one nested SubRuleSet record per document sub-rule-set.\n")
	b.WriteString("type Engine struct {\n")
	b.WriteString("\tInput  map[string]Value\n")
	b.WriteString("\tCache  map[string]Value\n")
	b.WriteString("\tOutput map[string]Value\n\n")
	b.WriteString("\tfieldSection map[string]string\n\n")
	for i := 0; i < numSubSets; i++ {
		fmt.Fprintf(b, "\tsub%d SubRuleSet%d\n", i, i)
	}
	b.WriteString("}\n\n")

	b.WriteString("func (e *Engine) canonicalSlot(name string) (map[string]Value, bool) {\n")
	b.WriteString("\tswitch e.fieldSection[name] {\n")
	b.WriteString("\tcase \"Input\":\n\t\treturn e.Input, true\n")
	b.WriteString("\tcase \"Cache\":\n\t\treturn e.Cache, true\n")
	b.WriteString("\tcase \"Output\":\n\t\treturn e.Output, true\n")
	b.WriteString("\tdefault:\n\t\treturn nil, false\n")
	b.WriteString("\t}\n}\n\n")

	b.WriteString("// NewEngine builds an Engine with every field set to its type's zero\n")
	b.WriteString("// value; literal InitValue starting points are not applied, and\n")
	b.WriteString("// Value fields are first computed by preprocess on the first Tick.\n")
	b.WriteString("func NewEngine() *Engine {\n")
	b.WriteString("\te := &Engine{\n")
	b.WriteString("\t\tInput:        map[string]Value{},\n")
	b.WriteString("\t\tCache:        map[string]Value{},\n")
	b.WriteString("\t\tOutput:       map[string]Value{},\n")
	b.WriteString("\t\tfieldSection: map[string]string{},\n")
	b.WriteString("\t}\n")
	for _, f := range fields {
		fmt.Fprintf(b, "\te.%s[%q] = zeroFor(%q)\n", f.section, f.name, f.zero)
		fmt.Fprintf(b, "\te.fieldSection[%q] = %q\n", f.name, f.section)
	}
	b.WriteString("\treturn e\n}\n\n")

	b.WriteString("// SetInput stages a value into an input field ahead of the next Tick.\n")
	b.WriteString("func (e *Engine) SetInput(name string, value Value) { e.Input[name] = value }\n\n")
	b.WriteString("// GetOutput returns an output field's current canonical value.\n")
	b.WriteString("func (e *Engine) GetOutput(name string) (Value, bool) { v, ok := e.Output[name]; return v, ok }\n\n")
}

// generatePreprocess emits Engine.preprocess, assigning every Value-
// bearing field in the same topological order
// internal/ruleset/depsort.go's OrderIntermediates computes for the
// interpreter back end.
func generatePreprocess(doc *ruleset.Document) (string, error) {
	order, value, err := ruleset.OrderIntermediates(doc)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("func (e *Engine) preprocess(rh *ResourceHandler) {\n")
	for _, name := range order {
		stmt, err := emitTopLevelAssign(name, value[name])
		if err != nil {
			return "", fmt.Errorf("intermediate value %q: %w", name, err)
		}
		fmt.Fprintf(&b, "\t%s\n", stmt)
	}
	b.WriteString("}\n\n")
	return b.String(), nil
}

// generateSubRuleSet emits one SubRuleSetN type: a private rh handle
// set by Engine.Tick, a LastAtom field, a tick method implementing the
// atom dispatch of spec.md §4.F.4 (first matching rule wins, consequences
// run against rh, returns the atom index or -1), and a writeBack method
// switching on LastAtom to merge exactly that atom's modified fields —
// the generated analog of internal/interpreter/engine.go's Engine.Tick
// sub-rule-set loop.
func generateSubRuleSet(idx int, sub ruleset.SubRuleSetDoc) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\ntype SubRuleSet%d struct {\n\trh *ResourceHandler\n\tLastAtom int\n}\n\n", sub.Name, idx)
	fmt.Fprintf(&b, "func (s *SubRuleSet%d) tick(rh *ResourceHandler) int {\n", idx)

	for i, rule := range sub.Rules {
		cond, err := emitConditionExpr(rule.Condition)
		if err != nil {
			return "", fmt.Errorf("rule %d condition: %w", i, err)
		}
		fmt.Fprintf(&b, "\tif truthy(%s) {\n", cond)
		for j, c := range rule.Consequences {
			stmt, err := emitConsequenceStmt(c)
			if err != nil {
				return "", fmt.Errorf("rule %d consequence %d: %w", i, j, err)
			}
			fmt.Fprintf(&b, "\t\t%s\n", stmt)
		}
		fmt.Fprintf(&b, "\t\treturn %d\n\t}\n", i)
	}
	b.WriteString("\treturn -1\n}\n\n")

	fmt.Fprintf(&b, "func (s *SubRuleSet%d) writeBack() {\n", idx)
	fmt.Fprintf(&b, "\tswitch s.LastAtom {\n")
	for i, rule := range sub.Rules {
		names := modifiedVars(rule)
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "\tcase %d:\n\t\ts.rh.WriteBack(%#v)\n", i, names)
	}
	b.WriteString("\t}\n}\n\n")

	return b.String(), nil
}

func emitConsequenceStmt(c ruleset.Consequence) (string, error) {
	switch c.Kind {
	case ruleset.ConsequenceAssign:
		return emitTopLevelAssign(c.Target, c.Value)
	case ruleset.ConsequenceOperation:
		return emitOperationStmt(c.Op, c.Target, c.Args)
	default:
		return "", fmt.Errorf("unknown consequence kind for target %q", c.Target)
	}
}

// modifiedVars mirrors internal/ruleset/translate.go's unexported
// function of the same name: the base variable names one rule's
// consequences write, deduplicated in first-seen order.
func modifiedVars(rule ruleset.Rule) []string {
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

func generateMain(modulePath string) string {
	return fmt.Sprintf(`// Code generated by rulejitc codegen. DO NOT EDIT.
package main

import (
	"fmt"

	"%s/ruleset"
)

// main demonstrates the generated Engine's host-facing surface: build,
// set inputs, tick, read outputs — the same four-operation shape
// internal/host wraps around internal/interpreter.Engine (spec.md §4.I).
func main() {
	e := ruleset.NewEngine()
	if err := e.Tick(); err != nil {
		fmt.Println("tick error:", err)
		return
	}
	for name, v := range e.Output {
		fmt.Printf("%%s = %%v\n", name, v)
	}
}
`, modulePath)
}
