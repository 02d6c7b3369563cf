// Package ruleset implements the rule-set translator of spec.md §4.F: it
// takes a decoded rule-set document (see internal/rulesetxml for one
// concrete decoding) and synthesizes expression-language source text for
// the pre-defines preamble, the initial-value block, the topologically
// ordered intermediate-value block, and one function per sub-rule-set,
// then runs each through the full lexer→parser→analyzer pipeline.
//
// Grounded on github.com/funvibe/funxy/internal/pipeline's small
// Pipeline/Processor shape, generalized from a generic multi-stage text
// pipeline into the fixed five-stage translation spec.md §4.F.5
// describes ("check and store").
package ruleset

import "github.com/funvibe/rulejitc/internal/types"

// TypeDefine is one user struct type declared by the document.
type TypeDefine struct {
	Name    string
	Members []MemberDefine
}

// MemberDefine is one (name, type) pair of a TypeDefine, in declaration
// order.
type MemberDefine struct {
	Name string
	Type types.Type
}

// VarInfo is one entry of MetaInfo.Inputs/Caches/Outputs: a name, a
// declared type, and an optional literal InitValue or computed Value
// expression (mutually exclusive per spec.md §6).
type VarInfo struct {
	Name      string
	Type      types.Type
	InitValue string // literal source text, e.g. "0", "true"; empty if absent
	Value     string // expression source text; empty if absent
	HostKind  string // host-declared primitive kind for numeric narrowing, see SPEC_FULL.md §C.5
}

// MetaInfo groups the document's three variable lists.
type MetaInfo struct {
	Inputs  []VarInfo
	Caches  []VarInfo
	Outputs []VarInfo
}

// ConsequenceKind distinguishes a plain assignment from a named
// array/struct operation.
type ConsequenceKind int

const (
	ConsequenceAssign ConsequenceKind = iota
	ConsequenceOperation
)

// Consequence is one action of a matched rule.
type Consequence struct {
	Kind   ConsequenceKind
	Target string // e.g. "trackList" or "cache.bearing"
	Op     string // operation name, only set when Kind == ConsequenceOperation
	Value  string // RHS expression text (Assign) or single combined arg text (Operation)
	Args   []string
}

// Rule is one atom of a sub-rule-set: a condition expression and an
// ordered consequence list.
type Rule struct {
	Condition    string
	Consequences []Consequence
}

// SubRuleSetDoc is one independently-scheduled group of rules
// (spec.md §4.F.4/§4.G).
type SubRuleSetDoc struct {
	Name  string
	Rules []Rule
}

// Document is the full decoded rule-set, independent of its wire format
// (spec.md §6: "the on-wire syntax is irrelevant to the core").
type Document struct {
	Version  string
	Types    []TypeDefine
	Meta     MetaInfo
	SubSets  []SubRuleSetDoc
}

// AllVars returns every MetaInfo entry across Inputs/Caches/Outputs, in
// that fixed order — the order intermediate-value dependency analysis
// and initial-value emission both rely on for determinism.
func (d *Document) AllVars() []VarInfo {
	out := make([]VarInfo, 0, len(d.Meta.Inputs)+len(d.Meta.Caches)+len(d.Meta.Outputs))
	out = append(out, d.Meta.Inputs...)
	out = append(out, d.Meta.Caches...)
	out = append(out, d.Meta.Outputs...)
	return out
}
