package interpreter

import (
	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/symbols"
)

// SubRuleSet pairs one translated sub-rule-set's mangled dispatch
// function with its own ResourceHandler/Interpreter, so each evaluates
// against an independent local staging area over the shared DataStore
// (spec.md §5's cache-isolation contract).
type SubRuleSet struct {
	Info ruleset.SubRuleSetInfo
	rh   *ResourceHandler
	it   *Interpreter

	// LastAtom is the 0-based index of the winning atom from the most
	// recent Tick, or -1 if no rule matched.
	LastAtom int
}

// Engine drives one rule-set document's preprocess-then-sub-rule-sets
// tick, per spec.md §4.G/§5 and SPEC_FULL.md §D.5: preprocess runs
// first (against the post-previous-tick canonical state) and its
// write-back lands before any sub-rule-set reads, then every
// sub-rule-set runs against that same snapshot and all of them write
// back, in registration order, before the handlers reset for the next
// tick.
type Engine struct {
	Store *DataStore
	ctx   *symbols.Context
	cfg   config.Config

	preprocessMangled string
	preprocessHandler *ResourceHandler
	preprocessInterp  *Interpreter

	SubRuleSets []*SubRuleSet
}

// NewEngine builds an Engine from a translated RuleSetParseInfo over
// doc, sharing ctx (the Context produced by the same Translate call)
// across every synthesized function's Interpreter.
func NewEngine(doc *ruleset.Document, info *ruleset.RuleSetParseInfo, ctx *symbols.Context, cfg config.Config) *Engine {
	store := NewDataStore(doc)
	e := &Engine{
		Store:             store,
		ctx:               ctx,
		cfg:               cfg,
		preprocessMangled: info.PreprocessMangled,
	}
	e.preprocessHandler = NewResourceHandler(store)
	e.preprocessInterp = NewInterpreter(ctx, e.preprocessHandler, cfg)

	for _, sub := range info.SubRuleSets {
		rh := NewResourceHandler(store)
		e.SubRuleSets = append(e.SubRuleSets, &SubRuleSet{
			Info:     sub,
			rh:       rh,
			it:       NewInterpreter(ctx, rh, cfg),
			LastAtom: -1,
		})
	}
	return e
}

// allFieldNames returns every declared field name, used as the
// preprocess write-back set: preprocess may touch any input/cache/output
// field through an intermediate-value expression, so (unlike a
// sub-rule-set's precomputed per-atom set) its write-back is
// unconditional over the whole name.
func allFieldNames(doc *ruleset.Document) []string {
	vars := doc.AllVars()
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return names
}

// Tick runs exactly one evaluation cycle: preprocess + write-back, then
// every sub-rule-set against that snapshot + write-back, then reset.
func (e *Engine) Tick() error {
	if _, err := e.preprocessInterp.RunMangled(e.preprocessMangled); err != nil {
		return err
	}
	e.preprocessHandler.WriteBack(allFieldNames(e.Store.Doc))
	e.preprocessHandler.Reset()

	for _, sub := range e.SubRuleSets {
		val, err := sub.it.RunMangled(sub.Info.Mangled)
		if err != nil {
			return err
		}
		f, _ := asFloat(val)
		sub.LastAtom = int(f)
	}
	for _, sub := range e.SubRuleSets {
		if atom := sub.LastAtom; atom >= 0 && atom < len(sub.Info.AtomModifiedVars) {
			sub.rh.WriteBack(sub.Info.AtomModifiedVars[atom])
		}
		sub.rh.Reset()
	}
	return nil
}

// SetInput stages a value into an input field ahead of the next Tick.
func (e *Engine) SetInput(name string, value RuntimeValue) {
	e.Store.Input[name] = value
}

// GetOutput returns an output field's current canonical value.
func (e *Engine) GetOutput(name string) (RuntimeValue, bool) {
	v, ok := e.Store.Output[name]
	return v, ok
}
