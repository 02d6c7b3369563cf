// Package host implements the plugin-surface binding of spec.md §4.I
// and §6: the four per-instance lifecycle operations (Init, SetInput,
// Tick, GetOutput) plus the two allocation entry points
// (CreateModelObject, DestroyMemory) a native caller links against, and
// the value-map marshalling between a host's tagged-union map and the
// engine's internal f64/string/struct/array value shape.
//
// Grounded on github.com/funvibe/funxy/internal/modules's plugin-object
// lifecycle pattern (an opaque handle with an identity and a state
// enum, created/destroyed through explicit entry points rather than Go
// GC) and SPEC_FULL.md §4.I's widened description of the same four
// operations.
package host

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/diagnostics"
	"github.com/funvibe/rulejitc/internal/interpreter"
	"github.com/funvibe/rulejitc/internal/metrics"
	"github.com/funvibe/rulejitc/internal/parsecache"
	"github.com/funvibe/rulejitc/internal/rlog"
	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/rulesetxml"
	"github.com/funvibe/rulejitc/internal/token"
)

// discardWriter is Init's logger fallback when the host supplies none;
// it drops every line rather than defaulting to stderr, since a
// library caller that never asked for logging should not get any.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// State names one of the plugin-surface lifecycle states of spec.md
// §6's "State enum".
type State int

const (
	Unspecified State = iota
	Created
	Initialized
	Running
	Stopped
	Destroyed
	Error
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Initialized:
		return "Initialized"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Destroyed:
		return "Destroyed"
	case Error:
		return "Error"
	default:
		return "Unspecified"
	}
}

// ValueMap is the host's recursive tagged-union shape of spec.md §6:
// leaves are float64/string/bool scalars, internal nodes are either
// ValueMap (struct) or []interface{} (sequence).
type ValueMap = map[string]interface{}

// EngineHandle is one rule-engine instance: an opaque plugin object
// wrapping an interpreter.Engine, identified by a UUID the way the
// teacher's module loader tags every loaded module instance.
type EngineHandle struct {
	mu sync.Mutex

	ID    uuid.UUID
	State State

	doc    *ruleset.Document
	engine *interpreter.Engine
	log    *rlog.Logger
	stats  *metrics.Collector

	TicksRun int
	RulesHit int

	lastErr *diagnostics.Diagnostic
}

// registry holds every live handle, keyed by identity, so
// DestroyMemory can validate a pointer the caller hands back instead of
// trusting it blindly.
var (
	registryMu sync.Mutex
	registry   = map[uuid.UUID]*EngineHandle{}
)

// CreateModelObject allocates a new, empty EngineHandle in state
// Created (spec.md §6's plugin surface entry point); Init must be
// called before any Tick.
func CreateModelObject() *EngineHandle {
	h := &EngineHandle{ID: uuid.New(), State: Created}
	registryMu.Lock()
	registry[h.ID] = h
	registryMu.Unlock()
	return h
}

// DestroyMemory marks ptr Destroyed and drops it from the registry, per
// spec.md §6's `DestroyMemory(ptr, isArray)`. Handles are never
// allocated in batches, so isArray drops no entry beyond ptr's own.
func DestroyMemory(ptr *EngineHandle, isArray bool) {
	if ptr == nil {
		return
	}
	ptr.mu.Lock()
	ptr.State = Destroyed
	ptr.mu.Unlock()

	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, ptr.ID)
	if !isArray {
		return
	}
	for id, h := range registry {
		if h == ptr {
			delete(registry, id)
		}
	}
}

// InitConfig bundles everything Init needs to build or load the
// rule-set and wire ambient callbacks: the document source, the engine
// config, and the logger callback the host wants rule-hit/error lines
// delivered to.
type InitConfig struct {
	DocumentXML []byte
	Config      config.Config
	Log         *rlog.Logger

	// Cache, when non-nil and Config.CacheParsedDocuments is set, skips
	// the lex/parse/analyze pipeline for a document whose hash was
	// already seen and previously failed (SPEC_FULL.md §B).
	Cache *parsecache.Cache
}

// Init builds or loads the rule-set, translates it, wires the log
// callback, and sets state Initialized — or, on any failure, logs the
// cause, sets state Error, and returns false, per spec.md §7's
// propagation policy ("no partial state remains; callers may
// re-invoke Init with corrected input").
func (h *EngineHandle) Init(cfg InitConfig) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger := cfg.Log
	if logger == nil {
		logger = rlog.New(discardWriter{})
	}
	h.log = logger.With("engine", h.ID.String())

	var hash string
	useCache := cfg.Config.CacheParsedDocuments && cfg.Cache != nil
	if useCache {
		hash = parsecache.Hash(cfg.DocumentXML)
		if cached, hit, err := cfg.Cache.Lookup(hash); err == nil && hit && !cached.OK {
			h.log.Debugf("parsecache hit (known-bad document, cached %s)", cached.CachedAt)
			return h.fail(diagnostics.New(diagnostics.Kind(cached.DiagnosticKind), "host", cached.DiagnosticText, token.Range{}))
		}
	}

	doc, err := rulesetxml.Decode(bytes.NewReader(cfg.DocumentXML))
	if err != nil {
		d := diagnostics.New(diagnostics.HostError, "host", err.Error(), token.Range{})
		h.storeOutcome(cfg, hash, useCache, false, 0, d)
		return h.fail(d)
	}

	info, ctx, diags := ruleset.Translate(doc)
	if len(diags) > 0 {
		h.storeOutcome(cfg, hash, useCache, false, 0, diags[0])
		return h.fail(diags[0])
	}
	h.storeOutcome(cfg, hash, useCache, true, len(info.SubRuleSets), nil)

	h.doc = doc
	h.engine = interpreter.NewEngine(doc, info, ctx, cfg.Config)
	h.stats = metrics.New()
	h.State = Initialized
	h.lastErr = nil
	h.log.Infof("initialized: %d sub-rule-set(s)", len(info.SubRuleSets))
	return true
}

func (h *EngineHandle) storeOutcome(cfg InitConfig, hash string, useCache bool, ok bool, subRuleSetN int, d *diagnostics.Diagnostic) {
	if !useCache {
		return
	}
	o := parsecache.Outcome{OK: ok, SubRuleSetN: subRuleSetN, CachedAt: time.Now()}
	if d != nil {
		o.DiagnosticKind = string(d.Kind)
		o.DiagnosticText = d.Cause
	}
	if err := cfg.Cache.Store(hash, o); err != nil {
		h.log.Warnf("parsecache: %s", err)
	}
}

// SetInput replaces the engine's input view from a host-shaped value
// map, widening every numeric leaf to f64 and recursing into nested
// maps/sequences per spec.md §6's marshalling rule.
func (h *EngineHandle) SetInput(values ValueMap) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.State != Initialized && h.State != Running && h.State != Stopped {
		return fmt.Errorf("host: SetInput called in state %s", h.State)
	}
	for name, v := range values {
		h.engine.SetInput(name, fromHostValue(v))
	}
	return nil
}

// Tick runs exactly one evaluation cycle and records the rules hit,
// setting state Running on success or Error (with the failure logged)
// otherwise.
func (h *EngineHandle) Tick(dt float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.State != Initialized && h.State != Running && h.State != Stopped {
		return fmt.Errorf("host: Tick called in state %s", h.State)
	}
	if err := h.engine.Tick(); err != nil {
		h.log.Errorf("tick %d failed: %s", h.TicksRun, err)
		h.State = Error
		return err
	}
	h.TicksRun++
	atoms := make([]int, len(h.engine.SubRuleSets))
	for i, sub := range h.engine.SubRuleSets {
		atoms[i] = sub.LastAtom
		if sub.LastAtom >= 0 {
			h.RulesHit++
		}
	}
	h.stats.RecordTick(atoms)
	h.State = Running
	return nil
}

// Stats returns the handle's running tick/rule-hit Collector, or nil if
// Init has not yet run.
func (h *EngineHandle) Stats() *metrics.Collector {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// GetOutput serializes the engine's current output fields, identity,
// and state enum value into a host-shaped value map, per spec.md §4.I's
// `GetOutput() → valueMap*`.
func (h *EngineHandle) GetOutput() ValueMap {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := ValueMap{
		"__id":    h.ID.String(),
		"__state": h.State.String(),
	}
	if h.doc == nil {
		return out
	}
	for _, v := range h.doc.Meta.Outputs {
		val, ok := h.engine.GetOutput(v.Name)
		if !ok {
			continue
		}
		out[v.Name] = toHostValue(val, v.HostKind)
	}
	return out
}

func (h *EngineHandle) fail(d *diagnostics.Diagnostic) bool {
	h.lastErr = d
	h.State = Error
	if h.log != nil {
		h.log.Errorf("init failed: %s", d.Error())
	}
	return false
}

// LastError returns the diagnostic that drove the handle into state
// Error, or nil if it never failed.
func (h *EngineHandle) LastError() *diagnostics.Diagnostic { return h.lastErr }
