// Package interpreter implements the tree-walking back end of spec.md
// §4.G: a DataStore of canonical input/cache/output value maps, one
// ResourceHandler + Interpreter pair per SubRuleSet doing copy-on-read
// cache staging, and an Engine.Tick driving preprocess then every
// sub-rule-set against a shared pre-tick snapshot (§5's cache-isolation
// contract).
//
// Grounded on original_source/src/backend/cq's cqresourcehandler.h
// buffer/bufferMap/relation triple (SPEC_FULL.md §D.3), translated from
// a manually-managed side buffer into Go maps: Go's GC removes the need
// for cqresourcehandler's Token-indexed arena, so RuntimeValue is held
// directly by name rather than through a synthetic buffer index — the
// copy-on-read and write-back *semantics* are kept exactly, only the
// storage mechanism is native Go (see DESIGN.md).
package interpreter

import "fmt"

// RuntimeValue is one of: float64 (f64/bool), string, map[string]RuntimeValue
// (struct), or []RuntimeValue (array).
type RuntimeValue interface{}

func zeroFor(kind string) RuntimeValue {
	switch kind {
	case "string":
		return ""
	case "struct":
		return map[string]RuntimeValue{}
	case "array":
		return []RuntimeValue{}
	default:
		return 0.0
	}
}

func asFloat(v RuntimeValue) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func truthy(v RuntimeValue) bool {
	f, ok := asFloat(v)
	return ok && f != 0
}

func deepCopy(v RuntimeValue) RuntimeValue {
	switch t := v.(type) {
	case map[string]RuntimeValue:
		out := make(map[string]RuntimeValue, len(t))
		for k, x := range t {
			out[k] = deepCopy(x)
		}
		return out
	case []RuntimeValue:
		out := make([]RuntimeValue, len(t))
		for i, x := range t {
			out[i] = deepCopy(x)
		}
		return out
	default:
		return v
	}
}

func (e *Engine) describe(v RuntimeValue) string {
	return fmt.Sprintf("%v", v)
}
