package host

import "github.com/funvibe/rulejitc/internal/interpreter"

// fromHostValue widens a host-supplied ValueMap leaf into the engine's
// internal RuntimeValue shape, per spec.md §6: every numeric host type
// (int, int8..int64, uint.., float32) widens to f64; nested maps/slices
// recurse structurally.
func fromHostValue(v interface{}) interpreter.RuntimeValue {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interpreter.RuntimeValue, len(t))
		for k, x := range t {
			out[k] = fromHostValue(x)
		}
		return out
	case []interface{}:
		out := make([]interpreter.RuntimeValue, len(t))
		for i, x := range t {
			out[i] = fromHostValue(x)
		}
		return out
	case string:
		return t
	case bool:
		return boolToF64(t)
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return 0.0
	}
}

func boolToF64(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// toHostValue narrows an engine RuntimeValue back to a host-shaped
// leaf, applying numeric narrowing to hostKind when the field declared
// one: narrowing is lossy by design (spec.md §6's "numeric narrowing on
// output is lossy to the host's declared variable type").
func toHostValue(v interpreter.RuntimeValue, hostKind string) interface{} {
	switch t := v.(type) {
	case map[string]interpreter.RuntimeValue:
		out := make(map[string]interface{}, len(t))
		for k, x := range t {
			out[k] = toHostValue(x, "")
		}
		return out
	case []interpreter.RuntimeValue:
		out := make([]interface{}, len(t))
		for i, x := range t {
			out[i] = toHostValue(x, "")
		}
		return out
	case string:
		return t
	case float64:
		return narrowNumeric(t, hostKind)
	default:
		return t
	}
}

// narrowNumeric casts f to the declared host primitive kind, per
// SPEC_FULL.md §C.5's host-declared-width narrowing rule.
func narrowNumeric(f float64, hostKind string) interface{} {
	switch hostKind {
	case "int8":
		return int8(f)
	case "int16":
		return int16(f)
	case "int32":
		return int32(f)
	case "int64":
		return int64(f)
	case "uint8":
		return uint8(f)
	case "uint16":
		return uint16(f)
	case "uint32":
		return uint32(f)
	case "uint64":
		return uint64(f)
	case "float32":
		return float32(f)
	case "bool":
		return f != 0
	default:
		return f
	}
}
