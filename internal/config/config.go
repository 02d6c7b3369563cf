// Package config generalizes github.com/funvibe/funxy/internal/config's
// package-global test/LSP-mode toggles into an explicit Config struct
// threaded through the pipeline, per SPEC_FULL.md §A. One boolean
// global is kept package-level, mirroring the teacher's own
// IsTestMode/IsLSPMode pattern, because they exist purely to make
// output deterministic across test and production runs, not to carry
// per-instance state.
package config

import "gopkg.in/yaml.v3"

// StrictArithmetic, when true, makes division by zero in user rule code
// a RuntimeError instead of producing 0; mirrors the teacher's
// IsTestMode toggle in spirit (package-global, flipped by test setup).
var StrictArithmetic = false

// Config holds the per-engine-instance ambient settings loaded at Init
// (spec.md §4.I), read from YAML.
type Config struct {
	// MaxRecursionDepth bounds user-function call nesting (the "only
	// guard" against runaway recursion named in spec.md §5).
	MaxRecursionDepth int `yaml:"max_recursion_depth"`
	// DivisionByZeroFails selects the RuntimeError policy named in
	// spec.md §7 ("implementation choice").
	DivisionByZeroFails bool `yaml:"division_by_zero_fails"`
	// Verbose gates per-tick rule-hit summaries (SPEC_FULL.md §A Logging).
	Verbose bool `yaml:"verbose"`
	// CacheParsedDocuments enables the SQLite-backed translator cache of
	// SPEC_FULL.md §B.
	CacheParsedDocuments bool   `yaml:"cache_parsed_documents"`
	CacheDBPath          string `yaml:"cache_db_path"`
}

// Default returns the engine's out-of-the-box configuration.
func Default() Config {
	return Config{
		MaxRecursionDepth:   256,
		DivisionByZeroFails: false,
		Verbose:             false,
		CacheParsedDocuments: false,
		CacheDBPath:          "",
	}
}

// Load decodes a YAML-encoded Config, filling any absent field with its
// Default() value.
func Load(data []byte) (Config, error) {
	c := Default()
	if len(data) == 0 {
		return c, nil
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
