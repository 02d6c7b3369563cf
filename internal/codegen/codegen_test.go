package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/codegen"
	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/types"
)

// cacheIsolationDoc reproduces spec.md §8's "cache isolation" scenario:
// inputs {}, cache {c: 0.0}, outputs {seen: f64}; tick 1 must read c
// before any sub-rule-set writes it.
func cacheIsolationDoc() *ruleset.Document {
	f64 := types.New(types.F64)
	return &ruleset.Document{
		Meta: ruleset.MetaInfo{
			Caches:  []ruleset.VarInfo{{Name: "c", Type: f64, InitValue: "0"}},
			Outputs: []ruleset.VarInfo{{Name: "seen", Type: f64}},
		},
		SubSets: []ruleset.SubRuleSetDoc{
			{
				Name: "main",
				Rules: []ruleset.Rule{
					{
						Condition: "true",
						Consequences: []ruleset.Consequence{
							{Kind: ruleset.ConsequenceAssign, Target: "seen", Value: "c"},
							{Kind: ruleset.ConsequenceAssign, Target: "c", Value: "c + 10"},
						},
					},
				},
			},
		},
	}
}

func TestGenerateProducesExpectedFiles(t *testing.T) {
	proj, err := codegen.Generate(cacheIsolationDoc(), "example.com/gen")
	require.NoError(t, err)

	assert.Equal(t, "module example.com/gen\n\ngo 1.25.3\n", proj.Files["go.mod"])
	assert.Contains(t, proj.Files, "ruleset/support.go")
	assert.Contains(t, proj.Files, "ruleset/engine.go")
	assert.Contains(t, proj.Files, "main.go")
}

func TestGenerateEmitsOneSubRuleSetPerDocumentEntry(t *testing.T) {
	proj, err := codegen.Generate(cacheIsolationDoc(), "example.com/gen")
	require.NoError(t, err)

	engine := proj.Files["ruleset/engine.go"]
	assert.Contains(t, engine, "type SubRuleSet0 struct")
	assert.Contains(t, engine, "func (s *SubRuleSet0) tick(rh *ResourceHandler) int")
	assert.Contains(t, engine, "func (s *SubRuleSet0) writeBack()")
	assert.Contains(t, engine, "sub0 SubRuleSet0")
}

// The write-back switch must dispatch on the winning atom's own modified
// set, not a union across atoms (spec.md §8's write-back-ordering
// property, generalized to codegen's static dispatch).
func TestWriteBackSwitchesOnAtomIndex(t *testing.T) {
	proj, err := codegen.Generate(cacheIsolationDoc(), "example.com/gen")
	require.NoError(t, err)

	engine := proj.Files["ruleset/engine.go"]
	idx := strings.Index(engine, "func (s *SubRuleSet0) writeBack()")
	require.GreaterOrEqual(t, idx, 0)
	body := engine[idx:]
	assert.Contains(t, body, "case 0:")
	assert.Contains(t, body, `[]string{"c", "seen"}`)
}

func TestPreprocessOrdersIntermediatesTopologically(t *testing.T) {
	f64 := types.New(types.F64)
	doc := &ruleset.Document{
		Meta: ruleset.MetaInfo{
			Caches: []ruleset.VarInfo{
				{Name: "b", Type: f64, Value: "a + 1"},
				{Name: "a", Type: f64, Value: "2"},
			},
		},
	}
	proj, err := codegen.Generate(doc, "example.com/gen")
	require.NoError(t, err)

	engine := proj.Files["ruleset/engine.go"]
	aPos := strings.Index(engine, `rh.Write("a"`)
	bPos := strings.Index(engine, `rh.Write("b"`)
	require.GreaterOrEqual(t, aPos, 0)
	require.GreaterOrEqual(t, bPos, 0)
	assert.Less(t, aPos, bPos, "dependency %q must be assigned before dependent %q", "a", "b")
}

func TestGenerateRejectsUnresolvedFunctionCalls(t *testing.T) {
	f64 := types.New(types.F64)
	doc := &ruleset.Document{
		Meta: ruleset.MetaInfo{Outputs: []ruleset.VarInfo{{Name: "x", Type: f64}}},
		SubSets: []ruleset.SubRuleSetDoc{{
			Name: "main",
			Rules: []ruleset.Rule{{
				Condition: "true",
				Consequences: []ruleset.Consequence{
					{Kind: ruleset.ConsequenceAssign, Target: "x", Value: "userDefinedThing(1)"},
				},
			}},
		}},
	}
	_, err := codegen.Generate(doc, "example.com/gen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userDefinedThing")
}

func TestGenerateSupportsMemberAndIndexAssignment(t *testing.T) {
	f64 := types.New(types.F64)
	arr := types.ArrayOf(f64)
	doc := &ruleset.Document{
		Meta: ruleset.MetaInfo{
			Outputs: []ruleset.VarInfo{{Name: "hits", Type: arr}},
		},
		SubSets: []ruleset.SubRuleSetDoc{{
			Name: "main",
			Rules: []ruleset.Rule{{
				Condition: "true",
				Consequences: []ruleset.Consequence{
					{Kind: ruleset.ConsequenceAssign, Target: "hits[0]", Value: "1"},
				},
			}},
		}},
	}
	proj, err := codegen.Generate(doc, "example.com/gen")
	require.NoError(t, err)
	assert.Contains(t, proj.Files["ruleset/engine.go"], "setPath(rh, \"hits\"")
}
