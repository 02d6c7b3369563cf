package ruleset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/types"
)

func simpleDoc() *ruleset.Document {
	return &ruleset.Document{
		Version: "1",
		Meta: ruleset.MetaInfo{
			Inputs:  []ruleset.VarInfo{{Name: "x", Type: types.New(types.F64)}},
			Outputs: []ruleset.VarInfo{{Name: "seen", Type: types.New(types.F64)}},
		},
		SubSets: []ruleset.SubRuleSetDoc{{
			Name: "main",
			Rules: []ruleset.Rule{{
				Condition: "true",
				Consequences: []ruleset.Consequence{
					{Kind: ruleset.ConsequenceAssign, Target: "seen", Value: "x"},
				},
			}},
		}},
	}
}

func TestTranslateProducesSubRuleSetInfo(t *testing.T) {
	info, ctx, diags := ruleset.Translate(simpleDoc())
	require.Empty(t, diags)
	require.NotNil(t, ctx)
	require.Len(t, info.SubRuleSets, 1)
	assert.Equal(t, "main", info.SubRuleSets[0].Name)
	assert.NotEmpty(t, info.SubRuleSets[0].Mangled)
	require.Len(t, info.SubRuleSets[0].AtomModifiedVars, 1)
	assert.Equal(t, []string{"seen"}, info.SubRuleSets[0].AtomModifiedVars[0])
}

func TestTranslateReportsBadConditionExpression(t *testing.T) {
	doc := simpleDoc()
	doc.SubSets[0].Rules[0].Condition = "x +"
	_, _, diags := ruleset.Translate(doc)
	require.NotEmpty(t, diags)
}

func TestTranslateOperationConsequenceRendersAsFunctionCall(t *testing.T) {
	doc := simpleDoc()
	doc.Meta.Outputs = append(doc.Meta.Outputs, ruleset.VarInfo{Name: "hits", Type: types.New(types.F64)})
	doc.SubSets[0].Rules[0].Consequences = append(doc.SubSets[0].Rules[0].Consequences,
		ruleset.Consequence{Kind: ruleset.ConsequenceOperation, Target: "hits", Op: "sqrt", Args: nil})
	_, _, diags := ruleset.Translate(doc)
	require.Empty(t, diags, "sqrt(hits) resolves through the ordinary builtin function lookup")
}

func TestTranslateUnknownOperationIsTypeError(t *testing.T) {
	doc := simpleDoc()
	doc.SubSets[0].Rules[0].Consequences = append(doc.SubSets[0].Rules[0].Consequences,
		ruleset.Consequence{Kind: ruleset.ConsequenceOperation, Target: "seen", Op: "bogusOp", Args: nil})
	_, _, diags := ruleset.Translate(doc)
	require.NotEmpty(t, diags)
}

func TestAllVarsOrdersInputsThenCachesThenOutputs(t *testing.T) {
	doc := &ruleset.Document{
		Meta: ruleset.MetaInfo{
			Inputs:  []ruleset.VarInfo{{Name: "i"}},
			Caches:  []ruleset.VarInfo{{Name: "c"}},
			Outputs: []ruleset.VarInfo{{Name: "o"}},
		},
	}
	all := doc.AllVars()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"i", "c", "o"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestOrderIntermediatesTopologicallySortsDependencies(t *testing.T) {
	doc := &ruleset.Document{
		Meta: ruleset.MetaInfo{
			Outputs: []ruleset.VarInfo{
				{Name: "b", Type: types.New(types.F64), Value: "a + 1"},
				{Name: "a", Type: types.New(types.F64), Value: "1"},
			},
		},
	}
	order, values, err := ruleset.OrderIntermediates(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, "a + 1", values["b"])
}

func TestOrderIntermediatesDetectsCycle(t *testing.T) {
	doc := &ruleset.Document{
		Meta: ruleset.MetaInfo{
			Outputs: []ruleset.VarInfo{
				{Name: "a", Type: types.New(types.F64), Value: "b + 1"},
				{Name: "b", Type: types.New(types.F64), Value: "a + 1"},
			},
		},
	}
	_, _, err := ruleset.OrderIntermediates(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic")
}
