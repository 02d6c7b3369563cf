package interpreter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/interpreter"
	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/rulesetxml"
)

const counterDoc = `<RuleSet version="1">
  <Types/>
  <MetaInfo>
    <Inputs><Var name="x" type="f64"/></Inputs>
    <Caches/>
    <Outputs><Var name="seen" type="f64"/><Var name="total" type="f64"/></Outputs>
  </MetaInfo>
  <SubRuleSets>
    <SubRuleSet name="main">
      <Rule>
        <Condition>true</Condition>
        <Consequence>
          <Action target="seen" value="x"/>
          <Action target="total" value="total + x"/>
        </Consequence>
      </Rule>
    </SubRuleSet>
  </SubRuleSets>
</RuleSet>`

func buildEngine(t *testing.T) *interpreter.Engine {
	t.Helper()
	doc, err := rulesetxml.Decode(strings.NewReader(counterDoc))
	require.NoError(t, err)
	info, ctx, diags := ruleset.Translate(doc)
	require.Empty(t, diags)
	return interpreter.NewEngine(doc, info, ctx, config.Default())
}

func TestTickAccumulatesOutputAcrossTicks(t *testing.T) {
	eng := buildEngine(t)
	eng.SetInput("x", 2.0)
	require.NoError(t, eng.Tick())

	seen, ok := eng.GetOutput("seen")
	require.True(t, ok)
	assert.Equal(t, 2.0, seen)

	total, ok := eng.GetOutput("total")
	require.True(t, ok)
	assert.Equal(t, 2.0, total)

	eng.SetInput("x", 3.0)
	require.NoError(t, eng.Tick())
	total, ok = eng.GetOutput("total")
	require.True(t, ok)
	assert.Equal(t, 5.0, total, "output field must persist and accumulate across ticks")
}

func TestGetOutputUnknownNameReturnsFalse(t *testing.T) {
	eng := buildEngine(t)
	_, ok := eng.GetOutput("does-not-exist")
	assert.False(t, ok)
}

func TestSubRuleSetRecordsLastAtom(t *testing.T) {
	eng := buildEngine(t)
	eng.SetInput("x", 1.0)
	require.NoError(t, eng.Tick())
	require.Len(t, eng.SubRuleSets, 1)
	assert.GreaterOrEqual(t, eng.SubRuleSets[0].LastAtom, 0)
}
