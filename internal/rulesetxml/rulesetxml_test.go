package rulesetxml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/ruleset"
	"github.com/funvibe/rulejitc/internal/rulesetxml"
	"github.com/funvibe/rulejitc/internal/types"
)

const fullDoc = `<RuleSet version="2">
  <TypeDefines>
    <Type name="Vec">
      <Member name="x" type="f64"/>
      <Member name="y" type="f64"/>
    </Type>
  </TypeDefines>
  <MetaInfo>
    <Inputs><Var name="speed" type="f64"/></Inputs>
    <Caches><Var name="total" type="f64" InitValue="0"/></Caches>
    <Outputs><Var name="flag" type="bool" Value="speed &gt; 10"/></Outputs>
  </MetaInfo>
  <SubRuleSets>
    <SubRuleSet name="main">
      <Rule>
        <Condition>speed &gt; 0</Condition>
        <Consequence>
          <Action target="total" value="total + speed"/>
          <Action target="flag" op="setTrue" args="1,2"/>
        </Consequence>
      </Rule>
    </SubRuleSet>
  </SubRuleSets>
</RuleSet>`

func TestDecodeFullDocument(t *testing.T) {
	doc, err := rulesetxml.Decode(strings.NewReader(fullDoc))
	require.NoError(t, err)

	assert.Equal(t, "2", doc.Version)
	require.Len(t, doc.Types, 1)
	assert.Equal(t, "Vec", doc.Types[0].Name)
	require.Len(t, doc.Types[0].Members, 2)
	assert.Equal(t, types.New(types.F64), doc.Types[0].Members[0].Type)

	require.Len(t, doc.Meta.Inputs, 1)
	assert.Equal(t, "speed", doc.Meta.Inputs[0].Name)

	require.Len(t, doc.Meta.Caches, 1)
	assert.Equal(t, "0", doc.Meta.Caches[0].InitValue)

	require.Len(t, doc.Meta.Outputs, 1)
	assert.Equal(t, "speed > 10", doc.Meta.Outputs[0].Value)

	require.Len(t, doc.SubSets, 1)
	rule := doc.SubSets[0].Rules[0]
	assert.Equal(t, "speed > 0", rule.Condition)
	require.Len(t, rule.Consequences, 2)

	assign := rule.Consequences[0]
	assert.Equal(t, ruleset.ConsequenceAssign, assign.Kind)
	assert.Equal(t, "total + speed", assign.Value)

	op := rule.Consequences[1]
	assert.Equal(t, ruleset.ConsequenceOperation, op.Kind)
	assert.Equal(t, "setTrue", op.Op)
	assert.Equal(t, []string{"1", "2"}, op.Args)
}

func TestDecodeDefaultsMissingTypeAttrToF64(t *testing.T) {
	const doc = `<RuleSet version="1">
  <MetaInfo><Inputs><Var name="x"/></Inputs></MetaInfo>
</RuleSet>`
	d, err := rulesetxml.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, d.Meta.Inputs, 1)
	assert.Equal(t, types.New(types.F64), d.Meta.Inputs[0].Type)
}

func TestDecodeMalformedXMLReturnsTranslatorError(t *testing.T) {
	_, err := rulesetxml.Decode(strings.NewReader("<RuleSet version=\"1\">"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed document")
}

func TestDecodeInvalidMemberTypeAttrReturnsError(t *testing.T) {
	const doc = `<RuleSet version="1">
  <TypeDefines><Type name="Bad"><Member name="x" type="func(f64"/></Type></TypeDefines>
</RuleSet>`
	_, err := rulesetxml.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestSplitArgsIsDepthAware(t *testing.T) {
	const doc = `<RuleSet version="1">
  <MetaInfo><Outputs><Var name="o" type="f64"/></Outputs></MetaInfo>
  <SubRuleSets><SubRuleSet name="s"><Rule>
    <Condition>true</Condition>
    <Consequence><Action target="o" op="call" args="f(1,2),3"/></Consequence>
  </Rule></SubRuleSet></SubRuleSets>
</RuleSet>`
	d, err := rulesetxml.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	args := d.SubSets[0].Rules[0].Consequences[0].Args
	assert.Equal(t, []string{"f(1,2)", "3"}, args)
}
