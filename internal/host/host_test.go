package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/host"
)

const counterDoc = `<RuleSet version="1">
  <MetaInfo>
    <Inputs>
      <Var name="x" type="f64"/>
    </Inputs>
    <Caches>
      <Var name="total" type="f64" InitValue="0"/>
    </Caches>
    <Outputs>
      <Var name="seen" type="f64"/>
    </Outputs>
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

func TestLifecycleHappyPath(t *testing.T) {
	h := host.CreateModelObject()
	assert.Equal(t, host.Created, h.State)

	ok := h.Init(host.InitConfig{DocumentXML: []byte(counterDoc), Config: config.Default()})
	require.True(t, ok, "Init should succeed on a well-formed document")
	assert.Equal(t, host.Initialized, h.State)

	require.NoError(t, h.SetInput(host.ValueMap{"x": 4.0}))
	require.NoError(t, h.Tick(1.0))
	assert.Equal(t, host.Running, h.State)

	out := h.GetOutput()
	assert.Equal(t, 4.0, out["seen"])
	assert.Equal(t, h.ID.String(), out["__id"])
	assert.Equal(t, "Running", out["__state"])

	host.DestroyMemory(h, false)
}

func TestInitFailureSetsErrorState(t *testing.T) {
	h := host.CreateModelObject()
	ok := h.Init(host.InitConfig{DocumentXML: []byte("not xml at all <<<"), Config: config.Default()})
	assert.False(t, ok)
	assert.Equal(t, host.Error, h.State)
	require.NotNil(t, h.LastError())
}

func TestSetInputBeforeInitIsRejected(t *testing.T) {
	h := host.CreateModelObject()
	err := h.SetInput(host.ValueMap{"x": 1.0})
	assert.Error(t, err)
}

func TestNumericOutputWithoutHostKindStaysF64(t *testing.T) {
	h := host.CreateModelObject()
	require.True(t, h.Init(host.InitConfig{DocumentXML: []byte(counterDoc), Config: config.Default()}))
	require.NoError(t, h.SetInput(host.ValueMap{"x": 3.7}))
	require.NoError(t, h.Tick(1.0))
	out := h.GetOutput()
	// seen has no declared HostKind in this fixture, so it stays f64.
	assert.Equal(t, 3.7, out["seen"])
}
