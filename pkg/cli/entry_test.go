package cli_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/pkg/cli"
)

const counterDoc = `<RuleSet version="1">
  <MetaInfo>
    <Inputs><Var name="x" type="f64"/></Inputs>
    <Outputs><Var name="seen" type="f64"/></Outputs>
  </MetaInfo>
  <SubRuleSets>
    <SubRuleSet name="main">
      <Rule>
        <Condition>true</Condition>
        <Consequence><Action target="seen" value="x"/></Consequence>
      </Rule>
    </SubRuleSet>
  </SubRuleSets>
</RuleSet>`

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunWithNoArgsPrintsUsageAndFails(t *testing.T) {
	code := captureExit(t, func() int { return cli.Run([]string{"rulejitc"}) })
	assert.Equal(t, 1, code)
}

func TestRunHelpReturnsZero(t *testing.T) {
	code := captureExit(t, func() int { return cli.Run([]string{"rulejitc", "help"}) })
	assert.Equal(t, 0, code)
}

func TestRunUnknownCommandFails(t *testing.T) {
	code := captureExit(t, func() int { return cli.Run([]string{"rulejitc", "bogus"}) })
	assert.Equal(t, 1, code)
}

func TestRunCheckMissingFileFails(t *testing.T) {
	code := cli.Run([]string{"rulejitc", "check", "/no/such/file.xml"})
	assert.Equal(t, 1, code)
}

func TestRunCheckValidDocumentSucceeds(t *testing.T) {
	path := writeDoc(t, counterDoc)
	var code int
	out := captureStdout(t, func() {
		code = cli.Run([]string{"rulejitc", "check", path})
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "OK: 1 sub-rule-set(s)")
	assert.Contains(t, out, "main ->")
}

func TestRunTickValidDocumentPrintsOutputs(t *testing.T) {
	path := writeDoc(t, counterDoc)
	var code int
	out := captureStdout(t, func() {
		code = cli.Run([]string{"rulejitc", "run", path, "--set", "x=7"})
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "seen = 7")
}

func TestRunTickInvalidTicksValueFails(t *testing.T) {
	path := writeDoc(t, counterDoc)
	code := cli.Run([]string{"rulejitc", "run", path, "--ticks", "notanumber"})
	assert.Equal(t, 1, code)
}

// captureExit swallows any stdout produced by fn, since these cases only
// assert on the exit code.
func captureExit(t *testing.T, fn func() int) int {
	t.Helper()
	var code int
	captureStdout(t, func() { code = fn() })
	return code
}
