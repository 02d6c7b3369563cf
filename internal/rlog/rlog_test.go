package rlog_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/funvibe/rulejitc/internal/rlog"
)

func TestDefaultMinLevelSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := rlog.New(&buf)
	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Infof("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "[INFO]")
}

func TestNonTerminalWriterDisablesColor(t *testing.T) {
	var buf bytes.Buffer
	l := rlog.New(&buf)
	l.Warnf("plain")
	assert.NotContains(t, buf.String(), "\033[")
}

func TestWithAppendsFieldsWithoutMutatingParent(t *testing.T) {
	var buf bytes.Buffer
	base := rlog.New(&buf)
	tagged := base.With("engine", "e1")

	tagged.Infof("hello")
	assert.Contains(t, buf.String(), "engine=e1")

	buf.Reset()
	base.Infof("bare")
	assert.NotContains(t, buf.String(), "engine=e1")
}

func TestLevelStringNames(t *testing.T) {
	assert.Equal(t, "DEBUG", rlog.Debug.String())
	assert.Equal(t, "INFO", rlog.Info.String())
	assert.Equal(t, "WARN", rlog.Warn.String())
	assert.Equal(t, "ERROR", rlog.Error.String())
}
