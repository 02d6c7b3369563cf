package parsecache_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/parsecache"
)

func TestStoreThenLookupRoundTrips(t *testing.T) {
	c, err := parsecache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	hash := parsecache.Hash([]byte("<RuleSet/>"))
	_, hit, err := c.Lookup(hash)
	require.NoError(t, err)
	assert.False(t, hit, "a fresh cache must not already contain the hash")

	want := parsecache.Outcome{OK: true, SubRuleSetN: 2, CachedAt: time.Now().Truncate(time.Second)}
	require.NoError(t, c.Store(hash, want))

	got, hit, err := c.Lookup(hash)
	require.NoError(t, err)
	require.True(t, hit)
	assert.True(t, got.OK)
	assert.Equal(t, 2, got.SubRuleSetN)
}

func TestStoreOverwritesPriorOutcome(t *testing.T) {
	c, err := parsecache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	hash := parsecache.Hash([]byte("doc"))
	require.NoError(t, c.Store(hash, parsecache.Outcome{OK: false, DiagnosticKind: "ParseError", DiagnosticText: "boom"}))
	require.NoError(t, c.Store(hash, parsecache.Outcome{OK: true, SubRuleSetN: 1}))

	got, hit, err := c.Lookup(hash)
	require.NoError(t, err)
	require.True(t, hit)
	assert.True(t, got.OK)
	assert.Equal(t, 1, got.SubRuleSetN)
}

func TestHashIsStableAndContentSensitive(t *testing.T) {
	a := parsecache.Hash([]byte("one"))
	b := parsecache.Hash([]byte("one"))
	c := parsecache.Hash([]byte("two"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
