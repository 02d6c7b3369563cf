package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/rulejitc/internal/config"
)

func TestDefaultValues(t *testing.T) {
	c := config.Default()
	assert.Equal(t, 256, c.MaxRecursionDepth)
	assert.False(t, c.DivisionByZeroFails)
	assert.False(t, c.Verbose)
	assert.False(t, c.CacheParsedDocuments)
	assert.Equal(t, "", c.CacheDBPath)
}

func TestLoadEmptyDataReturnsDefault(t *testing.T) {
	c, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestLoadFillsOnlyProvidedFields(t *testing.T) {
	c, err := config.Load([]byte("verbose: true\nmax_recursion_depth: 64\n"))
	require.NoError(t, err)
	assert.True(t, c.Verbose)
	assert.Equal(t, 64, c.MaxRecursionDepth)
	assert.False(t, c.DivisionByZeroFails, "fields absent from the YAML keep their Default() value")
}

func TestLoadMalformedYAMLErrors(t *testing.T) {
	_, err := config.Load([]byte("verbose: [unterminated"))
	require.Error(t, err)
}

func TestLoadCacheSettings(t *testing.T) {
	c, err := config.Load([]byte("cache_parsed_documents: true\ncache_db_path: /tmp/rulejitc.db\n"))
	require.NoError(t, err)
	assert.True(t, c.CacheParsedDocuments)
	assert.Equal(t, "/tmp/rulejitc.db", c.CacheDBPath)
}
