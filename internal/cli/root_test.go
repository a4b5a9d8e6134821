package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/db/memory"
	"github.com/AI2HU/satlens/internal/db/sqlite"
)

func TestNewKVStore(t *testing.T) {
	t.Parallel()

	kv, err := newKVStore(config.DatabaseConfig{Provider: "memory", Options: map[string]string{"max_bytes": "1024"}})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, kv)

	kv, err = newKVStore(config.DatabaseConfig{Provider: "sqlite", URI: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SQLite{}, kv)

	_, err = newKVStore(config.DatabaseConfig{Provider: "memory", Options: map[string]string{"max_bytes": "-1"}})
	assert.Error(t, err)

	_, err = newKVStore(config.DatabaseConfig{Provider: "redis"})
	assert.Error(t, err)
}

func TestModelConfig(t *testing.T) {
	t.Parallel()

	got := modelConfig(config.DatabaseConfig{Provider: "mongodb", URI: "mongodb://db:27017", Database: "satlens"})
	assert.Equal(t, "mongodb", got.Provider)
	assert.Equal(t, "mongodb://db:27017", got.URI)
	assert.Equal(t, "satlens", got.Database)
}

func TestCommandsRegistered(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "api", "run", "scheduler", "stats", "cache", "project", "health", "migrate"} {
		assert.True(t, names[want], want)
	}
}
