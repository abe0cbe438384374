package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultTargetSize, config.TargetSize)
	assert.Equal(t, constants.DefaultMinPerSource, config.MinPerSource)
	assert.Equal(t, uint64(constants.DefaultSeed), config.Seed)
	assert.Equal(t, constants.DefaultIDField, config.IDField)
	assert.Equal(t, constants.DefaultSourcePrefix, config.SourcePrefix)
	assert.Equal(t, constants.DefaultSearchBaseURL, config.SearchBaseURL)
	assert.Equal(t, constants.DefaultSearchRate, config.SearchRate)
	assert.NotEmpty(t, config.LogFormat)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CURATOR_TARGET_SIZE", "250")
	t.Setenv("CURATOR_MIN_PER_SOURCE", "5")
	t.Setenv("CURATOR_SEED", "7")
	t.Setenv("CURATOR_ID_FIELD", "art_id")
	t.Setenv("CURATOR_DB_PATH", "runs.db")
	t.Setenv("CURATOR_FORMAT", "yaml")

	config, err := LoadConfig("")
	require.NoError(t, err)

	s := config.Settings()
	assert.Equal(t, 250, s.TargetSize)
	assert.Equal(t, 5, s.MinPerSource)
	assert.Equal(t, uint64(7), s.Seed)
	assert.Equal(t, "art_id", s.IDField)
	assert.Equal(t, "runs.db", s.DBPath)
	assert.Equal(t, "yaml", config.Format)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "curator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_size: 40\nsource_prefix: query_\nsearch_rate: 0.5\n"), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, 40, config.TargetSize)
	assert.Equal(t, "query_", config.SourcePrefix)
	assert.Equal(t, 0.5, config.SearchRate)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		key   string
		value string
	}{
		{"CURATOR_TARGET_SIZE", "0"},
		{"CURATOR_MIN_PER_SOURCE", "-1"},
		{"CURATOR_SEARCH_RATE", "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"default", Config{}, "info"},
		{"explicit", Config{LogLevel: "error", Verbose: true}, "error"},
		{"invalid explicit", Config{LogLevel: "loud"}, "info"},
		{"verbose", Config{Verbose: true, EnvLogLevel: "error"}, "debug"},
		{"quiet", Config{Quiet: true}, "warn"},
		{"verbose and quiet", Config{Verbose: true, Quiet: true}, "warn"},
		{"environment", Config{EnvLogLevel: "trace"}, "trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}
