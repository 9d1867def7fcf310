package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listing-api/mls"
)

func TestLoadDefaultsWithoutEnvFile(t *testing.T) {
	t.Setenv("MLS_API_TOKEN", "")
	t.Setenv("MLS_BASE_URL", "")
	t.Setenv("MLS_MAX_RETRIES", "")
	t.Setenv("LOG_ADD_SOURCE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.MLS.Token)
	assert.Equal(t, mls.DefaultBaseURL, cfg.MLS.BaseURL)
	assert.Equal(t, 3, cfg.MLS.MaxRetries)
	assert.Equal(t, time.Second, cfg.MLS.RetryBaseDelay)
	assert.Equal(t, 10*time.Second, cfg.MLS.RetryMaxDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.AddSource)
}

func TestLoadReadsEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set
	for _, k := range []string{"MLS_API_TOKEN", "MLS_MAX_RETRIES", "MLS_RETRY_BASE_DELAY", "MLS_RATE_LIMIT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MLS_API_TOKEN=tok\nMLS_MAX_RETRIES=5\nMLS_RETRY_BASE_DELAY=200ms\nMLS_RATE_LIMIT=4\n"), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"MLS_API_TOKEN", "MLS_MAX_RETRIES", "MLS_RETRY_BASE_DELAY", "MLS_RATE_LIMIT"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.MLS.Token)
	r := cfg.MLS.Retry()
	assert.Equal(t, 5, r.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, r.BaseDelay)
	assert.Equal(t, 4.0, r.RequestsPerSecond)
}

func TestLoadRejectsInvertedDelays(t *testing.T) {
	t.Setenv("MLS_RETRY_BASE_DELAY", "5s")
	t.Setenv("MLS_RETRY_MAX_DELAY", "1s")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadLogAddSource(t *testing.T) {
	t.Setenv("LOG_ADD_SOURCE", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.True(t, cfg.Log.AddSource)
	assert.Equal(t, "json", cfg.Log.Format)
}
