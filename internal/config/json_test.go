package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, map[string]any{
		"http_addr":                 ":9090",
		"database_dsn":              "tokens.db",
		"upstox_client_id":          "cid",
		"upstox_redirect_uri":       "https://dash.example.com/auth/callback",
		"session_validity_duration": "6h",
		"safety_margin":             "90s",
		"upstream_timeout":          "5s",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJSON(cfg)

		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, "tokens.db", cfg.DatabaseDSN)
		assert.Equal(t, "cid", cfg.UpstoxClientID)
		assert.Equal(t, "https://dash.example.com/auth/callback", cfg.UpstoxRedirectURI)
		assert.Equal(t, 6*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, 90*time.Second, cfg.SafetyMargin)
		assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	})

	t.Run("no config flag leaves values alone", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			HTTPAddr:     ":8080",
			DatabaseDSN:  "tradeauth.db",
			SafetyMargin: time.Minute,
		}
		parseJSON(cfg)

		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "tradeauth.db", cfg.DatabaseDSN)
		assert.Equal(t, time.Minute, cfg.SafetyMargin)
	})

	t.Run("absent fields do not clobber", func(t *testing.T) {
		partial := writeTempJSON(t, t.TempDir(), map[string]any{
			"http_addr": ":7070",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJSON(cfg)

		assert.Equal(t, ":7070", cfg.HTTPAddr)
		assert.Equal(t, "tradeauth.db", cfg.DatabaseDSN)
		assert.Equal(t, 60*time.Second, cfg.SafetyMargin)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJSON(cfg) })
	})
}

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-a", ":7070", "-d", "other.db", "-m", "120"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "other.db", cfg.DatabaseDSN)
	assert.Equal(t, 120*time.Second, cfg.SafetyMargin)
	// not flag-settable
	assert.Equal(t, "secretKey", cfg.SessionSecret)
}
