package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"api_base_url": "https://staging.example.com",
		"session_backend": "memory",
		"api_rps": 2.5,
		"no_pdf": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://staging.example.com", cfg.APIBaseURL)
	assert.Equal(t, storage.BackendMemory, cfg.SessionBackend)
	assert.Equal(t, 2.5, cfg.APIRPS)
	assert.True(t, cfg.NoPDF)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api_base_url: https://staging.example.com
local_backend: postgres
database_url: postgres://localhost/autofill
log_format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.APIBaseURL)
	assert.Equal(t, storage.BackendPostgres, cfg.LocalBackend)
	assert.Equal(t, "postgres://localhost/autofill", cfg.DatabaseURL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "api_rps: [not, a, number")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "http://localhost:8080")
	t.Setenv(EnvSessionBackend, "redis")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvAPIRPS, "10")
	t.Setenv(EnvServeToken, "bridge-secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "bridge-secret", cfg.ServeToken)
	assert.Equal(t, DefaultServeAddr, cfg.ServeAddr)

	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, storage.BackendRedis, cfg.SessionBackend)
	assert.Equal(t, storage.BackendSQLite, cfg.LocalBackend)
	assert.Equal(t, 10.0, cfg.APIRPS)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestFromEnv_InvalidRate(t *testing.T) {
	t.Setenv(EnvAPIRPS, "fast")

	_, err := FromEnv()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvAPIRPS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Defaults(), ""},
		{"empty", Config{}, ""},
		{"unknown session backend", Config{SessionBackend: "postgres"}, "session_backend"},
		{"unknown local backend", Config{LocalBackend: "redis"}, "local_backend"},
		{"redis without url", Config{SessionBackend: "redis"}, "redis_url"},
		{"postgres without url", Config{LocalBackend: "postgres"}, "database_url"},
		{"negative rate", Config{APIRPS: -1}, "api_rps"},
		{"bad base url", Config{APIBaseURL: "hihired.org"}, "api_base_url"},
		{"bad log format", Config{LogFormat: "xml"}, "log_format"},
		{"bad log level", Config{LogLevel: "loud"}, "log_level"},
		{"bad serve addr", Config{ServeAddr: "8765"}, "serve_addr"},
		{"missing chrome", Config{ChromePath: "/nonexistent/chrome"}, "chrome binary not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Defaults()
	defaults.GoogleClientID = "env-client"

	partial := Config{
		APIBaseURL:   "https://staging.example.com",
		LocalBackend: storage.BackendMemory,
		NoPDF:        true,
	}

	merged := partial.MergeWithDefaults(defaults)

	// File values should be preserved
	assert.Equal(t, "https://staging.example.com", merged.APIBaseURL)
	assert.Equal(t, storage.BackendMemory, merged.LocalBackend)
	assert.True(t, merged.NoPDF)

	// Default values should fill in empty fields
	assert.Equal(t, storage.BackendSQLite, merged.SessionBackend)
	assert.Equal(t, "env-client", merged.GoogleClientID)
	assert.Equal(t, DefaultAPIRPS, merged.APIRPS)
	assert.Equal(t, DefaultStateDir, merged.StateDir)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{APIBaseURL: "https://staging.example.com"}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "https://staging.example.com", merged.APIBaseURL)
	assert.Empty(t, merged.SessionBackend)
}

func TestStores(t *testing.T) {
	cfg := Defaults()
	cfg.RedisURL = "redis://localhost:6379/0"
	cfg.DatabaseURL = "postgres://localhost/autofill"

	session := cfg.SessionStore("/tmp/state")
	assert.Equal(t, storage.ScopeSession, session.Scope)
	assert.Equal(t, filepath.Join("/tmp/state", "session.db"), session.Path)
	assert.Equal(t, cfg.RedisURL, session.URL)

	local := cfg.LocalStore("/tmp/state")
	assert.Equal(t, storage.ScopeLocal, local.Scope)
	assert.Equal(t, filepath.Join("/tmp/state", "local.db"), local.Path)
	assert.Equal(t, cfg.DatabaseURL, local.URL)
}

func TestResolveStateDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := Config{StateDir: "~/.autofill"}
	dir, err := cfg.ResolveStateDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".autofill"), dir)

	cfg.StateDir = "/var/lib/autofill"
	dir, err = cfg.ResolveStateDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/autofill", dir)
}
