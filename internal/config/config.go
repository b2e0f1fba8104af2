// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-autofill/internal/storage"
)

// Environment variables read by FromEnv.
const (
	EnvAPIBaseURL        = "AUTOFILL_API_BASE_URL"
	EnvStateDir          = "AUTOFILL_STATE_DIR"
	EnvSessionBackend    = "AUTOFILL_SESSION_BACKEND"
	EnvLocalBackend      = "AUTOFILL_LOCAL_BACKEND"
	EnvRedisURL          = "REDIS_URL"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvGoogleClientID    = "AUTOFILL_GOOGLE_CLIENT_ID"
	EnvGoogleRedirectURL = "AUTOFILL_GOOGLE_REDIRECT_URL"
	EnvLogFormat         = "AUTOFILL_LOG_FORMAT"
	EnvLogLevel          = "AUTOFILL_LOG_LEVEL"
	EnvAPIRPS            = "AUTOFILL_API_RPS"
	EnvChromePath        = "AUTOFILL_CHROME"
	EnvServeAddr         = "AUTOFILL_SERVE_ADDR"
	EnvServeToken        = "AUTOFILL_SERVE_TOKEN"
)

const (
	DefaultAPIBaseURL = "https://hihired.org"
	DefaultStateDir   = "~/.autofill"
	DefaultLogFormat  = "text"
	DefaultLogLevel   = "info"
	DefaultAPIRPS     = 5.0
	DefaultServeAddr  = "127.0.0.1:8765"

	sessionDBName = "session.db"
	localDBName   = "local.db"
)

// Config represents the CLI configuration that can be loaded from a JSON or
// YAML file. All fields are optional; missing values come from the
// environment or the built-in defaults.
type Config struct {
	// Remote service
	APIBaseURL string  `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty"` // Resume service root
	APIRPS     float64 `json:"api_rps,omitempty" yaml:"api_rps,omitempty"`           // Request rate to the service

	// Storage
	StateDir       string `json:"state_dir,omitempty" yaml:"state_dir,omitempty"`             // Directory holding the sqlite files
	SessionBackend string `json:"session_backend,omitempty" yaml:"session_backend,omitempty"` // sqlite, memory or redis
	LocalBackend   string `json:"local_backend,omitempty" yaml:"local_backend,omitempty"`     // sqlite, memory or postgres
	RedisURL       string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	DatabaseURL    string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL

	// Google sign-in
	GoogleClientID    string `json:"google_client_id,omitempty" yaml:"google_client_id,omitempty"`
	GoogleRedirectURL string `json:"google_redirect_url,omitempty" yaml:"google_redirect_url,omitempty"`

	// Behavior
	LogFormat  string `json:"log_format,omitempty" yaml:"log_format,omitempty"` // text or json
	LogLevel   string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	ChromePath string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"` // Chrome binary for live pages
	NoPDF      bool   `json:"no_pdf,omitempty" yaml:"no_pdf,omitempty"`           // Skip attaching the resume PDF

	// Local command bridge
	ServeAddr  string `json:"serve_addr,omitempty" yaml:"serve_addr,omitempty"`
	ServeToken string `json:"serve_token,omitempty" yaml:"serve_token,omitempty"` // Bearer token for /api routes
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:     DefaultAPIBaseURL,
		APIRPS:         DefaultAPIRPS,
		StateDir:       DefaultStateDir,
		SessionBackend: storage.BackendSQLite,
		LocalBackend:   storage.BackendSQLite,
		LogFormat:      DefaultLogFormat,
		LogLevel:       DefaultLogLevel,
		ServeAddr:      DefaultServeAddr,
	}
}

// FromEnv returns the built-in defaults overridden by the environment.
// Call godotenv.Load first to pick up a .env file.
func FromEnv() (Config, error) {
	cfg := Defaults()
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.APIBaseURL, EnvAPIBaseURL)
	set(&cfg.StateDir, EnvStateDir)
	set(&cfg.SessionBackend, EnvSessionBackend)
	set(&cfg.LocalBackend, EnvLocalBackend)
	set(&cfg.RedisURL, EnvRedisURL)
	set(&cfg.DatabaseURL, EnvDatabaseURL)
	set(&cfg.GoogleClientID, EnvGoogleClientID)
	set(&cfg.GoogleRedirectURL, EnvGoogleRedirectURL)
	set(&cfg.LogFormat, EnvLogFormat)
	set(&cfg.LogLevel, EnvLogLevel)
	set(&cfg.ChromePath, EnvChromePath)
	set(&cfg.ServeAddr, EnvServeAddr)
	set(&cfg.ServeToken, EnvServeToken)

	if v := strings.TrimSpace(os.Getenv(EnvAPIRPS)); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %v", EnvAPIRPS, err)
		}
		cfg.APIRPS = rps
	}
	return cfg, nil
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by the
// file extension. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

var (
	sessionBackends = []string{storage.BackendSQLite, storage.BackendMemory, storage.BackendRedis}
	localBackends   = []string{storage.BackendSQLite, storage.BackendMemory, storage.BackendPostgres}
	logFormats      = []string{"text", "json"}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

// Validate checks that the configuration has valid values. Empty fields
// are accepted since they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	if c.SessionBackend != "" && !oneOf(c.SessionBackend, sessionBackends) {
		return fmt.Errorf("config error: 'session_backend' must be one of %s, got %q", strings.Join(sessionBackends, ", "), c.SessionBackend)
	}
	if c.LocalBackend != "" && !oneOf(c.LocalBackend, localBackends) {
		return fmt.Errorf("config error: 'local_backend' must be one of %s, got %q", strings.Join(localBackends, ", "), c.LocalBackend)
	}
	if c.SessionBackend == storage.BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("config error: 'redis_url' is required for the redis session backend")
	}
	if c.LocalBackend == storage.BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required for the postgres local backend")
	}

	if c.APIRPS < 0 {
		return fmt.Errorf("config error: 'api_rps' must be positive")
	}
	if c.APIBaseURL != "" && !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("config error: 'api_base_url' must be an http(s) URL")
	}

	if c.LogFormat != "" && !oneOf(strings.ToLower(c.LogFormat), logFormats) {
		return fmt.Errorf("config error: 'log_format' must be text or json")
	}
	if c.LogLevel != "" && !oneOf(strings.ToLower(c.LogLevel), logLevels) {
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}

	if c.ServeAddr != "" {
		if _, _, err := net.SplitHostPort(c.ServeAddr); err != nil {
			return fmt.Errorf("config error: 'serve_addr' must be host:port: %v", err)
		}
	}

	if c.ChromePath != "" {
		if _, err := os.Stat(c.ChromePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: chrome binary not found: %s", c.ChromePath)
		}
	}

	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer a config file over the environment.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	str := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	str(&result.APIBaseURL, defaults.APIBaseURL)
	str(&result.StateDir, defaults.StateDir)
	str(&result.SessionBackend, defaults.SessionBackend)
	str(&result.LocalBackend, defaults.LocalBackend)
	str(&result.RedisURL, defaults.RedisURL)
	str(&result.DatabaseURL, defaults.DatabaseURL)
	str(&result.GoogleClientID, defaults.GoogleClientID)
	str(&result.GoogleRedirectURL, defaults.GoogleRedirectURL)
	str(&result.LogFormat, defaults.LogFormat)
	str(&result.LogLevel, defaults.LogLevel)
	str(&result.ChromePath, defaults.ChromePath)
	str(&result.ServeAddr, defaults.ServeAddr)
	str(&result.ServeToken, defaults.ServeToken)

	if result.APIRPS == 0 {
		result.APIRPS = defaults.APIRPS
	}

	// Bools cannot distinguish unset from false: either layer enabling wins.
	result.NoPDF = result.NoPDF || defaults.NoPDF

	return result
}

// ResolveStateDir expands a leading ~ in StateDir.
func (c *Config) ResolveStateDir() (string, error) {
	dir := c.StateDir
	if dir == "" {
		dir = DefaultStateDir
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}

// SessionStore describes the session scope backend.
func (c *Config) SessionStore(stateDir string) storage.Config {
	return storage.Config{
		Backend: c.SessionBackend,
		Path:    filepath.Join(stateDir, sessionDBName),
		URL:     c.RedisURL,
		Scope:   storage.ScopeSession,
	}
}

// LocalStore describes the local scope backend.
func (c *Config) LocalStore(stateDir string) storage.Config {
	return storage.Config{
		Backend: c.LocalBackend,
		Path:    filepath.Join(stateDir, localDBName),
		URL:     c.DatabaseURL,
		Scope:   storage.ScopeLocal,
	}
}
