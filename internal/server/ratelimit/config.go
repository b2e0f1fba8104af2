package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by LoadConfig.
const (
	EnvEnabled       = "AUTOFILL_RATE_LIMIT_ENABLED"
	EnvDefaultLimit  = "AUTOFILL_RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow = "AUTOFILL_RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanup       = "AUTOFILL_RATE_LIMIT_CLEANUP_INTERVAL"
	EnvAllowlist     = "AUTOFILL_RATE_LIMIT_ALLOWLIST"
	EnvBlocklist     = "AUTOFILL_RATE_LIMIT_BLOCKLIST"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTimeout     time.Duration // Buckets unused this long are dropped
	Allowlist       map[string]bool
	Blocklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		Allowlist:       make(map[string]bool),
		Blocklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !getEnvBool(EnvEnabled, true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig()
	cfg.DefaultLimit = getEnvInt(EnvDefaultLimit, cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration(EnvDefaultWindow, cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration(EnvCleanup, cfg.CleanupInterval)
	cfg.Allowlist = parseIPList(os.Getenv(EnvAllowlist))
	cfg.Blocklist = parseIPList(os.Getenv(EnvBlocklist))
	return cfg
}

// DefaultEndpointConfigs returns the per-endpoint limits of the command bridge.
// Commands reach the resume service, so they get the tightest limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/command", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/status", Method: http.MethodGet, Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/preferences/", Method: http.MethodPut, Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
