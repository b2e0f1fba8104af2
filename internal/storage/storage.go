// Package storage provides the key/value scopes the autofill client keeps
// its session, cached resume and preferences in. Stores offer get/set/remove
// by key and no transactions across keys.
package storage

import (
	"context"
	"fmt"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Scope names. The session scope holds credentials; the local scope holds
// the resume cache and preferences.
const (
	ScopeSession = "session"
	ScopeLocal   = "local"
)

// Store is a key/value scope.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes keys; missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Error represents a failed storage operation.
type Error struct {
	Backend string
	Op      string
	Key     string
	Cause   error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %s %q: %v", e.Backend, e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Backend, e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config selects and locates a backend.
type Config struct {
	Backend string
	// Path is the sqlite database file.
	Path string
	// URL is the postgres or redis connection URL.
	URL string
	// Scope separates the session and local stores sharing one backend.
	Scope string
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Scope == "" {
		cfg.Scope = ScopeLocal
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.Path, cfg.Scope)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.URL, cfg.Scope)
	case BackendRedis:
		return OpenRedis(ctx, cfg.URL, cfg.Scope)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
