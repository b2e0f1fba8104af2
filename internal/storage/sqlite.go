package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"
)

var scopePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLite stores one scope as a table in a sqlite file.
type SQLite struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path, scope string) (*SQLite, error) {
	if !scopePattern.MatchString(scope) {
		return nil, fmt.Errorf("invalid storage scope %q", scope)
	}
	if path == "" {
		return nil, &Error{Backend: BackendSQLite, Op: "open", Cause: errors.New("empty path")}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, &Error{Backend: BackendSQLite, Op: "open", Cause: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &Error{Backend: BackendSQLite, Op: "open", Cause: err}
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, table: "kv_" + scope}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, s.table)); err != nil {
		_ = db.Close()
		return nil, &Error{Backend: BackendSQLite, Op: "init schema", Cause: err}
	}
	return s, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, s.table), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &Error{Backend: BackendSQLite, Op: "get", Key: key, Cause: err}
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, s.table), key, value)
	if err != nil {
		return &Error{Backend: BackendSQLite, Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key); err != nil {
			return &Error{Backend: BackendSQLite, Op: "remove", Key: key, Cause: err}
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
