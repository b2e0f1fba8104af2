package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores every scope in one table keyed by (scope, key).
type Postgres struct {
	pool  *pgxpool.Pool
	scope string
}

// OpenPostgres connects to databaseURL and ensures the table exists.
func OpenPostgres(ctx context.Context, databaseURL, scope string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, &Error{Backend: BackendPostgres, Op: "open", Cause: errors.New("empty database URL")}
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &Error{Backend: BackendPostgres, Op: "open", Cause: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &Error{Backend: BackendPostgres, Op: "ping", Cause: err}
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS autofill_store (
		scope      TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (scope, key)
	)`); err != nil {
		pool.Close()
		return nil, &Error{Backend: BackendPostgres, Op: "init schema", Cause: err}
	}
	return &Postgres{pool: pool, scope: scope}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM autofill_store WHERE scope = $1 AND key = $2`,
		p.scope, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &Error{Backend: BackendPostgres, Op: "get", Key: key, Cause: err}
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO autofill_store (scope, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (scope, key) DO UPDATE SET value = $3, updated_at = NOW()`,
		p.scope, key, value,
	)
	if err != nil {
		return &Error{Backend: BackendPostgres, Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx,
		`DELETE FROM autofill_store WHERE scope = $1 AND key = ANY($2)`,
		p.scope, keys,
	)
	if err != nil {
		return &Error{Backend: BackendPostgres, Op: "remove", Key: fmt.Sprint(keys), Cause: err}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
