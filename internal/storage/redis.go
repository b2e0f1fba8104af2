package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores a scope under the key prefix "autofill:<scope>:".
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// OpenRedis connects to redisURL and verifies the connection.
func OpenRedis(ctx context.Context, redisURL, scope string) (*Redis, error) {
	if redisURL == "" {
		return nil, &Error{Backend: BackendRedis, Op: "open", Cause: errors.New("empty redis URL")}
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &Error{Backend: BackendRedis, Op: "open", Cause: err}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &Error{Backend: BackendRedis, Op: "ping", Cause: err}
	}
	return NewRedis(rdb, scope), nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, scope string) *Redis {
	return &Redis{rdb: rdb, prefix: "autofill:" + scope + ":"}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &Error{Backend: BackendRedis, Op: "get", Key: key, Cause: err}
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return &Error{Backend: BackendRedis, Op: "set", Key: key, Cause: err}
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.rdb.Del(ctx, full...).Err(); err != nil {
		return &Error{Backend: BackendRedis, Op: "remove", Cause: err}
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
