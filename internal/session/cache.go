package session

import (
	"context"
	"encoding/json"
	"time"
)

// CacheEntry is a cached resume payload and the time it was fetched.
type CacheEntry struct {
	Data      json.RawMessage
	FetchedAt time.Time
}

// Age returns how old the entry is at now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// CachedResume returns the cached resume when present and younger than the
// cache TTL.
func (m *Manager) CachedResume(ctx context.Context) (*CacheEntry, bool, error) {
	entry, err := m.cacheEntry(ctx)
	if err != nil || entry == nil {
		return nil, false, err
	}
	if !CacheValid(entry.FetchedAt, m.now()) {
		m.logger.Debug("resume cache stale", "age", entry.Age(m.now()))
		return entry, false, nil
	}
	return entry, true, nil
}

func (m *Manager) cacheEntry(ctx context.Context) (*CacheEntry, error) {
	data, ok, err := m.local.Get(ctx, KeyResumeData)
	if err != nil {
		return nil, &Error{Message: "failed to read cached resume", Cause: err}
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	raw, ok, err := m.local.Get(ctx, KeyResumeCacheTime)
	if err != nil {
		return nil, &Error{Message: "failed to read cache time", Cause: err}
	}
	entry := &CacheEntry{Data: json.RawMessage(data)}
	if ok {
		entry.FetchedAt, _ = decodeTime(raw)
	}
	return entry, nil
}

// StoreResume caches a freshly fetched resume payload.
func (m *Manager) StoreResume(ctx context.Context, data json.RawMessage) error {
	if !json.Valid(data) {
		return &Error{Message: "refusing to cache invalid resume JSON"}
	}
	if err := m.local.Set(ctx, KeyResumeData, data); err != nil {
		return &Error{Message: "failed to cache resume", Cause: err}
	}
	if err := m.local.Set(ctx, KeyResumeCacheTime, encodeTime(m.now())); err != nil {
		return &Error{Message: "failed to store cache time", Cause: err}
	}
	return nil
}

// ClearResume drops the cached resume.
func (m *Manager) ClearResume(ctx context.Context) error {
	if err := m.local.Remove(ctx, KeyResumeData, KeyResumeCacheTime); err != nil {
		return &Error{Message: "failed to clear resume cache", Cause: err}
	}
	return nil
}
