package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	applog "paytrack/internal/log"
)

const opTimeout = 2 * time.Second

// Typed adapts the byte store to a typed cache with TTL semantics. Values
// are stored as JSON; freshness derives from the persisted write time, so
// TTLs survive restarts. It satisfies the same contract as the in-memory
// caches and can back a coordinator directly.
type Typed[T any] struct {
	store  *Store
	ttl    time.Duration
	logger *applog.Logger
	now    func() time.Time
}

// NewTyped wraps store with JSON encoding and the given TTL.
func NewTyped[T any](store *Store, ttl time.Duration, logger *applog.Logger) *Typed[T] {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentCacheStore})
	}
	return &Typed[T]{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get retrieves a fresh value.
func (t *Typed[T]) Get(key string) (T, bool) {
	value, present, fresh := t.GetStale(key)
	if !present || !fresh {
		var zero T
		return zero, false
	}
	return value, true
}

// GetStale retrieves a value even after its TTL lapsed. The second return
// reports presence, the third freshness.
func (t *Typed[T]) GetStale(key string) (T, bool, bool) {
	var zero T

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	payload, updatedAt, err := t.store.Get(ctx, key)
	if err != nil {
		if err != ErrNotFound {
			t.logger.Warn("cache read failed", applog.FieldKey, key, applog.FieldError, err.Error())
		}
		return zero, false, false
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		// A payload written by an older build; treat as a miss.
		t.logger.Warn("cache payload unreadable", applog.FieldKey, key, applog.FieldError, err.Error())
		return zero, false, false
	}

	fresh := t.now().Sub(updatedAt) <= t.ttl
	return value, true, fresh
}

// Set stores a value stamped with the current time. Write failures are
// logged and swallowed; Set never fails.
func (t *Typed[T]) Set(key string, value T) {
	payload, err := json.Marshal(value)
	if err != nil {
		t.logger.Warn("cache payload unencodable", applog.FieldKey, key, applog.FieldError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := t.store.Set(ctx, key, payload, t.now()); err != nil {
		t.logger.Warn("cache write failed", applog.FieldKey, key, applog.FieldError, err.Error())
	}
}

// Delete removes a key.
func (t *Typed[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := t.store.Delete(ctx, key); err != nil {
		t.logger.Warn("cache delete failed", applog.FieldKey, key, applog.FieldError, err.Error())
	}
}

// Size returns the number of persisted entries across all types sharing
// the store.
func (t *Typed[T]) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var n int
	err := t.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0
	}
	return n
}
