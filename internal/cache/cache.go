// Package cache provides the in-memory layer of the stale-while-revalidate
// pipeline. Entries expire on a TTL but are retained until evicted, so a
// failed refresh can still serve the last good value marked as stale.
package cache

import (
	"time"

	applog "paytrack/internal/log"
)

// Cache is a generic keyed cache with TTL semantics.
type Cache[T any] interface {
	// Get retrieves a fresh value from the cache.
	Get(key string) (T, bool)

	// GetStale retrieves a value even after its TTL lapsed. The second
	// return reports presence, the third freshness.
	GetStale(key string) (T, bool, bool)

	// Set stores a value in the cache, restarting its TTL.
	Set(key string, data T)

	// Delete removes a key from the cache.
	Delete(key string)

	// Size returns the current number of items in the cache.
	Size() int
}

// Cleaner is implemented by caches that support expired-entry sweeps.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the periodic cleanup of registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *applog.Logger
	started     bool
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a cache manager. A nil logger disables sweep logging.
func NewManager(logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentCache})
	}
	return &Manager{
		caches:      make([]Cleaner, 0),
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup. Not safe to call after
// StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, cache := range m.caches {
				total += cache.CleanExpired()
			}
			if total > 0 {
				m.logger.Debug("swept expired cache entries", "removed", total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine. Safe to call when cleanup was
// never started.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	if m.started {
		<-m.cleanupDone
	}
}
