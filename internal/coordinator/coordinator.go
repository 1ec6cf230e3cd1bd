// Package coordinator implements the cache-and-refresh state machine that
// sits between screens and the gateway. Activating a key serves whatever
// the cache holds immediately, then refreshes in the background; a newer
// activation for the same key supersedes the in-flight one, and a late
// result from a superseded fetch is discarded rather than applied.
package coordinator

import (
	"context"
	"sync"

	"paytrack/internal/cache"
	applog "paytrack/internal/log"
)

// State is the lifecycle of one keyed load.
type State int

const (
	// StateIdle means the key has never been activated.
	StateIdle State = iota
	// StateLoading means a fetch is in flight. Value may carry cached data.
	StateLoading
	// StateReady means Value is populated. Stale marks a failed refresh
	// that fell back to cached data.
	StateReady
	// StateFailed means the fetch failed and no cached fallback existed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is one observable point of a keyed load.
type Snapshot[T any] struct {
	Key       string
	State     State
	Value     T
	Err       error
	FromCache bool
	Stale     bool
}

// FetchFunc loads the authoritative value for a key.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

type inflight struct {
	token  uint64
	cancel context.CancelFunc
}

// Coordinator runs the cache-and-refresh cycle for one value type. The
// zero value is not usable; construct with New.
type Coordinator[T any] struct {
	cache  cache.Cache[T]
	fetch  FetchFunc[T]
	logger *applog.Logger

	mu       sync.Mutex
	nextTok  uint64
	inflight map[string]inflight
	current  map[string]Snapshot[T]
	subs     []chan Snapshot[T]
	closed   bool
}

// New builds a coordinator over the given cache and fetcher. A nil cache
// is replaced with a no-op one, so every activation hits the fetcher.
func New[T any](c cache.Cache[T], fetch FetchFunc[T], logger *applog.Logger) *Coordinator[T] {
	if c == nil {
		c = nopCache[T]{}
	}
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentCoordinator})
	}
	return &Coordinator[T]{
		cache:    c,
		fetch:    fetch,
		logger:   logger,
		inflight: make(map[string]inflight),
		current:  make(map[string]Snapshot[T]),
	}
}

// Subscribe returns a channel of snapshots for every key. The channel is
// buffered; a subscriber that stops draining loses updates rather than
// blocking the coordinator.
func (c *Coordinator[T]) Subscribe() <-chan Snapshot[T] {
	ch := make(chan Snapshot[T], 64)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// Snapshot returns the latest snapshot for a key, StateIdle when the key
// was never activated.
func (c *Coordinator[T]) Snapshot(key string) Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap, ok := c.current[key]; ok {
		return snap
	}
	return Snapshot[T]{Key: key, State: StateIdle}
}

// InFlight reports whether a fetch is currently running for key.
func (c *Coordinator[T]) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Activate starts the cache-and-refresh cycle for key. Cached data, fresh
// or stale, is published immediately under StateLoading; the fetch then
// resolves to StateReady or, with no fallback, StateFailed. A second
// activation for the same key cancels the first fetch and takes over.
func (c *Coordinator[T]) Activate(ctx context.Context, key string) {
	fetchCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}
	c.nextTok++
	token := c.nextTok
	c.inflight[key] = inflight{token: token, cancel: cancel}

	loading := Snapshot[T]{Key: key, State: StateLoading}
	if value, present, fresh := c.cache.GetStale(key); present {
		loading.Value = value
		loading.FromCache = true
		loading.Stale = !fresh
	}
	c.publishLocked(loading)
	c.mu.Unlock()

	go c.run(fetchCtx, cancel, key, token)
}

// Invalidate drops the cached value for key. The next activation starts
// from an empty loading state.
func (c *Coordinator[T]) Invalidate(key string) {
	c.cache.Delete(key)
}

// Refresh re-runs the fetch for a key that is already on screen. It is
// Activate under a different name, kept separate for call-site clarity.
func (c *Coordinator[T]) Refresh(ctx context.Context, key string) {
	c.Activate(ctx, key)
}

// Close cancels all in-flight fetches and closes subscriber channels.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, fl := range c.inflight {
		fl.cancel()
	}
	c.inflight = make(map[string]inflight)
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

func (c *Coordinator[T]) run(ctx context.Context, cancel context.CancelFunc, key string, token uint64) {
	defer cancel()

	value, err := c.fetch(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	fl, ok := c.inflight[key]
	if !ok || fl.token != token || c.closed {
		// Superseded while running; the newer activation owns the key now.
		c.logger.Debug("discarding superseded fetch",
			applog.FieldKey, key, applog.FieldToken, token)
		return
	}
	delete(c.inflight, key)

	if ctx.Err() != nil {
		// Canceled from outside rather than superseded; leave the last
		// published snapshot in place.
		return
	}

	if err == nil {
		c.cache.Set(key, value)
		c.publishLocked(Snapshot[T]{Key: key, State: StateReady, Value: value})
		return
	}

	if cached, present, _ := c.cache.GetStale(key); present {
		c.logger.Warn("refresh failed, serving cached data",
			applog.FieldKey, key, applog.FieldError, err.Error())
		c.publishLocked(Snapshot[T]{
			Key:       key,
			State:     StateReady,
			Value:     cached,
			Err:       err,
			FromCache: true,
			Stale:     true,
		})
		return
	}

	c.logger.Error("fetch failed with no cached fallback",
		applog.FieldKey, key, applog.FieldError, err.Error())
	c.publishLocked(Snapshot[T]{Key: key, State: StateFailed, Err: err})
}

// publishLocked records and fans out a snapshot. Callers hold c.mu.
func (c *Coordinator[T]) publishLocked(snap Snapshot[T]) {
	c.current[snap.Key] = snap
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

type nopCache[T any] struct{}

func (nopCache[T]) Get(string) (T, bool)            { var z T; return z, false }
func (nopCache[T]) GetStale(string) (T, bool, bool) { var z T; return z, false, false }
func (nopCache[T]) Set(string, T)                   {}
func (nopCache[T]) Delete(string)                   {}
func (nopCache[T]) Size() int                       { return 0 }
