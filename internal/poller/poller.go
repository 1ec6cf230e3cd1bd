// Package poller watches the backend for transactions recorded after a
// persisted watermark and hands each batch to notifiers. The watermark
// only advances after every notifier accepted the batch, so a failed cycle
// is retried in full rather than dropped.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paytrack/internal/api"
	"paytrack/internal/cachestore"
	"paytrack/internal/core"
	applog "paytrack/internal/log"
)

// Source yields transactions recorded after the since cursor.
type Source interface {
	NewTransactions(ctx context.Context, since string) (api.NewTransactionsResponse, error)
}

// WatermarkStore persists the poll cursor across restarts.
type WatermarkStore interface {
	Watermark(ctx context.Context, name string) (string, error)
	SetWatermark(ctx context.Context, name, watermark string) error
}

// Notifier receives each batch of newly observed transactions.
type Notifier interface {
	NotifyNewTransactions(ctx context.Context, txns []core.Transaction) error
}

// Config holds poller configuration.
type Config struct {
	// Interval is how often to poll while active (default: 7s).
	Interval time.Duration

	// Name keys the persisted watermark (default: "transactions").
	Name string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 7 * time.Second,
		Name:     "transactions",
	}
}

// Poller drives the periodic new-transaction check.
type Poller struct {
	source    Source
	store     WatermarkStore
	notifiers []Notifier
	config    Config
	logger    *applog.Logger

	mu      sync.Mutex
	active  bool
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a poller. Notifiers may be empty; newly seen transactions
// then only advance the watermark.
func New(source Source, store WatermarkStore, config Config, logger *applog.Logger, notifiers ...Notifier) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentPoller})
	}
	return &Poller{
		source:    source,
		store:     store,
		notifiers: notifiers,
		config:    config,
		logger:    logger,
		active:    true,
	}
}

// SetActive gates polling without stopping the loop. While inactive the
// ticker keeps running but cycles are skipped, mirroring an app moving to
// the background.
func (p *Poller) SetActive(active bool) {
	p.mu.Lock()
	p.active = active
	p.mu.Unlock()
}

// IsRunning reports whether the loop has been started.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins the polling loop. Returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "poller started",
		"interval", p.config.Interval.String(), applog.FieldOperation, applog.OpStartup)
	return nil
}

// Stop gracefully stops the loop and waits for the current cycle.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "poller stopped", applog.FieldOperation, applog.OpShutdown)
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "poller stop timed out", applog.FieldOperation, applog.OpShutdown)
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *Poller) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Poll immediately on startup rather than waiting a full interval.
	p.poll(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if !active {
		return
	}
	if _, err := p.PollOnce(ctx); err != nil {
		// Transient failures are expected on a mobile-grade network;
		// the next tick retries from the same watermark.
		p.logger.DebugContext(ctx, "poll cycle failed",
			applog.FieldOperation, applog.OpPoll, applog.FieldError, err.Error())
	}
}

// PollOnce runs a single cycle: read the watermark, fetch what is newer,
// notify, then advance. It returns the batch it saw so callers embedding
// the poller can react synchronously.
func (p *Poller) PollOnce(ctx context.Context) ([]core.Transaction, error) {
	since, err := p.store.Watermark(ctx, p.config.Name)
	if err != nil && !errors.Is(err, cachestore.ErrNotFound) {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	resp, err := p.source.NewTransactions(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch new transactions: %w", err)
	}
	if len(resp.Transactions) == 0 {
		// Still advance so the cursor tracks the server clock.
		if resp.PolledAt != "" && resp.PolledAt != since {
			if err := p.store.SetWatermark(ctx, p.config.Name, resp.PolledAt); err != nil {
				return nil, fmt.Errorf("advance watermark: %w", err)
			}
		}
		return nil, nil
	}

	txns := make([]core.Transaction, len(resp.Transactions))
	for i, dto := range resp.Transactions {
		txns[i] = dto.Transaction()
	}

	for _, n := range p.notifiers {
		if err := n.NotifyNewTransactions(ctx, txns); err != nil {
			// Watermark stays put; the whole batch is redelivered next cycle.
			return nil, fmt.Errorf("notify: %w", err)
		}
	}

	// A response without polled_at must not wipe the stored cursor; the
	// batch is simply redelivered next cycle, which the notifiers tolerate.
	if resp.PolledAt != "" {
		if err := p.store.SetWatermark(ctx, p.config.Name, resp.PolledAt); err != nil {
			return nil, fmt.Errorf("advance watermark: %w", err)
		}
	}

	p.logger.InfoContext(ctx, "new transactions observed",
		applog.FieldTxnCount, len(txns),
		applog.FieldWatermark, resp.PolledAt)
	return txns, nil
}
