package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paytrack/internal/api"
	"paytrack/internal/cachestore"
	"paytrack/internal/core"
)

type fakeSource struct {
	mu        sync.Mutex
	responses []api.NewTransactionsResponse
	errs      []error
	sinces    []string
}

func (f *fakeSource) NewTransactions(ctx context.Context, since string) (api.NewTransactionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinces = append(f.sinces, since)
	n := len(f.sinces) - 1
	var resp api.NewTransactionsResponse
	if n < len(f.responses) {
		resp = f.responses[n]
	}
	var err error
	if n < len(f.errs) {
		err = f.errs[n]
	}
	return resp, err
}

type memWatermarks struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemWatermarks() *memWatermarks {
	return &memWatermarks{values: map[string]string{}}
}

func (m *memWatermarks) Watermark(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.values[name]
	if !ok {
		return "", cachestore.ErrNotFound
	}
	return w, nil
}

func (m *memWatermarks) SetWatermark(ctx context.Context, name, watermark string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = watermark
	return nil
}

func (m *memWatermarks) get(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[name]
}

type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]core.Transaction
	err     error
}

func (r *recordingNotifier) NotifyNewTransactions(ctx context.Context, txns []core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, txns)
	return nil
}

func (r *recordingNotifier) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func batch(polledAt string, ids ...string) api.NewTransactionsResponse {
	resp := api.NewTransactionsResponse{PolledAt: polledAt, Count: len(ids)}
	for _, id := range ids {
		resp.Transactions = append(resp.Transactions, api.TransactionDTO{
			ID:       id,
			WorkerID: 1,
			Source:   "PaySafe",
			Amount:   decimal.RequireFromString("10.00"),
			Date:     "2025-02-08 12:00:00",
			Status:   "Completed",
		})
	}
	return resp
}

func TestPollOnceNotifiesAndAdvances(t *testing.T) {
	source := &fakeSource{responses: []api.NewTransactionsResponse{batch("2025-02-08 12:07:00", "t1", "t2")}}
	store := newMemWatermarks()
	notifier := &recordingNotifier{}

	p := New(source, store, DefaultConfig(), nil, notifier)
	txns, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "t1", txns[0].ID)

	assert.Equal(t, []string{""}, source.sinces, "first poll starts with an empty cursor")
	assert.Equal(t, "2025-02-08 12:07:00", store.get("transactions"))
	assert.Equal(t, 1, notifier.batchCount())
}

func TestPollOncePassesStoredWatermark(t *testing.T) {
	source := &fakeSource{responses: []api.NewTransactionsResponse{batch("2025-02-08 12:14:00")}}
	store := newMemWatermarks()
	require.NoError(t, store.SetWatermark(context.Background(), "transactions", "2025-02-08 12:07:00"))

	p := New(source, store, DefaultConfig(), nil)
	_, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-08 12:07:00"}, source.sinces)
}

func TestPollOnceHoldsWatermarkOnNotifyFailure(t *testing.T) {
	source := &fakeSource{responses: []api.NewTransactionsResponse{
		batch("2025-02-08 12:07:00", "t1"),
		batch("2025-02-08 12:07:00", "t1"),
	}}
	store := newMemWatermarks()
	notifier := &recordingNotifier{err: errors.New("broker down")}

	p := New(source, store, DefaultConfig(), nil, notifier)
	_, err := p.PollOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.get("transactions"), "watermark must not advance past an unprocessed batch")

	// Once the notifier recovers the same batch is redelivered.
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()

	txns, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, "2025-02-08 12:07:00", store.get("transactions"))
}

func TestPollOnceHoldsWatermarkOnFetchFailure(t *testing.T) {
	source := &fakeSource{errs: []error{errors.New("offline")}}
	store := newMemWatermarks()
	require.NoError(t, store.SetWatermark(context.Background(), "transactions", "w0"))

	p := New(source, store, DefaultConfig(), nil)
	_, err := p.PollOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, "w0", store.get("transactions"))
}

func TestPollOnceEmptyBatchStillAdvancesCursor(t *testing.T) {
	source := &fakeSource{responses: []api.NewTransactionsResponse{{PolledAt: "2025-02-08 12:07:00"}}}
	store := newMemWatermarks()
	notifier := &recordingNotifier{}

	p := New(source, store, DefaultConfig(), nil, notifier)
	txns, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.Equal(t, 0, notifier.batchCount(), "no notification for an empty batch")
	assert.Equal(t, "2025-02-08 12:07:00", store.get("transactions"))
}

func TestPollOnceKeepsWatermarkWhenBatchLacksPolledAt(t *testing.T) {
	source := &fakeSource{responses: []api.NewTransactionsResponse{batch("", "t1")}}
	store := newMemWatermarks()
	require.NoError(t, store.SetWatermark(context.Background(), "transactions", "2025-02-08 12:07:00"))
	notifier := &recordingNotifier{}

	p := New(source, store, DefaultConfig(), nil, notifier)
	txns, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, 1, notifier.batchCount())
	assert.Equal(t, "2025-02-08 12:07:00", store.get("transactions"),
		"missing polled_at must not wipe the stored cursor")
}

func TestSetActiveGatesPolling(t *testing.T) {
	source := &fakeSource{}
	store := newMemWatermarks()

	p := New(source, store, Config{Interval: 5 * time.Millisecond}, nil)
	p.SetActive(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Start(ctx))
	defer p.Stop(context.Background())

	time.Sleep(40 * time.Millisecond)
	source.mu.Lock()
	calls := len(source.sinces)
	source.mu.Unlock()
	assert.Zero(t, calls, "inactive poller must not hit the source")

	p.SetActive(true)
	deadline := time.After(time.Second)
	for {
		source.mu.Lock()
		calls = len(source.sinces)
		source.mu.Unlock()
		if calls > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("reactivated poller never polled")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStartTwiceFails(t *testing.T) {
	p := New(&fakeSource{}, newMemWatermarks(), Config{Interval: time.Hour}, nil)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	defer p.Stop(ctx)

	assert.Error(t, p.Start(ctx))
	assert.True(t, p.IsRunning())
}
