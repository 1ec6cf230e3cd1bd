package cachestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSetGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	wrote := time.Date(2025, 2, 8, 12, 0, 0, 0, time.UTC)
	if err := store.Set(ctx, "dashboard:1M", []byte(`{"total":"100"}`), wrote); err != nil {
		t.Fatalf("Set: %v", err)
	}

	payload, updatedAt, err := store.Get(ctx, "dashboard:1M")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(payload) != `{"total":"100"}` {
		t.Errorf("payload = %s", payload)
	}
	if !updatedAt.Equal(wrote) {
		t.Errorf("updatedAt = %v, want %v", updatedAt, wrote)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, _, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(absent) err = %v, want ErrNotFound", err)
	}
}

func TestStoreOnlyNewerOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 2, 8, 12, 0, 0, 0, time.UTC)
	if err := store.Set(ctx, "k", []byte("current"), base); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A write carrying an older or equal timestamp must lose.
	if err := store.Set(ctx, "k", []byte("laggard"), base.Add(-time.Minute)); err != nil {
		t.Fatalf("Set older: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("same-age"), base); err != nil {
		t.Fatalf("Set equal: %v", err)
	}

	payload, _, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(payload) != "current" {
		t.Errorf("payload = %s, want current", payload)
	}

	if err := store.Set(ctx, "k", []byte("newer"), base.Add(time.Minute)); err != nil {
		t.Fatalf("Set newer: %v", err)
	}
	payload, _, _ = store.Get(ctx, "k")
	if string(payload) != "newer" {
		t.Errorf("payload = %s, want newer", payload)
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Now()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}

	// Deleting again is fine.
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, key := range []string{"txns:1M:p1", "txns:1M:p2", "dashboard:1M"} {
		if err := store.Set(ctx, key, []byte("v"), now); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	n, err := store.DeletePrefix(ctx, "txns:")
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if n != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", n)
	}
	if _, _, err := store.Get(ctx, "dashboard:1M"); err != nil {
		t.Errorf("unrelated key removed: %v", err)
	}
}

func TestStoreWatermark(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Watermark(ctx, "transactions"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Watermark err = %v, want ErrNotFound", err)
	}

	if err := store.SetWatermark(ctx, "transactions", "2025-02-08 12:00:00"); err != nil {
		t.Fatalf("SetWatermark: %v", err)
	}
	got, err := store.Watermark(ctx, "transactions")
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}
	if got != "2025-02-08 12:00:00" {
		t.Errorf("watermark = %q", got)
	}

	if err := store.SetWatermark(ctx, "transactions", "2025-02-08 12:07:00"); err != nil {
		t.Fatalf("SetWatermark update: %v", err)
	}
	got, _ = store.Watermark(ctx, "transactions")
	if got != "2025-02-08 12:07:00" {
		t.Errorf("watermark after update = %q", got)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("persisted"), time.Now()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	payload, _, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(payload) != "persisted" {
		t.Errorf("payload = %s", payload)
	}
}
