package cachestore

import (
	"path/filepath"
	"testing"
	"time"
)

type snapshot struct {
	Total string `json:"total"`
	Count int    `json:"count"`
}

func TestTypedRoundTrip(t *testing.T) {
	store := openTestStore(t)
	c := NewTyped[snapshot](store, time.Minute, nil)

	c.Set("dashboard:1M", snapshot{Total: "150.00", Count: 3})

	got, ok := c.Get("dashboard:1M")
	if !ok {
		t.Fatal("Get missed a fresh entry")
	}
	if got.Total != "150.00" || got.Count != 3 {
		t.Errorf("got %+v", got)
	}

	if _, ok := c.Get("absent"); ok {
		t.Error("Get(absent) reported a hit")
	}
}

func TestTypedExpiryServesStale(t *testing.T) {
	store := openTestStore(t)
	c := NewTyped[snapshot](store, time.Minute, nil)

	c.Set("k", snapshot{Total: "10.00"})

	// Advance the clock past the TTL.
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, ok := c.Get("k"); ok {
		t.Error("Get returned an expired entry as fresh")
	}

	got, present, fresh := c.GetStale("k")
	if !present {
		t.Fatal("GetStale missed an expired entry")
	}
	if fresh {
		t.Error("GetStale reported an expired entry as fresh")
	}
	if got.Total != "10.00" {
		t.Errorf("got %+v", got)
	}
}

func TestTypedFreshnessSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	NewTyped[snapshot](store, time.Hour, nil).Set("k", snapshot{Total: "42"})
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, ok := NewTyped[snapshot](store, time.Hour, nil).Get("k")
	if !ok {
		t.Fatal("entry written before restart reads as a miss")
	}
	if got.Total != "42" {
		t.Errorf("got %+v", got)
	}
}

func TestTypedDelete(t *testing.T) {
	store := openTestStore(t)
	c := NewTyped[snapshot](store, time.Minute, nil)

	c.Set("k", snapshot{Total: "1"})
	c.Delete("k")

	if _, present, _ := c.GetStale("k"); present {
		t.Error("deleted entry still present")
	}
}
