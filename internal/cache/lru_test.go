package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCacheSetGet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Fatalf("Get(a) = %q, %v; want alpha, true", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missed")
	}

	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s was evicted", key)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheExpiredReadsAsMissButServesStale(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)

	c.Set("a", "alpha")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("Get returned an expired entry as fresh")
	}

	got, ok, fresh := c.GetStale("a")
	if !ok || got != "alpha" {
		t.Fatalf("GetStale(a) = %q, %v; want alpha, true", got, ok)
	}
	if fresh {
		t.Error("GetStale reported an expired entry as fresh")
	}
}

func TestLRUCacheGetStaleFresh(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	c.Set("a", "alpha")

	got, ok, fresh := c.GetStale("a")
	if !ok || !fresh || got != "alpha" {
		t.Fatalf("GetStale(a) = %q, %v, %v; want alpha, true, true", got, ok, fresh)
	}

	if _, ok, _ := c.GetStale("missing"); ok {
		t.Error("GetStale(missing) reported presence")
	}
}

func TestLRUCacheSetRestartsTTL(t *testing.T) {
	c := NewLRUCache[string](10, 30*time.Millisecond)

	c.Set("a", "v1")
	time.Sleep(20 * time.Millisecond)
	c.Set("a", "v2")
	time.Sleep(20 * time.Millisecond)

	got, ok := c.Get("a")
	if !ok || got != "v2" {
		t.Fatalf("Get(a) = %q, %v; want v2, true after TTL restart", got, ok)
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	c.Set("a", "alpha")
	c.Delete("a")

	if _, ok, _ := c.GetStale("a"); ok {
		t.Error("deleted entry still present")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](100, 10*time.Millisecond)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("old-%d", i), i)
	}
	time.Sleep(25 * time.Millisecond)
	c.Set("new", 99)

	if removed := c.CleanExpired(); removed != 5 {
		t.Errorf("CleanExpired() = %d, want 5", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("fresh entry swept")
	}
}

func TestManagerSweepsRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](100, time.Nanosecond)
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	deadline := time.After(time.Second)
	for c.Size() != 0 {
		select {
		case <-deadline:
			t.Fatalf("sweep never ran, Size() = %d", c.Size())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.Stop() // must not block
}
