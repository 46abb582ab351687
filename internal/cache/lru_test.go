package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int64, string](10, time.Minute)

	if _, ok := c.Get(1); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set(1, "a")
	got, ok := c.Get(1)
	if !ok || got != "a" {
		t.Errorf("Get(1) = %q, %v, want %q, true", got, ok, "a")
	}

	c.Set(1, "b")
	got, _ = c.Get(1)
	if got != "b" {
		t.Errorf("Get(1) after overwrite = %q, want %q", got, "b")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int64, int](2, time.Minute)

	c.Set(1, 10)
	c.Set(2, 20)
	c.Get(1) // make key 2 the oldest
	c.Set(3, 30)

	if _, ok := c.Get(2); ok {
		t.Error("key 2 should have been evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("key 1 should still be cached")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("key 3 should still be cached")
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[int64, int](10, 10*time.Millisecond)

	c.Set(1, 10)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(1); ok {
		t.Error("expired entry should miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expired Get = %d, want 0", c.Size())
	}
}

func TestLRUCache_Delete(t *testing.T) {
	c := NewLRUCache[int64, int](10, time.Minute)

	c.Set(1, 10)
	c.Delete(1)
	c.Delete(2) // absent key is a no-op

	if _, ok := c.Get(1); ok {
		t.Error("deleted entry should miss")
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int64, int](10, 10*time.Millisecond)

	c.Set(1, 10)
	c.Set(2, 20)
	time.Sleep(20 * time.Millisecond)
	c.Set(3, 30)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
