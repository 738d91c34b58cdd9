package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New[string](0)
	defer c.Close()

	c.Set("k", "v", time.Minute)
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = %q, %v; want v, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestExpiry(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](0)
	defer c.Close()
	c.now = func() time.Time { return current }

	c.Set("k", 42, 30*time.Second)
	current = current.Add(31 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired item to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired item not removed, Len = %d", c.Len())
	}
}

func TestCleanup(t *testing.T) {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](0)
	defer c.Close()
	c.now = func() time.Time { return current }

	c.Set("old", 1, time.Second)
	c.Set("fresh", 2, time.Hour)
	current = current.Add(time.Minute)
	c.cleanup()

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if v, ok := c.Get("fresh"); !ok || v != 2 {
		t.Errorf("fresh item lost: %v %v", v, ok)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New[int](time.Millisecond)
	c.Close()
	c.Close()
}
