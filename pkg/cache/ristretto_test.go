package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestRistrettoCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	ok := c.Set("k1", "v1", time.Minute)
	if !ok {
		t.Fatal("set rejected")
	}
	c.(*RistrettoCache).Wait()

	got, found := c.Get("k1")
	if !found {
		t.Fatal("expected hit")
	}
	if got.(string) != "v1" {
		t.Errorf("expected v1, got %v", got)
	}
}

func TestRistrettoCache_Miss(t *testing.T) {
	c := newTestCache(t)

	_, found := c.Get("absent")
	if found {
		t.Error("expected miss")
	}
}

func TestRistrettoCache_Delete(t *testing.T) {
	c := newTestCache(t)

	c.Set("k1", 42, time.Minute)
	c.(*RistrettoCache).Wait()
	c.Delete("k1")

	_, found := c.Get("k1")
	if found {
		t.Error("expected entry to be deleted")
	}
}

func TestRistrettoCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t)

	c.Set("k1", "v1", 20*time.Millisecond)
	c.(*RistrettoCache).Wait()

	time.Sleep(60 * time.Millisecond)

	_, found := c.Get("k1")
	if found {
		t.Error("expected entry to expire")
	}
}
