package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get should find key after Set")
	}
	if string(v) != "v" {
		t.Errorf("value = %q, want %q", v, "v")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()
	v, ok, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || v != nil {
		t.Errorf("Get missing = (%q, %v), want (nil, false)", v, ok)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.Advance(9 * time.Second)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("key should still be live before ttl elapses")
	}
	clock.Advance(time.Second)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key should be expired once ttl elapses")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0 after lazy expiry", store.Len())
	}
}

func TestMemoryStore_NonPositiveTTL(t *testing.T) {
	store := NewMemoryStore()
	for _, ttl := range []time.Duration{0, -time.Second} {
		if err := store.Set(context.Background(), "k", []byte("v"), ttl); !errors.Is(err, ErrNonPositiveTTL) {
			t.Errorf("Set ttl=%v err = %v, want ErrNonPositiveTTL", ttl, err)
		}
	}
	if store.Len() != 0 {
		t.Error("nothing should be written for a non-positive ttl")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "k", []byte("v"), time.Minute)

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("key should be gone after Delete")
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key: %v", err)
	}
}

func TestMemoryStore_ValueIsCopied(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")
	_ = store.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	v, _, _ := store.Get(ctx, "k")
	if string(v) != "abc" {
		t.Errorf("value = %q, want %q", v, "abc")
	}
	v[1] = 'y'
	v2, _, _ := store.Get(ctx, "k")
	if string(v2) != "abc" {
		t.Errorf("value after caller mutation = %q, want %q", v2, "abc")
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get err = %v, want ErrUnavailable", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set err = %v, want ErrUnavailable", err)
	}
	if err := store.Delete(ctx, "k"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete err = %v, want ErrUnavailable", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		key := "k-" + string(rune('0'+i))
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, key, []byte("v"), time.Minute)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = store.Get(ctx, key)
		}()
	}
	wg.Wait()
}

func TestKeyFamilies(t *testing.T) {
	keys := map[string]string{
		SessionKey("abc"):     "-session-abc",
		ShareKey("AB12-CD34"): "-locdata-AB12-CD34",
		PINKey("123456"):      "-groupid-123456",
	}
	for got, want := range keys {
		if got != want {
			t.Errorf("key = %q, want %q", got, want)
		}
	}
}
