package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreIncrementAndGet(t *testing.T) {
	s := NewMemoryStore()
	key := "foo:1"
	ctx := context.Background()

	counter, exp, err := s.Increment(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 1 {
		t.Fatalf("expected 1 got %d", counter)
	}

	counter2, exp2, _ := s.Increment(ctx, key, time.Minute)
	if counter2 != 2 {
		t.Fatalf("expected 2 got %d", counter2)
	}
	if !exp2.Equal(exp) {
		t.Fatal("expected same expiry to be preserved")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	key := "foo:2"
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return base }

	s.Increment(ctx, key, time.Minute)
	s.Increment(ctx, key, time.Minute)

	s.now = func() time.Time { return base.Add(61 * time.Second) }

	if counter, _, _ := s.Get(ctx, key); counter != 0 {
		t.Fatalf("expected 0 after expiry got %d", counter)
	}

	counter, exp, _ := s.Increment(ctx, key, time.Minute)
	if counter != 1 {
		t.Fatalf("expected fresh window to start at 1 got %d", counter)
	}
	if !exp.Equal(base.Add(121 * time.Second)) {
		t.Fatalf("unexpected new expiry %v", exp)
	}
}

func TestMemoryStoreConcurrency(t *testing.T) {
	s := NewMemoryStore()
	key := "concurrent:1"
	ttl := 1 * time.Second
	ctx := context.Background()

	var wg sync.WaitGroup
	N := 100
	wg.Add(N)

	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			s.Increment(ctx, key, ttl)
		}()
	}
	wg.Wait()

	counter, _, _ := s.Get(ctx, key)
	if counter != int64(N) {
		t.Fatalf("expected %d got %d", N, counter)
	}
}
