package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count  int64
	expiry time.Time
}

// MemoryStore is a process-local counter store. It matches the redis
// store's increment-with-expiry-if-new semantics and is intended for
// tests and single-process deployments.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]*entry

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{m: map[string]*entry{}, now: time.Now}
	go s.cleanupLoop()

	return s
}

// cleanupLoop sweeps entries that were never touched again after expiring.
// Expiry is still enforced on every access; the sweep only bounds memory.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		now := s.now()
		s.mu.Lock()
		for k, e := range s.m {
			if e == nil || e.expiry.Before(now) {
				delete(s.m, k)
			}
		}
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key]
	if !ok || e == nil || e.expiry.Before(now) {
		e = &entry{count: 1, expiry: now.Add(ttl)}
		s.m[key] = e

		return 1, e.expiry, nil
	}

	e.count++
	return e.count, e.expiry, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (int64, time.Time, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key]
	if !ok || e == nil || e.expiry.Before(now) {
		return 0, time.Time{}, nil
	}

	return e.count, e.expiry, nil
}
