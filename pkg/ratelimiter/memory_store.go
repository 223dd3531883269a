package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the number of Take calls between stale-bucket sweeps.
const sweepEvery = 1024

type bucketState struct {
	tokens     int
	lastRefill time.Time
	expiresAt  time.Time
}

// MemoryStore keeps buckets in process. Buckets that would be full again
// are dropped lazily.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState
	calls   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucketState)}
}

func (s *MemoryStore) Take(_ context.Context, key string, n int, cfg Config, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls%sweepEvery == 0 {
		for k, b := range s.buckets {
			if now.After(b.expiresAt) {
				delete(s.buckets, k)
			}
		}
	}

	b, ok := s.buckets[key]
	if !ok || now.After(b.expiresAt) {
		b = &bucketState{tokens: cfg.Capacity, lastRefill: now}
		s.buckets[key] = b
	}

	if intervals := int(now.Sub(b.lastRefill) / cfg.RefillInterval); intervals > 0 {
		b.tokens = min(cfg.Capacity, b.tokens+intervals*cfg.RefillRate)
		b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * cfg.RefillInterval)
	}

	res := Result{Limit: cfg.Capacity, ResetAt: b.lastRefill.Add(cfg.RefillInterval)}
	if b.tokens >= n {
		b.tokens -= n
		res.Allowed = true
	}
	res.Remaining = b.tokens
	b.expiresAt = now.Add(cfg.ttl())
	return res, nil
}

// Len reports the number of tracked buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
