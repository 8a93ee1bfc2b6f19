// Package ratelimit throttles requests per client with a sliding window,
// either in process memory or in Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more request for key fits into the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Close releases resources owned by the limiter.
	Close() error
}

// Unlimited allows every request. It stands in when limiting is disabled.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
func (Unlimited) Close() error                                { return nil }

// disabled reports whether rate and window describe no limit at all.
func disabled(rate int, window time.Duration) bool {
	return rate <= 0 || window <= 0
}

// MemoryLimiter keeps a sliding log of request times per key. It only
// limits a single process. A non-positive rate or window allows everything.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	rate    int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	return newMemoryLimiter(rate, window, time.Now)
}

func newMemoryLimiter(rate int, window time.Duration, now func() time.Time) *MemoryLimiter {
	m := &MemoryLimiter{
		entries: make(map[string][]time.Time),
		rate:    rate,
		window:  window,
		now:     now,
		done:    make(chan struct{}),
	}
	if !disabled(rate, window) {
		go m.cleanup()
	}
	return m
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if disabled(m.rate, m.window) {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hits := prune(m.entries[key], now.Add(-m.window))

	if len(hits) >= m.rate {
		m.entries[key] = hits
		return false, nil
	}

	m.entries[key] = append(hits, now)
	return true, nil
}

func (m *MemoryLimiter) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.window)
	for key, hits := range m.entries {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(m.entries, key)
		} else {
			m.entries[key] = hits
		}
	}
}

// prune drops hits at or before cutoff. hits is in ascending order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
