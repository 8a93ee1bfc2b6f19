package auth

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// HashPool bounds how many CPU-heavy hash operations run at once so that a
// burst of logins cannot starve other requests of CPU. Waiting for a slot
// respects ctx cancellation.
type HashPool struct {
	h   PasswordHasher
	sem *semaphore.Weighted
}

// NewHashPool wraps h; size <= 0 means GOMAXPROCS.
func NewHashPool(h PasswordHasher, size int) *HashPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &HashPool{h: h, sem: semaphore.NewWeighted(int64(size))}
}

func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	return p.h.Hash(password)
}

func (p *HashPool) Verify(ctx context.Context, password, encoded string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.sem.Release(1)

	return p.h.Verify(password, encoded)
}
