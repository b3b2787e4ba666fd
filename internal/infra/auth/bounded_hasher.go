package auth

import (
	"context"

	"golang.org/x/sync/semaphore"

	"taskmgr/internal/domain/service"
	"taskmgr/internal/errors"
)

// boundedHasher caps the number of key derivations running at once.
// Waiting for a slot honors ctx; a derivation already running is not interrupted.
type boundedHasher struct {
	inner service.PasswordHasher
	sem   *semaphore.Weighted
}

// NewBoundedHasher wraps inner so that at most limit calls run concurrently.
func NewBoundedHasher(inner service.PasswordHasher, limit int) service.PasswordHasher {
	if limit < 1 {
		limit = 1
	}

	return &boundedHasher{inner: inner, sem: semaphore.NewWeighted(int64(limit))}
}

func (h *boundedHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "waiting for hashing slot")
	}
	defer h.sem.Release(1)

	return h.inner.Hash(ctx, password)
}

func (h *boundedHasher) Verify(ctx context.Context, password, artifact string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return h.inner.Verify(ctx, password, artifact)
}
