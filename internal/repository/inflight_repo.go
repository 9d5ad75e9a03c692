package repository

import (
	"context"
	"time"
)

// InFlightRepository is a lock keyed by URL shared between service instances.
type InFlightRepository interface {
	// Acquire takes the lock for url and returns a token identifying the
	// holder. It returns ErrLockNotAcquired if another holder owns it.
	Acquire(ctx context.Context, url string, ttl time.Duration) (string, error)
	// Release drops the lock only if token still owns it.
	Release(ctx context.Context, url, token string) error
}
