package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/user/recipe-service/internal/repository"
)

const releaseTimeout = 5 * time.Second

// inFlightGuard admits at most one pipeline per URL. The local map covers
// this instance; the optional shared lock covers other instances.
type inFlightGuard struct {
	mu   sync.Mutex
	urls map[string]struct{}

	shared repository.InFlightRepository
	ttl    time.Duration
}

func newInFlightGuard(shared repository.InFlightRepository, ttl time.Duration) *inFlightGuard {
	return &inFlightGuard{
		urls:   make(map[string]struct{}),
		shared: shared,
		ttl:    ttl,
	}
}

// acquire claims url or returns ErrExtractionInProgress. The returned release
// func is idempotent.
func (g *inFlightGuard) acquire(ctx context.Context, url string) (func(), error) {
	g.mu.Lock()
	if _, busy := g.urls[url]; busy {
		g.mu.Unlock()
		return nil, ErrExtractionInProgress
	}
	g.urls[url] = struct{}{}
	g.mu.Unlock()

	var token string
	if g.shared != nil {
		t, err := g.shared.Acquire(ctx, url, g.ttl)
		switch {
		case errors.Is(err, repository.ErrLockNotAcquired):
			g.drop(url)
			return nil, ErrExtractionInProgress
		case err != nil:
			slog.Warn("Shared extraction lock unavailable, relying on local guard", "url", url, "error", err)
		default:
			token = t
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if token != "" {
				ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
				defer cancel()
				if err := g.shared.Release(ctx, url, token); err != nil {
					slog.Warn("Failed to release shared extraction lock", "url", url, "error", err)
				}
			}
			g.drop(url)
		})
	}
	return release, nil
}

func (g *inFlightGuard) drop(url string) {
	g.mu.Lock()
	delete(g.urls, url)
	g.mu.Unlock()
}

func (g *inFlightGuard) inFlight(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.urls[url]
	return ok
}
