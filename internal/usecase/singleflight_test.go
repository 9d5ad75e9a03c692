package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://youtube.com/watch?v=abc"

func TestInFlightGuard_Local(t *testing.T) {
	g := newInFlightGuard(nil, time.Minute)

	release, err := g.acquire(context.Background(), testURL)
	require.NoError(t, err)
	assert.True(t, g.inFlight(testURL))

	_, err = g.acquire(context.Background(), testURL)
	assert.ErrorIs(t, err, ErrExtractionInProgress)

	other, err := g.acquire(context.Background(), "https://youtube.com/watch?v=other")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, g.inFlight(testURL))

	again, err := g.acquire(context.Background(), testURL)
	require.NoError(t, err)
	again()
}

func TestInFlightGuard_ConcurrentAcquire(t *testing.T) {
	g := newInFlightGuard(nil, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		refused int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.acquire(context.Background(), testURL)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
			} else if errors.Is(err, ErrExtractionInProgress) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
	assert.Equal(t, 19, refused)
}

func TestInFlightGuard_SharedLockHeldElsewhere(t *testing.T) {
	shared := newFakeSharedLock()
	shared.held[testURL] = "another-instance"
	g := newInFlightGuard(shared, time.Minute)

	_, err := g.acquire(context.Background(), testURL)

	assert.ErrorIs(t, err, ErrExtractionInProgress)
	assert.False(t, g.inFlight(testURL))
}

func TestInFlightGuard_SharedLockReleased(t *testing.T) {
	shared := newFakeSharedLock()
	g := newInFlightGuard(shared, time.Minute)

	release, err := g.acquire(context.Background(), testURL)
	require.NoError(t, err)
	assert.Contains(t, shared.held, testURL)

	release()
	release()
	assert.NotContains(t, shared.held, testURL)
	assert.Equal(t, 1, shared.released)
}

func TestInFlightGuard_SharedLockUnavailableFallsBackToLocal(t *testing.T) {
	shared := newFakeSharedLock()
	shared.err = errors.New("connection refused")
	g := newInFlightGuard(shared, time.Minute)

	release, err := g.acquire(context.Background(), testURL)
	require.NoError(t, err)

	_, err = g.acquire(context.Background(), testURL)
	assert.ErrorIs(t, err, ErrExtractionInProgress)

	release()
	assert.False(t, g.inFlight(testURL))
	assert.Zero(t, shared.released)
}
