package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

const testURL = "https://www.instagram.com/reel/abc123/"

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestInFlightRepo_AcquireRelease(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewInFlightRepo(client)
	ctx := context.Background()

	token, err := repo.Acquire(ctx, testURL, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = repo.Acquire(ctx, testURL, time.Minute)
	assert.ErrorIs(t, err, repository.ErrLockNotAcquired)

	// A stale token does not release someone else's lock.
	require.NoError(t, repo.Release(ctx, testURL, "stale"))
	_, err = repo.Acquire(ctx, testURL, time.Minute)
	assert.ErrorIs(t, err, repository.ErrLockNotAcquired)

	require.NoError(t, repo.Release(ctx, testURL, token))
	again, err := repo.Acquire(ctx, testURL, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, token, again)
}

func TestInFlightRepo_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewInFlightRepo(client)
	ctx := context.Background()

	_, err := repo.Acquire(ctx, testURL, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = repo.Acquire(ctx, testURL, time.Minute)
	assert.NoError(t, err)
}

func TestProgressLogRepo(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewProgressLogRepo(client, time.Hour)
	ctx := context.Background()

	events, err := repo.List(ctx, testURL)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, repo.Append(ctx, testURL, entity.ProgressEvent{Step: entity.StepStart, Progress: 0, Message: "Starting extraction..."}))
	require.NoError(t, repo.Append(ctx, testURL, entity.ProgressEvent{
		Step:     entity.StepError,
		Progress: 80,
		Failure:  &entity.ExtractionFailure{ErrorKind: entity.ErrorKindExtraction, Message: "bad output"},
	}))

	events, err = repo.List(ctx, testURL)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entity.StepStart, events[0].Step)
	require.NotNil(t, events[1].Failure)
	assert.Equal(t, entity.ErrorKindExtraction, events[1].Failure.ErrorKind)

	key := repo.generateKey(testURL)
	assert.Equal(t, time.Hour, mr.TTL(key))

	require.NoError(t, repo.Reset(ctx, testURL))
	assert.False(t, mr.Exists(key))
}

func TestProgressLogRepo_Bounded(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewProgressLogRepo(client, time.Hour)
	ctx := context.Background()

	for i := 0; i < maxLoggedEvents+10; i++ {
		require.NoError(t, repo.Append(ctx, testURL, entity.ProgressEvent{Progress: i}))
	}

	events, err := repo.List(ctx, testURL)
	require.NoError(t, err)
	require.Len(t, events, maxLoggedEvents)
	assert.Equal(t, 10, events[0].Progress)
}
