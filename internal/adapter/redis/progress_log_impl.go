package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/pkg/utils"
)

const (
	progressLogPrefix = "recipe:progress:"
	// maxLoggedEvents keeps the list bounded even if a run misbehaves.
	maxLoggedEvents = 64
)

// ProgressLogRepoImpl provides a concrete implementation for the ProgressLogRepository interface using Redis Lists.
type ProgressLogRepoImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressLogRepo creates a new instance of ProgressLogRepoImpl. Each log
// expires ttl after its last append.
func NewProgressLogRepo(client *redis.Client, ttl time.Duration) *ProgressLogRepoImpl {
	return &ProgressLogRepoImpl{client: client, ttl: ttl}
}

func (r *ProgressLogRepoImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", progressLogPrefix, utils.HashURL(url))
}

// Append pushes an event to the right side of the list and refreshes its expiry.
func (r *ProgressLogRepoImpl) Append(ctx context.Context, url string, event entity.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := r.generateKey(url)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -maxLoggedEvents, -1)
	pipe.Expire(ctx, key, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the logged events in the order they were appended.
func (r *ProgressLogRepoImpl) List(ctx context.Context, url string) ([]entity.ProgressEvent, error) {
	items, err := r.client.LRange(ctx, r.generateKey(url), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	events := make([]entity.ProgressEvent, 0, len(items))
	for _, item := range items {
		var ev entity.ProgressEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode progress event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Reset clears the log of a URL.
func (r *ProgressLogRepoImpl) Reset(ctx context.Context, url string) error {
	return r.client.Del(ctx, r.generateKey(url)).Err()
}
