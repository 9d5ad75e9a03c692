package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/user/recipe-service/internal/repository"
	"github.com/user/recipe-service/pkg/utils"
)

const inFlightPrefix = "recipe:inflight:"

// releaseScript deletes the lock only when it still holds the caller's token,
// so an expired lock re-acquired by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InFlightRepoImpl provides a concrete implementation for the InFlightRepository interface using Redis.
type InFlightRepoImpl struct {
	client *redis.Client
}

// NewInFlightRepo creates a new instance of InFlightRepoImpl.
func NewInFlightRepo(client *redis.Client) *InFlightRepoImpl {
	return &InFlightRepoImpl{client: client}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *InFlightRepoImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", inFlightPrefix, utils.HashURL(url))
}

// Acquire takes the lock with SET NX and a TTL. The TTL bounds how long a
// crashed instance can block a URL.
func (r *InFlightRepoImpl) Acquire(ctx context.Context, url string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.generateKey(url), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", repository.ErrLockNotAcquired
	}
	return token, nil
}

// Release drops the lock if token still owns it.
func (r *InFlightRepoImpl) Release(ctx context.Context, url, token string) error {
	return releaseScript.Run(ctx, r.client, []string{r.generateKey(url)}, token).Err()
}
