// AngelaMos | 2026
// lock.go

package segmentation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "segmenter:lock:segmentation:"

var ErrAlreadyRunning = errors.New("segmentation already running for this scope")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker guards a scope so only one run per scope executes at a time.
type Locker interface {
	Acquire(ctx context.Context, scope string) (release func(context.Context) error, err error)
}

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire takes the lock for scope. The returned release only deletes the key
// while this holder still owns it, so an expired lock taken over by another
// run is left alone.
func (l *RedisLocker) Acquire(
	ctx context.Context,
	scope string,
) (func(context.Context) error, error) {
	key := lockKeyPrefix + scope
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release run lock: %w", err)
		}
		return nil
	}

	return release, nil
}

func scopeOf(ownerID string) string {
	if ownerID == "" {
		return "all"
	}
	return ownerID
}
