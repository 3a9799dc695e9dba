// Package lock provides the cluster-wide mutual exclusion used by scheduled jobs.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "lock:"
	retryBackoff = 100 * time.Millisecond
)

// ErrNotAcquired is returned when another holder owns the lock.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out named locks.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lock, error)
}

// Lock is a held lock. Release is safe to call after the TTL elapsed.
type Lock interface {
	Release(ctx context.Context) error
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker builds a locker on client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire retries until the lock is taken or ctx is done, in which case
// ErrNotAcquired is returned.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (Lock, error) {
	key := keyPrefix + name
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrNotAcquired
			}
			return nil, fmt.Errorf("acquire %s: %w", name, err)
		}
		if ok {
			return &redisLock{client: l.client, key: key, token: token}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrNotAcquired
		case <-time.After(retryBackoff):
		}
	}
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
