package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token so an
// expired lock re-acquired by another owner is left alone.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisClient is the subset of *redis.Client used by RedisLocker.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisOption customizes a RedisLocker.
type RedisOption func(*RedisLocker)

// WithRetryInterval sets the polling interval while a key is held elsewhere.
func WithRetryInterval(interval time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if interval > 0 {
			l.retryInterval = interval
		}
	}
}

// WithKeyPrefix namespaces lock keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

// RedisLocker implements Locker with SET NX PX and a token checked release.
type RedisLocker struct {
	client        RedisClient
	ttl           time.Duration
	retryInterval time.Duration
	prefix        string
	token         func() string
}

// NewRedisLocker returns a locker whose leases expire after ttl.
func NewRedisLocker(client RedisClient, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	locker := &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: 25 * time.Millisecond,
		prefix:        "reservations:lock:",
		token:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(locker)
	}
	return locker
}

// Acquire polls SET NX until the key is free or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := l.prefix + key
	token := l.token()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("locking: acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	var (
		once       sync.Once
		releaseErr error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			err := l.client.Eval(ctx, releaseScript, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				releaseErr = fmt.Errorf("locking: release %s: %w", key, err)
			}
		})
		return releaseErr
	}, nil
}
