package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig tunes how long Obtain keeps retrying a held key
type RedisConfig struct {
	RetryCount   int
	RetryBackoff time.Duration
}

// RedisLocker implements port.Locker on top of redislock
type RedisLocker struct {
	client *redislock.Client
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisLocker creates a locker backed by the given redis client
func NewRedisLocker(rdb redis.UniversalClient, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		cfg:    cfg,
		logger: logger,
	}
}

// Obtain tries to take key for ttl. A key held elsewhere yields port.ErrLockHeld
// once the retries are used up.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (port.Lock, error) {
	opts := &redislock.Options{}
	if l.cfg.RetryCount > 0 {
		opts.RetryStrategy = redislock.LimitRetry(redislock.LinearBackoff(l.cfg.RetryBackoff), l.cfg.RetryCount)
	}

	lk, err := l.client.Obtain(ctx, key, ttl, opts)
	if err != nil {
		err = mapObtainError(err)
		if !errors.Is(err, port.ErrLockHeld) {
			l.logger.Error("Failed to obtain redis lock", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}

	l.logger.Debug("Obtained redis lock", zap.String("key", key), zap.Duration("ttl", ttl))
	return &redisLock{lock: lk}, nil
}

func mapObtainError(err error) error {
	if errors.Is(err, redislock.ErrNotObtained) {
		return port.ErrLockHeld
	}
	return fmt.Errorf("failed to obtain lock: %w", err)
}

type redisLock struct {
	lock *redislock.Lock
}

// Release frees the key. A lock that already expired is not an error.
func (r *redisLock) Release(ctx context.Context) error {
	if err := r.lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

var _ port.Locker = (*RedisLocker)(nil)
