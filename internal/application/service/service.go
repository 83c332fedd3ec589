package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/port"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DefaultLockTTL bounds how long a crashed holder blocks a sheet or quote
const DefaultLockTTL = 30 * time.Second

func sheetLockKey(sheetID int64) string {
	return fmt.Sprintf("reconcile:sheet:%d", sheetID)
}

func quoteLockKey(quoteID int64) string {
	return fmt.Sprintf("reconcile:quote:%d", quoteID)
}

// withLock runs fn while holding key
func withLock(ctx context.Context, locker port.Locker, key string, ttl time.Duration, logger Logger, fn func() error) error {
	lock, err := locker.Obtain(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, port.ErrLockHeld) {
			return fmt.Errorf("%w: %s", ErrLockNotObtained, key)
		}
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to release lock", "key", key, "error", err)
		}
	}()

	return fn()
}
