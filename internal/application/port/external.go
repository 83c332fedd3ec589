package port

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by Locker.Obtain when another holder owns the key
var ErrLockHeld = errors.New("lock held by another process")

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes work on a key across processes
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
