package lock

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/port"
)

// LocalLocker implements port.Locker within a single process. It is used when
// no redis address is configured. Keys expire after their ttl like redis keys.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	seq   uint64
	nowFn func() time.Time
}

type localEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewLocalLocker creates an empty in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]localEntry),
		nowFn: time.Now,
	}
}

// Obtain takes key for ttl or returns port.ErrLockHeld without waiting
func (l *LocalLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (port.Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
		return nil, port.ErrLockHeld
	}

	l.seq++
	l.held[key] = localEntry{token: l.seq, expiresAt: now.Add(ttl)}
	return &localLock{owner: l, key: key, token: l.seq}, nil
}

func (l *LocalLocker) release(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// an expired lock may have been taken by someone else
	if e, ok := l.held[key]; ok && e.token == token {
		delete(l.held, key)
	}
}

type localLock struct {
	owner *LocalLocker
	key   string
	token uint64
	once  sync.Once
}

// Release frees the key; releasing twice is a no-op
func (l *localLock) Release(context.Context) error {
	l.once.Do(func() { l.owner.release(l.key, l.token) })
	return nil
}

var _ port.Locker = (*LocalLocker)(nil)
