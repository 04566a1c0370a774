package engine

import (
	"context"
	"errors"
)

// ErrLockHeld is returned by a Locker when another holder owns the key.
var ErrLockHeld = errors.New("lock is held by another caller")

// Locker serializes payment processing per subscription, including across
// processes that share a backing store.
type Locker interface {
	// Acquire returns a release func, or ErrLockHeld when the key is taken.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
