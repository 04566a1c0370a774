package cache

import (
	"context"
	"sync"

	"github.com/orris-inc/autopay/internal/application/engine"
)

var _ engine.Locker = (*LocalPaymentLocker)(nil)

// LocalPaymentLocker is the single-process Locker used when Redis is disabled.
type LocalPaymentLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalPaymentLocker() *LocalPaymentLocker {
	return &LocalPaymentLocker{held: make(map[string]struct{})}
}

func (l *LocalPaymentLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, engine.ErrLockHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
