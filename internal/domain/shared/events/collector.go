package events

import (
	"context"
	"sync"
)

type collectorKey struct{}

type collector struct {
	mu     sync.Mutex
	events []DomainEvent
}

// WithCollector returns a context that buffers events recorded under it.
// The caller publishes them once the surrounding transaction has committed,
// so rolled-back work never announces anything.
func WithCollector(ctx context.Context) context.Context {
	return context.WithValue(ctx, collectorKey{}, &collector{})
}

// Record buffers evts on the context collector. Without a collector the
// events are discarded.
func Record(ctx context.Context, evts ...DomainEvent) {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, evts...)
	c.mu.Unlock()
}

// Collected returns the events recorded under ctx in recording order.
func Collected(ctx context.Context) []DomainEvent {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}
