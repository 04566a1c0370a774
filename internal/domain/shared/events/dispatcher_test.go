package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/autopay/internal/shared/logger"
)

func testEvent(eventType, aggregate string) BaseEvent {
	return BaseEvent{
		EventID:     "evt_" + aggregate,
		AggregateID: aggregate,
		EventType:   eventType,
		OccurredAt:  time.Unix(1_700_000_000, 0).UTC(),
	}
}

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) add(e DomainEvent) error {
	r.mu.Lock()
	r.seen = append(r.seen, e.GetEventType()+":"+e.GetAggregateID())
	r.mu.Unlock()
	return nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestDispatcher_DeliversToTypedAndWildcardHandlers(t *testing.T) {
	d := NewInMemoryEventDispatcher(10, logger.NewNop())
	typed, all := &recorder{}, &recorder{}
	require.NoError(t, d.Subscribe("payment.processed", NewSimpleEventHandler("payment.processed", typed.add)))
	require.NoError(t, d.Subscribe(AllEvents, NewSimpleEventHandler(AllEvents, all.add)))
	require.NoError(t, d.Start())

	require.NoError(t, d.PublishAll([]DomainEvent{
		testEvent("payment.processed", "sub-1"),
		testEvent("worker.registered", "agent-1"),
	}))
	require.NoError(t, d.Stop())

	assert.Equal(t, []string{"payment.processed:sub-1"}, typed.snapshot())
	assert.Equal(t, []string{"payment.processed:sub-1", "worker.registered:agent-1"}, all.snapshot())
}

func TestDispatcher_PublishRequiresRunning(t *testing.T) {
	d := NewInMemoryEventDispatcher(1, logger.NewNop())
	assert.Error(t, d.Publish(testEvent("x", "y")))
	assert.Error(t, d.Stop())
}

func TestDispatcher_HandlerErrorsAndPanicsAreContained(t *testing.T) {
	d := NewInMemoryEventDispatcher(10, logger.NewNop())
	after := &recorder{}
	require.NoError(t, d.Subscribe("x", NewSimpleEventHandler("x", func(DomainEvent) error { return errors.New("boom") })))
	require.NoError(t, d.Subscribe("x", NewSimpleEventHandler("x", func(DomainEvent) error { panic("bad handler") })))
	require.NoError(t, d.Subscribe("x", NewSimpleEventHandler("x", after.add)))
	require.NoError(t, d.Start())

	require.NoError(t, d.Publish(testEvent("x", "a")))
	require.NoError(t, d.Stop())

	assert.Equal(t, []string{"x:a"}, after.snapshot())
}

func TestDispatcher_SubscribeValidation(t *testing.T) {
	d := NewInMemoryEventDispatcher(10, logger.NewNop())
	h := NewSimpleEventHandler("x", (&recorder{}).add)

	assert.Error(t, d.Subscribe("", h))
	assert.Error(t, d.Subscribe("x", nil))
	assert.NoError(t, d.Subscribe("x", h))
}

func TestCollector(t *testing.T) {
	Record(context.Background(), testEvent("dropped", "a"))
	assert.Nil(t, Collected(context.Background()))

	ctx := WithCollector(context.Background())
	Record(ctx, testEvent("a", "1"))
	Record(ctx, testEvent("b", "2"), testEvent("c", "3"))

	got := Collected(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].GetEventType())
	assert.Equal(t, "c", got[2].GetEventType())
}
