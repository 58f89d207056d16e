package messaging

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

type testEvent struct {
	shared.BaseEvent
}

func (e *testEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"aggregate_id": e.AggregateID()}
}

func newTestEvent(eventType shared.EventType) *testEvent {
	return &testEvent{BaseEvent: shared.NewBaseEvent(eventType, "agg-1")}
}

func syncBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	}
}

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	var calls int64
	err := bus.Subscribe("student.admitted", func(e shared.Event) error {
		atomic.AddInt64(&calls, 1)
		assert.Equal(t, shared.EventType("student.admitted"), e.EventType())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(newTestEvent("student.admitted")))
	require.NoError(t, bus.Publish(newTestEvent("student.promoted")))

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	var calls int64
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		atomic.AddInt64(&calls, 1)
		return nil
	}))

	require.NoError(t, bus.Publish(newTestEvent("student.admitted")))
	require.NoError(t, bus.Publish(newTestEvent("config.category_changed")))

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestInMemoryEventBus_NilHandler(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe("student.admitted", nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close()) // idempotent

	err := bus.Publish(newTestEvent("student.admitted"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe("student.admitted", func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBus_AsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
		EnableMetrics:  true,
	})

	var calls int64
	require.NoError(t, bus.Subscribe("result.saved", func(shared.Event) error {
		atomic.AddInt64(&calls, 1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(newTestEvent("result.saved")))
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) == 5
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())
}

func TestEventBusMetrics_Snapshot(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	require.NoError(t, bus.Subscribe("result.saved", func(shared.Event) error { return nil }))
	require.NoError(t, bus.Publish(newTestEvent("result.saved")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(1), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}
