package messaging

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activebreak/activebreak/internal/domain/shared"
	"github.com/activebreak/activebreak/pkg/logger"
)

func newTestBus(async bool) *InMemoryEventBus {
	return NewInMemoryEventBus(Config{
		AsyncMode:      async,
		WorkerPoolSize: 4,
		Logger:         logger.New(logger.Options{Output: io.Discard}),
	})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := newTestBus(false)
	defer bus.Close()

	var mu sync.Mutex
	var got []string

	err := bus.Subscribe(shared.EventBreakCompleted, func(ev shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "typed:"+ev.AggregateID())
		return nil
	})
	require.NoError(t, err)

	err = bus.SubscribeAll(func(ev shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "all:"+ev.AggregateID())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(shared.NewBreakCompletedEvent("user-1", "break-1", 75, 75, 1, false)))
	require.NoError(t, bus.Publish(shared.NewSessionStartedEvent("user-1", "sess-1")))

	assert.ElementsMatch(t, []string{"typed:break-1", "all:break-1", "all:sess-1"}, got)
}

func TestInMemoryEventBus_AsyncDeliversAll(t *testing.T) {
	bus := newTestBus(true)

	var mu sync.Mutex
	count := 0

	err := bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewSessionStartedEvent("user-1", "sess-1")))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())
	assert.Equal(t, 20, count)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(20), snap.TotalPublished)
	assert.Equal(t, int64(20), snap.TotalExecutions)
	assert.Equal(t, 1.0, snap.SuccessRate)
}

func TestInMemoryEventBus_HandlerErrorDoesNotPropagate(t *testing.T) {
	bus := newTestBus(false)
	defer bus.Close()

	err := bus.SubscribeAll(func(shared.Event) error {
		return errors.New("boom")
	})
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(shared.NewSessionStartedEvent("user-1", "sess-1")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Failures)
}

func TestInMemoryEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newTestBus(false)
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewSessionStartedEvent("user-1", "sess-1"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventSessionStarted, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
