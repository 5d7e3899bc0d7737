package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testType EventType = "view-mode-change-requested"

func TestNewBus(t *testing.T) {
	t.Run("applies default thresholds when none given", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		assert.Equal(t, DefaultThresholds(), bus.thresholds)
	})

	t.Run("keeps explicit thresholds", func(t *testing.T) {
		th := Thresholds{MaxSubscribers: 5, MaxAvgProcessing: time.Second, MaxErrorRate: 0.5}
		bus := NewBus(nil, th)
		assert.Equal(t, th, bus.thresholds)
	})
}

func TestEmitDeliveryOrder(t *testing.T) {
	t.Run("delivers by descending priority", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		var order []int

		for _, p := range []int{1, 3, 2} {
			priority := p
			bus.Subscribe(testType, func(_ context.Context, _ Event) error {
				order = append(order, priority)
				return nil
			}, SubscribeOptions{Priority: priority})
		}

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.Equal(t, []int{3, 2, 1}, order)
	})

	t.Run("equal priorities run in subscription order", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		var order []string
		for _, name := range []string{"a", "b", "c"} {
			n := name
			bus.Subscribe(testType, func(_ context.Context, _ Event) error {
				order = append(order, n)
				return nil
			}, SubscribeOptions{})
		}

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("sync listeners complete before async listeners start", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		var mu sync.Mutex
		var order []string

		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			mu.Lock()
			order = append(order, "async")
			mu.Unlock()
			return nil
		}, SubscribeOptions{Async: true, Priority: 100})
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			mu.Lock()
			order = append(order, "sync")
			mu.Unlock()
			return nil
		}, SubscribeOptions{Priority: -100})

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))

		// The async listener outranks the sync one on priority, yet still
		// runs after the whole sync group.
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"sync", "async"}, order)
	})

	t.Run("emit awaits the async group", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		done := false
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			time.Sleep(10 * time.Millisecond)
			done = true
			return nil
		}, SubscribeOptions{Async: true})

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.True(t, done)
	})
}

func TestSubscribeOnce(t *testing.T) {
	bus := NewBus(zap.NewNop(), Thresholds{})
	calls := 0
	bus.Subscribe(testType, func(_ context.Context, _ Event) error {
		calls++
		return nil
	}, SubscribeOptions{Once: true})

	require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
	require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop(), Thresholds{})
	calls := 0
	unsub := bus.Subscribe(testType, func(_ context.Context, _ Event) error {
		calls++
		return nil
	}, SubscribeOptions{})

	require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
	unsub()
	require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
	assert.Equal(t, 1, calls)
}

func TestErrorIsolation(t *testing.T) {
	t.Run("a failing listener does not stop later listeners", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		reached := false
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			return fmt.Errorf("listener exploded")
		}, SubscribeOptions{Priority: 10})
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			reached = true
			return nil
		}, SubscribeOptions{})

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.True(t, reached)
		assert.Equal(t, uint64(1), bus.Statistics().ErrorCount)
	})

	t.Run("a panicking listener is recovered and counted", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		reached := false
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			panic("listener panic")
		}, SubscribeOptions{Priority: 10})
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			reached = true
			return nil
		}, SubscribeOptions{})

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.True(t, reached)
		assert.Equal(t, uint64(1), bus.Statistics().ErrorCount)
	})
}

func TestReentrantEmit(t *testing.T) {
	t.Run("nested emit runs after the current listener set", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		const followUp EventType = "view-mode-change-started"
		var order []string

		bus.Subscribe(testType, func(ctx context.Context, _ Event) error {
			order = append(order, "first")
			// Queued, not delivered inline.
			return bus.Emit(ctx, New(followUp, "test", nil))
		}, SubscribeOptions{Priority: 10})
		bus.Subscribe(testType, func(_ context.Context, _ Event) error {
			order = append(order, "second")
			return nil
		}, SubscribeOptions{})
		bus.Subscribe(followUp, func(_ context.Context, _ Event) error {
			order = append(order, "nested")
			return nil
		}, SubscribeOptions{})

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.Equal(t, []string{"first", "second", "nested"}, order)
	})

	t.Run("queued events may queue further events", func(t *testing.T) {
		bus := NewBus(zap.NewNop(), Thresholds{})
		const second EventType = "b"
		const third EventType = "c"
		var order []string

		bus.Subscribe(testType, func(ctx context.Context, _ Event) error {
			order = append(order, "a")
			return bus.Emit(ctx, New(second, "test", nil))
		}, SubscribeOptions{})
		bus.Subscribe(second, func(ctx context.Context, _ Event) error {
			order = append(order, "b")
			return bus.Emit(ctx, New(third, "test", nil))
		}, SubscribeOptions{})
		bus.Subscribe(third, func(_ context.Context, _ Event) error {
			order = append(order, "c")
			return nil
		}, SubscribeOptions{})

		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus(zap.NewNop(), Thresholds{})
	var seen []EventType
	bus.SubscribeAll(func(_ context.Context, ev Event) error {
		seen = append(seen, ev.Type)
		return nil
	}, SubscribeOptions{})

	require.NoError(t, bus.Emit(context.Background(), New("a", "test", nil)))
	require.NoError(t, bus.Emit(context.Background(), New("b", "test", nil)))
	assert.Equal(t, []EventType{"a", "b"}, seen)
}

func TestStatisticsAndHealth(t *testing.T) {
	bus := NewBus(zap.NewNop(), Thresholds{MaxSubscribers: 10, MaxAvgProcessing: time.Second, MaxErrorRate: 0.4})

	bus.Subscribe(testType, func(_ context.Context, _ Event) error { return nil }, SubscribeOptions{})
	failing := bus.Subscribe(testType, func(_ context.Context, _ Event) error {
		return fmt.Errorf("boom")
	}, SubscribeOptions{})

	require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
	stats := bus.Statistics()
	assert.Equal(t, uint64(1), stats.EventsProcessed)
	assert.Equal(t, uint64(1), stats.ErrorCount)
	assert.Equal(t, 2, stats.SubscriberCount)

	// One error per event exceeds the 0.4 error-rate threshold.
	assert.False(t, bus.Healthy())
	assert.Equal(t, "unhealthy", string(bus.Check(context.Background()).Status))

	failing()
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Emit(context.Background(), New(testType, "test", nil)))
	}
	assert.True(t, bus.Healthy())
	assert.Equal(t, "healthy", string(bus.Check(context.Background()).Status))
}

func TestCorrelation(t *testing.T) {
	t.Run("correlated event carries the given id", func(t *testing.T) {
		ev := NewCorrelated(testType, "test", "corr-1", nil)
		assert.Equal(t, "corr-1", ev.CorrelationID)
		assert.NotEmpty(t, ev.ID)
	})

	t.Run("empty correlation id is replaced with a fresh one", func(t *testing.T) {
		ev := NewCorrelated(testType, "test", "", nil)
		assert.NotEmpty(t, ev.CorrelationID)
	})
}
