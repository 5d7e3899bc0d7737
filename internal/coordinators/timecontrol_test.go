package coordinators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/appstate"
	"github.com/astroviz/orrery/pkg/events"
)

func emitTimeControl(t *testing.T, bus *events.Bus, paused *bool, scale *float64, reason string) {
	t.Helper()
	require.NoError(t, bus.Emit(context.Background(), events.New(
		events.TimeControlChangeRequested, "test",
		TimeControlChangeRequest{Paused: paused, TimeScale: scale, Reason: reason})))
}

func TestTimeControl(t *testing.T) {
	bus := newTestBus()
	state := appstate.New()
	c := NewTimeControlCoordinator(bus, state, zap.NewNop())
	startCoordinator(t, c)
	rec := record(bus)

	t.Run("applies pause", func(t *testing.T) {
		paused := true
		emitTimeControl(t, bus, &paused, nil, "user")
		assert.True(t, state.Snapshot().Paused)
	})

	t.Run("applies time scale independently", func(t *testing.T) {
		scale := 4.0
		emitTimeControl(t, bus, nil, &scale, "user")
		snap := state.Snapshot()
		assert.Equal(t, 4.0, snap.TimeScale)
		assert.True(t, snap.Paused, "an absent pause field leaves pause untouched")
	})

	t.Run("ignores a non-positive scale", func(t *testing.T) {
		scale := -1.0
		emitTimeControl(t, bus, nil, &scale, "user")
		assert.Equal(t, 4.0, state.Snapshot().TimeScale)
	})

	t.Run("reports every change", func(t *testing.T) {
		changed, ok := rec.last(events.TimeControlChanged)
		require.True(t, ok)
		payload := changed.Payload.(TimeControlChanged)
		assert.True(t, payload.Paused)
		assert.Equal(t, 4.0, payload.TimeScale)
		assert.Equal(t, "user", payload.Reason)
		assert.Equal(t, 3, rec.count(events.TimeControlChanged))
	})
}
