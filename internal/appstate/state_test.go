package appstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astroviz/orrery/internal/viewmode"
)

func TestNew(t *testing.T) {
	state := New()
	snap := state.Snapshot()
	assert.Equal(t, viewmode.DefaultMode, snap.Mode)
	assert.Equal(t, 1.0, snap.TimeScale)
	assert.False(t, snap.Paused)
	assert.Empty(t, snap.SelectedID)
	assert.Empty(t, snap.HoveredID)
}

func TestMutations(t *testing.T) {
	state := New()

	t.Run("mode", func(t *testing.T) {
		state.SetMode(viewmode.ModeProfile)
		assert.Equal(t, viewmode.ModeProfile, state.Snapshot().Mode)
	})

	t.Run("selection clears on empty id", func(t *testing.T) {
		state.SelectObject("earth")
		assert.Equal(t, "earth", state.Snapshot().SelectedID)
		state.SelectObject("")
		assert.Empty(t, state.Snapshot().SelectedID)
	})

	t.Run("pause returns the previous value", func(t *testing.T) {
		assert.False(t, state.SetPaused(true))
		assert.True(t, state.SetPaused(true))
		assert.True(t, state.SetPaused(false))
	})

	t.Run("time scale rejects non-positive values", func(t *testing.T) {
		state.SetTimeScale(8)
		state.SetTimeScale(0)
		state.SetTimeScale(-2)
		assert.Equal(t, 8.0, state.Snapshot().TimeScale)
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	state := New()
	snap := state.Snapshot()
	state.SetHovered("mars")
	assert.Empty(t, snap.HoveredID, "a taken snapshot must not change afterwards")
	assert.Equal(t, "mars", state.Snapshot().HoveredID)
}
