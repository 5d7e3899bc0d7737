// Package appstate holds the viewer's shared interaction state: current
// view mode, selection, hover and time control. The state is an explicit
// injected object with controlled mutation operations, not a package-level
// singleton; coordinators update it when operations complete.
package appstate

import (
	"sync"

	"github.com/astroviz/orrery/internal/viewmode"
)

// Snapshot is an immutable copy of the interaction state.
type Snapshot struct {
	Mode       viewmode.Mode `json:"mode"`
	SelectedID string        `json:"selectedId,omitempty"`
	HoveredID  string        `json:"hoveredId,omitempty"`
	Paused     bool          `json:"paused"`
	TimeScale  float64       `json:"timeScale"`
}

// State is the mutable interaction state shared by coordinators and the HTTP
// surface.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New creates a state starting in the default view mode at normal speed.
func New() *State {
	return &State{snap: Snapshot{Mode: viewmode.DefaultMode, TimeScale: 1.0}}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetMode records a completed view-mode change.
func (s *State) SetMode(mode viewmode.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Mode = mode
}

// SelectObject records the selected object; an empty id clears the
// selection.
func (s *State) SelectObject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.SelectedID = id
}

// SetHovered records the hovered object. Hover is never blocked by
// coordination locks.
func (s *State) SetHovered(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.HoveredID = id
}

// SetPaused records the time-control pause flag and returns the previous
// value, letting a focus sequence restore it afterwards.
func (s *State) SetPaused(paused bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.snap.Paused
	s.snap.Paused = paused
	return prev
}

// SetTimeScale records the simulation speed multiplier.
func (s *State) SetTimeScale(scale float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scale > 0 {
		s.snap.TimeScale = scale
	}
}
