// Package pipeline wraps the orbital calculation service with staged
// execution, progress reporting, cancellation, timeouts and lifecycle
// events.
package pipeline

import (
	"time"

	"github.com/astroviz/orrery/internal/mechanics"
	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
)

// CalculationRequest is the payload of a calculation-requested event and the
// input to Run.
type CalculationRequest struct {
	SystemID string
	Objects  []models.CelestialObject
	Mode     viewmode.Mode
	Paused   bool
}

// CalculationStarted is the payload of a calculation-started event.
type CalculationStarted struct {
	RequestID   string
	SystemID    string
	Mode        viewmode.Mode
	ObjectCount int
}

// CalculationCompleted is the payload of a calculation-completed event.
// Renderers re-read the layout from the orchestrator on receiving it; the
// payload carries the operational metadata.
type CalculationCompleted struct {
	RequestID   string
	SystemID    string
	Mode        viewmode.Mode
	ObjectCount int
	Duration    time.Duration
	CacheHit    bool
	Warnings    []mechanics.Warning
}

// CalculationFailed is the payload of a calculation-failed event. Outcome
// distinguishes cancellation and timeout from genuine failure so callers can
// decide whether to retry.
type CalculationFailed struct {
	RequestID string
	SystemID  string
	Mode      viewmode.Mode
	Outcome   Outcome
	Error     string
}
