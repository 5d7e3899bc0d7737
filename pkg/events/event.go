// Package events implements the in-process event bus used to decouple UI
// requests, coordination handlers and the layout pipeline. Events form a
// closed, typed set; the envelope mirrors the message format used on the
// external diagnostics bridge.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies one kind of lifecycle event. The set is closed;
// subscribers dispatch on it exhaustively.
type EventType string

const (
	ViewModeChangeRequested EventType = "view-mode-change-requested"
	ViewModeChangeStarted   EventType = "view-mode-change-started"
	ViewModeChangeCompleted EventType = "view-mode-change-completed"
	ViewModeChangeFailed    EventType = "view-mode-change-failed"

	ObjectFocusRequested EventType = "object-focus-requested"
	ObjectFocusStarted   EventType = "object-focus-started"
	ObjectFocusCompleted EventType = "object-focus-completed"

	ObjectSelectionChanged EventType = "object-selection-changed"
	ObjectHoverChanged     EventType = "object-hover-changed"

	CameraAnimationStarted   EventType = "camera-animation-started"
	CameraAnimationCompleted EventType = "camera-animation-completed"

	TimeControlChangeRequested EventType = "time-control-change-requested"
	TimeControlChanged         EventType = "time-control-changed"

	CalculationRequested EventType = "calculation-requested"
	CalculationStarted   EventType = "calculation-started"
	CalculationCompleted EventType = "calculation-completed"
	CalculationFailed    EventType = "calculation-failed"

	CacheInvalidated             EventType = "cache-invalidated"
	SystemError                  EventType = "system-error"
	PerformanceThresholdExceeded EventType = "performance-threshold-exceeded"
)

// Event is the immutable envelope delivered to listeners. CorrelationID ties
// a *-requested event to its eventual *-completed or *-failed counterpart.
// Payload is the event-kind-specific struct owned by the emitting package.
type Event struct {
	ID            string
	Type          EventType
	Source        string
	Timestamp     time.Time
	CorrelationID string
	Payload       any
}

// New builds an event envelope with a fresh id and timestamp.
func New(eventType EventType, source string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewCorrelated builds an event tied to an existing correlation id. An empty
// correlation id is replaced with a fresh one so every causal chain has an
// anchor.
func NewCorrelated(eventType EventType, source, correlationID string, payload any) Event {
	ev := New(eventType, source, payload)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ev.CorrelationID = correlationID
	return ev
}
