package coordinators

import (
	"time"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
)

// ViewModeChangeRequest asks for a transition to another view mode for the
// named system.
type ViewModeChangeRequest struct {
	SystemID string
	Mode     string
}

// ViewModeChangeStarted announces an accepted transition and what it
// entails.
type ViewModeChangeStarted struct {
	SystemID        string
	From            viewmode.Mode
	To              viewmode.Mode
	InvalidateCache bool
	ResetCamera     bool
}

// ViewModeChangeCompleted announces a finished transition.
type ViewModeChangeCompleted struct {
	SystemID string
	Mode     viewmode.Mode
	Duration time.Duration
}

// ViewModeChangeFailed announces a transition that could not finish.
type ViewModeChangeFailed struct {
	SystemID string
	Mode     viewmode.Mode
	Error    string
}

// CacheInvalidation is the payload of a cache-invalidated event.
type CacheInvalidation struct {
	Reason string
}

// FocusRequest asks the camera to focus an object.
type FocusRequest struct {
	ObjectID string
}

// CameraPose is a camera position/target pair in scene space.
type CameraPose struct {
	Position models.Vector3
	Target   models.Vector3
}

// FocusStarted announces an accepted focus operation with the camera motion
// it requires.
type FocusStarted struct {
	ObjectID string
	From     CameraPose
	To       CameraPose
	Duration time.Duration
}

// FocusCompleted announces a finished focus operation.
type FocusCompleted struct {
	ObjectID string
}

// SelectionChanged announces the new selection after a focus sequence.
type SelectionChanged struct {
	ObjectID string
}

// HoverChanged announces a hover change; never serialized behind
// coordination locks.
type HoverChanged struct {
	ObjectID string
}

// CameraAnimationStart instructs the external camera controller.
type CameraAnimationStart struct {
	FromPosition models.Vector3
	ToPosition   models.Vector3
	FromTarget   models.Vector3
	ToTarget     models.Vector3
	Duration     time.Duration
	Easing       string
	Reason       string
}

// CameraAnimationComplete reports the controller's final camera state.
type CameraAnimationComplete struct {
	FinalPosition  models.Vector3
	FinalTarget    models.Vector3
	ActualDuration time.Duration
	Reason         string
}

// TimeControlChangeRequest asks for a pause state or speed change. Nil
// fields are left untouched.
type TimeControlChangeRequest struct {
	Paused    *bool
	TimeScale *float64
	Reason    string
}

// TimeControlChanged reports the resulting time-control state.
type TimeControlChanged struct {
	Paused    bool
	TimeScale float64
	Reason    string
}

// PerformanceExceeded reports a metric crossing its threshold.
type PerformanceExceeded struct {
	Metric    string
	Value     float64
	Threshold float64
}

// Severity classifies a system error report.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// SystemErrorReport is the payload of a system-error event. Escalated marks
// reports the recovery coordinator has already re-emitted for user display.
type SystemErrorReport struct {
	Component   string
	Severity    Severity
	Recoverable bool
	Message     string
	Escalated   bool
}
