package coordinators

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/appstate"
	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/pkg/events"
)

// PoseResolver computes the camera motion needed to frame an object. The
// renderer-side implementation reads the current layout; tests use fixed
// poses.
type PoseResolver interface {
	ResolvePose(objectID string) (from CameraPose, to CameraPose, err error)
}

// PoseResolverFunc adapts a function to the PoseResolver interface.
type PoseResolverFunc func(objectID string) (CameraPose, CameraPose, error)

// ResolvePose calls the underlying function.
func (f PoseResolverFunc) ResolvePose(objectID string) (CameraPose, CameraPose, error) {
	return f(objectID)
}

// FocusCoordinator owns the idle -> focusing -> idle state machine for
// object focus. A second focus request while one is in flight is silently
// ignored. The sequence it drives: temporary pause, object-focus-started,
// camera-animation-started, then on the controller's completion
// object-focus-completed and object-selection-changed.
type FocusCoordinator struct {
	*BaseCoordinator
	poses PoseResolver
	state *appstate.State

	mu            sync.Mutex
	focusing      bool
	correlationID string
	objectID      string
	wasPaused     bool
}

// NewFocusCoordinator creates the object-selection coordination handler.
func NewFocusCoordinator(bus *events.Bus, poses PoseResolver, state *appstate.State, logger *zap.Logger) *FocusCoordinator {
	return &FocusCoordinator{
		BaseCoordinator: NewBaseCoordinator("focus", bus, logger),
		poses:           poses,
		state:           state,
	}
}

// Start subscribes the coordinator to its event family.
func (c *FocusCoordinator) Start(ctx context.Context) error {
	if err := c.BaseCoordinator.Start(ctx); err != nil {
		return err
	}
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.ObjectFocusRequested, c.handleRequest, events.SubscribeOptions{Priority: 10}))
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.CameraAnimationCompleted, c.handleAnimationCompleted, events.SubscribeOptions{}))
	return nil
}

func (c *FocusCoordinator) handleRequest(ctx context.Context, ev events.Event) error {
	req, ok := ev.Payload.(FocusRequest)
	if !ok {
		return fmt.Errorf("object-focus-requested carried %T", ev.Payload)
	}

	c.mu.Lock()
	if c.focusing {
		c.mu.Unlock()
		c.Logger().Debug("Ignoring focus request, focus already in flight",
			zap.String("object_id", req.ObjectID))
		return nil
	}
	c.focusing = true
	c.correlationID = ev.CorrelationID
	if c.correlationID == "" {
		c.correlationID = ev.ID
	}
	c.objectID = req.ObjectID
	c.wasPaused = c.state.Snapshot().Paused
	correlationID := c.correlationID
	c.mu.Unlock()

	from, to, err := c.poses.ResolvePose(req.ObjectID)
	if err != nil {
		c.mu.Lock()
		c.reset()
		c.mu.Unlock()
		c.Logger().Warn("Cannot focus object",
			zap.String("object_id", req.ObjectID),
			zap.Error(err))
		return nil
	}

	// The scene pauses for the duration of the focus flight so the target
	// does not drift away from the camera.
	paused := true
	c.emit(ctx, events.NewCorrelated(events.TimeControlChangeRequested, c.Name(), correlationID, TimeControlChangeRequest{
		Paused: &paused,
		Reason: "focus",
	}))

	duration := animationDuration(from, to)
	c.emit(ctx, events.NewCorrelated(events.ObjectFocusStarted, c.Name(), correlationID, FocusStarted{
		ObjectID: req.ObjectID,
		From:     from,
		To:       to,
		Duration: duration,
	}))
	c.emit(ctx, events.NewCorrelated(events.CameraAnimationStarted, c.Name(), correlationID, CameraAnimationStart{
		FromPosition: from.Position,
		ToPosition:   to.Position,
		FromTarget:   from.Target,
		ToTarget:     to.Target,
		Duration:     duration,
		Easing:       "ease-in-out",
		Reason:       "focus",
	}))
	return nil
}

func (c *FocusCoordinator) handleAnimationCompleted(ctx context.Context, ev events.Event) error {
	c.mu.Lock()
	if !c.focusing || ev.CorrelationID != c.correlationID {
		c.mu.Unlock()
		return nil
	}
	objectID := c.objectID
	wasPaused := c.wasPaused
	c.reset()
	c.mu.Unlock()

	c.state.SelectObject(objectID)
	c.emit(ctx, events.NewCorrelated(events.ObjectFocusCompleted, c.Name(), ev.CorrelationID, FocusCompleted{ObjectID: objectID}))
	c.emit(ctx, events.NewCorrelated(events.ObjectSelectionChanged, c.Name(), ev.CorrelationID, SelectionChanged{ObjectID: objectID}))

	// Restore the pause state the focus sequence temporarily imposed.
	if !wasPaused {
		paused := false
		c.emit(ctx, events.NewCorrelated(events.TimeControlChangeRequested, c.Name(), ev.CorrelationID, TimeControlChangeRequest{
			Paused: &paused,
			Reason: "focus-restore",
		}))
	}
	c.Logger().Info("Focus sequence completed", zap.String("object_id", objectID))
	return nil
}

// reset returns the state machine to idle. Caller holds c.mu.
func (c *FocusCoordinator) reset() {
	c.focusing = false
	c.correlationID = ""
	c.objectID = ""
}

// animationDuration scales flight time with camera travel distance, clamped
// to an interactive range.
func animationDuration(from, to CameraPose) time.Duration {
	d := distance(from.Position, to.Position)
	ms := 400 + d*20
	if ms > 2500 {
		ms = 2500
	}
	return time.Duration(ms) * time.Millisecond
}

func distance(a, b models.Vector3) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
