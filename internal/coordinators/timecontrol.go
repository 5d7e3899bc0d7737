package coordinators

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/appstate"
	"github.com/astroviz/orrery/pkg/events"
)

// TimeControlCoordinator applies pause and speed changes. Time control is
// deliberately unsynchronized: it owns no lock over other coordinators and
// serves every request immediately, so pause toggling is never blocked by
// an in-flight transition or focus.
type TimeControlCoordinator struct {
	*BaseCoordinator
	state *appstate.State
}

// NewTimeControlCoordinator creates the time-control handler.
func NewTimeControlCoordinator(bus *events.Bus, state *appstate.State, logger *zap.Logger) *TimeControlCoordinator {
	return &TimeControlCoordinator{
		BaseCoordinator: NewBaseCoordinator("time-control", bus, logger),
		state:           state,
	}
}

// Start subscribes the coordinator to time-control requests.
func (c *TimeControlCoordinator) Start(ctx context.Context) error {
	if err := c.BaseCoordinator.Start(ctx); err != nil {
		return err
	}
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.TimeControlChangeRequested, c.handleRequest, events.SubscribeOptions{Priority: 20}))
	return nil
}

func (c *TimeControlCoordinator) handleRequest(ctx context.Context, ev events.Event) error {
	req, ok := ev.Payload.(TimeControlChangeRequest)
	if !ok {
		return fmt.Errorf("time-control-change-requested carried %T", ev.Payload)
	}

	if req.Paused != nil {
		c.state.SetPaused(*req.Paused)
	}
	if req.TimeScale != nil {
		c.state.SetTimeScale(*req.TimeScale)
	}

	snap := c.state.Snapshot()
	c.emit(ctx, events.NewCorrelated(events.TimeControlChanged, c.Name(), ev.CorrelationID, TimeControlChanged{
		Paused:    snap.Paused,
		TimeScale: snap.TimeScale,
		Reason:    req.Reason,
	}))
	c.Logger().Debug("Time control changed",
		zap.Bool("paused", snap.Paused),
		zap.Float64("time_scale", snap.TimeScale),
		zap.String("reason", req.Reason))
	return nil
}
