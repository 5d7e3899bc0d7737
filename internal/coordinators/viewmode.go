package coordinators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/appstate"
	"github.com/astroviz/orrery/internal/pipeline"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/api"
	"github.com/astroviz/orrery/pkg/events"
)

// LayoutCache is the slice of the pipeline the coordinator invalidates on a
// mode change.
type LayoutCache interface {
	ClearCache()
}

// ViewModeCoordinator owns the idle -> transitioning -> idle state machine
// for view-mode changes. Only one transition is in flight system-wide; a
// request arriving mid-transition is silently ignored, observable only by
// the absence of a started event.
type ViewModeCoordinator struct {
	*BaseCoordinator
	loader api.SystemLoader
	cache  LayoutCache
	state  *appstate.State

	mu            sync.Mutex
	transitioning bool
	correlationID string
	target        viewmode.Mode
	systemID      string
	startedAt     time.Time
}

// NewViewModeCoordinator creates the view-mode coordination handler.
func NewViewModeCoordinator(bus *events.Bus, loader api.SystemLoader, cache LayoutCache, state *appstate.State, logger *zap.Logger) *ViewModeCoordinator {
	return &ViewModeCoordinator{
		BaseCoordinator: NewBaseCoordinator("view-mode", bus, logger),
		loader:          loader,
		cache:           cache,
		state:           state,
	}
}

// Start subscribes the coordinator to its event family.
func (c *ViewModeCoordinator) Start(ctx context.Context) error {
	if err := c.BaseCoordinator.Start(ctx); err != nil {
		return err
	}
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.ViewModeChangeRequested, c.handleRequest, events.SubscribeOptions{Priority: 10}))
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.CalculationCompleted, c.handleCalculationCompleted, events.SubscribeOptions{}))
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.CalculationFailed, c.handleCalculationFailed, events.SubscribeOptions{}))
	return nil
}

func (c *ViewModeCoordinator) handleRequest(ctx context.Context, ev events.Event) error {
	req, ok := ev.Payload.(ViewModeChangeRequest)
	if !ok {
		return fmt.Errorf("view-mode-change-requested carried %T", ev.Payload)
	}

	mode, known := viewmode.Parse(req.Mode)
	if !known {
		c.Logger().Warn("Rejecting unknown view mode", zap.String("mode", req.Mode))
		return nil
	}

	c.mu.Lock()
	if c.transitioning {
		c.mu.Unlock()
		c.Logger().Debug("Ignoring view-mode request, transition already in flight",
			zap.String("requested", req.Mode))
		return nil
	}
	from := c.state.Snapshot().Mode
	c.transitioning = true
	c.correlationID = ev.CorrelationID
	if c.correlationID == "" {
		c.correlationID = ev.ID
	}
	c.target = mode
	c.systemID = req.SystemID
	c.startedAt = time.Now()
	correlationID := c.correlationID
	c.mu.Unlock()

	system, err := c.loader.LoadSystem(ctx, mode, req.SystemID)
	if err != nil || system == nil {
		if err == nil {
			err = fmt.Errorf("system %q not found", req.SystemID)
		}
		c.fail(ctx, correlationID, mode, req.SystemID, err)
		return nil
	}

	// A mode switch changes every scaling constant, so cached layouts for
	// other fingerprints stay valid; the camera resets when the layout
	// geometry class changes.
	started := ViewModeChangeStarted{
		SystemID:        req.SystemID,
		From:            from,
		To:              mode,
		InvalidateCache: from != mode,
		ResetCamera:     isSchematic(from) != isSchematic(mode),
	}
	c.emit(ctx, events.NewCorrelated(events.ViewModeChangeStarted, c.Name(), correlationID, started))

	if started.InvalidateCache {
		c.cache.ClearCache()
		c.emit(ctx, events.NewCorrelated(events.CacheInvalidated, c.Name(), correlationID, CacheInvalidation{
			Reason: fmt.Sprintf("view mode change %s -> %s", from, mode),
		}))
	}

	c.emit(ctx, events.NewCorrelated(events.CalculationRequested, c.Name(), correlationID, pipeline.CalculationRequest{
		SystemID: system.ID,
		Objects:  system.Objects,
		Mode:     mode,
		Paused:   c.state.Snapshot().Paused,
	}))
	return nil
}

func (c *ViewModeCoordinator) handleCalculationCompleted(ctx context.Context, ev events.Event) error {
	c.mu.Lock()
	if !c.transitioning || ev.CorrelationID != c.correlationID {
		c.mu.Unlock()
		return nil
	}
	mode := c.target
	systemID := c.systemID
	duration := time.Since(c.startedAt)
	c.reset()
	c.mu.Unlock()

	c.state.SetMode(mode)
	c.emit(ctx, events.NewCorrelated(events.ViewModeChangeCompleted, c.Name(), ev.CorrelationID, ViewModeChangeCompleted{
		SystemID: systemID,
		Mode:     mode,
		Duration: duration,
	}))
	c.Logger().Info("View-mode transition completed",
		zap.String("mode", string(mode)),
		zap.Duration("duration", duration))
	return nil
}

func (c *ViewModeCoordinator) handleCalculationFailed(ctx context.Context, ev events.Event) error {
	c.mu.Lock()
	if !c.transitioning || ev.CorrelationID != c.correlationID {
		c.mu.Unlock()
		return nil
	}
	mode := c.target
	systemID := c.systemID
	c.reset()
	c.mu.Unlock()

	errMsg := "calculation failed"
	if p, ok := ev.Payload.(pipeline.CalculationFailed); ok {
		errMsg = p.Error
	}
	c.emit(ctx, events.NewCorrelated(events.ViewModeChangeFailed, c.Name(), ev.CorrelationID, ViewModeChangeFailed{
		SystemID: systemID,
		Mode:     mode,
		Error:    errMsg,
	}))
	return nil
}

// fail aborts a transition the coordinator itself could not hand off.
func (c *ViewModeCoordinator) fail(ctx context.Context, correlationID string, mode viewmode.Mode, systemID string, err error) {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	c.Logger().Error("View-mode transition failed before calculation",
		zap.String("mode", string(mode)),
		zap.Error(err))
	c.emit(ctx, events.NewCorrelated(events.ViewModeChangeFailed, c.Name(), correlationID, ViewModeChangeFailed{
		SystemID: systemID,
		Mode:     mode,
		Error:    err.Error(),
	}))
}

// reset returns the state machine to idle. Caller holds c.mu.
func (c *ViewModeCoordinator) reset() {
	c.transitioning = false
	c.correlationID = ""
	c.target = ""
	c.systemID = ""
}

func isSchematic(mode viewmode.Mode) bool {
	return mode == viewmode.ModeNavigational || mode == viewmode.ModeProfile
}
