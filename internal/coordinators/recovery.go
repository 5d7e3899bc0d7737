package coordinators

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/pkg/events"
)

// RecoveryCoordinator classifies system-error reports and decides whether
// to suppress them (log only) or escalate them for user display. Escalated
// reports are re-emitted once with the Escalated flag set and are never
// re-processed.
type RecoveryCoordinator struct {
	*BaseCoordinator
	suppressed atomic.Uint64
	escalated  atomic.Uint64
}

// NewRecoveryCoordinator creates the error recovery handler.
func NewRecoveryCoordinator(bus *events.Bus, logger *zap.Logger) *RecoveryCoordinator {
	return &RecoveryCoordinator{
		BaseCoordinator: NewBaseCoordinator("recovery", bus, logger),
	}
}

// Start subscribes the handler to system-error events.
func (c *RecoveryCoordinator) Start(ctx context.Context) error {
	if err := c.BaseCoordinator.Start(ctx); err != nil {
		return err
	}
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.SystemError, c.handleError, events.SubscribeOptions{Priority: 50}))
	return nil
}

// Counts returns how many reports were suppressed and escalated.
func (c *RecoveryCoordinator) Counts() (suppressed, escalated uint64) {
	return c.suppressed.Load(), c.escalated.Load()
}

func (c *RecoveryCoordinator) handleError(ctx context.Context, ev events.Event) error {
	report, ok := ev.Payload.(SystemErrorReport)
	if !ok || report.Escalated {
		return nil
	}

	if c.shouldSuppress(report) {
		c.suppressed.Add(1)
		c.Logger().Warn("Suppressed recoverable system error",
			zap.String("component", report.Component),
			zap.String("severity", string(report.Severity)),
			zap.String("message", report.Message))
		return nil
	}

	c.escalated.Add(1)
	c.Logger().Error("Escalating system error",
		zap.String("component", report.Component),
		zap.String("severity", string(report.Severity)),
		zap.String("message", report.Message))

	escalated := report
	escalated.Escalated = true
	c.emit(ctx, events.NewCorrelated(events.SystemError, c.Name(), ev.CorrelationID, escalated))
	return nil
}

// shouldSuppress: recoverable errors below critical severity are logged and
// absorbed; everything else reaches the user.
func (c *RecoveryCoordinator) shouldSuppress(report SystemErrorReport) bool {
	if report.Severity == SeverityCritical {
		return false
	}
	return report.Recoverable
}
