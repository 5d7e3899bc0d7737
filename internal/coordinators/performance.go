package coordinators

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/pipeline"
	"github.com/astroviz/orrery/pkg/events"
)

// DefaultCalculationThreshold flags layout runs slow enough to be felt in an
// interactive viewer.
const DefaultCalculationThreshold = 1000 * time.Millisecond

// PerformanceCoordinator watches calculation completions and reports runs
// exceeding the configured duration threshold.
type PerformanceCoordinator struct {
	*BaseCoordinator
	threshold time.Duration
	exceeded  atomic.Uint64
}

// NewPerformanceCoordinator creates the performance monitor. A zero
// threshold selects the default.
func NewPerformanceCoordinator(bus *events.Bus, threshold time.Duration, logger *zap.Logger) *PerformanceCoordinator {
	if threshold <= 0 {
		threshold = DefaultCalculationThreshold
	}
	return &PerformanceCoordinator{
		BaseCoordinator: NewBaseCoordinator("performance", bus, logger),
		threshold:       threshold,
	}
}

// Start subscribes the monitor to calculation completions.
func (c *PerformanceCoordinator) Start(ctx context.Context) error {
	if err := c.BaseCoordinator.Start(ctx); err != nil {
		return err
	}
	c.RegisterUnsubscribe(c.Bus().Subscribe(events.CalculationCompleted, c.handleCompleted, events.SubscribeOptions{Priority: -10}))
	return nil
}

// ExceededCount returns how many threshold breaches have been reported.
func (c *PerformanceCoordinator) ExceededCount() uint64 {
	return c.exceeded.Load()
}

func (c *PerformanceCoordinator) handleCompleted(ctx context.Context, ev events.Event) error {
	p, ok := ev.Payload.(pipeline.CalculationCompleted)
	if !ok {
		return nil
	}
	if p.Duration <= c.threshold {
		return nil
	}

	c.exceeded.Add(1)
	c.Logger().Warn("Calculation exceeded duration threshold",
		zap.String("system_id", p.SystemID),
		zap.Duration("duration", p.Duration),
		zap.Duration("threshold", c.threshold))
	c.emit(ctx, events.NewCorrelated(events.PerformanceThresholdExceeded, c.Name(), ev.CorrelationID, PerformanceExceeded{
		Metric:    "calculation_duration_ms",
		Value:     float64(p.Duration.Milliseconds()),
		Threshold: float64(c.threshold.Milliseconds()),
	}))
	return nil
}
