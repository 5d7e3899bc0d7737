// Package coordinators implements the event coordination handlers: small
// state machines that subscribe to *-requested events on the bus and emit
// the ordered lifecycle sequences, enforcing one in-flight operation per
// logical resource.
package coordinators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/pkg/events"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

// BaseCoordinator provides the lifecycle and bookkeeping shared by all
// coordination handlers.
type BaseCoordinator struct {
	name      string
	bus       *events.Bus
	logger    *zap.Logger
	mu        sync.RWMutex
	running   bool
	startTime time.Time
	unsubs    []func()
}

// NewBaseCoordinator creates a base coordinator bound to the bus.
func NewBaseCoordinator(name string, bus *events.Bus, logger *zap.Logger) *BaseCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseCoordinator{
		name:   name,
		bus:    bus,
		logger: logger.With(zap.String("coordinator", name)),
	}
}

// Name returns the coordinator name.
func (bc *BaseCoordinator) Name() string { return bc.name }

// Bus returns the event bus.
func (bc *BaseCoordinator) Bus() *events.Bus { return bc.bus }

// Logger returns the coordinator-scoped logger.
func (bc *BaseCoordinator) Logger() *zap.Logger { return bc.logger }

// IsRunning reports whether the coordinator is serving requests.
func (bc *BaseCoordinator) IsRunning() bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.running
}

// Start marks the coordinator running. Concrete coordinators install their
// subscriptions and then call this.
func (bc *BaseCoordinator) Start(ctx context.Context) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.running {
		return fmt.Errorf("coordinator %s is already running", bc.name)
	}
	bc.running = true
	bc.startTime = time.Now()
	bc.logger.Info("Coordinator started")
	return nil
}

// Stop removes every installed subscription and marks the coordinator
// stopped.
func (bc *BaseCoordinator) Stop(ctx context.Context) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if !bc.running {
		return nil
	}
	for i := len(bc.unsubs) - 1; i >= 0; i-- {
		bc.unsubs[i]()
	}
	bc.unsubs = nil
	bc.running = false
	bc.logger.Info("Coordinator stopped")
	return nil
}

// RegisterUnsubscribe records a bus unsubscribe function to run on Stop.
func (bc *BaseCoordinator) RegisterUnsubscribe(fn func()) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.unsubs = append(bc.unsubs, fn)
}

// HealthCheck reports the coordinator's basic health.
func (bc *BaseCoordinator) HealthCheck(ctx context.Context) *healthcheck.Result {
	status := healthcheck.StatusHealthy
	message := "coordinator is healthy"
	if !bc.IsRunning() {
		status = healthcheck.StatusUnhealthy
		message = "coordinator is not running"
	}
	return &healthcheck.Result{
		ComponentName: bc.name,
		Status:        status,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		Details: map[string]any{
			"running":        bc.IsRunning(),
			"uptime_seconds": time.Since(bc.startTime).Seconds(),
		},
	}
}

// emit publishes an event, logging instead of propagating emission errors.
func (bc *BaseCoordinator) emit(ctx context.Context, ev events.Event) {
	if err := bc.bus.Emit(ctx, ev); err != nil {
		bc.logger.Error("Failed to emit event",
			zap.String("event_type", string(ev.Type)),
			zap.Error(err))
	}
}
