package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/mechanics"
	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/pkg/events"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

// Outcome classifies how a pipeline run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeTimedOut  Outcome = "timed-out"
)

// Sentinel outcomes callers can test with errors.Is.
var (
	ErrCancelled = errors.New("pipeline run cancelled")
	ErrTimeout   = errors.New("pipeline run exceeded deadline")
)

// DefaultTimeout bounds one pipeline invocation.
const DefaultTimeout = 30 * time.Second

// Stage progress weights; each stage ends at the cumulative percentage.
const (
	progressValidation  = 10
	progressCalculation = 70
	progressCollision   = 85
	progressHierarchy   = 95
	progressCompletion  = 100
)

// ProgressFunc receives monotonically increasing progress updates.
type ProgressFunc func(percent int, message string)

// RunResult is the outcome of one pipeline invocation. On any outcome other
// than OutcomeCompleted the layout is empty, never partial.
type RunResult struct {
	RequestID string
	Outcome   Outcome
	Layout    map[string]*models.LayoutResult
	Warnings  []mechanics.Warning
	Duration  time.Duration
	CacheHit  bool
	Err       error
}

// Statistics is a snapshot of orchestrator activity.
type Statistics struct {
	TotalRuns       uint64        `json:"totalRuns"`
	ActiveRuns      int           `json:"activeRuns"`
	Completed       uint64        `json:"completed"`
	Failed          uint64        `json:"failed"`
	Cancelled       uint64        `json:"cancelled"`
	TimedOut        uint64        `json:"timedOut"`
	CacheHits       uint64        `json:"cacheHits"`
	AverageDuration time.Duration `json:"averageDuration"`
	CacheSize       int           `json:"cacheSize"`
}

// Orchestrator sequences the calculation service through validation,
// calculation, collision verification, hierarchy verification and
// completion. Invocations are independent: each is tracked by its own
// request id and cancelling one never affects another.
type Orchestrator struct {
	service *mechanics.Service
	bus     *events.Bus
	logger  *zap.Logger
	timeout time.Duration

	mu         sync.Mutex
	active     map[string]context.CancelFunc
	lastResult map[string]*RunResult // per system id, successful runs only

	statsMu       sync.Mutex
	totalRuns     uint64
	completed     uint64
	failed        uint64
	cancelled     uint64
	timedOut      uint64
	cacheHits     uint64
	totalDuration time.Duration

	detach func()
}

// NewOrchestrator creates a pipeline orchestrator. A zero timeout selects
// DefaultTimeout.
func NewOrchestrator(service *mechanics.Service, bus *events.Bus, logger *zap.Logger, timeout time.Duration) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		service:    service,
		bus:        bus,
		logger:     logger.With(zap.String("component", "pipeline")),
		timeout:    timeout,
		active:     make(map[string]context.CancelFunc),
		lastResult: make(map[string]*RunResult),
	}
}

// Attach subscribes the orchestrator to calculation-requested events so
// coordination handlers can trigger runs over the bus.
func (o *Orchestrator) Attach() {
	o.detach = o.bus.Subscribe(events.CalculationRequested, func(ctx context.Context, ev events.Event) error {
		req, ok := ev.Payload.(CalculationRequest)
		if !ok {
			return fmt.Errorf("calculation-requested carried %T, want CalculationRequest", ev.Payload)
		}
		o.Run(ctx, req, ev.CorrelationID, nil)
		return nil
	}, events.SubscribeOptions{Async: true})
}

// Detach removes the bus subscription installed by Attach.
func (o *Orchestrator) Detach() {
	if o.detach != nil {
		o.detach()
		o.detach = nil
	}
}

// Run executes one pipeline invocation. The correlation id ties the emitted
// lifecycle events to the originating request; progress may be nil.
func (o *Orchestrator) Run(ctx context.Context, req CalculationRequest, correlationID string, progress ProgressFunc) *RunResult {
	requestID := uuid.NewString()
	if correlationID == "" {
		correlationID = requestID
	}
	if progress == nil {
		progress = func(int, string) {}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	o.track(requestID, cancel)
	defer o.untrack(requestID)

	start := time.Now()
	result := &RunResult{RequestID: requestID, Outcome: OutcomeCompleted}

	defer func() {
		if r := recover(); r != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("calculation panicked: %v", r)
			result.Layout = map[string]*models.LayoutResult{}
			result.Duration = time.Since(start)
			o.finish(runCtx, req, correlationID, result)
		}
	}()

	o.emit(runCtx, events.CalculationStarted, correlationID, CalculationStarted{
		RequestID:   requestID,
		SystemID:    req.SystemID,
		Mode:        req.Mode,
		ObjectCount: len(req.Objects),
	})

	stages := []struct {
		percent int
		message string
		run     func() error
	}{
		{progressValidation, "validating system description", func() error {
			return validateRequest(req)
		}},
		{progressCalculation, "calculating orbital layout", func() error {
			calc, hit := o.service.Calculate(req.Objects, req.Mode, req.Paused)
			result.Layout = calc.Layout
			result.Warnings = calc.Warnings
			result.CacheHit = hit
			return nil
		}},
		{progressCollision, "verifying orbit clearances", func() error {
			return verifyClearances(req.Objects, result.Layout)
		}},
		{progressHierarchy, "verifying hierarchy and belts", func() error {
			return verifyHierarchy(req.Objects, result.Layout, result.Warnings)
		}},
	}

	for _, stage := range stages {
		if err := runCtxErr(runCtx); err != nil {
			result.Outcome = outcomeFor(err)
			result.Err = err
			result.Layout = map[string]*models.LayoutResult{}
			result.Duration = time.Since(start)
			o.finish(runCtx, req, correlationID, result)
			return result
		}
		if err := stage.run(); err != nil {
			result.Outcome = OutcomeFailed
			result.Err = err
			result.Layout = map[string]*models.LayoutResult{}
			result.Duration = time.Since(start)
			o.finish(runCtx, req, correlationID, result)
			return result
		}
		progress(stage.percent, stage.message)
	}

	result.Duration = time.Since(start)
	progress(progressCompletion, "layout complete")
	o.finish(runCtx, req, correlationID, result)
	return result
}

// Cancel aborts one in-flight run by request id. Other runs are unaffected.
func (o *Orchestrator) Cancel(requestID string) bool {
	o.mu.Lock()
	cancel, ok := o.active[requestID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// LastResult returns the most recent successful layout for a system, or nil.
// A failed run never replaces it, so renderers keep a stale-but-consistent
// scene on failure.
func (o *Orchestrator) LastResult(systemID string) *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastResult[systemID]
}

// FindObject scans the retained layouts for an object's placement. Used by
// the focus coordinator to derive camera poses.
func (o *Orchestrator) FindObject(objectID string) (*models.LayoutResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, result := range o.lastResult {
		if layout, ok := result.Layout[objectID]; ok {
			return layout, true
		}
	}
	return nil, false
}

// ClearCache invalidates every cached layout result.
func (o *Orchestrator) ClearCache() {
	o.service.ClearCache()
}

// Statistics returns a snapshot of pipeline activity.
func (o *Orchestrator) Statistics() Statistics {
	o.mu.Lock()
	active := len(o.active)
	o.mu.Unlock()

	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	var avg time.Duration
	if o.totalRuns > 0 {
		avg = o.totalDuration / time.Duration(o.totalRuns)
	}
	size, _, _ := o.service.CacheStats()
	return Statistics{
		TotalRuns:       o.totalRuns,
		ActiveRuns:      active,
		Completed:       o.completed,
		Failed:          o.failed,
		Cancelled:       o.cancelled,
		TimedOut:        o.timedOut,
		CacheHits:       o.cacheHits,
		AverageDuration: avg,
		CacheSize:       size,
	}
}

// Name implements healthcheck.Checker.
func (o *Orchestrator) Name() string { return "pipeline" }

// Check implements healthcheck.Checker: the pipeline degrades when failures
// dominate recent activity.
func (o *Orchestrator) Check(ctx context.Context) *healthcheck.Result {
	stats := o.Statistics()
	status := healthcheck.StatusHealthy
	message := "pipeline operational"
	if stats.TotalRuns > 0 {
		rate := float64(stats.Failed) / float64(stats.TotalRuns)
		if rate > 0.5 {
			status = healthcheck.StatusUnhealthy
			message = "most pipeline runs are failing"
		} else if rate > 0.1 {
			status = healthcheck.StatusDegraded
			message = "elevated pipeline failure rate"
		}
	}
	return &healthcheck.Result{
		ComponentName: o.Name(),
		Status:        status,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		Details: map[string]any{
			"total_runs":  stats.TotalRuns,
			"active_runs": stats.ActiveRuns,
			"failed":      stats.Failed,
			"cache_hits":  stats.CacheHits,
		},
	}
}

func (o *Orchestrator) track(requestID string, cancel context.CancelFunc) {
	o.mu.Lock()
	o.active[requestID] = cancel
	o.mu.Unlock()
}

func (o *Orchestrator) untrack(requestID string) {
	o.mu.Lock()
	delete(o.active, requestID)
	o.mu.Unlock()
}

// finish records statistics, stores successful layouts and emits the
// terminal lifecycle event.
func (o *Orchestrator) finish(ctx context.Context, req CalculationRequest, correlationID string, result *RunResult) {
	o.statsMu.Lock()
	o.totalRuns++
	o.totalDuration += result.Duration
	switch result.Outcome {
	case OutcomeCompleted:
		o.completed++
		if result.CacheHit {
			o.cacheHits++
		}
	case OutcomeCancelled:
		o.cancelled++
	case OutcomeTimedOut:
		o.timedOut++
	default:
		o.failed++
	}
	o.statsMu.Unlock()

	if result.Outcome == OutcomeCompleted {
		o.mu.Lock()
		o.lastResult[req.SystemID] = result
		o.mu.Unlock()

		o.logger.Info("Pipeline run completed",
			zap.String("request_id", result.RequestID),
			zap.String("system_id", req.SystemID),
			zap.String("mode", string(req.Mode)),
			zap.Duration("duration", result.Duration),
			zap.Bool("cache_hit", result.CacheHit),
			zap.Int("warnings", len(result.Warnings)))

		o.emit(ctx, events.CalculationCompleted, correlationID, CalculationCompleted{
			RequestID:   result.RequestID,
			SystemID:    req.SystemID,
			Mode:        req.Mode,
			ObjectCount: len(req.Objects),
			Duration:    result.Duration,
			CacheHit:    result.CacheHit,
			Warnings:    result.Warnings,
		})
		return
	}

	o.logger.Warn("Pipeline run did not complete",
		zap.String("request_id", result.RequestID),
		zap.String("system_id", req.SystemID),
		zap.String("outcome", string(result.Outcome)),
		zap.Error(result.Err))

	o.emit(ctx, events.CalculationFailed, correlationID, CalculationFailed{
		RequestID: result.RequestID,
		SystemID:  req.SystemID,
		Mode:      req.Mode,
		Outcome:   result.Outcome,
		Error:     errString(result.Err),
	})
}

// emit publishes a lifecycle event. The bus delivers regardless of the run
// context's state, so terminal events go out even after cancellation.
func (o *Orchestrator) emit(ctx context.Context, eventType events.EventType, correlationID string, payload any) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Emit(ctx, events.NewCorrelated(eventType, "pipeline", correlationID, payload)); err != nil {
		o.logger.Error("Failed to emit pipeline event",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func runCtxErr(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		return ErrCancelled
	default:
		return nil
	}
}

func outcomeFor(err error) Outcome {
	switch {
	case errors.Is(err, ErrTimeout):
		return OutcomeTimedOut
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
