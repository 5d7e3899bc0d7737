package healthcheck

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine runs registered checkers on demand and periodically.
type Engine struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	logger   *zap.Logger
	interval time.Duration
}

// NewEngine creates a health check engine.
func NewEngine(logger *zap.Logger, interval time.Duration) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Engine{
		checkers: make(map[string]Checker),
		logger:   logger.With(zap.String("component", "health_engine")),
		interval: interval,
	}
}

// Register adds a checker, replacing any previous one with the same name.
func (e *Engine) Register(checker Checker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkers[checker.Name()] = checker
	e.logger.Debug("Registered health checker", zap.String("checker", checker.Name()))
}

// Unregister removes a checker by name.
func (e *Engine) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.checkers, name)
}

// CheckAll runs every registered checker and aggregates the results.
func (e *Engine) CheckAll(ctx context.Context) *AggregatedResult {
	e.mu.RLock()
	checkers := make([]Checker, 0, len(e.checkers))
	for _, c := range e.checkers {
		checkers = append(checkers, c)
	}
	e.mu.RUnlock()

	results := make(map[string]*Result, len(checkers))
	for _, c := range checkers {
		start := time.Now()
		r := c.Check(ctx)
		r.Duration = time.Since(start)
		results[c.Name()] = r
	}

	return &AggregatedResult{
		OverallStatus: OverallStatus(results),
		Components:    results,
		Timestamp:     time.Now().UTC(),
	}
}

// Run performs periodic checks until the context is cancelled, logging
// status transitions.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	last := StatusUnknown
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := e.CheckAll(ctx)
			if result.OverallStatus != last {
				e.logger.Info("Health status changed",
					zap.String("from", string(last)),
					zap.String("to", string(result.OverallStatus)))
				last = result.OverallStatus
			}
		}
	}
}
