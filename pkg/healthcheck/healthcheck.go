// Package healthcheck provides health monitoring for the layout engine's
// components: the event bus, the pipeline and the system catalog.
package healthcheck

import (
	"context"
	"time"
)

// Status represents the health of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Result is one component's health check outcome.
type Result struct {
	ComponentName string         `json:"component"`
	Status        Status         `json:"status"`
	Message       string         `json:"message,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	Duration      time.Duration  `json:"duration"`
	Details       map[string]any `json:"details,omitempty"`
}

// Checker is implemented by components that report their own health.
type Checker interface {
	Check(ctx context.Context) *Result
	Name() string
}

// CheckFunc adapts a named function to the Checker interface.
func CheckFunc(name string, fn func(context.Context) *Result) Checker {
	return &funcChecker{name: name, fn: fn}
}

type funcChecker struct {
	name string
	fn   func(context.Context) *Result
}

func (f *funcChecker) Name() string                      { return f.name }
func (f *funcChecker) Check(ctx context.Context) *Result { return f.fn(ctx) }

// AggregatedResult combines the health of every registered component.
type AggregatedResult struct {
	OverallStatus Status             `json:"status"`
	Components    map[string]*Result `json:"components"`
	Timestamp     time.Time          `json:"timestamp"`
}

// IsHealthy reports whether every component is healthy.
func (ar *AggregatedResult) IsHealthy() bool {
	return ar.OverallStatus == StatusHealthy
}

// OverallStatus derives an aggregate status: any unhealthy component makes
// the whole unhealthy, any degraded or unknown one makes it degraded.
func OverallStatus(results map[string]*Result) Status {
	if len(results) == 0 {
		return StatusUnknown
	}
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			status = StatusDegraded
		}
	}
	return status
}
