// Package api defines the boundary contracts between the layout engine and
// its external collaborators: system data sources, coordinators and the
// camera controller.
package api

import (
	"context"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

// Coordinator is the lifecycle contract every coordination handler
// implements.
type Coordinator interface {
	// Name returns the unique name of the coordinator.
	Name() string

	// Start attaches the coordinator to the event bus and begins serving
	// requests.
	Start(ctx context.Context) error

	// Stop detaches the coordinator and releases its resources.
	Stop(ctx context.Context) error

	// HealthCheck returns the coordinator's health.
	HealthCheck(ctx context.Context) *healthcheck.Result

	// IsRunning reports whether the coordinator is serving requests.
	IsRunning() bool
}

// SystemLoader supplies validated planetary-system descriptions. The layout
// engine still defensively handles dangling parent references; validation
// here covers structure and identity.
type SystemLoader interface {
	// LoadSystem fetches one system by id. Returns nil without error when
	// the system does not exist.
	LoadSystem(ctx context.Context, mode viewmode.Mode, systemID string) (*models.OrbitalSystemData, error)

	// ListSystems returns the ids of every available system.
	ListSystems(ctx context.Context) ([]string, error)
}
