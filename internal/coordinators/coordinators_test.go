package coordinators

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/events"
)

// recorder captures every bus event in delivery order. It subscribes at the
// lowest priority so coordinators always observe an event before it does.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(func(_ context.Context, ev events.Event) error {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		return nil
	}, events.SubscribeOptions{Priority: -1000})
	return r
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) count(eventType events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) last(eventType events.EventType) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

// stubLoader serves a fixed set of systems.
type stubLoader struct {
	systems map[string]*models.OrbitalSystemData
	failErr error
}

func (s *stubLoader) LoadSystem(_ context.Context, _ viewmode.Mode, systemID string) (*models.OrbitalSystemData, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	return s.systems[systemID], nil
}

func (s *stubLoader) ListSystems(context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.systems))
	for id := range s.systems {
		ids = append(ids, id)
	}
	return ids, nil
}

// stubCache counts invalidations.
type stubCache struct{ cleared int }

func (s *stubCache) ClearCache() { s.cleared++ }

func testSystem() *models.OrbitalSystemData {
	return &models.OrbitalSystemData{
		ID:   "sol",
		Name: "Sol",
		Objects: []models.CelestialObject{
			{
				ID:             "sol-star",
				Classification: models.ClassificationStar,
				Properties:     models.PhysicalProperties{RadiusKm: 696340},
				Position:       &models.Vector3{},
			},
			{
				ID:             "earth",
				Classification: models.ClassificationPlanet,
				Properties:     models.PhysicalProperties{RadiusKm: 6371},
				Orbit:          &models.Orbit{Parent: "sol-star", SemiMajorAxisAU: 1.0},
			},
		},
	}
}

func newTestBus() *events.Bus {
	return events.NewBus(zap.NewNop(), events.Thresholds{})
}

func startCoordinator(t *testing.T, c interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}) {
	t.Helper()
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, c.Stop(context.Background()))
	})
}

// failingResolver always errors.
type failingResolver struct{}

func (failingResolver) ResolvePose(objectID string) (CameraPose, CameraPose, error) {
	return CameraPose{}, CameraPose{}, fmt.Errorf("object %s has no pose", objectID)
}
