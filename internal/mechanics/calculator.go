package mechanics

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
)

// Result is the outcome of one calculation: an immutable layout map plus the
// warnings explaining any excluded objects. Callers must treat Layout as
// read-only; cached results are shared between calls.
type Result struct {
	Layout   map[string]*models.LayoutResult
	Warnings []Warning
}

// Service computes scene layouts from celestial-object sets. Calculations
// are pure and deterministic; results are cached by input fingerprint so
// recomputation is never observable.
type Service struct {
	registry *viewmode.Registry
	cache    *resultCache
	logger   *zap.Logger
}

// NewService creates a calculation service backed by the given registry.
func NewService(registry *viewmode.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		cache:    newResultCache(),
		logger:   logger.With(zap.String("component", "orbital_mechanics")),
	}
}

// Calculate produces the layout for an object set under a view mode. The
// returned bool reports whether the result came from the cache. The pause
// flag participates in the fingerprint so paused and running scenes cache
// independently.
func (s *Service) Calculate(objects []models.CelestialObject, mode viewmode.Mode, paused bool) (*Result, bool) {
	ids := make([]string, len(objects))
	for i := range objects {
		ids[i] = objects[i].ID
	}
	key := NewFingerprint(ids, mode, paused)

	if cached, ok := s.cache.get(key); ok {
		return cached, true
	}

	res := s.compute(objects, mode)
	s.cache.put(key, res)
	return res, false
}

// ClearCache invalidates every cached layout.
func (s *Service) ClearCache() {
	s.cache.clear()
	s.logger.Info("Orbital mechanics cache cleared")
}

// CacheStats returns the cached entry count and hit/miss counters.
func (s *Service) CacheStats() (size int, hits, misses uint64) {
	return s.cache.stats()
}

// compute runs the full layout: exclusion of misconfigured objects, visual
// sizing, raw placement, collision resolution and hierarchy enforcement.
func (s *Service) compute(objects []models.CelestialObject, mode viewmode.Mode) *Result {
	strategy := s.registry.Strategy(mode)
	scaling := s.registry.Scaling(mode)

	byID := make(map[string]*models.CelestialObject, len(objects))
	for i := range objects {
		byID[objects[i].ID] = &objects[i]
	}

	included, warnings := s.partition(objects, byID)

	// Parent -> children adjacency, children ordered by their raw orbital
	// elements. Ties break on id so the layout is reproducible.
	children := make(map[string][]*models.CelestialObject)
	var roots []*models.CelestialObject
	for _, obj := range included {
		if obj.IsRoot() {
			roots = append(roots, obj)
			continue
		}
		children[obj.ParentID()] = append(children[obj.ParentID()], obj)
	}
	for _, siblings := range children {
		sort.Slice(siblings, func(i, j int) bool {
			a, b := siblings[i], siblings[j]
			if a.OrbitalOrdinal() != b.OrbitalOrdinal() {
				return a.OrbitalOrdinal() < b.OrbitalOrdinal()
			}
			return a.ID < b.ID
		})
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	layout := make(map[string]*models.LayoutResult, len(included))
	for _, obj := range included {
		layout[obj.ID] = &models.LayoutResult{VisualRadius: strategy.VisualRadius(obj)}
	}

	// Clearance is the radial half-extent an object occupies around its own
	// placement, including its resolved child system. A planet pushed
	// outward carries its moons, and its moons enlarge the footprint its
	// siblings must clear.
	clearance := make(map[string]float64, len(included))
	for _, root := range roots {
		s.resolveSubtree(root, children, layout, clearance, strategy, scaling)
	}

	if len(warnings) > 0 {
		s.logger.Warn("Objects excluded from layout",
			zap.String("mode", string(mode)),
			zap.Int("excluded", len(warnings)))
	}

	return &Result{Layout: layout, Warnings: warnings}
}

// partition splits the input into placeable objects and warnings. An object
// is excluded when its belt bounds are malformed, its direct parent is
// unknown, or any ancestor was excluded.
func (s *Service) partition(objects []models.CelestialObject, byID map[string]*models.CelestialObject) ([]*models.CelestialObject, []Warning) {
	excluded := make(map[string]WarningCode)
	var warnings []Warning

	exclude := func(obj *models.CelestialObject, code WarningCode, msg string) {
		excluded[obj.ID] = code
		warnings = append(warnings, Warning{ObjectID: obj.ID, Code: code, Message: msg})
	}

	for i := range objects {
		obj := &objects[i]
		if obj.Belt != nil && obj.Belt.InnerRadiusAU >= obj.Belt.OuterRadiusAU {
			exclude(obj, WarnMalformedBelt, fmt.Sprintf(
				"belt inner radius %.4f AU is not below outer radius %.4f AU",
				obj.Belt.InnerRadiusAU, obj.Belt.OuterRadiusAU))
			continue
		}
		if !obj.IsRoot() {
			if _, ok := byID[obj.ParentID()]; !ok {
				exclude(obj, WarnUnresolvedParent, fmt.Sprintf(
					"orbit parent %q not found in system", obj.ParentID()))
			}
		}
	}

	// Exclusions cascade: a child of an excluded object has no resolved
	// position to be relative to. Iterate until stable; depth is bounded by
	// the object count.
	for changed := true; changed; {
		changed = false
		for i := range objects {
			obj := &objects[i]
			if _, done := excluded[obj.ID]; done || obj.IsRoot() {
				continue
			}
			if _, parentGone := excluded[obj.ParentID()]; parentGone {
				exclude(obj, WarnOrphanedSubtree, fmt.Sprintf(
					"ancestor %q was excluded from the layout", obj.ParentID()))
				changed = true
			}
		}
	}

	included := make([]*models.CelestialObject, 0, len(objects))
	for i := range objects {
		if _, gone := excluded[objects[i].ID]; !gone {
			included = append(included, &objects[i])
		}
	}
	return included, warnings
}

// resolveSubtree lays out parent's children bottom-up: each child's own
// system is resolved first so sibling collision sees the child's full
// footprint, then the siblings are placed and pushed apart.
func (s *Service) resolveSubtree(parent *models.CelestialObject, children map[string][]*models.CelestialObject,
	layout map[string]*models.LayoutResult, clearance map[string]float64,
	strategy viewmode.Strategy, scaling viewmode.Scaling) {

	siblings := children[parent.ID]
	for _, child := range siblings {
		s.resolveSubtree(child, children, layout, clearance, strategy, scaling)
	}

	// Raw placement from the mode's strategy.
	for i, child := range siblings {
		res := layout[child.ID]
		if child.Belt != nil {
			res.Belt = models.NewBeltLayout(
				child.Belt.InnerRadiusAU*scaling.OrbitalScale,
				child.Belt.OuterRadiusAU*scaling.OrbitalScale)
		} else {
			d := strategy.OrbitalPlacement(child, i)
			res.OrbitDistance = &d
		}
	}

	resolveCollisions(parent, siblings, layout, clearance)

	// The parent's footprint now includes everything orbiting it.
	c := layout[parent.ID].VisualRadius
	for _, child := range siblings {
		if outer := outerEdge(child, layout, clearance); outer > c {
			c = outer
		}
	}
	clearance[parent.ID] = c
}
