package mechanics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(viewmode.NewRegistry(zap.NewNop()), zap.NewNop())
}

func star(id string, radiusKm float64) models.CelestialObject {
	return models.CelestialObject{
		ID:             id,
		Classification: models.ClassificationStar,
		Properties:     models.PhysicalProperties{RadiusKm: radiusKm},
		Position:       &models.Vector3{},
	}
}

func planet(id, parent string, au, radiusKm float64) models.CelestialObject {
	return models.CelestialObject{
		ID:             id,
		Classification: models.ClassificationPlanet,
		Properties:     models.PhysicalProperties{RadiusKm: radiusKm},
		Orbit:          &models.Orbit{Parent: parent, SemiMajorAxisAU: au},
	}
}

func moon(id, parent string, au, radiusKm float64) models.CelestialObject {
	return models.CelestialObject{
		ID:             id,
		Classification: models.ClassificationMoon,
		Properties:     models.PhysicalProperties{RadiusKm: radiusKm},
		Orbit:          &models.Orbit{Parent: parent, SemiMajorAxisAU: au},
	}
}

func belt(id, parent string, innerAU, outerAU float64) models.CelestialObject {
	return models.CelestialObject{
		ID:             id,
		Classification: models.ClassificationBelt,
		Belt:           &models.BeltRegion{Parent: parent, InnerRadiusAU: innerAU, OuterRadiusAU: outerAU},
	}
}

func solarSystem() []models.CelestialObject {
	return []models.CelestialObject{
		star("sol", 696340),
		planet("mercury", "sol", 0.387, 2439.7),
		planet("venus", "sol", 0.723, 6051.8),
		planet("earth", "sol", 1.0, 6371),
		moon("luna", "earth", 0.00257, 1737.4),
		planet("mars", "sol", 1.524, 3389.5),
		belt("main-belt", "sol", 2.2, 3.2),
		planet("jupiter", "sol", 5.203, 69911),
		moon("io", "jupiter", 0.00282, 1821.6),
		moon("europa", "jupiter", 0.00449, 1560.8),
	}
}

// orbitOrder returns the given ids sorted by their resolved placement.
func assertOrderPreserved(t *testing.T, layout map[string]*models.LayoutResult, ids ...string) {
	t.Helper()
	for i := 1; i < len(ids); i++ {
		prev, cur := layout[ids[i-1]], layout[ids[i]]
		require.NotNil(t, prev, "missing layout for %s", ids[i-1])
		require.NotNil(t, cur, "missing layout for %s", ids[i])
		assert.Greater(t, cur.Placement(), prev.Placement(),
			"%s should stay outside %s", ids[i], ids[i-1])
	}
}

func assertNoCollisions(t *testing.T, layout map[string]*models.LayoutResult, ids ...string) {
	t.Helper()
	for i := 1; i < len(ids); i++ {
		prev, cur := layout[ids[i-1]], layout[ids[i]]
		assert.Greater(t, cur.InnerEdge(), prev.OuterEdge(),
			"%s must clear %s", ids[i], ids[i-1])
	}
}

func TestCalculateSolarSystem(t *testing.T) {
	service := newTestService(t)

	for _, mode := range viewmode.All() {
		t.Run(string(mode), func(t *testing.T) {
			result, hit := service.Calculate(solarSystem(), mode, false)
			assert.False(t, hit)
			assert.Empty(t, result.Warnings)
			assert.Len(t, result.Layout, 10)

			assertOrderPreserved(t, result.Layout,
				"mercury", "venus", "earth", "mars", "main-belt", "jupiter")
			assertNoCollisions(t, result.Layout,
				"mercury", "venus", "earth", "mars", "main-belt", "jupiter")
			assertOrderPreserved(t, result.Layout, "io", "europa")
			assertNoCollisions(t, result.Layout, "io", "europa")

			for id, res := range result.Layout {
				assert.Positive(t, res.VisualRadius, "object %s", id)
			}
		})
	}
}

func TestCalculateFirstOrbitClearsParent(t *testing.T) {
	service := newTestService(t)
	result, _ := service.Calculate(solarSystem(), viewmode.ModeExplorational, false)

	sol := result.Layout["sol"]
	mercury := result.Layout["mercury"]
	assert.Greater(t, mercury.InnerEdge(), sol.VisualRadius,
		"the innermost planet must clear the star's visual radius")
}

func TestCalculateBeltLayout(t *testing.T) {
	service := newTestService(t)
	registry := viewmode.NewRegistry(zap.NewNop())

	t.Run("belt keeps its width and center invariant", func(t *testing.T) {
		scaling := registry.Scaling(viewmode.ModeExplorational)
		result, _ := service.Calculate(solarSystem(), viewmode.ModeExplorational, false)

		b := result.Layout["main-belt"].Belt
		require.NotNil(t, b)
		assert.InDelta(t, (3.2-2.2)*scaling.OrbitalScale, b.OuterRadius-b.InnerRadius, 1e-9,
			"collision pushes must not change the belt width")
		assert.InDelta(t, (b.InnerRadius+b.OuterRadius)/2, b.CenterRadius, 1e-9)
	})

	t.Run("overlapping belts are pushed apart", func(t *testing.T) {
		objects := []models.CelestialObject{
			star("sol", 696340),
			belt("inner-belt", "sol", 1.0, 2.0),
			belt("outer-belt", "sol", 1.5, 2.5),
		}
		result, _ := service.Calculate(objects, viewmode.ModeExplorational, false)
		assert.Empty(t, result.Warnings)

		inner := result.Layout["inner-belt"].Belt
		outer := result.Layout["outer-belt"].Belt
		require.NotNil(t, inner)
		require.NotNil(t, outer)
		assert.Greater(t, outer.InnerRadius, inner.OuterRadius)
		// Widths survive the push.
		scaling := registry.Scaling(viewmode.ModeExplorational)
		assert.InDelta(t, 1.0*scaling.OrbitalScale, inner.OuterRadius-inner.InnerRadius, 1e-9)
		assert.InDelta(t, 1.0*scaling.OrbitalScale, outer.OuterRadius-outer.InnerRadius, 1e-9)
	})
}

func TestCalculateMoonSystemFootprint(t *testing.T) {
	// Two planets placed so close that the first one's far-flung moon system
	// overlaps the second planet's orbit. The second planet must clear the
	// whole subtree, not just the first planet's body.
	objects := []models.CelestialObject{
		star("sol", 696340),
		planet("giant", "sol", 1.0, 69911),
		moon("far-moon", "giant", 0.2, 1737.4),
		planet("neighbor", "sol", 1.05, 6371),
	}

	service := newTestService(t)
	result, _ := service.Calculate(objects, viewmode.ModeExplorational, false)
	assert.Empty(t, result.Warnings)

	giant := result.Layout["giant"]
	farMoon := result.Layout["far-moon"]
	neighbor := result.Layout["neighbor"]

	moonReach := giant.Placement() + farMoon.Placement() + farMoon.VisualRadius
	assert.Greater(t, neighbor.InnerEdge(), moonReach-neighbor.VisualRadius,
		"neighbor must clear the giant's moon system footprint")
	assert.Greater(t, neighbor.Placement(), giant.Placement())
}

func TestCalculateWarnings(t *testing.T) {
	service := newTestService(t)

	t.Run("unresolved parent excludes the object", func(t *testing.T) {
		objects := []models.CelestialObject{
			star("sol", 696340),
			planet("phantom", "ghost", 1.0, 6371),
		}
		result, _ := service.Calculate(objects, viewmode.ModeExplorational, false)

		require.Len(t, result.Warnings, 1)
		assert.Equal(t, WarnUnresolvedParent, result.Warnings[0].Code)
		assert.Equal(t, "phantom", result.Warnings[0].ObjectID)
		assert.NotContains(t, result.Layout, "phantom")
		assert.Contains(t, result.Layout, "sol")
	})

	t.Run("exclusion cascades through the subtree", func(t *testing.T) {
		objects := []models.CelestialObject{
			star("sol", 696340),
			planet("phantom", "ghost", 1.0, 6371),
			moon("phantom-moon", "phantom", 0.01, 1737.4),
		}
		result, _ := service.Calculate(objects, viewmode.ModeExplorational, false)

		require.Len(t, result.Warnings, 2)
		codes := map[string]WarningCode{}
		for _, w := range result.Warnings {
			codes[w.ObjectID] = w.Code
		}
		assert.Equal(t, WarnUnresolvedParent, codes["phantom"])
		assert.Equal(t, WarnOrphanedSubtree, codes["phantom-moon"])
		assert.Len(t, result.Layout, 1)
	})

	t.Run("malformed belt is excluded with its children", func(t *testing.T) {
		objects := []models.CelestialObject{
			star("sol", 696340),
			belt("bad-belt", "sol", 3.0, 2.0),
			moon("belt-station", "bad-belt", 0.1, 10),
		}
		result, _ := service.Calculate(objects, viewmode.ModeExplorational, false)

		require.Len(t, result.Warnings, 2)
		assert.Equal(t, WarnMalformedBelt, result.Warnings[0].Code)
		assert.NotContains(t, result.Layout, "bad-belt")
		assert.NotContains(t, result.Layout, "belt-station")
	})
}

func TestCalculateCaching(t *testing.T) {
	service := newTestService(t)

	t.Run("identical input hits the cache", func(t *testing.T) {
		first, hit := service.Calculate(solarSystem(), viewmode.ModeExplorational, false)
		assert.False(t, hit)
		second, hit := service.Calculate(solarSystem(), viewmode.ModeExplorational, false)
		assert.True(t, hit)
		assert.Same(t, first, second, "a cache hit returns the stored result")
	})

	t.Run("mode and pause flag partition the cache", func(t *testing.T) {
		_, hit := service.Calculate(solarSystem(), viewmode.ModeNavigational, false)
		assert.False(t, hit)
		_, hit = service.Calculate(solarSystem(), viewmode.ModeExplorational, true)
		assert.False(t, hit)
	})

	t.Run("object order does not affect the fingerprint", func(t *testing.T) {
		objects := solarSystem()
		for i, j := 0, len(objects)-1; i < j; i, j = i+1, j-1 {
			objects[i], objects[j] = objects[j], objects[i]
		}
		_, hit := service.Calculate(objects, viewmode.ModeExplorational, false)
		assert.True(t, hit)
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		service.ClearCache()
		size, _, _ := service.CacheStats()
		assert.Zero(t, size)
		_, hit := service.Calculate(solarSystem(), viewmode.ModeExplorational, false)
		assert.False(t, hit)
	})
}

func TestCalculateDeterminism(t *testing.T) {
	// Equal semi-major axes tie-break on id, so repeated computation of the
	// same input yields byte-for-byte identical placements.
	objects := []models.CelestialObject{
		star("sol", 696340),
		planet("alpha", "sol", 1.0, 6371),
		planet("beta", "sol", 1.0, 6371),
		planet("gamma", "sol", 1.0, 6371),
	}

	a := newTestService(t)
	b := newTestService(t)
	first, _ := a.Calculate(objects, viewmode.ModeExplorational, false)
	second, _ := b.Calculate(objects, viewmode.ModeExplorational, false)

	assertOrderPreserved(t, first.Layout, "alpha", "beta", "gamma")
	for id, res := range first.Layout {
		assert.Equal(t, res.Placement(), second.Layout[id].Placement(), "object %s", id)
	}
}

func TestFingerprint(t *testing.T) {
	t.Run("sorted ids produce equal keys", func(t *testing.T) {
		a := NewFingerprint([]string{"b", "a"}, viewmode.ModeRealistic, false)
		b := NewFingerprint([]string{"a", "b"}, viewmode.ModeRealistic, false)
		assert.Equal(t, a, b)
	})

	t.Run("mode and pause flag are part of the key", func(t *testing.T) {
		base := NewFingerprint([]string{"a"}, viewmode.ModeRealistic, false)
		assert.NotEqual(t, base, NewFingerprint([]string{"a"}, viewmode.ModeProfile, false))
		assert.NotEqual(t, base, NewFingerprint([]string{"a"}, viewmode.ModeRealistic, true))
	})

	t.Run("id lists do not alias across boundaries", func(t *testing.T) {
		a := NewFingerprint([]string{"ab", "c"}, viewmode.ModeRealistic, false)
		b := NewFingerprint([]string{"a", "bc"}, viewmode.ModeRealistic, false)
		assert.NotEqual(t, a, b)
	})
}
