package viewmode

import "github.com/astroviz/orrery/internal/models"

const (
	// minVisualRadius keeps near-zero physical radii visible in
	// proportional modes.
	minVisualRadius = 0.05

	// kmPerSceneUnit converts physical radii to scene units in
	// proportional modes. One scene unit is roughly an Earth radius.
	kmPerSceneUnit = 6371.0

	navigationalOrbitStep = 10.0
	profileOrbitStep      = 6.0

	// Fixed per-class visual radii for schematic modes.
	schematicStarRadius   = 2.0
	schematicPlanetRadius = 1.2
	schematicMoonRadius   = 0.6
	schematicBeltRadius   = 0.8
	schematicOtherRadius  = 0.4
)

// Strategy converts raw orbital elements into display geometry for one view
// mode. Implementations are pure.
type Strategy interface {
	// VisualRadius computes the rendered radius of an object in scene units.
	VisualRadius(obj *models.CelestialObject) float64
	// OrbitalPlacement computes the raw (pre-collision) orbit distance of an
	// orbiting object. siblingIndex is the object's rank among its parent's
	// children ordered by raw orbital elements.
	OrbitalPlacement(obj *models.CelestialObject, siblingIndex int) float64
}

// proportionalStrategy scales sizes from physical radii and distances from
// semi-major axes. Used by the explorational and realistic modes.
type proportionalStrategy struct {
	scaling   Scaling
	minRadius float64
}

func (p *proportionalStrategy) VisualRadius(obj *models.CelestialObject) float64 {
	r := obj.Properties.RadiusKm / kmPerSceneUnit * classScale(p.scaling, obj.Classification)
	if r < p.minRadius {
		return p.minRadius
	}
	return r
}

func (p *proportionalStrategy) OrbitalPlacement(obj *models.CelestialObject, _ int) float64 {
	if obj.Orbit == nil {
		return 0
	}
	return obj.Orbit.SemiMajorAxisAU * p.scaling.OrbitalScale
}

// schematicStrategy ignores physical data: fixed per-class radii and
// equidistant orbit slots. Used by the navigational and profile modes.
type schematicStrategy struct {
	scaling   Scaling
	orbitStep float64
}

func (s *schematicStrategy) VisualRadius(obj *models.CelestialObject) float64 {
	switch obj.Classification {
	case models.ClassificationStar:
		return schematicStarRadius
	case models.ClassificationPlanet:
		return schematicPlanetRadius
	case models.ClassificationMoon:
		return schematicMoonRadius
	case models.ClassificationBelt:
		return schematicBeltRadius
	default:
		return schematicOtherRadius
	}
}

func (s *schematicStrategy) OrbitalPlacement(_ *models.CelestialObject, siblingIndex int) float64 {
	return float64(siblingIndex+1) * s.orbitStep
}
