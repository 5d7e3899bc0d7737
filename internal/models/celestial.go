// Package models defines the celestial-system data model shared by the
// layout engine, the catalog and the HTTP surface.
package models

import "fmt"

// Classification identifies what kind of body a celestial object is.
type Classification string

const (
	ClassificationStar      Classification = "star"
	ClassificationPlanet    Classification = "planet"
	ClassificationMoon      Classification = "moon"
	ClassificationBelt      Classification = "belt"
	ClassificationJumpPoint Classification = "jump-point"
	ClassificationStation   Classification = "station"
	// ClassificationUnknown is the explicit fallback for kinds the engine
	// does not recognize; unknown inputs never fall through string
	// comparisons silently.
	ClassificationUnknown Classification = "unknown"
)

// ParseClassification maps a raw string onto the closed classification set.
func ParseClassification(s string) Classification {
	switch Classification(s) {
	case ClassificationStar, ClassificationPlanet, ClassificationMoon,
		ClassificationBelt, ClassificationJumpPoint, ClassificationStation:
		return Classification(s)
	default:
		return ClassificationUnknown
	}
}

// GeometryType is the rendering-relevant subtype of an object.
type GeometryType string

const (
	GeometryTerrestrial GeometryType = "terrestrial"
	GeometryGasGiant    GeometryType = "gas-giant"
	GeometryStar        GeometryType = "star"
	GeometryBelt        GeometryType = "belt"
	GeometryRing        GeometryType = "ring"
	GeometryNone        GeometryType = "none"
)

// Vector3 is a position in scene space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PhysicalProperties carries the physical attributes of a body. The layout
// engine only reads RadiusKm; everything else is passed through to renderers.
type PhysicalProperties struct {
	MassKg        float64 `json:"massKg,omitempty"`
	RadiusKm      float64 `json:"radiusKm,omitempty"`
	TemperatureK  float64 `json:"temperatureK,omitempty"`
	RotationHours float64 `json:"rotationHours,omitempty"`
	AxialTilt     float64 `json:"axialTilt,omitempty"`
}

// Orbit holds Keplerian orbit data for a point-like body. SemiMajorAxisAU is
// the nominal orbital radius used for ordering and placement.
type Orbit struct {
	Parent            string  `json:"parent"`
	SemiMajorAxisAU   float64 `json:"semiMajorAxisAu"`
	Eccentricity      float64 `json:"eccentricity,omitempty"`
	InclinationDeg    float64 `json:"inclinationDeg,omitempty"`
	OrbitalPeriodDays float64 `json:"orbitalPeriodDays,omitempty"`
}

// BeltRegion holds the annular bounds of a belt-classified object, in AU.
type BeltRegion struct {
	Parent         string  `json:"parent"`
	InnerRadiusAU  float64 `json:"innerRadiusAu"`
	OuterRadiusAU  float64 `json:"outerRadiusAu"`
	InclinationDeg float64 `json:"inclinationDeg,omitempty"`
	Eccentricity   float64 `json:"eccentricity,omitempty"`
}

// CelestialObject is a node in a system graph. Exactly one of Orbit or Belt
// is set for non-root objects; roots carry an absolute Position instead.
type CelestialObject struct {
	ID             string             `json:"id" validate:"required"`
	Name           string             `json:"name"`
	Classification Classification     `json:"classification" validate:"required"`
	Geometry       GeometryType       `json:"geometryType,omitempty"`
	Properties     PhysicalProperties `json:"properties"`
	Position       *Vector3           `json:"position,omitempty"`
	Orbit          *Orbit             `json:"orbit,omitempty"`
	Belt           *BeltRegion        `json:"belt,omitempty"`
}

// IsRoot reports whether the object anchors the system (absolute position,
// no orbital parent).
func (o *CelestialObject) IsRoot() bool {
	return o.Orbit == nil && o.Belt == nil
}

// ParentID returns the orbital parent id, or "" for root objects.
func (o *CelestialObject) ParentID() string {
	switch {
	case o.Orbit != nil:
		return o.Orbit.Parent
	case o.Belt != nil:
		return o.Belt.Parent
	default:
		return ""
	}
}

// OrbitalOrdinal returns the value used to order siblings under one parent:
// the semi-major axis for orbiting bodies, the inner radius for belts.
func (o *CelestialObject) OrbitalOrdinal() float64 {
	switch {
	case o.Orbit != nil:
		return o.Orbit.SemiMajorAxisAU
	case o.Belt != nil:
		return o.Belt.InnerRadiusAU
	default:
		return 0
	}
}

// Validate checks the structural invariants a single object must satisfy.
func (o *CelestialObject) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("celestial object has empty id")
	}
	if o.Orbit != nil && o.Belt != nil {
		return fmt.Errorf("object %s has both orbit and belt data", o.ID)
	}
	if o.IsRoot() && o.Position == nil {
		return fmt.Errorf("root object %s has no position", o.ID)
	}
	if o.Belt != nil && o.Belt.InnerRadiusAU >= o.Belt.OuterRadiusAU {
		return fmt.Errorf("belt %s has inner radius %.4f >= outer radius %.4f",
			o.ID, o.Belt.InnerRadiusAU, o.Belt.OuterRadiusAU)
	}
	return nil
}

// LightingMetadata describes the primary light source of a system.
type LightingMetadata struct {
	PrimaryStarID string  `json:"primaryStarId,omitempty"`
	ColorHex      string  `json:"colorHex,omitempty"`
	Intensity     float64 `json:"intensity,omitempty"`
}

// OrbitalSystemData is a full planetary system as supplied by the catalog.
type OrbitalSystemData struct {
	ID       string            `json:"id" validate:"required"`
	Name     string            `json:"name" validate:"required"`
	Objects  []CelestialObject `json:"objects" validate:"required,min=1,dive"`
	Lighting LightingMetadata  `json:"lighting"`
}

// Validate checks the system-level invariants: non-empty identity, at least
// one star, unique ids, and an acyclic parent graph rooted at positioned
// objects.
func (s *OrbitalSystemData) Validate() error {
	if s.ID == "" || s.Name == "" {
		return fmt.Errorf("system id and name must be non-empty")
	}

	byID := make(map[string]*CelestialObject, len(s.Objects))
	hasStar := false
	for i := range s.Objects {
		obj := &s.Objects[i]
		if err := obj.Validate(); err != nil {
			return err
		}
		if _, dup := byID[obj.ID]; dup {
			return fmt.Errorf("duplicate object id %s in system %s", obj.ID, s.ID)
		}
		byID[obj.ID] = obj
		if obj.Classification == ClassificationStar {
			hasStar = true
		}
	}
	if !hasStar {
		return fmt.Errorf("system %s contains no star", s.ID)
	}

	// Walk each parent chain; a chain longer than the object count means a
	// cycle, a missing link means a dangling parent reference.
	for i := range s.Objects {
		obj := &s.Objects[i]
		seen := 0
		for cur := obj; !cur.IsRoot(); {
			parent, ok := byID[cur.ParentID()]
			if !ok {
				return fmt.Errorf("object %s references unknown parent %s", cur.ID, cur.ParentID())
			}
			cur = parent
			seen++
			if seen > len(s.Objects) {
				return fmt.Errorf("parent cycle detected at object %s", obj.ID)
			}
		}
	}
	return nil
}

// Object returns the object with the given id, or nil.
func (s *OrbitalSystemData) Object(id string) *CelestialObject {
	for i := range s.Objects {
		if s.Objects[i].ID == id {
			return &s.Objects[i]
		}
	}
	return nil
}
