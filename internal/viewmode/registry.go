// Package viewmode defines the closed set of rendering view modes and the
// per-mode scaling constants and layout strategies used by the orbital
// calculation service.
package viewmode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/models"
)

// Mode identifies a rendering view mode. The set is closed: anything outside
// it is external input error and resolves to the default mode.
type Mode string

const (
	// ModeExplorational is the default mode: physically proportional layout
	// with mild size exaggeration so small bodies stay visible.
	ModeExplorational Mode = "explorational"
	// ModeRealistic is strictly proportional to the physical data.
	ModeRealistic Mode = "realistic"
	// ModeNavigational is a schematic mode: fixed per-class sizes and
	// equidistant orbits.
	ModeNavigational Mode = "navigational"
	// ModeProfile is a schematic side-profile mode with compressed spacing.
	ModeProfile Mode = "profile"
)

// DefaultMode is used whenever an unknown mode string is supplied.
const DefaultMode = ModeExplorational

// All lists every supported mode.
func All() []Mode {
	return []Mode{ModeExplorational, ModeRealistic, ModeNavigational, ModeProfile}
}

// Parse maps a raw string onto the closed mode set, reporting whether it was
// recognized.
func Parse(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeExplorational, ModeRealistic, ModeNavigational, ModeProfile:
		return Mode(s), true
	default:
		return DefaultMode, false
	}
}

// Scaling holds the per-mode multipliers applied to orbital distances and
// object sizes. OrbitalScale converts AU to scene units.
type Scaling struct {
	OrbitalScale    float64 `json:"orbitalScale" mapstructure:"orbital_scale"`
	StarScale       float64 `json:"starScale" mapstructure:"star_scale"`
	PlanetScale     float64 `json:"planetScale" mapstructure:"planet_scale"`
	MoonScale       float64 `json:"moonScale" mapstructure:"moon_scale"`
	StarShaderScale float64 `json:"starShaderScale" mapstructure:"star_shader_scale"`
}

// Validate enforces the registry invariants: all multipliers positive and the
// visual hierarchy star > planet > moon preserved in every mode.
func (s Scaling) Validate() error {
	if s.OrbitalScale <= 0 || s.StarScale <= 0 || s.PlanetScale <= 0 ||
		s.MoonScale <= 0 || s.StarShaderScale <= 0 {
		return fmt.Errorf("all scaling factors must be positive: %+v", s)
	}
	if !(s.StarScale > s.PlanetScale && s.PlanetScale > s.MoonScale) {
		return fmt.Errorf("scaling must satisfy star > planet > moon, got star=%.3f planet=%.3f moon=%.3f",
			s.StarScale, s.PlanetScale, s.MoonScale)
	}
	return nil
}

// Registry maps modes to scaling constants and layout strategies. Lookups
// are pure; the registry is built once at startup and never mutated.
type Registry struct {
	scalings   map[Mode]Scaling
	strategies map[Mode]Strategy
	logger     *zap.Logger
}

// NewRegistry builds a registry with the built-in defaults.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		scalings: map[Mode]Scaling{
			ModeExplorational: {OrbitalScale: 8.0, StarScale: 1.5, PlanetScale: 1.0, MoonScale: 0.6, StarShaderScale: 1.2},
			ModeRealistic:     {OrbitalScale: 10.0, StarScale: 1.0, PlanetScale: 0.5, MoonScale: 0.25, StarShaderScale: 1.0},
			ModeNavigational:  {OrbitalScale: 6.0, StarScale: 2.0, PlanetScale: 1.2, MoonScale: 0.6, StarShaderScale: 1.5},
			ModeProfile:       {OrbitalScale: 4.0, StarScale: 1.8, PlanetScale: 1.0, MoonScale: 0.5, StarShaderScale: 1.4},
		},
		strategies: make(map[Mode]Strategy),
		logger:     logger.With(zap.String("component", "viewmode_registry")),
	}

	r.strategies[ModeExplorational] = &proportionalStrategy{scaling: r.scalings[ModeExplorational], minRadius: minVisualRadius}
	r.strategies[ModeRealistic] = &proportionalStrategy{scaling: r.scalings[ModeRealistic], minRadius: minVisualRadius}
	r.strategies[ModeNavigational] = &schematicStrategy{scaling: r.scalings[ModeNavigational], orbitStep: navigationalOrbitStep}
	r.strategies[ModeProfile] = &schematicStrategy{scaling: r.scalings[ModeProfile], orbitStep: profileOrbitStep}

	return r
}

// Override replaces the scaling constants for a mode. Overrides that break
// the registry invariants are rejected.
func (r *Registry) Override(mode Mode, scaling Scaling) error {
	if _, ok := r.scalings[mode]; !ok {
		return fmt.Errorf("unknown view mode %q", mode)
	}
	if err := scaling.Validate(); err != nil {
		return fmt.Errorf("rejecting scaling override for %s: %w", mode, err)
	}
	r.scalings[mode] = scaling
	switch s := r.strategies[mode].(type) {
	case *proportionalStrategy:
		s.scaling = scaling
	case *schematicStrategy:
		s.scaling = scaling
	}
	r.logger.Info("View-mode scaling overridden", zap.String("mode", string(mode)))
	return nil
}

// Scaling returns the scaling constants for a mode. Unknown modes fall back
// to the default mode's scaling with a warning; the lookup never fails.
func (r *Registry) Scaling(mode Mode) Scaling {
	if s, ok := r.scalings[mode]; ok {
		return s
	}
	r.logger.Warn("Unknown view mode, falling back to default",
		zap.String("mode", string(mode)),
		zap.String("default", string(DefaultMode)))
	return r.scalings[DefaultMode]
}

// Strategy returns the layout strategy for a mode, falling back to the
// default mode for unknown input.
func (r *Registry) Strategy(mode Mode) Strategy {
	if s, ok := r.strategies[mode]; ok {
		return s
	}
	r.logger.Warn("Unknown view mode, using default strategy",
		zap.String("mode", string(mode)),
		zap.String("default", string(DefaultMode)))
	return r.strategies[DefaultMode]
}

// classScale picks the size multiplier for an object's classification.
func classScale(s Scaling, c models.Classification) float64 {
	switch c {
	case models.ClassificationStar:
		return s.StarScale
	case models.ClassificationMoon:
		return s.MoonScale
	default:
		return s.PlanetScale
	}
}
