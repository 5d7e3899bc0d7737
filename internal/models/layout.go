package models

// BeltLayout holds the resolved scene-space radii of a belt region.
// CenterRadius is always the midpoint of the resolved bounds.
type BeltLayout struct {
	InnerRadius  float64 `json:"innerRadius"`
	OuterRadius  float64 `json:"outerRadius"`
	CenterRadius float64 `json:"centerRadius"`
}

// NewBeltLayout builds a belt layout with the center derived from the bounds.
func NewBeltLayout(inner, outer float64) *BeltLayout {
	return &BeltLayout{
		InnerRadius:  inner,
		OuterRadius:  outer,
		CenterRadius: (inner + outer) / 2,
	}
}

// Width returns the radial extent of the belt.
func (b *BeltLayout) Width() float64 {
	return b.OuterRadius - b.InnerRadius
}

// LayoutResult is the per-object output of the orbital calculation service,
// in scene units. Exactly one of OrbitDistance or Belt is set for orbiting
// objects; roots carry neither. Results are immutable once published.
type LayoutResult struct {
	VisualRadius  float64     `json:"visualRadius"`
	OrbitDistance *float64    `json:"orbitDistance,omitempty"`
	Belt          *BeltLayout `json:"beltData,omitempty"`
}

// InnerEdge returns the innermost scene radius the object occupies, used by
// collision resolution.
func (r *LayoutResult) InnerEdge() float64 {
	if r.Belt != nil {
		return r.Belt.InnerRadius
	}
	if r.OrbitDistance != nil {
		return *r.OrbitDistance - r.VisualRadius
	}
	return 0
}

// OuterEdge returns the outermost scene radius the object occupies.
func (r *LayoutResult) OuterEdge() float64 {
	if r.Belt != nil {
		return r.Belt.OuterRadius
	}
	if r.OrbitDistance != nil {
		return *r.OrbitDistance + r.VisualRadius
	}
	return 0
}

// Placement returns the nominal radial placement: the orbit distance for
// point-like bodies, the center radius for belts.
func (r *LayoutResult) Placement() float64 {
	if r.Belt != nil {
		return r.Belt.CenterRadius
	}
	if r.OrbitDistance != nil {
		return *r.OrbitDistance
	}
	return 0
}
