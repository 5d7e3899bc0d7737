package mechanics

import "github.com/astroviz/orrery/internal/models"

const (
	// minOrbitClearance is the smallest radial gap kept between adjacent
	// orbits or belt edges under one parent, in scene units.
	minOrbitClearance = 0.1

	// maxCollisionPasses bounds the outward-push fixed point. A single
	// ordered pass converges because pushes are transitive and strictly
	// outward, but the re-scan guards the invariant rather than assuming it.
	maxCollisionPasses = 32
)

// innerEdge returns the innermost scene radius an object occupies around its
// parent, including its resolved child system.
func innerEdge(obj *models.CelestialObject, layout map[string]*models.LayoutResult, clearance map[string]float64) float64 {
	res := layout[obj.ID]
	if res.Belt != nil {
		return res.Belt.InnerRadius
	}
	return *res.OrbitDistance - halfExtent(obj, layout, clearance)
}

// outerEdge returns the outermost scene radius an object occupies.
func outerEdge(obj *models.CelestialObject, layout map[string]*models.LayoutResult, clearance map[string]float64) float64 {
	res := layout[obj.ID]
	if res.Belt != nil {
		return res.Belt.OuterRadius
	}
	return *res.OrbitDistance + halfExtent(obj, layout, clearance)
}

// halfExtent is the radial footprint of a point-like object: its own visual
// radius, or the resolved extent of its moon system when that is larger.
func halfExtent(obj *models.CelestialObject, layout map[string]*models.LayoutResult, clearance map[string]float64) float64 {
	if c, ok := clearance[obj.ID]; ok {
		return c
	}
	return layout[obj.ID].VisualRadius
}

// shiftOutward moves an object's placement outward by push scene units.
// Belt bounds shift together so the width and the center invariant hold.
func shiftOutward(obj *models.CelestialObject, layout map[string]*models.LayoutResult, push float64) {
	res := layout[obj.ID]
	if res.Belt != nil {
		layout[obj.ID] = &models.LayoutResult{
			VisualRadius: res.VisualRadius,
			Belt:         models.NewBeltLayout(res.Belt.InnerRadius+push, res.Belt.OuterRadius+push),
		}
		return
	}
	d := *res.OrbitDistance + push
	res.OrbitDistance = &d
}

// resolveCollisions walks parent's children in their raw orbital order and
// pushes colliding objects, and transitively every later sibling, outward by
// the minimum amount restoring a positive gap. Pushes are strictly outward,
// so the raw ordering is never altered. The walk repeats until a full pass
// makes no adjustment.
//
// The parent's own body acts as the innermost obstacle: the first child must
// clear the parent's visual radius.
func resolveCollisions(parent *models.CelestialObject, siblings []*models.CelestialObject,
	layout map[string]*models.LayoutResult, clearance map[string]float64) {

	if len(siblings) == 0 {
		return
	}

	for pass := 0; pass < maxCollisionPasses; pass++ {
		adjusted := false
		prevOuter := layout[parent.ID].VisualRadius

		for i, obj := range siblings {
			if gap := innerEdge(obj, layout, clearance) - prevOuter; gap <= 0 {
				push := -gap + minOrbitClearance
				for _, later := range siblings[i:] {
					shiftOutward(later, layout, push)
				}
				adjusted = true
			}
			prevOuter = outerEdge(obj, layout, clearance)
		}

		if !adjusted {
			return
		}
	}
}
