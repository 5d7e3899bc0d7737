package pipeline

import (
	"fmt"
	"sort"

	"github.com/astroviz/orrery/internal/mechanics"
	"github.com/astroviz/orrery/internal/models"
)

// validateRequest checks the structural preconditions a request must meet
// before any calculation. Configuration problems inside individual objects
// (malformed belts, dangling parents) are not failures here; the calculation
// service converts those into warnings.
func validateRequest(req CalculationRequest) error {
	if len(req.Objects) == 0 {
		return fmt.Errorf("request for system %q carries no objects", req.SystemID)
	}
	seen := make(map[string]struct{}, len(req.Objects))
	for i := range req.Objects {
		id := req.Objects[i].ID
		if id == "" {
			return fmt.Errorf("object at index %d has an empty id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate object id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// verifyClearances re-checks the collision resolver's output: for every
// adjacent sibling pair under one parent, ordered by raw orbital elements,
// the next object's inner edge must clear the previous object's outer edge,
// and placements must preserve the raw ordering.
func verifyClearances(objects []models.CelestialObject, layout map[string]*models.LayoutResult) error {
	for parentID, siblings := range siblingsByParent(objects, layout) {
		for i := 1; i < len(siblings); i++ {
			prev, cur := layout[siblings[i-1].ID], layout[siblings[i].ID]
			if cur.InnerEdge() <= prev.OuterEdge() {
				return fmt.Errorf("collision invariant violated under %s: %s inner edge %.4f <= %s outer edge %.4f",
					parentID, siblings[i].ID, cur.InnerEdge(), siblings[i-1].ID, prev.OuterEdge())
			}
			if cur.Placement() <= prev.Placement() {
				return fmt.Errorf("ordering invariant violated under %s: %s placed at %.4f, inside %s at %.4f",
					parentID, siblings[i].ID, cur.Placement(), siblings[i-1].ID, prev.Placement())
			}
		}
	}
	return nil
}

// verifyHierarchy checks the result map's shape: every input object is
// either laid out or attributed to a warning, and belt centers sit exactly
// at the midpoint of their bounds.
func verifyHierarchy(objects []models.CelestialObject, layout map[string]*models.LayoutResult, warnings []mechanics.Warning) error {
	warned := make(map[string]struct{}, len(warnings))
	for _, w := range warnings {
		warned[w.ObjectID] = struct{}{}
	}

	for i := range objects {
		obj := &objects[i]
		res, placed := layout[obj.ID]
		if !placed {
			if _, attributed := warned[obj.ID]; !attributed {
				return fmt.Errorf("object %s missing from layout without an attributed warning", obj.ID)
			}
			continue
		}
		if res.VisualRadius <= 0 {
			return fmt.Errorf("object %s has non-positive visual radius %.6f", obj.ID, res.VisualRadius)
		}
		if res.Belt != nil {
			want := (res.Belt.InnerRadius + res.Belt.OuterRadius) / 2
			if res.Belt.CenterRadius != want {
				return fmt.Errorf("belt %s center %.6f is not the midpoint of [%.6f, %.6f]",
					obj.ID, res.Belt.CenterRadius, res.Belt.InnerRadius, res.Belt.OuterRadius)
			}
		}
	}
	return nil
}

// siblingsByParent groups laid-out orbiting objects by parent, ordered by
// their raw orbital elements.
func siblingsByParent(objects []models.CelestialObject, layout map[string]*models.LayoutResult) map[string][]*models.CelestialObject {
	groups := make(map[string][]*models.CelestialObject)
	for i := range objects {
		obj := &objects[i]
		if obj.IsRoot() {
			continue
		}
		if _, placed := layout[obj.ID]; !placed {
			continue
		}
		groups[obj.ParentID()] = append(groups[obj.ParentID()], obj)
	}
	for _, siblings := range groups {
		sort.Slice(siblings, func(i, j int) bool {
			if siblings[i].OrbitalOrdinal() != siblings[j].OrbitalOrdinal() {
				return siblings[i].OrbitalOrdinal() < siblings[j].OrbitalOrdinal()
			}
			return siblings[i].ID < siblings[j].ID
		})
	}
	return groups
}
