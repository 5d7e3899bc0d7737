// Package mechanics implements the orbital calculation service: converting a
// physically-scaled system description into a collision-free scene layout for
// a given view mode.
package mechanics

import "fmt"

// WarningCode classifies configuration problems found during calculation.
type WarningCode string

const (
	// WarnUnresolvedParent marks an object whose orbit parent does not
	// resolve to a known object in the same system.
	WarnUnresolvedParent WarningCode = "unresolved-parent"
	// WarnOrphanedSubtree marks an object excluded because an ancestor was
	// excluded.
	WarnOrphanedSubtree WarningCode = "orphaned-subtree"
	// WarnMalformedBelt marks a belt whose inner radius is not strictly
	// below its outer radius.
	WarnMalformedBelt WarningCode = "malformed-belt"
)

// Warning records why an object is absent from a layout result. Excluded
// objects are reported, never silently dropped.
type Warning struct {
	ObjectID string      `json:"objectId"`
	Code     WarningCode `json:"code"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s [%s]: %s", w.ObjectID, w.Code, w.Message)
}
