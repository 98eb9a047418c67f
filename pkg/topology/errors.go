package topology

import "errors"

var (
	// ErrInvalidID is returned when an element without an id is attached to a
	// controller's tree.
	ErrInvalidID = errors.New("element id must not be empty")

	// ErrDuplicateID is returned when attaching an element whose id is already
	// registered to a different element. The controller state is unchanged.
	ErrDuplicateID = errors.New("duplicate element id")

	// ErrUnknownNode is reported by [Controller.FromModel] for edges whose
	// source or target does not name a loaded node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrForeignNode is returned when an edge endpoint belongs to another
	// controller.
	ErrForeignNode = errors.New("node belongs to another controller")

	// ErrCycle is returned when an element would become its own ancestor.
	ErrCycle = errors.New("element cannot contain itself")

	// ErrInconsistent is returned by [Controller.Validate] when the lookup
	// table and the element tree disagree.
	ErrInconsistent = errors.New("lookup table out of sync with element tree")
)
