// Package topology implements the mutable scene graph behind the console's
// topology view.
//
// # Model and Elements
//
// A diagram is described by a plain, serializable [Model] (graph, nodes and
// edges). A [Controller] materializes the model into runtime elements:
//
//   - [Graph]: the single root, owning the viewport (bounds, scale, layout)
//   - [Node]: a positioned box or circle, optionally a group of other nodes
//   - [Edge]: a connection between two nodes with optional bendpoints
//
// All three implement [GraphElement] and share tree operations (parent,
// children, ordering) and coordinate transforms. The kind is fixed at
// construction; dispatch is by [GraphElement.Kind], not by embedding
// hierarchies.
//
// # Ownership
//
// An element is registered in a controller's lookup table exactly when it is
// reachable from that controller's graph root. Attaching a subtree registers
// it, removing it from its parent unregisters it:
//
//	c := topology.NewController()
//	if err := c.FromModel(model); err != nil {
//	    // edges with unknown endpoints were skipped; the rest is loaded
//	}
//	n := c.NodeByID("db")
//	n.Remove() // n and its descendants leave the lookup table
//
// # Extension Points
//
// Layout algorithms, render components and element construction are supplied
// through ordered factory chains ([LayoutFactory], [ComponentFactory],
// [ElementFactory]). The first factory returning a non-nil value wins; a nil
// result from every factory means "nothing configured", not an error.
//
// # Events
//
// [Controller.FireEvent] dispatches synchronously, in registration order, to
// listeners of exactly that event type. [EventType] adds a typed layer on top:
//
//	topology.On(c, topology.GraphBoundsChanged, func(r geom.Rect) { ... })
//
// # Concurrency
//
// A Controller and its elements are not safe for concurrent use. Callers
// that mutate from several goroutines (timer callbacks, network handlers)
// must serialize access themselves.
package topology
