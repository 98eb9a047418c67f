package topology

import "io"

// Layout positions the elements of a graph.
type Layout interface {
	// Layout runs the algorithm over the current element tree.
	Layout() error
	// Destroy releases state held between runs.
	Destroy()
}

// LayoutFactory returns the layout for typ, or nil if it does not handle it.
type LayoutFactory func(typ string, g *Graph) Layout

// Component renders one element. children renders the element's visible
// children in order and may be called at most once.
type Component interface {
	Render(w io.Writer, e GraphElement, children func() error) error
}

// ComponentFunc adapts a function to [Component].
type ComponentFunc func(w io.Writer, e GraphElement, children func() error) error

func (f ComponentFunc) Render(w io.Writer, e GraphElement, children func() error) error {
	return f(w, e, children)
}

// ComponentFactory returns the component for an element kind and type, or
// nil if it does not handle them.
type ComponentFactory func(kind ModelKind, typ string) Component

// ElementFactory constructs a detached element of the given kind, or
// returns nil to defer to the next factory.
type ElementFactory func(kind ModelKind, typ string) GraphElement

// DefaultElementFactory builds the plain [Graph], [Node] and [Edge] types.
// Every controller consults it after the registered factories.
func DefaultElementFactory(kind ModelKind, typ string) GraphElement {
	switch kind {
	case KindGraph:
		return NewGraph("", typ)
	case KindNode:
		return NewNode("", typ)
	case KindEdge:
		return NewEdge("", typ)
	}
	return nil
}

// firstOf returns the first non-nil result of the chain.
func firstOf[F any, R comparable](chain []F, call func(F) R) R {
	var zero R
	for _, f := range chain {
		if r := call(f); r != zero {
			return r
		}
	}
	return zero
}
