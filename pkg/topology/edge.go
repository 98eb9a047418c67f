package topology

import (
	"slices"

	"github.com/matzehuels/topoview/pkg/geom"
)

// Edge connects a source node to a target node. Bendpoints and endpoint
// overrides are in the graph's content space.
type Edge struct {
	element

	source     *Node
	target     *Node
	startPoint *geom.Point
	endPoint   *geom.Point
	bendpoints []geom.Point
}

// NewEdge returns a detached edge without endpoints.
func NewEdge(id, typ string) *Edge {
	e := &Edge{}
	e.init(e, KindEdge, id, typ)
	return e
}

func (e *Edge) Source() *Node { return e.source }

// SetSource sets the source node. An attached edge only accepts nodes of
// its own controller; a detached edge accepts any node and is checked when
// it is attached.
func (e *Edge) SetSource(n *Node) error {
	if err := e.checkEndpoint(n); err != nil {
		return err
	}
	e.source = n
	e.changed()
	return nil
}

func (e *Edge) Target() *Node { return e.target }

// SetTarget sets the target node, with the same ownership rule as SetSource.
func (e *Edge) SetTarget(n *Node) error {
	if err := e.checkEndpoint(n); err != nil {
		return err
	}
	e.target = n
	e.changed()
	return nil
}

func (e *Edge) checkEndpoint(n *Node) error {
	if n != nil && e.controller != nil && n.controller != e.controller {
		return ErrForeignNode
	}
	return nil
}

// StartPoint returns where the edge leaves its source. The source anchor
// aims at the first bendpoint, else at the end override, else at the
// target's reference point.
func (e *Edge) StartPoint() geom.Point {
	if e.startPoint != nil {
		return *e.startPoint
	}
	if e.source == nil {
		return geom.Point{}
	}
	var ref geom.Point
	switch {
	case len(e.bendpoints) > 0:
		ref = e.bendpoints[0]
	case e.endPoint != nil:
		ref = *e.endPoint
	case e.target != nil:
		ref = e.target.Anchor(AnchorTarget).ReferencePoint()
	default:
		return e.source.Anchor(AnchorSource).ReferencePoint()
	}
	return e.source.Anchor(AnchorSource).Location(ref)
}

// SetStartPoint overrides the start point. nil restores the anchored one.
func (e *Edge) SetStartPoint(p *geom.Point) {
	e.startPoint = clonePoint(p)
	e.changed()
}

// EndPoint returns where the edge meets its target.
func (e *Edge) EndPoint() geom.Point {
	if e.endPoint != nil {
		return *e.endPoint
	}
	if e.target == nil {
		return geom.Point{}
	}
	var ref geom.Point
	switch {
	case len(e.bendpoints) > 0:
		ref = e.bendpoints[len(e.bendpoints)-1]
	case e.startPoint != nil:
		ref = *e.startPoint
	case e.source != nil:
		ref = e.source.Anchor(AnchorSource).ReferencePoint()
	default:
		return e.target.Anchor(AnchorTarget).ReferencePoint()
	}
	return e.target.Anchor(AnchorTarget).Location(ref)
}

// SetEndPoint overrides the end point. nil restores the anchored one.
func (e *Edge) SetEndPoint(p *geom.Point) {
	e.endPoint = clonePoint(p)
	e.changed()
}

// Bendpoints returns a copy of the bendpoints.
func (e *Edge) Bendpoints() []geom.Point { return slices.Clone(e.bendpoints) }

func (e *Edge) SetBendpoints(points []geom.Point) {
	e.bendpoints = slices.Clone(points)
	e.changed()
}

// RemoveBendpoint deletes the bendpoint at index i. Out of range indexes
// are ignored.
func (e *Edge) RemoveBendpoint(i int) {
	if i < 0 || i >= len(e.bendpoints) {
		return
	}
	e.bendpoints = slices.Delete(e.bendpoints, i, i+1)
	e.changed()
}

// SetModel applies m. Endpoint ids are resolved by the controller.
func (e *Edge) SetModel(m EdgeModel) {
	e.applyModel(m.ElementModel)
	if m.Bendpoints != nil {
		e.bendpoints = e.bendpoints[:0]
		for _, p := range m.Bendpoints {
			e.bendpoints = append(e.bendpoints, geom.NewPoint(p[0], p[1]))
		}
	}
	if c := e.controller; c != nil {
		if n := c.NodeByID(m.Source); n != nil {
			e.source = n
		}
		if n := c.NodeByID(m.Target); n != nil {
			e.target = n
		}
	}
	e.changed()
}

// Model returns a snapshot of the edge.
func (e *Edge) Model() EdgeModel {
	m := EdgeModel{ElementModel: e.elementModel()}
	if e.source != nil {
		m.Source = e.source.id
	}
	if e.target != nil {
		m.Target = e.target.id
	}
	for _, p := range e.bendpoints {
		m.Bendpoints = append(m.Bendpoints, PointTuple{p.X, p.Y})
	}
	return m
}

func clonePoint(p *geom.Point) *geom.Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
