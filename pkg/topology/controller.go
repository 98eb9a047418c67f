package topology

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// DefaultGraphID is the id of the graph created when a model has none.
const DefaultGraphID = "graph"

// Controller owns one graph root, the id lookup table of every element
// reachable from it, the factory chains and the event listeners.
type Controller struct {
	graph    *Graph
	elements map[string]GraphElement

	layoutFactories    []LayoutFactory
	componentFactories []ComponentFactory
	elementFactories   []ElementFactory

	listeners  map[string][]listenerEntry
	nextHandle ListenerHandle

	state  State
	logger *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for load warnings and debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithElementFactory registers an element factory.
func WithElementFactory(f ElementFactory) Option {
	return func(c *Controller) { c.RegisterElementFactory(f) }
}

// WithLayoutFactory registers a layout factory.
func WithLayoutFactory(f LayoutFactory) Option {
	return func(c *Controller) { c.RegisterLayoutFactory(f) }
}

// WithComponentFactory registers a component factory.
func WithComponentFactory(f ComponentFactory) Option {
	return func(c *Controller) { c.RegisterComponentFactory(f) }
}

// NewController returns an empty controller without a graph.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		elements: map[string]GraphElement{},
		state:    State{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Graph returns the root graph, or nil before one is set.
func (c *Controller) Graph() *Graph { return c.graph }

// SetGraph replaces the root. The previous tree is released.
func (c *Controller) SetGraph(g *Graph) error {
	if g == c.graph {
		return nil
	}
	if g != nil && g.parent != nil {
		return fmt.Errorf("graph %q: %w", g.id, ErrCycle)
	}
	old := c.graph
	if old != nil {
		c.release(old)
		c.graph = nil
	}
	if g == nil {
		return nil
	}
	if err := c.adopt(g); err != nil {
		if old != nil {
			_ = c.adopt(old)
			c.graph = old
		}
		return err
	}
	c.graph = g
	return nil
}

// FromModel replaces the controller's elements with those described by m.
//
// Nodes are built before edges. An edge whose source or target is not a
// loaded node is skipped and reported in the returned error, which wraps
// [ErrUnknownNode]; the rest of the model is still loaded.
func (c *Controller) FromModel(m Model) error {
	gm := GraphModel{ElementModel: ElementModel{ID: DefaultGraphID, Type: string(KindGraph)}}
	if m.Graph != nil {
		gm = *m.Graph
		if gm.ID == "" {
			gm.ID = DefaultGraphID
		}
	}
	g, ok := c.CreateElement(KindGraph, gm.Type).(*Graph)
	if !ok {
		return fmt.Errorf("element factory returned no graph for type %q", gm.Type)
	}
	g.id = gm.ID
	g.SetModel(gm)

	// Keep the viewport size when reloading into a mounted surface.
	if c.graph != nil {
		b := g.bounds
		g.bounds = *b.SetSize(c.graph.bounds.Width, c.graph.bounds.Height)
	}
	if err := c.SetGraph(g); err != nil {
		return err
	}

	parentOf := map[string]string{}
	for _, nm := range m.Nodes {
		for _, child := range nm.Children {
			parentOf[child] = nm.ID
		}
	}

	var errs []error
	nodes := map[string]*Node{}
	var order []*Node
	for _, nm := range m.Nodes {
		if nm.ID == "" {
			errs = append(errs, fmt.Errorf("node: %w", ErrInvalidID))
			continue
		}
		if _, dup := nodes[nm.ID]; dup || nm.ID == g.id {
			errs = append(errs, fmt.Errorf("node %q: %w", nm.ID, ErrDuplicateID))
			continue
		}
		n, ok := c.CreateElement(KindNode, nm.Type).(*Node)
		if !ok {
			errs = append(errs, fmt.Errorf("node %q: element factory returned no node", nm.ID))
			continue
		}
		n.id = nm.ID
		n.SetModel(nm)
		nodes[nm.ID] = n
		order = append(order, n)
	}

	// Nested nodes first, in their parent's child order, then top-level
	// nodes in model order.
	for _, nm := range m.Nodes {
		p := nodes[nm.ID]
		if p == nil {
			continue
		}
		for _, id := range nm.Children {
			if n := nodes[id]; n != nil && n.parent == nil {
				if err := p.AppendChild(n); err != nil {
					errs = append(errs, fmt.Errorf("node %q: %w", id, err))
				}
			}
		}
	}
	for _, n := range order {
		if n.parent != nil {
			continue
		}
		if err := g.AppendChild(n); err != nil {
			errs = append(errs, fmt.Errorf("node %q: %w", n.id, err))
		}
	}

	for _, em := range m.Edges {
		if err := c.loadEdge(em, parentOf); err != nil {
			c.logger.Warn("skipping edge", "id", em.ID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) loadEdge(em EdgeModel, parentOf map[string]string) error {
	if em.ID == "" {
		return fmt.Errorf("edge: %w", ErrInvalidID)
	}
	if _, dup := c.elements[em.ID]; dup {
		return fmt.Errorf("edge %q: %w", em.ID, ErrDuplicateID)
	}
	src, tgt := c.NodeByID(em.Source), c.NodeByID(em.Target)
	if src == nil {
		return fmt.Errorf("edge %q: source %q: %w", em.ID, em.Source, ErrUnknownNode)
	}
	if tgt == nil {
		return fmt.Errorf("edge %q: target %q: %w", em.ID, em.Target, ErrUnknownNode)
	}
	e, ok := c.CreateElement(KindEdge, em.Type).(*Edge)
	if !ok {
		return fmt.Errorf("edge %q: element factory returned no edge", em.ID)
	}
	e.id = em.ID
	e.source, e.target = src, tgt
	e.SetModel(em)

	var parent GraphElement = c.graph
	if p := c.ElementByID(parentOf[em.ID]); p != nil {
		parent = p
	}
	return parent.AppendChild(e)
}

// ToModel snapshots the current tree. Elements appear in document order.
func (c *Controller) ToModel() Model {
	var m Model
	if c.graph == nil {
		return m
	}
	gm := c.graph.Model()
	m.Graph = &gm
	walk(c.graph, func(el GraphElement) {
		switch v := el.(type) {
		case *Node:
			m.Nodes = append(m.Nodes, v.Model())
		case *Edge:
			m.Edges = append(m.Edges, v.Model())
		}
	})
	return m
}

// Elements returns every registered element in document order.
func (c *Controller) Elements() []GraphElement {
	if c.graph == nil {
		return nil
	}
	out := make([]GraphElement, 0, len(c.elements))
	walk(c.graph, func(el GraphElement) { out = append(out, el) })
	return out
}

// ElementByID returns the registered element with id, or nil.
func (c *Controller) ElementByID(id string) GraphElement {
	return c.elements[id]
}

// NodeByID returns the node with id, or nil if id is unknown or names
// another kind.
func (c *Controller) NodeByID(id string) *Node {
	n, _ := c.elements[id].(*Node)
	return n
}

// EdgeByID returns the edge with id, or nil if id is unknown or names
// another kind.
func (c *Controller) EdgeByID(id string) *Edge {
	e, _ := c.elements[id].(*Edge)
	return e
}

// AddElement attaches el under the graph root, detaching it from any
// previous parent. A graph becomes the new root. The controller is left
// untouched if any id in el's subtree is already registered.
func (c *Controller) AddElement(el GraphElement) error {
	if _, taken := c.elements[el.ID()]; taken {
		return fmt.Errorf("add %s %q: %w", el.Kind(), el.ID(), ErrDuplicateID)
	}
	if g, ok := el.(*Graph); ok {
		return c.SetGraph(g)
	}
	if c.graph == nil {
		g := NewGraph(DefaultGraphID, string(KindGraph))
		if err := c.SetGraph(g); err != nil {
			return err
		}
	}
	if err := c.graph.AppendChild(el); err != nil {
		return fmt.Errorf("add %s %q: %w", el.Kind(), el.ID(), err)
	}
	return nil
}

// RemoveElement detaches el and unregisters its subtree. Removing the root
// graph clears the controller.
func (c *Controller) RemoveElement(el GraphElement) {
	if el.Controller() != c {
		return
	}
	if g, ok := el.(*Graph); ok && g == c.graph {
		_ = c.SetGraph(nil)
		return
	}
	el.Remove()
}

// RegisterLayoutFactory appends f to the layout chain.
func (c *Controller) RegisterLayoutFactory(f LayoutFactory) {
	c.layoutFactories = append(c.layoutFactories, f)
}

// RegisterComponentFactory appends f to the component chain.
func (c *Controller) RegisterComponentFactory(f ComponentFactory) {
	c.componentFactories = append(c.componentFactories, f)
}

// RegisterElementFactory appends f to the element chain, ahead of the
// default factory.
func (c *Controller) RegisterElementFactory(f ElementFactory) {
	c.elementFactories = append(c.elementFactories, f)
}

// Layout returns the first layout claiming typ for the current graph, or
// nil.
func (c *Controller) Layout(typ string) Layout {
	if c.graph == nil {
		return nil
	}
	return firstOf(c.layoutFactories, func(f LayoutFactory) Layout { return f(typ, c.graph) })
}

// Component returns the first component claiming kind and typ, or nil.
func (c *Controller) Component(kind ModelKind, typ string) Component {
	return firstOf(c.componentFactories, func(f ComponentFactory) Component { return f(kind, typ) })
}

// CreateElement builds a detached element through the element chain. A
// factory returning an element of another kind is skipped.
func (c *Controller) CreateElement(kind ModelKind, typ string) GraphElement {
	chain := append(c.elementFactories[:len(c.elementFactories):len(c.elementFactories)], DefaultElementFactory)
	return firstOf(chain, func(f ElementFactory) GraphElement {
		if el := f(kind, typ); el != nil && el.Kind() == kind {
			return el
		}
		return nil
	})
}

// State returns the controller state. The map is never nil.
func (c *Controller) State() State { return c.state }

// SetState merges s into the controller state.
func (c *Controller) SetState(s State) {
	for k, v := range s {
		c.state[k] = v
	}
	Emit(c, StateChanged, c.state)
}

// Store returns the state value for key.
func (c *Controller) Store(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// Validate checks that the lookup table holds exactly the elements
// reachable from the root and that every edge endpoint is one of them.
func (c *Controller) Validate() error {
	seen := 0
	var bad error
	if c.graph != nil {
		walk(c.graph, func(el GraphElement) {
			seen++
			if bad != nil {
				return
			}
			if c.elements[el.ID()] != el || el.Controller() != c {
				bad = fmt.Errorf("%s %q: %w", el.Kind(), el.ID(), ErrInconsistent)
				return
			}
			if e, ok := el.(*Edge); ok {
				for _, n := range []*Node{e.source, e.target} {
					if n != nil && n.controller != c {
						bad = fmt.Errorf("edge %q endpoint %q: %w", e.id, n.id, ErrForeignNode)
						return
					}
				}
			}
		})
	}
	if bad != nil {
		return bad
	}
	if seen != len(c.elements) {
		return fmt.Errorf("%d reachable, %d registered: %w", seen, len(c.elements), ErrInconsistent)
	}
	return nil
}

// adopt registers root and its descendants. Nothing is registered if any
// id is empty or taken, or if an edge in the subtree ends at a node that is
// neither registered with c nor part of the subtree.
func (c *Controller) adopt(root GraphElement) error {
	ids := map[string]bool{}
	var err error
	walk(root, func(el GraphElement) {
		if err != nil {
			return
		}
		id := el.ID()
		switch {
		case id == "":
			err = fmt.Errorf("%s: %w", el.Kind(), ErrInvalidID)
		case ids[id]:
			err = fmt.Errorf("%s %q: %w", el.Kind(), id, ErrDuplicateID)
		default:
			if cur, taken := c.elements[id]; taken && cur != el {
				err = fmt.Errorf("%s %q: %w", el.Kind(), id, ErrDuplicateID)
			}
		}
		ids[id] = true
	})
	if err != nil {
		return err
	}
	if err := c.checkEdgeEndpoints(root); err != nil {
		return err
	}

	if prev := root.Controller(); prev != nil && prev != c {
		prev.release(root)
	}
	var added []GraphElement
	walk(root, func(el GraphElement) {
		b := el.base()
		b.controller = c
		c.elements[b.id] = el
		added = append(added, el)
	})
	for _, el := range added {
		Emit(c, ElementAdded, el)
	}
	return nil
}

// checkEdgeEndpoints rejects edges under root whose source or target would
// end up outside c.
func (c *Controller) checkEdgeEndpoints(root GraphElement) error {
	inside := map[*Node]bool{}
	var edges []*Edge
	walk(root, func(el GraphElement) {
		switch v := el.(type) {
		case *Node:
			inside[v] = true
		case *Edge:
			edges = append(edges, v)
		}
	})
	for _, e := range edges {
		for _, n := range []*Node{e.source, e.target} {
			if n != nil && !inside[n] && n.controller != c {
				return fmt.Errorf("edge %q endpoint %q: %w", e.id, n.id, ErrForeignNode)
			}
		}
	}
	return nil
}

// release unregisters root and its descendants. Registered edges left
// pointing at a released node are detached and released too.
func (c *Controller) release(root GraphElement) {
	gone := map[*Node]bool{}
	removed := c.unregister(root, gone)

	var dangling []*Edge
	for _, el := range c.elements {
		if e, ok := el.(*Edge); ok && (gone[e.source] || gone[e.target]) {
			dangling = append(dangling, e)
		}
	}
	slices.SortFunc(dangling, func(a, b *Edge) int { return CompareOrderKeys(a.OrderKey(), b.OrderKey()) })
	for _, e := range dangling {
		if e.controller != c {
			continue
		}
		if e.parent != nil {
			e.parent.base().detach(e)
		}
		removed = append(removed, c.unregister(e, gone)...)
	}

	for _, el := range removed {
		Emit(c, ElementRemoved, el)
	}
}

// unregister drops root and its descendants from the lookup table and
// records the released nodes in gone.
func (c *Controller) unregister(root GraphElement, gone map[*Node]bool) []GraphElement {
	var removed []GraphElement
	walk(root, func(el GraphElement) {
		b := el.base()
		if b.controller != c {
			return
		}
		if c.elements[b.id] == el {
			delete(c.elements, b.id)
		}
		b.controller = nil
		if n, ok := el.(*Node); ok {
			gone[n] = true
		}
		removed = append(removed, el)
	})
	return removed
}
