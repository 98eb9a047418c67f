package layout

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/topology"
)

// Layout names understood by [Factory].
const (
	Layered  = "layered"
	Grid     = "grid"
	Graphviz = "graphviz"
)

// Direction of the rank axis in a layered layout.
type Direction string

const (
	TopToBottom Direction = "TB"
	LeftToRight Direction = "LR"
)

// Default spacing in content units.
const (
	DefaultNodeSep = 20.0
	DefaultRankSep = 50.0
)

// Options tunes every layout built by [Factory].
type Options struct {
	// NodeSep is the gap between neighbouring nodes in a rank or grid row.
	NodeSep float64
	// RankSep is the gap between ranks.
	RankSep float64
	// Direction of the layered and graphviz rank axis. Defaults to TB.
	Direction Direction
	// Sweeps is the number of barycenter passes. Defaults to 4.
	Sweeps int
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.NodeSep <= 0 {
		o.NodeSep = DefaultNodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = DefaultRankSep
	}
	if o.Direction == "" {
		o.Direction = TopToBottom
	}
	if o.Sweeps <= 0 {
		o.Sweeps = 4
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Names returns the layout names in a stable order.
func Names() []string { return []string{Layered, Grid, Graphviz} }

// Valid reports whether name is a known layout.
func Valid(name string) bool { return slices.Contains(Names(), name) }

// Factory returns a layout factory resolving the names in [Names].
// Unknown names resolve to nil so later factories in the chain can claim
// them.
func Factory(opts Options) topology.LayoutFactory {
	opts = opts.withDefaults()
	return func(typ string, g *topology.Graph) topology.Layout {
		var a arranger
		switch typ {
		case Layered:
			a = &layered{opts: opts}
		case Grid:
			a = grid{opts: opts}
		case Graphviz:
			a = &graphviz{opts: opts}
		default:
			return nil
		}
		return &runner{graph: g, arranger: a, logger: opts.Logger, name: typ}
	}
}

// link is a directed edge between two indexes of a sibling set.
type link struct{ from, to int }

// arranger positions one set of siblings.
type arranger interface {
	arrange(nodes []*topology.Node, links []link) error
}

type runner struct {
	graph    *topology.Graph
	arranger arranger
	logger   *log.Logger
	name     string
}

func (r *runner) Layout() error {
	edges := collectEdges(r.graph)
	if err := r.arrangeChildren(r.graph, r.graph.Nodes(), edges); err != nil {
		return fmt.Errorf("%s layout: %w", r.name, err)
	}
	r.logger.Debug("layout done", "type", r.name, "nodes", len(r.graph.Nodes()), "edges", len(edges))
	return nil
}

func (r *runner) Destroy() {
	if d, ok := r.arranger.(interface{ destroy() }); ok {
		d.destroy()
	}
}

func (r *runner) arrangeChildren(container topology.GraphElement, nodes []*topology.Node, edges []*topology.Edge) error {
	for _, n := range nodes {
		if kids := n.Nodes(); n.IsGroup() && len(kids) > 0 {
			if err := r.arrangeChildren(n, kids, edges); err != nil {
				return err
			}
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	return r.arranger.arrange(nodes, siblingLinks(container, nodes, edges))
}

// collectEdges returns every edge below g in document order.
func collectEdges(g *topology.Graph) []*topology.Edge {
	var out []*topology.Edge
	var visit func(el topology.GraphElement)
	visit = func(el topology.GraphElement) {
		if e, ok := el.(*topology.Edge); ok {
			out = append(out, e)
		}
		for _, c := range el.Children() {
			visit(c)
		}
	}
	visit(g)
	return out
}

// siblingLinks maps edges onto the direct children of container. Edges
// inside one sibling and edges leaving the container are dropped; parallel
// links are merged.
func siblingLinks(container topology.GraphElement, nodes []*topology.Node, edges []*topology.Edge) []link {
	index := make(map[*topology.Node]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}
	member := func(n *topology.Node) (int, bool) {
		var el topology.GraphElement = n
		for el != nil && el.Parent() != container {
			el = el.Parent()
		}
		if el == nil {
			return 0, false
		}
		sib, ok := el.(*topology.Node)
		if !ok {
			return 0, false
		}
		i, ok := index[sib]
		return i, ok
	}

	seen := map[link]bool{}
	var out []link
	for _, e := range edges {
		if e.Source() == nil || e.Target() == nil {
			continue
		}
		from, ok1 := member(e.Source())
		to, ok2 := member(e.Target())
		if !ok1 || !ok2 || from == to {
			continue
		}
		l := link{from, to}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// place moves n so its center is at c.
func place(n *topology.Node, c geom.Point) {
	d := n.Dimensions()
	n.SetPosition(geom.NewPoint(c.X-d.Width/2, c.Y-d.Height/2))
}
