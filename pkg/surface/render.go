package surface

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/topoview/pkg/topology"
)

// Render writes c's element tree as an SVG document sized to the graph
// viewport. Invisible elements and their subtrees are skipped. Components
// come from the controller's chain with [DefaultComponentFactory] as the
// fallback.
func Render(w io.Writer, c *topology.Controller) error {
	bw := bufio.NewWriter(w)
	g := c.Graph()
	var width, height float64
	if g != nil {
		b := g.Bounds()
		width, height = b.Width, b.Height
	}
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" oncontextmenu="return false">`+"\n",
		width, height)
	if g != nil {
		if err := renderElement(bw, c, g); err != nil {
			return err
		}
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func renderElement(w io.Writer, c *topology.Controller, el topology.GraphElement) error {
	if !el.Visible() {
		return nil
	}
	comp := c.Component(el.Kind(), el.Type())
	if comp == nil {
		comp = DefaultComponentFactory(el.Kind(), el.Type())
	}
	if comp == nil {
		return nil
	}
	rendered := false
	children := func() error {
		if rendered {
			return nil
		}
		rendered = true
		for _, child := range el.Children() {
			if err := renderElement(w, c, child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := comp.Render(w, el, children); err != nil {
		return fmt.Errorf("render %s %q: %w", el.Kind(), el.ID(), err)
	}
	return nil
}

// DefaultComponentFactory renders graphs as a transformed group, nodes as
// circles, rectangles or group frames, and edges as polylines.
func DefaultComponentFactory(kind topology.ModelKind, _ string) topology.Component {
	switch kind {
	case topology.KindGraph:
		return topology.ComponentFunc(renderGraph)
	case topology.KindNode:
		return topology.ComponentFunc(renderNode)
	case topology.KindEdge:
		return topology.ComponentFunc(renderEdge)
	}
	return nil
}

func renderGraph(w io.Writer, el topology.GraphElement, children func() error) error {
	g := el.(*topology.Graph)
	b := g.Bounds()
	fmt.Fprintf(w, `<g class="topology-graph" data-id="%s" transform="translate(%.2f,%.2f) scale(%.4f)">`+"\n",
		escapeXML(g.ID()), b.X, b.Y, g.Scale())
	if err := children(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</g>\n")
	return err
}

func renderNode(w io.Writer, el topology.GraphElement, children func() error) error {
	n := el.(*topology.Node)
	b := n.Bounds()
	id := escapeXML(n.ID())
	typ := escapeXML(n.Type())

	switch {
	case n.IsGroup():
		fmt.Fprintf(w, `<g class="topology-group" data-id="%s" data-type="%s">`+"\n", id, typ)
		fmt.Fprintf(w, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="4" fill="none" stroke="#8a8d90" stroke-dasharray="4 2"/>`+"\n",
			b.X, b.Y, b.Width, b.Height)
		if err := children(); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</g>\n")
		return err
	case n.Shape() == topology.ShapeRect:
		fmt.Fprintf(w, `<g class="topology-node" data-id="%s" data-type="%s">`+"\n", id, typ)
		fmt.Fprintf(w, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#fff" stroke="#06c"/>`+"\n",
			b.X, b.Y, b.Width, b.Height)
	default:
		c := b.Center()
		fmt.Fprintf(w, `<g class="topology-node" data-id="%s" data-type="%s">`+"\n", id, typ)
		fmt.Fprintf(w, `  <ellipse cx="%.2f" cy="%.2f" rx="%.2f" ry="%.2f" fill="#fff" stroke="#06c"/>`+"\n",
			c.X, c.Y, b.Width/2, b.Height/2)
	}
	if label := n.Label(); label != "" {
		c := b.Center()
		fmt.Fprintf(w, `  <text x="%.2f" y="%.2f" text-anchor="middle">%s</text>`+"\n",
			c.X, b.Bottom()+14, escapeXML(label))
	}
	if err := children(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</g>\n")
	return err
}

func renderEdge(w io.Writer, el topology.GraphElement, children func() error) error {
	e := el.(*topology.Edge)
	if e.Source() == nil || e.Target() == nil {
		return nil
	}
	var d strings.Builder
	start := e.StartPoint()
	fmt.Fprintf(&d, "M%.2f %.2f", start.X, start.Y)
	for _, p := range e.Bendpoints() {
		fmt.Fprintf(&d, " L%.2f %.2f", p.X, p.Y)
	}
	end := e.EndPoint()
	fmt.Fprintf(&d, " L%.2f %.2f", end.X, end.Y)

	fmt.Fprintf(w, `<path class="topology-edge" data-id="%s" data-type="%s" d="%s" fill="none" stroke="#6a6e73"/>`+"\n",
		escapeXML(e.ID()), escapeXML(e.Type()), d.String())
	return children()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
