package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	gv "github.com/goccy/go-graphviz"

	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/topology"
)

const pointsPerInch = 72.0

// plainFormat is Graphviz's line-oriented output with node centers in
// inches and the y axis pointing up.
const plainFormat gv.Format = "plain"

type graphviz struct {
	opts Options
	gv   *gv.Graphviz
}

func (g *graphviz) arrange(nodes []*topology.Node, links []link) error {
	ctx := context.Background()
	if g.gv == nil {
		v, err := gv.New(ctx)
		if err != nil {
			return fmt.Errorf("init graphviz: %w", err)
		}
		g.gv = v
	}

	graph, err := gv.ParseBytes([]byte(toDOT(nodes, links, g.opts)))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := g.gv.Render(ctx, graph, plainFormat, &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	centers, err := parsePlain(buf.Bytes())
	if err != nil {
		return err
	}
	for i, n := range nodes {
		c, ok := centers[dotID(i)]
		if !ok {
			return fmt.Errorf("graphviz output lacks node %q", n.ID())
		}
		place(n, c)
	}
	return nil
}

func (g *graphviz) destroy() {
	if g.gv != nil {
		_ = g.gv.Close()
		g.gv = nil
	}
}

func dotID(i int) string { return "n" + strconv.Itoa(i) }

// toDOT describes the siblings with their current sizes. Node names are
// synthetic so element ids never need escaping.
func toDOT(nodes []*topology.Node, links []link, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.Direction)
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", opts.NodeSep/pointsPerInch)
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", opts.RankSep/pointsPerInch)
	buf.WriteString("  node [fixedsize=true, label=\"\"];\n\n")

	for i, n := range nodes {
		d := n.Dimensions()
		shape := "ellipse"
		if n.IsGroup() || n.Shape() == topology.ShapeRect {
			shape = "box"
		}
		fmt.Fprintf(&buf, "  %s [width=%.4f, height=%.4f, shape=%s];\n",
			dotID(i), d.Width/pointsPerInch, d.Height/pointsPerInch, shape)
	}
	buf.WriteString("\n")
	for _, l := range links {
		fmt.Fprintf(&buf, "  %s -> %s;\n", dotID(l.from), dotID(l.to))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// parsePlain reads node centers from plain output, converted to content
// units with the y axis pointing down.
func parsePlain(out []byte) (map[string]geom.Point, error) {
	centers := map[string]geom.Point{}
	height := 0.0
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "graph":
			if len(f) < 4 {
				return nil, fmt.Errorf("malformed graph line %q", sc.Text())
			}
			h, err := strconv.ParseFloat(f[3], 64)
			if err != nil {
				return nil, fmt.Errorf("graph height: %w", err)
			}
			height = h
		case "node":
			if len(f) < 4 {
				return nil, fmt.Errorf("malformed node line %q", sc.Text())
			}
			x, err := strconv.ParseFloat(f[2], 64)
			if err != nil {
				return nil, fmt.Errorf("node %s x: %w", f[1], err)
			}
			y, err := strconv.ParseFloat(f[3], 64)
			if err != nil {
				return nil, fmt.Errorf("node %s y: %w", f[1], err)
			}
			centers[strings.Trim(f[1], `"`)] = geom.NewPoint(x*pointsPerInch, (height-y)*pointsPerInch)
		case "stop":
			return centers, sc.Err()
		}
	}
	return centers, sc.Err()
}
