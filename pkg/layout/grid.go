package layout

import (
	"math"

	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/topology"
)

type grid struct {
	opts Options
}

// arrange fills rows left to right. Every cell is as large as the largest
// node so that rows and columns line up.
func (g grid) arrange(nodes []*topology.Node, _ []link) error {
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	var cellW, cellH float64
	for _, n := range nodes {
		d := n.Dimensions()
		cellW = max(cellW, d.Width)
		cellH = max(cellH, d.Height)
	}
	for i, n := range nodes {
		row, col := i/cols, i%cols
		place(n, geom.NewPoint(
			float64(col)*(cellW+g.opts.NodeSep)+cellW/2,
			float64(row)*(cellH+g.opts.NodeSep)+cellH/2,
		))
	}
	return nil
}
