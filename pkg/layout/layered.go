package layout

import (
	"cmp"
	"slices"

	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/topology"
)

type layered struct {
	opts Options
}

func (l *layered) arrange(nodes []*topology.Node, links []link) error {
	links = breakCycles(len(nodes), links)
	ranks := assignRanks(len(nodes), links)
	orders := orderRanks(len(nodes), ranks, links, l.opts.Sweeps)
	l.coordinates(nodes, orders)
	return nil
}

// breakCycles reverses the back edges found by a DFS in index order so the
// result is acyclic.
func breakCycles(n int, links []link) []link {
	const (
		white = iota
		gray
		black
	)

	succ := successors(n, links)
	color := make([]int, n)
	back := map[link]bool{}

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, v := range succ[u] {
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				back[link{u, v}] = true
			}
		}
		color[u] = black
	}
	for u := range n {
		if color[u] == white {
			dfs(u)
		}
	}
	if len(back) == 0 {
		return links
	}

	out := make([]link, 0, len(links))
	seen := map[link]bool{}
	for _, e := range links {
		if back[e] {
			e = link{e.to, e.from}
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// assignRanks places every node one rank below its deepest predecessor
// (longest path, Kahn's algorithm). Sources are rank 0.
func assignRanks(n int, links []link) []int {
	succ := successors(n, links)
	inDegree := make([]int, n)
	for _, e := range links {
		inDegree[e.to]++
	}
	ranks := make([]int, n)
	queue := make([]int, 0, n)
	for u := range n {
		if inDegree[u] == 0 {
			queue = append(queue, u)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range succ[u] {
			ranks[v] = max(ranks[v], ranks[u]+1)
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return ranks
}

// orderRanks groups nodes by rank and reorders each rank by the barycenter
// of its neighbours, alternating downward and upward sweeps. The ordering
// with the fewest crossings wins.
func orderRanks(n int, ranks []int, links []link, sweeps int) [][]int {
	depth := 0
	for _, r := range ranks {
		depth = max(depth, r+1)
	}
	orders := make([][]int, depth)
	for u := range n {
		orders[ranks[u]] = append(orders[ranks[u]], u)
	}

	pred := make([][]int, n)
	succ := successors(n, links)
	for _, e := range links {
		pred[e.to] = append(pred[e.to], e.from)
	}

	best := cloneOrders(orders)
	bestCrossings := countCrossings(orders, succ)
	pos := make([]int, n)
	for i := range sweeps {
		if bestCrossings == 0 {
			break
		}
		if i%2 == 0 {
			for r := 1; r < depth; r++ {
				indexPositions(orders, pos)
				sortByBarycenter(orders[r], pred, pos)
			}
		} else {
			for r := depth - 2; r >= 0; r-- {
				indexPositions(orders, pos)
				sortByBarycenter(orders[r], succ, pos)
			}
		}
		if c := countCrossings(orders, succ); c < bestCrossings {
			best, bestCrossings = cloneOrders(orders), c
		}
	}
	return best
}

func sortByBarycenter(rank []int, neighbours [][]int, pos []int) {
	bary := make(map[int]float64, len(rank))
	for i, u := range rank {
		if len(neighbours[u]) == 0 {
			// keep nodes without neighbours where they are
			bary[u] = float64(i)
			continue
		}
		sum := 0
		for _, v := range neighbours[u] {
			sum += pos[v]
		}
		bary[u] = float64(sum) / float64(len(neighbours[u]))
	}
	slices.SortStableFunc(rank, func(a, b int) int { return cmp.Compare(bary[a], bary[b]) })
}

func indexPositions(orders [][]int, pos []int) {
	for _, rank := range orders {
		for i, u := range rank {
			pos[u] = i
		}
	}
}

// countCrossings sums the crossings between consecutive ranks. Two links
// (u1,v1) and (u2,v2) cross when pos(u1) < pos(u2) and pos(v1) > pos(v2),
// which is an inversion count over the sorted links (Fenwick tree).
func countCrossings(orders [][]int, succ [][]int) int {
	total := 0
	for r := 0; r+1 < len(orders); r++ {
		upper, lower := orders[r], orders[r+1]
		lowerPos := make(map[int]int, len(lower))
		for i, v := range lower {
			lowerPos[v] = i
		}
		var targets []int
		for _, u := range upper {
			var ts []int
			for _, v := range succ[u] {
				if p, ok := lowerPos[v]; ok {
					ts = append(ts, p)
				}
			}
			slices.Sort(ts)
			targets = append(targets, ts...)
		}

		fenwick := make([]int, len(lower)+1)
		seen := 0
		for _, p := range targets {
			le := 0
			for q := p + 1; q > 0; q -= q & -q {
				le += fenwick[q]
			}
			total += seen - le
			seen++
			for q := p + 1; q < len(fenwick); q += q & -q {
				fenwick[q]++
			}
		}
	}
	return total
}

// coordinates stacks ranks along the rank axis and spreads each rank
// across the other axis, centred on the widest rank.
func (l *layered) coordinates(nodes []*topology.Node, orders [][]int) {
	lr := l.opts.Direction == LeftToRight
	// along: extent on the rank axis; across: extent inside a rank
	extent := func(n *topology.Node) (along, across float64) {
		d := n.Dimensions()
		if lr {
			return d.Width, d.Height
		}
		return d.Height, d.Width
	}

	spans := make([]float64, len(orders))
	widest := 0.0
	for r, rank := range orders {
		for i, u := range rank {
			_, across := extent(nodes[u])
			if i > 0 {
				spans[r] += l.opts.NodeSep
			}
			spans[r] += across
		}
		widest = max(widest, spans[r])
	}

	offset := 0.0
	for r, rank := range orders {
		thickness := 0.0
		for _, u := range rank {
			along, _ := extent(nodes[u])
			thickness = max(thickness, along)
		}
		cursor := (widest - spans[r]) / 2
		for _, u := range rank {
			_, across := extent(nodes[u])
			a := offset + thickness/2
			b := cursor + across/2
			if lr {
				place(nodes[u], geom.NewPoint(a, b))
			} else {
				place(nodes[u], geom.NewPoint(b, a))
			}
			cursor += across + l.opts.NodeSep
		}
		offset += thickness + l.opts.RankSep
	}
}

func successors(n int, links []link) [][]int {
	succ := make([][]int, n)
	for _, e := range links {
		succ[e.from] = append(succ[e.from], e.to)
	}
	return succ
}

func cloneOrders(orders [][]int) [][]int {
	out := make([][]int, len(orders))
	for i, r := range orders {
		out[i] = slices.Clone(r)
	}
	return out
}
