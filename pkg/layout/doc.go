// Package layout provides the layout algorithms a [topology.Controller] can
// run on its graph.
//
// Register them with [Factory]:
//
//	c := topology.NewController(
//	    topology.WithLayoutFactory(layout.Factory(layout.Options{})),
//	)
//	c.Graph().SetLayout(layout.Layered)
//	err := c.Graph().RunLayout()
//
// # Algorithms
//
//   - [Layered]: Sugiyama-style ranks. Cycles are broken by reversing DFS
//     back edges, ranks come from a longest-path pass, and barycenter sweeps
//     reduce crossings between adjacent ranks.
//   - [Grid]: row-major grid with ceil(sqrt(n)) columns.
//   - [Graphviz]: delegates to Graphviz "dot" and reads node centers back
//     from its plain output.
//
// # Groups
//
// Group nodes are laid out bottom-up: a group's children are arranged first,
// then the group is placed as a single block among its siblings. Edges that
// cross a group boundary are attributed to the outermost ancestors that are
// siblings, so a group is ranked after whatever feeds any of its members.
//
// Positions are written through [topology.Node.SetPosition], which moves a
// group's children along with it.
package layout
