package topology

import (
	"errors"
	"slices"
	"sort"
	"testing"
)

func sampleModel() Model {
	return Model{
		Graph: &GraphModel{ElementModel: ElementModel{ID: "g", Type: "graph"}, Layout: "grid"},
		Nodes: []NodeModel{
			{ElementModel: ElementModel{ID: "group", Type: "group", Children: []string{"a", "b"}}, Group: true},
			{ElementModel: ElementModel{ID: "a", Type: "pod"}, X: Float(0), Y: Float(0), Width: Float(10), Height: Float(10)},
			{ElementModel: ElementModel{ID: "b", Type: "pod"}, X: Float(20), Y: Float(0), Width: Float(10), Height: Float(10)},
			{ElementModel: ElementModel{ID: "c", Type: "svc"}, Shape: ShapeRect},
		},
		Edges: []EdgeModel{
			{ElementModel: ElementModel{ID: "a-c", Type: "link"}, Source: "a", Target: "c"},
			{ElementModel: ElementModel{ID: "x-c", Type: "link"}, Source: "x", Target: "c"},
			{ElementModel: ElementModel{ID: "c-b", Type: "link"}, Source: "c", Target: "b", Bendpoints: []PointTuple{{5, 5}}},
		},
	}
}

func ids(c *Controller) []string {
	var out []string
	for id := range c.elements {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func TestFromModel(t *testing.T) {
	c := NewController()
	err := c.FromModel(sampleModel())
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("FromModel error = %v, want ErrUnknownNode", err)
	}

	want := []string{"a", "a-c", "b", "c", "c-b", "g", "group"}
	if got := ids(c); !slices.Equal(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	if c.Graph().Layout() != "grid" {
		t.Errorf("layout = %q", c.Graph().Layout())
	}
	a := c.NodeByID("a")
	if a.Parent() != c.ElementByID("group") {
		t.Errorf("a parent = %v, want group", a.Parent())
	}
	e := c.EdgeByID("c-b")
	if e.Source() != c.NodeByID("c") || e.Target() != c.NodeByID("b") {
		t.Errorf("c-b endpoints = %v -> %v", e.Source().ID(), e.Target().ID())
	}
	if got := e.Bendpoints(); len(got) != 1 || got[0].X != 5 {
		t.Errorf("bendpoints = %v", got)
	}
}

func TestFromModelDefaultGraph(t *testing.T) {
	c := NewController()
	if err := c.FromModel(Model{Nodes: []NodeModel{{ElementModel: ElementModel{ID: "n"}}}}); err != nil {
		t.Fatal(err)
	}
	if c.Graph().ID() != DefaultGraphID {
		t.Errorf("graph id = %q", c.Graph().ID())
	}
	if c.NodeByID("n").Parent() != c.Graph() {
		t.Error("top-level node not attached to root")
	}
}

func TestFromModelClearsPrevious(t *testing.T) {
	c := NewController()
	_ = c.FromModel(sampleModel())
	old := c.NodeByID("a")

	if err := c.FromModel(Model{Nodes: []NodeModel{{ElementModel: ElementModel{ID: "z"}}}}); err != nil {
		t.Fatal(err)
	}
	if got := ids(c); !slices.Equal(got, []string{"graph", "z"}) {
		t.Errorf("ids = %v", got)
	}
	if !old.IsDetached() {
		t.Error("element of previous model still attached")
	}
}

func TestFromModelDuplicateNode(t *testing.T) {
	c := NewController()
	err := c.FromModel(Model{Nodes: []NodeModel{
		{ElementModel: ElementModel{ID: "n", Label: "first"}},
		{ElementModel: ElementModel{ID: "n", Label: "second"}},
	}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if got := c.NodeByID("n").Label(); got != "first" {
		t.Errorf("label = %q, want first", got)
	}
}

func TestRemoveElementUnregistersSubtree(t *testing.T) {
	c := NewController()
	_ = c.FromModel(sampleModel())
	before := ids(c)

	group := c.ElementByID("group")
	c.RemoveElement(group)

	// a-c and c-b lose an endpoint and go with the subtree
	var want []string
	for _, id := range before {
		if !slices.Contains([]string{"group", "a", "b", "a-c", "c-b"}, id) {
			want = append(want, id)
		}
	}
	if got := ids(c); !slices.Equal(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if !group.IsDetached() || group.Children()[0].Controller() != nil {
		t.Error("removed subtree still references controller")
	}
	// the subtree stays intact after removal
	if len(group.Children()) != 2 {
		t.Errorf("children = %d, want 2", len(group.Children()))
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}
}

func TestRemoveNodeDropsDanglingEdges(t *testing.T) {
	c := NewController()
	_ = c.FromModel(Model{
		Nodes: []NodeModel{
			{ElementModel: ElementModel{ID: "a", Type: "pod"}},
			{ElementModel: ElementModel{ID: "b", Type: "pod"}},
		},
		Edges: []EdgeModel{
			{ElementModel: ElementModel{ID: "e", Type: "link"}, Source: "a", Target: "b"},
		},
	})
	e := c.EdgeByID("e")

	var removed []string
	On(c, ElementRemoved, func(el GraphElement) { removed = append(removed, el.ID()) })
	c.RemoveElement(c.NodeByID("a"))

	if c.EdgeByID("e") != nil {
		t.Fatal("edge to removed node still registered")
	}
	if !e.IsDetached() || e.Controller() != nil {
		t.Error("dangling edge still attached")
	}
	if want := []string{"a", "e"}; !slices.Equal(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := NewController().FromModel(c.ToModel()); err != nil {
		t.Errorf("reload: %v", err)
	}
}

func TestValidateForeignEndpoint(t *testing.T) {
	c1, c2 := NewController(), NewController()
	_ = c1.FromModel(sampleModel())
	_ = c2.FromModel(Model{Nodes: []NodeModel{{ElementModel: ElementModel{ID: "z", Type: "pod"}}}})

	// bypass SetTarget to corrupt the edge directly
	c1.EdgeByID("a-c").target = c2.NodeByID("z")
	if err := c1.Validate(); !errors.Is(err, ErrForeignNode) {
		t.Errorf("Validate = %v, want ErrForeignNode", err)
	}
}

func TestAddElement(t *testing.T) {
	c := NewController()
	_ = c.FromModel(sampleModel())

	t.Run("Duplicate", func(t *testing.T) {
		before := ids(c)
		err := c.AddElement(NewNode("c", "svc"))
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("err = %v, want ErrDuplicateID", err)
		}
		if got := ids(c); !slices.Equal(got, before) {
			t.Errorf("ids changed: %v", got)
		}
	})

	t.Run("DuplicateInSubtree", func(t *testing.T) {
		before := ids(c)
		g := NewNode("fresh", "group")
		_ = g.AppendChild(NewNode("a", "pod"))
		if err := c.AddElement(g); !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("err = %v, want ErrDuplicateID", err)
		}
		if got := ids(c); !slices.Equal(got, before) {
			t.Errorf("ids changed: %v", got)
		}
		if g.Parent() != nil {
			t.Error("rejected element was attached")
		}
	})

	t.Run("ForeignEndpoint", func(t *testing.T) {
		other := NewController()
		_ = other.FromModel(Model{Nodes: []NodeModel{{ElementModel: ElementModel{ID: "far", Type: "pod"}}}})
		before := ids(c)

		e := NewEdge("to-far", "link")
		if err := e.SetSource(other.NodeByID("far")); err != nil {
			t.Fatal(err)
		}
		if err := c.AddElement(e); !errors.Is(err, ErrForeignNode) {
			t.Fatalf("err = %v, want ErrForeignNode", err)
		}
		if got := ids(c); !slices.Equal(got, before) {
			t.Errorf("ids changed: %v", got)
		}
		if e.Parent() != nil || e.Controller() != nil {
			t.Error("rejected edge was attached")
		}
	})

	t.Run("EdgeWithinSubtree", func(t *testing.T) {
		g := NewNode("pair", "group")
		p, q := NewNode("pa", "pod"), NewNode("pb", "pod")
		_ = g.AppendChild(p)
		_ = g.AppendChild(q)
		e := NewEdge("pa-pb", "link")
		_ = e.SetSource(p)
		_ = e.SetTarget(c.NodeByID("c"))
		_ = g.AppendChild(e)
		if err := c.AddElement(g); err != nil {
			t.Fatal(err)
		}
		if err := c.Validate(); err != nil {
			t.Error(err)
		}
	})

	t.Run("Subtree", func(t *testing.T) {
		g := NewNode("ns", "group")
		g.SetGroup(true)
		_ = g.AppendChild(NewNode("p1", "pod"))
		if err := c.AddElement(g); err != nil {
			t.Fatal(err)
		}
		if c.NodeByID("p1") == nil {
			t.Error("child of added group not registered")
		}
		if err := c.Validate(); err != nil {
			t.Error(err)
		}
	})
}

func TestKindCheckedLookup(t *testing.T) {
	c := NewController()
	_ = c.FromModel(sampleModel())

	if c.NodeByID("a-c") != nil {
		t.Error("NodeByID returned an edge")
	}
	if c.EdgeByID("a") != nil {
		t.Error("EdgeByID returned a node")
	}
	if c.ElementByID("missing") != nil {
		t.Error("ElementByID returned an element for unknown id")
	}
}

func TestMoveBetweenControllers(t *testing.T) {
	c1, c2 := NewController(), NewController()
	_ = c1.FromModel(sampleModel())
	_ = c2.FromModel(Model{})

	n := c1.NodeByID("c")
	if err := c2.Graph().AppendChild(n); err != nil {
		t.Fatal(err)
	}
	if c1.ElementByID("c") != nil {
		t.Error("node still registered in source controller")
	}
	if c2.NodeByID("c") != n || n.Controller() != c2 {
		t.Error("node not registered in target controller")
	}
	if c1.EdgeByID("a-c") != nil || c1.EdgeByID("c-b") != nil {
		t.Error("edges of moved node left in source controller")
	}
	if err := c1.Validate(); err != nil {
		t.Error(err)
	}
	if err := c2.Validate(); err != nil {
		t.Error(err)
	}
}

func TestToModel(t *testing.T) {
	c := NewController()
	_ = c.FromModel(sampleModel())
	m := c.ToModel()

	if m.Graph == nil || m.Graph.ID != "g" {
		t.Fatalf("graph = %+v", m.Graph)
	}
	if len(m.Nodes) != 4 || len(m.Edges) != 2 {
		t.Fatalf("nodes=%d edges=%d", len(m.Nodes), len(m.Edges))
	}

	c2 := NewController()
	if err := c2.FromModel(m); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !slices.Equal(ids(c2), ids(c)) {
		t.Errorf("reloaded ids = %v, want %v", ids(c2), ids(c))
	}
}

func TestFactoryChains(t *testing.T) {
	var created []string
	c := NewController(
		WithElementFactory(func(kind ModelKind, typ string) GraphElement {
			if kind == KindNode && typ == "db" {
				created = append(created, typ)
				n := NewNode("", typ)
				n.SetShape(ShapeRect)
				return n
			}
			return nil
		}),
		// wrong kind is skipped
		WithElementFactory(func(kind ModelKind, typ string) GraphElement {
			if typ == "bogus" {
				return NewEdge("", typ)
			}
			return nil
		}),
	)

	var ran []string
	c.RegisterLayoutFactory(func(typ string, g *Graph) Layout { return nil })
	c.RegisterLayoutFactory(func(typ string, g *Graph) Layout {
		if typ == "grid" {
			return &recordingLayout{name: typ, ran: &ran}
		}
		return nil
	})

	_ = c.FromModel(Model{Nodes: []NodeModel{
		{ElementModel: ElementModel{ID: "d", Type: "db"}},
		{ElementModel: ElementModel{ID: "b", Type: "bogus"}},
	}})

	if !slices.Equal(created, []string{"db"}) {
		t.Errorf("created = %v", created)
	}
	if c.NodeByID("d").Shape() != ShapeRect {
		t.Error("custom factory not used")
	}
	if c.NodeByID("b") == nil {
		t.Error("default factory not used after kind mismatch")
	}
	if c.Layout("grid") == nil {
		t.Error("Layout(grid) = nil")
	}
	if c.Layout("force") != nil {
		t.Error("Layout(force) should be nil")
	}
	if c.Component(KindNode, "db") != nil {
		t.Error("Component without factories should be nil")
	}
}

func TestState(t *testing.T) {
	c := NewController()
	var got []State
	On(c, StateChanged, func(s State) { got = append(got, s) })

	c.SetState(State{"selected": "a"})
	c.SetState(State{"zoom": 2})

	if v, _ := c.Store("selected"); v != "a" {
		t.Errorf("selected = %v", v)
	}
	if len(c.State()) != 2 || len(got) != 2 {
		t.Errorf("state = %v, events = %d", c.State(), len(got))
	}
}
