package surface

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"

	"github.com/matzehuels/topoview/pkg/geom"
	"github.com/matzehuels/topoview/pkg/topology"
)

type boundsLog struct {
	mu     sync.Mutex
	bounds []geom.Rect
}

func (l *boundsLog) add(r geom.Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bounds = append(l.bounds, r)
}

func (l *boundsLog) snapshot() []geom.Rect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]geom.Rect(nil), l.bounds...)
}

func (l *boundsLog) waitLen(t *testing.T, n int) []geom.Rect {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := l.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("got %d bounds updates, want %d", len(l.snapshot()), n)
	return nil
}

func newSurface(t *testing.T, opts ...Option) (*Surface, *topology.Controller, *clocktesting.FakeClock, *boundsLog) {
	t.Helper()
	c := topology.NewController()
	if err := c.FromModel(topology.Model{}); err != nil {
		t.Fatal(err)
	}
	c.Graph().SetBounds(geom.NewRect(10, 20, 0, 0))

	log := &boundsLog{}
	topology.On(c, topology.GraphBoundsChanged, log.add)

	clk := clocktesting.NewFakeClock(time.Unix(0, 0))
	opts = append([]Option{WithClock(clk), WithDebounce(100 * time.Millisecond)}, opts...)
	return New(c, opts...), c, clk, log
}

func TestResizeBurst(t *testing.T) {
	s, _, clk, log := newSurface(t)
	s.Mount()

	for i := range 10 {
		s.Resize(float64(100+i), float64(50+i))
		clk.Step(5 * time.Millisecond)
	}
	if got := log.snapshot(); len(got) != 1 {
		t.Fatalf("updates during burst = %d, want 1 leading", len(got))
	}

	clk.Step(100 * time.Millisecond)
	got := log.waitLen(t, 2)

	if !got[0].Equals(geom.NewRect(10, 20, 100, 50)) {
		t.Errorf("leading bounds = %+v", got[0])
	}
	if !got[1].Equals(geom.NewRect(10, 20, 109, 59)) {
		t.Errorf("trailing bounds = %+v", got[1])
	}
	time.Sleep(10 * time.Millisecond)
	if n := len(log.snapshot()); n != 2 {
		t.Errorf("total updates = %d, want 2", n)
	}
}

func TestDisposeCancelsPendingResize(t *testing.T) {
	s, _, clk, log := newSurface(t)
	s.Mount()

	s.Resize(100, 100)
	s.Resize(200, 200)
	s.Dispose()
	if clk.HasWaiters() {
		t.Error("resize timer still armed after Dispose")
	}
	s.Resize(300, 300)
	clk.Step(time.Second)

	if got := log.snapshot(); len(got) != 1 || got[0].Width != 100 {
		t.Errorf("updates = %+v, want only the leading one", got)
	}
}

func TestOnChange(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	s, _, _, _ := newSurface(t, WithOnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}))
	s.Resize(10, 10)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("onChange calls = %d, want 1", calls)
	}
}

func TestMountPushesState(t *testing.T) {
	s, c, _, _ := newSurface(t, WithState(topology.State{"selected": "db"}))

	if _, ok := c.Store("selected"); ok {
		t.Fatal("state pushed before Mount")
	}
	s.Mount()
	if v, _ := c.Store("selected"); v != "db" {
		t.Errorf("selected = %v after Mount", v)
	}

	s.SetState(topology.State{"selected": "web"})
	if v, _ := c.Store("selected"); v != "web" {
		t.Errorf("selected = %v after SetState", v)
	}
}

func TestRender(t *testing.T) {
	c := topology.NewController()
	err := c.FromModel(topology.Model{
		Nodes: []topology.NodeModel{
			{ElementModel: topology.ElementModel{ID: "web", Type: "deployment", Label: "web <frontend>"},
				X: topology.Float(0), Y: topology.Float(0), Width: topology.Float(40), Height: topology.Float(40)},
			{ElementModel: topology.ElementModel{ID: "db", Type: "statefulset"}, Shape: topology.ShapeRect,
				X: topology.Float(100), Y: topology.Float(0), Width: topology.Float(40), Height: topology.Float(40)},
			{ElementModel: topology.ElementModel{ID: "hidden", Visible: topology.Bool(false)}},
		},
		Edges: []topology.EdgeModel{
			{ElementModel: topology.ElementModel{ID: "web-db", Type: "connects"}, Source: "web", Target: "db"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	c.Graph().SetBounds(geom.NewRect(0, 0, 800, 600))

	var buf bytes.Buffer
	if err := New(c).Render(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		`oncontextmenu="return false"`,
		`width="800" height="600"`,
		`data-id="web"`,
		`web &lt;frontend&gt;`,
		`<rect x="100.00" y="0.00" width="40.00" height="40.00"`,
		`d="M40.00 20.00 L100.00 20.00"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `data-id="hidden"`) {
		t.Error("invisible node rendered")
	}
}

func TestRenderUsesComponentChain(t *testing.T) {
	c := topology.NewController(topology.WithComponentFactory(func(kind topology.ModelKind, typ string) topology.Component {
		if kind == topology.KindNode && typ == "pod" {
			return topology.ComponentFunc(func(w io.Writer, el topology.GraphElement, children func() error) error {
				_, err := io.WriteString(w, "<pod "+el.ID()+"/>")
				return err
			})
		}
		return nil
	}))
	_ = c.FromModel(topology.Model{Nodes: []topology.NodeModel{
		{ElementModel: topology.ElementModel{ID: "p1", Type: "pod"}},
		{ElementModel: topology.ElementModel{ID: "s1", Type: "svc"}},
	}})

	var buf bytes.Buffer
	if err := Render(&buf, c); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<pod p1/>") {
		t.Error("custom component not used")
	}
	if !strings.Contains(buf.String(), `data-id="s1"`) {
		t.Error("default component not used for unclaimed type")
	}
}
