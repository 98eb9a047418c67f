package topology

import (
	"slices"
	"testing"

	"github.com/matzehuels/topoview/pkg/geom"
)

func TestFireEventOrder(t *testing.T) {
	c := NewController()
	var calls []string
	c.AddEventListener("select", func(args ...any) { calls = append(calls, "first") })
	c.AddEventListener("hover", func(args ...any) { calls = append(calls, "hover") })
	c.AddEventListener("select", func(args ...any) { calls = append(calls, "second") })
	c.AddEventListener("select", func(args ...any) { calls = append(calls, "third") })

	c.FireEvent("select", "a")

	if want := []string{"first", "second", "third"}; !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestRemoveEventListener(t *testing.T) {
	c := NewController()
	var calls []int
	h1 := c.AddEventListener("e", func(args ...any) { calls = append(calls, 1) })
	c.AddEventListener("e", func(args ...any) { calls = append(calls, 2) })

	c.RemoveEventListener("e", h1).FireEvent("e")
	if !slices.Equal(calls, []int{2}) {
		t.Errorf("calls = %v", calls)
	}

	// unknown handles are ignored
	c.RemoveEventListener("e", h1).RemoveEventListener("other", 99)
}

func TestRemoveDuringDispatch(t *testing.T) {
	c := NewController()
	var calls []int
	var h ListenerHandle
	c.AddEventListener("e", func(args ...any) {
		calls = append(calls, 1)
		c.RemoveEventListener("e", h)
	})
	h = c.AddEventListener("e", func(args ...any) { calls = append(calls, 2) })

	c.FireEvent("e")
	c.FireEvent("e")
	if !slices.Equal(calls, []int{1, 2, 1}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestTypedEvents(t *testing.T) {
	c := NewController()
	_ = c.FromModel(Model{})

	var bounds []geom.Rect
	On(c, GraphBoundsChanged, func(r geom.Rect) { bounds = append(bounds, r) })
	var added []string
	On(c, ElementAdded, func(el GraphElement) { added = append(added, el.ID()) })

	c.Graph().SetBounds(geom.NewRect(0, 0, 800, 600))
	c.Graph().SetBounds(geom.NewRect(0, 0, 800, 600)) // unchanged
	_ = c.AddElement(NewNode("n", "pod"))

	if len(bounds) != 1 || bounds[0].Width != 800 {
		t.Errorf("bounds events = %v", bounds)
	}
	if !slices.Equal(added, []string{"n"}) {
		t.Errorf("added = %v", added)
	}

	// mismatched argument types are not delivered
	c.FireEvent(string(GraphBoundsChanged), "not a rect")
	if len(bounds) != 1 {
		t.Errorf("listener received mismatched argument")
	}
}
