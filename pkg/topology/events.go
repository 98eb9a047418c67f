package topology

import (
	"slices"

	"github.com/matzehuels/topoview/pkg/geom"
)

// Listener receives the arguments passed to [Controller.FireEvent].
type Listener func(args ...any)

// ListenerHandle identifies one registration for removal.
type ListenerHandle uint64

type listenerEntry struct {
	handle ListenerHandle
	fn     Listener
}

// EventType names an event whose single argument has type A.
type EventType[A any] string

// Events fired by the controller and its elements.
const (
	ElementAdded       EventType[GraphElement] = "element-added"
	ElementRemoved     EventType[GraphElement] = "element-removed"
	ElementChanged     EventType[GraphElement] = "element-changed"
	GraphBoundsChanged EventType[geom.Rect]    = "graph-bounds-changed"
	GraphScaleChanged  EventType[float64]      = "graph-scale-changed"
	StateChanged       EventType[State]        = "state-changed"
)

// On registers fn for ev. Events fired with an argument of another type
// are not delivered to fn.
func On[A any](c *Controller, ev EventType[A], fn func(A)) ListenerHandle {
	return c.AddEventListener(string(ev), func(args ...any) {
		if len(args) == 0 {
			return
		}
		if a, ok := args[0].(A); ok {
			fn(a)
		}
	})
}

// Emit fires ev with a.
func Emit[A any](c *Controller, ev EventType[A], a A) {
	c.FireEvent(string(ev), a)
}

// AddEventListener registers l for events of type typ.
func (c *Controller) AddEventListener(typ string, l Listener) ListenerHandle {
	c.nextHandle++
	h := c.nextHandle
	if c.listeners == nil {
		c.listeners = map[string][]listenerEntry{}
	}
	c.listeners[typ] = append(c.listeners[typ], listenerEntry{handle: h, fn: l})
	return h
}

// RemoveEventListener removes the registration h of typ. It returns the
// controller for chaining.
func (c *Controller) RemoveEventListener(typ string, h ListenerHandle) *Controller {
	ls := c.listeners[typ]
	if i := slices.IndexFunc(ls, func(e listenerEntry) bool { return e.handle == h }); i >= 0 {
		c.listeners[typ] = slices.Delete(slices.Clone(ls), i, i+1)
	}
	return c
}

// FireEvent calls the listeners of typ synchronously in registration
// order. Listeners added or removed during dispatch take effect on the
// next event.
func (c *Controller) FireEvent(typ string, args ...any) {
	for _, e := range c.listeners[typ] {
		e.fn(args...)
	}
}
