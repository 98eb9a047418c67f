package topology

import (
	"slices"

	"github.com/matzehuels/topoview/pkg/geom"
)

// GraphElement is the behavior shared by [Graph], [Node] and [Edge].
//
// The interface is sealed: only the three element types of this package
// implement it. Use [GraphElement.Kind] or a type switch to reach the
// variant-specific API.
type GraphElement interface {
	Kind() ModelKind

	ID() string
	SetID(id string) error
	Type() string
	SetType(typ string)
	Label() string
	SetLabel(label string)
	Visible() bool
	SetVisible(visible bool)
	Data() any
	SetData(data any)
	Style() map[string]any
	SetStyle(style map[string]any)
	State() State
	SetState(state State)

	Controller() *Controller
	Graph() *Graph
	IsDetached() bool

	Parent() GraphElement
	HasParent() bool
	SetParent(parent GraphElement) error
	Children() []GraphElement
	InsertChild(child GraphElement, index int) error
	AppendChild(child GraphElement) error
	RemoveChild(child GraphElement)
	Remove()
	Raise()
	OrderKey() []int

	TranslateToAbsolute(t geom.Translatable)
	TranslateFromAbsolute(t geom.Translatable)
	TranslateToParent(t geom.Translatable)
	TranslateFromParent(t geom.Translatable)

	base() *element
}

// element carries the state common to every kind. Variants embed it by
// value and set self so shared code can dispatch to overridden methods.
type element struct {
	self GraphElement
	kind ModelKind

	id      string
	typ     string
	label   string
	visible bool
	data    any
	style   map[string]any
	state   State

	parent     GraphElement
	children   []GraphElement
	controller *Controller
	orderKey   []int
}

func (e *element) init(self GraphElement, kind ModelKind, id, typ string) {
	e.self = self
	e.kind = kind
	e.id = id
	e.typ = typ
	e.visible = true
}

func (e *element) base() *element { return e }

// Kind returns the element variant. It never changes.
func (e *element) Kind() ModelKind { return e.kind }

// ID returns the element id.
func (e *element) ID() string { return e.id }

// SetID changes the id, re-keying the controller's lookup table when the
// element is attached. Returns [ErrDuplicateID] if the id is taken.
func (e *element) SetID(id string) error {
	if id == e.id {
		return nil
	}
	if id == "" {
		return ErrInvalidID
	}
	if c := e.controller; c != nil {
		if _, taken := c.elements[id]; taken {
			return ErrDuplicateID
		}
		delete(c.elements, e.id)
		c.elements[id] = e.self
	}
	e.id = id
	e.changed()
	return nil
}

func (e *element) Type() string { return e.typ }

func (e *element) SetType(typ string) {
	e.typ = typ
	e.changed()
}

func (e *element) Label() string { return e.label }

func (e *element) SetLabel(label string) {
	e.label = label
	e.changed()
}

func (e *element) Visible() bool { return e.visible }

func (e *element) SetVisible(visible bool) {
	e.visible = visible
	e.changed()
}

// Data returns the caller-defined payload. See [DataAs] for typed access.
func (e *element) Data() any { return e.data }

func (e *element) SetData(data any) {
	e.data = data
	e.changed()
}

// Style returns the style map. The map is never nil.
func (e *element) Style() map[string]any {
	if e.style == nil {
		e.style = map[string]any{}
	}
	return e.style
}

func (e *element) SetStyle(style map[string]any) {
	e.style = style
	e.changed()
}

// State returns the element's free-form state. The map is never nil.
func (e *element) State() State {
	if e.state == nil {
		e.state = State{}
	}
	return e.state
}

// SetState merges state into the element's state.
func (e *element) SetState(state State) {
	s := e.State()
	for k, v := range state {
		s[k] = v
	}
	e.changed()
}

// Controller returns the owning controller, or nil when detached.
func (e *element) Controller() *Controller { return e.controller }

// Graph returns the root graph of the element's tree, or nil if the root is
// not a graph.
func (e *element) Graph() *Graph {
	var root GraphElement = e.self
	for root.Parent() != nil {
		root = root.Parent()
	}
	g, _ := root.(*Graph)
	return g
}

// IsDetached reports whether the element is unreachable from any
// controller's graph root.
func (e *element) IsDetached() bool { return e.controller == nil }

func (e *element) Parent() GraphElement { return e.parent }

func (e *element) HasParent() bool { return e.parent != nil }

// SetParent moves the element under parent. A nil parent removes it.
func (e *element) SetParent(parent GraphElement) error {
	if parent == e.parent {
		return nil
	}
	if parent == nil {
		e.Remove()
		return nil
	}
	return parent.AppendChild(e.self)
}

// Children returns a copy of the ordered child list.
func (e *element) Children() []GraphElement {
	return slices.Clone(e.children)
}

// AppendChild inserts child after the existing children.
func (e *element) AppendChild(child GraphElement) error {
	return e.InsertChild(child, len(e.children))
}

// InsertChild places child at index, clamped to the valid range.
//
// A child already owned by e is moved, never duplicated. A child owned by
// another parent is detached from it first. When e is attached to a
// controller the child's subtree is registered, and the insert fails with
// [ErrDuplicateID] if any of its ids is taken.
func (e *element) InsertChild(child GraphElement, index int) error {
	if child == nil {
		return nil
	}
	for p := e.self; p != nil; p = p.Parent() {
		if p == child {
			return ErrCycle
		}
	}

	cb := child.base()
	if cb.parent == e.self {
		cur := slices.Index(e.children, child)
		e.children = slices.Delete(e.children, cur, cur+1)
		e.children = slices.Insert(e.children, clamp(index, 0, len(e.children)), child)
		e.invalidateChildOrder()
		e.changed()
		return nil
	}

	switch {
	case e.controller != nil && cb.controller != e.controller:
		if err := e.controller.adopt(child); err != nil {
			return err
		}
	case e.controller == nil && cb.controller != nil:
		cb.controller.release(child)
	}

	if cb.parent != nil {
		cb.parent.base().detach(child)
	}
	e.children = slices.Insert(e.children, clamp(index, 0, len(e.children)), child)
	cb.parent = e.self
	e.invalidateChildOrder()
	e.changed()
	return nil
}

// RemoveChild detaches child. If e is attached, child and its descendants
// leave the controller's lookup table.
func (e *element) RemoveChild(child GraphElement) {
	if child == nil || child.base().parent != e.self {
		return
	}
	e.detach(child)
	if e.controller != nil {
		e.controller.release(child)
	}
	e.changed()
}

// Remove detaches the element from its parent.
func (e *element) Remove() {
	if e.parent != nil {
		e.parent.RemoveChild(e.self)
	}
}

// Raise moves the element to the end of its parent's children so it
// renders above its siblings.
func (e *element) Raise() {
	if e.parent != nil {
		_ = e.parent.InsertChild(e.self, len(e.parent.base().children))
	}
}

// OrderKey returns the element's position in a depth-first, sibling-order
// traversal from the root. Keys compare with [CompareOrderKeys].
func (e *element) OrderKey() []int {
	if e.orderKey == nil {
		if e.parent == nil {
			e.orderKey = []int{}
		} else {
			pk := e.parent.OrderKey()
			key := make([]int, len(pk), len(pk)+1)
			copy(key, pk)
			e.orderKey = append(key, slices.Index(e.parent.base().children, e.self))
		}
	}
	return slices.Clone(e.orderKey)
}

// TranslateToAbsolute maps t from this element's space to root space.
func (e *element) TranslateToAbsolute(t geom.Translatable) {
	e.self.TranslateToParent(t)
	if e.parent != nil {
		e.parent.TranslateToAbsolute(t)
	}
}

// TranslateFromAbsolute maps t from root space to this element's space.
func (e *element) TranslateFromAbsolute(t geom.Translatable) {
	if e.parent != nil {
		e.parent.TranslateFromAbsolute(t)
	}
	e.self.TranslateFromParent(t)
}

// TranslateToParent applies this element's own transform. Nodes and edges
// share their parent's space.
func (e *element) TranslateToParent(geom.Translatable) {}

// TranslateFromParent undoes this element's own transform.
func (e *element) TranslateFromParent(geom.Translatable) {}

func (e *element) detach(child GraphElement) {
	i := slices.Index(e.children, child)
	if i < 0 {
		return
	}
	e.children = slices.Delete(e.children, i, i+1)
	child.base().parent = nil
	child.base().invalidateOrderKey()
	e.invalidateChildOrder()
}

func (e *element) invalidateChildOrder() {
	for _, c := range e.children {
		c.base().invalidateOrderKey()
	}
}

func (e *element) invalidateOrderKey() {
	e.orderKey = nil
	for _, c := range e.children {
		c.base().invalidateOrderKey()
	}
}

func (e *element) changed() {
	if e.controller != nil {
		e.controller.FireEvent(string(ElementChanged), e.self)
	}
}

func (e *element) applyModel(m ElementModel) {
	if m.Type != "" {
		e.typ = m.Type
	}
	if m.Label != "" {
		e.label = m.Label
	}
	if m.Visible != nil {
		e.visible = *m.Visible
	}
	if m.Data != nil {
		e.data = m.Data
	}
	if m.Style != nil {
		e.style = m.Style
	}
}

func (e *element) elementModel() ElementModel {
	m := ElementModel{
		ID:    e.id,
		Type:  e.typ,
		Label: e.label,
		Data:  e.data,
		Style: e.style,
	}
	if !e.visible {
		m.Visible = Bool(false)
	}
	for _, c := range e.children {
		m.Children = append(m.Children, c.ID())
	}
	return m
}

// walk visits root and its descendants depth-first in child order.
func walk(root GraphElement, fn func(GraphElement)) {
	fn(root)
	for _, c := range root.base().children {
		walk(c, fn)
	}
}

// DataAs returns the element's payload as T.
func DataAs[T any](e GraphElement) (T, bool) {
	v, ok := e.Data().(T)
	return v, ok
}

// StyleValue returns the style entry key as T.
func StyleValue[T any](e GraphElement, key string) (T, bool) {
	v, ok := e.Style()[key].(T)
	return v, ok
}

// CompareOrderKeys orders two keys lexicographically; a prefix sorts first.
func CompareOrderKeys(a, b []int) int {
	return slices.Compare(a, b)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
