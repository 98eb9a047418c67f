// Package geom provides the 2D primitives used by the topology model.
//
// Points and rectangles are plain values. Their pointer forms implement
// [Translatable], so the same transform code can move a single point or a
// whole rectangle between coordinate spaces:
//
//	b := node.Bounds()
//	node.TranslateToAbsolute(&b)
//
// Rect setters return the receiver to allow chaining on a copy:
//
//	graph.SetBounds(graph.Bounds().Clone().SetSize(w, h))
package geom

import "math"

// Epsilon is the tolerance used by the Equals helpers.
const Epsilon = 1e-9

// Translatable is anything that can be moved and scaled in place.
type Translatable interface {
	Translate(dx, dy float64)
	Scale(sx, sy float64)
}

// Point is a location in 2D space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint returns a point at (x, y).
func NewPoint(x, y float64) Point { return Point{X: x, Y: y} }

// Translate moves the point by (dx, dy).
func (p *Point) Translate(dx, dy float64) {
	p.X += dx
	p.Y += dy
}

// Scale multiplies the coordinates by (sx, sy).
func (p *Point) Scale(sx, sy float64) {
	p.X *= sx
	p.Y *= sy
}

// Equals reports whether p and o are within [Epsilon] of each other.
func (p Point) Equals(o Point) bool {
	return almostEqual(p.X, o.X) && almostEqual(p.Y, o.Y)
}

// Distance returns the euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Dimensions is a width/height pair.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Padding is spacing around the four sides of a rectangle.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// UniformPadding returns the same padding on every side.
func UniformPadding(p float64) Padding {
	return Padding{Top: p, Right: p, Bottom: p, Left: p}
}

// Rect is an axis-aligned rectangle. X and Y are the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect returns a rectangle at (x, y) with the given size.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Clone returns a pointer to a copy of r.
func (r Rect) Clone() *Rect {
	c := r
	return &c
}

// SetSize replaces the width and height and returns r.
func (r *Rect) SetSize(width, height float64) *Rect {
	r.Width = width
	r.Height = height
	return r
}

// SetLocation replaces the top-left corner and returns r.
func (r *Rect) SetLocation(x, y float64) *Rect {
	r.X = x
	r.Y = y
	return r
}

// Translate moves the rectangle by (dx, dy).
func (r *Rect) Translate(dx, dy float64) {
	r.X += dx
	r.Y += dy
}

// Scale multiplies position and size by (sx, sy).
func (r *Rect) Scale(sx, sy float64) {
	r.X *= sx
	r.Y *= sy
	r.Width *= sx
	r.Height *= sy
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Dimensions returns the size of the rectangle.
func (r Rect) Dimensions() Dimensions {
	return Dimensions{Width: r.Width, Height: r.Height}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Union returns the smallest rectangle containing both r and o.
// An empty rectangle is the identity element.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), o.Right()) - x,
		Height: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// Intersect returns the overlapping area of r and o, or an empty rect.
func (r Rect) Intersect(o Rect) Rect {
	x := math.Max(r.X, o.X)
	y := math.Max(r.Y, o.Y)
	right := math.Min(r.Right(), o.Right())
	bottom := math.Min(r.Bottom(), o.Bottom())
	if right <= x || bottom <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// Expand grows the rectangle outward by p.
func (r Rect) Expand(p Padding) Rect {
	return Rect{
		X:      r.X - p.Left,
		Y:      r.Y - p.Top,
		Width:  r.Width + p.Left + p.Right,
		Height: r.Height + p.Top + p.Bottom,
	}
}

// Equals reports whether every field of r and o is within [Epsilon].
func (r Rect) Equals(o Rect) bool {
	return almostEqual(r.X, o.X) && almostEqual(r.Y, o.Y) &&
		almostEqual(r.Width, o.Width) && almostEqual(r.Height, o.Height)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
