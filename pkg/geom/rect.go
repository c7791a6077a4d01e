package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned bounding box. X, Y is the top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the horizontal center of the box.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center of the box.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Center returns the center point of the box.
func (r Rect) Center() r2.Vec { return r2.Vec{X: r.CenterX(), Y: r.CenterY()} }

// IsZero reports whether the box has no extent and sits at the origin.
func (r Rect) IsZero() bool { return r == Rect{} }

// At returns the point at relative position (rx, ry) inside the box,
// where (0, 0) is the top-left corner and (1, 1) the bottom-right one.
func (r Rect) At(rx, ry float64) r2.Vec {
	return r2.Vec{X: r.X + rx*r.Width, Y: r.Y + ry*r.Height}
}

// Translate returns the box moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Pad returns the box grown by p on every side.
func (r Rect) Pad(p float64) Rect {
	return Rect{X: r.X - p, Y: r.Y - p, Width: r.Width + 2*p, Height: r.Height + 2*p}
}

// Points returns the four corners clockwise from the top-left one.
func (r Rect) Points() []r2.Vec {
	return []r2.Vec{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
}

// Rotate returns the bounding box of r after rotating it by rot radians
// around its own center.
func (r Rect) Rotate(rot float64) Rect {
	if rot == 0 {
		return r
	}
	c := r.Center()
	pts := r.Points()
	for i, p := range pts {
		pts[i] = r2.Rotate(p, rot, c)
	}
	return FromPoints(pts)
}

// FromPoints returns the smallest box containing every point.
// An empty slice yields the zero Rect.
func FromPoints(pts []r2.Vec) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Union returns the smallest box containing every rect.
// No arguments yield the zero Rect.
func Union(rects ...Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}
	u := rects[0]
	for _, r := range rects[1:] {
		minX := math.Min(u.X, r.X)
		minY := math.Min(u.Y, r.Y)
		maxX := math.Max(u.Right(), r.Right())
		maxY := math.Max(u.Bottom(), r.Bottom())
		u = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	return u
}

// Intersect returns the overlap of a and b. ok is false when the boxes
// share no area.
func Intersect(a, b Rect) (r Rect, ok bool) {
	x := math.Max(a.X, b.X)
	y := math.Max(a.Y, b.Y)
	w := math.Min(a.Right(), b.Right()) - x
	h := math.Min(a.Bottom(), b.Bottom()) - y
	if w <= 0 || h <= 0 {
		return Rect{}, false
	}
	return Rect{X: x, Y: y, Width: w, Height: h}, true
}

// Overlaps reports whether a and b share any interior area. Boxes that
// only touch along an edge do not overlap.
func Overlaps(a, b Rect) bool {
	return a.X < b.Right() && b.X < a.Right() && a.Y < b.Bottom() && b.Y < a.Bottom()
}

// Finite reports whether both coordinates of p are finite numbers.
func Finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
