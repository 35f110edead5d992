package backdrop

import "math"

// Point represents a 2D position in logical coordinates.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Size represents 2D dimensions in logical coordinates.
type Size struct {
	W, H float64
}

// Sz is a convenience function to create a Size.
func Sz(w, h float64) Size {
	return Size{W: w, H: h}
}

// IsEmpty returns true if the size has zero or negative area.
func (s Size) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Scaled returns the size multiplied by a scalar.
func (s Size) Scaled(f float64) Size {
	return Size{W: s.W * f, H: s.H * f}
}

// ToPhysical converts the logical size to device pixels at the given
// scale factor, rounding to the nearest pixel.
func (s Size) ToPhysical(scale float64) (w, h int) {
	return int(math.Round(s.W * scale)), int(math.Round(s.H * scale))
}

// Rect represents a rectangle in logical coordinates as a top-left
// position plus dimensions.
type Rect struct {
	X, Y float64 // Top-left corner
	W, H float64 // Width and height
}

// NewRect creates a Rect from position and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectAt creates a Rect from a position and a size.
func RectAt(pos Point, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: size.W, H: size.H}
}

// Pos returns the top-left corner of the rectangle.
func (r Rect) Pos() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the dimensions of the rectangle.
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Right returns the right edge x-coordinate.
func (r Rect) Right() float64 {
	return r.X + r.W
}

// Bottom returns the bottom edge y-coordinate.
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// IsEmpty returns true if the rectangle has zero area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects returns true if two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return !(other.X > r.Right() || other.Right() < r.X ||
		other.Y > r.Bottom() || other.Bottom() < r.Y)
}

// Intersect returns the intersection of two rectangles.
// Returns an empty rectangle if they don't intersect.
func (r Rect) Intersect(other Rect) Rect {
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.Right(), other.Right())
	y1 := math.Min(r.Bottom(), other.Bottom())

	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rectangle containing both rectangles.
// An empty rectangle contributes nothing to the union.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, other.X)
	y0 := math.Min(r.Y, other.Y)
	x1 := math.Max(r.Right(), other.Right())
	y1 := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Offset returns the rectangle translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Scaled returns the rectangle with position and size multiplied
// by a scalar.
func (r Rect) Scaled(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, W: r.W * f, H: r.H * f}
}

// PhysicalRect represents a rectangle in device pixels.
type PhysicalRect struct {
	X, Y, W, H int
}

// IsEmpty returns true if the rectangle has zero area.
func (r PhysicalRect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// ToPhysical converts the logical rectangle to device pixels at the
// given scale factor. Edges round outward so the physical rectangle
// always covers the logical one; this matters for damage rectangles,
// where under-covering would leave stale pixels on screen.
func (r Rect) ToPhysical(scale float64) PhysicalRect {
	x0 := int(math.Floor(r.X * scale))
	y0 := int(math.Floor(r.Y * scale))
	x1 := int(math.Ceil(r.Right() * scale))
	y1 := int(math.Ceil(r.Bottom() * scale))
	return PhysicalRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// CornerRadius holds per-corner rounding radii for a rectangle, in
// logical coordinates.
type CornerRadius struct {
	TopLeft, TopRight       float64
	BottomRight, BottomLeft float64
}

// IsZero returns true if all four radii are zero.
func (c CornerRadius) IsZero() bool {
	return c.TopLeft == 0 && c.TopRight == 0 && c.BottomRight == 0 && c.BottomLeft == 0
}

// Scaled returns all radii multiplied by a scalar.
func (c CornerRadius) Scaled(f float64) CornerRadius {
	return CornerRadius{
		TopLeft:     c.TopLeft * f,
		TopRight:    c.TopRight * f,
		BottomRight: c.BottomRight * f,
		BottomLeft:  c.BottomLeft * f,
	}
}

// Fit shrinks the radii so that adjacent corners never overlap within
// a rectangle of the given dimensions, following the CSS
// border-radius overlap rule: all radii scale by the smallest ratio
// of side length to the sum of its two corner radii.
func (c CornerRadius) Fit(w, h float64) CornerRadius {
	f := 1.0
	for _, side := range []struct {
		length float64
		r1, r2 float64
	}{
		{w, c.TopLeft, c.TopRight},
		{h, c.TopRight, c.BottomRight},
		{w, c.BottomRight, c.BottomLeft},
		{h, c.BottomLeft, c.TopLeft},
	} {
		if sum := side.r1 + side.r2; sum > 0 {
			f = math.Min(f, side.length/sum)
		}
	}
	if f >= 1 {
		return c
	}
	return c.Scaled(f)
}
