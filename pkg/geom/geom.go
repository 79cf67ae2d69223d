// Package geom provides the small 2D geometry vocabulary shared by the
// layout engine and the collision resolver: points, axis-aligned
// rectangles, and gap measurements between rectangles.
package geom

import "math"

// Point is a position in Cartesian canvas coordinates.
// X grows rightward, Y grows downward (screen convention).
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns the point translated by dx/dy.
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rect is an axis-aligned rectangle identified by its center and size.
// Elements are positioned by center, so conversions to edges go through
// the accessor methods rather than stored corners.
type Rect struct {
	Center Point
	Width  float64
	Height float64
}

// RectAt builds a Rect from a center point and dimensions.
func RectAt(center Point, width, height float64) Rect {
	return Rect{Center: center, Width: width, Height: height}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.Center.X - r.Width/2 }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Center.X + r.Width/2 }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Center.Y - r.Height/2 }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Center.Y + r.Height/2 }

// GapX returns the horizontal clearance between r and other.
// Negative values mean the projections onto the x axis overlap by that amount.
func (r Rect) GapX(other Rect) float64 {
	return math.Abs(r.Center.X-other.Center.X) - (r.Width+other.Width)/2
}

// GapY returns the vertical clearance between r and other.
// Negative values mean the projections onto the y axis overlap by that amount.
func (r Rect) GapY(other Rect) float64 {
	return math.Abs(r.Center.Y-other.Center.Y) - (r.Height+other.Height)/2
}

// Gap returns the separation between two rectangles: the larger of the
// two axis gaps. It is negative only when the rectangles truly overlap.
func (r Rect) Gap(other Rect) float64 {
	return math.Max(r.GapX(other), r.GapY(other))
}

// Intersects reports whether the two rectangles overlap with zero or
// negative clearance on both axes.
func (r Rect) Intersects(other Rect) bool {
	return r.GapX(other) < 0 && r.GapY(other) < 0
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	left := math.Min(r.Left(), other.Left())
	right := math.Max(r.Right(), other.Right())
	top := math.Min(r.Top(), other.Top())
	bottom := math.Max(r.Bottom(), other.Bottom())
	return Rect{
		Center: Point{X: (left + right) / 2, Y: (top + bottom) / 2},
		Width:  right - left,
		Height: bottom - top,
	}
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 { return r.Width * r.Height }

// BoundingBox returns the union of all rectangles and true, or a zero
// Rect and false for an empty input.
func BoundingBox(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	box := rects[0]
	for _, r := range rects[1:] {
		box = box.Union(r)
	}
	return box, true
}
