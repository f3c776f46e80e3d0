package coord

import (
	"fmt"
	"math"
)

// Point is a 2D location.
type Point struct {
	X, Y Coord
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y Coord) Point { return Point{X: x, Y: y} }

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

// Offset returns p moved by dx, dy.
func (p Point) Offset(dx, dy Coord) Point { return Point{p.X + dx, p.Y + dy} }

// Rotate90 rotates p counter-clockwise about the origin by quarter turns.
func (p Point) Rotate90(quarters int) Point {
	switch ((quarters % 4) + 4) % 4 {
	case 1:
		return Point{-p.Y, p.X}
	case 2:
		return Point{-p.X, -p.Y}
	case 3:
		return Point{p.Y, -p.X}
	}
	return p
}

func (p Point) String() string { return fmt.Sprintf("(%s, %s)", p.X, p.Y) }

// Rect is an axis-aligned rectangle with Min <= Max on both axes. The zero
// Rect is the canonical empty rectangle.
type Rect struct {
	Min, Max Point
}

// NewRect builds a normalized rectangle from two opposite corners.
func NewRect(a, b Point) Rect {
	r := Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// BoundsOf returns the smallest rectangle containing pts. A single point (or
// several coincident ones) yields a one-unit box so that the result is never
// empty. No points yields the empty rectangle.
func BoundsOf(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r.unitIfDegenerate()
}

// Around returns the square of half-size radius centred on c.
func Around(c Point, radius Coord) Rect {
	radius = radius.Abs()
	return Rect{
		Min: Point{c.X - radius, c.Y - radius},
		Max: Point{c.X + radius, c.Y + radius},
	}.unitIfDegenerate()
}

func (r Rect) unitIfDegenerate() Rect {
	if r.Width() == 0 && r.Height() == 0 {
		r.Max = Point{r.Min.X + 1, r.Min.Y + 1}
	}
	return r
}

// IsEmpty reports whether r has neither width nor height.
func (r Rect) IsEmpty() bool { return r.Width() == 0 && r.Height() == 0 }

func (r Rect) Width() Coord  { return r.Max.X - r.Min.X }
func (r Rect) Height() Coord { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{r.Min.X + r.Width()/2, r.Min.Y + r.Height()/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Inflate grows r by d on every side.
func (r Rect) Inflate(d Coord) Rect {
	return NewRect(r.Min.Offset(-d, -d), r.Max.Offset(d, d))
}

// Union returns the smallest rectangle containing a and b. Empty rectangles
// are ignored.
func Union(a, b Rect) Rect {
	switch {
	case a.IsEmpty() && b.IsEmpty():
		return Rect{}
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	}
	return Rect{
		Min: Point{min(a.Min.X, b.Min.X), min(a.Min.Y, b.Min.Y)},
		Max: Point{max(a.Max.X, b.Max.X), max(a.Max.Y, b.Max.Y)},
	}
}

// UnionAll folds Union over rs; no rectangles yields the empty rectangle.
func UnionAll(rs ...Rect) Rect {
	var out Rect
	for _, r := range rs {
		out = Union(out, r)
	}
	return out
}

// Intersect returns the overlap of a and b, or the empty rectangle.
func Intersect(a, b Rect) Rect {
	if a.IsEmpty() || b.IsEmpty() {
		return Rect{}
	}
	r := Rect{
		Min: Point{max(a.Min.X, b.Min.X), max(a.Min.Y, b.Min.Y)},
		Max: Point{min(a.Max.X, b.Max.X), min(a.Max.Y, b.Max.Y)},
	}
	if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y || r.IsEmpty() {
		return Rect{}
	}
	return r
}

func (r Rect) String() string { return fmt.Sprintf("[%s - %s]", r.Min, r.Max) }

// ArcBounds returns the box around the part of the ellipse centered on c
// with radii rx, ry swept counter-clockwise from start to end degrees.
func ArcBounds(c Point, rx, ry Coord, start, end float64) Rect {
	start = normalizeAngle(start)
	end = normalizeAngle(end)
	sweep := end - start
	if sweep <= 0 {
		sweep += 360
	}
	at := func(deg float64) Point {
		rad := deg * math.Pi / 180
		return Point{
			X: c.X + Coord(math.Round(float64(rx)*math.Cos(rad))),
			Y: c.Y + Coord(math.Round(float64(ry)*math.Sin(rad))),
		}
	}
	pts := []Point{at(start), at(start + sweep)}
	for q := 0.0; q < 720; q += 90 {
		if q > start && q < start+sweep {
			pts = append(pts, at(q))
		}
	}
	return BoundsOf(pts...)
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
