package segment

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Ring is a closed sequence of vertices. The closing vertex is implicit: the
// last vertex connects back to the first.
type Ring []r2.Vec

// SignedArea returns the shoelace area of the ring. Its sign depends on the
// winding direction and on the orientation of the Y axis.
func (r Ring) SignedArea() float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i := range r {
		a := r[i]
		b := r[(i+1)%len(r)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute area enclosed by the ring.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Polygon is an exterior ring with optional holes.
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

// Area returns the exterior area minus the area of every hole.
func (p Polygon) Area() float64 {
	a := p.Exterior.Area()
	for _, h := range p.Holes {
		a -= h.Area()
	}
	return a
}

// Bounds returns the axis-aligned bounding box of the exterior ring as
// (min, max) corners. An empty polygon yields two zero vectors.
func (p Polygon) Bounds() (r2.Vec, r2.Vec) {
	if len(p.Exterior) == 0 {
		return r2.Vec{}, r2.Vec{}
	}
	lo, hi := p.Exterior[0], p.Exterior[0]
	for _, v := range p.Exterior[1:] {
		lo.X = math.Min(lo.X, v.X)
		lo.Y = math.Min(lo.Y, v.Y)
		hi.X = math.Max(hi.X, v.X)
		hi.Y = math.Max(hi.Y, v.Y)
	}
	return lo, hi
}

// WKT encodes the polygon as well-known text, e.g.
// POLYGON ((0 0, 1 0, 1 1, 0 1, 0 0)). Each ring is written closed.
func (p Polygon) WKT() string {
	if len(p.Exterior) == 0 {
		return "POLYGON EMPTY"
	}
	var b strings.Builder
	b.WriteString("POLYGON (")
	writeRing(&b, p.Exterior)
	for _, h := range p.Holes {
		b.WriteString(", ")
		writeRing(&b, h)
	}
	b.WriteString(")")
	return b.String()
}

func writeRing(b *strings.Builder, r Ring) {
	b.WriteString("(")
	for i := 0; i <= len(r); i++ {
		v := r[i%len(r)]
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(v.X, 'f', -1, 64))
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(v.Y, 'f', -1, 64))
	}
	b.WriteString(")")
}
