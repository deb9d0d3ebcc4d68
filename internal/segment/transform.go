package segment

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Affine is a 2D affine transform [a, b, c, d, e, f] mapping
// (x, y) to (a·x + b·y + e, c·x + d·y + f).
type Affine [6]float64

// Identity leaves every point unchanged.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// NewRescale maps working-resolution coordinates onto a source image of
// sourceWidth x sourceHeight: it scales by sourceWidth/workingWidth and flips
// the vertical axis, [zoom, 0, 0, -zoom, 0, sourceHeight].
func NewRescale(sourceWidth, workingWidth, sourceHeight int) Affine {
	zoom := float64(sourceWidth) / float64(workingWidth)
	return Affine{zoom, 0, 0, -zoom, 0, float64(sourceHeight)}
}

// Apply transforms a single point.
func (t Affine) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: t[0]*p.X + t[1]*p.Y + t[4],
		Y: t[2]*p.X + t[3]*p.Y + t[5],
	}
}

// ApplyRing transforms every vertex of r into a new ring.
func (t Affine) ApplyRing(r Ring) Ring {
	out := make(Ring, len(r))
	for i, v := range r {
		out[i] = t.Apply(v)
	}
	return out
}

// ApplyPolygon transforms the exterior and every hole of p.
func (t Affine) ApplyPolygon(p Polygon) Polygon {
	out := Polygon{Exterior: t.ApplyRing(p.Exterior)}
	if len(p.Holes) > 0 {
		out.Holes = make([]Ring, len(p.Holes))
		for i, h := range p.Holes {
			out.Holes[i] = t.ApplyRing(h)
		}
	}
	return out
}

// Determinant is the area scale factor of the linear part (its sign tells
// whether orientation is reversed).
func (t Affine) Determinant() float64 {
	return t[0]*t[3] - t[1]*t[2]
}

// Then returns the transform that applies t first and next second.
func (t Affine) Then(next Affine) Affine {
	var out mat.Dense
	out.Mul(next.matrix(), t.matrix())
	return Affine{
		out.At(0, 0), out.At(0, 1),
		out.At(1, 0), out.At(1, 1),
		out.At(0, 2), out.At(1, 2),
	}
}

// matrix returns the 3x3 homogeneous form of t.
func (t Affine) matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		t[0], t[1], t[4],
		t[2], t[3], t[5],
		0, 0, 1,
	})
}

// MinArea returns floor(percent/100 · width · height), the area a polygon
// must exceed to be kept.
func MinArea(percent float64, width, height int) float64 {
	return math.Floor((percent / 100) * float64(width) * float64(height))
}
