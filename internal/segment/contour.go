package segment

import (
	"image"

	"gonum.org/v1/gonum/spatial/r2"
)

// Extracted is one object found in a mask.
type Extracted struct {
	Polygon Polygon

	// PixelArea is the number of object pixels. It equals Polygon.Area()
	// before any transform is applied.
	PixelArea int
}

// Trace directions, clockwise on screen: east, south, west, north.
var (
	dirStep = [4]image.Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

	// Pixels ahead of a vertex, relative to the vertex, on the left and
	// right of each direction of travel.
	aheadLeft  = [4]image.Point{{0, -1}, {0, 0}, {-1, 0}, {-1, -1}}
	aheadRight = [4]image.Point{{0, 0}, {-1, 0}, {-1, -1}, {0, -1}}
)

// ExtractPolygons returns one polygon per 8-connected object of m.
//
// Object pixels are those different from background. Every polygon's exterior
// follows the pixel edges around the object; enclosed background regions
// (4-connected) become holes. offset is added to every vertex, which lets a
// caller that padded the mask report coordinates in the unpadded frame.
//
// Polygons are returned in raster-scan order of each object's first pixel.
func ExtractPolygons(m *Mask, background uint8, offset image.Point) []Extracted {
	w, h := m.Width, m.Height

	fg := NewMask(w, h)
	for i, p := range m.Pix {
		if p != background {
			fg.Pix[i] = On
		}
	}

	labels, stats := LabelComponents(fg, On, true)
	if len(stats) == 0 {
		return nil
	}
	bgLabels, bgStats := LabelComponents(fg, Off, false)

	out := make([]Extracted, len(stats))
	for i, st := range stats {
		label := st.Label
		inside := func(x, y int) bool {
			return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
		}
		out[i] = Extracted{
			Polygon:   Polygon{Exterior: traceBoundary(inside, st.StartX, st.StartY, true, offset, w, h)},
			PixelArea: st.Size,
		}
	}

	for _, hs := range bgStats {
		if hs.MinX == 0 || hs.MinY == 0 || hs.MaxX == w-1 || hs.MaxY == h-1 {
			continue
		}
		// The pixel above a hole's first pixel belongs to the enclosing object.
		owner := labels[(hs.StartY-1)*w+hs.StartX]
		if owner == 0 {
			continue
		}
		label := hs.Label
		inside := func(x, y int) bool {
			return x >= 0 && y >= 0 && x < w && y < h && bgLabels[y*w+x] == label
		}
		ring := traceBoundary(inside, hs.StartX, hs.StartY, false, offset, w, h)
		out[owner-1].Polygon.Holes = append(out[owner-1].Polygon.Holes, ring)
	}

	return out
}

// traceBoundary follows the outer pixel-edge boundary of the region
// containing (sx, sy), which must be the region's first pixel in raster-scan
// order. The region is kept on the right-hand side while walking; eight
// selects whether diagonal neighbors belong to the same region. Only corner
// vertices are emitted.
func traceBoundary(inside func(x, y int) bool, sx, sy int, eight bool, offset image.Point, w, h int) Ring {
	start := image.Pt(sx, sy)
	ring := Ring{vertex(start, offset)}

	dir := 0
	v := start.Add(dirStep[dir])
	maxSteps := 4*(w+1)*(h+1) + 8

	for steps := 0; v != start && steps < maxSteps; steps++ {
		l := v.Add(aheadLeft[dir])
		r := v.Add(aheadRight[dir])
		inL := inside(l.X, l.Y)
		inR := inside(r.X, r.Y)

		next := dir
		switch {
		case inL && (eight || inR):
			next = (dir + 3) % 4
		case inR:
			// straight on
		default:
			next = (dir + 1) % 4
		}

		if next != dir {
			ring = append(ring, vertex(v, offset))
			dir = next
		}
		v = v.Add(dirStep[dir])
	}

	return ring
}

func vertex(p, offset image.Point) r2.Vec {
	return r2.Vec{X: float64(p.X + offset.X), Y: float64(p.Y + offset.Y)}
}
