package segment

import (
	"fmt"
	"math"
)

// KernelSize normalizes a one- or two-element kernel size to a
// (width, height) pair.
//
// A single value is used for both dimensions. Values are rounded half to
// even and must be at least 1 after rounding.
func KernelSize(size []float64) (width, height int, err error) {
	var w, h float64
	switch len(size) {
	case 1:
		w, h = size[0], size[0]
	case 2:
		w, h = size[0], size[1]
	default:
		return 0, 0, fmt.Errorf("%w: kernel size needs 1 or 2 values, got %d", ErrInvalidConfiguration, len(size))
	}

	width = int(math.RoundToEven(w))
	height = int(math.RoundToEven(h))
	if width < 1 || height < 1 {
		return 0, 0, fmt.Errorf("%w: kernel size %dx%d must be positive", ErrInvalidConfiguration, width, height)
	}
	return width, height, nil
}

// StructuringElement is a binary kernel used by the morphological operators.
//
// On is row-major with Width*Height cells. The anchor is the cell aligned
// with the output pixel.
type StructuringElement struct {
	Width   int
	Height  int
	AnchorX int
	AnchorY int
	On      []bool
}

// NewEllipse builds the elliptical structuring element inscribed in a
// width x height box, cell for cell the same as OpenCV's MORPH_ELLIPSE.
//
// Each row i spans columns [c-dx, c+dx] where r = height/2, c = width/2 and
// dx = round(c * sqrt(r² - (i-r)²) / r). A 1x1 box is a single cell.
func NewEllipse(width, height int) (*StructuringElement, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: structuring element %dx%d must be positive", ErrInvalidConfiguration, width, height)
	}

	se := &StructuringElement{
		Width:   width,
		Height:  height,
		AnchorX: width / 2,
		AnchorY: height / 2,
		On:      make([]bool, width*height),
	}

	if width == 1 && height == 1 {
		se.On[0] = true
		return se, nil
	}

	r := height / 2
	c := width / 2
	invR2 := 0.0
	if r > 0 {
		invR2 = 1.0 / float64(r*r)
	}

	for i := 0; i < height; i++ {
		j1, j2 := 0, 0
		dy := i - r
		if abs(dy) <= r {
			dx := int(math.RoundToEven(float64(c) * math.Sqrt(float64(r*r-dy*dy)*invR2)))
			j1 = max(c-dx, 0)
			j2 = min(c+dx+1, width)
		}
		for j := j1; j < j2; j++ {
			se.On[i*width+j] = true
		}
	}

	return se, nil
}

// Count returns the number of On cells. The region size filter uses it as
// the smallest component worth keeping.
func (se *StructuringElement) Count() int {
	n := 0
	for _, on := range se.On {
		if on {
			n++
		}
	}
	return n
}

// offsets lists the (dx, dy) displacement of every On cell from the anchor.
func (se *StructuringElement) offsets() [][2]int {
	offs := make([][2]int, 0, len(se.On))
	for i := 0; i < se.Height; i++ {
		for j := 0; j < se.Width; j++ {
			if se.On[i*se.Width+j] {
				offs = append(offs, [2]int{j - se.AnchorX, i - se.AnchorY})
			}
		}
	}
	return offs
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
