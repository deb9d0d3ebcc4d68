package segment

import "fmt"

// MorphOp names the morphological operation applied before inversion.
//
// The two operations produce visibly different boundaries, so callers must
// choose one explicitly.
type MorphOp string

const (
	// MorphOpen erodes then dilates: small protrusions disappear and large
	// boundaries stay close to their thresholded position.
	MorphOpen MorphOp = "open"

	// MorphDilate only grows regions: small gaps close but objects come out
	// slightly larger than thresholded.
	MorphDilate MorphOp = "dilate"
)

// Validate reports whether op is a known operation.
func (op MorphOp) Validate() error {
	switch op {
	case MorphOpen, MorphDilate:
		return nil
	case "":
		return fmt.Errorf("%w: morphological operation must be set (%q or %q)", ErrInvalidConfiguration, MorphOpen, MorphDilate)
	default:
		return fmt.Errorf("%w: unknown morphological operation %q", ErrInvalidConfiguration, op)
	}
}

// Dilate returns the dilation of the On pixels of m by se.
//
// Each output pixel is On if any kernel cell, placed relative to the anchor,
// covers an On input pixel. Cells falling outside the mask contribute
// nothing.
func Dilate(m *Mask, se *StructuringElement) *Mask {
	return morph(m, se, true)
}

// Erode returns the erosion of the On pixels of m by se.
//
// Each output pixel is On only if every kernel cell inside the mask covers an
// On input pixel. Cells falling outside the mask are ignored, so objects
// touching the edge are not eaten from the outside.
func Erode(m *Mask, se *StructuringElement) *Mask {
	return morph(m, se, false)
}

// Open returns the erosion of m followed by the dilation of the result.
func Open(m *Mask, se *StructuringElement) *Mask {
	return Dilate(Erode(m, se), se)
}

func morph(m *Mask, se *StructuringElement, dilate bool) *Mask {
	w, h := m.Width, m.Height
	out := NewMask(w, h)
	offs := se.offsets()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hit := !dilate
			for _, o := range offs {
				nx, ny := x+o[0], y+o[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				on := m.Pix[ny*w+nx] == On
				if dilate && on {
					hit = true
					break
				}
				if !dilate && !on {
					hit = false
					break
				}
			}
			if hit {
				out.Pix[y*w+x] = On
			}
		}
	}

	return out
}

// Refine applies op with se and inverts the result, so objects come out Off
// on an On background.
func Refine(m *Mask, op MorphOp, se *StructuringElement) (*Mask, error) {
	var out *Mask
	switch op {
	case MorphOpen:
		out = Open(m, se)
	case MorphDilate:
		out = Dilate(m, se)
	default:
		return nil, op.Validate()
	}
	out.Invert()
	return out, nil
}
