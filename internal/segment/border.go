package segment

import (
	"fmt"
	"image"
)

// BorderMode selects how objects touching the image edge are handled before
// polygon extraction.
type BorderMode string

const (
	// BorderPad surrounds the mask with a constant background margin so that
	// edge-touching objects are closed off and kept (clipped at the edge).
	BorderPad BorderMode = "pad"

	// BorderZeroEdge removes every object that touches the outermost row or
	// column.
	BorderZeroEdge BorderMode = "zero_edge"
)

// DefaultPadMargin is the margin used by BorderPad when none is configured.
const DefaultPadMargin = 10

// Validate reports whether mode is known. The empty mode means BorderPad.
func (mode BorderMode) Validate() error {
	switch mode {
	case "", BorderPad, BorderZeroEdge:
		return nil
	default:
		return fmt.Errorf("%w: unknown border mode %q", ErrInvalidConfiguration, mode)
	}
}

// Pad returns a copy of m with margin pixels of fill added on every side.
func Pad(m *Mask, margin int, fill uint8) *Mask {
	w := m.Width + 2*margin
	h := m.Height + 2*margin
	out := NewMask(w, h)
	if fill != Off {
		for i := range out.Pix {
			out.Pix[i] = fill
		}
	}
	for y := 0; y < m.Height; y++ {
		copy(out.Pix[(y+margin)*w+margin:], m.Pix[y*m.Width:(y+1)*m.Width])
	}
	return out
}

// ZeroEdge sets every pixel of each object touching the mask edge to
// background and returns the number of objects removed.
//
// Objects are the 8-connected regions of pixels different from background.
// The mask is modified in place.
func ZeroEdge(m *Mask, background uint8) int {
	w, h := m.Width, m.Height
	fg := NewMask(w, h)
	for i, p := range m.Pix {
		if p != background {
			fg.Pix[i] = On
		}
	}

	labels, stats := LabelComponents(fg, On, true)
	touching := make([]bool, len(stats)+1)
	removed := 0
	for _, st := range stats {
		if st.MinX == 0 || st.MinY == 0 || st.MaxX == w-1 || st.MaxY == h-1 {
			touching[st.Label] = true
			removed++
		}
	}
	if removed == 0 {
		return 0
	}

	for i, l := range labels {
		if l != 0 && touching[l] {
			m.Pix[i] = background
		}
	}
	return removed
}

// HandleBorder applies mode to the refined mask and returns the mask to
// extract polygons from together with the offset that maps its coordinates
// back into the frame of m.
func HandleBorder(m *Mask, mode BorderMode, margin int, background uint8) (*Mask, image.Point, error) {
	switch mode {
	case "", BorderPad:
		if margin < 0 {
			return nil, image.Point{}, fmt.Errorf("%w: pad margin %d must not be negative", ErrInvalidConfiguration, margin)
		}
		return Pad(m, margin, background), image.Pt(-margin, -margin), nil
	case BorderZeroEdge:
		out := m.Clone()
		ZeroEdge(out, background)
		return out, image.Point{}, nil
	default:
		return nil, image.Point{}, mode.Validate()
	}
}
