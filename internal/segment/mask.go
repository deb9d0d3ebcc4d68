package segment

// Mask values.
const (
	Off uint8 = 0
	On  uint8 = 255
)

// Mask is a row-major binary image holding only Off and On.
//
// Which polarity means "object" depends on the stage: after binarization
// objects are On, after refinement they are Off.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates a mask with every pixel Off.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the value at (x, y), or Off outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return Off
	}
	return m.Pix[y*m.Width+x]
}

// Set stores v at (x, y). No bounds checking is performed.
func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}

// Count returns the number of pixels equal to v.
func (m *Mask) Count(v uint8) int {
	n := 0
	for _, p := range m.Pix {
		if p == v {
			n++
		}
	}
	return n
}

// Invert flips every pixel in place (255 - x).
func (m *Mask) Invert() {
	for i, p := range m.Pix {
		m.Pix[i] = 255 - p
	}
}

// Binarize marks every sample strictly below threshold as On.
//
// Darker-than-threshold regions are the objects of interest.
func Binarize(r *Raster, threshold float64) *Mask {
	m := NewMask(r.Width, r.Height)
	for i, v := range r.Pix {
		if float64(v) < threshold {
			m.Pix[i] = On
		}
	}
	return m
}
