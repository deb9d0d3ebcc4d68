package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// DefaultBitDepth is used when a raster does not report its bit depth.
const DefaultBitDepth = 8

// Raster is a row-major grid of grayscale intensity samples.
//
// Samples are stored as uint16 so that 8-bit and 16-bit sources share one
// representation. Only the low BitDepth bits of each sample are meaningful.
type Raster struct {
	Width    int
	Height   int
	BitDepth int
	Pix      []uint16
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height, bitDepth int) *Raster {
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	return &Raster{
		Width:    width,
		Height:   height,
		BitDepth: bitDepth,
		Pix:      make([]uint16, width*height),
	}
}

// At returns the sample at (x, y). No bounds checking is performed.
func (r *Raster) At(x, y int) uint16 {
	return r.Pix[y*r.Width+x]
}

// Set stores a sample at (x, y). No bounds checking is performed.
func (r *Raster) Set(x, y int, v uint16) {
	r.Pix[y*r.Width+x] = v
}

// Depth returns the bit depth, falling back to DefaultBitDepth.
func (r *Raster) Depth() int {
	if r.BitDepth <= 0 {
		return DefaultBitDepth
	}
	return r.BitDepth
}

// MaxValue is the largest sample representable at the raster's bit depth.
func (r *Raster) MaxValue() int {
	return 1<<uint(r.Depth()) - 1
}

// Validate reports whether the raster is well formed.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: raster is nil", ErrInvalidConfiguration)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: raster dimensions %dx%d must be positive", ErrInvalidConfiguration, r.Width, r.Height)
	}
	if len(r.Pix) != r.Width*r.Height {
		return fmt.Errorf("%w: raster has %d samples, want %d", ErrInvalidConfiguration, len(r.Pix), r.Width*r.Height)
	}
	if d := r.Depth(); d > 16 {
		return fmt.Errorf("%w: bit depth %d exceeds 16", ErrInvalidConfiguration, d)
	}
	return nil
}

// Clone returns a deep copy of the raster.
func (r *Raster) Clone() *Raster {
	pix := make([]uint16, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, BitDepth: r.BitDepth, Pix: pix}
}

// WorkingSize computes the resolution used for processing a source image of
// srcWidth x srcHeight whose longest side must not exceed maxDim.
//
// The ratio is max(1, max(w,h)/maxDim) and each dimension is floor(src/ratio),
// never less than one pixel.
func WorkingSize(srcWidth, srcHeight, maxDim int) (width, height int, ratio float64) {
	longest := srcWidth
	if srcHeight > longest {
		longest = srcHeight
	}
	ratio = float64(longest) / float64(maxDim)
	if ratio < 1 {
		ratio = 1
	}
	width = int(math.Floor(float64(srcWidth) / ratio))
	height = int(math.Floor(float64(srcHeight) / ratio))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height, ratio
}

// Resize returns a copy of the raster scaled to width x height.
//
// 8-bit rasters are resampled with the box filter, which averages the source
// area covered by each destination pixel. Deeper rasters go through a
// bilinear scaler working on 16-bit gray so no precision is lost.
func (r *Raster) Resize(width, height int) *Raster {
	if width == r.Width && height == r.Height {
		return r.Clone()
	}

	out := NewRaster(width, height, r.Depth())
	if r.Depth() <= 8 {
		src := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
		for i, v := range r.Pix {
			src.Pix[i] = uint8(v)
		}
		resized := imaging.Resize(src, width, height, imaging.Box)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				// Gray input yields R == G == B.
				out.Pix[y*width+x] = uint16(resized.Pix[y*resized.Stride+x*4])
			}
		}
		return out
	}

	src := r.gray16()
	dst := image.NewGray16(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	// Samples were stretched to the full 16-bit range by gray16.
	shift := uint(16 - r.Depth())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Pix[y*width+x] = dst.Gray16At(x, y).Y >> shift
		}
	}
	return out
}

func (r *Raster) gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, r.Width, r.Height))
	shift := uint(16 - r.Depth())
	for i, v := range r.Pix {
		s := v << shift
		img.Pix[2*i] = uint8(s >> 8)
		img.Pix[2*i+1] = uint8(s)
	}
	return img
}
