package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

// BitDepth returns 16 for images that carry 16 bits per sample and 8 for
// everything else.
func BitDepth(img image.Image) int {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return 16
	}
	return 8
}

// ToRaster converts img to a grayscale raster at the image's bit depth.
//
// Gray images are copied sample for sample. Color images are reduced to
// luminance with the ITU-R BT.601 weights (0.299, 0.587, 0.114); 8-bit
// sources go through bild, 16-bit sources through the standard Gray16 model,
// which uses the same weights.
func ToRaster(img image.Image) *segment.Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		r := segment.NewRaster(w, h, 8)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.Pix[y*w+x] = uint16(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return r

	case *image.Gray16:
		r := segment.NewRaster(w, h, 16)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.Pix[y*w+x] = src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
		return r
	}

	if BitDepth(img) == 16 {
		r := segment.NewRaster(w, h, 16)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				r.Pix[y*w+x] = c.Y
			}
		}
		return r
	}

	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	gb := gray.Bounds()
	r := segment.NewRaster(w, h, 8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.Pix[y*w+x] = uint16(gray.RGBAAt(gb.Min.X+x, gb.Min.Y+y).R)
		}
	}
	return r
}

// SourceImage is one image ready for segmentation.
type SourceImage struct {
	// ID identifies the image to annotation sinks and log lines.
	ID string

	// Raster holds the intensity samples. It may be smaller than the
	// source image when the source downscales while loading.
	Raster *segment.Raster

	// Width and Height are the dimensions of the source image itself.
	Width  int
	Height int

	BitDepth int
}

// FileSource reads images from the local filesystem. The image ID is the
// file path.
type FileSource struct {
	// Cache, when set, keeps decoded images between fetches.
	Cache *ImageCache

	// MaxDimension, when positive, downscales the raster while loading so
	// its longest side fits, mirroring a server-side preview. Width and
	// Height still report the full source size.
	MaxDimension int
}

// Fetch loads the image at path id.
func (s *FileSource) Fetch(ctx context.Context, id string) (*SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		img image.Image
		err error
	)
	if s.Cache != nil {
		img, err = s.Cache.Load(id)
	} else {
		img, err = decode(id)
	}
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image %s is empty", id)
	}

	raster := ToRaster(img)
	if s.MaxDimension > 0 {
		w, h, _ := segment.WorkingSize(b.Dx(), b.Dy(), s.MaxDimension)
		if w != raster.Width || h != raster.Height {
			raster = raster.Resize(w, h)
		}
	}

	return &SourceImage{
		ID:       id,
		Raster:   raster,
		Width:    b.Dx(),
		Height:   b.Dy(),
		BitDepth: raster.Depth(),
	}, nil
}

// ListImages returns the paths of every supported image directly inside dir,
// sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
