package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

// OverlayResult contains the source image with polygon outlines drawn over it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Polygons    int    `json:"polygons"`
}

// DrawOverlay draws every shape outline onto a copy of img.
//
// Shape coordinates are source-image coordinates with a bottom-left origin,
// as produced by segment.Run, so the vertical axis is flipped back before
// drawing. Each shape gets its own color from a palette of visually distinct
// hues; holes share their polygon's color. Lines are thickness pixels wide.
func DrawOverlay(img image.Image, shapes []segment.Shape, thickness int) *image.NRGBA {
	if thickness < 1 {
		thickness = 1
	}

	canvas := imaging.Clone(img)
	height := float64(canvas.Bounds().Dy())

	palette := colorful.FastHappyPalette(max(len(shapes), 1))
	for i, s := range shapes {
		c := palette[i]
		drawRing(canvas, s.Polygon.Exterior, height, thickness, c)
		for _, h := range s.Polygon.Holes {
			drawRing(canvas, h, height, thickness, c)
		}
	}
	return canvas
}

// RenderOverlay draws the outlines like DrawOverlay and returns the result as
// a base64-encoded PNG. When maxWidth is positive and smaller than the image,
// the result is downscaled to that width.
func RenderOverlay(img image.Image, shapes []segment.Shape, thickness, maxWidth int) (*OverlayResult, error) {
	canvas := DrawOverlay(img, shapes, thickness)

	var out image.Image = canvas
	if maxWidth > 0 && canvas.Bounds().Dx() > maxWidth {
		out = imaging.Resize(canvas, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := out.Bounds()
	return &OverlayResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Polygons:    len(shapes),
	}, nil
}

// SaveOverlay draws the outlines like DrawOverlay and writes the result to
// path. The format follows the file extension.
func SaveOverlay(path string, img image.Image, shapes []segment.Shape, thickness int) error {
	if err := imaging.Save(DrawOverlay(img, shapes, thickness), path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}

func drawRing(dst *image.NRGBA, r segment.Ring, height float64, thickness int, c colorful.Color) {
	for i := range r {
		a := r[i]
		b := r[(i+1)%len(r)]
		drawLine(dst,
			int(math.Round(a.X)), int(math.Round(height-a.Y)),
			int(math.Round(b.X)), int(math.Round(height-b.Y)),
			thickness, c)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm, stamping a
// thickness x thickness square at every step.
func drawLine(dst *image.NRGBA, x0, y0, x1, y1, thickness int, c colorful.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		stamp(dst, x0, y0, thickness, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func stamp(dst *image.NRGBA, cx, cy, thickness int, c colorful.Color) {
	r, g, b := c.RGB255()
	bounds := dst.Bounds()
	half := thickness / 2
	for y := cy - half; y < cy-half+thickness; y++ {
		for x := cx - half; x < cx-half+thickness; x++ {
			// Vertices on the far edge land one past the last pixel.
			px, py := min(x, bounds.Max.X-1), min(y, bounds.Max.Y-1)
			if px < bounds.Min.X || py < bounds.Min.Y {
				continue
			}
			i := dst.PixOffset(px, py)
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = 255
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
