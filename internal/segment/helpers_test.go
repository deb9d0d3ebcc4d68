package segment

import (
	"math"
	"testing"
)

// createRaster returns an 8-bit raster filled with a single value.
func createRaster(width, height int, value uint16) *Raster {
	r := NewRaster(width, height, 8)
	for i := range r.Pix {
		r.Pix[i] = value
	}
	return r
}

// createSquareRaster draws a size x size square of fg at (x0, y0) on a bg
// raster.
func createSquareRaster(width, height, x0, y0, size int, fg, bg uint16) *Raster {
	r := createRaster(width, height, bg)
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			r.Set(x, y, fg)
		}
	}
	return r
}

// createMask builds a mask from rows of '#' (On) and '.' (Off).
func createMask(t *testing.T, rows ...string) *Mask {
	t.Helper()
	if len(rows) == 0 {
		t.Fatal("createMask needs at least one row")
	}
	m := NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != m.Width {
			t.Fatalf("row %d has length %d, want %d", y, len(row), m.Width)
		}
		for x, c := range row {
			if c == '#' {
				m.Set(x, y, On)
			}
		}
	}
	return m
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
