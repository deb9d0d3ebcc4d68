package segment

import (
	"context"
	"errors"
	"testing"
)

func defaultParams() Params {
	return Params{
		WorkingMaxDimension:  2048,
		ThresholdOffset:      0,
		KernelSize:           []float64{3, 3},
		MorphOp:              MorphDilate,
		BorderMode:           BorderPad,
		AreaPercentThreshold: 1,
	}
}

func TestRun_ConstantRaster(t *testing.T) {
	for _, mode := range []BorderMode{BorderPad, BorderZeroEdge} {
		t.Run(string(mode), func(t *testing.T) {
			p := defaultParams()
			p.BorderMode = mode

			res, err := Run(context.Background(), Input{Raster: createRaster(100, 100, 128), Params: p})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(res.Shapes) != 0 {
				t.Errorf("shapes: got %d, want 0", len(res.Shapes))
			}
			if res.Threshold != 128 {
				t.Errorf("threshold: got %v, want 128", res.Threshold)
			}
		})
	}
}

func TestRun_ConstantRasterAllForeground(t *testing.T) {
	p := defaultParams()
	p.ThresholdOffset = 1

	t.Run("pad keeps the full frame", func(t *testing.T) {
		res, err := Run(context.Background(), Input{Raster: createRaster(100, 100, 128), Params: p})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(res.Shapes) != 1 {
			t.Fatalf("shapes: got %d, want 1", len(res.Shapes))
		}
		if res.Shapes[0].Area != 10000 {
			t.Errorf("area: got %v, want 10000", res.Shapes[0].Area)
		}
	})

	t.Run("zero edge drops it", func(t *testing.T) {
		p.BorderMode = BorderZeroEdge
		res, err := Run(context.Background(), Input{Raster: createRaster(100, 100, 128), Params: p})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(res.Shapes) != 0 {
			t.Errorf("shapes: got %d, want 0", len(res.Shapes))
		}
	})
}

func TestRun_DarkSquare(t *testing.T) {
	tests := []struct {
		name     string
		op       MorphOp
		wantArea float64
	}{
		{"dilate", MorphDilate, 480},
		{"open", MorphOpen, 396},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams()
			p.MorphOp = tt.op
			r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)

			res, err := Run(context.Background(), Input{Raster: r, Params: p})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if res.MinArea != 100 {
				t.Errorf("min area: got %v, want 100", res.MinArea)
			}
			if len(res.Shapes) != 1 {
				t.Fatalf("shapes: got %d, want 1", len(res.Shapes))
			}
			area := res.Shapes[0].Area
			if area != tt.wantArea {
				t.Errorf("area: got %v, want %v", area, tt.wantArea)
			}
			if !approxEqual(area, 400, 100) {
				t.Errorf("area %v is not close to the 400 pixel square", area)
			}
			if res.MinRegionSize != 5 {
				t.Errorf("min region size: got %d, want 5", res.MinRegionSize)
			}
		})
	}
}

func TestRun_DarkSquareFlipped(t *testing.T) {
	r := createSquareRaster(100, 100, 10, 20, 20, 0, 255)

	res, err := Run(context.Background(), Input{Raster: r, Params: defaultParams()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Shapes) != 1 {
		t.Fatalf("shapes: got %d, want 1", len(res.Shapes))
	}

	// Dilation grows the square by one pixel; y is measured from the bottom.
	lo, hi := res.Shapes[0].Polygon.Bounds()
	if lo.X != 9 || hi.X != 31 {
		t.Errorf("x range: got [%v, %v], want [9, 31]", lo.X, hi.X)
	}
	if lo.Y != 59 || hi.Y != 81 {
		t.Errorf("y range: got [%v, %v], want [59, 81]", lo.Y, hi.Y)
	}
}

func TestRun_AreaThresholdExcludesSquare(t *testing.T) {
	p := defaultParams()
	p.AreaPercentThreshold = 50
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)

	res, err := Run(context.Background(), Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.MinArea != 5000 {
		t.Errorf("min area: got %v, want 5000", res.MinArea)
	}
	if len(res.Shapes) != 0 {
		t.Errorf("shapes: got %d, want 0", len(res.Shapes))
	}
	if res.Discarded != 1 {
		t.Errorf("discarded: got %d, want 1", res.Discarded)
	}
}

func TestRun_SmallNoiseRemoved(t *testing.T) {
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)
	r.Set(5, 5, 0)
	r.Set(90, 12, 0)
	r.Set(91, 12, 0)

	p := defaultParams()
	p.AreaPercentThreshold = 0

	res, err := Run(context.Background(), Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.RegionsRemoved != 2 {
		t.Errorf("regions removed: got %d, want 2", res.RegionsRemoved)
	}
	if len(res.Shapes) != 1 {
		t.Errorf("shapes: got %d, want 1", len(res.Shapes))
	}
}

func TestRun_MinRegionSizeOverride(t *testing.T) {
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)
	p := defaultParams()
	p.MinRegionSizeOverride = 401

	res, err := Run(context.Background(), Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.MinRegionSize != 401 {
		t.Errorf("min region size: got %d, want 401", res.MinRegionSize)
	}
	if len(res.Shapes) != 0 {
		t.Errorf("shapes: got %d, want 0", len(res.Shapes))
	}
}

func TestRun_WorkingResolution(t *testing.T) {
	r := createSquareRaster(200, 200, 80, 80, 40, 0, 255)
	p := defaultParams()
	p.WorkingMaxDimension = 100

	res, err := Run(context.Background(), Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.WorkingWidth != 100 || res.WorkingHeight != 100 {
		t.Errorf("working size: got %dx%d, want 100x100", res.WorkingWidth, res.WorkingHeight)
	}
	if res.Zoom != 2 {
		t.Errorf("zoom: got %v, want 2", res.Zoom)
	}
	if len(res.Shapes) != 1 {
		t.Fatalf("shapes: got %d, want 1", len(res.Shapes))
	}
	if a := res.Shapes[0].Area; a != 480*4 {
		t.Errorf("area: got %v, want %v", a, 480*4)
	}
}

func TestRun_PreviewRasterWithSourceDimensions(t *testing.T) {
	// The caller already holds a 100x100 preview of a 400x400 image.
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)
	p := defaultParams()
	p.WorkingMaxDimension = 100

	res, err := Run(context.Background(), Input{Raster: r, SourceWidth: 400, SourceHeight: 400, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Zoom != 4 {
		t.Errorf("zoom: got %v, want 4", res.Zoom)
	}
	if res.MinArea != 1600 {
		t.Errorf("min area: got %v, want 1600", res.MinArea)
	}
	if len(res.Shapes) != 1 || res.Shapes[0].Area != 480*16 {
		t.Errorf("shapes: got %+v, want one of area %d", res.Shapes, 480*16)
	}
}

func TestRun_PreviewRasterIsNotUpsampled(t *testing.T) {
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)
	p := defaultParams()

	res, err := Run(context.Background(), Input{Raster: r, SourceWidth: 400, SourceHeight: 400, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.WorkingWidth != 100 || res.WorkingHeight != 100 {
		t.Errorf("working size: got %dx%d, want 100x100", res.WorkingWidth, res.WorkingHeight)
	}
	if res.Zoom != 4 {
		t.Errorf("zoom: got %v, want 4", res.Zoom)
	}
	if len(res.Shapes) != 1 || res.Shapes[0].Area != 480*16 {
		t.Errorf("shapes: got %+v, want one of area %d", res.Shapes, 480*16)
	}
}

func TestRun_ThresholdSample(t *testing.T) {
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)
	p := defaultParams()
	p.ThresholdSampleMaxDimension = 10

	res, err := Run(context.Background(), Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Threshold != 127 {
		t.Errorf("threshold: got %v, want 127", res.Threshold)
	}
	if len(res.Shapes) != 1 {
		t.Errorf("shapes: got %d, want 1", len(res.Shapes))
	}
}

func TestRun_DoesNotModifyRaster(t *testing.T) {
	r := createSquareRaster(50, 50, 10, 10, 20, 0, 255)
	before := r.Clone()

	if _, err := Run(context.Background(), Input{Raster: r, Params: defaultParams()}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i := range r.Pix {
		if r.Pix[i] != before.Pix[i] {
			t.Fatalf("raster sample %d changed", i)
		}
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"nil raster", func(in *Input) { in.Raster = nil }},
		{"short raster", func(in *Input) { in.Raster.Pix = in.Raster.Pix[:10] }},
		{"zero working dimension", func(in *Input) { in.Params.WorkingMaxDimension = 0 }},
		{"zero kernel", func(in *Input) { in.Params.KernelSize = []float64{0} }},
		{"missing kernel", func(in *Input) { in.Params.KernelSize = nil }},
		{"unset morph op", func(in *Input) { in.Params.MorphOp = "" }},
		{"unknown border mode", func(in *Input) { in.Params.BorderMode = "mirror" }},
		{"negative area percent", func(in *Input) { in.Params.AreaPercentThreshold = -1 }},
		{"negative source width", func(in *Input) { in.SourceWidth, in.SourceHeight = -5, 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Raster: createRaster(10, 10, 0), Params: defaultParams()}
			tt.mutate(&in)

			_, err := Run(context.Background(), in)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("error: got %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Input{Raster: createRaster(10, 10, 0), Params: defaultParams()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error: got %v, want context.Canceled", err)
	}
}

func TestFilterByArea_Boundary(t *testing.T) {
	square := func(side float64) Extracted {
		return Extracted{Polygon: Polygon{Exterior: Ring{
			{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
		}}}
	}
	// Areas 100 (at the cut) and 121 (above it); a 1x101 strip is one unit above.
	strip := Extracted{Polygon: Polygon{Exterior: Ring{
		{X: 0, Y: 0}, {X: 101, Y: 0}, {X: 101, Y: 1}, {X: 0, Y: 1},
	}}}

	shapes, discarded := FilterByArea([]Extracted{square(10), strip, square(11)}, NewRescale(100, 100, 100), 100)
	if discarded != 1 {
		t.Errorf("discarded: got %d, want 1", discarded)
	}
	if len(shapes) != 2 {
		t.Fatalf("shapes: got %d, want 2", len(shapes))
	}
	if shapes[0].Area != 101 || shapes[1].Area != 121 {
		t.Errorf("areas: got %v and %v, want 101 and 121 in input order", shapes[0].Area, shapes[1].Area)
	}
}

func TestWorkingSize(t *testing.T) {
	tests := []struct {
		w, h, max int
		wantW     int
		wantH     int
		wantRatio float64
	}{
		{100, 50, 200, 100, 50, 1},
		{4000, 3000, 2000, 2000, 1500, 2},
		{3000, 1001, 1000, 1000, 333, 3},
		{1000, 10, 100, 100, 1, 10},
	}

	for _, tt := range tests {
		w, h, ratio := WorkingSize(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH || ratio != tt.wantRatio {
			t.Errorf("WorkingSize(%d, %d, %d): got %dx%d ratio %v, want %dx%d ratio %v",
				tt.w, tt.h, tt.max, w, h, ratio, tt.wantW, tt.wantH, tt.wantRatio)
		}
	}
}

func TestRaster_Resize16Bit(t *testing.T) {
	r := NewRaster(4, 4, 16)
	for i := range r.Pix {
		r.Pix[i] = 40000
	}

	got := r.Resize(2, 2)
	if got.Width != 2 || got.Height != 2 || got.BitDepth != 16 {
		t.Fatalf("resized: got %dx%d depth %d, want 2x2 depth 16", got.Width, got.Height, got.BitDepth)
	}
	for i, v := range got.Pix {
		if v < 39999 || v > 40001 {
			t.Errorf("sample %d: got %d, want about 40000", i, v)
		}
	}
}

func TestRaster_ResizeSameSizeCopies(t *testing.T) {
	r := createRaster(3, 3, 7)
	got := r.Resize(3, 3)
	got.Pix[0] = 99
	if r.Pix[0] != 7 {
		t.Error("same-size resize aliases the input")
	}
}

func TestThreshold_MatchesRun(t *testing.T) {
	r := createSquareRaster(100, 100, 40, 40, 20, 0, 255)
	p := defaultParams()
	p.ThresholdOffset = 7

	got, err := Threshold(Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	res, err := Run(context.Background(), Input{Raster: r, Params: p})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != res.Threshold {
		t.Errorf("Threshold: got %v, Run used %v", got, res.Threshold)
	}

	p.MorphOp = ""
	if _, err := Threshold(Input{Raster: r, Params: p}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Threshold with invalid params: got %v, want ErrInvalidConfiguration", err)
	}
}
