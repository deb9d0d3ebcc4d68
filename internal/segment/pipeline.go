package segment

import (
	"context"
	"fmt"
)

// Params configures one segmentation run.
type Params struct {
	// WorkingMaxDimension bounds the longest side of the raster actually
	// processed. A value at least as large as the source keeps full
	// resolution.
	WorkingMaxDimension int `yaml:"workingMaxDimension" json:"working_max_dimension"`

	// ThresholdSampleMaxDimension, when positive, estimates the threshold on
	// a copy of the working raster downsampled to this longest side. Zero
	// estimates on the working raster itself.
	ThresholdSampleMaxDimension int `yaml:"thresholdSampleMaxDimension" json:"threshold_sample_max_dimension,omitempty"`

	// ThresholdOffset is added to the Otsu threshold.
	ThresholdOffset float64 `yaml:"thresholdOffset" json:"threshold_offset"`

	// KernelSize is the structuring element size: one value for a square
	// box, or width and height.
	KernelSize []float64 `yaml:"kernelSize" json:"kernel_size"`

	// MinRegionSizeOverride replaces the structuring element's cell count as
	// the region size filter threshold when positive.
	MinRegionSizeOverride int `yaml:"minRegionSizeOverride" json:"min_region_size_override,omitempty"`

	MorphOp    MorphOp    `yaml:"morphOp" json:"morph_op"`
	BorderMode BorderMode `yaml:"borderMode" json:"border_mode"`

	// PadMargin is the BorderPad margin in pixels; zero means
	// DefaultPadMargin.
	PadMargin int `yaml:"padMargin" json:"pad_margin,omitempty"`

	// AreaPercentThreshold is the share of the source image area, in
	// percent, that a polygon must exceed to be kept.
	AreaPercentThreshold float64 `yaml:"areaPercentThreshold" json:"area_percent_threshold"`
}

// Validate checks every parameter that can be checked without an image.
func (p Params) Validate() error {
	if p.WorkingMaxDimension <= 0 {
		return fmt.Errorf("%w: working max dimension %d must be positive", ErrInvalidConfiguration, p.WorkingMaxDimension)
	}
	if p.ThresholdSampleMaxDimension < 0 {
		return fmt.Errorf("%w: threshold sample dimension %d must not be negative", ErrInvalidConfiguration, p.ThresholdSampleMaxDimension)
	}
	if _, _, err := KernelSize(p.KernelSize); err != nil {
		return err
	}
	if p.MinRegionSizeOverride < 0 {
		return fmt.Errorf("%w: min region size %d must not be negative", ErrInvalidConfiguration, p.MinRegionSizeOverride)
	}
	if err := p.MorphOp.Validate(); err != nil {
		return err
	}
	if err := p.BorderMode.Validate(); err != nil {
		return err
	}
	if p.PadMargin < 0 {
		return fmt.Errorf("%w: pad margin %d must not be negative", ErrInvalidConfiguration, p.PadMargin)
	}
	if p.AreaPercentThreshold < 0 {
		return fmt.Errorf("%w: area percent threshold %g must not be negative", ErrInvalidConfiguration, p.AreaPercentThreshold)
	}
	return nil
}

func (p Params) padMargin() int {
	if p.PadMargin == 0 {
		return DefaultPadMargin
	}
	return p.PadMargin
}

// Input is everything one run needs.
type Input struct {
	// Raster is the image to segment. It may already be smaller than the
	// source image; it is never modified.
	Raster *Raster

	// SourceWidth and SourceHeight are the true dimensions of the source
	// image that output coordinates refer to. Zero means the raster's own
	// dimensions.
	SourceWidth  int
	SourceHeight int

	Params Params
}

// Shape is one polygon in source-image coordinates.
type Shape struct {
	Polygon Polygon
	Area    float64
}

// Result is the outcome of one run.
type Result struct {
	Shapes []Shape `json:"-"`

	// Discarded counts polygons dropped by the area filter.
	Discarded int `json:"discarded"`

	Threshold      float64 `json:"threshold"`
	MinRegionSize  int     `json:"min_region_size"`
	RegionsRemoved int     `json:"regions_removed"`
	WorkingWidth   int     `json:"working_width"`
	WorkingHeight  int     `json:"working_height"`
	Zoom           float64 `json:"zoom"`
	MinArea        float64 `json:"min_area"`
}

// Run segments one raster.
//
// The stages run strictly in order. ctx is only consulted between stages,
// so a cancelled context stops the run at the next stage boundary.
func Run(ctx context.Context, in Input) (*Result, error) {
	working, srcW, srcH, err := prepare(in)
	if err != nil {
		return nil, err
	}
	p := in.Params
	workW, workH := working.Width, working.Height

	// Threshold estimation.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	threshold, err := estimate(working, p)
	if err != nil {
		return nil, err
	}

	// Binarization.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mask := Binarize(working, threshold)

	// Region size filter.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kw, kh, err := KernelSize(p.KernelSize)
	if err != nil {
		return nil, err
	}
	se, err := NewEllipse(kw, kh)
	if err != nil {
		return nil, err
	}
	minRegion := se.Count()
	if p.MinRegionSizeOverride > 0 {
		minRegion = p.MinRegionSizeOverride
	}
	removed := FilterSmallRegions(mask, minRegion)

	// Morphological refinement.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refined, err := Refine(mask, p.MorphOp, se)
	if err != nil {
		return nil, err
	}

	// Border handling.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bordered, offset, err := HandleBorder(refined, p.BorderMode, p.padMargin(), On)
	if err != nil {
		return nil, err
	}

	// Polygon extraction.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	extracted := ExtractPolygons(bordered, On, offset)

	// Rescale and area filter.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rescale := NewRescale(srcW, workW, srcH)
	minArea := MinArea(p.AreaPercentThreshold, srcW, srcH)
	shapes, discarded := FilterByArea(extracted, rescale, minArea)

	return &Result{
		Shapes:         shapes,
		Discarded:      discarded,
		Threshold:      threshold,
		MinRegionSize:  minRegion,
		RegionsRemoved: removed,
		WorkingWidth:   workW,
		WorkingHeight:  workH,
		Zoom:           rescale[0],
		MinArea:        minArea,
	}, nil
}

// Threshold returns the threshold Run would binarize in with, without
// running the remaining stages.
func Threshold(in Input) (float64, error) {
	working, _, _, err := prepare(in)
	if err != nil {
		return 0, err
	}
	return estimate(working, in.Params)
}

// prepare validates in and returns the working raster together with the
// effective source dimensions.
func prepare(in Input) (*Raster, int, int, error) {
	if err := in.Raster.Validate(); err != nil {
		return nil, 0, 0, err
	}
	if err := in.Params.Validate(); err != nil {
		return nil, 0, 0, err
	}

	srcW, srcH := in.SourceWidth, in.SourceHeight
	if srcW == 0 && srcH == 0 {
		srcW, srcH = in.Raster.Width, in.Raster.Height
	}
	if srcW <= 0 || srcH <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: source dimensions %dx%d must be positive", ErrInvalidConfiguration, srcW, srcH)
	}

	// A raster already below the working size is a preview; it is processed
	// as is and never upsampled.
	workW, workH, _ := WorkingSize(srcW, srcH, in.Params.WorkingMaxDimension)
	workW = min(workW, in.Raster.Width)
	workH = min(workH, in.Raster.Height)
	return in.Raster.Resize(workW, workH), srcW, srcH, nil
}

func estimate(working *Raster, p Params) (float64, error) {
	sample := working
	if p.ThresholdSampleMaxDimension > 0 {
		sw, sh, _ := WorkingSize(working.Width, working.Height, p.ThresholdSampleMaxDimension)
		if sw != working.Width || sh != working.Height {
			sample = working.Resize(sw, sh)
		}
	}
	threshold, err := EstimateThreshold(sample, p.ThresholdOffset)
	if err != nil {
		return 0, fmt.Errorf("failed to estimate threshold: %w", err)
	}
	return threshold, nil
}

// FilterByArea transforms each extracted polygon with t and keeps those whose
// transformed area is strictly greater than minArea, preserving order. It
// also returns the number of polygons dropped.
func FilterByArea(extracted []Extracted, t Affine, minArea float64) ([]Shape, int) {
	shapes := make([]Shape, 0, len(extracted))
	discarded := 0
	for _, e := range extracted {
		poly := t.ApplyPolygon(e.Polygon)
		area := poly.Area()
		if area <= minArea {
			discarded++
			continue
		}
		shapes = append(shapes, Shape{Polygon: poly, Area: area})
	}
	return shapes, discarded
}
