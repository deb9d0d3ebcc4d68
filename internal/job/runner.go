// Package job runs segmentation over a list of images and persists the
// resulting polygons as annotations.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-segment-mcp/internal/annotation"
	"github.com/ironsheep/image-segment-mcp/internal/imaging"
	"github.com/ironsheep/image-segment-mcp/internal/logging"
	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

// Source provides images by id.
type Source interface {
	Fetch(ctx context.Context, id string) (*imaging.SourceImage, error)
}

// Runner processes images strictly one after another, in the order given.
type Runner struct {
	Source Source
	Sink   annotation.Sink
	Params segment.Params

	// ProjectID and TermIDs are attached to every annotation.
	ProjectID string
	TermIDs   []int64

	// AfterImage, when set, is called with every successful result before
	// its annotations are saved. An error is logged and does not fail the
	// image.
	AfterImage func(ctx context.Context, img *imaging.SourceImage, res *segment.Result) error

	Log zerolog.Logger
}

// ImageReport is the outcome for one image.
type ImageReport struct {
	ImageID   string        `json:"image_id"`
	Polygons  int           `json:"polygons"`
	Discarded int           `json:"discarded"`
	Saved     int           `json:"saved"`
	Threshold float64       `json:"threshold"`
	Elapsed   time.Duration `json:"elapsed"`
	Err       error         `json:"-"`
}

// Summary totals a run.
type Summary struct {
	Images    int            `json:"images"`
	Failed    int            `json:"failed"`
	Polygons  int            `json:"polygons"`
	Discarded int            `json:"discarded"`
	Saved     int            `json:"saved"`
	Reports   []*ImageReport `json:"reports"`
}

// Run processes every id. A failing image is logged with its id and
// recorded in its report; the remaining images still run. Run returns an
// error only for invalid parameters or a cancelled context.
func (r *Runner) Run(ctx context.Context, ids []string) (*Summary, error) {
	if r.Source == nil || r.Sink == nil {
		return nil, fmt.Errorf("%w: runner needs a source and a sink", segment.ErrInvalidConfiguration)
	}
	if err := r.Params.Validate(); err != nil {
		return nil, err
	}

	log := logging.Component(r.Log, "job")
	sum := &Summary{Reports: make([]*ImageReport, 0, len(ids))}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		log.Info().
			Str("image_id", id).
			Int("index", i+1).
			Int("total", len(ids)).
			Msg("running detection on image")

		rep := r.process(ctx, id, log)
		sum.Reports = append(sum.Reports, rep)
		sum.Images++

		if rep.Err != nil {
			if errors.Is(rep.Err, context.Canceled) || errors.Is(rep.Err, context.DeadlineExceeded) {
				return sum, rep.Err
			}
			sum.Failed++
			log.Error().Err(rep.Err).Str("image_id", id).Msg("image failed")
			continue
		}

		sum.Polygons += rep.Polygons
		sum.Discarded += rep.Discarded
		sum.Saved += rep.Saved
		log.Info().
			Str("image_id", id).
			Int("polygons", rep.Polygons).
			Int("discarded", rep.Discarded).
			Int("saved", rep.Saved).
			Dur("elapsed", rep.Elapsed).
			Msg("image done")
	}

	log.Info().
		Int("images", sum.Images).
		Int("failed", sum.Failed).
		Int("saved", sum.Saved).
		Msg("finished")
	return sum, nil
}

func (r *Runner) process(ctx context.Context, id string, log zerolog.Logger) *ImageReport {
	start := time.Now()
	rep := &ImageReport{ImageID: id}

	img, err := r.Source.Fetch(ctx, id)
	if err != nil {
		rep.Err = fmt.Errorf("failed to fetch image: %w", err)
		return rep
	}

	res, err := segment.Run(ctx, segment.Input{
		Raster:       img.Raster,
		SourceWidth:  img.Width,
		SourceHeight: img.Height,
		Params:       r.Params,
	})
	if err != nil {
		rep.Err = fmt.Errorf("failed to segment image: %w", err)
		return rep
	}
	rep.Polygons = len(res.Shapes)
	rep.Discarded = res.Discarded
	rep.Threshold = res.Threshold

	if r.AfterImage != nil {
		if err := r.AfterImage(ctx, img, res); err != nil {
			log.Warn().Err(err).Str("image_id", id).Msg("post-processing hook failed")
		}
	}

	anns := annotation.FromShapes(img.ID, r.ProjectID, r.TermIDs, res.Shapes)
	saved, err := annotation.SaveAll(ctx, r.Sink, anns, log.With().Str("image_id", id).Logger())
	rep.Saved = saved
	if err != nil {
		rep.Err = err
	}
	rep.Elapsed = time.Since(start)
	return rep
}
