// Package annotation persists segmentation polygons as annotation records.
//
// A record ties one polygon, encoded as well-known text, to the image it was
// found on, the project the image belongs to and the terms predicted for it.
// Sinks store records; SaveAll pushes a batch through a sink and keeps going
// when individual records fail.
package annotation

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

// Annotation is one persisted polygon.
type Annotation struct {
	ImageID   string  `json:"image_id"`
	ProjectID string  `json:"project_id,omitempty"`
	TermIDs   []int64 `json:"term_ids,omitempty"`

	// Location is the polygon in well-known text, in source-image
	// coordinates with a bottom-left origin.
	Location string `json:"location"`

	Area float64 `json:"area"`
}

// Sink stores annotations.
type Sink interface {
	Save(ctx context.Context, a Annotation) error
}

// FromShapes builds one annotation per shape, in order.
func FromShapes(imageID, projectID string, termIDs []int64, shapes []segment.Shape) []Annotation {
	out := make([]Annotation, len(shapes))
	for i, s := range shapes {
		out[i] = Annotation{
			ImageID:   imageID,
			ProjectID: projectID,
			TermIDs:   termIDs,
			Location:  s.Polygon.WKT(),
			Area:      s.Area,
		}
	}
	return out
}

// SaveAll saves every annotation through sink and returns how many were
// stored. A failed save is logged and skipped; it never aborts the batch.
// Only a cancelled context stops SaveAll early, and its error is returned.
func SaveAll(ctx context.Context, sink Sink, annotations []Annotation, log zerolog.Logger) (int, error) {
	saved := 0
	for i, a := range annotations {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := sink.Save(ctx, a); err != nil {
			log.Warn().Err(err).
				Str("image_id", a.ImageID).
				Int("index", i).
				Msg("failed to save annotation")
			continue
		}
		saved++
	}
	return saved, nil
}

// JSONLinesSink appends annotations to a file, one JSON object per line.
// It is safe for concurrent use.
type JSONLinesSink struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// OpenJSONLines opens path for appending, creating it and its parent
// directory if needed.
func OpenJSONLines(path string) (*JSONLinesSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	return &JSONLinesSink{f: f, w: bufio.NewWriter(f)}, nil
}

// Save writes one line. The line is flushed before Save returns.
func (s *JSONLinesSink) Save(ctx context.Context, a Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode annotation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return fmt.Errorf("annotation file is closed")
	}
	data = append(data, '\n')
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("failed to write annotation: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to write annotation: %w", err)
	}
	return nil
}

// Close flushes and closes the file. Saving after Close fails.
func (s *JSONLinesSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	err := s.w.Flush()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	s.w = nil
	return err
}

// MemorySink keeps annotations in memory.
type MemorySink struct {
	mu          sync.Mutex
	annotations []Annotation
}

// Save appends a to the sink.
func (s *MemorySink) Save(ctx context.Context, a Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.annotations = append(s.annotations, a)
	s.mu.Unlock()
	return nil
}

// Annotations returns a copy of everything saved so far.
func (s *MemorySink) Annotations() []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}
