package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/image-segment-mcp/internal/annotation"
	"github.com/ironsheep/image-segment-mcp/internal/imaging"
	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON over the configured defaults
//  2. Loads the image through the cache
//  3. Calls the imaging or segment function
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Segmentation
	case "image_threshold":
		return s.handleImageThreshold(ctx, args)
	case "image_segment":
		return s.handleImageSegment(ctx, args)
	case "image_segment_overlay":
		return s.handleImageSegmentOverlay(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Segmentation Handlers ===

// segmentArgs carries the path plus every pipeline parameter. The embedded
// Params is pre-filled with the server defaults so omitted fields keep them.
type segmentArgs struct {
	Path string `json:"path"`
	segment.Params
}

// decodeSegmentArgs unmarshals args into dst after seeding dst's Params with
// a copy of the defaults.
func (s *Server) decodeSegmentArgs(args json.RawMessage, dst interface{}, p *segment.Params) error {
	*p = s.defaults
	p.KernelSize = append([]float64(nil), s.defaults.KernelSize...)
	if err := json.Unmarshal(args, dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) runSegmentation(ctx context.Context, path string, p segment.Params) (*imaging.SourceImage, *segment.Result, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("path is required")
	}
	src := &imaging.FileSource{Cache: s.cache}
	img, err := src.Fetch(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	res, err := segment.Run(ctx, segment.Input{
		Raster:       img.Raster,
		SourceWidth:  img.Width,
		SourceHeight: img.Height,
		Params:       p,
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().
		Str("image_id", img.ID).
		Int("polygons", len(res.Shapes)).
		Int("discarded", res.Discarded).
		Float64("threshold", res.Threshold).
		Msg("segmented image")
	return img, res, nil
}

// ThresholdResult is returned by image_threshold.
type ThresholdResult struct {
	Threshold     float64 `json:"threshold"`
	BitDepth      int     `json:"bit_depth"`
	WorkingWidth  int     `json:"working_width"`
	WorkingHeight int     `json:"working_height"`
}

func (s *Server) handleImageThreshold(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentArgs
	if err := s.decodeSegmentArgs(args, &a, &a.Params); err != nil {
		return nil, err
	}
	src := &imaging.FileSource{Cache: s.cache}
	img, err := src.Fetch(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	t, err := segment.Threshold(segment.Input{
		Raster:       img.Raster,
		SourceWidth:  img.Width,
		SourceHeight: img.Height,
		Params:       a.Params,
	})
	if err != nil {
		return nil, err
	}
	w, h, _ := segment.WorkingSize(img.Width, img.Height, a.WorkingMaxDimension)
	w, h = min(w, img.Raster.Width), min(h, img.Raster.Height)
	return &ThresholdResult{
		Threshold:     t,
		BitDepth:      img.BitDepth,
		WorkingWidth:  w,
		WorkingHeight: h,
	}, nil
}

// PolygonResult is one polygon in an image_segment response.
type PolygonResult struct {
	WKT  string     `json:"wkt"`
	Area float64    `json:"area"`
	BBox [4]float64 `json:"bbox"` // min x, min y, max x, max y
}

// SegmentResult is returned by image_segment.
type SegmentResult struct {
	ImageID  string          `json:"image_id"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Polygons []PolygonResult `json:"polygons"`
	Stats    *segment.Result `json:"stats"`
	Saved    int             `json:"saved,omitempty"`
	Output   string          `json:"output,omitempty"`
}

type imageSegmentArgs struct {
	segmentArgs
	Output    string  `json:"output"`
	ImageID   string  `json:"image_id"`
	ProjectID string  `json:"project_id"`
	TermIDs   []int64 `json:"term_ids"`
}

func (s *Server) handleImageSegment(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSegmentArgs
	if err := s.decodeSegmentArgs(args, &a, &a.Params); err != nil {
		return nil, err
	}

	img, res, err := s.runSegmentation(ctx, a.Path, a.Params)
	if err != nil {
		return nil, err
	}

	out := &SegmentResult{
		ImageID:  img.ID,
		Width:    img.Width,
		Height:   img.Height,
		Polygons: make([]PolygonResult, len(res.Shapes)),
		Stats:    res,
	}
	if a.ImageID != "" {
		out.ImageID = a.ImageID
	}
	for i, sh := range res.Shapes {
		lo, hi := sh.Polygon.Bounds()
		out.Polygons[i] = PolygonResult{
			WKT:  sh.Polygon.WKT(),
			Area: sh.Area,
			BBox: [4]float64{lo.X, lo.Y, hi.X, hi.Y},
		}
	}

	if a.Output != "" {
		path, err := s.resolveOutput(a.Output)
		if err != nil {
			return nil, err
		}
		sink, err := annotation.OpenJSONLines(path)
		if err != nil {
			return nil, err
		}
		anns := annotation.FromShapes(out.ImageID, a.ProjectID, a.TermIDs, res.Shapes)
		saved, err := annotation.SaveAll(ctx, sink, anns, s.log)
		if cerr := sink.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close annotation file: %w", cerr)
		}
		if err != nil {
			return nil, err
		}
		out.Saved = saved
		out.Output = path
	}

	return out, nil
}

// resolveOutput maps an output argument to a file below the configured
// output directory. Relative names are joined to it; names that leave it are
// rejected.
func (s *Server) resolveOutput(name string) (string, error) {
	if s.outputDir == "" {
		return "", fmt.Errorf("annotation output is disabled: no output directory configured")
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.outputDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(s.outputDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output %q is outside the output directory", name)
	}
	return path, nil
}

type imageSegmentOverlayArgs struct {
	segmentArgs
	Thickness int `json:"thickness"`
	MaxWidth  int `json:"max_width"`
}

func (s *Server) handleImageSegmentOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a := imageSegmentOverlayArgs{Thickness: 2, MaxWidth: 1024}
	if err := s.decodeSegmentArgs(args, &a, &a.Params); err != nil {
		return nil, err
	}

	_, res, err := s.runSegmentation(ctx, a.Path, a.Params)
	if err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.RenderOverlay(src, res.Shapes, a.Thickness, a.MaxWidth)
}
