package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is shared by every tool that reads an image file.
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// segmentationProperties describes the optional pipeline parameters. Any
// parameter left out keeps the server's configured default.
func segmentationProperties() map[string]interface{} {
	return map[string]interface{}{
		"working_max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Longest side of the raster actually processed; larger images are downscaled first. Default 2048",
			"default":     2048,
		},
		"threshold_sample_max_dimension": map[string]interface{}{
			"type":        "integer",
			"description": "Estimate the Otsu threshold on a copy downscaled to this longest side. 0 uses the working raster",
		},
		"threshold_offset": map[string]interface{}{
			"type":        "number",
			"description": "Value added to the Otsu threshold. Pixels darker than the result are foreground",
		},
		"kernel_size": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "number"},
			"minItems":    1,
			"maxItems":    2,
			"description": "Elliptical structuring element size: [size] or [width, height]",
		},
		"min_region_size_override": map[string]interface{}{
			"type":        "integer",
			"description": "Remove foreground regions smaller than this many pixels instead of the kernel's cell count",
		},
		"morph_op": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"dilate", "open"},
			"description": "Morphological refinement applied after the region filter",
		},
		"border_mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"pad", "zero_edge"},
			"description": "pad closes objects cut by the image edge; zero_edge drops them",
		},
		"pad_margin": map[string]interface{}{
			"type":        "integer",
			"description": "Margin in pixels added around the mask in pad mode. Default 10",
		},
		"area_percent_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Polygons whose area is at most this percentage of the image area are discarded",
		},
	}
}

func withSegmentation(props map[string]interface{}) map[string]interface{} {
	for k, v := range segmentationProperties() {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and bit depth.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Segmentation
		{
			Name:        "image_threshold",
			Description: "Estimate the Otsu intensity threshold of an image at the working resolution, without segmenting it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withSegmentation(map[string]interface{}{
					"path": pathProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_segment",
			Description: "Segment dark objects from a light background and return one polygon per object as WKT in image coordinates with a bottom-left origin. Optionally appends the polygons as annotations to a JSON lines file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withSegmentation(map[string]interface{}{
					"path": pathProperty(),
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional JSON lines file the annotations are appended to, relative to the server's output directory",
					},
					"image_id": map[string]interface{}{
						"type":        "string",
						"description": "Image id stored on annotations. Default: the path",
					},
					"project_id": map[string]interface{}{
						"type":        "string",
						"description": "Project id stored on annotations",
					},
					"term_ids": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Predicted term ids stored on annotations",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_segment_overlay",
			Description: "Segment an image and return it as base64-encoded PNG with every kept polygon outlined in its own color. Use this to check segmentation parameters visually.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withSegmentation(map[string]interface{}{
					"path": pathProperty(),
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline width in pixels. Default 2",
						"default":     2,
					},
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale the returned image to at most this width. Default 1024, 0 keeps full size",
						"default":     1024,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
