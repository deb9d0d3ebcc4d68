package server

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

func toolByName(t *testing.T, name string) Tool {
	t.Helper()
	for _, tool := range GetToolDefinitions() {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not defined", name)
	return Tool{}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name         string
		segmentation bool
		extra        []string
		defaults     map[string]int
	}{
		{"image_load", false, nil, nil},
		{"image_dimensions", false, nil, nil},
		{"image_threshold", true, nil, map[string]int{"working_max_dimension": 2048}},
		{"image_segment", true, []string{"output", "image_id", "project_id", "term_ids"}, map[string]int{"working_max_dimension": 2048}},
		{"image_segment_overlay", true, []string{"thickness", "max_width"}, map[string]int{"thickness": 2, "max_width": 1024}},
	}

	if got := len(GetToolDefinitions()); got != len(tests) {
		t.Errorf("tool count: got %d, want %d", got, len(tests))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := toolByName(t, tt.name)
			if tool.Description == "" {
				t.Error("description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("schema type: got %v, want object", tool.InputSchema["type"])
			}
			required, _ := tool.InputSchema["required"].([]string)
			if len(required) != 1 || required[0] != "path" {
				t.Errorf("required: got %v, want [path]", required)
			}

			props := tool.InputSchema["properties"].(map[string]interface{})
			want := 1 + len(tt.extra)
			if tt.segmentation {
				want += len(segmentationProperties())
				if _, ok := props["kernel_size"]; !ok {
					t.Error("segmentation parameters missing")
				}
			}
			if len(props) != want {
				t.Errorf("properties: got %d, want %d", len(props), want)
			}
			for _, name := range tt.extra {
				if _, ok := props[name]; !ok {
					t.Errorf("property %s missing", name)
				}
			}
			for name, def := range tt.defaults {
				p, _ := props[name].(map[string]interface{})
				if p["default"] != def {
					t.Errorf("%s default: got %v, want %d", name, p["default"], def)
				}
			}
		})
	}
}

// Every advertised segmentation argument must decode into segment.Params.
func TestSegmentationProperties_MatchParams(t *testing.T) {
	p := segment.Params{
		WorkingMaxDimension:         1,
		ThresholdSampleMaxDimension: 1,
		ThresholdOffset:             1,
		KernelSize:                  []float64{1},
		MinRegionSizeOverride:       1,
		MorphOp:                     segment.MorphOpen,
		BorderMode:                  segment.BorderPad,
		PadMargin:                   1,
		AreaPercentThreshold:        1,
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("failed to unmarshal params: %v", err)
	}

	var got, want []string
	for k := range segmentationProperties() {
		got = append(got, k)
	}
	for k := range fields {
		want = append(want, k)
	}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("schema properties %v, params fields %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("property %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestToolDefinitions_SegmentationEnums(t *testing.T) {
	expected := map[string][]string{
		"morph_op":    {"dilate", "open"},
		"border_mode": {"pad", "zero_edge"},
	}

	for _, name := range []string{"image_threshold", "image_segment", "image_segment_overlay"} {
		t.Run(name, func(t *testing.T) {
			props := toolByName(t, name).InputSchema["properties"].(map[string]interface{})
			for param, want := range expected {
				p, ok := props[param].(map[string]interface{})
				if !ok {
					t.Fatalf("%s parameter missing", param)
				}
				got, ok := p["enum"].([]string)
				if !ok || len(got) != len(want) {
					t.Fatalf("%s enum: got %v, want %v", param, p["enum"], want)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("%s enum[%d]: got %s, want %s", param, i, got[i], want[i])
					}
				}
			}
		})
	}
}
