package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

func TestNew(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if err := s.defaults.Validate(); err != nil {
		t.Errorf("New() defaults are invalid: %v", err)
	}
}

func TestNewWithConfig(t *testing.T) {
	defaults := segment.Params{
		WorkingMaxDimension: 512,
		KernelSize:          []float64{3},
		MorphOp:             segment.MorphOpen,
	}
	s := NewWithConfig(defaults, zerolog.Nop())
	if s.defaults.WorkingMaxDimension != 512 || s.defaults.MorphOp != segment.MorphOpen {
		t.Errorf("defaults not kept: got %+v", s.defaults)
	}
}

func TestServe(t *testing.T) {
	s := New()
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d responses, want 2: %q", len(lines), out.String())
	}
	var resp MCPResponse
	if err := json.Unmarshal([]byte(lines[1]), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.ID != float64(2) || resp.Error != nil {
		t.Errorf("ping response: got %+v", resp)
	}
}

func TestServe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New().Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`), &out)
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %q after cancellation", out.String())
	}
}

func TestHandleRequest(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		id       interface{}
		wantNil  bool
		wantCode int
	}{
		{"initialize", "initialize", 1, false, 0},
		{"ping keeps string ids", "ping", "ping-1", false, 0},
		{"tools/list", "tools/list", 2, false, 0},
		{"initialized notification", "notifications/initialized", nil, true, 0},
		{"unknown method", "resources/list", 3, false, -32601},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := New().handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: tt.id, Method: tt.method})
			if tt.wantNil {
				if resp != nil {
					t.Errorf("expected no response, got %+v", resp)
				}
				return
			}
			if resp == nil {
				t.Fatal("handleRequest returned nil")
			}
			if resp.JSONRPC != "2.0" || resp.ID != tt.id {
				t.Errorf("envelope: got %q/%v, want 2.0/%v", resp.JSONRPC, resp.ID, tt.id)
			}
			switch {
			case tt.wantCode == 0 && resp.Error != nil:
				t.Errorf("unexpected error: %+v", resp.Error)
			case tt.wantCode != 0 && (resp.Error == nil || resp.Error.Code != tt.wantCode):
				t.Errorf("error: got %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestHandleInitialize_Handshake(t *testing.T) {
	resp := New().handleInitialize(&MCPRequest{JSONRPC: "2.0", ID: "init-1"})

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	caps, _ := result["capabilities"].(map[string]interface{})
	if _, ok := caps["tools"]; !ok {
		t.Errorf("capabilities should advertise tools: got %v", result["capabilities"])
	}
	info, _ := result["serverInfo"].(map[string]interface{})
	if info["name"] != "image-segment-mcp" || info["version"] != Version {
		t.Errorf("serverInfo: got %v", info)
	}
}

func TestServe_ToolsListOverStream(t *testing.T) {
	var out bytes.Buffer
	in := `{"jsonrpc":"2.0","id":"list","method":"tools/list"}` + "\n"
	if err := New().Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var resp struct {
		ID     string `json:"id"`
		Result struct {
			Tools []Tool `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.ID != "list" {
		t.Errorf("id: got %q, want list", resp.ID)
	}
	if len(resp.Result.Tools) != len(GetToolDefinitions()) {
		t.Errorf("tools: got %d, want %d", len(resp.Result.Tools), len(GetToolDefinitions()))
	}
}
