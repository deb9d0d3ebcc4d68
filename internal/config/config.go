// Package config loads the YAML configuration for batch segmentation runs.
// Missing files fall back to defaults so a bare invocation still works.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-segment-mcp/internal/logging"
	"github.com/ironsheep/image-segment-mcp/internal/segment"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Segmentation holds every pipeline parameter.
	Segmentation segment.Params `yaml:"segmentation"`

	// Job describes which images a batch run processes and where results go.
	Job struct {
		// ProjectID and TermIDs are copied onto every annotation.
		ProjectID string  `yaml:"projectId"`
		TermIDs   []int64 `yaml:"termIds"`

		// Images lists image files to process, in order.
		Images []string `yaml:"images"`

		// ImageDir is scanned for images when Images is empty.
		ImageDir string `yaml:"imageDir"`

		// PreviewMaxDimension, when positive, downscales each image while
		// loading instead of after.
		PreviewMaxDimension int `yaml:"previewMaxDimension"`

		// Output is the JSON lines file annotations are appended to.
		Output string `yaml:"output"`

		// OverlayDir, when set, receives one PNG per image with the kept
		// polygons outlined.
		OverlayDir string `yaml:"overlayDir"`
	} `yaml:"job"`

	// Server configures MCP server mode.
	Server struct {
		// OutputDir confines the image_segment "output" argument. Empty
		// disables writing annotations from MCP calls.
		OutputDir string `yaml:"outputDir"`
	} `yaml:"server"`

	Log struct {
		// Level is one of debug, info, warn or error.
		Level string `yaml:"level"`

		// Console renders human readable log lines instead of JSON.
		Console bool `yaml:"console"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Segmentation = segment.Params{
		WorkingMaxDimension:         2048,
		ThresholdSampleMaxDimension: 0,
		ThresholdOffset:             0,
		KernelSize:                  []float64{5},
		MorphOp:                     segment.MorphDilate,
		BorderMode:                  segment.BorderPad,
		PadMargin:                   segment.DefaultPadMargin,
		AreaPercentThreshold:        1,
	}

	cfg.Job.Output = "annotations.jsonl"

	cfg.Log.Level = "info"
	cfg.Log.Console = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks the segmentation parameters, the log level and that the
// job names at least one image source.
func (c *Config) Validate() error {
	if err := c.Segmentation.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if len(c.Job.Images) == 0 && c.Job.ImageDir == "" {
		return fmt.Errorf("job needs images or imageDir")
	}
	if c.Job.Output == "" {
		return fmt.Errorf("job output path is empty")
	}
	if c.Job.PreviewMaxDimension < 0 {
		return fmt.Errorf("preview max dimension %d must not be negative", c.Job.PreviewMaxDimension)
	}
	return nil
}
