// Package config handles landon configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatGLB  = "glb"
)

// ErrInvalid reports a config value outside its allowed range.
var ErrInvalid = errors.New("invalid config")

// Config holds all landon settings.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Export   ExportConfig   `yaml:"export"`
	Blender  BlenderConfig  `yaml:"blender"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig selects the mesh transforms to run, in order.
type PipelineConfig struct {
	Triangulate     bool  `yaml:"triangulate"`
	YUp             bool  `yaml:"y_up"`
	GroupsPerVertex uint8 `yaml:"groups_per_vertex"` // 0 leaves groups as exported
	CombineIndices  bool  `yaml:"combine_indices"`
	Workers         int   `yaml:"workers"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Format    string `yaml:"format"`     // json or glb
	OutputDir string `yaml:"output_dir"` // empty writes json to stdout
}

// BlenderConfig holds settings for running Blender headless.
type BlenderConfig struct {
	Executable     string        `yaml:"executable"`
	MeshScript     string        `yaml:"mesh_script"`
	ArmatureScript string        `yaml:"armature_script"`
	Timeout        time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Triangulate:     true,
			YUp:             true,
			GroupsPerVertex: 4,
			CombineIndices:  true,
			Workers:         4,
		},
		Export: ExportConfig{
			Format: FormatJSON,
		},
		Blender: BlenderConfig{
			Executable:     "blender",
			MeshScript:     "blender-mesh-to-json.py",
			ArmatureScript: "blender-armature-to-json.py",
			Timeout:        2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("%w: pipeline.workers must be at least 1, got %d", ErrInvalid, c.Pipeline.Workers)
	}
	switch c.Export.Format {
	case FormatJSON, FormatGLB:
	default:
		return fmt.Errorf("%w: export.format must be %q or %q, got %q", ErrInvalid, FormatJSON, FormatGLB, c.Export.Format)
	}
	if c.Export.Format == FormatGLB && c.Export.OutputDir == "" {
		return fmt.Errorf("%w: export.output_dir is required for glb", ErrInvalid)
	}
	if c.Blender.Timeout < 0 {
		return fmt.Errorf("%w: blender.timeout is negative", ErrInvalid)
	}
	return nil
}
