package config

import "flag"

// Flags are the overrides shared by every landon subcommand. Zero values
// leave the file setting alone.
type Flags struct {
	Config          string
	Debug           bool
	Workers         int
	Format          string
	OutputDir       string
	GroupsPerVertex int
	NoYUp           bool
	Blender         string
}

// Register adds the shared flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Workers, "workers", 0, "Meshes processed in parallel")
	fs.StringVar(&f.Format, "format", "", "Output format: json or glb")
	fs.StringVar(&f.OutputDir, "out", "", "Output directory")
	fs.IntVar(&f.GroupsPerVertex, "groups", -1, "Bone groups per vertex (0 keeps exported groups)")
	fs.BoolVar(&f.NoYUp, "no-y-up", false, "Keep Blender's Z-up coordinates")
	fs.StringVar(&f.Blender, "blender", "", "Blender executable")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Workers > 0 {
		cfg.Pipeline.Workers = f.Workers
	}
	if f.Format != "" {
		cfg.Export.Format = f.Format
	}
	if f.OutputDir != "" {
		cfg.Export.OutputDir = f.OutputDir
	}
	if f.GroupsPerVertex >= 0 && f.GroupsPerVertex <= 255 {
		cfg.Pipeline.GroupsPerVertex = uint8(f.GroupsPerVertex)
	}
	if f.NoYUp {
		cfg.Pipeline.YUp = false
	}
	if f.Blender != "" {
		cfg.Blender.Executable = f.Blender
	}
}
