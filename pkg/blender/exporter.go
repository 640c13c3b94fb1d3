package blender

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Operators registered by the export scripts.
const (
	MeshOperator     = "import_export.mesh2json"
	ArmatureOperator = "import_export.armature2json"
)

// Exporter runs Blender headless to export a blend file.
type Exporter struct {
	// Executable is the Blender binary, looked up in PATH if not absolute.
	Executable string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// Run opens blendFile in Blender, loads script and invokes operator,
// returning what Blender printed to stdout. Any stderr output is treated as
// a failed export.
func (e *Exporter) Run(ctx context.Context, blendFile, script, operator string) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := []string{
		blendFile,
		"--background",
		"--python", script,
		"--python-expr", "import bpy; bpy.ops." + operator + "()",
	}
	cmd := exec.CommandContext(ctx, e.Executable, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s on %s: %w", e.Executable, blendFile, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%w: %s", ErrBlenderStderr, msg)
	}
	return stdout.String(), nil
}

// Meshes exports and parses every mesh in blendFile.
func (e *Exporter) Meshes(ctx context.Context, blendFile, script string) (FilenamesToMeshes, error) {
	stdout, err := e.Run(ctx, blendFile, script, MeshOperator)
	if err != nil {
		return nil, err
	}
	return ParseMeshes(stdout)
}

// Armatures exports and parses every armature in blendFile.
func (e *Exporter) Armatures(ctx context.Context, blendFile, script string) (FilenamesToArmatures, error) {
	stdout, err := e.Run(ctx, blendFile, script, ArmatureOperator)
	if err != nil {
		return nil, err
	}
	return ParseArmatures(stdout)
}
