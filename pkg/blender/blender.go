// Package blender reads the mesh and armature data Blender's export scripts
// print to stdout.
//
// Each export is wrapped in start and end lines so it can be told apart from
// Blender's own output:
//
//	START_MESH_JSON /path/to/file.blend my_mesh_name
//	{...}
//	END_MESH_JSON /path/to/file.blend my_mesh_name
package blender

import (
	"errors"
	"fmt"
	"strings"
)

// Block markers written by the export scripts.
const (
	MeshStart     = "START_MESH_JSON"
	MeshEnd       = "END_MESH_JSON"
	ArmatureStart = "START_ARMATURE_JSON"
	ArmatureEnd   = "END_ARMATURE_JSON"
)

// Parse errors.
var (
	ErrUnterminatedBlock = errors.New("export block has no end marker")
	ErrBadHeader         = errors.New("malformed export block header")
	ErrBadMesh           = errors.New("invalid mesh data")
	ErrBadBone           = errors.New("invalid bone data")
	ErrBlenderStderr     = errors.New("blender wrote to stderr")
)

// block is one framed export found in Blender's stdout.
type block struct {
	Filename string
	Name     string
	JSON     string
}

// scanBlocks finds every block framed by start and end markers.
func scanBlocks(stdout, start, end string) ([]block, error) {
	var blocks []block

	rest := stdout
	for {
		startIdx := strings.Index(rest, start+" ")
		if startIdx < 0 {
			return blocks, nil
		}
		rest = rest[startIdx+len(start)+1:]

		headerEnd := strings.IndexByte(rest, '\n')
		if headerEnd < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnterminatedBlock, start)
		}
		header := strings.TrimRight(rest[:headerEnd], "\r")
		rest = rest[headerEnd+1:]

		endIdx := strings.Index(rest, end)
		if endIdx < 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrUnterminatedBlock, start, header)
		}
		body := rest[:endIdx]
		rest = rest[endIdx+len(end):]

		// The blend file path may hold spaces; the object name is the last
		// word.
		sep := strings.LastIndexByte(header, ' ')
		if sep <= 0 || sep == len(header)-1 {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, header)
		}

		blocks = append(blocks, block{
			Filename: header[:sep],
			Name:     header[sep+1:],
			JSON:     strings.TrimSpace(body),
		})
	}
}
