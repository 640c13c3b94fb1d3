package blender

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Fedoresko/landon/pkg/mesh"
)

// MeshNamesToData maps mesh names to meshes from one blend file.
type MeshNamesToData map[string]*mesh.Mesh

// FilenamesToMeshes maps blend file paths to their meshes.
type FilenamesToMeshes map[string]MeshNamesToData

// Count returns the total number of meshes.
func (f FilenamesToMeshes) Count() int {
	n := 0
	for _, meshes := range f {
		n += len(meshes)
	}
	return n
}

// meshJSON is the exporter's mesh layout. Byte-sized fields are read as
// uint16 so out of range values are caught instead of wrapped.
type meshJSON struct {
	VertexPositions        []float32        `json:"vertex_positions"`
	VertexPositionIndices  []uint16         `json:"vertex_position_indices"`
	NumVerticesInEachFace  []uint16         `json:"num_vertices_in_each_face"`
	VertexNormals          []float32        `json:"vertex_normals"`
	VertexNormalIndices    []uint16         `json:"vertex_normal_indices"`
	VertexUVs              []float32        `json:"vertex_uvs"`
	VertexUVIndices        []uint16         `json:"vertex_uv_indices"`
	TextureName            *string          `json:"texture_name"`
	ArmatureName           *string          `json:"armature_name"`
	VertexGroupIndices     []uint16         `json:"vertex_group_indices"`
	VertexGroupWeights     []float32        `json:"vertex_group_weights"`
	NumGroupsForEachVertex []uint16         `json:"num_groups_for_each_vertex"`
	BoundingBox            *boundingBoxJSON `json:"bounding_box,omitempty"`
}

type boundingBoxJSON struct {
	LowerLeftFront [3]float32 `json:"lower_left_front"`
	UpperRightBack [3]float32 `json:"upper_right_back"`
}

// ParseMeshes parses every mesh block in Blender's stdout.
func ParseMeshes(stdout string) (FilenamesToMeshes, error) {
	blocks, err := scanBlocks(stdout, MeshStart, MeshEnd)
	if err != nil {
		return nil, err
	}

	result := make(FilenamesToMeshes)
	for _, b := range blocks {
		m, err := DecodeMesh([]byte(b.JSON))
		if err != nil {
			return nil, fmt.Errorf("mesh %s in %s: %w", b.Name, b.Filename, err)
		}
		if result[b.Filename] == nil {
			result[b.Filename] = make(MeshNamesToData)
		}
		result[b.Filename][b.Name] = m
	}
	return result, nil
}

// DecodeMesh decodes one mesh in the exporter's JSON layout.
func DecodeMesh(data []byte) (*mesh.Mesh, error) {
	var w meshJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding mesh json: %w", err)
	}
	return w.toMesh()
}

func (w *meshJSON) toMesh() (*mesh.Mesh, error) {
	m := &mesh.Mesh{PositionIndices: w.VertexPositionIndices}

	var err error
	if m.Positions, err = mesh.NewAttribute(w.VertexPositions, 3); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if m.Normals, err = mesh.NewAttribute(w.VertexNormals, 3); err != nil {
		return nil, fmt.Errorf("normals: %w", err)
	}
	if m.UVs, err = mesh.NewAttribute(w.VertexUVs, 2); err != nil {
		return nil, fmt.Errorf("uvs: %w", err)
	}

	// The exporter writes an empty list rather than null for streams it
	// doesn't have.
	if len(w.VertexNormalIndices) > 0 {
		m.NormalIndices = w.VertexNormalIndices
	}
	if len(w.VertexUVIndices) > 0 {
		m.UVIndices = w.VertexUVIndices
	}

	m.FaceArities = make([]mesh.FaceArity, len(w.NumVerticesInEachFace))
	for i, n := range w.NumVerticesInEachFace {
		if n > math.MaxUint8 {
			return nil, fmt.Errorf("%w: face %d has %d vertices", ErrBadMesh, i, n)
		}
		m.FaceArities[i] = mesh.FaceArity(n)
	}

	if w.TextureName != nil {
		m.TextureName = *w.TextureName
	}
	if w.ArmatureName != nil {
		m.ArmatureName = *w.ArmatureName
	}
	if w.BoundingBox != nil {
		m.BoundingBox = mesh.BoundingBox{
			LowerLeftFront: w.BoundingBox.LowerLeftFront,
			UpperRightBack: w.BoundingBox.UpperRightBack,
		}
	}

	if w.NumGroupsForEachVertex != nil {
		groups := &mesh.BoneGroups{
			Indices:         make([]uint8, len(w.VertexGroupIndices)),
			Weights:         w.VertexGroupWeights,
			CountsPerVertex: make([]uint8, len(w.NumGroupsForEachVertex)),
		}
		for i, idx := range w.VertexGroupIndices {
			if idx > math.MaxUint8 {
				return nil, fmt.Errorf("%w: group index %d is %d", ErrBadMesh, i, idx)
			}
			groups.Indices[i] = uint8(idx)
		}
		for i, c := range w.NumGroupsForEachVertex {
			if c > math.MaxUint8 {
				return nil, fmt.Errorf("%w: vertex %d has %d groups", ErrBadMesh, i, c)
			}
			groups.CountsPerVertex[i] = uint8(c)
		}
		m.Groups = groups
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMesh, err)
	}
	return m, nil
}

// EncodeMesh writes a mesh in the exporter's JSON layout.
func EncodeMesh(m *mesh.Mesh) ([]byte, error) {
	w := meshJSON{
		VertexPositions:       orEmpty(m.Positions.Data()),
		VertexPositionIndices: orEmpty(m.PositionIndices),
		NumVerticesInEachFace: make([]uint16, len(m.FaceArities)),
		VertexNormals:         orEmpty(m.Normals.Data()),
		VertexNormalIndices:   m.NormalIndices,
		BoundingBox: &boundingBoxJSON{
			LowerLeftFront: m.BoundingBox.LowerLeftFront,
			UpperRightBack: m.BoundingBox.UpperRightBack,
		},
	}
	for i, a := range m.FaceArities {
		w.NumVerticesInEachFace[i] = uint16(a)
	}
	if m.HasUVs() {
		w.VertexUVs = m.UVs.Data()
		w.VertexUVIndices = m.UVIndices
	}
	if m.TextureName != "" {
		w.TextureName = &m.TextureName
	}
	if m.ArmatureName != "" {
		w.ArmatureName = &m.ArmatureName
	}
	if m.HasGroups() {
		w.VertexGroupIndices = widen(m.Groups.Indices)
		w.VertexGroupWeights = orEmpty(m.Groups.Weights)
		w.NumGroupsForEachVertex = widen(m.Groups.CountsPerVertex)
	}
	return json.Marshal(w)
}

func widen(values []uint8) []uint16 {
	out := make([]uint16, len(values))
	for i, v := range values {
		out[i] = uint16(v)
	}
	return out
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
