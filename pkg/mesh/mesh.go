// Package mesh prepares Blender mesh exports for single-index GPU pipelines.
package mesh

import (
	"errors"
	"fmt"
)

// Mesh errors.
var (
	ErrAttributeStride      = errors.New("attribute length is not a multiple of its size")
	ErrUnsupportedFaceArity = errors.New("unsupported face arity")
	ErrIndexStreamLength    = errors.New("index stream length mismatch")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrMissingGroups        = errors.New("mesh has no vertex group data")
	ErrGroupLength          = errors.New("vertex group length mismatch")
	ErrTooManyVertices      = errors.New("too many unique vertices for 16-bit indices")
)

// FaceArity is the number of vertices in a face.
type FaceArity uint8

const (
	Triangle FaceArity = 3
	Quad     FaceArity = 4
)

// Valid reports whether the arity is one the triangulator understands.
func (a FaceArity) Valid() bool {
	return a == Triangle || a == Quad
}

// String returns a human-readable arity name.
func (a FaceArity) String() string {
	switch a {
	case Triangle:
		return "Triangle"
	case Quad:
		return "Quad"
	default:
		return fmt.Sprintf("Unsupported(%d)", uint8(a))
	}
}

// BoundingBox is the axis-aligned box Blender reports for the mesh.
type BoundingBox struct {
	LowerLeftFront [3]float32
	UpperRightBack [3]float32
}

// BoneGroups holds per-vertex bone influences.
//
// The flat Indices/Weights pairs are segmented per position (not per face
// corner) by CountsPerVertex.
type BoneGroups struct {
	Indices         []uint8
	Weights         []float32
	CountsPerVertex []uint8
}

// Len returns the number of vertices the groups describe.
func (g *BoneGroups) Len() int {
	return len(g.CountsPerVertex)
}

// Uniform returns the per-vertex count when every vertex has the same number
// of influences.
func (g *BoneGroups) Uniform() (uint8, bool) {
	if len(g.CountsPerVertex) == 0 {
		return 0, false
	}
	first := g.CountsPerVertex[0]
	for _, c := range g.CountsPerVertex[1:] {
		if c != first {
			return 0, false
		}
	}
	return first, true
}

// Vertex returns the influence slices of one vertex.
func (g *BoneGroups) Vertex(offsets []int, vertex int) ([]uint8, []float32) {
	start, end := offsets[vertex], offsets[vertex+1]
	return g.Indices[start:end], g.Weights[start:end]
}

// Offsets returns prefix sums of CountsPerVertex. Vertex v owns the pairs in
// [offsets[v], offsets[v+1]).
func (g *BoneGroups) Offsets() []int {
	offsets := make([]int, len(g.CountsPerVertex)+1)
	for i, c := range g.CountsPerVertex {
		offsets[i+1] = offsets[i] + int(c)
	}
	return offsets
}

func (g *BoneGroups) validate() error {
	total := 0
	for _, c := range g.CountsPerVertex {
		total += int(c)
	}
	if len(g.Indices) != total || len(g.Weights) != total {
		return fmt.Errorf("%w: counts sum to %d, have %d indices and %d weights",
			ErrGroupLength, total, len(g.Indices), len(g.Weights))
	}
	return nil
}

func (g *BoneGroups) clone() *BoneGroups {
	if g == nil {
		return nil
	}
	return &BoneGroups{
		Indices:         append([]uint8(nil), g.Indices...),
		Weights:         append([]float32(nil), g.Weights...),
		CountsPerVertex: append([]uint8(nil), g.CountsPerVertex...),
	}
}

// Mesh is one exported Blender mesh.
//
// Positions, normals and uvs are dense arrays addressed only through their own
// index stream. A nil NormalIndices or UVIndices means the attribute is
// aligned with Positions and addressed by PositionIndices.
type Mesh struct {
	Positions       Attribute[float32]
	PositionIndices []uint16
	FaceArities     []FaceArity

	Normals       Attribute[float32]
	NormalIndices []uint16

	UVs       Attribute[float32]
	UVIndices []uint16

	Groups *BoneGroups

	TextureName  string
	ArmatureName string
	BoundingBox  BoundingBox
}

// HasNormals reports whether the mesh carries normals.
func (m *Mesh) HasNormals() bool {
	return m.Normals.Len() > 0
}

// HasNormalIndices reports whether normals use their own index stream.
func (m *Mesh) HasNormalIndices() bool {
	return m.NormalIndices != nil
}

// HasUVs reports whether the mesh carries texture coordinates.
func (m *Mesh) HasUVs() bool {
	return m.UVs.Len() > 0
}

// HasUVIndices reports whether uvs use their own index stream.
func (m *Mesh) HasUVIndices() bool {
	return m.UVIndices != nil
}

// HasGroups reports whether the mesh carries bone influences.
func (m *Mesh) HasGroups() bool {
	return m.Groups != nil
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Positions = m.Positions.clone()
	c.Normals = m.Normals.clone()
	c.UVs = m.UVs.clone()
	c.PositionIndices = cloneIndices(m.PositionIndices)
	c.NormalIndices = cloneIndices(m.NormalIndices)
	c.UVIndices = cloneIndices(m.UVIndices)
	c.FaceArities = append([]FaceArity(nil), m.FaceArities...)
	c.Groups = m.Groups.clone()
	return &c
}

// Validate checks that every index stream, arity list and group array is
// consistent with the data it addresses.
func (m *Mesh) Validate() error {
	if m.Positions.Size() != 0 && m.Positions.Size() != 3 {
		return fmt.Errorf("%w: positions have size %d", ErrAttributeStride, m.Positions.Size())
	}

	total := 0
	for _, a := range m.FaceArities {
		total += int(a)
	}
	if total != len(m.PositionIndices) {
		return fmt.Errorf("%w: face arities sum to %d, have %d position indices",
			ErrIndexStreamLength, total, len(m.PositionIndices))
	}
	if err := checkRange("position", m.PositionIndices, m.Positions.Len()); err != nil {
		return err
	}

	if m.HasNormalIndices() {
		if len(m.NormalIndices) != len(m.PositionIndices) {
			return fmt.Errorf("%w: %d normal indices for %d position indices",
				ErrIndexStreamLength, len(m.NormalIndices), len(m.PositionIndices))
		}
		if err := checkRange("normal", m.NormalIndices, m.Normals.Len()); err != nil {
			return err
		}
	} else if m.HasNormals() {
		if err := checkRange("normal", m.PositionIndices, m.Normals.Len()); err != nil {
			return err
		}
	}

	if m.HasUVIndices() {
		if len(m.UVIndices) != len(m.PositionIndices) {
			return fmt.Errorf("%w: %d uv indices for %d position indices",
				ErrIndexStreamLength, len(m.UVIndices), len(m.PositionIndices))
		}
		if err := checkRange("uv", m.UVIndices, m.UVs.Len()); err != nil {
			return err
		}
	} else if m.HasUVs() {
		if err := checkRange("uv", m.PositionIndices, m.UVs.Len()); err != nil {
			return err
		}
	}

	if m.HasGroups() {
		if m.Groups.Len() != m.Positions.Len() {
			return fmt.Errorf("%w: %d group counts for %d positions",
				ErrGroupLength, m.Groups.Len(), m.Positions.Len())
		}
		if err := m.Groups.validate(); err != nil {
			return err
		}
	}

	return nil
}

func checkRange(stream string, indices []uint16, limit int) error {
	for i, idx := range indices {
		if int(idx) >= limit {
			return fmt.Errorf("%w: %s index %d at occurrence %d, have %d entries",
				ErrIndexOutOfRange, stream, idx, i, limit)
		}
	}
	return nil
}

func cloneIndices(indices []uint16) []uint16 {
	if indices == nil {
		return nil
	}
	return append([]uint16{}, indices...)
}
