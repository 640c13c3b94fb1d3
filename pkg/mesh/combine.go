package mesh

import (
	"fmt"
	"math"
)

// vertexKey identifies one unique corner. Streams the mesh doesn't have stay
// zero for every key, so they never split two corners apart.
type vertexKey struct {
	position uint16
	normal   uint16
	uv       uint16
}

// Combine collapses the per-attribute index streams of m into a single index
// stream addressing densified positions, normals, uvs and bone groups.
//
// Unique (position, normal, uv) index tuples get new indices in the order
// they are first seen, starting at 0, so the output is reproducible for the
// same input. Bone groups follow the original position index of each new
// vertex. m is not modified.
func Combine(m *Mesh) (*Mesh, error) {
	n := len(m.PositionIndices)
	if m.HasNormalIndices() && len(m.NormalIndices) != n {
		return nil, fmt.Errorf("%w: %d normal indices for %d position indices",
			ErrIndexStreamLength, len(m.NormalIndices), n)
	}
	if m.HasUVIndices() && len(m.UVIndices) != n {
		return nil, fmt.Errorf("%w: %d uv indices for %d position indices",
			ErrIndexStreamLength, len(m.UVIndices), n)
	}

	hasNormals, hasUVs, hasGroups := m.HasNormals(), m.HasUVs(), m.HasGroups()

	var offsets []int
	if hasGroups {
		if err := m.Groups.validate(); err != nil {
			return nil, err
		}
		offsets = m.Groups.Offsets()
	}

	out := &Mesh{
		PositionIndices: make([]uint16, n),
		FaceArities:     append([]FaceArity(nil), m.FaceArities...),
		TextureName:     m.TextureName,
		ArmatureName:    m.ArmatureName,
		BoundingBox:     m.BoundingBox,
	}
	out.Positions = Attribute[float32]{data: make([]float32, 0, n*3), size: 3}
	if hasNormals {
		out.Normals = Attribute[float32]{data: make([]float32, 0, n*3), size: 3}
	}
	if hasUVs {
		out.UVs = Attribute[float32]{data: make([]float32, 0, n*2), size: 2}
	}
	if hasGroups {
		out.Groups = &BoneGroups{}
	}

	// Go maps don't keep insertion order; the counter does. Dense arrays are
	// appended at assignment time and never rebuilt from the map.
	seen := make(map[vertexKey]uint16, n)
	next := 0

	for i, pos := range m.PositionIndices {
		key := vertexKey{position: pos}
		normalIdx, uvIdx := pos, pos
		if m.HasNormalIndices() {
			normalIdx = m.NormalIndices[i]
			key.normal = normalIdx
		}
		if m.HasUVIndices() {
			uvIdx = m.UVIndices[i]
			key.uv = uvIdx
		}

		if unified, ok := seen[key]; ok {
			out.PositionIndices[i] = unified
			continue
		}

		if next > math.MaxUint16 {
			return nil, fmt.Errorf("%w: occurrence %d", ErrTooManyVertices, i)
		}
		if int(pos) >= m.Positions.Len() {
			return nil, fmt.Errorf("%w: position index %d at occurrence %d, have %d positions",
				ErrIndexOutOfRange, pos, i, m.Positions.Len())
		}
		if err := out.Positions.Append(m.Positions.At(int(pos))...); err != nil {
			return nil, err
		}

		if hasNormals {
			if int(normalIdx) >= m.Normals.Len() {
				return nil, fmt.Errorf("%w: normal index %d at occurrence %d, have %d normals",
					ErrIndexOutOfRange, normalIdx, i, m.Normals.Len())
			}
			if err := out.Normals.Append(m.Normals.At(int(normalIdx))...); err != nil {
				return nil, err
			}
		}
		if hasUVs {
			if int(uvIdx) >= m.UVs.Len() {
				return nil, fmt.Errorf("%w: uv index %d at occurrence %d, have %d uvs",
					ErrIndexOutOfRange, uvIdx, i, m.UVs.Len())
			}
			if err := out.UVs.Append(m.UVs.At(int(uvIdx))...); err != nil {
				return nil, err
			}
		}
		if hasGroups {
			if int(pos) >= m.Groups.Len() {
				return nil, fmt.Errorf("%w: position index %d at occurrence %d, have groups for %d vertices",
					ErrGroupLength, pos, i, m.Groups.Len())
			}
			indices, weights := m.Groups.Vertex(offsets, int(pos))
			out.Groups.Indices = append(out.Groups.Indices, indices...)
			out.Groups.Weights = append(out.Groups.Weights, weights...)
			out.Groups.CountsPerVertex = append(out.Groups.CountsPerVertex, m.Groups.CountsPerVertex[pos])
		}

		unified := uint16(next)
		seen[key] = unified
		out.PositionIndices[i] = unified
		next++
	}

	return out, nil
}

// CombineIndices replaces the mesh's separate position, normal and uv index
// streams with one unified index stream. See Combine.
//
// Run it after Triangulate and SetGroupsPerVertex. On error the mesh is left
// unchanged.
func (m *Mesh) CombineIndices() error {
	combined, err := Combine(m)
	if err != nil {
		return fmt.Errorf("combining indices: %w", err)
	}
	*m = *combined
	return nil
}
