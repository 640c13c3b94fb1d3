package mesh

import "fmt"

// Triangulate converts a face list of triangles and quads into triangles.
//
// Triangles are copied unchanged. A quad v0 v1 v2 v3 is split along its
// v0-v2 diagonal into (v0, v1, v2) and (v0, v2, v3).
func Triangulate(indices []uint16, arities []FaceArity) ([]uint16, []FaceArity, error) {
	triangulated, err := triangulateStream(indices, arities)
	if err != nil {
		return nil, nil, err
	}

	faces := make([]FaceArity, 0, len(triangulated)/3)
	for range len(triangulated) / 3 {
		faces = append(faces, Triangle)
	}
	return triangulated, faces, nil
}

// Triangulate rewrites the mesh faces into triangles.
//
// Separate normal and uv index streams follow the same face split so the
// record stays consistent. On error the mesh is left unchanged.
func (m *Mesh) Triangulate() error {
	positions, faces, err := Triangulate(m.PositionIndices, m.FaceArities)
	if err != nil {
		return fmt.Errorf("position indices: %w", err)
	}

	var normals, uvs []uint16
	if m.HasNormalIndices() {
		if normals, err = triangulateStream(m.NormalIndices, m.FaceArities); err != nil {
			return fmt.Errorf("normal indices: %w", err)
		}
	}
	if m.HasUVIndices() {
		if uvs, err = triangulateStream(m.UVIndices, m.FaceArities); err != nil {
			return fmt.Errorf("uv indices: %w", err)
		}
	}

	m.PositionIndices = positions
	m.FaceArities = faces
	if m.HasNormalIndices() {
		m.NormalIndices = normals
	}
	if m.HasUVIndices() {
		m.UVIndices = uvs
	}
	return nil
}

func triangulateStream(indices []uint16, arities []FaceArity) ([]uint16, error) {
	out := make([]uint16, 0, len(indices)*3/2)

	pointer := 0
	for face, arity := range arities {
		if !arity.Valid() {
			return nil, fmt.Errorf("%w: face %d has %d vertices", ErrUnsupportedFaceArity, face, arity)
		}
		if pointer+int(arity) > len(indices) {
			return nil, fmt.Errorf("%w: face %d needs indices up to %d, have %d",
				ErrIndexStreamLength, face, pointer+int(arity), len(indices))
		}

		v := indices[pointer : pointer+int(arity)]
		switch arity {
		case Triangle:
			out = append(out, v[0], v[1], v[2])
		case Quad:
			out = append(out, v[0], v[1], v[2], v[0], v[2], v[3])
		}
		pointer += int(arity)
	}

	if pointer != len(indices) {
		return nil, fmt.Errorf("%w: faces use %d indices, have %d", ErrIndexStreamLength, pointer, len(indices))
	}
	return out, nil
}
