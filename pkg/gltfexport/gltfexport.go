// Package gltfexport writes unified, triangulated meshes as glTF 2.0 scenes.
package gltfexport

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Fedoresko/landon/pkg/mesh"
)

// jointsPerVertex is fixed by the JOINTS_0 and WEIGHTS_0 layout.
const jointsPerVertex = 4

var (
	ErrNotTriangulated = errors.New("mesh is not triangulated")
	ErrNotUnified      = errors.New("mesh has separate index streams")
	ErrAttributeCount  = errors.New("attribute count does not match positions")
	ErrGroupLayout     = errors.New("bone groups can't be written as JOINTS_0")
)

// Build creates a document with one node per mesh, ordered by name.
func Build(meshes map[string]*mesh.Mesh) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "landon"

	for _, name := range slices.Sorted(maps.Keys(meshes)) {
		prim, err := writePrimitive(doc, meshes[name])
		if err != nil {
			return nil, fmt.Errorf("mesh %s: %w", name, err)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       name,
			Primitives: []*gltf.Primitive{prim},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}
	return doc, nil
}

// Write builds the document and saves it to path. A .glb extension writes
// the binary container, anything else writes JSON glTF with the buffers
// inlined as data URIs.
func Write(path string, meshes map[string]*mesh.Mesh) error {
	doc, err := Build(meshes)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writePrimitive(doc *gltf.Document, m *mesh.Mesh) (*gltf.Primitive, error) {
	for _, a := range m.FaceArities {
		if a != mesh.Triangle {
			return nil, fmt.Errorf("%w: found %s face", ErrNotTriangulated, a)
		}
	}
	if m.HasNormalIndices() || m.HasUVIndices() {
		return nil, ErrNotUnified
	}

	count := m.Positions.Len()
	if m.HasNormals() && m.Normals.Len() != count {
		return nil, fmt.Errorf("%w: %d normals for %d positions", ErrAttributeCount, m.Normals.Len(), count)
	}
	if m.HasUVs() && m.UVs.Len() != count {
		return nil, fmt.Errorf("%w: %d uvs for %d positions", ErrAttributeCount, m.UVs.Len(), count)
	}

	prim := &gltf.Primitive{
		Attributes: gltf.Attribute{},
		Indices:    gltf.Index(uint32(modeler.WriteIndices(doc, m.PositionIndices))),
	}
	prim.Attributes[gltf.POSITION] = uint32(modeler.WritePosition(doc, vec3s(m.Positions.Data())))

	if m.HasNormals() {
		prim.Attributes[gltf.NORMAL] = uint32(modeler.WriteNormal(doc, vec3s(m.Normals.Data())))
	}
	if m.HasUVs() {
		prim.Attributes[gltf.TEXCOORD_0] = uint32(modeler.WriteTextureCoord(doc, vec2s(m.UVs.Data())))
	}
	if m.HasGroups() && count > 0 {
		joints, weights, err := influences(m.Groups, count)
		if err != nil {
			return nil, err
		}
		prim.Attributes[gltf.JOINTS_0] = uint32(modeler.WriteJoints(doc, joints))
		prim.Attributes[gltf.WEIGHTS_0] = uint32(modeler.WriteWeights(doc, weights))
	}
	return prim, nil
}

// influences lays bone groups out four per vertex, padding with zero
// weights. Run SetGroupsPerVertex first for meshes with ragged groups.
func influences(g *mesh.BoneGroups, count int) ([][4]uint8, [][4]float32, error) {
	k, ok := g.Uniform()
	if !ok {
		return nil, nil, fmt.Errorf("%w: vertices have different group counts", ErrGroupLayout)
	}
	if k > jointsPerVertex {
		return nil, nil, fmt.Errorf("%w: %d groups per vertex", ErrGroupLayout, k)
	}
	if g.Len() != count {
		return nil, nil, fmt.Errorf("%w: groups for %d vertices, %d positions", ErrAttributeCount, g.Len(), count)
	}
	if want := count * int(k); len(g.Indices) != want || len(g.Weights) != want {
		return nil, nil, fmt.Errorf("%w: %d indices and %d weights, want %d",
			ErrAttributeCount, len(g.Indices), len(g.Weights), want)
	}

	joints := make([][4]uint8, count)
	weights := make([][4]float32, count)
	for v := range count {
		start := v * int(k)
		copy(joints[v][:], g.Indices[start:start+int(k)])
		copy(weights[v][:], g.Weights[start:start+int(k)])
	}
	return joints, weights, nil
}

func vec3s(data []float32) [][3]float32 {
	out := make([][3]float32, len(data)/3)
	for i := range out {
		out[i] = [3]float32(data[i*3 : i*3+3])
	}
	return out
}

func vec2s(data []float32) [][2]float32 {
	out := make([][2]float32, len(data)/2)
	for i := range out {
		out[i] = [2]float32(data[i*2 : i*2+2])
	}
	return out
}
