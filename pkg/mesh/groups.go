package mesh

import (
	"cmp"
	"fmt"
	"slices"
)

type influence struct {
	index  uint8
	weight float32
}

// NormalizeGroups gives every vertex exactly k bone influences.
//
// Influences are ordered by weight, heaviest first, with ties keeping their
// exported order. Vertices with fewer than k influences are padded with
// (0, 0.0); vertices with more lose their lightest ones. GPU skinning needs a
// fixed influence count, so the truncation is intentional.
func NormalizeGroups(g *BoneGroups, k uint8) (*BoneGroups, error) {
	if g == nil {
		return nil, ErrMissingGroups
	}
	if err := g.validate(); err != nil {
		return nil, err
	}

	n := g.Len()
	out := &BoneGroups{
		Indices:         make([]uint8, 0, n*int(k)),
		Weights:         make([]float32, 0, n*int(k)),
		CountsPerVertex: make([]uint8, n),
	}

	offsets := g.Offsets()
	var scratch []influence
	for v := range n {
		indices, weights := g.Vertex(offsets, v)

		scratch = scratch[:0]
		for i := range indices {
			scratch = append(scratch, influence{index: indices[i], weight: weights[i]})
		}
		slices.SortStableFunc(scratch, func(a, b influence) int {
			return cmp.Compare(b.weight, a.weight)
		})

		for i := range int(k) {
			if i < len(scratch) {
				out.Indices = append(out.Indices, scratch[i].index)
				out.Weights = append(out.Weights, scratch[i].weight)
			} else {
				out.Indices = append(out.Indices, 0)
				out.Weights = append(out.Weights, 0)
			}
		}
		out.CountsPerVertex[v] = k
	}

	return out, nil
}

// SetGroupsPerVertex normalizes the mesh's bone influences to k per vertex.
//
// Say we're setting 3 groups per vertex:
//   - a vertex with one group gets two fake groups with 0.0 weight.
//   - a vertex with 5 groups loses the two with the smallest weight.
//
// On error the mesh is left unchanged.
func (m *Mesh) SetGroupsPerVertex(k uint8) error {
	groups, err := NormalizeGroups(m.Groups, k)
	if err != nil {
		return fmt.Errorf("normalizing groups: %w", err)
	}
	m.Groups = groups
	return nil
}
