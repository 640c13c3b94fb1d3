package armature

import (
	"maps"
	"slices"
)

// Pose maps joint indices to bone transforms.
type Pose map[uint8]Bone

// JointIDs returns the pose's joint indices in ascending order.
func (p Pose) JointIDs() []uint8 {
	return slices.Sorted(maps.Keys(p))
}

// Only returns the part of the pose covering the given joints, such as the
// members of one bone group. Joints the pose lacks are skipped.
func (p Pose) Only(joints []uint8) Pose {
	out := make(Pose, len(joints))
	for _, id := range joints {
		if b, ok := p[id]; ok {
			out[id] = b
		}
	}
	return out
}

// Merge returns a copy of p with the bones of other laid on top.
func (p Pose) Merge(other Pose) Pose {
	out := maps.Clone(p)
	if out == nil {
		out = make(Pose, len(other))
	}
	maps.Copy(out, other)
	return out
}
