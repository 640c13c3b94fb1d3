package armature

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Keyframe holds every bone's transform at one frame. Bones[i] belongs to
// joint i.
type Keyframe struct {
	Frame int
	Bones []Bone
}

// MaxJoints is the number of joints a pose can address.
const MaxJoints = math.MaxUint8 + 1

// Pose returns the keyframe's bones keyed by joint index. A keyframe with
// more than MaxJoints bones is ErrTooManyJoints.
func (k Keyframe) Pose() (Pose, error) {
	if len(k.Bones) > MaxJoints {
		return nil, fmt.Errorf("%w: %d bones in frame %d", ErrTooManyJoints, len(k.Bones), k.Frame)
	}
	p := make(Pose, len(k.Bones))
	for i, b := range k.Bones {
		p[uint8(i)] = b
	}
	return p, nil
}

// Action is one named animation.
type Action struct {
	Keyframes   []Keyframe
	PoseMarkers map[int]string
}

// Armature is an exported Blender armature with its actions.
type Armature struct {
	Name             string
	Actions          map[string]Action
	InverseBindPoses []Bone
	JointIndices     map[string]uint8
	BoneGroups       map[string][]uint8
}

// ActionNames returns the armature's action names in sorted order.
func (a *Armature) ActionNames() []string {
	return slices.Sorted(maps.Keys(a.Actions))
}

// JointIndex returns the joint index of a bone name.
func (a *Armature) JointIndex(name string) (uint8, bool) {
	idx, ok := a.JointIndices[name]
	return idx, ok
}

// KeyframePose returns the pose of one keyframe of an action.
func (a *Armature) KeyframePose(action string, keyframe int) (Pose, error) {
	act, ok := a.Actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if keyframe < 0 || keyframe >= len(act.Keyframes) {
		return nil, fmt.Errorf("%w: %q has %d keyframes, asked for %d",
			ErrKeyframeRange, action, len(act.Keyframes), keyframe)
	}
	return act.Keyframes[keyframe].Pose()
}

// ActionsToDualQuats converts every keyframe bone and inverse bind pose to a
// dual quaternion in place. Bones that already are dual quaternions are kept.
func (a *Armature) ActionsToDualQuats() error {
	for name, act := range a.Actions {
		for k := range act.Keyframes {
			bones, err := toDualQuats(act.Keyframes[k].Bones)
			if err != nil {
				return fmt.Errorf("action %q keyframe %d: %w", name, k, err)
			}
			act.Keyframes[k].Bones = bones
		}
	}

	bones, err := toDualQuats(a.InverseBindPoses)
	if err != nil {
		return fmt.Errorf("inverse bind poses: %w", err)
	}
	a.InverseBindPoses = bones
	return nil
}

func toDualQuats(bones []Bone) ([]Bone, error) {
	out := make([]Bone, len(bones))
	for i, b := range bones {
		dq, err := ToDualQuat(b)
		if err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
		out[i] = dq
	}
	return out, nil
}
