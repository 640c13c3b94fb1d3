package blender

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Fedoresko/landon/pkg/armature"
)

// FilenamesToArmatures maps blend file paths to their armatures by name.
type FilenamesToArmatures map[string]map[string]*armature.Armature

type armatureJSON struct {
	Name             string                `json:"name"`
	Actions          map[string]actionJSON `json:"actions"`
	InverseBindPoses []boneJSON            `json:"inverse_bind_poses"`
	JointIndices     map[string]int        `json:"joint_indices"`
	BoneGroups       map[string][]int      `json:"bone_groups"`
}

type actionJSON struct {
	Keyframes   []keyframeJSON `json:"keyframes"`
	PoseMarkers map[int]string `json:"pose_markers"`
}

type keyframeJSON struct {
	Frame int        `json:"frame"`
	Bones []boneJSON `json:"bones"`
}

// boneJSON holds exactly one of the two bone encodings.
type boneJSON struct {
	DualQuat []float32 `json:"DualQuat,omitempty"`
	Matrix   []float32 `json:"Matrix,omitempty"`
}

func (b boneJSON) toBone() (armature.Bone, error) {
	switch {
	case b.DualQuat != nil && b.Matrix != nil:
		return nil, fmt.Errorf("%w: both DualQuat and Matrix set", ErrBadBone)
	case b.DualQuat != nil:
		if len(b.DualQuat) != 8 {
			return nil, fmt.Errorf("%w: DualQuat has %d values", ErrBadBone, len(b.DualQuat))
		}
		return armature.DualQuat(b.DualQuat), nil
	case b.Matrix != nil:
		if len(b.Matrix) != 16 {
			return nil, fmt.Errorf("%w: Matrix has %d values", ErrBadBone, len(b.Matrix))
		}
		return armature.Matrix(b.Matrix), nil
	default:
		return nil, fmt.Errorf("%w: no DualQuat or Matrix", ErrBadBone)
	}
}

func toBones(in []boneJSON) ([]armature.Bone, error) {
	bones := make([]armature.Bone, len(in))
	for i, b := range in {
		bone, err := b.toBone()
		if err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
		bones[i] = bone
	}
	return bones, nil
}

func jointIndex(name string, idx int) (uint8, error) {
	if idx < 0 || idx > math.MaxUint8 {
		return 0, fmt.Errorf("%w: joint %s has index %d", ErrBadBone, name, idx)
	}
	return uint8(idx), nil
}

// ParseArmatures parses every armature block in Blender's stdout.
func ParseArmatures(stdout string) (FilenamesToArmatures, error) {
	blocks, err := scanBlocks(stdout, ArmatureStart, ArmatureEnd)
	if err != nil {
		return nil, err
	}

	result := make(FilenamesToArmatures)
	for _, b := range blocks {
		arm, err := DecodeArmature([]byte(b.JSON))
		if err != nil {
			return nil, fmt.Errorf("armature %s in %s: %w", b.Name, b.Filename, err)
		}
		if result[b.Filename] == nil {
			result[b.Filename] = make(map[string]*armature.Armature)
		}
		result[b.Filename][b.Name] = arm
	}
	return result, nil
}

// DecodeArmature decodes one armature in the exporter's JSON layout.
func DecodeArmature(data []byte) (*armature.Armature, error) {
	var w armatureJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding armature json: %w", err)
	}

	arm := &armature.Armature{
		Name:         w.Name,
		Actions:      make(map[string]armature.Action, len(w.Actions)),
		JointIndices: make(map[string]uint8, len(w.JointIndices)),
		BoneGroups:   make(map[string][]uint8, len(w.BoneGroups)),
	}

	var err error
	if arm.InverseBindPoses, err = toBones(w.InverseBindPoses); err != nil {
		return nil, fmt.Errorf("inverse bind poses: %w", err)
	}

	for name, act := range w.Actions {
		action := armature.Action{
			Keyframes:   make([]armature.Keyframe, len(act.Keyframes)),
			PoseMarkers: act.PoseMarkers,
		}
		for k, kf := range act.Keyframes {
			if len(kf.Bones) > armature.MaxJoints {
				return nil, fmt.Errorf("%w: action %s keyframe %d has %d bones, at most %d joints",
					ErrBadBone, name, k, len(kf.Bones), armature.MaxJoints)
			}
			bones, err := toBones(kf.Bones)
			if err != nil {
				return nil, fmt.Errorf("action %s keyframe %d: %w", name, k, err)
			}
			action.Keyframes[k] = armature.Keyframe{Frame: kf.Frame, Bones: bones}
		}
		arm.Actions[name] = action
	}

	for name, idx := range w.JointIndices {
		if arm.JointIndices[name], err = jointIndex(name, idx); err != nil {
			return nil, err
		}
	}

	for group, joints := range w.BoneGroups {
		ids := make([]uint8, len(joints))
		for i, idx := range joints {
			if ids[i], err = jointIndex(group, idx); err != nil {
				return nil, fmt.Errorf("bone group %s: %w", group, err)
			}
		}
		arm.BoneGroups[group] = ids
	}

	return arm, nil
}

func fromBone(b armature.Bone) (boneJSON, error) {
	switch b := b.(type) {
	case armature.DualQuat:
		return boneJSON{DualQuat: b[:]}, nil
	case armature.Matrix:
		return boneJSON{Matrix: b[:]}, nil
	default:
		return boneJSON{}, fmt.Errorf("%w: %T", ErrBadBone, b)
	}
}

// EncodePose writes a pose as a JSON object keyed by joint index, each bone
// in the same layout the exporter uses.
func EncodePose(p armature.Pose) ([]byte, error) {
	out := make(map[uint8]boneJSON, len(p))
	for id, b := range p {
		bone, err := fromBone(b)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", id, err)
		}
		out[id] = bone
	}
	return json.Marshal(out)
}
