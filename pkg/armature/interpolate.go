package armature

import "fmt"

// Blend interpolates from dq towards end. At t=0 the result is dq, at t=1 it
// is end; values outside [0, 1] extrapolate.
//
// When the rotation parts point away from each other (negative dot product)
// end is negated first so the blend takes the shortest rotation path.
//
// http://www.xbdev.net/misc_demos/demos/dual_quaternions_beyond/paper.pdf
func (dq DualQuat) Blend(end DualQuat, t float32) DualQuat {
	if dq.RotationDot(end) < 0 {
		end = end.Negate()
	}

	var out DualQuat
	for i := range out {
		out[i] = dq[i] + float32((end[i]-dq[i])*t)
	}
	return out
}

// InterpolateBone blends two bones. Both must be dual quaternions; matrix
// bones have to be converted with ToDualQuat first.
func InterpolateBone(start, end Bone, t float32) (Bone, error) {
	s, ok := start.(DualQuat)
	if !ok {
		return nil, fmt.Errorf("%w: start bone is %T, convert it to a dual quaternion", ErrUnsupportedBone, start)
	}
	e, ok := end.(DualQuat)
	if !ok {
		return nil, fmt.Errorf("%w: end bone is %T, convert it to a dual quaternion", ErrUnsupportedBone, end)
	}
	return s.Blend(e, t), nil
}

// BlendTowards blends every joint of start towards the same joint of end.
//
// Joints are matched by index. Both poses must hold the same joints; the
// first joint (in ascending order) present in only one of them is reported
// as ErrMissingJoint.
func BlendTowards(start, end Pose, t float32) (Pose, error) {
	for _, id := range start.JointIDs() {
		if _, ok := end[id]; !ok {
			return nil, fmt.Errorf("%w: joint %d is not in the end pose", ErrMissingJoint, id)
		}
	}
	for _, id := range end.JointIDs() {
		if _, ok := start[id]; !ok {
			return nil, fmt.Errorf("%w: joint %d is not in the start pose", ErrMissingJoint, id)
		}
	}

	blended := make(Pose, len(start))
	for _, id := range start.JointIDs() {
		b, err := InterpolateBone(start[id], end[id], t)
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", id, err)
		}
		blended[id] = b
	}
	return blended, nil
}
