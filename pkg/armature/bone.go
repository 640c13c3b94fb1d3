// Package armature holds skeletal poses exported from Blender and blends them.
package armature

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Armature errors.
var (
	ErrUnsupportedBone = errors.New("unsupported bone representation")
	ErrMissingJoint    = errors.New("joint missing from pose")
	ErrUnknownAction   = errors.New("unknown action")
	ErrKeyframeRange   = errors.New("keyframe out of range")
	ErrTooManyJoints   = errors.New("too many joints")
)

// Bone is a joint transform. It is either a DualQuat or a Matrix.
type Bone interface {
	isBone()
}

// DualQuat is a rigid transform stored as exported: the rotation quaternion
// (w, x, y, z) followed by the dual part (w, x, y, z).
type DualQuat [8]float32

// Matrix is a 4x4 transform stored row by row, as Blender's exporter writes
// it. The translation sits at indices 3, 7 and 11.
type Matrix [16]float32

func (DualQuat) isBone() {}
func (Matrix) isBone()   {}

// NewDualQuat builds a dual quaternion from a rotation and a translation.
func NewDualQuat(rotation mgl32.Quat, translation mgl32.Vec3) DualQuat {
	r := rotation.Normalize()
	d := mgl32.Quat{V: translation}.Mul(r).Scale(0.5)
	return DualQuat{r.W, r.V[0], r.V[1], r.V[2], d.W, d.V[0], d.V[1], d.V[2]}
}

// Real returns the rotation part.
func (dq DualQuat) Real() mgl32.Quat {
	return mgl32.Quat{W: dq[0], V: mgl32.Vec3{dq[1], dq[2], dq[3]}}
}

// Dual returns the translation-carrying part.
func (dq DualQuat) Dual() mgl32.Quat {
	return mgl32.Quat{W: dq[4], V: mgl32.Vec3{dq[5], dq[6], dq[7]}}
}

// RotationDot returns the dot product of the rotation parts of two dual
// quaternions.
func (dq DualQuat) RotationDot(other DualQuat) float32 {
	return dq[0]*other[0] + dq[1]*other[1] + dq[2]*other[2] + dq[3]*other[3]
}

// Negate returns the dual quaternion with every component negated. It
// describes the same rigid transform.
func (dq DualQuat) Negate() DualQuat {
	var out DualQuat
	for i := range dq {
		out[i] = -dq[i]
	}
	return out
}

// Normalize scales both parts so the rotation part has unit length. Blended
// dual quaternions need this before they are turned into matrices.
func (dq DualQuat) Normalize() DualQuat {
	length := dq.Real().Len()
	if length < 1e-6 {
		return dq
	}
	var out DualQuat
	for i := range dq {
		out[i] = dq[i] / length
	}
	return out
}

// Rotation returns the unit rotation quaternion.
func (dq DualQuat) Rotation() mgl32.Quat {
	return dq.Normalize().Real()
}

// Translation returns the translation encoded in the dual part.
func (dq DualQuat) Translation() mgl32.Vec3 {
	n := dq.Normalize()
	return n.Dual().Mul(n.Real().Conjugate()).Scale(2).V
}

// Mat4 returns the column-major transform matrix for skinning.
func (dq DualQuat) Mat4() mgl32.Mat4 {
	t := dq.Translation()
	return mgl32.Translate3D(t[0], t[1], t[2]).Mul4(dq.Rotation().Mat4())
}

// Mat4 returns the matrix in mgl32's column-major layout.
func (m Matrix) Mat4() mgl32.Mat4 {
	return mgl32.Mat4(m).Transpose()
}

// ToDualQuat converts a rigid (rotation and translation only) matrix bone.
func (m Matrix) ToDualQuat() DualQuat {
	mat := m.Mat4()
	rotation := mgl32.Mat4ToQuat(mat)
	translation := mat.Col(3).Vec3()
	return NewDualQuat(rotation, translation)
}

// ToDualQuat converts any bone to its dual quaternion form.
func ToDualQuat(b Bone) (DualQuat, error) {
	switch bone := b.(type) {
	case DualQuat:
		return bone, nil
	case Matrix:
		return bone.ToDualQuat(), nil
	default:
		return DualQuat{}, ErrUnsupportedBone
	}
}

// IsFinite reports whether every component is a finite number.
func (dq DualQuat) IsFinite() bool {
	for _, c := range dq {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}
