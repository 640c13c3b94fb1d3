package armature

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// rowMajor turns an mgl32 matrix into the layout Blender's exporter writes.
func rowMajor(m mgl32.Mat4) Matrix {
	return Matrix(m.Transpose())
}

func TestDualQuat_RotationTranslation(t *testing.T) {
	rotation := mgl32.QuatRotate(float32(math.Pi/2), mgl32.Vec3{0, 1, 0})
	translation := mgl32.Vec3{1, 2, 3}

	dq := NewDualQuat(rotation, translation)

	if !dq.Rotation().ApproxEqualThreshold(rotation, epsilon) {
		t.Errorf("Rotation() = %v, want %v", dq.Rotation(), rotation)
	}
	if !dq.Translation().ApproxEqualThreshold(translation, epsilon) {
		t.Errorf("Translation() = %v, want %v", dq.Translation(), translation)
	}

	// The matrix rotates first, then translates.
	point := dq.Mat4().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	want := rotation.Rotate(mgl32.Vec3{1, 0, 0}).Add(translation)
	if !point.ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("transformed point = %v, want %v", point, want)
	}
}

func TestDualQuat_NegateSameTransform(t *testing.T) {
	dq := NewDualQuat(mgl32.QuatRotate(0.7, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{-2, 0, 4})
	neg := dq.Negate()

	if dq.RotationDot(neg) >= 0 {
		t.Errorf("negated rotation should point away, dot = %v", dq.RotationDot(neg))
	}
	if !neg.Mat4().ApproxEqualThreshold(dq.Mat4(), 1e-4) {
		t.Errorf("negation changed the transform:\n%v\n%v", neg.Mat4(), dq.Mat4())
	}
}

func TestDualQuat_NormalizeBlended(t *testing.T) {
	a := NewDualQuat(mgl32.QuatIdent(), mgl32.Vec3{0, 0, 0})
	b := NewDualQuat(mgl32.QuatRotate(float32(math.Pi/2), mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0, 0, 0})

	halfway := a.Blend(b, 0.5)
	if halfway.Real().Len() > 0.99 {
		t.Fatalf("linear blend should shrink the rotation, len = %v", halfway.Real().Len())
	}
	if l := halfway.Normalize().Real().Len(); math.Abs(float64(l-1)) > epsilon {
		t.Errorf("normalized length = %v, want 1", l)
	}

	want := mgl32.QuatRotate(float32(math.Pi/4), mgl32.Vec3{0, 0, 1})
	if !halfway.Rotation().ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("halfway rotation = %v, want %v", halfway.Rotation(), want)
	}
}

func TestMatrix_ToDualQuat(t *testing.T) {
	rotation := mgl32.QuatRotate(0.4, mgl32.Vec3{0, 1, 0})
	translation := mgl32.Vec3{5, -6, 7}
	m := rowMajor(mgl32.Translate3D(5, -6, 7).Mul4(rotation.Mat4()))

	if m[3] != 5 || m[7] != -6 || m[11] != 7 {
		t.Fatalf("exported layout should hold the translation at 3, 7, 11: %v", m)
	}

	dq := m.ToDualQuat()
	if !dq.Rotation().OrientationEqualThreshold(rotation, 1e-4) {
		t.Errorf("rotation = %v, want %v", dq.Rotation(), rotation)
	}
	if !dq.Translation().ApproxEqualThreshold(translation, 1e-4) {
		t.Errorf("translation = %v, want %v", dq.Translation(), translation)
	}
}

func TestToDualQuat(t *testing.T) {
	dq := DualQuat{1, 0, 0, 0, 0, 1, 0, 0}
	got, err := ToDualQuat(dq)
	if err != nil || got != dq {
		t.Errorf("ToDualQuat(dual quat) = %v, %v", got, err)
	}

	identity := rowMajor(mgl32.Ident4())
	got, err = ToDualQuat(identity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxDualQuat(t, got, DualQuat{1, 0, 0, 0, 0, 0, 0, 0})

	if _, err := ToDualQuat(nil); !errors.Is(err, ErrUnsupportedBone) {
		t.Errorf("nil bone: got %v, want %v", err, ErrUnsupportedBone)
	}
}

func TestDualQuat_IsFinite(t *testing.T) {
	if !(DualQuat{1}).IsFinite() {
		t.Error("expected finite")
	}
	nan := float32(math.NaN())
	if (DualQuat{1, nan}).IsFinite() {
		t.Error("expected NaN to be reported")
	}
	inf := float32(math.Inf(1))
	if (DualQuat{inf}).IsFinite() {
		t.Error("expected Inf to be reported")
	}
}
