package armature

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-5

func approxDualQuat(t *testing.T, got, want DualQuat) {
	t.Helper()
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > epsilon {
			t.Errorf("component %d: got %v, want %v (got %v, want %v)", i, got[i], want[i], got, want)
			return
		}
	}
}

func makeStartPose() Pose {
	return Pose{
		0: NewDualQuat(mgl32.QuatIdent(), mgl32.Vec3{0, 0, 0}),
		1: NewDualQuat(mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 2, 3}),
		4: DualQuat{0.5, 0.5, 0.5, 0.5, 0.1, -0.2, 0.3, 0.4},
	}
}

func makeEndPose() Pose {
	return Pose{
		0: NewDualQuat(mgl32.QuatRotate(1.0, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 5, 0}),
		1: NewDualQuat(mgl32.QuatRotate(0.9, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{-1, 0, 2}),
		4: DualQuat{0.7, 0.1, 0.5, 0.5, 0, 0, 0.25, 0.5},
	}
}

func TestBlendTowards_Endpoints(t *testing.T) {
	start, end := makeStartPose(), makeEndPose()

	tests := []struct {
		name string
		t    float32
		want Pose
	}{
		{"t=0 is start", 0, start},
		{"t=1 is end", 1, end},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BlendTowards(start, end, tt.t)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d joints, want %d", len(got), len(tt.want))
			}
			for id, want := range tt.want {
				approxDualQuat(t, got[id].(DualQuat), want.(DualQuat))
			}
		})
	}
}

func TestBlendTowards_Halfway(t *testing.T) {
	start := Pose{2: DualQuat{1, 0, 0, 0, 0, 0, 0, 0}}
	end := Pose{2: DualQuat{0, 1, 0, 0, 0, 0, 2, 0}}

	got, err := BlendTowards(start, end, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approxDualQuat(t, got[2].(DualQuat), DualQuat{0.5, 0.5, 0, 0, 0, 0, 1, 0})
}

func TestBlend_ShortestPath(t *testing.T) {
	start := DualQuat{1, 0, 0, 0, 0, 0.5, 0, 0}
	end := DualQuat{-0.8, 0, -0.6, 0, 0.1, -0.2, 0.3, -0.4}

	if start.RotationDot(end) >= 0 {
		t.Fatalf("test needs a negative dot product, got %v", start.RotationDot(end))
	}

	got := start.Blend(end, 0.25)

	negated := end.Negate()
	var want, naive DualQuat
	for i := range want {
		want[i] = start[i] + (negated[i]-start[i])*0.25
		naive[i] = start[i] + (end[i]-start[i])*0.25
	}
	approxDualQuat(t, got, want)

	if math.Abs(float64(got[0]-naive[0])) < epsilon {
		t.Errorf("blend followed the long path: got %v, naive %v", got, naive)
	}
}

func TestBlend_LerpFormula(t *testing.T) {
	start := DualQuat{1, 0.2, 0, 0, 0.1, 0.3, -0.7, 0.05}
	end := DualQuat{0.8, 0.6, 0, 0, -0.4, 0.9, 0.15, 1.3}

	for _, amount := range []float32{0, 0.1, 0.3, 0.33, 0.5, 0.7, 1} {
		got := start.Blend(end, amount)
		for i := range got {
			want := start[i] + float32((end[i]-start[i])*amount)
			if got[i] != want {
				t.Errorf("t=%v component %d: got %.9g, want %.9g", amount, i, got[i], want)
			}
		}
	}

	if got := start.Blend(end, 0); got != start {
		t.Errorf("t=0: got %v, want %v", got, start)
	}
}

func TestBlend_FlipKeepsTransform(t *testing.T) {
	end := NewDualQuat(mgl32.QuatRotate(2.5, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{3, -1, 2})
	start := NewDualQuat(mgl32.QuatRotate(-2.5, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0, 0, 0})
	if start.RotationDot(end) >= 0 {
		t.Fatalf("test needs a negative dot product, got %v", start.RotationDot(end))
	}

	got := start.Blend(end, 1)
	approxDualQuat(t, got, end.Negate())
	if !got.Mat4().ApproxEqualThreshold(end.Mat4(), 1e-4) {
		t.Errorf("flip changed the transform:\n%v\n%v", got.Mat4(), end.Mat4())
	}
}

func TestBlend_Extrapolates(t *testing.T) {
	start := DualQuat{1, 0, 0, 0, 0, 0, 0, 0}
	end := DualQuat{1, 1, 0, 0, 0, 1, 0, 0}

	got := start.Blend(end, 2)
	approxDualQuat(t, got, DualQuat{1, 2, 0, 0, 0, 2, 0, 0})

	got = start.Blend(end, -1)
	approxDualQuat(t, got, DualQuat{1, -1, 0, 0, 0, -1, 0, 0})
}

func TestBlendTowards_MissingJoint(t *testing.T) {
	tests := []struct {
		name  string
		start Pose
		end   Pose
	}{
		{
			name:  "end lacks joint",
			start: Pose{0: DualQuat{1}, 1: DualQuat{1}},
			end:   Pose{0: DualQuat{1}},
		},
		{
			name:  "start lacks joint",
			start: Pose{0: DualQuat{1}},
			end:   Pose{0: DualQuat{1}, 7: DualQuat{1}},
		},
		{
			name:  "different joints at the same position",
			start: Pose{0: DualQuat{1}, 1: DualQuat{1}},
			end:   Pose{0: DualQuat{1}, 2: DualQuat{1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BlendTowards(tt.start, tt.end, 0.5)
			if !errors.Is(err, ErrMissingJoint) {
				t.Errorf("got %v, want %v", err, ErrMissingJoint)
			}
		})
	}
}

func TestBlendTowards_MatrixBone(t *testing.T) {
	start := Pose{0: DualQuat{1}, 1: Matrix{}}
	end := Pose{0: DualQuat{1}, 1: DualQuat{1}}

	if _, err := BlendTowards(start, end, 0.5); !errors.Is(err, ErrUnsupportedBone) {
		t.Errorf("matrix start: got %v, want %v", err, ErrUnsupportedBone)
	}
	if _, err := BlendTowards(end, start, 0.5); !errors.Is(err, ErrUnsupportedBone) {
		t.Errorf("matrix end: got %v, want %v", err, ErrUnsupportedBone)
	}
}

func TestBlendTowards_Empty(t *testing.T) {
	got, err := BlendTowards(Pose{}, Pose{}, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d joints, want 0", len(got))
	}
}
