package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity should report true for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(10, 0, 0).Mul(Scale(2, 2, 2))
	got := m.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{12, 0, 0}
	if got != want {
		t.Errorf("T*S applied to (1,0,0): got %v, want %v", got, want)
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})

	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformAffineIgnoresW(t *testing.T) {
	// Half of a translation matrix: w row sums to 0.5.
	m := Translate(4, 0, 0).MulScalar(0.5)
	got := m.TransformAffine(Vec3{2, 0, 0})
	want := Vec3{3, 0, 0}
	if got != want {
		t.Errorf("TransformAffine: got %v, want %v", got, want)
	}
}

func TestTransformDirection(t *testing.T) {
	m := Translate(5, 5, 5).Mul(Scale(2, 3, 4))
	got := m.TransformDirection(Vec3{1, 1, 1})
	want := Vec3{2, 3, 4}
	if got != want {
		t.Errorf("TransformDirection: got %v, want %v", got, want)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(float32(math.Pi / 2))
	got := m.TransformPoint(Vec3{1, 0, 0})

	// After 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if !got.ApproxEqual(Vec3{0, 0, -1}, 0.001) {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", got)
	}
}

func TestRotateAxisMatchesRotateZ(t *testing.T) {
	angle := float32(0.7)
	a := RotateAxis(Vec3{0, 0, 2}, angle)
	b := RotateZ(angle)
	for i := range a {
		if abs32(a[i]-b[i]) > 1e-6 {
			t.Fatalf("RotateAxis(z) element %d: got %f, want %f", i, a[i], b[i])
		}
	}
	if !RotateAxis(Vec3{}, angle).IsIdentity() {
		t.Error("RotateAxis with zero axis should be identity")
	}
}

func TestInverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", Identity()},
		{"uniform", Translate(1, -2, 3).Mul(RotateX(0.4)).Mul(Scale(2, 2, 2))},
		{"non-uniform", Translate(-4, 0.5, 2).Mul(RotateAxis(Vec3{1, 1, 0}, 1.1)).Mul(Scale(1, 2, 3))},
		{"translation only", Translate(7, 8, 9)},
	}
	id := Identity()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range []Mat4{tt.m.Mul(tt.m.Inverse()), tt.m.Inverse().Mul(tt.m)} {
				for i := range p {
					if abs32(p[i]-id[i]) > 1e-4 {
						t.Fatalf("element %d: got %f, want %f", i, p[i], id[i])
					}
				}
			}
		})
	}
}

func TestTryInverseSingular(t *testing.T) {
	if _, ok := Scale(1, 0, 1).TryInverse(); ok {
		t.Error("TryInverse should fail on a singular matrix")
	}
	if !Scale(1, 0, 1).Inverse().IsIdentity() {
		t.Error("Inverse of a singular matrix should fall back to identity")
	}
}

func TestAddAndMulScalar(t *testing.T) {
	m := Identity().MulScalar(0.25).Add(Identity().MulScalar(0.75))
	if !m.IsIdentity() {
		t.Errorf("0.25*I + 0.75*I should be I, got %v", m)
	}
}

func TestMaxScale(t *testing.T) {
	m := RotateY(1.1).Mul(Scale(1, 3, 2))
	if got := m.MaxScale(); abs32(got-3) > 1e-5 {
		t.Errorf("MaxScale: got %f, want 3", got)
	}
}
