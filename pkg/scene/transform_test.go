package scene

import (
	"math"
	"testing"

	"github.com/taigrr/trapeze/pkg/math3d"
)

func near(a, b math3d.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestEmptyIsIdentity(t *testing.T) {
	tr := Empty(nil)
	if got := tr.Matrix(); got != math3d.Identity() {
		t.Errorf("Empty().Matrix() = %v, want identity", got)
	}
	if got := tr.RotationMatrix(); got != math3d.Identity() {
		t.Errorf("Empty().RotationMatrix() = %v, want identity", got)
	}
}

func TestShiftMatrix(t *testing.T) {
	m := Shift(5, 10, 0, nil).Matrix()
	if m[12] != 5 || m[13] != 10 || m[14] != 0 {
		t.Errorf("translation = %v, %v, %v; want 5, 10, 0", m[12], m[13], m[14])
	}
	if got := m.MulVec3(math3d.Zero3()); got != math3d.V3(5, 10, 0) {
		t.Errorf("origin maps to %v, want (5, 10, 0)", got)
	}
}

func TestCompositionOrder(t *testing.T) {
	tests := []struct {
		name string
		tr   *Transform
		in   math3d.Vec3
		want math3d.Vec3
	}{
		{
			name: "scale before translate",
			tr:   NewTransform(10, 0, 0, 0, 0, 0, 2, 2, 2, nil),
			in:   math3d.V3(1, 0, 0),
			want: math3d.V3(12, 0, 0),
		},
		{
			name: "rotate before translate",
			tr:   NewTransform(10, 0, 0, 0, 0, math.Pi/2, 1, 1, 1, nil),
			in:   math3d.V3(1, 0, 0),
			want: math3d.V3(10, 1, 0),
		},
		{
			name: "Z before X",
			// Z quarter turn takes +X to +Y, then X quarter turn takes +Y to +Z.
			tr:   Rotation(math.Pi/2, 0, math.Pi/2, nil),
			in:   math3d.V3(1, 0, 0),
			want: math3d.V3(0, 0, 1),
		},
		{
			name: "X before Y",
			// X quarter turn takes +Y to +Z, then Y quarter turn takes +Z to +X.
			tr:   Rotation(math.Pi/2, math.Pi/2, 0, nil),
			in:   math3d.V3(0, 1, 0),
			want: math3d.V3(1, 0, 0),
		},
		{
			name: "child before parent",
			tr:   Shift(5, 0, 0, Rotation(0, 0, math.Pi/2, nil)),
			in:   math3d.Zero3(),
			want: math3d.V3(0, 5, 0),
		},
		{
			name: "parent scale applies to child translation",
			tr:   Shift(1, 2, 3, Scale(2, 2, 2, nil)),
			in:   math3d.Zero3(),
			want: math3d.V3(2, 4, 6),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tr.Matrix().MulVec3(tc.in); !near(got, tc.want) {
				t.Errorf("Matrix() maps %v to %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestInverseRoundTrip(t *testing.T) {
	root := NewTransform(450, 800, 0, 0, 0.3, 0, 25, 25, 25, nil)
	mid := Rotation(math.Pi/2, 0, math.Pi, root)
	leaf := NewTransform(1, -2, 3, 0.1, 0.2, 0.3, 2, 3, 4, mid)

	for name, tr := range map[string]*Transform{"root": root, "mid": mid, "leaf": leaf} {
		t.Run(name, func(t *testing.T) {
			if got := tr.Matrix().Mul(tr.InverseMatrix()); !got.ApproxEqual(math3d.Identity(), 1e-9) {
				t.Errorf("M * M^-1 = %v, want identity", got)
			}
			if got := tr.InverseMatrix().Mul(tr.Matrix()); !got.ApproxEqual(math3d.Identity(), 1e-9) {
				t.Errorf("M^-1 * M = %v, want identity", got)
			}
			if got := tr.RotationMatrix().Mul(tr.InverseRotationMatrix()); !got.ApproxEqual(math3d.Identity(), 1e-12) {
				t.Errorf("R * R^-1 = %v, want identity", got)
			}
			if got := tr.InverseMatrix(); !got.ApproxEqual(tr.Matrix().Inverse(), 1e-9) {
				t.Error("closed-form inverse disagrees with the general inverse")
			}
		})
	}
}

func TestRotationMatrixIgnoresScaleAndTranslation(t *testing.T) {
	tr := NewTransform(100, 200, 300, 0, 0, math.Pi/2, 5, 5, 5, Shift(7, 7, 7, nil))
	got := tr.RotationMatrix().MulVec3(math3d.V3(1, 0, 0))
	if !near(got, math3d.V3(0, 1, 0)) {
		t.Errorf("rotation maps +X to %v, want +Y", got)
	}
}

func TestMutationIsVisible(t *testing.T) {
	pivot := Shift(0, 0, 0, nil)
	child := Empty(pivot)

	pivot.X = 3
	if got := child.Matrix().MulVec3(math3d.Zero3()); !near(got, math3d.V3(3, 0, 0)) {
		t.Errorf("child sees parent at %v, want (3, 0, 0)", got)
	}
	if child.Parent() != pivot {
		t.Error("Parent() should return the construction-time parent")
	}
}
