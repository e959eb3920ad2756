// Package scene composes render objects into frames: it walks the transform
// hierarchy, transforms each model's buffers and feeds triangles to the
// rasterizer.
package scene

import (
	"github.com/taigrr/trapeze/pkg/math3d"
)

// Transform positions an object relative to an optional parent.
//
// The local matrix applies scale first, then rotation about Z, X and Y in
// that order, then translation; the parent's matrix is applied after it.
// The parent is fixed at construction, so hierarchies are always acyclic.
type Transform struct {
	X, Y, Z                         float64
	RotationX, RotationY, RotationZ float64 // Radians
	ScaleX, ScaleY, ScaleZ          float64

	parent *Transform
}

// NewTransform creates a transform with every component given.
func NewTransform(x, y, z, rx, ry, rz, sx, sy, sz float64, parent *Transform) *Transform {
	return &Transform{
		X: x, Y: y, Z: z,
		RotationX: rx, RotationY: ry, RotationZ: rz,
		ScaleX: sx, ScaleY: sy, ScaleZ: sz,
		parent: parent,
	}
}

// Shift creates a pure translation.
func Shift(x, y, z float64, parent *Transform) *Transform {
	return NewTransform(x, y, z, 0, 0, 0, 1, 1, 1, parent)
}

// Rotation creates a pure rotation.
func Rotation(x, y, z float64, parent *Transform) *Transform {
	return NewTransform(0, 0, 0, x, y, z, 1, 1, 1, parent)
}

// Scale creates a pure scale.
func Scale(x, y, z float64, parent *Transform) *Transform {
	return NewTransform(0, 0, 0, 0, 0, 0, x, y, z, parent)
}

// Empty creates an identity transform.
func Empty(parent *Transform) *Transform {
	return NewTransform(0, 0, 0, 0, 0, 0, 1, 1, 1, parent)
}

// Parent returns the parent transform, or nil for a root.
func (t *Transform) Parent() *Transform {
	return t.parent
}

func (t *Transform) localRotation() math3d.Mat4 {
	return math3d.RotateZ(t.RotationZ).
		Then(math3d.RotateX(t.RotationX)).
		Then(math3d.RotateY(t.RotationY))
}

// localInverseRotation undoes localRotation. A rotation matrix is
// orthonormal, so its inverse is its transpose.
func (t *Transform) localInverseRotation() math3d.Mat4 {
	return t.localRotation().Transpose()
}

// Matrix returns the full local-to-world matrix.
func (t *Transform) Matrix() math3d.Mat4 {
	m := math3d.Scale(math3d.V3(t.ScaleX, t.ScaleY, t.ScaleZ)).
		Then(t.localRotation()).
		Then(math3d.Translate(math3d.V3(t.X, t.Y, t.Z)))
	if t.parent != nil {
		return m.Then(t.parent.Matrix())
	}
	return m
}

// InverseMatrix returns the world-to-local matrix.
// Every scale component must be non-zero.
func (t *Transform) InverseMatrix() math3d.Mat4 {
	m := math3d.Translate(math3d.V3(-t.X, -t.Y, -t.Z)).
		Then(t.localInverseRotation()).
		Then(math3d.Scale(math3d.V3(1/t.ScaleX, 1/t.ScaleY, 1/t.ScaleZ)))
	if t.parent != nil {
		return t.parent.InverseMatrix().Then(m)
	}
	return m
}

// RotationMatrix returns the accumulated rotation without scale or
// translation. It is used to carry normals into world space.
func (t *Transform) RotationMatrix() math3d.Mat4 {
	m := t.localRotation()
	if t.parent != nil {
		return m.Then(t.parent.RotationMatrix())
	}
	return m
}

// InverseRotationMatrix returns the inverse of RotationMatrix.
func (t *Transform) InverseRotationMatrix() math3d.Mat4 {
	m := t.localInverseRotation()
	if t.parent != nil {
		return t.parent.InverseRotationMatrix().Then(m)
	}
	return m
}
