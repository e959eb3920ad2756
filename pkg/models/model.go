// Package models holds triangle meshes in the flat buffer layout the
// rasterizer consumes, plus loaders for OBJ and glTF files.
package models

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/taigrr/trapeze/pkg/math3d"
)

// ErrInvalidGeometry is returned when a model's buffers disagree in length
// or reference elements that do not exist.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Model represents a triangle mesh as flat buffers.
//
// Triangle i uses vertices Triangles.Get(i), normals NormalIndexes.Get(i)
// and the six UV values UVs.Data[6*i : 6*i+6]. UVs are stored per
// triangle corner rather than per vertex, so seams need no vertex splitting.
type Model struct {
	Name          string
	Vertices      *math3d.Point3Buffer
	Normals       *math3d.Vector3Buffer
	UVs           *math3d.Vector2Buffer
	Triangles     *math3d.Index3Buffer
	NormalIndexes *math3d.Index3Buffer

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewModel creates a model from its buffers and validates it.
func NewModel(name string, vertices *math3d.Point3Buffer, normals *math3d.Vector3Buffer, uvs *math3d.Vector2Buffer, triangles, normalIndexes *math3d.Index3Buffer) (*Model, error) {
	m := &Model{
		Name:          name,
		Vertices:      vertices,
		Normals:       normals,
		UVs:           uvs,
		Triangles:     triangles,
		NormalIndexes: normalIndexes,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.CalculateBounds()
	return m, nil
}

// NewEmptyModel creates a model with no geometry. It draws nothing and is
// useful as a placeholder while the real mesh loads.
func NewEmptyModel(name string) *Model {
	return &Model{
		Name:          name,
		Vertices:      &math3d.Point3Buffer{},
		Normals:       &math3d.Vector3Buffer{},
		UVs:           &math3d.Vector2Buffer{},
		Triangles:     &math3d.Index3Buffer{},
		NormalIndexes: &math3d.Index3Buffer{},
	}
}

// Validate checks that the buffers agree in length, every index is in range
// and every value is finite.
func (m *Model) Validate() error {
	if m.Vertices == nil || m.Normals == nil || m.UVs == nil || m.Triangles == nil || m.NormalIndexes == nil {
		return fmt.Errorf("model %q: missing buffer: %w", m.Name, ErrInvalidGeometry)
	}
	n := m.Triangles.Len()
	if got := m.NormalIndexes.Len(); got != n {
		return fmt.Errorf("model %q: %d normal triples for %d triangles: %w", m.Name, got, n, ErrInvalidGeometry)
	}
	if got := len(m.UVs.Data); got != n*6 {
		return fmt.Errorf("model %q: %d uv values for %d triangles, want %d: %w", m.Name, got, n, n*6, ErrInvalidGeometry)
	}
	if hi := m.Triangles.Max(); hi >= m.Vertices.Len() {
		return fmt.Errorf("model %q: vertex index %d out of range [0, %d): %w", m.Name, hi, m.Vertices.Len(), ErrInvalidGeometry)
	}
	if hi := m.NormalIndexes.Max(); hi >= m.Normals.Len() {
		return fmt.Errorf("model %q: normal index %d out of range [0, %d): %w", m.Name, hi, m.Normals.Len(), ErrInvalidGeometry)
	}
	for _, b := range []struct {
		name string
		data []float32
	}{
		{"vertex", m.Vertices.Data},
		{"normal", m.Normals.Data},
		{"uv", m.UVs.Data},
	} {
		if i := firstNonFinite(b.data); i >= 0 {
			return fmt.Errorf("model %q: %s value %d is %v: %w", m.Name, b.name, i, b.data[i], ErrInvalidGeometry)
		}
	}
	return nil
}

// firstNonFinite returns the index of the first NaN or infinite value, or -1.
func firstNonFinite(data []float32) int {
	for i, f := range data {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return i
		}
	}
	return -1
}

// TriangleValid reports whether triangle i references existing vertices and normals.
func (m *Model) TriangleValid(i int) bool {
	if (i+1)*6 > len(m.UVs.Data) || i >= m.NormalIndexes.Len() {
		return false
	}
	nv, nn := m.Vertices.Len(), m.Normals.Len()
	a, b, c := m.Triangles.Get(i)
	if a >= nv || b >= nv || c >= nv {
		return false
	}
	a, b, c = m.NormalIndexes.Get(i)
	return a < nn && b < nn && c < nn
}

// TriangleCount returns the number of triangles.
func (m *Model) TriangleCount() int {
	return m.Triangles.Len()
}

// VertexCount returns the number of vertices.
func (m *Model) VertexCount() int {
	return m.Vertices.Len()
}

// TriangleUV returns the UV pairs for the three corners of triangle i.
func (m *Model) TriangleUV(i int) (u0, v0, u1, v1, u2, v2 float32) {
	t := m.UVs.Data[i*6 : i*6+6]
	return t[0], t[1], t[2], t[3], t[4], t[5]
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Model) CalculateBounds() {
	if m.Vertices.Len() == 0 {
		return
	}

	m.BoundsMin = m.Vertices.Get(0)
	m.BoundsMax = m.BoundsMin

	for i := 1; i < m.Vertices.Len(); i++ {
		p := m.Vertices.Get(i)
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Model) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Model) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// CalculateSmoothNormals computes one averaged normal per vertex and points
// every triangle's normal indices at its own vertices.
func (m *Model) CalculateSmoothNormals() {
	acc := make([]math3d.Vec3, m.Vertices.Len())

	// Accumulate area-weighted face normals per vertex
	for i := range m.Triangles.Len() {
		a, b, c := m.Triangles.Get(i)
		v0, v1, v2 := m.Vertices.Get(a), m.Vertices.Get(b), m.Vertices.Get(c)
		normal := v1.Sub(v0).Cross(v2.Sub(v0)) // Don't normalize yet
		acc[a] = acc[a].Add(normal)
		acc[b] = acc[b].Add(normal)
		acc[c] = acc[c].Add(normal)
	}

	m.Normals = math3d.NewVector3Buffer(len(acc))
	for i, n := range acc {
		m.Normals.Set(i, n.Normalize())
	}
	m.NormalIndexes = &math3d.Index3Buffer{Data: append([]uint32(nil), m.Triangles.Data...)}
}
