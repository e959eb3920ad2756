package models

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/trapeze/pkg/math3d"
)

// quadModel returns a unit square made of two triangles sharing one normal.
func quadModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel("quad",
		&math3d.Point3Buffer{Data: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}},
		&math3d.Vector3Buffer{Data: []float32{0, 0, 1}},
		&math3d.Vector2Buffer{Data: []float32{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 0, 1}},
		&math3d.Index3Buffer{Data: []uint32{0, 1, 2, 0, 2, 3}},
		&math3d.Index3Buffer{Data: []uint32{0, 0, 0, 0, 0, 0}},
	)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := quadModel(t)

	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", m.VertexCount())
	}
	if got := m.Center(); got != math3d.V3(0.5, 0.5, 0) {
		t.Errorf("Center() = %v, want (0.5, 0.5, 0)", got)
	}
	if got := m.Size(); got != math3d.V3(1, 1, 0) {
		t.Errorf("Size() = %v, want (1, 1, 0)", got)
	}

	u0, v0, u1, v1, u2, v2 := m.TriangleUV(1)
	if u0 != 0 || v0 != 0 || u1 != 1 || v1 != 1 || u2 != 0 || v2 != 1 {
		t.Errorf("TriangleUV(1) = %v %v %v %v %v %v", u0, v0, u1, v1, u2, v2)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
	}{
		{"vertex index out of range", func(m *Model) { m.Triangles.Data[5] = 4 }},
		{"normal index out of range", func(m *Model) { m.NormalIndexes.Data[0] = 1 }},
		{"short uv buffer", func(m *Model) { m.UVs.Data = m.UVs.Data[:6] }},
		{"normal index count mismatch", func(m *Model) { m.NormalIndexes.Data = m.NormalIndexes.Data[:3] }},
		{"missing buffer", func(m *Model) { m.Normals = nil }},
		{"infinite vertex", func(m *Model) { m.Vertices.Data[3] = float32(math.Inf(1)) }},
		{"NaN normal", func(m *Model) { m.Normals.Data[2] = float32(math.NaN()) }},
		{"infinite uv", func(m *Model) { m.UVs.Data[7] = float32(math.Inf(-1)) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := quadModel(t)
			tc.mutate(m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Validate() = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestTriangleValid(t *testing.T) {
	m := quadModel(t)
	if !m.TriangleValid(0) || !m.TriangleValid(1) {
		t.Fatal("quad triangles should be valid")
	}

	m.Triangles.Data[4] = 99
	if m.TriangleValid(1) {
		t.Error("triangle with out-of-range vertex should be invalid")
	}
	if !m.TriangleValid(0) {
		t.Error("other triangles stay valid")
	}
	if m.TriangleValid(2) {
		t.Error("triangle past the end should be invalid")
	}
}

func TestEmptyModel(t *testing.T) {
	m := NewEmptyModel("pending")
	if err := m.Validate(); err != nil {
		t.Errorf("empty model should validate: %v", err)
	}
	if m.TriangleCount() != 0 {
		t.Errorf("TriangleCount() = %d, want 0", m.TriangleCount())
	}
}

func TestCalculateSmoothNormals(t *testing.T) {
	m := quadModel(t)
	m.CalculateSmoothNormals()

	if m.Normals.Len() != m.VertexCount() {
		t.Fatalf("got %d normals, want one per vertex", m.Normals.Len())
	}
	for i := range m.Normals.Len() {
		if n := m.Normals.Get(i); n != math3d.V3(0, 0, 1) {
			t.Errorf("normal %d = %v, want (0, 0, 1)", i, n)
		}
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate after smoothing: %v", err)
	}
}
