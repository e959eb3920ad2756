package models

import "github.com/taigrr/trapeze/pkg/math3d"

// cubeCorners are the unit cube corners, scaled by half the edge length.
var cubeCorners = [8]math3d.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: 1},
}

// cubeFaces lists each face's corners counter-clockwise seen from outside,
// starting at the corner that maps to UV (0, 1).
var cubeFaces = [6]struct {
	corners [4]int
	normal  math3d.Vec3
}{
	{[4]int{4, 5, 6, 7}, math3d.Vec3{Z: 1}},
	{[4]int{1, 0, 3, 2}, math3d.Vec3{Z: -1}},
	{[4]int{5, 1, 2, 6}, math3d.Vec3{X: 1}},
	{[4]int{0, 4, 7, 3}, math3d.Vec3{X: -1}},
	{[4]int{7, 6, 2, 3}, math3d.Vec3{Y: 1}},
	{[4]int{0, 1, 5, 4}, math3d.Vec3{Y: -1}},
}

// NewCube creates an axis-aligned cube of the given edge length centered at
// the origin, with flat face normals and the full texture on every face.
func NewCube(size float64) *Model {
	vertices := math3d.NewPoint3Buffer(len(cubeCorners))
	for i, c := range cubeCorners {
		vertices.Set(i, c.Scale(size/2))
	}

	normals := math3d.NewVector3Buffer(len(cubeFaces))
	triangles := math3d.NewIndex3Buffer(12)
	normalIndexes := math3d.NewIndex3Buffer(12)
	uvs := math3d.NewVector2Buffer(36)
	quadUV := [4]math3d.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}

	for f, face := range cubeFaces {
		normals.Set(f, face.normal)
		c := face.corners
		for k, tri := range [2][3]int{{0, 1, 2}, {0, 2, 3}} {
			t := f*2 + k
			triangles.Set(t, c[tri[0]], c[tri[1]], c[tri[2]])
			normalIndexes.Set(t, f, f, f)
			for j, corner := range tri {
				uvs.Set(t*3+j, quadUV[corner])
			}
		}
	}

	m := &Model{
		Name:          "cube",
		Vertices:      vertices,
		Normals:       normals,
		UVs:           uvs,
		Triangles:     triangles,
		NormalIndexes: normalIndexes,
	}
	m.CalculateBounds()
	return m
}
