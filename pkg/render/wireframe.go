package render

import (
	"github.com/taigrr/trapeze/pkg/math3d"
)

// boxEdges lists the 12 edges of a box by corner index.
// Corners are numbered with bit 0 = +X, bit 1 = +Y, bit 2 = +Z.
var boxEdges = [12][2]int{
	// Back face
	{0, 1},
	{1, 3},
	{3, 2},
	{2, 0},
	// Front face
	{4, 5},
	{5, 7},
	{7, 6},
	{6, 4},
	// Connecting edges
	{0, 4},
	{1, 5},
	{2, 6},
	{3, 7},
}

// DrawTriangleOutline draws the edges of a triangle without depth testing.
// Back-facing triangles are skipped the same way DrawTriangle skips them.
func (r *Renderer) DrawTriangleOutline(p1, p2, p3 *PointData, color uint32) {
	r.Stats.TrianglesSubmitted++
	if !r.DisableBackfaceCulling && signedArea(p1, p2, p3) < 0 {
		r.Stats.TrianglesCulled++
		return
	}
	r.Stats.TrianglesDrawn++
	r.fb.DrawLine(p1.X, p1.Y, p2.X, p2.Y, color)
	r.fb.DrawLine(p2.X, p2.Y, p3.X, p3.Y, color)
	r.fb.DrawLine(p3.X, p3.Y, p1.X, p1.Y, color)
}

// DrawBoxOutline draws the 12 edges of a box given its 8 screen-space
// corners (see boxEdges for the numbering).
func (r *Renderer) DrawBoxOutline(corners [8]math3d.Vec3, color uint32) {
	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		r.fb.DrawLine(int(a.X), int(a.Y), int(b.X), int(b.Y), color)
	}
}
