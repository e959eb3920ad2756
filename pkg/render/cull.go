package render

import (
	"github.com/taigrr/trapeze/pkg/math3d"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(lo, hi math3d.Vec3) AABB {
	return AABB{Min: lo, Max: hi}
}

// Center returns the center of the AABB.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the AABB.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the 8 corners, numbered with bit 0 = max X,
// bit 1 = max Y, bit 2 = max Z.
func (b AABB) Corners() [8]math3d.Vec3 {
	var c [8]math3d.Vec3
	for i := range c {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		c[i] = p
	}
	return c
}

// Transform returns the AABB bounding all 8 corners after transformation.
func (b AABB) Transform(m math3d.Mat4) AABB {
	corners := b.Corners()
	lo := m.MulVec3(corners[0])
	hi := lo
	for _, c := range corners[1:] {
		p := m.MulVec3(c)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return AABB{Min: lo, Max: hi}
}

// ContainsPoint returns true if the point is inside the AABB.
func (b AABB) ContainsPoint(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// CullingStats tracks object-level screen culling.
type CullingStats struct {
	ObjectsTested int // Boxes tested against the screen
	ObjectsCulled int // Boxes entirely off screen
	ObjectsDrawn  int // Boxes that overlap the screen
}

// BoxVisible reports whether a screen-space box overlaps the framebuffer.
// Depth is not tested; every depth is drawable.
func (r *Renderer) BoxVisible(b AABB) bool {
	r.CullingStats.ObjectsTested++
	if b.Max.X < 0 || b.Max.Y < 0 || b.Min.X >= float64(r.fb.Width) || b.Min.Y >= float64(r.fb.Height) {
		r.CullingStats.ObjectsCulled++
		return false
	}
	r.CullingStats.ObjectsDrawn++
	return true
}
