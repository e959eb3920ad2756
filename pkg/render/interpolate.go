package render

import "github.com/chewxy/math32"

// PointData is one screen-space triangle vertex ready for rasterization.
// X and Y are truncated to whole pixels; the normal need not be unit length.
type PointData struct {
	X, Y       int
	Z          float32
	U, V       float32
	NX, NY, NZ float32
}

// Set fills every field at once, truncating x and y toward zero.
// A non-finite x or y becomes 0.
func (p *PointData) Set(x, y, z, u, v, nx, ny, nz float32) {
	p.X = truncate(x)
	p.Y = truncate(y)
	p.Z = z
	p.U = u
	p.V = v
	p.NX = nx
	p.NY = ny
	p.NZ = nz
}

// truncate converts a screen coordinate to whole pixels. NaN and the
// infinities map to 0 instead of an extreme int.
func truncate(f float32) int {
	if math32.IsNaN(f) || math32.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// interpolator holds the channels that vary linearly across a triangle.
// The renderer keeps six of them and reuses them for every triangle.
type interpolator struct {
	z          float32
	u, v       float32
	nx, ny, nz float32
}

func (c *interpolator) set(p *PointData) {
	c.z = p.Z
	c.u = p.U
	c.v = p.V
	c.nx = p.NX
	c.ny = p.NY
	c.nz = p.NZ
}

// delta stores the per-row step (b-a)/dist.
func (c *interpolator) delta(a, b *interpolator, dist int) {
	mult := 1 / float32(dist)
	c.z = (b.z - a.z) * mult
	c.u = (b.u - a.u) * mult
	c.v = (b.v - a.v) * mult
	c.nx = (b.nx - a.nx) * mult
	c.ny = (b.ny - a.ny) * mult
	c.nz = (b.nz - a.nz) * mult
}

func (c *interpolator) add(d *interpolator) {
	c.z += d.z
	c.u += d.u
	c.v += d.v
	c.nx += d.nx
	c.ny += d.ny
	c.nz += d.nz
}

// scaled returns c*k.
func (c *interpolator) scaled(k float32) interpolator {
	return interpolator{c.z * k, c.u * k, c.v * k, c.nx * k, c.ny * k, c.nz * k}
}
