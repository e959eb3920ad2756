package render

import (
	"github.com/chewxy/math32"
	"github.com/taigrr/trapeze/pkg/math3d"
)

// DefaultClearDepth is the depth every pixel starts a frame at.
// Larger depth values are nearer to the viewer.
const DefaultClearDepth float32 = -1e10

// Renderer scan-converts triangles into a framebuffer with a depth test and
// per-pixel Phong shading.
//
// Triangles are split at their middle vertex into one or two trapezoids.
// Each trapezoid walks its two edges with an integer step plus an error
// term, so edge positions never accumulate floating point drift.
type Renderer struct {
	fb    *Framebuffer
	depth []float32 // Depth buffer (1D array, row-major)
	light *PhongLight

	up1, up2       interpolator // Channel values at the current row's left and right edge
	down1, down2   interpolator // Channel values at the far end of each edge
	delta1, delta2 interpolator // Per-row change along each edge

	Stats                  RenderStats  // Statistics for debugging/benchmarking
	CullingStats           CullingStats // Object-level screen culling
	DisableBackfaceCulling bool         // If true, render both sides of triangles
}

// RenderStats tracks rasterizer work since the last ResetStats.
type RenderStats struct {
	TrianglesSubmitted int // Triangles passed to DrawTriangle
	TrianglesCulled    int // Triangles rejected by the back-face test
	TrianglesDrawn     int // Triangles handed to the scan converter
	PixelsWritten      int // Pixels that passed the depth test
}

// DefaultLight returns a white light from the upper right with a tight highlight.
func DefaultLight() *PhongLight {
	return NewPhongLight(math3d.V3(0.4, 0, 0.3), 0x00ffffff, 0.1, 0.6, 20, 1)
}

// NewRenderer creates a renderer drawing into fb. A nil light is replaced
// by DefaultLight.
func NewRenderer(fb *Framebuffer, light *PhongLight) *Renderer {
	if light == nil {
		light = DefaultLight()
	}
	r := &Renderer{
		fb:    fb,
		light: light,
	}
	r.depth = make([]float32, fb.Width*fb.Height)
	return r
}

// Resize replaces the framebuffer and depth buffer with ones of the new size.
func (r *Renderer) Resize(width, height int) {
	if width == r.fb.Width && height == r.fb.Height {
		return
	}
	r.fb = NewFramebuffer(width, height)
	r.depth = make([]float32, width*height)
}

// Framebuffer returns the color buffer being drawn into.
func (r *Renderer) Framebuffer() *Framebuffer {
	return r.fb
}

// Depth returns the depth buffer, one value per pixel.
func (r *Renderer) Depth() []float32 {
	return r.depth
}

// Width returns the framebuffer width.
func (r *Renderer) Width() int {
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Renderer) Height() int {
	return r.fb.Height
}

// Light returns the light used for shading.
func (r *Renderer) Light() *PhongLight {
	return r.light
}

// SetLight replaces the light used for shading.
func (r *Renderer) SetLight(l *PhongLight) {
	r.light = l
}

// ResetStats resets the statistics (call once per frame).
func (r *Renderer) ResetStats() {
	r.Stats = RenderStats{}
	r.CullingStats = CullingStats{}
}

// Clear fills every pixel with color and every depth entry with depth.
func (r *Renderer) Clear(color uint32, depth float32) {
	r.fb.Clear(color)
	// Use copy-doubling for faster clearing
	n := len(r.depth)
	if n == 0 {
		return
	}
	r.depth[0] = depth
	for i := 1; i < n; i *= 2 {
		copy(r.depth[i:], r.depth[:i])
	}
}

// signedArea returns twice the signed screen area of the triangle.
// Negative means the triangle faces away from the viewer.
func signedArea(p1, p2, p3 *PointData) int {
	return (p2.X-p1.X)*(p3.Y-p1.Y) - (p3.X-p1.X)*(p2.Y-p1.Y)
}

// DrawTriangle rasterizes a triangle with texture and lighting, unless it
// is back facing and back-face culling is enabled. Degenerate triangles are not rejected; they simply cover
// no pixels.
func (r *Renderer) DrawTriangle(p1, p2, p3 *PointData, tex *Texture) {
	r.Stats.TrianglesSubmitted++
	if signedArea(p1, p2, p3) < 0 {
		if !r.DisableBackfaceCulling {
			r.Stats.TrianglesCulled++
			return
		}
		// Scan conversion expects front-facing winding.
		p2, p3 = p3, p2
	}
	r.Stats.TrianglesDrawn++
	r.rawDrawTriangle(p1, p2, p3, tex)
}

// rawDrawTriangle rasterizes without the back-face test.
//
//	1 ------- 2
//	 \       /
//	  \     /
//	   \   /
//	     3
func (r *Renderer) rawDrawTriangle(p1, p2, p3 *PointData, tex *Texture) {
	// Rotate so p1 is the topmost vertex. Rotation keeps the winding.
	if p2.Y < p1.Y && p2.Y <= p3.Y {
		p1, p2, p3 = p2, p3, p1
	} else if p3.Y < p1.Y && p3.Y <= p2.Y {
		p1, p2, p3 = p3, p1, p2
	}

	dx2, dy2 := p2.X-p1.X, p2.Y-p1.Y
	dx3, dy3 := p3.X-p1.X, p3.Y-p1.Y

	r.up1.set(p1)
	r.down1.set(p3)
	r.delta1.delta(&r.up1, &r.down1, dy3)

	r.up2.set(p1)
	r.down2.set(p2)
	r.delta2.delta(&r.up2, &r.down2, dy2)

	x1, x2, err1, err2 := r.drawTrapezoid(p1.X, p1.X, dx3, dx2, 0, 0, dy3, dy2, p1.Y, min(p2.Y, p3.Y), tex)
	if p2.Y < p3.Y {
		// Edge 1-3 continues, edge 2-3 replaces 1-2
		r.up2.set(p2)
		r.down2.set(p3)
		r.delta2.delta(&r.up2, &r.down2, p3.Y-p2.Y)
		r.drawTrapezoid(x1, p2.X, dx3, p3.X-p2.X, err1, 0, dy3, p3.Y-p2.Y, p2.Y, p3.Y, tex)
	} else {
		// Edge 1-2 continues, edge 3-2 replaces 1-3
		r.up1.set(p3)
		r.down1.set(p2)
		r.delta1.delta(&r.up1, &r.down1, p2.Y-p3.Y)
		r.drawTrapezoid(p3.X, x2, p2.X-p3.X, dx2, 0, err2, p2.Y-p3.Y, dy2, p3.Y, p2.Y, tex)
	}
}

// drawTrapezoid fills rows y..yEnd-1 between a left edge starting at x1 and
// a right edge starting at x2. Each edge advances by dx/dy per row using an
// integer step and remainder. The channel cursors up1/up2 start at the
// values for row y and are left at the values for row yEnd.
// It returns the edge positions and error terms for row yEnd.
func (r *Renderer) drawTrapezoid(x1, x2, dx1, dx2, err1, err2, dy1, dy2, y, yEnd int, tex *Texture) (int, int, int, int) {
	step1, rem1 := edgeStep(dx1, dy1)
	step2, rem2 := edgeStep(dx2, dy2)

	up1, up2 := r.up1, r.up2
	d1, d2 := r.delta1, r.delta2

	width, height := r.fb.Width, r.fb.Height
	pixels, depth := r.fb.Pixels, r.depth
	light := r.light
	written := 0

	base := y * width
	for ; y < yEnd; y++ {
		start, end := max(x1, 0), min(x2, width-1)
		if y >= 0 && y < height && start < end {
			dim := 1 / float32(x2-x1)
			var s interpolator
			s.delta(&up1, &up2, 1)
			s = s.scaled(dim)

			z, u, v := up1.z, up1.u, up1.v
			nx, ny, nz := up1.nx, up1.ny, up1.nz
			if skip := start - x1; skip > 0 {
				// Span clipped on the left: resume where the edge would be.
				k := float32(skip)
				z += s.z * k
				u += s.u * k
				v += s.v * k
				nx += s.nx * k
				ny += s.ny * k
				nz += s.nz * k
			}

			for i := start; i < end; i++ {
				z += s.z
				u += s.u
				v += s.v
				nx += s.nx
				ny += s.ny
				nz += s.nz
				idx := base + i
				if z > depth[idx] {
					depth[idx] = z
					pixels[idx] = phong(light, tex.GetPixel(u, v), nx, ny, nz)
					written++
				}
			}
		}

		x1 += step1
		x2 += step2
		err1 += rem1
		err2 += rem2
		base += width
		if abs(err1) >= dy1 {
			x1 += sign(dx1)
			err1 -= dy1 * sign(rem1)
		}
		if abs(err2) >= dy2 {
			x2 += sign(dx2)
			err2 -= dy2 * sign(rem2)
		}
		up1.add(&d1)
		up2.add(&d2)
	}

	r.up1, r.up2 = up1, up2
	r.Stats.PixelsWritten += written
	return x1, x2, err1, err2
}

// edgeStep splits dx/dy into a truncated quotient and a remainder.
// A zero dy yields no movement.
func edgeStep(dx, dy int) (step, rem int) {
	if dy == 0 {
		return 0, 0
	}
	return dx / dy, dx % dy
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// phong shades a packed texel with the light for an interpolated normal.
// The result is always opaque.
func phong(l *PhongLight, c uint32, nx, ny, nz float32) uint32 {
	r := float32(c & 0xff)
	g := float32((c >> 8) & 0xff)
	b := float32((c >> 16) & 0xff)

	lenSq := nx*nx + ny*ny + nz*nz
	if !(lenSq > 0) {
		// No usable normal: ambient only
		return 0xff000000 | channel(r*l.Ambient) | channel(g*l.Ambient)<<8 | channel(b*l.Ambient)<<16
	}
	inv := 1 / math32.Sqrt(lenSq)
	nx *= inv
	ny *= inv
	nz *= inv

	cos := nx*l.dirX + ny*l.dirY + nz*l.dirZ
	specCos := 2*nz*cos - l.dirZ
	if cos < 0 {
		cos = 0
	}
	if specCos < 0 {
		specCos = 0
	}
	diffuse := l.Ambient + cos*l.Diffuse
	specular := l.power(specCos)

	return 0xff000000 |
		channel(r*diffuse+l.r*specular) |
		channel(g*diffuse+l.g*specular)<<8 |
		channel(b*diffuse+l.b*specular)<<16
}

// channel truncates a shaded channel value into [0, 255].
func channel(v float32) uint32 {
	if !(v > 0) { // Also catches NaN
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint32(v)
}
