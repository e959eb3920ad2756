package render

import (
	"math"
	"testing"
	"time"

	"github.com/taigrr/trapeze/pkg/math3d"
)

const clearColor uint32 = 0xff000000

// flatLight shades every pixel with exactly its texel color.
func flatLight() *PhongLight {
	return NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 1, 0, 1, 0)
}

// createTestRenderer creates a cleared renderer for testing.
func createTestRenderer(width, height int) *Renderer {
	r := NewRenderer(NewFramebuffer(width, height), flatLight())
	r.Clear(clearColor, DefaultClearDepth)
	return r
}

// pt creates a vertex facing the viewer.
func pt(x, y int, z float32) *PointData {
	p := &PointData{}
	p.Set(float32(x), float32(y), z, 0.5, 0.5, 0, 0, 1)
	return p
}

func countPixels(fb *Framebuffer, want uint32) int {
	n := 0
	for _, p := range fb.Pixels {
		if p == want {
			n++
		}
	}
	return n
}

func TestPointDataSetTruncates(t *testing.T) {
	var p PointData
	p.Set(3.9, -2.7, 1.5, 0.25, 0.75, 1, 2, 3)

	if p.X != 3 || p.Y != -2 {
		t.Errorf("X, Y = %d, %d; want 3, -2", p.X, p.Y)
	}
	if p.Z != 1.5 || p.U != 0.25 || p.V != 0.75 {
		t.Errorf("Z, U, V = %v, %v, %v; want 1.5, 0.25, 0.75", p.Z, p.U, p.V)
	}
}

func TestClear(t *testing.T) {
	r := NewRenderer(NewFramebuffer(7, 5), flatLight())
	r.Clear(0xff112233, DefaultClearDepth)

	for i, p := range r.Framebuffer().Pixels {
		if p != 0xff112233 {
			t.Fatalf("pixel %d = %#x, want 0xff112233", i, p)
		}
	}
	for i, d := range r.Depth() {
		if d != -1e10 {
			t.Fatalf("depth %d = %v, want -1e10", i, d)
		}
	}
}

func TestBackfaceCulling(t *testing.T) {
	tex := NewSolidTexture(ColorWhite)
	white := Pack(ColorWhite)

	tests := []struct {
		name      string
		p1, p2, p3 [2]int
		wantDrawn bool
	}{
		{"front facing", [2]int{0, 0}, [2]int{8, 0}, [2]int{0, 8}, true},
		{"back facing", [2]int{0, 0}, [2]int{0, 8}, [2]int{8, 0}, false},
		{"rotated front facing", [2]int{8, 0}, [2]int{0, 8}, [2]int{0, 0}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := createTestRenderer(16, 16)
			r.DrawTriangle(pt(tc.p1[0], tc.p1[1], 1), pt(tc.p2[0], tc.p2[1], 1), pt(tc.p3[0], tc.p3[1], 1), tex)

			n := countPixels(r.Framebuffer(), white)
			if tc.wantDrawn && n == 0 {
				t.Error("front-facing triangle wrote no pixels")
			}
			if !tc.wantDrawn {
				if n != 0 {
					t.Errorf("back-facing triangle wrote %d pixels", n)
				}
				for i, d := range r.Depth() {
					if d != DefaultClearDepth {
						t.Fatalf("depth %d changed to %v", i, d)
					}
				}
				if r.Stats.TrianglesCulled != 1 {
					t.Errorf("TrianglesCulled = %d, want 1", r.Stats.TrianglesCulled)
				}
			}
		})
	}
}

func TestDisableBackfaceCulling(t *testing.T) {
	r := createTestRenderer(16, 16)
	r.DisableBackfaceCulling = true
	r.DrawTriangle(pt(0, 0, 1), pt(0, 8, 1), pt(8, 0, 1), NewSolidTexture(ColorWhite))

	if r.Stats.TrianglesCulled != 0 || r.Stats.TrianglesDrawn != 1 {
		t.Errorf("stats = %+v, want one drawn triangle", r.Stats)
	}
	// Same coverage as the front-facing (0,0) (8,0) (0,8) triangle
	if got := r.Stats.PixelsWritten; got != 36 {
		t.Errorf("PixelsWritten = %d, want 36", got)
	}
	if n := countPixels(r.Framebuffer(), Pack(ColorWhite)); n == 0 {
		t.Error("back-facing triangle wrote no pixels with culling disabled")
	}
}

func TestNonFiniteCoordinates(t *testing.T) {
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())

	tests := []struct {
		name  string
		x, y  float32
		wantY int
	}{
		{"positive infinity", inf, inf, 0},
		{"negative infinity", -inf, -inf, 0},
		{"NaN", nan, nan, 0},
		{"mixed", inf, 4, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p PointData
			p.Set(tc.x, tc.y, 1, 0, 0, 0, 0, 1)
			if p.X != 0 || p.Y != tc.wantY {
				t.Fatalf("Set(%v, %v) = (%d, %d), want (0, %d)", tc.x, tc.y, p.X, p.Y, tc.wantY)
			}

			r := createTestRenderer(16, 16)
			done := make(chan struct{})
			go func() {
				r.DrawTriangle(pt(0, 0, 1), pt(8, 0, 1), &p, NewSolidTexture(ColorWhite))
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("DrawTriangle did not return")
			}
		})
	}
}

func TestRightTriangleCoverage(t *testing.T) {
	r := createTestRenderer(16, 16)
	r.DrawTriangle(pt(0, 0, 1), pt(8, 0, 1), pt(0, 8, 1), NewSolidTexture(ColorWhite))

	// Rows 0..7 span [0, 8-y)
	if got := r.Stats.PixelsWritten; got != 36 {
		t.Errorf("PixelsWritten = %d, want 36", got)
	}

	fb := r.Framebuffer()
	white := Pack(ColorWhite)
	checks := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{7, 0, true},
		{8, 0, false},
		{0, 7, true},
		{1, 7, false},
		{0, 8, false},
	}
	for _, c := range checks {
		got := fb.Pixels[c.y*fb.Width+c.x] == white
		if got != c.want {
			t.Errorf("pixel (%d, %d) covered = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestEdgeWalkWithRemainder(t *testing.T) {
	r := createTestRenderer(16, 16)
	// Right edge runs from (10, 0) to (0, 4): 2.5 pixels per row.
	r.DrawTriangle(pt(0, 0, 1), pt(10, 0, 1), pt(0, 4, 1), NewSolidTexture(ColorWhite))

	// Integer step -2 with remainder -2 gives spans of 10, 8, 5, 3.
	if got := r.Stats.PixelsWritten; got != 26 {
		t.Errorf("PixelsWritten = %d, want 26", got)
	}
}

func TestDegenerateTriangles(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 *PointData
	}{
		{"collinear diagonal", pt(0, 0, 1), pt(4, 4, 1), pt(8, 8, 1)},
		{"horizontal line", pt(0, 5, 1), pt(5, 5, 1), pt(9, 5, 1)},
		{"single point", pt(3, 3, 1), pt(3, 3, 1), pt(3, 3, 1)},
		{"vertical line", pt(2, 0, 1), pt(2, 4, 1), pt(2, 9, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := createTestRenderer(16, 16)
			r.DrawTriangle(tc.p1, tc.p2, tc.p3, NewSolidTexture(ColorWhite))
			if r.Stats.PixelsWritten != 0 {
				t.Errorf("degenerate triangle wrote %d pixels", r.Stats.PixelsWritten)
			}
		})
	}
}

func TestOffscreenTriangle(t *testing.T) {
	r := createTestRenderer(8, 8)
	// Must not index outside the buffers
	r.DrawTriangle(pt(-50, -50, 1), pt(60, -40, 1), pt(-40, 70, 1), NewSolidTexture(ColorWhite))
	r.DrawTriangle(pt(100, 100, 1), pt(120, 100, 1), pt(100, 130, 1), NewSolidTexture(ColorWhite))

	// The last column is never written.
	fb := r.Framebuffer()
	for y := range fb.Height {
		if fb.Pixels[y*fb.Width+fb.Width-1] != clearColor {
			t.Errorf("last column written at row %d", y)
		}
	}
}

func TestDepthOrderIndependence(t *testing.T) {
	near := NewSolidTexture(ColorBlue)
	far := NewSolidTexture(ColorRed)

	draw := func(nearFirst bool) *Renderer {
		r := createTestRenderer(16, 16)
		a := [3]*PointData{pt(0, 0, 10), pt(12, 0, 10), pt(0, 12, 10)}
		b := [3]*PointData{pt(2, 2, 5), pt(14, 2, 5), pt(2, 14, 5)}
		if nearFirst {
			r.DrawTriangle(a[0], a[1], a[2], near)
			r.DrawTriangle(b[0], b[1], b[2], far)
		} else {
			r.DrawTriangle(b[0], b[1], b[2], far)
			r.DrawTriangle(a[0], a[1], a[2], near)
		}
		return r
	}

	r1 := draw(true)
	r2 := draw(false)

	for i := range r1.Framebuffer().Pixels {
		if r1.Framebuffer().Pixels[i] != r2.Framebuffer().Pixels[i] {
			t.Fatalf("pixel %d differs by draw order: %#x vs %#x", i, r1.Framebuffer().Pixels[i], r2.Framebuffer().Pixels[i])
		}
	}

	// (4, 4) is inside both; the larger depth wins.
	if got := r1.Framebuffer().GetPixel(4, 4); got != ColorBlue {
		t.Errorf("overlap pixel = %v, want %v", got, ColorBlue)
	}
	if got := r1.Depth()[4*16+4]; got != 10 {
		t.Errorf("overlap depth = %v, want 10", got)
	}
}

func TestClippedSpanInterpolation(t *testing.T) {
	r := createTestRenderer(16, 16)
	// Depth grows by one per pixel along the top row, starting at x=-10.
	p1, p2, p3 := pt(-10, 0, 0), pt(10, 0, 20), pt(-10, 20, 0)
	r.DrawTriangle(p1, p2, p3, NewSolidTexture(ColorWhite))

	tests := []struct {
		x    int
		want float32
	}{
		{0, 11},
		{5, 16},
	}
	for _, tc := range tests {
		got := r.Depth()[tc.x]
		if math.Abs(float64(got-tc.want)) > 1e-3 {
			t.Errorf("depth at x=%d = %v, want %v", tc.x, got, tc.want)
		}
	}
}

func TestPhongPacking(t *testing.T) {
	texel := Pack(RGB(10, 20, 30))

	tests := []struct {
		name  string
		light *PhongLight
		n     math3d.Vec3
		want  uint32
	}{
		{
			name:  "full diffuse",
			light: NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 0, 1, 1, 0),
			n:     math3d.V3(0, 0, 1),
			want:  0xff000000 | 10 | 20<<8 | 30<<16,
		},
		{
			name:  "ambient only",
			light: NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 0.5, 0, 1, 0),
			n:     math3d.V3(0, 0, 1),
			want:  0xff000000 | 5 | 10<<8 | 15<<16,
		},
		{
			name:  "unnormalized normal",
			light: NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 0, 1, 1, 0),
			n:     math3d.V3(0, 0, 4),
			want:  0xff000000 | 10 | 20<<8 | 30<<16,
		},
		{
			name:  "facing away",
			light: NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 0, 1, 1, 0),
			n:     math3d.V3(0, 0, -1),
			want:  0xff000000,
		},
		{
			name:  "zero normal",
			light: NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 0.5, 1, 1, 1),
			n:     math3d.V3(0, 0, 0),
			want:  0xff000000 | 5 | 10<<8 | 15<<16,
		},
		{
			name:  "saturates",
			light: NewPhongLight(math3d.V3(0, 0, 1), 0x00ffffff, 100, 0, 1, 0),
			n:     math3d.V3(0, 0, 1),
			want:  0xffffffff,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := phong(tc.light, texel, float32(tc.n.X), float32(tc.n.Y), float32(tc.n.Z))
			if got != tc.want {
				t.Errorf("phong = %#x, want %#x", got, tc.want)
			}
		})
	}
}

func TestPhongSpecularUsesLightColor(t *testing.T) {
	// Pure specular from a red light on a black texel
	l := NewPhongLight(math3d.V3(0, 0, 1), 0x000000ff, 0, 0, 1, 1)
	got := phong(l, 0, 0, 0, 1)

	// Highlight index is clamped to the last entry: 499/500 * 255
	if want := uint32(0xff000000 | 254); got != want {
		t.Errorf("phong = %#x, want %#x", got, want)
	}
}

func TestDrawTriangleOutline(t *testing.T) {
	r := createTestRenderer(16, 16)
	r.DrawTriangleOutline(pt(1, 1, 0), pt(10, 1, 0), pt(1, 10, 0), 0xffffffff)

	fb := r.Framebuffer()
	for _, p := range [][2]int{{1, 1}, {10, 1}, {1, 10}, {5, 1}, {1, 5}} {
		if fb.Pixels[p[1]*fb.Width+p[0]] != 0xffffffff {
			t.Errorf("outline missing pixel %v", p)
		}
	}
	if fb.Pixels[3*fb.Width+3] != clearColor {
		t.Error("outline filled the interior")
	}

	r.DrawTriangleOutline(pt(1, 1, 0), pt(1, 10, 0), pt(10, 1, 0), 0xffffffff)
	if r.Stats.TrianglesCulled != 1 {
		t.Errorf("TrianglesCulled = %d, want 1", r.Stats.TrianglesCulled)
	}
}

func TestResize(t *testing.T) {
	r := createTestRenderer(4, 4)
	r.Resize(10, 6)
	if r.Width() != 10 || r.Height() != 6 {
		t.Errorf("size = %dx%d, want 10x6", r.Width(), r.Height())
	}
	if len(r.Depth()) != 60 || len(r.Framebuffer().Pixels) != 60 {
		t.Errorf("buffers not resized: %d depth, %d pixels", len(r.Depth()), len(r.Framebuffer().Pixels))
	}
}

func BenchmarkDrawTriangle(b *testing.B) {
	r := NewRenderer(NewFramebuffer(900, 900), DefaultLight())
	tex := NewCheckerTexture(64, 64, 8, ColorWhite, ColorGray)
	p1, p2, p3 := pt(100, 100, 0), pt(800, 150, 0), pt(300, 800, 0)

	for b.Loop() {
		r.Clear(clearColor, DefaultClearDepth)
		r.DrawTriangle(p1, p2, p3, tex)
	}
}
