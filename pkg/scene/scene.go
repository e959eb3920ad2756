package scene

import (
	"slices"

	"go.uber.org/zap"

	"github.com/taigrr/trapeze/pkg/math3d"
	"github.com/taigrr/trapeze/pkg/models"
	"github.com/taigrr/trapeze/pkg/render"
)

// DefaultClearColor is opaque black.
const DefaultClearColor uint32 = 0xff000000

// DefaultScratchFloats is the initial size of each scratch buffer.
const DefaultScratchFloats = 65536

// Mode selects how triangles are drawn.
type Mode int

const (
	ModeShaded    Mode = iota // Textured, lit, depth tested
	ModeWireframe             // Triangle edges only
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeWireframe:
		return "wireframe"
	default:
		return "shaded"
	}
}

// FrameStats describes the last call to Draw.
type FrameStats struct {
	Objects          int // Objects drawn
	InvalidTriangles int // Triangles skipped for out-of-range indices
	Render           render.RenderStats
	Culling          render.CullingStats
}

// Scene draws an ordered list of render objects with one renderer.
type Scene struct {
	renderer *render.Renderer
	objects  []*RenderObject
	log      *zap.Logger

	// Transformed vertices and normals of the object being drawn.
	// They only ever grow, so steady-state frames allocate nothing.
	vertexBuf *math3d.Point3Buffer
	normalBuf *math3d.Vector3Buffer
	growths   int

	p0, p1, p2 render.PointData

	mode       Mode
	WireColor  uint32 // Line color in wireframe mode
	ShowBounds bool   // Outline each object's bounding box
	BoundColor uint32

	// SkipOffscreen rejects objects whose screen bounds miss the framebuffer
	// before transforming their vertices. Off by default.
	SkipOffscreen bool

	stats       FrameStats
	staleWarned bool
	badModels   map[*models.Model]bool
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger used for frame warnings.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scene) {
		if l != nil {
			s.log = l
		}
	}
}

// WithScratchSize sets the initial number of floats in each scratch buffer.
func WithScratchSize(floats int) Option {
	return func(s *Scene) {
		floats = max(0, floats)
		s.vertexBuf = &math3d.Point3Buffer{Data: make([]float32, floats)}
		s.normalBuf = &math3d.Vector3Buffer{Data: make([]float32, floats)}
	}
}

// WithMode sets the initial draw mode.
func WithMode(m Mode) Option {
	return func(s *Scene) {
		s.mode = m
	}
}

// NewScene creates an empty scene drawing with r.
func NewScene(r *render.Renderer, opts ...Option) *Scene {
	s := &Scene{
		renderer:   r,
		log:        zap.NewNop(),
		WireColor:  render.Pack(render.ColorWhite),
		BoundColor: render.Pack(render.ColorCyan),
		badModels:  make(map[*models.Model]bool),
	}
	WithScratchSize(DefaultScratchFloats)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Renderer returns the renderer the scene draws with.
func (s *Scene) Renderer() *render.Renderer {
	return s.renderer
}

// Push appends an object; objects are drawn in insertion order.
func (s *Scene) Push(o *RenderObject) {
	s.objects = append(s.objects, o)
}

// Remove deletes an object from the scene. It reports whether o was present.
func (s *Scene) Remove(o *RenderObject) bool {
	i := slices.Index(s.objects, o)
	if i < 0 {
		return false
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	return true
}

// Objects returns the objects in draw order.
func (s *Scene) Objects() []*RenderObject {
	return s.objects
}

// Mode returns the current draw mode.
func (s *Scene) Mode() Mode {
	return s.mode
}

// SetMode changes the draw mode.
func (s *Scene) SetMode(m Mode) {
	s.mode = m
}

// Stats returns statistics for the last frame.
func (s *Scene) Stats() FrameStats {
	return s.stats
}

// ScratchGrowths returns how many times a scratch buffer was reallocated.
func (s *Scene) ScratchGrowths() int {
	return s.growths
}

// ScratchCapacity returns the number of floats in the vertex and normal
// scratch buffers.
func (s *Scene) ScratchCapacity() (vertices, normals int) {
	return len(s.vertexBuf.Data), len(s.normalBuf.Data)
}

// Draw clears the frame to clearColor and draws every object.
func (s *Scene) Draw(clearColor uint32) {
	r := s.renderer
	r.ResetStats()
	r.Clear(clearColor, render.DefaultClearDepth)
	s.stats = FrameStats{}
	s.checkLight()

	for _, o := range s.objects {
		s.drawObject(o)
	}
	s.stats.Render = r.Stats
	s.stats.Culling = r.CullingStats
}

// checkLight warns once each time the light goes stale.
func (s *Scene) checkLight() {
	l := s.renderer.Light()
	if !l.Stale() {
		s.staleWarned = false
		return
	}
	if !s.staleWarned {
		exp, mult := l.Specular()
		s.log.Warn("light specular parameters changed without a rebake",
			zap.Float32("exponent", exp),
			zap.Float32("multiplier", mult))
		s.staleWarned = true
	}
}

// reserve grows the scratch buffers to hold model m. Old contents are not kept.
func (s *Scene) reserve(m *models.Model) {
	if n := len(m.Vertices.Data); len(s.vertexBuf.Data) < n {
		s.vertexBuf = &math3d.Point3Buffer{Data: make([]float32, n)}
		s.growths++
		s.log.Debug("grew vertex scratch buffer", zap.Int("floats", n))
	}
	if n := len(m.Normals.Data); len(s.normalBuf.Data) < n {
		s.normalBuf = &math3d.Vector3Buffer{Data: make([]float32, n)}
		s.growths++
		s.log.Debug("grew normal scratch buffer", zap.Int("floats", n))
	}
}

func (s *Scene) drawObject(o *RenderObject) {
	m := o.Model
	if m == nil || o.Texture == nil {
		return
	}

	r := s.renderer
	matrix := o.Transform.Matrix()
	if s.SkipOffscreen && !r.BoxVisible(render.NewAABB(m.BoundsMin, m.BoundsMax).Transform(matrix)) {
		return
	}
	s.stats.Objects++

	s.reserve(m)
	m.Vertices.TransformTo(s.vertexBuf, matrix)
	m.Normals.TransformTo(s.normalBuf, o.Transform.RotationMatrix())

	invalid := 0
	for i := range m.TriangleCount() {
		if !m.TriangleValid(i) {
			invalid++
			continue
		}
		a, b, c := m.Triangles.Get(i)
		na, nb, nc := m.NormalIndexes.Get(i)
		uv := m.UVs.Data[i*6 : i*6+6]

		s.point(&s.p0, a, na, uv[0], uv[1])
		s.point(&s.p1, b, nb, uv[2], uv[3])
		s.point(&s.p2, c, nc, uv[4], uv[5])

		if s.mode == ModeWireframe {
			r.DrawTriangleOutline(&s.p0, &s.p1, &s.p2, s.WireColor)
		} else {
			r.DrawTriangle(&s.p0, &s.p1, &s.p2, o.Texture)
		}
	}

	if invalid > 0 {
		s.stats.InvalidTriangles += invalid
		if !s.badModels[m] {
			s.badModels[m] = true
			s.log.Warn("skipping triangles with out-of-range indices",
				zap.String("model", m.Name),
				zap.Int("triangles", invalid))
		}
	}

	if s.ShowBounds {
		corners := render.NewAABB(m.BoundsMin, m.BoundsMax).Corners()
		for i := range corners {
			corners[i] = matrix.MulVec3(corners[i])
		}
		r.DrawBoxOutline(corners, s.BoundColor)
	}
}

// point fills p from transformed vertex v, transformed normal n and a UV pair.
func (s *Scene) point(p *render.PointData, v, n int, u, tv float32) {
	vd := s.vertexBuf.Data[v*3 : v*3+3]
	nd := s.normalBuf.Data[n*3 : n*3+3]
	p.Set(vd[0], vd[1], vd[2], u, tv, nd[0], nd[1], nd[2])
}
