// Package stage turns a loaded configuration into a ready-to-draw scene and
// animates it between frames.
package stage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/trapeze/internal/config"
	"github.com/taigrr/trapeze/pkg/math3d"
	"github.com/taigrr/trapeze/pkg/models"
	"github.com/taigrr/trapeze/pkg/render"
	"github.com/taigrr/trapeze/pkg/scene"
)

// PlaceholderColor is shown on a texture until its image has loaded.
const PlaceholderColor uint32 = 0xff00ff00

// FitFraction is the share of the shorter framebuffer side a fitted model fills.
const FitFraction = 0.8

// ErrUnsupportedFormat is returned for model files that are neither OBJ nor glTF.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Stage owns a scene built from configuration.
type Stage struct {
	Scene      *scene.Scene
	ClearColor uint32

	spin  float64
	roots []root
	fits  []fitted
	log   *zap.Logger

	textures chan loadedTexture
	pending  sync.WaitGroup
}

// root is the top of one object's transform chain and its configured pose.
type root struct {
	t          *scene.Transform
	rotX, rotY float64
}

// fitted remembers the transforms to recompute when the framebuffer resizes.
type fitted struct {
	model       *models.Model
	center, top *scene.Transform
}

type loadedTexture struct {
	dst  *render.Texture
	src  *render.Texture
	path string
	err  error
}

// loadedModel is one model file and its embedded base color image, if any.
type loadedModel struct {
	model    *models.Model
	embedded image.Image
}

// Build loads every configured model and starts loading textures. Models
// are read concurrently; a file that fails to load fails the build.
// Texture images are applied by Frame once they arrive.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stage, error) {
	if log == nil {
		log = zap.NewNop()
	}

	clearColor, err := config.ParseColor(cfg.Render.ClearColor)
	if err != nil {
		return nil, err
	}
	light, err := NewLight(cfg.Light)
	if err != nil {
		return nil, err
	}

	r := render.NewRenderer(render.NewFramebuffer(cfg.Render.Width, cfg.Render.Height), light)
	r.DisableBackfaceCulling = !cfg.Render.Culling

	mode := scene.ModeShaded
	if cfg.Render.Mode == "wireframe" {
		mode = scene.ModeWireframe
	}
	sc := scene.NewScene(r, scene.WithLogger(log.Named("scene")), scene.WithMode(mode))
	sc.ShowBounds = cfg.Render.ShowBounds
	sc.SkipOffscreen = cfg.Render.SkipOffscreen

	s := &Stage{
		Scene:      sc,
		ClearColor: clearColor,
		spin:       cfg.Animation.SpinSpeed,
		log:        log,
		textures:   make(chan loadedTexture, max(1, len(cfg.Objects))),
	}

	loaded, err := loadModels(ctx, cfg.Objects)
	if err != nil {
		return nil, err
	}

	wrap := render.WrapClamp
	if cfg.Texture.Wrap == "repeat" {
		wrap = render.WrapRepeat
	}
	texByPath := make(map[string]*render.Texture)

	if len(cfg.Objects) == 0 {
		log.Info("no objects configured, showing a cube")
		tex := CheckerTexture()
		tex.Wrap = wrap
		s.addFitted(models.NewCube(1), tex)
		return s, nil
	}

	for _, oc := range cfg.Objects {
		lm := loaded[oc.Model]

		var tex *render.Texture
		switch {
		case oc.Texture != "":
			tex = texByPath[oc.Texture]
			if tex == nil {
				tex = render.NewSolidTexture(render.Unpack(PlaceholderColor))
				texByPath[oc.Texture] = tex
				s.loadTexture(ctx, tex, oc.Texture, cfg.Texture.MaxSize)
			}
		case lm.embedded != nil:
			tex = render.ScaledTextureFromImage(lm.embedded, cfg.Texture.MaxSize)
		default:
			tex = CheckerTexture()
		}
		tex.Wrap = wrap

		if oc.Fit || len(oc.Transforms) == 0 {
			s.addFitted(lm.model, tex)
			continue
		}
		leaf, top := Chain(oc.Transforms)
		s.roots = append(s.roots, root{t: top, rotX: top.RotationX, rotY: top.RotationY})
		sc.Push(scene.NewRenderObject(tex, lm.model, leaf))
	}

	log.Info("stage built",
		zap.Int("objects", len(sc.Objects())),
		zap.Int("models", len(loaded)),
		zap.Int("textures", len(texByPath)))
	return s, nil
}

// loadModels reads each distinct model path once, in parallel.
func loadModels(ctx context.Context, objects []config.ObjectConfig) (map[string]loadedModel, error) {
	var mu sync.Mutex
	out := make(map[string]loadedModel)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	seen := make(map[string]bool)
	for _, o := range objects {
		if seen[o.Model] {
			continue
		}
		seen[o.Model] = true
		path := o.Model
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, img, err := LoadModel(path)
			if err != nil {
				return err
			}
			mu.Lock()
			out[path] = loadedModel{model: m, embedded: img}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadModel loads an OBJ or glTF/GLB file chosen by extension. For glTF
// files the first base color texture is returned as well, or nil.
func LoadModel(path string) (*models.Model, image.Image, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		m, err := models.LoadOBJ(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
		return m, nil, nil
	case ".glb", ".gltf":
		m, img, err := models.LoadGLTFWithTexture(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
		return m, img, nil
	default:
		return nil, nil, fmt.Errorf("%s: %w (use .obj, .gltf or .glb)", path, ErrUnsupportedFormat)
	}
}

// loadTexture decodes path in the background. The result is applied to dst
// on the drawing goroutine by Frame.
func (s *Stage) loadTexture(ctx context.Context, dst *render.Texture, path string, maxSize int) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		src, err := render.LoadTexture(path, maxSize)
		select {
		case s.textures <- loadedTexture{dst: dst, src: src, path: path, err: err}:
		case <-ctx.Done():
		}
	}()
}

// applyTextures swaps in every texture that has finished loading.
func (s *Stage) applyTextures() {
	for {
		select {
		case lt := <-s.textures:
			s.applyTexture(lt)
		default:
			return
		}
	}
}

func (s *Stage) applyTexture(lt loadedTexture) {
	if lt.err != nil {
		s.log.Warn("texture failed to load, using checkerboard",
			zap.String("path", lt.path), zap.Error(lt.err))
		lt.src = CheckerTexture()
	}
	if err := lt.dst.Update(lt.src.Width, lt.src.Height, lt.src.Pixels); err != nil {
		s.log.Error("texture update", zap.String("path", lt.path), zap.Error(err))
		return
	}
	s.log.Debug("texture loaded", zap.String("path", lt.path),
		zap.Int("width", lt.src.Width), zap.Int("height", lt.src.Height))
}

// WaitTextures blocks until every texture load has finished and applies
// the results.
func (s *Stage) WaitTextures(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	for {
		select {
		case lt := <-s.textures:
			s.applyTexture(lt)
		case <-done:
			s.applyTextures()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Animate poses every root transform for time t since start. Each root
// spins about Y at the configured speed; pitch and yaw are added on top.
func (s *Stage) Animate(t time.Duration, pitch, yaw float64) {
	angle := s.spin * t.Seconds()
	for _, r := range s.roots {
		r.t.RotationX = r.rotX + pitch
		r.t.RotationY = r.rotY + angle + yaw
	}
}

// Frame applies loaded textures and draws one frame.
func (s *Stage) Frame() {
	s.applyTextures()
	s.Scene.Draw(s.ClearColor)
}

// Framebuffer returns the framebuffer the stage draws into.
func (s *Stage) Framebuffer() *render.Framebuffer {
	return s.Scene.Renderer().Framebuffer()
}

// Resize changes the framebuffer size and refits fitted models.
func (s *Stage) Resize(width, height int) {
	r := s.Scene.Renderer()
	if width == r.Width() && height == r.Height() {
		return
	}
	r.Resize(width, height)
	for _, f := range s.fits {
		fit(f.model, width, height, f.center, f.top)
	}
}

// addFitted pushes m centered in the framebuffer and scaled to fill it.
func (s *Stage) addFitted(m *models.Model, tex *render.Texture) {
	r := s.Scene.Renderer()
	center, top := FitTransform(m, r.Width(), r.Height())
	s.fits = append(s.fits, fitted{model: m, center: center, top: top})
	s.roots = append(s.roots, root{t: top, rotX: top.RotationX, rotY: top.RotationY})
	s.Scene.Push(scene.NewRenderObject(tex, m, center))
}

// Chain builds a transform chain from configuration. The first entry is the
// leaf; each following entry is the parent of the one before it.
func Chain(links []config.TransformConfig) (leaf, top *scene.Transform) {
	var parent *scene.Transform
	for i := len(links) - 1; i >= 0; i-- {
		l := links[i]
		sc := l.ScaleOrOne()
		parent = scene.NewTransform(
			l.Position[0], l.Position[1], l.Position[2],
			l.Rotation[0], l.Rotation[1], l.Rotation[2],
			sc[0], sc[1], sc[2],
			parent)
		if top == nil {
			top = parent
		}
	}
	if parent == nil {
		parent = scene.Empty(nil)
		top = parent
	}
	return parent, top
}

// FitTransform returns a two-link chain that shows a Y-up model upright in
// the middle of a width x height framebuffer, facing the viewer, filling
// FitFraction of the shorter side. center moves the model's bounding box
// center to the origin; top scales, turns and places it.
func FitTransform(m *models.Model, width, height int) (center, top *scene.Transform) {
	top = scene.Empty(nil)
	center = scene.Empty(top)
	fit(m, width, height, center, top)
	return center, top
}

func fit(m *models.Model, width, height int, center, top *scene.Transform) {
	c := m.Center()
	center.X, center.Y, center.Z = -c.X, -c.Y, -c.Z

	size := m.Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	s := 1.0
	if extent > 0 {
		s = FitFraction * float64(min(width, height)) / extent
	}
	top.X, top.Y = float64(width)/2, float64(height)/2
	top.ScaleX, top.ScaleY, top.ScaleZ = s, s, s
	// Half a turn about Z flips Y to point down the screen while keeping
	// the winding, so front faces stay front facing.
	top.RotationZ = math.Pi
}

// NewLight builds a Phong light from configuration.
func NewLight(lc config.LightConfig) (*render.PhongLight, error) {
	color, err := config.ParseColor(lc.Color)
	if err != nil {
		return nil, err
	}
	d := math3d.V3(lc.Direction[0], lc.Direction[1], lc.Direction[2])
	return render.NewPhongLight(d, color&0x00ffffff, lc.Ambient, lc.Diffuse, lc.Exponent, lc.Multiplier), nil
}

// CheckerTexture returns the gray checkerboard used when a model has no texture.
func CheckerTexture() *render.Texture {
	return render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
}
