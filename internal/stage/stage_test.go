package stage

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taigrr/trapeze/internal/config"
	"github.com/taigrr/trapeze/pkg/math3d"
	"github.com/taigrr/trapeze/pkg/models"
)

const quadOBJ = `# unit quad facing +Z
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Render.Width, cfg.Render.Height = 64, 64
	return cfg
}

func TestBuildDefaultCube(t *testing.T) {
	s, err := Build(context.Background(), smallConfig(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n := len(s.Scene.Objects()); n != 1 {
		t.Fatalf("got %d objects, want the demo cube", n)
	}

	s.Animate(500*time.Millisecond, 0.3, 0)
	s.Frame()

	st := s.Scene.Stats()
	if st.Render.TrianglesSubmitted != 12 {
		t.Errorf("TrianglesSubmitted = %d, want 12", st.Render.TrianglesSubmitted)
	}
	if st.Render.PixelsWritten == 0 {
		t.Error("cube wrote no pixels")
	}
}

func TestBuildSharesModelsAndTextures(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "quad.obj", quadOBJ)
	tex := writePNG(t, dir, "red.png", color.RGBA{255, 0, 0, 255})

	cfg := smallConfig()
	cfg.Objects = []config.ObjectConfig{
		{Model: model, Texture: tex, Fit: true},
		{Model: model, Texture: tex, Transforms: config.DisplayChain(10)},
	}

	s, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	objs := s.Scene.Objects()
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}
	if objs[0].Model != objs[1].Model {
		t.Error("objects loading the same file should share a model")
	}
	if objs[0].Texture != objs[1].Texture {
		t.Error("objects naming the same image should share a texture")
	}

	shared := objs[0].Texture
	if shared.Width != 1 || shared.Pixels[0] != PlaceholderColor {
		t.Errorf("texture before load = %dx%d %#x, want 1x1 placeholder", shared.Width, shared.Height, shared.Pixels[0])
	}

	if err := s.WaitTextures(context.Background()); err != nil {
		t.Fatal(err)
	}
	if shared.Width != 2 || shared.Height != 2 {
		t.Errorf("texture after load = %dx%d, want 2x2", shared.Width, shared.Height)
	}

	s.Frame()
	c := s.Framebuffer().GetPixel(32, 32)
	if c.R == 0 || c.G != 0 {
		t.Errorf("center pixel = %v, want lit red", c)
	}
}

func TestMissingTextureFallsBack(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "quad.obj", quadOBJ)

	core, logs := observer.New(zap.WarnLevel)
	cfg := smallConfig()
	cfg.Objects = []config.ObjectConfig{{Model: model, Texture: filepath.Join(dir, "missing.png")}}

	s, err := Build(context.Background(), cfg, zap.New(core))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := s.WaitTextures(context.Background()); err != nil {
		t.Fatal(err)
	}

	tex := s.Scene.Objects()[0].Texture
	if tex.Width != 64 || tex.Height != 64 {
		t.Errorf("fallback texture = %dx%d, want 64x64 checker", tex.Width, tex.Height)
	}
	if logs.FilterMessage("texture failed to load, using checkerboard").Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		model string
		want  error
	}{
		{"unsupported", writeFile(t, dir, "mesh.stl", "solid"), ErrUnsupportedFormat},
		{"missing obj", filepath.Join(dir, "nope.obj"), os.ErrNotExist},
		{"broken obj", writeFile(t, dir, "bad.obj", "v 1 2\n"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Objects = []config.ObjectConfig{{Model: tt.model}}
			_, err := Build(context.Background(), cfg, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChain(t *testing.T) {
	leaf, top := Chain(config.DisplayChain(25))

	if top.Parent() != nil {
		t.Error("top of the chain should be a root")
	}
	if leaf.Parent() == nil || leaf.Parent().Parent() != top {
		t.Fatal("chain should have three links from leaf to top")
	}
	if top.X != 450 || top.Y != 800 {
		t.Errorf("top position = %v, %v; want 450, 800", top.X, top.Y)
	}
	if leaf.RotationX != math.Pi/2 || leaf.RotationZ != math.Pi {
		t.Errorf("leaf rotation = %v, %v; want pi/2, pi", leaf.RotationX, leaf.RotationZ)
	}

	// Model up (+Z) ends up pointing up the screen (-Y).
	m := leaf.Matrix()
	up := m.MulVec3(math3d.V3(0, 0, 1)).Sub(m.MulVec3(math3d.Zero3()))
	if up.Y >= 0 || math.Abs(up.X) > 1e-9 {
		t.Errorf("model +Z maps to %v, want straight up the screen", up)
	}
}

func TestChainEmpty(t *testing.T) {
	leaf, top := Chain(nil)
	if leaf != top || leaf.Matrix() != math3d.Identity() {
		t.Error("empty chain should be a single identity transform")
	}
}

func TestFitTransform(t *testing.T) {
	m := models.NewCube(4)
	center, _ := FitTransform(m, 100, 60)

	got := center.Matrix().MulVec3(m.Center())
	if math.Abs(got.X-50) > 1e-9 || math.Abs(got.Y-30) > 1e-9 {
		t.Errorf("model center maps to %v, want (50, 30)", got)
	}

	// 0.8 of the shorter side across the 4-unit cube.
	top := center.Matrix().MulVec3(math3d.V3(0, 2, 0))
	if math.Abs(top.Y-(30-24)) > 1e-9 {
		t.Errorf("model top maps to y=%v, want %v", top.Y, 30-24)
	}
}

func TestAnimateAndResize(t *testing.T) {
	cfg := smallConfig()
	cfg.Animation.SpinSpeed = 2
	s, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	s.Animate(1500*time.Millisecond, 0.25, 0.5)
	top := s.roots[0].t
	if top.RotationY != 3.5 || top.RotationX != 0.25 {
		t.Errorf("rotation = %v, %v; want 0.25, 3.5", top.RotationX, top.RotationY)
	}

	s.Resize(200, 100)
	if fb := s.Framebuffer(); fb.Width != 200 || fb.Height != 100 {
		t.Errorf("framebuffer = %dx%d, want 200x100", fb.Width, fb.Height)
	}
	if top.X != 100 || top.Y != 50 {
		t.Errorf("refit center = %v, %v; want 100, 50", top.X, top.Y)
	}
}

func TestNewLight(t *testing.T) {
	lc := config.Default().Light
	lc.Color = "#ff8000"
	l, err := NewLight(lc)
	if err != nil {
		t.Fatal(err)
	}
	if l.Color() != 0x000080ff {
		t.Errorf("light color = %#x, want 0x000080ff", l.Color())
	}
	if d := l.Direction(); math.Abs(d.X-0.8) > 1e-6 || math.Abs(d.Z-0.6) > 1e-6 {
		t.Errorf("direction = %v, want normalized (0.8, 0, 0.6)", d)
	}
}
