// trapeze-window shows the software rasterizer in a desktop window.
// The framebuffer is drawn on the CPU and uploaded once per frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/taigrr/trapeze/internal/config"
	"github.com/taigrr/trapeze/internal/logger"
	"github.com/taigrr/trapeze/internal/spin"
	"github.com/taigrr/trapeze/internal/stage"
	"github.com/taigrr/trapeze/pkg/scene"
)

// errQuit ends the game loop without reporting a failure.
var errQuit = errors.New("quit")

type game struct {
	st    *stage.Stage
	rot   *spin.State
	start time.Time
	log   *zap.Logger

	img     *ebiten.Image
	pix     []byte
	showHUD bool

	dragging     bool
	lastX, lastY int
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}

	const keyImpulse = 0.01
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		g.rot.Impulse(-keyImpulse, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		g.rot.Impulse(keyImpulse, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		g.rot.Impulse(0, -keyImpulse)
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		g.rot.Impulse(0, keyImpulse)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.rot.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		sc := g.st.Scene
		if sc.Mode() == scene.ModeWireframe {
			sc.SetMode(scene.ModeShaded)
		} else {
			sc.SetMode(scene.ModeWireframe)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.st.Scene.ShowBounds = !g.st.Scene.ShowBounds
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		r := g.st.Scene.Renderer()
		r.DisableBackfaceCulling = !r.DisableBackfaceCulling
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.dragging = true
	case g.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.rot.Impulse(float64(y-g.lastY)*0.002, float64(x-g.lastX)*0.002)
	default:
		g.dragging = false
	}
	g.lastX, g.lastY = x, y

	g.rot.Update()
	g.st.Animate(time.Since(g.start), g.rot.Pitch.Position, g.rot.Yaw.Position)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.st.Frame()

	fb := g.st.Framebuffer()
	if g.img == nil || g.img.Bounds().Dx() != fb.Width || g.img.Bounds().Dy() != fb.Height {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(fb.Width, fb.Height)
		g.pix = make([]byte, fb.Width*fb.Height*4)
	}
	fb.WriteRGBA(g.pix)
	g.img.WritePixels(g.pix)
	screen.DrawImage(g.img, nil)

	if g.showHUD {
		stats := g.st.Scene.Stats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf("%.0f FPS  %s\n%d tris  %d culled  %d px",
			ebiten.ActualFPS(), g.st.Scene.Mode(),
			stats.Render.TrianglesDrawn, stats.Render.TrianglesCulled, stats.Render.PixelsWritten))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	fb := g.st.Framebuffer()
	return fb.Width, fb.Height
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flags.AddModels(cfg, flag.Args())
	if path, err := flags.Persist(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	} else if path != "" {
		fmt.Fprintf(os.Stderr, "Saved config to %s\n", path)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	st, err := stage.Build(context.Background(), cfg, logger.Log)
	if err != nil {
		logger.Log.Error("build stage", zap.Error(err))
		os.Exit(1)
	}

	g := &game{
		st:      st,
		rot:     spin.New(cfg.Render.FPS),
		start:   time.Now(),
		log:     logger.Named("window"),
		showHUD: true,
	}

	ebiten.SetWindowTitle("trapeze")
	ebiten.SetWindowSize(cfg.Render.Width, cfg.Render.Height)
	ebiten.SetTPS(cfg.Render.FPS)

	g.log.Info("window opened", zap.Int("width", cfg.Render.Width), zap.Int("height", cfg.Render.Height))
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		g.log.Error("game loop", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
