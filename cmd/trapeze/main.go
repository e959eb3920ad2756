// trapeze - Terminal viewer for the trapeze software rasterizer.
// Draws OBJ and glTF models into a framebuffer and shows it with half-block
// characters, two pixels per cell.
//
// Controls:
//
//	Mouse drag  - Rotate model
//	W/S/A/D     - Pitch and yaw
//	Space       - Random spin
//	R           - Reset rotation
//	X           - Toggle wireframe
//	B           - Toggle bounding boxes
//	C           - Toggle back-face culling
//	?           - Toggle HUD
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/trapeze/internal/config"
	"github.com/taigrr/trapeze/internal/logger"
	"github.com/taigrr/trapeze/internal/spin"
	"github.com/taigrr/trapeze/internal/stage"
	"github.com/taigrr/trapeze/pkg/scene"
)

func main() {
	fs := flag.CommandLine
	flags := config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "trapeze - terminal software rasterizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: trapeze [options] [model.obj|model.glb ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset rotation\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  B           - Toggle bounding boxes\n")
		fmt.Fprintf(os.Stderr, "  C           - Toggle back-face culling\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flags.AddModels(cfg, fs.Args())
	if path, err := flags.Persist(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	} else if path != "" {
		fmt.Fprintf(os.Stderr, "Saved config to %s\n", path)
	}

	// Console output would corrupt the screen, so only the file is written.
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, false); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Error("viewer stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// hud shows frame statistics on the top terminal row.
type hud struct {
	show   bool
	fps    float64
	frames int
	since  time.Time
}

// tick counts a frame and refreshes the FPS estimate once a second.
func (h *hud) tick(now time.Time) {
	h.frames++
	if elapsed := now.Sub(h.since); elapsed >= time.Second {
		h.fps = float64(h.frames) / elapsed.Seconds()
		h.frames = 0
		h.since = now
	}
}

func (h *hud) text(sc *scene.Scene) string {
	st := sc.Stats()
	return fmt.Sprintf("\x1b[40;92m %.0f FPS \x1b[97m %s  %d tris  %d culled  %d px \x1b[0m",
		h.fps, sc.Mode(), st.Render.TrianglesDrawn, st.Render.TrianglesCulled, st.Render.PixelsWritten)
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("terminal")

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	// One cell shows two framebuffer rows.
	cfg.Render.Width, cfg.Render.Height = width, height*2
	st, err := stage.Build(ctx, cfg, logger.Log)
	if err != nil {
		return err
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(width, height); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}
	fmt.Fprint(os.Stdout, "\x1b[?1002h") // Button-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1002l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}()

	rot := spin.New(cfg.Render.FPS)
	h := &hud{since: time.Now()}
	frame := uv.DrawableFunc(func(scr uv.Screen, area uv.Rectangle) {
		st.Framebuffer().Draw(scr, area)
		if h.show {
			uv.NewStyledString(h.text(st.Scene)).Draw(scr, uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1))
		}
	})

	var dragging bool
	var lastX, lastY int
	const keyImpulse = 0.02

	start := time.Now()
	target := time.Second / time.Duration(cfg.Render.FPS)
	log.Info("viewer started",
		zap.Int("width", cfg.Render.Width),
		zap.Int("height", cfg.Render.Height),
		zap.Int("objects", len(st.Scene.Objects())))

	for {
		now := time.Now()

	events:
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-term.Events():
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					width, height = ev.Width, ev.Height
					term.Erase()
					if err := term.Resize(width, height); err != nil {
						return fmt.Errorf("resize terminal: %w", err)
					}
					st.Resize(width, height*2)
					log.Debug("resized", zap.Int("cols", width), zap.Int("rows", height))

				case uv.KeyPressEvent:
					switch {
					case ev.MatchString("escape", "ctrl+c"):
						return nil
					case ev.MatchString("w", "up"):
						rot.Impulse(-keyImpulse, 0)
					case ev.MatchString("s", "down"):
						rot.Impulse(keyImpulse, 0)
					case ev.MatchString("a", "left"):
						rot.Impulse(0, -keyImpulse)
					case ev.MatchString("d", "right"):
						rot.Impulse(0, keyImpulse)
					case ev.MatchString("space"):
						rot.Impulse((rand.Float64()-0.5)*0.3, (rand.Float64()-0.5)*0.3)
					case ev.MatchString("r"):
						rot.Reset()
					case ev.MatchString("x"):
						if st.Scene.Mode() == scene.ModeWireframe {
							st.Scene.SetMode(scene.ModeShaded)
						} else {
							st.Scene.SetMode(scene.ModeWireframe)
						}
					case ev.MatchString("b"):
						st.Scene.ShowBounds = !st.Scene.ShowBounds
					case ev.MatchString("c"):
						r := st.Scene.Renderer()
						r.DisableBackfaceCulling = !r.DisableBackfaceCulling
					case ev.MatchString("?", "shift+/"):
						h.show = !h.show
					}

				case uv.MouseClickEvent:
					dragging = true
					lastX, lastY = ev.X, ev.Y

				case uv.MouseReleaseEvent:
					dragging = false

				case uv.MouseMotionEvent:
					if dragging {
						rot.Impulse(float64(ev.Y-lastY)*0.01, float64(ev.X-lastX)*0.01)
						lastX, lastY = ev.X, ev.Y
					}
				}
			default:
				break events
			}
		}

		rot.Update()
		st.Animate(now.Sub(start), rot.Pitch.Position, rot.Yaw.Position)
		st.Frame()
		h.tick(now)

		term.Draw(frame)
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		if elapsed := time.Since(now); elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}
