// trapeze-snap renders frames without a display, reports how long they
// took and saves the last one as a PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/taigrr/trapeze/internal/config"
	"github.com/taigrr/trapeze/internal/logger"
	"github.com/taigrr/trapeze/internal/stage"
)

var (
	frames   = flag.Int("frames", 1000, "Number of frames to render")
	outPath  = flag.String("out", "trapeze.png", "PNG file for the last frame (empty to skip)")
	outScale = flag.Float64("scale", 1, "Scale factor applied to the saved image")
	step     = flag.Duration("step", time.Second/60, "Animation time between frames")
)

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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Error("snapshot failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("snap")

	st, err := stage.Build(ctx, cfg, logger.Log)
	if err != nil {
		return err
	}
	if err := st.WaitTextures(ctx); err != nil {
		return err
	}

	var total, worst time.Duration
	n := 0
	for i := range *frames {
		if ctx.Err() != nil {
			log.Warn("interrupted", zap.Int("frames", n))
			break
		}
		if i%100 == 0 {
			log.Info("iteration", zap.Int("frame", i))
		}

		st.Animate(time.Duration(i)*(*step), 0, 0)
		t := time.Now()
		st.Frame()
		d := time.Since(t)

		total += d
		worst = max(worst, d)
		n++
	}

	if n > 0 {
		avg := total / time.Duration(n)
		stats := st.Scene.Stats()
		log.Info("done",
			zap.Int("frames", n),
			zap.Duration("total", total),
			zap.Duration("avg", avg),
			zap.Duration("worst", worst),
			zap.Float64("fps", float64(time.Second)/float64(avg)),
			zap.Int("triangles", stats.Render.TrianglesDrawn),
			zap.Int("culled", stats.Render.TrianglesCulled),
			zap.Int("pixels", stats.Render.PixelsWritten),
			zap.Int("scratch_growths", st.Scene.ScratchGrowths()))
	}

	if *outPath == "" {
		return nil
	}
	if err := savePNG(st.Framebuffer().ToImage(), *outPath, *outScale); err != nil {
		return err
	}
	log.Info("saved", zap.String("path", *outPath))
	return nil
}

// savePNG writes img to path, resampled by scale when it is not 1.
func savePNG(img image.Image, path string, scale float64) error {
	if scale > 0 && scale != 1 {
		b := img.Bounds()
		w := max(1, int(float64(b.Dx())*scale))
		h := max(1, int(float64(b.Dy())*scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
