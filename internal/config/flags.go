package config

import (
	"flag"
	"fmt"
	"path/filepath"
)

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	ConfigPath string
	Debug      bool
	Width      int
	Height     int
	FPS        int
	Texture    string
	Wireframe  bool
	NoCull     bool
	LogFile    string
	SaveConfig bool
	ChainScale float64
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Width, "width", 0, "Framebuffer width")
	fs.IntVar(&f.Height, "height", 0, "Framebuffer height")
	fs.IntVar(&f.FPS, "fps", 0, "Target FPS")
	fs.StringVar(&f.Texture, "texture", "", "Texture image for models given as arguments")
	fs.BoolVar(&f.Wireframe, "wireframe", false, "Start in wireframe mode")
	fs.BoolVar(&f.NoCull, "no-cull", false, "Disable back-face culling")
	fs.StringVar(&f.LogFile, "log", "", "Log file path")
	fs.BoolVar(&f.SaveConfig, "save-config", false, "Write the effective config to the user config directory")
	fs.Float64Var(&f.ChainScale, "chain-scale", 0, "Place models given as arguments with the 900x900 display chain at this scale instead of fitting them")
	return f
}

// AddModels appends one object per path, all using the -texture flag.
// Objects are fitted to the framebuffer unless -chain-scale is set, in
// which case they get DisplayChain at that scale.
func (f *Flags) AddModels(cfg *Config, paths []string) {
	for _, p := range paths {
		o := ObjectConfig{Model: p, Texture: f.Texture, Fit: true}
		if f.ChainScale > 0 {
			o.Fit = false
			o.Transforms = DisplayChain(f.ChainScale)
		}
		cfg.Objects = append(cfg.Objects, o)
	}
}

// Persist saves cfg when -save-config is set and returns the path written,
// or "" when nothing was saved.
func (f *Flags) Persist(cfg *Config) (string, error) {
	if !f.SaveConfig {
		return "", nil
	}
	path := filepath.Join(ConfigDir(), "config.yaml")
	if err := cfg.Save(); err != nil {
		return "", fmt.Errorf("save config to %s: %w", path, err)
	}
	return path, nil
}

// apply copies set flags over cfg.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Width > 0 {
		cfg.Render.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Render.Height = f.Height
	}
	if f.FPS > 0 {
		cfg.Render.FPS = f.FPS
	}
	if f.Wireframe {
		cfg.Render.Mode = "wireframe"
	}
	if f.NoCull {
		cfg.Render.Culling = false
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
