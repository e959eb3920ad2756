// Package config loads viewer settings from YAML and command-line flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Light     LightConfig     `yaml:"light"`
	Texture   TextureConfig   `yaml:"texture"`
	Animation AnimationConfig `yaml:"animation"`
	Objects   []ObjectConfig  `yaml:"objects"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RenderConfig holds framebuffer and frame loop settings.
type RenderConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	ClearColor string `yaml:"clear_color"` // "#rrggbb"
	FPS        int    `yaml:"fps"`
	Culling    bool   `yaml:"culling"`
	Mode       string `yaml:"mode"` // "shaded" or "wireframe"
	ShowBounds bool   `yaml:"show_bounds"`

	// SkipOffscreen drops objects whose bounds miss the screen.
	SkipOffscreen bool `yaml:"skip_offscreen"`
}

// LightConfig describes the Phong light.
type LightConfig struct {
	Direction  [3]float64 `yaml:"direction"`
	Color      string     `yaml:"color"` // "#rrggbb"
	Ambient    float32    `yaml:"ambient"`
	Diffuse    float32    `yaml:"diffuse"`
	Exponent   float32    `yaml:"exponent"`
	Multiplier float32    `yaml:"multiplier"`
}

// TextureConfig controls how texture images are loaded and sampled.
type TextureConfig struct {
	MaxSize int    `yaml:"max_size"` // 0 keeps the original size
	Wrap    string `yaml:"wrap"`     // "clamp" or "repeat"
}

// AnimationConfig controls the per-frame spin of each object's root transform.
type AnimationConfig struct {
	SpinSpeed float64 `yaml:"spin_speed"` // Radians per second about Y
}

// ObjectConfig places one model in the scene.
type ObjectConfig struct {
	Model   string `yaml:"model"`
	Texture string `yaml:"texture"` // Empty uses an embedded or checker texture
	// Transforms lists the object's own transform first, then each parent.
	// The last entry is the root and is the one that spins.
	Transforms []TransformConfig `yaml:"transforms"`
	// Fit scales and centers the model to fill the framebuffer, replacing
	// Transforms.
	Fit bool `yaml:"fit"`
}

// TransformConfig is one link of a transform chain.
type TransformConfig struct {
	Position [3]float64  `yaml:"position"`
	Rotation [3]float64  `yaml:"rotation"` // Radians
	Scale    *[3]float64 `yaml:"scale"`    // Omitted means 1, 1, 1
}

// ScaleOrOne returns the scale, defaulting to unit scale.
func (t TransformConfig) ScaleOrOne() [3]float64 {
	if t.Scale == nil {
		return [3]float64{1, 1, 1}
	}
	return *t.Scale
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock 900x900 view and light.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:      900,
			Height:     900,
			ClearColor: "#000000",
			FPS:        60,
			Culling:    true,
			Mode:       "shaded",
		},
		Light: LightConfig{
			Direction:  [3]float64{0.4, 0, 0.3},
			Color:      "#ffffff",
			Ambient:    0.1,
			Diffuse:    0.6,
			Exponent:   20,
			Multiplier: 1,
		},
		Texture: TextureConfig{
			MaxSize: 1024,
			Wrap:    "clamp",
		},
		Animation: AnimationConfig{
			SpinSpeed: 1.0 / 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DisplayChain returns the transform chain that stands a Y-up model
// upright in a 900x900 frame, with its base near the bottom edge.
func DisplayChain(scale float64) []TransformConfig {
	s := [3]float64{scale, scale, scale}
	return []TransformConfig{
		{Rotation: [3]float64{math.Pi / 2, 0, math.Pi}},
		{Scale: &s},
		{Position: [3]float64{450, 800, 0}},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render size %dx%d: %w", c.Render.Width, c.Render.Height, ErrInvalid)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render fps %d: %w", c.Render.FPS, ErrInvalid)
	}
	if _, err := ParseColor(c.Render.ClearColor); err != nil {
		return fmt.Errorf("render clear_color: %w", err)
	}
	switch c.Render.Mode {
	case "shaded", "wireframe":
	default:
		return fmt.Errorf("render mode %q: %w", c.Render.Mode, ErrInvalid)
	}
	if _, err := ParseColor(c.Light.Color); err != nil {
		return fmt.Errorf("light color: %w", err)
	}
	if d := c.Light.Direction; d[0] == 0 && d[1] == 0 && d[2] == 0 {
		return fmt.Errorf("light direction is zero: %w", ErrInvalid)
	}
	switch c.Texture.Wrap {
	case "clamp", "repeat":
	default:
		return fmt.Errorf("texture wrap %q: %w", c.Texture.Wrap, ErrInvalid)
	}
	if c.Texture.MaxSize < 0 {
		return fmt.Errorf("texture max_size %d: %w", c.Texture.MaxSize, ErrInvalid)
	}
	for i, o := range c.Objects {
		if o.Model == "" {
			return fmt.Errorf("object %d has no model: %w", i, ErrInvalid)
		}
		for j, t := range o.Transforms {
			s := t.ScaleOrOne()
			if s[0] == 0 || s[1] == 0 || s[2] == 0 {
				return fmt.Errorf("object %d transform %d has zero scale: %w", i, j, ErrInvalid)
			}
		}
	}
	return nil
}

// ParseColor parses "#rrggbb" (the "#" is optional) into a packed opaque
// pixel 0xffBBGGRR.
func ParseColor(s string) (uint32, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return 0, fmt.Errorf("color %q: want #rrggbb: %w", s, ErrInvalid)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, ErrInvalid)
	}
	r, g, b := uint32(v>>16)&0xff, uint32(v>>8)&0xff, uint32(v)&0xff
	return 0xff000000 | b<<16 | g<<8 | r, nil
}
