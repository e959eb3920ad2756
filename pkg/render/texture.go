package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"

	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// WrapMode determines how texture coordinates outside [0,1) are handled.
type WrapMode int

const (
	WrapClamp  WrapMode = iota // Clamp to edge
	WrapRepeat                 // Tile the texture
)

// ErrEmptyTexture is returned when a texture would have no pixels.
var ErrEmptyTexture = errors.New("texture has no pixels")

// Texture holds a 2D image for texture mapping.
type Texture struct {
	Width  int
	Height int
	Pixels []uint32 // Row-major packed pixel data
	Wrap   WrapMode
}

// NewTexture creates a texture of the given size filled with transparent black.
// Sizes below 1 are raised to 1 so that sampling is always defined.
func NewTexture(width, height int) *Texture {
	width = max(width, 1)
	height = max(height, 1)
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
	}
}

// NewSolidTexture creates a 1x1 texture of one color.
// Useful as a placeholder while the real image loads.
func NewSolidTexture(c Color) *Texture {
	t := NewTexture(1, 1)
	t.Pixels[0] = Pack(c)
	return t
}

// LoadTexture loads a texture from an image file.
// If maxSize is positive, images larger than maxSize on either side are
// downscaled to fit while keeping their aspect ratio.
func LoadTexture(path string, maxSize int) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()
	return DecodeTexture(f, maxSize)
}

// DecodeTexture decodes a texture from any registered image format
// (PNG, JPEG, BMP, TIFF, WebP).
func DecodeTexture(r io.Reader, maxSize int) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return ScaledTextureFromImage(img, maxSize), nil
}

// ScaledTextureFromImage creates a texture from img, downscaled so neither
// side exceeds maxSize. A maxSize of 0 keeps the original size.
func ScaledTextureFromImage(img image.Image, maxSize int) *Texture {
	return TextureFromImage(fitImage(img, maxSize))
}

// fitImage downscales img so neither side exceeds maxSize.
func fitImage(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	return transform.Resize(img, w, h, transform.Linear)
}

// TextureFromImage creates a texture from an image.Image.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex := NewTexture(width, height)

	for y := range height {
		for x := range width {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := c.RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			tex.Pixels[y*tex.Width+x] = Pack(Color{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			})
		}
	}

	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	checkSize = max(checkSize, 1)
	p1, p2 := Pack(c1), Pack(c2)
	for y := range tex.Height {
		for x := range tex.Width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.Pixels[y*tex.Width+x] = p1
			} else {
				tex.Pixels[y*tex.Width+x] = p2
			}
		}
	}
	return tex
}

// Update replaces the texture contents in place, so every object sharing
// the texture sees the new image on the next frame.
func (t *Texture) Update(width, height int, pixels []uint32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("update %dx%d: %w", width, height, ErrEmptyTexture)
	}
	if len(pixels) < width*height {
		return fmt.Errorf("update %dx%d: got %d pixels, want %d", width, height, len(pixels), width*height)
	}
	t.Width = width
	t.Height = height
	t.Pixels = pixels[:width*height]
	return nil
}

// GetPixel returns the packed pixel at normalized coordinates (u, v).
// Column is floor(u*Width), row is floor(v*Height); no V flip is applied.
func (t *Texture) GetPixel(u, v float32) uint32 {
	col := t.wrap(int(math32.Floor(u*float32(t.Width))), t.Width)
	row := t.wrap(int(math32.Floor(v*float32(t.Height))), t.Height)
	return t.Pixels[row*t.Width+col]
}

// wrap maps a pixel coordinate into [0, size).
func (t *Texture) wrap(x, size int) int {
	if t.Wrap == WrapRepeat {
		x %= size
		if x < 0 {
			x += size
		}
		return x
	}
	if x < 0 {
		return 0
	}
	if x >= size {
		return size - 1
	}
	return x
}
