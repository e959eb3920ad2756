// Package render provides the software triangle rasterizer, its pixel and
// depth buffers, textures and the Phong light model.
package render

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
)

// Framebuffer is a row-major buffer of packed 32-bit pixels.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []uint32 // Packed 0xAABBGGRR
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// For terminal display the height should be 2x the terminal rows.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
	}
}

// Clear fills the framebuffer with a packed pixel value.
func (fb *Framebuffer) Clear(p uint32) {
	// Use copy-doubling for faster clearing
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	fb.Pixels[0] = p
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
	}
}

// SetPixel sets a pixel at (x, y) to the given packed value.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, p uint32) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = p
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return Color{}
	}
	return Unpack(fb.Pixels[y*fb.Width+x])
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, p uint32) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, p)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	fb.WriteRGBA(img.Pix)
	return img
}

// WriteRGBA writes the pixels as consecutive R, G, B, A bytes into dst,
// which must hold at least 4*Width*Height bytes.
func (fb *Framebuffer) WriteRGBA(dst []byte) {
	for i, p := range fb.Pixels {
		binary.LittleEndian.PutUint32(dst[i*4:], p)
	}
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}
