package render

import (
	"github.com/chewxy/math32"
	"github.com/taigrr/trapeze/pkg/math3d"
)

// BakeIterations is the number of entries in the baked specular table.
const BakeIterations = 500

// PhongLight is a single directional light with ambient, diffuse and a
// baked specular response.
//
// The specular table is only rebuilt by Rebake or RebakeSpecular. Calling
// SetSpecular alone leaves the light stale until the next rebake.
type PhongLight struct {
	Ambient float32
	Diffuse float32

	dirX, dirY, dirZ float32
	color            uint32
	r, g, b          float32

	exponent   float32
	multiplier float32
	table      []float32
	stale      bool
}

// NewPhongLight creates a light shining along direction, which is
// normalized. color is packed with red in the low byte.
func NewPhongLight(direction math3d.Vec3, color uint32, ambient, diffuse, exponent, multiplier float32) *PhongLight {
	l := &PhongLight{
		Ambient: ambient,
		Diffuse: diffuse,
		table:   make([]float32, BakeIterations),
	}
	l.SetDirection(direction)
	l.SetColor(color)
	l.RebakeSpecular(exponent, multiplier)
	return l
}

// SetDirection sets the light direction, normalizing it.
func (l *PhongLight) SetDirection(v math3d.Vec3) {
	n := v.Normalize()
	l.dirX, l.dirY, l.dirZ = float32(n.X), float32(n.Y), float32(n.Z)
}

// Direction returns the normalized light direction.
func (l *PhongLight) Direction() math3d.Vec3 {
	return math3d.V3(float64(l.dirX), float64(l.dirY), float64(l.dirZ))
}

// SetColor sets the packed light color.
func (l *PhongLight) SetColor(c uint32) {
	l.color = c
	l.r = float32(c & 0xff)
	l.g = float32((c >> 8) & 0xff)
	l.b = float32((c >> 16) & 0xff)
}

// Color returns the packed light color.
func (l *PhongLight) Color() uint32 {
	return l.color
}

// Specular returns the exponent and multiplier last set.
func (l *PhongLight) Specular() (exponent, multiplier float32) {
	return l.exponent, l.multiplier
}

// SetSpecular changes the specular parameters without rebuilding the table.
func (l *PhongLight) SetSpecular(exponent, multiplier float32) {
	if exponent == l.exponent && multiplier == l.multiplier {
		return
	}
	l.exponent = exponent
	l.multiplier = multiplier
	l.stale = true
}

// Stale reports whether the specular parameters changed since the last bake.
func (l *PhongLight) Stale() bool {
	return l.stale
}

// Rebake rebuilds the specular table from the current parameters:
// table[i] = (i/BakeIterations)^exponent * multiplier.
func (l *PhongLight) Rebake() {
	for i := range l.table {
		l.table[i] = math32.Pow(float32(i)/BakeIterations, l.exponent) * l.multiplier
	}
	l.stale = false
}

// RebakeSpecular sets new specular parameters and rebuilds the table.
func (l *PhongLight) RebakeSpecular(exponent, multiplier float32) {
	l.exponent = exponent
	l.multiplier = multiplier
	l.Rebake()
}

// power looks up the baked specular response for a clamped cosine.
func (l *PhongLight) power(cos float32) float32 {
	i := int(cos * BakeIterations)
	if i < 0 {
		i = 0
	} else if i >= len(l.table) {
		i = len(l.table) - 1
	}
	return l.table[i]
}
