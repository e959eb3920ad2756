package math3d

// Flat buffers group a contiguous float32 (or uint32) slice into fixed-width
// records. They are what the mesh loaders produce and what the scene
// transforms every frame, so they avoid per-element allocation entirely.

// Point3Buffer holds positions as x, y, z triples.
type Point3Buffer struct {
	Data []float32
}

// NewPoint3Buffer allocates a buffer for n points.
func NewPoint3Buffer(n int) *Point3Buffer {
	return &Point3Buffer{Data: make([]float32, n*3)}
}

// Len returns the number of points.
func (b *Point3Buffer) Len() int {
	return len(b.Data) / 3
}

// Get returns point i.
func (b *Point3Buffer) Get(i int) Vec3 {
	o := i * 3
	return Vec3{float64(b.Data[o]), float64(b.Data[o+1]), float64(b.Data[o+2])}
}

// Set stores point i.
func (b *Point3Buffer) Set(i int, v Vec3) {
	o := i * 3
	b.Data[o] = float32(v.X)
	b.Data[o+1] = float32(v.Y)
	b.Data[o+2] = float32(v.Z)
}

// TransformTo writes every point of b, transformed by m, into dst.
// The projective divide is always applied. dst.Data must hold at least
// len(b.Data) values; records past b.Len() are left untouched.
func (b *Point3Buffer) TransformTo(dst *Point3Buffer, m Mat4) {
	var c [16]float32
	for i, v := range m {
		c[i] = float32(v)
	}
	src := b.Data
	out := dst.Data[:len(src)]
	for o := 0; o+2 < len(src); o += 3 {
		x, y, z := src[o], src[o+1], src[o+2]
		w := x*c[3] + y*c[7] + z*c[11] + c[15]
		out[o] = (x*c[0] + y*c[4] + z*c[8] + c[12]) / w
		out[o+1] = (x*c[1] + y*c[5] + z*c[9] + c[13]) / w
		out[o+2] = (x*c[2] + y*c[6] + z*c[10] + c[14]) / w
	}
}

// Vector3Buffer holds directions (normals) as x, y, z triples.
type Vector3Buffer struct {
	Data []float32
}

// NewVector3Buffer allocates a buffer for n vectors.
func NewVector3Buffer(n int) *Vector3Buffer {
	return &Vector3Buffer{Data: make([]float32, n*3)}
}

// Len returns the number of vectors.
func (b *Vector3Buffer) Len() int {
	return len(b.Data) / 3
}

// Get returns vector i.
func (b *Vector3Buffer) Get(i int) Vec3 {
	o := i * 3
	return Vec3{float64(b.Data[o]), float64(b.Data[o+1]), float64(b.Data[o+2])}
}

// Set stores vector i.
func (b *Vector3Buffer) Set(i int, v Vec3) {
	o := i * 3
	b.Data[o] = float32(v.X)
	b.Data[o+1] = float32(v.Y)
	b.Data[o+2] = float32(v.Z)
}

// Scale multiplies every component by s in place.
func (b *Vector3Buffer) Scale(s float32) {
	for i := range b.Data {
		b.Data[i] *= s
	}
}

// TransformTo writes every vector of b, transformed by the linear part of m,
// into dst. Translation and the projective row are ignored.
func (b *Vector3Buffer) TransformTo(dst *Vector3Buffer, m Mat4) {
	m0, m1, m2 := float32(m[0]), float32(m[1]), float32(m[2])
	m4, m5, m6 := float32(m[4]), float32(m[5]), float32(m[6])
	m8, m9, m10 := float32(m[8]), float32(m[9]), float32(m[10])
	src := b.Data
	out := dst.Data[:len(src)]
	for o := 0; o+2 < len(src); o += 3 {
		x, y, z := src[o], src[o+1], src[o+2]
		out[o] = x*m0 + y*m4 + z*m8
		out[o+1] = x*m1 + y*m5 + z*m9
		out[o+2] = x*m2 + y*m6 + z*m10
	}
}

// Vector2Buffer holds texture coordinates as u, v pairs.
type Vector2Buffer struct {
	Data []float32
}

// NewVector2Buffer allocates a buffer for n pairs.
func NewVector2Buffer(n int) *Vector2Buffer {
	return &Vector2Buffer{Data: make([]float32, n*2)}
}

// Len returns the number of pairs.
func (b *Vector2Buffer) Len() int {
	return len(b.Data) / 2
}

// Get returns pair i.
func (b *Vector2Buffer) Get(i int) Vec2 {
	o := i * 2
	return Vec2{float64(b.Data[o]), float64(b.Data[o+1])}
}

// Set stores pair i.
func (b *Vector2Buffer) Set(i int, v Vec2) {
	o := i * 2
	b.Data[o] = float32(v.X)
	b.Data[o+1] = float32(v.Y)
}

// Index3Buffer holds triangles as triples of element indices.
type Index3Buffer struct {
	Data []uint32
}

// NewIndex3Buffer allocates a buffer for n triples.
func NewIndex3Buffer(n int) *Index3Buffer {
	return &Index3Buffer{Data: make([]uint32, n*3)}
}

// Len returns the number of triples.
func (b *Index3Buffer) Len() int {
	return len(b.Data) / 3
}

// Get returns triple i.
func (b *Index3Buffer) Get(i int) (int, int, int) {
	o := i * 3
	return int(b.Data[o]), int(b.Data[o+1]), int(b.Data[o+2])
}

// Set stores triple i.
func (b *Index3Buffer) Set(i, v0, v1, v2 int) {
	o := i * 3
	b.Data[o] = uint32(v0)
	b.Data[o+1] = uint32(v1)
	b.Data[o+2] = uint32(v2)
}

// Max returns the largest index stored, or -1 if the buffer is empty.
func (b *Index3Buffer) Max() int {
	m := -1
	for _, v := range b.Data {
		if int(v) > m {
			m = int(v)
		}
	}
	return m
}
