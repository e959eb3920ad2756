package models

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/trapeze/pkg/math3d"
)

// LoadOBJ loads a Wavefront OBJ file.
func LoadOBJ(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f, filepath.Base(path))
}

// objCorner is one "v/vt/vn" reference of a face, 0-based; -1 when absent.
type objCorner struct {
	v, vt, vn int
}

// ParseOBJ reads the geometry statements of an OBJ stream (v, vt, vn, f).
//
// Polygons are split into a triangle fan around their first corner and keep
// the file's winding. V texture coordinates are flipped (1-v) so that v=0
// addresses the top image row. If any face lacks normals, smooth vertex
// normals are computed for the whole model.
func ParseOBJ(r io.Reader, name string) (*Model, error) {
	var (
		vertices  []float32
		normals   []float32
		texcoords []float32
		uvs       []float32
		triangles []uint32
		normalIdx []uint32
		faceNorms = true
	)

	resolve := func(tok string, count int) (int, error) {
		if tok == "" {
			return -1, nil
		}
		i, err := strconv.Atoi(tok)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			// Relative to the end of the list so far
			i = count + i
		} else {
			i--
		}
		if i < 0 || i >= count {
			return 0, fmt.Errorf("index %s out of range [1, %d]: %w", tok, count, ErrInvalidGeometry)
		}
		return i, nil
	}

	parseCorner := func(tok string) (objCorner, error) {
		parts := strings.Split(tok, "/")
		c := objCorner{-1, -1, -1}
		var err error
		if c.v, err = resolve(parts[0], len(vertices)/3); err != nil {
			return c, err
		}
		if c.v < 0 {
			return c, fmt.Errorf("face corner %q has no vertex: %w", tok, ErrInvalidGeometry)
		}
		if len(parts) > 1 {
			if c.vt, err = resolve(parts[1], len(texcoords)/2); err != nil {
				return c, err
			}
		}
		if len(parts) > 2 {
			if c.vn, err = resolve(parts[2], len(normals)/3); err != nil {
				return c, err
			}
		}
		return c, nil
	}

	emit := func(c objCorner) {
		triangles = append(triangles, uint32(c.v))
		if c.vn < 0 {
			faceNorms = false
			normalIdx = append(normalIdx, 0)
		} else {
			normalIdx = append(normalIdx, uint32(c.vn))
		}
		if c.vt < 0 {
			uvs = append(uvs, 0, 0)
		} else {
			uvs = append(uvs, texcoords[c.vt*2], 1-texcoords[c.vt*2+1])
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v", "vn":
			xyz, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			if fields[0] == "v" {
				vertices = append(vertices, xyz...)
			} else {
				normals = append(normals, xyz...)
			}
		case "vt":
			uv, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			texcoords = append(texcoords, uv...)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs 3 corners, got %d: %w", line, len(fields)-1, ErrInvalidGeometry)
			}
			first, err := parseCorner(fields[1])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			prev, err := parseCorner(fields[2])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			for _, tok := range fields[3:] {
				cur, err := parseCorner(tok)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				emit(first)
				emit(prev)
				emit(cur)
				prev = cur
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	m := &Model{
		Name:          name,
		Vertices:      &math3d.Point3Buffer{Data: vertices},
		Normals:       &math3d.Vector3Buffer{Data: normals},
		UVs:           &math3d.Vector2Buffer{Data: uvs},
		Triangles:     &math3d.Index3Buffer{Data: triangles},
		NormalIndexes: &math3d.Index3Buffer{Data: normalIdx},
	}
	if !faceNorms {
		m.CalculateSmoothNormals()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.CalculateBounds()
	return m, nil
}

// parseFloats parses the first n fields as float32 values.
func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", fields[i], err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite value %q: %w", fields[i], ErrInvalidGeometry)
		}
		out[i] = float32(f)
	}
	return out, nil
}
