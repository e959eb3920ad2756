package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
)

// GLTFLoader loads GLTF/GLB files into a Model.
//
// glTF stores counter-clockwise front faces and puts v=0 at the top image
// row, which is already the layout the rasterizer expects, so neither the
// winding nor the texture coordinates are changed.
type GLTFLoader struct {
	// CalculateNormals fills in smooth normals for primitives without a NORMAL attribute.
	CalculateNormals bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
	}
}

// LoadGLTF loads a .gltf or .glb file with default options.
func LoadGLTF(path string) (*Model, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Model holding every
// triangle primitive of every mesh.
func (l *GLTFLoader) Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.build(doc, filepath.Base(path))
}

// gltfGeometry accumulates primitives before they become buffers.
type gltfGeometry struct {
	positions []float32
	normals   []float32
	uvs       []float32 // Per vertex, expanded per triangle at the end
	indices   []uint32
	hasNormal bool
}

func (l *GLTFLoader) build(doc *gltf.Document, name string) (*Model, error) {
	g := &gltfGeometry{hasNormal: true}

	// Process all meshes in the document
	for _, m := range doc.Meshes {
		if err := g.processMesh(doc, m); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	model := NewEmptyModel(name)
	model.Vertices.Data = g.positions
	model.Normals.Data = g.normals
	model.Triangles.Data = g.indices
	model.NormalIndexes.Data = append([]uint32(nil), g.indices...)

	vertexCount := uint32(len(g.positions) / 3)
	uvs := make([]float32, 0, len(g.indices)*2)
	for _, idx := range g.indices {
		if idx >= vertexCount {
			return nil, fmt.Errorf("model %q: vertex index %d out of range [0, %d): %w", name, idx, vertexCount, ErrInvalidGeometry)
		}
		uvs = append(uvs, g.uvs[idx*2], g.uvs[idx*2+1])
	}
	model.UVs.Data = uvs

	if l.CalculateNormals && !g.hasNormal {
		model.CalculateSmoothNormals()
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}
	model.CalculateBounds()
	return model, nil
}

// processMesh extracts geometry from a GLTF mesh.
func (g *gltfGeometry) processMesh(doc *gltf.Document, m *gltf.Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		// Get position accessor
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVecAccessor(doc, posIdx, gltf.AccessorVec3)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}
		count := len(positions) / 3

		// Get normals if available
		normals := make([]float32, count*3)
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			n, err := readVecAccessor(doc, normIdx, gltf.AccessorVec3)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
			copy(normals, n)
		} else {
			g.hasNormal = false
		}

		// Get UVs if available
		uvs := make([]float32, count*2)
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			t, err := readVecAccessor(doc, uvIdx, gltf.AccessorVec2)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
			copy(uvs, t)
		}

		// Base vertex index for this primitive
		base := uint32(len(g.positions) / 3)
		g.positions = append(g.positions, positions...)
		g.normals = append(g.normals, normals...)
		g.uvs = append(g.uvs, uvs...)

		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				g.indices = append(g.indices, base+indices[i], base+indices[i+1], base+indices[i+2])
			}
		} else {
			// No indices, assume sequential triangles
			for i := 0; i+2 < count; i += 3 {
				v := base + uint32(i)
				g.indices = append(g.indices, v, v+1, v+2)
			}
		}
	}

	return nil
}

// readVecAccessor reads float vector data from a GLTF accessor as a flat slice.
func readVecAccessor(doc *gltf.Document, accessorIdx int, want gltf.AccessorType) ([]float32, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != want {
		return nil, fmt.Errorf("expected %v, got %v", want, accessor.Type)
	}
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", accessor.ComponentType)
	}

	width := 3
	if want == gltf.AccessorVec2 {
		width = 2
	}

	data, start, stride, err := accessorBytes(doc, accessor, width*4)
	if err != nil {
		return nil, err
	}

	result := make([]float32, 0, accessor.Count*width)
	for i := range accessor.Count {
		offset := start + i*stride
		if offset+width*4 > len(data) {
			return nil, fmt.Errorf("accessor reads past end of buffer")
		}
		for j := range width {
			result = append(result, readFloat32(data[offset+j*4:]))
		}
	}
	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]uint32, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]uint32, accessor.Count)
	for i := range accessor.Count {
		offset := start + i*stride
		if offset+size > len(data) {
			return nil, fmt.Errorf("accessor reads past end of buffer")
		}
		switch size {
		case 1:
			result[i] = uint32(data[offset])
		case 2:
			result[i] = uint32(data[offset]) | uint32(data[offset+1])<<8
		default:
			result[i] = uint32(data[offset]) |
				uint32(data[offset+1])<<8 |
				uint32(data[offset+2])<<16 |
				uint32(data[offset+3])<<24
		}
	}
	return result, nil
}

// accessorBytes returns the buffer behind an accessor with its start offset
// and element stride.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	// gltf.Open loads both embedded (GLB) and external buffers into Data
	if buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	return buffer.Data, bufferView.ByteOffset + accessor.ByteOffset, stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	return math.Float32frombits(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

// LoadGLTFWithTexture loads a GLTF file and returns the model plus the first
// decodable image it references, embedded or external.
// The image is nil if none is found.
func LoadGLTFWithTexture(path string) (*Model, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	model, err := NewGLTFLoader().build(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	for _, img := range doc.Images {
		var data []byte
		if img.BufferView != nil {
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil && bv.ByteOffset+bv.ByteLength <= len(buf.Data) {
				data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
			}
		} else if img.URI != "" {
			// External texture file
			data, _ = os.ReadFile(filepath.Join(filepath.Dir(path), img.URI))
		}
		if len(data) == 0 {
			continue
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			return model, decoded, nil
		}
	}

	return model, nil, nil
}
