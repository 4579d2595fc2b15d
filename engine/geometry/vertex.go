package geometry

import (
	"github.com/Carmen-Shannon/oxy-quads/common"
)

// VertexSize is the byte stride of one packed Vertex.
const VertexSize = 32

// VertexInputSource is the WGSL declaration matching the Vertex byte layout. Shaders pull it
// in with //@oxy:include vertex.
const VertexInputSource = `struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec3<f32>,
    @location(2) tex_coords: vec2<f32>,
};`

// Vertex is one mesh corner as uploaded to vertex buffer slot 0.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
	TexCoord [2]float32
}

// MarshalVertices packs vertices into little-endian bytes, VertexSize bytes each.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: the packed vertex data
func MarshalVertices(vertices []Vertex) []byte {
	out := make([]byte, len(vertices)*VertexSize)
	for i, v := range vertices {
		common.PutFloat32s(out[i*VertexSize:],
			v.Position[0], v.Position[1], v.Position[2],
			v.Color[0], v.Color[1], v.Color[2],
			v.TexCoord[0], v.TexCoord[1],
		)
	}
	return out
}

// MarshalIndices packs 16-bit indices little-endian. The result is not padded.
//
// Parameters:
//   - indices: the indices to pack
//
// Returns:
//   - []byte: two bytes per index
func MarshalIndices(indices []uint16) []byte {
	out := make([]byte, len(indices)*2)
	for i, idx := range indices {
		out[i*2] = byte(idx)
		out[i*2+1] = byte(idx >> 8)
	}
	return out
}
