package geometry

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidGeometry is returned by New when the vertex or index data cannot describe a mesh.
var ErrInvalidGeometry = errors.New("invalid geometry")

// MeshUploader creates the GPU vertex and index buffers for a mesh. Satisfied by renderer.Renderer.
type MeshUploader interface {
	// InitMeshBuffers uploads packed vertex and index bytes and stores the buffers on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the buffers
	//   - vertexData: packed vertices
	//   - indexData: packed indices
	//   - indexCount: the number of indices in indexData
	//
	// Returns:
	//   - error: an error if the buffers could not be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
}

// geometryBuffer is the implementation of the GeometryBuffer interface.
type geometryBuffer struct {
	provider    bind_group_provider.BindGroupProvider
	vertexCount int
	indexCount  uint32
}

// GeometryBuffer holds the GPU-resident vertex and index data of one mesh.
// It is immutable: different geometry means a new GeometryBuffer.
type GeometryBuffer interface {
	// Provider returns the BindGroupProvider holding the vertex and index buffers.
	Provider() bind_group_provider.BindGroupProvider

	// IndexCount returns the number of indices drawn for this mesh.
	IndexCount() uint32

	// VertexCount returns the number of vertices uploaded.
	VertexCount() int

	// Release releases the GPU buffers.
	Release()
}

var _ GeometryBuffer = &geometryBuffer{}

// New validates the mesh and uploads it through uploader.
//
// Parameters:
//   - uploader: creates the GPU buffers
//   - label: debug label for the buffers
//   - vertices: the mesh vertices, at least one
//   - indices: triangle-list indices, each less than len(vertices); may be empty
//
// Returns:
//   - GeometryBuffer: the uploaded mesh
//   - error: ErrInvalidGeometry with detail, or the upload error
func New(uploader MeshUploader, label string, vertices []Vertex, indices []uint16) (GeometryBuffer, error) {
	if err := Validate(vertices, indices); err != nil {
		return nil, err
	}

	provider := bind_group_provider.NewBindGroupProvider(label,
		bind_group_provider.WithIndexFormat(wgpu.IndexFormatUint16))
	if err := uploader.InitMeshBuffers(provider, MarshalVertices(vertices), MarshalIndices(indices), len(indices)); err != nil {
		provider.Release()
		return nil, fmt.Errorf("failed to upload %s: %w", label, err)
	}

	return &geometryBuffer{
		provider:    provider,
		vertexCount: len(vertices),
		indexCount:  uint32(len(indices)),
	}, nil
}

// Validate reports whether vertices and indices form a drawable mesh.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: the mesh indices
//
// Returns:
//   - error: ErrInvalidGeometry naming the first problem, or nil
func Validate(vertices []Vertex, indices []uint16) error {
	if len(vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidGeometry)
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("%w: index %d at position %d references vertex beyond count %d",
				ErrInvalidGeometry, idx, i, len(vertices))
		}
	}
	return nil
}

func (g *geometryBuffer) Provider() bind_group_provider.BindGroupProvider {
	return g.provider
}

func (g *geometryBuffer) IndexCount() uint32 {
	return g.indexCount
}

func (g *geometryBuffer) VertexCount() int {
	return g.vertexCount
}

func (g *geometryBuffer) Release() {
	g.provider.Release()
}
