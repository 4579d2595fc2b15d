package geometry

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	calls      int
	vertexData []byte
	indexData  []byte
	indexCount int
	err        error
}

func (f *fakeUploader) InitMeshBuffers(_ bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	f.calls++
	f.vertexData = vertexData
	f.indexData = indexData
	f.indexCount = indexCount
	return f.err
}

func TestNewPlane(t *testing.T) {
	up := &fakeUploader{}
	g, err := New(up, "quad", Plane(), PlaneIndices())
	require.NoError(t, err)

	assert.Equal(t, uint32(6), g.IndexCount())
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, "quad", g.Provider().Label())
	assert.Equal(t, 1, up.calls)
	assert.Equal(t, 6, up.indexCount)
	assert.Len(t, up.vertexData, 4*VertexSize)
	assert.Len(t, up.indexData, 12)
}

func TestNewIndexCountMatchesInput(t *testing.T) {
	vertices := Plane()
	for n := 1; n <= 12; n++ {
		indices := make([]uint16, n)
		for i := range indices {
			indices[i] = uint16(i % len(vertices))
		}
		g, err := New(&fakeUploader{}, "mesh", vertices, indices)
		require.NoError(t, err)
		assert.Equal(t, uint32(n), g.IndexCount())
	}
}

func TestNewRejectsInvalidGeometry(t *testing.T) {
	cases := map[string]struct {
		vertices []Vertex
		indices  []uint16
	}{
		"no vertices":     {nil, []uint16{0}},
		"index too large": {Plane(), []uint16{0, 1, 4}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			up := &fakeUploader{}
			_, err := New(up, "bad", c.vertices, c.indices)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
			assert.Zero(t, up.calls)
		})
	}
}

func TestNewAcceptsEmptyIndices(t *testing.T) {
	require.NoError(t, Validate(Plane(), nil))

	up := &fakeUploader{}
	g, err := New(up, "points", Plane(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), g.IndexCount())
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, 1, up.calls)
	assert.Zero(t, up.indexCount)
	assert.Empty(t, up.indexData)
}

func TestNewUploadFailure(t *testing.T) {
	boom := errors.New("device lost")
	_, err := New(&fakeUploader{err: boom}, "quad", Plane(), PlaneIndices())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidGeometry)
}

func TestMarshalVertices(t *testing.T) {
	data := MarshalVertices([]Vertex{{
		Position: [3]float32{1, 2, 3},
		Color:    [3]float32{0.5, 0.25, 1},
		TexCoord: [2]float32{0, 1},
	}})
	assert.Equal(t, []float32{1, 2, 3, 0.5, 0.25, 1, 0, 1}, common.Float32s(data))
}

func TestMarshalIndices(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 2, 0, 0x01, 0x01}, MarshalIndices([]uint16{0, 2, 257}))
}

func TestScreenRect(t *testing.T) {
	v := ScreenRect(0, 0, 400, 300, 800, 600)
	require.Len(t, v, 4)
	// top-right, top-left, bottom-left, bottom-right
	assert.Equal(t, [3]float32{0, 1, 0}, v[0].Position)
	assert.Equal(t, [3]float32{-1, 1, 0}, v[1].Position)
	assert.Equal(t, [3]float32{-1, 0, 0}, v[2].Position)
	assert.Equal(t, [3]float32{0, 0, 0}, v[3].Position)
	assert.NoError(t, Validate(v, PlaneIndices()))
}
