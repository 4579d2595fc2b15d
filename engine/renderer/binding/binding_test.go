package binding

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textureSet() Set {
	return Set{Label: "diffuse", Entries: []Entry{
		Sampler(1, StageFragment),
		Texture(0, StageFragment),
	}}
}

func TestLayoutDescriptorSortsBySlot(t *testing.T) {
	d := textureSet().LayoutDescriptor()
	assert.Equal(t, "diffuse", d.Label)
	require.Len(t, d.Entries, 2)

	assert.Equal(t, uint32(0), d.Entries[0].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, d.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, d.Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.ShaderStageFragment, d.Entries[0].Visibility)

	assert.Equal(t, uint32(1), d.Entries[1].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, d.Entries[1].Sampler.Type)
}

func TestFromDescriptorRoundTrip(t *testing.T) {
	set := Set{Label: "camera", Entries: []Entry{Uniform(0, StageVertex, 64)}}
	got, err := FromDescriptor("camera", set.LayoutDescriptor())
	require.NoError(t, err)
	assert.Equal(t, set, got)

	_, err = FromDescriptor("empty", wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{{Binding: 3}}})
	assert.True(t, errors.Is(err, ErrLayoutMismatch))
}

func TestVerify(t *testing.T) {
	camera := Set{Label: "camera", Entries: []Entry{Uniform(0, StageVertex, 64)}}
	declared := camera.LayoutDescriptor()
	require.NoError(t, camera.Verify(declared))
	require.NoError(t, textureSet().Verify(textureSet().LayoutDescriptor()))

	tests := []struct {
		name string
		set  Set
	}{
		{"entry count", Set{Label: "camera"}},
		{"slot", Set{Label: "camera", Entries: []Entry{Uniform(1, StageVertex, 64)}}},
		{"kind", Set{Label: "camera", Entries: []Entry{{Slot: 0, Kind: KindStorageBuffer, Stage: StageVertex, Size: 64}}}},
		{"stage", Set{Label: "camera", Entries: []Entry{Uniform(0, StageVertex|StageFragment, 64)}}},
		{"size", Set{Label: "camera", Entries: []Entry{Uniform(0, StageVertex, 16)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Verify(declared)
			assert.True(t, errors.Is(err, ErrLayoutMismatch), "got %v", err)
		})
	}
}

func TestVerifySizeRules(t *testing.T) {
	declared := Set{Entries: []Entry{Uniform(0, StageVertex, 64)}}.LayoutDescriptor()

	bigger := Set{Label: "camera", Entries: []Entry{Uniform(0, StageVertex, 128)}}
	assert.NoError(t, bigger.Verify(declared))

	unsized := Set{Label: "camera", Entries: []Entry{Uniform(0, StageVertex, 0)}}
	assert.NoError(t, unsized.Verify(declared))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "uniform", KindUniformBuffer.String())
	assert.Equal(t, "sampler", KindSampler.String())
	assert.Equal(t, "vertex|fragment", (StageVertex | StageFragment).String())
	assert.Equal(t, "none", Stage(0).String())
}
