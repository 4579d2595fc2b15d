package texture

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	created  []common.TextureStagingData
	written  []common.TextureStagingData
	samplers []common.SamplerStagingData
	layouts  []wgpu.BindGroupLayoutDescriptor
	keys     []int

	samplerErr error
}

func (d *fakeDevice) InitTextureView(_ bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	d.keys = append(d.keys, bindingKey)
	d.created = append(d.created, stagingData)
	return nil
}

func (d *fakeDevice) WriteTexture(_ bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	d.keys = append(d.keys, bindingKey)
	d.written = append(d.written, stagingData)
	return nil
}

func (d *fakeDevice) InitSampler(_ bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	d.keys = append(d.keys, bindingKey)
	d.samplers = append(d.samplers, samplerStagingData)
	return d.samplerErr
}

func (d *fakeDevice) InitBindGroup(_ bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, _ map[int]uint64) error {
	d.layouts = append(d.layouts, descriptor)
	return nil
}

func solid(w, h uint32) common.TextureStagingData {
	px := make([]byte, 4*w*h)
	for i := range px {
		px[i] = 0xff
	}
	return common.TextureStagingData{Pixels: px, Width: w, Height: h}
}

func TestNewCreatesTextureAndSampler(t *testing.T) {
	dev := &fakeDevice{}
	tex, err := New(dev, "quad_texture", solid(4, 2), 1)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, dev.keys)
	require.Len(t, dev.samplers, 1)
	assert.Equal(t, common.ClampedSampler(), dev.samplers[0])

	require.Len(t, dev.layouts, 1)
	entries := dev.layouts[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(1), entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, entries[0].Visibility)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entries[0].Texture.SampleType)
	assert.Equal(t, uint32(2), entries[1].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, entries[1].Visibility)
	assert.NotEqual(t, wgpu.SamplerBindingTypeUndefined, entries[1].Sampler.Type)

	assert.NoError(t, tex.BindingSet().Verify(dev.layouts[0]))
	w, h := tex.Size()
	assert.Equal(t, uint32(4), w)
	assert.Equal(t, uint32(2), h)
	assert.Equal(t, uint32(1), tex.Slot())
	assert.Equal(t, "quad_texture", tex.Label())
}

func TestNewRejectsMalformedStaging(t *testing.T) {
	dev := &fakeDevice{}

	_, err := New(dev, "t", common.TextureStagingData{}, 0)
	assert.ErrorIs(t, err, ErrEmptyImage)

	short := solid(2, 2)
	short.Pixels = short.Pixels[:15]
	_, err = New(dev, "t", short, 0)
	assert.Error(t, err)

	assert.Empty(t, dev.created)
}

func TestNewPropagatesSamplerError(t *testing.T) {
	boom := errors.New("sampler rejected")
	_, err := New(&fakeDevice{samplerErr: boom}, "t", solid(1, 1), 0)
	assert.ErrorIs(t, err, boom)
}

func TestReplaceSameSizeWritesInPlace(t *testing.T) {
	dev := &fakeDevice{}
	tex, err := New(dev, "t", solid(2, 2), 1)
	require.NoError(t, err)

	require.NoError(t, tex.Replace(solid(2, 2)))
	assert.Len(t, dev.written, 1)
	assert.Len(t, dev.created, 1)
	assert.Len(t, dev.layouts, 1)
}

func TestReplaceNewSizeRebuildsBindGroup(t *testing.T) {
	dev := &fakeDevice{}
	tex, err := New(dev, "t", solid(2, 2), 1)
	require.NoError(t, err)

	require.NoError(t, tex.Replace(solid(8, 4)))
	assert.Empty(t, dev.written)
	assert.Len(t, dev.created, 2)
	assert.Len(t, dev.layouts, 2)

	w, h := tex.Size()
	assert.Equal(t, uint32(8), w)
	assert.Equal(t, uint32(4), h)
}

func TestReplaceRejectsMalformedStaging(t *testing.T) {
	dev := &fakeDevice{}
	tex, err := New(dev, "t", solid(2, 2), 1)
	require.NoError(t, err)

	assert.Error(t, tex.Replace(common.TextureStagingData{Width: 2, Height: 2}))
	w, _ := tex.Size()
	assert.Equal(t, uint32(2), w)
}
