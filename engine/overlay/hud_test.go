package overlay

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	textures []common.TextureStagingData
	writes   int
	meshes   int
}

func (d *fakeDevice) InitTextureView(_ bind_group_provider.BindGroupProvider, _ int, st common.TextureStagingData) error {
	d.textures = append(d.textures, st)
	return nil
}

func (d *fakeDevice) WriteTexture(bind_group_provider.BindGroupProvider, int, common.TextureStagingData) error {
	d.writes++
	return nil
}

func (d *fakeDevice) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	return nil
}

func (d *fakeDevice) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor, map[int]wgpu.BufferUsage, map[int]uint64) error {
	return nil
}

func (d *fakeDevice) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	d.meshes++
	return nil
}

type fakePass struct {
	w, h  int
	draws []renderer.DrawCommand
}

func (p *fakePass) Draw(cmd renderer.DrawCommand) error {
	p.draws = append(p.draws, cmd)
	return nil
}

func (p *fakePass) Size() (int, int) {
	return p.w, p.h
}

func TestRasterizeDrawsText(t *testing.T) {
	w, h := PanelSize("title", []string{"fps: 60"})
	img := Rasterize("title", []string{"fps: 60"}, w, h)
	require.Equal(t, w, img.Bounds().Dx())

	text := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != panelColor.R || img.Pix[i+3] != panelColor.A {
			text++
		}
	}
	assert.Positive(t, text)
}

func TestPanelSizeFitsLongestLine(t *testing.T) {
	w, h := PanelSize("hi", []string{"a", "three"})
	assert.Equal(t, 5*glyphWidth+2*padding, w)
	assert.Equal(t, 3*lineHeight+2*padding, h)
}

func TestDrawOverlayIssuesOneQuad(t *testing.T) {
	dev := &fakeDevice{}
	h, err := NewHUD(dev, "overlay", WithStatsSource(func() []string { return []string{"fps: 60"} }))
	require.NoError(t, err)

	pass := &fakePass{w: 800, h: 600}
	require.NoError(t, h.DrawOverlay(pass, 0.016))

	require.Len(t, pass.draws, 1)
	cmd := pass.draws[0]
	assert.Equal(t, "overlay", cmd.PipelineKey)
	assert.Equal(t, uint32(1), cmd.InstanceCount)
	require.Len(t, cmd.BindGroups, 1)
	assert.Equal(t, 1, dev.meshes)
	assert.Equal(t, []string{"fps: 60"}, h.Lines())

	require.NoError(t, h.DrawOverlay(pass, 0.016))
	assert.Equal(t, 1, dev.meshes)

	pass.w = 1024
	require.NoError(t, h.DrawOverlay(pass, 0.016))
	assert.Equal(t, 2, dev.meshes)
}

func TestRefreshIsThrottled(t *testing.T) {
	calls := 0
	h, err := NewHUD(&fakeDevice{}, "overlay",
		WithRefreshInterval(100*time.Millisecond),
		WithStatsSource(func() []string {
			calls++
			return []string{"frame"}
		}))
	require.NoError(t, err)

	pass := &fakePass{w: 800, h: 600}
	require.NoError(t, h.DrawOverlay(pass, 0.01))
	assert.Equal(t, 1, calls)

	for range 5 {
		require.NoError(t, h.DrawOverlay(pass, 0.01))
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, h.DrawOverlay(pass, 0.1))
	assert.Equal(t, 2, calls)
}

func TestF1TogglesVisibility(t *testing.T) {
	h, err := NewHUD(&fakeDevice{}, "overlay")
	require.NoError(t, err)
	assert.True(t, h.Visible())

	assert.False(t, h.HandleKey(common.KeyR))
	assert.True(t, h.HandleKey(common.KeyF1))
	assert.False(t, h.Visible())

	pass := &fakePass{w: 800, h: 600}
	require.NoError(t, h.DrawOverlay(pass, 0.016))
	assert.Empty(t, pass.draws)

	h.SetVisible(true)
	require.NoError(t, h.DrawOverlay(pass, 0.016))
	assert.Len(t, pass.draws, 1)
}

func TestZeroSizedSurfaceDrawsNothing(t *testing.T) {
	h, err := NewHUD(&fakeDevice{}, "overlay")
	require.NoError(t, err)
	pass := &fakePass{}
	require.NoError(t, h.DrawOverlay(pass, 0.016))
	assert.Empty(t, pass.draws)
}
