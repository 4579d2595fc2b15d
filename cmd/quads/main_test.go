package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/assets"
	"github.com/Carmen-Shannon/oxy-quads/config"
	"github.com/Carmen-Shannon/oxy-quads/engine/camera"
	"github.com/Carmen-Shannon/oxy-quads/engine/frame"
	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/instance"
	"github.com/Carmen-Shannon/oxy-quads/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cameraSet = binding.Set{Label: "camera", Entries: []binding.Entry{
		binding.Uniform(camera.UniformSlot, binding.StageVertex, 64),
	}}
	textureSet = binding.Set{Label: "diffuse", Entries: []binding.Entry{
		binding.Texture(0, binding.StageFragment),
		binding.Sampler(1, binding.StageFragment),
	}}
)

func TestEmbeddedQuadPipelineValidates(t *testing.T) {
	p, err := pipelineSource{
		key:      quadPipelineKey,
		embedded: assets.QuadShader,
		sets:     []binding.Set{cameraSet, textureSet},
	}.build()
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Nil(t, p.BlendState())

	layouts := p.Shader(shader.ShaderTypeVertex).VertexLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
	assert.Equal(t, uint64(geometry.VertexSize), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layouts[1].StepMode)
	assert.Equal(t, uint64(instance.RecordSize), layouts[1].ArrayStride)
}

func TestEmbeddedOverlayPipelineValidates(t *testing.T) {
	p, err := pipelineSource{
		key:      overlayPipelineKey,
		embedded: assets.OverlayShader,
		sets:     []binding.Set{textureSet},
		options:  []pipeline.PipelineBuilderOption{pipeline.WithAlphaBlending()},
	}.build()
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.NotNil(t, p.BlendState())
	assert.Len(t, p.Shader(shader.ShaderTypeVertex).VertexLayouts(), 1)
}

func TestQuadPipelineRejectsMissingTextureSet(t *testing.T) {
	p, err := pipelineSource{
		key:      quadPipelineKey,
		embedded: assets.QuadShader,
		sets:     []binding.Set{cameraSet},
	}.build()
	require.NoError(t, err)
	assert.ErrorIs(t, p.Validate(), binding.ErrLayoutMismatch)
}

func TestPipelineFromMissingFile(t *testing.T) {
	_, err := pipelineSource{key: quadPipelineKey, path: filepath.Join(t.TempDir(), "nope.wgsl")}.build()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPipelineSetFiles(t *testing.T) {
	s := &pipelineSet{sources: []pipelineSource{
		{key: quadPipelineKey, path: "shaders/quad.wgsl"},
		{key: overlayPipelineKey},
	}}
	assert.Equal(t, []string{"shaders/quad.wgsl"}, s.files())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	cfg, err = loadConfig("", "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = loadConfig("", "chatty")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "quads.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frame_cap: 144\n"), 0o644))
	cfg, err = loadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, 144, cfg.FrameCap)
}

func TestStatsLines(t *testing.T) {
	lines := statsLines(
		profiler.Stats{FPS: 59.94, FrameTime: 16683 * time.Microsecond, HeapMB: 3.25, GCCount: 7},
		frame.Stats{Rendered: 120, Skipped: 2, Draws: 2},
		1.5,
	)
	require.Len(t, lines, 5)
	assert.Equal(t, "fps 59.9  frame 16.68 ms", lines[0])
	assert.Equal(t, "frames 120  skipped 2  draws 2", lines[2])
	assert.Equal(t, "zoom 1.50", lines[3])
}

// meshRecorder uploads nothing and remembers the quad's provider.
type meshRecorder struct {
	quad        bind_group_provider.BindGroupProvider
	instanceErr error
}

func (m *meshRecorder) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, _, _ []byte, indexCount int) error {
	m.quad = provider
	provider.SetIndexBuffer(nil, wgpu.IndexFormatUint16, indexCount)
	return nil
}

func (m *meshRecorder) InitInstanceBuffer(bind_group_provider.BindGroupProvider, []byte, int) error {
	return m.instanceErr
}

func (m *meshRecorder) WriteInstanceBuffer(bind_group_provider.BindGroupProvider, uint64, []byte) error {
	return nil
}

func TestNewQuadMesh(t *testing.T) {
	dev := &meshRecorder{}
	quad, instances, err := newQuadMesh(dev, config.Default().Scene.Instances)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), quad.IndexCount())
	assert.Equal(t, len(config.Default().Scene.Instances), instances.Len())
}

func TestNewQuadMeshReleasesQuadOnInstanceFailure(t *testing.T) {
	dev := &meshRecorder{instanceErr: errors.New("out of memory")}
	quad, instances, err := newQuadMesh(dev, config.Default().Scene.Instances)
	require.Error(t, err)
	assert.Nil(t, quad)
	assert.Nil(t, instances)
	require.NotNil(t, dev.quad)
	assert.Zero(t, dev.quad.IndexCount())
}
