package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
};

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

struct Camera {
    view_proj: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> camera: Camera;
@group(1) @binding(0) var t_diffuse: texture_2d<f32>;
@group(1) @binding(1) var s_diffuse: sampler;

@vertex
fn vs_main(v: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = camera.view_proj * vec4<f32>(v.position, 1.0);
    out.uv = v.uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(t_diffuse, s_diffuse, in.uv);
}
`

var (
	cameraSet  = binding.Set{Label: "camera", Entries: []binding.Entry{binding.Uniform(0, binding.StageVertex, 64)}}
	textureSet = binding.Set{Label: "diffuse", Entries: []binding.Entry{
		binding.Texture(0, binding.StageFragment),
		binding.Sampler(1, binding.StageFragment),
	}}
)

func newTestPipeline(t *testing.T, opts ...PipelineBuilderOption) Pipeline {
	t.Helper()
	vs, err := shader.NewShaderFromSource("test_vertex", shader.ShaderTypeVertex, testSource)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource("test_fragment", shader.ShaderTypeFragment, testSource)
	require.NoError(t, err)
	return NewPipeline("test", append([]PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)}, opts...)...)
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("empty")
	assert.Equal(t, "empty", p.PipelineKey())
	assert.Equal(t, DefaultVertexEntryPoint, p.EntryPoint(shader.ShaderTypeVertex))
	assert.Equal(t, DefaultFragmentEntryPoint, p.EntryPoint(shader.ShaderTypeFragment))
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.BlendState())
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))
	p.Release()
}

func TestWithAlphaBlending(t *testing.T) {
	p := NewPipeline("overlay", WithAlphaBlending())
	require.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, p.BlendState().Color.DstFactor)
}

func TestValidate(t *testing.T) {
	p := newTestPipeline(t, WithBindingSets(cameraSet, textureSet))
	require.NoError(t, p.Validate())
	assert.Equal(t, []binding.Set{cameraSet, textureSet}, p.BindingSets())

	layouts := p.BindGroupLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, "camera", layouts[0].Label)
	assert.Equal(t, "diffuse", layouts[1].Label)
}

func TestValidateMissingShader(t *testing.T) {
	assert.Error(t, NewPipeline("empty", WithBindingSets(cameraSet)).Validate())
}

func TestValidateMissingEntryPoint(t *testing.T) {
	p := newTestPipeline(t, WithBindingSets(cameraSet, textureSet), WithFragmentEntryPoint("fs_other"))
	err := p.Validate()
	assert.True(t, errors.Is(err, shader.ErrEntryPointMissing), "got %v", err)

	p = newTestPipeline(t, WithBindingSets(cameraSet, textureSet), WithVertexEntryPoint("fs_main"))
	err = p.Validate()
	assert.True(t, errors.Is(err, shader.ErrEntryPointMissing), "got %v", err)
}

func TestValidateBindingSetMismatch(t *testing.T) {
	tests := []struct {
		name string
		sets []binding.Set
	}{
		{"missing group", []binding.Set{cameraSet}},
		{"extra group", []binding.Set{cameraSet, textureSet, cameraSet}},
		{"swapped groups", []binding.Set{textureSet, cameraSet}},
		{"wrong stage", []binding.Set{
			{Label: "camera", Entries: []binding.Entry{binding.Uniform(0, binding.StageFragment, 64)}},
			textureSet,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestPipeline(t, WithBindingSets(tt.sets...)).Validate()
			assert.True(t, errors.Is(err, binding.ErrLayoutMismatch), "got %v", err)
		})
	}
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 1, Visibility: wgpu.ShaderStageNone},
			{Binding: 0, Visibility: wgpu.ShaderStageVertex},
		}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment},
		}},
		2: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageFragment}}},
	}

	merged := MergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 2)
	require.Len(t, merged[0].Entries, 2)
	assert.Equal(t, uint32(0), merged[0].Entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, merged[0].Entries[0].Visibility)
	assert.Equal(t, wgpu.ShaderStageFragment, merged[0].Entries[1].Visibility)
	assert.Len(t, merged[2].Entries, 1)
}
