package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShader = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
};

struct InstanceInput {
    @location(5) offset: vec4<f32>,
};

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

struct Globals {
    view_proj: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> globals: Globals;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var samp: sampler;

fn project(p: vec3<f32>) -> vec4<f32> {
    return globals.view_proj * vec4<f32>(p, 1.0);
}

@vertex
fn vs_main(v: VertexInput, i: InstanceInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = project(v.position) + i.offset;
    out.uv = v.uv;
    return out;
}

/* a block comment mentioning @fragment fn fake() */
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    if in.uv.x > 0.5 {
        return textureSample(tex, samp, in.uv);
    }
    return vec4<f32>(0.0);
}
`

func TestParseEntryPoints(t *testing.T) {
	vs, err := NewShaderFromSource("test_vs", ShaderTypeVertex, testShader)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.True(t, vs.HasEntryPoint("vs_main"))
	assert.False(t, vs.HasEntryPoint("fs_main"))

	fs, err := NewShaderFromSource("test_fs", ShaderTypeFragment, testShader)
	require.NoError(t, err)
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.False(t, fs.HasEntryPoint("fake"))
	assert.Nil(t, fs.VertexLayouts())
}

func TestParseVertexLayouts(t *testing.T) {
	vs, err := NewShaderFromSource("test_vs", ShaderTypeVertex, testShader)
	require.NoError(t, err)

	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 2)

	assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
	assert.Equal(t, uint64(20), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 2)
	assert.Equal(t, uint64(12), layouts[0].Attributes[1].Offset)
	assert.Equal(t, uint32(1), layouts[0].Attributes[1].ShaderLocation)

	assert.Equal(t, wgpu.VertexStepModeInstance, layouts[1].StepMode)
	assert.Equal(t, uint64(16), layouts[1].ArrayStride)
	assert.Equal(t, uint32(5), layouts[1].Attributes[0].ShaderLocation)
}

func TestBindGroupVisibilityFollowsUsage(t *testing.T) {
	vs, err := NewShaderFromSource("test_vs", ShaderTypeVertex, testShader)
	require.NoError(t, err)
	layouts := vs.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 2)

	globals := layouts[0].Entries
	require.Len(t, globals, 1)
	assert.Equal(t, wgpu.ShaderStageVertex, globals[0].Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, globals[0].Buffer.Type)
	assert.Equal(t, uint64(64), globals[0].Buffer.MinBindingSize)

	for _, e := range layouts[1].Entries {
		assert.Equal(t, wgpu.ShaderStageNone, e.Visibility)
	}

	fs, err := NewShaderFromSource("test_fs", ShaderTypeFragment, testShader)
	require.NoError(t, err)
	frag := fs.BindGroupLayoutDescriptors()
	assert.Equal(t, wgpu.ShaderStageNone, frag[0].Entries[0].Visibility)
	require.Len(t, frag[1].Entries, 2)
	assert.Equal(t, wgpu.ShaderStageFragment, frag[1].Entries[0].Visibility)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, frag[1].Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, frag[1].Entries[1].Sampler.Type)
}

func TestBindGroupVarName(t *testing.T) {
	vs, err := NewShaderFromSource("test_vs", ShaderTypeVertex, testShader)
	require.NoError(t, err)
	assert.Equal(t, "samp", vs.BindGroupVarName(1, 1))
	assert.Equal(t, "", vs.BindGroupVarName(2, 0))
}

func TestNewShaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(testShader), 0o644))

	s, err := NewShader("file_vs", ShaderTypeVertex, path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	assert.Equal(t, "file_vs", s.Module().Label)

	_, err = NewShader("none", ShaderTypeVertex, "")
	assert.Error(t, err)
	_, err = NewShaderFromSource("empty", ShaderTypeVertex, "")
	assert.Error(t, err)
}

func TestNewShaderRunsPreProcessor(t *testing.T) {
	pp := NewPreProcessor(map[string]IncludeEntry{
		"globals": {Source: "struct Globals {\n    view_proj: mat4x4<f32>,\n};", Type: "Globals"},
	})
	src := "//@oxy:include globals\n//@oxy:group 0 0 uniform globals globals\n@vertex\nfn vs_main() -> @builtin(position) vec4<f32> {\n    return globals.view_proj[0];\n}\n"

	s, err := NewShaderFromSource("pp_vs", ShaderTypeVertex, src, WithPreProcessor(pp))
	require.NoError(t, err)
	assert.Contains(t, s.Source(), "var<uniform> globals: Globals;")
	assert.Equal(t, "globals", s.BindGroupVarName(0, 0))

	_, err = NewShaderFromSource("no_pp", ShaderTypeVertex, src)
	assert.Error(t, err)
}
