package pipeline

import (
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex shader for the pipeline.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for the pipeline.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithVertexEntryPoint overrides the vertex entry point name (default "vs_main").
func WithVertexEntryPoint(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexEntry = name
	}
}

// WithFragmentEntryPoint overrides the fragment entry point name (default "fs_main").
func WithFragmentEntryPoint(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentEntry = name
	}
}

// WithBindingSets sets the binding sets in @group order: sets[i] is bound at group i.
//
// Parameters:
//   - sets: the binding sets
//
// Returns:
//   - PipelineBuilderOption: a function that sets the binding sets
func WithBindingSets(sets ...binding.Set) PipelineBuilderOption {
	return func(p *pipeline) {
		p.bindingSets = append([]binding.Set(nil), sets...)
	}
}

// WithAlphaBlending enables standard source-over alpha blending. It is meant for overlay
// pipelines drawn on top of the scene.
func WithAlphaBlending() PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
}
