package pipeline

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultVertexEntryPoint is the vertex entry point used when none is configured.
	DefaultVertexEntryPoint = "vs_main"

	// DefaultFragmentEntryPoint is the fragment entry point used when none is configured.
	DefaultFragmentEntryPoint = "fs_main"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups.
	pipelineKey string

	vertexShader, fragmentShader shader.Shader
	vertexEntry, fragmentEntry   string

	// bindingSets lists the resource sets in @group order.
	bindingSets []binding.Set

	// renderPipeline is the GPU object, populated by the Renderer.
	renderPipeline *wgpu.RenderPipeline

	// Configuration fields for the render pipeline state.

	cullMode   wgpu.CullMode
	topology   wgpu.PrimitiveTopology
	frontFace  wgpu.FrontFace
	writeMask  wgpu.ColorWriteMask
	blendState *wgpu.BlendState
}

// Pipeline defines the interface for a render pipeline description: the shaders, the entry
// points, the binding sets in slot order and the fixed-function state. The GPU object is
// created by the Renderer and stored back with SetRenderPipeline.
//
// Fixed policy: triangle list, counter-clockwise front faces, back-face culling, filled
// polygons, no depth or stencil, one sample, every color channel written. Color blending
// replaces the destination unless WithAlphaBlending is given.
type Pipeline interface {
	// PipelineKey retrieves the unique identifier for this pipeline.
	//
	// Returns:
	//   - string: the pipeline's unique key
	PipelineKey() string

	// Shader retrieves the shader of the given stage.
	//
	// Parameters:
	//   - shaderType: the stage of the shader to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not configured
	Shader(shaderType shader.ShaderType) shader.Shader

	// EntryPoint retrieves the configured entry point for a stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint(shaderType shader.ShaderType) string

	// BindingSets returns the binding sets in @group order.
	BindingSets() []binding.Set

	// BindGroupLayouts returns the layouts declared by both shaders, merged per group, with each
	// binding visible to the stages whose entry point uses it.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: merged layouts keyed by group index
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// Validate checks the pipeline before any GPU object is created: both shaders are present,
	// both entry points exist for their stage, and the binding sets agree with the layouts
	// the shaders declare.
	//
	// Returns:
	//   - error: an error wrapping shader.ErrEntryPointMissing or binding.ErrLayoutMismatch, or nil
	Validate() error

	// RenderPipeline returns the GPU render pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the GPU render pipeline created by the Renderer.
	SetRenderPipeline(p *wgpu.RenderPipeline)

	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the color blend state, or nil for replace.
	BlendState() *wgpu.BlendState

	// Release releases the GPU render pipeline if one was created.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline description with the fixed policy and the given options.
//
// Parameters:
//   - pipelineKey: a unique key to identify the pipeline
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:   pipelineKey,
		vertexEntry:   DefaultVertexEntryPoint,
		fragmentEntry: DefaultFragmentEntryPoint,
		cullMode:      wgpu.CullModeBack,
		topology:      wgpu.PrimitiveTopologyTriangleList,
		frontFace:     wgpu.FrontFaceCCW,
		writeMask:     wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) EntryPoint(shaderType shader.ShaderType) string {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexEntry
	case shader.ShaderTypeFragment:
		return p.fragmentEntry
	default:
		return ""
	}
}

func (p *pipeline) BindingSets() []binding.Set {
	return p.bindingSets
}

func (p *pipeline) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertex = p.vertexShader.BindGroupLayoutsFor(p.vertexEntry)
	}
	if p.fragmentShader != nil {
		fragment = p.fragmentShader.BindGroupLayoutsFor(p.fragmentEntry)
	}
	merged := MergeBindGroupLayouts(vertex, fragment)
	for g, desc := range merged {
		if g < len(p.bindingSets) {
			desc.Label = p.bindingSets[g].Label
			merged[g] = desc
		}
	}
	return merged
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil || p.fragmentShader == nil {
		return fmt.Errorf("pipeline %q: both vertex and fragment shaders must be set", p.pipelineKey)
	}
	if !p.vertexShader.HasEntryPoint(p.vertexEntry) {
		return fmt.Errorf("pipeline %q: %w: no @vertex fn %s in %s", p.pipelineKey, shader.ErrEntryPointMissing, p.vertexEntry, p.vertexShader.Key())
	}
	if !p.fragmentShader.HasEntryPoint(p.fragmentEntry) {
		return fmt.Errorf("pipeline %q: %w: no @fragment fn %s in %s", p.pipelineKey, shader.ErrEntryPointMissing, p.fragmentEntry, p.fragmentShader.Key())
	}

	declared := p.BindGroupLayouts()
	groups := make([]int, 0, len(declared))
	for g := range declared {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	for _, g := range groups {
		if g >= len(p.bindingSets) {
			return fmt.Errorf("pipeline %q: %w: shader declares @group(%d) but only %d binding sets were supplied", p.pipelineKey, binding.ErrLayoutMismatch, g, len(p.bindingSets))
		}
	}
	for g, set := range p.bindingSets {
		desc, ok := declared[g]
		if !ok {
			return fmt.Errorf("pipeline %q: %w: binding set %q at @group(%d) is not declared by the shaders", p.pipelineKey, binding.ErrLayoutMismatch, set.Label, g)
		}
		if err := set.Verify(desc); err != nil {
			return fmt.Errorf("pipeline %q @group(%d): %w", p.pipelineKey, g, err)
		}
	}
	return nil
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}

// MergeBindGroupLayouts combines the vertex and fragment layouts of a pipeline. Bindings present
// in both stages have their visibility OR'd together; entries are sorted by binding index.
//
// Parameters:
//   - vertexLayouts: layouts declared by the vertex shader
//   - fragmentLayouts: layouts declared by the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged layouts keyed by group index
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	byGroup := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	add := func(layouts map[int]wgpu.BindGroupLayoutDescriptor) {
		for g, desc := range layouts {
			if byGroup[g] == nil {
				byGroup[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if existing, ok := byGroup[g][e.Binding]; ok {
					existing.Visibility |= e.Visibility
					byGroup[g][e.Binding] = existing
				} else {
					byGroup[g][e.Binding] = e
				}
			}
		}
	}
	add(vertexLayouts)
	add(fragmentLayouts)

	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(byGroup))
	for g, entryMap := range byGroup {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
		for _, e := range entryMap {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return merged
}
