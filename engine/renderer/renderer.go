package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quads/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	clearColor           wgpu.Color
	validateShaders      bool
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines, the GPU resources held by BindGroupProviders, and the
// per-frame command recording. The Renderer also implements a backend which allows for multiple
// backend API implementations to exist.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines validates one or more pipelines and creates the corresponding GPU render
	// pipelines via the backend, then caches them by PipelineKey. Pipelines whose keys are already
	// registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if validation or pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// RebuildPipeline validates and creates a GPU pipeline for p, then replaces the cached pipeline
	// with the same key and releases the old one. On failure the cached pipeline is kept.
	//
	// Parameters:
	//   - p: the replacement Pipeline
	//
	// Returns:
	//   - error: an error if validation or pipeline creation fails
	RebuildPipeline(p pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	// A zero width or height is ignored, as happens while a window is minimized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Resize(width, height int) error

	// Reconfigure configures the surface again at its current size, recovering from ErrSurfaceLost.
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Reconfigure() error

	// SurfaceSize returns the size the surface is configured with.
	SurfaceSize() (width, height int)

	// SurfaceFormat returns the color format of the surface.
	SurfaceFormat() wgpu.TextureFormat

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitInstanceBuffer creates the per-instance vertex buffer holding data and stores it on the
	// provider, releasing any previous buffer.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffer on
	//   - data: packed instance records
	//   - count: number of records
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error

	// WriteInstanceBuffer writes data into the provider's instance buffer at offset.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the instance buffer
	//   - offset: destination byte offset
	//   - data: bytes to write
	//
	// Returns:
	//   - error: an error if the write falls outside the buffer
	WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, offset uint64, data []byte) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized via InitTextureView
	// and InitSampler before calling this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores the texture and its view
	// on the given BindGroupProvider at the specified binding index. Must be called before InitBindGroup
	// for any texture bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// WriteTexture replaces the pixels of an existing texture of the same size.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the texture
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the replacement pixels
	//
	// Returns:
	//   - error: an error if the texture is missing or the size differs
	WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index. Must be called before InitBindGroup for any sampler bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	//
	// Returns:
	//   - error: the first write that could not be queued
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the next swapchain texture and begins the main render pass.
	// Must be paired with EndFrame, or AbortFrame on failure.
	//
	// Returns:
	//   - error: ErrSurfaceLost, ErrSurfaceOutOfMemory, or another acquisition error
	BeginFrame() error

	// DrawCall records an instanced draw within the current frame. The pipeline is looked up
	// by cmd.PipelineKey.
	//
	// Parameters:
	//   - cmd: the draw to record
	//
	// Returns:
	//   - error: an error if the pipeline is not registered or the draw could not be recorded
	DrawCall(cmd DrawCommand) error

	// EndFrame ends the render pass and submits the recorded commands.
	//
	// Returns:
	//   - error: an error if no frame is in progress or submission failed
	EndFrame() error

	// AbortFrame drops the current frame without submitting or presenting it.
	AbortFrame()

	// Present displays the submitted frame and releases the swapchain texture.
	//
	// Returns:
	//   - error: an error if no submitted frame is waiting
	Present() error

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	SetPresentMode(mode PresentMode) error

	// SetClearColor sets the color each frame is cleared to.
	//
	// Parameters:
	//   - c: the clear color
	SetClearColor(c wgpu.Color)

	// Release releases every cached pipeline and the GPU device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for the given window,
// and configures the surface at the window's current size.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window whose surface the renderer draws into
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if no adapter, device or surface could be created
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		backendType:     backendType,
		clearColor:      wgpu.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
		validateShaders: true,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		backend, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	default:
		return nil, fmt.Errorf("unknown renderer backend %d", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(r.clearColor)

	if err := r.backend.ConfigureSurface(win.Width(), win.Height()); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Reconfigure() error {
	w, h := r.backend.SurfaceSize()
	if w <= 0 || h <= 0 {
		return nil
	}
	return r.backend.ConfigureSurface(w, h)
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) SetPresentMode(mode PresentMode) error {
	r.backend.SetPresentMode(mode)
	return r.Reconfigure()
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

// prepare validates p and, when enabled, compiles its shader sources offline.
func (r *renderer) prepare(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !r.validateShaders {
		return nil
	}
	seen := make(map[string]bool, 2)
	for _, t := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(t)
		if seen[s.Key()] {
			continue
		}
		seen[s.Key()] = true
		if err := shader.Validate(s.Source()); err != nil {
			return fmt.Errorf("pipeline %q shader %q: %w", p.PipelineKey(), s.Key(), err)
		}
	}
	return nil
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.prepare(p); err != nil {
			return err
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
		common.Logger().Debug("pipeline registered", "key", key)
	}
	return nil
}

func (r *renderer) RebuildPipeline(p pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.prepare(p); err != nil {
		return err
	}
	if err := r.backend.RegisterRenderPipeline(p); err != nil {
		return fmt.Errorf("pipeline %q: %w", p.PipelineKey(), err)
	}
	if old, ok := r.pipelineCache[p.PipelineKey()]; ok && old != p {
		old.Release()
	}
	r.pipelineCache[p.PipelineKey()] = p
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error {
	return r.backend.InitInstanceBuffer(provider, data, count)
}

func (r *renderer) WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, offset uint64, data []byte) error {
	return r.backend.WriteInstanceBuffer(provider, offset, data)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.WriteTexture(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	return r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(cmd DrawCommand) error {
	p := r.Pipeline(cmd.PipelineKey)
	if p == nil {
		return fmt.Errorf("pipeline %q is not registered", cmd.PipelineKey)
	}
	return r.backend.DrawCall(p, cmd)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) AbortFrame() {
	r.backend.AbortFrame()
}

func (r *renderer) Present() error {
	return r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
