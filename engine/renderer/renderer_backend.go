package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode converts a configuration string ("vsync" or "uncapped") into a PresentMode.
//
// Parameters:
//   - s: the mode name, case insensitive
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: an error if the name is not recognised
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(s) {
	case "vsync", "fifo", "":
		return PresentModeVSync, nil
	case "uncapped", "immediate":
		return PresentModeUncapped, nil
	default:
		return PresentModeVSync, fmt.Errorf("unknown present mode %q", s)
	}
}

var (
	// ErrSurfaceLost is returned by BeginFrame when the surface must be reconfigured before the
	// next frame (lost or outdated swapchain). The frame is skipped.
	ErrSurfaceLost = errors.New("surface lost")

	// ErrSurfaceOutOfMemory is returned by BeginFrame when the GPU ran out of memory acquiring
	// the next surface texture. It is not recoverable.
	ErrSurfaceOutOfMemory = errors.New("surface out of memory")

	// errNoFrame is returned by frame operations called outside BeginFrame/EndFrame.
	errNoFrame = errors.New("no frame in progress")
)

// classifySurfaceError maps a surface texture acquisition failure onto ErrSurfaceLost,
// ErrSurfaceOutOfMemory, or a generic wrapped error. The bindings report failures as errors
// carrying the surface status name, so the status is recovered from the message.
//
// The cogentcore bindings always return a texture alongside a nil error, so the
// missing-texture branch only guards other backends. Outdated surfaces are mostly avoided by
// reconfiguring on every framebuffer resize; the status names cover the rest.
//
// Parameters:
//   - err: the error returned while acquiring the surface texture, or nil
//   - acquired: whether a texture was returned
//
// Returns:
//   - error: the classified error, or nil if a texture was acquired without error
func classifySurfaceError(err error, acquired bool) error {
	if err == nil {
		if acquired {
			return nil
		}
		return fmt.Errorf("%w: no surface texture returned", ErrSurfaceLost)
	}
	msg := strings.ToLower(strings.ReplaceAll(err.Error(), " ", ""))
	switch {
	case strings.Contains(msg, "outofmemory"):
		return fmt.Errorf("%w: %v", ErrSurfaceOutOfMemory, err)
	case strings.Contains(msg, "lost"), strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	default:
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
}

// DrawCommand describes one instanced, indexed draw of a mesh.
type DrawCommand struct {
	// PipelineKey selects the cached pipeline.
	PipelineKey string
	// Mesh holds the vertex buffer (slot 0) and the index buffer.
	Mesh bind_group_provider.BindGroupProvider
	// Instances holds the per-instance buffer bound at slot 1. May be nil for pipelines without instance input.
	Instances bind_group_provider.BindGroupProvider
	// InstanceCount is the number of instances to draw.
	InstanceCount uint32
	// BindGroups are set in order: BindGroups[i] is bound at @group(i).
	BindGroups []bind_group_provider.BindGroupProvider
}

// Empty reports whether the command draws nothing. Meshes without indices and instance
// buffers without records have no GPU storage to bind, so empty commands are skipped.
func (c DrawCommand) Empty() bool {
	return c.InstanceCount == 0 || c.Mesh == nil || c.Mesh.IndexCount() == 0
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
