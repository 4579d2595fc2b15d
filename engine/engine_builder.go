package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-quads/engine/frame"
	"github.com/Carmen-Shannon/oxy-quads/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quads/engine/texture"
	"github.com/Carmen-Shannon/oxy-quads/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window whose message loop drives the engine.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithFrameRenderer sets the frame renderer called once per loop iteration.
//
// Parameters:
//   - f: the frame renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameRenderer(f frame.FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.frames = f
	}
}

// WithSurface sets the surface reconfigured when the window is resized.
//
// Parameters:
//   - s: the surface, usually the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithResizers adds components told about every non-zero framebuffer size, after the surface.
//
// Parameters:
//   - resizers: the components to notify, in order
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithResizers(resizers ...Resizer) EngineBuilderOption {
	return func(e *engine) {
		e.resizers = append(e.resizers, resizers...)
	}
}

// WithKeyHandlers adds key handlers. Each key press is offered to them in order until one
// consumes it.
//
// Parameters:
//   - handlers: the key handlers
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyHandlers(handlers ...KeyHandler) EngineBuilderOption {
	return func(e *engine) {
		e.keyHandlers = append(e.keyHandlers, handlers...)
	}
}

// WithScrollHandler sets the function receiving mouse wheel deltas.
//
// Parameters:
//   - handler: the scroll handler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScrollHandler(handler func(delta float32)) EngineBuilderOption {
	return func(e *engine) {
		e.scrollHandler = handler
	}
}

// WithProfiler sets the profiler ticked after every presented frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTextureLoader routes dropped files through loader and uploads each decoded image to
// target on the render thread.
//
// Parameters:
//   - loader: the asynchronous decoder
//   - target: the texture replaced by finished decodes
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTextureLoader(loader texture.Loader, target texture.Texture) EngineBuilderOption {
	return func(e *engine) {
		e.loader = loader
		e.loaderTarget = target
	}
}

// WithShaderReload checks watcher once per frame and calls reload for every changed file.
//
// Parameters:
//   - watcher: reports changed shader files
//   - reload: rebuilds the pipelines using a file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderReload(watcher shader.Watcher, reload ReloadFunc) EngineBuilderOption {
	return func(e *engine) {
		e.watcher = watcher
		e.reload = reload
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameDuration = frameDuration(fps)
	}
}

// withClock replaces the time source and sleep function.
func withClock(now func() time.Time, sleep func(time.Duration)) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
		e.sleep = sleep
	}
}
