package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/frame"
	"github.com/Carmen-Shannon/oxy-quads/engine/profiler"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-quads/engine/texture"
	"github.com/Carmen-Shannon/oxy-quads/engine/window"
)

// Surface is the presentation surface resized with the window. Satisfied by renderer.Renderer.
type Surface interface {
	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error
}

// Resizer is anything that follows the framebuffer size, such as a scene and its camera.
type Resizer interface {
	Resize(width, height int)
}

// ReloadFunc rebuilds whatever depends on the shader file at path.
type ReloadFunc func(path string) error

// KeyHandler handles a key press and reports whether it consumed the key.
type KeyHandler func(keyCode uint32) bool

// engine implements the Engine interface.
// Everything it owns is driven from the window's message loop on one thread.
type engine struct {
	mu *sync.Mutex

	window  window.Window
	surface Surface
	frames  frame.FrameRenderer

	resizers      []Resizer
	keyHandlers   []KeyHandler
	scrollHandler func(delta float32)

	profiler *profiler.Profiler

	loader        texture.Loader
	loaderTarget  texture.Texture
	watcher       shader.Watcher
	reload        ReloadFunc
	tickCallback  func(deltaTime float32)
	now           func() time.Time
	sleep         func(time.Duration)
	lastFrame     time.Time
	frameDuration time.Duration // minimum frame duration; 0 = uncapped

	err      error
	quitOnce sync.Once
}

// Engine is the main entry point for the demo.
// It runs the per-frame sequence inside the window's message loop: window events, the tick
// callback, finished texture decodes, shader hot reload, the frame itself and the profiler.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// SetTickCallback registers the function called once per frame before rendering.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run wires the window callbacks and blocks until the window closes.
	//
	// Returns:
	//   - error: the fatal frame error that stopped the loop, or nil on a normal close
	Run() error

	// Quit asks the window to close after the current frame.
	// Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options.
// A window and a frame renderer are required.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if the window or frame renderer is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:    &sync.Mutex{},
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil {
		return nil, errors.New("engine: no window")
	}
	if e.frames == nil {
		return nil, errors.New("engine: no frame renderer")
	}
	if e.loader != nil && e.loaderTarget == nil {
		return nil, errors.New("engine: texture loader has no target texture")
	}
	if e.watcher != nil && e.reload == nil {
		return nil, errors.New("engine: shader watcher has no reload function")
	}
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameDuration = frameDuration(fps)
}

func (e *engine) Run() error {
	e.window.SetResizeCallback(e.resize)
	e.window.SetKeyDownCallback(e.keyDown)
	e.window.SetScrollCallback(e.scroll)
	e.window.SetDropCallback(e.drop)
	e.window.SetUpdateCallback(e.update)

	e.lastFrame = e.now()
	common.Logger().Info("engine running", "width", e.window.Width(), "height", e.window.Height())
	e.window.ProcessMessages()
	e.shutdown()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *engine) Quit() {
	e.quitOnce.Do(e.window.RequestClose)
}

// update is the window's per-iteration callback. Events have already been dispatched.
func (e *engine) update() {
	start := e.now()
	dt := float32(start.Sub(e.lastFrame).Seconds())
	e.lastFrame = start

	e.step(dt)

	e.mu.Lock()
	limit := e.frameDuration
	e.mu.Unlock()
	if limit > 0 {
		if remaining := limit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
}

// step runs one frame after window events: tick, texture uploads, shader reloads, render.
func (e *engine) step(dt float32) {
	e.mu.Lock()
	tick := e.tickCallback
	e.mu.Unlock()
	if tick != nil {
		tick(dt)
	}

	e.applyTextures()
	e.applyShaderChanges()

	if err := e.frames.Render(dt); err != nil {
		switch {
		case frame.IsFatal(err):
			common.Logger().Error("fatal frame error", "error", err)
			e.fail(err)
		case errors.Is(err, frame.ErrFrameSkipped):
			common.Logger().Debug("frame skipped", "error", err)
		default:
			common.Logger().Warn("frame failed", "error", err)
		}
		return
	}

	if e.profiler != nil {
		e.profiler.Tick()
	}
}

// fail records the first fatal error and closes the window.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.Quit()
}

// applyTextures uploads every finished decode to the loader's target texture.
func (e *engine) applyTextures() {
	if e.loader == nil {
		return
	}
	e.loader.Drain(func(r texture.Result) {
		if r.Err != nil {
			common.Logger().Warn("texture load failed", "path", r.Path, "error", r.Err)
			return
		}
		if err := e.loaderTarget.Replace(r.Staging); err != nil {
			common.Logger().Warn("texture upload failed", "path", r.Path, "error", err)
			return
		}
		common.Logger().Info("texture replaced", "path", r.Path, "width", r.Staging.Width, "height", r.Staging.Height)
	})
}

// applyShaderChanges rebuilds pipelines whose shader files changed on disk. A failed rebuild
// keeps the previous pipeline.
func (e *engine) applyShaderChanges() {
	if e.watcher == nil {
		return
	}
	for _, path := range e.watcher.Changed() {
		if err := e.reload(path); err != nil {
			common.Logger().Warn("shader reload failed", "path", path, "error", err)
			continue
		}
		common.Logger().Info("shader reloaded", "path", path)
	}
}

// resize forwards a non-zero framebuffer size. A minimised window reports 0x0 and is ignored,
// so the surface keeps its last valid configuration.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		common.Logger().Debug("ignoring empty resize", "width", width, "height", height)
		return
	}
	if e.surface != nil {
		if err := e.surface.Resize(width, height); err != nil {
			common.Logger().Warn("surface resize failed", "width", width, "height", height, "error", err)
		}
	}
	for _, r := range e.resizers {
		r.Resize(width, height)
	}
}

// keyDown offers the key to each handler in order until one consumes it.
func (e *engine) keyDown(keyCode uint32) {
	for _, h := range e.keyHandlers {
		if h(keyCode) {
			return
		}
	}
}

func (e *engine) scroll(delta float32) {
	if e.scrollHandler != nil {
		e.scrollHandler(delta)
	}
}

// drop queues dropped files for decoding. Only the last file wins once they are drained,
// since each replaces the same texture.
func (e *engine) drop(paths []string) {
	if e.loader == nil {
		common.Logger().Warn("file dropped but no texture loader is configured", "files", len(paths))
		return
	}
	for _, p := range paths {
		id, err := e.loader.Submit(p)
		if err != nil {
			common.Logger().Warn("texture load rejected", "path", p, "error", err)
			continue
		}
		common.Logger().Debug("texture load queued", "path", p, "id", id)
	}
}

// shutdown stops the background helpers once the loop has exited.
func (e *engine) shutdown() {
	if e.loader != nil {
		e.loader.Close()
	}
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			common.Logger().Warn("failed to close shader watcher", "error", err)
		}
	}
}

// frameDuration converts a frame cap into the minimum time per frame.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
