// Package frame drives one frame at a time: acquire the surface image, publish per-frame
// bindings, record the scene and overlay draws into a single pass, then submit and present.
package frame

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
)

// ErrFrameSkipped is returned by Render when no image could be acquired and the frame was
// dropped before anything was recorded. The next frame proceeds normally.
var ErrFrameSkipped = errors.New("frame skipped")

// Target is the part of renderer.Renderer a FrameRenderer drives.
type Target interface {
	BeginFrame() error
	DrawCall(cmd renderer.DrawCommand) error
	EndFrame() error
	AbortFrame()
	Present() error
	Reconfigure() error
	SurfaceSize() (width, height int)
}

// Scene supplies the per-frame uploads and the draws of one frame.
type Scene interface {
	// Publish uploads per-frame bindings. Called exactly once per frame before any draw.
	Publish() error

	// DrawCommands returns the scene's draws in order.
	DrawCommands() []renderer.DrawCommand
}

// Overlay appends its own draws after the scene's, in the same pass.
type Overlay interface {
	// DrawOverlay records the overlay.
	//
	// Parameters:
	//   - pass: the pass in progress, valid only for the duration of the call
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: an error drops the frame
	DrawOverlay(pass Pass, dt float32) error
}

// Stats counts frame outcomes since the FrameRenderer was created.
type Stats struct {
	// Rendered is the number of frames presented.
	Rendered uint64
	// Skipped is the number of frames dropped before recording because no image was acquired.
	Skipped uint64
	// Failed is the number of frames aborted after recording started.
	Failed uint64
	// Reconfigurations is the number of surface reconfigurations after a lost surface.
	Reconfigurations uint64
	// Draws is the number of draws recorded in the last presented frame.
	Draws int
}

type frameRenderer struct {
	mu *sync.Mutex

	target   Target
	scene    Scene
	overlays []Overlay
	stats    Stats
}

// FrameRenderer records and presents frames. It holds no GPU state of its own between frames,
// so a dropped frame leaves nothing to roll back.
type FrameRenderer interface {
	// Render runs one frame.
	//
	// A lost or outdated surface triggers exactly one reconfiguration and returns an error
	// wrapping ErrFrameSkipped and renderer.ErrSurfaceLost. An out-of-memory surface returns an
	// error wrapping renderer.ErrSurfaceOutOfMemory, which IsFatal reports. Any other acquisition
	// failure is logged and returned wrapping ErrFrameSkipped. Failures after acquisition abort
	// the recorded work without presenting.
	//
	// Parameters:
	//   - dt: seconds since the previous frame, passed to overlays
	//
	// Returns:
	//   - error: nil when the frame was presented
	Render(dt float32) error

	// AddOverlay registers o to draw after the scene. Overlays draw in registration order.
	//
	// Parameters:
	//   - o: the overlay to add
	AddOverlay(o Overlay)

	// SetScene replaces the scene drawn each frame.
	//
	// Parameters:
	//   - s: the new scene
	SetScene(s Scene)

	// Stats returns the frame counters.
	Stats() Stats
}

var _ FrameRenderer = &frameRenderer{}

// NewFrameRenderer creates a FrameRenderer drawing scene into target.
//
// Parameters:
//   - target: the renderer that owns the surface and the pass
//   - scene: the scene to draw each frame
//   - options: functional options to configure the frame renderer
//
// Returns:
//   - FrameRenderer: the new frame renderer
//   - error: an error if target or scene is nil
func NewFrameRenderer(target Target, scene Scene, options ...FrameRendererBuilderOption) (FrameRenderer, error) {
	if target == nil {
		return nil, errors.New("frame renderer requires a target")
	}
	if scene == nil {
		return nil, errors.New("frame renderer requires a scene")
	}
	f := &frameRenderer{
		mu:     &sync.Mutex{},
		target: target,
		scene:  scene,
	}
	for _, option := range options {
		option(f)
	}
	return f, nil
}

// IsFatal reports whether err from Render should end the run loop.
//
// Parameters:
//   - err: an error returned by Render
//
// Returns:
//   - bool: true if the device ran out of memory
func IsFatal(err error) bool {
	return errors.Is(err, renderer.ErrSurfaceOutOfMemory)
}

func (f *frameRenderer) Render(dt float32) error {
	f.mu.Lock()
	scene := f.scene
	overlays := f.overlays
	f.mu.Unlock()

	if err := f.target.BeginFrame(); err != nil {
		return f.acquireFailed(err)
	}

	p := newPass(f.target)
	err := record(p, scene, overlays, dt)
	p.end()
	if err != nil {
		f.target.AbortFrame()
		f.count(func(s *Stats) { s.Failed++ })
		return err
	}

	if err := f.target.EndFrame(); err != nil {
		f.target.AbortFrame()
		f.count(func(s *Stats) { s.Failed++ })
		return fmt.Errorf("failed to submit frame: %w", err)
	}
	if err := f.target.Present(); err != nil {
		f.count(func(s *Stats) { s.Failed++ })
		return fmt.Errorf("failed to present frame: %w", err)
	}

	f.count(func(s *Stats) {
		s.Rendered++
		s.Draws = p.draws
	})
	return nil
}

func (f *frameRenderer) count(update func(s *Stats)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(&f.stats)
}

func (f *frameRenderer) acquireFailed(err error) error {
	switch {
	case errors.Is(err, renderer.ErrSurfaceOutOfMemory):
		common.Logger().Error("surface out of memory", "error", err)
		return fmt.Errorf("failed to acquire frame: %w", err)

	case errors.Is(err, renderer.ErrSurfaceLost):
		f.count(func(s *Stats) { s.Skipped++ })
		if rerr := f.target.Reconfigure(); rerr != nil {
			common.Logger().Warn("surface reconfiguration failed", "error", rerr)
			return fmt.Errorf("%w: %w: reconfigure: %w", ErrFrameSkipped, err, rerr)
		}
		f.count(func(s *Stats) { s.Reconfigurations++ })
		common.Logger().Info("surface reconfigured", "cause", err)
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)

	default:
		f.count(func(s *Stats) { s.Skipped++ })
		common.Logger().Warn("frame skipped", "error", err)
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
}

// record publishes the scene bindings and records the scene and overlay draws into p.
func record(p *pass, scene Scene, overlays []Overlay, dt float32) error {
	if err := scene.Publish(); err != nil {
		return fmt.Errorf("failed to publish scene bindings: %w", err)
	}
	for _, cmd := range scene.DrawCommands() {
		if err := p.Draw(cmd); err != nil {
			return fmt.Errorf("failed to draw %q: %w", cmd.PipelineKey, err)
		}
	}
	for i, o := range overlays {
		if err := o.DrawOverlay(p, dt); err != nil {
			return fmt.Errorf("overlay %d failed: %w", i, err)
		}
	}
	return nil
}

func (f *frameRenderer) AddOverlay(o Overlay) {
	if o == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlays = append(slices.Clip(f.overlays), o)
}

func (f *frameRenderer) SetScene(s Scene) {
	if s == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scene = s
}

func (f *frameRenderer) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
