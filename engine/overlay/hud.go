// Package overlay draws an immediate-mode debug panel on top of the scene. Text is rasterized on
// the CPU into a texture and drawn as a single screen-space quad in the scene's render pass.
package overlay

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/frame"
	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-quads/engine/texture"
)

// RefreshInterval is the default time between panel redraws.
const RefreshInterval = 250 * time.Millisecond

// panelAlign rounds panel sizes up so small changes in line length reuse the same texture.
const panelAlign = 32

// Device creates the panel texture and quad. Satisfied by renderer.Renderer.
type Device interface {
	texture.Device
	geometry.MeshUploader
}

// StatsSource returns the body lines of the panel. Called on the render thread at most once
// per refresh interval.
type StatsSource func() []string

type hud struct {
	mu *sync.Mutex

	device      Device
	pipelineKey string

	title   string
	source  StatsSource
	refresh time.Duration
	originX float32
	originY float32

	visible bool
	dirty   bool
	elapsed time.Duration
	lines   []string

	tex      texture.Texture
	geom     geometry.GeometryBuffer
	geomSize [4]int
}

// HUD is a toggleable text panel drawn after the scene.
type HUD interface {
	frame.Overlay

	// HandleKey toggles the panel on F1.
	//
	// Parameters:
	//   - keyCode: the GLFW key code pressed
	//
	// Returns:
	//   - bool: true if the key was consumed
	HandleKey(keyCode uint32) bool

	// Visible reports whether the panel is drawn.
	Visible() bool

	// SetVisible shows or hides the panel. Showing it forces a redraw on the next frame.
	//
	// Parameters:
	//   - visible: whether to draw the panel
	SetVisible(visible bool)

	// Lines returns the body lines of the last redraw.
	Lines() []string

	// BindingSet returns the panel texture's binding set, bound at @group(0) of the overlay pipeline.
	BindingSet() binding.Set

	// Release releases the panel texture and quad.
	Release()
}

var _ HUD = &hud{}

// NewHUD creates a HUD drawn with the pipeline registered under pipelineKey. The pipeline must
// bind the panel texture at @group(0) slot 0 and its sampler at slot 1.
//
// Parameters:
//   - device: creates the panel texture and quad
//   - pipelineKey: the alpha-blended overlay pipeline
//   - options: functional options to configure the HUD
//
// Returns:
//   - HUD: the new HUD
//   - error: an error if the panel texture could not be created
func NewHUD(device Device, pipelineKey string, options ...HUDBuilderOption) (HUD, error) {
	h := &hud{
		mu:          &sync.Mutex{},
		device:      device,
		pipelineKey: pipelineKey,
		title:       "oxy-quads",
		refresh:     RefreshInterval,
		originX:     10,
		originY:     10,
		visible:     true,
		dirty:       true,
	}
	for _, option := range options {
		option(h)
	}

	st, err := h.rasterize()
	if err != nil {
		return nil, err
	}
	h.tex, err = texture.New(device, "hud", st, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create hud texture: %w", err)
	}
	return h, nil
}

// rasterize draws the title and current lines. Caller must hold the mutex or own h exclusively.
func (h *hud) rasterize() (common.TextureStagingData, error) {
	w, ht := PanelSize(h.title, h.lines)
	w = int(common.AlignTo(uint64(w), panelAlign))
	ht = int(common.AlignTo(uint64(ht), panelAlign))
	return texture.FromImage(Rasterize(h.title, h.lines, w, ht))
}

func (h *hud) DrawOverlay(pass frame.Pass, dt float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.visible {
		return nil
	}

	h.elapsed += time.Duration(float64(dt) * float64(time.Second))
	if h.dirty || h.elapsed >= h.refresh {
		if err := h.redraw(); err != nil {
			return err
		}
	}

	sw, sh := pass.Size()
	if sw <= 0 || sh <= 0 {
		return nil
	}
	if err := h.layout(sw, sh); err != nil {
		return err
	}

	return pass.Draw(renderer.DrawCommand{
		PipelineKey:   h.pipelineKey,
		Mesh:          h.geom.Provider(),
		InstanceCount: 1,
		BindGroups:    []bind_group_provider.BindGroupProvider{h.tex.BindGroupProvider()},
	})
}

// redraw pulls fresh lines and uploads the panel. Caller must hold the mutex.
func (h *hud) redraw() error {
	if h.source != nil {
		h.lines = h.source()
	}
	st, err := h.rasterize()
	if err != nil {
		return err
	}
	if err := h.tex.Replace(st); err != nil {
		return fmt.Errorf("failed to upload hud: %w", err)
	}
	h.elapsed = 0
	h.dirty = false
	return nil
}

// layout rebuilds the panel quad when the surface or panel size changed. Caller must hold the mutex.
func (h *hud) layout(surfaceW, surfaceH int) error {
	tw, th := h.tex.Size()
	size := [4]int{surfaceW, surfaceH, int(tw), int(th)}
	if h.geom != nil && size == h.geomSize {
		return nil
	}

	vertices := geometry.ScreenRect(h.originX, h.originY, float32(tw), float32(th), float32(surfaceW), float32(surfaceH))
	geom, err := geometry.New(h.device, "hud_quad", vertices, geometry.PlaneIndices())
	if err != nil {
		return fmt.Errorf("failed to build hud quad: %w", err)
	}
	if h.geom != nil {
		h.geom.Release()
	}
	h.geom = geom
	h.geomSize = size
	return nil
}

func (h *hud) HandleKey(keyCode uint32) bool {
	if keyCode != common.KeyF1 {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = !h.visible
	h.dirty = h.dirty || h.visible
	return true
}

func (h *hud) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

func (h *hud) SetVisible(visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = visible
	h.dirty = h.dirty || visible
}

func (h *hud) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

func (h *hud) BindingSet() binding.Set {
	return h.tex.BindingSet()
}

func (h *hud) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.geom != nil {
		h.geom.Release()
		h.geom = nil
	}
	h.tex.Release()
}
