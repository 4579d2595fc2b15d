package frame

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
)

// ErrPassEnded is returned by Pass.Draw once the frame that issued the pass has finished.
var ErrPassEnded = errors.New("render pass has ended")

// Pass is a handle to the render pass of the frame in progress. Overlays append draws through
// it after the scene has drawn, so they composite on top. A Pass is only valid during the
// DrawOverlay call that received it.
type Pass interface {
	// Draw records one draw into the current pass.
	//
	// Parameters:
	//   - cmd: the draw to record
	//
	// Returns:
	//   - error: ErrPassEnded if the frame has finished, or the target's draw error
	Draw(cmd renderer.DrawCommand) error

	// Size returns the surface size the pass renders to.
	Size() (width, height int)
}

type pass struct {
	mu *sync.Mutex

	target        Target
	width, height int
	ended         bool
	draws         int
}

var _ Pass = &pass{}

func newPass(target Target) *pass {
	w, h := target.SurfaceSize()
	return &pass{mu: &sync.Mutex{}, target: target, width: w, height: h}
}

func (p *pass) Draw(cmd renderer.DrawCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return ErrPassEnded
	}
	if err := p.target.DrawCall(cmd); err != nil {
		return err
	}
	p.draws++
	return nil
}

func (p *pass) Size() (int, int) {
	return p.width, p.height
}

func (p *pass) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = true
}
