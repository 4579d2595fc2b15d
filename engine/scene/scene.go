package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/engine/geometry"
	"github.com/Carmen-Shannon/oxy-quads/engine/instance"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
)

// ErrInvalidRenderable is returned by AddRenderable when a renderable has no pipeline key or geometry.
var ErrInvalidRenderable = errors.New("invalid renderable")

// Camera is the part of camera.Camera a scene drives.
type Camera interface {
	// Publish writes the current view-projection matrix to the GPU uniform.
	Publish() error

	// Resize updates the projection extent.
	Resize(width, height int)

	// BindGroupProvider returns the provider bound at @group(0) of every draw.
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

// Renderable is one indexed, instanced draw.
type Renderable struct {
	// PipelineKey selects the pipeline registered with the renderer.
	PipelineKey string
	// Geometry supplies the vertex and index buffers.
	Geometry geometry.GeometryBuffer
	// Instances supplies the per-instance transforms. Nil draws a single instance
	// with no instance buffer bound.
	Instances instance.InstanceBuffer
	// Bindings are bound after the camera, so Bindings[i] is @group(i+1).
	Bindings []bind_group_provider.BindGroupProvider
}

type scene struct {
	mu *sync.RWMutex

	name        string
	cam         Camera
	renderables []Renderable
}

// Scene owns the renderables drawn with one camera. The camera's binding is always @group(0);
// each renderable supplies the groups that follow it.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() Camera

	// AddRenderable appends r to the draw list. Renderables draw in insertion order.
	//
	// Parameters:
	//   - r: the renderable to add
	//
	// Returns:
	//   - error: ErrInvalidRenderable if r has no pipeline key or no geometry
	AddRenderable(r Renderable) error

	// Renderables returns a copy of the draw list.
	Renderables() []Renderable

	// Publish uploads the camera uniform. Called once per frame before any draw.
	//
	// Returns:
	//   - error: the camera's write error
	Publish() error

	// DrawCommands builds one command per renderable covering its full index range and its
	// full current instance count. Renderables whose instance buffer is empty are skipped.
	//
	// Returns:
	//   - []renderer.DrawCommand: the commands in draw order
	DrawCommands() []renderer.DrawCommand

	// Resize forwards a surface resize to the camera.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	Resize(width, height int)

	// Release releases the GPU resources of every renderable. The camera is left to its owner.
	Release()
}

var _ Scene = &scene{}

// NewScene creates a Scene drawn through cam.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera whose binding is @group(0) (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: an error if cam is nil or an initial renderable is invalid
func NewScene(name string, cam Camera, options ...SceneBuilderOption) (Scene, error) {
	if cam == nil {
		return nil, fmt.Errorf("scene %q requires a camera", name)
	}
	s := &scene{
		mu:   &sync.RWMutex{},
		name: name,
		cam:  cam,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() Camera {
	return s.cam
}

func (s *scene) AddRenderable(r Renderable) error {
	if r.PipelineKey == "" {
		return fmt.Errorf("%w: empty pipeline key", ErrInvalidRenderable)
	}
	if r.Geometry == nil {
		return fmt.Errorf("%w: pipeline %q has no geometry", ErrInvalidRenderable, r.PipelineKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderables = append(s.renderables, r)
	return nil
}

func (s *scene) Renderables() []Renderable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Renderable, len(s.renderables))
	copy(out, s.renderables)
	return out
}

func (s *scene) Publish() error {
	return s.cam.Publish()
}

func (s *scene) DrawCommands() []renderer.DrawCommand {
	s.mu.RLock()
	defer s.mu.RUnlock()

	camProvider := s.cam.BindGroupProvider()
	cmds := make([]renderer.DrawCommand, 0, len(s.renderables))
	for _, r := range s.renderables {
		cmd := renderer.DrawCommand{
			PipelineKey:   r.PipelineKey,
			Mesh:          r.Geometry.Provider(),
			InstanceCount: 1,
			BindGroups:    make([]bind_group_provider.BindGroupProvider, 0, len(r.Bindings)+1),
		}
		if r.Instances != nil {
			if r.Instances.Len() == 0 {
				continue
			}
			cmd.Instances = r.Instances.Provider()
			cmd.InstanceCount = uint32(r.Instances.Len())
		}
		cmd.BindGroups = append(cmd.BindGroups, camProvider)
		cmd.BindGroups = append(cmd.BindGroups, r.Bindings...)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (s *scene) Resize(width, height int) {
	s.cam.Resize(width, height)
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.renderables {
		r.Geometry.Release()
		if r.Instances != nil {
			r.Instances.Release()
		}
	}
	s.renderables = nil
}
