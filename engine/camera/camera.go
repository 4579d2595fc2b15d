package camera

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// UniformSlot is the binding slot of the view-projection uniform within the camera's set.
const UniformSlot = 0

// Device creates and updates the camera's GPU resources. Satisfied by renderer.Renderer.
type Device interface {
	// InitBindGroup creates the bind group and its buffers on provider from descriptor.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the resources
	//   - descriptor: the layout to create
	//   - bufferUsageOverrides: extra usage flags by binding (nil safe)
	//   - bufferSizeOverrides: buffer sizes by binding (nil safe)
	//
	// Returns:
	//   - error: an error if the layout, buffer or bind group was rejected
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers queues buffer writes.
	//
	// Parameters:
	//   - writes: the writes to queue
	//
	// Returns:
	//   - error: the first write that failed
	WriteBuffers(writes []bind_group_provider.BufferWrite) error
}

type cameraImpl struct {
	mu *sync.Mutex

	device Device

	eye    [3]float32
	target [3]float32
	up     [3]float32

	width  float32
	height float32
	near   float32
	far    float32
	zoom   float32

	homeEye, homeTarget [3]float32
	homeZoom            float32

	uniform           GPUCameraUniform
	bindingSet        binding.Set
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera defines the interface for the orthographic camera shared by every renderable in a scene.
//
// The camera owns a 64-byte uniform holding its view-projection matrix, bound at slot 0 of its
// binding set and visible to the vertex stage. Publish must run once per frame before any draw
// that reads the binding.
type Camera interface {
	// ComputeViewProjection returns the view-projection matrix for the current eye, target, up,
	// surface extent, zoom and clip planes, remapped to WebGPU clip space (depth in [0, 1]).
	// It has no side effects: unchanged parameters yield bit-identical results.
	//
	// Returns:
	//   - [16]float32: column-major view-projection matrix
	ComputeViewProjection() [16]float32

	// Publish recomputes the view-projection matrix and writes it to the GPU uniform.
	//
	// Returns:
	//   - error: an error if the write could not be queued
	Publish() error

	// Resize updates the projection extent to the new surface size. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	Resize(width, height int)

	// Extent returns the surface size the projection covers.
	//
	// Returns:
	//   - width, height: the extent in pixels
	Extent() (width, height float32)

	// Eye returns the camera position.
	Eye() [3]float32

	// Target returns the look-at point.
	Target() [3]float32

	// Up returns the up vector.
	Up() [3]float32

	// Near returns the near clipping plane.
	Near() float32

	// Far returns the far clipping plane.
	Far() float32

	// Zoom returns the zoom factor. 1 shows one world unit per pixel.
	Zoom() float32

	// SetZoom sets the zoom factor, clamped to [MinZoom, MaxZoom].
	//
	// Parameters:
	//   - zoom: the new zoom factor
	SetZoom(zoom float32)

	// Pan moves eye and target together by (dx, dy) world units.
	//
	// Parameters:
	//   - dx, dy: the translation in world units
	Pan(dx, dy float32)

	// Reset restores the eye, target and zoom the camera was constructed with.
	Reset()

	// BindingSet returns the camera's binding set: the uniform at UniformSlot, vertex stage.
	BindingSet() binding.Set

	// BindGroupProvider returns the provider holding the uniform buffer and bind group.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Release releases the GPU resources.
	Release()
}

var _ Camera = &cameraImpl{}

const (
	// MinZoom is the smallest zoom factor SetZoom accepts.
	MinZoom = 0.05
	// MaxZoom is the largest zoom factor SetZoom accepts.
	MaxZoom = 50
)

// New creates a Camera covering a width x height surface, creates its binding through device
// and uploads an identity matrix so the uniform is never read uninitialized.
//
// Parameters:
//   - device: creates and writes the GPU uniform
//   - width: surface width in pixels
//   - height: surface height in pixels
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
//   - error: an error if the extent is empty or the device rejected the binding
func New(device Device, width, height int, options ...CameraBuilderOption) (Camera, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("camera extent %dx%d is empty", width, height)
	}

	c := &cameraImpl{
		mu:     &sync.Mutex{},
		device: device,
		eye:    [3]float32{0, 0, -1},
		target: [3]float32{0, 0, 0},
		up:     [3]float32{0, 1, 0},
		width:  float32(width),
		height: float32(height),
		near:   -1000,
		far:    1000,
		zoom:   1,
	}
	for _, option := range options {
		option(c)
	}
	if c.near == c.far {
		return nil, errors.New("camera near and far planes must differ")
	}
	c.zoom = common.Clamp(c.zoom, MinZoom, MaxZoom)
	c.homeEye, c.homeTarget, c.homeZoom = c.eye, c.target, c.zoom

	common.Identity(c.uniform.ViewProj[:])
	c.bindingSet = binding.Set{
		Label: "camera",
		Entries: []binding.Entry{
			binding.Uniform(UniformSlot, binding.StageVertex, uint64(c.uniform.Size())),
		},
	}
	c.bindGroupProvider = bind_group_provider.NewBindGroupProvider(
		"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
	)

	if err := device.InitBindGroup(c.bindGroupProvider, c.bindingSet.LayoutDescriptor(), nil, nil); err != nil {
		c.bindGroupProvider.Release()
		return nil, fmt.Errorf("failed to create camera binding: %w", err)
	}
	if err := c.write(); err != nil {
		c.bindGroupProvider.Release()
		return nil, err
	}
	return c, nil
}

func (c *cameraImpl) ComputeViewProjection() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection()
}

// viewProjection computes clip * ortho * view. Caller must hold the mutex.
func (c *cameraImpl) viewProjection() [16]float32 {
	var view, proj, clip, tmp, out [16]float32

	common.LookAt(view[:],
		c.eye[0], c.eye[1], c.eye[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2],
	)

	// left is +w/2: with the eye on -Z looking toward +Z the view flips X, and the
	// mirrored projection flips it back so world +X stays screen right.
	halfW := c.width / 2 / c.zoom
	halfH := c.height / 2 / c.zoom
	common.Orthographic(proj[:], halfW, -halfW, -halfH, halfH, c.near, c.far)
	common.OpenGLToWGPU(clip[:])

	common.Mul4(tmp[:], proj[:], view[:])
	common.Mul4(out[:], clip[:], tmp[:])
	return out
}

func (c *cameraImpl) Publish() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uniform.ViewProj = c.viewProjection()
	return c.write()
}

// write uploads the current uniform. Caller must hold the mutex or own c exclusively.
func (c *cameraImpl) write() error {
	err := c.device.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: c.bindGroupProvider,
		Binding:  UniformSlot,
		Offset:   0,
		Data:     c.uniform.Marshal(),
	}})
	if err != nil {
		return fmt.Errorf("failed to publish camera uniform: %w", err)
	}
	return nil
}

func (c *cameraImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = float32(width)
	c.height = float32(height)
}

func (c *cameraImpl) Extent() (float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) Eye() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = common.Clamp(zoom, MinZoom, MaxZoom)
}

func (c *cameraImpl) Pan(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eye[0] += dx
	c.eye[1] += dy
	c.target[0] += dx
	c.target[1] += dy
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eye = c.homeEye
	c.target = c.homeTarget
	c.zoom = c.homeZoom
}

func (c *cameraImpl) BindingSet() binding.Set {
	return c.bindingSet
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.bindGroupProvider
}

func (c *cameraImpl) Release() {
	c.bindGroupProvider.Release()
}
