package texture

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/common"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/binding"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device creates and updates texture resources. Satisfied by renderer.Renderer.
type Device interface {
	// InitTextureView creates a texture, uploads stagingData and stores the view at bindingKey.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the texture
	//   - bindingKey: the binding slot
	//   - stagingData: the RGBA8 pixels
	//
	// Returns:
	//   - error: an error if the texture could not be created
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// WriteTexture overwrites the pixels of an existing texture of the same size.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the texture
	//   - bindingKey: the binding slot
	//   - stagingData: the RGBA8 pixels
	//
	// Returns:
	//   - error: an error if no texture exists or the size differs
	WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler at bindingKey.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the sampler
	//   - bindingKey: the binding slot
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if the sampler could not be created
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// InitBindGroup creates the bind group on provider from descriptor.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the bind group
	//   - descriptor: the layout to create
	//   - bufferUsageOverrides: extra usage flags by binding (nil safe)
	//   - bufferSizeOverrides: buffer sizes by binding (nil safe)
	//
	// Returns:
	//   - error: an error if the layout or bind group was rejected
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
}

type textureImpl struct {
	mu *sync.Mutex

	device Device
	label  string
	slot   uint32

	width, height uint32

	bindingSet        binding.Set
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Texture defines the interface for a sampled 2D RGBA texture together with its sampler.
//
// The texture occupies two consecutive slots of its binding set: the texture view at Slot()
// and the sampler at Slot()+1, both visible to the fragment stage.
type Texture interface {
	// Replace uploads new pixels. A same-sized image is written in place; a different size
	// creates a new texture and rebuilds the bind group on the same provider.
	//
	// Parameters:
	//   - staging: the new RGBA8 pixels
	//
	// Returns:
	//   - error: an error if staging is malformed or the device rejected the upload
	Replace(staging common.TextureStagingData) error

	// Size returns the current texture size in pixels.
	Size() (width, height uint32)

	// Slot returns the binding slot of the texture view. The sampler is at Slot()+1.
	Slot() uint32

	// Label returns the debug label.
	Label() string

	// BindingSet returns the texture's binding set.
	BindingSet() binding.Set

	// BindGroupProvider returns the provider holding the texture, sampler and bind group.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Release releases the GPU resources.
	Release()
}

var _ Texture = &textureImpl{}

// Validate checks that staging describes a non-empty, tightly packed RGBA8 image.
//
// Parameters:
//   - staging: the pixels to check
//
// Returns:
//   - error: nil if the size is non-zero and the pixel count matches 4*width*height
func Validate(staging common.TextureStagingData) error {
	if staging.Width == 0 || staging.Height == 0 {
		return fmt.Errorf("texture size %dx%d: %w", staging.Width, staging.Height, ErrEmptyImage)
	}
	want := int(staging.BytesPerRow()) * int(staging.Height)
	if len(staging.Pixels) != want {
		return fmt.Errorf("texture %dx%d needs %d bytes, got %d", staging.Width, staging.Height, want, len(staging.Pixels))
	}
	return nil
}

// New creates a Texture from staging with a clamp-to-edge sampler, and builds its bind group.
//
// Parameters:
//   - device: creates the GPU resources
//   - label: the debug label of the provider
//   - staging: the initial RGBA8 pixels
//   - slot: the binding slot of the texture view; the sampler takes slot+1
//
// Returns:
//   - Texture: the new texture
//   - error: an error if staging is malformed or any GPU object could not be created
func New(device Device, label string, staging common.TextureStagingData, slot uint32) (Texture, error) {
	if err := Validate(staging); err != nil {
		return nil, err
	}

	t := &textureImpl{
		mu:     &sync.Mutex{},
		device: device,
		label:  label,
		slot:   slot,
		width:  staging.Width,
		height: staging.Height,
		bindingSet: binding.Set{
			Label: label,
			Entries: []binding.Entry{
				binding.Texture(slot, binding.StageFragment),
				binding.Sampler(slot+1, binding.StageFragment),
			},
		},
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(label),
	}

	if err := device.InitTextureView(t.bindGroupProvider, int(slot), staging); err != nil {
		t.bindGroupProvider.Release()
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}
	if err := device.InitSampler(t.bindGroupProvider, int(slot+1), common.ClampedSampler()); err != nil {
		t.bindGroupProvider.Release()
		return nil, fmt.Errorf("failed to create sampler for %q: %w", label, err)
	}
	if err := device.InitBindGroup(t.bindGroupProvider, t.bindingSet.LayoutDescriptor(), nil, nil); err != nil {
		t.bindGroupProvider.Release()
		return nil, fmt.Errorf("failed to create bind group for %q: %w", label, err)
	}
	return t, nil
}

func (t *textureImpl) Replace(staging common.TextureStagingData) error {
	if err := Validate(staging); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if staging.Width == t.width && staging.Height == t.height {
		if err := t.device.WriteTexture(t.bindGroupProvider, int(t.slot), staging); err != nil {
			return fmt.Errorf("failed to write texture %q: %w", t.label, err)
		}
		return nil
	}

	if err := t.device.InitTextureView(t.bindGroupProvider, int(t.slot), staging); err != nil {
		return fmt.Errorf("failed to recreate texture %q: %w", t.label, err)
	}
	if err := t.device.InitBindGroup(t.bindGroupProvider, t.bindingSet.LayoutDescriptor(), nil, nil); err != nil {
		return fmt.Errorf("failed to rebuild bind group for %q: %w", t.label, err)
	}
	common.Logger().Debug("texture resized", "label", t.label,
		"from", fmt.Sprintf("%dx%d", t.width, t.height),
		"to", fmt.Sprintf("%dx%d", staging.Width, staging.Height))
	t.width, t.height = staging.Width, staging.Height
	return nil
}

func (t *textureImpl) Size() (uint32, uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

func (t *textureImpl) Slot() uint32 {
	return t.slot
}

func (t *textureImpl) Label() string {
	return t.label
}

func (t *textureImpl) BindingSet() binding.Set {
	return t.bindingSet
}

func (t *textureImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return t.bindGroupProvider
}

func (t *textureImpl) Release() {
	t.bindGroupProvider.Release()
}
