// Package binding describes the resources a shader expects at one bind group slot, in a form
// the renderer can turn into a GPU layout and check against what the shader source declares.
package binding

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLayoutMismatch is returned when a Set disagrees with the layout a shader declares.
var ErrLayoutMismatch = errors.New("binding layout mismatch")

// Kind identifies the resource type bound at a slot.
type Kind int

const (
	// KindUniformBuffer is a var<uniform> buffer.
	KindUniformBuffer Kind = iota

	// KindStorageBuffer is a var<storage> buffer, read-only or read-write.
	KindStorageBuffer

	// KindTexture is a sampled 2D float texture.
	KindTexture

	// KindSampler is a filtering sampler.
	KindSampler
)

func (k Kind) String() string {
	switch k {
	case KindUniformBuffer:
		return "uniform"
	case KindStorageBuffer:
		return "storage"
	case KindTexture:
		return "texture"
	case KindSampler:
		return "sampler"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Stage is a bit set of the shader stages that can see a binding.
type Stage uint32

const (
	StageVertex   = Stage(wgpu.ShaderStageVertex)
	StageFragment = Stage(wgpu.ShaderStageFragment)
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageVertex | StageFragment:
		return "vertex|fragment"
	case 0:
		return "none"
	default:
		return fmt.Sprintf("stage(%#x)", uint32(s))
	}
}

// Entry is one resource in a Set.
type Entry struct {
	// Slot is the @binding index inside the group.
	Slot uint32
	// Kind is the resource type.
	Kind Kind
	// Stage is the set of stages that read the resource.
	Stage Stage
	// Size is the minimum binding size of a buffer entry in bytes. Zero means unchecked.
	Size uint64
}

// Set is the ordered list of resources bound together at one @group index.
type Set struct {
	Label   string
	Entries []Entry
}

// Uniform returns an Entry for a uniform buffer of the given size.
func Uniform(slot uint32, stage Stage, size uint64) Entry {
	return Entry{Slot: slot, Kind: KindUniformBuffer, Stage: stage, Size: size}
}

// Texture returns an Entry for a sampled 2D texture.
func Texture(slot uint32, stage Stage) Entry {
	return Entry{Slot: slot, Kind: KindTexture, Stage: stage}
}

// Sampler returns an Entry for a filtering sampler.
func Sampler(slot uint32, stage Stage) Entry {
	return Entry{Slot: slot, Kind: KindSampler, Stage: stage}
}

// LayoutDescriptor converts the set into the descriptor used to create a GPU bind group layout.
// Entries are emitted in slot order.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor for this set
func (s Set) LayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(s.Entries))
	for _, e := range s.sorted() {
		le := wgpu.BindGroupLayoutEntry{
			Binding:    e.Slot,
			Visibility: wgpu.ShaderStage(e.Stage),
		}
		switch e.Kind {
		case KindUniformBuffer:
			le.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: e.Size}
		case KindStorageBuffer:
			le.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: e.Size}
		case KindTexture:
			le.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case KindSampler:
			le.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		}
		entries = append(entries, le)
	}
	return wgpu.BindGroupLayoutDescriptor{
		Label:   s.Label,
		Entries: entries,
	}
}

// Verify checks the set against a layout declared by shader source. Both must list the same
// slots, and each slot must agree on resource kind and visible stages. Buffer sizes are
// checked only when both sides state one.
//
// Parameters:
//   - declared: the layout parsed from the shader
//
// Returns:
//   - error: an error wrapping ErrLayoutMismatch describing the first disagreement, or nil
func (s Set) Verify(declared wgpu.BindGroupLayoutDescriptor) error {
	other, err := FromDescriptor(declared.Label, declared)
	if err != nil {
		return err
	}
	mine := s.sorted()
	theirs := other.sorted()
	if len(mine) != len(theirs) {
		return fmt.Errorf("%w: set %q has %d entries, shader declares %d", ErrLayoutMismatch, s.Label, len(mine), len(theirs))
	}
	for i := range mine {
		a, b := mine[i], theirs[i]
		switch {
		case a.Slot != b.Slot:
			return fmt.Errorf("%w: set %q entry %d is slot %d, shader declares slot %d", ErrLayoutMismatch, s.Label, i, a.Slot, b.Slot)
		case a.Kind != b.Kind:
			return fmt.Errorf("%w: set %q slot %d is %s, shader declares %s", ErrLayoutMismatch, s.Label, a.Slot, a.Kind, b.Kind)
		case a.Stage != b.Stage:
			return fmt.Errorf("%w: set %q slot %d is visible to %s, shader uses it from %s", ErrLayoutMismatch, s.Label, a.Slot, a.Stage, b.Stage)
		case a.Size != 0 && b.Size != 0 && a.Size < b.Size:
			return fmt.Errorf("%w: set %q slot %d holds %d bytes, shader needs %d", ErrLayoutMismatch, s.Label, a.Slot, a.Size, b.Size)
		}
	}
	return nil
}

// FromDescriptor converts a layout descriptor back into a Set.
//
// Parameters:
//   - label: the label of the resulting set
//   - d: the descriptor to convert
//
// Returns:
//   - Set: the equivalent set
//   - error: an error wrapping ErrLayoutMismatch if an entry uses a resource type sets cannot describe
func FromDescriptor(label string, d wgpu.BindGroupLayoutDescriptor) (Set, error) {
	s := Set{Label: label, Entries: make([]Entry, 0, len(d.Entries))}
	for _, le := range d.Entries {
		e := Entry{Slot: le.Binding, Stage: Stage(le.Visibility)}
		switch {
		case le.Buffer.Type == wgpu.BufferBindingTypeUniform:
			e.Kind = KindUniformBuffer
			e.Size = le.Buffer.MinBindingSize
		case le.Buffer.Type == wgpu.BufferBindingTypeStorage || le.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage:
			e.Kind = KindStorageBuffer
			e.Size = le.Buffer.MinBindingSize
		case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			e.Kind = KindTexture
		case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			e.Kind = KindSampler
		default:
			return Set{}, fmt.Errorf("%w: slot %d has an unsupported resource type", ErrLayoutMismatch, le.Binding)
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

func (s Set) sorted() []Entry {
	out := make([]Entry, len(s.Entries))
	copy(out, s.Entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}
