package instance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-quads/engine/renderer/bind_group_provider"
)

// ErrOutOfRange is returned by Update and Record for an offset outside [0, Len()).
var ErrOutOfRange = errors.New("instance offset out of range")

// Publisher owns the GPU copy of instance data. Satisfied by renderer.Renderer.
type Publisher interface {
	// InitInstanceBuffer replaces the provider's instance buffer with one holding data.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the instance buffer
	//   - data: packed records
	//   - count: the number of records in data
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error

	// WriteInstanceBuffer overwrites part of the provider's instance buffer.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the instance buffer
	//   - offset: destination byte offset
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if the write could not be queued
	WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, offset uint64, data []byte) error
}

// instanceBuffer is the implementation of the InstanceBuffer interface.
type instanceBuffer struct {
	mu        *sync.Mutex
	publisher Publisher
	provider  bind_group_provider.BindGroupProvider
	records   []Record
}

// InstanceBuffer is an ordered, growable list of instance records with a GPU mirror bound at
// vertex buffer slot 1. Insertion order is draw order and buffer offset.
//
// The local records and the GPU copy agree whenever a call returns. When the publisher fails
// the call returns its error and local state is left as it was before the call.
//
// Append republishes every record into a new GPU buffer, so growing to n records costs O(n)
// per call. Use it at startup or for rare additions, not for per-frame streaming.
type InstanceBuffer interface {
	// Append adds r at the end and republishes the whole buffer.
	//
	// Parameters:
	//   - r: the record to append
	//
	// Returns:
	//   - int: the offset of the new record
	//   - error: the publisher error, if any
	Append(r Record) (int, error)

	// Update rewrites the record at offset in place, locally and on the GPU, without reallocating.
	//
	// Parameters:
	//   - offset: the record index, 0 <= offset < Len()
	//   - r: the replacement record
	//
	// Returns:
	//   - error: ErrOutOfRange or the publisher error
	Update(offset int, r Record) error

	// Len returns the number of records.
	Len() int

	// Record returns the record at offset.
	//
	// Parameters:
	//   - offset: the record index
	//
	// Returns:
	//   - Record: the record
	//   - error: ErrOutOfRange if offset is invalid
	Record(offset int) (Record, error)

	// Records returns a copy of every record in order.
	Records() []Record

	// Bytes returns the packed local records, identical to the GPU copy.
	Bytes() []byte

	// Provider returns the BindGroupProvider holding the GPU instance buffer.
	Provider() bind_group_provider.BindGroupProvider

	// Release releases the GPU buffer. Local records are kept.
	Release()
}

var _ InstanceBuffer = &instanceBuffer{}

// New creates an InstanceBuffer holding initial and publishes it. An empty buffer allocates no
// GPU storage until the first Append, since WebGPU has no zero-sized buffers; it draws no instances.
//
// Parameters:
//   - publisher: owner of the GPU copy
//   - label: debug label for the GPU buffer
//   - initial: the starting records (may be empty)
//
// Returns:
//   - InstanceBuffer: the buffer
//   - error: the publisher error, if any
func New(publisher Publisher, label string, initial []Record) (InstanceBuffer, error) {
	b := &instanceBuffer{
		mu:        &sync.Mutex{},
		publisher: publisher,
		provider:  bind_group_provider.NewBindGroupProvider(label),
		records:   append([]Record(nil), initial...),
	}
	if len(b.records) > 0 {
		if err := publisher.InitInstanceBuffer(b.provider, MarshalRecords(b.records), len(b.records)); err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", label, err)
		}
	}
	return b, nil
}

func (b *instanceBuffer) Append(r Record) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := append(b.records[:len(b.records):len(b.records)], r)
	if err := b.publisher.InitInstanceBuffer(b.provider, MarshalRecords(next), len(next)); err != nil {
		return -1, fmt.Errorf("failed to republish %s: %w", b.provider.Label(), err)
	}
	b.records = next
	return len(next) - 1, nil
}

func (b *instanceBuffer) Update(offset int, r Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset >= len(b.records) {
		return fmt.Errorf("%w: offset %d, length %d", ErrOutOfRange, offset, len(b.records))
	}
	if err := b.publisher.WriteInstanceBuffer(b.provider, uint64(offset)*RecordSize, r.Marshal()); err != nil {
		return fmt.Errorf("failed to write %s[%d]: %w", b.provider.Label(), offset, err)
	}
	b.records[offset] = r
	return nil
}

func (b *instanceBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

func (b *instanceBuffer) Record(offset int) (Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 || offset >= len(b.records) {
		return Record{}, fmt.Errorf("%w: offset %d, length %d", ErrOutOfRange, offset, len(b.records))
	}
	return b.records[offset], nil
}

func (b *instanceBuffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Record(nil), b.records...)
}

func (b *instanceBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return MarshalRecords(b.records)
}

func (b *instanceBuffer) Provider() bind_group_provider.BindGroupProvider {
	return b.provider
}

func (b *instanceBuffer) Release() {
	b.provider.Release()
}
