package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	// Provider owns the destination buffer.
	Provider BindGroupProvider
	// Binding selects the buffer on Provider.
	Binding int
	// Offset is the destination byte offset. WebGPU requires a multiple of 4.
	Offset uint64
	// Data is copied into the buffer starting at Offset.
	Data []byte
}

// End returns the byte offset one past the last byte written.
func (w BufferWrite) End() uint64 {
	return w.Offset + uint64(len(w.Data))
}
