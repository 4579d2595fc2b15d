package instance

import (
	"github.com/Carmen-Shannon/oxy-quads/common"
)

// RecordSize is the byte stride of one packed Record.
const RecordSize = 64

// InstanceInputSource is the WGSL declaration matching the Record byte layout: the four
// columns of the model matrix at locations 5 through 8. Shaders pull it in with
// //@oxy:include instance.
const InstanceInputSource = `struct InstanceInput {
    @location(5) model_0: vec4<f32>,
    @location(6) model_1: vec4<f32>,
    @location(7) model_2: vec4<f32>,
    @location(8) model_3: vec4<f32>,
};`

// Record is the per-instance data: a column-major model matrix.
type Record struct {
	Model [16]float32
}

// Identity returns a Record that leaves the mesh untransformed.
func Identity() Record {
	var r Record
	common.Identity(r.Model[:])
	return r
}

// FromTranslationScale returns a Record that scales the mesh uniformly by s and then
// translates it by (tx, ty, tz).
//
// Parameters:
//   - tx, ty, tz: the translation
//   - s: the uniform scale
//
// Returns:
//   - Record: the instance record
func FromTranslationScale(tx, ty, tz, s float32) Record {
	var r Record
	common.Identity(r.Model[:])
	r.Model[0], r.Model[5], r.Model[10] = s, s, s
	r.Model[12], r.Model[13], r.Model[14] = tx, ty, tz
	return r
}

// FromTransform returns a Record that scales uniformly, rotates about +Z by rotZ radians
// and then translates to pos.
//
// Parameters:
//   - pos: the translation
//   - rotZ: the rotation about the Z axis in radians
//   - scale: the uniform scale
//
// Returns:
//   - Record: the instance record
func FromTransform(pos [3]float32, rotZ, scale float32) Record {
	var r Record
	common.BuildModelMatrix(r.Model[:], pos[0], pos[1], pos[2], 0, 0, rotZ, scale, scale, scale)
	return r
}

// Marshal packs the record into RecordSize little-endian bytes.
func (r Record) Marshal() []byte {
	out := make([]byte, RecordSize)
	common.PutFloat32s(out, r.Model[:]...)
	return out
}

// MarshalRecords packs records back to back.
//
// Parameters:
//   - records: the records to pack
//
// Returns:
//   - []byte: RecordSize bytes per record
func MarshalRecords(records []Record) []byte {
	out := make([]byte, len(records)*RecordSize)
	for i, r := range records {
		common.PutFloat32s(out[i*RecordSize:], r.Model[:]...)
	}
	return out
}
