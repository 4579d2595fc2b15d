package camera

import (
	_ "embed"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-quads/common"
)

// GPUCameraUniformType is the WGSL type name declared by GPUCameraUniformSource.
const GPUCameraUniformType = "CameraUniform"

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (64 bytes).
//
//go:embed assets/camera_uniform.wgsl
var gpuCameraUniformSource string

// GPUCameraUniformSource returns the WGSL declaration of CameraUniform, included in shaders
// with //@oxy:include camera.
func GPUCameraUniformSource() string {
	return strings.TrimSpace(gpuCameraUniformSource)
}

// GPUCameraUniform is the GPU representation of the camera uniform buffer: one column-major
// view-projection matrix. Matches the WGSL CameraUniform struct (see GPUCameraUniformSource).
// Size: 64 bytes.
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset 0: combined view-projection matrix (mat4x4<f32>)
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutFloat32s(buf, g.ViewProj[:]...)
	return buf
}
