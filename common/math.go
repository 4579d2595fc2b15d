package common

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// TransformPoint applies a column-major 4x4 matrix to the point (x, y, z, 1) and returns
// the resulting homogeneous coordinate.
//
// Parameters:
//   - m: the matrix to apply (16 elements)
//   - x, y, z: the point to transform
//
// Returns:
//   - [4]float32: the transformed (x, y, z, w) coordinate
func TransformPoint(m []float32, x, y, z float32) [4]float32 {
	var out [4]float32
	for row := 0; row < 4; row++ {
		out[row] = m[row]*x + m[4+row]*y + m[8+row]*z + m[12+row]
	}
	return out
}

// Orthographic creates a right-handed orthographic projection in OpenGL clip space,
// mapping the box [left, right] x [bottom, top] x [-near, -far] into [-1, 1] on every axis.
// Pair it with OpenGLToWGPU to remap depth into the WebGPU [0, 1] range.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, right: the x extents of the view volume
//   - bottom, top: the y extents of the view volume
//   - near, far: the depth extents of the view volume
func Orthographic(out []float32, left, right, bottom, top, near, far float32) {
	Identity(out)

	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = -2 / (far - near)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = -(far + near) / (far - near)
}

// OpenGLToWGPU writes the clip-space correction that converts OpenGL depth [-1, 1]
// to WebGPU depth [0, 1] (z' = 0.5*z + 0.5*w). X and Y are unchanged.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
func OpenGLToWGPU(out []float32) {
	Identity(out)
	out[10] = 0.5
	out[14] = 0.5
}

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). All matrices are column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - posX, posY, posZ: translation in world space
//   - rotX, rotY, rotZ: rotation angles in radians around each axis
//   - scaleX, scaleY, scaleZ: scale factors along each axis
func BuildModelMatrix(out []float32, posX, posY, posZ, rotX, rotY, rotZ, scaleX, scaleY, scaleZ float32) {
	cx, sx := math32.Cos(rotX), math32.Sin(rotX)
	cy, sy := math32.Cos(rotY), math32.Sin(rotY)
	cz, sz := math32.Cos(rotZ), math32.Sin(rotZ)

	// R = Ry * Rx * Rz, column-major
	out[0] = (cy*cz + sy*sx*sz) * scaleX
	out[1] = (cx * sz) * scaleX
	out[2] = (-sy*cz + cy*sx*sz) * scaleX
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * scaleY
	out[5] = (cx * cz) * scaleY
	out[6] = (sy*sz + cy*sx*cz) * scaleY
	out[7] = 0

	out[8] = (sy * cx) * scaleZ
	out[9] = (-sx) * scaleZ
	out[10] = (cy * cx) * scaleZ
	out[11] = 0

	out[12] = posX
	out[13] = posY
	out[14] = posZ
	out[15] = 1
}

// LookAt creates a right-handed view matrix that positions and orients the camera.
// The resulting matrix transforms world coordinates to view/camera space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - eyeX, eyeY, eyeZ: camera position in world space
//   - centerX, centerY, centerZ: target point the camera looks at
//   - upX, upY, upZ: up vector defining camera orientation (typically 0,1,0)
func LookAt(out []float32, eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) {
	z0 := eyeX - centerX
	z1 := eyeY - centerY
	z2 := eyeZ - centerZ
	z0, z1, z2 = normalize3(z0, z1, z2)

	x0 := upY*z2 - upZ*z1
	x1 := upZ*z0 - upX*z2
	x2 := upX*z1 - upY*z0
	x0, x1, x2 = normalize3(x0, x1, x2)

	y0 := z1*x2 - z2*x1
	y1 := z2*x0 - z0*x2
	y2 := z0*x1 - z1*x0

	out[0], out[4], out[8], out[12] = x0, x1, x2, -(x0*eyeX + x1*eyeY + x2*eyeZ)
	out[1], out[5], out[9], out[13] = y0, y1, y2, -(y0*eyeX + y1*eyeY + y2*eyeZ)
	out[2], out[6], out[10], out[14] = z0, z1, z2, -(z0*eyeX + z1*eyeY + z2*eyeZ)
	out[3], out[7], out[11], out[15] = 0, 0, 0, 1
}

// normalize3 scales a vector to unit length. A zero vector is returned unchanged.
func normalize3(x, y, z float32) (float32, float32, float32) {
	l := x*x + y*y + z*z
	if l == 0 {
		return x, y, z
	}
	inv := 1 / math32.Sqrt(l)
	return x * inv, y * inv, z * inv
}

// PutFloat32s writes the given floats into dst as little-endian IEEE-754 values,
// the byte order WebGPU expects for buffer uploads.
//
// Parameters:
//   - dst: destination byte slice (must be at least 4*len(values) bytes)
//   - values: the floats to encode
func PutFloat32s(dst []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Float32s decodes little-endian IEEE-754 values from src. The trailing bytes that do
// not form a full float are ignored.
//
// Parameters:
//   - src: the encoded bytes
//
// Returns:
//   - []float32: the decoded values
func Float32s(src []byte) []float32 {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return out
}

// AlignTo rounds n up to the next multiple of align. Align must be a power of two.
//
// Parameters:
//   - n: the value to round
//   - align: the alignment (power of two)
//
// Returns:
//   - uint64: the aligned value
func AlignTo(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
