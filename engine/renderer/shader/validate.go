package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Validate compiles processed WGSL to SPIR-V to catch syntax and type errors before any GPU
// object is created. The compiled output is discarded.
//
// Parameters:
//   - source: the processed WGSL source
//
// Returns:
//   - error: the compiler diagnostic, or nil if the source compiled
func Validate(source string) error {
	spirv, err := naga.Compile(source)
	if err != nil {
		return fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirv) < 4 || binary.LittleEndian.Uint32(spirv) != spirvMagic {
		return fmt.Errorf("failed to compile shader: compiler produced no SPIR-V module")
	}
	return nil
}
