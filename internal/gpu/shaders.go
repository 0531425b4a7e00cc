package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources, compiled at build time via go:embed.

//go:embed shaders/scale.wgsl
var scaleShaderSource string

//go:embed shaders/passthrough.wgsl
var passthroughShaderSource string

// ScaleShaderSource returns the WGSL source for the scaling pipeline.
func ScaleShaderSource() string {
	return scaleShaderSource
}

// PassthroughShaderSource returns the WGSL source for the pass-through
// pipeline.
func PassthroughShaderSource() string {
	return passthroughShaderSource
}

// CompileToSPIRV compiles WGSL source to SPIR-V 32-bit words for backends
// that do not consume WGSL directly.
func CompileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return spirvCode, nil
}
