// Package gpu builds the WebGPU pipelines that put the console screen on
// the output surface.
//
// Two pipelines exist, selected per draw call by the host:
//
//   - ScalePipeline: the main path. A full-screen quad generated from a
//     constant table (no vertex buffer) and a fragment stage that resolves
//     each output pixel against the screen storage buffer with
//     nearest-neighbor sampling.
//   - PassthroughPipeline: the auxiliary path. Externally supplied
//     screen-space vertices (uint32x2 position, float32x3 color) remapped
//     linearly to clip space, colors emitted as-is.
//
// The package receives hal.Device and hal.Queue from the caller and never
// creates them. Shader sources are embedded WGSL; backends that want
// SPIR-V can compile them through naga with CompileToSPIRV.
package gpu
