package gpu

import (
	"encoding/binary"
	"math"

	"github.com/tlbanken/gb"
)

// GPU-side byte layouts. These must match the WGSL struct layouts in
// shaders/scale.wgsl and shaders/passthrough.wgsl.

// resolutionUniformSize is the byte size of a Resolution uniform:
// width (u32) + height (u32).
const resolutionUniformSize = 8

// screenPixelStride is the byte size of one screen pixel in the storage
// buffer: vec4<f32> (rgba).
const screenPixelStride = 16

// passthroughVertexStride is the byte stride per pass-through vertex.
// Layout per vertex:
//
//	position (vec2<u32>) = 8 bytes  (location 0)
//	color    (vec3<f32>) = 12 bytes (location 1)
//
// Total = 20 bytes per vertex.
const passthroughVertexStride = 20

// makeResolutionUniform packs a resolution into the 8-byte uniform layout.
func makeResolutionUniform(res gb.Resolution) []byte {
	buf := make([]byte, resolutionUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], res.Width)
	binary.LittleEndian.PutUint32(buf[4:8], res.Height)
	return buf
}

// packScreen packs screen pixels into the storage buffer layout, one
// vec4<f32> per pixel with alpha forced to 1. dst must hold
// len(pixels)*screenPixelStride bytes.
func packScreen(pixels []gb.Color, dst []byte) {
	offset := 0
	for i := range pixels {
		p := &pixels[i]
		binary.LittleEndian.PutUint32(dst[offset+0:offset+4], math.Float32bits(p.R))
		binary.LittleEndian.PutUint32(dst[offset+4:offset+8], math.Float32bits(p.G))
		binary.LittleEndian.PutUint32(dst[offset+8:offset+12], math.Float32bits(p.B))
		binary.LittleEndian.PutUint32(dst[offset+12:offset+16], math.Float32bits(1.0))
		offset += screenPixelStride
	}
}

// packVertices packs pass-through vertices into their interleaved buffer
// layout.
func packVertices(verts []gb.Vertex) []byte {
	buf := make([]byte, len(verts)*passthroughVertexStride)
	offset := 0
	for i := range verts {
		v := &verts[i]
		binary.LittleEndian.PutUint32(buf[offset+0:offset+4], v.Pos.X)
		binary.LittleEndian.PutUint32(buf[offset+4:offset+8], v.Pos.Y)
		binary.LittleEndian.PutUint32(buf[offset+8:offset+12], math.Float32bits(v.Col.R))
		binary.LittleEndian.PutUint32(buf[offset+12:offset+16], math.Float32bits(v.Col.G))
		binary.LittleEndian.PutUint32(buf[offset+16:offset+20], math.Float32bits(v.Col.B))
		offset += passthroughVertexStride
	}
	return buf
}
