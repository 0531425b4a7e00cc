package gb

// Nearest-neighbor coordinate resolution.
//
// These functions are the CPU reference for the fragment stage in
// internal/gpu/shaders/scale.wgsl: the two must stay in agreement. The GPU
// path runs the same arithmetic per covered fragment; the software path
// calls Resolve per output pixel.

// SourcePixel maps an output fragment coordinate to the indices of the
// nearest source pixel.
//
// fx and fy are the fragment's position in output-surface pixels, origin
// top-left, following the rasterizer's fragment-coordinate convention.
// The position is normalized against out, scaled to src, and truncated.
// The result is clamped to the last row/column so that floating-point
// rounding at the right and bottom edges (u or v landing on exactly 1.0)
// can never produce an out-of-range index.
//
// Both dimensions of out must be non-zero; that is the caller's contract,
// enforced upstream where window sizes enter the system.
func SourcePixel(fx, fy float32, out, src Resolution) (sx, sy uint32) {
	u := fx / float32(out.Width)
	v := fy / float32(out.Height)
	sx = uint32(u * float32(src.Width))
	sy = uint32(v * float32(src.Height))
	if sx > src.Width-1 {
		sx = src.Width - 1
	}
	if sy > src.Height-1 {
		sy = src.Height - 1
	}
	return sx, sy
}

// PixelIndex returns the linear framebuffer index of a source pixel:
// sy*width + sx.
func PixelIndex(sx, sy uint32, src Resolution) uint32 {
	return sy*src.Width + sx
}

// Resolve samples the screen color for an output fragment at (fx, fy) on a
// surface of resolution out. Pure: the same inputs always yield the same
// color.
func (s *Screen) Resolve(fx, fy float32, out Resolution) Color {
	sx, sy := SourcePixel(fx, fy, out, s.res)
	return s.pixels[PixelIndex(sx, sy, s.res)]
}
