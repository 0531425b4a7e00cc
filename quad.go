package gb

// QuadVertexCount is the number of vertices in the full-screen quad draw:
// two triangles, three vertices each.
const QuadVertexCount = 6

// fullscreenQuad is the fixed vertex lookup table for the scaling draw.
// Two counter-clockwise triangles exactly tiling clip space [-1,1]x[-1,1],
// sharing the bottom-left/top-right diagonal. Must match the table in
// internal/gpu/shaders/scale.wgsl.
var fullscreenQuad = [QuadVertexCount][2]float32{
	{-1, -1}, {1, -1}, {-1, 1},
	{-1, 1}, {1, -1}, {1, 1},
}

// QuadVertex returns the clip-space position of one full-screen quad
// vertex. The index domain [0, QuadVertexCount) is fixed by the draw call;
// indices outside it panic.
func QuadVertex(i int) (x, y float32) {
	v := fullscreenQuad[i]
	return v[0], v[1]
}

// ScreenToClip converts a screen-space pixel position to clip space:
// (pos/res)*2 - 1 per axis. It is the CPU reference for the pass-through
// vertex stage. (0,0) maps to (-1,-1) and (W,H) maps to (1,1).
func ScreenToClip(pos Pos, res Resolution) (x, y float32) {
	x = float32(pos.X)/float32(res.Width)*2 - 1
	y = float32(pos.Y)/float32(res.Height)*2 - 1
	return x, y
}

// PixelQuads tessellates the screen into colored screen-space quads for
// the pass-through pipeline: one quad (two triangles, six vertices) per
// logical pixel, scaled to the output resolution.
//
// Pixel edges are floor(x*out/res) in exact integer arithmetic, so
// adjacent quads share edges, the tessellation neither gaps nor overlaps
// even when the output is not a whole multiple of the screen resolution,
// and the last column and row land exactly on the output edge.
func PixelQuads(s *Screen, out Resolution) []Vertex {
	res := s.res
	edgeX := func(x uint32) uint32 {
		return uint32(uint64(x) * uint64(out.Width) / uint64(res.Width))
	}
	edgeY := func(y uint32) uint32 {
		return uint32(uint64(y) * uint64(out.Height) / uint64(res.Height))
	}

	verts := make([]Vertex, 0, res.PixelCount()*QuadVertexCount)
	for y := uint32(0); y < res.Height; y++ {
		y0 := edgeY(y)
		y1 := edgeY(y + 1)
		for x := uint32(0); x < res.Width; x++ {
			x0 := edgeX(x)
			x1 := edgeX(x + 1)
			col := s.pixels[PixelIndex(x, y, res)]

			tl := Vertex{Pos: Pos{X: x0, Y: y0}, Col: col}
			tr := Vertex{Pos: Pos{X: x1, Y: y0}, Col: col}
			bl := Vertex{Pos: Pos{X: x0, Y: y1}, Col: col}
			br := Vertex{Pos: Pos{X: x1, Y: y1}, Col: col}

			verts = append(verts, tl, tr, bl, tr, br, bl)
		}
	}
	return verts
}
