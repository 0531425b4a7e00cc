// Package render is the host-facing presentation layer.
//
// The host application owns the window, the GPU device, the surface, and
// the frame loop. It hands the device to a [Video], pushes pixels from the
// emulation core into it, and asks it to record one draw per output frame
// into the surface's render pass. Pipeline selection is a closed set of
// two: the scaling pipeline (the normal path) and the pass-through
// pipeline (debug overlays).
package render
