package gb

import "time"

// FPS counts presented frames per second. Hosts call Tick once per frame
// and read Rate for overlays or diagnostics. The rate updates once per
// second of wall time.
//
// FPS is not safe for concurrent use; tick it from the frame loop only.
type FPS struct {
	frames   uint32
	rate     uint32
	lastCalc time.Time
}

// NewFPS returns a counter starting from zero.
func NewFPS() *FPS {
	return &FPS{lastCalc: time.Now()}
}

// Tick records one presented frame.
func (f *FPS) Tick() {
	f.frames++
	now := time.Now()
	if now.Sub(f.lastCalc) > time.Second {
		f.rate = f.frames
		f.frames = 0
		f.lastCalc = now
	}
}

// Rate returns the most recently completed one-second frame count.
// It reads zero until the first full second has elapsed.
func (f *FPS) Rate() uint32 {
	return f.rate
}
