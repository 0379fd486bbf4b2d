package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// levelFullScale is the RMS value treated as full deflection. Speech rarely
// reaches the format's actual full scale, so the meter saturates well below it
// to stay readable.
const levelFullScale = 8192.0

// LevelMeter derives a normalized 0..1 input level from linear16 PCM frames.
// It is fed from the capture path and read from the rendering path; both sides
// go through atomics so neither blocks the other.
type LevelMeter struct {
	level atomic.Uint64
}

func NewLevelMeter() *LevelMeter {
	return &LevelMeter{}
}

// Feed updates the level from one PCM chunk. Chunks are treated as whole
// windows; there is no carry-over between calls.
func (m *LevelMeter) Feed(pcm []byte) float64 {
	sampleCount := len(pcm) / 2
	if sampleCount == 0 {
		return m.Level()
	}

	sumSquares := 0.0
	for i := 0; i < sampleCount*2; i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i : i+2]))
		sumSquares += float64(sample) * float64(sample)
	}

	rms := math.Sqrt(sumSquares / float64(sampleCount))
	level := math.Min(rms/levelFullScale, 1)

	m.level.Store(math.Float64bits(level))
	return level
}

// Level reports the most recently computed level.
func (m *LevelMeter) Level() float64 {
	return math.Float64frombits(m.level.Load())
}

// Reset zeroes the meter, used when a capture stops so stale levels are not
// displayed.
func (m *LevelMeter) Reset() {
	m.level.Store(0)
}
