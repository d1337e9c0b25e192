package otoplayer

import (
	"io"
	"math"

	"github.com/gopxl/beep/v2"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

const bytesPerSample = 4

// voiceReader renders a beep stream as float32 little-endian PCM for oto,
// repeating it loops times and ramping the gain up over the first fade
// frames.
type voiceReader struct {
	src      beep.StreamSeeker
	channels int
	loops    int
	fade     int
	pos      int
	done     bool
	frames   [][2]float64
}

func newVoiceReader(src beep.StreamSeeker, channels, loops, fade int) *voiceReader {
	return &voiceReader{src: src, channels: channels, loops: loops, fade: fade}
}

func (r *voiceReader) frameBytes() int { return r.channels * bytesPerSample }

func (r *voiceReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	n := len(p) / r.frameBytes()
	if n == 0 {
		return 0, nil
	}
	if cap(r.frames) < n {
		r.frames = make([][2]float64, n)
	}
	frames := r.frames[:n]

	filled := 0
	for filled < n {
		k, ok := r.src.Stream(frames[filled:])
		filled += k
		if ok && k > 0 {
			continue
		}
		if !r.rewind() {
			r.done = true
			break
		}
	}

	for i := 0; i < filled; i++ {
		g := r.gain()
		r.put(p, i, frames[i][0]*g, frames[i][1]*g)
		r.pos++
	}
	if filled == 0 {
		return 0, io.EOF
	}
	return filled * r.frameBytes(), nil
}

// rewind starts the next repetition if any remain.
func (r *voiceReader) rewind() bool {
	if r.loops == 0 || r.src.Len() == 0 {
		return false
	}
	if r.loops != domain.LoopForever {
		r.loops--
	}
	return r.src.Seek(0) == nil
}

func (r *voiceReader) gain() float64 {
	if r.fade <= 0 || r.pos >= r.fade {
		return 1
	}
	return float64(r.pos) / float64(r.fade)
}

func (r *voiceReader) put(buf []byte, i int, left, right float64) {
	off := i * r.frameBytes()
	if r.channels == 1 {
		putF32(buf[off:], (left+right)/2)
		return
	}
	putF32(buf[off:], left)
	putF32(buf[off+bytesPerSample:], right)
}

func putF32(buf []byte, sample float64) {
	v := math.Float32bits(float32(min(max(sample, -1), 1)))
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}
