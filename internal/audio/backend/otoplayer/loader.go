package otoplayer

import (
	"bytes"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"

	"github.com/zjrosen/partymix/internal/audio/bank"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/log"
)

// resampleQuality is the beep interpolation quality used when a WAV file's
// rate differs from the output rate.
const resampleQuality = 4

// Buffer is a decoded sample held in memory at the output sample rate.
type Buffer struct {
	Name string

	mu   sync.Mutex
	data *beep.Buffer
}

// Release implements domain.SampleBuffer.
func (b *Buffer) Release() {
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
}

// Frames returns the number of frames, zero once released.
func (b *Buffer) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return 0
	}
	return b.data.Len()
}

// Duration returns the playing time of one repetition.
func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return 0
	}
	return b.data.Format().SampleRate.D(b.data.Len())
}

func (b *Buffer) streamer() (beep.StreamSeeker, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, false
	}
	return b.data.Streamer(0, b.data.Len()), true
}

// Loader decodes WAV samples relative to a directory.
type Loader struct {
	bytes bank.ByteLoader
	dir   string
	rate  beep.SampleRate
}

// NewLoader returns a loader reading files under dir through src and
// resampling them to sampleRate.
func NewLoader(src bank.ByteLoader, dir string, sampleRate int) *Loader {
	return &Loader{bytes: src, dir: dir, rate: beep.SampleRate(sampleRate)}
}

// LoadSample implements bank.SampleLoader.
func (l *Loader) LoadSample(filename string) (domain.SampleBuffer, error) {
	p := filename
	if l.dir != "" && !path.IsAbs(filename) {
		p = path.Join(l.dir, filename)
	}

	raw, err := l.bytes.LoadBytes(p)
	if err != nil {
		return nil, err
	}

	stream, format, err := wav.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	defer func() { _ = stream.Close() }()

	var src beep.Streamer = stream
	if format.SampleRate != l.rate {
		log.Debug(log.CatAudio, "Resampling sample",
			"file", p, "from", int(format.SampleRate), "to", int(l.rate))
		src = beep.Resample(resampleQuality, format.SampleRate, l.rate, stream)
	}

	data := beep.NewBuffer(beep.Format{SampleRate: l.rate, NumChannels: 2, Precision: 4})
	data.Append(src)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	return &Buffer{Name: filename, data: data}, nil
}
