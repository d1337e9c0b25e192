// Package nullbackend is a silent backend driven by a simulated clock. It is
// used by the simulate command and by tests.
package nullbackend

import (
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

// DefaultLength is the duration given to samples the loader knows nothing about.
const DefaultLength = 500 * time.Millisecond

// Buffer is a sample with a length and no audio data.
type Buffer struct {
	Name   string
	Length time.Duration

	mu       sync.Mutex
	released int
}

// Release implements domain.SampleBuffer.
func (b *Buffer) Release() {
	b.mu.Lock()
	b.released++
	b.mu.Unlock()
}

// Released reports how many times Release was called.
func (b *Buffer) Released() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Loader hands out Buffers. Lengths maps filenames to durations; Missing
// lists filenames that fail to load.
type Loader struct {
	Lengths map[string]time.Duration
	Missing map[string]bool
}

// LoadSample implements bank.SampleLoader.
func (l *Loader) LoadSample(filename string) (domain.SampleBuffer, error) {
	if l.Missing[filename] {
		return nil, fmt.Errorf("no such sample: %s", filename)
	}
	length, ok := l.Lengths[filename]
	if !ok {
		length = DefaultLength
	}
	return &Buffer{Name: filename, Length: length}, nil
}

type voice struct {
	buf     *Buffer
	loops   int
	elapsed time.Duration
	active  bool
}

func (v *voice) finished() bool {
	if !v.active {
		return true
	}
	if v.loops == domain.LoopForever {
		return false
	}
	if v.buf == nil || v.buf.Length <= 0 {
		return true
	}
	return v.elapsed >= v.buf.Length*time.Duration(v.loops+1)
}

// Stats counts backend commands.
type Stats struct {
	Started int
	Stopped int
	Refused int
}

// Backend plays nothing. Voices finish once Advance moves the clock past
// their sample length times their repetitions.
type Backend struct {
	// MaxChannels caps AllocateChannels when positive.
	MaxChannels int

	mu     sync.Mutex
	voices []voice
	now    domain.WorldTime
	paused bool
	volume float64
	closed bool
	stats  Stats
}

// New returns a backend that allocates any number of channels.
func New() *Backend {
	return &Backend{volume: 1}
}

// AllocateChannels implements engine.Backend.
func (b *Backend) AllocateChannels(count int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, fmt.Errorf("backend closed")
	}
	if b.MaxChannels > 0 {
		count = min(count, b.MaxChannels)
	}
	b.voices = make([]voice, count)
	return count, nil
}

// Advance moves the simulated clock to now. Paused voices do not progress.
func (b *Backend) Advance(now domain.WorldTime) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now <= b.now {
		return
	}
	delta := time.Duration(now-b.now) * time.Millisecond
	b.now = now
	if b.paused {
		return
	}
	for i := range b.voices {
		if b.voices[i].active {
			b.voices[i].elapsed += delta
		}
	}
}

// IsChannelPlaying implements engine.Backend.
func (b *Backend) IsChannelPlaying(channel int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel < 0 || channel >= len(b.voices) {
		return false
	}
	return !b.voices[channel].finished()
}

// StopChannel implements engine.Backend.
func (b *Backend) StopChannel(channel int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel < 0 || channel >= len(b.voices) || !b.voices[channel].active {
		return
	}
	b.voices[channel] = voice{}
	b.stats.Stopped++
}

// StartPlayback implements engine.Backend. Buffers that are not *Buffer are
// refused.
func (b *Backend) StartPlayback(channel int, buf domain.SampleBuffer, loops int, _ time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	nb, ok := buf.(*Buffer)
	if !ok || b.closed || channel < 0 || channel >= len(b.voices) {
		b.stats.Refused++
		return false
	}
	b.voices[channel] = voice{buf: nb, loops: loops, active: true}
	b.stats.Started++
	return true
}

// SetPaused implements engine.Backend.
func (b *Backend) SetPaused(paused bool) {
	b.mu.Lock()
	b.paused = paused
	b.mu.Unlock()
}

// SetVolume implements engine.Backend.
func (b *Backend) SetVolume(volume float64) {
	b.mu.Lock()
	b.volume = volume
	b.mu.Unlock()
}

// Volume returns the last volume set.
func (b *Backend) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// Paused reports whether the backend is paused.
func (b *Backend) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Stats returns the command counters.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Active returns the number of voices still sounding.
func (b *Backend) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := range b.voices {
		if !b.voices[i].finished() {
			n++
		}
	}
	return n
}

// Close implements engine.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.voices = nil
	return nil
}
