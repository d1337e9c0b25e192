// Package otoplayer plays decoded WAV samples through the system audio device
// with hajimehoshi/oto.
package otoplayer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/hajimehoshi/oto/v2"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/log"
)

// Player is the subset of oto.Player the backend uses.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// Context creates players. Open wraps an *oto.Context.
type Context interface {
	NewPlayer(r io.Reader) Player
	Suspend() error
	Resume() error
}

type otoContext struct {
	ctx *oto.Context
}

func (c otoContext) NewPlayer(r io.Reader) Player { return c.ctx.NewPlayer(r) }
func (c otoContext) Suspend() error { return c.ctx.Suspend() }
func (c otoContext) Resume() error { return c.ctx.Resume() }

// Backend maps engine voices to oto players. oto pulls from players on its
// own goroutines, so the player table is guarded.
type Backend struct {
	ctx      Context
	rate     beep.SampleRate
	channels int

	mu      sync.Mutex
	players []Player
	volume  float64
	closed  bool
}

// Open initializes the audio device and waits until it is ready.
func Open(sampleRate, outputChannels int) (*Backend, error) {
	ctx, ready, err := oto.NewContext(sampleRate, outputChannels, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready
	log.Info(log.CatAudio, "Audio device ready", "rate", sampleRate, "channels", outputChannels)
	return NewWithContext(otoContext{ctx: ctx}, sampleRate, outputChannels), nil
}

// NewWithContext returns a backend creating players from ctx.
func NewWithContext(ctx Context, sampleRate, outputChannels int) *Backend {
	return &Backend{
		ctx:      ctx,
		rate:     beep.SampleRate(sampleRate),
		channels: outputChannels,
		volume:   1,
	}
}

// AllocateChannels implements engine.Backend.
func (b *Backend) AllocateChannels(count int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, fmt.Errorf("backend closed")
	}
	b.closeAll()
	b.players = make([]Player, count)
	return count, nil
}

// IsChannelPlaying implements engine.Backend.
func (b *Backend) IsChannelPlaying(channel int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.player(channel)
	return p != nil && p.IsPlaying()
}

// StopChannel implements engine.Backend.
func (b *Backend) StopChannel(channel int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stop(channel)
}

// StartPlayback implements engine.Backend.
func (b *Backend) StartPlayback(channel int, buf domain.SampleBuffer, loops int, fade time.Duration) bool {
	sample, ok := buf.(*Buffer)
	if !ok {
		return false
	}
	src, ok := sample.streamer()
	if !ok {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || channel < 0 || channel >= len(b.players) {
		return false
	}
	b.stop(channel)

	p := b.ctx.NewPlayer(newVoiceReader(src, b.channels, loops, b.rate.N(fade)))
	p.SetVolume(b.volume)
	p.Play()
	b.players[channel] = p
	return true
}

// SetPaused implements engine.Backend.
func (b *Backend) SetPaused(paused bool) {
	var err error
	if paused {
		err = b.ctx.Suspend()
	} else {
		err = b.ctx.Resume()
	}
	if err != nil {
		log.ErrorErr(log.CatAudio, "Failed to change pause state", err, "paused", paused)
	}
}

// SetVolume implements engine.Backend.
func (b *Backend) SetVolume(volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = volume
	for _, p := range b.players {
		if p != nil {
			p.SetVolume(volume)
		}
	}
}

// Close implements engine.Backend. oto contexts live for the whole process,
// so only the players are released.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeAll()
	b.players = nil
	b.closed = true
	return nil
}

func (b *Backend) player(channel int) Player {
	if channel < 0 || channel >= len(b.players) {
		return nil
	}
	return b.players[channel]
}

func (b *Backend) stop(channel int) {
	p := b.player(channel)
	if p == nil {
		return
	}
	p.Pause()
	if err := p.Close(); err != nil {
		log.Warn(log.CatAudio, "Closing player failed", "voice", channel, "error", err.Error())
	}
	b.players[channel] = nil
}

func (b *Backend) closeAll() {
	for i := range b.players {
		b.stop(i)
	}
}
