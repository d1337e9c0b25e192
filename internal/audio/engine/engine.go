// Package engine drives playback: it collects play requests, prioritizes them
// against the playing sounds once per tick and issues the resulting start and
// stop commands to a backend.
package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/partymix/internal/audio/bank"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/prioritizer"
	"github.com/zjrosen/partymix/internal/log"
)

// DefaultChannels is the voice count used when no option overrides it.
const DefaultChannels = 16

// Backend is the platform mixer the engine drives.
type Backend interface {
	// AllocateChannels reserves count voices and returns how many are usable.
	AllocateChannels(count int) (int, error)

	// IsChannelPlaying reports whether the voice is still producing sound.
	IsChannelPlaying(channel int) bool

	// StopChannel halts the voice. Stopping an idle voice is a no-op.
	StopChannel(channel int)

	// StartPlayback plays buf on the voice, replacing anything playing there.
	// loops is the number of extra repetitions, domain.LoopForever to loop
	// until stopped. It returns false if playback could not start.
	StartPlayback(channel int, buf domain.SampleBuffer, loops int, fade time.Duration) bool

	// SetPaused pauses or resumes every voice.
	SetPaused(paused bool)

	// SetVolume sets the master volume in [0, 1].
	SetVolume(volume float64)

	// Close releases the backend.
	Close() error
}

// Option configures an Engine.
type Option func(*Engine)

// WithChannels sets the number of voices requested from the backend.
func WithChannels(n int) Option {
	return func(e *Engine) { e.channels = n }
}

// WithRand sets the random source used for sample selection.
func WithRand(src bank.RandomSource) Option {
	return func(e *Engine) { e.rng = src }
}

// WithVolume sets the initial master volume.
func WithVolume(v float64) Option {
	return func(e *Engine) { e.volume = clampVolume(v) }
}

// Engine is the audio context object. It is not safe for concurrent use; all
// calls must come from the update loop.
type Engine struct {
	backend     Backend
	bank        *bank.Bank
	prioritizer *prioritizer.Prioritizer
	rng         bank.RandomSource

	channels int
	volume   float64
	muted    bool
	paused   bool
	now      domain.WorldTime

	// playing is kept in prioritized order, lowest first.
	playing    []domain.PlayingSound
	pending    []domain.PlayingSound
	freeVoices []int

	// stopped holds transitions made outside Update until the next report.
	stopped TickReport
}

// New allocates voices on backend and returns an engine playing sounds from b.
func New(backend Backend, b *bank.Bank, opts ...Option) (*Engine, error) {
	e := &Engine{
		backend:  backend,
		bank:     b,
		channels: DefaultChannels,
		volume:   1,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", e.channels)
	}

	got, err := backend.AllocateChannels(e.channels)
	if err != nil {
		return nil, fmt.Errorf("allocating %d channels: %w", e.channels, err)
	}
	if got < e.channels {
		log.Warn(log.CatAudio, "Backend allocated fewer channels than requested",
			"requested", e.channels, "allocated", got)
	}
	if got <= 0 {
		return nil, fmt.Errorf("backend allocated no channels")
	}
	e.channels = got
	e.prioritizer = prioritizer.New(got)
	for v := got - 1; v >= 0; v-- {
		e.freeVoices = append(e.freeVoices, v)
	}
	backend.SetVolume(e.volume)

	log.Info(log.CatAudio, "Audio engine initialized", "channels", got)
	return e, nil
}

// PlaySound queues a request for id. It competes for a channel on the next
// Update.
func (e *Engine) PlaySound(id domain.SoundID) (uuid.UUID, error) {
	if _, ok := e.bank.Sound(id); !ok {
		return uuid.Nil, &domain.UnknownSoundIDError{SoundID: id}
	}
	req := domain.NewPlayingSound(id, e.now)
	e.pending = append(e.pending, req)
	return req.Handle, nil
}

// PlayNamed queues a request for the sound called name.
func (e *Engine) PlayNamed(name string) (uuid.UUID, error) {
	s, ok := e.bank.Lookup(name)
	if !ok {
		return uuid.Nil, fmt.Errorf("no sound named %q", name)
	}
	return e.PlaySound(s.ID())
}

// Stop ends the request with handle, whether playing or still queued.
// It returns false if no such request is live. The Stopped transition
// appears in the next Update report.
func (e *Engine) Stop(handle uuid.UUID) bool {
	n := len(e.stopped.Transitions)
	e.stopWhere(func(s domain.PlayingSound) bool { return s.Handle == handle })
	return len(e.stopped.Transitions) > n
}

// StopAll stops every playing sound and drops queued requests.
func (e *Engine) StopAll() {
	e.stopWhere(func(domain.PlayingSound) bool { return true })
}

// UnloadSound stops every request for id and unloads it from the bank.
// Use it instead of unloading the bank directly while the engine runs.
func (e *Engine) UnloadSound(id domain.SoundID) {
	e.stopWhere(func(s domain.PlayingSound) bool { return s.SoundID == id })
	e.bank.Unload(id)
}

// stopWhere stops and removes the playing and pending requests matching fn.
func (e *Engine) stopWhere(fn func(domain.PlayingSound) bool) {
	kept := e.playing[:0]
	for _, s := range e.playing {
		if !fn(s) {
			kept = append(kept, s)
			continue
		}
		e.stopVoice(s.Voice)
		e.stopped.add(s, domain.StateStopped, "")
	}
	e.playing = kept
	e.rerank()

	pending := e.pending[:0]
	for _, s := range e.pending {
		if !fn(s) {
			pending = append(pending, s)
			continue
		}
		e.stopped.add(s, domain.StateStopped, "")
	}
	e.pending = pending
}

// Update advances the clock to now and runs one prioritization pass. The
// report starts with requests stopped since the last Update, then voices
// that finished.
//
// A prioritization error aborts the pass after finished voices are reaped:
// the returned report still holds those transitions, and playing and queued
// requests are left as they were.
func (e *Engine) Update(now domain.WorldTime) (TickReport, error) {
	if now > e.now {
		e.now = now
	}
	report := TickReport{Time: e.now, Transitions: e.stopped.Transitions}
	e.stopped = TickReport{}
	if e.paused {
		return report, nil
	}

	e.reap(&report)

	merged := make([]domain.PlayingSound, 0, len(e.playing)+len(e.pending))
	merged = append(merged, e.playing...)
	merged = append(merged, e.pending...)
	if len(merged) == 0 {
		return report, nil
	}

	evicted, err := e.prioritizer.PrioritizeChannels(e.bank, merged)
	if err != nil {
		log.ErrorErr(log.CatAudio, "Prioritization failed, tick aborted", err)
		return report, fmt.Errorf("prioritizing channels: %w", err)
	}

	for _, s := range merged[:evicted] {
		if s.Voice != domain.Unassigned {
			e.stopVoice(s.Voice)
			report.add(s, domain.StateSuperseded, "")
			continue
		}
		report.add(s, domain.StateEvicted, "")
	}

	next := make([]domain.PlayingSound, 0, len(merged)-evicted)
	for _, s := range merged[evicted:] {
		if s.Voice != domain.Unassigned {
			next = append(next, s)
			continue
		}
		s.State = domain.StateAssigned
		if started, ok := e.start(s, &report); ok {
			next = append(next, started)
		}
	}

	e.playing = next
	e.pending = nil
	e.rerank()
	return report, nil
}

// reap drops sounds whose voices have finished.
func (e *Engine) reap(report *TickReport) {
	kept := e.playing[:0]
	for _, s := range e.playing {
		if e.backend.IsChannelPlaying(s.Voice) {
			kept = append(kept, s)
			continue
		}
		e.freeVoice(s.Voice)
		report.add(s, domain.StateCompleted, "")
	}
	e.playing = kept
}

// start resolves a sample for a newly granted request and starts it.
func (e *Engine) start(s domain.PlayingSound, report *TickReport) (domain.PlayingSound, bool) {
	snd, ok := e.bank.Sound(s.SoundID)
	if !ok {
		report.addErr(s, &domain.UnknownSoundIDError{SoundID: s.SoundID})
		return s, false
	}

	sample, err := snd.SelectSample(e.rng)
	if err != nil {
		log.Warn(log.CatAudio, "Skipping playback", "id", s.SoundID, "error", err.Error())
		report.addErr(s, err)
		return s, false
	}

	voice, ok := e.takeVoice()
	if !ok {
		report.addErr(s, fmt.Errorf("no free voice for sound %d", s.SoundID))
		return s, false
	}

	def := snd.Definition()
	if !e.backend.StartPlayback(voice, sample.Buffer, def.LoopCount(), def.FadeIn) {
		e.freeVoice(voice)
		log.Warn(log.CatAudio, "Backend refused playback", "id", s.SoundID, "sample", sample.Filename)
		report.addErr(s, fmt.Errorf("backend refused %s", sample.Filename))
		return s, false
	}

	s.Voice = voice
	report.add(s, domain.StatePlaying, sample.Filename)
	s.State = domain.StatePlaying
	log.Debug(log.CatAudio, "Started sound",
		"id", s.SoundID, "voice", voice, "sample", sample.Filename)
	return s, true
}

func (e *Engine) rerank() {
	for i := range e.playing {
		e.playing[i].ChannelID = i
	}
}

func (e *Engine) stopVoice(voice int) {
	e.backend.StopChannel(voice)
	e.freeVoice(voice)
}

func (e *Engine) takeVoice() (int, bool) {
	n := len(e.freeVoices)
	if n == 0 {
		return domain.Unassigned, false
	}
	v := e.freeVoices[n-1]
	e.freeVoices = e.freeVoices[:n-1]
	return v, true
}

func (e *Engine) freeVoice(voice int) {
	if voice != domain.Unassigned {
		e.freeVoices = append(e.freeVoices, voice)
	}
}

// Pause pauses or resumes all playback. Requests queue while paused.
func (e *Engine) Pause(paused bool) {
	e.paused = paused
	e.backend.SetPaused(paused)
}

// Paused reports whether playback is paused.
func (e *Engine) Paused() bool { return e.paused }

// Mute silences output without stopping playback.
func (e *Engine) Mute(muted bool) {
	e.muted = muted
	e.applyVolume()
}

// Muted reports whether output is muted.
func (e *Engine) Muted() bool { return e.muted }

// SetVolume sets the master volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	e.volume = clampVolume(v)
	e.applyVolume()
}

// Volume returns the master volume.
func (e *Engine) Volume() float64 { return e.volume }

func (e *Engine) applyVolume() {
	if e.muted {
		e.backend.SetVolume(0)
		return
	}
	e.backend.SetVolume(e.volume)
}

// Now returns the engine clock.
func (e *Engine) Now() domain.WorldTime { return e.now }

// Channels returns the number of voices.
func (e *Engine) Channels() int { return e.channels }

// Bank returns the sound bank the engine plays from.
func (e *Engine) Bank() *bank.Bank { return e.bank }

// Playing returns the playing sounds, lowest priority first.
func (e *Engine) Playing() []domain.PlayingSound {
	out := make([]domain.PlayingSound, len(e.playing))
	copy(out, e.playing)
	return out
}

// Pending returns the number of requests waiting for the next Update.
func (e *Engine) Pending() int { return len(e.pending) }

// Lookup returns the live request with handle.
func (e *Engine) Lookup(handle uuid.UUID) (domain.PlayingSound, bool) {
	for _, s := range e.playing {
		if s.Handle == handle {
			return s, true
		}
	}
	for _, s := range e.pending {
		if s.Handle == handle {
			return s, true
		}
	}
	return domain.PlayingSound{}, false
}

// Close stops all playback and closes the backend.
func (e *Engine) Close() error {
	e.StopAll()
	return e.backend.Close()
}

func clampVolume(v float64) float64 {
	return min(max(v, 0), 1)
}
