// Package domain holds the types shared by the sound bank, the channel
// prioritizer and the engine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SoundID identifies a sound definition.
type SoundID uint32

// Priority is the authored pre-emption weight of a definition.
// Higher values win a channel over lower ones.
type Priority float32

// WorldTime is the engine clock in milliseconds since start.
type WorldTime int64

// Unassigned marks a request that holds no channel or voice.
const Unassigned = -1

// LoopForever is the loop count passed to a backend for looping definitions.
const LoopForever = -1

// SampleEntry is one weighted variant of a definition.
type SampleEntry struct {
	Filename            string
	PlaybackProbability float32
}

// Definition is the authored, immutable description of a sound.
type Definition struct {
	ID       SoundID
	Name     string
	Priority Priority
	Loop     bool
	FadeIn   time.Duration
	Samples  []SampleEntry
}

// LoopCount returns the backend loop count for the definition.
func (d Definition) LoopCount() int {
	if d.Loop {
		return LoopForever
	}
	return 0
}

// SampleBuffer is an opaque loaded audio buffer owned by a sound.
// Backends type-assert it to their concrete buffer type.
type SampleBuffer interface {
	Release()
}

// RequestState tracks one request across ticks.
type RequestState string

const (
	StateRequested  RequestState = "requested"
	StateAssigned   RequestState = "assigned"
	StatePlaying    RequestState = "playing"
	StateCompleted  RequestState = "completed"
	StateEvicted    RequestState = "evicted"
	StateSuperseded RequestState = "superseded"
	StateStopped    RequestState = "stopped"
	StateFailed     RequestState = "failed"
)

// Terminal reports whether no further transitions follow the state.
func (s RequestState) Terminal() bool {
	switch s {
	case StateCompleted, StateEvicted, StateSuperseded, StateStopped, StateFailed:
		return true
	}
	return false
}

// PlayingSound is one sound instance competing for a channel.
type PlayingSound struct {
	Handle    uuid.UUID
	SoundID   SoundID
	StartTime WorldTime

	// ChannelID is the rank slot assigned by the prioritizer.
	ChannelID int

	// Voice is the backend channel driving playback.
	Voice int

	State RequestState
}

// NewPlayingSound returns a fresh request for id started at t.
func NewPlayingSound(id SoundID, t WorldTime) PlayingSound {
	return PlayingSound{
		Handle:    uuid.New(),
		SoundID:   id,
		StartTime: t,
		ChannelID: Unassigned,
		Voice:     Unassigned,
		State:     StateRequested,
	}
}

// Granted reports whether the prioritizer assigned a channel.
func (p PlayingSound) Granted() bool {
	return p.ChannelID != Unassigned
}
