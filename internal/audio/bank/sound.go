// Package bank loads sound definitions with their sample buffers and picks
// a concrete sample for each playback.
package bank

import (
	"context"
	"fmt"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/sounddef"
)

// SampleLoader turns a sample filename into a loaded buffer.
type SampleLoader interface {
	LoadSample(filename string) (domain.SampleBuffer, error)
}

// ByteLoader reads a serialized definition.
type ByteLoader interface {
	LoadBytes(path string) ([]byte, error)
}

// RandomSource yields uniform draws in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float32() float32
}

// Sample is one loaded variant of a sound.
type Sample struct {
	Filename    string
	Probability float32
	Buffer      domain.SampleBuffer
}

// Sound is one loaded definition and the buffers of its samples.
type Sound struct {
	loader             SampleLoader
	def                domain.Definition
	samples            []Sample
	sumOfProbabilities float32
	loaded             bool
}

// NewSound returns an empty sound that loads samples through loader.
func NewSound(loader SampleLoader) *Sound {
	return &Sound{loader: loader}
}

// LoadSound parses a binary definition and loads all of its samples.
func (s *Sound) LoadSound(ctx context.Context, raw []byte) error {
	def, err := sounddef.Decode(raw)
	if err != nil {
		return err
	}
	return s.LoadDefinition(ctx, def)
}

// LoadSoundFromFile reads path through bytes and loads it. The extension
// selects the YAML or binary format.
func (s *Sound) LoadSoundFromFile(ctx context.Context, bytes ByteLoader, path string) error {
	raw, err := bytes.LoadBytes(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	def, err := sounddef.DecodeFile(path, raw)
	if err != nil {
		return err
	}
	return s.LoadDefinition(ctx, def)
}

// LoadDefinition loads the samples of an already parsed definition.
// Any previous contents are unloaded first. If a sample fails to load,
// everything loaded so far is released and the sound is left empty.
func (s *Sound) LoadDefinition(ctx context.Context, def domain.Definition) error {
	if err := sounddef.Validate(def); err != nil {
		return err
	}
	s.Unload()

	samples := make([]Sample, 0, len(def.Samples))
	var sum float32
	for _, entry := range def.Samples {
		if err := ctx.Err(); err != nil {
			releaseAll(samples)
			return err
		}
		buf, err := s.loader.LoadSample(entry.Filename)
		if err != nil {
			releaseAll(samples)
			return &domain.SampleLoadError{Filename: entry.Filename, Err: err}
		}
		samples = append(samples, Sample{
			Filename:    entry.Filename,
			Probability: entry.PlaybackProbability,
			Buffer:      buf,
		})
		sum += entry.PlaybackProbability
	}

	s.def = def
	s.samples = samples
	s.sumOfProbabilities = sum
	s.loaded = true
	return nil
}

// Unload releases every sample buffer. It is safe to call repeatedly.
func (s *Sound) Unload() {
	releaseAll(s.samples)
	s.def = domain.Definition{}
	s.samples = nil
	s.sumOfProbabilities = 0
	s.loaded = false
}

// SelectSample picks a sample at random, weighted by playback probability.
func (s *Sound) SelectSample(src RandomSource) (Sample, error) {
	if len(s.samples) == 0 {
		return Sample{}, &domain.EmptyDefinitionError{SoundID: s.def.ID}
	}

	// Walk the samples subtracting each weight from a draw in
	// [0, sum) until it reaches zero.
	selection := src.Float32() * s.sumOfProbabilities
	for _, sample := range s.samples {
		selection -= sample.Probability
		if selection <= 0 {
			return sample, nil
		}
	}

	// Floating point rounding left a residue; the last sample absorbs it.
	return s.samples[len(s.samples)-1], nil
}

// Loaded reports whether a definition is currently loaded.
func (s *Sound) Loaded() bool { return s.loaded }

// Definition returns the loaded definition.
func (s *Sound) Definition() domain.Definition { return s.def }

// ID returns the definition id.
func (s *Sound) ID() domain.SoundID { return s.def.ID }

// Priority returns the definition priority.
func (s *Sound) Priority() domain.Priority { return s.def.Priority }

// SumOfProbabilities returns the total weight of all samples.
func (s *Sound) SumOfProbabilities() float32 { return s.sumOfProbabilities }

// Samples returns the loaded samples in definition order.
func (s *Sound) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

func releaseAll(samples []Sample) {
	for _, sample := range samples {
		if sample.Buffer != nil {
			sample.Buffer.Release()
		}
	}
}
