// Package sounddef reads and writes serialized sound definitions.
//
// The binary form uses the protobuf wire format with this schema:
//
//	message SoundDef {
//	  uint32 id = 1;
//	  float priority = 2;
//	  repeated AudioSampleSetEntry audio_sample_set = 3;
//	  bool loop = 4;
//	  uint32 fade_in_ms = 5;
//	  string name = 6;
//	}
//
//	message AudioSampleSetEntry {
//	  string filename = 1;
//	  float playback_probability = 2;
//	}
//
// The YAML form is the authoring format and converts losslessly to the
// binary form.
package sounddef

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

// Field numbers of SoundDef.
const (
	fieldID        protowire.Number = 1
	fieldPriority  protowire.Number = 2
	fieldSampleSet protowire.Number = 3
	fieldLoop      protowire.Number = 4
	fieldFadeInMs  protowire.Number = 5
	fieldName      protowire.Number = 6
)

// Field numbers of AudioSampleSetEntry.
const (
	fieldFilename    protowire.Number = 1
	fieldProbability protowire.Number = 2
)

// BinaryExt is the conventional extension of binary definition files.
const BinaryExt = ".sdef"

// MaxFadeIn is the longest fade-in both formats can hold, in whole
// milliseconds of a uint32.
const MaxFadeIn = time.Duration(math.MaxUint32) * time.Millisecond

// Decode parses a binary definition. Every failure is a
// *domain.DefinitionParseError.
func Decode(raw []byte) (domain.Definition, error) {
	var def domain.Definition
	if len(raw) == 0 {
		return def, &domain.DefinitionParseError{Reason: "empty buffer"}
	}

	b := raw
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.Definition{}, parseErr("tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return domain.Definition{}, parseErr("id", protowire.ParseError(n))
			}
			if v > math.MaxUint32 {
				return domain.Definition{}, &domain.DefinitionParseError{Reason: fmt.Sprintf("id %d out of range", v)}
			}
			def.ID = domain.SoundID(v)
			b = b[n:]

		case num == fieldPriority && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return domain.Definition{}, parseErr("priority", protowire.ParseError(n))
			}
			def.Priority = domain.Priority(math.Float32frombits(v))
			b = b[n:]

		case num == fieldSampleSet && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return domain.Definition{}, parseErr("audio_sample_set", protowire.ParseError(n))
			}
			entry, err := decodeEntry(v)
			if err != nil {
				return domain.Definition{}, err
			}
			def.Samples = append(def.Samples, entry)
			b = b[n:]

		case num == fieldLoop && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return domain.Definition{}, parseErr("loop", protowire.ParseError(n))
			}
			def.Loop = protowire.DecodeBool(v)
			b = b[n:]

		case num == fieldFadeInMs && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return domain.Definition{}, parseErr("fade_in_ms", protowire.ParseError(n))
			}
			if v > math.MaxUint32 {
				return domain.Definition{}, &domain.DefinitionParseError{Reason: fmt.Sprintf("fade_in_ms %d out of range", v)}
			}
			def.FadeIn = time.Duration(v) * time.Millisecond
			b = b[n:]

		case num == fieldName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return domain.Definition{}, parseErr("name", protowire.ParseError(n))
			}
			def.Name = v
			b = b[n:]

		case num >= fieldID && num <= fieldName:
			return domain.Definition{}, &domain.DefinitionParseError{
				Reason: fmt.Sprintf("field %d has wire type %d", num, typ),
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return domain.Definition{}, parseErr(fmt.Sprintf("field %d", num), protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if err := Validate(def); err != nil {
		return domain.Definition{}, err
	}
	return def, nil
}

func decodeEntry(b []byte) (domain.SampleEntry, error) {
	var entry domain.SampleEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return entry, parseErr("audio_sample_set tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldFilename && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return entry, parseErr("filename", protowire.ParseError(n))
			}
			entry.Filename = v
			b = b[n:]

		case num == fieldProbability && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return entry, parseErr("playback_probability", protowire.ParseError(n))
			}
			entry.PlaybackProbability = math.Float32frombits(v)
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return entry, parseErr(fmt.Sprintf("audio_sample_set field %d", num), protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return entry, nil
}

// Encode serializes def in the binary form.
func Encode(def domain.Definition) ([]byte, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}

	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(def.ID))
	b = protowire.AppendTag(b, fieldPriority, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(float32(def.Priority)))

	for _, s := range def.Samples {
		var e []byte
		e = protowire.AppendTag(e, fieldFilename, protowire.BytesType)
		e = protowire.AppendString(e, s.Filename)
		e = protowire.AppendTag(e, fieldProbability, protowire.Fixed32Type)
		e = protowire.AppendFixed32(e, math.Float32bits(s.PlaybackProbability))

		b = protowire.AppendTag(b, fieldSampleSet, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}

	if def.Loop {
		b = protowire.AppendTag(b, fieldLoop, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if def.FadeIn > 0 {
		b = protowire.AppendTag(b, fieldFadeInMs, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(def.FadeIn/time.Millisecond))
	}
	if def.Name != "" {
		b = protowire.AppendTag(b, fieldName, protowire.BytesType)
		b = protowire.AppendString(b, def.Name)
	}
	return b, nil
}

// Validate checks the invariants a definition must hold to be loaded.
// Zero samples is valid; such a sound loads but cannot be played.
func Validate(def domain.Definition) error {
	p := float64(def.Priority)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return &domain.DefinitionParseError{Reason: fmt.Sprintf("priority %v is not finite", def.Priority)}
	}
	if def.FadeIn < 0 {
		return &domain.DefinitionParseError{Reason: "negative fade-in"}
	}
	if def.FadeIn > MaxFadeIn {
		return &domain.DefinitionParseError{Reason: fmt.Sprintf("fade-in %v exceeds %v", def.FadeIn, MaxFadeIn)}
	}
	var sum float32
	for i, s := range def.Samples {
		if s.Filename == "" {
			return &domain.DefinitionParseError{Reason: fmt.Sprintf("sample %d has no filename", i)}
		}
		v := float64(s.PlaybackProbability)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &domain.DefinitionParseError{
				Reason: fmt.Sprintf("sample %q has invalid probability %v", s.Filename, s.PlaybackProbability),
			}
		}
		sum += s.PlaybackProbability
	}
	// Selection draws from [0, sum) in float32.
	if math.IsInf(float64(sum), 0) {
		return &domain.DefinitionParseError{Reason: "sum of probabilities overflows"}
	}
	return nil
}

// DecodeFile parses raw according to the extension of path: YAML for
// .yaml and .yml, binary otherwise.
func DecodeFile(path string, raw []byte) (domain.Definition, error) {
	if IsYAML(path) {
		return ParseYAML(raw)
	}
	return Decode(raw)
}

// IsYAML reports whether path names a YAML definition.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// IsDefinitionFile reports whether path names any definition file.
func IsDefinitionFile(path string) bool {
	return IsYAML(path) || strings.EqualFold(filepath.Ext(path), BinaryExt)
}

func parseErr(reason string, err error) error {
	return &domain.DefinitionParseError{Reason: reason, Err: err}
}
