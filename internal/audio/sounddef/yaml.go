package sounddef

import (
	"bytes"
	"errors"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

// yamlDefinition is the authoring layout of a definition.
type yamlDefinition struct {
	ID       uint32       `yaml:"id"`
	Name     string       `yaml:"name,omitempty"`
	Priority float32      `yaml:"priority"`
	Loop     bool         `yaml:"loop,omitempty"`
	FadeInMs uint32       `yaml:"fade_in_ms,omitempty"`
	Samples  []yamlSample `yaml:"samples"`
}

type yamlSample struct {
	Filename    string  `yaml:"filename"`
	Probability float32 `yaml:"probability"`
}

// ParseYAML parses an authored definition. Unknown keys are rejected.
func ParseYAML(raw []byte) (domain.Definition, error) {
	var y yamlDefinition
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&y); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Definition{}, &domain.DefinitionParseError{Reason: "empty document"}
		}
		return domain.Definition{}, &domain.DefinitionParseError{Reason: "yaml", Err: err}
	}

	def := domain.Definition{
		ID:       domain.SoundID(y.ID),
		Name:     y.Name,
		Priority: domain.Priority(y.Priority),
		Loop:     y.Loop,
		FadeIn:   time.Duration(y.FadeInMs) * time.Millisecond,
	}
	for _, s := range y.Samples {
		def.Samples = append(def.Samples, domain.SampleEntry{
			Filename:            s.Filename,
			PlaybackProbability: s.Probability,
		})
	}

	if err := Validate(def); err != nil {
		return domain.Definition{}, err
	}
	return def, nil
}

// MarshalYAML renders def in the authoring layout.
func MarshalYAML(def domain.Definition) ([]byte, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	y := yamlDefinition{
		ID:       uint32(def.ID),
		Name:     def.Name,
		Priority: float32(def.Priority),
		Loop:     def.Loop,
		FadeInMs: uint32(def.FadeIn / time.Millisecond),
		Samples:  make([]yamlSample, 0, len(def.Samples)),
	}
	for _, s := range def.Samples {
		y.Samples = append(y.Samples, yamlSample{Filename: s.Filename, Probability: s.PlaybackProbability})
	}
	return yaml.Marshal(y)
}
