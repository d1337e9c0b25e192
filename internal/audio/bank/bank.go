package bank

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/sounddef"
	"github.com/zjrosen/partymix/internal/log"
)

var tracer = otel.Tracer("github.com/zjrosen/partymix/internal/audio/bank")

// Bank holds the loaded sounds keyed by definition id.
// It is not safe for concurrent mutation.
type Bank struct {
	loader SampleLoader
	sounds map[domain.SoundID]*Sound
	names  map[string]domain.SoundID
}

// New returns an empty bank that loads samples through loader.
func New(loader SampleLoader) *Bank {
	return &Bank{
		loader: loader,
		sounds: make(map[domain.SoundID]*Sound),
		names:  make(map[string]domain.SoundID),
	}
}

// Load parses a binary definition and installs the loaded sound.
// A sound already loaded under the same id is replaced only after the new
// one loads successfully.
func (b *Bank) Load(ctx context.Context, raw []byte) (*Sound, error) {
	ctx, span := tracer.Start(ctx, "bank.Load", trace.WithAttributes(attribute.Int("bytes", len(raw))))
	defer span.End()

	s := NewSound(b.loader)
	if err := s.LoadSound(ctx, raw); err != nil {
		return nil, fail(span, err)
	}
	b.install(s, span)
	return s, nil
}

// LoadFile reads and installs the definition at path.
func (b *Bank) LoadFile(ctx context.Context, bytes ByteLoader, path string) (*Sound, error) {
	ctx, span := tracer.Start(ctx, "bank.LoadFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	s := NewSound(b.loader)
	if err := s.LoadSoundFromFile(ctx, bytes, path); err != nil {
		log.ErrorErr(log.CatBank, "Failed to load sound", err, "path", path)
		return nil, fail(span, err)
	}
	b.install(s, span)
	return s, nil
}

// LoadDefinition installs an already parsed definition.
func (b *Bank) LoadDefinition(ctx context.Context, def domain.Definition) (*Sound, error) {
	ctx, span := tracer.Start(ctx, "bank.LoadDefinition")
	defer span.End()

	s := NewSound(b.loader)
	if err := s.LoadDefinition(ctx, def); err != nil {
		return nil, fail(span, err)
	}
	b.install(s, span)
	return s, nil
}

// LoadAll loads every definition file in paths, skipping other files.
// It stops at the first failure; sounds loaded before it stay installed.
func (b *Bank) LoadAll(ctx context.Context, bytes ByteLoader, paths []string) error {
	for _, p := range paths {
		if !sounddef.IsDefinitionFile(p) {
			continue
		}
		if _, err := b.LoadFile(ctx, bytes, p); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bank) install(s *Sound, span trace.Span) {
	id := s.ID()
	if old, ok := b.sounds[id]; ok {
		b.forgetName(old)
		old.Unload()
	}
	b.sounds[id] = s
	if name := s.Definition().Name; name != "" {
		b.names[name] = id
	}

	span.SetAttributes(
		attribute.Int64("sound.id", int64(id)),
		attribute.Int("sound.samples", len(s.samples)),
	)
	log.Debug(log.CatBank, "Loaded sound",
		"id", id,
		"name", s.Definition().Name,
		"samples", len(s.samples),
		"priority", s.Priority())
}

// Unload releases and forgets the sound with id. Unknown ids are ignored.
func (b *Bank) Unload(id domain.SoundID) {
	s, ok := b.sounds[id]
	if !ok {
		return
	}
	b.forgetName(s)
	delete(b.sounds, id)
	s.Unload()
}

// UnloadAll releases every sound.
func (b *Bank) UnloadAll() {
	for id := range b.sounds {
		b.Unload(id)
	}
}

func (b *Bank) forgetName(s *Sound) {
	name := s.Definition().Name
	if id, ok := b.names[name]; ok && id == s.ID() {
		delete(b.names, name)
	}
}

// Sound returns the loaded sound with id.
func (b *Bank) Sound(id domain.SoundID) (*Sound, bool) {
	s, ok := b.sounds[id]
	return s, ok
}

// Lookup returns the loaded sound named name.
func (b *Bank) Lookup(name string) (*Sound, bool) {
	id, ok := b.names[name]
	if !ok {
		return nil, false
	}
	return b.Sound(id)
}

// Priority returns the declared priority of id.
func (b *Bank) Priority(id domain.SoundID) (domain.Priority, error) {
	s, ok := b.sounds[id]
	if !ok {
		return 0, &domain.UnknownSoundIDError{SoundID: id}
	}
	return s.Priority(), nil
}

// IDs returns the loaded ids in ascending order.
func (b *Bank) IDs() []domain.SoundID {
	ids := make([]domain.SoundID, 0, len(b.sounds))
	for id := range b.sounds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of loaded sounds.
func (b *Bank) Len() int { return len(b.sounds) }

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
