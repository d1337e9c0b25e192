package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/zjrosen/partymix/internal/assets"
	"github.com/zjrosen/partymix/internal/audio/backend/nullbackend"
	"github.com/zjrosen/partymix/internal/audio/backend/otoplayer"
	"github.com/zjrosen/partymix/internal/audio/bank"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/config"
	"github.com/zjrosen/partymix/internal/history"
	"github.com/zjrosen/partymix/internal/library"
	"github.com/zjrosen/partymix/internal/log"
	"github.com/zjrosen/partymix/internal/sound"
	"github.com/zjrosen/partymix/internal/telemetry"
)

// traceFile receives spans when tracing is on without a collector.
const traceFile = "partymix-trace.json"

// definitionSources returns the configured definition sources, built-ins
// first so user files override them.
func definitionSources(c config.Config) []library.Source {
	var sources []library.Source
	if c.Sounds.Builtin {
		fsys := sound.FS()
		sources = append(sources, library.Source{
			Name:  "builtin",
			Files: assets.NewFSLoader(fsys, c.Sounds.CacheTTL),
			FS:    fsys,
			Dir:   sound.DefinitionsDir,
		})
	}
	if c.Sounds.Dir != "" {
		fsys := os.DirFS(c.Sounds.Dir)
		sources = append(sources, library.Source{
			Name:  c.Sounds.Dir,
			Files: assets.NewFSLoader(fsys, c.Sounds.CacheTTL),
			FS:    fsys,
			Dir:   ".",
			Root:  c.Sounds.Dir,
		})
	}
	return sources
}

// sampleLoader decodes WAV samples for the oto backend, user samples first.
// The silent backend only needs placeholder buffers.
func sampleLoader(c config.Config) bank.SampleLoader {
	if c.Audio.Backend == config.BackendSilent {
		return &nullbackend.Loader{}
	}
	var chain library.ChainLoader
	if dir := c.Sounds.SamplePath(); dir != "" {
		chain = append(chain, otoplayer.NewLoader(
			assets.NewFSLoader(os.DirFS(dir), c.Sounds.CacheTTL), ".", c.Audio.SampleRate))
	}
	if c.Sounds.Builtin {
		chain = append(chain, otoplayer.NewLoader(
			assets.NewFSLoader(sound.FS(), c.Sounds.CacheTTL), sound.SamplesDir, c.Audio.SampleRate))
	}
	return chain
}

// session is a loaded library and an engine playing from it.
type session struct {
	lib    *library.Library
	engine *engine.Engine

	// silent is set when the null backend is in use; its clock must be
	// advanced alongside the engine.
	silent *nullbackend.Backend

	// rec records tick reports when history is enabled.
	rec *history.Recorder

	shutdown []func(context.Context) error
}

// openLibrary loads every configured definition.
func openLibrary(ctx context.Context, c config.Config, samples bank.SampleLoader) (*library.Library, error) {
	lib := library.New(bank.New(samples), definitionSources(c)...)
	if err := lib.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("loading sounds: %w", err)
	}
	return lib, nil
}

// openSession starts tracing, loads the library and opens the configured
// backend.
func openSession(ctx context.Context, c config.Config, opts ...engine.Option) (*session, error) {
	s := &session{}

	traceOut := io.Discard
	if c.Trace.Enabled && c.Trace.Endpoint == "" {
		f, err := os.Create(traceFile)
		if err != nil {
			return nil, fmt.Errorf("creating trace file: %w", err)
		}
		traceOut = f
		s.shutdown = append(s.shutdown, func(context.Context) error { return f.Close() })
	}
	stopTrace, err := telemetry.Setup(ctx, c.Trace, traceOut)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	// Flush spans before the trace file closes.
	s.shutdown = append([]func(context.Context) error{stopTrace}, s.shutdown...)

	s.lib, err = openLibrary(ctx, c, sampleLoader(c))
	if err != nil {
		s.close(ctx)
		return nil, err
	}

	var backend engine.Backend
	if c.Audio.Backend == config.BackendSilent {
		s.silent = nullbackend.New()
		backend = s.silent
	} else {
		ob, err := otoplayer.Open(c.Audio.SampleRate, c.Audio.OutputChannels)
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		backend = ob
	}

	opts = append([]engine.Option{engine.WithChannels(c.Audio.Channels), engine.WithVolume(c.Audio.Volume)}, opts...)
	s.engine, err = engine.New(backend, s.lib.Bank(), opts...)
	if err != nil {
		_ = backend.Close()
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

// recordAs starts recording the session's ticks under command when history
// is enabled.
func (s *session) recordAs(ctx context.Context, command string) error {
	rec, finish, err := startHistory(ctx, cfg, command, s.engine.Channels(), soundName(s.engine))
	if err != nil || rec == nil {
		return err
	}
	s.rec = rec
	s.shutdown = append(s.shutdown, finish)
	return nil
}

// update advances the silent backend, if any, ticks the engine and records
// the report, also when the tick aborted.
func (s *session) update(now domain.WorldTime) (engine.TickReport, error) {
	if s.silent != nil {
		s.silent.Advance(now)
	}
	report, err := s.engine.Update(now)
	record(s.rec, report)
	return report, err
}

func (s *session) close(ctx context.Context) {
	if s.engine != nil {
		// Record whatever is still playing as stopped.
		s.engine.StopAll()
		report, _ := s.engine.Update(s.engine.Now())
		record(s.rec, report)
		if err := s.engine.Close(); err != nil {
			log.ErrorErr(log.CatAudio, "Closing engine", err)
		}
	}
	if s.lib != nil {
		s.lib.Bank().UnloadAll()
	}
	for _, fn := range s.shutdown {
		if err := fn(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "Shutdown", err)
		}
	}
}
