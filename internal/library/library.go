// Package library loads sound definitions from one or more sources into a
// bank and keeps them in sync with the files on disk.
package library

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zjrosen/partymix/internal/assets"
	"github.com/zjrosen/partymix/internal/audio/bank"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/sounddef"
	"github.com/zjrosen/partymix/internal/log"
)

// Source is a directory of definitions inside a filesystem.
type Source struct {
	// Name labels the source in listings.
	Name string

	// Files reads definition bytes from the source filesystem.
	Files *assets.FSLoader

	// FS and Dir locate the definitions.
	FS  fs.FS
	Dir string

	// Root is the OS directory FS was opened on, used to map watcher
	// paths back into FS. Empty for embedded sources.
	Root string
}

// Entry describes one loaded definition.
type Entry struct {
	ID     domain.SoundID
	Path   string
	Source string
}

// Unloader stops and unloads a sound. engine.Engine.UnloadSound satisfies it;
// a nil Unloader unloads from the bank directly.
type Unloader func(id domain.SoundID)

// record is an entry plus what decides which file wins an id.
type record struct {
	Entry
	source int    // index into sources
	seq    uint64 // load order
}

// beats reports whether r takes precedence over o for the same id: a later
// source wins, then the more recent load.
func (r record) beats(o record) bool {
	if r.source != o.source {
		return r.source > o.source
	}
	return r.seq > o.seq
}

// Library tracks which file each sound came from. Every definition file is
// remembered, including those shadowed by a later source, so removing an
// override brings the shadowed definition back.
type Library struct {
	bank    *bank.Bank
	sources []Source
	entries map[string]record // keyed by source name + path
	seq     uint64
}

// New returns a library loading into b from sources, in order. A later
// source overrides an earlier one defining the same id.
func New(b *bank.Bank, sources ...Source) *Library {
	return &Library{bank: b, sources: sources, entries: map[string]record{}}
}

// Bank returns the bank definitions are loaded into.
func (l *Library) Bank() *bank.Bank { return l.bank }

// LoadAll loads every definition of every source. It stops at the first
// failing file.
func (l *Library) LoadAll(ctx context.Context) error {
	for i, src := range l.sources {
		paths, err := assets.ListDefinitions(src.FS, src.Dir)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Name, err)
		}
		for _, p := range paths {
			if err := l.load(ctx, i, p); err != nil {
				return err
			}
		}
		log.Info(log.CatBank, "Loaded definitions", "source", src.Name, "count", len(paths))
	}
	return nil
}

// load parses the file at p in source i and installs it unless a file in a
// later source already defines the same id.
func (l *Library) load(ctx context.Context, i int, p string) error {
	src := l.sources[i]
	raw, err := src.Files.LoadBytes(p)
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Name, err)
	}
	def, err := sounddef.DecodeFile(p, raw)
	if err != nil {
		return fmt.Errorf("source %s: %s: %w", src.Name, p, err)
	}

	k := key(src, p)
	l.seq++
	rec := record{Entry: Entry{ID: def.ID, Path: p, Source: src.Name}, source: i, seq: l.seq}

	_, w, ok := l.winner(def.ID, k)
	if ok && w.beats(rec) {
		l.entries[k] = rec
		log.Info(log.CatBank, "Definition shadowed", "id", def.ID, "path", p, "by", w.Path)
		return nil
	}
	if _, err := l.bank.LoadDefinition(ctx, def); err != nil {
		return fmt.Errorf("source %s: %s: %w", src.Name, p, err)
	}
	if ok {
		log.Info(log.CatBank, "Definition overridden", "id", def.ID, "was", w.Path, "by", p)
	}
	l.entries[k] = rec
	return nil
}

// winner returns the record currently providing id, ignoring the one at skip.
func (l *Library) winner(id domain.SoundID, skip string) (string, record, bool) {
	var (
		best    record
		bestKey string
		found   bool
	)
	for k, r := range l.entries {
		if k == skip || r.ID != id {
			continue
		}
		if !found || r.beats(best) {
			best, bestKey, found = r, k, true
		}
	}
	return bestKey, best, found
}

// provides reports whether the record at k is the one installed for id.
func (l *Library) provides(k string, id domain.SoundID) bool {
	wk, _, ok := l.winner(id, "")
	return ok && wk == k
}

// restore reinstalls the next file defining id after its provider went away,
// or unloads id if there is none.
func (l *Library) restore(ctx context.Context, id domain.SoundID, unload Unloader) error {
	k, r, ok := l.winner(id, "")
	if !ok {
		unload(id)
		return nil
	}
	src := l.sources[r.source]
	src.Files.Invalidate(r.Path)
	if _, err := l.bank.LoadFile(ctx, src.Files, r.Path); err != nil {
		delete(l.entries, k)
		unload(id)
		return fmt.Errorf("source %s: restoring %s: %w", src.Name, r.Path, err)
	}
	log.Info(log.CatBank, "Restored shadowed definition", "id", id, "path", r.Path, "source", src.Name)
	return nil
}

// Reload re-reads the given OS paths, as reported by assets.Watcher.
// Deleted files have their sound unloaded through unload, unless an earlier
// source also defines the id, in which case that definition is reinstalled.
// Paths outside every source are ignored. All paths are attempted; the
// errors are joined.
func (l *Library) Reload(ctx context.Context, osPaths []string, unload Unloader) error {
	if unload == nil {
		unload = l.bank.Unload
	}

	var errs []error
	for _, osPath := range osPaths {
		i, p, ok := l.resolve(osPath)
		if !ok {
			continue
		}
		src := l.sources[i]
		src.Files.Invalidate(p)
		k := key(src, p)
		prev, had := l.entries[k]
		wasProvider := had && l.provides(k, prev.ID)

		_, statErr := fs.Stat(src.FS, p)
		if errors.Is(statErr, fs.ErrNotExist) {
			if !had {
				continue
			}
			delete(l.entries, k)
			log.Info(log.CatBank, "Removed definition", "path", p, "id", prev.ID)
			if wasProvider {
				if err := l.restore(ctx, prev.ID, unload); err != nil {
					errs = append(errs, err)
				}
			}
			continue
		}

		if err := l.load(ctx, i, p); err != nil {
			log.ErrorErr(log.CatBank, "Reload failed", err, "path", p)
			errs = append(errs, err)
			continue
		}
		if wasProvider && l.entries[k].ID != prev.ID {
			if err := l.restore(ctx, prev.ID, unload); err != nil {
				errs = append(errs, err)
			}
		}
		log.Info(log.CatBank, "Reloaded definition", "path", p)
	}
	return errors.Join(errs...)
}

func (l *Library) resolve(osPath string) (int, string, bool) {
	for i, src := range l.sources {
		if src.Root == "" {
			continue
		}
		rel, err := filepath.Rel(src.Root, osPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		p := path.Clean(filepath.ToSlash(rel))
		if path.Dir(p) != path.Clean(src.Dir) || !sounddef.IsDefinitionFile(p) {
			continue
		}
		return i, p, true
	}
	return 0, "", false
}

// Entries returns the definitions installed in the bank, sorted by id then
// path. Shadowed files are left out.
func (l *Library) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for k, r := range l.entries {
		if !l.provides(k, r.ID) {
			continue
		}
		if s, ok := l.bank.Sound(r.ID); ok && s.Loaded() {
			out = append(out, r.Entry)
		}
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(a.Source+a.Path, b.Source+b.Path)
	})
	return out
}

func key(src Source, p string) string { return src.Name + "\x00" + p }

// ChainLoader tries each loader in order and returns the first sample that
// loads. If none does, the first error is returned.
type ChainLoader []bank.SampleLoader

// LoadSample implements bank.SampleLoader.
func (c ChainLoader) LoadSample(filename string) (domain.SampleBuffer, error) {
	var first error
	for _, l := range c {
		buf, err := l.LoadSample(filename)
		if err == nil {
			return buf, nil
		}
		if first == nil {
			first = err
		}
	}
	if first == nil {
		first = fmt.Errorf("no sample loaders for %s", filename)
	}
	return nil, first
}
