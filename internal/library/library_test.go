package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/partymix/internal/assets"
	"github.com/zjrosen/partymix/internal/audio/backend/nullbackend"
	"github.com/zjrosen/partymix/internal/audio/bank"
	"github.com/zjrosen/partymix/internal/audio/domain"
)

func yamlDef(id, name string) []byte {
	return []byte("id: " + id + "\nname: " + name + "\npriority: 1\nsamples:\n  - filename: " + name + ".wav\n    probability: 1\n")
}

func builtinSource() Source {
	fsys := fstest.MapFS{
		"defs/cheer.yaml": {Data: yamlDef("1", "cheer")},
		"defs/boo.yaml":   {Data: yamlDef("2", "boo")},
	}
	return Source{Name: "builtin", Files: assets.NewFSLoader(fsys, 0), FS: fsys, Dir: "defs"}
}

func userSource(t *testing.T) (Source, string) {
	t.Helper()
	dir := t.TempDir()
	fsys := os.DirFS(dir)
	return Source{Name: dir, Files: assets.NewFSLoader(fsys, 0), FS: fsys, Dir: ".", Root: dir}, dir
}

func ids(entries []Entry) []domain.SoundID {
	var out []domain.SoundID
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestLoadAll(t *testing.T) {
	b := bank.New(&nullbackend.Loader{})
	lib := New(b, builtinSource())

	require.NoError(t, lib.LoadAll(context.Background()))
	require.Equal(t, 2, b.Len())

	entries := lib.Entries()
	require.Equal(t, []domain.SoundID{1, 2}, ids(entries))
	require.Equal(t, "defs/cheer.yaml", entries[0].Path)
	require.Equal(t, "builtin", entries[0].Source)
}

func TestLoadAll_LaterSourceOverrides(t *testing.T) {
	user, dir := userSource(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loud_cheer.yaml"), yamlDef("1", "loud_cheer"), 0o644))

	b := bank.New(&nullbackend.Loader{})
	lib := New(b, builtinSource(), user)
	require.NoError(t, lib.LoadAll(context.Background()))

	s, ok := b.Sound(1)
	require.True(t, ok)
	require.Equal(t, "loud_cheer", s.Definition().Name)

	entries := lib.Entries()
	require.Equal(t, []domain.SoundID{1, 2}, ids(entries))
	require.Equal(t, dir, entries[0].Source)
}

func TestLoadAll_StopsOnBadFile(t *testing.T) {
	user, dir := userSource(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: [nope"), 0o644))

	lib := New(bank.New(&nullbackend.Loader{}), user)
	var parseErr *domain.DefinitionParseError
	require.ErrorAs(t, lib.LoadAll(context.Background()), &parseErr)
}

func TestLoadAll_MissingSampleFails(t *testing.T) {
	loader := &nullbackend.Loader{Missing: map[string]bool{"boo.wav": true}}
	lib := New(bank.New(loader), builtinSource())

	var sampleErr *domain.SampleLoadError
	require.ErrorAs(t, lib.LoadAll(context.Background()), &sampleErr)
	require.Equal(t, "boo.wav", sampleErr.Filename)
}

func TestReload(t *testing.T) {
	user, dir := userSource(t)
	path := filepath.Join(dir, "pie.yaml")
	require.NoError(t, os.WriteFile(path, yamlDef("5", "pie"), 0o644))

	b := bank.New(&nullbackend.Loader{})
	lib := New(b, user)
	require.NoError(t, lib.LoadAll(context.Background()))

	// Edited in place.
	require.NoError(t, os.WriteFile(path, yamlDef("5", "pie_v2"), 0o644))
	require.NoError(t, lib.Reload(context.Background(), []string{path}, nil))
	s, _ := b.Sound(5)
	require.Equal(t, "pie_v2", s.Definition().Name)

	// Id changed: the old id goes away.
	var unloaded []domain.SoundID
	unload := func(id domain.SoundID) {
		unloaded = append(unloaded, id)
		b.Unload(id)
	}
	require.NoError(t, os.WriteFile(path, yamlDef("6", "pie"), 0o644))
	require.NoError(t, lib.Reload(context.Background(), []string{path}, unload))
	require.Equal(t, []domain.SoundID{5}, unloaded)
	require.Equal(t, []domain.SoundID{6}, ids(lib.Entries()))

	// Deleted.
	require.NoError(t, os.Remove(path))
	require.NoError(t, lib.Reload(context.Background(), []string{path}, unload))
	require.Equal(t, []domain.SoundID{5, 6}, unloaded)
	require.Empty(t, lib.Entries())
	require.Zero(t, b.Len())
}

func TestReload_NewFileAndErrors(t *testing.T) {
	user, dir := userSource(t)
	b := bank.New(&nullbackend.Loader{})
	lib := New(b, user)
	require.NoError(t, lib.LoadAll(context.Background()))

	good := filepath.Join(dir, "buzzer.yaml")
	bad := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(good, yamlDef("7", "buzzer"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("samples: 3"), 0o644))

	err := lib.Reload(context.Background(), []string{bad, good, "/elsewhere/x.yaml", filepath.Join(dir, "notes.txt")}, nil)
	require.Error(t, err)
	require.Equal(t, []domain.SoundID{7}, ids(lib.Entries()))
}

func TestReload_DeletingOverrideRestoresBuiltin(t *testing.T) {
	user, dir := userSource(t)
	path := filepath.Join(dir, "loud_cheer.yaml")
	require.NoError(t, os.WriteFile(path, yamlDef("1", "loud_cheer"), 0o644))

	b := bank.New(&nullbackend.Loader{})
	lib := New(b, builtinSource(), user)
	require.NoError(t, lib.LoadAll(context.Background()))

	var unloaded []domain.SoundID
	unload := func(id domain.SoundID) { unloaded = append(unloaded, id); b.Unload(id) }

	require.NoError(t, os.Remove(path))
	require.NoError(t, lib.Reload(context.Background(), []string{path}, unload))

	require.Empty(t, unloaded)
	s, ok := b.Sound(1)
	require.True(t, ok)
	require.Equal(t, "cheer", s.Definition().Name)
	_, ok = b.Lookup("loud_cheer")
	require.False(t, ok)

	entries := lib.Entries()
	require.Equal(t, []domain.SoundID{1, 2}, ids(entries))
	require.Equal(t, "builtin", entries[0].Source)
}

func TestReload_OverrideChangingIDRestoresBuiltin(t *testing.T) {
	user, dir := userSource(t)
	path := filepath.Join(dir, "cheer.yaml")
	require.NoError(t, os.WriteFile(path, yamlDef("1", "loud_cheer"), 0o644))

	b := bank.New(&nullbackend.Loader{})
	lib := New(b, builtinSource(), user)
	require.NoError(t, lib.LoadAll(context.Background()))

	require.NoError(t, os.WriteFile(path, yamlDef("9", "loud_cheer"), 0o644))
	require.NoError(t, lib.Reload(context.Background(), []string{path}, nil))

	s, ok := b.Sound(1)
	require.True(t, ok)
	require.Equal(t, "cheer", s.Definition().Name)
	s, ok = b.Sound(9)
	require.True(t, ok)
	require.Equal(t, "loud_cheer", s.Definition().Name)
	require.Equal(t, []domain.SoundID{1, 2, 9}, ids(lib.Entries()))
}

func TestReload_ShadowedFileStaysShadowed(t *testing.T) {
	low, lowDir := userSource(t)
	high, highDir := userSource(t)
	lowPath := filepath.Join(lowDir, "pie.yaml")
	require.NoError(t, os.WriteFile(lowPath, yamlDef("4", "pie"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(highDir, "pie.yaml"), yamlDef("4", "big_pie"), 0o644))

	b := bank.New(&nullbackend.Loader{})
	lib := New(b, low, high)
	require.NoError(t, lib.LoadAll(context.Background()))

	require.NoError(t, os.WriteFile(lowPath, yamlDef("4", "pie_v2"), 0o644))
	require.NoError(t, lib.Reload(context.Background(), []string{lowPath}, nil))

	s, _ := b.Sound(4)
	require.Equal(t, "big_pie", s.Definition().Name)
	entries := lib.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, highDir, entries[0].Source)

	// Removing the shadowed file leaves the winner alone.
	require.NoError(t, os.Remove(lowPath))
	require.NoError(t, lib.Reload(context.Background(), []string{lowPath}, nil))
	s, ok := b.Sound(4)
	require.True(t, ok)
	require.Equal(t, "big_pie", s.Definition().Name)
}

type failing struct{ err error }

func (f failing) LoadSample(string) (domain.SampleBuffer, error) { return nil, f.err }

func TestChainLoader(t *testing.T) {
	first := errors.New("not in user dir")
	chain := ChainLoader{failing{first}, &nullbackend.Loader{}}

	buf, err := chain.LoadSample("cheer.wav")
	require.NoError(t, err)
	require.Equal(t, "cheer.wav", buf.(*nullbackend.Buffer).Name)

	_, err = ChainLoader{failing{first}, failing{errors.New("second")}}.LoadSample("x.wav")
	require.ErrorIs(t, err, first)

	_, err = ChainLoader{}.LoadSample("x.wav")
	require.Error(t, err)
}
