package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

func TestBank_LoadAndLookup(t *testing.T) {
	b := New(newFakeLoader())

	s, err := b.Load(context.Background(), encode(t, definition(3, 2.5, 1)))
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())

	got, ok := b.Sound(3)
	require.True(t, ok)
	require.Same(t, s, got)

	named, ok := b.Lookup("sound_3")
	require.True(t, ok)
	require.Same(t, s, named)

	prio, err := b.Priority(3)
	require.NoError(t, err)
	require.Equal(t, domain.Priority(2.5), prio)
}

func TestBank_PriorityUnknownID(t *testing.T) {
	b := New(newFakeLoader())

	_, err := b.Priority(99)

	var unknown *domain.UnknownSoundIDError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, domain.SoundID(99), unknown.SoundID)
}

func TestBank_ReplaceSameID(t *testing.T) {
	loader := newFakeLoader()
	b := New(loader)

	_, err := b.Load(context.Background(), encode(t, definition(1, 0, 1)))
	require.NoError(t, err)
	old := loader.loaded[0]

	replacement := definition(1, 7, 1, 1)
	replacement.Name = "renamed"
	_, err = b.LoadDefinition(context.Background(), replacement)
	require.NoError(t, err)

	require.Equal(t, 1, b.Len())
	require.Equal(t, 1, old.released, "replaced sound is unloaded")
	prio, err := b.Priority(1)
	require.NoError(t, err)
	require.Equal(t, domain.Priority(7), prio)

	_, ok := b.Lookup("sound_1")
	require.False(t, ok, "old name is forgotten")
	_, ok = b.Lookup("renamed")
	require.True(t, ok)
}

func TestBank_FailedReplaceKeepsOldSound(t *testing.T) {
	loader := newFakeLoader()
	b := New(loader)

	_, err := b.Load(context.Background(), encode(t, definition(1, 3, 1)))
	require.NoError(t, err)

	broken := definition(1, 9, 1, 1)
	loader.fail[broken.Samples[1].Filename] = errors.New("missing")
	_, err = b.LoadDefinition(context.Background(), broken)

	var loadErr *domain.SampleLoadError
	require.ErrorAs(t, err, &loadErr)

	prio, err := b.Priority(1)
	require.NoError(t, err)
	require.Equal(t, domain.Priority(3), prio)
	require.Zero(t, loader.loaded[0].released)
}

func TestBank_UnloadIsIdempotent(t *testing.T) {
	loader := newFakeLoader()
	b := New(loader)

	_, err := b.Load(context.Background(), encode(t, definition(4, 0, 1)))
	require.NoError(t, err)

	b.Unload(4)
	b.Unload(4)
	b.Unload(123)

	require.Zero(t, b.Len())
	require.Equal(t, 1, loader.loaded[0].released)
	_, ok := b.Lookup("sound_4")
	require.False(t, ok)
}

func TestBank_UnloadAllAndIDs(t *testing.T) {
	loader := newFakeLoader()
	b := New(loader)

	for _, id := range []domain.SoundID{5, 1, 3} {
		_, err := b.LoadDefinition(context.Background(), definition(id, 0, 1))
		require.NoError(t, err)
	}
	require.Equal(t, []domain.SoundID{1, 3, 5}, b.IDs())

	b.UnloadAll()
	require.Zero(t, b.Len())
	require.Empty(t, b.IDs())
	for _, buf := range loader.loaded {
		require.Equal(t, 1, buf.released)
	}
}

func TestBank_LoadAllSkipsOtherFiles(t *testing.T) {
	files := mapBytes{
		"a.sdef": encode(t, definition(1, 0, 1)),
		"b.sdef": encode(t, definition(2, 0, 1)),
	}
	b := New(newFakeLoader())

	err := b.LoadAll(context.Background(), files, []string{"a.sdef", "notes.txt", "b.sdef"})
	require.NoError(t, err)
	require.Equal(t, []domain.SoundID{1, 2}, b.IDs())
}

func TestBank_LoadAllStopsAtFirstFailure(t *testing.T) {
	files := mapBytes{
		"a.sdef": encode(t, definition(1, 0, 1)),
		"c.sdef": encode(t, definition(3, 0, 1)),
	}
	b := New(newFakeLoader())

	err := b.LoadAll(context.Background(), files, []string{"a.sdef", "b.sdef", "c.sdef"})
	require.Error(t, err)
	require.Equal(t, []domain.SoundID{1}, b.IDs())
}
