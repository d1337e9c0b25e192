package bank

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/sounddef"
)

// ============================================================================
// Test doubles
// ============================================================================

type fakeBuffer struct {
	name     string
	released int
}

func (b *fakeBuffer) Release() { b.released++ }

type fakeLoader struct {
	fail   map[string]error
	loaded []*fakeBuffer
	calls  int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{fail: make(map[string]error)}
}

func (l *fakeLoader) LoadSample(filename string) (domain.SampleBuffer, error) {
	l.calls++
	if err, ok := l.fail[filename]; ok {
		return nil, err
	}
	buf := &fakeBuffer{name: filename}
	l.loaded = append(l.loaded, buf)
	return buf, nil
}

type mapBytes map[string][]byte

func (m mapBytes) LoadBytes(path string) ([]byte, error) {
	raw, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%s: not found", path)
	}
	return raw, nil
}

type fixedSource float32

func (f fixedSource) Float32() float32 { return float32(f) }

func definition(id domain.SoundID, priority domain.Priority, probabilities ...float32) domain.Definition {
	def := domain.Definition{ID: id, Name: fmt.Sprintf("sound_%d", id), Priority: priority}
	for i, p := range probabilities {
		def.Samples = append(def.Samples, domain.SampleEntry{
			Filename:            fmt.Sprintf("sound_%d_%02d.wav", id, i),
			PlaybackProbability: p,
		})
	}
	return def
}

func encode(t *testing.T, def domain.Definition) []byte {
	t.Helper()
	raw, err := sounddef.Encode(def)
	require.NoError(t, err)
	return raw
}

func loadedSound(t *testing.T, probabilities ...float32) *Sound {
	t.Helper()
	s := NewSound(newFakeLoader())
	require.NoError(t, s.LoadSound(context.Background(), encode(t, definition(1, 0, probabilities...))))
	return s
}

// ============================================================================
// SelectSample
// ============================================================================

func TestSelectSample_WalksCumulativeWeights(t *testing.T) {
	s := loadedSound(t, 1, 2, 1)

	tests := []struct {
		draw float32
		want string
	}{
		{draw: 0, want: "sound_1_00.wav"},
		{draw: 0.2, want: "sound_1_00.wav"},
		{draw: 0.3, want: "sound_1_01.wav"},
		{draw: 0.74, want: "sound_1_01.wav"},
		{draw: 0.76, want: "sound_1_02.wav"},
		{draw: 0.99, want: "sound_1_02.wav"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("draw %.2f", tt.draw), func(t *testing.T) {
			got, err := s.SelectSample(fixedSource(tt.draw))
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Filename)
		})
	}
}

func TestSelectSample_EmptyDefinition(t *testing.T) {
	s := NewSound(newFakeLoader())
	require.NoError(t, s.LoadDefinition(context.Background(), definition(8, 1)))

	_, err := s.SelectSample(fixedSource(0.5))

	var empty *domain.EmptyDefinitionError
	require.ErrorAs(t, err, &empty)
	require.Equal(t, domain.SoundID(8), empty.SoundID)
}

func TestSelectSample_RoundingResidueReturnsLast(t *testing.T) {
	s := loadedSound(t, 1, 1)
	// Emulate an accumulated sum slightly above the true total.
	s.sumOfProbabilities += 0.001

	got, err := s.SelectSample(fixedSource(0.9999))
	require.NoError(t, err)
	require.Equal(t, "sound_1_01.wav", got.Filename)
}

func TestSelectSample_ZeroWeightsPickFirst(t *testing.T) {
	s := loadedSound(t, 0, 0, 0)

	got, err := s.SelectSample(fixedSource(0.7))
	require.NoError(t, err)
	require.Equal(t, "sound_1_00.wav", got.Filename)
}

func TestSelectSample_EqualWeightsAreUniform(t *testing.T) {
	s := loadedSound(t, 1, 1, 1)
	rng := rand.New(rand.NewPCG(7, 11))

	const draws = 30000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		got, err := s.SelectSample(rng)
		require.NoError(t, err)
		counts[got.Filename]++
	}

	require.Len(t, counts, 3)
	for name, n := range counts {
		require.InDelta(t, draws/3, n, draws/30, "sample %s drawn %d times", name, n)
	}
}

func TestProperty_SelectSampleStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		weights := rapid.SliceOfN(rapid.Float32Range(0, 10), 1, 12).Draw(t, "weights")
		draw := rapid.Float32Range(0, 0.99999).Draw(t, "draw")

		s := NewSound(newFakeLoader())
		if err := s.LoadDefinition(context.Background(), definition(1, 0, weights...)); err != nil {
			t.Fatalf("load: %v", err)
		}

		got, err := s.SelectSample(fixedSource(draw))
		if err != nil {
			t.Fatalf("select: %v", err)
		}

		found := false
		for _, sample := range s.Samples() {
			if sample.Filename == got.Filename {
				found = true
			}
		}
		if !found {
			t.Fatalf("selected %q is not a sample of the sound", got.Filename)
		}
	})
}

// ============================================================================
// Load / Unload
// ============================================================================

func TestLoadSound_ComputesSum(t *testing.T) {
	s := loadedSound(t, 0.25, 0.5, 2)

	require.True(t, s.Loaded())
	require.InDelta(t, 2.75, s.SumOfProbabilities(), 1e-6)
	require.Len(t, s.Samples(), 3)
	require.Equal(t, domain.SoundID(1), s.ID())
}

func TestUnload_RoundTrip(t *testing.T) {
	loader := newFakeLoader()
	s := NewSound(loader)
	raw := encode(t, definition(3, 4, 1, 1))

	require.NoError(t, s.LoadSound(context.Background(), raw))
	s.Unload()

	require.False(t, s.Loaded())
	require.Zero(t, s.SumOfProbabilities())
	require.Empty(t, s.Samples())
	require.Equal(t, domain.Definition{}, s.Definition())
	for _, buf := range loader.loaded {
		require.Equal(t, 1, buf.released, "buffer %s", buf.name)
	}

	// Unload is idempotent.
	s.Unload()
	for _, buf := range loader.loaded {
		require.Equal(t, 1, buf.released, "buffer %s", buf.name)
	}

	// Reloading after unload succeeds.
	require.NoError(t, s.LoadSound(context.Background(), raw))
	require.True(t, s.Loaded())
	require.InDelta(t, 2, s.SumOfProbabilities(), 1e-6)
}

func TestLoadSound_SampleFailureRejectsWholeLoad(t *testing.T) {
	loader := newFakeLoader()
	cause := errors.New("corrupt header")
	loader.fail["sound_2_01.wav"] = cause
	s := NewSound(loader)

	err := s.LoadSound(context.Background(), encode(t, definition(2, 0, 1, 1, 1)))

	var loadErr *domain.SampleLoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "sound_2_01.wav", loadErr.Filename)
	require.ErrorIs(t, err, cause)

	require.False(t, s.Loaded())
	require.Zero(t, s.SumOfProbabilities())
	require.Empty(t, s.Samples())
	require.Len(t, loader.loaded, 1)
	require.Equal(t, 1, loader.loaded[0].released, "samples loaded before the failure are released")
}

func TestLoadSound_ParseErrorTouchesNoSamples(t *testing.T) {
	loader := newFakeLoader()
	s := NewSound(loader)

	err := s.LoadSound(context.Background(), []byte{0x0a, 0x7f})

	var perr *domain.DefinitionParseError
	require.ErrorAs(t, err, &perr)
	require.Zero(t, loader.calls)
	require.False(t, s.Loaded())
}

func TestLoadSound_ReplacesPreviousContents(t *testing.T) {
	loader := newFakeLoader()
	s := NewSound(loader)

	require.NoError(t, s.LoadSound(context.Background(), encode(t, definition(1, 0, 1))))
	first := loader.loaded[0]

	require.NoError(t, s.LoadSound(context.Background(), encode(t, definition(2, 0, 1, 1))))
	require.Equal(t, 1, first.released)
	require.Equal(t, domain.SoundID(2), s.ID())
	require.Len(t, s.Samples(), 2)
}

func TestLoadSound_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSound(newFakeLoader())
	err := s.LoadSound(ctx, encode(t, definition(1, 0, 1)))
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, s.Loaded())
}

func TestLoadSoundFromFile(t *testing.T) {
	yml, err := sounddef.MarshalYAML(definition(6, 2, 1, 3))
	require.NoError(t, err)
	files := mapBytes{
		"defs/boo.sdef":   encode(t, definition(5, 1, 1)),
		"defs/cheer.yaml": yml,
	}

	s := NewSound(newFakeLoader())
	require.NoError(t, s.LoadSoundFromFile(context.Background(), files, "defs/boo.sdef"))
	require.Equal(t, domain.SoundID(5), s.ID())

	require.NoError(t, s.LoadSoundFromFile(context.Background(), files, "defs/cheer.yaml"))
	require.Equal(t, domain.SoundID(6), s.ID())
	require.InDelta(t, 4, s.SumOfProbabilities(), 1e-6)

	err = s.LoadSoundFromFile(context.Background(), files, "defs/missing.sdef")
	require.Error(t, err)
	require.Contains(t, err.Error(), "defs/missing.sdef")
}
