package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/partymix/internal/audio/backend/nullbackend"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/audio/sounddef"
	"github.com/zjrosen/partymix/internal/config"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

// writeConfig writes a silent-backend config with extra appended.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "audio:\n  backend: silent\n  channels: 4\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingDefaultUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, used, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, config.Defaults(), c)
}

func TestLoadConfig_ExplicitMissingFails(t *testing.T) {
	_, _, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "reading config")
}

func TestLoadConfig_ExpandsHomeAndValidates(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, "sounds:\n  dir: ~/sounds\n")
	c, used, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, filepath.Join(home, "sounds"), c.Sounds.Dir)
	assert.Equal(t, 4, c.Audio.Channels)

	bad := writeConfig(t, "sounds:\n  watch: true\n")
	_, _, err = loadConfig(viper.New(), bad)
	require.ErrorContains(t, err, "invalid config")
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, "", expandHome(""))
	assert.Equal(t, "/abs/dir", expandHome("/abs/dir"))
	assert.Equal(t, "~user/dir", expandHome("~user/dir"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, filepath.Join(home, "sounds"), expandHome("~/sounds"))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partymix", "config.yaml")

	out, err := run(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigTemplate(), string(data))

	_, err = run(t, "init", "--config", path)
	require.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", "--config", path, "--force")
	require.NoError(t, err)
	initForce = false
}

func TestSounds_ListsBuiltins(t *testing.T) {
	out, err := run(t, "sounds", "--config", writeConfig(t, ""))
	require.NoError(t, err)

	for _, name := range []string{"countdown_tick", "pie_hit", "victory", "lobby_music"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "splat1.wav(2)")
	assert.Contains(t, out, "builtin:definitions/")
}

func TestSounds_UserDirOverrides(t *testing.T) {
	dir := t.TempDir()
	def := "id: 7\nname: quiet_victory\npriority: 1\nsamples:\n  - filename: fanfare.wav\n    probability: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "victory.yaml"), []byte(def), 0o644))

	out, err := run(t, "sounds", "--config", writeConfig(t, "sounds:\n  dir: "+dir+"\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "quiet_victory")
	assert.NotContains(t, out, " victory ")
}

func TestSounds_NoneFound(t *testing.T) {
	out, err := run(t, "sounds", "--config", writeConfig(t, "sounds:\n  builtin: false\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "No sounds found.")
}

func TestEncode_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "pie_hit.yaml")
	bin := filepath.Join(dir, "pie_hit.sdef")
	back := filepath.Join(dir, "back.yaml")

	def := domain.Definition{
		ID: 3, Name: "pie_hit", Priority: 5,
		Samples: []domain.SampleEntry{{Filename: "splat1.wav", PlaybackProbability: 2}, {Filename: "splat2.wav", PlaybackProbability: 1}},
	}
	src, err := sounddef.MarshalYAML(def)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(in, src, 0o644))

	out, err := run(t, "encode", in, bin)
	require.NoError(t, err)
	assert.Contains(t, out, "sound 3")

	raw, err := os.ReadFile(bin)
	require.NoError(t, err)
	got, err := sounddef.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = run(t, "encode", bin, back)
	require.NoError(t, err)
	yml, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, string(src), string(yml))
}

func TestEncode_BadInput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(in, []byte("priority: [1"), 0o644))

	_, err := run(t, "encode", in, in+".sdef")
	var parseErr *domain.DefinitionParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSimulate_DeterministicForSeed(t *testing.T) {
	path := writeConfig(t, "")
	args := []string{"simulate", "--config", path, "--ticks", "60", "--step", "40", "--rate", "1.5", "--seed", "7", "--channels", "3"}

	first, err := run(t, args...)
	require.NoError(t, err)
	second, err := run(t, args...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Totals")
	assert.Contains(t, first, "playing")
	assert.Contains(t, first, "peak voices")
	assert.Contains(t, first, "/3")
}

func TestSimulate_QuietPrintsOnlyTotals(t *testing.T) {
	out, err := run(t, "simulate", "--config", writeConfig(t, ""), "--ticks", "20", "--seed", "3", "--quiet")
	require.NoError(t, err)
	simQuiet = false

	assert.NotContains(t, out, "tick 1 ")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "Totals"), out)
}

func TestSimulate_RejectsBadFlags(t *testing.T) {
	_, err := run(t, "simulate", "--config", writeConfig(t, ""), "--ticks", "0")
	require.Error(t, err)
	simTicks = 100
}

func TestPlay_SilentBackend(t *testing.T) {
	out, err := run(t, "play", "--config", writeConfig(t, ""), "--timeout", "10s", "pie_hit", "6")
	require.NoError(t, err)

	assert.Contains(t, out, "pie_hit")
	assert.Contains(t, out, "buzzer")
	assert.Equal(t, 2, strings.Count(out, "playing"))
	assert.Equal(t, 2, strings.Count(out, "completed"))
}

func TestPlay_UnknownSound(t *testing.T) {
	_, err := run(t, "play", "--config", writeConfig(t, ""), "no_such_sound")
	require.ErrorContains(t, err, "no sound named")

	_, err = run(t, "play", "--config", writeConfig(t, ""), "99")
	var unknown *domain.UnknownSoundIDError
	require.ErrorAs(t, err, &unknown)
}

func TestHistory_NothingRecorded(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	out, err := run(t, "history", "--config", writeConfig(t, "history:\n  path: "+db+"\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded.")

	_, err = os.Stat(db)
	assert.True(t, os.IsNotExist(err), "listing must not create the database")
}

func TestHistory_RecordsSimulateAndPlay(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	path := writeConfig(t, "history:\n  enabled: true\n  path: "+db+"\n")

	_, err := run(t, "simulate", "--config", path, "--ticks", "30", "--seed", "5", "--quiet")
	require.NoError(t, err)
	simQuiet = false
	_, err = run(t, "play", "--config", path, "--timeout", "10s", "pie_hit")
	require.NoError(t, err)

	out, err := run(t, "history", "--config", path, "--runs", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Sounds")
	assert.Contains(t, out, "LOSS")
	assert.Contains(t, out, "pie_hit")
	assert.Contains(t, out, "Recent runs")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "simulate")
	assert.Contains(t, out, "play")
	assert.NotContains(t, out, "unfinished")
}

func TestOpenSession_EngineFailureReleasesSamples(t *testing.T) {
	c := config.Defaults()
	c.Audio.Backend = config.BackendSilent

	_, err := openSession(context.Background(), c, engine.WithChannels(0))
	require.ErrorContains(t, err, "invalid channel count")

	lib, err := openLibrary(context.Background(), c, &nullbackend.Loader{})
	require.NoError(t, err)
	var buffers []*nullbackend.Buffer
	for _, id := range lib.Bank().IDs() {
		snd, _ := lib.Bank().Sound(id)
		for _, sm := range snd.Samples() {
			buffers = append(buffers, sm.Buffer.(*nullbackend.Buffer))
		}
	}
	require.NotEmpty(t, buffers)

	(&session{lib: lib}).close(context.Background())
	assert.Zero(t, lib.Bank().Len())
	for _, b := range buffers {
		assert.Equal(t, 1, b.Released(), b.Name)
	}
}
