// Package config provides configuration types and defaults for partymix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Audio backends.
const (
	BackendOto    = "oto"
	BackendSilent = "silent"
)

// Config holds all configuration options for partymix.
type Config struct {
	Audio   AudioConfig   `mapstructure:"audio"`
	Sounds  SoundsConfig  `mapstructure:"sounds"`
	History HistoryConfig `mapstructure:"history"`
	Trace   TraceConfig   `mapstructure:"trace"`
	Log     LogConfig     `mapstructure:"log"`
}

// AudioConfig configures the engine and the output device.
type AudioConfig struct {
	Channels       int     `mapstructure:"channels"`        // voices competing for playback
	SampleRate     int     `mapstructure:"sample_rate"`     // output rate in Hz
	OutputChannels int     `mapstructure:"output_channels"` // 1 mono, 2 stereo
	Volume         float64 `mapstructure:"volume"`          // master volume 0..1
	Backend        string  `mapstructure:"backend"`         // "oto" or "silent"
}

// SoundsConfig controls where definitions and samples come from.
type SoundsConfig struct {
	// Dir holds user definitions (.yaml, .yml, .sdef). Empty disables them.
	Dir string `mapstructure:"dir"`

	// SampleDir holds the WAV files user definitions reference.
	// Defaults to Dir.
	SampleDir string `mapstructure:"sample_dir"`

	// Builtin loads the embedded party game definitions.
	Builtin bool `mapstructure:"builtin"`

	// Watch reloads definitions in Dir when they change.
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`

	// CacheTTL is how long raw file bytes stay cached.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// HistoryConfig controls recording of channel decisions to SQLite.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // database file, ~/.config/partymix/history.db when empty
}

// DatabasePath returns the history database file.
func (h HistoryConfig) DatabasePath() string {
	if h.Path != "" {
		return h.Path
	}
	return DefaultHistoryPath()
}

// TraceConfig enables OpenTelemetry tracing of definition loads.
type TraceConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is an OTLP gRPC collector address. Empty writes spans to the
	// trace file instead.
	Endpoint string `mapstructure:"endpoint"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Debug bool   `mapstructure:"debug"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Audio: AudioConfig{
			Channels:       16,
			SampleRate:     44100,
			OutputChannels: 2,
			Volume:         1.0,
			Backend:        BackendOto,
		},
		Sounds: SoundsConfig{
			Builtin:       true,
			WatchDebounce: 250 * time.Millisecond,
			CacheTTL:      5 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := c.Sounds.Validate(); err != nil {
		return fmt.Errorf("sounds: %w", err)
	}
	if c.History.Enabled && c.History.DatabasePath() == "" {
		return fmt.Errorf("history: path is required when the home directory is unknown")
	}
	return nil
}

// Validate checks audio settings.
func (a AudioConfig) Validate() error {
	if a.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", a.Channels)
	}
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}
	if a.OutputChannels < 1 || a.OutputChannels > 2 {
		return fmt.Errorf("output_channels must be 1 or 2, got %d", a.OutputChannels)
	}
	if a.Volume < 0 || a.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %v", a.Volume)
	}
	switch a.Backend {
	case BackendOto, BackendSilent:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", a.Backend, BackendOto, BackendSilent)
	}
	return nil
}

// Validate checks sound source settings.
func (s SoundsConfig) Validate() error {
	if s.Watch && s.Dir == "" {
		return fmt.Errorf("watch requires dir")
	}
	if s.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative")
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}

// SamplePath returns the directory user samples are read from.
func (s SoundsConfig) SamplePath() string {
	if s.SampleDir != "" {
		return s.SampleDir
	}
	return s.Dir
}

// DefaultConfigPath returns ~/.config/partymix/config.yaml, or an empty
// string if the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "partymix", "config.yaml")
}

// DefaultHistoryPath returns ~/.config/partymix/history.db, or an empty
// string if the home directory is unknown.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "partymix", "history.db")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# partymix configuration

audio:
  channels: 16          # Voices competing for playback
  sample_rate: 44100    # Output rate in Hz
  output_channels: 2    # 1 = mono, 2 = stereo
  volume: 1.0           # Master volume, 0.0 - 1.0
  backend: oto          # oto (system audio) or silent

sounds:
  # Directory of user definitions (.yaml, .yml or binary .sdef).
  # dir: ~/partymix/sounds
  #
  # Directory of the WAV files those definitions reference (default: dir)
  # sample_dir: ~/partymix/samples

  builtin: true         # Load the built-in party game sounds
  watch: false          # Reload definitions in dir when they change
  watch_debounce: 250ms
  cache_ttl: 5m         # How long file contents stay cached

# Definition file layout (YAML):
#   id: 3               # unique sound id
#   name: pie_hit       # optional, used by 'partymix play <name>'
#   priority: 5         # higher wins a channel
#   loop: false
#   fade_in_ms: 0
#   samples:
#     - filename: splat1.wav
#       probability: 2  # relative weight
#     - filename: splat2.wav
#       probability: 1
#
# Convert to the binary format with 'partymix encode in.yaml out.sdef'.

history:
  # Record which sounds got a channel; see 'partymix history'.
  enabled: false
  # path: ~/.config/partymix/history.db

trace:
  enabled: false
  # OTLP gRPC collector. When empty, spans are written to partymix-trace.json.
  # endpoint: localhost:4317

log:
  # file: partymix.log
  debug: false
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
