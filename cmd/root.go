// Package cmd implements the partymix command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/partymix/internal/config"
	"github.com/zjrosen/partymix/internal/log"
)

var (
	cfgFile    string
	cfg        config.Config
	closeLog   = func() {}
	configUsed string
)

var rootCmd = &cobra.Command{
	Use:   "partymix",
	Short: "Prioritized sound playback for party games",
	Long: `partymix plays short game sounds on a fixed number of channels.
When more sounds are requested than there are channels, the ones with the
lowest priority are dropped, and among equal priorities the oldest go first.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { closeLog() },
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ~/.config/partymix/config.yaml)")
	flags.String("sounds-dir", "", "directory of user sound definitions")
	flags.String("backend", "", "audio backend: oto or silent")
	flags.Bool("debug", false, "enable debug logging")
}

func setup(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"sounds.dir":    "sounds-dir",
		"audio.backend": "backend",
		"log.debug":     "debug",
	} {
		// Only explicitly set flags override the file.
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	loaded, used, err := loadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	cfg, configUsed = loaded, used

	if cfg.Log.File != "" || cfg.Log.Debug {
		cleanup, err := log.Init(cfg.Log.File, cfg.Log.Debug)
		if err != nil {
			return err
		}
		closeLog = cleanup
	}
	if configUsed != "" {
		log.Debug(log.CatConfig, "Loaded config", "path", configUsed)
	}
	return nil
}

// loadConfig reads path, or the default location when path is empty, on top
// of config.Defaults. A missing default file is not an error. It returns the
// file actually read.
func loadConfig(v *viper.Viper, path string) (config.Config, string, error) {
	c := config.Defaults()

	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return c, "", fmt.Errorf("reading config %s: %w", path, err)
			}
			path = ""
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, "", fmt.Errorf("decoding config: %w", err)
	}
	c.Sounds.Dir = expandHome(c.Sounds.Dir)
	c.Sounds.SampleDir = expandHome(c.Sounds.SampleDir)
	c.Log.File = expandHome(c.Log.File)
	c.History.Path = expandHome(c.History.Path)

	if err := c.Validate(); err != nil {
		return c, "", fmt.Errorf("invalid config: %w", err)
	}
	return c, path, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
