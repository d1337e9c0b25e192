package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/partymix/internal/assets"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/log"
	"github.com/zjrosen/partymix/internal/ui/monitor"
)

var monitorTick time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Play sounds from the keyboard and watch the channels",
	Long: `Open an interactive view of the engine. Keys 1-9 request the first nine
sounds, p pauses, m mutes, s stops everything and +/- change the volume.
With sounds.watch set, edited definitions are reloaded while running.

Logs go to log.file; nothing is logged to the terminal while monitoring.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorTick, "tick", monitor.DefaultTickInterval, "engine update interval")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	if cfg.Log.File == "" {
		log.Disable()
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(context.Background())
	if err := s.recordAs(ctx, "monitor"); err != nil {
		return err
	}

	start := time.Now()
	opts := []monitor.Option{
		monitor.WithTickInterval(monitorTick),
		monitor.WithClock(func() domain.WorldTime {
			now := domain.WorldTime(time.Since(start).Milliseconds())
			if s.silent != nil {
				s.silent.Advance(now)
			}
			return now
		}),
		monitor.WithReports(func(r engine.TickReport) { record(s.rec, r) }),
	}

	if cfg.Sounds.Watch {
		w, err := assets.NewWatcher(cfg.Sounds.Dir, cfg.Sounds.WatchDebounce)
		if err != nil {
			return fmt.Errorf("watching %s: %w", cfg.Sounds.Dir, err)
		}
		defer func() { _ = w.Close() }()
		opts = append(opts, monitor.WithChanges(w.Changes(), func(paths []string) error {
			return s.lib.Reload(ctx, paths, s.engine.UnloadSound)
		}))
	}

	p := tea.NewProgram(monitor.New(s.engine, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running monitor: %w", err)
	}
	return nil
}
