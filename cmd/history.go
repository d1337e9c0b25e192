package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/config"
	"github.com/zjrosen/partymix/internal/history"
	"github.com/zjrosen/partymix/internal/infrastructure/sqlite"
	"github.com/zjrosen/partymix/internal/log"
	"github.com/zjrosen/partymix/internal/ui/styles"
)

var historyRuns int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show how often each sound won a channel",
	Long: `Summarize the runs recorded with history.enabled: per-sound outcomes and
the share of requests that were evicted or superseded, followed by the most
recent runs.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyRuns, "runs", 10, "number of recent runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := cfg.History.DatabasePath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	db, err := sqlite.NewDB(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	repo := db.HistoryRepository()

	ctx := cmd.Context()
	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}
	runs, err := repo.Runs(ctx, max(historyRuns, 0))
	if err != nil {
		return err
	}

	header := lipgloss.NewStyle().Bold(true)
	fmt.Fprintln(out, styles.TitleStyle.Render("Sounds"))
	if len(stats) == 0 {
		fmt.Fprintln(out, styles.MutedStyle.Render("  none"))
	} else {
		fmt.Fprintln(out, header.Render(fmt.Sprintf("%4s  %-16s %7s %9s %7s %10s %6s %5s",
			"ID", "NAME", "PLAYED", "COMPLETED", "EVICTED", "SUPERSEDED", "FAILED", "LOSS")))
		for _, s := range stats {
			name := s.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(out, "%4d  %-16s %7d %9d %7d %10d %6d %4.0f%%\n",
				s.SoundID, name, s.Played, s.Completed, s.Evicted, s.Superseded, s.Failed, 100*s.LossRate())
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, styles.TitleStyle.Render("Recent runs"))
	for _, r := range runs {
		took := styles.MutedStyle.Render("unfinished")
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(out, "  #%-4d %-9s %2d channels  %s  %s\n",
			r.ID, r.Command, r.Channels, r.StartedAt.Format(time.DateTime), took)
	}
	return nil
}

// startHistory begins a recorded run when history is enabled. The returned
// func finishes the run and closes the database; both are nil otherwise.
func startHistory(ctx context.Context, c config.Config, command string, channels int, names func(domain.SoundID) string) (*history.Recorder, func(context.Context) error, error) {
	if !c.History.Enabled {
		return nil, nil, nil
	}
	db, err := sqlite.NewDB(c.History.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening history: %w", err)
	}
	rec, err := history.Start(ctx, db.HistoryRepository(), command, channels, names)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Debug(log.CatHistory, "Recording run", "run", rec.Run().ID, "command", command)
	return rec, func(ctx context.Context) error {
		return errors.Join(rec.Finish(ctx), db.Close())
	}, nil
}

// record stores report if rec is set. Failures are only logged.
func record(rec *history.Recorder, report engine.TickReport) {
	if rec == nil {
		return
	}
	if err := rec.Record(context.Background(), report); err != nil {
		log.ErrorErr(log.CatHistory, "Recording tick failed", err, "run", rec.Run().ID)
	}
}

// soundName returns the definition name of id, or "".
func soundName(e *engine.Engine) func(domain.SoundID) string {
	return func(id domain.SoundID) string {
		if snd, ok := e.Bank().Sound(id); ok {
			return snd.Definition().Name
		}
		return ""
	}
}
