package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/ui/styles"
)

var (
	playTimeout time.Duration
	playGap     time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <name|id>...",
	Short: "Play sounds and wait for them to finish",
	Long: `Request each sound in turn, --gap apart, and play them through the
configured backend until all have finished. Looping sounds play until
--timeout or interrupt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().DurationVar(&playTimeout, "timeout", 30*time.Second, "give up after this long")
	playCmd.Flags().DurationVar(&playGap, "gap", 0, "delay between requests")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), playTimeout)
	defer cancel()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(context.Background())
	if err := s.recordAs(ctx, "play"); err != nil {
		return err
	}

	return playAll(ctx, cmd, s, args, playGap)
}

// playAll requests args gap apart and ticks the engine until nothing is
// playing or ctx ends.
func playAll(ctx context.Context, cmd *cobra.Command, s *session, args []string, gap time.Duration) error {
	out := cmd.OutOrStdout()
	start := time.Now()
	clock := func() domain.WorldTime { return domain.WorldTime(time.Since(start).Milliseconds()) }

	queue := args
	nextAt := domain.WorldTime(0)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		now := clock()
		for len(queue) > 0 && now >= nextAt {
			if _, err := request(s.engine, queue[0]); err != nil {
				return err
			}
			queue = queue[1:]
			nextAt = now + domain.WorldTime(gap.Milliseconds())
		}

		report, err := s.update(now)
		for _, t := range report.Transitions {
			line := fmt.Sprintf("%s %-16s %s", styles.FormatTime(report.Time), soundLabel(s.engine, t.Sound.SoundID), styles.StateStyle(t.To))
			if t.Sample != "" {
				line += " " + t.Sample
			}
			if t.Err != nil {
				line += " " + styles.ErrorStyle.Render(t.Err.Error())
			}
			fmt.Fprintln(out, line)
		}
		if err != nil {
			return err
		}
		if len(queue) == 0 && len(s.engine.Playing()) == 0 && s.engine.Pending() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, styles.MutedStyle.Render("stopping"))
			s.engine.StopAll()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// request queues the sound named by arg, or with arg as its id.
func request(e *engine.Engine, arg string) (uuid.UUID, error) {
	if n, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return e.PlaySound(domain.SoundID(n))
	}
	return e.PlayNamed(arg)
}
