package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/partymix/internal/audio/backend/nullbackend"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/engine"
	"github.com/zjrosen/partymix/internal/history"
	"github.com/zjrosen/partymix/internal/log"
	"github.com/zjrosen/partymix/internal/ui/styles"
)

var (
	simTicks    int
	simStep     int
	simRate     float64
	simSeed     uint64
	simChannels int
	simQuiet    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run random sound requests against a silent backend",
	Long: `Issue random play requests for the loaded definitions and report how the
channels are shared out on each tick. No audio is produced. Runs with the same
--seed produce the same output.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simTicks, "ticks", 100, "number of engine updates")
	f.IntVar(&simStep, "step", 50, "milliseconds between updates")
	f.Float64Var(&simRate, "rate", 0.5, "mean requests per tick")
	f.Uint64Var(&simSeed, "seed", 1, "random seed")
	f.IntVar(&simChannels, "channels", 0, "channels to share (default audio.channels)")
	f.BoolVarP(&simQuiet, "quiet", "q", false, "print only the totals")
	rootCmd.AddCommand(simulateCmd)
}

// simulation holds the parameters of one run.
type simulation struct {
	ticks    int
	step     int
	rate     float64
	seed     uint64
	channels int
	quiet    bool
	rec      *history.Recorder
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	channels := simChannels
	if channels <= 0 {
		channels = cfg.Audio.Channels
	}
	sim := simulation{ticks: simTicks, step: simStep, rate: simRate, seed: simSeed, channels: channels, quiet: simQuiet}
	if sim.ticks <= 0 || sim.step <= 0 || sim.rate < 0 {
		return fmt.Errorf("ticks and step must be positive and rate not negative")
	}

	lib, err := openLibrary(cmd.Context(), cfg, &nullbackend.Loader{})
	if err != nil {
		return err
	}
	defer lib.Bank().UnloadAll()

	ids := lib.Bank().IDs()
	if len(ids) == 0 {
		return fmt.Errorf("no sounds to simulate")
	}

	backend := nullbackend.New()
	e, err := engine.New(backend, lib.Bank(),
		engine.WithChannels(sim.channels),
		engine.WithRand(rand.New(rand.NewPCG(sim.seed, 1))))
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	rec, finish, err := startHistory(cmd.Context(), cfg, "simulate", sim.channels, soundName(e))
	if err != nil {
		return err
	}
	if rec != nil {
		sim.rec = rec
		defer func() {
			if err := finish(context.Background()); err != nil {
				log.ErrorErr(log.CatHistory, "Finishing run", err)
			}
		}()
	}

	return sim.run(cmd.OutOrStdout(), e, backend, ids)
}

func (s simulation) run(out io.Writer, e *engine.Engine, backend *nullbackend.Backend, ids []domain.SoundID) error {
	rng := rand.New(rand.NewPCG(s.seed, 2))
	totals := map[domain.RequestState]int{}
	requested := 0
	peak := 0

	tickStyle := lipgloss.NewStyle().Bold(true)
	for tick := 1; tick <= s.ticks; tick++ {
		now := domain.WorldTime(tick * s.step)

		// Poisson-distributed arrivals with mean s.rate.
		for n := poisson(rng, s.rate); n > 0; n-- {
			if _, err := e.PlaySound(ids[rng.IntN(len(ids))]); err != nil {
				return err
			}
			requested++
		}

		backend.Advance(now)
		report, err := e.Update(now)
		record(s.rec, report)
		if err != nil {
			return err
		}
		peak = max(peak, len(e.Playing()))
		for _, t := range report.Transitions {
			totals[t.To]++
		}

		if s.quiet || report.Empty() {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", tickStyle.Render(fmt.Sprintf("tick %d", tick)),
			styles.MutedStyle.Render(fmt.Sprintf("t=%s voices=%d/%d", styles.FormatTime(now), len(e.Playing()), e.Channels())))
		for _, t := range report.Transitions {
			line := fmt.Sprintf("  %-16s %s", soundLabel(e, t.Sound.SoundID), styles.StateStyle(t.To))
			if t.Sample != "" {
				line += " " + t.Sample
			}
			if t.Err != nil {
				line += " " + styles.ErrorStyle.Render(t.Err.Error())
			}
			fmt.Fprintln(out, line)
		}
	}

	e.StopAll()
	if final, err := e.Update(e.Now()); err == nil {
		record(s.rec, final)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, styles.TitleStyle.Render("Totals"))
	fmt.Fprintf(out, "  %-12s %d\n", "requested", requested)
	states := make([]domain.RequestState, 0, len(totals))
	for st := range totals {
		states = append(states, st)
	}
	slices.Sort(states)
	for _, st := range states {
		fmt.Fprintf(out, "  %-12s %d\n", st, totals[st])
	}
	fmt.Fprintf(out, "  %-12s %d/%d\n", "peak voices", peak, e.Channels())
	return nil
}

// poisson draws from a Poisson distribution with mean lambda using Knuth's
// method; lambda is small here.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	for p := rng.Float64(); p > l; p *= rng.Float64() {
		k++
	}
	return k
}

// soundLabel names id for reports.
func soundLabel(e *engine.Engine, id domain.SoundID) string {
	if snd, ok := e.Bank().Sound(id); ok && snd.Definition().Name != "" {
		return snd.Definition().Name
	}
	return fmt.Sprintf("#%d", id)
}
