package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/partymix/internal/audio/backend/nullbackend"
	"github.com/zjrosen/partymix/internal/ui/styles"
)

var soundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "List available sound definitions",
	Long:  `Display every sound definition partymix would load, built-in and from sounds.dir, with its priority and samples.`,
	Args:  cobra.NoArgs,
	RunE:  runSounds,
}

func init() {
	rootCmd.AddCommand(soundsCmd)
}

func runSounds(cmd *cobra.Command, _ []string) error {
	// Listing needs no audio, so samples are not decoded.
	lib, err := openLibrary(cmd.Context(), cfg, &nullbackend.Loader{})
	if err != nil {
		return err
	}
	entries := lib.Entries()
	out := cmd.OutOrStdout()

	if len(entries) == 0 {
		fmt.Fprintln(out, "No sounds found.")
		return nil
	}

	nameLen := len("NAME")
	for _, e := range entries {
		s, _ := lib.Bank().Sound(e.ID)
		nameLen = max(nameLen, len(s.Definition().Name))
	}

	header := lipgloss.NewStyle().Bold(true)
	fmt.Fprintln(out, header.Render(fmt.Sprintf("%4s  %-*s  %8s  %-4s  %s", "ID", nameLen, "NAME", "PRIORITY", "LOOP", "SAMPLES")))
	for _, e := range entries {
		s, _ := lib.Bank().Sound(e.ID)
		def := s.Definition()

		samples := make([]string, 0, len(def.Samples))
		for _, sm := range def.Samples {
			samples = append(samples, fmt.Sprintf("%s(%g)", sm.Filename, sm.PlaybackProbability))
		}
		loop := ""
		if def.Loop {
			loop = "yes"
		}
		fmt.Fprintf(out, "%4d  %-*s  %8g  %-4s  %s  %s\n", def.ID, nameLen, def.Name, def.Priority, loop,
			strings.Join(samples, " "), styles.MutedStyle.Render(e.Source+":"+e.Path))
	}
	return nil
}
