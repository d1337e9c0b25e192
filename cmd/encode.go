package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/partymix/internal/audio/sounddef"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <in> <out>",
	Short: "Convert a sound definition between YAML and binary",
	Long: `Convert a YAML definition (.yaml, .yml) to the binary format, or a binary
definition back to YAML. The direction follows the extension of <in>.`,
	Args:              cobra.ExactArgs(2),
	PersistentPreRunE: skipConfig,
	RunE:              runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}
	def, err := sounddef.DecodeFile(in, raw)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	var encoded []byte
	if sounddef.IsYAML(in) {
		encoded, err = sounddef.Encode(def)
	} else {
		encoded, err = sounddef.MarshalYAML(def)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", out, err)
	}

	if err := os.WriteFile(out, encoded, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, sound %d)\n", out, len(encoded), def.ID)
	return nil
}
