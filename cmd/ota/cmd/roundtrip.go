package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/spf13/cobra"
)

var roundtripOutput string

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <file>...",
	Short: "Check that decoding and re-encoding preserves every stream",
	Long: `Roundtrip reads each file, writes it back to memory as a compound
file, reads that again and compares every stream with the original. A
lossless codec reports no differences.

With --out the rewritten file is saved (only for a single input file).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoundtrip,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
	roundtripCmd.Flags().StringVarP(&roundtripOutput, "out", "o", "", "save the rewritten file")
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	if roundtripOutput != "" && len(args) > 1 {
		return fmt.Errorf("--out needs a single input file")
	}

	failed := 0
	for _, path := range args {
		f, err := openFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		out, err := f.Storage(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		data, err := out.Bytes()
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		reread, err := cfb.FromBytes(data)
		if err != nil {
			return fmt.Errorf("failed to reread %s: %w", path, err)
		}

		diffs := altium.DiffStreams(f.Root, reread, cfg.ShouldCompareStream)
		if len(diffs) == 0 {
			fmt.Printf("✓ %s: %s round trip is lossless\n", path, f.Kind)
		} else {
			failed++
			fmt.Printf("✗ %s: %d streams differ\n", path, len(diffs))
			for _, d := range diffs {
				fmt.Printf("    %s\n", d)
			}
		}

		if roundtripOutput != "" {
			if err := out.Save(roundtripOutput); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", roundtripOutput)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files changed on round trip", failed, len(args))
	}
	return nil
}
