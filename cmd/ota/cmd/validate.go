package cmd

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/batch"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/spf13/cobra"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|dir>...",
	Short: "Check that files decode cleanly",
	Long: `Validate decodes each file and lists the warnings collected on the
way. Structural damage is reported with the stream and byte offset.

With --strict any warning fails the command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as errors (default from config)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := batch.Collect(args)
	if err != nil {
		return err
	}
	strict := cfg.Strict
	if cmd.Flags().Changed("strict") {
		strict = validateStrict
	}

	var failed, warned int
	for _, path := range files {
		f, err := openFile(cmd.Context(), path)
		if err != nil {
			failed++
			var corrupt *diag.CorruptFileError
			if errors.As(err, &corrupt) {
				fmt.Printf("✗ %s: corrupt stream %s at offset %d: %v\n", path, corrupt.Stream, corrupt.Offset, corrupt.Err)
			} else {
				fmt.Printf("✗ %s: %v\n", path, err)
			}
			continue
		}
		ws := f.Warnings()
		if len(ws) == 0 {
			fmt.Printf("✓ %s (%s)\n", path, f.Kind)
			continue
		}
		warned++
		fmt.Printf("! %s (%s): %d warnings\n", path, f.Kind, len(ws))
		for _, w := range ws {
			fmt.Printf("    %s\n", w)
		}
	}

	fmt.Printf("\n%d files: %d ok, %d with warnings, %d failed\n", len(files), len(files)-failed-warned, warned, failed)
	if failed > 0 {
		return fmt.Errorf("%d files failed to decode", failed)
	}
	if strict && warned > 0 {
		return fmt.Errorf("%d files have warnings", warned)
	}
	return nil
}
