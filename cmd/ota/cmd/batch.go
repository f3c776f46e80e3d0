package cmd

import (
	"context"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/batch"
	"github.com/spf13/cobra"
)

var (
	batchOutput  string
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch <file|dir>...",
	Short: "Export many files in parallel",
	Long: `Batch reads every Altium file given (directories are searched
recursively) and exports each into the --out directory using the format
from the configuration or --format. Without --out the files are only
decoded, which checks that they can be read.

Files are processed independently; a failure is reported and the run
continues with the remaining files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutput, "out", "o", "", "output directory")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "j", 0, "files processed at once (default from config)")
	batchCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json, msgpack or xlsx (default from config)")
	batchCmd.Flags().BoolVar(&exportRaw, "raw", false, "include the raw streams")
	batchCmd.Flags().BoolVar(&exportPretty, "pretty", true, "indent JSON output")
}

func runBatch(cmd *cobra.Command, args []string) error {
	files, err := batch.Collect(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no Altium files found")
	}
	workers := cfg.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}
	format, raw, pretty := exportSettings(cmd)
	logger.Printf("processing %d files with %d workers", len(files), workers)

	results := batch.Run(cmd.Context(), files, workers, func(ctx context.Context, path string) error {
		f, err := altium.Open(ctx, path)
		if err != nil {
			return err
		}
		if cfg.Strict && len(f.Warnings()) > 0 {
			return fmt.Errorf("%d warnings", len(f.Warnings()))
		}
		if batchOutput == "" {
			return nil
		}
		return writeExport(f, exportName(batchOutput, path, format), format, raw, pretty)
	})

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("✗ %s: %v\n", r.Path, r.Err)
		} else {
			fmt.Printf("✓ %s\n", r.Path)
		}
	}
	failed := batch.Failed(results)
	fmt.Printf("\nProcessed %d files, %d failed\n", len(results), len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d files failed", len(failed))
	}
	return nil
}
