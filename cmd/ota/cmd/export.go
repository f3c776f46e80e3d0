package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/export"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportFormat string
	exportRaw    bool
	exportPretty bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the parsed model of a file",
	Long: `Export writes a document with three sections: metadata about the run,
the raw compound file streams (with --raw), and the parsed model.

Formats:
  json     - JSON, indented unless --pretty=false
  msgpack  - MessagePack
  xlsx     - Excel workbook with one row per object

Without --output the document goes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json, msgpack or xlsx (default from config)")
	exportCmd.Flags().BoolVar(&exportRaw, "raw", false, "include the raw streams")
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", true, "indent JSON output")
}

// exportSettings merges the command flags over the configuration.
func exportSettings(cmd *cobra.Command) (format string, raw, pretty bool) {
	format, raw, pretty = cfg.Format, cfg.IncludeRaw, cfg.Pretty
	if cmd.Flags().Changed("format") {
		format = strings.ToLower(exportFormat)
	}
	if cmd.Flags().Changed("raw") {
		raw = exportRaw
	}
	if cmd.Flags().Changed("pretty") {
		pretty = exportPretty
	}
	return format, raw, pretty
}

func runExport(cmd *cobra.Command, args []string) error {
	format, raw, pretty := exportSettings(cmd)
	f, err := openFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if exportOutput == "" {
		return exportFile(f, os.Stdout, format, raw, pretty)
	}
	if err := writeExport(f, exportOutput, format, raw, pretty); err != nil {
		return err
	}
	fmt.Printf("Exported %s to %s\n", args[0], exportOutput)
	return nil
}

func exportFile(f *altium.File, w io.Writer, format string, raw, pretty bool) error {
	doc, err := export.Build(f, export.Options{IncludeRaw: raw})
	if err != nil {
		return fmt.Errorf("failed to build export: %w", err)
	}
	return export.Write(w, doc, format, pretty)
}

func writeExport(f *altium.File, path, format string, raw, pretty bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()
	if err := exportFile(f, out, format, raw, pretty); err != nil {
		return err
	}
	return out.Close()
}

// exportName returns the output file name for src in dir.
func exportName(dir, src, format string) string {
	ext := format
	if ext == "" {
		ext = "json"
	}
	return filepath.Join(dir, filepath.Base(src)+"."+ext)
}
