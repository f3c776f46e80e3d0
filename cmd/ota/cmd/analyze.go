package cmd

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/batch"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/export"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir>...",
	Short: "Count objects and warnings across files",
	Long: `Analyze reads every file given (directories are searched recursively)
and reports how many objects of each type they hold, the extent of each
file, and the number of warnings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// stats accumulates object counts per type.
type stats struct {
	files    int
	failed   int
	warnings int
	byKind   map[altium.Kind]int
	byType   map[string]int
}

func (s *stats) add(doc *export.Document, kind altium.Kind) {
	s.files++
	s.byKind[kind]++
	s.warnings += len(doc.Metadata.Warnings)
	for _, r := range doc.Rows() {
		s.byType[r.ObjectType]++
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	files, err := batch.Collect(args)
	if err != nil {
		return err
	}

	s := &stats{byKind: map[altium.Kind]int{}, byType: map[string]int{}}
	for _, path := range files {
		f, err := openFile(cmd.Context(), path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			s.failed++
			continue
		}
		doc, err := export.Build(f, export.Options{})
		if err != nil {
			return err
		}
		s.add(doc, f.Kind)

		fmt.Printf("%s: %s, %d objects, %d warnings\n", path, f.Kind, len(doc.Rows()), len(doc.Metadata.Warnings))
		if b := extent(doc); b != nil {
			fmt.Printf("  Extent: (%.2f, %.2f) - (%.2f, %.2f) mil\n", b.MinX, b.MinY, b.MaxX, b.MaxY)
		}
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("Files: %d (%d failed)\n", s.files, s.failed)
	for _, k := range []altium.Kind{altium.KindSchLib, altium.KindSchDoc, altium.KindPcbLib, altium.KindPcbDoc} {
		if n := s.byKind[k]; n > 0 {
			fmt.Printf("  %-8s %d\n", k, n)
		}
	}
	fmt.Printf("Warnings: %d\n", s.warnings)

	types := make([]string, 0, len(s.byType))
	for t := range s.byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if s.byType[types[i]] != s.byType[types[j]] {
			return s.byType[types[i]] > s.byType[types[j]]
		}
		return types[i] < types[j]
	})
	fmt.Printf("Objects:\n")
	for _, t := range types {
		fmt.Printf("  %-16s %d\n", t, s.byType[t])
	}

	if s.failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", s.failed, len(files))
	}
	return nil
}

// extent returns the overall bounds recorded in the export, if any.
func extent(doc *export.Document) *export.Bounds {
	m := doc.ParsedModel
	switch {
	case m.PcbDoc != nil:
		return &m.PcbDoc.Bounds
	case m.SchDoc != nil:
		return &m.SchDoc.Bounds
	}
	var out *export.Bounds
	grow := func(b export.Bounds) {
		if out == nil {
			out = &b
			return
		}
		out.MinX, out.MinY = min(out.MinX, b.MinX), min(out.MinY, b.MinY)
		out.MaxX, out.MaxY = max(out.MaxX, b.MaxX), max(out.MaxY, b.MaxY)
	}
	if m.PcbLib != nil {
		for _, fp := range m.PcbLib.Footprints {
			grow(fp.Bounds)
		}
	}
	if m.SchLib != nil {
		for _, c := range m.SchLib.Components {
			grow(c.Bounds)
		}
	}
	return out
}
