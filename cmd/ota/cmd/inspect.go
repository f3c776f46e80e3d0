package cmd

import (
	"fmt"
	"os"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/export"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

var inspectDump bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the contents of a file",
	Long: `Inspect prints the header and the list of components, footprints or
records of a file. With --dump the full parsed model is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectDump, "dump", false, "print the full parsed model")
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := openFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Kind: %s\n", f.Kind)
	switch {
	case f.SchLib != nil:
		inspectSchLib(f.SchLib)
	case f.SchDoc != nil:
		inspectSchDoc(f.SchDoc)
	case f.PcbLib != nil:
		fmt.Printf("Header: %s\n", f.PcbLib.Header)
		fmt.Printf("Footprints: %d\n", len(f.PcbLib.Footprints))
		for _, c := range f.PcbLib.Footprints {
			fmt.Printf("  %-32s %4d primitives  %s\n", c.Name, len(c.Primitives), formatRect(c.CalculateBounds()))
		}
	case f.PcbDoc != nil:
		d := f.PcbDoc
		fmt.Printf("Header: %s\n", d.Header)
		fmt.Printf("Nets: %d\n", len(d.Nets))
		fmt.Printf("Polygons: %d\n", len(d.Polygons))
		fmt.Printf("Components: %d\n", len(d.Components))
		for i, c := range d.Components {
			fmt.Printf("  %-8s %-24s %4d primitives\n", c.SourceDesignator, c.Name, len(d.ComponentPrimitives(i)))
		}
		fmt.Printf("Free primitives: %d\n", len(d.FreePrimitives()))
		fmt.Printf("Bounds: %s\n", formatRect(d.CalculateBounds()))
	}
	printWarnings(f)

	if inspectDump {
		doc, err := export.Build(f, export.Options{})
		if err != nil {
			return err
		}
		fmt.Println()
		pretty.Fprintf(os.Stdout, "%# v\n", doc.ParsedModel)
	}
	return nil
}

func inspectSchLib(l *schematic.Library) {
	fmt.Printf("Header: %s\n", l.Header.Get("HEADER").AsStringOrDefault(""))
	fmt.Printf("Fonts: %d\n", len(l.Fonts))
	fmt.Printf("Components: %d\n", len(l.Components))
	for _, t := range l.Components {
		c := t.Component()
		designator := ""
		if c.Designator != nil {
			designator = c.Designator.Text
		}
		fmt.Printf("  %-32s %-6s %3d pins  %d parts  %s\n",
			c.LibReference, designator, len(t.Find(schematic.RecordPin)), c.Parts(), c.Description)
	}
	if len(l.Images) > 0 {
		fmt.Printf("Embedded images: %d\n", len(l.Images))
	}
}

func inspectSchDoc(d *schematic.Document) {
	fmt.Printf("Header: %s\n", d.Header.Get("HEADER").AsStringOrDefault(""))
	fmt.Printf("Records: %d\n", len(d.Tree.Live()))
	fmt.Printf("Components: %d\n", len(d.Components()))
	for _, i := range d.Components() {
		c := d.Tree.Records[i].(*schematic.Component)
		designator := ""
		if c.Designator != nil {
			designator = c.Designator.Text
		}
		fmt.Printf("  %-8s %s\n", designator, c.LibReference)
	}
	if orphans := d.Tree.Orphans(); len(orphans) > 0 {
		fmt.Printf("Orphan records: %d\n", len(orphans))
	}
	fmt.Printf("Bounds: %s\n", formatRect(d.Tree.Bounds()))
}

func printWarnings(f *altium.File) {
	ws := f.Warnings()
	if len(ws) == 0 {
		return
	}
	fmt.Printf("Warnings: %d\n", len(ws))
	for _, w := range ws {
		fmt.Printf("  %s\n", w)
	}
}

func formatRect(r coord.Rect) string {
	return fmt.Sprintf("(%.2f, %.2f) - (%.2f, %.2f) mil",
		r.Min.X.ToMils(), r.Min.Y.ToMils(), r.Max.X.ToMils(), r.Max.Y.ToMils())
}
