package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/batch"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/export"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/creachadair/mds/mapset"
	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn <file|dir>...",
	Short: "List parameters and records the codec does not model",
	Long: `Learn scans files for parameter keys that no typed field consumed and
for record types that were kept as raw records. The report shows, per
object type, each unmapped key with the number of objects carrying it, and
every enum value outside the known members.
This is the starting point for extending the codec to a newer format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLearn,
}

func init() {
	rootCmd.AddCommand(learnCmd)
}

// findings collects unmapped keys per object type.
type findings struct {
	keys    map[string]map[string]int
	values  map[string]int
	records mapset.Set[string]
}

func newFindings() *findings {
	return &findings{
		keys:    map[string]map[string]int{},
		values:  map[string]int{},
		records: mapset.New[string](),
	}
}

// addWarnings counts enum values the codec did not recognize.
func (fs *findings) addWarnings(ws diag.Warnings) {
	for _, w := range ws {
		if v, ok := strings.CutSuffix(w.Message, ", "+params.NewValueNote); ok {
			fs.values[v]++
		}
	}
}

func (fs *findings) add(o export.Object) {
	// Records without a codec are named by number, such as Record215
	if strings.HasPrefix(o.ObjectType, "Record") {
		fs.records.Add(o.ObjectType)
		return
	}
	seen := mapset.New[string]()
	for _, f := range o.OriginalParameters {
		if cfg.IsIgnoredKey(f.Name) || seen.Has(f.Name) {
			continue
		}
		seen.Add(f.Name)
		if fs.keys[o.ObjectType] == nil {
			fs.keys[o.ObjectType] = map[string]int{}
		}
		fs.keys[o.ObjectType][f.Name]++
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func runLearn(cmd *cobra.Command, args []string) error {
	files, err := batch.Collect(args)
	if err != nil {
		return err
	}

	fs := newFindings()
	for _, path := range files {
		f, err := openFile(cmd.Context(), path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			continue
		}
		fs.addWarnings(f.Warnings())
		doc, err := export.Build(f, export.Options{})
		if err != nil {
			return err
		}
		for _, r := range doc.Rows() {
			fs.add(r.Object)
		}
	}

	if len(fs.keys) == 0 && len(fs.values) == 0 && fs.records.Len() == 0 {
		fmt.Printf("All parameters are mapped\n")
		return nil
	}
	for _, typ := range sortedKeys(fs.keys) {
		fmt.Printf("%s:\n", typ)
		for _, k := range sortedKeys(fs.keys[typ]) {
			fmt.Printf("  %-32s %d\n", k, fs.keys[typ][k])
		}
	}
	if len(fs.values) > 0 {
		fmt.Printf("Unknown values:\n")
		for _, v := range sortedKeys(fs.values) {
			fmt.Printf("  %-32s %d\n", v, fs.values[v])
		}
	}
	if fs.records.Len() > 0 {
		records := make([]string, 0, fs.records.Len())
		for r := range fs.records {
			records = append(records, r)
		}
		sort.Strings(records)
		fmt.Printf("Unknown record types:\n")
		for _, r := range records {
			fmt.Printf("  %s\n", r)
		}
	}
	return nil
}
