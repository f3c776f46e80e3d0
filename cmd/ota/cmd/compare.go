package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/export"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <file_a> <file_b>",
	Short: "Compare the parsed models of two files",
	Long: `Compare decodes both files and prints the differences between their
parsed models. Parameters listed in the ignore_keys setting (UNIQUEID and
INDEXINSHEET by default) are left out of the comparison.

The command fails when the models differ.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	var models [2]export.Model
	for i, path := range args {
		f, err := openFile(cmd.Context(), path)
		if err != nil {
			return err
		}
		doc, err := export.Build(f, export.Options{})
		if err != nil {
			return err
		}
		models[i] = doc.ParsedModel
	}

	diff := compareModels(models[0], models[1])
	if diff == "" {
		fmt.Printf("Files are equivalent\n")
		return nil
	}
	fmt.Printf("Differences (-%s +%s):\n%s", args[0], args[1], diff)
	return fmt.Errorf("files differ")
}

// compareModels returns a readable diff of a and b, empty when they match.
func compareModels(a, b export.Model) string {
	return cmp.Diff(a, b,
		cmpopts.IgnoreSliceElements(func(f export.Field) bool { return cfg.IsIgnoredKey(f.Name) }),
		cmpopts.EquateEmpty(),
	)
}
