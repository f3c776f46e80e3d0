package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/spf13/cobra"
)

var bindiffContext int

var bindiffCmd = &cobra.Command{
	Use:   "bindiff <file_a> <file_b>",
	Short: "Compare the raw streams of two files",
	Long: `Bindiff compares two compound files stream by stream. For each stream
that differs it prints the sizes, the first differing byte and, for record
streams, the index of the first differing record. With --verbose the bytes
around the first difference are dumped from both files.

The only_streams setting restricts the comparison to matching stream paths.
The command fails when any stream differs.`,
	Args: cobra.ExactArgs(2),
	RunE: runBindiff,
}

func init() {
	rootCmd.AddCommand(bindiffCmd)
	bindiffCmd.Flags().IntVar(&bindiffContext, "context", 32, "bytes shown around a difference with --verbose")
}

func runBindiff(cmd *cobra.Command, args []string) error {
	var roots [2]*cfb.Storage
	for i, path := range args {
		root, err := cfb.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		roots[i] = root
	}

	diffs := altium.DiffStreams(roots[0], roots[1], cfg.ShouldCompareStream)
	if len(diffs) == 0 {
		fmt.Printf("All streams are identical\n")
		return nil
	}
	for _, d := range diffs {
		fmt.Printf("%s\n", d)
		if d.Kind != altium.StreamChanged {
			continue
		}
		a, _ := roots[0].GetStreamData(d.Path)
		b, _ := roots[1].GetStreamData(d.Path)
		if i, ok := altium.FirstBlockDifference(a, b); ok {
			fmt.Printf("  first differing record: %d\n", i)
		}
		if verbose {
			fmt.Printf("  A:\n%s", dumpWindow(a, d.Offset, bindiffContext))
			fmt.Printf("  B:\n%s", dumpWindow(b, d.Offset, bindiffContext))
		}
	}
	return fmt.Errorf("%d streams differ", len(diffs))
}

// dumpWindow hex dumps up to n bytes of data starting a little before off.
func dumpWindow(data []byte, off, n int) string {
	start := max(0, off-n/4)
	start -= start % 16
	end := min(len(data), start+n)
	if start >= end {
		return ""
	}
	return hex.Dump(data[start:end])
}
