package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
	"github.com/spf13/cobra"
)

var (
	decompressOutput  string
	decompressStreams bool
)

var decompressCmd = &cobra.Command{
	Use:   "decompress <file>",
	Short: "Extract embedded images and raw streams",
	Long: `Decompress inflates the images embedded in a schematic file and
writes them to the output directory. With --streams every stream of the
compound file is also written, one file per stream, mirroring the storage
layout.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompress,
}

func init() {
	rootCmd.AddCommand(decompressCmd)
	decompressCmd.Flags().StringVarP(&decompressOutput, "out", "o", "", "output directory (required)")
	decompressCmd.Flags().BoolVar(&decompressStreams, "streams", false, "also write every raw stream")
	decompressCmd.MarkFlagRequired("out")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	f, err := openFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var images []*schematic.EmbeddedImage
	switch {
	case f.SchLib != nil:
		images = f.SchLib.Images
	case f.SchDoc != nil:
		images = f.SchDoc.Images
	}
	for i, img := range images {
		name := safeName(filepath.Base(strings.ReplaceAll(img.FileName, `\`, "/")))
		if name == "" || name == "." {
			name = fmt.Sprintf("image%d.bin", i)
		}
		path := filepath.Join(decompressOutput, "images", name)
		if err := writeOut(path, img.Data); err != nil {
			return err
		}
		fmt.Printf("  %s (%d bytes)\n", path, len(img.Data))
	}
	fmt.Printf("Extracted %d images\n", len(images))

	if !decompressStreams {
		return nil
	}
	n := 0
	err = f.Root.Walk(func(path string, st *cfb.Stream) error {
		parts := strings.Split(path, "/")
		for i, p := range parts {
			parts[i] = safeName(p)
		}
		n++
		return writeOut(filepath.Join(append([]string{decompressOutput, "streams"}, parts...)...), st.Data())
	})
	if err != nil {
		return err
	}
	fmt.Printf("Extracted %d streams\n", n)
	return nil
}

// safeName replaces characters that are not valid in file names.
func safeName(name string) string {
	if name == ".." {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"|?*\`, r) {
			return '_'
		}
		return r
	}, name)
}

func writeOut(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
