package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/OpenTraceLab/OpenTraceAltium/internal/config"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    = config.DefaultConfig()
	logger = log.New(io.Discard, "ota: ", 0)
)

var rootCmd = &cobra.Command{
	Use:   "ota",
	Short: "OpenTraceAltium - Altium library and document tools",
	Long: `OpenTraceAltium (ota) reads and writes Altium binary files:
  - Schematic libraries (.SchLib) and sheets (.SchDoc)
  - PCB footprint libraries (.PcbLib) and boards (.PcbDoc)

Examples:
  ota inspect parts.SchLib                  # Summarize a library
  ota export board.PcbDoc -o board.json     # Export the parsed model
  ota roundtrip footprints.PcbLib           # Check that a rewrite is lossless
  ota batch libs/ --out exports/            # Export every file in a directory
  ota config init                           # Write a config file with the defaults`,
	Version:           "0.9.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the user config directory)")
}

// setup loads the configuration and routes the log output.
func setup(cmd *cobra.Command, args []string) error {
	routeLog()
	path, err := configFile()
	if err != nil {
		logger.Printf("no config directory: %v", err)
		cfg = config.DefaultConfig()
		return nil
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	logger.Printf("config: %s", path)
	cfg = c
	return nil
}

// routeLog sends the log to stderr with --verbose and discards it otherwise.
func routeLog() {
	if verbose {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}
}

// configFile returns the --config path or the default location.
func configFile() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Path()
}

// openFile decodes path and logs the warnings collected while reading.
func openFile(ctx context.Context, path string) (*altium.File, error) {
	logger.Printf("reading %s", path)
	f, err := altium.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, w := range f.Warnings() {
		logger.Printf("%s: warning: %s", path, w)
	}
	return f, nil
}
