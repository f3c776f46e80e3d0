package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/internal/config"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/export"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/pcb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func mil(x, y float64) coord.Point {
	return coord.Pt(coord.FromMils(x), coord.FromMils(y))
}

func chip(name string, pitch float64) *pcb.Component {
	c := pcb.NewComponent(name)
	c.Add(pcb.NewSMDPad("1", pcb.LayerTop, mil(-pitch, 0), mil(30, 30)))
	c.Add(pcb.NewSMDPad("2", pcb.LayerTop, mil(pitch, 0), mil(30, 30)))
	c.Add(pcb.NewTrack(pcb.LayerTopOverlay, mil(-pitch, 25), mil(pitch, 25)))
	return c
}

type fixtures struct {
	dir    string
	pcbLib string
	pcbDoc string
	schLib string
}

// writeFixtures saves one file of each kind the tests use.
func writeFixtures(t *testing.T) fixtures {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	fx := fixtures{
		dir:    dir,
		pcbLib: filepath.Join(dir, "chips.PcbLib"),
		pcbDoc: filepath.Join(dir, "board.PcbDoc"),
		schLib: filepath.Join(dir, "passives.SchLib"),
	}

	lib := pcb.NewLibrary()
	require.NoError(t, lib.Add(chip("R0603", 30)))
	require.NoError(t, lib.Add(chip("R0805", 40)))
	require.NoError(t, lib.WriteFile(ctx, fx.pcbLib))

	doc := pcb.NewDocument()
	doc.Nets = append(doc.Nets, &pcb.Net{Name: "GND"})
	placed := pcb.NewComponent("R0603")
	placed.SourceDesignator = "R1"
	doc.Components = append(doc.Components, placed)
	pad := pcb.NewSMDPad("1", pcb.LayerTop, mil(1000, 1000), mil(30, 30))
	pad.Component = 0
	pad.Net = 0
	doc.Primitives = append(doc.Primitives, pad, pcb.NewTrack(pcb.LayerBottom, mil(0, 0), mil(500, 0)))
	require.NoError(t, doc.WriteFile(ctx, fx.pcbDoc))

	sl := schematic.NewLibrary()
	c := schematic.NewComponent()
	c.LibReference = "RES"
	c.Description = "Resistor"
	tree := schematic.NewTree(c)
	tree.Add(0, schematic.NewPin("1", "1", mil(0, 0), coord.FromDxp(10)))
	label := schematic.NewLabel()
	label.Text = "R"
	label.Unmapped = params.New()
	label.Unmapped.Add("VENDORKEY", "1")
	tree.Add(0, label)
	unknown := params.New()
	unknown.Add("RECORD", "215")
	unknown.Add("OWNERINDEX", "0")
	tree.Add(0, &schematic.Unknown{RecordID: 215, Params: unknown})
	require.NoError(t, sl.Add(tree))
	sl.Images = append(sl.Images, schematic.NewEmbeddedImage(`C:\art\logo.bmp`, bytes.Repeat([]byte("BM"), 64)))
	require.NoError(t, sl.WriteFile(ctx, fx.schLib))
	return fx
}

// resetFlags puts every flag of c and its subcommands back to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes ota with args and returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking on Windows
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags(rootCmd)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := rootCmd.Execute()

	// Restore stdout and wait for reader
	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

// TestCommandsE2E runs each command against generated files
func TestCommandsE2E(t *testing.T) {
	fx := writeFixtures(t)
	out := filepath.Join(fx.dir, "out")

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "inspect footprint library",
			args:        []string{"inspect", fx.pcbLib},
			wantContain: []string{"Kind: PcbLib", "Footprints: 2", "R0603", "R0805"},
		},
		{
			name:        "inspect board",
			args:        []string{"inspect", fx.pcbDoc},
			wantContain: []string{"Kind: PcbDoc", "Nets: 1", "Components: 1", "R1", "Free primitives: 1"},
		},
		{
			name:        "inspect symbol library with dump",
			args:        []string{"inspect", "--dump", fx.schLib},
			wantContain: []string{"Kind: SchLib", "Components: 1", "RES", "Embedded images: 1", "Warnings: 1", "LibReference"},
		},
		{
			name:    "inspect missing file",
			args:    []string{"inspect", filepath.Join(fx.dir, "missing.PcbLib")},
			wantErr: true,
		},
		{
			name:        "export to stdout",
			args:        []string{"export", fx.pcbLib},
			wantContain: []string{`"parsedModel"`, `"pcbLib"`, `"R0805"`},
		},
		{
			name:        "export workbook",
			args:        []string{"export", "--format", "xlsx", "-o", filepath.Join(out, "chips.xlsx"), fx.pcbLib},
			wantContain: []string{"Exported"},
		},
		{
			name:    "export unknown format",
			args:    []string{"export", "--format", "csv", "-o", filepath.Join(out, "x.csv"), fx.pcbLib},
			wantErr: true,
		},
		{
			name:        "roundtrip",
			args:        []string{"roundtrip", fx.pcbLib, fx.pcbDoc, fx.schLib},
			wantContain: []string{"PcbLib round trip is lossless", "PcbDoc round trip is lossless", "SchLib round trip is lossless"},
		},
		{
			name:    "roundtrip out needs one file",
			args:    []string{"roundtrip", "-o", filepath.Join(out, "x.PcbLib"), fx.pcbLib, fx.pcbDoc},
			wantErr: true,
		},
		{
			name:        "validate",
			args:        []string{"validate", fx.dir},
			wantContain: []string{"3 files: 2 ok, 1 with warnings, 0 failed", "record type 215"},
		},
		{
			name:    "validate strict",
			args:    []string{"validate", "--strict", fx.schLib},
			wantErr: true,
		},
		{
			name:        "analyze",
			args:        []string{"analyze", fx.dir},
			wantContain: []string{"Files: 3 (0 failed)", "PcbLib", "Pad", "Track"},
		},
		{
			name:        "learn",
			args:        []string{"learn", fx.schLib},
			wantContain: []string{"Label:", "VENDORKEY", "Unknown record types:", "Record215"},
		},
		{
			name:        "compare identical",
			args:        []string{"compare", fx.pcbLib, fx.pcbLib},
			wantContain: []string{"Files are equivalent"},
		},
		{
			name:        "compare different",
			args:        []string{"compare", fx.pcbLib, fx.pcbDoc},
			wantErr:     true,
			wantContain: []string{"Differences"},
		},
		{
			name:        "bindiff identical",
			args:        []string{"bindiff", fx.schLib, fx.schLib},
			wantContain: []string{"All streams are identical"},
		},
		{
			name:        "bindiff different",
			args:        []string{"bindiff", fx.pcbLib, fx.pcbDoc},
			wantErr:     true,
			wantContain: []string{"FileHeader", "only in"},
		},
		{
			name:        "explore",
			args:        []string{"explore", fx.schLib, "-c", "ls", "-c", "cd RES", "-c", "pwd", "-c", "records Data", "-c", "exit", "-c", "ls"},
			wantContain: []string{"FileHeader", "RES/", "/RES", "[0] |RECORD=1|"},
		},
		{
			name:        "decompress",
			args:        []string{"decompress", "--streams", "-o", filepath.Join(out, "parts"), fx.schLib},
			wantContain: []string{"logo.bmp", "Extracted 1 images", "Extracted"},
		},
		{
			name:    "decompress needs output",
			args:    []string{"decompress", fx.schLib},
			wantErr: true,
		},
		{
			name:        "batch export",
			args:        []string{"batch", "--out", filepath.Join(out, "batch"), "-j", "2", fx.dir},
			wantContain: []string{"Processed 3 files, 0 failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)

			// Check error expectation
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none\nOutput: %s", output)
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}

			// Check output contains expected strings
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing %q\nGot:\n%s", want, output)
				}
			}
		})
	}

	// Files written by the commands above
	for _, name := range []string{
		"chips.xlsx",
		"parts/images/logo.bmp",
		"parts/streams/FileHeader",
		"batch/chips.PcbLib.json",
		"batch/board.PcbDoc.json",
		"batch/passives.SchLib.json",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("Expected output file %s: %v", name, err)
		}
	}
}

func TestBatchExportIsReadable(t *testing.T) {
	fx := writeFixtures(t)
	out := filepath.Join(fx.dir, "msgpack")

	if _, err := run(t, "batch", "--out", out, "--format", "msgpack", fx.pcbLib); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	f, err := os.Open(filepath.Join(out, "chips.PcbLib.msgpack"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	doc, err := export.ReadMsgpack(f)
	if err != nil {
		t.Fatalf("ReadMsgpack failed: %v", err)
	}
	if len(doc.ParsedModel.PcbLib.Footprints) != 2 {
		t.Errorf("Expected 2 footprints, got %d", len(doc.ParsedModel.PcbLib.Footprints))
	}
}

func TestExportJSONToFile(t *testing.T) {
	fx := writeFixtures(t)
	path := filepath.Join(fx.dir, "board.json")

	if _, err := run(t, "export", "--raw", "-o", path, fx.pcbDoc); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Metadata.FileKind != "PcbDoc" {
		t.Errorf("Expected PcbDoc, got %s", doc.Metadata.FileKind)
	}
	if len(doc.RawMcdf) == 0 {
		t.Errorf("Expected raw streams with --raw")
	}
	if got := doc.ParsedModel.PcbDoc.Nets; len(got) != 1 || got[0] != "GND" {
		t.Errorf("Expected nets [GND], got %v", got)
	}
}

func TestExplorerCompletion(t *testing.T) {
	fx := writeFixtures(t)
	output, err := run(t, "explore", fx.pcbLib, "-c", "cd nowhere", "-c", "cat nothing", "-c", "frobnicate")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`no storage "nowhere"`, `no stream "nothing"`, `unknown command "frobnicate"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\nGot:\n%s", want, output)
		}
	}
}

func TestLearnCountsUnknownValues(t *testing.T) {
	p := params.MustParse("|RECORD=18|IOTYPE=9")
	_ = params.AsEnumOrDefault(p.Get("IOTYPE"), schematic.PortUnspecified)
	require.Len(t, p.Notes(), 1)

	var ws diag.Warnings
	for i := 0; i < 2; i++ {
		ws.Addf("Data", i, "%s", p.Notes()[0])
	}
	ws.Addf("Data", 3, "duplicate key X, first value kept")

	fs := newFindings()
	fs.addWarnings(ws)
	if len(fs.values) != 1 {
		t.Fatalf("Expected 1 unknown value, got %v", fs.values)
	}
	if n := fs.values["IOTYPE: unknown value 9"]; n != 2 {
		t.Errorf("Expected count 2, got %d", n)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ota", "config.yaml")

	output, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	require.Contains(t, output, "Wrote "+path)

	saved, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.FormatJSON, saved.Format)
	require.Equal(t, config.DefaultConfig().IgnoreKeys, saved.IgnoreKeys)

	_, err = run(t, "--config", path, "config", "init")
	require.Error(t, err, "Expected an existing file to be kept")

	output, err = run(t, "--config", path, "config", "path")
	require.NoError(t, err)
	require.Equal(t, path+"\n", output)

	output, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	require.Contains(t, output, "format: json")

	// A broken file can still be replaced.
	require.NoError(t, os.WriteFile(path, []byte("format: csv\n"), 0644))
	_, err = run(t, "--config", path, "inspect", "x.PcbLib")
	require.Error(t, err)
	output, err = run(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)
	require.Contains(t, output, "Wrote")
	_, err = config.Load(path)
	require.NoError(t, err)
}
