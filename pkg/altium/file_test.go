package altium

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/pcb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
	"github.com/stretchr/testify/require"
)

func mil(x, y float64) coord.Point {
	return coord.Pt(coord.FromMils(x), coord.FromMils(y))
}

func samples(t *testing.T) map[Kind]*cfb.Storage {
	t.Helper()
	ctx := context.Background()
	out := map[Kind]*cfb.Storage{}

	sl := schematic.NewLibrary()
	c := schematic.NewComponent()
	c.LibReference = "CAP"
	require.NoError(t, sl.Add(schematic.NewTree(c)))
	root, err := sl.Storage(ctx)
	require.NoError(t, err)
	out[KindSchLib] = root

	root, err = schematic.NewDocument().Storage(ctx)
	require.NoError(t, err)
	out[KindSchDoc] = root

	pl := pcb.NewLibrary()
	fp := pcb.NewComponent("0603")
	fp.Add(pcb.NewSMDPad("1", pcb.LayerTop, mil(-30, 0), mil(30, 30)))
	require.NoError(t, pl.Add(fp))
	root, err = pl.Storage(ctx)
	require.NoError(t, err)
	out[KindPcbLib] = root

	pd := pcb.NewDocument()
	pd.Primitives = append(pd.Primitives, pcb.NewTrack(pcb.LayerTop, mil(0, 0), mil(100, 0)))
	root, err = pd.Storage(ctx)
	require.NoError(t, err)
	out[KindPcbDoc] = root
	return out
}

func TestDetectKind(t *testing.T) {
	for kind, root := range samples(t) {
		if got := DetectKind(root); got != kind {
			t.Errorf("Expected %s, got %s", kind, got)
		}
	}
	if got := DetectKind(cfb.New()); got != KindUnknown {
		t.Errorf("Expected unknown for empty container, got %s", got)
	}
}

func TestKindFromExtension(t *testing.T) {
	tests := map[string]Kind{
		"a.SchLib":     KindSchLib,
		"b.schdoc":     KindSchDoc,
		"dir/c.PCBLIB": KindPcbLib,
		"d.PcbDoc":     KindPcbDoc,
		"e.txt":        KindUnknown,
	}
	for path, want := range tests {
		if got := KindFromExtension(path); got != want {
			t.Errorf("%s: expected %s, got %s", path, want, got)
		}
	}
}

func TestOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	names := map[Kind]string{
		KindSchLib: "lib.SchLib",
		KindSchDoc: "sheet.SchDoc",
		KindPcbLib: "lib.PcbLib",
		KindPcbDoc: "board.PcbDoc",
	}
	for kind, root := range samples(t) {
		path := filepath.Join(dir, names[kind])
		require.NoError(t, root.Save(path))

		f, err := Open(ctx, path)
		require.NoError(t, err, kind.String())
		require.Equal(t, kind, f.Kind)
		require.Equal(t, path, f.Path)
		require.Empty(t, f.Warnings(), kind.String())

		out, err := f.Storage(ctx)
		require.NoError(t, err)
		require.Empty(t, DiffStreams(f.Root, out, nil), "%s rewrites byte for byte", kind)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, filepath.Join(t.TempDir(), "missing.PcbLib"))
	require.Error(t, err)

	_, err = Decode(ctx, cfb.New(), KindUnknown)
	require.Error(t, err)
}

func TestDiffStreams(t *testing.T) {
	a := cfb.New()
	a.CreateStream("FileHeader", []byte("same"))
	a.CreateStorage("X").CreateStream("Data", []byte{1, 2, 3})
	a.CreateStream("Gone", []byte{0})

	b := a.Clone()
	b.Delete("Gone")
	b.Storage("X").Stream("Data").SetData([]byte{1, 2, 4, 5})
	b.CreateStream("New", nil)

	diffs := DiffStreams(a, b, nil)
	require.Len(t, diffs, 3)
	require.Equal(t, StreamDiff{Path: "Gone", Kind: StreamOnlyInA, SizeA: 1, Offset: -1}, diffs[0])
	require.Equal(t, StreamDiff{Path: "New", Kind: StreamOnlyInB, Offset: -1}, diffs[1])
	require.Equal(t, StreamDiff{Path: "X/Data", Kind: StreamChanged, SizeA: 3, SizeB: 4, Offset: 2}, diffs[2])

	only := DiffStreams(a, b, func(path string) bool { return path == "X/Data" })
	require.Len(t, only, 1)
	require.Contains(t, only[0].String(), "first difference at 0x2")
}

func TestFirstDifference(t *testing.T) {
	tests := []struct {
		a, b []byte
		want int
	}{
		{[]byte("abc"), []byte("abc"), -1},
		{[]byte("abc"), []byte("abd"), 2},
		{[]byte("ab"), []byte("abc"), 2},
		{nil, []byte{}, -1},
	}
	for _, tt := range tests {
		if got := FirstDifference(tt.a, tt.b); got != tt.want {
			t.Errorf("FirstDifference(%q, %q): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func blocks(t *testing.T, payloads ...string) []byte {
	t.Helper()
	w := binfmt.NewWriter()
	for _, p := range payloads {
		require.NoError(t, w.WriteRawBlock(0, []byte(p)))
	}
	return w.Bytes()
}

func TestFirstBlockDifference(t *testing.T) {
	a := blocks(t, "|RECORD=1|", "|RECORD=2|", "|RECORD=41|")
	b := blocks(t, "|RECORD=1|", "|RECORD=2|", "|RECORD=41|TEXT=x|")

	i, ok := FirstBlockDifference(a, b)
	require.True(t, ok)
	require.Equal(t, 2, i)

	i, ok = FirstBlockDifference(a, blocks(t, "|RECORD=1|"))
	require.True(t, ok)
	require.Equal(t, 1, i, "a missing block counts as a difference")

	_, ok = FirstBlockDifference(a, a)
	require.False(t, ok)

	_, ok = FirstBlockDifference(a, []byte{0xFF, 0xFF, 0, 0})
	require.False(t, ok, "not a block stream")
}
