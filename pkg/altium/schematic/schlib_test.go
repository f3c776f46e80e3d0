package schematic

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/stretchr/testify/require"
)

func resistor(name string) *Tree {
	c := NewComponent()
	c.LibReference = name
	c.Description = "Resistor"
	t := NewTree(c)
	t.Add(0, NewDesignator("R?"))
	t.Add(0, NewParameter("Comment", "*"))
	t.Add(0, NewRectangle(dxp(0, -5), dxp(30, 5)))
	t.Add(0, NewPin("1", "1", dxp(0, 0), coord.FromDxp(10)))
	p2 := NewPin("2", "2", dxp(30, 0), coord.FromDxp(10))
	p2.SetOrientation(Orientation0)
	t.Add(0, p2)
	impl, _ := t.Add(0, NewImplementationList())
	fp := NewFootprintImplementation("RESC1608")
	fp.OwnerIndex = impl
	t.Add(impl, fp)
	return t
}

func TestLibraryRoundTrip(t *testing.T) {
	ctx := context.Background()
	longName := "VERY_LONG_COMPONENT_NAME/WITH_SLASH_AND_MORE"

	lib := NewLibrary()
	require.NoError(t, lib.Add(resistor("RES")))
	require.NoError(t, lib.Add(resistor(longName)))
	require.Error(t, lib.Add(resistor("res")), "duplicate names are rejected")
	lib.Images = append(lib.Images, NewEmbeddedImage("logo.bmp", bytes.Repeat([]byte("BM"), 300)))

	root, err := lib.Storage(ctx)
	require.NoError(t, err)
	data, err := root.Bytes()
	require.NoError(t, err)

	reopened, err := cfb.FromBytes(data)
	require.NoError(t, err)
	_, ok := reopened.TryGetStream("SectionKeys")
	require.True(t, ok, "long names need section keys")
	_, ok = reopened.TryGetStream("RES/Data")
	require.True(t, ok)

	got, err := ParseLibrary(ctx, reopened)
	require.NoError(t, err)
	require.Empty(t, got.Warnings)
	require.Len(t, got.Components, 2)
	require.Len(t, got.Fonts, 1)
	require.Equal(t, "Times New Roman", got.Fonts[0].Name)

	long := got.Find(longName)
	require.NotNil(t, long)
	c := long.Component()
	require.Equal(t, "Resistor", c.Description)
	require.NotNil(t, c.Designator)
	require.Equal(t, "R?", c.Designator.Text)
	require.NotNil(t, c.Comment)
	require.NotNil(t, c.Implementations)
	require.Len(t, long.Find(RecordPin), 2)
	impls := long.Find(RecordImplementation)
	require.Len(t, impls, 1)
	require.Equal(t, "RESC1608", long.Records[impls[0]].(*Implementation).ModelName)

	require.Len(t, got.Images, 1)
	require.Equal(t, "logo.bmp", got.Images[0].FileName)
	require.Equal(t, lib.Images[0].Data, got.Images[0].Data)

	// A second pass reproduces the same streams.
	again, err := got.Storage(ctx)
	require.NoError(t, err)
	for _, path := range []string{"FileHeader", "SectionKeys", "Storage", "RES/Data"} {
		want, err := root.GetStreamData(path)
		require.NoError(t, err)
		have, err := again.GetStreamData(path)
		require.NoError(t, err)
		require.Equal(t, want, have, path)
	}
}

func TestLibraryKeepsUnknownStreams(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()
	require.NoError(t, lib.Add(resistor("RES")))
	root, err := lib.Storage(ctx)
	require.NoError(t, err)
	root.CreateStream("Vendor", []byte("opaque"))
	root.Storage("RES").CreateStream("PinFrac", []byte{1, 2, 3})

	got, err := ParseLibrary(ctx, root)
	require.NoError(t, err)
	out, err := got.Storage(ctx)
	require.NoError(t, err)

	data, err := out.GetStreamData("Vendor")
	require.NoError(t, err)
	require.Equal(t, []byte("opaque"), data)
	data, err = out.GetStreamData("RES/PinFrac")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	got.Components = got.Components[:0]
	out, err = got.Storage(ctx)
	require.NoError(t, err)
	_, ok := out.TryGetStorage("RES")
	require.False(t, ok, "storages of dropped components are removed")
}

func TestLibraryFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.SchLib")

	lib := NewLibrary()
	require.NoError(t, lib.Add(resistor("RES")))
	require.NoError(t, lib.WriteFile(ctx, path))

	got, err := ParseLibraryFile(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, got.Find("RES"))

	_, err = ParseLibraryFile(ctx, filepath.Join(t.TempDir(), "missing.SchLib"))
	require.Error(t, err)
}

func TestVersionWarning(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.Add(resistor("RES")))
	lib.Header.Set("HEADER", strings.Replace(LibraryHeader, "5.0", "6.1", 1))
	root, err := lib.Storage(context.Background())
	require.NoError(t, err)

	got, err := ParseLibrary(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	require.Contains(t, got.Warnings[0].Message, "6.1")
}

func TestCorruptComponentCount(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.Add(resistor("RES")))
	root, err := lib.Storage(context.Background())
	require.NoError(t, err)

	w := binfmt.NewWriter()
	require.NoError(t, w.WriteCStringBlock(0, binfmt.CString{
		Text:       "|HEADER=" + LibraryHeader + "|COMPCOUNT=9000000000000000000|LIBREF0=RES",
		Terminated: true,
	}))
	st, ok := root.TryGetStream("FileHeader")
	require.True(t, ok)
	st.SetData(w.Bytes())

	got, err := ParseLibrary(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got.Components, 1)
	require.NotNil(t, got.Find("RES"))

	var msgs []string
	for _, warn := range got.Warnings {
		msgs = append(msgs, warn.Message)
	}
	require.Contains(t, strings.Join(msgs, "\n"), "COMPCOUNT: count 9000000000000000000 exceeds")
}

func TestCorruptSectionKeyCount(t *testing.T) {
	root := cfb.New()
	w := binfmt.NewWriter()
	require.NoError(t, w.WriteCStringBlock(0, binfmt.CString{
		Text:       "|KEYCOUNT=9000000000000000000|LIBREF0=LONGNAME|SECTIONKEY0=LONG",
		Terminated: true,
	}))
	root.CreateStream("SectionKeys", w.Bytes())

	keys, err := readSectionKeys(root)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"LONGNAME": "LONG"}, keys)
}

func TestDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc := NewDocument()
	comp := NewComponent()
	comp.LibReference = "RES"
	comp.OwnerPartID = -1
	ci, _ := doc.Tree.Add(0, comp)
	pin := NewPin("1", "1", dxp(100, 100), coord.FromDxp(10))
	pin.OwnerIndex = ci
	doc.Tree.Add(ci, pin)
	w := NewWire(dxp(90, 100), dxp(50, 100))
	doc.Tree.Add(0, w)
	doc.Tree.Add(0, NewNetLabel("VCC"))

	root, err := doc.Storage(ctx)
	require.NoError(t, err)
	root.CreateStream("Additional", []byte("kept"))

	got, err := ParseDocument(ctx, root)
	require.NoError(t, err)
	require.Empty(t, got.Warnings)
	require.NotNil(t, got.Sheet())
	require.Equal(t, []int{1}, got.Components())
	pins := got.Tree.Find(RecordPin)
	require.Len(t, pins, 1)
	require.Equal(t, 1, got.Tree.Owner(pins[0]), "pins follow their component")
	require.True(t, got.Tree.IsVisible(pins[0]))

	require.NoError(t, got.Tree.Remove(pins[0]))
	out, err := got.Storage(ctx)
	require.NoError(t, err)
	data, err := out.GetStreamData("Additional")
	require.NoError(t, err)
	require.Equal(t, []byte("kept"), data)

	again, err := ParseDocument(ctx, out)
	require.NoError(t, err)
	require.Empty(t, again.Tree.Find(RecordPin))
	require.Equal(t, 4, again.Tree.Len())
	require.Equal(t, 4, again.Header.Get("WEIGHT").AsIntOrDefault(0))
}
