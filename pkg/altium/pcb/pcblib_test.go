package pcb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/stretchr/testify/require"
)

// qfp returns a five pad footprint with a silkscreen outline and a pin 1
// marker.
func qfp(name string) *Component {
	c := NewComponent(name)
	c.Description = "5-pin test package"
	c.Height = coord.FromMils(40)
	for i, x := range []float64{-40, -20, 0, 20, 40} {
		c.Add(NewSMDPad(string(rune('1'+i)), LayerTop, mil(x, -60), mil(10, 20)))
	}
	corners := []coord.Point{mil(-100, -100), mil(100, -100), mil(100, 100), mil(-100, 100)}
	for i := range corners {
		c.Add(NewTrack(LayerTopOverlay, corners[i], corners[(i+1)%len(corners)]))
	}
	c.Add(NewArc(LayerTopOverlay, mil(-80, 80), coord.FromMils(5), 0, 360))
	return c
}

func storageRoundTrip(t *testing.T, root *cfb.Storage) *cfb.Storage {
	t.Helper()
	data, err := root.Bytes()
	require.NoError(t, err)
	reopened, err := cfb.FromBytes(data)
	require.NoError(t, err)
	return reopened
}

func TestFootprintBounds(t *testing.T) {
	c := qfp("QFP5")

	var want coord.Rect
	for _, p := range c.Primitives {
		want = coord.Union(want, p.CalculateBounds())
	}
	got := c.CalculateBounds()
	require.Equal(t, want, got)
	require.Equal(t, coord.NewRect(mil(-105, -105), mil(105, 105)), got)

	require.Len(t, c.Pads(), 5)
	require.Len(t, c.Find(ObjectTrack), 4)
	require.Len(t, c.Find(ObjectArc), 1)
}

func TestLibraryRoundTrip(t *testing.T) {
	ctx := context.Background()
	longName := "QFP5_VERY_LONG_FOOTPRINT_NAME/WITH_SLASH"

	lib := NewLibrary()
	require.NoError(t, lib.Add(qfp("QFP5")))
	require.NoError(t, lib.Add(qfp(longName)))
	require.Error(t, lib.Add(qfp("qfp5")), "duplicate names are rejected")

	root, err := lib.Storage(ctx)
	require.NoError(t, err)
	reopened := storageRoundTrip(t, root)
	_, ok := reopened.TryGetStream("SectionKeys")
	require.True(t, ok, "long names need section keys")

	got, err := ParseLibrary(ctx, reopened)
	require.NoError(t, err)
	require.Empty(t, got.Warnings)
	require.Equal(t, LibraryHeader, got.Header)
	require.Len(t, got.Footprints, 2)
	require.NotNil(t, got.Find(longName))

	fp := got.Find("QFP5")
	require.NotNil(t, fp)
	require.Equal(t, "5-pin test package", fp.Description)
	require.Equal(t, coord.FromMils(40), fp.Height)
	require.Len(t, fp.Pads(), 5)
	require.Len(t, fp.Find(ObjectTrack), 4)
	arcs := fp.Find(ObjectArc)
	require.Len(t, arcs, 1)
	require.Equal(t, 0.0, arcs[0].(*Arc).StartAngle)
	require.Equal(t, 360.0, arcs[0].(*Arc).EndAngle)
	require.Equal(t, qfp("x").CalculateBounds(), fp.CalculateBounds())

	// An unchanged library is written back with the same streams.
	again, err := got.Storage(ctx)
	require.NoError(t, err)
	for _, path := range []string{"FileHeader", "SectionKeys", "Library/Data", "QFP5/Data", "QFP5/Header", "QFP5/Parameters"} {
		a, err := reopened.GetStreamData(path)
		require.NoError(t, err, path)
		b, err := again.GetStreamData(path)
		require.NoError(t, err, path)
		require.Equal(t, a, b, path)
	}
}

func TestLibraryKeepsUnknownStreams(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()
	require.NoError(t, lib.Add(qfp("QFP5")))
	root, err := lib.Storage(ctx)
	require.NoError(t, err)
	root.CreateStream("Vendor", []byte("opaque"))
	root.Storage("QFP5").CreateStream("UniqueIDPrimitiveInformation", []byte{1, 2, 3})

	got, err := ParseLibrary(ctx, storageRoundTrip(t, root))
	require.NoError(t, err)

	out, err := got.Storage(ctx)
	require.NoError(t, err)
	data, err := out.GetStreamData("Vendor")
	require.NoError(t, err)
	require.Equal(t, []byte("opaque"), data)
	data, err = out.GetStreamData("QFP5/UniqueIDPrimitiveInformation")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	// Removing the footprint removes its storage.
	got.Footprints = nil
	out, err = got.Storage(ctx)
	require.NoError(t, err)
	require.Nil(t, out.Storage("QFP5"))
	_, err = out.GetStreamData("Vendor")
	require.NoError(t, err)
}

func TestLibraryWideStrings(t *testing.T) {
	ctx := context.Background()
	c := qfp("QFP5")
	c.Add(NewText(LayerTopOverlay, mil(0, 120), "Ω1"))
	lib := NewLibrary()
	require.NoError(t, lib.Add(c))

	root, err := lib.Storage(ctx)
	require.NoError(t, err)
	_, ok := root.TryGetStream("QFP5/WideStrings")
	require.True(t, ok)

	got, err := ParseLibrary(ctx, storageRoundTrip(t, root))
	require.NoError(t, err)
	texts := got.Find("QFP5").Find(ObjectText)
	require.Len(t, texts, 1)
	require.Equal(t, "Ω1", texts[0].(*Text).Text)
}

func TestLibraryFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.PcbLib")

	lib := NewLibrary()
	require.NoError(t, lib.Add(qfp("QFP5")))
	require.NoError(t, lib.WriteFile(ctx, path))

	got, err := ParseLibraryFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, got.Footprints, 1)

	_, err = ParseLibraryFile(ctx, filepath.Join(t.TempDir(), "missing.PcbLib"))
	require.Error(t, err)
}

func TestLibraryVersionWarning(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()
	lib.Settings.Set("VERSION", "9.00")
	root, err := lib.Storage(ctx)
	require.NoError(t, err)

	got, err := ParseLibrary(ctx, root)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	require.Contains(t, got.Warnings[0].Message, "9.00")
}

func TestDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()

	doc := NewDocument()
	doc.Nets = append(doc.Nets, &Net{Name: "GND"})
	u1 := NewComponent("QFP5")
	u1.Layer = LayerTop
	u1.Location = mil(1000, 1000)
	u1.SourceDesignator = "U1"
	doc.Components = append(doc.Components, u1)
	doc.Polygons = append(doc.Polygons, NewPolygon(LayerTop, mil(0, 0), mil(2000, 0), mil(2000, 2000), mil(0, 2000)))

	pad := NewSMDPad("1", LayerTop, mil(1000, 940), mil(10, 20))
	pad.Component = 0
	pad.Net = doc.NetIndex("gnd")
	doc.Primitives = append(doc.Primitives, pad, NewTrack(LayerTop, mil(0, 0), mil(1000, 940)))

	root, err := doc.Storage(ctx)
	require.NoError(t, err)
	root.CreateStorage("Rules6").CreateStream("Data", []byte("rules"))
	reopened := storageRoundTrip(t, root)

	got, err := ParseDocument(ctx, reopened)
	require.NoError(t, err)
	require.Empty(t, got.Warnings)
	require.Len(t, got.Nets, 1)
	require.Len(t, got.Components, 1)
	require.Equal(t, "U1", got.Components[0].SourceDesignator)
	require.Equal(t, mil(1000, 1000), got.Components[0].Location)
	require.Len(t, got.Polygons, 1)
	require.Len(t, got.Polygons[0].Vertices, 4)
	require.Len(t, got.ComponentPrimitives(0), 1)
	require.Len(t, got.FreePrimitives(), 1)
	require.Equal(t, uint16(0), got.ComponentPrimitives(0)[0].Common().Net)
	require.Equal(t, coord.NewRect(mil(-5, -5), mil(2000, 2000)), got.CalculateBounds())

	out, err := got.Storage(ctx)
	require.NoError(t, err)
	data, err := out.GetStreamData("Rules6/Data")
	require.NoError(t, err)
	require.Equal(t, []byte("rules"), data)
	for _, path := range []string{"Board6/Data", "Nets6/Data", "Components6/Data", "Polygons6/Data", "Pads6/Data", "Tracks6/Data", "Tracks6/Header"} {
		a, err := reopened.GetStreamData(path)
		require.NoError(t, err, path)
		b, err := out.GetStreamData(path)
		require.NoError(t, err, path)
		require.Equal(t, a, b, path)
	}
}

func TestDocumentKeepsRecordSpelling(t *testing.T) {
	ctx := context.Background()
	root, err := NewDocument().Storage(ctx)
	require.NoError(t, err)

	w := binfmt.NewWriter()
	require.NoError(t, w.WriteCStringBlock(0, binfmt.CString{Text: "|name=GND", Terminated: true}))
	nets := root.CreateStorage("Nets6")
	nets.CreateStream("Data", w.Bytes())

	doc, err := ParseDocument(ctx, root)
	require.NoError(t, err)
	require.Equal(t, "GND", doc.Nets[0].Name)

	out, err := doc.Storage(ctx)
	require.NoError(t, err)
	data, err := out.GetStreamData("Nets6/Data")
	require.NoError(t, err)
	require.Equal(t, w.Bytes(), data, "unchanged records keep their original text")

	doc.Nets[0].Name = "VCC"
	out, err = doc.Storage(ctx)
	require.NoError(t, err)
	data, err = out.GetStreamData("Nets6/Data")
	require.NoError(t, err)
	require.Contains(t, string(data), "NAME=VCC")
}

func TestParseDocumentRequiresHeader(t *testing.T) {
	_, err := ParseDocument(context.Background(), cfb.New())
	require.Error(t, err)
}
