package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/pcb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mil(x, y float64) coord.Point {
	return coord.Pt(coord.FromMils(x), coord.FromMils(y))
}

func footprintFile(t *testing.T) *altium.File {
	t.Helper()
	ctx := context.Background()
	c := pcb.NewComponent("SOT23")
	c.Add(pcb.NewSMDPad("1", pcb.LayerTop, mil(-40, -40), mil(20, 30)))
	c.Add(pcb.NewSMDPad("2", pcb.LayerTop, mil(40, -40), mil(20, 30)))
	c.Add(pcb.NewSMDPad("3", pcb.LayerTop, mil(0, 40), mil(20, 30)))
	c.Add(pcb.NewTrack(pcb.LayerTopOverlay, mil(-60, 0), mil(60, 0)))
	lib := pcb.NewLibrary()
	require.NoError(t, lib.Add(c))

	root, err := lib.Storage(ctx)
	require.NoError(t, err)
	f, err := altium.Decode(ctx, root, altium.KindUnknown)
	require.NoError(t, err)
	f.Path = "sot23.PcbLib"
	return f
}

var fixedTime = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func TestBuildPcbLib(t *testing.T) {
	doc, err := Build(footprintFile(t), Options{Now: fixedTime})
	require.NoError(t, err)

	_, err = uuid.Parse(doc.Metadata.ExportID)
	require.NoError(t, err)
	require.Equal(t, "PcbLib", doc.Metadata.FileKind)
	require.Equal(t, "sot23.PcbLib", doc.Metadata.SourceFile)
	require.Equal(t, fixedTime(), doc.Metadata.ExportedAt)
	require.Empty(t, doc.RawMcdf)

	lib := doc.ParsedModel.PcbLib
	require.NotNil(t, lib)
	require.Nil(t, doc.ParsedModel.SchLib)
	require.Len(t, lib.Footprints, 1)
	fp := lib.Footprints[0]
	require.Equal(t, "SOT23", fp.Name)
	require.Len(t, fp.Primitives, 4)
	require.Equal(t, "Pad", fp.Primitives[0].ObjectType)
	require.Equal(t, Field{Name: "RECORD", Value: "Pad"}, fp.Primitives[0].Parameters[0])
	require.Equal(t, Bounds{MinX: -65, MinY: -55, MaxX: 65, MaxY: 55}, fp.Bounds)
}

func TestBuildIncludesRawStreams(t *testing.T) {
	doc, err := Build(footprintFile(t), Options{IncludeRaw: true})
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, s := range doc.RawMcdf {
		paths[s.Path] = true
		require.Equal(t, s.Size, len(s.Data))
	}
	require.True(t, paths["FileHeader"])
	require.True(t, paths["Library/Data"])
	require.True(t, paths["SOT23/Data"])
}

func TestWriteJSON(t *testing.T) {
	doc, err := Build(footprintFile(t), Options{Now: fixedTime})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, "json", true))

	var generic map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &generic))
	for _, key := range []string{"metadata", "parsedModel"} {
		require.Contains(t, generic, key)
	}
	require.NotContains(t, generic, "rawMcdf", "raw streams are omitted unless requested")
	model := generic["parsedModel"].(map[string]any)
	require.Contains(t, model, "pcbLib")
	require.NotContains(t, model, "schDoc")
}

func TestMsgpackRoundTrip(t *testing.T) {
	doc, err := Build(footprintFile(t), Options{Now: fixedTime})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, "msgpack", false))
	got, err := ReadMsgpack(&buf)
	require.NoError(t, err)
	require.Equal(t, doc.Metadata.ExportID, got.Metadata.ExportID)
	require.True(t, doc.Metadata.ExportedAt.Equal(got.Metadata.ExportedAt))
	require.Equal(t, doc.ParsedModel.PcbLib.Footprints, got.ParsedModel.PcbLib.Footprints)
}

func TestWriteXLSX(t *testing.T) {
	doc, err := Build(footprintFile(t), Options{Now: fixedTime})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, "xlsx", false))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ObjectsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5, "header plus one row per primitive")
	require.Equal(t, "Container", rows[0][0])
	require.Equal(t, "SOT23", rows[1][0])
	require.Equal(t, "Pad", rows[1][2])

	kind, err := f.GetCellValue(MetadataSheet, "B3")
	require.NoError(t, err)
	require.Equal(t, "PcbLib", kind)
	require.NotContains(t, f.GetSheetList(), WarningsSheet)
}

func TestUnknownFormat(t *testing.T) {
	require.Error(t, Write(&bytes.Buffer{}, &Document{}, "csv", false))
}

func TestBuildSchDoc(t *testing.T) {
	ctx := context.Background()
	sch := schematic.NewDocument()
	comp := schematic.NewComponent()
	comp.LibReference = "RES"
	ci, _ := sch.Tree.Add(0, comp)
	sch.Tree.Add(ci, schematic.NewPin("1", "1", mil(0, 0), coord.FromDxp(10)))

	root, err := sch.Storage(ctx)
	require.NoError(t, err)
	f, err := altium.Decode(ctx, root, altium.KindUnknown)
	require.NoError(t, err)
	require.Equal(t, altium.KindSchDoc, f.Kind)

	doc, err := Build(f, Options{})
	require.NoError(t, err)
	m := doc.ParsedModel.SchDoc
	require.NotNil(t, m)
	require.Len(t, m.Records, 3)
	require.Equal(t, "SheetHeader", m.Records[0].ObjectType)
	require.Nil(t, m.Records[0].Owner)
	require.Equal(t, "Pin", m.Records[2].ObjectType)
	require.NotNil(t, m.Records[2].Owner)
	require.Equal(t, 1, *m.Records[2].Owner)

	rows := doc.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, "Sheet", rows[0].Container)
}
