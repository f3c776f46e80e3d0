package pcb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/stretchr/testify/require"
)

func mil(x, y float64) coord.Point {
	return coord.Pt(coord.FromMils(x), coord.FromMils(y))
}

// binaryRoundTrip writes prims, reads them back and checks that a second
// write produces the same bytes.
func binaryRoundTrip(t *testing.T, prims ...Primitive) []Primitive {
	t.Helper()
	ctx := context.Background()

	w := binfmt.NewWriter()
	require.NoError(t, WritePrimitives(ctx, w, prims))

	var ws diag.Warnings
	got, err := ReadPrimitives(ctx, binfmt.NewBytesReader(w.Bytes(), "Data"), &ws)
	require.NoError(t, err)
	require.Len(t, got, len(prims))

	w2 := binfmt.NewWriter()
	require.NoError(t, WritePrimitives(ctx, w2, got))
	require.Equal(t, w.Bytes(), w2.Bytes(), "rewrite must be byte identical")
	return got
}

func TestTrackBinary(t *testing.T) {
	track := NewTrack(LayerTopOverlay, mil(-100, 50), mil(100, 50))
	track.Net = 3
	track.Tail = []byte{1, 2, 3}

	got := binaryRoundTrip(t, track)
	require.Equal(t, track, got[0])
	require.False(t, got[0].Common().IsLocked())
}

func TestArcViaFillBinary(t *testing.T) {
	arc := NewArc(LayerTop, mil(10, 20), coord.FromMils(25), 45, 270)
	via := NewVia(mil(0, 0))
	fill := NewFill(LayerBottom, mil(0, 0), mil(40, 20))
	fill.Rotation = 30

	got := binaryRoundTrip(t, arc, via, fill)
	require.Equal(t, arc, got[0])
	require.Equal(t, via, got[1])
	require.Equal(t, fill, got[2])

	require.Equal(t, LayerTop, got[1].(*Via).FromLayer)
	require.Equal(t, LayerBottom, got[1].(*Via).ToLayer)
}

func TestPadBinary(t *testing.T) {
	pad := NewThroughPad("1", mil(0, 0), coord.FromMils(60), coord.FromMils(35))
	pad.Opaque[1] = []byte("keep me")
	pad.SizeShape = make([]byte, 40)
	pad.SizeShape[0] = 9

	got := binaryRoundTrip(t, pad)[0].(*Pad)
	require.Equal(t, "1", got.Name)
	require.Equal(t, pad.Location, got.Location)
	require.Equal(t, pad.SizeTop, got.SizeTop)
	require.Equal(t, pad.HoleSize, got.HoleSize)
	require.Equal(t, ShapeRound, got.ShapeTop)
	require.Equal(t, LayerMultiLayer, got.Layer)
	require.True(t, got.Plated)
	require.Equal(t, []byte("keep me"), got.Opaque[1])
	require.Equal(t, pad.SizeShape, got.SizeShape)
}

func TestTextBinary(t *testing.T) {
	plain := NewText(LayerTopOverlay, mil(0, 100), ".Designator")
	tt := NewText(LayerTopOverlay, mil(0, -100), "Comment")
	tt.Font = &TextFont{Kind: TextTrueType, Bold: true, Name: "Arial"}
	tt.Rotation = 90

	got := binaryRoundTrip(t, plain, tt)

	a := got[0].(*Text)
	require.Nil(t, a.Font)
	require.Equal(t, ".Designator", a.Text)
	require.Equal(t, coord.FromMils(60), a.Height)

	b := got[1].(*Text)
	require.NotNil(t, b.Font)
	require.Equal(t, "Arial", b.Font.Name)
	require.Equal(t, TextTrueType, b.Font.Kind)
	require.True(t, b.Font.Bold)
	require.Equal(t, 90.0, b.Rotation)
}

func TestRegionBinary(t *testing.T) {
	region := NewRegion(LayerTop, mil(0, 0), mil(100, 0), mil(100, 50), mil(0, 50))
	region.Params.AddString("NAME", "Keepout", true)

	got := binaryRoundTrip(t, region)[0].(*Region)
	require.Len(t, got.Outline, 4)
	require.Equal(t, region.Outline, got.Outline)
	require.Equal(t, 0, got.Kind())
	require.False(t, got.IsBoardCutout())
	require.Equal(t, "Keepout", got.Params.Get("NAME").AsStringOrDefault(""))
	require.Equal(t, coord.NewRect(mil(0, 0), mil(100, 50)), got.CalculateBounds())
}

func TestComponentBodyWarns(t *testing.T) {
	ctx := context.Background()
	body := &ComponentBody{}
	body.shapeBlock = shapeBlock{Base: newBase(LayerMechanical1), Params: params.New(), terminated: true}
	body.Tail = []byte{0, 0, 0, 0}

	w := binfmt.NewWriter()
	require.NoError(t, WritePrimitives(ctx, w, []Primitive{body}))

	var ws diag.Warnings
	got, err := ReadPrimitives(ctx, binfmt.NewBytesReader(w.Bytes(), "Data"), &ws)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, ws, 1)
	require.Contains(t, ws[0].Message, "component body")
	require.True(t, got[0].CalculateBounds().IsEmpty())
}

func TestUnknownObjectIsCorrupt(t *testing.T) {
	var ws diag.Warnings
	_, err := ReadPrimitives(context.Background(), binfmt.NewBytesReader([]byte{99, 0, 0, 0, 0}, "Data"), &ws)

	var cf *diag.CorruptFileError
	require.True(t, errors.As(err, &cf), "Expected CorruptFileError, got %v", err)
	require.Equal(t, int64(0), cf.Offset)
}

func TestTruncatedBlockIsCorrupt(t *testing.T) {
	w := binfmt.NewWriter()
	require.NoError(t, WritePrimitives(context.Background(), w, []Primitive{NewTrack(LayerTop, mil(0, 0), mil(1, 1))}))
	data := w.Bytes()[:len(w.Bytes())-4]

	var ws diag.Warnings
	_, err := ReadPrimitives(context.Background(), binfmt.NewBytesReader(data, "Data"), &ws)
	require.Error(t, err)
}

func TestParameterForm(t *testing.T) {
	track := NewTrack(LayerBottom, mil(0, 0), mil(250, 0))
	track.Flags &^= FlagUnlocked
	track.Flags |= FlagKeepOut

	p := ExportRecord(track)
	text := p.String()
	for _, want := range []string{"RECORD=Track", "LAYER=BOTTOM", "X2=250mil", "WIDTH=10mil", "LOCKED=TRUE", "KEEPOUT=TRUE"} {
		require.Contains(t, text, want)
	}
	require.NotContains(t, text, "NET=", "unset indexes are omitted")

	got, err := ImportRecord(params.MustParse(text))
	require.NoError(t, err)
	require.Equal(t, track, got)
	require.True(t, got.Common().IsLocked())
}

func TestParameterRoundTripAllTypes(t *testing.T) {
	text := NewText(LayerTopOverlay, mil(5, 5), "U1")
	text.Font = &TextFont{Kind: TextTrueType, Italic: true, Name: "Arial"}
	prims := []Primitive{
		NewArc(LayerTopOverlay, mil(0, 0), coord.FromMils(10), 0, 360),
		NewSMDPad("A1", LayerTop, mil(12.5, 0), mil(20, 10)),
		NewVia(mil(1, 2)),
		NewTrack(LayerTop, mil(0, 0), mil(0, 100)),
		text,
		NewFill(LayerTop, mil(0, 0), mil(10, 10)),
	}
	for _, prim := range prims {
		t.Run(prim.ObjectID().String(), func(t *testing.T) {
			got, err := ImportRecord(ExportRecord(prim))
			require.NoError(t, err)
			require.Equal(t, ExportRecord(prim).String(), ExportRecord(got).String())
			require.Equal(t, prim.CalculateBounds(), got.CalculateBounds())
		})
	}
}

func TestNumericRecordAccepted(t *testing.T) {
	got, err := ImportRecord(params.MustParse("|RECORD=4|LAYER=TOP|X1=0mil|Y1=0mil|X2=10mil|Y2=0mil|WIDTH=8mil"))
	require.NoError(t, err)
	require.Equal(t, ObjectTrack, got.ObjectID())
	require.Equal(t, coord.FromMils(8), got.(*Track).Width)
}

func TestRecordMismatch(t *testing.T) {
	var track Track
	err := track.ImportFromParameters(params.MustParse("|RECORD=Arc|LAYER=TOP"))
	require.ErrorIs(t, err, diag.ErrRecordMismatch)

	_, err = ImportRecord(params.MustParse("|RECORD=Dimension"))
	var uf *diag.UnsupportedFeatureError
	require.True(t, errors.As(err, &uf), "Expected UnsupportedFeatureError, got %v", err)
}

func TestRegionVertexCountClamped(t *testing.T) {
	p := params.MustParse("|RECORD=Region|LAYER=TOP|VERTEXCOUNT=9000000000000000000|VX0=10mil|VY0=20mil")
	got, err := ImportRecord(p)
	require.NoError(t, err)
	region := got.(*Region)
	require.LessOrEqual(t, len(region.Outline), p.Len())
	require.Equal(t, mil(10, 20), region.Outline[0].Point())
	require.Contains(t, strings.Join(p.Notes(), "\n"), "VERTEXCOUNT: count 9000000000000000000 exceeds")
}

func TestUnknownKeysPreserved(t *testing.T) {
	got, err := ImportRecord(params.MustParse("|RECORD=Via|X=0mil|Y=0mil|DIAMETER=50mil|HOLESIZE=28mil|USERROUTED=TRUE"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(ExportRecord(got).String(), "|USERROUTED=TRUE"))
}

func TestLayerNames(t *testing.T) {
	tests := []struct {
		layer Layer
		name  string
	}{
		{LayerTop, "TOP"},
		{LayerMid1 + 4, "MID5"},
		{LayerBottom, "BOTTOM"},
		{LayerTopOverlay, "TOPOVERLAY"},
		{LayerMechanical1 + 2, "MECHANICAL3"},
		{LayerMultiLayer, "MULTILAYER"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.name, tt.layer.String())
		got, err := ParseLayer(strings.ToLower(tt.name))
		require.NoError(t, err)
		require.Equal(t, tt.layer, got)
	}
	_, err := ParseLayer("NOPE")
	require.Error(t, err)
}

func TestBounds(t *testing.T) {
	track := NewTrack(LayerTop, mil(0, 0), mil(100, 0))
	require.Equal(t, coord.NewRect(mil(-5, -5), mil(105, 5)), track.CalculateBounds())

	circle := NewArc(LayerTop, mil(0, 0), coord.FromMils(50), 0, 360)
	require.Equal(t, coord.NewRect(mil(-55, -55), mil(55, 55)), circle.CalculateBounds(), "arc bounds include half the width")

	pad := NewSMDPad("1", LayerTop, mil(0, 0), mil(40, 20))
	pad.Rotation = 90
	require.Equal(t, coord.NewRect(mil(-10, -20), mil(10, 20)), pad.CalculateBounds())
}
