// Package schematic provides the record codecs, container tree and document
// readers/writers for Altium schematic files (.SchLib, .SchDoc).
//
// Every schematic record is stored on disk as a parameter line
// ("|RECORD=13|OWNERPARTID=1|LOCATION.X=..."), except pins, which are
// usually written in a compact binary form. Each record type implements
// Primitive and maps that line to typed fields and back.
package schematic

import (
	"image/color"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// RecordType is the RECORD discriminant of a schematic record.
type RecordType int

// Schematic record types
const (
	RecordAny                RecordType = 0
	RecordComponent          RecordType = 1
	RecordPin                RecordType = 2
	RecordIeeeSymbol         RecordType = 3
	RecordLabel              RecordType = 4
	RecordBezier             RecordType = 5
	RecordPolyline           RecordType = 6
	RecordPolygon            RecordType = 7
	RecordEllipse            RecordType = 8
	RecordPie                RecordType = 9
	RecordRoundRectangle     RecordType = 10
	RecordEllipticalArc      RecordType = 11
	RecordArc                RecordType = 12
	RecordLine               RecordType = 13
	RecordRectangle          RecordType = 14
	RecordSheetSymbol        RecordType = 15
	RecordSheetEntry         RecordType = 16
	RecordPowerObject        RecordType = 17
	RecordPort               RecordType = 18
	RecordNoErc              RecordType = 22
	RecordNetLabel           RecordType = 25
	RecordBus                RecordType = 26
	RecordWire               RecordType = 27
	RecordTextFrame          RecordType = 28
	RecordJunction           RecordType = 29
	RecordImage              RecordType = 30
	RecordSheetHeader        RecordType = 31
	RecordDesignator         RecordType = 34
	RecordBusEntry           RecordType = 37
	RecordParameter          RecordType = 41
	RecordWarningSign        RecordType = 43
	RecordImplementationList RecordType = 44
	RecordImplementation     RecordType = 45
	RecordMapDefinerList     RecordType = 46
	RecordMapDefiner         RecordType = 47
	RecordImplParamList      RecordType = 48
	RecordNote               RecordType = 209
)

var recordNames = map[RecordType]string{
	RecordComponent:          "Component",
	RecordPin:                "Pin",
	RecordIeeeSymbol:         "IeeeSymbol",
	RecordLabel:              "Label",
	RecordBezier:             "Bezier",
	RecordPolyline:           "Polyline",
	RecordPolygon:            "Polygon",
	RecordEllipse:            "Ellipse",
	RecordPie:                "Pie",
	RecordRoundRectangle:     "RoundRectangle",
	RecordEllipticalArc:      "EllipticalArc",
	RecordArc:                "Arc",
	RecordLine:               "Line",
	RecordRectangle:          "Rectangle",
	RecordSheetSymbol:        "SheetSymbol",
	RecordSheetEntry:         "SheetEntry",
	RecordPowerObject:        "PowerObject",
	RecordPort:               "Port",
	RecordNoErc:              "NoErc",
	RecordNetLabel:           "NetLabel",
	RecordBus:                "Bus",
	RecordWire:               "Wire",
	RecordTextFrame:          "TextFrame",
	RecordJunction:           "Junction",
	RecordImage:              "Image",
	RecordSheetHeader:        "SheetHeader",
	RecordDesignator:         "Designator",
	RecordBusEntry:           "BusEntry",
	RecordParameter:          "Parameter",
	RecordWarningSign:        "WarningSign",
	RecordImplementationList: "ImplementationList",
	RecordImplementation:     "Implementation",
	RecordMapDefinerList:     "MapDefinerList",
	RecordMapDefiner:         "MapDefiner",
	RecordImplParamList:      "ImplParamList",
	RecordNote:               "Note",
}

func (r RecordType) String() string {
	if s, ok := recordNames[r]; ok {
		return s
	}
	return "Record" + strconv.Itoa(int(r))
}

// Primitive is one schematic record.
type Primitive interface {
	// Record returns the fixed RECORD discriminant of the type.
	Record() RecordType
	// Common returns the fields shared by every record.
	Common() *Base
	// ImportFromParameters fills the record from a parameter line. It fails
	// with a record mismatch if RECORD names a different type.
	ImportFromParameters(p *params.Collection) error
	// ExportToParameters appends the record's fields to p in file order.
	ExportToParameters(p *params.Collection)
	// CalculateBounds returns the record's extent. Degenerate geometry
	// gives a one-unit box.
	CalculateBounds() coord.Rect
}

// Base holds the ownership and bookkeeping fields common to all records.
type Base struct {
	OwnerIndex           int    // Index of the owning record in the stream (0 when absent)
	OwnerPartID          int    // Part the record belongs to; <= 0 means all parts
	OwnerPartDisplayMode int    // Display mode (alternate graphic) the record belongs to
	IsNotAccessible      bool   // Record cannot be selected in the editor
	GraphicallyLocked    bool   // Record cannot be moved in the editor
	IndexInSheet         int    // Position among siblings, written by the vendor tool
	UniqueID             string // Eight letter identifier

	// ImpliedOwner is set when the reader derived OwnerIndex from record
	// order rather than an OWNERINDEX key. Such indices are not written back.
	ImpliedOwner bool

	// Unmapped holds keys of the imported line that no field consumed. They
	// are appended on export so unknown vendor fields survive a round trip.
	Unmapped *params.Collection
}

// Common returns b, so that embedding Base satisfies part of Primitive.
func (b *Base) Common() *Base { return b }

// importBase checks the RECORD discriminant and reads the shared header
// fields. want == RecordAny accepts any value.
func (b *Base) importBase(p *params.Collection, want RecordType) error {
	got := p.Get("RECORD").AsIntOrDefault(0)
	if want != RecordAny && got != int(want) {
		return diag.Mismatch(int(want), got)
	}
	b.OwnerIndex = p.Get("OWNERINDEX").AsIntOrDefault(0)
	b.IsNotAccessible = p.Get("ISNOTACCESIBLE").AsBool()
	b.IndexInSheet = p.Get("INDEXINSHEET").AsIntOrDefault(0)
	b.OwnerPartID = p.Get("OWNERPARTID").AsIntOrDefault(0)
	b.OwnerPartDisplayMode = p.Get("OWNERPARTDISPLAYMODE").AsIntOrDefault(0)
	b.GraphicallyLocked = p.Get("GRAPHICALLYLOCKED").AsBool()
	b.UniqueID = p.Get("UNIQUEID").AsStringOrDefault("")
	return nil
}

// exportBase writes RECORD and the shared header fields.
func (b *Base) exportBase(p *params.Collection, rec RecordType) {
	p.AddInt("RECORD", int(rec), true)
	if !b.ImpliedOwner {
		p.AddInt("OWNERINDEX", b.OwnerIndex, false)
	}
	p.AddBool("ISNOTACCESIBLE", b.IsNotAccessible, false)
	p.AddInt("INDEXINSHEET", b.IndexInSheet, false)
	p.AddInt("OWNERPARTID", b.OwnerPartID, false)
	p.AddInt("OWNERPARTDISPLAYMODE", b.OwnerPartDisplayMode, false)
	p.AddBool("GRAPHICALLYLOCKED", b.GraphicallyLocked, false)
}

// exportTail writes UNIQUEID and the unmapped keys kept from import.
func (b *Base) exportTail(p *params.Collection) {
	p.AddString("UNIQUEID", b.UniqueID, false)
	p.Merge(b.Unmapped)
}

// HasLocation is the anchor point of a record.
type HasLocation struct {
	Location coord.Point
}

func (h *HasLocation) importLocation(p *params.Collection) {
	h.Location = p.DxpPoint("LOCATION")
}

func (h *HasLocation) exportLocation(p *params.Collection) {
	p.AddDxpPoint("LOCATION", h.Location, false)
}

// HasColor is the line or text color of a record.
type HasColor struct {
	Color color.RGBA
}

func (h *HasColor) importColor(p *params.Collection) {
	h.Color = p.Get("COLOR").AsColorOrDefault(params.ColorFromWin32(0))
}

func (h *HasColor) exportColor(p *params.Collection) {
	p.AddColor("COLOR", h.Color, false)
}

// HasLine is the stroke of an outlined record.
type HasLine struct {
	LineWidth LineWidth
	LineStyle LineStyle
}

func (h *HasLine) importLine(p *params.Collection) {
	h.LineWidth = params.AsEnumOrDefault(p.Get("LINEWIDTH"), LineWidthSmallest)
	h.LineStyle = params.AsEnumOrDefault(p.Get("LINESTYLE"), LineStyleSolid)
}

func (h *HasLine) exportLine(p *params.Collection) {
	params.AddEnum(p, "LINEWIDTH", h.LineWidth, LineWidthSmallest, false)
	params.AddEnum(p, "LINESTYLE", h.LineStyle, LineStyleSolid, false)
}

// HasFill is the interior of a closed shape.
type HasFill struct {
	AreaColor   color.RGBA
	IsSolid     bool
	Transparent bool
}

func (h *HasFill) importFill(p *params.Collection) {
	h.AreaColor = p.Get("AREACOLOR").AsColorOrDefault(params.ColorFromWin32(0))
	h.IsSolid = p.Get("ISSOLID").AsBool()
	h.Transparent = p.Get("TRANSPARENT").AsBool()
}

func (h *HasFill) exportAreaColor(p *params.Collection) {
	p.AddColor("AREACOLOR", h.AreaColor, false)
}

func (h *HasFill) exportSolid(p *params.Collection) {
	p.AddBool("ISSOLID", h.IsSolid, false)
	p.AddBool("TRANSPARENT", h.Transparent, false)
}

// HasFont references an entry of the document font table (1-based).
type HasFont struct {
	FontID int
}

func (h *HasFont) importFont(p *params.Collection) {
	h.FontID = p.Get("FONTID").AsIntOrDefault(0)
}

func (h *HasFont) exportFont(p *params.Collection) {
	p.AddInt("FONTID", h.FontID, false)
}

// HasTextContent is a rotated, justified single-line text.
type HasTextContent struct {
	Text          string
	Orientation   Orientation
	Justification Justification
	IsMirrored    bool
}

func (h *HasTextContent) importTextLayout(p *params.Collection) {
	h.Orientation = params.AsEnumOrDefault(p.Get("ORIENTATION"), Orientation0)
	h.Justification = params.AsEnumOrDefault(p.Get("JUSTIFICATION"), JustifyBottomLeft)
	h.IsMirrored = p.Get("ISMIRRORED").AsBool()
}

func (h *HasTextContent) exportTextLayout(p *params.Collection) {
	params.AddEnum(p, "ORIENTATION", h.Orientation, Orientation0, false)
	params.AddEnum(p, "JUSTIFICATION", h.Justification, JustifyBottomLeft, false)
	p.AddBool("ISMIRRORED", h.IsMirrored, false)
}

// Hidable is implemented by records carrying their own hidden flag.
type Hidable interface {
	IsHidden() bool
}

// importVertices reads LOCATIONCOUNT and the 1-based Xn/Yn pairs.
func importVertices(p *params.Collection) []coord.Point {
	n := p.Count("LOCATIONCOUNT")
	pts := make([]coord.Point, 0, n)
	for i := 1; i <= n; i++ {
		pts = append(pts, coord.Point{
			X: p.DxpCoord(fmtKey("X", i)),
			Y: p.DxpCoord(fmtKey("Y", i)),
		})
	}
	return pts
}

func exportVertices(p *params.Collection, pts []coord.Point) {
	p.AddInt("LOCATIONCOUNT", len(pts), false)
	for i, pt := range pts {
		p.AddDxpCoord(fmtKey("X", i+1), pt.X, false)
		p.AddDxpCoord(fmtKey("Y", i+1), pt.Y, false)
	}
}

// boundsWithLine is r grown by half the stroke width.
func boundsWithLine(r coord.Rect, w LineWidth) coord.Rect {
	return r.Inflate(w.Size() / 2)
}
