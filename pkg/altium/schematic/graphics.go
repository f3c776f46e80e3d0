package schematic

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Line is a straight segment.
type Line struct {
	Base
	HasLocation
	HasColor
	HasLine
	Corner coord.Point
}

// NewLine returns a line with the editor's defaults.
func NewLine(from, to coord.Point) *Line {
	return &Line{
		Base:        Base{OwnerPartID: 1},
		HasLocation: HasLocation{Location: from},
		HasColor:    HasColor{Color: DefaultLineColor},
		HasLine:     HasLine{LineWidth: LineWidthSmall},
		Corner:      to,
	}
}

func (l *Line) Record() RecordType { return RecordLine }

func (l *Line) ImportFromParameters(p *params.Collection) error {
	if err := l.importBase(p, RecordLine); err != nil {
		return err
	}
	l.importLocation(p)
	l.Corner = p.DxpPoint("CORNER")
	l.importLine(p)
	l.importColor(p)
	return nil
}

func (l *Line) ExportToParameters(p *params.Collection) {
	l.exportBase(p, RecordLine)
	l.exportLocation(p)
	p.AddDxpPoint("CORNER", l.Corner, false)
	l.exportLine(p)
	l.exportColor(p)
	l.exportTail(p)
}

func (l *Line) CalculateBounds() coord.Rect {
	return boundsWithLine(coord.BoundsOf(l.Location, l.Corner), l.LineWidth)
}

// vertexShape is the shared body of the vertex list records.
type vertexShape struct {
	Base
	HasColor
	HasLine
	Vertices []coord.Point
}

func (v *vertexShape) CalculateBounds() coord.Rect {
	return boundsWithLine(coord.BoundsOf(v.Vertices...), v.LineWidth)
}

// Polyline is an open chain of segments with optional end shapes.
type Polyline struct {
	vertexShape
	StartLineShape LineShape
	EndLineShape   LineShape
	LineShapeSize  LineWidth
}

// NewPolyline returns a polyline with the editor's defaults.
func NewPolyline(pts ...coord.Point) *Polyline {
	return &Polyline{vertexShape: vertexShape{
		Base:     Base{OwnerPartID: 1},
		HasColor: HasColor{Color: DefaultLineColor},
		HasLine:  HasLine{LineWidth: LineWidthSmall},
		Vertices: pts,
	}}
}

func (l *Polyline) Record() RecordType { return RecordPolyline }

func (l *Polyline) ImportFromParameters(p *params.Collection) error {
	if err := l.importBase(p, RecordPolyline); err != nil {
		return err
	}
	l.importLine(p)
	l.importColor(p)
	l.StartLineShape = params.AsEnumOrDefault(p.Get("STARTLINESHAPE"), LineShapeNone)
	l.EndLineShape = params.AsEnumOrDefault(p.Get("ENDLINESHAPE"), LineShapeNone)
	l.LineShapeSize = params.AsEnumOrDefault(p.Get("LINESHAPESIZE"), LineWidthSmallest)
	l.Vertices = importVertices(p)
	return nil
}

func (l *Polyline) ExportToParameters(p *params.Collection) {
	l.exportBase(p, RecordPolyline)
	l.exportLine(p)
	l.exportColor(p)
	params.AddEnum(p, "STARTLINESHAPE", l.StartLineShape, LineShapeNone, false)
	params.AddEnum(p, "ENDLINESHAPE", l.EndLineShape, LineShapeNone, false)
	params.AddEnum(p, "LINESHAPESIZE", l.LineShapeSize, LineWidthSmallest, false)
	exportVertices(p, l.Vertices)
	l.exportTail(p)
}

// Polygon is a closed, optionally filled vertex list.
type Polygon struct {
	vertexShape
	HasFill
}

// NewPolygon returns a polygon with the editor's defaults.
func NewPolygon(pts ...coord.Point) *Polygon {
	return &Polygon{
		vertexShape: vertexShape{
			Base:     Base{OwnerPartID: 1},
			HasColor: HasColor{Color: DefaultLineColor},
			HasLine:  HasLine{LineWidth: LineWidthSmall},
			Vertices: pts,
		},
		HasFill: HasFill{AreaColor: DefaultAreaColor, IsSolid: true},
	}
}

func (g *Polygon) Record() RecordType { return RecordPolygon }

func (g *Polygon) ImportFromParameters(p *params.Collection) error {
	if err := g.importBase(p, RecordPolygon); err != nil {
		return err
	}
	g.importLine(p)
	g.importColor(p)
	g.importFill(p)
	g.Vertices = importVertices(p)
	return nil
}

func (g *Polygon) ExportToParameters(p *params.Collection) {
	g.exportBase(p, RecordPolygon)
	g.exportLine(p)
	g.exportColor(p)
	g.exportAreaColor(p)
	g.exportSolid(p)
	exportVertices(p, g.Vertices)
	g.exportTail(p)
}

// Bezier is a chain of cubic Bezier segments sharing end points. Its
// control points lie on the hull, so their bounds contain the curve.
type Bezier struct {
	vertexShape
}

// NewBezier returns a Bezier curve with the editor's defaults.
func NewBezier(pts ...coord.Point) *Bezier {
	return &Bezier{vertexShape{
		Base:     Base{OwnerPartID: 1},
		HasColor: HasColor{Color: DefaultLineColor},
		HasLine:  HasLine{LineWidth: LineWidthSmall},
		Vertices: pts,
	}}
}

func (b *Bezier) Record() RecordType { return RecordBezier }

func (b *Bezier) ImportFromParameters(p *params.Collection) error {
	if err := b.importBase(p, RecordBezier); err != nil {
		return err
	}
	b.importLine(p)
	b.importColor(p)
	b.Vertices = importVertices(p)
	return nil
}

func (b *Bezier) ExportToParameters(p *params.Collection) {
	b.exportBase(p, RecordBezier)
	b.exportLine(p)
	b.exportColor(p)
	exportVertices(p, b.Vertices)
	b.exportTail(p)
}

// Wire is an electrical connection drawn on a sheet.
type Wire struct {
	vertexShape
}

// NewWire returns a wire with the editor's defaults.
func NewWire(pts ...coord.Point) *Wire {
	return &Wire{vertexShape{
		Base:     Base{OwnerPartID: -1},
		HasColor: HasColor{Color: DefaultLineColor},
		HasLine:  HasLine{LineWidth: LineWidthSmall},
		Vertices: pts,
	}}
}

func (w *Wire) Record() RecordType { return RecordWire }

func (w *Wire) ImportFromParameters(p *params.Collection) error {
	if err := w.importBase(p, RecordWire); err != nil {
		return err
	}
	w.importLine(p)
	w.importColor(p)
	w.Vertices = importVertices(p)
	return nil
}

func (w *Wire) ExportToParameters(p *params.Collection) {
	w.exportBase(p, RecordWire)
	w.exportLine(p)
	w.exportColor(p)
	exportVertices(p, w.Vertices)
	w.exportTail(p)
}

// Bus is a bundle of nets drawn as a thick line.
type Bus struct {
	vertexShape
}

// NewBus returns a bus with the editor's defaults.
func NewBus(pts ...coord.Point) *Bus {
	return &Bus{vertexShape{
		Base:     Base{OwnerPartID: -1},
		HasColor: HasColor{Color: DefaultLineColor},
		HasLine:  HasLine{LineWidth: LineWidthMedium},
		Vertices: pts,
	}}
}

func (b *Bus) Record() RecordType { return RecordBus }

func (b *Bus) ImportFromParameters(p *params.Collection) error {
	if err := b.importBase(p, RecordBus); err != nil {
		return err
	}
	b.importLine(p)
	b.importColor(p)
	b.Vertices = importVertices(p)
	return nil
}

func (b *Bus) ExportToParameters(p *params.Collection) {
	b.exportBase(p, RecordBus)
	b.exportLine(p)
	b.exportColor(p)
	exportVertices(p, b.Vertices)
	b.exportTail(p)
}

// BusEntry is the diagonal stub joining a wire to a bus.
type BusEntry struct {
	Base
	HasLocation
	HasColor
	HasLine
	Corner coord.Point
}

// NewBusEntry returns a bus entry with the editor's defaults.
func NewBusEntry(from, to coord.Point) *BusEntry {
	return &BusEntry{
		Base:        Base{OwnerPartID: -1},
		HasLocation: HasLocation{Location: from},
		HasColor:    HasColor{Color: DefaultLineColor},
		HasLine:     HasLine{LineWidth: LineWidthSmall},
		Corner:      to,
	}
}

func (e *BusEntry) Record() RecordType { return RecordBusEntry }

func (e *BusEntry) ImportFromParameters(p *params.Collection) error {
	if err := e.importBase(p, RecordBusEntry); err != nil {
		return err
	}
	e.importLocation(p)
	e.Corner = p.DxpPoint("CORNER")
	e.importLine(p)
	e.importColor(p)
	return nil
}

func (e *BusEntry) ExportToParameters(p *params.Collection) {
	e.exportBase(p, RecordBusEntry)
	e.exportLocation(p)
	p.AddDxpPoint("CORNER", e.Corner, false)
	e.exportLine(p)
	e.exportColor(p)
	e.exportTail(p)
}

func (e *BusEntry) CalculateBounds() coord.Rect {
	return boundsWithLine(coord.BoundsOf(e.Location, e.Corner), e.LineWidth)
}

// Junction is a connection dot where wires meet.
type Junction struct {
	Base
	HasLocation
	HasColor
	Locked bool
}

// NewJunction returns a junction with the editor's defaults.
func NewJunction(at coord.Point) *Junction {
	return &Junction{
		Base:        Base{OwnerPartID: -1},
		HasLocation: HasLocation{Location: at},
		HasColor:    HasColor{Color: DefaultLineColor},
	}
}

func (j *Junction) Record() RecordType { return RecordJunction }

func (j *Junction) ImportFromParameters(p *params.Collection) error {
	if err := j.importBase(p, RecordJunction); err != nil {
		return err
	}
	j.importLocation(p)
	j.importColor(p)
	j.Locked = p.Get("LOCKED").AsBool()
	return nil
}

func (j *Junction) ExportToParameters(p *params.Collection) {
	j.exportBase(p, RecordJunction)
	j.exportLocation(p)
	j.exportColor(p)
	p.AddBool("LOCKED", j.Locked, false)
	j.exportTail(p)
}

func (j *Junction) CalculateBounds() coord.Rect {
	return coord.Around(j.Location, coord.FromMils(20))
}

// Rectangle is an axis-aligned box between Location and Corner.
type Rectangle struct {
	Base
	HasLocation
	HasColor
	HasLine
	HasFill
	Corner coord.Point
}

// NewRectangle returns a rectangle with the editor's defaults.
func NewRectangle(from, to coord.Point) *Rectangle {
	return &Rectangle{
		Base:        Base{OwnerPartID: 1},
		HasLocation: HasLocation{Location: from},
		HasColor:    HasColor{Color: DefaultLineColor},
		HasLine:     HasLine{LineWidth: LineWidthSmallest},
		HasFill:     HasFill{AreaColor: DefaultAreaColor, IsSolid: true},
		Corner:      to,
	}
}

func (r *Rectangle) Record() RecordType { return RecordRectangle }

func (r *Rectangle) ImportFromParameters(p *params.Collection) error {
	if err := r.importBase(p, RecordRectangle); err != nil {
		return err
	}
	r.importRect(p)
	return nil
}

func (r *Rectangle) importRect(p *params.Collection) {
	r.importLocation(p)
	r.Corner = p.DxpPoint("CORNER")
	r.importLine(p)
	r.importColor(p)
	r.importFill(p)
}

func (r *Rectangle) ExportToParameters(p *params.Collection) {
	r.exportBase(p, RecordRectangle)
	r.exportRect(p)
	r.exportTail(p)
}

func (r *Rectangle) exportRect(p *params.Collection) {
	r.exportLocation(p)
	p.AddDxpPoint("CORNER", r.Corner, false)
	r.exportLine(p)
	r.exportColor(p)
	r.exportAreaColor(p)
	r.exportSolid(p)
}

func (r *Rectangle) CalculateBounds() coord.Rect {
	return coord.BoundsOf(r.Location, r.Corner)
}

// RoundRectangle is a rectangle with elliptical corners.
type RoundRectangle struct {
	Rectangle
	CornerXRadius coord.Coord
	CornerYRadius coord.Coord
}

// NewRoundRectangle returns a rounded rectangle with the editor's defaults.
func NewRoundRectangle(from, to coord.Point) *RoundRectangle {
	return &RoundRectangle{
		Rectangle:     *NewRectangle(from, to),
		CornerXRadius: coord.FromDxp(2),
		CornerYRadius: coord.FromDxp(2),
	}
}

func (r *RoundRectangle) Record() RecordType { return RecordRoundRectangle }

func (r *RoundRectangle) ImportFromParameters(p *params.Collection) error {
	if err := r.importBase(p, RecordRoundRectangle); err != nil {
		return err
	}
	r.importRect(p)
	r.CornerXRadius = p.DxpCoord("CORNERXRADIUS")
	r.CornerYRadius = p.DxpCoord("CORNERYRADIUS")
	return nil
}

func (r *RoundRectangle) ExportToParameters(p *params.Collection) {
	r.exportBase(p, RecordRoundRectangle)
	r.exportLocation(p)
	p.AddDxpPoint("CORNER", r.Corner, false)
	p.AddDxpCoord("CORNERXRADIUS", r.CornerXRadius, false)
	p.AddDxpCoord("CORNERYRADIUS", r.CornerYRadius, false)
	r.exportLine(p)
	r.exportColor(p)
	r.exportAreaColor(p)
	r.exportSolid(p)
	r.exportTail(p)
}

// Image is a bitmap stretched over a rectangle. Embedded image data lives
// in the document's Storage stream under FileName.
type Image struct {
	Rectangle
	KeepAspect bool
	EmbedImage bool
	FileName   string
}

// NewImage returns an embedded image with the editor's defaults.
func NewImage(from, to coord.Point, fileName string) *Image {
	img := &Image{
		Rectangle:  *NewRectangle(from, to),
		KeepAspect: true,
		EmbedImage: true,
		FileName:   fileName,
	}
	img.IsSolid = false
	return img
}

func (i *Image) Record() RecordType { return RecordImage }

func (i *Image) ImportFromParameters(p *params.Collection) error {
	if err := i.importBase(p, RecordImage); err != nil {
		return err
	}
	i.importRect(p)
	i.KeepAspect = p.Get("KEEPASPECT").AsBool()
	i.EmbedImage = p.Get("EMBEDIMAGE").AsBool()
	i.FileName = p.Get("FILENAME").AsStringOrDefault("")
	return nil
}

func (i *Image) ExportToParameters(p *params.Collection) {
	i.exportBase(p, RecordImage)
	i.exportRect(p)
	p.AddBool("KEEPASPECT", i.KeepAspect, false)
	p.AddBool("EMBEDIMAGE", i.EmbedImage, false)
	p.AddString("FILENAME", i.FileName, false)
	i.exportTail(p)
}

// TextFrame is multi-line text wrapped inside a rectangle. Line breaks are
// stored as "~1".
type TextFrame struct {
	Rectangle
	HasFont
	Text       string
	TextColor  int
	Alignment  TextAlignment
	WordWrap   bool
	ClipToRect bool
	ShowBorder bool
	TextMargin coord.Coord
}

// NewTextFrame returns a text frame with the editor's defaults.
func NewTextFrame(from, to coord.Point) *TextFrame {
	f := &TextFrame{
		Rectangle:  *NewRectangle(from, to),
		HasFont:    HasFont{FontID: 1},
		Alignment:  AlignLeft,
		WordWrap:   true,
		ClipToRect: true,
		TextMargin: coord.FromMils(5),
	}
	f.AreaColor = params.ColorFromWin32(16777215)
	f.Color = params.ColorFromWin32(0)
	return f
}

func (f *TextFrame) Record() RecordType { return RecordTextFrame }

func (f *TextFrame) ImportFromParameters(p *params.Collection) error {
	if err := f.importBase(p, RecordTextFrame); err != nil {
		return err
	}
	f.importFrame(p)
	return nil
}

func (f *TextFrame) importFrame(p *params.Collection) {
	f.importRect(p)
	f.importFont(p)
	f.Text = p.Get("TEXT").AsStringOrDefault("")
	f.TextColor = p.Get("TEXTCOLOR").AsIntOrDefault(0)
	f.Alignment = params.AsEnumOrDefault(p.Get("ALIGNMENT"), AlignCenter)
	f.WordWrap = p.Get("WORDWRAP").AsBool()
	f.ClipToRect = p.Get("CLIPTORECT").AsBool()
	f.ShowBorder = p.Get("SHOWBORDER").AsBool()
	f.TextMargin = p.DxpCoord("TEXTMARGIN")
}

func (f *TextFrame) ExportToParameters(p *params.Collection) {
	f.exportBase(p, RecordTextFrame)
	f.exportFrame(p)
	f.exportTail(p)
}

func (f *TextFrame) exportFrame(p *params.Collection) {
	f.exportRect(p)
	f.exportFont(p)
	params.AddEnum(p, "ALIGNMENT", f.Alignment, AlignCenter, false)
	p.AddBool("WORDWRAP", f.WordWrap, false)
	p.AddBool("CLIPTORECT", f.ClipToRect, false)
	p.AddString("TEXT", f.Text, false)
	p.AddBool("SHOWBORDER", f.ShowBorder, false)
	p.AddDxpCoord("TEXTMARGIN", f.TextMargin, false)
	p.AddInt("TEXTCOLOR", f.TextColor, false)
}

// Lines returns the frame text split at the stored line breaks.
func (f *TextFrame) Lines() []string {
	return splitFrameText(f.Text)
}

func splitFrameText(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "~1")
}

// Note is a text frame with an author that can be collapsed.
type Note struct {
	TextFrame
	Author    string
	Collapsed bool
}

// NewNote returns a note with the editor's defaults.
func NewNote(from, to coord.Point, author string) *Note {
	n := &Note{TextFrame: *NewTextFrame(from, to), Author: author}
	n.AreaColor = params.ColorFromWin32(13434879)
	return n
}

func (n *Note) Record() RecordType { return RecordNote }

func (n *Note) ImportFromParameters(p *params.Collection) error {
	if err := n.importBase(p, RecordNote); err != nil {
		return err
	}
	n.importFrame(p)
	n.Author = p.Get("AUTHOR").AsStringOrDefault("")
	n.Collapsed = p.Get("COLLAPSED").AsBool()
	return nil
}

func (n *Note) ExportToParameters(p *params.Collection) {
	n.exportBase(p, RecordNote)
	n.exportFrame(p)
	p.AddString("AUTHOR", n.Author, false)
	p.AddBool("COLLAPSED", n.Collapsed, false)
	n.exportTail(p)
}

// Ellipse is a full ellipse centered on Location.
type Ellipse struct {
	Base
	HasLocation
	HasColor
	HasLine
	HasFill
	Radius          coord.Coord
	SecondaryRadius coord.Coord
}

// NewEllipse returns an ellipse with the editor's defaults.
func NewEllipse(center coord.Point, rx, ry coord.Coord) *Ellipse {
	return &Ellipse{
		Base:            Base{OwnerPartID: 1},
		HasLocation:     HasLocation{Location: center},
		HasColor:        HasColor{Color: DefaultLineColor},
		HasLine:         HasLine{LineWidth: LineWidthSmallest},
		HasFill:         HasFill{AreaColor: DefaultAreaColor, IsSolid: true},
		Radius:          rx,
		SecondaryRadius: ry,
	}
}

func (e *Ellipse) Record() RecordType { return RecordEllipse }

func (e *Ellipse) ImportFromParameters(p *params.Collection) error {
	if err := e.importBase(p, RecordEllipse); err != nil {
		return err
	}
	e.importLocation(p)
	e.Radius = p.DxpCoord("RADIUS")
	e.SecondaryRadius = p.DxpCoord("SECONDARYRADIUS")
	e.importLine(p)
	e.importColor(p)
	e.importFill(p)
	return nil
}

func (e *Ellipse) ExportToParameters(p *params.Collection) {
	e.exportBase(p, RecordEllipse)
	e.exportLocation(p)
	p.AddDxpCoord("RADIUS", e.Radius, false)
	p.AddDxpCoord("SECONDARYRADIUS", e.SecondaryRadius, false)
	e.exportLine(p)
	e.exportColor(p)
	e.exportAreaColor(p)
	e.exportSolid(p)
	e.exportTail(p)
}

func (e *Ellipse) CalculateBounds() coord.Rect {
	return coord.BoundsOf(
		e.Location.Offset(-e.Radius, -e.SecondaryRadius),
		e.Location.Offset(e.Radius, e.SecondaryRadius),
	)
}

// Arc is a circular arc. Angles are in degrees, counter-clockwise from +x.
type Arc struct {
	Base
	HasLocation
	HasColor
	HasLine
	Radius     coord.Coord
	StartAngle float64
	EndAngle   float64
}

// NewArc returns an arc with the editor's defaults.
func NewArc(center coord.Point, radius coord.Coord, start, end float64) *Arc {
	return &Arc{
		Base:        Base{OwnerPartID: 1},
		HasLocation: HasLocation{Location: center},
		HasColor:    HasColor{Color: DefaultLineColor},
		HasLine:     HasLine{LineWidth: LineWidthSmall},
		Radius:      radius,
		StartAngle:  start,
		EndAngle:    end,
	}
}

func (a *Arc) Record() RecordType { return RecordArc }

func (a *Arc) ImportFromParameters(p *params.Collection) error {
	if err := a.importBase(p, RecordArc); err != nil {
		return err
	}
	a.importArc(p)
	return nil
}

func (a *Arc) importArc(p *params.Collection) {
	a.importLocation(p)
	a.Radius = p.DxpCoord("RADIUS")
	a.StartAngle = p.Get("STARTANGLE").AsDoubleOrDefault(0)
	a.EndAngle = p.Get("ENDANGLE").AsDoubleOrDefault(0)
	a.importLine(p)
	a.importColor(p)
}

func (a *Arc) ExportToParameters(p *params.Collection) {
	a.exportBase(p, RecordArc)
	a.exportLocation(p)
	p.AddDxpCoord("RADIUS", a.Radius, false)
	a.exportAngles(p)
	a.exportLine(p)
	a.exportColor(p)
	a.exportTail(p)
}

func (a *Arc) exportAngles(p *params.Collection) {
	p.AddDouble("STARTANGLE", a.StartAngle, false)
	p.AddDouble("ENDANGLE", a.EndAngle, false)
}

func (a *Arc) CalculateBounds() coord.Rect {
	return boundsWithLine(coord.ArcBounds(a.Location, a.Radius, a.Radius, a.StartAngle, a.EndAngle), a.LineWidth)
}

// EllipticalArc is an arc of an axis-aligned ellipse.
type EllipticalArc struct {
	Arc
	SecondaryRadius coord.Coord
}

// NewEllipticalArc returns an elliptical arc with the editor's defaults.
func NewEllipticalArc(center coord.Point, rx, ry coord.Coord, start, end float64) *EllipticalArc {
	return &EllipticalArc{Arc: *NewArc(center, rx, start, end), SecondaryRadius: ry}
}

func (a *EllipticalArc) Record() RecordType { return RecordEllipticalArc }

func (a *EllipticalArc) ImportFromParameters(p *params.Collection) error {
	if err := a.importBase(p, RecordEllipticalArc); err != nil {
		return err
	}
	a.importArc(p)
	a.SecondaryRadius = p.DxpCoord("SECONDARYRADIUS")
	return nil
}

func (a *EllipticalArc) ExportToParameters(p *params.Collection) {
	a.exportBase(p, RecordEllipticalArc)
	a.exportLocation(p)
	p.AddDxpCoord("RADIUS", a.Radius, false)
	p.AddDxpCoord("SECONDARYRADIUS", a.SecondaryRadius, false)
	a.exportAngles(p)
	a.exportLine(p)
	a.exportColor(p)
	a.exportTail(p)
}

func (a *EllipticalArc) CalculateBounds() coord.Rect {
	return boundsWithLine(coord.ArcBounds(a.Location, a.Radius, a.SecondaryRadius, a.StartAngle, a.EndAngle), a.LineWidth)
}

// Pie is a filled circular sector.
type Pie struct {
	Arc
	HasFill
}

// NewPie returns a pie with the editor's defaults.
func NewPie(center coord.Point, radius coord.Coord, start, end float64) *Pie {
	return &Pie{
		Arc:     *NewArc(center, radius, start, end),
		HasFill: HasFill{AreaColor: DefaultAreaColor, IsSolid: true},
	}
}

func (s *Pie) Record() RecordType { return RecordPie }

func (s *Pie) ImportFromParameters(p *params.Collection) error {
	if err := s.importBase(p, RecordPie); err != nil {
		return err
	}
	s.importArc(p)
	s.importFill(p)
	return nil
}

func (s *Pie) ExportToParameters(p *params.Collection) {
	s.exportBase(p, RecordPie)
	s.exportLocation(p)
	p.AddDxpCoord("RADIUS", s.Radius, false)
	s.exportAngles(p)
	s.exportLine(p)
	s.exportColor(p)
	s.exportAreaColor(p)
	s.exportSolid(p)
	s.exportTail(p)
}

// CalculateBounds includes the center, which closes the sector.
func (s *Pie) CalculateBounds() coord.Rect {
	return coord.Union(s.Arc.CalculateBounds(), coord.BoundsOf(s.Location))
}
