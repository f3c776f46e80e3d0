package pcb

import (
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Fixed part of each geometry block, header included
const (
	trackSize = headerSize + 5*4
	arcSize   = headerSize + 3*4 + 2*8 + 4
	viaSize   = headerSize + 4*4 + 2
	fillSize  = headerSize + 4*4 + 8
)

// Track is a straight copper or graphic segment.
type Track struct {
	Base
	Start, End coord.Point
	Width      coord.Coord
	Tail       []byte // Bytes after the known fields, written back unchanged
}

// NewTrack returns a 10 mil track on layer.
func NewTrack(layer Layer, start, end coord.Point) *Track {
	return &Track{Base: newBase(layer), Start: start, End: end, Width: coord.FromMils(10)}
}

func (t *Track) ObjectID() ObjectID { return ObjectTrack }

func (t *Track) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectTrack, trackSize)
	if err != nil {
		return err
	}
	if err := t.readHeader(br); err != nil {
		return err
	}
	if t.Start, err = readPoint(br); err != nil {
		return err
	}
	if t.End, err = readPoint(br); err != nil {
		return err
	}
	if t.Width, err = readCoord(br); err != nil {
		return err
	}
	t.Tail, err = readTail(br)
	return err
}

func (t *Track) writeBinary(w *binfmt.Writer) error {
	return w.WriteBlock(0, func() error {
		t.writeHeader(w)
		writePoint(w, t.Start)
		writePoint(w, t.End)
		w.WriteInt32(int32(t.Width))
		w.Write(t.Tail)
		return nil
	})
}

func (t *Track) ImportFromParameters(p *params.Collection) error {
	if err := t.importBase(p, ObjectTrack); err != nil {
		return err
	}
	t.Start = milPoint(p, "X1", "Y1")
	t.End = milPoint(p, "X2", "Y2")
	t.Width = p.Get("WIDTH").AsCoordOrDefault(0)
	t.Unmapped = unmapped(p)
	return nil
}

func (t *Track) ExportToParameters(p *params.Collection) {
	t.exportBase(p, ObjectTrack)
	addMilPoint(p, "X1", "Y1", t.Start)
	addMilPoint(p, "X2", "Y2", t.End)
	p.AddMilCoord("WIDTH", t.Width, true)
	t.exportTail(p)
}

// CalculateBounds includes the round ends of the track.
func (t *Track) CalculateBounds() coord.Rect {
	return coord.BoundsOf(t.Start, t.End).Inflate(t.Width / 2)
}

// Arc is a circular arc swept counter-clockwise from StartAngle to
// EndAngle degrees.
type Arc struct {
	Base
	Location   coord.Point
	Radius     coord.Coord
	StartAngle float64
	EndAngle   float64
	Width      coord.Coord
	Tail       []byte
}

// NewArc returns a 10 mil arc on layer.
func NewArc(layer Layer, center coord.Point, radius coord.Coord, start, end float64) *Arc {
	return &Arc{
		Base:       newBase(layer),
		Location:   center,
		Radius:     radius,
		StartAngle: start,
		EndAngle:   end,
		Width:      coord.FromMils(10),
	}
}

func (a *Arc) ObjectID() ObjectID { return ObjectArc }

func (a *Arc) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectArc, arcSize)
	if err != nil {
		return err
	}
	if err := a.readHeader(br); err != nil {
		return err
	}
	if a.Location, err = readPoint(br); err != nil {
		return err
	}
	if a.Radius, err = readCoord(br); err != nil {
		return err
	}
	if a.StartAngle, err = br.ReadDouble(); err != nil {
		return err
	}
	if a.EndAngle, err = br.ReadDouble(); err != nil {
		return err
	}
	if a.Width, err = readCoord(br); err != nil {
		return err
	}
	a.Tail, err = readTail(br)
	return err
}

func (a *Arc) writeBinary(w *binfmt.Writer) error {
	return w.WriteBlock(0, func() error {
		a.writeHeader(w)
		writePoint(w, a.Location)
		w.WriteInt32(int32(a.Radius))
		w.WriteDouble(a.StartAngle)
		w.WriteDouble(a.EndAngle)
		w.WriteInt32(int32(a.Width))
		w.Write(a.Tail)
		return nil
	})
}

func (a *Arc) ImportFromParameters(p *params.Collection) error {
	if err := a.importBase(p, ObjectArc); err != nil {
		return err
	}
	a.Location = milPoint(p, "LOCATION.X", "LOCATION.Y")
	a.Radius = p.Get("RADIUS").AsCoordOrDefault(0)
	a.StartAngle = p.Get("STARTANGLE").AsDoubleOrDefault(0)
	a.EndAngle = p.Get("ENDANGLE").AsDoubleOrDefault(0)
	a.Width = p.Get("WIDTH").AsCoordOrDefault(0)
	a.Unmapped = unmapped(p)
	return nil
}

func (a *Arc) ExportToParameters(p *params.Collection) {
	a.exportBase(p, ObjectArc)
	addMilPoint(p, "LOCATION.X", "LOCATION.Y", a.Location)
	p.AddMilCoord("RADIUS", a.Radius, true)
	p.AddDouble("STARTANGLE", a.StartAngle, true)
	p.AddDouble("ENDANGLE", a.EndAngle, true)
	p.AddMilCoord("WIDTH", a.Width, true)
	a.exportTail(p)
}

func (a *Arc) CalculateBounds() coord.Rect {
	return coord.ArcBounds(a.Location, a.Radius, a.Radius, a.StartAngle, a.EndAngle).Inflate(a.Width / 2)
}

// Via is a plated hole connecting FromLayer to ToLayer.
type Via struct {
	Base
	Location  coord.Point
	Diameter  coord.Coord
	HoleSize  coord.Coord
	FromLayer Layer
	ToLayer   Layer
	Tail      []byte
}

// NewVia returns a through via with a 50 mil pad and 28 mil hole.
func NewVia(at coord.Point) *Via {
	return &Via{
		Base:      newBase(LayerMultiLayer),
		Location:  at,
		Diameter:  coord.FromMils(50),
		HoleSize:  coord.FromMils(28),
		FromLayer: LayerTop,
		ToLayer:   LayerBottom,
	}
}

func (v *Via) ObjectID() ObjectID { return ObjectVia }

func (v *Via) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectVia, viaSize)
	if err != nil {
		return err
	}
	if err := v.readHeader(br); err != nil {
		return err
	}
	if v.Location, err = readPoint(br); err != nil {
		return err
	}
	if v.Diameter, err = readCoord(br); err != nil {
		return err
	}
	if v.HoleSize, err = readCoord(br); err != nil {
		return err
	}
	from, err := br.ReadByte()
	if err != nil {
		return err
	}
	to, err := br.ReadByte()
	if err != nil {
		return err
	}
	v.FromLayer, v.ToLayer = Layer(from), Layer(to)
	v.Tail, err = readTail(br)
	return err
}

func (v *Via) writeBinary(w *binfmt.Writer) error {
	return w.WriteBlock(0, func() error {
		v.writeHeader(w)
		writePoint(w, v.Location)
		w.WriteInt32(int32(v.Diameter))
		w.WriteInt32(int32(v.HoleSize))
		w.WriteByte(byte(v.FromLayer))
		w.WriteByte(byte(v.ToLayer))
		w.Write(v.Tail)
		return nil
	})
}

func (v *Via) ImportFromParameters(p *params.Collection) error {
	if err := v.importBase(p, ObjectVia); err != nil {
		return err
	}
	v.Location = milPoint(p, "X", "Y")
	v.Diameter = p.Get("DIAMETER").AsCoordOrDefault(0)
	v.HoleSize = p.Get("HOLESIZE").AsCoordOrDefault(0)
	v.FromLayer = layerOrDefault(p.Get("STARTLAYER"), LayerTop)
	v.ToLayer = layerOrDefault(p.Get("ENDLAYER"), LayerBottom)
	v.Unmapped = unmapped(p)
	return nil
}

func (v *Via) ExportToParameters(p *params.Collection) {
	v.exportBase(p, ObjectVia)
	addMilPoint(p, "X", "Y", v.Location)
	p.AddMilCoord("DIAMETER", v.Diameter, true)
	p.AddMilCoord("HOLESIZE", v.HoleSize, true)
	p.AddString("STARTLAYER", v.FromLayer.String(), true)
	p.AddString("ENDLAYER", v.ToLayer.String(), true)
	v.exportTail(p)
}

func (v *Via) CalculateBounds() coord.Rect {
	return coord.Around(v.Location, v.Diameter/2)
}

// Fill is a solid rectangle rotated about its center.
type Fill struct {
	Base
	Corner1, Corner2 coord.Point
	Rotation         float64
	Tail             []byte
}

// NewFill returns an unrotated fill on layer.
func NewFill(layer Layer, a, b coord.Point) *Fill {
	return &Fill{Base: newBase(layer), Corner1: a, Corner2: b}
}

func (f *Fill) ObjectID() ObjectID { return ObjectFill }

func (f *Fill) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectFill, fillSize)
	if err != nil {
		return err
	}
	if err := f.readHeader(br); err != nil {
		return err
	}
	if f.Corner1, err = readPoint(br); err != nil {
		return err
	}
	if f.Corner2, err = readPoint(br); err != nil {
		return err
	}
	if f.Rotation, err = br.ReadDouble(); err != nil {
		return err
	}
	f.Tail, err = readTail(br)
	return err
}

func (f *Fill) writeBinary(w *binfmt.Writer) error {
	return w.WriteBlock(0, func() error {
		f.writeHeader(w)
		writePoint(w, f.Corner1)
		writePoint(w, f.Corner2)
		w.WriteDouble(f.Rotation)
		w.Write(f.Tail)
		return nil
	})
}

func (f *Fill) ImportFromParameters(p *params.Collection) error {
	if err := f.importBase(p, ObjectFill); err != nil {
		return err
	}
	f.Corner1 = milPoint(p, "X1", "Y1")
	f.Corner2 = milPoint(p, "X2", "Y2")
	f.Rotation = p.Get("ROTATION").AsDoubleOrDefault(0)
	f.Unmapped = unmapped(p)
	return nil
}

func (f *Fill) ExportToParameters(p *params.Collection) {
	f.exportBase(p, ObjectFill)
	addMilPoint(p, "X1", "Y1", f.Corner1)
	addMilPoint(p, "X2", "Y2", f.Corner2)
	p.AddDouble("ROTATION", f.Rotation, false)
	f.exportTail(p)
}

// CalculateBounds returns the box around the rotated rectangle.
func (f *Fill) CalculateBounds() coord.Rect {
	r := coord.NewRect(f.Corner1, f.Corner2)
	if f.Rotation == 0 {
		return coord.BoundsOf(r.Min, r.Max)
	}
	c := r.Center()
	corners := []coord.Point{r.Min, {X: r.Max.X, Y: r.Min.Y}, r.Max, {X: r.Min.X, Y: r.Max.Y}}
	for i, pt := range corners {
		corners[i] = rotateAbout(pt, c, f.Rotation)
	}
	return coord.BoundsOf(corners...)
}

func layerOrDefault(v params.Value, def Layer) Layer {
	if !v.Exists() {
		return def
	}
	l, err := ParseLayer(v.Raw())
	if err != nil {
		return def
	}
	return l
}
