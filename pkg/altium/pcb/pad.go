package pcb

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

const padGeometrySize = headerSize + 9*4 + 3 + 8 + 1

// padOpaqueBlocks is the number of unmodelled blocks between the pad name
// and its geometry.
const padOpaqueBlocks = 3

// Pad is a component pin land. It is stored as six blocks: the designator,
// three blocks the codec keeps opaque, the geometry and an optional per-layer
// size and shape table.
type Pad struct {
	Base
	Name       string
	Location   coord.Point
	SizeTop    coord.Point
	SizeMiddle coord.Point
	SizeBottom coord.Point
	HoleSize   coord.Coord
	ShapeTop   PadShape
	ShapeMid   PadShape
	ShapeBot   PadShape
	Rotation   float64
	Plated     bool
	Tail       []byte // Rest of the geometry block

	Opaque    [padOpaqueBlocks][]byte
	SizeShape []byte // Per-layer size and shape block, empty for simple pads
}

// NewSMDPad returns a rectangular pad on layer.
func NewSMDPad(name string, layer Layer, at, size coord.Point) *Pad {
	return &Pad{
		Base:       newBase(layer),
		Name:       name,
		Location:   at,
		SizeTop:    size,
		SizeMiddle: size,
		SizeBottom: size,
		ShapeTop:   ShapeRectangular,
		ShapeMid:   ShapeRectangular,
		ShapeBot:   ShapeRectangular,
		Plated:     true,
	}
}

// NewThroughPad returns a round multi-layer pad with a plated hole.
func NewThroughPad(name string, at coord.Point, diameter, hole coord.Coord) *Pad {
	size := coord.Point{X: diameter, Y: diameter}
	p := NewSMDPad(name, LayerMultiLayer, at, size)
	p.ShapeTop, p.ShapeMid, p.ShapeBot = ShapeRound, ShapeRound, ShapeRound
	p.HoleSize = hole
	return p
}

func (p *Pad) ObjectID() ObjectID { return ObjectPad }

func (p *Pad) readBinary(r *binfmt.Reader) error {
	var err error
	if p.Name, err = r.ReadStringBlock(); err != nil {
		return err
	}
	for i := range p.Opaque {
		if p.Opaque[i], _, err = r.ReadBlock(); err != nil {
			return err
		}
	}

	br, err := openBlock(r, ObjectPad, padGeometrySize)
	if err != nil {
		return err
	}
	if err := p.readHeader(br); err != nil {
		return err
	}
	for _, pt := range []*coord.Point{&p.Location, &p.SizeTop, &p.SizeMiddle, &p.SizeBottom} {
		if *pt, err = readPoint(br); err != nil {
			return err
		}
	}
	if p.HoleSize, err = readCoord(br); err != nil {
		return err
	}
	for _, s := range []*PadShape{&p.ShapeTop, &p.ShapeMid, &p.ShapeBot} {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		*s = PadShape(b)
	}
	if p.Rotation, err = br.ReadDouble(); err != nil {
		return err
	}
	if p.Plated, err = br.ReadBool(); err != nil {
		return err
	}
	if p.Tail, err = readTail(br); err != nil {
		return err
	}

	p.SizeShape, _, err = r.ReadBlock()
	return err
}

func (p *Pad) writeBinary(w *binfmt.Writer) error {
	if err := w.WriteStringBlock(p.Name); err != nil {
		return err
	}
	for _, b := range p.Opaque {
		if err := w.WriteRawBlock(0, b); err != nil {
			return err
		}
	}
	err := w.WriteBlock(0, func() error {
		p.writeHeader(w)
		for _, pt := range []coord.Point{p.Location, p.SizeTop, p.SizeMiddle, p.SizeBottom} {
			writePoint(w, pt)
		}
		w.WriteInt32(int32(p.HoleSize))
		w.WriteByte(byte(p.ShapeTop))
		w.WriteByte(byte(p.ShapeMid))
		w.WriteByte(byte(p.ShapeBot))
		w.WriteDouble(p.Rotation)
		w.WriteBool(p.Plated)
		w.Write(p.Tail)
		return nil
	})
	if err != nil {
		return err
	}
	return w.WriteRawBlock(0, p.SizeShape)
}

func (p *Pad) ImportFromParameters(c *params.Collection) error {
	if err := p.importBase(c, ObjectPad); err != nil {
		return err
	}
	p.Name = c.Get("NAME").AsStringOrDefault("")
	p.Location = milPoint(c, "X", "Y")
	p.SizeTop = milPoint(c, "XSIZE", "YSIZE")
	p.SizeMiddle = milPoint(c, "MIDXSIZE", "MIDYSIZE")
	p.SizeBottom = milPoint(c, "BOTXSIZE", "BOTYSIZE")
	p.HoleSize = c.Get("HOLESIZE").AsCoordOrDefault(0)
	p.ShapeTop = ParsePadShape(c.Get("SHAPE").AsStringOrDefault("ROUND"))
	p.ShapeMid = ParsePadShape(c.Get("MIDSHAPE").AsStringOrDefault("ROUND"))
	p.ShapeBot = ParsePadShape(c.Get("BOTSHAPE").AsStringOrDefault("ROUND"))
	p.Rotation = c.Get("ROTATION").AsDoubleOrDefault(0)
	p.Plated = c.Get("PLATED").AsBool()
	p.Unmapped = unmapped(c)
	return nil
}

func (p *Pad) ExportToParameters(c *params.Collection) {
	p.exportBase(c, ObjectPad)
	c.AddString("NAME", p.Name, true)
	addMilPoint(c, "X", "Y", p.Location)
	addMilPoint(c, "XSIZE", "YSIZE", p.SizeTop)
	addMilPoint(c, "MIDXSIZE", "MIDYSIZE", p.SizeMiddle)
	addMilPoint(c, "BOTXSIZE", "BOTYSIZE", p.SizeBottom)
	c.AddMilCoord("HOLESIZE", p.HoleSize, false)
	c.AddString("SHAPE", p.ShapeTop.String(), true)
	c.AddString("MIDSHAPE", p.ShapeMid.String(), true)
	c.AddString("BOTSHAPE", p.ShapeBot.String(), true)
	c.AddDouble("ROTATION", p.Rotation, false)
	addBool(c, "PLATED", p.Plated)
	p.exportTail(c)
}

// CalculateBounds covers the largest of the three layer sizes, rotated.
func (p *Pad) CalculateBounds() coord.Rect {
	w := max(p.SizeTop.X, p.SizeMiddle.X, p.SizeBottom.X)
	h := max(p.SizeTop.Y, p.SizeMiddle.Y, p.SizeBottom.Y)
	half := coord.Point{X: w / 2, Y: h / 2}
	corners := []coord.Point{
		p.Location.Sub(half),
		p.Location.Add(coord.Point{X: half.X, Y: -half.Y}),
		p.Location.Add(half),
		p.Location.Add(coord.Point{X: -half.X, Y: half.Y}),
	}
	if p.Rotation != 0 {
		for i, c := range corners {
			corners[i] = rotateAbout(c, p.Location, p.Rotation)
		}
	}
	return coord.BoundsOf(corners...)
}

// rotateAbout rotates pt counter-clockwise about c by deg degrees.
func rotateAbout(pt, c coord.Point, deg float64) coord.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := float64(pt.X-c.X), float64(pt.Y-c.Y)
	return coord.Point{
		X: c.X + coord.Coord(math.Round(dx*cos-dy*sin)),
		Y: c.Y + coord.Coord(math.Round(dx*sin+dy*cos)),
	}
}
