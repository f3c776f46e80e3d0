package pcb

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

const shapeBlockSize = headerSize + 5

// Vertex is an outline point in internal units. Outlines are stored as
// doubles, so vertices may fall between Coord steps.
type Vertex struct {
	X, Y float64
}

// VertexAt converts p to a Vertex.
func VertexAt(p coord.Point) Vertex { return Vertex{X: float64(p.X), Y: float64(p.Y)} }

// Point rounds v to the Coord grid.
func (v Vertex) Point() coord.Point {
	return coord.Point{X: coord.Coord(math.Round(v.X)), Y: coord.Coord(math.Round(v.Y))}
}

// shapeBlock is the layout shared by regions and component bodies: the
// header, five unmodelled bytes and an embedded parameter block.
type shapeBlock struct {
	Base
	Prefix [5]byte
	// Params is the embedded parameter block (KIND, NAME, ...), kept whole.
	Params     *params.Collection
	terminated bool

	rawText, readText string // Block text as read and as re-encoded at read time
}

func (s *shapeBlock) readShape(r *binfmt.Reader) error {
	if err := s.readHeader(r); err != nil {
		return err
	}
	b, err := r.ReadBytes(len(s.Prefix))
	if err != nil {
		return err
	}
	copy(s.Prefix[:], b)
	at := r.Offset()
	cs, _, err := r.ReadCStringBlock()
	if err != nil {
		return err
	}
	if s.Params, err = params.Parse(cs.Text); err != nil {
		return diag.Corrupt(r.Name(), at, "embedded parameters: %v", err)
	}
	s.terminated = cs.Terminated
	s.rawText, s.readText = cs.Text, s.Params.String()
	return nil
}

func (s *shapeBlock) writeShape(w *binfmt.Writer) error {
	s.writeHeader(w)
	w.Write(s.Prefix[:])
	text := ""
	if s.Params != nil {
		text = s.Params.String()
	}
	if text == s.readText {
		text = s.rawText
	}
	return w.WriteCStringBlock(0, binfmt.CString{Text: text, Terminated: s.terminated})
}

// importShape moves the keys left over after the typed import into Params.
func (s *shapeBlock) importShape(p *params.Collection) {
	s.Params = unmapped(p)
	if s.Params == nil {
		s.Params = params.New()
	}
	s.terminated = true
}

// Region is a filled copper or keep-out polygon with straight edges.
type Region struct {
	shapeBlock
	Outline []Vertex
	Tail    []byte
}

// NewRegion returns a copper region on layer.
func NewRegion(layer Layer, outline ...coord.Point) *Region {
	r := &Region{shapeBlock: shapeBlock{Base: newBase(layer), Params: params.New(), terminated: true}}
	r.Params.AddInt("KIND", 0, true)
	for _, p := range outline {
		r.Outline = append(r.Outline, VertexAt(p))
	}
	return r
}

func (g *Region) ObjectID() ObjectID { return ObjectRegion }

// Kind returns the region kind: 0 copper, 1 polygon cutout, 2 named
// region, 3 board cutout.
func (g *Region) Kind() int { return g.Params.Get("KIND").AsIntOrDefault(0) }

// IsBoardCutout reports whether the region removes board material.
func (g *Region) IsBoardCutout() bool { return g.Params.Get("ISBOARDCUTOUT").AsBool() }

func (g *Region) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectRegion, shapeBlockSize)
	if err != nil {
		return err
	}
	if err := g.readShape(br); err != nil {
		return err
	}
	n, err := br.ReadUint32()
	if err != nil {
		return err
	}
	if rem := br.Remaining(); int64(n)*16 > rem {
		return diag.Corrupt(r.Name(), r.Offset(), "region with %d vertices in %d bytes", n, rem)
	}
	g.Outline = make([]Vertex, n)
	for i := range g.Outline {
		if g.Outline[i].X, err = br.ReadDouble(); err != nil {
			return err
		}
		if g.Outline[i].Y, err = br.ReadDouble(); err != nil {
			return err
		}
	}
	g.Tail, err = readTail(br)
	return err
}

func (g *Region) writeBinary(w *binfmt.Writer) error {
	return w.WriteBlock(0, func() error {
		if err := g.writeShape(w); err != nil {
			return err
		}
		w.WriteUint32(uint32(len(g.Outline)))
		for _, v := range g.Outline {
			w.WriteDouble(v.X)
			w.WriteDouble(v.Y)
		}
		w.Write(g.Tail)
		return nil
	})
}

func (g *Region) ImportFromParameters(p *params.Collection) error {
	if err := g.importBase(p, ObjectRegion); err != nil {
		return err
	}
	g.Outline = importOutline(p)
	g.importShape(p)
	return nil
}

func (g *Region) ExportToParameters(p *params.Collection) {
	g.exportBase(p, ObjectRegion)
	p.Merge(g.Params)
	exportOutline(p, g.Outline)
}

func (g *Region) CalculateBounds() coord.Rect {
	pts := make([]coord.Point, len(g.Outline))
	for i, v := range g.Outline {
		pts[i] = v.Point()
	}
	return coord.BoundsOf(pts...)
}

func importOutline(p *params.Collection) []Vertex {
	n := p.Count("VERTEXCOUNT")
	out := make([]Vertex, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, VertexAt(milPoint(p, fmtKey("VX", i), fmtKey("VY", i))))
	}
	return out
}

func exportOutline(p *params.Collection, outline []Vertex) {
	p.AddInt("VERTEXCOUNT", len(outline), true)
	for i, v := range outline {
		addMilPoint(p, fmtKey("VX", i), fmtKey("VY", i), v.Point())
	}
}

// ComponentBody is a 3D body outline. The codec reads its header and
// parameters; the body geometry after them is kept as raw bytes.
type ComponentBody struct {
	shapeBlock
	Tail []byte
}

func (c *ComponentBody) ObjectID() ObjectID { return ObjectComponentBody }

func (c *ComponentBody) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectComponentBody, shapeBlockSize)
	if err != nil {
		return err
	}
	if err := c.readShape(br); err != nil {
		return err
	}
	c.Tail, err = readTail(br)
	return err
}

func (c *ComponentBody) writeBinary(w *binfmt.Writer) error {
	return w.WriteBlock(0, func() error {
		if err := c.writeShape(w); err != nil {
			return err
		}
		w.Write(c.Tail)
		return nil
	})
}

func (c *ComponentBody) ImportFromParameters(p *params.Collection) error {
	if err := c.importBase(p, ObjectComponentBody); err != nil {
		return err
	}
	c.importShape(p)
	return nil
}

func (c *ComponentBody) ExportToParameters(p *params.Collection) {
	c.exportBase(p, ObjectComponentBody)
	p.Merge(c.Params)
}

// CalculateBounds is empty: body outlines are not decoded.
func (c *ComponentBody) CalculateBounds() coord.Rect { return coord.Rect{} }
