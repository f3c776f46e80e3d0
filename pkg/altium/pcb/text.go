package pcb

import (
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

const (
	textSize     = headerSize + 3*4 + 2 + 8 + 1 + 4
	fontTailSize = 3 + 3 + binfmt.FontNameSize
)

// TextKind selects the renderer of a text primitive.
type TextKind byte

// Text kinds
const (
	TextStroke   TextKind = 0
	TextTrueType TextKind = 1
	TextBarCode  TextKind = 2
)

// TextFont is the TrueType part of a text geometry block. Older files omit
// it.
type TextFont struct {
	Reserved [3]byte
	Kind     TextKind
	Bold     bool
	Italic   bool
	Name     string

	rawName []byte // Field as read, reused while Name is unchanged
}

// Text is a string drawn on a layer.
type Text struct {
	Base
	Location    coord.Point
	Height      coord.Coord
	StrokeFont  uint16
	Rotation    float64
	Mirrored    bool
	StrokeWidth coord.Coord
	Font        *TextFont
	Tail        []byte
	Text        string
}

// NewText returns a 60 mil stroke text on layer.
func NewText(layer Layer, at coord.Point, text string) *Text {
	return &Text{
		Base:        newBase(layer),
		Location:    at,
		Height:      coord.FromMils(60),
		StrokeWidth: coord.FromMils(10),
		Text:        text,
	}
}

func (t *Text) ObjectID() ObjectID { return ObjectText }

func (t *Text) readBinary(r *binfmt.Reader) error {
	br, err := openBlock(r, ObjectText, textSize)
	if err != nil {
		return err
	}
	if err := t.readHeader(br); err != nil {
		return err
	}
	if t.Location, err = readPoint(br); err != nil {
		return err
	}
	if t.Height, err = readCoord(br); err != nil {
		return err
	}
	if t.StrokeFont, err = br.ReadUint16(); err != nil {
		return err
	}
	if t.Rotation, err = br.ReadDouble(); err != nil {
		return err
	}
	if t.Mirrored, err = br.ReadBool(); err != nil {
		return err
	}
	if t.StrokeWidth, err = readCoord(br); err != nil {
		return err
	}
	if br.Remaining() >= fontTailSize {
		if t.Font, err = readFont(br); err != nil {
			return err
		}
	}
	if t.Tail, err = readTail(br); err != nil {
		return err
	}
	t.Text, err = r.ReadStringBlock()
	return err
}

func readFont(r *binfmt.Reader) (*TextFont, error) {
	f := &TextFont{}
	b, err := r.ReadBytes(len(f.Reserved) + 3)
	if err != nil {
		return nil, err
	}
	copy(f.Reserved[:], b)
	f.Kind = TextKind(b[3])
	f.Bold, f.Italic = b[4] != 0, b[5] != 0
	if f.rawName, err = r.ReadBytes(binfmt.FontNameSize); err != nil {
		return nil, err
	}
	f.Name = binfmt.DecodeFontName(f.rawName)
	return f, nil
}

func (f *TextFont) write(w *binfmt.Writer) {
	w.Write(f.Reserved[:])
	w.WriteByte(byte(f.Kind))
	w.WriteBool(f.Bold)
	w.WriteBool(f.Italic)
	if f.rawName != nil && binfmt.DecodeFontName(f.rawName) == f.Name {
		w.Write(f.rawName)
		return
	}
	w.WriteFontName(f.Name)
}

func (t *Text) writeBinary(w *binfmt.Writer) error {
	err := w.WriteBlock(0, func() error {
		t.writeHeader(w)
		writePoint(w, t.Location)
		w.WriteInt32(int32(t.Height))
		w.WriteUint16(t.StrokeFont)
		w.WriteDouble(t.Rotation)
		w.WriteBool(t.Mirrored)
		w.WriteInt32(int32(t.StrokeWidth))
		if t.Font != nil {
			t.Font.write(w)
		}
		w.Write(t.Tail)
		return nil
	})
	if err != nil {
		return err
	}
	return w.WriteStringBlock(t.Text)
}

func (t *Text) ImportFromParameters(p *params.Collection) error {
	if err := t.importBase(p, ObjectText); err != nil {
		return err
	}
	t.Location = milPoint(p, "X", "Y")
	t.Height = p.Get("HEIGHT").AsCoordOrDefault(0)
	t.StrokeFont = uint16(p.Get("FONT").AsIntOrDefault(0))
	t.Rotation = p.Get("ROTATION").AsDoubleOrDefault(0)
	t.Mirrored = p.Get("MIRROR").AsBool()
	t.StrokeWidth = p.Get("WIDTH").AsCoordOrDefault(0)
	t.Text = p.Get("TEXT").AsStringOrDefault("")
	if name := p.Get("FONTNAME"); name.Exists() {
		t.Font = &TextFont{
			Kind:   TextKind(p.Get("TEXTKIND").AsIntOrDefault(0)),
			Bold:   p.Get("BOLD").AsBool(),
			Italic: p.Get("ITALIC").AsBool(),
			Name:   name.Raw(),
		}
	}
	t.Unmapped = unmapped(p)
	return nil
}

func (t *Text) ExportToParameters(p *params.Collection) {
	t.exportBase(p, ObjectText)
	addMilPoint(p, "X", "Y", t.Location)
	p.AddMilCoord("HEIGHT", t.Height, true)
	p.AddInt("FONT", int(t.StrokeFont), false)
	p.AddDouble("ROTATION", t.Rotation, false)
	addBool(p, "MIRROR", t.Mirrored)
	p.AddMilCoord("WIDTH", t.StrokeWidth, true)
	p.AddString("TEXT", t.Text, true)
	if t.Font != nil {
		p.AddInt("TEXTKIND", int(t.Font.Kind), false)
		addBool(p, "BOLD", t.Font.Bold)
		addBool(p, "ITALIC", t.Font.Italic)
		p.AddString("FONTNAME", t.Font.Name, true)
	}
	t.exportTail(p)
}

// CalculateBounds estimates the text box from the height, assuming glyphs
// as wide as they are tall, rotated about the anchor.
func (t *Text) CalculateBounds() coord.Rect {
	n := max(len([]rune(t.Text)), 1)
	w := t.Height.Mul(n)
	corners := []coord.Point{
		t.Location,
		t.Location.Offset(w, 0),
		t.Location.Offset(w, t.Height),
		t.Location.Offset(0, t.Height),
	}
	if t.Rotation != 0 {
		for i, c := range corners {
			corners[i] = rotateAbout(c, t.Location, t.Rotation)
		}
	}
	return coord.BoundsOf(corners...)
}
