package schematic

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// BinaryPinFlag is the block flag byte marking a binary pin record.
const BinaryPinFlag = 0x01

// Pin is an electrical connection point of a component. Location is the
// end attached to the body; the free end (the corner) is Length away in the
// direction given by the Rotated and Flipped flags.
type Pin struct {
	Base
	HasLocation
	HasColor
	Length          coord.Coord
	Electrical      PinElectrical
	Flags           PinConglomerate
	Name            string
	Designator      string
	Description     string
	SymbolInnerEdge PinSymbol
	SymbolOuterEdge PinSymbol
	SymbolInside    PinSymbol
	SymbolOutside   PinSymbol
	SwapIDGroup     string
	PartAndSequence string
	DefaultValue    string

	// Binary selects the compact binary record form on write. Pins read
	// from binary records keep it set.
	Binary bool
	// Reserved bytes of the binary form, kept for round trips.
	Reserved1 byte
	Reserved2 byte
	// Tail holds bytes after the last known field of a binary record.
	Tail []byte
}

// NewPin returns a pin with the editor's defaults.
func NewPin(designator, name string, at coord.Point, length coord.Coord) *Pin {
	return &Pin{
		Base:        Base{OwnerPartID: 1},
		HasLocation: HasLocation{Location: at},
		Length:      length,
		Electrical:  PinPassive,
		Flags:       PinDisplayNameVisible | PinDesignatorVisible,
		Name:        name,
		Designator:  designator,
		Binary:      true,
	}
}

func (p *Pin) Record() RecordType { return RecordPin }

// IsHidden reports the pin's own hidden flag.
func (p *Pin) IsHidden() bool { return p.Flags.Has(PinHide) }

// Orientation returns the direction of the pin from its location to its
// corner.
func (p *Pin) Orientation() Orientation {
	switch {
	case p.Flags.Has(PinRotated | PinFlipped):
		return Orientation270
	case p.Flags.Has(PinFlipped):
		return Orientation180
	case p.Flags.Has(PinRotated):
		return Orientation90
	}
	return Orientation0
}

// SetOrientation updates the Rotated and Flipped flags.
func (p *Pin) SetOrientation(o Orientation) {
	p.Flags &^= PinRotated | PinFlipped
	switch o {
	case Orientation90:
		p.Flags |= PinRotated
	case Orientation180:
		p.Flags |= PinFlipped
	case Orientation270:
		p.Flags |= PinRotated | PinFlipped
	}
}

// Corner returns the free end of the pin.
func (p *Pin) Corner() coord.Point {
	return p.Location.Add(coord.Pt(p.Length, 0).Rotate90(int(p.Orientation())))
}

func (p *Pin) CalculateBounds() coord.Rect {
	return coord.BoundsOf(p.Location, p.Corner())
}

// conglomerate returns Flags with the lock bit taken from GraphicallyLocked.
func (p *Pin) conglomerate() PinConglomerate {
	f := p.Flags &^ PinLocked
	if p.GraphicallyLocked {
		f |= PinLocked
	}
	return f
}

func (p *Pin) ImportFromParameters(c *params.Collection) error {
	if err := p.importBase(c, RecordPin); err != nil {
		return err
	}
	p.Binary = false
	p.importLocation(c)
	p.Length = c.DxpCoord("PINLENGTH")
	p.Electrical = params.AsEnumOrDefault(c.Get("ELECTRICAL"), PinInput)
	p.Flags = PinConglomerate(c.Get("PINCONGLOMERATE").AsIntOrDefault(0))
	p.GraphicallyLocked = p.GraphicallyLocked || p.Flags.Has(PinLocked)
	p.Name = c.Get("NAME").AsStringOrDefault("")
	p.Designator = c.Get("DESIGNATOR").AsStringOrDefault("")
	p.Description = c.Get("DESCRIPTION").AsStringOrDefault("")
	p.SymbolInnerEdge = params.AsEnumOrDefault(c.Get("SYMBOL_INNEREDGE"), PinSymbolNone)
	p.SymbolOuterEdge = params.AsEnumOrDefault(c.Get("SYMBOL_OUTEREDGE"), PinSymbolNone)
	p.SymbolInside = params.AsEnumOrDefault(c.Get("SYMBOL_INSIDE"), PinSymbolNone)
	p.SymbolOutside = params.AsEnumOrDefault(c.Get("SYMBOL_OUTSIDE"), PinSymbolNone)
	p.SwapIDGroup = c.Get("SWAPIDPIN").AsStringOrDefault("")
	p.PartAndSequence = c.Get("SWAPIDPART").AsStringOrDefault("")
	p.DefaultValue = c.Get("DEFAULTVALUE").AsStringOrDefault("")
	p.importColor(c)
	return nil
}

func (p *Pin) ExportToParameters(c *params.Collection) {
	p.exportBase(c, RecordPin)
	c.AddString("DESCRIPTION", p.Description, false)
	params.AddEnum(c, "SYMBOL_INNEREDGE", p.SymbolInnerEdge, PinSymbolNone, false)
	params.AddEnum(c, "SYMBOL_OUTEREDGE", p.SymbolOuterEdge, PinSymbolNone, false)
	params.AddEnum(c, "SYMBOL_INSIDE", p.SymbolInside, PinSymbolNone, false)
	params.AddEnum(c, "SYMBOL_OUTSIDE", p.SymbolOutside, PinSymbolNone, false)
	params.AddEnum(c, "ELECTRICAL", p.Electrical, PinInput, false)
	c.AddInt("PINCONGLOMERATE", int(p.conglomerate()), false)
	c.AddDxpCoord("PINLENGTH", p.Length, false)
	p.exportLocation(c)
	p.exportColor(c)
	c.AddString("NAME", p.Name, false)
	c.AddString("DESIGNATOR", p.Designator, false)
	c.AddString("SWAPIDPIN", p.SwapIDGroup, false)
	c.AddString("SWAPIDPART", p.PartAndSequence, false)
	c.AddString("DEFAULTVALUE", p.DefaultValue, false)
	p.exportTail(c)
}

// ReadBinary decodes the binary record form from a block payload.
func (p *Pin) ReadBinary(r *binfmt.Reader) error {
	rec, err := r.ReadInt32()
	if err != nil {
		return err
	}
	if rec != int32(RecordPin) {
		return diag.Mismatch(int(RecordPin), int(rec))
	}
	p.Binary = true

	if p.Reserved1, err = r.ReadByte(); err != nil {
		return err
	}
	partID, err := r.ReadInt16()
	if err != nil {
		return err
	}
	p.OwnerPartID = int(partID)
	mode, err := r.ReadByte()
	if err != nil {
		return err
	}
	p.OwnerPartDisplayMode = int(mode)

	var sym [4]byte
	for i := range sym {
		if sym[i], err = r.ReadByte(); err != nil {
			return err
		}
	}
	p.SymbolInnerEdge = PinSymbol(sym[0])
	p.SymbolOuterEdge = PinSymbol(sym[1])
	p.SymbolInside = PinSymbol(sym[2])
	p.SymbolOutside = PinSymbol(sym[3])

	if p.Description, err = r.ReadPascalString(); err != nil {
		return err
	}
	if p.Reserved2, err = r.ReadByte(); err != nil {
		return err
	}
	elec, err := r.ReadByte()
	if err != nil {
		return err
	}
	p.Electrical = PinElectrical(elec)
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	p.Flags = PinConglomerate(flags)
	p.GraphicallyLocked = p.Flags.Has(PinLocked)

	var nums [3]int16
	for i := range nums {
		if nums[i], err = r.ReadInt16(); err != nil {
			return err
		}
	}
	p.Length = coord.FromDxp(int(nums[0]))
	p.Location = coord.Pt(coord.FromDxp(int(nums[1])), coord.FromDxp(int(nums[2])))

	color, err := r.ReadInt32()
	if err != nil {
		return err
	}
	p.Color = params.ColorFromWin32(int(color))

	for _, dst := range []*string{&p.Name, &p.Designator, &p.SwapIDGroup, &p.PartAndSequence, &p.DefaultValue} {
		if *dst, err = r.ReadPascalString(); err != nil {
			return err
		}
	}

	if n := r.Remaining(); n > 0 {
		if p.Tail, err = r.ReadBytes(int(n)); err != nil {
			return err
		}
	}
	return nil
}

// WriteBinary encodes the binary record form. Coordinates are stored in
// whole DXP units; use CanWriteBinary to check for lost precision.
func (p *Pin) WriteBinary(w *binfmt.Writer) error {
	if !p.ownerFitsBinary() {
		return fmt.Errorf("pin %s: owner part %d/%d out of binary range", p.Designator, p.OwnerPartID, p.OwnerPartDisplayMode)
	}
	w.WriteInt32(int32(RecordPin))
	w.WriteByte(p.Reserved1)
	w.WriteInt16(int16(p.OwnerPartID))
	w.WriteByte(byte(p.OwnerPartDisplayMode))
	for _, s := range []PinSymbol{p.SymbolInnerEdge, p.SymbolOuterEdge, p.SymbolInside, p.SymbolOutside} {
		w.WriteByte(byte(s))
	}
	w.WritePascalShortString(p.Description)
	w.WriteByte(p.Reserved2)
	w.WriteByte(byte(p.Electrical))
	w.WriteByte(byte(p.conglomerate()))
	for _, c := range []coord.Coord{p.Length, p.Location.X, p.Location.Y} {
		n := c.ToDxp()
		if n < -32768 || n > 32767 {
			return fmt.Errorf("pin %s: coordinate %s out of binary range", p.Designator, c)
		}
		w.WriteInt16(int16(n))
	}
	w.WriteInt32(int32(params.ColorToWin32(p.Color)))
	for _, s := range []string{p.Name, p.Designator, p.SwapIDGroup, p.PartAndSequence, p.DefaultValue} {
		w.WritePascalShortString(s)
	}
	w.Write(p.Tail)
	return nil
}

// ownerFitsBinary reports whether the owner part fits its int16 and the
// display mode its byte.
func (p *Pin) ownerFitsBinary() bool {
	return p.OwnerPartID >= math.MinInt16 && p.OwnerPartID <= math.MaxInt16 &&
		p.OwnerPartDisplayMode >= 0 && p.OwnerPartDisplayMode <= math.MaxUint8
}

// CanWriteBinary reports whether the binary form holds the pin without
// loss: whole DXP coordinates in int16 range, an owner part that fits and
// no unmapped parameters.
func (p *Pin) CanWriteBinary() bool {
	if !p.ownerFitsBinary() {
		return false
	}
	for _, c := range []coord.Coord{p.Length, p.Location.X, p.Location.Y} {
		n, frac := coord.CoordToDxpFrac(c)
		if frac != 0 || n < -32768 || n > 32767 {
			return false
		}
	}
	return (p.OwnerIndex == 0 || p.ImpliedOwner) && (p.Unmapped == nil || p.Unmapped.Len() == 0)
}
