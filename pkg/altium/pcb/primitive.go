// Package pcb provides the primitive codecs and library/document
// readers/writers for Altium PCB files (.PcbLib, .PcbDoc).
//
// PCB primitives are stored in binary: an object id byte followed by one or
// more size-prefixed blocks. Every primitive also has a parameter form
// ("|RECORD=Track|LAYER=TOP|X1=100mil|...") used by exports and by the
// parameter-only streams (Polygons6, Components6).
package pcb

import (
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// ObjectID is the type byte that starts every binary PCB primitive.
type ObjectID byte

// PCB object ids
const (
	ObjectNone          ObjectID = 0
	ObjectArc           ObjectID = 1
	ObjectPad           ObjectID = 2
	ObjectVia           ObjectID = 3
	ObjectTrack         ObjectID = 4
	ObjectText          ObjectID = 5
	ObjectFill          ObjectID = 6
	ObjectConnection    ObjectID = 7
	ObjectNet           ObjectID = 8
	ObjectComponent     ObjectID = 9
	ObjectPolygon       ObjectID = 10
	ObjectRegion        ObjectID = 11
	ObjectComponentBody ObjectID = 12
	ObjectDimension     ObjectID = 13
	ObjectCoordinate    ObjectID = 14
	ObjectClass         ObjectID = 15
	ObjectRule          ObjectID = 16
	ObjectFromTo        ObjectID = 17
)

var objectNames = []string{
	"None", "Arc", "Pad", "Via", "Track", "Text", "Fill", "Connection", "Net",
	"Component", "Polygon", "Region", "ComponentBody", "Dimension",
	"Coordinate", "Class", "Rule", "FromTo",
}

func (id ObjectID) String() string {
	if int(id) < len(objectNames) {
		return objectNames[id]
	}
	return strconv.Itoa(int(id))
}

// ParseObjectID reads a RECORD value, either a name such as "Track" or the
// numeric id.
func ParseObjectID(s string) (ObjectID, bool) {
	s = strings.TrimSpace(s)
	for i, name := range objectNames {
		if strings.EqualFold(name, s) {
			return ObjectID(i), true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return ObjectNone, false
	}
	return ObjectID(n), true
}

// NoIndex marks an unset net, polygon or component reference.
const NoIndex = 0xFFFF

// headerSize is the length of the header shared by binary primitives.
const headerSize = 13

// Primitive is one PCB object.
type Primitive interface {
	ObjectID() ObjectID
	Common() *Base
	// ImportFromParameters fills the primitive from its parameter form.
	ImportFromParameters(p *params.Collection) error
	// ExportToParameters appends the parameter form to p.
	ExportToParameters(p *params.Collection)
	CalculateBounds() coord.Rect

	readBinary(r *binfmt.Reader) error
	writeBinary(w *binfmt.Writer) error
}

// Base is the header shared by all binary primitives.
type Base struct {
	Layer     Layer
	Flags     Flags
	Net       uint16 // Index into the board's net list, NoIndex when unrouted
	Polygon   uint16 // Owning polygon, NoIndex when none
	Component uint16 // Owning placed component, NoIndex in libraries
	Reserved  [4]byte

	// Unmapped holds parameter keys no field consumed.
	Unmapped *params.Collection
}

func newBase(layer Layer) Base {
	return Base{
		Layer:     layer,
		Flags:     FlagUnlocked,
		Net:       NoIndex,
		Polygon:   NoIndex,
		Component: NoIndex,
		Reserved:  [4]byte{0xFF, 0xFF, 0xFF, 0xFF},
	}
}

func (b *Base) Common() *Base { return b }

// IsLocked reports whether the primitive is locked in the editor.
func (b *Base) IsLocked() bool { return !b.Flags.Has(FlagUnlocked) }

func (b *Base) readHeader(r *binfmt.Reader) error {
	layer, err := r.ReadByte()
	if err != nil {
		return err
	}
	flags, err := r.ReadUint16()
	if err != nil {
		return err
	}
	b.Layer, b.Flags = Layer(layer), Flags(flags)
	for _, f := range []*uint16{&b.Net, &b.Polygon, &b.Component} {
		if *f, err = r.ReadUint16(); err != nil {
			return err
		}
	}
	reserved, err := r.ReadBytes(len(b.Reserved))
	if err != nil {
		return err
	}
	copy(b.Reserved[:], reserved)
	return nil
}

func (b *Base) writeHeader(w *binfmt.Writer) {
	w.WriteByte(byte(b.Layer))
	w.WriteUint16(uint16(b.Flags))
	w.WriteUint16(b.Net)
	w.WriteUint16(b.Polygon)
	w.WriteUint16(b.Component)
	w.Write(b.Reserved[:])
}

// importBase checks RECORD against want and reads the header keys.
func (b *Base) importBase(p *params.Collection, want ObjectID) error {
	if v := p.Get("RECORD"); v.Exists() {
		got, ok := ParseObjectID(v.Raw())
		if !ok {
			return diag.Mismatch(int(want), -1)
		}
		if got != want {
			return diag.Mismatch(int(want), int(got))
		}
	} else if want != ObjectNone {
		return diag.Mismatch(int(want), 0)
	}

	if v := p.Get("LAYER"); v.Exists() {
		if l, err := ParseLayer(v.Raw()); err == nil {
			b.Layer = l
		}
	}
	b.Net = uint16(p.Get("NET").AsIntOrDefault(NoIndex))
	b.Polygon = uint16(p.Get("POLYGON").AsIntOrDefault(NoIndex))
	b.Component = uint16(p.Get("COMPONENT").AsIntOrDefault(NoIndex))

	flags := Flags(p.Get("FLAGS").AsIntOrDefault(0)) &^ knownFlags
	if !p.Get("LOCKED").AsBool() {
		flags |= FlagUnlocked
	}
	for key, f := range map[string]Flags{
		"TENTINGTOP":    FlagTentingTop,
		"TENTINGBOTTOM": FlagTentingBottom,
		"KEEPOUT":       FlagKeepOut,
	} {
		if p.Get(key).AsBool() {
			flags |= f
		}
	}
	b.Flags = flags
	b.Reserved = parseReserved(p.Get("RESERVED").Raw())
	return nil
}

// exportBase writes RECORD and the header keys.
func (b *Base) exportBase(p *params.Collection, id ObjectID) {
	p.AddString("RECORD", id.String(), true)
	p.AddString("LAYER", b.Layer.String(), true)
	addIndex(p, "NET", b.Net)
	addIndex(p, "POLYGON", b.Polygon)
	addIndex(p, "COMPONENT", b.Component)
	addBool(p, "LOCKED", b.IsLocked())
	addBool(p, "TENTINGTOP", b.Flags.Has(FlagTentingTop))
	addBool(p, "TENTINGBOTTOM", b.Flags.Has(FlagTentingBottom))
	addBool(p, "KEEPOUT", b.Flags.Has(FlagKeepOut))
	p.AddInt("FLAGS", int(b.Flags&^knownFlags), false)
	if b.Reserved != [4]byte{0xFF, 0xFF, 0xFF, 0xFF} {
		p.AddString("RESERVED", formatReserved(b.Reserved), true)
	}
}

// exportTail appends the keys kept from import.
func (b *Base) exportTail(p *params.Collection) {
	p.Merge(b.Unmapped)
}

func addIndex(p *params.Collection, key string, v uint16) {
	if v != NoIndex {
		p.AddInt(key, int(v), true)
	}
}

// addBool writes the TRUE spelling used by PCB parameter records. False
// values are omitted.
func addBool(p *params.Collection, key string, v bool) {
	if v {
		p.AddString(key, "TRUE", true)
	}
}

func formatReserved(b [4]byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ",")
}

func parseReserved(s string) [4]byte {
	out := [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
	for i, part := range strings.SplitN(s, ",", 4) {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n >= 0 && n <= 255 {
			out[i] = byte(n)
		}
	}
	return out
}

func readPoint(r *binfmt.Reader) (coord.Point, error) {
	x, err := r.ReadInt32()
	if err != nil {
		return coord.Point{}, err
	}
	y, err := r.ReadInt32()
	return coord.Point{X: coord.Coord(x), Y: coord.Coord(y)}, err
}

func writePoint(w *binfmt.Writer, p coord.Point) {
	w.WriteInt32(int32(p.X))
	w.WriteInt32(int32(p.Y))
}

func readCoord(r *binfmt.Reader) (coord.Coord, error) {
	v, err := r.ReadInt32()
	return coord.Coord(v), err
}

// readTail returns the unread rest of a block.
func readTail(r *binfmt.Reader) ([]byte, error) {
	n := r.Remaining()
	if n <= 0 {
		return nil, nil
	}
	return r.ReadBytes(int(n))
}

// milPoint reads X and Y keys in mil notation.
func milPoint(p *params.Collection, kx, ky string) coord.Point {
	return coord.Point{X: p.Get(kx).AsCoordOrDefault(0), Y: p.Get(ky).AsCoordOrDefault(0)}
}

func addMilPoint(p *params.Collection, kx, ky string, pt coord.Point) {
	p.AddMilCoord(kx, pt.X, true)
	p.AddMilCoord(ky, pt.Y, true)
}

// unmapped returns the keys of p not read by an import.
func unmapped(p *params.Collection) *params.Collection {
	if keys := p.Unused(); len(keys) > 0 {
		return p.Subset(keys)
	}
	return nil
}

// openBlock reads the next block of r and returns a reader over its
// payload. Blocks shorter than need bytes are corrupt.
func openBlock(r *binfmt.Reader, id ObjectID, need int) (*binfmt.Reader, error) {
	at := r.Offset()
	data, _, err := r.ReadBlock()
	if err != nil {
		return nil, err
	}
	if len(data) < need {
		return nil, diag.Corrupt(r.Name(), at, "%s block of %d bytes, need %d", id, len(data), need)
	}
	return binfmt.NewBytesReader(data, r.Name()), nil
}
