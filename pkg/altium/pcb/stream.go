package pcb

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

var constructors = map[ObjectID]func() Primitive{
	ObjectArc:           func() Primitive { return &Arc{} },
	ObjectPad:           func() Primitive { return &Pad{} },
	ObjectVia:           func() Primitive { return &Via{} },
	ObjectTrack:         func() Primitive { return &Track{} },
	ObjectText:          func() Primitive { return &Text{} },
	ObjectFill:          func() Primitive { return &Fill{} },
	ObjectRegion:        func() Primitive { return &Region{} },
	ObjectComponentBody: func() Primitive { return &ComponentBody{} },
}

// NewPrimitive returns an empty primitive for id.
func NewPrimitive(id ObjectID) (Primitive, bool) {
	fn, ok := constructors[id]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// ImportRecord builds a primitive from its parameter form. RECORD may be a
// name or a numeric object id.
func ImportRecord(p *params.Collection) (Primitive, error) {
	v := p.Get("RECORD")
	id, ok := ParseObjectID(v.Raw())
	if !v.Exists() || !ok {
		return nil, diag.Corrupt("", -1, "missing or invalid RECORD %q", v.Raw())
	}
	prim, ok := NewPrimitive(id)
	if !ok {
		return nil, &diag.UnsupportedFeatureError{Index: -1, Feature: "object " + id.String()}
	}
	if err := prim.ImportFromParameters(p); err != nil {
		return nil, err
	}
	return prim, nil
}

// ExportRecord returns the parameter form of prim.
func ExportRecord(prim Primitive) *params.Collection {
	p := params.New()
	prim.ExportToParameters(p)
	return p
}

// ReadPrimitives reads binary primitives until the end of r. Every
// primitive starts with its object id; an unknown id ends the read because
// its block count is unknown.
func ReadPrimitives(ctx context.Context, r *binfmt.Reader, ws *diag.Warnings) ([]Primitive, error) {
	var prims []Primitive
	for index := 0; !r.EOF(); index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := r.Offset()
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		id := ObjectID(b)
		prim, ok := NewPrimitive(id)
		if !ok {
			return nil, diag.Corrupt(r.Name(), at, "unknown object id %d", id)
		}
		if err := prim.readBinary(r); err != nil {
			return nil, fmt.Errorf("read %s %d: %w", id, index, err)
		}
		if id == ObjectComponentBody {
			ws.AddError(r.Name(), index, &diag.UnsupportedFeatureError{
				Stream:  r.Name(),
				Index:   index,
				Feature: "component body geometry kept raw",
			})
		}
		prims = append(prims, prim)
	}
	return prims, nil
}

// WritePrimitives writes prims in binary form, each preceded by its
// object id.
func WritePrimitives(ctx context.Context, w *binfmt.Writer, prims []Primitive) error {
	for i, prim := range prims {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.WriteByte(byte(prim.ObjectID()))
		if err := prim.writeBinary(w); err != nil {
			return fmt.Errorf("write %s %d: %w", prim.ObjectID(), i, err)
		}
	}
	return nil
}

// snapshot is the text of a parameter block as read, with the encoding the
// codec produced for it at read time.
type snapshot struct {
	raw     binfmt.CString
	encoded string
	valid   bool
}

func takeSnapshot(cs binfmt.CString, p *params.Collection) snapshot {
	return snapshot{raw: cs, encoded: p.String(), valid: true}
}

// pick returns the original block when p still encodes the same way.
func (s snapshot) pick(p *params.Collection) binfmt.CString {
	text := p.String()
	if s.valid && text == s.encoded {
		return s.raw
	}
	return binfmt.CString{Text: text, Terminated: true}
}

// snapshotOf records cs with the encoding rec exports to.
func snapshotOf(cs binfmt.CString, rec parameterRecord) snapshot {
	p := params.New()
	rec.ExportToParameters(p)
	return takeSnapshot(cs, p)
}

// paramRecord is one block of a parameter record stream.
type paramRecord struct {
	params *params.Collection
	raw    binfmt.CString
	offset int64
}

// readParamRecords reads a stream of parameter blocks.
func readParamRecords(ctx context.Context, r *binfmt.Reader) ([]paramRecord, error) {
	var out []paramRecord
	for !r.EOF() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := r.Offset()
		cs, _, err := r.ReadCStringBlock()
		if err != nil {
			return nil, err
		}
		p, err := params.Parse(cs.Text)
		if err != nil {
			return nil, diag.Corrupt(r.Name(), at, "%v", err)
		}
		out = append(out, paramRecord{params: p, raw: cs, offset: at})
	}
	return out, nil
}

// parameterRecord is satisfied by the parameter-only record types.
type parameterRecord interface {
	ExportToParameters(p *params.Collection)
}

// writeParamRecord writes rec as a parameter block, reusing the original
// text when rec is unchanged.
func writeParamRecord(w *binfmt.Writer, rec parameterRecord, snap snapshot) error {
	p := params.New()
	rec.ExportToParameters(p)
	return w.WriteCStringBlock(0, snap.pick(p))
}

// encodeWide returns the UTF-16 code units of s as the comma separated
// list used by WideStrings streams.
func encodeWide(s string) string {
	units := utf16.Encode([]rune(s))
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.Itoa(int(u))
	}
	return strings.Join(parts, ",")
}

// decodeWide is the inverse of encodeWide. Malformed lists give false.
func decodeWide(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	var units []uint16
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 0xFFFF {
			return "", false
		}
		units = append(units, uint16(n))
	}
	return string(utf16.Decode(units)), true
}

// applyWideStrings restores the Unicode form of text primitives from a
// WideStrings collection. ENCODEDTEXTn belongs to the n-th text. The wide
// form is only taken when it maps to the same code page bytes, so the text
// block is written back unchanged.
func applyWideStrings(prims []Primitive, wide *params.Collection) {
	n := 0
	for _, prim := range prims {
		t, ok := prim.(*Text)
		if !ok {
			continue
		}
		if v := wide.Get(fmtKey("ENCODEDTEXT", n)); v.Exists() {
			if s, ok := decodeWide(v.Raw()); ok && bytes.Equal(binfmt.EncodeString(s), binfmt.EncodeString(t.Text)) {
				t.Text = s
			}
		}
		n++
	}
}

// wideStrings builds the WideStrings collection for prims.
func wideStrings(prims []Primitive) *params.Collection {
	p := params.New()
	n := 0
	for _, prim := range prims {
		if t, ok := prim.(*Text); ok {
			p.AddString(fmtKey("ENCODEDTEXT", n), encodeWide(t.Text), true)
			n++
		}
	}
	return p
}
