package schematic

import (
	"bytes"
	"context"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// impliedOwners maps a record type to the type of its owner when the
// record has no OWNERINDEX key: the owner is the closest preceding record
// of that type. Library streams rely on this for implementation records
// and binary pins.
var impliedOwners = map[RecordType]RecordType{
	RecordPin:            RecordComponent,
	RecordImplementation: RecordImplementationList,
	RecordMapDefinerList: RecordImplementation,
	RecordMapDefiner:     RecordMapDefinerList,
	RecordImplParamList:  RecordImplementation,
}

// RawRecord is a block that could not be decoded. It is written back
// unchanged.
type RawRecord struct {
	Base
	Flags byte
	Data  []byte
}

func (r *RawRecord) Record() RecordType { return RecordAny }

func (r *RawRecord) ImportFromParameters(p *params.Collection) error {
	return r.importBase(p, RecordAny)
}

func (r *RawRecord) ExportToParameters(p *params.Collection) {}

func (r *RawRecord) CalculateBounds() coord.Rect { return coord.BoundsOf() }

// source is the on-disk form of a record read from a stream, with the
// encoding the codec produced for it at read time. A record whose encoding
// is unchanged at write time is written from its original bytes.
type source struct {
	flags   byte
	raw     []byte
	encoded []byte
}

// ReadRecords reads record blocks until the end of r and assembles them
// into a tree. Record 0 must be the root. Problems with single records are
// reported in the tree's warnings; framing errors end the read.
func ReadRecords(ctx context.Context, r *binfmt.Reader) (*Tree, error) {
	t := &Tree{Stream: r.Name()}
	for index := 0; !r.EOF(); index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, flags, err := r.ReadBlock()
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", index, err)
		}
		prim, hasOwner := t.decode(index, data, flags)
		owner := 0
		if b := prim.Common(); hasOwner {
			owner = b.OwnerIndex
		} else if want, ok := impliedOwners[prim.Record()]; ok {
			if o := t.Latest(want, index); o > 0 {
				owner = o
				b.ImpliedOwner = true
			}
			b.OwnerIndex = owner
		}
		t.Add(owner, prim)
		t.remember(index, flags, data, prim)
	}
	if len(t.Records) == 0 {
		return nil, diag.Corrupt(r.Name(), 0, "no records")
	}
	return t, nil
}

// decode turns one block into a record. It never fails: undecodable blocks
// become RawRecord values with a warning.
func (t *Tree) decode(index int, data []byte, flags byte) (Primitive, bool) {
	raw := func(err error) Primitive {
		t.Warnings.AddError(t.Stream, index, err)
		return &RawRecord{Flags: flags, Data: bytes.Clone(data)}
	}

	if flags&BinaryPinFlag != 0 {
		pin := &Pin{}
		if err := pin.ReadBinary(binfmt.NewBytesReader(data, t.Stream)); err != nil {
			return raw(fmt.Errorf("binary pin: %w", err)), true
		}
		return pin, false
	}

	text := binfmt.ParseCString(data).Text
	p, err := params.Parse(text)
	if err != nil {
		return raw(err), true
	}
	hasOwner := p.Has("OWNERINDEX")
	prim, supported, err := ImportRecord(p)
	if err != nil {
		return raw(err), true
	}
	if !supported {
		t.Warnings.AddError(t.Stream, index, &diag.UnsupportedFeatureError{
			Stream:  t.Stream,
			Index:   index,
			Feature: fmt.Sprintf("record type %d", prim.Record()),
		})
	}
	for _, k := range p.Duplicates() {
		t.Warnings.Addf(t.Stream, index, "duplicate key %s, first value kept", k)
	}
	for _, n := range p.Notes() {
		t.Warnings.Addf(t.Stream, index, "%s", n)
	}
	return prim, hasOwner
}

func (t *Tree) remember(index int, flags byte, data []byte, prim Primitive) {
	if _, ok := prim.(*RawRecord); ok {
		return
	}
	enc, encFlags, err := encodeRecord(prim)
	if err != nil || encFlags != flags {
		enc = nil
	}
	if t.sources == nil {
		t.sources = make(map[int]source)
	}
	t.sources[index] = source{flags: flags, raw: bytes.Clone(data), encoded: enc}
}

// encodeRecord returns the block payload and flags of a record.
func encodeRecord(prim Primitive) ([]byte, byte, error) {
	switch v := prim.(type) {
	case *RawRecord:
		return v.Data, v.Flags, nil
	case *Pin:
		if v.Binary && v.CanWriteBinary() {
			w := binfmt.NewWriter()
			if err := v.WriteBinary(w); err != nil {
				return nil, 0, err
			}
			return w.Bytes(), BinaryPinFlag, nil
		}
	}
	text := ExportRecord(prim).String()
	return append(binfmt.EncodeString(text), 0), 0, nil
}

// WriteRecords writes the live records of t as blocks. Owner indices are
// renumbered to skip removed records. An orphan whose stale index would
// resolve to a written record gets OWNERINDEX -1, so it reads back as an
// orphan. Records read from a stream and not changed since are written from
// their original bytes.
func WriteRecords(ctx context.Context, w *binfmt.Writer, t *Tree) error {
	live := t.Live()
	renumber := make(map[int]int, len(live))
	for n, i := range live {
		renumber[i] = n
	}
	for n, i := range live {
		if err := ctx.Err(); err != nil {
			return err
		}
		prim := t.Records[i]
		if o := t.Owner(i); o >= 0 {
			prim.Common().OwnerIndex = renumber[o]
		} else if b := prim.Common(); n > 0 && b.OwnerIndex >= 0 && b.OwnerIndex < n {
			b.OwnerIndex = -1
			b.ImpliedOwner = false
		}
		data, flags, err := encodeRecord(prim)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", n, err)
		}
		if src, ok := t.sources[i]; ok && src.encoded != nil && src.flags == flags && bytes.Equal(src.encoded, data) {
			data = src.raw
		}
		if err := w.WriteRawBlock(flags, data); err != nil {
			return fmt.Errorf("write record %d: %w", n, err)
		}
	}
	return nil
}
