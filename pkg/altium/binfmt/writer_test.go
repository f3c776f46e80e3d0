package binfmt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteBlockPatchesSize(t *testing.T) {
	w := NewWriter()
	err := w.WriteBlock(0x01, func() error {
		w.WriteInt32(7)
		w.WriteInt16(-1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x06, 0x00, 0x00, 0x01, 7, 0, 0, 0, 0xFF, 0xFF}
	if diff := cmp.Diff(want, w.Bytes()); diff != "" {
		t.Errorf("block bytes (-want +got):\n%s", diff)
	}
}

func TestWriteBlockPropagatesError(t *testing.T) {
	w := NewWriter()
	boom := errors.New("boom")
	if err := w.WriteBlock(0, func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestNestedBlocks(t *testing.T) {
	w := NewWriter()
	w.WriteBlock(0, func() error {
		w.WriteByte(0xAA)
		return w.WriteStringBlock("hi")
	})

	r := NewBytesReader(w.Bytes(), "nested")
	outer, _, err := r.ReadBlock()
	if err != nil {
		t.Fatal(err)
	}
	if len(outer) != 1+4+3 {
		t.Fatalf("outer block is %d bytes", len(outer))
	}
	inner := NewBytesReader(outer[1:], "inner")
	s, err := inner.ReadStringBlock()
	if err != nil || s != "hi" {
		t.Errorf("inner string = %q, %v", s, err)
	}
}

func TestPascalShortStringTruncates(t *testing.T) {
	w := NewWriter()
	w.WritePascalShortString(strings.Repeat("x", 300))
	if w.Len() != 256 {
		t.Errorf("written %d bytes, want 256", w.Len())
	}
	if w.Bytes()[0] != 255 {
		t.Errorf("length prefix %d, want 255", w.Bytes()[0])
	}
}

func TestCStringBlockRoundTrip(t *testing.T) {
	for _, term := range []bool{true, false} {
		in := CString{Text: "|RECORD=1|LIBREFERENCE=R°|", Terminated: term}
		w := NewWriter()
		if err := w.WriteCStringBlock(0, in); err != nil {
			t.Fatal(err)
		}
		r := NewBytesReader(w.Bytes(), "Data")
		got, flags, err := r.ReadCStringBlock()
		if err != nil {
			t.Fatal(err)
		}
		if flags != 0 || got != in {
			t.Errorf("round trip = %+v flags %d, want %+v", got, flags, in)
		}
	}
}

func TestReaderWriterSymmetry(t *testing.T) {
	w := NewWriter()
	w.WriteByte(3)
	w.WriteBool(true)
	w.WriteUint16(0xBEEF)
	w.WriteInt32(-123456)
	w.WriteInt64(1 << 40)
	w.WriteSingle(1.5)
	w.WriteDouble(-2.25)
	w.WritePascalShortString("Pin 1")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	r := NewReader(&buf, "sym")
	b, _ := r.ReadByte()
	ok, _ := r.ReadBool()
	u16, _ := r.ReadUint16()
	i32, _ := r.ReadInt32()
	i64, _ := r.ReadInt64()
	f32, _ := r.ReadSingle()
	f64, _ := r.ReadDouble()
	s, err := r.ReadPascalString()
	if err != nil {
		t.Fatal(err)
	}
	if b != 3 || !ok || u16 != 0xBEEF || i32 != -123456 || i64 != 1<<40 || f32 != 1.5 || f64 != -2.25 || s != "Pin 1" {
		t.Errorf("mismatch: %d %v %x %d %d %v %v %q", b, ok, u16, i32, i64, f32, f64, s)
	}
}
