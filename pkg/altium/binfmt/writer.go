package binfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// NewBytesReader returns a seekable Reader over data.
func NewBytesReader(data []byte, name string) *Reader {
	return NewReader(bytes.NewReader(data), name)
}

// Writer accumulates a binary stream in memory. Blocks are written in two
// passes: the size header is reserved, the payload written, and the header
// patched with the final length.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the bytes written so far.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteTo implements io.WriterTo.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf)
	return int64(n), err
}

// Write appends p verbatim.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteUint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) WriteInt16(v int16)   { w.WriteUint16(uint16(v)) }
func (w *Writer) WriteUint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) WriteInt32(v int32)   { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64)   { w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v)) }

func (w *Writer) WriteSingle(v float32) { w.WriteUint32(math.Float32bits(v)) }
func (w *Writer) WriteDouble(v float64) { w.WriteInt64(int64(math.Float64bits(v))) }

// WriteBlock writes a size-prefixed block whose payload is produced by fn.
// flags goes into the high byte of the size header.
func (w *Writer) WriteBlock(flags byte, fn func() error) error {
	at := len(w.buf)
	w.WriteUint32(0)
	start := len(w.buf)
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	size := len(w.buf) - start
	if size > SizeMask {
		return fmt.Errorf("block of %d bytes exceeds the %d byte limit", size, SizeMask)
	}
	binary.LittleEndian.PutUint32(w.buf[at:], uint32(size)|uint32(flags)<<24)
	return nil
}

// WriteRawBlock writes data as a block payload.
func (w *Writer) WriteRawBlock(flags byte, data []byte) error {
	return w.WriteBlock(flags, func() error {
		w.Write(data)
		return nil
	})
}

// WritePascalShortString writes a one-byte length and the code page bytes of
// s, silently truncated to 255 bytes.
func (w *Writer) WritePascalShortString(s string) {
	b := EncodeString(s)
	if len(b) > 255 {
		b = b[:255]
	}
	w.buf = append(w.buf, byte(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteStringBlock writes a block holding a Pascal string.
func (w *Writer) WriteStringBlock(s string) error {
	return w.WriteBlock(0, func() error {
		w.WritePascalShortString(s)
		return nil
	})
}

// WriteCStringBlock writes a parameter block: code page text plus an
// optional NUL terminator.
func (w *Writer) WriteCStringBlock(flags byte, s CString) error {
	return w.WriteBlock(flags, func() error {
		w.Write(EncodeString(s.Text))
		if s.Terminated {
			w.buf = append(w.buf, 0)
		}
		return nil
	})
}

// WriteFontName writes name as a 64-byte UTF-16LE field, NUL padded. Names
// too long for the field are cut so that a terminator always fits.
func (w *Writer) WriteFontName(name string) {
	var field [FontNameSize]byte
	enc, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err == nil {
		copy(field[:FontNameSize-2], enc)
	}
	w.buf = append(w.buf, field[:]...)
}
