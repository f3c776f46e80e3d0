// Package binfmt implements the block-oriented binary primitives of Altium
// compound-file streams: little-endian integers, size-prefixed blocks whose
// high size byte carries flags, Pascal strings in the Windows-1252 code page,
// and fixed-width UTF-16 font name fields.
package binfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// SizeMask selects the length bits of a block size header. The high byte
// holds flags.
const SizeMask = 0x00FFFFFF

// FontNameSize is the width of a font name field in bytes.
const FontNameSize = 64

var (
	// ErrEndOfStream is returned when a read needs more bytes than remain.
	ErrEndOfStream = errors.New("unexpected end of stream")

	// ErrNotSeekable is returned by CaptureRawBytes on streaming sources.
	ErrNotSeekable = errors.New("source is not seekable")
)

var (
	codePage = charmap.Windows1252
	utf16le  = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	discardPool = sync.Pool{
		New: func() any {
			b := make([]byte, 4096)
			return &b
		},
	}
)

// DecodeString converts legacy code page bytes to a Go string.
func DecodeString(b []byte) string {
	s, err := codePage.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// EncodeString converts s to the legacy code page, replacing characters the
// code page cannot represent.
func EncodeString(s string) []byte {
	b, err := encoding.ReplaceUnsupported(codePage.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}

// Reader is a sequential cursor over a binary stream. When the source is an
// io.ReadSeeker of known size, malformed sizes are detected before reading
// and CaptureRawBytes is available.
type Reader struct {
	r      io.Reader
	seeker io.ReadSeeker
	name   string
	offset int64
	size   int64
	buf    [8]byte
}

// NewReader wraps r. name identifies the stream in errors. If r is an
// io.ReadSeeker its size is determined up front.
func NewReader(r io.Reader, name string) *Reader {
	br := &Reader{r: r, name: name, size: -1}
	if rs, ok := r.(io.ReadSeeker); ok {
		br.seeker = rs
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err == nil {
			if end, err := rs.Seek(0, io.SeekEnd); err == nil {
				br.size = end
			}
			rs.Seek(cur, io.SeekStart)
			br.offset = cur
		}
	}
	return br
}

// Name returns the stream name given to NewReader.
func (r *Reader) Name() string { return r.name }

// Offset returns the number of bytes consumed from the start of the stream.
func (r *Reader) Offset() int64 { return r.offset }

// Remaining returns the number of unread bytes, or -1 if unknown.
func (r *Reader) Remaining() int64 {
	if r.size < 0 {
		return -1
	}
	return r.size - r.offset
}

// EOF reports whether the cursor is at the end of a sized stream. Streaming
// sources report false until a read fails.
func (r *Reader) EOF() bool {
	return r.size >= 0 && r.offset >= r.size
}

func (r *Reader) corrupt(at int64, format string, args ...any) error {
	return diag.Corrupt(r.name, at, format, args...)
}

func (r *Reader) fill(b []byte) error {
	n, err := io.ReadFull(r.r, b)
	r.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%s @%d: %w", r.name, r.offset, ErrEndOfStream)
		}
		return err
	}
	return nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.corrupt(r.offset, "negative length %d", n)
	}
	if rem := r.Remaining(); rem >= 0 && int64(n) > rem {
		return nil, fmt.Errorf("%s @%d: need %d bytes, %d left: %w", r.name, r.offset, n, rem, ErrEndOfStream)
	}
	b := make([]byte, n)
	if err := r.fill(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.fill(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.fill(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.buf[:2]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	if err := r.fill(r.buf[:8]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(r.buf[:8])), nil
}

func (r *Reader) ReadSingle() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadDouble() (float64, error) {
	v, err := r.ReadInt64()
	return math.Float64frombits(uint64(v)), err
}

// readSize reads a block size header and returns the masked length and the
// flag byte. Non-positive lengths read as zero.
func (r *Reader) readSize() (int, byte, error) {
	at := r.offset
	raw, err := r.ReadUint32()
	if err != nil {
		return 0, 0, err
	}
	flags := byte(raw >> 24)
	size := int32(raw & SizeMask)
	if size <= 0 {
		return 0, flags, nil
	}
	if rem := r.Remaining(); rem >= 0 && int64(size) > rem {
		return 0, flags, r.corrupt(at, "block size %d exceeds remaining %d bytes", size, rem)
	}
	return int(size), flags, nil
}

// ReadBlock reads a size-prefixed block and returns its payload and the flag
// byte from the size header.
func (r *Reader) ReadBlock() ([]byte, byte, error) {
	at := r.offset
	size, flags, err := r.readSize()
	if err != nil {
		return nil, flags, err
	}
	data, err := r.ReadBytes(size)
	if err != nil {
		if errors.Is(err, ErrEndOfStream) {
			return nil, flags, r.corrupt(at, "truncated block of %d bytes", size)
		}
		return nil, flags, err
	}
	return data, flags, nil
}

// SkipBlock advances past a size-prefixed block.
func (r *Reader) SkipBlock() error {
	size, _, err := r.readSize()
	if err != nil {
		return err
	}
	return r.Skip(int64(size))
}

// Skip advances n bytes. Streaming sources are read and discarded.
func (r *Reader) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	if rem := r.Remaining(); rem >= 0 && n > rem {
		return fmt.Errorf("%s @%d: skip %d bytes, %d left: %w", r.name, r.offset, n, rem, ErrEndOfStream)
	}
	if r.seeker != nil {
		if _, err := r.seeker.Seek(n, io.SeekCurrent); err != nil {
			return err
		}
		r.offset += n
		return nil
	}

	bp := discardPool.Get().(*[]byte)
	defer discardPool.Put(bp)
	buf := *bp
	for n > 0 {
		chunk := buf
		if int64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		if err := r.fill(chunk); err != nil {
			return err
		}
		n -= int64(len(chunk))
	}
	return nil
}

// ReadPascalString reads a one-byte length followed by that many code page
// bytes.
func (r *Reader) ReadPascalString() (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return DecodeString(b), nil
}

// ReadStringBlock reads a block whose payload is a Pascal string. The whole
// declared block is consumed even when the string is shorter.
func (r *Reader) ReadStringBlock() (string, error) {
	at := r.offset
	data, _, err := r.ReadBlock()
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	n := int(data[0])
	if n > len(data)-1 {
		return "", r.corrupt(at, "string length %d exceeds block of %d bytes", n, len(data))
	}
	return DecodeString(data[1 : 1+n]), nil
}

// CString is the payload of a parameter block: code page text, optionally
// followed by a NUL terminator.
type CString struct {
	Text       string
	Terminated bool
}

// ReadCStringBlock reads a size-prefixed block holding NUL-terminated text,
// returning the flag byte alongside it.
func (r *Reader) ReadCStringBlock() (CString, byte, error) {
	data, flags, err := r.ReadBlock()
	if err != nil {
		return CString{}, flags, err
	}
	return ParseCString(data), flags, nil
}

// ParseCString decodes a C string payload.
func ParseCString(data []byte) CString {
	var s CString
	if n := len(data); n > 0 && data[n-1] == 0 {
		s.Terminated = true
		data = data[:n-1]
	}
	s.Text = DecodeString(data)
	return s
}

// ReadFontName reads a 64-byte UTF-16LE, NUL-terminated font name field.
func (r *Reader) ReadFontName() (string, error) {
	b, err := r.ReadBytes(FontNameSize)
	if err != nil {
		return "", err
	}
	return DecodeFontName(b), nil
}

// DecodeFontName decodes a UTF-16LE field up to its first NUL code unit.
func DecodeFontName(b []byte) string {
	end := len(b) &^ 1
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			end = i
			break
		}
	}
	s, err := utf16le.NewDecoder().Bytes(b[:end])
	if err != nil {
		return ""
	}
	return string(s)
}

// CaptureRawBytes re-reads n bytes starting at absolute offset start without
// moving the cursor. It needs a seekable source.
func (r *Reader) CaptureRawBytes(start int64, n int) ([]byte, error) {
	if r.seeker == nil {
		return nil, ErrNotSeekable
	}
	if start < 0 || n < 0 || (r.size >= 0 && start+int64(n) > r.size) {
		return nil, fmt.Errorf("%s: capture [%d,+%d) out of range: %w", r.name, start, n, ErrEndOfStream)
	}
	if _, err := r.seeker.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	_, err := io.ReadFull(r.seeker, b)
	if _, serr := r.seeker.Seek(r.offset, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
