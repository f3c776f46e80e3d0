// Package diag defines the error taxonomy and warning channel shared by the
// Altium codec packages.
//
// Structural problems (truncated blocks, bad size fields, record type
// mismatches) are reported as *CorruptFileError and abort the current
// stream. Recognized-but-unimplemented content produces an
// *UnsupportedFeatureError that readers turn into a Warning and skip.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRecordMismatch is wrapped by the error returned when a record's RECORD
// parameter disagrees with the type it is imported into.
var ErrRecordMismatch = errors.New("record type mismatch")

// CorruptFileError reports structural damage in a file. Offset is the byte
// position within Stream where the problem was detected, or -1.
type CorruptFileError struct {
	Path   string
	Stream string
	Offset int64
	Err    error
}

func (e *CorruptFileError) Error() string {
	var b strings.Builder
	b.WriteString("corrupt file")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Stream != "" {
		fmt.Fprintf(&b, " [%s", e.Stream)
		if e.Offset >= 0 {
			fmt.Fprintf(&b, " @%d", e.Offset)
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CorruptFileError) Unwrap() error { return e.Err }

// Corrupt builds a CorruptFileError for a stream position.
func Corrupt(stream string, offset int64, format string, args ...any) *CorruptFileError {
	return &CorruptFileError{Stream: stream, Offset: offset, Err: fmt.Errorf(format, args...)}
}

// WithPath attaches a file path to err if it is (or wraps) a
// CorruptFileError without one. Other errors are returned unchanged.
func WithPath(err error, path string) error {
	var cf *CorruptFileError
	if errors.As(err, &cf) && cf.Path == "" {
		cf.Path = path
	}
	return err
}

// Mismatch returns the error for a RECORD value that does not match want.
func Mismatch(want, got int) error {
	return &CorruptFileError{
		Offset: -1,
		Err:    fmt.Errorf("%w: expected RECORD=%d, got %d", ErrRecordMismatch, want, got),
	}
}

// UnsupportedFeatureError marks content the codec recognizes but does not
// model. Readers keep the raw data and continue with the next record.
type UnsupportedFeatureError struct {
	Stream  string
	Index   int
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature in %s record %d: %s", e.Stream, e.Index, e.Feature)
}

// Warning is a non-fatal finding attached to a parse or export result.
type Warning struct {
	Stream  string `json:"stream,omitempty"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Stream == "" {
		return w.Message
	}
	return fmt.Sprintf("%s[%d]: %s", w.Stream, w.Index, w.Message)
}

// Warnings accumulates warnings for one file.
type Warnings []Warning

// Addf appends a formatted warning.
func (ws *Warnings) Addf(stream string, index int, format string, args ...any) {
	*ws = append(*ws, Warning{Stream: stream, Index: index, Message: fmt.Sprintf(format, args...)})
}

// AddError appends err as a warning.
func (ws *Warnings) AddError(stream string, index int, err error) {
	*ws = append(*ws, Warning{Stream: stream, Index: index, Message: err.Error()})
}
