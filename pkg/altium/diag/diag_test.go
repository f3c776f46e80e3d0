package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestCorruptFileErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *CorruptFileError
		want string
	}{
		{
			name: "stream and offset",
			err:  Corrupt("Data", 12, "block size %d exceeds stream", 99),
			want: "corrupt file [Data @12]: block size 99 exceeds stream",
		},
		{
			name: "path without offset",
			err:  &CorruptFileError{Path: "a.SchLib", Stream: "FileHeader", Offset: -1, Err: errors.New("empty")},
			want: "corrupt file a.SchLib [FileHeader]: empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithPathAndMismatch(t *testing.T) {
	err := fmt.Errorf("reading component: %w", Mismatch(2, 13))
	err = WithPath(err, "lib.SchLib")

	if !errors.Is(err, ErrRecordMismatch) {
		t.Fatalf("errors.Is(err, ErrRecordMismatch) = false for %v", err)
	}
	var cf *CorruptFileError
	if !errors.As(err, &cf) {
		t.Fatalf("errors.As CorruptFileError failed for %v", err)
	}
	if cf.Path != "lib.SchLib" {
		t.Errorf("Path = %q, want lib.SchLib", cf.Path)
	}
}

func TestWarnings(t *testing.T) {
	var ws Warnings
	ws.Addf("Data", 3, "unknown record %d", 99)
	ws.AddError("", 0, &UnsupportedFeatureError{Stream: "Data", Index: 4, Feature: "component body"})

	if len(ws) != 2 {
		t.Fatalf("len = %d, want 2", len(ws))
	}
	if got := ws[0].String(); got != "Data[3]: unknown record 99" {
		t.Errorf("ws[0] = %q", got)
	}
	if got := ws[1].String(); got != "unsupported feature in Data record 4: component body" {
		t.Errorf("ws[1] = %q", got)
	}
}
