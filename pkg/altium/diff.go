package altium

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
)

// DiffKind classifies a stream difference.
type DiffKind int

// Stream difference kinds
const (
	StreamChanged DiffKind = iota
	StreamOnlyInA
	StreamOnlyInB
)

func (k DiffKind) String() string {
	switch k {
	case StreamOnlyInA:
		return "only in A"
	case StreamOnlyInB:
		return "only in B"
	}
	return "changed"
}

// StreamDiff describes one stream that differs between two containers.
type StreamDiff struct {
	Path  string
	Kind  DiffKind
	SizeA int
	SizeB int
	// Offset of the first differing byte, -1 unless Kind is StreamChanged
	Offset int
}

func (d StreamDiff) String() string {
	if d.Kind != StreamChanged {
		return fmt.Sprintf("%s: %s", d.Path, d.Kind)
	}
	return fmt.Sprintf("%s: %d vs %d bytes, first difference at 0x%X", d.Path, d.SizeA, d.SizeB, d.Offset)
}

func streamMap(s *cfb.Storage) map[string][]byte {
	m := make(map[string][]byte)
	s.Walk(func(path string, st *cfb.Stream) error {
		m[path] = st.Data()
		return nil
	})
	return m
}

// DiffStreams compares the streams of a and b byte for byte. Paths for
// which keep returns false are skipped; a nil keep compares everything.
// The result is sorted by path.
func DiffStreams(a, b *cfb.Storage, keep func(path string) bool) []StreamDiff {
	ma, mb := streamMap(a), streamMap(b)
	var out []StreamDiff
	for path, da := range ma {
		if keep != nil && !keep(path) {
			continue
		}
		db, ok := mb[path]
		if !ok {
			out = append(out, StreamDiff{Path: path, Kind: StreamOnlyInA, SizeA: len(da), Offset: -1})
			continue
		}
		if off := FirstDifference(da, db); off >= 0 {
			out = append(out, StreamDiff{Path: path, SizeA: len(da), SizeB: len(db), Offset: off})
		}
	}
	for path, db := range mb {
		if keep != nil && !keep(path) {
			continue
		}
		if _, ok := ma[path]; !ok {
			out = append(out, StreamDiff{Path: path, Kind: StreamOnlyInB, SizeB: len(db), Offset: -1})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FirstDifference returns the offset of the first byte where a and b
// differ, or -1 when they are equal.
func FirstDifference(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// SplitBlocks cuts data into its size-prefixed blocks. It reports false
// when data is not a plain sequence of blocks.
func SplitBlocks(data []byte) ([][]byte, bool) {
	r := binfmt.NewBytesReader(data, "")
	var out [][]byte
	for !r.EOF() {
		b, _, err := r.ReadBlock()
		if err != nil {
			return nil, false
		}
		out = append(out, b)
	}
	return out, true
}

// FirstBlockDifference returns the index of the first record block that
// differs between two block streams. ok is false when either stream is
// not a block sequence or the blocks are equal.
func FirstBlockDifference(a, b []byte) (index int, ok bool) {
	ba, okA := SplitBlocks(a)
	bb, okB := SplitBlocks(b)
	if !okA || !okB {
		return 0, false
	}
	for i := range min(len(ba), len(bb)) {
		if !bytes.Equal(ba[i], bb[i]) {
			return i, true
		}
	}
	if len(ba) != len(bb) {
		return min(len(ba), len(bb)), true
	}
	return 0, false
}
