package cfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf16"
)

const (
	sectorSize      = 512
	miniSectorSize  = 64
	miniCutoff      = 4096
	dirEntrySize    = 128
	headerDIFATSize = 109

	freeSect   = 0xFFFFFFFF
	endOfChain = 0xFFFFFFFE
	fatSect    = 0xFFFFFFFD
	noStream   = 0xFFFFFFFF

	typeStorage = 1
	typeStream  = 2
	typeRoot    = 5

	colorRed   = 0
	colorBlack = 1
)

var signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

type dirEntry struct {
	name     string
	kind     byte
	color    byte
	left     uint32
	right    uint32
	child    uint32
	start    uint32
	size     uint64
	stream   *Stream
	children []*dirEntry
	id       uint32
}

// Save writes s as a compound file at path.
func (s *Storage) Save(path string) error {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Bytes serializes s as a compound file.
func (s *Storage) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes s as a version 3 compound file.
func (s *Storage) WriteTo(w io.Writer) (int64, error) {
	root, err := buildDir(s, typeRoot)
	if err != nil {
		return 0, err
	}
	var entries []*dirEntry
	flatten(root, &entries)

	// Sector allocation: large streams, mini stream container, mini FAT,
	// directory, FAT.
	var (
		fat      []uint32
		miniFAT  []uint32
		mini     bytes.Buffer
		sectors  bytes.Buffer
		nextFree uint32
	)
	chain := func(n int) uint32 {
		if n == 0 {
			return endOfChain
		}
		start := nextFree
		for i := 0; i < n; i++ {
			if i == n-1 {
				fat = append(fat, endOfChain)
			} else {
				fat = append(fat, nextFree+1)
			}
			nextFree++
		}
		return start
	}
	pad := func(b *bytes.Buffer, unit int) {
		if r := b.Len() % unit; r != 0 {
			b.Write(make([]byte, unit-r))
		}
	}

	for _, e := range entries {
		if e.kind != typeStream {
			continue
		}
		n := len(e.stream.data)
		switch {
		case n == 0:
			e.start = endOfChain
		case n < miniCutoff:
			count := (n + miniSectorSize - 1) / miniSectorSize
			e.start = uint32(len(miniFAT))
			for i := 0; i < count; i++ {
				if i == count-1 {
					miniFAT = append(miniFAT, endOfChain)
				} else {
					miniFAT = append(miniFAT, uint32(len(miniFAT)+1))
				}
			}
			mini.Write(e.stream.data)
			pad(&mini, miniSectorSize)
		default:
			e.start = chain((n + sectorSize - 1) / sectorSize)
			sectors.Write(e.stream.data)
			pad(&sectors, sectorSize)
		}
		e.size = uint64(n)
	}

	root.size = uint64(mini.Len())
	root.start = chain((mini.Len() + sectorSize - 1) / sectorSize)
	sectors.Write(mini.Bytes())
	pad(&sectors, sectorSize)

	miniFATStart := uint32(endOfChain)
	miniFATSectors := 0
	if len(miniFAT) > 0 {
		for len(miniFAT)%(sectorSize/4) != 0 {
			miniFAT = append(miniFAT, freeSect)
		}
		miniFATSectors = len(miniFAT) / (sectorSize / 4)
		miniFATStart = chain(miniFATSectors)
		for _, v := range miniFAT {
			binary.Write(&sectors, binary.LittleEndian, v)
		}
	}

	dirSectors := (len(entries)*dirEntrySize + sectorSize - 1) / sectorSize
	dirStart := chain(dirSectors)
	for _, e := range entries {
		sectors.Write(e.encode())
	}
	for i := len(entries); i < dirSectors*(sectorSize/dirEntrySize); i++ {
		sectors.Write(emptyDirEntry())
	}

	// The FAT describes itself, so grow it until it covers every sector.
	fatSectors := 0
	for {
		need := (len(fat) + fatSectors + sectorSize/4 - 1) / (sectorSize / 4)
		if need == fatSectors {
			break
		}
		fatSectors = need
	}
	if fatSectors > headerDIFATSize {
		return 0, fmt.Errorf("compound file too large: %d FAT sectors, at most %d supported", fatSectors, headerDIFATSize)
	}
	fatStart := nextFree
	for i := 0; i < fatSectors; i++ {
		fat = append(fat, fatSect)
		nextFree++
	}
	for len(fat)%(sectorSize/4) != 0 {
		fat = append(fat, freeSect)
	}
	for _, v := range fat {
		binary.Write(&sectors, binary.LittleEndian, v)
	}

	header := make([]byte, sectorSize)
	copy(header, signature)
	le := binary.LittleEndian
	le.PutUint16(header[24:], 0x003E)
	le.PutUint16(header[26:], 0x0003)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], uint32(fatSectors))
	le.PutUint32(header[48:], dirStart)
	le.PutUint32(header[56:], miniCutoff)
	le.PutUint32(header[60:], miniFATStart)
	le.PutUint32(header[64:], uint32(miniFATSectors))
	le.PutUint32(header[68:], endOfChain)
	for i := 0; i < headerDIFATSize; i++ {
		v := uint32(freeSect)
		if i < fatSectors {
			v = fatStart + uint32(i)
		}
		le.PutUint32(header[76+4*i:], v)
	}

	n, err := w.Write(header)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(sectors.Bytes())
	return int64(n + m), err
}

func buildDir(s *Storage, kind byte) (*dirEntry, error) {
	if len(utf16.Encode([]rune(s.name))) > MaxNameLength {
		return nil, fmt.Errorf("storage name %q longer than %d characters", s.name, MaxNameLength)
	}
	e := &dirEntry{name: s.name, kind: kind, color: colorBlack, left: noStream, right: noStream, child: noStream}
	for _, c := range s.storages {
		ce, err := buildDir(c, typeStorage)
		if err != nil {
			return nil, err
		}
		e.children = append(e.children, ce)
	}
	for _, st := range s.streams {
		if len(utf16.Encode([]rune(st.name))) > MaxNameLength {
			return nil, fmt.Errorf("stream name %q longer than %d characters", st.name, MaxNameLength)
		}
		e.children = append(e.children, &dirEntry{
			name: st.name, kind: typeStream, color: colorBlack,
			left: noStream, right: noStream, child: noStream, stream: st,
		})
	}
	slices.SortFunc(e.children, func(a, b *dirEntry) int { return compareNames(a.name, b.name) })
	return e, nil
}

// compareNames orders directory entries the way the format requires:
// shorter names first, then by upper-cased UTF-16 code units.
func compareNames(a, b string) int {
	ua := utf16.Encode([]rune(strings.ToUpper(a)))
	ub := utf16.Encode([]rune(strings.ToUpper(b)))
	if len(ua) != len(ub) {
		return len(ua) - len(ub)
	}
	return slices.Compare(ua, ub)
}

// flatten assigns directory ids depth first and links every storage's
// children into a balanced red-black tree.
func flatten(e *dirEntry, out *[]*dirEntry) {
	e.id = uint32(len(*out))
	*out = append(*out, e)
	for _, c := range e.children {
		flatten(c, out)
	}
	if len(e.children) > 0 {
		depth := treeHeight(len(e.children)) - 1
		e.child = link(e.children, 0, depth)
	}
}

func treeHeight(n int) int {
	h := 0
	for n > 0 {
		h++
		n /= 2
	}
	return h
}

// link builds a balanced binary search tree over sorted siblings and returns
// the id of its root. Nodes on the deepest level are red, the rest black,
// which keeps every root-to-leaf path at the same black height.
func link(sorted []*dirEntry, level, deepest int) uint32 {
	if len(sorted) == 0 {
		return noStream
	}
	mid := len(sorted) / 2
	n := sorted[mid]
	n.color = colorBlack
	if level == deepest && level > 0 {
		n.color = colorRed
	}
	n.left = link(sorted[:mid], level+1, deepest)
	n.right = link(sorted[mid+1:], level+1, deepest)
	return n.id
}

func (e *dirEntry) encode() []byte {
	b := make([]byte, dirEntrySize)
	le := binary.LittleEndian
	name := utf16.Encode([]rune(e.name))
	for i, u := range name {
		le.PutUint16(b[2*i:], u)
	}
	le.PutUint16(b[64:], uint16((len(name)+1)*2))
	b[66] = e.kind
	b[67] = e.color
	le.PutUint32(b[68:], e.left)
	le.PutUint32(b[72:], e.right)
	le.PutUint32(b[76:], e.child)
	start := e.start
	if e.kind == typeStorage {
		start = 0
	}
	le.PutUint32(b[116:], start)
	le.PutUint64(b[120:], e.size)
	return b
}

func emptyDirEntry() []byte {
	b := make([]byte, dirEntrySize)
	le := binary.LittleEndian
	le.PutUint32(b[68:], noStream)
	le.PutUint32(b[72:], noStream)
	le.PutUint32(b[76:], noStream)
	return b
}
