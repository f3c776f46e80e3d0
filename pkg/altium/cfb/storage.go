// Package cfb exposes OLE compound files as an in-memory tree of named
// storages and streams.
//
// Reading is delegated to github.com/richardlehane/mscfb. Writing produces
// version 3 compound files (512-byte sectors, mini stream for small
// streams). Paths use '/' as the separator and names compare
// case-insensitively, as in the compound-file format itself.
package cfb

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// RootName is the name of the root storage entry.
const RootName = "Root Entry"

// MaxNameLength is the longest storage or stream name, in UTF-16 units.
const MaxNameLength = 31

// Stream is a named byte blob.
type Stream struct {
	name string
	data []byte
}

func (s *Stream) Name() string { return s.name }
func (s *Stream) Size() int64  { return int64(len(s.data)) }

// Data returns the stream contents. Callers must not modify the slice.
func (s *Stream) Data() []byte { return s.data }

// SetData replaces the stream contents.
func (s *Stream) SetData(b []byte) { s.data = b }

// Storage is a named node holding child storages and streams in insertion
// order.
type Storage struct {
	name     string
	storages []*Storage
	streams  []*Stream
}

// New returns an empty root storage.
func New() *Storage { return &Storage{name: RootName} }

func (s *Storage) Name() string { return s.name }

// Storages enumerates child storages.
func (s *Storage) Storages() []*Storage { return s.storages }

// Streams enumerates child streams.
func (s *Storage) Streams() []*Stream { return s.streams }

// Storage returns the child storage called name, or nil.
func (s *Storage) Storage(name string) *Storage {
	for _, c := range s.storages {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// Stream returns the child stream called name, or nil.
func (s *Storage) Stream(name string) *Stream {
	for _, c := range s.streams {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// CreateStorage returns the child storage called name, creating it if
// needed.
func (s *Storage) CreateStorage(name string) *Storage {
	if c := s.Storage(name); c != nil {
		return c
	}
	c := &Storage{name: name}
	s.storages = append(s.storages, c)
	return c
}

// CreateStream sets the contents of the child stream called name, creating
// it if needed.
func (s *Storage) CreateStream(name string, data []byte) *Stream {
	if c := s.Stream(name); c != nil {
		c.data = data
		return c
	}
	c := &Stream{name: name, data: data}
	s.streams = append(s.streams, c)
	return c
}

// Delete removes the child storage or stream called name.
func (s *Storage) Delete(name string) {
	s.storages = slices.DeleteFunc(s.storages, func(c *Storage) bool { return strings.EqualFold(c.name, name) })
	s.streams = slices.DeleteFunc(s.streams, func(c *Stream) bool { return strings.EqualFold(c.name, name) })
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// TryGetStorage resolves a '/'-separated storage path below s. The empty
// path resolves to s.
func (s *Storage) TryGetStorage(path string) (*Storage, bool) {
	cur := s
	for _, p := range splitPath(path) {
		cur = cur.Storage(p)
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// TryGetStream resolves a '/'-separated stream path below s.
func (s *Storage) TryGetStream(path string) (*Stream, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	dir, ok := s.TryGetStorage(strings.Join(parts[:len(parts)-1], "/"))
	if !ok {
		return nil, false
	}
	st := dir.Stream(parts[len(parts)-1])
	return st, st != nil
}

// GetStreamData returns the contents of the stream at path.
func (s *Storage) GetStreamData(path string) ([]byte, error) {
	st, ok := s.TryGetStream(path)
	if !ok {
		return nil, fmt.Errorf("stream %q: %w", path, os.ErrNotExist)
	}
	return st.data, nil
}

// Walk calls fn for every stream below s, depth first, storages in
// insertion order. Paths are relative to s.
func (s *Storage) Walk(fn func(path string, st *Stream) error) error {
	return s.walk("", fn)
}

func (s *Storage) walk(prefix string, fn func(string, *Stream) error) error {
	for _, st := range s.streams {
		if err := fn(prefix+st.name, st); err != nil {
			return err
		}
	}
	for _, c := range s.storages {
		if err := c.walk(prefix+c.name+"/", fn); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the tree. Stream data slices are shared.
func (s *Storage) Clone() *Storage {
	out := &Storage{name: s.name}
	for _, st := range s.streams {
		out.streams = append(out.streams, &Stream{name: st.name, data: st.data})
	}
	for _, c := range s.storages {
		out.storages = append(out.storages, c.Clone())
	}
	return out
}

// CopyFrom copies the children of src into s, replacing children of the
// same name.
func (s *Storage) CopyFrom(src *Storage) {
	for _, st := range src.streams {
		s.CreateStream(st.name, st.data)
	}
	for _, c := range src.storages {
		s.Delete(c.name)
		s.storages = append(s.storages, c.Clone())
	}
}

// SectionKey returns the storage name for a component reference. Names
// that are too long for a storage or contain '/' are shortened, with a
// numeric suffix when the short form is already taken.
func SectionKey(ref string, taken map[string]bool) (key string, mapped bool) {
	key = strings.ReplaceAll(ref, "/", "_")
	if len(key) > MaxNameLength {
		key = key[:MaxNameLength]
	}
	base := key
	for n := 1; taken[strings.ToUpper(key)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		key = base[:min(len(base), MaxNameLength-len(suffix))] + suffix
	}
	taken[strings.ToUpper(key)] = true
	return key, key != ref
}
