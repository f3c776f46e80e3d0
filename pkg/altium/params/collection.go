// Package params implements the ordered key/value parameter collection used
// to encode nearly every Altium record as a "|KEY=VALUE|KEY2=VALUE2" line.
//
// Keys compare case-insensitively and keep their insertion order. Values
// are stored as strings; their type is chosen by the accessor at the call
// site. Writers omit default values per field, and the bookmark operations
// let an exporter reproduce the exact key order of files written by the
// vendor tool.
package params

import (
	"fmt"
	"image/color"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
)

type entry struct {
	key   string
	value string
}

// Collection is an ordered, case-insensitive string map.
type Collection struct {
	entries  []entry
	index    map[string]int
	bookmark int

	used  map[string]bool
	dups  []string
	notes []string
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{index: make(map[string]int), bookmark: -1}
}

func normKey(key string) string { return strings.ToUpper(key) }

func (c *Collection) reindex() {
	clear(c.index)
	for i, e := range c.entries {
		c.index[normKey(e.key)] = i
	}
}

// Len returns the number of keys.
func (c *Collection) Len() int { return len(c.entries) }

// Count reads an element count. Every counted element takes at least one
// key, so counts above Len are clamped to it and noted; negative or
// malformed counts give 0.
func (c *Collection) Count(key string) int {
	n := c.Get(key).AsIntOrDefault(0)
	switch {
	case n < 0:
		c.note("%s: negative count %d", key, n)
		return 0
	case n > c.Len():
		c.note("%s: count %d exceeds the %d keys present", key, n, c.Len())
		return c.Len()
	}
	return n
}

// Keys returns the keys in order, with their original case.
func (c *Collection) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.key
	}
	return keys
}

// All iterates key/value pairs in order.
func (c *Collection) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, e := range c.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Has reports whether key is present.
func (c *Collection) Has(key string) bool {
	_, ok := c.index[normKey(key)]
	return ok
}

// Get returns the value for key and marks the key as consumed.
func (c *Collection) Get(key string) Value {
	k := normKey(key)
	if c.used == nil {
		c.used = make(map[string]bool)
	}
	c.used[k] = true
	i, ok := c.index[k]
	if !ok {
		return Value{key: key, c: c}
	}
	return Value{key: key, raw: c.entries[i].value, ok: true, c: c}
}

// Add appends key=value. If the key already exists the first value is kept,
// the duplicate is recorded and Add returns false.
func (c *Collection) Add(key, value string) bool {
	k := normKey(key)
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if _, ok := c.index[k]; ok {
		c.dups = append(c.dups, key)
		return false
	}
	c.index[k] = len(c.entries)
	c.entries = append(c.entries, entry{key: key, value: value})
	return true
}

// Set replaces the value of an existing key in place, or appends it.
func (c *Collection) Set(key, value string) {
	if i, ok := c.index[normKey(key)]; ok {
		c.entries[i].value = value
		return
	}
	c.Add(key, value)
}

// Remove deletes key if present.
func (c *Collection) Remove(key string) {
	i, ok := c.index[normKey(key)]
	if !ok {
		return
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	if c.bookmark > i {
		c.bookmark--
	}
	c.reindex()
}

// Duplicates returns keys that appeared more than once while adding. Only the
// first occurrence of each was kept.
func (c *Collection) Duplicates() []string { return c.dups }

// Notes returns value problems recorded by accessors: malformed numbers and
// unknown enum values that fell back to defaults.
func (c *Collection) Notes() []string { return c.notes }

func (c *Collection) note(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

// Unused returns, in order, the keys that no Get call has consumed.
func (c *Collection) Unused() []string {
	var out []string
	for _, e := range c.entries {
		if !c.used[normKey(e.key)] {
			out = append(out, e.key)
		}
	}
	return out
}

// Subset returns a new collection holding only the given keys, in this
// collection's order.
func (c *Collection) Subset(keys []string) *Collection {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[normKey(k)] = true
	}
	out := New()
	for _, e := range c.entries {
		if want[normKey(e.key)] {
			out.Add(e.key, e.value)
		}
	}
	return out
}

// Merge appends every pair of other whose key is not yet present.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		c.Add(e.key, e.value)
	}
}

// Clone returns an independent copy without usage or note state.
func (c *Collection) Clone() *Collection {
	out := New()
	out.entries = slices.Clone(c.entries)
	out.reindex()
	return out
}

// Map returns the pairs as a map keyed by original key.
func (c *Collection) Map() map[string]string {
	m := make(map[string]string, len(c.entries))
	for _, e := range c.entries {
		m[e.key] = e.value
	}
	return m
}

// SetBookmark marks the current end of the collection as the position where
// MoveKey and MoveKeys insert.
func (c *Collection) SetBookmark() { c.bookmark = len(c.entries) }

// MoveKey relocates an existing key to the bookmark, keeping its value, and
// advances the bookmark past it. Missing keys are ignored.
func (c *Collection) MoveKey(key string) {
	i, ok := c.index[normKey(key)]
	if !ok {
		return
	}
	if c.bookmark < 0 {
		c.bookmark = len(c.entries)
	}
	e := c.entries[i]
	c.entries = slices.Delete(c.entries, i, i+1)
	if i < c.bookmark {
		c.bookmark--
	}
	c.entries = slices.Insert(c.entries, c.bookmark, e)
	c.bookmark++
	c.reindex()
}

// MoveKeys moves every key starting with prefix to the bookmark, keeping
// their relative order.
func (c *Collection) MoveKeys(prefix string) {
	p := normKey(prefix)
	var keys []string
	for _, e := range c.entries {
		if strings.HasPrefix(normKey(e.key), p) {
			keys = append(keys, e.key)
		}
	}
	for _, k := range keys {
		c.MoveKey(k)
	}
}

// String renders the collection as a parameter line.
func (c *Collection) String() string {
	var b strings.Builder
	for _, e := range c.entries {
		b.WriteByte('|')
		b.WriteString(e.key)
		b.WriteByte('=')
		b.WriteString(e.value)
	}
	return b.String()
}

// Typed writers. Each omits the key when the value equals the field's
// default, unless force is set.

// AddString writes a string field; the default is "".
func (c *Collection) AddString(key, value string, force bool) {
	if value == "" && !force {
		return
	}
	c.Add(key, value)
}

// AddInt writes an integer field; the default is 0.
func (c *Collection) AddInt(key string, value int, force bool) {
	c.AddIntDefault(key, value, 0, force)
}

// AddIntDefault writes an integer field whose default is def.
func (c *Collection) AddIntDefault(key string, value, def int, force bool) {
	if value == def && !force {
		return
	}
	c.Add(key, strconv.Itoa(value))
}

// AddBool writes "T" for true. False is written as "F" only when forced.
func (c *Collection) AddBool(key string, value, force bool) {
	switch {
	case value:
		c.Add(key, "T")
	case force:
		c.Add(key, "F")
	}
}

// AddDouble writes a floating point field with three decimals; the default
// is 0.
func (c *Collection) AddDouble(key string, value float64, force bool) {
	if value == 0 && !force {
		return
	}
	c.Add(key, strconv.FormatFloat(value, 'f', 3, 64))
}

// AddColor writes a color as its packed Win32 integer; the default is
// black (0).
func (c *Collection) AddColor(key string, value color.RGBA, force bool) {
	c.AddInt(key, ColorToWin32(value), force)
}

// AddDxpCoord writes a coordinate as KEY (whole DXP units) and KEY_FRAC. The
// fraction is only written when non-zero.
func (c *Collection) AddDxpCoord(key string, value coord.Coord, force bool) {
	n, frac := coord.CoordToDxpFrac(value)
	c.AddInt(key, n, force)
	c.AddInt(key+"_FRAC", frac, false)
}

// AddDxpPoint writes PREFIX.X and PREFIX.Y as DXP coordinates.
func (c *Collection) AddDxpPoint(prefix string, p coord.Point, force bool) {
	c.AddDxpCoord(prefix+".X", p.X, force)
	c.AddDxpCoord(prefix+".Y", p.Y, force)
}

// AddMilCoord writes a coordinate as a mil string such as "12.5mil".
func (c *Collection) AddMilCoord(key string, value coord.Coord, force bool) {
	if value == 0 && !force {
		return
	}
	c.Add(key, value.String())
}

// DxpCoord reads a KEY/KEY_FRAC coordinate pair; missing parts are zero.
// Pairs outside the Coord range saturate and are noted.
func (c *Collection) DxpCoord(key string) coord.Coord {
	n := c.Get(key).AsIntOrDefault(0)
	frac := c.Get(key + "_FRAC").AsIntOrDefault(0)
	v, err := coord.ParseDxpFrac(n, frac)
	if err != nil {
		c.note("%s: %v", key, err)
	}
	return v
}

// DxpPoint reads PREFIX.X and PREFIX.Y coordinate pairs.
func (c *Collection) DxpPoint(prefix string) coord.Point {
	return coord.Point{X: c.DxpCoord(prefix + ".X"), Y: c.DxpCoord(prefix + ".Y")}
}
