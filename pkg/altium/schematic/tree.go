package schematic

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
)

// Tree is the record arena of one record stream. Record 0 is the root (a
// component in libraries, the sheet header in documents); every other
// record refers to its owner by index. Indices stay stable when records are
// removed.
type Tree struct {
	Records  []Primitive
	Stream   string // Stream name used in warnings
	Warnings diag.Warnings

	owner    []int
	children [][]int
	removed  []bool
	sources  map[int]source
}

// NewTree returns a tree holding only root.
func NewTree(root Primitive) *Tree {
	t := &Tree{}
	t.Add(-1, root)
	return t
}

// Len returns the number of records, removed ones included.
func (t *Tree) Len() int { return len(t.Records) }

// Root returns record 0, or nil for an empty tree.
func (t *Tree) Root() Primitive {
	if len(t.Records) == 0 {
		return nil
	}
	return t.Records[0]
}

// Component returns the root as a component, or nil.
func (t *Tree) Component() *Component {
	c, _ := t.Root().(*Component)
	return c
}

// Sheet returns the root as a sheet header, or nil.
func (t *Tree) Sheet() *SheetHeader {
	h, _ := t.Root().(*SheetHeader)
	return h
}

// Add appends p as a child of owner and returns its index. The first record
// added becomes the root and owner is ignored. An owner that does not
// precede the new record leaves it orphaned with a warning. attached is
// false for orphans and for records a component stores in a named field
// (designator, comment, implementation list).
func (t *Tree) Add(owner int, p Primitive) (index int, attached bool) {
	index = len(t.Records)
	t.Records = append(t.Records, p)
	t.children = append(t.children, nil)
	t.removed = append(t.removed, false)

	if index == 0 {
		t.owner = append(t.owner, -1)
		return 0, true
	}
	if owner < 0 || owner >= index || t.removed[owner] {
		t.owner = append(t.owner, -1)
		t.Warnings.Addf(t.Stream, index, "record %d has invalid owner %d", p.Record(), owner)
		return index, false
	}

	t.owner = append(t.owner, owner)
	if c, ok := t.Records[owner].(*Component); ok && c.promote(p) {
		return index, false
	}
	t.children[owner] = append(t.children[owner], index)
	return index, true
}

// Remove detaches record i from its owner. The record stays in the arena
// but is skipped by Live, IsVisible and Bounds. Its children become
// orphans.
func (t *Tree) Remove(i int) error {
	if i <= 0 || i >= len(t.Records) {
		return fmt.Errorf("cannot remove record %d of %d", i, len(t.Records))
	}
	if t.removed[i] {
		return nil
	}
	if o := t.owner[i]; o >= 0 {
		t.children[o] = deleteIndex(t.children[o], i)
		if c, ok := t.Records[o].(*Component); ok {
			c.unpromote(t.Records[i])
		}
	}
	for _, ch := range t.children[i] {
		t.owner[ch] = -1
	}
	t.children[i] = nil
	t.owner[i] = -1
	t.removed[i] = true
	return nil
}

func deleteIndex(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Owner returns the owner index of record i, or -1 for the root, orphans
// and removed records.
func (t *Tree) Owner(i int) int {
	if i < 0 || i >= len(t.owner) {
		return -1
	}
	return t.owner[i]
}

// Children returns the generic children of record i in stream order.
func (t *Tree) Children(i int) []int {
	if i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

// Removed reports whether record i was removed.
func (t *Tree) Removed(i int) bool {
	return i >= 0 && i < len(t.removed) && t.removed[i]
}

// Orphans returns the records, other than the root, that have no valid
// owner and were not removed.
func (t *Tree) Orphans() []int {
	var out []int
	for i := 1; i < len(t.Records); i++ {
		if t.owner[i] < 0 && !t.removed[i] {
			out = append(out, i)
		}
	}
	return out
}

// Live returns the indices of records that were not removed.
func (t *Tree) Live() []int {
	out := make([]int, 0, len(t.Records))
	for i := range t.Records {
		if !t.removed[i] {
			out = append(out, i)
		}
	}
	return out
}

// Find returns the indices of live records of the given type.
func (t *Tree) Find(rec RecordType) []int {
	var out []int
	for _, i := range t.Live() {
		if t.Records[i].Record() == rec {
			out = append(out, i)
		}
	}
	return out
}

// Latest returns the index of the last live record of type rec before
// limit, or -1.
func (t *Tree) Latest(rec RecordType, limit int) int {
	for i := min(limit, len(t.Records)) - 1; i >= 0; i-- {
		if !t.removed[i] && t.Records[i].Record() == rec {
			return i
		}
	}
	return -1
}

// componentOf returns the nearest component among the owners of i.
func (t *Tree) componentOf(i int) *Component {
	for o := t.Owner(i); o >= 0; o = t.owner[o] {
		if c, ok := t.Records[o].(*Component); ok {
			return c
		}
	}
	return nil
}

// IsVisible reports whether record i is shown: its owner chain is visible,
// it belongs to the component's current part and display mode, and it is
// not hidden itself. The result is computed on every call, so changing
// CurrentPartID or DisplayMode takes effect immediately.
func (t *Tree) IsVisible(i int) bool {
	if i < 0 || i >= len(t.Records) || t.removed[i] {
		return false
	}
	if i == 0 {
		return true
	}
	o := t.owner[i]
	if o < 0 || !t.IsVisible(o) {
		return false
	}
	b := t.Records[i].Common()
	if c := t.componentOf(i); c != nil {
		if b.OwnerPartID > 0 && b.OwnerPartID != c.CurrentPartID {
			return false
		}
		if b.OwnerPartDisplayMode != c.DisplayMode {
			return false
		}
	}
	if h, ok := t.Records[i].(Hidable); ok && h.IsHidden() {
		return false
	}
	return true
}

// Bounds returns the union of the bounds of all visible records below the
// root. A tree with no such records reports the root's bounds.
func (t *Tree) Bounds() coord.Rect {
	var r coord.Rect
	for i := 1; i < len(t.Records); i++ {
		if t.IsVisible(i) {
			r = coord.Union(r, t.Records[i].CalculateBounds())
		}
	}
	if r.IsEmpty() && len(t.Records) > 0 {
		return t.Records[0].CalculateBounds()
	}
	return r
}
