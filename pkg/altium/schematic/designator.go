package schematic

import (
	"strconv"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// designatorNumber returns the numeric suffix of d after prefix. The prefix
// comparison ignores case.
func designatorNumber(d, prefix string) (int, bool) {
	if len(d) <= len(prefix) || !strings.EqualFold(d[:len(prefix)], prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(d[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextDesignator returns prefix followed by one more than the largest
// numeric suffix among the existing designators that start with prefix.
// With no numbered designators it returns prefix + "1".
func NextDesignator(existing []string, prefix string) string {
	next := 1
	for _, d := range existing {
		if n, ok := designatorNumber(d, prefix); ok {
			next = max(next, n+1)
		}
	}
	return prefix + strconv.Itoa(next)
}

// FirstFreeDesignator returns prefix followed by the lowest number from 1
// up that no existing designator uses, filling gaps left by deletions.
func FirstFreeDesignator(existing []string, prefix string) string {
	used := mapset.New[int]()
	for _, d := range existing {
		if n, ok := designatorNumber(d, prefix); ok {
			used.Add(n)
		}
	}
	next := 1
	for used.Has(next) {
		next++
	}
	return prefix + strconv.Itoa(next)
}

// PinDesignators returns the designators of the live pins in t.
func (t *Tree) PinDesignators() []string {
	var out []string
	for _, i := range t.Find(RecordPin) {
		out = append(out, t.Records[i].(*Pin).Designator)
	}
	return out
}

// NextPinDesignator returns the lowest numeric pin designator not used by
// a live pin of t.
func (t *Tree) NextPinDesignator() string {
	return FirstFreeDesignator(t.PinDesignators(), "")
}
