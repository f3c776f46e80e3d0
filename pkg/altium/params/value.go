package params

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
)

// Value is the raw string of one parameter, or a missing sentinel. Accessors
// never fail: absent or malformed values resolve to the supplied default and
// malformed ones are noted on the owning collection.
type Value struct {
	key string
	raw string
	ok  bool
	c   *Collection
}

// Exists reports whether the key was present.
func (v Value) Exists() bool { return v.ok }

// Raw returns the unparsed string ("" when missing).
func (v Value) Raw() string { return v.raw }

func (v Value) malformed(kind string) {
	if v.c != nil {
		v.c.note("%s: malformed %s value %q", v.key, kind, v.raw)
	}
}

// AsStringOrDefault returns the raw value, or def when missing.
func (v Value) AsStringOrDefault(def string) string {
	if !v.ok {
		return def
	}
	return v.raw
}

// AsIntOrDefault parses a decimal integer. Values written as floats are
// truncated.
func (v Value) AsIntOrDefault(def int) int {
	if !v.ok {
		return def
	}
	s := strings.TrimSpace(v.raw)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return int(f)
	}
	v.malformed("integer")
	return def
}

// AsDoubleOrDefault parses a floating point value. A comma decimal separator
// is accepted.
func (v Value) AsDoubleOrDefault(def float64) float64 {
	if !v.ok {
		return def
	}
	s := strings.TrimSpace(v.raw)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		v.malformed("float")
		return def
	}
	return f
}

// AsBool reports whether the value is "T", "TRUE" or "1" (any case).
func (v Value) AsBool() bool {
	return v.AsBoolOrDefault(false)
}

// AsBoolOrDefault is AsBool with an explicit value for missing keys.
func (v Value) AsBoolOrDefault(def bool) bool {
	if !v.ok {
		return def
	}
	switch strings.ToUpper(strings.TrimSpace(v.raw)) {
	case "T", "TRUE", "1":
		return true
	}
	return false
}

// AsColorOrDefault decodes a packed Win32 color integer.
func (v Value) AsColorOrDefault(def color.RGBA) color.RGBA {
	if !v.ok {
		return def
	}
	n := v.AsIntOrDefault(math.MinInt)
	if n == math.MinInt {
		return def
	}
	return ColorFromWin32(n)
}

// AsCoordOrDefault parses a distance string such as "12.5mil" or "0.3mm".
func (v Value) AsCoordOrDefault(def coord.Coord) coord.Coord {
	if !v.ok || strings.TrimSpace(v.raw) == "" {
		return def
	}
	c, err := coord.ParseCoord(v.raw)
	if err != nil {
		v.malformed("coordinate")
		return def
	}
	return c
}

// NewValueNote ends the note recorded for an enum value outside the known
// members.
const NewValueNote = "possible new field value"

// Enum is satisfied by integer-backed enumerations that can tell whether a
// value is one of their members.
type Enum interface {
	~int
	IsValid() bool
}

// AsEnumOrDefault reads an integer-backed enum. Missing keys give def;
// values that are not members give the zero member and are noted as a
// possible new field value.
func AsEnumOrDefault[T Enum](v Value, def T) T {
	if !v.ok {
		return def
	}
	n := v.AsIntOrDefault(math.MinInt)
	if n == math.MinInt {
		return def
	}
	e := T(n)
	if !e.IsValid() {
		if v.c != nil {
			v.c.note("%s: unknown value %d, %s", v.key, n, NewValueNote)
		}
		var zero T
		return zero
	}
	return e
}

// ColorFromWin32 unpacks a Win32 COLORREF (0x00BBGGRR).
func ColorFromWin32(n int) color.RGBA {
	return color.RGBA{
		R: uint8(n),
		G: uint8(n >> 8),
		B: uint8(n >> 16),
		A: 0xFF,
	}
}

// ColorToWin32 packs c as a Win32 COLORREF.
func ColorToWin32(c color.RGBA) int {
	return int(c.R) | int(c.G)<<8 | int(c.B)<<16
}

// AddEnum writes an enum field as its integer value, omitted when equal to
// def unless force is set.
func AddEnum[T Enum](c *Collection, key string, value, def T, force bool) {
	c.AddIntDefault(key, int(value), int(def), force)
}
