// Package coord provides the fixed-point distance type used by Altium files.
//
// A Coord counts internal units: 10,000 per mil, so one inch is 10,000,000
// units and one millimetre is roughly 393,700. All arithmetic is integer
// exact; conversions to and from floating point units round to the nearest
// internal unit.
package coord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is a signed distance in internal units.
type Coord int32

// Unit sizes in internal units
const (
	OneMil  Coord = 10000
	OneInch Coord = 1000 * OneMil

	// DxpUnit is the schematic "DXP" grid unit (10 mil).
	DxpUnit = 100000

	milsPerMM = 1 / 0.0254
)

// FromMils converts mils to a Coord.
func FromMils(mils float64) Coord {
	return Coord(math.Round(mils * float64(OneMil)))
}

// FromMMs converts millimetres to a Coord.
func FromMMs(mm float64) Coord {
	return FromMils(mm * milsPerMM)
}

// FromInches converts inches to a Coord.
func FromInches(in float64) Coord {
	return FromMils(in * 1000)
}

// ToMils returns c in mils.
func (c Coord) ToMils() float64 { return float64(c) / float64(OneMil) }

// ToMMs returns c in millimetres.
func (c Coord) ToMMs() float64 { return c.ToMils() / milsPerMM }

// ToInches returns c in inches.
func (c Coord) ToInches() float64 { return c.ToMils() / 1000 }

func (c Coord) Add(o Coord) Coord { return c + o }
func (c Coord) Sub(o Coord) Coord { return c - o }
func (c Coord) Mul(k int) Coord   { return c * Coord(k) }
func (c Coord) Div(k int) Coord   { return c / Coord(k) }
func (c Coord) Neg() Coord        { return -c }

// Abs returns the absolute value of c.
func (c Coord) Abs() Coord {
	if c < 0 {
		return -c
	}
	return c
}

// String formats c as mils with up to four decimals, e.g. "12.5mil".
func (c Coord) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / int64(OneMil)
	frac := v % int64(OneMil)
	if frac == 0 {
		return fmt.Sprintf("%s%dmil", sign, whole)
	}
	fs := strings.TrimRight(fmt.Sprintf("%04d", frac), "0")
	return fmt.Sprintf("%s%d.%smil", sign, whole, fs)
}

// ParseCoord parses a distance with an optional unit suffix ("mil", "mm",
// "in"). Bare numbers are mils.
func ParseCoord(s string) (Coord, error) {
	s = strings.TrimSpace(s)
	num := strings.ToLower(s)

	scale := 1.0
	switch {
	case strings.HasSuffix(num, "mil"):
		num = strings.TrimSuffix(num, "mil")
	case strings.HasSuffix(num, "mm"):
		num = strings.TrimSuffix(num, "mm")
		scale = milsPerMM
	case strings.HasSuffix(num, "in"):
		num = strings.TrimSuffix(num, "in")
		scale = 1000
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	mils := f * scale
	if math.Abs(math.Round(mils*float64(OneMil))) > math.MaxInt32 {
		return 0, fmt.Errorf("coordinate %q out of range", s)
	}
	return FromMils(mils), nil
}

// DxpFracToCoord rebuilds a coordinate from its on-disk pair: a whole number
// of DXP units and a signed fraction in internal units. Pairs beyond the
// Coord range saturate at its limits.
func DxpFracToCoord(n, frac int) Coord {
	c, _ := ParseDxpFrac(n, frac)
	return c
}

// ParseDxpFrac is DxpFracToCoord with an error for pairs outside the Coord
// range. The returned Coord is saturated in that case.
func ParseDxpFrac(n, frac int) (Coord, error) {
	// Operands this small cannot overflow int64.
	const maxN, maxFrac = math.MaxInt32/DxpUnit + 1, 1 << 40
	n64, frac64 := int64(n), int64(frac)
	if n64 >= -maxN && n64 <= maxN && frac64 >= -maxFrac && frac64 <= maxFrac {
		v := n64*DxpUnit + frac64
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return Coord(v), nil
		}
	}
	err := fmt.Errorf("coordinate %d DXP + %d out of range", n, frac)
	if float64(n)*DxpUnit+float64(frac) > 0 {
		return math.MaxInt32, err
	}
	return math.MinInt32, err
}

// CoordToDxpFrac splits c into whole DXP units and the remaining fraction.
// Both parts carry the sign of c, so DxpFracToCoord(CoordToDxpFrac(c)) == c.
func CoordToDxpFrac(c Coord) (n, frac int) {
	v := int(c)
	return v / DxpUnit, v % DxpUnit
}

// FromDxp converts whole DXP units to a Coord.
func FromDxp(n int) Coord { return DxpFracToCoord(n, 0) }

// ToDxp returns c in whole DXP units, truncating the fraction.
func (c Coord) ToDxp() int {
	n, _ := CoordToDxpFrac(c)
	return n
}
