package pcb

import (
	"fmt"
	"strconv"
	"strings"
)

// Layer is a PCB layer number as stored in primitive headers.
type Layer byte

// Named layers. Mid layers, planes and mechanical layers are numbered
// ranges starting at LayerMid1, LayerPlane1 and LayerMechanical1.
const (
	LayerNone           Layer = 0
	LayerTop            Layer = 1
	LayerMid1           Layer = 2
	LayerBottom         Layer = 32
	LayerTopOverlay     Layer = 33
	LayerBottomOverlay  Layer = 34
	LayerTopPaste       Layer = 35
	LayerBottomPaste    Layer = 36
	LayerTopSolder      Layer = 37
	LayerBottomSolder   Layer = 38
	LayerPlane1         Layer = 39
	LayerDrillGuide     Layer = 55
	LayerKeepOut        Layer = 56
	LayerMechanical1    Layer = 57
	LayerDrillDrawing   Layer = 73
	LayerMultiLayer     Layer = 74
	layerLastMid              = LayerBottom - 1
	layerLastPlane            = LayerDrillGuide - 1
	layerLastMechanical       = LayerDrillDrawing - 1
)

var layerNames = map[Layer]string{
	LayerNone:          "NOLAYER",
	LayerTop:           "TOP",
	LayerBottom:        "BOTTOM",
	LayerTopOverlay:    "TOPOVERLAY",
	LayerBottomOverlay: "BOTTOMOVERLAY",
	LayerTopPaste:      "TOPPASTE",
	LayerBottomPaste:   "BOTTOMPASTE",
	LayerTopSolder:     "TOPSOLDER",
	LayerBottomSolder:  "BOTTOMSOLDER",
	LayerDrillGuide:    "DRILLGUIDE",
	LayerKeepOut:       "KEEPOUT",
	LayerDrillDrawing:  "DRILLDRAWING",
	LayerMultiLayer:    "MULTILAYER",
}

// String returns the layer name used in parameter records, such as "TOP",
// "MID3" or "MECHANICAL1". Unnamed numbers format as "LAYER<n>".
func (l Layer) String() string {
	if s, ok := layerNames[l]; ok {
		return s
	}
	switch {
	case l >= LayerMid1 && l <= layerLastMid:
		return "MID" + strconv.Itoa(int(l-LayerMid1)+1)
	case l >= LayerPlane1 && l <= layerLastPlane:
		return "PLANE" + strconv.Itoa(int(l-LayerPlane1)+1)
	case l >= LayerMechanical1 && l <= layerLastMechanical:
		return "MECHANICAL" + strconv.Itoa(int(l-LayerMechanical1)+1)
	}
	return "LAYER" + strconv.Itoa(int(l))
}

// ParseLayer is the inverse of Layer.String. Bare numbers are accepted.
func ParseLayer(s string) (Layer, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for l, name := range layerNames {
		if name == s {
			return l, nil
		}
	}
	ranges := []struct {
		prefix      string
		first, last Layer
	}{
		{"MECHANICAL", LayerMechanical1, layerLastMechanical},
		{"PLANE", LayerPlane1, layerLastPlane},
		{"MID", LayerMid1, layerLastMid},
		{"LAYER", 0, 255},
		{"", 0, 255},
	}
	for _, r := range ranges {
		rest, ok := strings.CutPrefix(s, r.prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if r.prefix == "LAYER" || r.prefix == "" {
			if n >= 0 && n <= 255 {
				return Layer(n), nil
			}
			break
		}
		if l := int(r.first) + n - 1; n >= 1 && l <= int(r.last) {
			return Layer(l), nil
		}
	}
	return LayerNone, fmt.Errorf("unknown layer %q", s)
}

// Flags is the primitive flag word of the binary header.
type Flags uint16

// Known flag bits
const (
	FlagUnlocked      Flags = 0x0004
	FlagTentingTop    Flags = 0x0020
	FlagTentingBottom Flags = 0x0040
	FlagKeepOut       Flags = 0x0200

	knownFlags = FlagUnlocked | FlagTentingTop | FlagTentingBottom | FlagKeepOut
)

func (f Flags) Has(b Flags) bool { return f&b == b }

// PadShape is the copper shape of a pad on one layer.
type PadShape byte

// Pad shapes
const (
	ShapeNone             PadShape = 0
	ShapeRound            PadShape = 1
	ShapeRectangular      PadShape = 2
	ShapeOctagonal        PadShape = 3
	ShapeRoundedRectangle PadShape = 9
)

var shapeNames = map[PadShape]string{
	ShapeNone:             "NONE",
	ShapeRound:            "ROUND",
	ShapeRectangular:      "RECTANGLE",
	ShapeOctagonal:        "OCTAGONAL",
	ShapeRoundedRectangle: "ROUNDEDRECTANGLE",
}

func (s PadShape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return strconv.Itoa(int(s))
}

// ParsePadShape accepts shape names and numbers. Unknown names give
// ShapeRound.
func ParsePadShape(s string) PadShape {
	s = strings.ToUpper(strings.TrimSpace(s))
	for shape, name := range shapeNames {
		if name == s {
			return shape
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 255 {
		return PadShape(n)
	}
	return ShapeRound
}
