package schematic

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
)

func fmtKey(prefix string, i int) string { return prefix + strconv.Itoa(i) }

// LineWidth is the stroke weight of schematic lines.
type LineWidth int

const (
	LineWidthSmallest LineWidth = iota
	LineWidthSmall
	LineWidthMedium
	LineWidthLarge
)

func (w LineWidth) IsValid() bool { return w >= LineWidthSmallest && w <= LineWidthLarge }

// Size returns the drawn width of the stroke.
func (w LineWidth) Size() coord.Coord {
	switch w {
	case LineWidthSmall:
		return coord.FromMils(10)
	case LineWidthMedium:
		return coord.FromMils(30)
	case LineWidthLarge:
		return coord.FromMils(50)
	}
	return coord.FromMils(1)
}

// LineStyle is the dash pattern of a line.
type LineStyle int

const (
	LineStyleSolid LineStyle = iota
	LineStyleDashed
	LineStyleDotted
	LineStyleDashDotted
)

func (s LineStyle) IsValid() bool { return s >= LineStyleSolid && s <= LineStyleDashDotted }

// LineShape is the end decoration of a polyline.
type LineShape int

const (
	LineShapeNone LineShape = iota
	LineShapeArrow
	LineShapeSolidArrow
	LineShapeTail
	LineShapeSolidTail
	LineShapeCircle
	LineShapeSquare
)

func (s LineShape) IsValid() bool { return s >= LineShapeNone && s <= LineShapeSquare }

// Orientation is a rotation in quarter turns.
type Orientation int

const (
	Orientation0 Orientation = iota
	Orientation90
	Orientation180
	Orientation270
)

func (o Orientation) IsValid() bool { return o >= Orientation0 && o <= Orientation270 }

// Degrees returns the rotation angle.
func (o Orientation) Degrees() int { return int(o) * 90 }

// Justification anchors text relative to its location.
type Justification int

const (
	JustifyBottomLeft Justification = iota
	JustifyBottomCenter
	JustifyBottomRight
	JustifyMiddleLeft
	JustifyMiddleCenter
	JustifyMiddleRight
	JustifyTopLeft
	JustifyTopCenter
	JustifyTopRight
)

func (j Justification) IsValid() bool { return j >= JustifyBottomLeft && j <= JustifyTopRight }

// PinElectrical is the electrical type of a pin.
type PinElectrical int

const (
	PinInput PinElectrical = iota
	PinInputOutput
	PinOutput
	PinOpenCollector
	PinPassive
	PinHiZ
	PinOpenEmitter
	PinPower
)

func (e PinElectrical) IsValid() bool { return e >= PinInput && e <= PinPower }

func (e PinElectrical) String() string {
	switch e {
	case PinInput:
		return "Input"
	case PinInputOutput:
		return "I/O"
	case PinOutput:
		return "Output"
	case PinOpenCollector:
		return "Open Collector"
	case PinPassive:
		return "Passive"
	case PinHiZ:
		return "HiZ"
	case PinOpenEmitter:
		return "Open Emitter"
	case PinPower:
		return "Power"
	}
	return "Unknown"
}

// PinSymbol is an IEEE decoration drawn at a pin edge.
type PinSymbol int

const (
	PinSymbolNone            PinSymbol = 0
	PinSymbolDot             PinSymbol = 1
	PinSymbolRightLeftSignal PinSymbol = 2
	PinSymbolClock           PinSymbol = 3
	PinSymbolActiveLowInput  PinSymbol = 4
	PinSymbolAnalogSignalIn  PinSymbol = 5
	PinSymbolNotLogicConnect PinSymbol = 6
	PinSymbolPostponedOutput PinSymbol = 8
	PinSymbolOpenCollector   PinSymbol = 9
	PinSymbolHiZ             PinSymbol = 10
	PinSymbolHighCurrent     PinSymbol = 11
	PinSymbolPulse           PinSymbol = 12
	PinSymbolSchmitt         PinSymbol = 13
	PinSymbolActiveLowOutput PinSymbol = 17
	PinSymbolOpenCollectorPU PinSymbol = 22
	PinSymbolOpenEmitter     PinSymbol = 23
	PinSymbolOpenEmitterPU   PinSymbol = 24
	PinSymbolDigitalSignalIn PinSymbol = 25
	PinSymbolShiftLeft       PinSymbol = 30
	PinSymbolOpenOutput      PinSymbol = 32
	PinSymbolLeftRightSignal PinSymbol = 33
	PinSymbolBidirectional   PinSymbol = 34
	PinSymbolLast            PinSymbol = 34
)

func (s PinSymbol) IsValid() bool { return s >= PinSymbolNone && s <= PinSymbolLast }

// PinConglomerate packs the pin orientation and visibility flags.
type PinConglomerate uint8

const (
	PinRotated            PinConglomerate = 0x01
	PinFlipped            PinConglomerate = 0x02
	PinHide               PinConglomerate = 0x04
	PinDisplayNameVisible PinConglomerate = 0x08
	PinDesignatorVisible  PinConglomerate = 0x10
	PinLocked             PinConglomerate = 0x40
)

// Has reports whether every bit of f is set.
func (c PinConglomerate) Has(f PinConglomerate) bool { return c&f == f }

// PortStyle is the outline of a port.
type PortStyle int

const (
	PortNoneHorizontal PortStyle = iota
	PortLeft
	PortRight
	PortLeftRight
	PortNoneVertical
	PortTop
	PortBottom
	PortTopBottom
)

func (s PortStyle) IsValid() bool { return s >= PortNoneHorizontal && s <= PortTopBottom }

// PortIOType is the direction of a port or sheet entry.
type PortIOType int

const (
	PortUnspecified PortIOType = iota
	PortOutput
	PortInput
	PortBidirectional
)

func (t PortIOType) IsValid() bool { return t >= PortUnspecified && t <= PortBidirectional }

// PowerObjectStyle is the symbol of a power port.
type PowerObjectStyle int

const (
	PowerCircle PowerObjectStyle = iota
	PowerArrow
	PowerBar
	PowerWave
	PowerGround
	PowerSignalGround
	PowerEarth
	PowerGostArrow
	PowerGostPowerGround
	PowerGostEarth
	PowerGostBar
)

func (s PowerObjectStyle) IsValid() bool { return s >= PowerCircle && s <= PowerGostBar }

// IeeeSymbolType is the shape of an IEEE symbol record.
type IeeeSymbolType int

const IeeeSymbolLast IeeeSymbolType = 33

func (s IeeeSymbolType) IsValid() bool { return s >= 0 && s <= IeeeSymbolLast }

// SheetEntrySide is the sheet symbol edge carrying an entry.
type SheetEntrySide int

const (
	SideLeft SheetEntrySide = iota
	SideRight
	SideTop
	SideBottom
)

func (s SheetEntrySide) IsValid() bool { return s >= SideLeft && s <= SideBottom }

// TextAlignment is the horizontal alignment inside a text frame.
type TextAlignment int

const (
	AlignCenter TextAlignment = iota
	AlignLeft
	AlignRight
)

func (a TextAlignment) IsValid() bool { return a >= AlignCenter && a <= AlignRight }

// ParameterType is the value type of a parameter record.
type ParameterType int

const (
	ParamString ParameterType = iota
	ParamBoolean
	ParamInteger
	ParamFloat
)

func (t ParameterType) IsValid() bool { return t >= ParamString && t <= ParamFloat }

// ReadOnlyState controls which parts of a parameter can be edited.
type ReadOnlyState int

const (
	ReadOnlyNone ReadOnlyState = iota
	ReadOnlyName
	ReadOnlyValue
	ReadOnlyNameAndValue
)

func (s ReadOnlyState) IsValid() bool { return s >= ReadOnlyNone && s <= ReadOnlyNameAndValue }
