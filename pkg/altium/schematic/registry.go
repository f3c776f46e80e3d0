package schematic

import (
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Unknown is a record whose RECORD value has no codec. Every key is kept
// and written back unchanged.
type Unknown struct {
	Base
	RecordID int
	Params   *params.Collection
}

func (u *Unknown) Record() RecordType { return RecordType(u.RecordID) }

func (u *Unknown) ImportFromParameters(p *params.Collection) error {
	if err := u.importBase(p, RecordAny); err != nil {
		return err
	}
	u.RecordID = p.Get("RECORD").AsIntOrDefault(0)
	u.Params = p.Clone()
	return nil
}

func (u *Unknown) ExportToParameters(p *params.Collection) {
	if u.Params == nil {
		u.exportBase(p, u.Record())
		u.exportTail(p)
		return
	}
	p.Merge(u.Params)
}

func (u *Unknown) CalculateBounds() coord.Rect { return coord.BoundsOf() }

var constructors = map[RecordType]func() Primitive{
	RecordComponent:          func() Primitive { return NewComponent() },
	RecordPin:                func() Primitive { return &Pin{} },
	RecordIeeeSymbol:         func() Primitive { return NewIeeeSymbol() },
	RecordLabel:              func() Primitive { return NewLabel() },
	RecordBezier:             func() Primitive { return NewBezier() },
	RecordPolyline:           func() Primitive { return NewPolyline() },
	RecordPolygon:            func() Primitive { return NewPolygon() },
	RecordEllipse:            func() Primitive { return NewEllipse(coord.Point{}, 0, 0) },
	RecordPie:                func() Primitive { return NewPie(coord.Point{}, 0, 0, 0) },
	RecordRoundRectangle:     func() Primitive { return NewRoundRectangle(coord.Point{}, coord.Point{}) },
	RecordEllipticalArc:      func() Primitive { return NewEllipticalArc(coord.Point{}, 0, 0, 0, 0) },
	RecordArc:                func() Primitive { return NewArc(coord.Point{}, 0, 0, 0) },
	RecordLine:               func() Primitive { return NewLine(coord.Point{}, coord.Point{}) },
	RecordRectangle:          func() Primitive { return NewRectangle(coord.Point{}, coord.Point{}) },
	RecordSheetSymbol:        func() Primitive { return NewSheetSymbol() },
	RecordSheetEntry:         func() Primitive { return NewSheetEntry("") },
	RecordPowerObject:        func() Primitive { return NewPowerObject("") },
	RecordPort:               func() Primitive { return NewPort("") },
	RecordNoErc:              func() Primitive { return NewNoErc() },
	RecordNetLabel:           func() Primitive { return NewNetLabel("") },
	RecordBus:                func() Primitive { return NewBus() },
	RecordWire:               func() Primitive { return NewWire() },
	RecordTextFrame:          func() Primitive { return NewTextFrame(coord.Point{}, coord.Point{}) },
	RecordJunction:           func() Primitive { return NewJunction(coord.Point{}) },
	RecordImage:              func() Primitive { return NewImage(coord.Point{}, coord.Point{}, "") },
	RecordSheetHeader:        func() Primitive { return NewSheetHeader() },
	RecordDesignator:         func() Primitive { return NewDesignator("") },
	RecordBusEntry:           func() Primitive { return NewBusEntry(coord.Point{}, coord.Point{}) },
	RecordParameter:          func() Primitive { return NewParameter("", "") },
	RecordWarningSign:        func() Primitive { return NewWarningSign("") },
	RecordImplementationList: func() Primitive { return NewImplementationList() },
	RecordImplementation:     func() Primitive { return &Implementation{} },
	RecordMapDefinerList:     func() Primitive { return &MapDefinerList{} },
	RecordMapDefiner:         func() Primitive { return &MapDefiner{} },
	RecordImplParamList:      func() Primitive { return &ImplParamList{} },
	RecordNote:               func() Primitive { return NewNote(coord.Point{}, coord.Point{}, "") },
}

// NewPrimitive returns a fresh record of the given type with its editor
// defaults, and false when the type has no codec.
func NewPrimitive(rec RecordType) (Primitive, bool) {
	if f, ok := constructors[rec]; ok {
		return f(), true
	}
	return &Unknown{RecordID: int(rec)}, false
}

// ImportRecord builds the record described by a parameter line. Keys that
// the codec did not read are kept in Base.Unmapped. supported is false for
// record types imported as Unknown.
func ImportRecord(p *params.Collection) (prim Primitive, supported bool, err error) {
	rec := RecordType(p.Get("RECORD").AsIntOrDefault(0))
	prim, supported = NewPrimitive(rec)
	if err := prim.ImportFromParameters(p); err != nil {
		return nil, supported, err
	}
	if supported {
		if unused := p.Unused(); len(unused) > 0 {
			prim.Common().Unmapped = p.Subset(unused)
		}
	}
	return prim, supported, nil
}

// ExportRecord renders a record as a parameter line.
func ExportRecord(prim Primitive) *params.Collection {
	p := params.New()
	prim.ExportToParameters(p)
	return p
}
