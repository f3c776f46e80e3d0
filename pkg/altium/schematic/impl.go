package schematic

import (
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Records describing the models (footprints, simulation models) linked to a
// component. They carry no geometry and report empty bounds, which Union
// ignores.

// ImplementationList groups the implementations of a component.
type ImplementationList struct {
	Base
}

func NewImplementationList() *ImplementationList { return &ImplementationList{} }

func (l *ImplementationList) Record() RecordType { return RecordImplementationList }

func (l *ImplementationList) ImportFromParameters(p *params.Collection) error {
	return l.importBase(p, RecordImplementationList)
}

func (l *ImplementationList) ExportToParameters(p *params.Collection) {
	l.exportBase(p, RecordImplementationList)
	l.exportTail(p)
}

func (l *ImplementationList) CalculateBounds() coord.Rect { return coord.BoundsOf() }

// ModelDataFile is one data file reference of an implementation.
type ModelDataFile struct {
	Entity string // MODELDATAFILEENTITYn, e.g. the footprint name
	Kind   string // MODELDATAFILEKINDn, e.g. "PCBLib"
}

// Implementation links a component to one model.
type Implementation struct {
	Base
	Description             string
	ModelName               string
	ModelType               string // "PCBLIB", "SIM", "PCB3DLib", ...
	DataFiles               []ModelDataFile
	IsCurrent               bool
	UseComponentLibrary     bool
	DatalinksLocked         bool
	DatabaseDatalinksLocked bool
}

// NewFootprintImplementation returns an implementation linking a PCB
// footprint.
func NewFootprintImplementation(footprint string) *Implementation {
	return &Implementation{
		ModelName:           footprint,
		ModelType:           "PCBLIB",
		DataFiles:           []ModelDataFile{{Entity: footprint, Kind: "PCBLib"}},
		IsCurrent:           true,
		UseComponentLibrary: true,
	}
}

func (m *Implementation) Record() RecordType { return RecordImplementation }

func (m *Implementation) ImportFromParameters(p *params.Collection) error {
	if err := m.importBase(p, RecordImplementation); err != nil {
		return err
	}
	m.Description = p.Get("DESCRIPTION").AsStringOrDefault("")
	m.UseComponentLibrary = p.Get("USECOMPONENTLIBRARY").AsBool()
	m.ModelName = p.Get("MODELNAME").AsStringOrDefault("")
	m.ModelType = p.Get("MODELTYPE").AsStringOrDefault("")
	n := p.Count("DATAFILECOUNT")
	m.DataFiles = nil
	for i := 0; i < n; i++ {
		m.DataFiles = append(m.DataFiles, ModelDataFile{
			Entity: p.Get(fmtKey("MODELDATAFILEENTITY", i)).AsStringOrDefault(""),
			Kind:   p.Get(fmtKey("MODELDATAFILEKIND", i)).AsStringOrDefault(""),
		})
	}
	m.DatalinksLocked = p.Get("DATALINKSLOCKED").AsBool()
	m.DatabaseDatalinksLocked = p.Get("DATABASEDATALINKSLOCKED").AsBool()
	m.IsCurrent = p.Get("ISCURRENT").AsBool()
	return nil
}

func (m *Implementation) ExportToParameters(p *params.Collection) {
	m.exportBase(p, RecordImplementation)
	p.AddString("DESCRIPTION", m.Description, false)
	p.AddBool("USECOMPONENTLIBRARY", m.UseComponentLibrary, false)
	p.AddString("MODELNAME", m.ModelName, false)
	p.AddString("MODELTYPE", m.ModelType, false)
	p.AddInt("DATAFILECOUNT", len(m.DataFiles), false)
	for i, f := range m.DataFiles {
		p.AddString(fmtKey("MODELDATAFILEENTITY", i), f.Entity, true)
		p.AddString(fmtKey("MODELDATAFILEKIND", i), f.Kind, true)
	}
	p.AddBool("DATALINKSLOCKED", m.DatalinksLocked, false)
	p.AddBool("DATABASEDATALINKSLOCKED", m.DatabaseDatalinksLocked, false)
	p.AddBool("ISCURRENT", m.IsCurrent, false)
	m.exportTail(p)
}

func (m *Implementation) CalculateBounds() coord.Rect { return coord.BoundsOf() }

// MapDefinerList groups the pin maps of an implementation.
type MapDefinerList struct {
	Base
}

func (l *MapDefinerList) Record() RecordType { return RecordMapDefinerList }

func (l *MapDefinerList) ImportFromParameters(p *params.Collection) error {
	return l.importBase(p, RecordMapDefinerList)
}

func (l *MapDefinerList) ExportToParameters(p *params.Collection) {
	l.exportBase(p, RecordMapDefinerList)
	l.exportTail(p)
}

func (l *MapDefinerList) CalculateBounds() coord.Rect { return coord.BoundsOf() }

// MapDefiner maps one component pin to model pins.
type MapDefiner struct {
	Base
	DesignatorInterface string
	Implementations     []string
	IsTrivial           bool
}

func (m *MapDefiner) Record() RecordType { return RecordMapDefiner }

func (m *MapDefiner) ImportFromParameters(p *params.Collection) error {
	if err := m.importBase(p, RecordMapDefiner); err != nil {
		return err
	}
	m.DesignatorInterface = p.Get("DESINTF").AsStringOrDefault("")
	n := p.Count("DESIMPCOUNT")
	m.Implementations = nil
	for i := 0; i < n; i++ {
		m.Implementations = append(m.Implementations, p.Get(fmtKey("DESIMP", i)).AsStringOrDefault(""))
	}
	m.IsTrivial = p.Get("ISTRIVIAL").AsBool()
	return nil
}

func (m *MapDefiner) ExportToParameters(p *params.Collection) {
	m.exportBase(p, RecordMapDefiner)
	p.AddString("DESINTF", m.DesignatorInterface, false)
	p.AddInt("DESIMPCOUNT", len(m.Implementations), false)
	for i, s := range m.Implementations {
		p.AddString(fmtKey("DESIMP", i), s, true)
	}
	p.AddBool("ISTRIVIAL", m.IsTrivial, false)
	m.exportTail(p)
}

func (m *MapDefiner) CalculateBounds() coord.Rect { return coord.BoundsOf() }

// ImplParamList holds model parameters of an implementation.
type ImplParamList struct {
	Base
}

func (l *ImplParamList) Record() RecordType { return RecordImplParamList }

func (l *ImplParamList) ImportFromParameters(p *params.Collection) error {
	return l.importBase(p, RecordImplParamList)
}

func (l *ImplParamList) ExportToParameters(p *params.Collection) {
	l.exportBase(p, RecordImplParamList)
	l.exportTail(p)
}

func (l *ImplParamList) CalculateBounds() coord.Rect { return coord.BoundsOf() }
