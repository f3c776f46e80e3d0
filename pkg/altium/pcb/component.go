package pcb

import (
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// Component is a footprint. In a library it owns its primitives; in a board
// document it is a placement whose primitives reference it by index.
type Component struct {
	Name         string // PATTERN
	Description  string
	Height       coord.Coord
	ItemGUID     string
	RevisionGUID string

	// Placement fields, only used in board documents
	Layer              Layer
	Location           coord.Point
	Rotation           float64
	SourceDesignator   string
	SourceLibReference string

	Primitives []Primitive
	Unmapped   *params.Collection
}

// NewComponent returns an empty footprint.
func NewComponent(name string) *Component {
	return &Component{Name: name}
}

// Add appends a primitive to the footprint.
func (c *Component) Add(p Primitive) {
	c.Primitives = append(c.Primitives, p)
}

// Find returns the primitives with the given object id, in order.
func (c *Component) Find(id ObjectID) []Primitive {
	var out []Primitive
	for _, p := range c.Primitives {
		if p.ObjectID() == id {
			out = append(out, p)
		}
	}
	return out
}

// Pads returns the footprint's pads.
func (c *Component) Pads() []*Pad {
	var out []*Pad
	for _, p := range c.Primitives {
		if pad, ok := p.(*Pad); ok {
			out = append(out, pad)
		}
	}
	return out
}

func (c *Component) ImportFromParameters(p *params.Collection) error {
	c.Layer = layerOrDefault(p.Get("LAYER"), LayerNone)
	c.Location = milPoint(p, "X", "Y")
	c.Name = p.Get("PATTERN").AsStringOrDefault("")
	c.SourceDesignator = p.Get("SOURCEDESIGNATOR").AsStringOrDefault("")
	c.SourceLibReference = p.Get("SOURCELIBREFERENCE").AsStringOrDefault("")
	c.Rotation = p.Get("ROTATION").AsDoubleOrDefault(0)
	c.Height = p.Get("HEIGHT").AsCoordOrDefault(0)
	c.Description = p.Get("DESCRIPTION").AsStringOrDefault("")
	c.ItemGUID = p.Get("ITEMGUID").AsStringOrDefault("")
	c.RevisionGUID = p.Get("REVISIONGUID").AsStringOrDefault("")
	c.Unmapped = unmapped(p)
	return nil
}

func (c *Component) ExportToParameters(p *params.Collection) {
	if c.Layer != LayerNone {
		p.AddString("LAYER", c.Layer.String(), true)
		addMilPoint(p, "X", "Y", c.Location)
	}
	p.AddString("PATTERN", c.Name, true)
	p.AddString("SOURCEDESIGNATOR", c.SourceDesignator, false)
	p.AddString("SOURCELIBREFERENCE", c.SourceLibReference, false)
	p.AddDouble("ROTATION", c.Rotation, false)
	p.AddMilCoord("HEIGHT", c.Height, true)
	p.AddString("DESCRIPTION", c.Description, true)
	p.AddString("ITEMGUID", c.ItemGUID, true)
	p.AddString("REVISIONGUID", c.RevisionGUID, true)
	p.Merge(c.Unmapped)
}

// CalculateBounds is the union of the primitive bounds.
func (c *Component) CalculateBounds() coord.Rect {
	var r coord.Rect
	for _, p := range c.Primitives {
		r = coord.Union(r, p.CalculateBounds())
	}
	return r
}
