package pcb

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

func fmtKey(prefix string, i int) string { return prefix + strconv.Itoa(i) }

// PolygonVertex is one corner of a polygon pour outline. Kind 0 is a
// straight segment; kind 1 an arc around Center from StartAngle to EndAngle.
type PolygonVertex struct {
	Kind       int
	Location   coord.Point
	Center     coord.Point
	StartAngle float64
	EndAngle   float64
	Radius     coord.Coord
}

// Polygon is a copper pour outline from the Polygons6 stream. Polygons
// exist only in parameter form; the poured copper is stored as regions and
// tracks that reference the polygon by index.
type Polygon struct {
	Layer    Layer
	Net      uint16
	Name     string
	Locked   bool
	Vertices []PolygonVertex

	Unmapped *params.Collection
}

// NewPolygon returns an unconnected pour on layer.
func NewPolygon(layer Layer, outline ...coord.Point) *Polygon {
	g := &Polygon{Layer: layer, Net: NoIndex}
	for _, p := range outline {
		g.Vertices = append(g.Vertices, PolygonVertex{Location: p})
	}
	return g
}

func (g *Polygon) ImportFromParameters(p *params.Collection) error {
	g.Layer = layerOrDefault(p.Get("LAYER"), LayerTop)
	g.Net = uint16(p.Get("NET").AsIntOrDefault(NoIndex))
	g.Name = p.Get("NAME").AsStringOrDefault("")
	g.Locked = p.Get("LOCKED").AsBool()
	g.Vertices = nil
	for i := 0; p.Has(fmtKey("VX", i)); i++ {
		g.Vertices = append(g.Vertices, PolygonVertex{
			Kind:       p.Get(fmtKey("KIND", i)).AsIntOrDefault(0),
			Location:   milPoint(p, fmtKey("VX", i), fmtKey("VY", i)),
			Center:     milPoint(p, fmtKey("CX", i), fmtKey("CY", i)),
			StartAngle: p.Get(fmtKey("SA", i)).AsDoubleOrDefault(0),
			EndAngle:   p.Get(fmtKey("EA", i)).AsDoubleOrDefault(0),
			Radius:     p.Get(fmtKey("R", i)).AsCoordOrDefault(0),
		})
	}
	g.Unmapped = unmapped(p)
	return nil
}

func (g *Polygon) ExportToParameters(p *params.Collection) {
	p.AddString("LAYER", g.Layer.String(), true)
	addIndex(p, "NET", g.Net)
	p.AddString("NAME", g.Name, false)
	addBool(p, "LOCKED", g.Locked)
	for i, v := range g.Vertices {
		p.AddInt(fmtKey("KIND", i), v.Kind, true)
		addMilPoint(p, fmtKey("VX", i), fmtKey("VY", i), v.Location)
		addMilPoint(p, fmtKey("CX", i), fmtKey("CY", i), v.Center)
		p.AddDouble(fmtKey("SA", i), v.StartAngle, true)
		p.AddDouble(fmtKey("EA", i), v.EndAngle, true)
		p.AddMilCoord(fmtKey("R", i), v.Radius, true)
	}
	p.Merge(g.Unmapped)
}

// CalculateBounds covers the outline vertices and the arcs of curved
// vertices.
func (g *Polygon) CalculateBounds() coord.Rect {
	pts := make([]coord.Point, len(g.Vertices))
	r := coord.Rect{}
	for i, v := range g.Vertices {
		pts[i] = v.Location
		if v.Kind != 0 {
			r = coord.Union(r, coord.ArcBounds(v.Center, v.Radius, v.Radius, v.StartAngle, v.EndAngle))
		}
	}
	return coord.Union(coord.BoundsOf(pts...), r)
}
