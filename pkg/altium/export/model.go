// Package export converts decoded Altium files into a self-describing
// document with three parts: metadata about the export, the raw compound
// file streams, and the parsed model. The document can be written as JSON,
// MessagePack or an Excel workbook.
package export

import (
	"time"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/pcb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
	"github.com/google/uuid"
)

// Exporter names the producer in the metadata block.
const Exporter = "ota"

// Document is the exported form of one file.
type Document struct {
	Metadata    Metadata    `json:"metadata" msgpack:"metadata"`
	RawMcdf     []RawStream `json:"rawMcdf,omitempty" msgpack:"rawMcdf,omitempty"`
	ParsedModel Model       `json:"parsedModel" msgpack:"parsedModel"`
}

// Metadata describes the export run.
type Metadata struct {
	ExportID   string         `json:"exportId" msgpack:"exportId"`
	SourceFile string         `json:"sourceFile" msgpack:"sourceFile"`
	FileKind   string         `json:"fileKind" msgpack:"fileKind"`
	ExportedAt time.Time      `json:"exportedAt" msgpack:"exportedAt"`
	Exporter   string         `json:"exporter" msgpack:"exporter"`
	Warnings   []diag.Warning `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// RawStream is one stream of the compound file.
type RawStream struct {
	Path string `json:"path" msgpack:"path"`
	Size int    `json:"size" msgpack:"size"`
	Data []byte `json:"data" msgpack:"data"`
}

// Model holds the section matching the file kind.
type Model struct {
	PcbLib *PcbLib `json:"pcbLib,omitempty" msgpack:"pcbLib,omitempty"`
	PcbDoc *PcbDoc `json:"pcbDoc,omitempty" msgpack:"pcbDoc,omitempty"`
	SchLib *SchLib `json:"schLib,omitempty" msgpack:"schLib,omitempty"`
	SchDoc *SchDoc `json:"schDoc,omitempty" msgpack:"schDoc,omitempty"`
}

// Field is one parameter in file order.
type Field struct {
	Name  string `json:"name" msgpack:"name"`
	Value string `json:"value" msgpack:"value"`
}

// Bounds is a rectangle in mils.
type Bounds struct {
	MinX float64 `json:"minX" msgpack:"minX"`
	MinY float64 `json:"minY" msgpack:"minY"`
	MaxX float64 `json:"maxX" msgpack:"maxX"`
	MaxY float64 `json:"maxY" msgpack:"maxY"`
}

// Object is one record or primitive. Parameters is the full parameter form
// in write order; OriginalParameters lists the keys no typed field
// consumed.
type Object struct {
	Index              int     `json:"index" msgpack:"index"`
	ObjectType         string  `json:"objectType" msgpack:"objectType"`
	Owner              *int    `json:"owner,omitempty" msgpack:"owner,omitempty"`
	Bounds             Bounds  `json:"bounds" msgpack:"bounds"`
	Parameters         []Field `json:"parameters" msgpack:"parameters"`
	OriginalParameters []Field `json:"originalParameters,omitempty" msgpack:"originalParameters,omitempty"`
}

// PcbLib is the model of a footprint library.
type PcbLib struct {
	Header     string      `json:"header" msgpack:"header"`
	Settings   []Field     `json:"settings" msgpack:"settings"`
	Footprints []Footprint `json:"footprints" msgpack:"footprints"`
}

// Footprint is one library footprint.
type Footprint struct {
	Name       string   `json:"name" msgpack:"name"`
	Parameters []Field  `json:"parameters" msgpack:"parameters"`
	Bounds     Bounds   `json:"bounds" msgpack:"bounds"`
	Primitives []Object `json:"primitives" msgpack:"primitives"`
}

// PcbDoc is the model of a board document.
type PcbDoc struct {
	Header     string   `json:"header" msgpack:"header"`
	Board      []Field  `json:"board" msgpack:"board"`
	Nets       []string `json:"nets" msgpack:"nets"`
	Polygons   []Object `json:"polygons" msgpack:"polygons"`
	Components []Object `json:"components" msgpack:"components"`
	Primitives []Object `json:"primitives" msgpack:"primitives"`
	Bounds     Bounds   `json:"bounds" msgpack:"bounds"`
}

// SchLib is the model of a symbol library.
type SchLib struct {
	Header     []Field          `json:"header" msgpack:"header"`
	Fonts      []schematic.Font `json:"fonts" msgpack:"fonts"`
	Components []Symbol         `json:"components" msgpack:"components"`
	Images     []Image          `json:"images,omitempty" msgpack:"images,omitempty"`
}

// Symbol is one library component with its record tree.
type Symbol struct {
	LibReference string   `json:"libReference" msgpack:"libReference"`
	Description  string   `json:"description" msgpack:"description"`
	Bounds       Bounds   `json:"bounds" msgpack:"bounds"`
	Records      []Object `json:"records" msgpack:"records"`
}

// SchDoc is the model of a schematic sheet.
type SchDoc struct {
	Header  []Field  `json:"header" msgpack:"header"`
	Bounds  Bounds   `json:"bounds" msgpack:"bounds"`
	Records []Object `json:"records" msgpack:"records"`
	Images  []Image  `json:"images,omitempty" msgpack:"images,omitempty"`
}

// Image describes an embedded image.
type Image struct {
	FileName string `json:"fileName" msgpack:"fileName"`
	Size     int    `json:"size" msgpack:"size"`
}

// Options controls Build.
type Options struct {
	IncludeRaw bool
	// Now returns the export time; nil means time.Now.
	Now func() time.Time
}

// Build converts f into an export document.
func Build(f *altium.File, opts Options) (*Document, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	doc := &Document{
		Metadata: Metadata{
			ExportID:   uuid.New().String(),
			SourceFile: f.Path,
			FileKind:   f.Kind.String(),
			ExportedAt: now().UTC(),
			Exporter:   Exporter,
			Warnings:   f.Warnings(),
		},
	}

	if opts.IncludeRaw && f.Root != nil {
		raw, err := rawStreams(f.Root)
		if err != nil {
			return nil, err
		}
		doc.RawMcdf = raw
	}

	switch {
	case f.PcbLib != nil:
		doc.ParsedModel.PcbLib = buildPcbLib(f.PcbLib)
	case f.PcbDoc != nil:
		doc.ParsedModel.PcbDoc = buildPcbDoc(f.PcbDoc)
	case f.SchLib != nil:
		doc.ParsedModel.SchLib = buildSchLib(f.SchLib)
	case f.SchDoc != nil:
		doc.ParsedModel.SchDoc = buildSchDoc(f.SchDoc)
	}
	return doc, nil
}

func rawStreams(root *cfb.Storage) ([]RawStream, error) {
	var out []RawStream
	err := root.Walk(func(path string, st *cfb.Stream) error {
		out = append(out, RawStream{Path: path, Size: int(st.Size()), Data: st.Data()})
		return nil
	})
	return out, err
}

func fields(p *params.Collection) []Field {
	if p == nil {
		return nil
	}
	out := make([]Field, 0, p.Len())
	for k, v := range p.All() {
		out = append(out, Field{Name: k, Value: v})
	}
	return out
}

func bounds(r coord.Rect) Bounds {
	return Bounds{
		MinX: r.Min.X.ToMils(),
		MinY: r.Min.Y.ToMils(),
		MaxX: r.Max.X.ToMils(),
		MaxY: r.Max.Y.ToMils(),
	}
}

// exporter is the part of a record or primitive the export reads.
type exporter interface {
	ExportToParameters(p *params.Collection)
	CalculateBounds() coord.Rect
}

func object(i int, kind string, rec exporter, original *params.Collection) Object {
	p := params.New()
	rec.ExportToParameters(p)
	return Object{
		Index:              i,
		ObjectType:         kind,
		Bounds:             bounds(rec.CalculateBounds()),
		Parameters:         fields(p),
		OriginalParameters: fields(original),
	}
}

func pcbObjects(prims []pcb.Primitive) []Object {
	out := make([]Object, len(prims))
	for i, prim := range prims {
		out[i] = object(i, prim.ObjectID().String(), prim, prim.Common().Unmapped)
	}
	return out
}

func buildPcbLib(l *pcb.Library) *PcbLib {
	m := &PcbLib{Header: l.Header, Settings: fields(l.Settings)}
	for _, c := range l.Footprints {
		p := params.New()
		c.ExportToParameters(p)
		m.Footprints = append(m.Footprints, Footprint{
			Name:       c.Name,
			Parameters: fields(p),
			Bounds:     bounds(c.CalculateBounds()),
			Primitives: pcbObjects(c.Primitives),
		})
	}
	return m
}

func buildPcbDoc(d *pcb.Document) *PcbDoc {
	m := &PcbDoc{
		Header:     d.Header,
		Board:      fields(d.Board),
		Primitives: pcbObjects(d.Primitives),
		Bounds:     bounds(d.CalculateBounds()),
	}
	for _, n := range d.Nets {
		m.Nets = append(m.Nets, n.Name)
	}
	for i, g := range d.Polygons {
		m.Polygons = append(m.Polygons, object(i, "Polygon", g, g.Unmapped))
	}
	for i, c := range d.Components {
		o := object(i, "Component", c, c.Unmapped)
		o.Bounds = bounds(coord.UnionAll(boundsOf(d.ComponentPrimitives(i))...))
		m.Components = append(m.Components, o)
	}
	return m
}

func boundsOf(prims []pcb.Primitive) []coord.Rect {
	out := make([]coord.Rect, len(prims))
	for i, p := range prims {
		out[i] = p.CalculateBounds()
	}
	return out
}

func schObjects(t *schematic.Tree) []Object {
	var out []Object
	for _, i := range t.Live() {
		rec := t.Records[i]
		kind := rec.Record().String()
		if _, ok := rec.(*schematic.RawRecord); ok {
			kind = "Raw"
		}
		o := object(i, kind, rec, rec.Common().Unmapped)
		if owner := t.Owner(i); owner >= 0 {
			o.Owner = &owner
		}
		out = append(out, o)
	}
	return out
}

func images(list []*schematic.EmbeddedImage) []Image {
	var out []Image
	for _, img := range list {
		out = append(out, Image{FileName: img.FileName, Size: len(img.Data)})
	}
	return out
}

func buildSchLib(l *schematic.Library) *SchLib {
	m := &SchLib{Header: fields(l.Header), Fonts: l.Fonts, Images: images(l.Images)}
	for _, t := range l.Components {
		c := t.Component()
		m.Components = append(m.Components, Symbol{
			LibReference: c.LibReference,
			Description:  c.Description,
			Bounds:       bounds(t.Bounds()),
			Records:      schObjects(t),
		})
	}
	return m
}

func buildSchDoc(d *schematic.Document) *SchDoc {
	return &SchDoc{
		Header:  fields(d.Header),
		Bounds:  bounds(d.Tree.Bounds()),
		Records: schObjects(d.Tree),
		Images:  images(d.Images),
	}
}
