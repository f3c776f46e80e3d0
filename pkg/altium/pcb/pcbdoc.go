package pcb

import (
	"context"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/coord"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// DocumentHeader is the FileHeader text of a board document.
const DocumentHeader = "PCB 6.0 Binary File"

// binaryStorages lists the storages holding binary primitives, in the order
// they are read.
var binaryStorages = []struct {
	name string
	id   ObjectID
}{
	{"Arcs6", ObjectArc},
	{"Pads6", ObjectPad},
	{"Vias6", ObjectVia},
	{"Tracks6", ObjectTrack},
	{"Texts6", ObjectText},
	{"Fills6", ObjectFill},
	{"Regions6", ObjectRegion},
	{"ComponentBodies6", ObjectComponentBody},
}

// Parameter record storages
const (
	boardStorage      = "Board6"
	netsStorage       = "Nets6"
	polygonsStorage   = "Polygons6"
	componentsStorage = "Components6"
)

// Net is an entry of the board's net list.
type Net struct {
	Name     string
	Unmapped *params.Collection
}

func (n *Net) ImportFromParameters(p *params.Collection) error {
	n.Name = p.Get("NAME").AsStringOrDefault("")
	n.Unmapped = unmapped(p)
	return nil
}

func (n *Net) ExportToParameters(p *params.Collection) {
	p.AddString("NAME", n.Name, true)
	p.Merge(n.Unmapped)
}

// Document is a board document (.PcbDoc). Primitives of placed components
// live in the same lists as free primitives and point at their owner
// through Base.Component.
type Document struct {
	Header     string
	Board      *params.Collection
	Nets       []*Net
	Polygons   []*Polygon
	Components []*Component
	Primitives []Primitive
	Warnings   diag.Warnings

	board  snapshot
	snaps  map[parameterRecord]snapshot
	source *cfb.Storage
}

// NewDocument returns an empty board.
func NewDocument() *Document {
	b := params.New()
	b.AddString("KIND", "Protel_Advanced_PCB", true)
	b.AddString("VERSION", SupportedVersion, true)
	return &Document{Header: DocumentHeader, Board: b, snaps: make(map[parameterRecord]snapshot)}
}

// ComponentPrimitives returns the primitives owned by the placed component
// at index i.
func (d *Document) ComponentPrimitives(i int) []Primitive {
	var out []Primitive
	for _, p := range d.Primitives {
		if int(p.Common().Component) == i {
			out = append(out, p)
		}
	}
	return out
}

// FreePrimitives returns the primitives not owned by a component.
func (d *Document) FreePrimitives() []Primitive {
	return d.ComponentPrimitives(NoIndex)
}

// NetIndex returns the index of the net called name, or NoIndex.
func (d *Document) NetIndex(name string) uint16 {
	for i, n := range d.Nets {
		if strings.EqualFold(n.Name, name) {
			return uint16(i)
		}
	}
	return NoIndex
}

// CalculateBounds is the union of all primitive and polygon bounds.
func (d *Document) CalculateBounds() coord.Rect {
	var r coord.Rect
	for _, p := range d.Primitives {
		r = coord.Union(r, p.CalculateBounds())
	}
	for _, g := range d.Polygons {
		r = coord.Union(r, g.CalculateBounds())
	}
	return r
}

// ParseDocumentFile reads a board document from disk.
func ParseDocumentFile(ctx context.Context, path string) (*Document, error) {
	root, err := cfb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	doc, err := ParseDocument(ctx, root)
	if err != nil {
		return nil, diag.WithPath(err, path)
	}
	return doc, nil
}

// ParseDocument reads a board document from a compound file tree.
func ParseDocument(ctx context.Context, root *cfb.Storage) (*Document, error) {
	d := &Document{snaps: make(map[parameterRecord]snapshot), source: root}

	data, err := root.GetStreamData(fileHeaderStream)
	if err != nil {
		return nil, &diag.CorruptFileError{Stream: fileHeaderStream, Offset: -1, Err: err}
	}
	if d.Header, err = binfmt.NewBytesReader(data, fileHeaderStream).ReadStringBlock(); err != nil {
		return nil, err
	}

	d.Board = params.New()
	if recs, err := d.readParams(ctx, boardStorage); err != nil {
		return nil, err
	} else if len(recs) > 0 {
		d.Board = recs[0].params
		d.board = takeSnapshot(recs[0].raw, d.Board)
	}

	recs, err := d.readParams(ctx, netsStorage)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		n := &Net{}
		if err := d.importRecord(n, rec); err != nil {
			return nil, err
		}
		d.Nets = append(d.Nets, n)
	}

	if recs, err = d.readParams(ctx, polygonsStorage); err != nil {
		return nil, err
	}
	for _, rec := range recs {
		g := &Polygon{}
		if err := d.importRecord(g, rec); err != nil {
			return nil, err
		}
		d.Polygons = append(d.Polygons, g)
	}

	if recs, err = d.readParams(ctx, componentsStorage); err != nil {
		return nil, err
	}
	for _, rec := range recs {
		c := &Component{}
		if err := d.importRecord(c, rec); err != nil {
			return nil, err
		}
		d.Components = append(d.Components, c)
	}

	for _, bs := range binaryStorages {
		path := bs.name + "/" + dataStream
		s, ok := root.TryGetStream(path)
		if !ok {
			continue
		}
		prims, err := ReadPrimitives(ctx, binfmt.NewBytesReader(s.Data(), path), &d.Warnings)
		if err != nil {
			return nil, err
		}
		for i, p := range prims {
			if p.ObjectID() != bs.id {
				d.Warnings.Addf(path, i, "%s in %s storage", p.ObjectID(), bs.name)
			}
			if c := p.Common().Component; c != NoIndex && int(c) >= len(d.Components) {
				d.Warnings.Addf(path, i, "component index %d out of range", c)
			}
		}
		d.Primitives = append(d.Primitives, prims...)
	}
	return d, nil
}

func (d *Document) readParams(ctx context.Context, storage string) ([]paramRecord, error) {
	path := storage + "/" + dataStream
	s, ok := d.source.TryGetStream(path)
	if !ok {
		return nil, nil
	}
	return readParamRecords(ctx, binfmt.NewBytesReader(s.Data(), path))
}

type importer interface {
	parameterRecord
	ImportFromParameters(p *params.Collection) error
}

func (d *Document) importRecord(rec importer, pr paramRecord) error {
	if err := rec.ImportFromParameters(pr.params); err != nil {
		return err
	}
	d.snaps[rec] = snapshotOf(pr.raw, rec)
	return nil
}

// Storage builds the compound file tree of the board. Streams of the source
// file the codec does not handle are copied unchanged.
func (d *Document) Storage(ctx context.Context) (*cfb.Storage, error) {
	root := cfb.New()
	if d.source != nil {
		root = d.source.Clone()
	}

	w := binfmt.NewWriter()
	if err := w.WriteStringBlock(d.Header); err != nil {
		return nil, err
	}
	root.CreateStream(fileHeaderStream, w.Bytes())

	bw := binfmt.NewWriter()
	if err := bw.WriteCStringBlock(0, d.board.pick(d.Board)); err != nil {
		return nil, err
	}
	writeCounted(root.CreateStorage(boardStorage), bw.Bytes(), 1)

	if err := d.writeRecords(root, netsStorage, asRecords(d.Nets)); err != nil {
		return nil, err
	}
	if err := d.writeRecords(root, polygonsStorage, asRecords(d.Polygons)); err != nil {
		return nil, err
	}
	if err := d.writeRecords(root, componentsStorage, asRecords(d.Components)); err != nil {
		return nil, err
	}

	byID := make(map[ObjectID][]Primitive)
	for _, p := range d.Primitives {
		byID[p.ObjectID()] = append(byID[p.ObjectID()], p)
	}
	for _, bs := range binaryStorages {
		prims := byID[bs.id]
		if len(prims) == 0 && root.Storage(bs.name) == nil {
			continue
		}
		pw := binfmt.NewWriter()
		if err := WritePrimitives(ctx, pw, prims); err != nil {
			return nil, fmt.Errorf("%s: %w", bs.name, err)
		}
		writeCounted(root.CreateStorage(bs.name), pw.Bytes(), len(prims))
	}
	return root, nil
}

func asRecords[T parameterRecord](list []T) []parameterRecord {
	out := make([]parameterRecord, len(list))
	for i, r := range list {
		out[i] = r
	}
	return out
}

func (d *Document) writeRecords(root *cfb.Storage, storage string, recs []parameterRecord) error {
	if len(recs) == 0 && root.Storage(storage) == nil {
		return nil
	}
	w := binfmt.NewWriter()
	for _, rec := range recs {
		if err := writeParamRecord(w, rec, d.snaps[rec]); err != nil {
			return err
		}
	}
	writeCounted(root.CreateStorage(storage), w.Bytes(), len(recs))
	return nil
}

// writeCounted sets the Data stream of st and its Header record count.
func writeCounted(st *cfb.Storage, data []byte, n int) {
	hw := binfmt.NewWriter()
	hw.WriteUint32(uint32(n))
	st.CreateStream(headerStream, hw.Bytes())
	st.CreateStream(dataStream, data)
}

// WriteFile saves the board as a compound file.
func (d *Document) WriteFile(ctx context.Context, path string) error {
	root, err := d.Storage(ctx)
	if err != nil {
		return err
	}
	return root.Save(path)
}
