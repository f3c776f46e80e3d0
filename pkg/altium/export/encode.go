package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

// Write encodes doc in the named format: json, msgpack or xlsx.
func Write(w io.Writer, doc *Document, format string, pretty bool) error {
	switch strings.ToLower(format) {
	case "", "json":
		return WriteJSON(w, doc, pretty)
	case "msgpack":
		return WriteMsgpack(w, doc)
	case "xlsx":
		return WriteXLSX(w, doc)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteJSON encodes doc as JSON.
func WriteJSON(w io.Writer, doc *Document, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

// WriteMsgpack encodes doc as MessagePack.
func WriteMsgpack(w io.Writer, doc *Document) error {
	return msgpack.NewEncoder(w).Encode(doc)
}

// ReadMsgpack decodes a document written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*Document, error) {
	var doc Document
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return &doc, nil
}

// Row is one object flattened for tabular output.
type Row struct {
	Container string
	Object
}

// Rows lists every object of the parsed model. Container names the
// footprint, symbol or document section the object belongs to.
func (d *Document) Rows() []Row {
	var out []Row
	add := func(container string, objs []Object) {
		for _, o := range objs {
			out = append(out, Row{Container: container, Object: o})
		}
	}
	m := d.ParsedModel
	if m.PcbLib != nil {
		for _, fp := range m.PcbLib.Footprints {
			add(fp.Name, fp.Primitives)
		}
	}
	if m.PcbDoc != nil {
		add("Components", m.PcbDoc.Components)
		add("Polygons", m.PcbDoc.Polygons)
		add("Primitives", m.PcbDoc.Primitives)
	}
	if m.SchLib != nil {
		for _, s := range m.SchLib.Components {
			add(s.LibReference, s.Records)
		}
	}
	if m.SchDoc != nil {
		add("Sheet", m.SchDoc.Records)
	}
	return out
}

// Sheet names of the workbook
const (
	MetadataSheet = "Metadata"
	ObjectsSheet  = "Objects"
	WarningsSheet = "Warnings"
)

var objectColumns = []interface{}{
	"Container", "Index", "ObjectType", "Owner",
	"MinX", "MinY", "MaxX", "MaxY", "Parameters", "OriginalParameters",
}

// WriteXLSX encodes doc as an Excel workbook with a metadata sheet, one
// row per object and, when present, the warnings.
func WriteXLSX(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MetadataSheet); err != nil {
		return err
	}
	meta := doc.Metadata
	rows := [][]interface{}{
		{"ExportID", meta.ExportID},
		{"SourceFile", meta.SourceFile},
		{"FileKind", meta.FileKind},
		{"ExportedAt", meta.ExportedAt.Format("2006-01-02T15:04:05Z07:00")},
		{"Exporter", meta.Exporter},
	}
	for i, row := range rows {
		if err := setRow(f, MetadataSheet, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(ObjectsSheet); err != nil {
		return err
	}
	if err := setRow(f, ObjectsSheet, 1, objectColumns); err != nil {
		return err
	}
	for i, r := range doc.Rows() {
		owner := ""
		if r.Owner != nil {
			owner = strconv.Itoa(*r.Owner)
		}
		row := []interface{}{
			r.Container, r.Index, r.ObjectType, owner,
			r.Bounds.MinX, r.Bounds.MinY, r.Bounds.MaxX, r.Bounds.MaxY,
			joinFields(r.Parameters), joinFields(r.OriginalParameters),
		}
		if err := setRow(f, ObjectsSheet, i+2, row); err != nil {
			return err
		}
	}

	if len(meta.Warnings) > 0 {
		if _, err := f.NewSheet(WarningsSheet); err != nil {
			return err
		}
		if err := setRow(f, WarningsSheet, 1, []interface{}{"Stream", "Index", "Message"}); err != nil {
			return err
		}
		for i, ws := range meta.Warnings {
			if err := setRow(f, WarningsSheet, i+2, []interface{}{ws.Stream, ws.Index, ws.Message}); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// joinFields formats fields as a parameter line.
func joinFields(fs []Field) string {
	var b strings.Builder
	for _, f := range fs {
		b.WriteByte('|')
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}
