package schematic

import (
	"context"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
)

// DocumentHeader is the HEADER value of a schematic sheet.
const DocumentHeader = "Protel for Windows - Schematic Capture Binary File Version 5.0"

// Document is a schematic sheet (.SchDoc). Record 0 of its tree is the
// sheet header; placed components own their pins and graphics.
type Document struct {
	Header   *params.Collection
	Tree     *Tree
	Images   []*EmbeddedImage
	Warnings diag.Warnings

	imageHeader *params.Collection
	readCount   int
	source      *cfb.Storage
}

// NewDocument returns an empty sheet with the editor's defaults.
func NewDocument() *Document {
	h := params.New()
	h.AddString("HEADER", DocumentHeader, true)
	h.AddInt("WEIGHT", 1, true)
	return &Document{Header: h, Tree: NewTree(NewSheetHeader()), readCount: 1}
}

// Sheet returns the sheet header record.
func (d *Document) Sheet() *SheetHeader { return d.Tree.Sheet() }

// Components returns the record indices of the placed components.
func (d *Document) Components() []int { return d.Tree.Find(RecordComponent) }

// ParseDocumentFile reads a schematic sheet from disk.
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

// ParseDocument reads a schematic sheet from a compound file tree.
func ParseDocument(ctx context.Context, root *cfb.Storage) (*Document, error) {
	d := &Document{source: root}
	data, err := root.GetStreamData(fileHeaderStream)
	if err != nil {
		return nil, &diag.CorruptFileError{Stream: fileHeaderStream, Offset: -1, Err: err}
	}

	r := binfmt.NewBytesReader(data, fileHeaderStream)
	cs, _, err := r.ReadCStringBlock()
	if err != nil {
		return nil, err
	}
	if d.Header, err = params.Parse(cs.Text); err != nil {
		return nil, diag.Corrupt(fileHeaderStream, 0, "%v", err)
	}
	checkVersion(&d.Warnings, d.Header.Get("HEADER").AsStringOrDefault(""))

	if d.Tree, err = ReadRecords(ctx, r); err != nil {
		return nil, err
	}
	d.readCount = d.Tree.Len()
	d.Warnings = append(d.Warnings, d.Tree.Warnings...)
	if d.Tree.Sheet() == nil {
		d.Warnings.Addf(fileHeaderStream, 0, "first record is %d, not a sheet header", d.Tree.Root().Record())
	}

	if s, ok := root.TryGetStream(imageStream); ok {
		images, header, err := ReadImages(s.Data(), imageStream)
		if err != nil {
			d.Warnings.AddError(imageStream, -1, err)
		} else {
			d.Images, d.imageHeader = images, header
		}
	}
	return d, nil
}

// Storage builds the compound file tree of the sheet. Streams the codec
// does not handle, such as Additional, are copied from the source file.
func (d *Document) Storage(ctx context.Context) (*cfb.Storage, error) {
	root := cfb.New()
	if d.source != nil {
		root = d.source.Clone()
	}

	header := d.Header.Clone()
	if n := len(d.Tree.Live()); n != d.readCount {
		header.Set("WEIGHT", fmt.Sprint(header.Get("WEIGHT").AsIntOrDefault(0)+n-d.readCount))
	}
	w := binfmt.NewWriter()
	if err := w.WriteCStringBlock(0, binfmt.CString{Text: header.String(), Terminated: true}); err != nil {
		return nil, err
	}
	if err := WriteRecords(ctx, w, d.Tree); err != nil {
		return nil, err
	}
	root.CreateStream(fileHeaderStream, w.Bytes())

	if len(d.Images) > 0 {
		data, err := WriteImages(d.Images, d.imageHeader)
		if err != nil {
			return nil, err
		}
		root.CreateStream(imageStream, data)
	}
	return root, nil
}

// WriteFile saves the sheet as a compound file.
func (d *Document) WriteFile(ctx context.Context, path string) error {
	root, err := d.Storage(ctx)
	if err != nil {
		return err
	}
	return root.Save(path)
}
