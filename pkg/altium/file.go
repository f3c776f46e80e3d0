// Package altium opens Altium library and document files of any supported
// kind and hands them to the schematic or PCB codec.
package altium

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/pcb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/schematic"
)

// Kind is the type of an Altium file.
type Kind int

// File kinds
const (
	KindUnknown Kind = iota
	KindSchLib
	KindSchDoc
	KindPcbLib
	KindPcbDoc
)

func (k Kind) String() string {
	switch k {
	case KindSchLib:
		return "SchLib"
	case KindSchDoc:
		return "SchDoc"
	case KindPcbLib:
		return "PcbLib"
	case KindPcbDoc:
		return "PcbDoc"
	}
	return "unknown"
}

// KindFromExtension maps a file name to a kind by its extension.
func KindFromExtension(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".schlib":
		return KindSchLib
	case ".schdoc":
		return KindSchDoc
	case ".pcblib":
		return KindPcbLib
	case ".pcbdoc":
		return KindPcbDoc
	}
	return KindUnknown
}

// DetectKind inspects the FileHeader stream of root.
func DetectKind(root *cfb.Storage) Kind {
	data, err := root.GetStreamData("FileHeader")
	if err != nil {
		return KindUnknown
	}
	switch {
	case bytes.Contains(data, []byte("Schematic Library")):
		return KindSchLib
	case bytes.Contains(data, []byte("Schematic")):
		return KindSchDoc
	case bytes.Contains(data, []byte(pcb.LibraryHeader)):
		return KindPcbLib
	case bytes.Contains(data, []byte("PCB")):
		return KindPcbDoc
	}
	return KindUnknown
}

// File is a parsed Altium file. Exactly one of the model fields is set,
// matching Kind.
type File struct {
	Path string
	Kind Kind
	Root *cfb.Storage // Compound file tree as read

	SchLib *schematic.Library
	SchDoc *schematic.Document
	PcbLib *pcb.Library
	PcbDoc *pcb.Document
}

// Open reads and decodes the file at path. The kind comes from the
// FileHeader stream, or from the extension when the header is not
// recognized.
func Open(ctx context.Context, path string) (*File, error) {
	root, err := cfb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	f, err := Decode(ctx, root, KindFromExtension(path))
	if err != nil {
		return nil, diag.WithPath(err, path)
	}
	f.Path = path
	return f, nil
}

// Decode parses root. hint is used when the FileHeader does not identify
// the kind.
func Decode(ctx context.Context, root *cfb.Storage, hint Kind) (*File, error) {
	f := &File{Root: root, Kind: DetectKind(root)}
	if f.Kind == KindUnknown {
		f.Kind = hint
	}

	var err error
	switch f.Kind {
	case KindSchLib:
		f.SchLib, err = schematic.ParseLibrary(ctx, root)
	case KindSchDoc:
		f.SchDoc, err = schematic.ParseDocument(ctx, root)
	case KindPcbLib:
		f.PcbLib, err = pcb.ParseLibrary(ctx, root)
	case KindPcbDoc:
		f.PcbDoc, err = pcb.ParseDocument(ctx, root)
	default:
		return nil, fmt.Errorf("unrecognized Altium file")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Warnings returns the warnings collected while reading.
func (f *File) Warnings() diag.Warnings {
	switch {
	case f.SchLib != nil:
		return f.SchLib.Warnings
	case f.SchDoc != nil:
		return f.SchDoc.Warnings
	case f.PcbLib != nil:
		return f.PcbLib.Warnings
	case f.PcbDoc != nil:
		return f.PcbDoc.Warnings
	}
	return nil
}

// Storage encodes the model back into a compound file tree.
func (f *File) Storage(ctx context.Context) (*cfb.Storage, error) {
	switch {
	case f.SchLib != nil:
		return f.SchLib.Storage(ctx)
	case f.SchDoc != nil:
		return f.SchDoc.Storage(ctx)
	case f.PcbLib != nil:
		return f.PcbLib.Storage(ctx)
	case f.PcbDoc != nil:
		return f.PcbDoc.Storage(ctx)
	}
	return nil, fmt.Errorf("no model to write")
}

// WriteFile encodes the model and saves it at path.
func (f *File) WriteFile(ctx context.Context, path string) error {
	root, err := f.Storage(ctx)
	if err != nil {
		return err
	}
	return root.Save(path)
}
