package schematic

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/mcuadros/go-version"
)

// SupportedVersion is the newest file format version the codec knows.
const SupportedVersion = "5.0"

// LibraryHeader is the HEADER value of a symbol library.
const LibraryHeader = "Protel for Windows - Schematic Library Editor Binary File Version 5.0"

// Stream and storage names of schematic files
const (
	fileHeaderStream  = "FileHeader"
	sectionKeysStream = "SectionKeys"
	imageStream       = "Storage"
	dataStream        = "Data"
)

// Library is a schematic symbol library (.SchLib). Each component is a
// record tree rooted at a Component.
type Library struct {
	Header     *params.Collection // FileHeader keys other than fonts and the component list
	Fonts      []Font
	Components []*Tree
	Images     []*EmbeddedImage
	Warnings   diag.Warnings

	imageHeader *params.Collection
	nameList    bool                   // FileHeader carries the trailing component name list
	storages    map[*Tree]*cfb.Storage // Storage each component was read from
	source      *cfb.Storage
}

// NewLibrary returns an empty library with the editor's header.
func NewLibrary() *Library {
	h := params.New()
	h.AddString("HEADER", LibraryHeader, true)
	h.AddInt("WEIGHT", 0, true)
	h.AddInt("MINORVERSION", 9, false)
	sheet := NewSheetHeader()
	sheet.UseCustomSheet = true
	sheet.SheetStyle = 9
	p := params.New()
	sheet.ExportToParameters(p)
	for k, v := range p.All() {
		if k != "RECORD" && !isFontKey(k) {
			h.Add(k, v)
		}
	}
	return &Library{
		Header:   h,
		Fonts:    []Font{DefaultFont},
		nameList: true,
	}
}

// Find returns the component whose library reference is name, ignoring
// case.
func (l *Library) Find(name string) *Tree {
	for _, t := range l.Components {
		if c := t.Component(); c != nil && strings.EqualFold(c.LibReference, name) {
			return t
		}
	}
	return nil
}

// Add appends a component tree. The tree root must be a Component.
func (l *Library) Add(t *Tree) error {
	c := t.Component()
	if c == nil {
		return fmt.Errorf("library component root must be a component")
	}
	if l.Find(c.LibReference) != nil {
		return fmt.Errorf("component %q already exists", c.LibReference)
	}
	l.Components = append(l.Components, t)
	return nil
}

// ParseLibraryFile reads a symbol library from disk.
func ParseLibraryFile(ctx context.Context, path string) (*Library, error) {
	root, err := cfb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	lib, err := ParseLibrary(ctx, root)
	if err != nil {
		return nil, diag.WithPath(err, path)
	}
	return lib, nil
}

// ParseLibrary reads a symbol library from a compound file tree.
func ParseLibrary(ctx context.Context, root *cfb.Storage) (*Library, error) {
	l := &Library{storages: make(map[*Tree]*cfb.Storage), source: root}

	data, err := root.GetStreamData(fileHeaderStream)
	if err != nil {
		return nil, &diag.CorruptFileError{Stream: fileHeaderStream, Offset: -1, Err: err}
	}
	refs, err := l.readFileHeader(data)
	if err != nil {
		return nil, err
	}
	keys, err := readSectionKeys(root)
	if err != nil {
		return nil, err
	}

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ref == "" {
			l.Warnings.Addf(fileHeaderStream, -1, "component %d has no LIBREF%d", i, i)
			continue
		}
		name := ref
		if k, ok := keys[ref]; ok {
			name = k
		}
		st, ok := root.TryGetStorage(name)
		if !ok {
			l.Warnings.Addf(fileHeaderStream, -1, "component %q has no storage %q", ref, name)
			continue
		}
		s, ok := st.TryGetStream(dataStream)
		if !ok {
			l.Warnings.Addf(name, -1, "component %q has no %s stream", ref, dataStream)
			continue
		}
		t, err := ReadRecords(ctx, binfmt.NewBytesReader(s.Data(), name+"/"+dataStream))
		if err != nil {
			return nil, err
		}
		l.Warnings = append(l.Warnings, t.Warnings...)
		if t.Component() == nil {
			l.Warnings.Addf(t.Stream, 0, "component %q does not start with a component record", ref)
			continue
		}
		l.Components = append(l.Components, t)
		l.storages[t] = st
	}

	if s, ok := root.TryGetStream(imageStream); ok {
		images, header, err := ReadImages(s.Data(), imageStream)
		if err != nil {
			l.Warnings.AddError(imageStream, -1, err)
		} else {
			l.Images, l.imageHeader = images, header
		}
	}
	return l, nil
}

// readFileHeader decodes the header block and returns the component
// references in file order.
func (l *Library) readFileHeader(data []byte) ([]string, error) {
	r := binfmt.NewBytesReader(data, fileHeaderStream)
	cs, _, err := r.ReadCStringBlock()
	if err != nil {
		return nil, err
	}
	p, err := params.Parse(cs.Text)
	if err != nil {
		return nil, diag.Corrupt(fileHeaderStream, 0, "%v", err)
	}
	for _, k := range p.Duplicates() {
		l.Warnings.Addf(fileHeaderStream, -1, "duplicate key %s, first value kept", k)
	}
	checkVersion(&l.Warnings, p.Get("HEADER").AsStringOrDefault(""))

	l.Fonts = importFonts(p)
	n := p.Count("COMPCOUNT")
	refs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, p.Get(fmtKey("LIBREF", i)).AsStringOrDefault(""))
	}
	for _, note := range p.Notes() {
		l.Warnings.Addf(fileHeaderStream, -1, "%s", note)
	}

	l.Header = params.New()
	for k, v := range p.All() {
		if !isFontKey(k) && !isComponentListKey(k) {
			l.Header.Add(k, v)
		}
	}

	// Newer writers follow the block with the component names.
	if !r.EOF() {
		count, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			if _, err := r.ReadStringBlock(); err != nil {
				return nil, err
			}
		}
		l.nameList = true
	}
	return refs, nil
}

// checkVersion warns about headers newer than SupportedVersion.
func checkVersion(ws *diag.Warnings, header string) {
	i := strings.LastIndex(header, "Version ")
	if i < 0 {
		return
	}
	v := strings.TrimSpace(header[i+len("Version "):])
	if version.Compare(version.Normalize(v), version.Normalize(SupportedVersion), ">") {
		ws.Addf(fileHeaderStream, -1, "file version %s is newer than %s", v, SupportedVersion)
	}
}

func isNumberedKey(k, prefix string) bool {
	if len(k) <= len(prefix) || !strings.EqualFold(k[:len(prefix)], prefix) {
		return false
	}
	_, err := strconv.Atoi(k[len(prefix):])
	return err == nil
}

func isFontKey(k string) bool {
	if strings.EqualFold(k, "FONTIDCOUNT") {
		return true
	}
	for _, prefix := range []string{"SIZE", "FONTNAME", "ROTATION", "BOLD", "ITALIC", "UNDERLINE", "STRIKEOUT"} {
		if isNumberedKey(k, prefix) {
			return true
		}
	}
	return false
}

func isComponentListKey(k string) bool {
	if strings.EqualFold(k, "COMPCOUNT") {
		return true
	}
	return isNumberedKey(k, "LIBREF") || isNumberedKey(k, "COMPDESCR") || isNumberedKey(k, "PARTCOUNT")
}

// readSectionKeys maps library references to storage names.
func readSectionKeys(root *cfb.Storage) (map[string]string, error) {
	keys := make(map[string]string)
	s, ok := root.TryGetStream(sectionKeysStream)
	if !ok {
		return keys, nil
	}
	r := binfmt.NewBytesReader(s.Data(), sectionKeysStream)
	cs, _, err := r.ReadCStringBlock()
	if err != nil {
		return nil, err
	}
	p, err := params.Parse(cs.Text)
	if err != nil {
		return nil, diag.Corrupt(sectionKeysStream, 0, "%v", err)
	}
	n := p.Count("KEYCOUNT")
	for i := 0; i < n; i++ {
		ref := p.Get(fmtKey("LIBREF", i)).AsStringOrDefault("")
		key := p.Get(fmtKey("SECTIONKEY", i)).AsStringOrDefault("")
		if ref != "" && key != "" {
			keys[ref] = key
		}
	}
	return keys, nil
}

// Storage builds the compound file tree of the library. Streams of the
// file the library was read from that the codec does not handle are
// copied unchanged.
func (l *Library) Storage(ctx context.Context) (*cfb.Storage, error) {
	root := cfb.New()
	if l.source != nil {
		root = l.source.Clone()
		for _, st := range l.storages {
			root.Delete(st.Name())
		}
	}

	taken := map[string]bool{
		strings.ToUpper(fileHeaderStream):  true,
		strings.ToUpper(sectionKeysStream): true,
		strings.ToUpper(imageStream):       true,
	}
	sections := params.New()
	var mapped int
	for _, t := range l.Components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref := t.Component().LibReference
		key, isMapped := cfb.SectionKey(ref, taken)
		if isMapped {
			sections.AddString(fmtKey("LIBREF", mapped), ref, true)
			sections.AddString(fmtKey("SECTIONKEY", mapped), key, true)
			mapped++
		}

		w := binfmt.NewWriter()
		if err := WriteRecords(ctx, w, t); err != nil {
			return nil, fmt.Errorf("component %q: %w", ref, err)
		}
		st := root.CreateStorage(key)
		if src, ok := l.storages[t]; ok {
			for _, s := range src.Streams() {
				if !strings.EqualFold(s.Name(), dataStream) {
					st.CreateStream(s.Name(), s.Data())
				}
			}
		}
		st.CreateStream(dataStream, w.Bytes())
	}

	header, err := l.fileHeader()
	if err != nil {
		return nil, err
	}
	root.CreateStream(fileHeaderStream, header)

	if mapped > 0 {
		keys := params.New()
		keys.AddInt("KEYCOUNT", mapped, true)
		keys.Merge(sections)
		w := binfmt.NewWriter()
		if err := w.WriteCStringBlock(0, binfmt.CString{Text: keys.String(), Terminated: true}); err != nil {
			return nil, err
		}
		root.CreateStream(sectionKeysStream, w.Bytes())
	} else {
		root.Delete(sectionKeysStream)
	}

	if len(l.Images) > 0 {
		data, err := WriteImages(l.Images, l.imageHeader)
		if err != nil {
			return nil, err
		}
		root.CreateStream(imageStream, data)
	}
	return root, nil
}

// fileHeader encodes the FileHeader stream. Fonts take the place of the
// first font key and the component list follows the other header keys.
func (l *Library) fileHeader() ([]byte, error) {
	p := params.New()
	fontsDone := false
	for k, v := range l.Header.All() {
		if !fontsDone && k != "HEADER" && k != "WEIGHT" && k != "MINORVERSION" && k != "UNIQUEID" {
			exportFonts(p, l.Fonts)
			fontsDone = true
		}
		p.Add(k, v)
	}
	if !fontsDone {
		exportFonts(p, l.Fonts)
	}
	p.AddInt("COMPCOUNT", len(l.Components), true)
	for i, t := range l.Components {
		c := t.Component()
		p.AddString(fmtKey("LIBREF", i), c.LibReference, true)
		p.AddString(fmtKey("COMPDESCR", i), c.Description, true)
		p.AddInt(fmtKey("PARTCOUNT", i), c.PartCount, true)
	}

	w := binfmt.NewWriter()
	if err := w.WriteCStringBlock(0, binfmt.CString{Text: p.String(), Terminated: true}); err != nil {
		return nil, err
	}
	if l.nameList {
		w.WriteInt32(int32(len(l.Components)))
		for _, t := range l.Components {
			if err := w.WriteStringBlock(t.Component().LibReference); err != nil {
				return nil, err
			}
		}
	}
	return w.Bytes(), nil
}

// WriteFile saves the library as a compound file.
func (l *Library) WriteFile(ctx context.Context, path string) error {
	root, err := l.Storage(ctx)
	if err != nil {
		return err
	}
	return root.Save(path)
}
