package pcb

import (
	"context"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/mcuadros/go-version"
)

// LibraryHeader is the FileHeader text of a footprint library.
const LibraryHeader = "PCB 6.0 Binary Library File"

// SupportedVersion is the newest library VERSION the codec knows.
const SupportedVersion = "3.00"

// Stream and storage names of PCB libraries
const (
	fileHeaderStream  = "FileHeader"
	sectionKeysStream = "SectionKeys"
	libraryStorage    = "Library"
	headerStream      = "Header"
	dataStream        = "Data"
	parametersStream  = "Parameters"
	wideStringsStream = "WideStrings"
)

// Library is a footprint library (.PcbLib).
type Library struct {
	Header     string             // FileHeader text
	Settings   *params.Collection // Library/Data parameter block
	Footprints []*Component
	Warnings   diag.Warnings

	settings snapshot
	dataTail []byte // Bytes after the footprint list in Library/Data
	sources  map[*Component]*footprintSource
	source   *cfb.Storage
}

// footprintSource is what a footprint was read from.
type footprintSource struct {
	storage *cfb.Storage
	params  snapshot
	wide    snapshot
	hasWide bool
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	s := params.New()
	s.AddString("KIND", "Protel_Advanced_PCB_Library", true)
	s.AddString("VERSION", SupportedVersion, true)
	return &Library{Header: LibraryHeader, Settings: s}
}

// Find returns the footprint named name, ignoring case.
func (l *Library) Find(name string) *Component {
	for _, c := range l.Footprints {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Add appends a footprint. Names must be unique.
func (l *Library) Add(c *Component) error {
	if c.Name == "" {
		return fmt.Errorf("footprint has no name")
	}
	if l.Find(c.Name) != nil {
		return fmt.Errorf("footprint %q already exists", c.Name)
	}
	l.Footprints = append(l.Footprints, c)
	return nil
}

// ParseLibraryFile reads a footprint library from disk.
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

// ParseLibrary reads a footprint library from a compound file tree.
func ParseLibrary(ctx context.Context, root *cfb.Storage) (*Library, error) {
	l := &Library{sources: make(map[*Component]*footprintSource), source: root}

	data, err := root.GetStreamData(fileHeaderStream)
	if err != nil {
		return nil, &diag.CorruptFileError{Stream: fileHeaderStream, Offset: -1, Err: err}
	}
	if l.Header, err = binfmt.NewBytesReader(data, fileHeaderStream).ReadStringBlock(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(l.Header, "PCB") {
		l.Warnings.Addf(fileHeaderStream, -1, "unexpected header %q", l.Header)
	}

	path := libraryStorage + "/" + dataStream
	data, err = root.GetStreamData(path)
	if err != nil {
		return nil, &diag.CorruptFileError{Stream: path, Offset: -1, Err: err}
	}
	names, err := l.readLibraryData(binfmt.NewBytesReader(data, path))
	if err != nil {
		return nil, err
	}
	keys, err := readSectionKeys(root)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := name
		if k, ok := keys[name]; ok {
			key = k
		}
		st, ok := root.TryGetStorage(key)
		if !ok {
			l.Warnings.Addf(path, -1, "footprint %q has no storage %q", name, key)
			continue
		}
		c, src, err := l.readFootprint(ctx, st, key)
		if err != nil {
			return nil, fmt.Errorf("footprint %q: %w", name, err)
		}
		l.Footprints = append(l.Footprints, c)
		l.sources[c] = src
	}
	return l, nil
}

func (l *Library) readLibraryData(r *binfmt.Reader) ([]string, error) {
	cs, _, err := r.ReadCStringBlock()
	if err != nil {
		return nil, err
	}
	if l.Settings, err = params.Parse(cs.Text); err != nil {
		return nil, diag.Corrupt(r.Name(), 0, "%v", err)
	}
	l.settings = takeSnapshot(cs, l.Settings)
	if v := l.Settings.Get("VERSION").AsStringOrDefault(""); v != "" &&
		version.Compare(version.Normalize(v), version.Normalize(SupportedVersion), ">") {
		l.Warnings.Addf(r.Name(), -1, "library version %s is newer than %s", v, SupportedVersion)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if rem := r.Remaining(); int64(n)*4 > rem {
		return nil, diag.Corrupt(r.Name(), r.Offset(), "%d footprints in %d bytes", n, rem)
	}
	names := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := r.ReadStringBlock()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	l.dataTail, err = readTail(r)
	return names, err
}

func (l *Library) readFootprint(ctx context.Context, st *cfb.Storage, key string) (*Component, *footprintSource, error) {
	src := &footprintSource{storage: st}
	c := &Component{}

	if s, ok := st.TryGetStream(parametersStream); ok {
		name := key + "/" + parametersStream
		r := binfmt.NewBytesReader(s.Data(), name)
		cs, _, err := r.ReadCStringBlock()
		if err != nil {
			return nil, nil, err
		}
		p, err := params.Parse(cs.Text)
		if err != nil {
			return nil, nil, diag.Corrupt(name, 0, "%v", err)
		}
		if err := c.ImportFromParameters(p); err != nil {
			return nil, nil, err
		}
		src.params = snapshotOf(cs, c)
	}

	s, ok := st.TryGetStream(dataStream)
	if !ok {
		return nil, nil, diag.Corrupt(key, -1, "missing %s stream", dataStream)
	}
	r := binfmt.NewBytesReader(s.Data(), key+"/"+dataStream)
	name, err := r.ReadStringBlock()
	if err != nil {
		return nil, nil, err
	}
	if c.Name == "" {
		c.Name = name
	} else if c.Name != name {
		l.Warnings.Addf(r.Name(), -1, "footprint name %q differs from pattern %q", name, c.Name)
	}
	if c.Primitives, err = ReadPrimitives(ctx, r, &l.Warnings); err != nil {
		return nil, nil, err
	}

	if s, ok := st.TryGetStream(headerStream); ok && len(s.Data()) >= 4 {
		hr := binfmt.NewBytesReader(s.Data(), key+"/"+headerStream)
		if n, err := hr.ReadUint32(); err == nil && int(n) != len(c.Primitives) {
			l.Warnings.Addf(hr.Name(), -1, "header counts %d primitives, found %d", n, len(c.Primitives))
		}
	}

	if s, ok := st.TryGetStream(wideStringsStream); ok {
		name := key + "/" + wideStringsStream
		cs, _, err := binfmt.NewBytesReader(s.Data(), name).ReadCStringBlock()
		if err != nil {
			return nil, nil, err
		}
		wide, err := params.Parse(cs.Text)
		if err != nil {
			return nil, nil, diag.Corrupt(name, 0, "%v", err)
		}
		applyWideStrings(c.Primitives, wide)
		src.wide, src.hasWide = takeSnapshot(cs, wideStrings(c.Primitives)), true
	}
	return c, src, nil
}

// readSectionKeys maps footprint names to storage names.
func readSectionKeys(root *cfb.Storage) (map[string]string, error) {
	keys := make(map[string]string)
	s, ok := root.TryGetStream(sectionKeysStream)
	if !ok {
		return keys, nil
	}
	r := binfmt.NewBytesReader(s.Data(), sectionKeysStream)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < n; i++ {
		ref, err := r.ReadPascalString()
		if err != nil {
			return nil, err
		}
		key, err := r.ReadStringBlock()
		if err != nil {
			return nil, err
		}
		keys[ref] = key
	}
	return keys, nil
}

// Storage builds the compound file tree of the library. Streams of the
// source file the codec does not handle are copied unchanged.
func (l *Library) Storage(ctx context.Context) (*cfb.Storage, error) {
	root := cfb.New()
	if l.source != nil {
		root = l.source.Clone()
		for _, src := range l.sources {
			root.Delete(src.storage.Name())
		}
	}

	taken := map[string]bool{
		strings.ToUpper(fileHeaderStream):  true,
		strings.ToUpper(sectionKeysStream): true,
		strings.ToUpper(libraryStorage):    true,
	}
	for _, st := range root.Storages() {
		taken[strings.ToUpper(st.Name())] = true
	}
	type mapping struct{ ref, key string }
	var mapped []mapping
	for _, c := range l.Footprints {
		key, isMapped := cfb.SectionKey(c.Name, taken)
		if isMapped {
			mapped = append(mapped, mapping{c.Name, key})
		}
		if err := l.writeFootprint(ctx, root.CreateStorage(key), c); err != nil {
			return nil, fmt.Errorf("footprint %q: %w", c.Name, err)
		}
	}

	if data, ok := l.sourceStream(fileHeaderStream); !ok || l.Header != l.readHeader() {
		w := binfmt.NewWriter()
		if err := w.WriteStringBlock(l.Header); err != nil {
			return nil, err
		}
		root.CreateStream(fileHeaderStream, w.Bytes())
	} else {
		root.CreateStream(fileHeaderStream, data)
	}

	lib := root.CreateStorage(libraryStorage)
	hw := binfmt.NewWriter()
	hw.WriteUint32(1)
	lib.CreateStream(headerStream, hw.Bytes())
	data, err := l.libraryData()
	if err != nil {
		return nil, err
	}
	lib.CreateStream(dataStream, data)

	if len(mapped) > 0 {
		w := binfmt.NewWriter()
		w.WriteInt32(int32(len(mapped)))
		for _, m := range mapped {
			w.WritePascalShortString(m.ref)
			if err := w.WriteStringBlock(m.key); err != nil {
				return nil, err
			}
		}
		root.CreateStream(sectionKeysStream, w.Bytes())
	} else {
		root.Delete(sectionKeysStream)
	}
	return root, nil
}

// readHeader returns the FileHeader text of the source file.
func (l *Library) readHeader() string {
	data, ok := l.sourceStream(fileHeaderStream)
	if !ok {
		return ""
	}
	s, _ := binfmt.NewBytesReader(data, fileHeaderStream).ReadStringBlock()
	return s
}

func (l *Library) sourceStream(path string) ([]byte, bool) {
	if l.source == nil {
		return nil, false
	}
	s, ok := l.source.TryGetStream(path)
	if !ok {
		return nil, false
	}
	return s.Data(), true
}

func (l *Library) libraryData() ([]byte, error) {
	w := binfmt.NewWriter()
	if err := w.WriteCStringBlock(0, l.settings.pick(l.Settings)); err != nil {
		return nil, err
	}
	w.WriteUint32(uint32(len(l.Footprints)))
	for _, c := range l.Footprints {
		if err := w.WriteStringBlock(c.Name); err != nil {
			return nil, err
		}
	}
	w.Write(l.dataTail)
	return w.Bytes(), nil
}

func (l *Library) writeFootprint(ctx context.Context, st *cfb.Storage, c *Component) error {
	src := l.sources[c]
	if src != nil {
		st.CopyFrom(src.storage)
	} else {
		src = &footprintSource{}
	}

	w := binfmt.NewWriter()
	if err := w.WriteStringBlock(c.Name); err != nil {
		return err
	}
	if err := WritePrimitives(ctx, w, c.Primitives); err != nil {
		return err
	}
	st.CreateStream(dataStream, w.Bytes())

	hw := binfmt.NewWriter()
	hw.WriteUint32(uint32(len(c.Primitives)))
	st.CreateStream(headerStream, hw.Bytes())

	pw := binfmt.NewWriter()
	if err := writeParamRecord(pw, c, src.params); err != nil {
		return err
	}
	st.CreateStream(parametersStream, pw.Bytes())

	wide := wideStrings(c.Primitives)
	if src.hasWide || wide.Len() > 0 {
		ww := binfmt.NewWriter()
		if err := ww.WriteCStringBlock(0, src.wide.pick(wide)); err != nil {
			return err
		}
		st.CreateStream(wideStringsStream, ww.Bytes())
	}
	return nil
}

// WriteFile saves the library as a compound file.
func (l *Library) WriteFile(ctx context.Context, path string) error {
	root, err := l.Storage(ctx)
	if err != nil {
		return err
	}
	return root.Save(path)
}
