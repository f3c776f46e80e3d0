package cfb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/richardlehane/mscfb"
)

// Open reads the compound file at path into memory.
func Open(path string) (*Storage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := Read(f)
	if err != nil {
		return nil, diag.WithPath(err, path)
	}
	return root, nil
}

// FromBytes reads a compound file held in memory.
func FromBytes(data []byte) (*Storage, error) {
	return Read(bytes.NewReader(data))
}

// Read loads every storage and stream of the compound file in r.
func Read(r io.ReaderAt) (*Storage, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, &diag.CorruptFileError{Offset: -1, Err: fmt.Errorf("not a compound file: %w", err)}
	}

	root := New()
	for {
		entry, err := doc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &diag.CorruptFileError{Offset: -1, Err: fmt.Errorf("directory: %w", err)}
		}

		dir := entry.Path
		if len(dir) > 0 && dir[0] == RootName {
			dir = dir[1:]
		}
		parent := root
		for _, p := range dir {
			parent = parent.CreateStorage(p)
		}
		if entry.FileInfo().IsDir() {
			parent.CreateStorage(entry.Name)
			continue
		}

		data := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, data); err != nil {
			return nil, &diag.CorruptFileError{
				Stream: joinPath(entry.Path, entry.Name),
				Offset: -1,
				Err:    fmt.Errorf("read stream: %w", err),
			}
		}
		parent.CreateStream(entry.Name, data)
	}
	return root, nil
}

func joinPath(dir []string, name string) string {
	var b bytes.Buffer
	for _, d := range dir {
		b.WriteString(d)
		b.WriteByte('/')
	}
	b.WriteString(name)
	return b.String()
}
