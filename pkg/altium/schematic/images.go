package schematic

import (
	"bytes"
	"fmt"
	"io"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/params"
	"github.com/klauspost/compress/zlib"
)

// imageEntryTag starts every entry of the Storage stream.
const imageEntryTag = 0xD0

// EmbeddedImage is an image file stored inside a schematic file and
// referenced by Image records through its file name.
type EmbeddedImage struct {
	FileName string
	Data     []byte // Uncompressed file contents

	compressed []byte // Compressed form as read, reused while Data is unchanged
	original   []byte
}

// NewEmbeddedImage returns an image to be stored under fileName.
func NewEmbeddedImage(fileName string, data []byte) *EmbeddedImage {
	return &EmbeddedImage{FileName: fileName, Data: data}
}

func (img *EmbeddedImage) compress() ([]byte, error) {
	if img.compressed != nil && bytes.Equal(img.Data, img.original) {
		return img.compressed, nil
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(img.Data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadImages decodes the Storage stream of a schematic file.
func ReadImages(data []byte, name string) ([]*EmbeddedImage, *params.Collection, error) {
	r := binfmt.NewBytesReader(data, name)
	hdr, _, err := r.ReadCStringBlock()
	if err != nil {
		return nil, nil, fmt.Errorf("image storage header: %w", err)
	}
	header, err := params.Parse(hdr.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("image storage header: %w", err)
	}

	var images []*EmbeddedImage
	for !r.EOF() {
		block, _, err := r.ReadBlock()
		if err != nil {
			return nil, nil, err
		}
		img, err := decodeImage(binfmt.NewBytesReader(block, name))
		if err != nil {
			return nil, nil, fmt.Errorf("image %d: %w", len(images), err)
		}
		images = append(images, img)
	}
	return images, header, nil
}

func decodeImage(r *binfmt.Reader) (*EmbeddedImage, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag != imageEntryTag {
		return nil, fmt.Errorf("unexpected entry tag 0x%02X", tag)
	}
	name, err := r.ReadPascalString()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("negative compressed size %d", size)
	}
	compressed, err := r.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &EmbeddedImage{
		FileName:   name,
		Data:       data,
		compressed: compressed,
		original:   bytes.Clone(data),
	}, nil
}

// WriteImages encodes the Storage stream. header supplies the keys kept
// from the file that was read; it may be nil.
func WriteImages(images []*EmbeddedImage, header *params.Collection) ([]byte, error) {
	hp := params.New()
	hp.AddString("HEADER", "Icon storage", true)
	hp.AddInt("WEIGHT", len(images), false)
	if header != nil {
		for k, v := range header.All() {
			if !hp.Has(k) {
				hp.Add(k, v)
			}
		}
	}

	w := binfmt.NewWriter()
	if err := w.WriteCStringBlock(0, binfmt.CString{Text: hp.String(), Terminated: true}); err != nil {
		return nil, err
	}
	for _, img := range images {
		compressed, err := img.compress()
		if err != nil {
			return nil, fmt.Errorf("compress %s: %w", img.FileName, err)
		}
		err = w.WriteBlock(0, func() error {
			w.WriteByte(imageEntryTag)
			w.WritePascalShortString(img.FileName)
			w.WriteInt32(int32(len(compressed)))
			w.Write(compressed)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
