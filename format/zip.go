package format

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/sizing"
)

// Zip returns a decoder for zip archives.
//
// Symlinks are recognized from the Unix mode stored in the external
// attributes; their content is the link target.
func Zip(opts ...Option) Decoder {
	return zipDecoder{cfg: newConfig(opts)}
}

type zipDecoder struct {
	cfg config
}

func (zipDecoder) Name() string { return "zip" }

func (d zipDecoder) Decode(ctx context.Context, data []byte) ([]Entry, error) {
	if !isZip(data) {
		return nil, nil
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: zip: %v", ErrDecode, err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mode := f.Mode()
		entry := Entry{
			Path:    f.Name,
			Mode:    mode.Perm(),
			ModTime: f.Modified,
		}
		switch {
		case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
			entry.Type = entrytype.TypeDirectory
			entries = append(entries, entry)
			continue
		case mode&fs.ModeSymlink != 0:
			entry.Type = entrytype.TypeSymlink
		default:
			entry.Type = entrytype.TypeFile
		}

		content, err := d.readFile(f)
		if err != nil {
			return nil, err
		}
		if entry.Type == entrytype.TypeSymlink {
			entry.Linkname = string(content)
		} else {
			entry.Data = content
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (d zipDecoder) readFile(f *zip.File) ([]byte, error) {
	size := int64(f.UncompressedSize64) //nolint:gosec // only compared against the limit
	if sizing.Exceeds(size, d.cfg.maxEntrySize) || size < 0 {
		return nil, fmt.Errorf("zip: %s: %w", f.Name, ErrEntryTooLarge)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: zip: %s: %v", ErrDecode, f.Name, err)
	}
	defer rc.Close()
	return readEntry(rc, "zip", f.Name, size, d.cfg)
}
