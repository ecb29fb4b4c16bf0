package format

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"

	"github.com/bodgit/sevenzip"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/sizing"
)

// SevenZip returns a decoder for 7z archives.
//
// 7z has no hard links. Symlinks are recognized from the Unix mode in the
// attributes; their content is the link target.
func SevenZip(opts ...Option) Decoder {
	return sevenZipDecoder{cfg: newConfig(opts)}
}

type sevenZipDecoder struct {
	cfg config
}

func (sevenZipDecoder) Name() string { return "7z" }

func (d sevenZipDecoder) Decode(ctx context.Context, data []byte) ([]Entry, error) {
	if !isSevenZip(data) {
		return nil, nil
	}
	zr, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: 7z: %v", ErrDecode, err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mode := f.FileInfo().Mode()
		entry := Entry{
			Path:    f.Name,
			Mode:    mode.Perm(),
			ModTime: f.Modified,
		}
		switch {
		case mode.IsDir():
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

func (d sevenZipDecoder) readFile(f *sevenzip.File) ([]byte, error) {
	size := int64(f.UncompressedSize) //nolint:gosec // only compared against the limit
	if sizing.Exceeds(size, d.cfg.maxEntrySize) || size < 0 {
		return nil, fmt.Errorf("7z: %s: %w", f.Name, ErrEntryTooLarge)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: 7z: %s: %v", ErrDecode, f.Name, err)
	}
	defer rc.Close()
	return readEntry(rc, "7z", f.Name, size, d.cfg)
}
