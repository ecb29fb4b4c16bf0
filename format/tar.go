package format

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/sizing"
)

// Tar returns a decoder for uncompressed tar archives.
func Tar(opts ...Option) Decoder {
	return tarDecoder{cfg: newConfig(opts)}
}

type tarDecoder struct {
	cfg config
}

func (tarDecoder) Name() string { return "tar" }

func (d tarDecoder) Decode(ctx context.Context, data []byte) ([]Entry, error) {
	if !isTar(data) {
		return nil, nil
	}
	return decodeTar(ctx, "tar", bytes.NewReader(data), d.cfg)
}

// compressedTarDecoder decodes a tar archive wrapped in a compression stream.
type compressedTarDecoder struct {
	name  string
	match func([]byte) bool
	open  func(io.Reader, config) (io.Reader, func(), error)
	cfg   config
}

func (d compressedTarDecoder) Name() string { return d.name }

func (d compressedTarDecoder) Decode(ctx context.Context, data []byte) ([]Entry, error) {
	if !d.match(data) {
		return nil, nil
	}
	r, closeFn, err := d.open(bytes.NewReader(data), d.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, d.name, err)
	}
	defer closeFn()

	br := bufio.NewReader(r)
	head, err := br.Peek(tarMagicOffset + len(tarMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, d.name, err)
	}
	if !isTar(head) {
		// A compressed stream that does not hold a tar archive.
		return nil, nil
	}
	return decodeTar(ctx, d.name, br, d.cfg)
}

// decodeTar reads every supported member of a tar stream into memory.
// Device nodes, FIFOs, and other special members are skipped.
func decodeTar(ctx context.Context, name string, r io.Reader, cfg config) ([]Entry, error) {
	tr := tar.NewReader(r)
	var entries []Entry
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
		}

		entry := Entry{
			Path:     hdr.Name,
			Linkname: hdr.Linkname,
			Mode:     fs.FileMode(hdr.Mode).Perm(), //nolint:gosec // masked to permission bits
			ModTime:  hdr.ModTime,
		}
		switch hdr.Typeflag {
		case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // old archives still use TypeRegA
			entry.Type = entrytype.TypeFile
			entry.Data, err = readEntry(tr, name, hdr.Name, hdr.Size, cfg)
			if err != nil {
				return nil, err
			}
		case tar.TypeDir:
			entry.Type = entrytype.TypeDirectory
		case tar.TypeLink:
			entry.Type = entrytype.TypeLink
		case tar.TypeSymlink:
			entry.Type = entrytype.TypeSymlink
		default:
			continue
		}
		entries = append(entries, entry)
	}
}

// readEntry buffers one member's content, enforcing the size limit against
// both the declared size and the bytes actually produced.
func readEntry(r io.Reader, format, member string, size int64, cfg config) ([]byte, error) {
	if sizing.Exceeds(size, cfg.maxEntrySize) {
		return nil, fmt.Errorf("%s: %s: %w", format, member, ErrEntryTooLarge)
	}
	data, err := sizing.ReadAll(r, cfg.maxEntrySize, ErrEntryTooLarge)
	if errors.Is(err, ErrEntryTooLarge) {
		return nil, fmt.Errorf("%s: %s: %w", format, member, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", ErrDecode, format, member, err)
	}
	return data, nil
}
