package format

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"slices"

	"github.com/containerd/stargz-snapshotter/estargz"

	"github.com/meigma/decompress/internal/entrytype"
)

// EStargz returns a decoder for eStargz images.
//
// Entries are read through the image's table of contents instead of by
// scanning the tar stream. Gzip input without an eStargz footer is not
// recognized. Hard links are reported as regular files, since the table of
// contents resolves them to their target's content.
func EStargz(opts ...Option) Decoder {
	return estargzDecoder{cfg: newConfig(opts)}
}

type estargzDecoder struct {
	cfg config
}

func (estargzDecoder) Name() string { return "estargz" }

func (d estargzDecoder) Decode(ctx context.Context, data []byte) ([]Entry, error) {
	if !isGzip(data) {
		return nil, nil
	}
	sr := io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data)))
	r, err := estargz.Open(sr)
	if err != nil {
		// Plain tar+gzip; no table of contents.
		return nil, nil
	}
	root, ok := r.Lookup("")
	if !ok {
		return nil, fmt.Errorf("%w: estargz: missing root entry", ErrDecode)
	}

	var entries []Entry
	if err := d.walk(ctx, r, root, "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// walk appends the children of dir in name order, depth first.
func (d estargzDecoder) walk(ctx context.Context, r *estargz.Reader, dir *estargz.TOCEntry, dirPath string, entries *[]Entry) error {
	var names []string
	children := make(map[string]*estargz.TOCEntry)
	dir.ForeachChild(func(name string, child *estargz.TOCEntry) bool {
		names = append(names, name)
		children[name] = child
		return true
	})
	slices.Sort(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		child := children[name]
		childPath := path.Join(dirPath, name)
		if dirPath == "" && (name == estargz.PrefetchLandmark || name == estargz.NoPrefetchLandmark) {
			continue
		}

		entry := Entry{
			Path:     childPath,
			Linkname: child.LinkName,
			Mode:     child.Stat().Mode().Perm(),
			ModTime:  child.ModTime(),
		}
		switch child.Type {
		case "dir":
			entry.Type = entrytype.TypeDirectory
			*entries = append(*entries, entry)
			if err := d.walk(ctx, r, child, childPath, entries); err != nil {
				return err
			}
			continue
		case "reg":
			entry.Type = entrytype.TypeFile
			fr, err := r.OpenFile(childPath)
			if err != nil {
				return fmt.Errorf("%w: estargz: %s: %v", ErrDecode, childPath, err)
			}
			content, err := readEntry(fr, "estargz", childPath, child.Size, d.cfg)
			if err != nil {
				return err
			}
			entry.Data = content
		case "symlink":
			entry.Type = entrytype.TypeSymlink
		default:
			continue
		}
		*entries = append(*entries, entry)
	}
	return nil
}
