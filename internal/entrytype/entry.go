// Package entrytype defines shared types used across the decompress package
// and its internal packages. This avoids circular imports between decompress,
// format, and the materializer.
package entrytype

import (
	"io/fs"
	"time"

	"github.com/opencontainers/go-digest"
)

// Type identifies the kind of filesystem object an entry describes.
type Type uint8

const (
	TypeFile Type = iota
	TypeDirectory
	TypeLink
	TypeSymlink
)

func (t Type) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	case TypeLink:
		return "link"
	case TypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is one decoded archive member.
//
// Path is slash-separated and relative to the output root, but it comes
// straight from the archive and must never be trusted.
type Entry struct {
	Path     string
	Type     Type
	Data     []byte // file content; nil for other types
	Linkname string // link or symlink target
	Mode     fs.FileMode
	ModTime  time.Time
}

// Digest returns the sha256 digest of the entry content.
func (e Entry) Digest() digest.Digest {
	return digest.FromBytes(e.Data)
}

// Size returns the content length in bytes.
func (e Entry) Size() int64 {
	return int64(len(e.Data))
}
