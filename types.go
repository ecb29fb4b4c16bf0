package decompress

import (
	"github.com/meigma/decompress/format"
	"github.com/meigma/decompress/internal/entrytype"
)

// Entry is one decoded archive member.
type Entry = entrytype.Entry

// Type identifies the kind of filesystem object an Entry describes.
type Type = entrytype.Type

// Decoder recognizes and decodes one archive format.
type Decoder = format.Decoder

// Type constants.
const (
	TypeFile      = entrytype.TypeFile
	TypeDirectory = entrytype.TypeDirectory
	TypeLink      = entrytype.TypeLink
	TypeSymlink   = entrytype.TypeSymlink
)
