package format

import (
	"context"

	"github.com/meigma/decompress/internal/entrytype"
)

// Entry is an alias for entrytype.Entry.
type Entry = entrytype.Entry

// Errors re-exported from entrytype.
var (
	// ErrDecode is returned when a recognized archive is malformed.
	ErrDecode = entrytype.ErrDecode

	// ErrEntryTooLarge is returned when an entry exceeds the configured size limit.
	ErrEntryTooLarge = entrytype.ErrEntryTooLarge
)

// Decoder recognizes one archive format and decodes it into entries.
type Decoder interface {
	// Name identifies the format, for logging.
	Name() string

	// Decode returns the entries of data, or an empty result if data is
	// not in this decoder's format.
	Decode(ctx context.Context, data []byte) ([]Entry, error)
}

// Func adapts a plain function to the Decoder interface.
func Func(name string, fn func(ctx context.Context, data []byte) ([]Entry, error)) Decoder {
	return funcDecoder{name: name, fn: fn}
}

type funcDecoder struct {
	name string
	fn   func(ctx context.Context, data []byte) ([]Entry, error)
}

func (d funcDecoder) Name() string { return d.name }

func (d funcDecoder) Decode(ctx context.Context, data []byte) ([]Entry, error) {
	return d.fn(ctx, data)
}

// Defaults returns the decoders tried when none are configured:
// tar, tar+bzip2, tar+gzip, and zip, in that order.
func Defaults(opts ...Option) []Decoder {
	return []Decoder{
		Tar(opts...),
		TarBzip2(opts...),
		TarGzip(opts...),
		Zip(opts...),
	}
}

// Extended returns Defaults followed by tar+zstd, tar+xz, and 7z.
func Extended(opts ...Option) []Decoder {
	return append(Defaults(opts...),
		TarZstd(opts...),
		TarXz(opts...),
		SevenZip(opts...),
	)
}
