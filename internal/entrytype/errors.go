package entrytype

import "errors"

// Sentinel errors for extraction.
var (
	// ErrInvalidInput is returned when the input is neither a path nor a byte slice.
	ErrInvalidInput = errors.New("decompress: input must be a file path or a byte slice")

	// ErrPathEscape is returned when an entry would resolve outside the output root.
	ErrPathEscape = errors.New("decompress: refusing to write outside the output root")

	// ErrSymlinkWrite is returned when a file would be written through a symlink.
	ErrSymlinkWrite = errors.New("decompress: refusing to write into a symlink")

	// ErrDecode is returned when a decoder recognizes its format but cannot decode it.
	ErrDecode = errors.New("decompress: decode failed")

	// ErrSymlinkUnsupported is returned in strict mode on platforms without symlinks.
	ErrSymlinkUnsupported = errors.New("decompress: symbolic links not supported on this platform")

	// ErrEntryTooLarge is returned when a decoded entry exceeds the configured size limit.
	ErrEntryTooLarge = errors.New("decompress: entry exceeds size limit")
)
