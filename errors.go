package decompress

import "github.com/meigma/decompress/internal/entrytype"

// Errors re-exported from entrytype.
var (
	// ErrInvalidInput is returned when the input is neither a path nor a byte slice.
	ErrInvalidInput = entrytype.ErrInvalidInput

	// ErrPathEscape is returned when an entry would be written outside the output root.
	ErrPathEscape = entrytype.ErrPathEscape

	// ErrSymlinkWrite is returned when a file would be written through a symlink.
	ErrSymlinkWrite = entrytype.ErrSymlinkWrite

	// ErrDecode is returned when a recognized archive cannot be decoded.
	ErrDecode = entrytype.ErrDecode

	// ErrSymlinkUnsupported is returned in strict mode on platforms without symlinks.
	ErrSymlinkUnsupported = entrytype.ErrSymlinkUnsupported

	// ErrEntryTooLarge is returned when an entry exceeds the decoder size limit.
	ErrEntryTooLarge = entrytype.ErrEntryTooLarge
)
