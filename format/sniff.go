package format

import "bytes"

var (
	gzipMagic     = []byte{0x1f, 0x8b, 0x08}
	bzip2Magic    = []byte("BZh")
	zstdMagic     = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic       = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	tarMagic      = []byte("ustar")
	sevenZipMagic = []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}

	zipMagics = [][]byte{
		[]byte("PK\x03\x04"),
		[]byte("PK\x05\x06"), // empty archive
		[]byte("PK\x07\x08"), // spanned archive
	}
)

// tarMagicOffset is the position of the ustar magic in a tar header block.
const tarMagicOffset = 257

func isTar(data []byte) bool {
	if len(data) < tarMagicOffset+len(tarMagic) {
		return false
	}
	return bytes.Equal(data[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic)
}

func isZip(data []byte) bool {
	for _, magic := range zipMagics {
		if bytes.HasPrefix(data, magic) {
			return true
		}
	}
	return false
}

func isGzip(data []byte) bool     { return bytes.HasPrefix(data, gzipMagic) }
func isBzip2(data []byte) bool    { return bytes.HasPrefix(data, bzip2Magic) }
func isZstd(data []byte) bool     { return bytes.HasPrefix(data, zstdMagic) }
func isXz(data []byte) bool       { return bytes.HasPrefix(data, xzMagic) }
func isSevenZip(data []byte) bool { return bytes.HasPrefix(data, sevenZipMagic) }
