// Package format provides archive decoders for decompress.
//
// Each decoder recognizes its format by sniffing the input bytes, never by
// file name. A decoder that does not recognize its input returns an empty
// result and no error, so callers can offer the same bytes to every decoder
// in turn. A decoder that recognizes its input but cannot decode it returns
// an error wrapping [ErrDecode].
//
// [Defaults] returns tar, tar+bzip2, tar+gzip, and zip decoders. [Extended]
// adds tar+zstd, tar+xz, and 7z. [EStargz] decodes eStargz images through their
// table of contents; it is not part of either set because every eStargz
// image is also a valid tar+gzip archive.
package format
