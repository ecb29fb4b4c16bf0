package format

import (
	"compress/bzip2"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// TarGzip returns a decoder for gzip-compressed tar archives.
func TarGzip(opts ...Option) Decoder {
	return compressedTarDecoder{
		name:  "tar+gzip",
		match: isGzip,
		open: func(r io.Reader, _ config) (io.Reader, func(), error) {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, func() { _ = zr.Close() }, nil //nolint:errcheck // read-only stream
		},
		cfg: newConfig(opts),
	}
}

// TarBzip2 returns a decoder for bzip2-compressed tar archives.
func TarBzip2(opts ...Option) Decoder {
	return compressedTarDecoder{
		name:  "tar+bzip2",
		match: isBzip2,
		open: func(r io.Reader, _ config) (io.Reader, func(), error) {
			return bzip2.NewReader(r), func() {}, nil
		},
		cfg: newConfig(opts),
	}
}

// TarXz returns a decoder for xz-compressed tar archives.
func TarXz(opts ...Option) Decoder {
	return compressedTarDecoder{
		name:  "tar+xz",
		match: isXz,
		open: func(r io.Reader, _ config) (io.Reader, func(), error) {
			xr, err := xz.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return xr, func() {}, nil
		},
		cfg: newConfig(opts),
	}
}

// TarZstd returns a decoder for zstd-compressed tar archives.
func TarZstd(opts ...Option) Decoder {
	return compressedTarDecoder{
		name:  "tar+zstd",
		match: isZstd,
		open: func(r io.Reader, cfg config) (io.Reader, func(), error) {
			dopts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
			if cfg.maxDecoderMemory > 0 {
				dopts = append(dopts, zstd.WithDecoderMaxMemory(cfg.maxDecoderMemory))
			}
			dec, err := zstd.NewReader(r, dopts...)
			if err != nil {
				return nil, nil, err
			}
			return dec, dec.Close, nil
		},
		cfg: newConfig(opts),
	}
}
