// Package decompress extracts zip and tar archives onto the filesystem
// without letting any entry write outside the output directory.
//
// Archives are decoded fully in memory by a list of [Decoder] plugins, the
// resulting entries pass through an optional strip, filter, and map
// pipeline, and the survivors are written beneath the output root. Every
// write is checked against the real, symlink-resolved location of its
// parent directory, so crafted "../" paths, absolute paths, and symlinks
// planted earlier in the same archive cannot redirect a write.
//
// # Quick Start
//
// Extract an archive from disk:
//
//	entries, err := decompress.Extract(ctx, "release.tar.gz", "./out")
//	if err != nil {
//	    return err
//	}
//
// Extract bytes, dropping the top-level directory and skipping docs:
//
//	entries, err := decompress.Extract(ctx, data, "./out",
//	    decompress.WithStrip(1),
//	    decompress.WithFilter(func(e decompress.Entry) bool {
//	        return !strings.HasPrefix(e.Path, "docs/")
//	    }),
//	)
//
// # Formats
//
// By default tar, tar+bzip2, tar+gzip, and zip are recognized by their
// content signatures. [format.Extended] adds tar+zstd, tar+xz, and 7z, and
// [format.EStargz] decodes eStargz layers:
//
//	entries, err := decompress.Extract(ctx, data, "./out",
//	    decompress.WithPlugins(format.Extended()...),
//	)
//
// Input that no plugin recognizes yields an empty result, not an error.
//
// # Dry Run
//
// [List], or [Extract] with an empty output path, decodes and transforms
// without touching the filesystem.
package decompress
