// Package testutil builds in-memory archives for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"io/fs"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/meigma/decompress/internal/entrytype"
)

// DefaultModTime is used for members without an explicit ModTime.
var DefaultModTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Member describes one archive member to build.
type Member struct {
	Name     string
	Type     entrytype.Type
	Body     string
	Mode     fs.FileMode
	Linkname string
	ModTime  time.Time
}

// File returns a regular file member with mode 0o644.
func File(name, body string) Member {
	return Member{Name: name, Type: entrytype.TypeFile, Body: body, Mode: 0o644}
}

// Dir returns a directory member with mode 0o755.
func Dir(name string) Member {
	return Member{Name: name, Type: entrytype.TypeDirectory, Mode: 0o755}
}

// Symlink returns a symlink member.
func Symlink(name, target string) Member {
	return Member{Name: name, Type: entrytype.TypeSymlink, Linkname: target, Mode: 0o777}
}

// Link returns a hard link member.
func Link(name, target string) Member {
	return Member{Name: name, Type: entrytype.TypeLink, Linkname: target, Mode: 0o644}
}

func (m Member) modTime() time.Time {
	if m.ModTime.IsZero() {
		return DefaultModTime
	}
	return m.ModTime
}

// Tar builds an uncompressed tar archive.
func Tar(tb testing.TB, members ...Member) []byte {
	tb.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{
			Name:     m.Name,
			Mode:     int64(m.Mode.Perm()),
			ModTime:  m.modTime(),
			Linkname: m.Linkname,
			Format:   tar.FormatPAX,
		}
		switch m.Type {
		case entrytype.TypeFile:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(m.Body))
		case entrytype.TypeDirectory:
			hdr.Typeflag = tar.TypeDir
		case entrytype.TypeLink:
			hdr.Typeflag = tar.TypeLink
		case entrytype.TypeSymlink:
			hdr.Typeflag = tar.TypeSymlink
		}
		if err := tw.WriteHeader(hdr); err != nil {
			tb.Fatalf("write tar header %s: %v", m.Name, err)
		}
		if m.Type == entrytype.TypeFile {
			if _, err := tw.Write([]byte(m.Body)); err != nil {
				tb.Fatalf("write tar body %s: %v", m.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		tb.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

// Zip builds a zip archive. Hard links cannot be represented and fail the test.
func Zip(tb testing.TB, members ...Member) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		hdr := &zip.FileHeader{
			Name:     m.Name,
			Method:   zip.Deflate,
			Modified: m.modTime(),
		}
		body := m.Body
		switch m.Type {
		case entrytype.TypeFile:
			hdr.SetMode(m.Mode.Perm())
		case entrytype.TypeDirectory:
			hdr.Method = zip.Store
			hdr.SetMode(fs.ModeDir | m.Mode.Perm())
		case entrytype.TypeSymlink:
			hdr.SetMode(fs.ModeSymlink | m.Mode.Perm())
			body = m.Linkname
		case entrytype.TypeLink:
			tb.Fatalf("zip cannot represent hard link %s", m.Name)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			tb.Fatalf("create zip entry %s: %v", m.Name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			tb.Fatalf("write zip entry %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Gzip compresses data with gzip.
func Gzip(tb testing.TB, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		tb.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// Zstd compresses data with zstd.
func Zstd(tb testing.TB, data []byte) []byte {
	tb.Helper()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		tb.Fatalf("zstd encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

// Xz compresses data with xz.
func Xz(tb testing.TB, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		tb.Fatalf("xz writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		tb.Fatalf("xz write: %v", err)
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("xz close: %v", err)
	}
	return buf.Bytes()
}
