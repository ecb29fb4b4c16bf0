// Package materialize turns decoded entries into filesystem state beneath
// an output root.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/pathutil"
	"github.com/meigma/decompress/internal/platform"
	"github.com/meigma/decompress/internal/safepath"
)

// Entry is an alias for entrytype.Entry.
type Entry = entrytype.Entry

// Materializer writes entries beneath a single output root.
//
// Every write is preceded by a containment check: parents are created
// through a safepath.Resolver, and regular files are never written through
// a symlink. A Materializer is safe for concurrent use.
type Materializer struct {
	resolver       *safepath.Resolver
	umask          fs.FileMode
	umaskSet       bool
	strictSymlinks bool
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithUmask overrides the file mode creation mask applied to file modes.
// By default the process umask is used.
func WithUmask(mask fs.FileMode) Option {
	return func(m *Materializer) {
		m.umask = mask.Perm()
		m.umaskSet = true
	}
}

// WithStrictSymlinks makes symlink entries fail with ErrSymlinkUnsupported
// on platforms without symlink support instead of becoming hard links.
func WithStrictSymlinks(strict bool) Option {
	return func(m *Materializer) {
		m.strictSymlinks = strict
	}
}

// WithLogger sets a logger. If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// New creates a Materializer for the output root. The root is created on
// first use if it does not exist.
func New(root string, opts ...Option) (*Materializer, error) {
	resolver, err := safepath.NewResolver(root)
	if err != nil {
		return nil, err
	}
	m := &Materializer{
		resolver: resolver,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.umaskSet {
		m.umask = platform.Umask()
	}
	return m, nil
}

// Root returns the absolute output root.
func (m *Materializer) Root() string {
	return m.resolver.Root()
}

// log returns the logger, falling back to a discard logger if nil.
func (m *Materializer) log() *slog.Logger {
	if m.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.logger
}

// Materialize creates the filesystem object described by entry and returns
// the entry as its result record.
//
// Nothing is undone on failure; entries written earlier stay on disk.
func (m *Materializer) Materialize(ctx context.Context, entry Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return entry, err
	}
	dest, err := m.destination(entry.Path)
	if err != nil {
		return entry, err
	}

	switch entry.Type {
	case entrytype.TypeDirectory:
		err = m.writeDir(dest, entry)
	case entrytype.TypeFile:
		err = m.writeFile(dest, entry)
	case entrytype.TypeLink:
		err = m.writeHardLink(dest, entry.Linkname)
	case entrytype.TypeSymlink:
		err = m.writeSymlink(dest, entry)
	default:
		err = fmt.Errorf("unsupported entry type %s", entry.Type)
	}
	if err != nil {
		return entry, fmt.Errorf("%s: %w", entry.Path, err)
	}

	m.log().Debug("materialized entry", "path", entry.Path, "type", entry.Type.String())
	return entry, nil
}

// RestoreDirTime re-applies a directory entry's modification time. Writing
// children into a directory updates its mtime, so this runs after all
// entries are materialized.
func (m *Materializer) RestoreDirTime(entry Entry) error {
	dest, err := m.destination(entry.Path)
	if err != nil {
		return err
	}
	real, err := m.resolver.Confine(dest)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Path, err)
	}
	if err := os.Chtimes(real, m.now(), entry.ModTime); err != nil {
		return fmt.Errorf("%s: chtimes: %w", entry.Path, err)
	}
	return nil
}

// destination maps an entry path to its location under the root, rejecting
// absolute paths and ".." elements outright.
func (m *Materializer) destination(p string) (string, error) {
	if !pathutil.IsLocal(p) {
		return "", fmt.Errorf("%w: %q", entrytype.ErrPathEscape, p)
	}
	return filepath.Join(m.resolver.Root(), filepath.FromSlash(p)), nil
}

func (m *Materializer) writeDir(dest string, entry Entry) error {
	real, err := m.resolver.EnsureSafe(dest)
	if err != nil {
		return err
	}
	if err := os.Chtimes(real, m.now(), entry.ModTime); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	return nil
}

func (m *Materializer) writeFile(dest string, entry Entry) error {
	if err := m.resolver.GuardPath(dest); err != nil {
		return err
	}
	target, err := m.safeParent(dest)
	if err != nil {
		return err
	}
	if err := safepath.EnsureNotSymlink(target); err != nil {
		return err
	}

	mode := entry.Mode.Perm() &^ m.umask
	f, err := platform.CreateFileNoFollow(target, mode)
	if errors.Is(err, fs.ErrPermission) {
		// A read-only file left by an earlier extraction.
		if chmodErr := os.Chmod(target, mode|0o200); chmodErr == nil {
			f, err = platform.CreateFileNoFollow(target, mode)
		}
	}
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := f.Write(entry.Data); err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	// The open mode only applies to new files; overwrites keep the old mode.
	if err := os.Chmod(target, mode); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Chtimes(target, m.now(), entry.ModTime); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	return nil
}

// writeHardLink links dest to linkname, which is relative to the output
// root and must resolve inside it.
func (m *Materializer) writeHardLink(dest, linkname string) error {
	target, err := m.safeParent(dest)
	if err != nil {
		return err
	}
	source, err := m.destination(linkname)
	if err != nil {
		return err
	}
	realSource, err := m.resolver.Confine(source)
	if err != nil {
		return err
	}
	if err := replaceExisting(target); err != nil {
		return err
	}
	if err := os.Link(realSource, target); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	return nil
}

func (m *Materializer) writeSymlink(dest string, entry Entry) error {
	if !platform.SymlinksSupported {
		return m.downgradeSymlink(dest, entry)
	}
	target, err := m.safeParent(dest)
	if err != nil {
		return err
	}
	if err := replaceExisting(target); err != nil {
		return err
	}
	if err := os.Symlink(entry.Linkname, target); err != nil {
		return fmt.Errorf("symlink: %w", err)
	}
	return nil
}

// downgradeSymlink materializes a symlink as a hard link to its target,
// resolved relative to the link's directory.
func (m *Materializer) downgradeSymlink(dest string, entry Entry) error {
	if m.strictSymlinks {
		return entrytype.ErrSymlinkUnsupported
	}
	linkname := filepath.ToSlash(entry.Linkname)
	if path.IsAbs(linkname) || filepath.IsAbs(entry.Linkname) {
		return fmt.Errorf("%w: symlink target %q", entrytype.ErrPathEscape, entry.Linkname)
	}
	m.log().Warn("symlinks unsupported, creating hard link instead",
		"path", entry.Path, "linkname", entry.Linkname)
	return m.writeHardLink(dest, path.Join(path.Dir(entry.Path), linkname))
}

// safeParent ensures the parent of dest exists inside the root and returns
// dest re-rooted onto the parent's real path.
func (m *Materializer) safeParent(dest string) (string, error) {
	parent, err := m.resolver.EnsureSafe(filepath.Dir(dest))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(dest)), nil
}

// replaceExisting removes a non-directory at target so links can be
// re-created when the same archive is extracted twice.
func replaceExisting(target string) error {
	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "link", Path: target, Err: syscall.EEXIST}
	}
	return os.Remove(target)
}
