package safepath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/pathutil"
)

// maxLinkHops bounds the dangling symlinks followed while creating one
// directory, matching the kernel's ELOOP limit.
const maxLinkHops = 40

// Resolver creates directory chains beneath an output root without
// following symlinks out of it.
//
// A Resolver is safe for concurrent use. Concurrent resolutions of the same
// directory are collapsed into one; results are never cached across calls.
type Resolver struct {
	root  string
	group singleflight.Group
}

// NewResolver returns a Resolver for the output root. The root is made
// absolute but is not required to exist yet.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute output root.
func (r *Resolver) Root() string {
	return r.root
}

// RealRoot creates the output root if needed and returns its real path.
//
// The real path is recomputed on every call so each entry is checked
// against the current state of the filesystem.
func (r *Resolver) RealRoot() (string, error) {
	if err := os.MkdirAll(r.root, dirPerm); err != nil {
		return "", fmt.Errorf("create output root: %w", err)
	}
	return realPath(r.root)
}

// EnsureSafe creates dir and any missing ancestors, and returns the real
// path of dir. It fails with ErrPathEscape if dir, or the ancestor it would
// be created in, resolves outside the output root.
//
// Ancestors are created first and each one is verified before anything is
// created inside it, so an escaping symlink cannot hide several levels down.
func (r *Resolver) EnsureSafe(dir string) (string, error) {
	realRoot, err := r.RealRoot()
	if err != nil {
		return "", err
	}
	return r.ensureSafe(filepath.Clean(dir), realRoot)
}

func (r *Resolver) ensureSafe(dir, realRoot string) (string, error) {
	v, err, _ := r.group.Do(dir, func() (any, error) {
		return r.resolve(dir, realRoot)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil //nolint:forcetypeassert // resolve only returns strings
}

func (r *Resolver) resolve(dir, realRoot string) (string, error) {
	real, err := realPath(dir)
	if err == nil {
		if !pathutil.Within(real, realRoot) {
			return "", escapeError(dir, real)
		}
		return real, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		// Reached the filesystem root without finding an existing ancestor.
		return "", err
	}
	realParent, err := r.ensureSafe(parent, realRoot)
	if err != nil {
		return "", err
	}
	return r.createChild(dir, realParent, realRoot, 0)
}

// walk is resolve without request collapsing. It creates the target of a
// dangling symlink, whose path may overlap a resolution already in flight.
// hops counts the dangling symlinks followed so far.
func (r *Resolver) walk(dir, realRoot string, hops int) (string, error) {
	real, err := realPath(dir)
	if err == nil {
		if !pathutil.Within(real, realRoot) {
			return "", escapeError(dir, real)
		}
		return real, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", err
	}
	realParent, err := r.walk(parent, realRoot, hops)
	if err != nil {
		return "", err
	}
	return r.createChild(dir, realParent, realRoot, hops)
}

// createChild creates dir inside its verified parent. A dangling symlink at
// dir is followed: its target is created when it lies inside the root.
func (r *Resolver) createChild(dir, realParent, realRoot string, hops int) (string, error) {
	if !pathutil.Within(realParent, realRoot) {
		return "", escapeError(filepath.Dir(dir), realParent)
	}

	target, dangling, err := danglingTarget(dir, realParent)
	if err != nil {
		return "", err
	}
	if dangling {
		if hops >= maxLinkHops {
			return "", &fs.PathError{Op: "mkdir", Path: dir, Err: syscall.ELOOP}
		}
		if !pathutil.Within(target, realRoot) {
			return "", escapeError(dir, target)
		}
		if _, err := r.walk(target, realRoot, hops+1); err != nil {
			return "", err
		}
	} else if _, err := CreateOrConfirm(dir); err != nil {
		return "", err
	}

	real, err := realPath(dir)
	if err != nil {
		return "", err
	}
	if !pathutil.Within(real, realRoot) {
		return "", escapeError(dir, real)
	}
	return real, nil
}

// danglingTarget reports where the symlink at path points when path is a
// symlink. Relative targets are joined onto realParent lexically.
func danglingTarget(path, realParent string) (string, bool, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return "", false, nil
	}
	link, err := os.Readlink(path)
	if err != nil {
		return "", false, err
	}
	if filepath.IsAbs(link) {
		return filepath.Clean(link), true, nil
	}
	return filepath.Join(realParent, link), true, nil
}

// GuardPath refuses a file write at dest when any existing component
// between the output root and dest is a symlink resolving outside the root,
// or when dest itself is a symlink.
//
// Symlinks that stay inside the root are allowed as ancestors; EnsureSafe
// still verifies the parent before the write.
func (r *Resolver) GuardPath(dest string) error {
	realRoot, err := r.RealRoot()
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(r.root, filepath.Clean(dest))
	if err != nil {
		return err
	}
	current := r.root
	for _, elem := range pathutil.Segments(filepath.ToSlash(filepath.Dir(rel))) {
		current = filepath.Join(current, elem)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			continue
		}
		real, err := realPath(current)
		if errors.Is(err, fs.ErrNotExist) {
			// Dangling: EnsureSafe creates the target when it stays inside.
			if r.danglingWithin(current, realRoot) {
				break
			}
			return fmt.Errorf("%w: %s", entrytype.ErrSymlinkWrite, current)
		}
		if err != nil || !pathutil.Within(real, realRoot) {
			return fmt.Errorf("%w: %s", entrytype.ErrSymlinkWrite, current)
		}
	}
	return EnsureNotSymlink(dest)
}

func (r *Resolver) danglingWithin(link, realRoot string) bool {
	realParent, err := realPath(filepath.Dir(link))
	if err != nil {
		return false
	}
	target, dangling, err := danglingTarget(link, realParent)
	return err == nil && dangling && pathutil.Within(target, realRoot)
}

// EnsureNotSymlink fails with ErrSymlinkWrite if dest exists as a symlink.
// A missing dest is fine.
func EnsureNotSymlink(dest string) error {
	info, err := os.Lstat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s", entrytype.ErrSymlinkWrite, dest)
	}
	return nil
}

// Confine resolves an existing path through its symlinks and returns the
// real path, failing with ErrPathEscape if it lies outside the output root.
// It creates nothing.
func (r *Resolver) Confine(path string) (string, error) {
	realRoot, err := r.RealRoot()
	if err != nil {
		return "", err
	}
	real, err := realPath(path)
	if err != nil {
		return "", err
	}
	if !pathutil.Within(real, realRoot) {
		return "", escapeError(path, real)
	}
	return real, nil
}

func realPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func escapeError(dir, real string) error {
	if dir == real {
		return fmt.Errorf("%w: %s", entrytype.ErrPathEscape, dir)
	}
	return fmt.Errorf("%w: %s resolves to %s", entrytype.ErrPathEscape, dir, real)
}
