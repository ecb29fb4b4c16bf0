//go:build !unix

package platform

import (
	"errors"
	"io/fs"
	"os"

	"github.com/meigma/decompress/internal/entrytype"
)

// ErrSymlink is returned when the final path element is a symbolic link.
var ErrSymlink = entrytype.ErrSymlinkWrite

// CreateFileNoFollow opens name for writing, creating or truncating it.
// Returns ErrSymlink if the path is a symbolic link.
func CreateFileNoFollow(name string, perm os.FileMode) (*os.File, error) {
	info, err := os.Lstat(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil && info.Mode()&fs.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}
