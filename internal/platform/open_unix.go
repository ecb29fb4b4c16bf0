//go:build unix

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/meigma/decompress/internal/entrytype"
)

// ErrSymlink is returned when the final path element is a symbolic link.
var ErrSymlink = entrytype.ErrSymlinkWrite

// CreateFileNoFollow opens name for writing, creating or truncating it,
// without following a symlink in the final path element.
// Returns ErrSymlink if the path is a symbolic link.
func CreateFileNoFollow(name string, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|unix.O_NOFOLLOW, perm)
	if err != nil {
		if errors.Is(err, unix.ELOOP) {
			return nil, ErrSymlink
		}
		return nil, err
	}
	return f, nil
}
