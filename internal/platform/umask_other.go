//go:build !unix

package platform

import "io/fs"

// Umask returns zero on systems without a file mode creation mask.
func Umask() fs.FileMode {
	return 0
}
