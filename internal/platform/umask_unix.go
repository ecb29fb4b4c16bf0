//go:build unix

package platform

import (
	"bufio"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

var umaskMu sync.Mutex

// Umask returns the process file mode creation mask.
//
// On Linux the mask is read from /proc/self/status, which leaves it untouched.
// Elsewhere it is read by setting and immediately restoring it.
func Umask() fs.FileMode {
	if mask, ok := procUmask(); ok {
		return mask
	}
	umaskMu.Lock()
	defer umaskMu.Unlock()
	old := unix.Umask(0)
	unix.Umask(old)
	return fs.FileMode(old) //nolint:gosec // umask is at most 0o777
}

func procUmask() (fs.FileMode, bool) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		value, found := strings.CutPrefix(scanner.Text(), "Umask:")
		if !found {
			continue
		}
		mask, err := strconv.ParseUint(strings.TrimSpace(value), 8, 32)
		if err != nil {
			return 0, false
		}
		return fs.FileMode(mask), true
	}
	return 0, false
}
