//go:build !windows

package platform

// SymlinksSupported reports whether extracted symlinks are created natively.
const SymlinksSupported = true
