//go:build windows

package platform

// SymlinksSupported reports whether extracted symlinks are created natively.
// Creating symlinks on Windows needs elevated privileges, so they are
// materialized as hard links instead.
const SymlinksSupported = false
