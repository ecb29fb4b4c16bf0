// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Segments splits a slash-separated path into its meaningful elements.
//
// Leading, trailing, and repeated slashes are ignored, as are "." elements:
//   - "./a//b/" → ["a", "b"]
//   - "/etc/nginx" → ["etc", "nginx"]
//   - "." → []
//
// ".." elements are preserved so later validation can reject them.
func Segments(p string) []string {
	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// Strip removes the first n segments of p.
//
// It returns "." when p has n or fewer segments, so the caller can drop
// entries that only represented stripped-away directory levels.
func Strip(p string, n int) string {
	segs := Segments(p)
	if n <= 0 {
		if len(segs) == 0 {
			return "."
		}
		return strings.Join(segs, "/")
	}
	if len(segs) <= n {
		return "."
	}
	return strings.Join(segs[n:], "/")
}

// IsLocal reports whether p is lexically confined to the directory it is
// joined to: not absolute, no volume name, no ".." element, no NUL byte.
//
// Backslashes count as separators so archives produced on Windows cannot
// smuggle "..\" past the check.
func IsLocal(p string) bool {
	if p == "" || strings.ContainsRune(p, '\x00') {
		return false
	}
	if filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return false
	}
	normalized := strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(normalized, "/") {
		return false
	}
	for _, part := range strings.Split(normalized, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// Within reports whether path equals dir or lies beneath it.
// Both arguments must be clean absolute paths.
func Within(path, dir string) bool {
	if path == dir {
		return true
	}
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
