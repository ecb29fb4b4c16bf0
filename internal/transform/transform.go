// Package transform rewrites the decoded entry sequence before it is
// materialized: leading directories are stripped, then entries are
// filtered, then mapped.
//
// Nothing here makes entries safe. Map may rewrite paths arbitrarily, so
// containment is enforced only when entries are written.
package transform

import (
	"fmt"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/pathutil"
)

// Entry is an alias for entrytype.Entry.
type Entry = entrytype.Entry

// Config holds the transforms to apply. The zero value passes entries
// through unchanged.
type Config struct {
	// Strip is the number of leading path segments to remove.
	Strip int
	// Filter excludes entries for which it returns false.
	Filter func(Entry) bool
	// Map rewrites each surviving entry. An error aborts Apply.
	Map func(Entry) (Entry, error)
}

// Apply runs strip, filter, and map over entries, in that order.
//
// Filter sees stripped paths, and Map sees only the entries that survived.
// The input slice is not modified.
func Apply(entries []Entry, cfg Config) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if cfg.Strip > 0 {
			entry.Path = pathutil.Strip(entry.Path, cfg.Strip)
			if entry.Path == "." {
				continue
			}
			if entry.Type == entrytype.TypeLink {
				// Hard link targets name other members, so they lose the
				// same leading segments.
				entry.Linkname = pathutil.Strip(entry.Linkname, cfg.Strip)
			}
		}
		if cfg.Filter != nil && !cfg.Filter(entry) {
			continue
		}
		out = append(out, entry)
	}

	if cfg.Map == nil {
		return out, nil
	}
	for i := range out {
		mapped, err := cfg.Map(out[i])
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", out[i].Path, err)
		}
		out[i] = mapped
	}
	return out, nil
}
