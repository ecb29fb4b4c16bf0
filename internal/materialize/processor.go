package materialize

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/decompress/internal/entrytype"
	"github.com/meigma/decompress/internal/platform"
)

// phase orders entries whose materialization depends on other entries.
type phase uint8

const (
	// Symlinks go first so a later write through one is always caught by
	// the guards rather than racing the link's creation. A symlink may sit
	// beneath another, so they are written one at a time in input order.
	phaseSymlinks phase = iota
	phaseDirs
	phaseFiles
	// Hard links need their source on disk, and the source may itself be a
	// hard link, so they are also written in input order.
	phaseHardLinks
	phaseCount
)

func phaseOf(t entrytype.Type) phase {
	switch t {
	case entrytype.TypeSymlink:
		if !platform.SymlinksSupported {
			// Downgraded to a hard link, which needs its target on disk.
			return phaseHardLinks
		}
		return phaseSymlinks
	case entrytype.TypeDirectory:
		return phaseDirs
	case entrytype.TypeLink:
		return phaseHardLinks
	default:
		return phaseFiles
	}
}

// serial reports whether entries in the phase must be written in order.
func (ph phase) serial() bool {
	return ph == phaseSymlinks || ph == phaseHardLinks
}

// Processor materializes a batch of entries concurrently.
type Processor struct {
	workers  int // 0 = auto, <0 = serial, >0 = fixed count
	progress entrytype.ProgressFunc
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of concurrent writers.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
// Values > 0 force a specific worker count.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithProgress sets a callback invoked after each entry is written.
// The callback may be called concurrently.
func WithProgress(fn entrytype.ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// NewProcessor creates a new batch processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process materializes entries and returns the result records in input order.
// The output root is created even when there is nothing to write.
//
// Processing stops at the first error, which is returned as is. Entries
// already written are left in place.
func (p *Processor) Process(ctx context.Context, entries []Entry, m *Materializer) ([]Entry, error) {
	if _, err := m.resolver.RealRoot(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []Entry{}, nil
	}

	var phases [phaseCount][]int
	for i, entry := range entries {
		ph := phaseOf(entry.Type)
		phases[ph] = append(phases[ph], i)
	}

	var bytesTotal uint64
	for _, entry := range entries {
		bytesTotal += uint64(entry.Size()) //nolint:gosec // sizes are non-negative
	}
	var entriesDone, bytesDone atomic.Uint64

	results := make([]Entry, len(entries))
	for ph, indices := range phases {
		if len(indices) == 0 {
			continue
		}
		limit := p.workerCount(len(indices))
		if phase(ph).serial() {
			limit = 1
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for _, i := range indices {
			g.Go(func() error {
				out, err := m.Materialize(gctx, entries[i])
				if err != nil {
					return err
				}
				results[i] = out
				p.reportProgress(out.Path,
					bytesDone.Add(uint64(out.Size())), bytesTotal, //nolint:gosec // sizes are non-negative
					int(entriesDone.Add(1)), len(entries)) //nolint:gosec // bounded by len(entries)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for _, i := range phases[phaseDirs] {
		if err := m.RestoreDirTime(entries[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// reportProgress sends a progress event if a callback is configured.
func (p *Processor) reportProgress(path string, bytesDone, bytesTotal uint64, entriesDone, entriesTotal int) {
	if p.progress == nil {
		return
	}
	p.progress(entrytype.ProgressEvent{
		Stage:        entrytype.StageExtracting,
		Path:         path,
		BytesDone:    bytesDone,
		BytesTotal:   bytesTotal,
		EntriesDone:  entriesDone,
		EntriesTotal: entriesTotal,
	})
}

// workerCount determines the number of workers to use for n entries.
func (p *Processor) workerCount(n int) int {
	if p.workers < 0 || n < 2 {
		return 1
	}
	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		return 1
	}
	return workers
}
