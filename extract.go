package decompress

import (
	"context"
	"fmt"
	"os"

	"github.com/meigma/decompress/internal/materialize"
	"github.com/meigma/decompress/internal/transform"
)

// Extract decodes input and writes the resulting entries beneath output.
//
// Input is either a path to an archive file (string) or the archive itself
// ([]byte); anything else fails with ErrInvalidInput. When output is empty
// nothing is written and the transformed entries are returned, as with
// [List].
//
// The returned entries are the ones written, in decoded order. On error,
// entries written before the failure stay on disk.
func Extract(ctx context.Context, input any, output string, opts ...Option) ([]Entry, error) {
	cfg := newExtractConfig(opts)

	entries, err := decode(ctx, input, cfg)
	if err != nil {
		return nil, err
	}
	entries, err = transform.Apply(entries, transform.Config{
		Strip:  cfg.strip,
		Filter: cfg.filter,
		Map:    cfg.mapper,
	})
	if err != nil {
		return nil, err
	}
	if output == "" {
		return entries, nil
	}

	m, err := materialize.New(output,
		materialize.WithLogger(cfg.logger),
		materialize.WithStrictSymlinks(cfg.strictSymlinks),
	)
	if err != nil {
		return nil, err
	}
	cfg.log().Debug("extracting", "output", m.Root(), "entries", len(entries))

	proc := materialize.NewProcessor(
		materialize.WithWorkers(cfg.workers),
		materialize.WithProgress(cfg.progress),
	)
	written, err := proc.Process(ctx, entries, m)
	if err != nil {
		return nil, fmt.Errorf("extract to %s: %w", output, err)
	}
	return written, nil
}

// List decodes input and applies the strip, filter, and map options without
// writing anything.
func List(ctx context.Context, input any, opts ...Option) ([]Entry, error) {
	return Extract(ctx, input, "", opts...)
}

// decode reads input and offers it to each decoder in turn.
func decode(ctx context.Context, input any, cfg *extractConfig) ([]Entry, error) {
	data, err := readInput(input)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for _, d := range cfg.decoders() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decoded, err := d.Decode(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name(), err)
		}
		cfg.log().Debug("decoder finished", "decoder", d.Name(), "entries", len(decoded))
		entries = append(entries, decoded...)
		cfg.reportProgress(ProgressEvent{
			Stage:       StageDecoding,
			Path:        d.Name(),
			BytesDone:   uint64(len(data)),
			BytesTotal:  uint64(len(data)),
			EntriesDone: len(entries),
		})
	}
	return entries, nil
}

func readInput(input any) ([]byte, error) {
	switch v := input.(type) {
	case string:
		data, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return data, nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidInput, input)
	}
}
