package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/decompress"
	"github.com/meigma/decompress/format"
)

// commonFlags are shared by extract and list.
type commonFlags struct {
	strip        int
	extended     bool
	maxEntrySize string
	verbose      bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.strip, "strip", 0, "Remove this many leading path segments from every entry")
	cmd.Flags().BoolVar(&f.extended, "extended", false, "Also recognize tar+zstd, tar+xz, and 7z archives")
	cmd.Flags().StringVar(&f.maxEntrySize, "max-entry-size", "", "Reject entries larger than this (e.g. 512MB); empty means no limit")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log each decoder and written entry to stderr")
}

// options translates the flags into extraction options.
func (f *commonFlags) options(stderr io.Writer) ([]decompress.Option, error) {
	if f.strip < 0 {
		return nil, fmt.Errorf("--strip must not be negative, got %d", f.strip)
	}
	opts := []decompress.Option{decompress.WithStrip(f.strip)}

	var formatOpts []format.Option
	if f.maxEntrySize != "" {
		limit, err := humanize.ParseBytes(f.maxEntrySize)
		if err != nil {
			return nil, fmt.Errorf("--max-entry-size: %w", err)
		}
		formatOpts = append(formatOpts, format.WithMaxEntrySize(limit))
	}
	if f.extended {
		opts = append(opts, decompress.WithPlugins(format.Extended(formatOpts...)...))
	} else {
		opts = append(opts, decompress.WithPlugins(format.Defaults(formatOpts...)...))
	}

	if f.verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, decompress.WithLogger(logger))
	}
	return opts, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "decompress",
		Short: "Safely extract zip and tar archives",
		Long: `Extract zip, tar, tar.gz, and tar.bz2 archives without letting any
entry escape the output directory.

Examples:
  decompress extract release.tar.gz ./out
  decompress extract --strip 1 release.zip ./out
  decompress list release.tar.bz2`,
		SilenceUsage: true,
	}
	root.AddCommand(newExtractCmd(), newListCmd())
	return root
}
