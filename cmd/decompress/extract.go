package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/decompress"
)

func newExtractCmd() *cobra.Command {
	var (
		flags          commonFlags
		workers        int
		strictSymlinks bool
		quiet          bool
		progress       bool
	)
	cmd := &cobra.Command{
		Use:   "extract <archive> <output-dir>",
		Short: "Extract an archive into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts = append(opts,
				decompress.WithWorkers(workers),
				decompress.WithStrictSymlinks(strictSymlinks),
			)
			if progress {
				opts = append(opts, decompress.WithProgress(progressPrinter(cmd.ErrOrStderr())))
			}

			entries, err := decompress.Extract(cmd.Context(), args[0], args[1], opts...)
			if err != nil {
				return err
			}
			if progress {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "extracted %d entries to %s\n", len(entries), args[1])
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent writers; 0 uses GOMAXPROCS, negative writes serially")
	cmd.Flags().BoolVar(&strictSymlinks, "strict-symlinks", false, "Fail instead of hard-linking symlinks on platforms without symlink support")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing on success")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show write progress on stderr")
	return cmd
}

// progressPrinter rewrites a single status line as entries are written.
func progressPrinter(w io.Writer) decompress.ProgressFunc {
	var mu sync.Mutex
	return func(ev decompress.ProgressEvent) {
		if ev.Stage != decompress.StageExtracting {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\rextracting %d/%d entries, %s of %s",
			ev.EntriesDone, ev.EntriesTotal,
			humanize.Bytes(ev.BytesDone), humanize.Bytes(ev.BytesTotal))
	}
}
