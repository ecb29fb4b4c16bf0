package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/decompress"
)

func newListCmd() *cobra.Command {
	var (
		flags   commonFlags
		digests bool
	)
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List the entries an extraction would write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			entries, err := decompress.List(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s", e.Type, e.Mode.Perm(), humanize.Bytes(uint64(e.Size())), e.Path) //nolint:gosec // sizes are non-negative
				if e.Linkname != "" {
					fmt.Fprintf(w, " -> %s", e.Linkname)
				}
				if digests && e.Type == decompress.TypeFile {
					fmt.Fprintf(w, "\t%s", e.Digest())
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&digests, "digest", false, "Print the sha256 digest of each file")
	return cmd
}
