package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/trace"
	"github.com/sarchlab/cachesim/workload"
)

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <workload> <out>",
		Short: "Write a synthetic trace file.",
		Long: "`gen <workload> <out>` writes one of the built-in workloads as a " +
			"binary trace. Available workloads: " +
			strings.Join(workload.Names(), ", ") + ".",
		Args:      cobra.ExactArgs(2),
		ValidArgs: workload.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, ok := workload.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown workload %q (available: %s)",
					args[0], strings.Join(workload.Names(), ", "))
			}

			items := w.Generate()
			if err := trace.WriteFile(args[1], items); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records (%s) to %s\n",
				len(items), w.Description, args[1])

			return nil
		},
	}

	return cmd
}
