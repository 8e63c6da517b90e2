package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/sweep"
	"github.com/sarchlab/cachesim/trace"
)

type sweepOptions struct {
	sizes       []int
	blocks      []int
	assocs      []int
	policies    []string
	format      string
	parallelism int
}

func newSweepCmd() *cobra.Command {
	o := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep <trace>",
		Short: "Replay a trace on every combination of cache parameters.",
		Long: "`sweep <trace>` loads the trace once and replays it on the cross " +
			"product of the given sizes, block sizes, associativities and " +
			"policies. Invalid combinations are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&o.sizes, "sizes", []int{1, 2, 4, 8, 16, 32, 64}, "Cache sizes in KiB")
	flags.IntSliceVar(&o.blocks, "blocks", []int{16, 32, 64, 128}, "Block sizes in bytes")
	flags.IntSliceVar(&o.assocs, "assocs", []int{1, 2, 4, 8}, "Associativities")
	flags.StringSliceVar(&o.policies, "policies", []string{"lru", "fifo"}, "Replacement policies")
	flags.StringVarP(&o.format, "format", "f", "text", "Output format: text, csv or json")
	flags.IntVarP(&o.parallelism, "parallel", "j", 0,
		"Number of concurrent replays (default: GOMAXPROCS)")

	return cmd
}

func (o *sweepOptions) run(cmd *cobra.Command, tracePath string) error {
	switch o.format {
	case "text", "csv", "json":
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}

	policies := make([]cache.Policy, 0, len(o.policies))
	for _, s := range o.policies {
		p, err := cache.ParsePolicy(s)
		if err != nil {
			return err
		}
		policies = append(policies, p)
	}

	configs := sweep.CrossProduct(o.sizes, o.blocks, o.assocs, policies)
	if len(configs) == 0 {
		return errors.New("no valid cache configuration in the sweep")
	}

	items, err := trace.ReadAll(tracePath)
	if err != nil {
		return err
	}

	harness := sweep.NewHarness(sweep.HarnessConfig{
		Parallelism: o.parallelism,
		Output:      cmd.OutOrStdout(),
	})
	harness.AddConfigs(configs)

	results, err := harness.RunAll(context.Background(), items)
	if err != nil {
		return err
	}

	switch o.format {
	case "csv":
		harness.PrintCSV(results)
	case "json":
		return harness.PrintJSON(results)
	default:
		harness.PrintResults(results)
	}

	return nil
}
