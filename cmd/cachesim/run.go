package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/driver"
	"github.com/sarchlab/cachesim/record"
	"github.com/sarchlab/cachesim/reference"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/trace"
)

const crosscheckSamples = 10

type runOptions struct {
	cacheFlags

	view       bool
	record     string
	crosscheck bool
	json       bool
	progress   uint64
}

func newRunCmd() *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Replay a trace and report cache statistics.",
		Long: "`run <trace>` replays a binary trace of 12-byte records. Loads " +
			"and stores go through the cache, every other record is skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	o.register(flags)
	flags.BoolVarP(&o.view, "view", "v", false, "Print every access and its result")
	flags.StringVar(&o.record, "record", "",
		"Record every access into this SQLite file (--record= picks a name)")
	flags.BoolVar(&o.crosscheck, "crosscheck", false,
		"Replay every access on the reference model and fail on disagreement")
	flags.BoolVar(&o.json, "json", false, "Print the report as JSON")
	flags.Uint64Var(&o.progress, "progress", 0,
		"Print running counters to stderr every N accesses")

	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, tracePath string) error {
	config, err := o.resolve(cmd.Flags())
	if err != nil {
		return err
	}

	sim, err := cache.New(config)
	if err != nil {
		return err
	}

	reader, err := trace.Open(tracePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	stderr := log.New(cmd.ErrOrStderr(), "", 0)
	opts := []driver.Option{
		driver.WithLogger(log.New(cmd.OutOrStdout(), "", 0)),
		driver.WithTraceView(o.view),
	}

	var recorder *record.Recorder
	if cmd.Flags().Changed("record") {
		recorder, err = record.New(o.record, tracePath, config)
		if err != nil {
			return err
		}
		defer recorder.Close()

		stderr.Printf("Database created for recording: %s", recorder.Filename())
		opts = append(opts, driver.WithObserver(recorder))
	}

	var checker *reference.Checker
	if o.crosscheck {
		model, err := reference.New(config)
		if err != nil {
			return err
		}

		checker = reference.NewChecker(model, crosscheckSamples)
		opts = append(opts, driver.WithObserver(checker))
	}

	if o.progress > 0 {
		opts = append(opts, driver.WithObserver(&report.Progress{
			W:     cmd.ErrOrStderr(),
			Every: o.progress,
		}))
	}

	d := driver.New(sim, opts...)
	if _, err := d.Run(reader); err != nil {
		return fmt.Errorf("failed to replay %s: %w", tracePath, err)
	}

	summary := report.Summarize(tracePath, d)
	if o.json {
		if err := report.PrintJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else {
		report.PrintText(cmd.OutOrStdout(), summary)
	}

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return err
		}
	}

	if checker != nil {
		for _, m := range checker.Samples() {
			stderr.Print(m)
		}

		if err := checker.Err(); err != nil {
			return err
		}

		stderr.Printf("Crosscheck passed: %d accesses agree with the reference model",
			checker.Checked())
	}

	return nil
}
