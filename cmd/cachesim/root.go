package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// newRootCmd builds the base command when called without any subcommands.
func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "cachesim",
		Short: "cachesim replays memory traces through a set-associative cache.",
		Long: `cachesim replays memory traces through a set-associative cache ` +
			`model with LRU or FIFO replacement and a write-back, ` +
			`write-allocate policy. Cache parameters come from the defaults, ` +
			`CACHESIM_* environment variables (optionally set in a .env file), ` +
			`a JSON config file and command-line flags, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"File with CACHESIM_* variables to load if it exists")

	root.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newGenCmd(),
		newConfigCmd(),
	)

	return root
}

// execute runs the command line and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// loadEnvFile loads path into the environment. Variables that are already
// set win over the file. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}
