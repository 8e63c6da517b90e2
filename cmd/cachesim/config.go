package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/cachesim/cache"
)

// Environment variables that override the default cache parameters.
const (
	envSizeKiB   = "CACHESIM_SIZE_KIB"
	envBlockSize = "CACHESIM_BLOCK_SIZE"
	envAssoc     = "CACHESIM_ASSOC"
	envPolicy    = "CACHESIM_POLICY"
)

// cacheFlags are the cache parameters accepted on the command line.
type cacheFlags struct {
	sizeKiB    int
	blockSize  int
	assoc      int
	policy     string
	configPath string
}

func (f *cacheFlags) register(flags *pflag.FlagSet) {
	def := cache.DefaultConfig()

	flags.IntVarP(&f.sizeKiB, "size-kib", "s", def.SizeKiB, "Cache size in KiB")
	flags.IntVarP(&f.blockSize, "block-size", "b", def.BlockSize, "Block size in bytes")
	flags.IntVarP(&f.assoc, "assoc", "a", def.Associativity, "Number of ways per set")
	flags.StringVarP(&f.policy, "policy", "p", def.Policy.String(),
		"Replacement policy: lru (0) or fifo (1)")
	flags.StringVar(&f.configPath, "config", "", "Path to cache configuration JSON file")
}

// resolve layers the environment, the config file and the flags that were
// set explicitly over the defaults, and validates the result.
func (f *cacheFlags) resolve(flags *pflag.FlagSet) (cache.Config, error) {
	config := cache.DefaultConfig()

	if err := applyEnv(&config); err != nil {
		return cache.Config{}, err
	}

	if f.configPath != "" {
		var err error
		config, err = cache.LoadConfigOver(f.configPath, config)
		if err != nil {
			return cache.Config{}, err
		}
	}

	if flags.Changed("size-kib") {
		config.SizeKiB = f.sizeKiB
	}
	if flags.Changed("block-size") {
		config.BlockSize = f.blockSize
	}
	if flags.Changed("assoc") {
		config.Associativity = f.assoc
	}
	if flags.Changed("policy") {
		policy, err := cache.ParsePolicy(f.policy)
		if err != nil {
			return cache.Config{}, err
		}
		config.Policy = policy
	}

	if err := config.Validate(); err != nil {
		return cache.Config{}, err
	}

	return config, nil
}

func applyEnv(config *cache.Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{envSizeKiB, &config.SizeKiB},
		{envBlockSize, &config.BlockSize},
		{envAssoc, &config.Associativity},
	}

	for _, v := range ints {
		s := strings.TrimSpace(os.Getenv(v.key))
		if s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.dst = n
	}

	if s := os.Getenv(envPolicy); strings.TrimSpace(s) != "" {
		policy, err := cache.ParsePolicy(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envPolicy, err)
		}
		config.Policy = policy
	}

	return nil
}

func newConfigCmd() *cobra.Command {
	var (
		flags cacheFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the resolved cache configuration.",
		Long: "`config` resolves the cache parameters the same way `run` does " +
			"and prints a summary, or writes them as JSON to --out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			if out != "" {
				if err := config.SaveConfig(out); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", config, out)

				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%d sets)\n", config, config.NumSets())

			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the configuration to this JSON file")

	return cmd
}
