// Package sweep replays one trace against many cache configurations.
package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/driver"
	"github.com/sarchlab/cachesim/trace"
)

// Result holds the outcome of replaying the trace on one configuration.
type Result struct {
	// Config is the simulated cache
	Config cache.Config `json:"config"`

	// Sets is the number of sets of the cache
	Sets int `json:"sets"`

	// Stats are the end-of-run counters
	Stats cache.Statistics `json:"stats"`

	// HitRate is hits over accesses
	HitRate float64 `json:"hit_rate"`

	// WallTime is the actual time taken to replay the trace
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the sweep harness.
type HarnessConfig struct {
	// Parallelism bounds the number of concurrent replays (default: GOMAXPROCS)
	Parallelism int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Parallelism: runtime.GOMAXPROCS(0),
		Output:      os.Stdout,
	}
}

// Harness replays a trace on a list of configurations.
type Harness struct {
	config  HarnessConfig
	configs []cache.Config
}

// NewHarness creates a new sweep harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Parallelism <= 0 {
		config.Parallelism = runtime.GOMAXPROCS(0)
	}

	return &Harness{config: config}
}

// AddConfig adds a cache configuration to the sweep.
func (h *Harness) AddConfig(c cache.Config) {
	h.configs = append(h.configs, c)
}

// AddConfigs adds multiple cache configurations to the sweep.
func (h *Harness) AddConfigs(configs []cache.Config) {
	h.configs = append(h.configs, configs...)
}

// Configs returns the configurations of the sweep.
func (h *Harness) Configs() []cache.Config {
	return h.configs
}

// RunAll replays items on every configuration. Each replay owns its own
// simulator, so replays run in parallel. Results are returned in the order
// the configurations were added. An invalid configuration fails the whole
// sweep.
func (h *Harness) RunAll(ctx context.Context, items []trace.Item) ([]Result, error) {
	results := make([]Result, len(h.configs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Parallelism)

	for i, c := range h.configs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := runOne(c, items)
			if err != nil {
				return fmt.Errorf("config %d (%s): %w", i, c, err)
			}

			results[i] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func runOne(c cache.Config, items []trace.Item) (Result, error) {
	sim, err := cache.New(c)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	stats, err := driver.New(sim).Run(trace.NewSliceSource(items))
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   c,
		Sets:     c.NumSets(),
		Stats:    stats,
		HitRate:  stats.HitRate(),
		WallTime: time.Since(start),
	}, nil
}

// PrintResults outputs sweep results in a human-readable table.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Cache Sweep Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")
	_, _ = fmt.Fprintf(h.config.Output, "%-22s %6s %10s %10s %10s %10s %8s\n",
		"config", "sets", "accesses", "hits", "misses", "writeback", "hit%")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%-22s %6d %10d %10d %10d %10d %7.2f%%\n",
			r.Config, r.Sets, r.Stats.Accesses, r.Stats.Hits,
			r.Stats.Misses, r.Stats.MissesWithWriteback, 100*r.HitRate)
	}
}

// PrintCSV outputs sweep results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"size_kib,block_size,associativity,policy,sets,accesses,reads,writes,hits,misses,misses_with_writeback,hit_rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%d,%d,%d,%s,%d,%d,%d,%d,%d,%d,%d,%.4f\n",
			r.Config.SizeKiB,
			r.Config.BlockSize,
			r.Config.Associativity,
			r.Config.Policy,
			r.Sets,
			r.Stats.Accesses,
			r.Stats.Reads,
			r.Stats.Writes,
			r.Stats.Hits,
			r.Stats.Misses,
			r.Stats.MissesWithWriteback,
			r.HitRate,
		)
	}
}

// PrintJSON outputs sweep results as an indented JSON array.
func (h *Harness) PrintJSON(results []Result) error {
	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")

	return encoder.Encode(results)
}

// CrossProduct returns every combination of the given dimensions, sizes
// varying slowest and policies fastest. Combinations that fail validation
// are skipped.
func CrossProduct(
	sizesKiB, blockSizes, associativities []int,
	policies []cache.Policy,
) []cache.Config {
	configs := []cache.Config{}

	for _, size := range sizesKiB {
		for _, block := range blockSizes {
			for _, assoc := range associativities {
				for _, policy := range policies {
					c := cache.Config{
						SizeKiB:       size,
						BlockSize:     block,
						Associativity: assoc,
						Policy:        policy,
					}
					if c.Validate() != nil {
						continue
					}

					configs = append(configs, c)
				}
			}
		}
	}

	return configs
}
