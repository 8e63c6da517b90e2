// Package report formats the results of a trace replay.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/driver"
)

// Summary is the end-of-run result of one replay.
type Summary struct {
	Trace          string           `json:"trace"`
	Config         cache.Config     `json:"config"`
	Sets           int              `json:"sets"`
	Stats          cache.Statistics `json:"stats"`
	HitRate        float64          `json:"hit_rate"`
	MissRate       float64          `json:"miss_rate"`
	Records        uint64           `json:"records"`
	Ignored        uint64           `json:"ignored_records"`
	ResidentBlocks int              `json:"resident_blocks"`
	DirtyBlocks    int              `json:"dirty_blocks"`
}

// Summarize collects the summary of a finished driver.
func Summarize(tracePath string, d *driver.Driver) Summary {
	sim := d.Simulator()
	stats := d.Stats()

	return Summary{
		Trace:          tracePath,
		Config:         sim.Config(),
		Sets:           sim.Config().NumSets(),
		Stats:          stats,
		HitRate:        stats.HitRate(),
		MissRate:       stats.MissRate(),
		Records:        d.Records(),
		Ignored:        d.Ignored(),
		ResidentBlocks: sim.ResidentBlocks(),
		DirtyBlocks:    sim.DirtyBlocks(),
	}
}

// PrintCounters writes the end-of-run counters, one per line.
func PrintCounters(w io.Writer, stats cache.Statistics) {
	_, _ = fmt.Fprintf(w, "+ number of accesses : %d\n", stats.Accesses)
	_, _ = fmt.Fprintf(w, "+ number of reads : %d\n", stats.Reads)
	_, _ = fmt.Fprintf(w, "+ number of writes : %d\n", stats.Writes)
	_, _ = fmt.Fprintf(w, "+ number of hits : %d\n", stats.Hits)
	_, _ = fmt.Fprintf(w, "+ number of misses : %d\n", stats.Misses)
	_, _ = fmt.Fprintf(w, "+ number of misses with write back : %d\n", stats.MissesWithWriteback)
}

// PrintText writes a human-readable report.
func PrintText(w io.Writer, s Summary) {
	_, _ = fmt.Fprintf(w, "Trace: %s\n", s.Trace)
	_, _ = fmt.Fprintf(w, "Cache: %s (%d sets)\n", s.Config, s.Sets)
	_, _ = fmt.Fprintf(w, "Records: %d (%d ignored)\n", s.Records, s.Ignored)
	_, _ = fmt.Fprintln(w, "")
	PrintCounters(w, s.Stats)
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintf(w, "Hit rate:  %6.2f%%\n", 100*s.HitRate)
	_, _ = fmt.Fprintf(w, "Miss rate: %6.2f%%\n", 100*s.MissRate)
	_, _ = fmt.Fprintf(w, "Resident blocks: %d (%d dirty)\n", s.ResidentBlocks, s.DirtyBlocks)
}

// PrintJSON writes the summary as indented JSON.
func PrintJSON(w io.Writer, s Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(s)
}

// Progress is an observer that prints the running counters every Every
// accesses and the final counters at the end of the run.
type Progress struct {
	W     io.Writer
	Every uint64

	stats cache.Statistics
}

// OnAccess implements driver.Observer.
func (p *Progress) OnAccess(ev driver.Event) {
	p.stats.Record(ev.Kind, ev.Outcome.Result)

	if p.Every > 0 && p.stats.Accesses%p.Every == 0 {
		_, _ = fmt.Fprintf(p.W, "[%d] hits=%d misses=%d writebacks=%d\n",
			ev.Sequence, p.stats.Hits, p.stats.Misses, p.stats.MissesWithWriteback)
	}
}

// OnFinish implements driver.Observer.
func (p *Progress) OnFinish(stats cache.Statistics) {
	PrintCounters(p.W, stats)
}
