// Package driver replays a trace through a cache simulator and keeps the
// running statistics.
package driver

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

// A Source produces trace records in order. Next returns io.EOF after the
// last record.
type Source interface {
	Next() (trace.Item, error)
}

// Event describes one processed access.
type Event struct {
	Sequence uint64
	Item     trace.Item
	Kind     cache.Kind
	Address  uint64
	Outcome  cache.Outcome
}

// An Observer is notified of every access and of the end of a run.
type Observer interface {
	OnAccess(ev Event)
	OnFinish(stats cache.Statistics)
}

// Option configures a Driver.
type Option func(*Driver)

// WithObserver adds an observer. Observers are notified in the order they
// were added.
func WithObserver(o Observer) Option {
	return func(d *Driver) {
		d.observers = append(d.observers, o)
	}
}

// WithLogger sets the logger used for the trace view.
func WithLogger(logger *log.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithTraceView logs every access as it is processed.
func WithTraceView(on bool) Option {
	return func(d *Driver) {
		d.traceView = on
	}
}

// Driver feeds records from a Source into a Simulator.
//
// The driver owns the logical clock: the first access gets sequence 1 and
// each following load or store gets the next value. Records that are not
// loads or stores are skipped and do not advance the clock.
type Driver struct {
	sim       *cache.Simulator
	observers []Observer
	logger    *log.Logger
	traceView bool

	sequence uint64
	records  uint64
	ignored  uint64
	stats    cache.Statistics
}

// New creates a driver around sim.
func New(sim *cache.Simulator, opts ...Option) *Driver {
	d := &Driver{sim: sim}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = log.New(os.Stdout, "", 0)
	}

	return d
}

// Simulator returns the driven simulator.
func (d *Driver) Simulator() *cache.Simulator {
	return d.sim
}

// Stats returns the counters accumulated so far.
func (d *Driver) Stats() cache.Statistics {
	return d.stats
}

// Sequence returns the logical time of the last processed access.
func (d *Driver) Sequence() uint64 {
	return d.sequence
}

// Records returns the number of records read, including ignored ones.
func (d *Driver) Records() uint64 {
	return d.records
}

// Ignored returns the number of records that were not loads or stores.
func (d *Driver) Ignored() uint64 {
	return d.ignored
}

// Step reads and processes one record. It returns false once the source is
// exhausted.
func (d *Driver) Step(src Source) (bool, error) {
	item, err := src.Next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read trace record %d: %w", d.records, err)
	}

	d.records++

	kind, ok := item.AccessKind()
	if !ok {
		d.ignored++
		return true, nil
	}

	d.sequence++
	req := cache.Request{
		Address:  uint64(item.Addr),
		Kind:     kind,
		Sequence: d.sequence,
	}

	outcome := d.sim.AccessDetail(req)
	d.stats.Record(kind, outcome.Result)

	if d.traceView {
		d.logger.Printf("%s %x %s", kind, item.Addr, outcome.Result)
	}

	ev := Event{
		Sequence: d.sequence,
		Item:     item,
		Kind:     kind,
		Address:  req.Address,
		Outcome:  outcome,
	}
	for _, o := range d.observers {
		o.OnAccess(ev)
	}

	return true, nil
}

// Run processes records until the source is exhausted. Observers are told
// that the run finished even when it stops on a read error.
func (d *Driver) Run(src Source) (cache.Statistics, error) {
	var err error

	for {
		var more bool
		more, err = d.Step(src)
		if !more || err != nil {
			break
		}
	}

	for _, o := range d.observers {
		o.OnFinish(d.stats)
	}

	return d.stats, err
}
