package reference

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/driver"
)

// Mismatch records an access on which the simulator and the model
// disagreed.
type Mismatch struct {
	Sequence uint64
	Address  uint64
	Kind     cache.Kind
	Got      cache.Result
	Want     cache.Result
}

func (m Mismatch) String() string {
	return fmt.Sprintf("access %d (%s 0x%x): simulator=%s reference=%s",
		m.Sequence, m.Kind, m.Address, m.Got, m.Want)
}

// Checker replays every observed access on a Model and compares results.
type Checker struct {
	model      *Model
	keep       int
	checked    uint64
	mismatches uint64
	first      []Mismatch
	finished   bool
	final      cache.Statistics
}

// NewChecker creates a checker that keeps up to keep mismatches for
// reporting.
func NewChecker(model *Model, keep int) *Checker {
	return &Checker{model: model, keep: keep}
}

// OnAccess implements driver.Observer.
func (c *Checker) OnAccess(ev driver.Event) {
	want := c.model.Access(ev.Address, ev.Kind)
	c.checked++

	if want == ev.Outcome.Result {
		return
	}

	c.mismatches++
	if len(c.first) < c.keep {
		c.first = append(c.first, Mismatch{
			Sequence: ev.Sequence,
			Address:  ev.Address,
			Kind:     ev.Kind,
			Got:      ev.Outcome.Result,
			Want:     want,
		})
	}
}

// OnFinish implements driver.Observer.
func (c *Checker) OnFinish(stats cache.Statistics) {
	c.finished = true
	c.final = stats
}

// Checked returns the number of compared accesses.
func (c *Checker) Checked() uint64 {
	return c.checked
}

// Mismatches returns the number of accesses that disagreed.
func (c *Checker) Mismatches() uint64 {
	return c.mismatches
}

// Samples returns the first recorded mismatches.
func (c *Checker) Samples() []Mismatch {
	return c.first
}

// Err summarizes the comparison. It is nil when both models agreed on
// every access and on the final counters.
func (c *Checker) Err() error {
	if c.mismatches > 0 {
		msg := fmt.Sprintf("%d of %d accesses disagree with the reference model",
			c.mismatches, c.checked)
		if len(c.first) > 0 {
			msg += "; first: " + c.first[0].String()
		}

		return errors.New(msg)
	}

	if c.finished && c.final != c.model.Stats() {
		return fmt.Errorf("final counters disagree: simulator=%+v reference=%+v",
			c.final, c.model.Stats())
	}

	return nil
}
