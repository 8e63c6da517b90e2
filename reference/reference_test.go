package reference_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/driver"
	"github.com/sarchlab/cachesim/reference"
	"github.com/sarchlab/cachesim/trace"
	"github.com/sarchlab/cachesim/workload"
)

var _ = Describe("Model", func() {
	var model *reference.Model

	BeforeEach(func() {
		var err error
		// 1 KiB, 2-way, 64 B: 8 sets, set 0 stride 0x200.
		model, err = reference.New(cache.Config{
			SizeKiB: 1, BlockSize: 64, Associativity: 2, Policy: cache.LRU,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should refuse an invalid configuration", func() {
		_, err := reference.New(cache.Config{SizeKiB: 1, BlockSize: 48, Associativity: 1})
		Expect(err).To(MatchError(cache.ErrInvalidConfig))
	})

	It("should miss then hit", func() {
		Expect(model.Access(0x40, cache.Load)).To(Equal(cache.MissClean))
		Expect(model.Access(0x44, cache.Load)).To(Equal(cache.Hit))
		Expect(model.Contains(0x7F)).To(BeTrue())
	})

	It("should write back a dirty victim", func() {
		model.Access(0x000, cache.Store)
		model.Access(0x200, cache.Load)

		Expect(model.DirtyBlocks()).To(Equal(1))
		Expect(model.Access(0x400, cache.Load)).To(Equal(cache.MissDirtyWriteback))
		Expect(model.Contains(0x000)).To(BeFalse())
		Expect(model.Stats().MissesWithWriteback).To(Equal(uint64(1)))
	})

	It("should diverge between LRU and FIFO on a re-touched block", func() {
		fifo, err := reference.New(cache.Config{
			SizeKiB: 1, BlockSize: 64, Associativity: 2, Policy: cache.FIFO,
		})
		Expect(err).NotTo(HaveOccurred())

		for _, m := range []*reference.Model{model, fifo} {
			m.Access(0x200, cache.Load)
			m.Access(0x400, cache.Load)
			m.Access(0x200, cache.Load)
			m.Access(0x600, cache.Load)
		}

		Expect(model.Contains(0x200)).To(BeTrue())
		Expect(model.Contains(0x400)).To(BeFalse())
		Expect(fifo.Contains(0x200)).To(BeFalse())
		Expect(fifo.Contains(0x400)).To(BeTrue())
	})

	It("should forget everything on reset", func() {
		model.Access(0x0, cache.Store)
		model.Reset()

		Expect(model.Contains(0x0)).To(BeFalse())
		Expect(model.Stats()).To(Equal(cache.Statistics{}))
	})
})

var _ = Describe("Checker", func() {
	configs := []cache.Config{
		{SizeKiB: 1, BlockSize: 16, Associativity: 1},
		{SizeKiB: 1, BlockSize: 64, Associativity: 2},
		{SizeKiB: 2, BlockSize: 32, Associativity: 4},
		{SizeKiB: 4, BlockSize: 64, Associativity: 8},
		{SizeKiB: 1, BlockSize: 64, Associativity: 16},
	}

	for _, base := range configs {
		for _, policy := range []cache.Policy{cache.LRU, cache.FIFO} {
			config := base
			config.Policy = policy

			It(fmt.Sprintf("should agree with the simulator on %s", config), func() {
				sim, err := cache.New(config)
				Expect(err).NotTo(HaveOccurred())
				model, err := reference.New(config)
				Expect(err).NotTo(HaveOccurred())

				checker := reference.NewChecker(model, 5)
				d := driver.New(sim, driver.WithObserver(checker))

				items := workload.Random(uint64(config.SizeKiB*100+config.Associativity), 20000, 0, 16*1024, 0.3)
				items = append(items, workload.InstructionMix(3, 5000, 0x8000, 8*1024)...)

				stats, err := d.Run(trace.NewSliceSource(items))
				Expect(err).NotTo(HaveOccurred())

				Expect(checker.Err()).NotTo(HaveOccurred())
				Expect(checker.Samples()).To(BeEmpty())
				Expect(checker.Checked()).To(Equal(stats.Accesses))
				Expect(model.Stats()).To(Equal(stats))
				Expect(model.DirtyBlocks()).To(Equal(sim.DirtyBlocks()))
			})
		}
	}

	It("should report disagreements", func() {
		config := cache.Config{SizeKiB: 1, BlockSize: 64, Associativity: 2, Policy: cache.LRU}
		model, err := reference.New(config)
		Expect(err).NotTo(HaveOccurred())

		checker := reference.NewChecker(model, 1)
		// Claim a hit on a cold cache.
		checker.OnAccess(driver.Event{
			Sequence: 1,
			Address:  0x80,
			Kind:     cache.Load,
			Outcome:  cache.Outcome{Result: cache.Hit},
		})
		checker.OnAccess(driver.Event{
			Sequence: 2,
			Address:  0x1000,
			Kind:     cache.Store,
			Outcome:  cache.Outcome{Result: cache.Hit},
		})

		Expect(checker.Mismatches()).To(Equal(uint64(2)))
		Expect(checker.Samples()).To(HaveLen(1))
		Expect(checker.Samples()[0].Want).To(Equal(cache.MissClean))
		Expect(checker.Err()).To(MatchError(ContainSubstring("2 of 2 accesses disagree")))
	})

	It("should report diverging final counters", func() {
		model, err := reference.New(cache.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		checker := reference.NewChecker(model, 1)
		checker.OnFinish(cache.Statistics{Accesses: 1})

		Expect(checker.Err()).To(MatchError(ContainSubstring("final counters disagree")))
	})
})
