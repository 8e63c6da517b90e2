// Package workload generates synthetic memory traces with known cache
// behavior.
package workload

import (
	"math/rand/v2"
	"sort"

	"github.com/sarchlab/cachesim/trace"
)

// Workload is a named trace generator.
type Workload struct {
	// Name identifies the workload on the command line.
	Name string

	// Description explains which cache behavior it exercises.
	Description string

	// Generate builds the trace. Every call returns the same records.
	Generate func() []trace.Item
}

// Catalog returns the standard workloads.
func Catalog() []Workload {
	return []Workload{
		{
			Name:        "sequential",
			Description: "64 KiB streamed once in 4-byte loads - one miss per block",
			Generate: func() []trace.Item {
				return Sequential(0x10000000, 16*1024, 4, 0)
			},
		},
		{
			Name:        "strided",
			Description: "256 KiB touched every 256 bytes, every other access a store",
			Generate: func() []trace.Item {
				return Sequential(0x20000000, 1024, 256, 2)
			},
		},
		{
			Name:        "loop_reuse",
			Description: "4 KiB working set walked 32 times - hit-heavy",
			Generate: func() []trace.Item {
				return Loop(0x30000000, 4*1024, 64, 32)
			},
		},
		{
			Name:        "conflict",
			Description: "9 blocks 32 KiB apart cycled 100 times - thrashes one set",
			Generate: func() []trace.Item {
				return Conflict(0x40000000, 32*1024, 9, 100)
			},
		},
		{
			Name:        "random",
			Description: "50k uniformly random accesses over 1 MiB, 30% stores",
			Generate: func() []trace.Item {
				return Random(1, 50000, 0x50000000, 1<<20, 0.3)
			},
		},
		{
			Name:        "instruction_mix",
			Description: "synthetic instruction stream with 1 in 3 records touching memory",
			Generate: func() []trace.Item {
				return InstructionMix(7, 30000, 0x60000000, 64*1024)
			},
		},
	}
}

// Names returns the sorted names of the catalog workloads.
func Names() []string {
	names := []string{}
	for _, w := range Catalog() {
		names = append(names, w.Name)
	}
	sort.Strings(names)

	return names
}

// Get looks a catalog workload up by name.
func Get(name string) (Workload, bool) {
	for _, w := range Catalog() {
		if w.Name == name {
			return w, true
		}
	}

	return Workload{}, false
}

// Sequential walks count addresses from base, stride bytes apart. When
// storeEvery is positive, every storeEvery-th access is a store.
func Sequential(base uint32, count int, stride uint32, storeEvery int) []trace.Item {
	items := make([]trace.Item, 0, count)
	for i := 0; i < count; i++ {
		addr := base + uint32(i)*stride
		items = append(items, access(addr, storeEvery > 0 && (i+1)%storeEvery == 0))
	}

	return items
}

// Loop walks a working set of size bytes in stride steps, rounds times.
// The first round stores, later rounds load.
func Loop(base, size, stride uint32, rounds int) []trace.Item {
	perRound := int(size / stride)
	items := make([]trace.Item, 0, perRound*rounds)

	for r := 0; r < rounds; r++ {
		for i := 0; i < perRound; i++ {
			items = append(items, access(base+uint32(i)*stride, r == 0))
		}
	}

	return items
}

// Conflict cycles through blocks addresses spaced setStride bytes apart.
// With setStride equal to the set count times the block size, all of them
// map to the same set.
func Conflict(base, setStride uint32, blocks, rounds int) []trace.Item {
	items := make([]trace.Item, 0, blocks*rounds)

	for r := 0; r < rounds; r++ {
		for b := 0; b < blocks; b++ {
			items = append(items, access(base+uint32(b)*setStride, b%2 == 0))
		}
	}

	return items
}

// Random draws count addresses uniformly from [base, base+footprint). A
// storeRatio fraction of them are stores.
func Random(seed uint64, count int, base, footprint uint32, storeRatio float64) []trace.Item {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	items := make([]trace.Item, 0, count)

	for i := 0; i < count; i++ {
		addr := base + rng.Uint32N(footprint)
		items = append(items, access(addr, rng.Float64() < storeRatio))
	}

	return items
}

// InstructionMix emits a plausible instruction stream: ALU, branch and jump
// records with advancing PCs, and loads and stores into a footprint-sized
// data region.
func InstructionMix(seed uint64, count int, base, footprint uint32) []trace.Item {
	rng := rand.New(rand.NewPCG(seed, ^seed))
	items := make([]trace.Item, 0, count)
	pc := uint32(0x00400000)

	for i := 0; i < count; i++ {
		item := trace.Item{PC: pc}

		switch n := rng.IntN(12); {
		case n < 2:
			item.Type = trace.TypeLoad
			item.DReg = uint8(rng.IntN(32))
			item.Addr = (base + rng.Uint32N(footprint)) &^ 3
		case n < 4:
			item.Type = trace.TypeStore
			item.SRegA = uint8(rng.IntN(32))
			item.Addr = (base + rng.Uint32N(footprint)) &^ 3
		case n < 8:
			item.Type = trace.TypeRType
			item.SRegA = uint8(rng.IntN(32))
			item.SRegB = uint8(rng.IntN(32))
			item.DReg = uint8(rng.IntN(32))
		case n < 10:
			item.Type = trace.TypeIType
			item.SRegA = uint8(rng.IntN(32))
			item.DReg = uint8(rng.IntN(32))
		case n < 11:
			item.Type = trace.TypeBranch
		default:
			item.Type = trace.TypeNOP
		}

		items = append(items, item)
		pc += 4
	}

	return items
}

func access(addr uint32, store bool) trace.Item {
	if store {
		return trace.Store(addr)
	}

	return trace.Load(addr)
}
