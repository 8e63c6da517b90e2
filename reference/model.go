// Package reference provides an independent cache model built on Akita's
// cache directory. It is used to cross-check the simulator.
package reference

import (
	"log"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachesim/cache"
)

// Model is a tag-only cache that keeps its state in an Akita directory.
//
// Akita's LRU victim finder keeps blocks in visit order. Visiting a block on
// every access gives LRU; visiting it only when it is filled gives FIFO.
type Model struct {
	config    cache.Config
	directory *akitacache.DirectoryImpl
	stats     cache.Statistics
}

// New creates a Model. The configuration must be valid.
func New(config cache.Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Model{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Config returns the model configuration.
func (m *Model) Config() cache.Config {
	return m.config
}

// Stats returns the counters accumulated by Access.
func (m *Model) Stats() cache.Statistics {
	return m.stats
}

func (m *Model) blockAddr(addr uint64) uint64 {
	return addr / uint64(m.config.BlockSize) * uint64(m.config.BlockSize)
}

// Access performs one access and classifies it.
func (m *Model) Access(addr uint64, kind cache.Kind) cache.Result {
	result := m.access(m.blockAddr(addr), kind == cache.Store)
	m.stats.Record(kind, result)

	return result
}

func (m *Model) access(blockAddr uint64, isWrite bool) cache.Result {
	block := m.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		if isWrite {
			block.IsDirty = true
		}

		if m.config.Policy == cache.LRU {
			m.directory.Visit(block)
		}

		return cache.Hit
	}

	victim := m.directory.FindVictim(blockAddr)
	if victim == nil {
		log.Panicf("akita directory returned no victim for block 0x%x", blockAddr)
	}

	result := cache.MissClean
	if victim.IsValid && victim.IsDirty {
		result = cache.MissDirtyWriteback
	}

	// The tag holds the block-aligned address.
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite

	m.directory.Visit(victim)

	return result
}

// Contains reports whether the block holding addr is resident.
func (m *Model) Contains(addr uint64) bool {
	block := m.directory.Lookup(0, m.blockAddr(addr))
	return block != nil && block.IsValid
}

// DirtyBlocks returns the number of valid dirty blocks.
func (m *Model) DirtyBlocks() int {
	n := 0
	for _, set := range m.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				n++
			}
		}
	}

	return n
}

// Reset invalidates every block and clears the counters.
func (m *Model) Reset() {
	m.directory.Reset()
	m.stats = cache.Statistics{}
}
