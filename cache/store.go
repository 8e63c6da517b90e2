package cache

import "log"

// A Block is the bookkeeping for one way of one set.
type Block struct {
	Tag   uint64
	Valid bool
	Dirty bool
	// Stamp is the logical time of the last touch under LRU, or of the
	// insertion under FIFO.
	Stamp uint64
}

// BlockStore owns the set/way grid of blocks. Blocks live in one flat slice
// indexed by set*ways+way.
type BlockStore struct {
	numSets int
	numWays int
	blocks  []Block
}

// NewBlockStore creates a store with all blocks invalid.
func NewBlockStore(numSets, numWays int) *BlockStore {
	if numSets <= 0 || numWays <= 0 {
		log.Panicf("cache store needs a positive geometry, got %d sets x %d ways",
			numSets, numWays)
	}

	return &BlockStore{
		numSets: numSets,
		numWays: numWays,
		blocks:  make([]Block, numSets*numWays),
	}
}

// NumSets returns the number of sets.
func (s *BlockStore) NumSets() int {
	return s.numSets
}

// NumWays returns the number of ways per set.
func (s *BlockStore) NumWays() int {
	return s.numWays
}

func (s *BlockStore) index(setIndex, way int) int {
	if setIndex < 0 || setIndex >= s.numSets {
		log.Panicf("set index %d out of range [0, %d)", setIndex, s.numSets)
	}

	if way < 0 || way >= s.numWays {
		log.Panicf("way %d out of range [0, %d)", way, s.numWays)
	}

	return setIndex*s.numWays + way
}

func (s *BlockStore) set(setIndex int) []Block {
	base := s.index(setIndex, 0)
	return s.blocks[base : base+s.numWays]
}

// Lookup returns the first valid way of the set holding tag.
func (s *BlockStore) Lookup(setIndex int, tag uint64) (way int, ok bool) {
	for i, b := range s.set(setIndex) {
		if b.Valid && b.Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// FirstFreeWay returns the lowest invalid way of the set.
func (s *BlockStore) FirstFreeWay(setIndex int) (way int, ok bool) {
	for i, b := range s.set(setIndex) {
		if !b.Valid {
			return i, true
		}
	}

	return 0, false
}

// Install overwrites a way with a freshly filled block and reports whether
// the block it replaced was dirty.
func (s *BlockStore) Install(setIndex, way int, tag, sequence uint64, dirty bool) (prevDirty bool) {
	b := &s.blocks[s.index(setIndex, way)]
	prevDirty = b.Valid && b.Dirty

	*b = Block{
		Tag:   tag,
		Valid: true,
		Dirty: dirty,
		Stamp: sequence,
	}

	return prevDirty
}

// MarkDirty sets the dirty bit of a way.
func (s *BlockStore) MarkDirty(setIndex, way int) {
	s.blocks[s.index(setIndex, way)].Dirty = true
}

// TouchRecency refreshes the stamp of a way.
func (s *BlockStore) TouchRecency(setIndex, way int, sequence uint64) {
	s.blocks[s.index(setIndex, way)].Stamp = sequence
}

// Block returns a copy of the block at (setIndex, way).
func (s *BlockStore) Block(setIndex, way int) Block {
	return s.blocks[s.index(setIndex, way)]
}

// Set returns a copy of all blocks of a set in way order.
func (s *BlockStore) Set(setIndex int) []Block {
	blocks := make([]Block, s.numWays)
	copy(blocks, s.set(setIndex))

	return blocks
}

// CountValid returns the number of valid blocks.
func (s *BlockStore) CountValid() int {
	n := 0
	for _, b := range s.blocks {
		if b.Valid {
			n++
		}
	}

	return n
}

// CountDirty returns the number of valid dirty blocks.
func (s *BlockStore) CountDirty() int {
	n := 0
	for _, b := range s.blocks {
		if b.Valid && b.Dirty {
			n++
		}
	}

	return n
}

// Reset invalidates every block without writing anything back.
func (s *BlockStore) Reset() {
	clear(s.blocks)
}
