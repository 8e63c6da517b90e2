// Package cache models a single-level set-associative cache with LRU or
// FIFO replacement and write-back, write-allocate stores.
package cache

// Simulator replays accesses against one cache instance. It is not safe
// for concurrent use; independent simulators share no state.
type Simulator struct {
	config  Config
	decoder AddressDecoder
	store   *BlockStore
	engine  ReplacementEngine
}

// New validates config and creates a Simulator with an empty cache.
func New(config Config) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	decoder, err := NewAddressDecoder(config.BlockSize, config.NumSets())
	if err != nil {
		return nil, err
	}

	return &Simulator{
		config:  config,
		decoder: decoder,
		store:   NewBlockStore(config.NumSets(), config.Associativity),
		engine:  NewReplacementEngine(config.Policy),
	}, nil
}

// Config returns the simulator configuration.
func (s *Simulator) Config() Config {
	return s.config
}

// Decoder returns the address decoder.
func (s *Simulator) Decoder() AddressDecoder {
	return s.decoder
}

// Access performs one access and classifies it.
func (s *Simulator) Access(addr uint64, kind Kind, sequence uint64) Result {
	return s.AccessDetail(Request{Address: addr, Kind: kind, Sequence: sequence}).Result
}

// AccessDetail performs one access and reports where it landed and what it
// evicted.
func (s *Simulator) AccessDetail(req Request) Outcome {
	tag, setIndex := s.decoder.Decode(req.Address)

	outcome := s.engine.Access(s.store, setIndex, tag, req.Kind, req.Sequence)
	if outcome.Evicted {
		outcome.EvictedAddress = s.decoder.BlockAddress(outcome.EvictedTag, setIndex)
	}

	return outcome
}

// Inspect decodes addr without touching the cache.
func (s *Simulator) Inspect(addr uint64) (setIndex int, tag uint64) {
	tag, setIndex = s.decoder.Decode(addr)
	return setIndex, tag
}

// Contains reports whether the block holding addr is resident.
func (s *Simulator) Contains(addr uint64) bool {
	tag, setIndex := s.decoder.Decode(addr)
	_, ok := s.store.Lookup(setIndex, tag)

	return ok
}

// Set returns a copy of the blocks of one set.
func (s *Simulator) Set(setIndex int) []Block {
	return s.store.Set(setIndex)
}

// ResidentBlocks returns the number of valid blocks.
func (s *Simulator) ResidentBlocks() int {
	return s.store.CountValid()
}

// DirtyBlocks returns the number of resident blocks that would need a
// writeback if they were evicted now.
func (s *Simulator) DirtyBlocks() int {
	return s.store.CountDirty()
}

// Reset invalidates every block.
func (s *Simulator) Reset() {
	s.store.Reset()
}
