package cache

import "fmt"

// Kind is the type of a memory access.
type Kind uint8

const (
	// Load reads memory.
	Load Kind = iota
	// Store writes memory.
	Store
)

func (k Kind) String() string {
	switch k {
	case Load:
		return "LOAD"
	case Store:
		return "STORE"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Result classifies one access.
type Result uint8

const (
	// Hit means the block was resident.
	Hit Result = iota
	// MissClean means the block was filled without writing anything back.
	MissClean
	// MissDirtyWriteback means the fill evicted a dirty block.
	MissDirtyWriteback
)

func (r Result) String() string {
	switch r {
	case Hit:
		return "hit"
	case MissClean:
		return "miss"
	case MissDirtyWriteback:
		return "miss+writeback"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

// IsMiss reports whether r is either kind of miss.
func (r Result) IsMiss() bool {
	return r == MissClean || r == MissDirtyWriteback
}

// Request is one access presented to the simulator.
type Request struct {
	Address uint64
	Kind    Kind
	// Sequence is the caller's logical clock. It must strictly increase
	// from one request to the next.
	Sequence uint64
}

// Outcome is the detailed effect of one access.
type Outcome struct {
	Result   Result
	SetIndex int
	Way      int
	Tag      uint64

	// Evicted is true when a valid block was replaced. EvictedTag holds its
	// tag and EvictedAddress its block-aligned address.
	Evicted        bool
	EvictedTag     uint64
	EvictedAddress uint64
}
