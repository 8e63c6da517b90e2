package cache

// ReplacementEngine performs the hit/miss state transition of one set.
//
// LRU and FIFO share the same victim search (smallest stamp, lowest way on
// ties). They only differ in whether a hit refreshes the stamp.
type ReplacementEngine struct {
	policy Policy
}

// NewReplacementEngine creates an engine for the given policy.
func NewReplacementEngine(policy Policy) ReplacementEngine {
	return ReplacementEngine{policy: policy}
}

// Policy returns the engine's replacement policy.
func (e ReplacementEngine) Policy() Policy {
	return e.policy
}

func (e ReplacementEngine) refreshOnHit() bool {
	return e.policy == LRU
}

// Access looks tag up in a set of the store and applies the hit or miss
// path.
func (e ReplacementEngine) Access(
	store *BlockStore,
	setIndex int,
	tag uint64,
	kind Kind,
	sequence uint64,
) Outcome {
	if way, ok := store.Lookup(setIndex, tag); ok {
		if kind == Store {
			store.MarkDirty(setIndex, way)
		}

		if e.refreshOnHit() {
			store.TouchRecency(setIndex, way, sequence)
		}

		return Outcome{Result: Hit, SetIndex: setIndex, Way: way, Tag: tag}
	}

	way, free := store.FirstFreeWay(setIndex)
	if !free {
		way = e.FindVictim(store, setIndex)
	}

	outcome := Outcome{
		Result:   MissClean,
		SetIndex: setIndex,
		Way:      way,
		Tag:      tag,
	}

	if !free {
		outcome.Evicted = true
		outcome.EvictedTag = store.Block(setIndex, way).Tag
	}

	if store.Install(setIndex, way, tag, sequence, kind == Store) {
		outcome.Result = MissDirtyWriteback
	}

	return outcome
}

// FindVictim returns the way holding the smallest stamp among the valid
// ways of a set, picking the lowest way on ties. It must only be called
// when every way is valid.
func (e ReplacementEngine) FindVictim(store *BlockStore, setIndex int) int {
	victim := 0
	oldest := store.Block(setIndex, 0).Stamp

	for way := 1; way < store.NumWays(); way++ {
		if stamp := store.Block(setIndex, way).Stamp; stamp < oldest {
			victim = way
			oldest = stamp
		}
	}

	return victim
}
