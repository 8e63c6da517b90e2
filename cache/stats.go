package cache

// Statistics holds the running counters of a trace replay.
type Statistics struct {
	Accesses            uint64 `json:"accesses"`
	Reads               uint64 `json:"reads"`
	Writes              uint64 `json:"writes"`
	Hits                uint64 `json:"hits"`
	Misses              uint64 `json:"misses"`
	MissesWithWriteback uint64 `json:"misses_with_writeback"`
}

// Record counts one classified access.
func (s *Statistics) Record(kind Kind, result Result) {
	s.Accesses++

	if kind == Store {
		s.Writes++
	} else {
		s.Reads++
	}

	switch result {
	case Hit:
		s.Hits++
	case MissClean:
		s.Misses++
	case MissDirtyWriteback:
		s.Misses++
		s.MissesWithWriteback++
	}
}

// HitRate returns hits / accesses, or 0 before any access.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses)
}

// MissRate returns misses / accesses, or 0 before any access.
func (s Statistics) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Misses) / float64(s.Accesses)
}
