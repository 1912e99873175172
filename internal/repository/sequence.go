package repository

import "sync/atomic"

// Sequence is a monotonic id allocator shared by concurrent creators.
type Sequence struct {
	last atomic.Uint64
}

// Next returns the next id.  The first call returns 1.
func (s *Sequence) Next() uint64 { return s.last.Add(1) }

// Observe moves the sequence forward so it never hands out v or anything
// below it.  Used when ids are assigned externally (seed data, user chosen
// table ids).
func (s *Sequence) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
