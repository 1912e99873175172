package lifecycle

import (
	"sync"
	"time"
)

// ReleaseFunc is invoked when a countdown elapses.  gen identifies the
// countdown so the receiver can tell a stale firing from a current one.
type ReleaseFunc func(tableID string, gen uint64)

// ReleaseScheduler runs the post-payment release countdowns, one per table.
// A countdown ticks once per tick interval; scheduling again or cancelling
// stops the previous one, and a firing that lost the race with a cancel is
// discarded by Claim.
type ReleaseScheduler struct {
	tick time.Duration
	fire ReleaseFunc

	mu      sync.Mutex
	gen     uint64
	pending map[string]*countdown
}

type countdown struct {
	gen       uint64
	remaining int
	stop      chan struct{}
}

// NewReleaseScheduler returns a scheduler ticking every tick.
func NewReleaseScheduler(tick time.Duration, fire ReleaseFunc) *ReleaseScheduler {
	if tick <= 0 {
		tick = time.Second
	}
	return &ReleaseScheduler{tick: tick, fire: fire, pending: make(map[string]*countdown)}
}

// Ticks converts a grace period into a whole number of ticks, rounding up.
func (s *ReleaseScheduler) Ticks(grace time.Duration) int {
	n := int(grace / s.tick)
	if grace%s.tick > 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Schedule starts a countdown of ticks for the table, replacing any
// countdown already running for it, and returns its generation.
func (s *ReleaseScheduler) Schedule(tableID string, ticks int) uint64 {
	s.mu.Lock()
	if cur, ok := s.pending[tableID]; ok {
		close(cur.stop)
	}
	s.gen++
	cd := &countdown{gen: s.gen, remaining: ticks, stop: make(chan struct{})}
	s.pending[tableID] = cd
	s.mu.Unlock()

	go s.run(tableID, cd)
	return cd.gen
}

func (s *ReleaseScheduler) run(tableID string, cd *countdown) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-t.C:
		}
		s.mu.Lock()
		if s.pending[tableID] != cd {
			s.mu.Unlock()
			return
		}
		cd.remaining--
		done := cd.remaining <= 0
		s.mu.Unlock()
		if done {
			s.fire(tableID, cd.gen)
			return
		}
	}
}

// Remaining returns the ticks left on the table's countdown.
func (s *ReleaseScheduler) Remaining(tableID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cd, ok := s.pending[tableID]
	if !ok {
		return 0, false
	}
	return cd.remaining, true
}

// Cancel stops the table's countdown, if any.
func (s *ReleaseScheduler) Cancel(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cd, ok := s.pending[tableID]; ok {
		close(cd.stop)
		delete(s.pending, tableID)
	}
}

// Claim removes the countdown identified by gen and reports whether it was
// still the current one for the table.
func (s *ReleaseScheduler) Claim(tableID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cd, ok := s.pending[tableID]
	if !ok || cd.gen != gen {
		return false
	}
	delete(s.pending, tableID)
	return true
}

// Stop cancels every countdown.
func (s *ReleaseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cd := range s.pending {
		close(cd.stop)
		delete(s.pending, id)
	}
}
