package lifecycle

import "sync"

// tableLocks serializes every mutation of one table and its orders.
// Entries are reference counted and dropped when nobody holds or waits
// for them, so deleted tables do not leak mutexes.
type tableLocks struct {
	mu sync.Mutex
	m  map[string]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the table's mutex is held and returns its unlock func.
func (l *tableLocks) lock(tableID string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*tableLock)
	}
	e, ok := l.m[tableID]
	if !ok {
		e = &tableLock{}
		l.m[tableID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, tableID)
		}
		l.mu.Unlock()
	}
}
