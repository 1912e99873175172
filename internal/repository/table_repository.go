package repository

import (
	"sort"
	"strconv"
	"sync"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// TableRepo is the Table Registry.  It only stores tables; every state
// transition is decided by the lifecycle controller, which writes the
// resulting table back with Save.
type TableRepo struct {
	mu     sync.RWMutex
	tables map[string]model.Table
	seq    Sequence
}

// NewTableRepo returns an empty registry.
func NewTableRepo() *TableRepo {
	return &TableRepo{tables: make(map[string]model.Table)}
}

// List returns every table ordered by id.  Numeric ids sort numerically
// and come before non-numeric ones.
func (r *TableRepo) List() []model.Table {
	r.mu.RLock()
	out := make([]model.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return lessTableID(out[i].ID, out[j].ID) })
	return out
}

func lessTableID(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Get returns the table or ErrTableNotFound.
func (r *TableRepo) Get(id string) (model.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return model.Table{}, ErrTableNotFound
	}
	return t.Clone(), nil
}

// Create stores a new table.  When t.ID is empty the next free numeric id
// is allocated; an explicit id that already exists yields ErrConflict.
func (r *TableRepo) Create(t model.Table) (model.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		for {
			id := strconv.FormatUint(r.seq.Next(), 10)
			if _, taken := r.tables[id]; !taken {
				t.ID = id
				break
			}
		}
	} else {
		if _, taken := r.tables[t.ID]; taken {
			return model.Table{}, ErrConflict
		}
		if n, err := strconv.ParseUint(t.ID, 10, 64); err == nil {
			r.seq.Observe(n)
		}
	}
	r.tables[t.ID] = t.Clone()
	return t.Clone(), nil
}

// Save replaces an existing table.
func (r *TableRepo) Save(t model.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.ID]; !ok {
		return ErrTableNotFound
	}
	r.tables[t.ID] = t.Clone()
	return nil
}

// Delete removes the table.
func (r *TableRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[id]; !ok {
		return ErrTableNotFound
	}
	delete(r.tables, id)
	return nil
}
