package repository

import (
	"sort"
	"sync"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// MenuRepo is the menu half of the Catalog Store.
type MenuRepo struct {
	mu    sync.RWMutex
	items map[uint64]model.MenuItem
	seq   Sequence
}

// NewMenuRepo returns an empty menu.
func NewMenuRepo() *MenuRepo {
	return &MenuRepo{items: make(map[uint64]model.MenuItem)}
}

// List returns every menu item ordered by id.  When activeOnly is true the
// inactive items are left out.
func (r *MenuRepo) List(activeOnly bool) []model.MenuItem {
	r.mu.RLock()
	out := make([]model.MenuItem, 0, len(r.items))
	for _, it := range r.items {
		if activeOnly && !it.Active {
			continue
		}
		out = append(out, it)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the item or ErrMenuItemNotFound.
func (r *MenuRepo) Get(id uint64) (model.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return model.MenuItem{}, ErrMenuItemNotFound
	}
	return it, nil
}

// Create stores a new item.  A zero ID is allocated from the sequence; an
// explicit one is kept (seed data) and observed by the sequence.
func (r *MenuRepo) Create(it model.MenuItem) (model.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == 0 {
		it.ID = r.seq.Next()
	} else {
		if _, taken := r.items[it.ID]; taken {
			return model.MenuItem{}, ErrConflict
		}
		r.seq.Observe(it.ID)
	}
	r.items[it.ID] = it
	return it, nil
}

// Save replaces an existing item.
func (r *MenuRepo) Save(it model.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; !ok {
		return ErrMenuItemNotFound
	}
	r.items[it.ID] = it
	return nil
}

// Delete removes an item.  Orders keep their own snapshot of the name and
// price, so deleting never affects orders already placed.
func (r *MenuRepo) Delete(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrMenuItemNotFound
	}
	delete(r.items, id)
	return nil
}
