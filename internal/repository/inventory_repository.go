package repository

import (
	"sort"
	"sync"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// InventoryRepo is the inventory half of the Catalog Store.
type InventoryRepo struct {
	mu    sync.RWMutex
	items map[uint64]model.InventoryItem
	seq   Sequence
}

// NewInventoryRepo returns an empty inventory.
func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{items: make(map[uint64]model.InventoryItem)}
}

// List returns every record ordered by id.
func (r *InventoryRepo) List() []model.InventoryItem {
	r.mu.RLock()
	out := make([]model.InventoryItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the record or ErrInventoryItemNotFound.
func (r *InventoryRepo) Get(id uint64) (model.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return model.InventoryItem{}, ErrInventoryItemNotFound
	}
	return it, nil
}

// Create stores a new record, allocating an id when it.ID is zero.
func (r *InventoryRepo) Create(it model.InventoryItem) (model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == 0 {
		it.ID = r.seq.Next()
	} else {
		if _, taken := r.items[it.ID]; taken {
			return model.InventoryItem{}, ErrConflict
		}
		r.seq.Observe(it.ID)
	}
	r.items[it.ID] = it
	return it, nil
}

// Save replaces an existing record.
func (r *InventoryRepo) Save(it model.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[it.ID]; !ok {
		return ErrInventoryItemNotFound
	}
	r.items[it.ID] = it
	return nil
}

// Delete removes a record.
func (r *InventoryRepo) Delete(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrInventoryItemNotFound
	}
	delete(r.items, id)
	return nil
}
