package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// SaleRepo is the Sale Ledger.  Sales are append-only.
type SaleRepo struct {
	mu    sync.RWMutex
	sales []model.Sale
	seq   Sequence
}

// NewSaleRepo returns an empty ledger.
func NewSaleRepo() *SaleRepo { return &SaleRepo{} }

// Create appends the sale, allocating its id.
func (r *SaleRepo) Create(s model.Sale) model.Sale {
	s.ID = r.seq.Next()
	s.Orders = cloneOrders(s.Orders)
	r.mu.Lock()
	r.sales = append(r.sales, s)
	r.mu.Unlock()
	out := s
	out.Orders = cloneOrders(s.Orders)
	return out
}

// Get returns the sale or ErrSaleNotFound.
func (r *SaleRepo) Get(id uint64) (model.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sales {
		if s.ID == id {
			s.Orders = cloneOrders(s.Orders)
			return s, nil
		}
	}
	return model.Sale{}, ErrSaleNotFound
}

// List returns every sale in the order it was recorded.
func (r *SaleRepo) List() []model.Sale {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Sale, len(r.sales))
	for i, s := range r.sales {
		s.Orders = cloneOrders(s.Orders)
		out[i] = s
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Between returns sales whose CreatedAt falls in [start, end], in the order
// they were recorded.
func (r *SaleRepo) Between(start, end time.Time) []model.Sale {
	all := r.List()
	out := all[:0]
	for _, s := range all {
		if !s.CreatedAt.Before(start) && !s.CreatedAt.After(end) {
			out = append(out, s)
		}
	}
	return out
}

func cloneOrders(in []model.Order) []model.Order {
	if in == nil {
		return nil
	}
	out := make([]model.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
