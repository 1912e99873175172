package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// ReservationRepo is the Reservation Ledger, the system of record for
// reservations.  Tables only carry a projection of the active one.
type ReservationRepo struct {
	mu           sync.RWMutex
	reservations map[uint64]model.Reservation
	seq          Sequence
}

// NewReservationRepo returns an empty ledger.
func NewReservationRepo() *ReservationRepo {
	return &ReservationRepo{reservations: make(map[uint64]model.Reservation)}
}

// Create stores the reservation and returns it with its id.
func (r *ReservationRepo) Create(res model.Reservation) model.Reservation {
	res.ID = r.seq.Next()
	r.mu.Lock()
	r.reservations[res.ID] = res
	r.mu.Unlock()
	return res
}

// Get returns the reservation or ErrReservationNotFound.
func (r *ReservationRepo) Get(id uint64) (model.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[id]
	if !ok {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, nil
}

// SetStatus changes the status of a reservation.
func (r *ReservationRepo) SetStatus(id uint64, status model.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	res.Status = status
	r.reservations[id] = res
	return nil
}

// List returns every reservation ordered by id.
func (r *ReservationRepo) List() []model.Reservation {
	r.mu.RLock()
	out := make([]model.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, res)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveByTable returns the ACTIVE reservations of a table.
func (r *ReservationRepo) ActiveByTable(tableID string) []model.Reservation {
	all := r.List()
	out := all[:0]
	for _, res := range all {
		if res.TableID == tableID && res.Status == model.ReservationActive {
			out = append(out, res)
		}
	}
	return out
}

// CreatedBetween returns reservations created in [start, end] ordered by id.
func (r *ReservationRepo) CreatedBetween(start, end time.Time) []model.Reservation {
	all := r.List()
	out := all[:0]
	for _, res := range all {
		if !res.CreatedAt.Before(start) && !res.CreatedAt.After(end) {
			out = append(out, res)
		}
	}
	return out
}
