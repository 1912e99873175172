package repository

import (
	"errors"
	"sort"
	"sync"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// OpKind names an order batch operation.
type OpKind string

const (
	OpCreate   OpKind = "create"
	OpUpdate   OpKind = "update"
	OpDelete   OpKind = "delete"
	OpComplete OpKind = "complete"
)

// OrderOp is one staged mutation of an order batch.  For OpCreate the
// Order.ID is ignored and allocated by the ledger; for OpUpdate the items,
// total and status of Order replace the stored ones; OpDelete and
// OpComplete only use Order.ID.
type OrderOp struct {
	Kind  OpKind
	Order model.Order
}

// OrderRepo is the Order Ledger.
type OrderRepo struct {
	mu     sync.RWMutex
	orders map[uint64]model.Order
	seq    Sequence
}

// NewOrderRepo returns an empty ledger.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[uint64]model.Order)}
}

// List returns every order ordered by id.
func (r *OrderRepo) List() []model.Order {
	return r.filter(func(model.Order) bool { return true })
}

// ListByTable returns the orders of a table, of any status, ordered by id.
func (r *OrderRepo) ListByTable(tableID string) []model.Order {
	return r.filter(func(o model.Order) bool { return o.TableID == tableID })
}

// PendingByTable returns the table's orders that have not been paid yet.
func (r *OrderRepo) PendingByTable(tableID string) []model.Order {
	return r.filter(func(o model.Order) bool {
		return o.TableID == tableID && o.Status == model.OrderPending
	})
}

func (r *OrderRepo) filter(keep func(model.Order) bool) []model.Order {
	r.mu.RLock()
	out := make([]model.Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the order or ErrOrderNotFound.
func (r *OrderRepo) Get(id uint64) (model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return model.Order{}, ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Create stores a new order and returns it with its allocated id.
func (r *OrderRepo) Create(o model.Order) (model.Order, error) {
	out, err := r.ApplyBatch([]OrderOp{{Kind: OpCreate, Order: o}})
	if err != nil {
		return model.Order{}, unwrapStep(err)
	}
	return out[0], nil
}

// Delete removes an order.
func (r *OrderRepo) Delete(id uint64) error {
	_, err := r.ApplyBatch([]OrderOp{{Kind: OpDelete, Order: model.Order{ID: id}}})
	return unwrapStep(err)
}

func unwrapStep(err error) error {
	var se *StepError
	if errors.As(err, &se) {
		return se.Err
	}
	return err
}

// ApplyBatch validates every operation against the current ledger and,
// only when all of them are applicable, applies them under a single lock.
// It returns the resulting orders in operation order (the zero Order for
// deletes).  A failing operation is reported as a *StepError; because the
// whole batch is validated first, Applied is zero and the ledger is left
// untouched.
func (r *OrderRepo) ApplyBatch(ops []OrderOp) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gone := make(map[uint64]bool)
	for i, op := range ops {
		switch op.Kind {
		case OpCreate:
			if len(op.Order.Items) == 0 {
				return nil, &StepError{Step: i, Op: op.Kind, Err: errors.New("order has no items")}
			}
		case OpUpdate, OpDelete, OpComplete:
			if _, ok := r.orders[op.Order.ID]; !ok || gone[op.Order.ID] {
				return nil, &StepError{Step: i, Op: op.Kind, OrderID: op.Order.ID, Err: ErrOrderNotFound}
			}
			if op.Kind == OpUpdate && len(op.Order.Items) == 0 {
				return nil, &StepError{Step: i, Op: op.Kind, OrderID: op.Order.ID, Err: errors.New("order has no items")}
			}
			if op.Kind == OpDelete {
				gone[op.Order.ID] = true
			}
		default:
			return nil, &StepError{Step: i, Op: op.Kind, OrderID: op.Order.ID, Err: errors.New("unknown operation")}
		}
	}

	out := make([]model.Order, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case OpCreate:
			o := op.Order.Clone()
			o.ID = r.seq.Next()
			r.orders[o.ID] = o
			out[i] = o.Clone()
		case OpUpdate:
			cur := r.orders[op.Order.ID]
			cur.Items = append([]model.OrderItem(nil), op.Order.Items...)
			cur.Total = op.Order.Total
			if op.Order.Status != "" {
				cur.Status = op.Order.Status
			}
			r.orders[cur.ID] = cur
			out[i] = cur.Clone()
		case OpComplete:
			cur := r.orders[op.Order.ID]
			cur.Status = model.OrderCompleted
			r.orders[cur.ID] = cur
			out[i] = cur.Clone()
		case OpDelete:
			delete(r.orders, op.Order.ID)
		}
	}
	return out, nil
}
