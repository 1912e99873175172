package lifecycle

import (
	"context"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// OrderEdit is the new content of one existing order.  An empty Items list
// removes the order.
type OrderEdit struct {
	OrderID uint64        `json:"order_id"`
	Items   []ItemRequest `json:"items"`
}

// EditRequest is a multi-order edit session for one table: changes to the
// table's pending orders plus an optional cart that becomes a new order.
// Pending orders not listed are left as they are.
type EditRequest struct {
	Orders   []OrderEdit   `json:"orders"`
	NewItems []ItemRequest `json:"new_items"`
}

// EditResult reports what the edit wrote.
type EditResult struct {
	Updated []model.Order `json:"updated"`
	Deleted []uint64      `json:"deleted"`
	Created *model.Order  `json:"created,omitempty"`
}

// EditOrders reconciles an edit session against the Order Ledger.  The
// whole batch is staged and checked first and then written in one step:
// either every change lands or none does.  An edit that would leave the
// table without a single item is rejected.
func (c *Controller) EditOrders(ctx context.Context, tableID string, req EditRequest) (EditResult, error) {
	unlock := c.locks.lock(tableID)
	defer unlock()

	t, err := c.tables.Get(tableID)
	if err != nil {
		return EditResult{}, tableNotFound(tableID)
	}
	if t.State != model.TableOccupied && t.State != model.TableConsuming {
		return EditResult{}, preconditionf("table %s is %s; orders can only be edited while the table is occupied or consuming", tableID, t.State)
	}
	pending := c.orders.PendingByTable(tableID)
	if len(pending) == 0 {
		return EditResult{}, preconditionf("table %s has no orders to edit", tableID)
	}
	byID := make(map[uint64]model.Order, len(pending))
	for _, o := range pending {
		byID[o.ID] = o
	}

	var deletes, updates, creates []repository.OrderOp
	remaining := make(map[uint64]int, len(pending))
	for _, o := range pending {
		remaining[o.ID] = len(o.Items)
	}
	seen := make(map[uint64]bool, len(req.Orders))
	for _, e := range req.Orders {
		if seen[e.OrderID] {
			return EditResult{}, validationf("order %d appears twice in the edit", e.OrderID)
		}
		seen[e.OrderID] = true
		cur, ok := byID[e.OrderID]
		if !ok {
			if _, err := c.orders.Get(e.OrderID); err != nil {
				return EditResult{}, notFoundf("order %d does not exist", e.OrderID)
			}
			return EditResult{}, preconditionf("order %d is not an open order of table %s", e.OrderID, tableID)
		}
		if len(e.Items) == 0 {
			deletes = append(deletes, repository.OrderOp{Kind: repository.OpDelete, Order: cur})
			remaining[cur.ID] = 0
			continue
		}
		items, err := c.resolveItems(e.Items, cur.Items)
		if err != nil {
			return EditResult{}, err
		}
		cur.Items = items
		cur.Total = model.SumItems(items)
		updates = append(updates, repository.OrderOp{Kind: repository.OpUpdate, Order: cur})
		remaining[cur.ID] = len(items)
	}

	cartItems := 0
	if len(req.NewItems) > 0 {
		items, err := c.resolveItems(req.NewItems, nil)
		if err != nil {
			return EditResult{}, err
		}
		cartItems = len(items)
		creates = append(creates, repository.OrderOp{Kind: repository.OpCreate, Order: model.Order{
			TableID:   tableID,
			Items:     items,
			Total:     model.SumItems(items),
			Status:    model.OrderPending,
			CreatedAt: c.now(),
		}})
	}

	total := cartItems
	for _, n := range remaining {
		total += n
	}
	if total == 0 {
		return EditResult{}, preconditionf("the edit would leave table %s without any order; keep at least one item", tableID)
	}

	ops := make([]repository.OrderOp, 0, len(deletes)+len(updates)+len(creates))
	ops = append(ops, deletes...)
	ops = append(ops, updates...)
	ops = append(ops, creates...)
	if len(ops) == 0 {
		return EditResult{Updated: []model.Order{}, Deleted: []uint64{}}, nil
	}
	out, err := c.orders.ApplyBatch(ops)
	if err != nil {
		return EditResult{}, fromBatch(err)
	}

	res := EditResult{Updated: []model.Order{}, Deleted: []uint64{}}
	for i, op := range ops {
		switch op.Kind {
		case repository.OpDelete:
			res.Deleted = append(res.Deleted, op.Order.ID)
		case repository.OpUpdate:
			res.Updated = append(res.Updated, out[i])
		case repository.OpCreate:
			created := out[i]
			res.Created = &created
		}
	}
	log.Infof("table %s: edit applied, %d updated, %d deleted, new order %t",
		tableID, len(res.Updated), len(res.Deleted), res.Created != nil)
	if res.Created != nil {
		c.emit(ctx, queue.EventOrderCreated, tableID, queue.OrderCreatedEvent{
			OrderID: res.Created.ID, Items: len(res.Created.Items), Total: res.Created.Total.StringFixed(2),
		})
	}
	return res, nil
}
