package lifecycle

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// ItemRequest is a line as submitted by a waiter.  Name and price always
// come from the catalog (or from the line being edited), never from the
// client.
type ItemRequest struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// resolveItems turns requested lines into priced order items.  Lines for a
// menu item already present in prev keep that line's snapshot; new lines
// must reference an active menu item.  Repeated menu items are merged.
func (c *Controller) resolveItems(reqs []ItemRequest, prev []model.OrderItem) ([]model.OrderItem, error) {
	known := make(map[uint64]model.OrderItem, len(prev))
	for _, it := range prev {
		known[it.MenuItemID] = it
	}
	out := make([]model.OrderItem, 0, len(reqs))
	index := make(map[uint64]int, len(reqs))
	for _, r := range reqs {
		if r.MenuItemID == 0 {
			return nil, validationf("menu_item_id is required for every line")
		}
		if r.Quantity < 1 {
			return nil, validationf("quantity for menu item %d must be at least 1", r.MenuItemID)
		}
		if i, dup := index[r.MenuItemID]; dup {
			out[i] = model.NewOrderItem(out[i].MenuItemID, out[i].Name, out[i].UnitPrice, out[i].Quantity+r.Quantity)
			continue
		}
		snap, ok := known[r.MenuItemID]
		if !ok {
			mi, err := c.menu.Get(r.MenuItemID)
			if err != nil {
				return nil, notFoundf("menu item %d does not exist", r.MenuItemID)
			}
			if !mi.Active {
				return nil, validationf("menu item %q is not available", mi.Name)
			}
			if !mi.Price.IsPositive() {
				return nil, validationf("menu item %q has no valid price", mi.Name)
			}
			snap = model.OrderItem{MenuItemID: mi.ID, Name: mi.Name, UnitPrice: mi.Price}
		}
		index[r.MenuItemID] = len(out)
		out = append(out, model.NewOrderItem(snap.MenuItemID, snap.Name, snap.UnitPrice, r.Quantity))
	}
	return out, nil
}

// CreateOrder attaches a new pending order to a table.  An available table
// becomes occupied and starts its occupancy timer; on a reserved table the
// order confirms the guests' arrival.  Occupied and consuming tables keep
// their state.
func (c *Controller) CreateOrder(ctx context.Context, tableID string, reqs []ItemRequest) (model.Order, error) {
	if len(reqs) == 0 {
		return model.Order{}, validationf("an order needs at least one item")
	}
	unlock := c.locks.lock(tableID)
	defer unlock()

	t, err := c.tables.Get(tableID)
	if err != nil {
		return model.Order{}, tableNotFound(tableID)
	}
	if t.State == model.TablePaid {
		return model.Order{}, preconditionf("table %s is paid and waiting to be released", tableID)
	}
	items, err := c.resolveItems(reqs, nil)
	if err != nil {
		return model.Order{}, err
	}

	o, err := c.orders.Create(model.Order{
		TableID:   tableID,
		Items:     items,
		Total:     model.SumItems(items),
		Status:    model.OrderPending,
		CreatedAt: c.now(),
	})
	if err != nil {
		return model.Order{}, err
	}

	switch t.State {
	case model.TableAvailable:
		now := c.now()
		t.State = model.TableOccupied
		t.OccupiedSince = &now
	case model.TableReserved:
		c.arriveLocked(&t)
	}
	if err := c.tables.Save(t); err != nil {
		return model.Order{}, err
	}
	log.Infof("table %s: order %d created, total %s", tableID, o.ID, o.Total.StringFixed(2))
	c.emit(ctx, queue.EventOrderCreated, tableID, queue.OrderCreatedEvent{
		OrderID: o.ID, Items: len(o.Items), Total: o.Total.StringFixed(2),
	})
	return o, nil
}

// ListOrders returns every order in the ledger.
func (c *Controller) ListOrders() []model.Order { return c.orders.List() }

// ListTableOrders returns the orders of one table.
func (c *Controller) ListTableOrders(tableID string) ([]model.Order, error) {
	if _, err := c.tables.Get(tableID); err != nil {
		return nil, tableNotFound(tableID)
	}
	return c.orders.ListByTable(tableID), nil
}

// GetOrder returns one order.
func (c *Controller) GetOrder(id uint64) (model.Order, error) {
	o, err := c.orders.Get(id)
	if err != nil {
		return model.Order{}, notFoundf("order %d does not exist", id)
	}
	return o, nil
}

// lockOrder takes the lock of the order's table and re-reads the order
// inside it.
func (c *Controller) lockOrder(id uint64) (model.Order, func(), error) {
	o, err := c.orders.Get(id)
	if err != nil {
		return model.Order{}, nil, notFoundf("order %d does not exist", id)
	}
	unlock := c.locks.lock(o.TableID)
	o, err = c.orders.Get(id)
	if err != nil {
		unlock()
		return model.Order{}, nil, notFoundf("order %d does not exist", id)
	}
	return o, unlock, nil
}

// OrderPatch holds the optional fields of updateOrder.  Total, when sent,
// must match the recomputed total; status can only restate the current
// one because orders complete through payment.
type OrderPatch struct {
	Items  *[]ItemRequest     `json:"items"`
	Total  *decimal.Decimal   `json:"total"`
	Status *model.OrderStatus `json:"status"`
}

// UpdateOrder edits one pending order.  Emptying its items deletes it,
// under the same rule as DeleteOrder, and reports deleted.
func (c *Controller) UpdateOrder(id uint64, p OrderPatch) (model.Order, bool, error) {
	o, unlock, err := c.lockOrder(id)
	if err != nil {
		return model.Order{}, false, err
	}
	defer unlock()

	if o.Status != model.OrderPending {
		return model.Order{}, false, preconditionf("order %d is already paid and cannot change", id)
	}
	if p.Status != nil && *p.Status != o.Status {
		return model.Order{}, false, preconditionf("order %d can only be completed by paying table %s", id, o.TableID)
	}
	items := o.Items
	if p.Items != nil {
		if len(*p.Items) == 0 {
			if p.Total != nil && !p.Total.IsZero() {
				return model.Order{}, false, validationf("total %s does not match an empty order", p.Total.StringFixed(2))
			}
			if err := c.deleteOrderLocked(o); err != nil {
				return model.Order{}, false, err
			}
			return o, true, nil
		}
		items, err = c.resolveItems(*p.Items, o.Items)
		if err != nil {
			return model.Order{}, false, err
		}
	}
	total := model.SumItems(items)
	if p.Total != nil && !p.Total.Equal(total) {
		return model.Order{}, false, validationf("total %s does not match the items (%s)", p.Total.StringFixed(2), total.StringFixed(2))
	}
	o.Items = items
	o.Total = total
	out, err := c.orders.ApplyBatch([]repository.OrderOp{{Kind: repository.OpUpdate, Order: o}})
	if err != nil {
		return model.Order{}, false, fromBatch(err)
	}
	return out[0], false, nil
}

// DeleteOrder removes a pending order.  The last pending order of an
// occupied or consuming table cannot be deleted; the table has to be paid
// or edited instead.
func (c *Controller) DeleteOrder(id uint64) error {
	o, unlock, err := c.lockOrder(id)
	if err != nil {
		return err
	}
	defer unlock()
	return c.deleteOrderLocked(o)
}

func (c *Controller) deleteOrderLocked(o model.Order) error {
	if o.Status != model.OrderPending {
		return preconditionf("order %d is paid and kept as history", o.ID)
	}
	if t, err := c.tables.Get(o.TableID); err == nil {
		active := t.State == model.TableOccupied || t.State == model.TableConsuming
		if active && len(c.orders.PendingByTable(o.TableID)) == 1 {
			return preconditionf("order %d is the last order of table %s; pay or edit the table instead", o.ID, o.TableID)
		}
	}
	if err := c.orders.Delete(o.ID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return notFoundf("order %d does not exist", o.ID)
		}
		return err
	}
	log.Infof("table %s: order %d deleted", o.TableID, o.ID)
	return nil
}
