package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the payment status of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
)

// OrderItem is one line of an order.  Name and UnitPrice are snapshots of
// the menu item taken when the line was added, so later catalog edits do
// not change what the table owes.
type OrderItem struct {
	MenuItemID uint64          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// NewOrderItem builds a line with its subtotal computed.
func NewOrderItem(menuItemID uint64, name string, unitPrice decimal.Decimal, qty int) OrderItem {
	it := OrderItem{MenuItemID: menuItemID, Name: name, UnitPrice: unitPrice, Quantity: qty}
	it.Subtotal = it.ComputeSubtotal()
	return it
}

// ComputeSubtotal returns quantity × unit price.
func (it OrderItem) ComputeSubtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Order groups the line items a waiter submitted for a table.
//
// Fields:
//  ID        – sequential identifier allocated by the Order Ledger.
//  TableID   – owning table.
//  Items     – ordered line items, never empty once persisted.
//  Total     – sum of item subtotals at last save.
//  Status    – PENDING until the table pays, then COMPLETED.
//  CreatedAt – creation timestamp.
type Order struct {
	ID        uint64          `json:"id"`
	TableID   string          `json:"table_id"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// SumItems returns the sum of the line subtotals, recomputing each one.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.ComputeSubtotal())
	}
	return total
}

// Clone returns a deep copy of the order, including its items slice.
func (o Order) Clone() Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	return out
}
