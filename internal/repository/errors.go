// Package repository holds the in-memory ledgers of the point of sale
// (tables, orders, sales, reservations, catalog) and the optional MySQL
// sale archive.  Every ledger is an encapsulated store with its own lock;
// callers always receive copies, never pointers into ledger state.
//
// The sentinel values below allow higher layers such as the lifecycle
// controller and the handlers to distinguish between failure scenarios.
package repository

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a create cannot proceed because the
// identifier is already taken, such as creating table "3" twice.
var ErrConflict = errors.New("conflict")

// Not-found sentinels, one per ledger.
var (
	ErrTableNotFound         = errors.New("table not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrSaleNotFound          = errors.New("sale not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrMenuItemNotFound      = errors.New("menu item not found")
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrUserNotFound          = errors.New("user not found")
)

// StepError reports which operation of an order batch failed.  Applied is
// the number of operations that had already been applied when the failure
// happened.
type StepError struct {
	Step    int
	Op      OpKind
	OrderID uint64
	Applied int
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s order %d): %v", e.Step+1, e.Op, e.OrderID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
