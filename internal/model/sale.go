package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a table paid.  The values are the names
// operators see at the till.
type PaymentMethod string

const (
	PayPagomovil PaymentMethod = "Pagomovil"
	PayBiopago   PaymentMethod = "Biopago"
	PayDebitCard PaymentMethod = "Tarjeta de débito"
	PayCashBS    PaymentMethod = "Efectivo BS"
	PayCashUSD   PaymentMethod = "Efectivo USD"
	PayCashEUR   PaymentMethod = "Efectivo EUR"
)

// PaymentMethods lists every accepted method in display order.
var PaymentMethods = []PaymentMethod{PayPagomovil, PayBiopago, PayDebitCard, PayCashBS, PayCashUSD, PayCashEUR}

// Valid reports whether m is an accepted method.
func (m PaymentMethod) Valid() bool {
	return m.IsCash() || m.RequiresReference()
}

// IsCash reports whether the method takes a tendered amount.
func (m PaymentMethod) IsCash() bool {
	switch m {
	case PayCashBS, PayCashUSD, PayCashEUR:
		return true
	}
	return false
}

// RequiresReference reports whether the method needs a payment reference.
func (m PaymentMethod) RequiresReference() bool {
	switch m {
	case PayPagomovil, PayBiopago, PayDebitCard:
		return true
	}
	return false
}

// Sale is the immutable record of one payment event.  Orders holds value
// snapshots of the paid orders, so later Order Ledger changes never alter
// a sale's financial history.
type Sale struct {
	ID        uint64           `json:"id"`
	TableID   string           `json:"table_id"`
	Method    PaymentMethod    `json:"method"`
	Reference string           `json:"reference,omitempty"`
	Tendered  *decimal.Decimal `json:"tendered,omitempty"`
	Total     decimal.Decimal  `json:"total"`
	CreatedAt time.Time        `json:"created_at"`
	Orders    []Order          `json:"orders"`
}
