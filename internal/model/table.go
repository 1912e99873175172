package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TableState is the operational state of a dining table.
type TableState string

const (
	TableAvailable TableState = "AVAILABLE"
	TableOccupied  TableState = "OCCUPIED"
	TableConsuming TableState = "CONSUMING"
	TablePaid      TableState = "PAID"
	TableReserved  TableState = "RESERVED"
)

// Valid reports whether s is one of the known table states.
func (s TableState) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableConsuming, TablePaid, TableReserved:
		return true
	}
	return false
}

// Table represents a dining table in the Table Registry.  A table is the
// unit the lifecycle controller locks and transitions.
//
// Fields:
//  ID            – user visible identifier ("1", "2", ...).
//  Capacity      – number of seats, always positive.
//  State         – current lifecycle state.
//  OccupiedSince – set if and only if State is OCCUPIED.
//  Reservation   – denormalized copy of the active reservation; set if and
//                  only if State is RESERVED.
type Table struct {
	ID            string              `json:"id"`
	Capacity      int                 `json:"capacity"`
	State         TableState          `json:"state"`
	OccupiedSince *time.Time          `json:"occupied_since,omitempty"`
	Reservation   *ReservationPayload `json:"reservation,omitempty"`
}

// ReservationPayload is the projection of a Reservation kept on the table
// for display.  The Reservation Ledger remains the system of record.
type ReservationPayload struct {
	ReservationID uint64          `json:"reservation_id"`
	PaymentRef    string          `json:"payment_ref"`
	ReservedFor   time.Time       `json:"reserved_for"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Deposit       decimal.Decimal `json:"deposit"`
}

// Clone returns a deep copy so callers can mutate the result without
// touching registry state.
func (t Table) Clone() Table {
	out := t
	if t.OccupiedSince != nil {
		ts := *t.OccupiedSince
		out.OccupiedSince = &ts
	}
	if t.Reservation != nil {
		r := *t.Reservation
		out.Reservation = &r
	}
	return out
}
