package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus tracks a reservation from booking to arrival.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation records a table booked for a future date with a deposit.
//
// Fields:
//  ID           – sequential identifier.
//  TableID      – reserved table.
//  PaymentRef   – reference of the deposit payment.
//  ReservedFor  – target date/time, strictly in the future at creation.
//  CustomerName – optional guest name.
//  Phone        – optional guest phone.
//  Deposit      – deposit amount, always positive.
//  CreatedAt    – creation timestamp; reports filter on it.
//  Status       – ACTIVE, COMPLETED (guest arrived) or CANCELLED.
type Reservation struct {
	ID           uint64            `json:"id"`
	TableID      string            `json:"table_id"`
	PaymentRef   string            `json:"payment_ref"`
	ReservedFor  time.Time         `json:"reserved_for"`
	CustomerName string            `json:"customer_name,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Deposit      decimal.Decimal   `json:"deposit"`
	CreatedAt    time.Time         `json:"created_at"`
	Status       ReservationStatus `json:"status"`
}

// Payload projects the reservation onto the table.
func (r Reservation) Payload() *ReservationPayload {
	return &ReservationPayload{
		ReservationID: r.ID,
		PaymentRef:    r.PaymentRef,
		ReservedFor:   r.ReservedFor,
		CustomerName:  r.CustomerName,
		Phone:         r.Phone,
		Deposit:       r.Deposit,
	}
}
