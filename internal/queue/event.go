// Package queue defines the domain events exchanged over the message broker
// and the background consumer that records completed sales.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types double as queue names on the default exchange.
const (
	EventOrderCreated       = "order.created"
	EventSaleCompleted      = "sale.completed"
	EventTableReleased      = "table.released"
	EventReservationCreated = "reservation.created"
)

// Event is the envelope of every message published by the point of sale.
// Data holds one of the typed payloads below encoded as JSON.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	TableID    string          `json:"table_id"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id.
func NewEvent(typ, tableID string, data interface{}, at time.Time) (Event, error) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		TableID:    tableID,
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// OrderCreatedEvent is published when a new order is attached to a table.
type OrderCreatedEvent struct {
	OrderID uint64 `json:"order_id"`
	Items   int    `json:"items"`
	Total   string `json:"total"`
}

// SaleCompletedEvent is published once per payment.  It contains enough
// information for downstream consumers to log or run analytics without
// querying the service.
type SaleCompletedEvent struct {
	SaleID      uint64   `json:"sale_id"`
	Method      string   `json:"method"`
	Reference   string   `json:"reference,omitempty"`
	Total       string   `json:"total"`
	Change      string   `json:"change,omitempty"`
	OrderIDs    []uint64 `json:"order_ids"`
	CompletedAt string   `json:"completed_at"`
}

// TableReleasedEvent is published when a paid table becomes available.
type TableReleasedEvent struct {
	Manual bool `json:"manual"`
}

// ReservationCreatedEvent is published when a table is reserved.
type ReservationCreatedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	ReservedFor   string `json:"reserved_for"`
	Deposit       string `json:"deposit"`
}
