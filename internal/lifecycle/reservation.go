package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
)

// ReservationRequest is the reservation form.
type ReservationRequest struct {
	PaymentRef   string          `json:"payment_ref"`
	ReservedFor  time.Time       `json:"reserved_for"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Deposit      decimal.Decimal `json:"deposit"`
}

// ReserveTable books an available table.  The Reservation Ledger entry and
// the table's payload are written in the same critical section.
func (c *Controller) ReserveTable(ctx context.Context, tableID string, req ReservationRequest) (model.Reservation, error) {
	req.PaymentRef = strings.TrimSpace(req.PaymentRef)
	if req.PaymentRef == "" {
		return model.Reservation{}, validationf("the deposit payment reference is required")
	}
	if !req.Deposit.IsPositive() {
		return model.Reservation{}, validationf("the deposit must be greater than zero")
	}
	now := c.now()
	if !req.ReservedFor.After(now) {
		return model.Reservation{}, validationf("the reservation date must be in the future")
	}

	unlock := c.locks.lock(tableID)
	defer unlock()

	t, err := c.tables.Get(tableID)
	if err != nil {
		return model.Reservation{}, tableNotFound(tableID)
	}
	if t.State != model.TableAvailable {
		return model.Reservation{}, preconditionf("table %s is %s; only available tables can be reserved", tableID, t.State)
	}

	res := c.reservations.Create(model.Reservation{
		TableID:      tableID,
		PaymentRef:   req.PaymentRef,
		ReservedFor:  req.ReservedFor,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		Deposit:      req.Deposit,
		CreatedAt:    now,
		Status:       model.ReservationActive,
	})
	c.release.Cancel(tableID)
	t.State = model.TableReserved
	t.OccupiedSince = nil
	t.Reservation = res.Payload()
	if err := c.tables.Save(t); err != nil {
		return model.Reservation{}, err
	}
	log.Infof("table %s reserved for %s (reservation %d)", tableID, res.ReservedFor.Format(time.RFC3339), res.ID)
	c.emit(ctx, queue.EventReservationCreated, tableID, queue.ReservationCreatedEvent{
		ReservationID: res.ID,
		ReservedFor:   res.ReservedFor.UTC().Format(time.RFC3339),
		Deposit:       res.Deposit.StringFixed(2),
	})
	return res, nil
}

// CancelReservation frees a reserved table and cancels its reservation.
func (c *Controller) CancelReservation(tableID string) (TableView, error) {
	unlock := c.locks.lock(tableID)
	t, err := c.tables.Get(tableID)
	if err != nil {
		unlock()
		return TableView{}, tableNotFound(tableID)
	}
	if t.State != model.TableReserved {
		unlock()
		return TableView{}, preconditionf("table %s is %s and has no reservation to cancel", tableID, t.State)
	}
	c.cancelReservationLocked(&t)
	err = c.tables.Save(t)
	unlock()
	if err != nil {
		return TableView{}, err
	}
	return c.view(t), nil
}

func (c *Controller) cancelReservationLocked(t *model.Table) {
	if t.Reservation != nil {
		if err := c.reservations.SetStatus(t.Reservation.ReservationID, model.ReservationCancelled); err != nil {
			log.Warningf("table %s: reservation %d: %v", t.ID, t.Reservation.ReservationID, err)
		}
		log.Infof("table %s: reservation %d cancelled", t.ID, t.Reservation.ReservationID)
	}
	t.State = model.TableAvailable
	t.OccupiedSince = nil
	t.Reservation = nil
}

// ListReservations returns the Reservation Ledger.
func (c *Controller) ListReservations() []model.Reservation { return c.reservations.List() }
