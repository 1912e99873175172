// Package lifecycle is the table lifecycle controller: the only component
// allowed to move a table between states and to write the order, sale and
// reservation ledgers as a consequence.
//
// Every mutation of a table and of its orders runs inside that table's
// critical section.  Side effects that leave the process (domain events,
// the MySQL sale archive) run after the ledgers are written and never fail
// the operation.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	logging "github.com/op/go-logging"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
	"github.com/iliyamo/restaurant-pos/internal/utils"
)

var log = logging.MustGetLogger("lifecycle")

// EventPublisher delivers domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// SaleArchive keeps a durable copy of completed sales.
type SaleArchive interface {
	Archive(ctx context.Context, s model.Sale) error
}

// Stores groups the ledgers the controller writes to.
type Stores struct {
	Tables       *repository.TableRepo
	Orders       *repository.OrderRepo
	Sales        *repository.SaleRepo
	Reservations *repository.ReservationRepo
	Menu         *repository.MenuRepo
}

// Options tunes timing and optional collaborators.  Zero values mean a 10
// second release grace on a 1 second tick, a 12 minute occupancy alert and
// the wall clock.
type Options struct {
	ReleaseGrace    time.Duration
	ReleaseTick     time.Duration
	TimerAlertAfter time.Duration
	Now             func() time.Time
	Events          EventPublisher
	Archive         SaleArchive
}

// Controller orchestrates table state transitions.
type Controller struct {
	tables       *repository.TableRepo
	orders       *repository.OrderRepo
	sales        *repository.SaleRepo
	reservations *repository.ReservationRepo
	menu         *repository.MenuRepo

	grace      time.Duration
	tick       time.Duration
	alertAfter time.Duration
	now        func() time.Time
	events     EventPublisher
	archive    SaleArchive

	locks   tableLocks
	release *ReleaseScheduler
	effects sync.WaitGroup
}

// NewController wires a controller over the given ledgers.
func NewController(st Stores, opts Options) *Controller {
	c := &Controller{
		tables:       st.Tables,
		orders:       st.Orders,
		sales:        st.Sales,
		reservations: st.Reservations,
		menu:         st.Menu,
		grace:        opts.ReleaseGrace,
		tick:         opts.ReleaseTick,
		alertAfter:   opts.TimerAlertAfter,
		now:          opts.Now,
		events:       opts.Events,
		archive:      opts.Archive,
	}
	if c.grace <= 0 {
		c.grace = 10 * time.Second
	}
	if c.tick <= 0 {
		c.tick = time.Second
	}
	if c.alertAfter <= 0 {
		c.alertAfter = 12 * time.Minute
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.release = NewReleaseScheduler(c.tick, c.autoRelease)
	return c
}

// Close cancels pending release countdowns and waits for in-flight side
// effects.
func (c *Controller) Close() {
	c.release.Stop()
	c.effects.Wait()
}

// TableView is a table plus the derived values shown to operators.  None
// of the derived fields is stored.
type TableView struct {
	model.Table
	PendingOrders    int             `json:"pending_orders"`
	PendingTotal     decimal.Decimal `json:"pending_total"`
	ElapsedSeconds   int64           `json:"elapsed_seconds,omitempty"`
	Elapsed          string          `json:"elapsed,omitempty"`
	TimerAlert       bool            `json:"timer_alert"`
	ReleaseInSeconds *int            `json:"release_in_seconds,omitempty"`
}

func (c *Controller) view(t model.Table) TableView {
	v := TableView{Table: t, PendingTotal: decimal.Zero}
	for _, o := range c.orders.PendingByTable(t.ID) {
		v.PendingOrders++
		v.PendingTotal = v.PendingTotal.Add(model.SumItems(o.Items))
	}
	if t.State == model.TableOccupied && t.OccupiedSince != nil {
		elapsed := c.now().Sub(*t.OccupiedSince)
		if elapsed < 0 {
			elapsed = 0
		}
		v.ElapsedSeconds = int64(elapsed / time.Second)
		v.Elapsed = utils.FormatElapsed(elapsed)
		v.TimerAlert = elapsed > c.alertAfter
	}
	if t.State == model.TablePaid {
		if ticks, ok := c.release.Remaining(t.ID); ok {
			secs := int((time.Duration(ticks)*c.tick + time.Second - 1) / time.Second)
			v.ReleaseInSeconds = &secs
		}
	}
	return v
}

// ListTables returns every table with its derived display values.
func (c *Controller) ListTables() []TableView {
	tables := c.tables.List()
	out := make([]TableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, c.view(t))
	}
	return out
}

// GetTable returns one table view.
func (c *Controller) GetTable(id string) (TableView, error) {
	t, err := c.tables.Get(id)
	if err != nil {
		return TableView{}, tableNotFound(id)
	}
	return c.view(t), nil
}

// TableInput describes a new table.  ID may be empty to let the registry
// allocate the next number.
type TableInput struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
}

// CreateTable registers an available table.
func (c *Controller) CreateTable(in TableInput) (model.Table, error) {
	if in.Capacity <= 0 {
		return model.Table{}, validationf("capacity must be a positive number of seats")
	}
	t, err := c.tables.Create(model.Table{ID: in.ID, Capacity: in.Capacity, State: model.TableAvailable})
	if errors.Is(err, repository.ErrConflict) {
		return model.Table{}, preconditionf("table %s already exists", in.ID)
	}
	if err != nil {
		return model.Table{}, err
	}
	log.Infof("table %s created with %d seats", t.ID, t.Capacity)
	return t, nil
}

// TablePatch holds the optional fields of updateTable.  A state change is
// routed through the matching transition, so only moves the state machine
// allows are accepted.
type TablePatch struct {
	Capacity *int              `json:"capacity"`
	State    *model.TableState `json:"state"`
}

// UpdateTable applies a partial update.
func (c *Controller) UpdateTable(ctx context.Context, id string, p TablePatch) (TableView, error) {
	if p.Capacity != nil && *p.Capacity <= 0 {
		return TableView{}, validationf("capacity must be a positive number of seats")
	}
	if p.State != nil && !p.State.Valid() {
		return TableView{}, validationf("unknown table state %q", *p.State)
	}

	unlock := c.locks.lock(id)
	t, err := c.tables.Get(id)
	if err != nil {
		unlock()
		return TableView{}, tableNotFound(id)
	}
	if p.State != nil && *p.State != t.State {
		if err := c.transitionLocked(ctx, &t, *p.State); err != nil {
			unlock()
			return TableView{}, err
		}
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	err = c.tables.Save(t)
	unlock()
	if err != nil {
		return TableView{}, err
	}
	return c.view(t), nil
}

func (c *Controller) transitionLocked(ctx context.Context, t *model.Table, to model.TableState) error {
	switch {
	case t.State == model.TableReserved && to == model.TableOccupied:
		c.arriveLocked(t)
	case t.State == model.TableOccupied && to == model.TableConsuming:
		c.consumeLocked(t)
	case t.State == model.TablePaid && to == model.TableAvailable:
		c.releaseLocked(ctx, t, true)
	case t.State == model.TableReserved && to == model.TableAvailable:
		c.cancelReservationLocked(t)
	case to == model.TableOccupied && t.State == model.TableAvailable:
		return preconditionf("table %s is opened by creating its first order", t.ID)
	case to == model.TablePaid:
		return preconditionf("table %s can only become paid by processing a payment", t.ID)
	case to == model.TableReserved:
		return preconditionf("table %s is reserved through the reservation form", t.ID)
	default:
		return preconditionf("table %s cannot change from %s to %s", t.ID, t.State, to)
	}
	return nil
}

// DeleteTable removes a table that has no pending orders.  A running
// release countdown is cancelled and an active reservation is cancelled.
func (c *Controller) DeleteTable(id string) error {
	unlock := c.locks.lock(id)
	defer unlock()

	t, err := c.tables.Get(id)
	if err != nil {
		return tableNotFound(id)
	}
	if n := len(c.orders.PendingByTable(id)); n > 0 {
		return preconditionf("table %s still has %d pending orders", id, n)
	}
	if t.State == model.TableReserved {
		c.cancelReservationLocked(&t)
	}
	c.release.Cancel(id)
	if err := c.tables.Delete(id); err != nil {
		return tableNotFound(id)
	}
	log.Infof("table %s deleted", id)
	return nil
}

// ConfirmArrival seats the guests of a reserved table.
func (c *Controller) ConfirmArrival(id string) (TableView, error) {
	unlock := c.locks.lock(id)
	t, err := c.tables.Get(id)
	if err != nil {
		unlock()
		return TableView{}, tableNotFound(id)
	}
	if t.State != model.TableReserved {
		unlock()
		return TableView{}, preconditionf("table %s is %s; only reserved tables can confirm an arrival", id, t.State)
	}
	c.arriveLocked(&t)
	err = c.tables.Save(t)
	unlock()
	if err != nil {
		return TableView{}, err
	}
	return c.view(t), nil
}

// arriveLocked moves a reserved table to occupied and completes its
// reservation.  The payload is dropped from the table; the ledger keeps
// the reservation.
func (c *Controller) arriveLocked(t *model.Table) {
	if t.Reservation != nil {
		if err := c.reservations.SetStatus(t.Reservation.ReservationID, model.ReservationCompleted); err != nil {
			log.Warningf("table %s: reservation %d: %v", t.ID, t.Reservation.ReservationID, err)
		}
	}
	now := c.now()
	t.State = model.TableOccupied
	t.OccupiedSince = &now
	t.Reservation = nil
	log.Infof("table %s: reservation arrived", t.ID)
}

// StartConsuming moves an occupied table to consuming.  A table that is
// already consuming is returned unchanged.
func (c *Controller) StartConsuming(id string) (TableView, error) {
	unlock := c.locks.lock(id)
	t, err := c.tables.Get(id)
	if err != nil {
		unlock()
		return TableView{}, tableNotFound(id)
	}
	switch t.State {
	case model.TableConsuming:
	case model.TableOccupied:
		c.consumeLocked(&t)
		err = c.tables.Save(t)
	default:
		unlock()
		return TableView{}, preconditionf("table %s is %s; only occupied tables can start consuming", id, t.State)
	}
	unlock()
	if err != nil {
		return TableView{}, err
	}
	return c.view(t), nil
}

func (c *Controller) consumeLocked(t *model.Table) {
	t.State = model.TableConsuming
	t.OccupiedSince = nil
}

// ReleaseTable frees a paid table immediately and cancels its countdown.
// Releasing a table that is already available is a no-op.
func (c *Controller) ReleaseTable(ctx context.Context, id string) (TableView, error) {
	unlock := c.locks.lock(id)
	t, err := c.tables.Get(id)
	if err != nil {
		unlock()
		return TableView{}, tableNotFound(id)
	}
	switch t.State {
	case model.TableAvailable:
		c.release.Cancel(id)
	case model.TablePaid:
		c.releaseLocked(ctx, &t, true)
		err = c.tables.Save(t)
	default:
		unlock()
		return TableView{}, preconditionf("table %s is %s; only paid tables can be released", id, t.State)
	}
	unlock()
	if err != nil {
		return TableView{}, err
	}
	return c.view(t), nil
}

func (c *Controller) releaseLocked(ctx context.Context, t *model.Table, manual bool) {
	c.release.Cancel(t.ID)
	t.State = model.TableAvailable
	t.OccupiedSince = nil
	t.Reservation = nil
	log.Infof("table %s released (manual=%t)", t.ID, manual)
	c.emit(ctx, queue.EventTableReleased, t.ID, queue.TableReleasedEvent{Manual: manual})
}

// autoRelease is the countdown callback.  A countdown that was cancelled
// or replaced, or that finds the table gone or no longer paid, does nothing.
func (c *Controller) autoRelease(tableID string, gen uint64) {
	unlock := c.locks.lock(tableID)
	defer unlock()
	if !c.release.Claim(tableID, gen) {
		return
	}
	t, err := c.tables.Get(tableID)
	if err != nil || t.State != model.TablePaid {
		return
	}
	c.releaseLocked(context.Background(), &t, false)
	if err := c.tables.Save(t); err != nil {
		log.Errorf("table %s: auto release: %v", tableID, err)
	}
}

// emit publishes an event in the background.  Failures are logged only.
func (c *Controller) emit(ctx context.Context, typ, tableID string, data interface{}) {
	if c.events == nil {
		return
	}
	ev, err := queue.NewEvent(typ, tableID, data, c.now())
	if err != nil {
		log.Errorf("build %s event: %v", typ, err)
		return
	}
	c.background(ctx, func(ctx context.Context) {
		if err := c.events.Publish(ctx, ev); err != nil {
			log.Warningf("publish %s for table %s: %v", typ, tableID, err)
		}
	})
}

func (c *Controller) background(ctx context.Context, fn func(context.Context)) {
	c.effects.Add(1)
	go func() {
		defer c.effects.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		fn(bctx)
	}()
}
