package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingArchive struct {
	mu    sync.Mutex
	sales []model.Sale
}

func (a *recordingArchive) Archive(_ context.Context, s model.Sale) error {
	a.mu.Lock()
	a.sales = append(a.sales, s)
	a.mu.Unlock()
	return nil
}

type fixture struct {
	c      *Controller
	clock  *fakeClock
	stores Stores
	events *recordingPublisher
}

// Menu ids used by the tests.
const (
	itemA    = 1 // 5.00
	itemX    = 2 // 20.00
	itemSoda = 3 // 3.00
	itemOff  = 4 // inactive
)

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := Stores{
		Tables:       repository.NewTableRepo(),
		Orders:       repository.NewOrderRepo(),
		Sales:        repository.NewSaleRepo(),
		Reservations: repository.NewReservationRepo(),
		Menu:         repository.NewMenuRepo(),
	}
	for _, mi := range []model.MenuItem{
		{ID: itemA, Name: "Item A", Price: decimal.RequireFromString("5.00"), Category: model.CategoryFood, Active: true},
		{ID: itemX, Name: "Item X", Price: decimal.RequireFromString("20.00"), Category: model.CategoryFood, Active: true},
		{ID: itemSoda, Name: "Soda", Price: decimal.RequireFromString("3.00"), Category: model.CategoryDrink, Active: true},
		{ID: itemOff, Name: "Seasonal", Price: decimal.RequireFromString("9.00"), Category: model.CategoryDessert, Active: false},
	} {
		_, err := st.Menu.Create(mi)
		require.NoError(t, err)
	}
	clock := &fakeClock{t: time.Date(2025, 3, 12, 19, 0, 0, 0, time.UTC)}
	if opts.Now == nil {
		opts.Now = clock.Now
	}
	events := &recordingPublisher{}
	if opts.Events == nil {
		opts.Events = events
	}
	if opts.ReleaseGrace == 0 {
		opts.ReleaseGrace = time.Hour
	}
	c := NewController(st, opts)
	t.Cleanup(c.Close)
	return &fixture{c: c, clock: clock, stores: st, events: events}
}

func (f *fixture) table(t *testing.T, capacity int) string {
	t.Helper()
	tb, err := f.c.CreateTable(TableInput{Capacity: capacity})
	require.NoError(t, err)
	return tb.ID
}

// consuming returns a consuming table holding one order of the given items.
func (f *fixture) consuming(t *testing.T, items ...ItemRequest) (string, model.Order) {
	t.Helper()
	id := f.table(t, 4)
	o, err := f.c.CreateOrder(context.Background(), id, items)
	require.NoError(t, err)
	_, err = f.c.StartConsuming(id)
	require.NoError(t, err)
	return id, o
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "got %v", err)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.NotEmpty(t, le.Message)
}

func assertOccupancyInvariant(t *testing.T, f *fixture) {
	t.Helper()
	for _, tb := range f.stores.Tables.List() {
		assert.Equal(t, tb.State == model.TableOccupied, tb.OccupiedSince != nil, "table %s in %s", tb.ID, tb.State)
		assert.Equal(t, tb.State == model.TableReserved, tb.Reservation != nil, "table %s in %s", tb.ID, tb.State)
	}
	for _, o := range f.stores.Orders.List() {
		total := decimal.Zero
		for _, it := range o.Items {
			assert.True(t, it.Subtotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))))
			total = total.Add(it.Subtotal)
		}
		assert.True(t, o.Total.Equal(total), "order %d total %s", o.ID, o.Total)
		assert.NotEmpty(t, o.Items)
	}
}

func TestCreateOrderOpensTable(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 4)

	o, err := f.c.CreateOrder(context.Background(), id, []ItemRequest{{MenuItemID: itemA, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, "10.00", o.Total.StringFixed(2))
	assert.Equal(t, model.OrderPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Item A", o.Items[0].Name)
	assert.Equal(t, "5.00", o.Items[0].UnitPrice.StringFixed(2))

	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, v.State)
	require.NotNil(t, v.OccupiedSince)
	assert.Equal(t, f.clock.Now(), *v.OccupiedSince)
	assert.Equal(t, 1, v.PendingOrders)
	assertOccupancyInvariant(t, f)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 2)
	ctx := context.Background()

	_, err := f.c.CreateOrder(ctx, id, nil)
	assertKind(t, err, ErrValidation)
	_, err = f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemA, Quantity: 0}})
	assertKind(t, err, ErrValidation)
	_, err = f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemOff, Quantity: 1}})
	assertKind(t, err, ErrValidation)
	_, err = f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: 99, Quantity: 1}})
	assertKind(t, err, ErrNotFound)
	_, err = f.c.CreateOrder(ctx, "404", []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	assertKind(t, err, ErrNotFound)

	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, v.State)
	assert.Empty(t, f.stores.Orders.List())
}

func TestCreateOrderMergesRepeatedItems(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 2)
	o, err := f.c.CreateOrder(context.Background(), id, []ItemRequest{
		{MenuItemID: itemSoda, Quantity: 1},
		{MenuItemID: itemA, Quantity: 1},
		{MenuItemID: itemSoda, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "14.00", o.Total.StringFixed(2))
}

func TestOrderKeepsPriceSnapshot(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 2)
	o, err := f.c.CreateOrder(context.Background(), id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)

	mi, err := f.stores.Menu.Get(itemA)
	require.NoError(t, err)
	mi.Price = decimal.RequireFromString("7.00")
	require.NoError(t, f.stores.Menu.Save(mi))

	qty := []ItemRequest{{MenuItemID: itemA, Quantity: 2}}
	updated, deleted, err := f.c.UpdateOrder(o.ID, OrderPatch{Items: &qty})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "10.00", updated.Total.StringFixed(2))
}

func TestPaymentCashWithChange(t *testing.T) {
	f := newFixture(t, Options{})
	id, o := f.consuming(t, ItemRequest{MenuItemID: itemX, Quantity: 1})
	tendered := decimal.RequireFromString("25.00")

	r, err := f.c.ProcessPayment(context.Background(), id, PaymentRequest{Method: model.PayCashUSD, Tendered: &tendered})
	require.NoError(t, err)
	assert.Equal(t, "20.00", r.Sale.Total.StringFixed(2))
	require.NotNil(t, r.Change)
	assert.Equal(t, "5.00", r.Change.StringFixed(2))
	assert.Equal(t, model.TablePaid, r.Table.State)
	require.Len(t, r.Sale.Orders, 1)
	assert.Equal(t, model.OrderCompleted, r.Sale.Orders[0].Status)

	stored, err := f.c.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, stored.Status)

	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TablePaid, v.State)
	assert.Nil(t, v.OccupiedSince)
	require.NotNil(t, v.ReleaseInSeconds)
	assert.Equal(t, 0, v.PendingOrders)
	assert.Len(t, f.c.ListSales(), 1)
	assertOccupancyInvariant(t, f)
}

func TestPaymentValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemX, Quantity: 1})

	short := decimal.RequireFromString("19.99")
	_, err := f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayCashBS, Tendered: &short})
	assertKind(t, err, ErrValidation)
	_, err = f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayCashEUR})
	assertKind(t, err, ErrValidation)
	_, err = f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayPagomovil, Reference: "  "})
	assertKind(t, err, ErrValidation)
	_, err = f.c.ProcessPayment(ctx, id, PaymentRequest{Method: "Cheque", Reference: "1"})
	assertKind(t, err, ErrValidation)
	_, err = f.c.ProcessPayment(ctx, id, PaymentRequest{})
	assertKind(t, err, ErrValidation)

	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableConsuming, v.State)
	assert.Empty(t, f.c.ListSales())

	exact := decimal.RequireFromString("20.00")
	r, err := f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayCashBS, Tendered: &exact})
	require.NoError(t, err)
	require.NotNil(t, r.Change)
	assert.True(t, r.Change.IsZero())
}

func TestPaymentWithReference(t *testing.T) {
	f := newFixture(t, Options{})
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1}, ItemRequest{MenuItemID: itemSoda, Quantity: 1})
	ignored := decimal.RequireFromString("100")

	r, err := f.c.ProcessPayment(context.Background(), id, PaymentRequest{Method: model.PayDebitCard, Reference: " 0042 ", Tendered: &ignored})
	require.NoError(t, err)
	assert.Equal(t, "0042", r.Sale.Reference)
	assert.Nil(t, r.Sale.Tendered)
	assert.Nil(t, r.Change)
	assert.Equal(t, "8.00", r.Sale.Total.StringFixed(2))
}

func TestPaymentPreconditions(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	ref := PaymentRequest{Method: model.PayBiopago, Reference: "77"}

	empty := f.table(t, 2)
	_, err := f.c.ProcessPayment(ctx, empty, ref)
	assertKind(t, err, ErrPreconditionFailed)

	occupied := f.table(t, 2)
	_, err = f.c.CreateOrder(ctx, occupied, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.c.ProcessPayment(ctx, occupied, ref)
	assertKind(t, err, ErrPreconditionFailed)

	_, err = f.c.ProcessPayment(ctx, "nope", ref)
	assertKind(t, err, ErrNotFound)
}

func TestPaymentTotalIgnoresOtherTables(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})
	_, err := f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemSoda, Quantity: 2}})
	require.NoError(t, err)
	other := f.table(t, 2)
	_, err = f.c.CreateOrder(ctx, other, []ItemRequest{{MenuItemID: itemX, Quantity: 1}})
	require.NoError(t, err)

	r, err := f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayPagomovil, Reference: "1"})
	require.NoError(t, err)
	assert.Equal(t, "11.00", r.Sale.Total.StringFixed(2))
	assert.Len(t, r.Sale.Orders, 2)
	assert.Len(t, f.stores.Orders.PendingByTable(other), 1)
}

func TestStartConsuming(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 2)
	_, err := f.c.StartConsuming(id)
	assertKind(t, err, ErrPreconditionFailed)

	_, err = f.c.CreateOrder(context.Background(), id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	v, err := f.c.StartConsuming(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableConsuming, v.State)
	assert.Nil(t, v.OccupiedSince)

	v, err = f.c.StartConsuming(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableConsuming, v.State)
	assertOccupancyInvariant(t, f)
}

func TestOccupancyTimerView(t *testing.T) {
	f := newFixture(t, Options{TimerAlertAfter: 12 * time.Minute})
	id := f.table(t, 2)
	_, err := f.c.CreateOrder(context.Background(), id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)

	f.clock.Advance(11*time.Minute + 5*time.Second)
	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, int64(665), v.ElapsedSeconds)
	assert.Equal(t, "11:05", v.Elapsed)
	assert.False(t, v.TimerAlert)

	f.clock.Advance(time.Minute)
	v, err = f.c.GetTable(id)
	require.NoError(t, err)
	assert.True(t, v.TimerAlert)

	_, err = f.c.StartConsuming(id)
	require.NoError(t, err)
	v, err = f.c.GetTable(id)
	require.NoError(t, err)
	assert.Empty(t, v.Elapsed)
	assert.False(t, v.TimerAlert)
}

func TestDeleteTable(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})

	assertKind(t, f.c.DeleteTable(id), ErrPreconditionFailed)
	_, err := f.c.GetTable(id)
	require.NoError(t, err)

	_, err = f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayPagomovil, Reference: "9"})
	require.NoError(t, err)
	require.NoError(t, f.c.DeleteTable(id))
	_, err = f.c.GetTable(id)
	assertKind(t, err, ErrNotFound)
	_, pending := f.c.release.Remaining(id)
	assert.False(t, pending)

	assertKind(t, f.c.DeleteTable(id), ErrNotFound)
	free := f.table(t, 6)
	require.NoError(t, f.c.DeleteTable(free))
}

func TestDeleteReservedTableCancelsReservation(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 4)
	res, err := f.c.ReserveTable(context.Background(), id, ReservationRequest{
		PaymentRef: "R-1", ReservedFor: f.clock.Now().Add(time.Hour), Deposit: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.NoError(t, f.c.DeleteTable(id))

	stored, err := f.stores.Reservations.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, stored.Status)
}

func TestReleaseTableIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})
	_, err := f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayBiopago, Reference: "5"})
	require.NoError(t, err)
	_, running := f.c.release.Remaining(id)
	require.True(t, running)

	v, err := f.c.ReleaseTable(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, v.State)
	assert.Nil(t, v.ReleaseInSeconds)

	v, err = f.c.ReleaseTable(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, v.State)

	// a countdown firing after the manual release finds nothing to do
	f.c.autoRelease(id, 1)
	v, err = f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, v.State)
	assertOccupancyInvariant(t, f)
}

func TestReleaseRejectsActiveTable(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 2)
	_, err := f.c.CreateOrder(context.Background(), id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.c.ReleaseTable(context.Background(), id)
	assertKind(t, err, ErrPreconditionFailed)
}

func TestAutoReleaseAfterGrace(t *testing.T) {
	f := newFixture(t, Options{ReleaseGrace: 30 * time.Millisecond, ReleaseTick: 10 * time.Millisecond})
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})
	_, err := f.c.ProcessPayment(context.Background(), id, PaymentRequest{Method: model.PayPagomovil, Reference: "1"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		v, err := f.c.GetTable(id)
		return err == nil && v.State == model.TableAvailable
	}, 2*time.Second, 5*time.Millisecond)

	f.c.Close()
	assert.Contains(t, f.events.types(), queue.EventTableReleased)
	assertOccupancyInvariant(t, f)
}

func TestCountdownDoesNotReleaseReservedTable(t *testing.T) {
	f := newFixture(t, Options{ReleaseGrace: 40 * time.Millisecond, ReleaseTick: 10 * time.Millisecond})
	ctx := context.Background()
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})
	_, err := f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayPagomovil, Reference: "1"})
	require.NoError(t, err)

	_, err = f.c.ReleaseTable(ctx, id)
	require.NoError(t, err)
	_, err = f.c.ReserveTable(ctx, id, ReservationRequest{
		PaymentRef: "R-2", ReservedFor: f.clock.Now().Add(time.Hour), Deposit: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableReserved, v.State)
}

func TestReserveTable(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.table(t, 4)
	target := f.clock.Now().Add(2 * time.Hour)

	res, err := f.c.ReserveTable(ctx, id, ReservationRequest{
		PaymentRef: "PM-889", ReservedFor: target, CustomerName: "Ana", Phone: "0414", Deposit: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationActive, res.Status)

	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableReserved, v.State)
	require.NotNil(t, v.Reservation)
	assert.Equal(t, *res.Payload(), *v.Reservation)
	assert.Equal(t, "10.00", v.Reservation.Deposit.StringFixed(2))
	assertOccupancyInvariant(t, f)

	_, err = f.c.ReserveTable(ctx, id, ReservationRequest{PaymentRef: "x", ReservedFor: target, Deposit: decimal.NewFromInt(1)})
	assertKind(t, err, ErrPreconditionFailed)
}

func TestReserveTableValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.table(t, 4)
	future := f.clock.Now().Add(time.Hour)

	_, err := f.c.ReserveTable(ctx, id, ReservationRequest{PaymentRef: "r", ReservedFor: future, Deposit: decimal.Zero})
	assertKind(t, err, ErrValidation)
	_, err = f.c.ReserveTable(ctx, id, ReservationRequest{PaymentRef: "r", ReservedFor: f.clock.Now(), Deposit: decimal.NewFromInt(1)})
	assertKind(t, err, ErrValidation)
	_, err = f.c.ReserveTable(ctx, id, ReservationRequest{ReservedFor: future, Deposit: decimal.NewFromInt(1)})
	assertKind(t, err, ErrValidation)
	assert.Empty(t, f.c.ListReservations())
}

func TestConfirmArrival(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	byOrder := f.table(t, 4)
	res, err := f.c.ReserveTable(ctx, byOrder, ReservationRequest{PaymentRef: "a", ReservedFor: f.clock.Now().Add(time.Hour), Deposit: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = f.c.CreateOrder(ctx, byOrder, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	v, err := f.c.GetTable(byOrder)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, v.State)
	assert.Nil(t, v.Reservation)
	stored, err := f.stores.Reservations.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCompleted, stored.Status)

	byAction := f.table(t, 2)
	_, err = f.c.ReserveTable(ctx, byAction, ReservationRequest{PaymentRef: "b", ReservedFor: f.clock.Now().Add(time.Hour), Deposit: decimal.NewFromInt(10)})
	require.NoError(t, err)
	v, err = f.c.ConfirmArrival(byAction)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, v.State)
	require.NotNil(t, v.OccupiedSince)

	_, err = f.c.ConfirmArrival(byAction)
	assertKind(t, err, ErrPreconditionFailed)
	assertOccupancyInvariant(t, f)
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 4)
	res, err := f.c.ReserveTable(context.Background(), id, ReservationRequest{PaymentRef: "a", ReservedFor: f.clock.Now().Add(time.Hour), Deposit: decimal.NewFromInt(10)})
	require.NoError(t, err)

	v, err := f.c.CancelReservation(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, v.State)
	assert.Nil(t, v.Reservation)
	stored, err := f.stores.Reservations.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, stored.Status)

	_, err = f.c.CancelReservation(id)
	assertKind(t, err, ErrPreconditionFailed)
}

func TestUpdateTable(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.table(t, 4)

	six := 6
	v, err := f.c.UpdateTable(ctx, id, TablePatch{Capacity: &six})
	require.NoError(t, err)
	assert.Equal(t, 6, v.Capacity)

	zero := 0
	_, err = f.c.UpdateTable(ctx, id, TablePatch{Capacity: &zero})
	assertKind(t, err, ErrValidation)

	paid := model.TablePaid
	_, err = f.c.UpdateTable(ctx, id, TablePatch{State: &paid})
	assertKind(t, err, ErrPreconditionFailed)

	bogus := model.TableState("dirty")
	_, err = f.c.UpdateTable(ctx, id, TablePatch{State: &bogus})
	assertKind(t, err, ErrValidation)

	_, err = f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	consuming := model.TableConsuming
	v, err = f.c.UpdateTable(ctx, id, TablePatch{State: &consuming})
	require.NoError(t, err)
	assert.Equal(t, model.TableConsuming, v.State)
	assertOccupancyInvariant(t, f)

	_, err = f.c.UpdateTable(ctx, "missing", TablePatch{Capacity: &six})
	assertKind(t, err, ErrNotFound)
}

func TestCreateTable(t *testing.T) {
	f := newFixture(t, Options{})
	_, err := f.c.CreateTable(TableInput{Capacity: 0})
	assertKind(t, err, ErrValidation)

	tb, err := f.c.CreateTable(TableInput{ID: "10", Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, tb.State)
	_, err = f.c.CreateTable(TableInput{ID: "10", Capacity: 2})
	assertKind(t, err, ErrPreconditionFailed)

	next, err := f.c.CreateTable(TableInput{Capacity: 2})
	require.NoError(t, err)
	assert.Equal(t, "11", next.ID)
}

func TestUpdateOrder(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.table(t, 2)
	o, err := f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)

	items := []ItemRequest{{MenuItemID: itemA, Quantity: 3}, {MenuItemID: itemSoda, Quantity: 1}}
	wrong := decimal.RequireFromString("10.00")
	_, _, err = f.c.UpdateOrder(o.ID, OrderPatch{Items: &items, Total: &wrong})
	assertKind(t, err, ErrValidation)

	right := decimal.RequireFromString("18.00")
	updated, _, err := f.c.UpdateOrder(o.ID, OrderPatch{Items: &items, Total: &right})
	require.NoError(t, err)
	assert.Equal(t, "18.00", updated.Total.StringFixed(2))

	done := model.OrderCompleted
	_, _, err = f.c.UpdateOrder(o.ID, OrderPatch{Status: &done})
	assertKind(t, err, ErrPreconditionFailed)

	none := []ItemRequest{}
	_, _, err = f.c.UpdateOrder(o.ID, OrderPatch{Items: &none})
	assertKind(t, err, ErrPreconditionFailed)

	_, _, err = f.c.UpdateOrder(999, OrderPatch{Items: &items})
	assertKind(t, err, ErrNotFound)
	assertOccupancyInvariant(t, f)
}

func TestUpdateOrderEmptyDeletesWhenOthersRemain(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.table(t, 2)
	first, err := f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemSoda, Quantity: 1}})
	require.NoError(t, err)

	none := []ItemRequest{}
	_, deleted, err := f.c.UpdateOrder(first.ID, OrderPatch{Items: &none})
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = f.c.GetOrder(first.ID)
	assertKind(t, err, ErrNotFound)
}

func TestCompletedOrderIsImmutable(t *testing.T) {
	f := newFixture(t, Options{})
	id, o := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})
	_, err := f.c.ProcessPayment(context.Background(), id, PaymentRequest{Method: model.PayPagomovil, Reference: "1"})
	require.NoError(t, err)

	items := []ItemRequest{{MenuItemID: itemA, Quantity: 5}}
	_, _, err = f.c.UpdateOrder(o.ID, OrderPatch{Items: &items})
	assertKind(t, err, ErrPreconditionFailed)
	assertKind(t, f.c.DeleteOrder(o.ID), ErrPreconditionFailed)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	id := f.table(t, 2)
	first, err := f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
	require.NoError(t, err)
	second, err := f.c.CreateOrder(ctx, id, []ItemRequest{{MenuItemID: itemSoda, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.c.DeleteOrder(first.ID))
	assertKind(t, f.c.DeleteOrder(second.ID), ErrPreconditionFailed)
	assertKind(t, f.c.DeleteOrder(first.ID), ErrNotFound)

	orders, err := f.c.ListTableOrders(id)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, second.ID, orders[0].ID)
}

func TestConcurrentOrdersGetDistinctIDs(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.table(t, 8)
	const n = 50

	var wg sync.WaitGroup
	ids := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.c.CreateOrder(context.Background(), id, []ItemRequest{{MenuItemID: itemA, Quantity: 1}})
			if assert.NoError(t, err) {
				ids <- o.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for oid := range ids {
		assert.False(t, seen[oid], "duplicate id %d", oid)
		seen[oid] = true
	}
	assert.Len(t, seen, n)

	v, err := f.c.GetTable(id)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, v.State)
	assert.Equal(t, n, v.PendingOrders)
	assert.Equal(t, "250.00", v.PendingTotal.StringFixed(2))
}

func TestConcurrentPaymentAndEdit(t *testing.T) {
	f := newFixture(t, Options{})
	id, o := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})

	var wg sync.WaitGroup
	var payErr, editErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, payErr = f.c.ProcessPayment(context.Background(), id, PaymentRequest{Method: model.PayPagomovil, Reference: "1"})
	}()
	go func() {
		defer wg.Done()
		_, editErr = f.c.EditOrders(context.Background(), id, EditRequest{
			Orders: []OrderEdit{{OrderID: o.ID, Items: []ItemRequest{{MenuItemID: itemA, Quantity: 4}}}},
		})
	}()
	wg.Wait()
	require.NoError(t, payErr)

	sales := f.c.ListSales()
	require.Len(t, sales, 1)
	if editErr == nil {
		// edit ran first, the sale charged the edited order
		assert.Equal(t, "20.00", sales[0].Total.StringFixed(2))
	} else {
		assertKind(t, editErr, ErrPreconditionFailed)
		assert.Equal(t, "5.00", sales[0].Total.StringFixed(2))
	}
	stored, err := f.c.GetOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, stored.Status)
	assert.True(t, stored.Total.Equal(sales[0].Orders[0].Total))
}

func TestSideEffects(t *testing.T) {
	archive := &recordingArchive{}
	f := newFixture(t, Options{Archive: archive})
	ctx := context.Background()
	id, _ := f.consuming(t, ItemRequest{MenuItemID: itemA, Quantity: 1})
	_, err := f.c.ProcessPayment(ctx, id, PaymentRequest{Method: model.PayPagomovil, Reference: "1"})
	require.NoError(t, err)
	other := f.table(t, 2)
	_, err = f.c.ReserveTable(ctx, other, ReservationRequest{PaymentRef: "d", ReservedFor: f.clock.Now().Add(time.Hour), Deposit: decimal.NewFromInt(3)})
	require.NoError(t, err)

	f.c.Close()
	assert.ElementsMatch(t,
		[]string{queue.EventOrderCreated, queue.EventSaleCompleted, queue.EventReservationCreated},
		f.events.types())
	archive.mu.Lock()
	defer archive.mu.Unlock()
	require.Len(t, archive.sales, 1)
	assert.Equal(t, id, archive.sales[0].TableID)
}
