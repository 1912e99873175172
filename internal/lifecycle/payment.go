package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/queue"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// PaymentRequest is the payment form.  Reference is read for the
// reference based methods and Tendered for the cash methods; the other
// field is ignored.
type PaymentRequest struct {
	Method    model.PaymentMethod `json:"method"`
	Reference string              `json:"reference"`
	Tendered  *decimal.Decimal    `json:"tendered"`
}

// Receipt is returned by a successful payment.  Change is only set for
// cash and is never stored.
type Receipt struct {
	Sale             model.Sale       `json:"sale"`
	Change           *decimal.Decimal `json:"change,omitempty"`
	Table            model.Table      `json:"table"`
	ReleaseInSeconds int              `json:"release_in_seconds"`
}

func validatePaymentForm(req *PaymentRequest) error {
	if req.Method == "" {
		return validationf("payment method is required")
	}
	if !req.Method.Valid() {
		return validationf("unknown payment method %q", req.Method)
	}
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Method.RequiresReference() {
		if req.Reference == "" {
			return validationf("%s requires a payment reference", req.Method)
		}
		req.Tendered = nil
		return nil
	}
	req.Reference = ""
	if req.Tendered == nil {
		return validationf("%s requires the amount tendered", req.Method)
	}
	return nil
}

// ProcessPayment charges a consuming table.  The total is the sum of the
// table's pending orders at submission time.  On success the sale is
// recorded, every paid order is completed, the table becomes paid and its
// release countdown starts.
func (c *Controller) ProcessPayment(ctx context.Context, tableID string, req PaymentRequest) (Receipt, error) {
	if err := validatePaymentForm(&req); err != nil {
		return Receipt{}, err
	}

	unlock := c.locks.lock(tableID)
	defer unlock()

	t, err := c.tables.Get(tableID)
	if err != nil {
		return Receipt{}, tableNotFound(tableID)
	}
	if t.State != model.TableConsuming {
		return Receipt{}, preconditionf("table %s is %s; payment is taken once the table is consuming", tableID, t.State)
	}
	pending := c.orders.PendingByTable(tableID)
	if len(pending) == 0 {
		return Receipt{}, preconditionf("table %s has no orders to pay", tableID)
	}
	total := decimal.Zero
	for _, o := range pending {
		total = total.Add(model.SumItems(o.Items))
	}

	if err := checkSale(req, total); err != nil {
		return Receipt{}, err
	}
	var change *decimal.Decimal
	if req.Method.IsCash() {
		ch := req.Tendered.Sub(total)
		change = &ch
	}

	ops := make([]repository.OrderOp, 0, len(pending))
	for _, o := range pending {
		ops = append(ops, repository.OrderOp{Kind: repository.OpComplete, Order: o})
	}
	paid, err := c.orders.ApplyBatch(ops)
	if err != nil {
		return Receipt{}, fromBatch(err)
	}

	sale := c.createSale(tableID, req, total, paid)

	t.State = model.TablePaid
	t.OccupiedSince = nil
	if err := c.tables.Save(t); err != nil {
		return Receipt{}, err
	}
	ticks := c.release.Ticks(c.grace)
	c.release.Schedule(tableID, ticks)
	log.Infof("table %s: sale %d paid with %s, total %s", tableID, sale.ID, sale.Method, sale.Total.StringFixed(2))

	c.sideEffectsOfSale(ctx, sale, change)
	return Receipt{
		Sale:             sale,
		Change:           change,
		Table:            t,
		ReleaseInSeconds: int((time.Duration(ticks)*c.tick + time.Second - 1) / time.Second),
	}, nil
}

// checkSale enforces the sale invariants against the computed total: a
// reference for reference based methods, tendered covering the total for
// cash.
func checkSale(req PaymentRequest, total decimal.Decimal) error {
	if req.Method.RequiresReference() && req.Reference == "" {
		return validationf("%s requires a payment reference", req.Method)
	}
	if req.Method.IsCash() && (req.Tendered == nil || req.Tendered.LessThan(total)) {
		tendered := "nothing"
		if req.Tendered != nil {
			tendered = req.Tendered.StringFixed(2)
		}
		return validationf("amount tendered %s is less than the total %s", tendered, total.StringFixed(2))
	}
	return nil
}

// createSale appends the sale to the ledger.  The paid orders are stored
// as value snapshots.
func (c *Controller) createSale(tableID string, req PaymentRequest, total decimal.Decimal, orders []model.Order) model.Sale {
	var tendered *decimal.Decimal
	if req.Tendered != nil {
		v := *req.Tendered
		tendered = &v
	}
	return c.sales.Create(model.Sale{
		TableID:   tableID,
		Method:    req.Method,
		Reference: req.Reference,
		Tendered:  tendered,
		Total:     total,
		CreatedAt: c.now(),
		Orders:    orders,
	})
}

func (c *Controller) sideEffectsOfSale(ctx context.Context, sale model.Sale, change *decimal.Decimal) {
	if c.archive != nil {
		c.background(ctx, func(ctx context.Context) {
			if err := c.archive.Archive(ctx, sale); err != nil {
				log.Warningf("archive sale %d: %v", sale.ID, err)
			}
		})
	}
	ev := queue.SaleCompletedEvent{
		SaleID:      sale.ID,
		Method:      string(sale.Method),
		Reference:   sale.Reference,
		Total:       sale.Total.StringFixed(2),
		OrderIDs:    make([]uint64, 0, len(sale.Orders)),
		CompletedAt: sale.CreatedAt.UTC().Format(time.RFC3339),
	}
	if change != nil {
		ev.Change = change.StringFixed(2)
	}
	for _, o := range sale.Orders {
		ev.OrderIDs = append(ev.OrderIDs, o.ID)
	}
	c.emit(ctx, queue.EventSaleCompleted, sale.TableID, ev)
}

// ListSales returns the Sale Ledger.
func (c *Controller) ListSales() []model.Sale { return c.sales.List() }
