// Package report aggregates the Sale and Reservation ledgers by period.
// It only reads.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

// Period selectors.
const (
	CurrentWeek   = "current_week"
	PreviousWeek  = "previous_week"
	CurrentMonth  = "current_month"
	PreviousMonth = "previous_month"
	LastSevenDays = "last_7_days"
)

// Range returns the inclusive bounds of a period around now, in now's
// location.  Weeks start on Sunday at midnight and a period ends at the
// last millisecond of its last day.  An empty period means the current
// week; an unknown one falls back to the seven days before now.
func Range(period string, now time.Time) (start, end time.Time, resolved string) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	switch period {
	case "", CurrentWeek:
		return weekStart, endOfDay(weekStart.AddDate(0, 0, 6)), CurrentWeek
	case PreviousWeek:
		prev := weekStart.AddDate(0, 0, -7)
		return prev, endOfDay(prev.AddDate(0, 0, 6)), PreviousWeek
	case CurrentMonth:
		// day 0 of next month is the last day of this one
		last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, loc)
		return monthStart, endOfDay(last), CurrentMonth
	case PreviousMonth:
		first := monthStart.AddDate(0, -1, 0)
		last := time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, loc)
		return first, endOfDay(last), PreviousMonth
	}
	return now.AddDate(0, 0, -7), now, LastSevenDays
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Millisecond)
}

// Summary is the report for one period.  Sales and Reservations are the
// matching detail rows, newest first.
type Summary struct {
	Period           string              `json:"period"`
	From             time.Time           `json:"from"`
	To               time.Time           `json:"to"`
	TotalBilled      decimal.Decimal     `json:"total_billed"`
	TotalDeposits    decimal.Decimal     `json:"total_deposits"`
	SaleCount        int                 `json:"sale_count"`
	ReservationCount int                 `json:"reservation_count"`
	MostUsedMethod   model.PaymentMethod `json:"most_used_method,omitempty"`
	Sales            []model.Sale        `json:"sales"`
	Reservations     []model.Reservation `json:"reservations"`
}

// Engine builds summaries.
type Engine struct {
	sales        *repository.SaleRepo
	reservations *repository.ReservationRepo
	loc          *time.Location
	now          func() time.Time
}

// NewEngine returns an engine computing periods in loc.
func NewEngine(sales *repository.SaleRepo, reservations *repository.ReservationRepo, loc *time.Location, now func() time.Time) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{sales: sales, reservations: reservations, loc: loc, now: now}
}

// Summary aggregates the ledgers for the period.
func (e *Engine) Summary(period string) Summary {
	start, end, resolved := Range(period, e.now().In(e.loc))
	sales := e.sales.Between(start, end)
	reservations := e.reservations.CreatedBetween(start, end)

	s := Summary{
		Period:           resolved,
		From:             start,
		To:               end,
		TotalBilled:      decimal.Zero,
		TotalDeposits:    decimal.Zero,
		SaleCount:        len(sales),
		ReservationCount: len(reservations),
		MostUsedMethod:   MostUsedMethod(sales),
	}
	for _, sale := range sales {
		s.TotalBilled = s.TotalBilled.Add(sale.Total)
	}
	for _, r := range reservations {
		s.TotalDeposits = s.TotalDeposits.Add(r.Deposit)
	}

	sort.SliceStable(sales, func(i, j int) bool { return newer(sales[i].CreatedAt, sales[i].ID, sales[j].CreatedAt, sales[j].ID) })
	sort.SliceStable(reservations, func(i, j int) bool {
		return newer(reservations[i].CreatedAt, reservations[i].ID, reservations[j].CreatedAt, reservations[j].ID)
	})
	s.Sales = sales
	s.Reservations = reservations
	return s
}

func newer(a time.Time, aid uint64, b time.Time, bid uint64) bool {
	if a.Equal(b) {
		return aid > bid
	}
	return a.After(b)
}

// MostUsedMethod counts methods in ledger order.  On a tie the method seen
// first wins.
func MostUsedMethod(sales []model.Sale) model.PaymentMethod {
	counts := make(map[model.PaymentMethod]int)
	var order []model.PaymentMethod
	for _, s := range sales {
		if _, ok := counts[s.Method]; !ok {
			order = append(order, s.Method)
		}
		counts[s.Method]++
	}
	var best model.PaymentMethod
	top := 0
	for _, m := range order {
		if counts[m] > top {
			best, top = m, counts[m]
		}
	}
	return best
}
