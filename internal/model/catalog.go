package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategory groups menu items on the order screen.
type MenuCategory string

const (
	CategoryFood    MenuCategory = "FOOD"
	CategoryDrink   MenuCategory = "DRINK"
	CategoryDessert MenuCategory = "DESSERT"
)

// Valid reports whether c is a known category.
func (c MenuCategory) Valid() bool {
	return c == CategoryFood || c == CategoryDrink || c == CategoryDessert
}

// MenuItem is an entry of the catalog that waiters can order.
type MenuItem struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    MenuCategory    `json:"category"`
	ImageURL    string          `json:"image_url,omitempty"`
	Active      bool            `json:"active"`
}

// InventoryCategory classifies stock records.
type InventoryCategory string

const (
	InventoryMeat       InventoryCategory = "MEAT"
	InventoryVegetables InventoryCategory = "VEGETABLES"
	InventoryDairy      InventoryCategory = "DAIRY"
	InventoryBeverages  InventoryCategory = "BEVERAGES"
	InventoryCondiments InventoryCategory = "CONDIMENTS"
	InventoryOther      InventoryCategory = "OTHER"
)

// Valid reports whether c is a known inventory category.
func (c InventoryCategory) Valid() bool {
	switch c {
	case InventoryMeat, InventoryVegetables, InventoryDairy, InventoryBeverages, InventoryCondiments, InventoryOther:
		return true
	}
	return false
}

// InventoryItem is a stock record.  ExpiresOn is nil for products that do
// not expire (salt, for instance).
type InventoryItem struct {
	ID            uint64            `json:"id"`
	Name          string            `json:"name"`
	Quantity      decimal.Decimal   `json:"quantity"`
	Unit          string            `json:"unit"`
	ExpiresOn     *time.Time        `json:"expires_on,omitempty"`
	Category      InventoryCategory `json:"category"`
	PurchasePrice decimal.Decimal   `json:"purchase_price"`
}

// Inventory alert levels.
const (
	AlertExpired  = "expired"
	AlertExpiring = "expiring"
	AlertLowStock = "low-stock"
	AlertNormal   = "normal"
)

var lowStockThreshold = decimal.NewFromInt(5)

// AlertLevel classifies the record relative to now: expired when the
// expiry date has passed, expiring within three days, low-stock at five
// units or fewer, normal otherwise.
func (it InventoryItem) AlertLevel(now time.Time) string {
	if it.ExpiresOn != nil {
		days := DaysUntil(now, *it.ExpiresOn)
		if days < 0 {
			return AlertExpired
		}
		if days <= 3 {
			return AlertExpiring
		}
	}
	if it.Quantity.LessThanOrEqual(lowStockThreshold) {
		return AlertLowStock
	}
	return AlertNormal
}

// DaysUntil returns the number of days from now until t rounded up.
func DaysUntil(now, t time.Time) int {
	d := t.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
