package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

type inventoryReq struct {
	Name          string                  `json:"name"`
	Quantity      decimal.Decimal         `json:"quantity"`
	Unit          string                  `json:"unit"`
	ExpiresOn     string                  `json:"expires_on"` // YYYY-MM-DD or RFC3339, empty when it does not expire
	Category      model.InventoryCategory `json:"category"`
	PurchasePrice decimal.Decimal         `json:"purchase_price"`
}

// inventoryView adds the alert level computed at request time.
type inventoryView struct {
	model.InventoryItem
	AlertLevel   string `json:"alert_level"`
	DaysToExpiry *int   `json:"days_to_expiry,omitempty"`
}

func (h *POSHandler) inventoryView(it model.InventoryItem) inventoryView {
	now := h.now()
	v := inventoryView{InventoryItem: it, AlertLevel: it.AlertLevel(now)}
	if it.ExpiresOn != nil {
		d := model.DaysUntil(now, *it.ExpiresOn)
		v.DaysToExpiry = &d
	}
	return v
}

func parseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, true
	}
	return nil, false
}

func (r inventoryReq) toItem(it *model.InventoryItem) string {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "name is required"
	}
	if !r.Quantity.IsPositive() {
		return "quantity must be greater than zero"
	}
	unit := strings.TrimSpace(r.Unit)
	if unit == "" {
		return "unit is required"
	}
	if !r.PurchasePrice.IsPositive() {
		return "purchase_price must be greater than zero"
	}
	cat := model.InventoryCategory(strings.ToUpper(strings.TrimSpace(string(r.Category))))
	if !cat.Valid() {
		return "unknown inventory category"
	}
	exp, ok := parseDate(r.ExpiresOn)
	if !ok {
		return "expires_on must be a date (YYYY-MM-DD)"
	}
	it.Name = name
	it.Quantity = r.Quantity
	it.Unit = unit
	it.ExpiresOn = exp
	it.Category = cat
	it.PurchasePrice = r.PurchasePrice
	return ""
}

// ListInventory handles GET /v1/inventory.  ?alert= keeps only records at
// that alert level.
func (h *POSHandler) ListInventory(c echo.Context) error {
	level := c.QueryParam("alert")
	items := h.Inventory.List()
	out := make([]inventoryView, 0, len(items))
	for _, it := range items {
		v := h.inventoryView(it)
		if level != "" && v.AlertLevel != level {
			continue
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, out)
}

// GetInventoryItem handles GET /v1/inventory/:id.
func (h *POSHandler) GetInventoryItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	it, err := h.Inventory.Get(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}
	return c.JSON(http.StatusOK, h.inventoryView(it))
}

// CreateInventoryItem handles POST /v1/inventory.
func (h *POSHandler) CreateInventoryItem(c echo.Context) error {
	var req inventoryReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	var it model.InventoryItem
	if msg := req.toItem(&it); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	it, err := h.Inventory.Create(it)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create inventory item"})
	}
	return c.JSON(http.StatusCreated, h.inventoryView(it))
}

// UpdateInventoryItem handles PUT /v1/inventory/:id.
func (h *POSHandler) UpdateInventoryItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	var req inventoryReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	it, err := h.Inventory.Get(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}
	if msg := req.toItem(&it); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Inventory.Save(it); err != nil {
		if errors.Is(err, repository.ErrInventoryItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update inventory item"})
	}
	return c.JSON(http.StatusOK, h.inventoryView(it))
}

// DeleteInventoryItem handles DELETE /v1/inventory/:id.
func (h *POSHandler) DeleteInventoryItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := h.Inventory.Delete(id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory item not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
