package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

type menuItemReq struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	Category    model.MenuCategory `json:"category"`
	ImageURL    string             `json:"image_url"`
	Active      *bool              `json:"active"`
}

// toItem validates the form and fills it into it.  Active defaults to true
// on create and to the stored value on update.
func (r menuItemReq) toItem(it *model.MenuItem) string {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "name is required"
	}
	if !r.Price.IsPositive() {
		return "price must be greater than zero"
	}
	cat := model.MenuCategory(strings.ToUpper(strings.TrimSpace(string(r.Category))))
	if !cat.Valid() {
		return "category must be FOOD, DRINK or DESSERT"
	}
	it.Name = name
	it.Description = strings.TrimSpace(r.Description)
	it.Price = r.Price
	it.Category = cat
	it.ImageURL = strings.TrimSpace(r.ImageURL)
	if r.Active != nil {
		it.Active = *r.Active
	}
	return ""
}

// ListMenu handles GET /v1/menu.  ?active=true hides inactive items.
func (h *POSHandler) ListMenu(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Menu.List(c.QueryParam("active") == "true"))
}

// GetMenuItem handles GET /v1/menu/:id.
func (h *POSHandler) GetMenuItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	it, err := h.Menu.Get(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	return c.JSON(http.StatusOK, it)
}

// CreateMenuItem handles POST /v1/menu.
func (h *POSHandler) CreateMenuItem(c echo.Context) error {
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	it := model.MenuItem{Active: true}
	if msg := req.toItem(&it); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	it, err := h.Menu.Create(it)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create menu item"})
	}
	return c.JSON(http.StatusCreated, it)
}

// UpdateMenuItem handles PUT /v1/menu/:id.  Orders already placed keep
// their own name and price snapshot.
func (h *POSHandler) UpdateMenuItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	it, err := h.Menu.Get(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	if msg := req.toItem(&it); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Menu.Save(it); err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update menu item"})
	}
	return c.JSON(http.StatusOK, it)
}

// DeleteMenuItem handles DELETE /v1/menu/:id.
func (h *POSHandler) DeleteMenuItem(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := h.Menu.Delete(id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
