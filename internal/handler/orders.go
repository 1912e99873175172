package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
)

type createOrderReq struct {
	Items []lifecycle.ItemRequest `json:"items"`
}

// CreateOrder handles POST /v1/tables/:id/orders.
func (h *POSHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	o, err := h.Ctl.CreateOrder(c.Request().Context(), c.Param("id"), req.Items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// EditOrders handles PUT /v1/tables/:id/orders, the multi-order edit
// session.  Either the whole edit is applied or nothing is.
func (h *POSHandler) EditOrders(c echo.Context) error {
	var req lifecycle.EditRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Ctl.EditOrders(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListOrders handles GET /v1/orders.  ?table= narrows to one table.
func (h *POSHandler) ListOrders(c echo.Context) error {
	if table := c.QueryParam("table"); table != "" {
		orders, err := h.Ctl.ListTableOrders(table)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, orders)
	}
	return c.JSON(http.StatusOK, h.Ctl.ListOrders())
}

// GetOrder handles GET /v1/orders/:id.
func (h *POSHandler) GetOrder(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	o, err := h.Ctl.GetOrder(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// UpdateOrder handles PATCH /v1/orders/:id.  Sending an empty items list
// deletes the order.
func (h *POSHandler) UpdateOrder(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	var p lifecycle.OrderPatch
	if err := c.Bind(&p); err != nil {
		return badBody(c)
	}
	o, deleted, err := h.Ctl.UpdateOrder(id, p)
	if err != nil {
		return writeError(c, err)
	}
	if deleted {
		return c.JSON(http.StatusOK, echo.Map{"deleted": true, "id": o.ID})
	}
	return c.JSON(http.StatusOK, o)
}

// DeleteOrder handles DELETE /v1/orders/:id.
func (h *POSHandler) DeleteOrder(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	if err := h.Ctl.DeleteOrder(id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
