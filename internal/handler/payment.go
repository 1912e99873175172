package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
)

// ProcessPayment handles POST /v1/tables/:id/payment.  The charged total is
// computed server side from the table's open orders; a total sent by the
// client is ignored.
func (h *POSHandler) ProcessPayment(c echo.Context) error {
	var req lifecycle.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	receipt, err := h.Ctl.ProcessPayment(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, receipt)
}

// ListSales handles GET /v1/sales.
func (h *POSHandler) ListSales(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ctl.ListSales())
}

// Report handles GET /v1/reports?period=.
func (h *POSHandler) Report(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Reports.Summary(c.QueryParam("period")))
}
