package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
)

// ReserveTable handles POST /v1/tables/:id/reservation.
func (h *POSHandler) ReserveTable(c echo.Context) error {
	var req lifecycle.ReservationRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	res, err := h.Ctl.ReserveTable(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// CancelReservation handles DELETE /v1/tables/:id/reservation.
func (h *POSHandler) CancelReservation(c echo.Context) error {
	v, err := h.Ctl.CancelReservation(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ListReservations handles GET /v1/reservations.
func (h *POSHandler) ListReservations(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ctl.ListReservations())
}
