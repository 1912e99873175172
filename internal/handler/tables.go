package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
)

// ListTables handles GET /v1/tables.
func (h *POSHandler) ListTables(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Ctl.ListTables())
}

// GetTable handles GET /v1/tables/:id.  Paid tables report the seconds
// left before they are freed.
func (h *POSHandler) GetTable(c echo.Context) error {
	v, err := h.Ctl.GetTable(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// CreateTable handles POST /v1/tables.  The id is optional.
func (h *POSHandler) CreateTable(c echo.Context) error {
	var in lifecycle.TableInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	t, err := h.Ctl.CreateTable(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTable handles PATCH /v1/tables/:id (capacity and/or state).
func (h *POSHandler) UpdateTable(c echo.Context) error {
	var p lifecycle.TablePatch
	if err := c.Bind(&p); err != nil {
		return badBody(c)
	}
	v, err := h.Ctl.UpdateTable(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteTable handles DELETE /v1/tables/:id.
func (h *POSHandler) DeleteTable(c echo.Context) error {
	if err := h.Ctl.DeleteTable(c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StartConsuming handles POST /v1/tables/:id/consume.
func (h *POSHandler) StartConsuming(c echo.Context) error {
	v, err := h.Ctl.StartConsuming(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ConfirmArrival handles POST /v1/tables/:id/arrival.
func (h *POSHandler) ConfirmArrival(c echo.Context) error {
	v, err := h.Ctl.ConfirmArrival(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ReleaseTable handles POST /v1/tables/:id/release.  Releasing an
// available table is a no-op.
func (h *POSHandler) ReleaseTable(c echo.Context) error {
	v, err := h.Ctl.ReleaseTable(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
