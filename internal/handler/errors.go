package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
)

// writeError maps a lifecycle failure kind to its status code.  The body is
// always {"error": message}; partial failures also name the failing step.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrPreconditionFailed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrPartialFailure):
		body := echo.Map{"error": err.Error()}
		var le *lifecycle.Error
		if errors.As(err, &le) && le.Batch != nil {
			body["batch"] = le.Batch
		}
		log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, body)
	}
	log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}
