package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers and monitoring.  It
// never touches the ledgers.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
