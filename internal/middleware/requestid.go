package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestLogger tags every request with an id (reusing a client supplied
// X-Request-ID) and logs one access line when it completes.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set("request_id", id)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Infof("%s %s %s %d %s", id, c.Request().Method, c.Request().URL.RequestURI(),
				c.Response().Status, time.Since(start).Round(time.Microsecond))
			return nil
		}
	}
}
