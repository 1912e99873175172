package middleware

// identity.go exposes the authenticated identity stored by JWTAuth to
// handlers and to the rate limiter key builder.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id > 0
}

// Role returns the authenticated role.
func Role(c echo.Context) (string, bool) {
	role, ok := c.Get(ctxRole).(string)
	return role, ok && role != ""
}

// userKey identifies the caller for rate limiting; "anon" before login.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
