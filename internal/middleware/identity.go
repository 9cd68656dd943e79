package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the authenticated caller's id as a string, or "anon"
// when the route is public or JWTAuth has not run.
func userID(c echo.Context) string {
	if id, ok := c.Get(KeyUserID).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

// requestID returns the id assigned by RequestID, if any.
func requestID(c echo.Context) string {
	if id, ok := c.Get(KeyRequestID).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
