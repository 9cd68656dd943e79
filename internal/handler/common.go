package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/middleware"
)

// getUserID returns the caller id stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.KeyUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// toCents converts a currency amount sent by clients into integer cents.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func requestID(c echo.Context) string {
	id, _ := c.Get(middleware.KeyRequestID).(string)
	return id
}

// fail writes the error body every endpoint uses.
func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code, "request_id": requestID(c)})
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, "invalid_request", msg)
}

// statusOf maps an inventory error kind to its HTTP status.
func statusOf(k inventory.Kind) int {
	switch k {
	case inventory.KindNotFound:
		return http.StatusNotFound
	case inventory.KindForbidden:
		return http.StatusForbidden
	case inventory.KindInvalidState, inventory.KindInsufficientSeats, inventory.KindVehicleConflict:
		return http.StatusConflict
	case inventory.KindInvalidOperation:
		return http.StatusBadRequest
	case inventory.KindBusy:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Inventory errors keep their message
// and kind; anything else is logged and reported as a 500.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var ie *inventory.Error
	if errors.As(err, &ie) {
		if ie.Kind == inventory.KindBusy {
			c.Response().Header().Set("Retry-After", "1")
		}
		return fail(c, statusOf(ie.Kind), ie.Kind.String(), ie.Msg)
	}
	log.Error("request failed", "error", err, "request_id", requestID(c), "path", c.Path())
	return fail(c, http.StatusInternalServerError, "internal", "internal error")
}
