package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
)

// BookingHandler exposes seat booking to riders and approval to drivers.
type BookingHandler struct {
	Inv      Inventory
	Bookings BookingReader
	Log      *slog.Logger
}

func NewBookingHandler(inv Inventory, bookings BookingReader, log *slog.Logger) *BookingHandler {
	return &BookingHandler{Inv: inv, Bookings: bookings, Log: log}
}

type createBookingReq struct {
	RideID        uint64  `json:"ride_id"`
	SeatsBooked   int     `json:"seats_booked"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.RideID == 0 {
		return badRequest(c, "ride_id is required")
	}
	if req.Amount < 0 {
		return badRequest(c, "amount must not be negative")
	}
	res, err := h.Inv.CreateBooking(c.Request().Context(), inventory.BookingRequest{
		RideID:        req.RideID,
		RiderID:       uid,
		Seats:         req.SeatsBooked,
		AmountCents:   toCents(req.Amount),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Action handles PATCH /v1/bookings/:id/action with {"action": "APPROVE"|"REJECT"}.
func (h *BookingHandler) Action(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	d, ok := inventory.ParseDecision(body.Action)
	if !ok {
		return badRequest(c, "action must be APPROVE or REJECT")
	}
	out, err := h.Inv.ResolveBooking(c.Request().Context(), id, uid, d)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel handles PATCH /v1/bookings/:id/cancel for the rider or the driver.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	out, err := h.Inv.CancelBooking(c.Request().Context(), id, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Mine handles GET /v1/bookings/mine.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.Bookings.ListByRider(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		return c.JSON(http.StatusOK, []struct{}{})
	}
	return c.JSON(http.StatusOK, list)
}
