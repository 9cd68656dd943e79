package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// RideHandler exposes ride publishing and the driver's lifecycle actions,
// plus the read-only ride listings.
type RideHandler struct {
	Inv   Inventory
	Rides RideReader
	Stops StopReader
	Log   *slog.Logger
	Now   func() time.Time
}

func NewRideHandler(inv Inventory, rides RideReader, stops StopReader, log *slog.Logger) *RideHandler {
	return &RideHandler{Inv: inv, Rides: rides, Stops: stops, Log: log, Now: time.Now}
}

type stopReq struct {
	CityName  string  `json:"city_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StopOrder int     `json:"stop_order"`
	StopPrice float64 `json:"stop_price"`
}

type createRideReq struct {
	VehicleID      uint64    `json:"vehicle_id"`
	Source         string    `json:"source"`
	SourceLat      float64   `json:"source_lat"`
	SourceLng      float64   `json:"source_lng"`
	Destination    string    `json:"destination"`
	DestinationLat float64   `json:"destination_lat"`
	DestinationLng float64   `json:"destination_lng"`
	RideDate       string    `json:"ride_date"` // YYYY-MM-DD
	RideTime       string    `json:"ride_time"` // HH:MM or HH:MM:SS
	TotalSeats     int       `json:"total_seats"`
	BasePrice      float64   `json:"base_price"`
	BookingType    string    `json:"booking_type"`
	RoutePolyline  string    `json:"route_polyline"`
	Stops          []stopReq `json:"stops"`
}

// departure combines a ride_date and ride_time pair into a UTC instant.
func departure(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if len(clock) == len("15:04") {
		clock += ":00"
	}
	return time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.UTC)
}

// Create handles POST /v1/rides.
func (h *RideHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req createRideReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	at, err := departure(req.RideDate, req.RideTime)
	if err != nil {
		return badRequest(c, "ride_date must be YYYY-MM-DD and ride_time HH:MM")
	}
	if req.BasePrice < 0 {
		return badRequest(c, "base_price must not be negative")
	}
	stops := make([]model.Stop, 0, len(req.Stops))
	for _, s := range req.Stops {
		if strings.TrimSpace(s.CityName) == "" {
			return badRequest(c, "every stop needs a city_name")
		}
		stops = append(stops, model.Stop{
			CityName:       strings.TrimSpace(s.CityName),
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			StopOrder:      s.StopOrder,
			StopPriceCents: toCents(s.StopPrice),
		})
	}

	res, err := h.Inv.CreateRide(c.Request().Context(), inventory.RideRequest{
		DriverID:       uid,
		VehicleID:      req.VehicleID,
		Source:         req.Source,
		SourceLat:      req.SourceLat,
		SourceLng:      req.SourceLng,
		Destination:    req.Destination,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		DepartsAt:      at,
		TotalSeats:     req.TotalSeats,
		BasePriceCents: toCents(req.BasePrice),
		BookingType:    model.BookingType(strings.ToUpper(strings.TrimSpace(req.BookingType))),
		RoutePolyline:  req.RoutePolyline,
		Stops:          stops,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// lifecycle resolves the caller and ride id, then runs one of the
// driver's lifecycle operations.
func (h *RideHandler) lifecycle(c echo.Context, op func(ctx context.Context, rideID, driverID uint64) (any, error)) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid ride id")
	}
	out, err := op(c.Request().Context(), id, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Start handles PATCH /v1/rides/:id/start.
func (h *RideHandler) Start(c echo.Context) error {
	return h.lifecycle(c, func(ctx context.Context, rideID, driverID uint64) (any, error) {
		return h.Inv.StartRide(ctx, rideID, driverID)
	})
}

// Complete handles PATCH /v1/rides/:id/complete.
func (h *RideHandler) Complete(c echo.Context) error {
	return h.lifecycle(c, func(ctx context.Context, rideID, driverID uint64) (any, error) {
		return h.Inv.CompleteRide(ctx, rideID, driverID)
	})
}

// Cancel handles PATCH /v1/rides/:id/cancel with an optional {"reason"}.
func (h *RideHandler) Cancel(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	return h.lifecycle(c, func(ctx context.Context, rideID, driverID uint64) (any, error) {
		return h.Inv.CancelRide(ctx, rideID, driverID, body.Reason)
	})
}

// Mine handles GET /v1/rides/mine: the driver's upcoming and running rides.
func (h *RideHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rides, err := h.Rides.ListByDriver(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if rides == nil {
		rides = []model.Ride{}
	}
	return c.JSON(http.StatusOK, rides)
}

type rideView struct {
	model.Ride
	Stops []model.Stop `json:"stops"`
}

// Get handles GET /v1/rides/:id.
func (h *RideHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid ride id")
	}
	ctx := c.Request().Context()
	ride, err := h.Rides.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, inventory.KindNotFound.String(), "ride not found")
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	stops, err := h.Stops.ListByRide(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if stops == nil {
		stops = []model.Stop{}
	}
	return c.JSON(http.StatusOK, rideView{Ride: ride, Stops: stops})
}

// Today handles GET /v1/rides/today: bookable rides departing today (UTC).
func (h *RideHandler) Today(c echo.Context) error {
	rides, err := h.Rides.ListOpenOn(c.Request().Context(), h.Now().UTC())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if rides == nil {
		rides = []model.Ride{}
	}
	return c.JSON(http.StatusOK, rides)
}
