package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

// TemplateHandler manages a driver's saved rides.
type TemplateHandler struct {
	Templates TemplateStore
	Log       *slog.Logger
}

func NewTemplateHandler(templates TemplateStore, log *slog.Logger) *TemplateHandler {
	return &TemplateHandler{Templates: templates, Log: log}
}

type createTemplateReq struct {
	VehicleID      uint64    `json:"vehicle_id"`
	Source         string    `json:"source"`
	SourceLat      float64   `json:"source_lat"`
	SourceLng      float64   `json:"source_lng"`
	Destination    string    `json:"destination"`
	DestinationLat float64   `json:"destination_lat"`
	DestinationLng float64   `json:"destination_lng"`
	RideTime       string    `json:"ride_time"` // HH:MM or HH:MM:SS
	TotalSeats     int       `json:"total_seats"`
	BasePrice      float64   `json:"base_price"`
	BookingType    string    `json:"booking_type"`
	RoutePolyline  string    `json:"route_polyline"`
	Stops          []stopReq `json:"stops"`
}

// wallClock normalizes HH:MM or HH:MM:SS to HH:MM:SS.
func wallClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

func (r createTemplateReq) template(userID uint64) (model.RideTemplate, string) {
	src, dst := strings.TrimSpace(r.Source), strings.TrimSpace(r.Destination)
	if src == "" || dst == "" {
		return model.RideTemplate{}, "source and destination are required"
	}
	at, ok := wallClock(r.RideTime)
	if !ok {
		return model.RideTemplate{}, "ride_time must be HH:MM"
	}
	if r.TotalSeats < 1 {
		return model.RideTemplate{}, "total_seats must be at least 1"
	}
	if r.BasePrice < 0 {
		return model.RideTemplate{}, "base_price must not be negative"
	}
	bt := model.BookingType(strings.ToUpper(strings.TrimSpace(r.BookingType)))
	switch bt {
	case "":
		bt = model.BookingInstant
	case model.BookingInstant, model.BookingApproval:
	default:
		return model.RideTemplate{}, "booking_type must be INSTANT or APPROVAL"
	}

	t := model.RideTemplate{
		UserID:         userID,
		Source:         src,
		SourceLat:      r.SourceLat,
		SourceLng:      r.SourceLng,
		Destination:    dst,
		DestinationLat: r.DestinationLat,
		DestinationLng: r.DestinationLng,
		RideTime:       at,
		TotalSeats:     r.TotalSeats,
		BasePriceCents: toCents(r.BasePrice),
		BookingType:    bt,
		Stops:          make([]model.TemplateStop, 0, len(r.Stops)),
	}
	if r.VehicleID != 0 {
		id := r.VehicleID
		t.VehicleID = &id
	}
	if p := strings.TrimSpace(r.RoutePolyline); p != "" {
		t.RoutePolyline = &p
	}
	for _, s := range r.Stops {
		if strings.TrimSpace(s.CityName) == "" {
			return model.RideTemplate{}, "every stop needs a city_name"
		}
		t.Stops = append(t.Stops, model.TemplateStop{
			CityName:       strings.TrimSpace(s.CityName),
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			StopOrder:      s.StopOrder,
			StopPriceCents: toCents(s.StopPrice),
		})
	}
	return t, ""
}

// Create handles POST /v1/templates.
func (h *TemplateHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req createTemplateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, msg := req.template(uid)
	if msg != "" {
		return badRequest(c, msg)
	}
	err = h.Templates.Create(c.Request().Context(), &t)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "Template saved successfully!", "templateId": t.ID})
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, inventory.KindNotFound.String(), "vehicle not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, inventory.KindForbidden.String(), "this vehicle does not belong to you")
	}
	return respondError(c, h.Log, err)
}

// Mine handles GET /v1/templates/mine.
func (h *TemplateHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.Templates.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.RideTemplate{}
	}
	return c.JSON(http.StatusOK, list)
}

// Delete handles DELETE /v1/templates/:id.
func (h *TemplateHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid template id")
	}
	if err := h.Templates.Delete(c.Request().Context(), id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, inventory.KindNotFound.String(), "template not found")
		}
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Template deleted successfully"})
}
