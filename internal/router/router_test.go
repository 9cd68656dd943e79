package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/handler"
	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/inventory/inventorytest"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/utils"
)

const secret = "router-secret"

type noRides struct{}

func (noRides) GetByID(context.Context, uint64) (model.Ride, error)         { return model.Ride{ID: 1}, nil }
func (noRides) ListByDriver(context.Context, uint64) ([]model.Ride, error)  { return nil, nil }
func (noRides) ListOpenOn(context.Context, time.Time) ([]model.Ride, error) { return nil, nil }
func (noRides) ListByRide(context.Context, uint64) ([]model.Stop, error)    { return nil, nil }

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := inventory.New(inventorytest.NewStore(), nil, log)
	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterInventory(e, Inventory{
		Bookings:      handler.NewBookingHandler(eng, nil, log),
		Rides:         handler.NewRideHandler(eng, noRides{}, noRides{}, log),
		Vehicles:      handler.NewVehicleHandler(eng, nil, log),
		Notifications: handler.NewNotificationHandler(nil, log),
		Ratings:       handler.NewRatingHandler(nil, nil, log),
		Templates:     handler.NewTemplateHandler(nil, log),
	}, secret, passThrough, passThrough)
	return e
}

func call(e *echo.Echo, method, path, role string) int {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, _ := utils.NewAccessToken(secret, 42, role, 5)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouteGuards(t *testing.T) {
	e := newServer()
	cases := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/v1/rides/today", "", http.StatusOK},
		{http.MethodGet, "/v1/rides/1", "", http.StatusOK},
		{http.MethodGet, "/v1/rides/mine", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/rides/mine", model.RoleRider, http.StatusForbidden},
		{http.MethodGet, "/v1/rides/mine", model.RoleDriver, http.StatusOK},
		{http.MethodPost, "/v1/rides", model.RoleRider, http.StatusForbidden},
		{http.MethodPatch, "/v1/bookings/1/action", model.RoleRider, http.StatusForbidden},
		{http.MethodPatch, "/v1/rides/1/start", model.RoleDriver, http.StatusNotFound},
		{http.MethodPost, "/v1/bookings", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/ratings/check", "", http.StatusUnauthorized},
		{http.MethodPost, "/v1/ratings/passenger", model.RoleRider, http.StatusForbidden},
		{http.MethodGet, "/v1/ratings/user/x", "", http.StatusBadRequest},
		{http.MethodGet, "/v1/templates/mine", model.RoleRider, http.StatusForbidden},
		{http.MethodDelete, "/v1/templates/x", model.RoleDriver, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := call(e, tc.method, tc.path, tc.role); got != tc.want {
			t.Errorf("%s %s as %q = %d, want %d", tc.method, tc.path, tc.role, got, tc.want)
		}
	}
}
