package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/inventory/inventorytest"
	"github.com/iliyamo/rideshare-inventory/internal/middleware"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

const (
	driverID uint64 = 1001
	riderID  uint64 = 2001
)

var departsAt = time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

type fakeRides struct{ rides map[uint64]model.Ride }

func (f fakeRides) GetByID(_ context.Context, id uint64) (model.Ride, error) {
	r, ok := f.rides[id]
	if !ok {
		return model.Ride{}, sql.ErrNoRows
	}
	return r, nil
}

func (f fakeRides) ListByDriver(context.Context, uint64) ([]model.Ride, error) { return nil, nil }

func (f fakeRides) ListOpenOn(_ context.Context, day time.Time) ([]model.Ride, error) {
	var out []model.Ride
	for _, r := range f.rides {
		if r.DepartsAt.Format("2006-01-02") == day.Format("2006-01-02") {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeStops struct{}

func (fakeStops) ListByRide(context.Context, uint64) ([]model.Stop, error) { return nil, nil }

type fakeBookings struct{ err error }

func (f fakeBookings) ListByRider(context.Context, uint64) ([]repository.BookingDetail, error) {
	return nil, f.err
}

type fakeVehicles struct{ list []model.Vehicle }

func (f *fakeVehicles) Create(_ context.Context, v *model.Vehicle) error {
	for _, x := range f.list {
		if strings.EqualFold(x.VehicleNumber, v.VehicleNumber) {
			return repository.ErrVehicleExists
		}
	}
	v.ID = uint64(len(f.list) + 1)
	f.list = append(f.list, *v)
	return nil
}

func (f *fakeVehicles) ListByUser(_ context.Context, uid uint64) ([]model.Vehicle, error) {
	var out []model.Vehicle
	for _, v := range f.list {
		if v.UserID == uid {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVehicles) Delete(_ context.Context, id, uid uint64) error {
	for _, v := range f.list {
		if v.ID == id {
			if v.UserID != uid {
				return repository.ErrForbidden
			}
			return repository.ErrConflict
		}
	}
	return repository.ErrNotFound
}

type fakeInbox struct{}

func (fakeInbox) ListByUser(context.Context, uint64, int) ([]model.Notification, error) {
	return nil, nil
}

func (fakeInbox) MarkRead(context.Context, uint64, uint64) error { return repository.ErrNotFound }

type testAPI struct {
	e   *echo.Echo
	st  *inventorytest.Store
	eng *inventory.Engine
}

// as authenticates every request with the X-Test-User header.
func as(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if v := c.Request().Header.Get("X-Test-User"); v != "" {
			var id uint64
			_ = json.Unmarshal([]byte(v), &id)
			c.Set(middleware.KeyUserID, id)
		}
		return next(c)
	}
}

func newAPI(t *testing.T, rides fakeRides, vehicles *fakeVehicles) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := inventorytest.NewStore()
	eng := inventory.New(st, &inventorytest.Recorder{}, log)
	t.Cleanup(eng.Wait)

	if vehicles == nil {
		vehicles = &fakeVehicles{}
	}
	bh := NewBookingHandler(eng, fakeBookings{}, log)
	rh := NewRideHandler(eng, rides, fakeStops{}, log)
	rh.Now = func() time.Time { return departsAt.Add(-2 * time.Hour) }
	vh := NewVehicleHandler(eng, vehicles, log)
	nh := NewNotificationHandler(fakeInbox{}, log)

	e := echo.New()
	e.Use(middleware.RequestID(), as)
	e.POST("/v1/bookings", bh.Create)
	e.PATCH("/v1/bookings/:id/action", bh.Action)
	e.PATCH("/v1/bookings/:id/cancel", bh.Cancel)
	e.GET("/v1/bookings/mine", bh.Mine)
	e.POST("/v1/rides", rh.Create)
	e.GET("/v1/rides/today", rh.Today)
	e.GET("/v1/rides/:id", rh.Get)
	e.PATCH("/v1/rides/:id/start", rh.Start)
	e.PATCH("/v1/rides/:id/complete", rh.Complete)
	e.PATCH("/v1/rides/:id/cancel", rh.Cancel)
	e.POST("/v1/vehicles", vh.Create)
	e.GET("/v1/vehicles/mine", vh.Mine)
	e.DELETE("/v1/vehicles/:id", vh.Delete)
	e.PATCH("/v1/notifications/:id/read", nh.MarkRead)
	return &testAPI{e: e, st: st, eng: eng}
}

func (a *testAPI) do(method, path string, user uint64, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != 0 {
		b, _ := json.Marshal(user)
		req.Header.Set("X-Test-User", string(b))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) seedRide(seats int, bt model.BookingType) model.Ride {
	v := a.st.AddVehicle(model.Vehicle{UserID: driverID, VehicleNumber: "KA-01-1234", Seats: seats})
	return a.st.AddRide(model.Ride{
		DriverID: driverID, VehicleID: v.ID, Source: "Bengaluru", Destination: "Mysuru",
		DepartsAt: departsAt, TotalSeats: seats, BookingType: bt,
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body)
	}
	m := decode(t, rec)
	if m["code"] != code || m["error"] == "" || m["request_id"] == "" {
		t.Fatalf("body = %v, want code %s", m, code)
	}
}

func path(format string, id uint64) string {
	return strings.Replace(format, ":id", jsonID(id), 1)
}

func jsonID(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestCreateBookingEndpoint(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	ride := api.seedRide(3, model.BookingInstant)

	rec := api.do(http.MethodPost, "/v1/bookings", riderID,
		`{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":2,"amount":900.50}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	m := decode(t, rec)
	if m["status"] != "CONFIRMED" || m["message"] != "Booking created successfully!" || m["bookingId"] == nil {
		t.Fatalf("body = %v", m)
	}
	b, _ := api.st.Booking(uint64(m["bookingId"].(float64)))
	if b.AmountCents != 90050 {
		t.Fatalf("amount = %d cents", b.AmountCents)
	}

	rec = api.do(http.MethodPost, "/v1/bookings", riderID+1,
		`{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":2}`)
	wantError(t, rec, http.StatusConflict, "insufficient_seats")

	rec = api.do(http.MethodPost, "/v1/bookings", driverID,
		`{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":1}`)
	wantError(t, rec, http.StatusBadRequest, "invalid_operation")

	rec = api.do(http.MethodPost, "/v1/bookings", riderID, `{"ride_id":999,"seats_booked":1}`)
	wantError(t, rec, http.StatusNotFound, "not_found")

	rec = api.do(http.MethodPost, "/v1/bookings", 0, `{"ride_id":1,"seats_booked":1}`)
	wantError(t, rec, http.StatusUnauthorized, "unauthorized")
}

func TestBookingActionEndpoint(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	ride := api.seedRide(2, model.BookingApproval)

	rec := api.do(http.MethodPost, "/v1/bookings", riderID,
		`{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":1}`)
	if rec.Code != http.StatusCreated || decode(t, rec)["status"] != "PENDING" {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	id := uint64(decode(t, rec)["bookingId"].(float64))

	rec = api.do(http.MethodPatch, path("/v1/bookings/:id/action", id), driverID, `{"action":"maybe"}`)
	wantError(t, rec, http.StatusBadRequest, "invalid_request")

	rec = api.do(http.MethodPatch, path("/v1/bookings/:id/action", id), riderID, `{"action":"approve"}`)
	wantError(t, rec, http.StatusForbidden, "forbidden")

	rec = api.do(http.MethodPatch, path("/v1/bookings/:id/action", id), driverID, `{"action":"approve"}`)
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Booking approved successfully." {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body)
	}
	rec = api.do(http.MethodPatch, path("/v1/bookings/:id/action", id), driverID, `{"action":"reject"}`)
	wantError(t, rec, http.StatusConflict, "invalid_state")

	rec = api.do(http.MethodPatch, path("/v1/bookings/:id/cancel", id), riderID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body)
	}
	rec = api.do(http.MethodPatch, path("/v1/bookings/:id/cancel", id), riderID, "")
	wantError(t, rec, http.StatusConflict, "invalid_state")

	r, _ := api.st.Ride(ride.ID)
	if r.AvailableSeats != 2 {
		t.Fatalf("available = %d, want 2", r.AvailableSeats)
	}
}

func TestBusyIsRetryable(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	ride := api.seedRide(2, model.BookingInstant)
	api.st.Inject = func(string) error { return inventory.Busy(errors.New("lock wait timeout")) }

	rec := api.do(http.MethodPost, "/v1/bookings", riderID,
		`{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":1}`)
	wantError(t, rec, http.StatusServiceUnavailable, "busy")
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestCreateRideEndpoint(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	v := api.st.AddVehicle(model.Vehicle{UserID: driverID, VehicleNumber: "MH-12-0001", Seats: 4})

	body := `{"vehicle_id":` + jsonID(v.ID) + `,"source":"Pune","destination":"Mumbai",
		"ride_date":"2026-11-02","ride_time":"10:00","total_seats":3,"base_price":350,
		"booking_type":"approval","stops":[{"city_name":"Lonavala","stop_price":120.5}]}`
	rec := api.do(http.MethodPost, "/v1/rides", driverID, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	m := decode(t, rec)
	id := uint64(m["rideId"].(float64))
	ride, ok := api.st.Ride(id)
	if !ok || !ride.DepartsAt.Equal(departsAt) || ride.BookingType != model.BookingApproval || ride.BasePriceCents != 35000 {
		t.Fatalf("ride = %+v", ride)
	}
	if stops := api.st.Stops(id); len(stops) != 1 || stops[0].StopPriceCents != 12050 || stops[0].StopOrder != 1 {
		t.Fatalf("stops = %+v", stops)
	}

	clash := strings.Replace(body, `"10:00"`, `"12:30"`, 1)
	wantError(t, api.do(http.MethodPost, "/v1/rides", driverID, clash), http.StatusConflict, "vehicle_conflict")

	bad := strings.Replace(body, `"2026-11-02"`, `"02/11/2026"`, 1)
	wantError(t, api.do(http.MethodPost, "/v1/rides", driverID, bad), http.StatusBadRequest, "invalid_request")

	wantError(t, api.do(http.MethodPost, "/v1/rides", riderID, body), http.StatusForbidden, "forbidden")
}

func TestRideLifecycleEndpoints(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	ride := api.seedRide(4, model.BookingInstant)
	for _, rider := range []uint64{riderID, riderID + 1} {
		rec := api.do(http.MethodPost, "/v1/bookings", rider, `{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":1}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("booking: %d %s", rec.Code, rec.Body)
		}
	}

	wantError(t, api.do(http.MethodPatch, path("/v1/rides/:id/start", ride.ID), riderID, ""), http.StatusForbidden, "forbidden")
	wantError(t, api.do(http.MethodPatch, "/v1/rides/abc/start", driverID, ""), http.StatusBadRequest, "invalid_request")

	rec := api.do(http.MethodPatch, path("/v1/rides/:id/start", ride.ID), driverID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start: %d %s", rec.Code, rec.Body)
	}
	rec = api.do(http.MethodPatch, path("/v1/rides/:id/complete", ride.ID), driverID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body)
	}
	m := decode(t, rec)
	if got := m["completedPassengers"].([]any); len(got) != 2 || m["rideId"].(float64) != float64(ride.ID) {
		t.Fatalf("body = %v", m)
	}
	wantError(t, api.do(http.MethodPatch, path("/v1/rides/:id/cancel", ride.ID), driverID, `{"reason":"late"}`),
		http.StatusConflict, "invalid_state")
}

func TestCancelRideEndpoint(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	ride := api.seedRide(3, model.BookingInstant)
	api.do(http.MethodPost, "/v1/bookings", riderID, `{"ride_id":`+jsonID(ride.ID)+`,"seats_booked":2}`)

	rec := api.do(http.MethodPatch, path("/v1/rides/:id/cancel", ride.ID), driverID, "")
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Ride cancelled successfully" {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body)
	}
	r, _ := api.st.Ride(ride.ID)
	if r.Status != model.RideCancelled || r.CancellationReason == nil || *r.CancellationReason != inventory.DefaultCancelReason {
		t.Fatalf("ride = %+v", r)
	}
}

func TestRideReads(t *testing.T) {
	today := model.Ride{ID: 7, Source: "A", Destination: "B", DepartsAt: departsAt, Status: model.RideActive}
	api := newAPI(t, fakeRides{rides: map[uint64]model.Ride{7: today}}, nil)

	rec := api.do(http.MethodGet, "/v1/rides/7", 0, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body)
	}
	if m := decode(t, rec); m["ride_id"].(float64) != 7 || m["stops"] == nil {
		t.Fatalf("body = %v", m)
	}
	wantError(t, api.do(http.MethodGet, "/v1/rides/8", 0, ""), http.StatusNotFound, "not_found")

	rec = api.do(http.MethodGet, "/v1/rides/today", 0, "")
	var list []model.Ride
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("today: %s (%v)", rec.Body, err)
	}
}

func TestVehicleEndpoints(t *testing.T) {
	vehicles := &fakeVehicles{}
	api := newAPI(t, fakeRides{}, vehicles)

	for _, num := range []string{"KA-01-0001", "KA-01-0002"} {
		rec := api.do(http.MethodPost, "/v1/vehicles", driverID, `{"vehicle_number":"`+num+`","model":"Swift","seats":4}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: %d %s", rec.Code, rec.Body)
		}
		var v model.Vehicle
		_ = json.Unmarshal(rec.Body.Bytes(), &v)
		api.st.AddVehicle(v)
	}
	wantError(t, api.do(http.MethodPost, "/v1/vehicles", driverID, `{"vehicle_number":"ka-01-0001","model":"Swift","seats":4}`),
		http.StatusConflict, "vehicle_exists")
	wantError(t, api.do(http.MethodPost, "/v1/vehicles", driverID, `{"vehicle_number":"X","model":"Swift","seats":0}`),
		http.StatusBadRequest, "invalid_request")

	api.st.AddRide(model.Ride{DriverID: driverID, VehicleID: vehicles.list[0].ID, Source: "A", Destination: "B",
		DepartsAt: departsAt, TotalSeats: 4})

	rec := api.do(http.MethodGet, "/v1/vehicles/mine?ride_date=2026-11-02&ride_time=11:00", driverID, "")
	var free []model.Vehicle
	if err := json.Unmarshal(rec.Body.Bytes(), &free); err != nil || len(free) != 1 || free[0].VehicleNumber != "KA-01-0002" {
		t.Fatalf("filtered: %s (%v)", rec.Body, err)
	}
	rec = api.do(http.MethodGet, "/v1/vehicles/mine", driverID, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &free); err != nil || len(free) != 2 {
		t.Fatalf("unfiltered: %s (%v)", rec.Body, err)
	}

	wantError(t, api.do(http.MethodDelete, "/v1/vehicles/1", riderID, ""), http.StatusForbidden, "forbidden")
	wantError(t, api.do(http.MethodDelete, "/v1/vehicles/1", driverID, ""), http.StatusConflict, "vehicle_conflict")
	wantError(t, api.do(http.MethodDelete, "/v1/vehicles/9", driverID, ""), http.StatusNotFound, "not_found")
}

func TestUnexpectedErrorsAre500(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bh := NewBookingHandler(nil, fakeBookings{err: errors.New("connection reset")}, log)
	e := echo.New()
	e.GET("/v1/bookings/mine", bh.Mine, as)

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/mine", nil)
	req.Header.Set("X-Test-User", "5")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	api := newAPI(t, fakeRides{}, nil)
	wantError(t, api.do(http.MethodPatch, "/v1/notifications/3/read", riderID, ""), http.StatusNotFound, "not_found")
}
