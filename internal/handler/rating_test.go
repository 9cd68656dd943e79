package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory/inventorytest"
	"github.com/iliyamo/rideshare-inventory/internal/middleware"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

// fakeRatings accepts ratings for ride 7, driven by driverID and
// completed by riderID.
type fakeRatings struct{ stored []model.Rating }

var ratedRide = model.Ride{ID: 7, DriverID: driverID, Source: "Bengaluru", Destination: "Mysuru", DepartsAt: departsAt, Status: model.RideCompleted}

func (f *fakeRatings) save(rt *model.Rating) (model.Ride, error) {
	for _, x := range f.stored {
		if x.RideID == rt.RideID && x.RaterID == rt.RaterID && x.RateeID == rt.RateeID {
			return model.Ride{}, repository.ErrRatingExists
		}
	}
	rt.ID = uint64(len(f.stored) + 1)
	f.stored = append(f.stored, *rt)
	return ratedRide, nil
}

func (f *fakeRatings) RateDriver(_ context.Context, rt *model.Rating) (model.Ride, error) {
	if rt.RideID != ratedRide.ID || rt.RaterID != riderID {
		return model.Ride{}, repository.ErrNotFound
	}
	rt.RateeID = driverID
	return f.save(rt)
}

func (f *fakeRatings) RatePassenger(_ context.Context, rt *model.Rating) (model.Ride, error) {
	if rt.RideID != ratedRide.ID || rt.RaterID != driverID || rt.RateeID != riderID {
		return model.Ride{}, repository.ErrNotFound
	}
	return f.save(rt)
}

func (f *fakeRatings) Find(_ context.Context, rideID, raterID, rateeID uint64) (*model.Rating, error) {
	for _, x := range f.stored {
		if x.RideID == rideID && x.RaterID == raterID && (rateeID == 0 || x.RateeID == rateeID) {
			return &x, nil
		}
	}
	return nil, nil
}

func (f *fakeRatings) ListByUser(_ context.Context, userID uint64) (model.RatingSummary, error) {
	sum := model.RatingSummary{Ratings: []model.RatingDetail{}}
	for _, x := range f.stored {
		if x.RateeID == userID {
			sum.Ratings = append(sum.Ratings, model.RatingDetail{Rating: x})
			sum.AverageRating += float64(x.Score)
		}
	}
	sum.TotalRatings = len(sum.Ratings)
	if sum.TotalRatings > 0 {
		sum.AverageRating /= float64(sum.TotalRatings)
	}
	return sum, nil
}

func (f *fakeRatings) RidePassengers(context.Context, uint64, uint64) ([]model.RidePassenger, error) {
	return []model.RidePassenger{{UserID: riderID, BookingStatus: model.BookingCompleted}}, nil
}

func newRatingAPI(t *testing.T) (*echo.Echo, *fakeRatings, *inventorytest.Recorder) {
	t.Helper()
	store := &fakeRatings{}
	rec := &inventorytest.Recorder{}
	h := NewRatingHandler(store, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	e := echo.New()
	e.Use(middleware.RequestID(), as)
	e.POST("/v1/ratings", h.RateDriver)
	e.POST("/v1/ratings/passenger", h.RatePassenger)
	e.GET("/v1/ratings/check", h.Check)
	e.GET("/v1/ratings/ride-passengers/:id", h.RidePassengers)
	e.GET("/v1/ratings/user/:id", h.ForUser)
	return e, store, rec
}

func TestRateDriverEndpoint(t *testing.T) {
	e, store, notices := newRatingAPI(t)
	api := &testAPI{e: e}

	rec := api.do(http.MethodPost, "/v1/ratings", riderID, `{"ride_id":7,"rating":4,"review":"  on time  "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if len(store.stored) != 1 || store.stored[0].RateeID != driverID || *store.stored[0].Review != "on time" {
		t.Fatalf("stored = %+v", store.stored)
	}
	sent := notices.Notices()
	if len(sent) != 1 || sent[0].Type != model.NotifyNewReview || sent[0].Recipient != driverID || sent[0].Score != 4 {
		t.Fatalf("notices = %+v", sent)
	}

	rec = api.do(http.MethodPost, "/v1/ratings", riderID, `{"ride_id":7,"rating":5}`)
	wantError(t, rec, http.StatusConflict, "already_rated")
	if len(notices.Notices()) != 1 {
		t.Fatal("duplicate rating sent a notice")
	}
}

func TestRateDriverRejectsBadInput(t *testing.T) {
	e, _, _ := newRatingAPI(t)
	api := &testAPI{e: e}

	wantError(t, api.do(http.MethodPost, "/v1/ratings", riderID, `{"ride_id":7,"rating":6}`), http.StatusBadRequest, "invalid_request")
	wantError(t, api.do(http.MethodPost, "/v1/ratings", riderID, `{"rating":3}`), http.StatusBadRequest, "invalid_request")
	wantError(t, api.do(http.MethodPost, "/v1/ratings", riderID+1, `{"ride_id":7,"rating":3}`), http.StatusNotFound, "not_found")
}

func TestRatePassengerEndpoint(t *testing.T) {
	e, _, notices := newRatingAPI(t)
	api := &testAPI{e: e}

	wantError(t, api.do(http.MethodPost, "/v1/ratings/passenger", driverID, `{"ride_id":7,"rating":5}`),
		http.StatusBadRequest, "invalid_request")

	rec := api.do(http.MethodPost, "/v1/ratings/passenger", driverID,
		`{"ride_id":7,"passenger_id":`+jsonID(riderID)+`,"rating":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if sent := notices.Notices(); len(sent) != 1 || sent[0].Recipient != riderID {
		t.Fatalf("notices = %+v", sent)
	}

	rec = api.do(http.MethodGet, "/v1/ratings/check?ride_id=7&target_user_id="+jsonID(riderID), driverID, "")
	if m := decode(t, rec); m["hasRated"] != true {
		t.Fatalf("check = %v", m)
	}
	rec = api.do(http.MethodGet, "/v1/ratings/check?ride_id=7", riderID, "")
	if m := decode(t, rec); m["hasRated"] != false || m["existing"] != nil {
		t.Fatalf("check = %v", m)
	}
	wantError(t, api.do(http.MethodGet, "/v1/ratings/check", riderID, ""), http.StatusBadRequest, "invalid_request")
}

func TestUserRatingsSummary(t *testing.T) {
	e, _, _ := newRatingAPI(t)
	api := &testAPI{e: e}
	api.do(http.MethodPost, "/v1/ratings", riderID, `{"ride_id":7,"rating":4}`)

	rec := api.do(http.MethodGet, path("/v1/ratings/user/:id", driverID), 0, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode(t, rec)
	if m["totalRatings"] != float64(1) || m["averageRating"] != float64(4) {
		t.Fatalf("summary = %v", m)
	}
}
