package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

// RatingHandler lets riders and drivers rate each other once a ride is
// completed. The rated user gets a NEW_REVIEW notice.
type RatingHandler struct {
	Ratings  RatingStore
	Notifier inventory.Notifier
	Log      *slog.Logger
}

func NewRatingHandler(ratings RatingStore, notifier inventory.Notifier, log *slog.Logger) *RatingHandler {
	return &RatingHandler{Ratings: ratings, Notifier: notifier, Log: log}
}

type rateReq struct {
	RideID      uint64 `json:"ride_id"`
	PassengerID uint64 `json:"passenger_id"`
	Rating      int    `json:"rating"`
	Review      string `json:"review"`
}

func (r rateReq) rating(raterID uint64) (model.Rating, string) {
	if r.RideID == 0 || r.Rating == 0 {
		return model.Rating{}, "ride_id and rating are required"
	}
	if r.Rating < 1 || r.Rating > 5 {
		return model.Rating{}, "rating must be between 1 and 5"
	}
	rt := model.Rating{RideID: r.RideID, RaterID: raterID, RateeID: r.PassengerID, Score: r.Rating}
	if review := strings.TrimSpace(r.Review); review != "" {
		rt.Review = &review
	}
	return rt, ""
}

// RateDriver handles POST /v1/ratings: a rider rates the driver.
func (h *RatingHandler) RateDriver(c echo.Context) error {
	return h.rate(c, false, h.Ratings.RateDriver)
}

// RatePassenger handles POST /v1/ratings/passenger: the driver rates one
// of the ride's riders.
func (h *RatingHandler) RatePassenger(c echo.Context) error {
	return h.rate(c, true, h.Ratings.RatePassenger)
}

func (h *RatingHandler) rate(c echo.Context, byDriver bool, store func(context.Context, *model.Rating) (model.Ride, error)) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req rateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if byDriver && req.PassengerID == 0 {
		return badRequest(c, "passenger_id is required")
	}
	rt, msg := req.rating(uid)
	if msg != "" {
		return badRequest(c, msg)
	}

	ride, err := store(c.Request().Context(), &rt)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, inventory.KindNotFound.String(), "completed ride not found or you were not part of it")
	case errors.Is(err, repository.ErrRatingExists):
		return fail(c, http.StatusConflict, "already_rated", "you have already rated this ride")
	case err != nil:
		return respondError(c, h.Log, err)
	}

	h.notify(c.Request().Context(), rt, ride)
	return c.JSON(http.StatusCreated, echo.Map{"message": "Rating submitted successfully", "rating_id": rt.ID})
}

// notify tells the rated user. A failed delivery does not undo the rating.
func (h *RatingHandler) notify(ctx context.Context, rt model.Rating, ride model.Ride) {
	if h.Notifier == nil {
		return
	}
	n := inventory.Notice{
		Recipient:   rt.RateeID,
		Type:        model.NotifyNewReview,
		RideID:      ride.ID,
		Source:      ride.Source,
		Destination: ride.Destination,
		DepartsAt:   ride.DepartsAt,
		Score:       rt.Score,
	}
	if err := h.Notifier.Notify(ctx, n); err != nil {
		h.Log.Warn("notification dropped", "type", n.Type, "recipient", n.Recipient, "ride_id", n.RideID, "error", err)
	}
}

// Check handles GET /v1/ratings/check?ride_id=&target_user_id=.
func (h *RatingHandler) Check(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rideID, err := strconv.ParseUint(c.QueryParam("ride_id"), 10, 64)
	if err != nil || rideID == 0 {
		return badRequest(c, "ride_id is required")
	}
	var target uint64
	if raw := c.QueryParam("target_user_id"); raw != "" {
		if target, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return badRequest(c, "invalid target_user_id")
		}
	}
	existing, err := h.Ratings.Find(c.Request().Context(), rideID, uid, target)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hasRated": existing != nil, "existing": existing})
}

// RidePassengers handles GET /v1/ratings/ride-passengers/:id.
func (h *RatingHandler) RidePassengers(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid ride id")
	}
	list, err := h.Ratings.RidePassengers(c.Request().Context(), id, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ForUser handles GET /v1/ratings/user/:id. It is public.
func (h *RatingHandler) ForUser(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	sum, err := h.Ratings.ListByUser(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sum)
}
