package inventory

import (
	"context"
	"strings"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// DefaultCancelReason is recorded when the driver gives none.
const DefaultCancelReason = "No reason provided"

// Completion reports the riders whose bookings CompleteRide finished.
type Completion struct {
	RideID              uint64   `json:"rideId"`
	CompletedPassengers []uint64 `json:"completedPassengers"`
	Message             string   `json:"message"`
}

// lockOwnRide locks the ride and checks that driverID drives it.
func lockOwnRide(ctx context.Context, tx Tx, rideID, driverID uint64) (model.Ride, error) {
	r, err := tx.LockRide(ctx, rideID)
	if err != nil {
		return model.Ride{}, notFound(err, "ride")
	}
	if r.DriverID != driverID {
		return model.Ride{}, newError(KindForbidden, "only the ride's driver can do this")
	}
	return r, nil
}

func terminalError(r model.Ride) error {
	return newError(KindInvalidState, "ride is already %s", strings.ToLower(string(r.Status)))
}

// StartRide marks a ride STARTED and tells every confirmed rider. A
// ride that is already started stays started and nobody is told twice.
func (e *Engine) StartRide(ctx context.Context, rideID, driverID uint64) (Outcome, error) {
	var (
		ride      model.Ride
		confirmed []model.Booking
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := lockOwnRide(ctx, tx, rideID, driverID)
		if err != nil {
			return err
		}
		if r.Status.Terminal() {
			return terminalError(r)
		}
		ride = r
		if r.Status == model.RideStarted {
			return nil
		}
		if err := tx.SetRideStatus(ctx, r.ID, model.RideStarted); err != nil {
			return err
		}
		confirmed, err = tx.ListBookings(ctx, r.ID, model.BookingConfirmed)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	notices := make([]Notice, 0, len(confirmed))
	for _, b := range confirmed {
		n := noticeFor(model.NotifyRideStarted, b.RiderID, ride)
		n.BookingID = b.ID
		notices = append(notices, n)
	}
	e.dispatch(notices...)
	return Outcome{Message: "Ride started and passengers notified."}, nil
}

// CompleteRide finishes an ACTIVE or STARTED ride. Confirmed bookings
// become COMPLETED and keep their seats; pending requests that were
// never answered are cancelled without notice.
func (e *Engine) CompleteRide(ctx context.Context, rideID, driverID uint64) (Completion, error) {
	var (
		ride      model.Ride
		confirmed []model.Booking
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := lockOwnRide(ctx, tx, rideID, driverID)
		if err != nil {
			return err
		}
		if r.Status.Terminal() {
			return terminalError(r)
		}
		confirmed, err = tx.ListBookings(ctx, r.ID, model.BookingConfirmed)
		if err != nil {
			return err
		}
		if err := tx.SetRideStatus(ctx, r.ID, model.RideCompleted); err != nil {
			return err
		}
		if _, err := tx.TransitionBookings(ctx, r.ID, model.BookingConfirmed, model.BookingCompleted); err != nil {
			return err
		}
		if _, err := tx.TransitionBookings(ctx, r.ID, model.BookingPending, model.BookingCancelled); err != nil {
			return err
		}
		ride = r
		return nil
	})
	if err != nil {
		return Completion{}, err
	}

	res := Completion{
		RideID:              ride.ID,
		CompletedPassengers: make([]uint64, 0, len(confirmed)),
		Message:             "Ride completed successfully",
	}
	notices := make([]Notice, 0, len(confirmed))
	for _, b := range confirmed {
		res.CompletedPassengers = append(res.CompletedPassengers, b.RiderID)
		n := noticeFor(model.NotifyRideCompleted, b.RiderID, ride)
		n.BookingID = b.ID
		notices = append(notices, n)
	}
	e.dispatch(notices...)
	return res, nil
}

// CancelRide cancels a ride that has not finished. Every PENDING and
// CONFIRMED booking is cancelled and the confirmed seats are returned,
// so the seat count still adds up on the cancelled ride.
func (e *Engine) CancelRide(ctx context.Context, rideID, driverID uint64, reason string) (Outcome, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	var (
		ride     model.Ride
		affected []model.Booking
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := lockOwnRide(ctx, tx, rideID, driverID)
		if err != nil {
			return err
		}
		if r.Status.Terminal() {
			return terminalError(r)
		}
		affected, err = tx.ListBookings(ctx, r.ID, model.BookingPending, model.BookingConfirmed)
		if err != nil {
			return err
		}
		if err := tx.MarkRideCancelled(ctx, r.ID, driverID, reason, e.now().UTC()); err != nil {
			return err
		}
		released := 0
		for _, b := range affected {
			if b.Status == model.BookingConfirmed {
				released += b.SeatsBooked
			}
		}
		for _, from := range []model.BookingStatus{model.BookingPending, model.BookingConfirmed} {
			if _, err := tx.TransitionBookings(ctx, r.ID, from, model.BookingCancelled); err != nil {
				return err
			}
		}
		if released > 0 {
			if err := tx.AdjustSeats(ctx, r.ID, released); err != nil {
				return err
			}
		}
		ride = r
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	notices := make([]Notice, 0, len(affected))
	for _, b := range affected {
		n := noticeFor(model.NotifyRideCancelled, b.RiderID, ride)
		n.BookingID = b.ID
		n.Reason = reason
		notices = append(notices, n)
	}
	e.dispatch(notices...)
	return Outcome{Message: "Ride cancelled successfully"}, nil
}
