package inventory

import (
	"context"
	"strings"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// BookingRequest is a rider's request for seats on a ride.
type BookingRequest struct {
	RideID        uint64
	RiderID       uint64
	Seats         int
	AmountCents   int64
	PaymentMethod string
}

// BookingResult describes the booking CreateBooking inserted.
type BookingResult struct {
	BookingID uint64              `json:"bookingId"`
	Status    model.BookingStatus `json:"status"`
	Message   string              `json:"message"`
}

// Decision is a driver's answer to a pending booking.
type Decision string

const (
	Approve Decision = "APPROVE"
	Reject  Decision = "REJECT"
)

// ParseDecision accepts APPROVE/REJECT in any case.
func ParseDecision(s string) (Decision, bool) {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(s))); d {
	case Approve, Reject:
		return d, true
	}
	return "", false
}

// Outcome is the result of an operation that only reports a message.
type Outcome struct {
	Message string `json:"message"`
}

// CreateBooking reserves seats on an ACTIVE ride. INSTANT rides confirm
// the booking and take the seats immediately; APPROVAL rides record a
// PENDING booking and leave the seat count alone until the driver
// approves.
func (e *Engine) CreateBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	if req.Seats < 1 {
		return BookingResult{}, newError(KindInvalidOperation, "seats_booked must be at least 1")
	}
	method := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = model.DefaultPaymentMethod
	}

	var (
		res  BookingResult
		ride model.Ride
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := tx.LockRide(ctx, req.RideID)
		if err != nil {
			return notFound(err, "ride")
		}
		if r.DriverID == req.RiderID {
			return newError(KindInvalidOperation, "you cannot book your own ride")
		}
		if r.Status != model.RideActive {
			return newError(KindInvalidState, "ride is %s and no longer accepts bookings", strings.ToLower(string(r.Status)))
		}
		if r.AvailableSeats < req.Seats {
			return newError(KindInsufficientSeats, "not enough seats available")
		}

		b := model.Booking{
			RideID:        r.ID,
			RiderID:       req.RiderID,
			SeatsBooked:   req.Seats,
			AmountCents:   req.AmountCents,
			PaymentMethod: method,
			PaymentStatus: model.PaymentPending,
			Status:        model.BookingConfirmed,
		}
		if r.BookingType == model.BookingApproval {
			b.Status = model.BookingPending
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return err
		}
		if b.Status == model.BookingConfirmed {
			if err := tx.AdjustSeats(ctx, r.ID, -b.SeatsBooked); err != nil {
				return err
			}
		}
		ride = r
		res = BookingResult{BookingID: b.ID, Status: b.Status}
		return nil
	})
	if err != nil {
		return BookingResult{}, err
	}

	n := noticeFor(model.NotifyBookingCreated, ride.DriverID, ride)
	res.Message = "Booking created successfully!"
	if res.Status == model.BookingPending {
		n.Type = model.NotifyBookingRequested
		res.Message = "Request sent to driver!"
	}
	n.BookingID = res.BookingID
	n.Seats = req.Seats
	e.dispatch(n)
	return res, nil
}

// ResolveBooking lets the driver approve or reject a PENDING booking.
// Approval takes the seats and fails with InsufficientSeats, leaving
// the booking PENDING, when they are no longer there.
func (e *Engine) ResolveBooking(ctx context.Context, bookingID, driverID uint64, d Decision) (Outcome, error) {
	if d != Approve && d != Reject {
		return Outcome{}, newError(KindInvalidOperation, "action must be APPROVE or REJECT")
	}

	var (
		booking model.Booking
		ride    model.Ride
		next    model.BookingStatus
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		b, r, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return notFound(err, "booking")
		}
		if r.DriverID != driverID {
			return newError(KindForbidden, "only the ride's driver can approve or reject bookings")
		}
		if b.Status != model.BookingPending {
			return newError(KindInvalidState, "booking is already %s", strings.ToLower(string(b.Status)))
		}

		next = model.BookingRejected
		if d == Approve {
			if r.AvailableSeats < b.SeatsBooked {
				return newError(KindInsufficientSeats, "not enough seats left to approve this booking")
			}
			next = model.BookingConfirmed
		}
		if err := tx.SetBookingStatus(ctx, b.ID, next); err != nil {
			return err
		}
		if next == model.BookingConfirmed {
			if err := tx.AdjustSeats(ctx, r.ID, -b.SeatsBooked); err != nil {
				return err
			}
		}
		booking, ride = b, r
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	t, msg := model.NotifyBookingConfirmed, "Booking approved successfully."
	if next == model.BookingRejected {
		t, msg = model.NotifyBookingRejected, "Booking rejected successfully."
	}
	n := noticeFor(t, booking.RiderID, ride)
	n.BookingID = booking.ID
	n.Seats = booking.SeatsBooked
	e.dispatch(n)
	return Outcome{Message: msg}, nil
}

// CancelBooking cancels a booking on behalf of its rider or the ride's
// driver. Seats come back only if the booking was CONFIRMED; a PENDING
// booking never held any.
func (e *Engine) CancelBooking(ctx context.Context, bookingID, actorID uint64) (Outcome, error) {
	var (
		booking model.Booking
		ride    model.Ride
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		b, r, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return notFound(err, "booking")
		}
		if actorID != b.RiderID && actorID != r.DriverID {
			return newError(KindForbidden, "you are not allowed to cancel this booking")
		}
		switch b.Status {
		case model.BookingCancelled:
			return newError(KindInvalidState, "booking is already cancelled")
		case model.BookingCompleted, model.BookingRejected:
			return newError(KindInvalidState, "booking is %s and cannot be cancelled", strings.ToLower(string(b.Status)))
		}

		if err := tx.SetBookingStatus(ctx, b.ID, model.BookingCancelled); err != nil {
			return err
		}
		if b.Status == model.BookingConfirmed {
			if err := tx.AdjustSeats(ctx, r.ID, b.SeatsBooked); err != nil {
				return err
			}
		}
		booking, ride = b, r
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	to := ride.DriverID
	if actorID == ride.DriverID {
		to = booking.RiderID
	}
	n := noticeFor(model.NotifyBookingCancelled, to, ride)
	n.BookingID = booking.ID
	n.Seats = booking.SeatsBooked
	e.dispatch(n)
	return Outcome{Message: "Booking cancelled successfully."}, nil
}
