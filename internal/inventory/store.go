package inventory

import (
	"context"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// Store runs a unit of work in one transaction. If fn returns an error
// the transaction is rolled back and the error is returned unchanged,
// except that lock wait timeouts and deadlocks surface as ErrBusy.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of row operations an inventory transaction needs.
// Lookups of missing rows return sql.ErrNoRows.
//
// Lock order is ride before booking before vehicle rows; every
// implementation acquires locks in that order.
type Tx interface {
	// LockRide reads the ride and holds an exclusive lock on it until
	// the transaction ends.
	LockRide(ctx context.Context, rideID uint64) (model.Ride, error)
	// LockBooking locks the parent ride and then the booking.
	LockBooking(ctx context.Context, bookingID uint64) (model.Booking, model.Ride, error)
	// LockVehicle serializes ride publishing per vehicle.
	LockVehicle(ctx context.Context, vehicleID uint64) (model.Vehicle, error)
	FirstVehicleOf(ctx context.Context, driverID uint64) (model.Vehicle, error)
	// FindOverlap returns an ACTIVE or STARTED ride of the vehicle whose
	// departure is strictly less than window away from at, or nil.
	FindOverlap(ctx context.Context, vehicleID uint64, at time.Time, window time.Duration) (*model.Ride, error)

	InsertRide(ctx context.Context, r *model.Ride) error
	InsertStops(ctx context.Context, rideID uint64, stops []model.Stop) error
	InsertBooking(ctx context.Context, b *model.Booking) error

	// AdjustSeats adds delta to available_seats. It fails rather than
	// leave the count outside [0, total_seats].
	AdjustSeats(ctx context.Context, rideID uint64, delta int) error
	SetRideStatus(ctx context.Context, rideID uint64, status model.RideStatus) error
	MarkRideCancelled(ctx context.Context, rideID, by uint64, reason string, at time.Time) error
	SetBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error
	ListBookings(ctx context.Context, rideID uint64, statuses ...model.BookingStatus) ([]model.Booking, error)
	// TransitionBookings moves every booking of the ride in status from
	// to status to and returns how many rows changed.
	TransitionBookings(ctx context.Context, rideID uint64, from, to model.BookingStatus) (int64, error)
}
