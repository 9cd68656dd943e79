package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// TxStore runs inventory transactions against MySQL at READ COMMITTED.
// Row locks come from SELECT ... FOR UPDATE; the server's
// innodb_lock_wait_timeout (set on every pooled connection by
// database.Open) bounds the wait.
type TxStore struct {
	db       *sql.DB
	rides    *RideRepo
	bookings *BookingRepo
	vehicles *VehicleRepo
	stops    *StopRepo
}

// NewTxStore returns a TxStore bound to the given database.
func NewTxStore(db *sql.DB) *TxStore {
	return &TxStore{
		db:       db,
		rides:    NewRideRepo(db),
		bookings: NewBookingRepo(db),
		vehicles: NewVehicleRepo(db),
		stops:    NewStopRepo(db),
	}
}

var _ inventory.Store = (*TxStore)(nil)

// WithTx begins a transaction, runs fn and commits. Any error from fn
// or the commit rolls back. Lock wait timeouts and deadlocks come back
// as inventory.ErrBusy.
func (s *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &sqlTx{tx: tx, s: s}); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

func classify(err error) error {
	if isRetryable(err) {
		return inventory.Busy(err)
	}
	return err
}

// sqlTx adapts the repositories' Tx methods to inventory.Tx.
type sqlTx struct {
	tx *sql.Tx
	s  *TxStore
}

func (t *sqlTx) LockRide(ctx context.Context, rideID uint64) (model.Ride, error) {
	return t.s.rides.GetForUpdateTx(ctx, t.tx, rideID)
}

// LockBooking takes the ride lock before the booking lock, the same
// order every other operation uses, so lifecycle changes and booking
// changes on one ride queue up instead of deadlocking.
func (t *sqlTx) LockBooking(ctx context.Context, bookingID uint64) (model.Booking, model.Ride, error) {
	rideID, err := t.s.bookings.RideIDOfTx(ctx, t.tx, bookingID)
	if err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	ride, err := t.s.rides.GetForUpdateTx(ctx, t.tx, rideID)
	if err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	b, err := t.s.bookings.GetForUpdateTx(ctx, t.tx, bookingID)
	if err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	return b, ride, nil
}

func (t *sqlTx) LockVehicle(ctx context.Context, vehicleID uint64) (model.Vehicle, error) {
	return t.s.vehicles.GetForUpdateTx(ctx, t.tx, vehicleID)
}

func (t *sqlTx) FirstVehicleOf(ctx context.Context, driverID uint64) (model.Vehicle, error) {
	return t.s.vehicles.FirstByUserTx(ctx, t.tx, driverID)
}

func (t *sqlTx) FindOverlap(ctx context.Context, vehicleID uint64, at time.Time, window time.Duration) (*model.Ride, error) {
	return t.s.rides.FindOverlapTx(ctx, t.tx, vehicleID, at, window)
}

func (t *sqlTx) InsertRide(ctx context.Context, r *model.Ride) error {
	return t.s.rides.CreateTx(ctx, t.tx, r)
}

func (t *sqlTx) InsertStops(ctx context.Context, rideID uint64, stops []model.Stop) error {
	return t.s.stops.CreateBulkTx(ctx, t.tx, rideID, stops)
}

func (t *sqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.s.bookings.CreateTx(ctx, t.tx, b)
}

func (t *sqlTx) AdjustSeats(ctx context.Context, rideID uint64, delta int) error {
	return t.s.rides.AdjustSeatsTx(ctx, t.tx, rideID, delta)
}

func (t *sqlTx) SetRideStatus(ctx context.Context, rideID uint64, status model.RideStatus) error {
	return t.s.rides.UpdateStatusTx(ctx, t.tx, rideID, status)
}

func (t *sqlTx) MarkRideCancelled(ctx context.Context, rideID, by uint64, reason string, at time.Time) error {
	return t.s.rides.CancelTx(ctx, t.tx, rideID, by, reason, at)
}

func (t *sqlTx) SetBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) error {
	return t.s.bookings.UpdateStatusTx(ctx, t.tx, bookingID, status)
}

func (t *sqlTx) ListBookings(ctx context.Context, rideID uint64, statuses ...model.BookingStatus) ([]model.Booking, error) {
	return t.s.bookings.ListByRideTx(ctx, t.tx, rideID, statuses...)
}

func (t *sqlTx) TransitionBookings(ctx context.Context, rideID uint64, from, to model.BookingStatus) (int64, error) {
	return t.s.bookings.TransitionTx(ctx, t.tx, rideID, from, to)
}
