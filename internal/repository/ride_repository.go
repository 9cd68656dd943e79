package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// RideRepo reads and writes the rides table. Methods with a Tx suffix
// run inside a caller supplied transaction; the caller commits or rolls
// back.
type RideRepo struct {
	db *sql.DB
}

// NewRideRepo returns a new RideRepo bound to the given database.
func NewRideRepo(db *sql.DB) *RideRepo { return &RideRepo{db: db} }

// rideColumns is shared by every ride SELECT. ride_date and ride_time
// are combined into one DATETIME so they scan into a time.Time.
const rideColumns = `r.ride_id, r.driver_id, r.vehicle_id,
       r.source, r.source_lat, r.source_lng,
       r.destination, r.destination_lat, r.destination_lng,
       TIMESTAMP(r.ride_date, r.ride_time),
       r.total_seats, r.available_seats, r.base_price_cents,
       r.booking_type, r.status, r.route_polyline, r.total_stops,
       r.cancelled_by, r.cancellation_reason, r.cancelled_at, r.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(s rowScanner) (model.Ride, error) {
	var (
		r           model.Ride
		polyline    sql.NullString
		cancelledBy sql.NullInt64
		reason      sql.NullString
		cancelledAt sql.NullTime
	)
	err := s.Scan(
		&r.ID, &r.DriverID, &r.VehicleID,
		&r.Source, &r.SourceLat, &r.SourceLng,
		&r.Destination, &r.DestinationLat, &r.DestinationLng,
		&r.DepartsAt,
		&r.TotalSeats, &r.AvailableSeats, &r.BasePriceCents,
		&r.BookingType, &r.Status, &polyline, &r.TotalStops,
		&cancelledBy, &reason, &cancelledAt, &r.CreatedAt,
	)
	if err != nil {
		return model.Ride{}, err
	}
	if polyline.Valid {
		r.RoutePolyline = &polyline.String
	}
	if cancelledBy.Valid {
		by := uint64(cancelledBy.Int64)
		r.CancelledBy = &by
	}
	if reason.Valid {
		r.CancellationReason = &reason.String
	}
	if cancelledAt.Valid {
		r.CancelledAt = &cancelledAt.Time
	}
	return r, nil
}

func scanRides(rows *sql.Rows) ([]model.Ride, error) {
	defer rows.Close()
	var out []model.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetByID returns the ride or sql.ErrNoRows.
func (r *RideRepo) GetByID(ctx context.Context, id uint64) (model.Ride, error) {
	return scanRide(r.db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides r WHERE r.ride_id = ?`, id))
}

// GetForUpdateTx reads the ride and locks its row until tx ends.
func (r *RideRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ride, error) {
	return scanRide(tx.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides r WHERE r.ride_id = ? FOR UPDATE`, id))
}

// CreateTx inserts the ride and sets its generated ID.
func (r *RideRepo) CreateTx(ctx context.Context, tx *sql.Tx, ride *model.Ride) error {
	const q = `INSERT INTO rides (driver_id, vehicle_id, source, source_lat, source_lng,
                   destination, destination_lat, destination_lng, ride_date, ride_time,
                   total_seats, available_seats, base_price_cents, booking_type, status,
                   route_polyline, total_stops)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	at := ride.DepartsAt.UTC()
	res, err := tx.ExecContext(ctx, q,
		ride.DriverID, ride.VehicleID, ride.Source, ride.SourceLat, ride.SourceLng,
		ride.Destination, ride.DestinationLat, ride.DestinationLng,
		at.Format("2006-01-02"), at.Format("15:04:05"),
		ride.TotalSeats, ride.AvailableSeats, ride.BasePriceCents, ride.BookingType, ride.Status,
		ride.RoutePolyline, ride.TotalStops,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ride.ID = uint64(id)
	return nil
}

// AdjustSeatsTx adds delta to available_seats. The WHERE clause keeps the
// count within [0, total_seats]; ErrConflict is returned when it would
// leave that range.
func (r *RideRepo) AdjustSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	const q = `UPDATE rides SET available_seats = available_seats + ?
               WHERE ride_id = ? AND available_seats + ? BETWEEN 0 AND total_seats`
	res, err := tx.ExecContext(ctx, q, delta, id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrConflict
	}
	return nil
}

// UpdateStatusTx sets the ride status.
func (r *RideRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.RideStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE rides SET status = ? WHERE ride_id = ?`, status, id)
	return err
}

// CancelTx marks the ride CANCELLED and records who cancelled it, why
// and when.
func (r *RideRepo) CancelTx(ctx context.Context, tx *sql.Tx, id, by uint64, reason string, at time.Time) error {
	const q = `UPDATE rides SET status = 'CANCELLED', cancelled_by = ?, cancellation_reason = ?, cancelled_at = ?
               WHERE ride_id = ?`
	_, err := tx.ExecContext(ctx, q, by, reason, at.UTC(), id)
	return err
}

// FindOverlapTx returns the first ACTIVE or STARTED ride of the vehicle
// that departs strictly less than window from at, or nil. It is a plain
// read and takes no row or gap locks: publishes on one vehicle already
// queue on the vehicle row lock, and TxStore runs READ COMMITTED so the
// read sees the ride the previous holder committed.
func (r *RideRepo) FindOverlapTx(ctx context.Context, tx *sql.Tx, vehicleID uint64, at time.Time, window time.Duration) (*model.Ride, error) {
	q := `SELECT ` + rideColumns + ` FROM rides r
          WHERE r.vehicle_id = ? AND r.status IN ('ACTIVE', 'STARTED')
            AND ABS(TIMESTAMPDIFF(SECOND, TIMESTAMP(r.ride_date, r.ride_time), ?)) < ?
          ORDER BY r.ride_id LIMIT 1`
	ride, err := scanRide(tx.QueryRowContext(ctx, q, vehicleID, at.UTC(), int64(window/time.Second)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// ListByDriver returns the driver's rides that have not finished,
// soonest first.
func (r *RideRepo) ListByDriver(ctx context.Context, driverID uint64) ([]model.Ride, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rideColumns+` FROM rides r
        WHERE r.driver_id = ? AND r.status IN ('ACTIVE', 'STARTED')
        ORDER BY r.ride_date, r.ride_time`, driverID)
	if err != nil {
		return nil, err
	}
	return scanRides(rows)
}

// ListOpenOn returns ACTIVE rides with free seats departing on day.
func (r *RideRepo) ListOpenOn(ctx context.Context, day time.Time) ([]model.Ride, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rideColumns+` FROM rides r
        WHERE r.ride_date = ? AND r.status = 'ACTIVE' AND r.available_seats > 0
        ORDER BY r.ride_time`, day.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return scanRides(rows)
}
