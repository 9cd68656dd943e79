package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// BookingRepo reads and writes the bookings table.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.booking_id, b.ride_id, b.rider_id, b.seats_booked, b.amount_cents,
       b.payment_method, b.payment_status, b.booking_status, b.created_at, b.updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.ID, &b.RideID, &b.RiderID, &b.SeatsBooked, &b.AmountCents,
		&b.PaymentMethod, &b.PaymentStatus, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// RideIDOfTx returns the ride a booking belongs to without locking
// anything. ride_id never changes after insert.
func (r *BookingRepo) RideIDOfTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (uint64, error) {
	var rideID uint64
	err := tx.QueryRowContext(ctx, `SELECT ride_id FROM bookings WHERE booking_id = ?`, bookingID).Scan(&rideID)
	return rideID, err
}

// GetForUpdateTx reads the booking and locks its row until tx ends.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.booking_id = ? FOR UPDATE`, id))
}

// CreateTx inserts a booking and fills in its ID and timestamps.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (ride_id, rider_id, seats_booked, amount_cents, payment_method, payment_status, booking_status)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.RideID, b.RiderID, b.SeatsBooked, b.AmountCents, b.PaymentMethod, b.PaymentStatus, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// UpdateStatusTx sets booking_status on one booking.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET booking_status = ? WHERE booking_id = ?`, status, id)
	return err
}

// ListByRideTx returns the ride's bookings, optionally filtered by
// status, in insertion order.
func (r *BookingRepo) ListByRideTx(ctx context.Context, tx *sql.Tx, rideID uint64, statuses ...model.BookingStatus) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.ride_id = ?`
	args := []interface{}{rideID}
	if len(statuses) > 0 {
		q += ` AND b.booking_status IN (?` + strings.Repeat(`, ?`, len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	q += ` ORDER BY b.booking_id`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TransitionTx moves every booking of the ride in status from to
// status to.
func (r *BookingRepo) TransitionTx(ctx context.Context, tx *sql.Tx, rideID uint64, from, to model.BookingStatus) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET booking_status = ? WHERE ride_id = ? AND booking_status = ?`, to, rideID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BookingDetail is a rider's booking together with the ride it is on.
type BookingDetail struct {
	model.Booking
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	DepartsAt   time.Time        `json:"departs_at"`
	RideStatus  model.RideStatus `json:"ride_status"`
	DriverID    uint64           `json:"driver_id"`
}

// ListByRider returns the rider's bookings, newest first.
func (r *BookingRepo) ListByRider(ctx context.Context, riderID uint64) ([]BookingDetail, error) {
	q := `SELECT ` + bookingColumns + `, r.source, r.destination, TIMESTAMP(r.ride_date, r.ride_time), r.status, r.driver_id
          FROM bookings b
          JOIN rides r ON r.ride_id = b.ride_id
          WHERE b.rider_id = ?
          ORDER BY b.created_at DESC, b.booking_id DESC`
	rows, err := r.db.QueryContext(ctx, q, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookingDetail
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.RideID, &d.RiderID, &d.SeatsBooked, &d.AmountCents,
			&d.PaymentMethod, &d.PaymentStatus, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.Source, &d.Destination, &d.DepartsAt, &d.RideStatus, &d.DriverID); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
