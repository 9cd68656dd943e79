package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// NotificationRepo persists in-app notifications.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts n and sets its ID.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, message, ride_id, booking_id) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Message, n.RideID, n.BookingID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the user's most recent notifications.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT notification_id, user_id, type, message, ride_id, booking_id, is_read, created_at
         FROM notifications WHERE user_id = ?
         ORDER BY created_at DESC, notification_id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var (
			n         model.Notification
			rideID    sql.NullInt64
			bookingID sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &rideID, &bookingID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if rideID.Valid {
			id := uint64(rideID.Int64)
			n.RideID = &id
		}
		if bookingID.Valid {
			id := uint64(bookingID.Int64)
			n.BookingID = &id
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one of the user's notifications as read. ErrNotFound
// means the notification does not exist or belongs to someone else.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE notification_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
