package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// ErrRatingExists is returned when the rater already rated that user
// for the ride.
var ErrRatingExists = errors.New("rating already submitted")

// RatingRepo stores ride ratings. A rating is only accepted for a
// COMPLETED ride on which the rider holds a COMPLETED booking.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo returns a new RatingRepo bound to the given database.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// completedTrip returns the ride when it is COMPLETED, driven by
// driverID (any driver when zero) and riderID holds a COMPLETED booking
// on it. ErrNotFound otherwise.
func (r *RatingRepo) completedTrip(ctx context.Context, rideID, driverID, riderID uint64) (model.Ride, error) {
	q := `SELECT ` + rideColumns + ` FROM rides r
          JOIN bookings b ON b.ride_id = r.ride_id AND b.rider_id = ? AND b.booking_status = 'COMPLETED'
          WHERE r.ride_id = ? AND r.status = 'COMPLETED' AND (? = 0 OR r.driver_id = ?)
          LIMIT 1`
	ride, err := scanRide(r.db.QueryRowContext(ctx, q, riderID, rideID, driverID, driverID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ride{}, ErrNotFound
	}
	return ride, err
}

func (r *RatingRepo) insert(ctx context.Context, rt *model.Rating) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (ride_id, rated_by, rated_user, rating, review) VALUES (?, ?, ?, ?, ?)`,
		rt.RideID, rt.RaterID, rt.RateeID, rt.Score, rt.Review)
	if err != nil {
		if isDuplicate(err) {
			return ErrRatingExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// RateDriver records the rider's score for the ride's driver. rt.RaterID
// and rt.RideID must be set; RateeID is filled from the ride.
func (r *RatingRepo) RateDriver(ctx context.Context, rt *model.Rating) (model.Ride, error) {
	ride, err := r.completedTrip(ctx, rt.RideID, 0, rt.RaterID)
	if err != nil {
		return model.Ride{}, err
	}
	rt.RateeID = ride.DriverID
	return ride, r.insert(ctx, rt)
}

// RatePassenger records the driver's score for one of the ride's
// riders. rt.RaterID is the driver and rt.RateeID the rider.
func (r *RatingRepo) RatePassenger(ctx context.Context, rt *model.Rating) (model.Ride, error) {
	ride, err := r.completedTrip(ctx, rt.RideID, rt.RaterID, rt.RateeID)
	if err != nil {
		return model.Ride{}, err
	}
	return ride, r.insert(ctx, rt)
}

// Find returns raterID's rating on the ride, narrowed to rateeID when it
// is non-zero, or nil.
func (r *RatingRepo) Find(ctx context.Context, rideID, raterID, rateeID uint64) (*model.Rating, error) {
	var (
		rt     model.Rating
		review sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT rating_id, ride_id, rated_by, rated_user, rating, review, created_at
         FROM ratings WHERE ride_id = ? AND rated_by = ? AND (? = 0 OR rated_user = ?)
         ORDER BY rating_id LIMIT 1`, rideID, raterID, rateeID, rateeID).
		Scan(&rt.ID, &rt.RideID, &rt.RaterID, &rt.RateeID, &rt.Score, &review, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if review.Valid {
		rt.Review = &review.String
	}
	return &rt, nil
}

// ListByUser returns every rating the user received, newest first, and
// the average rounded to one decimal.
func (r *RatingRepo) ListByUser(ctx context.Context, userID uint64) (model.RatingSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rt.rating_id, rt.ride_id, rt.rated_by, rt.rated_user, rt.rating, rt.review, rt.created_at,
                u.full_name, ri.source, ri.destination, TIMESTAMP(ri.ride_date, ri.ride_time)
         FROM ratings rt
         JOIN users u ON u.user_id = rt.rated_by
         JOIN rides ri ON ri.ride_id = rt.ride_id
         WHERE rt.rated_user = ?
         ORDER BY rt.created_at DESC, rt.rating_id DESC`, userID)
	if err != nil {
		return model.RatingSummary{}, err
	}
	defer rows.Close()

	sum := model.RatingSummary{Ratings: []model.RatingDetail{}}
	total := 0
	for rows.Next() {
		var (
			d      model.RatingDetail
			review sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.RideID, &d.RaterID, &d.RateeID, &d.Score, &review, &d.CreatedAt,
			&d.ReviewerName, &d.Source, &d.Destination, &d.DepartsAt); err != nil {
			return model.RatingSummary{}, err
		}
		if review.Valid {
			d.Review = &review.String
		}
		total += d.Score
		sum.Ratings = append(sum.Ratings, d)
	}
	if err := rows.Err(); err != nil {
		return model.RatingSummary{}, err
	}
	sum.TotalRatings = len(sum.Ratings)
	if sum.TotalRatings > 0 {
		sum.AverageRating = math.Round(float64(total)/float64(sum.TotalRatings)*10) / 10
	}
	return sum, nil
}

// RidePassengers lists the CONFIRMED or COMPLETED riders of the driver's
// ride and whether the driver has rated each one.
func (r *RatingRepo) RidePassengers(ctx context.Context, rideID, driverID uint64) ([]model.RidePassenger, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.user_id, u.full_name, b.booking_status,
                EXISTS(SELECT 1 FROM ratings rt WHERE rt.ride_id = b.ride_id AND rt.rated_by = r.driver_id AND rt.rated_user = u.user_id)
         FROM bookings b
         JOIN rides r ON r.ride_id = b.ride_id
         JOIN users u ON u.user_id = b.rider_id
         WHERE b.ride_id = ? AND r.driver_id = ? AND b.booking_status IN ('CONFIRMED', 'COMPLETED')
         ORDER BY b.booking_id`, rideID, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RidePassenger{}
	for rows.Next() {
		var p model.RidePassenger
		if err := rows.Scan(&p.UserID, &p.FullName, &p.BookingStatus, &p.HasRated); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
