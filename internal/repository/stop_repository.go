package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// StopRepo stores the intermediate stops of a ride.
type StopRepo struct {
	db *sql.DB
}

// NewStopRepo returns a new StopRepo bound to the given database.
func NewStopRepo(db *sql.DB) *StopRepo { return &StopRepo{db: db} }

// CreateBulkTx inserts all stops of a ride in a single statement.
// Passing an empty slice has no effect.
func (r *StopRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, rideID uint64, stops []model.Stop) error {
	if len(stops) == 0 {
		return nil
	}
	query := `INSERT INTO stops (ride_id, city_name, latitude, longitude, stop_order, stop_price_cents) VALUES `
	args := make([]interface{}, 0, len(stops)*6)
	for i, s := range stops {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, rideID, s.CityName, s.Latitude, s.Longitude, s.StopOrder, s.StopPriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByRide returns the ride's stops in route order.
func (r *StopRepo) ListByRide(ctx context.Context, rideID uint64) ([]model.Stop, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT stop_id, ride_id, city_name, latitude, longitude, stop_order, stop_price_cents
         FROM stops WHERE ride_id = ? ORDER BY stop_order`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Stop
	for rows.Next() {
		var s model.Stop
		if err := rows.Scan(&s.ID, &s.RideID, &s.CityName, &s.Latitude, &s.Longitude, &s.StopOrder, &s.StopPriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
