package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// TemplateRepo stores drivers' saved rides.
type TemplateRepo struct {
	db *sql.DB
}

// NewTemplateRepo returns a new TemplateRepo bound to the given database.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

// Create saves t and its stops in one transaction. A vehicle, when set,
// must belong to t.UserID: ErrNotFound when it does not exist,
// ErrForbidden when someone else owns it.
func (r *TemplateRepo) Create(ctx context.Context, t *model.RideTemplate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if t.VehicleID != nil {
		var owner uint64
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM vehicles WHERE vehicle_id = ?`, *t.VehicleID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if owner != t.UserID {
			return ErrForbidden
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ride_templates (user_id, vehicle_id, source, source_lat, source_lng,
            destination, destination_lat, destination_lng, ride_time, total_seats,
            base_price_cents, booking_type, route_polyline)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.VehicleID, t.Source, t.SourceLat, t.SourceLng,
		t.Destination, t.DestinationLat, t.DestinationLng, t.RideTime, t.TotalSeats,
		t.BasePriceCents, t.BookingType, t.RoutePolyline)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, s := range t.Stops {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO template_stops (template_id, city_name, latitude, longitude, stop_order, stop_price_cents)
             VALUES (?, ?, ?, ?, ?, ?)`,
			id, s.CityName, s.Latitude, s.Longitude, s.StopOrder, s.StopPriceCents); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	t.ID = uint64(id)
	return nil
}

// ListByUser returns the user's templates, newest first, each with its
// stops in order.
func (r *TemplateRepo) ListByUser(ctx context.Context, userID uint64) ([]model.RideTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.template_id, t.user_id, t.vehicle_id, t.source, t.source_lat, t.source_lng,
                t.destination, t.destination_lat, t.destination_lng, TIME_FORMAT(t.ride_time, '%H:%i:%s'),
                t.total_seats, t.base_price_cents, t.booking_type, t.route_polyline, t.created_at,
                v.model, v.vehicle_number
         FROM ride_templates t
         LEFT JOIN vehicles v ON v.vehicle_id = t.vehicle_id
         WHERE t.user_id = ?
         ORDER BY t.created_at DESC, t.template_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RideTemplate{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			t         model.RideTemplate
			vehicleID sql.NullInt64
			polyline  sql.NullString
			vModel    sql.NullString
			vNumber   sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &vehicleID, &t.Source, &t.SourceLat, &t.SourceLng,
			&t.Destination, &t.DestinationLat, &t.DestinationLng, &t.RideTime,
			&t.TotalSeats, &t.BasePriceCents, &t.BookingType, &polyline, &t.CreatedAt,
			&vModel, &vNumber); err != nil {
			return nil, err
		}
		if vehicleID.Valid {
			id := uint64(vehicleID.Int64)
			t.VehicleID = &id
		}
		if polyline.Valid {
			t.RoutePolyline = &polyline.String
		}
		if vModel.Valid {
			t.VehicleModel = &vModel.String
		}
		if vNumber.Valid {
			t.VehicleNumber = &vNumber.String
		}
		t.Stops = []model.TemplateStop{}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	stops, err := r.db.QueryContext(ctx,
		`SELECT s.template_id, s.city_name, s.latitude, s.longitude, s.stop_order, s.stop_price_cents
         FROM template_stops s
         JOIN ride_templates t ON t.template_id = s.template_id
         WHERE t.user_id = ?
         ORDER BY s.template_id, s.stop_order`, userID)
	if err != nil {
		return nil, err
	}
	defer stops.Close()
	for stops.Next() {
		var (
			templateID uint64
			s          model.TemplateStop
		)
		if err := stops.Scan(&templateID, &s.CityName, &s.Latitude, &s.Longitude, &s.StopOrder, &s.StopPriceCents); err != nil {
			return nil, err
		}
		if i, ok := index[templateID]; ok {
			out[i].Stops = append(out[i].Stops, s)
		}
	}
	return out, stops.Err()
}

// Delete removes one of the user's templates and its stops. ErrNotFound
// covers both a missing template and one owned by someone else.
func (r *TemplateRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM ride_templates WHERE template_id = ? AND user_id = ?`, id, userID)
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
