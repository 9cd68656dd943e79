package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// ErrVehicleExists is returned when the vehicle number is already
// registered.
var ErrVehicleExists = errors.New("vehicle number already registered")

// VehicleRepo is the vehicle directory: who owns which car.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo returns a new VehicleRepo bound to the given database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = `vehicle_id, user_id, vehicle_number, model, seats, created_at`

func scanVehicle(s rowScanner) (model.Vehicle, error) {
	var v model.Vehicle
	err := s.Scan(&v.ID, &v.UserID, &v.VehicleNumber, &v.Model, &v.Seats, &v.CreatedAt)
	return v, err
}

// Create registers a vehicle for v.UserID. Vehicle numbers are stored
// upper case without surrounding spaces.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	v.VehicleNumber = strings.ToUpper(strings.TrimSpace(v.VehicleNumber))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (user_id, vehicle_number, model, seats) VALUES (?, ?, ?, ?)`,
		v.UserID, v.VehicleNumber, v.Model, v.Seats)
	if err != nil {
		if isDuplicate(err) {
			return ErrVehicleExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// ListByUser returns the user's vehicles in registration order.
func (r *VehicleRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = ? ORDER BY vehicle_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetForUpdateTx reads the vehicle and locks its row until tx ends.
func (r *VehicleRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Vehicle, error) {
	return scanVehicle(tx.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE vehicle_id = ? FOR UPDATE`, id))
}

// FirstByUserTx returns the user's earliest registered vehicle.
func (r *VehicleRepo) FirstByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (model.Vehicle, error) {
	return scanVehicle(tx.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE user_id = ? ORDER BY vehicle_id LIMIT 1`, userID))
}

// Delete removes a vehicle owned by userID. It returns ErrNotFound for
// an unknown vehicle, ErrForbidden when someone else owns it and
// ErrConflict while an ACTIVE or STARTED ride still uses it or when
// finished rides still reference it.
func (r *VehicleRepo) Delete(ctx context.Context, id, userID uint64) error {
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

	v, err := r.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if v.UserID != userID {
		return ErrForbidden
	}
	var inUse int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rides WHERE vehicle_id = ? AND status IN ('ACTIVE', 'STARTED')`, id).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE vehicle_id = ?`, id); err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
