package model

import "time"

// Vehicle is a car registered by a driver. Rides reference the
// vehicle they use and the vehicle's owner must be the ride's driver.
type Vehicle struct {
	ID            uint64    `json:"vehicle_id"`     // vehicles.vehicle_id
	UserID        uint64    `json:"user_id"`        // vehicles.user_id
	VehicleNumber string    `json:"vehicle_number"` // vehicles.vehicle_number (unique)
	Model         string    `json:"model"`          // vehicles.model
	Seats         int       `json:"seats"`          // vehicles.seats
	CreatedAt     time.Time `json:"created_at"`     // vehicles.created_at
}
