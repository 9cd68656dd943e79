package handler

import (
	"context"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

// Inventory is the seat engine as the HTTP layer uses it.
type Inventory interface {
	CreateBooking(ctx context.Context, req inventory.BookingRequest) (inventory.BookingResult, error)
	ResolveBooking(ctx context.Context, bookingID, driverID uint64, d inventory.Decision) (inventory.Outcome, error)
	CancelBooking(ctx context.Context, bookingID, actorID uint64) (inventory.Outcome, error)
	CreateRide(ctx context.Context, req inventory.RideRequest) (inventory.RideResult, error)
	StartRide(ctx context.Context, rideID, driverID uint64) (inventory.Outcome, error)
	CompleteRide(ctx context.Context, rideID, driverID uint64) (inventory.Completion, error)
	CancelRide(ctx context.Context, rideID, driverID uint64, reason string) (inventory.Outcome, error)
	VehicleAvailable(ctx context.Context, vehicleID uint64, at time.Time) (bool, error)
}

// RideReader serves ride listings outside any transaction.
type RideReader interface {
	GetByID(ctx context.Context, id uint64) (model.Ride, error)
	ListByDriver(ctx context.Context, driverID uint64) ([]model.Ride, error)
	ListOpenOn(ctx context.Context, day time.Time) ([]model.Ride, error)
}

type StopReader interface {
	ListByRide(ctx context.Context, rideID uint64) ([]model.Stop, error)
}

type BookingReader interface {
	ListByRider(ctx context.Context, riderID uint64) ([]repository.BookingDetail, error)
}

// VehicleDirectory registers and removes a driver's vehicles.
type VehicleDirectory interface {
	Create(ctx context.Context, v *model.Vehicle) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Vehicle, error)
	Delete(ctx context.Context, id, userID uint64) error
}

type NotificationInbox interface {
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID uint64) error
}

// RatingStore records and reads post-ride ratings.
type RatingStore interface {
	RateDriver(ctx context.Context, rt *model.Rating) (model.Ride, error)
	RatePassenger(ctx context.Context, rt *model.Rating) (model.Ride, error)
	Find(ctx context.Context, rideID, raterID, rateeID uint64) (*model.Rating, error)
	ListByUser(ctx context.Context, userID uint64) (model.RatingSummary, error)
	RidePassengers(ctx context.Context, rideID, driverID uint64) ([]model.RidePassenger, error)
}

// TemplateStore keeps a driver's saved rides.
type TemplateStore interface {
	Create(ctx context.Context, t *model.RideTemplate) error
	ListByUser(ctx context.Context, userID uint64) ([]model.RideTemplate, error)
	Delete(ctx context.Context, id, userID uint64) error
}
