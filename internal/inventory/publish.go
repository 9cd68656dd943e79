package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// RideRequest carries everything a driver supplies to publish a ride.
// VehicleID may be zero, in which case the driver's first registered
// vehicle is used.
type RideRequest struct {
	DriverID       uint64
	VehicleID      uint64
	Source         string
	SourceLat      float64
	SourceLng      float64
	Destination    string
	DestinationLat float64
	DestinationLng float64
	DepartsAt      time.Time
	TotalSeats     int
	BasePriceCents int64
	BookingType    model.BookingType
	RoutePolyline  string
	Stops          []model.Stop
}

// RideResult identifies the published ride.
type RideResult struct {
	RideID    uint64 `json:"rideId"`
	VehicleID uint64 `json:"vehicleId"`
	Message   string `json:"message"`
}

func (req RideRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Destination) == "":
		return newError(KindInvalidOperation, "source and destination are required")
	case req.DepartsAt.IsZero():
		return newError(KindInvalidOperation, "ride_date and ride_time are required")
	case req.TotalSeats < 1:
		return newError(KindInvalidOperation, "total_seats must be at least 1")
	case req.BasePriceCents < 0:
		return newError(KindInvalidOperation, "base_price must not be negative")
	case req.BookingType != "" && !req.BookingType.Valid():
		return newError(KindInvalidOperation, "booking_type must be INSTANT or APPROVAL")
	}
	return nil
}

// CreateRide publishes a ride. The vehicle row is locked for the
// duration so two concurrent publishes on the same vehicle cannot both
// pass the overlap check.
func (e *Engine) CreateRide(ctx context.Context, req RideRequest) (RideResult, error) {
	if err := req.validate(); err != nil {
		return RideResult{}, err
	}
	bt := req.BookingType
	if bt == "" {
		bt = model.BookingInstant
	}

	var res RideResult
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		vehicleID := req.VehicleID
		if vehicleID == 0 {
			v, err := tx.FirstVehicleOf(ctx, req.DriverID)
			if errors.Is(err, sql.ErrNoRows) {
				return newError(KindInvalidOperation, "no vehicle found, add a vehicle before publishing a ride")
			}
			if err != nil {
				return err
			}
			vehicleID = v.ID
		}
		v, err := tx.LockVehicle(ctx, vehicleID)
		if err != nil {
			return notFound(err, "vehicle")
		}
		if v.UserID != req.DriverID {
			return newError(KindForbidden, "this vehicle does not belong to you")
		}

		clash, err := tx.FindOverlap(ctx, v.ID, req.DepartsAt, OverlapWindow)
		if err != nil {
			return err
		}
		if clash != nil {
			return newError(KindVehicleConflict,
				"this vehicle is already engaged in another ride at %s, pick another vehicle or time",
				clash.DepartsAt.Format("2006-01-02 15:04"))
		}

		r := model.Ride{
			DriverID:       req.DriverID,
			VehicleID:      v.ID,
			Source:         strings.TrimSpace(req.Source),
			SourceLat:      req.SourceLat,
			SourceLng:      req.SourceLng,
			Destination:    strings.TrimSpace(req.Destination),
			DestinationLat: req.DestinationLat,
			DestinationLng: req.DestinationLng,
			DepartsAt:      req.DepartsAt.UTC(),
			TotalSeats:     req.TotalSeats,
			AvailableSeats: req.TotalSeats,
			BasePriceCents: req.BasePriceCents,
			BookingType:    bt,
			Status:         model.RideActive,
			TotalStops:     len(req.Stops),
		}
		if p := strings.TrimSpace(req.RoutePolyline); p != "" {
			r.RoutePolyline = &p
		}
		if err := tx.InsertRide(ctx, &r); err != nil {
			return err
		}
		if len(req.Stops) > 0 {
			stops := make([]model.Stop, len(req.Stops))
			for i, s := range req.Stops {
				s.RideID = r.ID
				if s.StopOrder == 0 {
					s.StopOrder = i + 1
				}
				stops[i] = s
			}
			if err := tx.InsertStops(ctx, r.ID, stops); err != nil {
				return err
			}
		}
		res = RideResult{RideID: r.ID, VehicleID: v.ID, Message: "Ride created successfully!"}
		return nil
	})
	if err != nil {
		return RideResult{}, err
	}
	e.log.Info("ride published", "ride_id", res.RideID, "vehicle_id", res.VehicleID, "driver_id", req.DriverID)
	return res, nil
}

// VehicleAvailable reports whether the vehicle has no ACTIVE or STARTED
// ride departing within OverlapWindow of at. The overlap read is a plain
// read, so it never waits on bookings or publishes holding ride locks.
func (e *Engine) VehicleAvailable(ctx context.Context, vehicleID uint64, at time.Time) (bool, error) {
	free := false
	err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		clash, err := tx.FindOverlap(ctx, vehicleID, at, OverlapWindow)
		if err != nil {
			return err
		}
		free = clash == nil
		return nil
	})
	return free, err
}
