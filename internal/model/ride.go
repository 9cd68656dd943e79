package model

import "time"

// RideStatus is the lifecycle state of a ride. COMPLETED and
// CANCELLED are terminal; nothing moves a ride out of them.
type RideStatus string

const (
	RideActive    RideStatus = "ACTIVE"
	RideStarted   RideStatus = "STARTED"
	RideCompleted RideStatus = "COMPLETED"
	RideCancelled RideStatus = "CANCELLED"
)

// Terminal reports whether the ride can no longer change state.
func (s RideStatus) Terminal() bool {
	return s == RideCompleted || s == RideCancelled
}

// BookingType decides whether a new booking is confirmed on the spot
// (INSTANT) or waits for the driver (APPROVAL).
type BookingType string

const (
	BookingInstant  BookingType = "INSTANT"
	BookingApproval BookingType = "APPROVAL"
)

// Valid reports whether t is one of the known booking types.
func (t BookingType) Valid() bool {
	return t == BookingInstant || t == BookingApproval
}

// Ride represents a published trip offered by a driver. Seats are
// tracked by AvailableSeats which always satisfies
// 0 <= AvailableSeats <= TotalSeats.
//
// Fields:
//
//	ID                 – primary key identifier.
//	DriverID           – user who published and drives the ride.
//	VehicleID          – vehicle used for the trip.
//	Source/Destination – free text addresses with coordinates.
//	DepartsAt          – ride_date and ride_time combined (UTC).
//	TotalSeats         – seats offered when the ride was published.
//	AvailableSeats     – seats not held by CONFIRMED or COMPLETED bookings.
//	BasePriceCents     – price per seat in cents.
//	BookingType        – INSTANT or APPROVAL.
//	Status             – lifecycle state.
//	CancelledBy        – user who cancelled the ride (nullable).
//	CancellationReason – free text reason (nullable).
//	CancelledAt        – cancellation timestamp (nullable).
type Ride struct {
	ID                 uint64      `json:"ride_id"`             // rides.ride_id
	DriverID           uint64      `json:"driver_id"`           // rides.driver_id
	VehicleID          uint64      `json:"vehicle_id"`          // rides.vehicle_id
	Source             string      `json:"source"`              // rides.source
	SourceLat          float64     `json:"source_lat"`          // rides.source_lat
	SourceLng          float64     `json:"source_lng"`          // rides.source_lng
	Destination        string      `json:"destination"`         // rides.destination
	DestinationLat     float64     `json:"destination_lat"`     // rides.destination_lat
	DestinationLng     float64     `json:"destination_lng"`     // rides.destination_lng
	DepartsAt          time.Time   `json:"departs_at"`          // rides.ride_date + rides.ride_time
	TotalSeats         int         `json:"total_seats"`         // rides.total_seats
	AvailableSeats     int         `json:"available_seats"`     // rides.available_seats
	BasePriceCents     int64       `json:"base_price_cents"`    // rides.base_price_cents
	BookingType        BookingType `json:"booking_type"`        // rides.booking_type
	Status             RideStatus  `json:"status"`              // rides.status
	RoutePolyline      *string     `json:"route_polyline"`      // rides.route_polyline (nullable)
	TotalStops         int         `json:"total_stops"`         // rides.total_stops
	CancelledBy        *uint64     `json:"cancelled_by"`        // rides.cancelled_by (nullable)
	CancellationReason *string     `json:"cancellation_reason"` // rides.cancellation_reason (nullable)
	CancelledAt        *time.Time  `json:"cancelled_at"`        // rides.cancelled_at (nullable)
	CreatedAt          time.Time   `json:"created_at"`          // rides.created_at
}

// Stop is an intermediate point on a ride's route.
type Stop struct {
	ID             uint64  `json:"stop_id"`          // stops.stop_id
	RideID         uint64  `json:"ride_id"`          // stops.ride_id
	CityName       string  `json:"city_name"`        // stops.city_name
	Latitude       float64 `json:"latitude"`         // stops.latitude
	Longitude      float64 `json:"longitude"`        // stops.longitude
	StopOrder      int     `json:"stop_order"`       // stops.stop_order
	StopPriceCents int64   `json:"stop_price_cents"` // stops.stop_price_cents
}
