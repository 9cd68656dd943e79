package model

import "time"

// BookingStatus is the state of a rider's claim on seats of a ride.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingRejected  BookingStatus = "REJECTED"
)

// HoldsSeats reports whether a booking in this status counts against
// the ride's available seats.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingConfirmed || s == BookingCompleted
}

// Terminal reports whether the booking can no longer change state.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled || s == BookingRejected
}

// Payment fields are recorded but never settled here.
const (
	DefaultPaymentMethod = "CARD"
	PaymentPending       = "PENDING"
)

// Booking represents a rider's reservation of one or more seats on a
// ride.
//
// Fields:
//
//	ID            – primary key identifier.
//	RideID        – ride the seats belong to.
//	RiderID       – user who made the booking.
//	SeatsBooked   – number of seats, at least one.
//	AmountCents   – amount quoted to the rider.
//	PaymentMethod – CARD unless the rider picked something else.
//	PaymentStatus – always PENDING.
//	Status        – booking lifecycle state.
type Booking struct {
	ID            uint64        `json:"booking_id"`     // bookings.booking_id
	RideID        uint64        `json:"ride_id"`        // bookings.ride_id
	RiderID       uint64        `json:"rider_id"`       // bookings.rider_id
	SeatsBooked   int           `json:"seats_booked"`   // bookings.seats_booked
	AmountCents   int64         `json:"amount_cents"`   // bookings.amount_cents
	PaymentMethod string        `json:"payment_method"` // bookings.payment_method
	PaymentStatus string        `json:"payment_status"` // bookings.payment_status
	Status        BookingStatus `json:"booking_status"` // bookings.booking_status
	CreatedAt     time.Time     `json:"created_at"`     // bookings.created_at
	UpdatedAt     time.Time     `json:"updated_at"`     // bookings.updated_at
}
