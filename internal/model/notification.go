package model

import "time"

// NotificationType names the template used for an in-app message.
type NotificationType string

const (
	NotifyBookingCreated   NotificationType = "BOOKING_CREATED"
	NotifyBookingRequested NotificationType = "BOOKING_REQUESTED"
	NotifyBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotifyBookingRejected  NotificationType = "BOOKING_REJECTED"
	NotifyBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotifyRideStarted      NotificationType = "RIDE_STARTED"
	NotifyRideCompleted    NotificationType = "RIDE_COMPLETED"
	NotifyRideCancelled    NotificationType = "RIDE_CANCELLED"
	NotifyNewReview        NotificationType = "NEW_REVIEW"
)

// Notification is a persisted in-app message for a user.
type Notification struct {
	ID        uint64           `json:"notification_id"` // notifications.notification_id
	UserID    uint64           `json:"user_id"`         // notifications.user_id
	Type      NotificationType `json:"type"`            // notifications.type
	Message   string           `json:"message"`         // notifications.message
	RideID    *uint64          `json:"ride_id"`         // notifications.ride_id (nullable)
	BookingID *uint64          `json:"booking_id"`      // notifications.booking_id (nullable)
	IsRead    bool             `json:"is_read"`         // notifications.is_read
	CreatedAt time.Time        `json:"created_at"`      // notifications.created_at
}
