// Package queue carries ride notifications from the inventory engine to
// the notifications table, through RabbitMQ when a broker is configured.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// NotificationEvent is the message body on the notification queue. It
// holds everything a consumer needs to store or forward the message
// without querying the rides tables.
type NotificationEvent struct {
	EventID    string                 `json:"event_id"`
	UserID     uint64                 `json:"user_id"`
	Type       model.NotificationType `json:"type"`
	Message    string                 `json:"message"`
	RideID     uint64                 `json:"ride_id"`
	BookingID  uint64                 `json:"booking_id,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	OccurredAt string                 `json:"occurred_at"`
}

// NewEvent renders n into an event with a fresh id.
func NewEvent(n inventory.Notice, now time.Time) NotificationEvent {
	return NotificationEvent{
		EventID:    uuid.NewString(),
		UserID:     n.Recipient,
		Type:       n.Type,
		Message:    Render(n),
		RideID:     n.RideID,
		BookingID:  n.BookingID,
		Reason:     n.Reason,
		OccurredAt: now.UTC().Format(time.RFC3339),
	}
}

// Notification converts the event into the row stored for the user.
func (ev NotificationEvent) Notification() model.Notification {
	n := model.Notification{UserID: ev.UserID, Type: ev.Type, Message: ev.Message}
	if ev.RideID != 0 {
		id := ev.RideID
		n.RideID = &id
	}
	if ev.BookingID != 0 {
		id := ev.BookingID
		n.BookingID = &id
	}
	return n
}
