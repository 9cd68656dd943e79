package inventory

import (
	"context"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// Notice is one message to a ride participant. It is built from data
// read inside the transaction and delivered after commit.
type Notice struct {
	Recipient   uint64                 `json:"recipient"`
	Type        model.NotificationType `json:"type"`
	RideID      uint64                 `json:"ride_id"`
	BookingID   uint64                 `json:"booking_id,omitempty"`
	Source      string                 `json:"source"`
	Destination string                 `json:"destination"`
	DepartsAt   time.Time              `json:"departs_at"`
	Seats       int                    `json:"seats,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Score       int                    `json:"score,omitempty"` // NEW_REVIEW only
}

// Notifier delivers notices. Implementations must not retry on their
// own; a failed delivery is logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice) error

func (f NotifierFunc) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

func noticeFor(t model.NotificationType, to uint64, r model.Ride) Notice {
	return Notice{
		Recipient:   to,
		Type:        t,
		RideID:      r.ID,
		Source:      r.Source,
		Destination: r.Destination,
		DepartsAt:   r.DepartsAt,
	}
}
