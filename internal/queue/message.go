package queue

import (
	"fmt"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

// Render turns a notice into the text shown to its recipient.
func Render(n inventory.Notice) string {
	route := fmt.Sprintf("%s to %s", n.Source, n.Destination)
	when := n.DepartsAt.UTC().Format("Jan 2, 15:04")
	switch n.Type {
	case model.NotifyBookingCreated:
		return fmt.Sprintf("New booking: %s on your ride from %s on %s.", seats(n.Seats), route, when)
	case model.NotifyBookingRequested:
		return fmt.Sprintf("New request: %s on your ride from %s on %s is waiting for your approval.", seats(n.Seats), route, when)
	case model.NotifyBookingConfirmed:
		return fmt.Sprintf("Your booking for the ride from %s on %s has been approved.", route, when)
	case model.NotifyBookingRejected:
		return fmt.Sprintf("Your booking request for the ride from %s on %s was declined.", route, when)
	case model.NotifyBookingCancelled:
		return fmt.Sprintf("A booking for the ride from %s on %s was cancelled.", route, when)
	case model.NotifyRideStarted:
		return fmt.Sprintf("Your ride from %s has started.", route)
	case model.NotifyRideCompleted:
		return fmt.Sprintf("Your ride from %s is complete. Please rate your driver.", route)
	case model.NotifyRideCancelled:
		return fmt.Sprintf("Your ride from %s on %s was cancelled by the driver. Reason: %s", route, when, n.Reason)
	case model.NotifyNewReview:
		return fmt.Sprintf("You received a %d-star rating for the ride from %s.", n.Score, route)
	default:
		return fmt.Sprintf("Update on your ride from %s.", route)
	}
}

func seats(n int) string {
	if n == 1 {
		return "1 seat"
	}
	return fmt.Sprintf("%d seats", n)
}
