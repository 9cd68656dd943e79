package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
)

// Inbox is the Notifier used when no broker is configured: it writes the
// rendered notice straight into the store.
type Inbox struct {
	store NotificationStore
	log   *slog.Logger
}

var _ inventory.Notifier = (*Inbox)(nil)

func NewInbox(store NotificationStore, log *slog.Logger) *Inbox {
	return &Inbox{store: store, log: log.With("component", "notify-inbox")}
}

func (i *Inbox) Notify(ctx context.Context, n inventory.Notice) error {
	ev := NewEvent(n, time.Now())
	row := ev.Notification()
	if err := i.store.Create(ctx, &row); err != nil {
		return err
	}
	i.log.Info("notification delivered", "type", ev.Type, "user_id", ev.UserID, "ride_id", ev.RideID)
	return nil
}
