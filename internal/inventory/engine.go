// Package inventory owns ride seat counts and the ride and booking
// lifecycles. Every operation runs in a single Store transaction:
// lock the rows it depends on, validate, write, commit. Notices to
// participants go out only after the commit succeeded.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// OverlapWindow is how close two rides of the same vehicle may depart.
const OverlapWindow = 4 * time.Hour

const defaultNotifyTimeout = 10 * time.Second

// Engine runs the inventory operations. It keeps no seat state of its
// own; the Store's row locks serialize work on one ride and leave other
// rides untouched.
type Engine struct {
	store         Store
	notifier      Notifier
	log           *slog.Logger
	now           func() time.Time
	notifyTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifyTimeout bounds each post-commit dispatch.
func WithNotifyTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.notifyTimeout = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine. notifier and log may be nil.
func New(store Store, notifier Notifier, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		store:         store,
		notifier:      notifier,
		log:           log.With("component", "inventory"),
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Wait blocks until every dispatched notice has been handed to the
// notifier or dropped.
func (e *Engine) Wait() { e.wg.Wait() }

// dispatch hands notices to the notifier in the background. It never
// reports back to the caller; the operation has already committed.
func (e *Engine) dispatch(notices ...Notice) {
	if e.notifier == nil || len(notices) == 0 {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.notifyTimeout)
		defer cancel()
		for _, n := range notices {
			if err := e.notifier.Notify(ctx, n); err != nil {
				e.log.Warn("notification dropped",
					"type", n.Type, "recipient", n.Recipient, "ride_id", n.RideID, "error", err)
			}
		}
	}()
}

// notFound converts sql.ErrNoRows into a NotFound error and passes
// everything else through.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return newError(KindNotFound, "%s not found", what)
	}
	return err
}
