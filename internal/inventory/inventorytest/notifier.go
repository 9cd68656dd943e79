package inventorytest

import (
	"context"
	"sync"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
)

// Recorder is a Notifier that keeps every notice it is given. When Err
// is set it records nothing and returns Err.
type Recorder struct {
	Err error

	mu      sync.Mutex
	notices []inventory.Notice
}

func (r *Recorder) Notify(_ context.Context, n inventory.Notice) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

// Notices returns a copy of what has been recorded so far.
func (r *Recorder) Notices() []inventory.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]inventory.Notice(nil), r.notices...)
}
