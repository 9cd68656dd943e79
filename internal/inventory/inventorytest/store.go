// Package inventorytest provides an in-memory inventory.Store with real
// per-row exclusive locks and rollback, plus a recording Notifier.
package inventorytest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

var errLockWait = errors.New("lock wait timeout exceeded")

// Store keeps rides, bookings and vehicles in maps. Row locks are held
// from the first Lock* call until the transaction ends, like SELECT ...
// FOR UPDATE.
type Store struct {
	// LockWait bounds how long a transaction waits for a row lock
	// before failing with inventory.ErrBusy.
	LockWait time.Duration
	// Inject, when set, runs before every write and can fail it.
	Inject func(op string) error

	mu       sync.Mutex
	seq      uint64
	rides    map[uint64]model.Ride
	bookings map[uint64]model.Booking
	vehicles map[uint64]model.Vehicle
	stops    map[uint64][]model.Stop
	locks    map[string]chan struct{}
}

func NewStore() *Store {
	return &Store{
		LockWait: 5 * time.Second,
		rides:    make(map[uint64]model.Ride),
		bookings: make(map[uint64]model.Booking),
		vehicles: make(map[uint64]model.Vehicle),
		stops:    make(map[uint64][]model.Stop),
		locks:    make(map[string]chan struct{}),
	}
}

func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

// AddVehicle seeds a vehicle and returns it with its id.
func (s *Store) AddVehicle(v model.Vehicle) model.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.nextID()
	s.vehicles[v.ID] = v
	return v
}

// AddRide seeds a ride. Zero AvailableSeats defaults to TotalSeats and
// an empty status to ACTIVE.
func (s *Store) AddRide(r model.Ride) model.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID()
	if r.Status == "" {
		r.Status = model.RideActive
	}
	if r.BookingType == "" {
		r.BookingType = model.BookingInstant
	}
	if r.AvailableSeats == 0 {
		r.AvailableSeats = r.TotalSeats
	}
	s.rides[r.ID] = r
	return r
}

// AddBooking seeds a booking as is; seat counts are not touched.
func (s *Store) AddBooking(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID()
	s.bookings[b.ID] = b
	return b
}

func (s *Store) Ride(id uint64) (model.Ride, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	return r, ok
}

func (s *Store) Booking(id uint64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// Bookings returns every booking of the ride ordered by id.
func (s *Store) Bookings(rideID uint64) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookingsOf(rideID, nil)
}

func (s *Store) Stops(rideID uint64) []model.Stop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Stop(nil), s.stops[rideID]...)
}

// CheckSeats verifies available = total - seats held by CONFIRMED and
// COMPLETED bookings.
func (s *Store) CheckSeats(rideID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	held := 0
	for _, b := range s.bookingsOf(rideID, nil) {
		if b.Status.HoldsSeats() {
			held += b.SeatsBooked
		}
	}
	if r.AvailableSeats != r.TotalSeats-held || r.AvailableSeats < 0 {
		return fmt.Errorf("ride %d: available %d, total %d, held %d", rideID, r.AvailableSeats, r.TotalSeats, held)
	}
	return nil
}

func (s *Store) bookingsOf(rideID uint64, statuses []model.BookingStatus) []model.Booking {
	var out []model.Booking
	for _, b := range s.bookings {
		if b.RideID != rideID {
			continue
		}
		if len(statuses) > 0 && !hasStatus(statuses, b.Status) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func hasStatus(list []model.BookingStatus, s model.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s *Store) lockFor(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// WithTx implements inventory.Store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	tx := &memTx{s: s, held: make(map[string]chan struct{})}
	err := fn(ctx, tx)
	if err != nil {
		tx.rollback()
	}
	tx.release()
	return err
}

type memTx struct {
	s    *Store
	held map[string]chan struct{}
	undo []func()
}

func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.s.lockFor(key)
	timer := time.NewTimer(t.s.LockWait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return inventory.Busy(errLockWait)
	}
}

func (t *memTx) release() {
	for k, ch := range t.held {
		<-ch
		delete(t.held, k)
	}
}

func (t *memTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) write(op string) error {
	if t.s.Inject != nil {
		return t.s.Inject(op)
	}
	return nil
}

func (t *memTx) LockRide(ctx context.Context, rideID uint64) (model.Ride, error) {
	if err := t.lock(ctx, fmt.Sprintf("ride:%d", rideID)); err != nil {
		return model.Ride{}, err
	}
	r, ok := t.s.Ride(rideID)
	if !ok {
		return model.Ride{}, sql.ErrNoRows
	}
	return r, nil
}

func (t *memTx) LockBooking(ctx context.Context, bookingID uint64) (model.Booking, model.Ride, error) {
	b, ok := t.s.Booking(bookingID)
	if !ok {
		return model.Booking{}, model.Ride{}, sql.ErrNoRows
	}
	r, err := t.LockRide(ctx, b.RideID)
	if err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	if err := t.lock(ctx, fmt.Sprintf("booking:%d", bookingID)); err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	b, _ = t.s.Booking(bookingID)
	return b, r, nil
}

func (t *memTx) LockVehicle(ctx context.Context, vehicleID uint64) (model.Vehicle, error) {
	if err := t.lock(ctx, fmt.Sprintf("vehicle:%d", vehicleID)); err != nil {
		return model.Vehicle{}, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	v, ok := t.s.vehicles[vehicleID]
	if !ok {
		return model.Vehicle{}, sql.ErrNoRows
	}
	return v, nil
}

func (t *memTx) FirstVehicleOf(_ context.Context, driverID uint64) (model.Vehicle, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var (
		best  model.Vehicle
		found bool
	)
	for _, v := range t.s.vehicles {
		if v.UserID == driverID && (!found || v.ID < best.ID) {
			best, found = v, true
		}
	}
	if !found {
		return model.Vehicle{}, sql.ErrNoRows
	}
	return best, nil
}

func (t *memTx) FindOverlap(_ context.Context, vehicleID uint64, at time.Time, window time.Duration) (*model.Ride, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var clash *model.Ride
	for _, r := range t.s.rides {
		if r.VehicleID != vehicleID || (r.Status != model.RideActive && r.Status != model.RideStarted) {
			continue
		}
		if math.Abs(float64(r.DepartsAt.Sub(at))) >= float64(window) {
			continue
		}
		if clash == nil || r.ID < clash.ID {
			r := r
			clash = &r
		}
	}
	return clash, nil
}

func (t *memTx) InsertRide(_ context.Context, r *model.Ride) error {
	if err := t.write("InsertRide"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r.ID = t.s.nextID()
	r.CreatedAt = time.Now().UTC()
	t.s.rides[r.ID] = *r
	id := r.ID
	t.undo = append(t.undo, func() { delete(t.s.rides, id) })
	return nil
}

func (t *memTx) InsertStops(_ context.Context, rideID uint64, stops []model.Stop) error {
	if err := t.write("InsertStops"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	prev := t.s.stops[rideID]
	for _, st := range stops {
		st.ID = t.s.nextID()
		st.RideID = rideID
		t.s.stops[rideID] = append(t.s.stops[rideID], st)
	}
	t.undo = append(t.undo, func() { t.s.stops[rideID] = prev })
	return nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	if err := t.write("InsertBooking"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b.ID = t.s.nextID()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	t.s.bookings[b.ID] = *b
	id := b.ID
	t.undo = append(t.undo, func() { delete(t.s.bookings, id) })
	return nil
}

func (t *memTx) AdjustSeats(_ context.Context, rideID uint64, delta int) error {
	if err := t.write("AdjustSeats"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	next := r.AvailableSeats + delta
	if next < 0 || next > r.TotalSeats {
		return fmt.Errorf("available_seats %d out of range for ride %d", next, rideID)
	}
	prev := r
	r.AvailableSeats = next
	t.s.rides[rideID] = r
	t.undo = append(t.undo, func() { t.s.rides[rideID] = prev })
	return nil
}

func (t *memTx) updateRide(rideID uint64, fn func(*model.Ride)) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.rides[rideID]
	if !ok {
		return sql.ErrNoRows
	}
	prev := r
	fn(&r)
	t.s.rides[rideID] = r
	t.undo = append(t.undo, func() { t.s.rides[rideID] = prev })
	return nil
}

func (t *memTx) SetRideStatus(_ context.Context, rideID uint64, status model.RideStatus) error {
	if err := t.write("SetRideStatus"); err != nil {
		return err
	}
	return t.updateRide(rideID, func(r *model.Ride) { r.Status = status })
}

func (t *memTx) MarkRideCancelled(_ context.Context, rideID, by uint64, reason string, at time.Time) error {
	if err := t.write("MarkRideCancelled"); err != nil {
		return err
	}
	return t.updateRide(rideID, func(r *model.Ride) {
		r.Status = model.RideCancelled
		r.CancelledBy = &by
		r.CancellationReason = &reason
		r.CancelledAt = &at
	})
}

func (t *memTx) setBooking(b model.Booking, status model.BookingStatus) {
	prev := b
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	t.s.bookings[b.ID] = b
	t.undo = append(t.undo, func() { t.s.bookings[prev.ID] = prev })
}

func (t *memTx) SetBookingStatus(_ context.Context, bookingID uint64, status model.BookingStatus) error {
	if err := t.write("SetBookingStatus"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	t.setBooking(b, status)
	return nil
}

func (t *memTx) ListBookings(_ context.Context, rideID uint64, statuses ...model.BookingStatus) ([]model.Booking, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.bookingsOf(rideID, statuses), nil
}

func (t *memTx) TransitionBookings(_ context.Context, rideID uint64, from, to model.BookingStatus) (int64, error) {
	if err := t.write("TransitionBookings"); err != nil {
		return 0, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for _, b := range t.s.bookingsOf(rideID, []model.BookingStatus{from}) {
		t.setBooking(b, to)
		n++
	}
	return n, nil
}
