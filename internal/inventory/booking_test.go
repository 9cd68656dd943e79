package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	eng, st, _ := newEngine(t)
	ride := seedRide(st, 5, model.BookingInstant)

	const riders = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.CreateBooking(context.Background(), inventory.BookingRequest{
				RideID: ride.ID, RiderID: riderID + uint64(i), Seats: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, inventory.ErrInsufficientSeats):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 5 || full != riders-5 {
		t.Fatalf("confirmed = %d, rejected = %d", ok, full)
	}
	got, _ := st.Ride(ride.ID)
	if got.AvailableSeats != 0 {
		t.Fatalf("available = %d, want 0", got.AvailableSeats)
	}
	checkSeats(t, st, ride.ID)
}

func TestConcurrentApprovalsRespectCapacity(t *testing.T) {
	eng, st, _ := newEngine(t)
	ride := seedRide(st, 2, model.BookingApproval)
	var ids []uint64
	for i := 0; i < 3; i++ {
		b := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID + uint64(i), SeatsBooked: 1, Status: model.BookingPending})
		ids = append(ids, b.ID)
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint64) {
			defer wg.Done()
			_, errs[i] = eng.ResolveBooking(context.Background(), id, driverID, inventory.Approve)
		}(i, id)
	}
	wg.Wait()

	approved, short := 0, 0
	for i, err := range errs {
		b, _ := st.Booking(ids[i])
		switch {
		case err == nil:
			approved++
			if b.Status != model.BookingConfirmed {
				t.Fatalf("approved booking is %s", b.Status)
			}
		case errors.Is(err, inventory.ErrInsufficientSeats):
			short++
			if b.Status != model.BookingPending {
				t.Fatalf("rejected approval left booking %s", b.Status)
			}
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if approved != 2 || short != 1 {
		t.Fatalf("approved = %d, short = %d", approved, short)
	}
	checkSeats(t, st, ride.ID)
}

func TestResolveBooking(t *testing.T) {
	eng, st, rec := newEngine(t)
	ride := seedRide(st, 3, model.BookingApproval)
	pending := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID, SeatsBooked: 2, Status: model.BookingPending})
	ctx := context.Background()

	_, err := eng.ResolveBooking(ctx, pending.ID, otherID, inventory.Approve)
	wantKind(t, err, inventory.ErrForbidden)

	_, err = eng.ResolveBooking(ctx, pending.ID, driverID, inventory.Decision("MAYBE"))
	wantKind(t, err, inventory.ErrInvalidOperation)

	_, err = eng.ResolveBooking(ctx, 9999, driverID, inventory.Approve)
	wantKind(t, err, inventory.ErrNotFound)

	out, err := eng.ResolveBooking(ctx, pending.ID, driverID, inventory.Reject)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if out.Message != "Booking rejected successfully." {
		t.Fatalf("message = %q", out.Message)
	}
	b, _ := st.Booking(pending.ID)
	if b.Status != model.BookingRejected {
		t.Fatalf("status = %s, want REJECTED", b.Status)
	}
	got, _ := st.Ride(ride.ID)
	if got.AvailableSeats != 3 {
		t.Fatalf("reject changed seats to %d", got.AvailableSeats)
	}

	_, err = eng.ResolveBooking(ctx, pending.ID, driverID, inventory.Approve)
	wantKind(t, err, inventory.ErrInvalidState)

	eng.Wait()
	n := rec.Notices()
	if len(n) != 1 || n[0].Type != model.NotifyBookingRejected || n[0].Recipient != riderID {
		t.Fatalf("notices = %+v", n)
	}
}

func TestApproveTakesSeats(t *testing.T) {
	eng, st, rec := newEngine(t)
	ride := seedRide(st, 3, model.BookingApproval)
	pending := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID, SeatsBooked: 2, Status: model.BookingPending})

	if _, err := eng.ResolveBooking(context.Background(), pending.ID, driverID, inventory.Approve); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := st.Ride(ride.ID)
	if got.AvailableSeats != 1 {
		t.Fatalf("available = %d, want 1", got.AvailableSeats)
	}
	checkSeats(t, st, ride.ID)
	eng.Wait()
	if n := rec.Notices(); len(n) != 1 || n[0].Type != model.NotifyBookingConfirmed {
		t.Fatalf("notices = %+v", n)
	}
}

func TestParseDecision(t *testing.T) {
	if d, ok := inventory.ParseDecision(" approve "); !ok || d != inventory.Approve {
		t.Fatalf("ParseDecision(approve) = %q, %v", d, ok)
	}
	if _, ok := inventory.ParseDecision("ignore"); ok {
		t.Fatal("ParseDecision accepted ignore")
	}
}

func TestCancelBookingOnlyOnce(t *testing.T) {
	eng, st, _ := newEngine(t)
	ride := seedRide(st, 4, model.BookingInstant)
	res, err := eng.CreateBooking(context.Background(), inventory.BookingRequest{RideID: ride.ID, RiderID: riderID, Seats: 3})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	const callers = 5
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.CancelBooking(context.Background(), res.BookingID, riderID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		wantKind(t, err, inventory.ErrInvalidState)
	}
	if succeeded != 1 {
		t.Fatalf("successful cancels = %d, want 1", succeeded)
	}
	got, _ := st.Ride(ride.ID)
	if got.AvailableSeats != 4 {
		t.Fatalf("available = %d, want 4", got.AvailableSeats)
	}
	checkSeats(t, st, ride.ID)
}

func TestCancelPendingBookingKeepsSeats(t *testing.T) {
	eng, st, _ := newEngine(t)
	ride := seedRide(st, 3, model.BookingApproval)
	res, err := eng.CreateBooking(context.Background(), inventory.BookingRequest{RideID: ride.ID, RiderID: riderID, Seats: 2})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if _, err := eng.CancelBooking(context.Background(), res.BookingID, riderID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	got, _ := st.Ride(ride.ID)
	if got.AvailableSeats != 3 {
		t.Fatalf("available = %d, want 3", got.AvailableSeats)
	}
	checkSeats(t, st, ride.ID)
}

func TestCancelBookingParties(t *testing.T) {
	eng, st, rec := newEngine(t)
	ride := seedRide(st, 4, model.BookingInstant)
	ctx := context.Background()
	res, err := eng.CreateBooking(ctx, inventory.BookingRequest{RideID: ride.ID, RiderID: riderID, Seats: 1})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	eng.Wait()

	_, err = eng.CancelBooking(ctx, res.BookingID, otherID)
	wantKind(t, err, inventory.ErrForbidden)

	if _, err := eng.CancelBooking(ctx, res.BookingID, driverID); err != nil {
		t.Fatalf("driver cancel: %v", err)
	}
	eng.Wait()
	n := rec.Notices()
	last := n[len(n)-1]
	if last.Type != model.NotifyBookingCancelled || last.Recipient != riderID {
		t.Fatalf("last notice = %+v", last)
	}

	done := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID, SeatsBooked: 1, Status: model.BookingRejected})
	_, err = eng.CancelBooking(ctx, done.ID, riderID)
	wantKind(t, err, inventory.ErrInvalidState)
}

func TestBookingRejectedOnceRideStarted(t *testing.T) {
	eng, st, _ := newEngine(t)
	ride := seedRide(st, 4, model.BookingInstant)
	ctx := context.Background()
	if _, err := eng.StartRide(ctx, ride.ID, driverID); err != nil {
		t.Fatalf("StartRide: %v", err)
	}

	_, err := eng.CreateBooking(ctx, inventory.BookingRequest{RideID: ride.ID, RiderID: riderID, Seats: 1})
	wantKind(t, err, inventory.ErrInvalidState)
	if got, _ := st.Ride(ride.ID); got.AvailableSeats != 4 {
		t.Fatalf("available = %d, want 4", got.AvailableSeats)
	}
	if n := len(st.Bookings(ride.ID)); n != 0 {
		t.Fatalf("bookings = %d, want 0", n)
	}
}
