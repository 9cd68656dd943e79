package inventory_test

import (
	"context"
	"testing"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
)

func TestStartRide(t *testing.T) {
	eng, st, rec := newEngine(t)
	ride := seedRide(st, 4, model.BookingApproval)
	st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID, SeatsBooked: 1, Status: model.BookingConfirmed})
	st.AddBooking(model.Booking{RideID: ride.ID, RiderID: otherID, SeatsBooked: 1, Status: model.BookingPending})
	ctx := context.Background()

	_, err := eng.StartRide(ctx, ride.ID, otherID)
	wantKind(t, err, inventory.ErrForbidden)

	if _, err := eng.StartRide(ctx, ride.ID, driverID); err != nil {
		t.Fatalf("StartRide: %v", err)
	}
	if _, err := eng.StartRide(ctx, ride.ID, driverID); err != nil {
		t.Fatalf("StartRide on a started ride: %v", err)
	}
	got, _ := st.Ride(ride.ID)
	if got.Status != model.RideStarted {
		t.Fatalf("status = %s", got.Status)
	}

	eng.Wait()
	notices := rec.Notices()
	if len(notices) != 1 {
		t.Fatalf("notices = %d, want 1 (repeat start must not re-notify)", len(notices))
	}
	if n := notices[0]; n.Type != model.NotifyRideStarted || n.Recipient != riderID {
		t.Fatalf("unexpected notice %+v", n)
	}
}

func TestCompleteRideCascade(t *testing.T) {
	eng, st, rec := newEngine(t)
	ride := st.AddRide(model.Ride{DriverID: driverID, TotalSeats: 4, AvailableSeats: 1, Status: model.RideStarted, DepartsAt: departure})
	confirmed := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID, SeatsBooked: 2, Status: model.BookingConfirmed})
	second := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: otherID, SeatsBooked: 1, Status: model.BookingConfirmed})
	pending := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: 4001, SeatsBooked: 1, Status: model.BookingPending})
	cancelled := st.AddBooking(model.Booking{RideID: ride.ID, RiderID: 5001, SeatsBooked: 1, Status: model.BookingCancelled})

	res, err := eng.CompleteRide(context.Background(), ride.ID, driverID)
	if err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}
	if res.RideID != ride.ID || len(res.CompletedPassengers) != 2 ||
		res.CompletedPassengers[0] != riderID || res.CompletedPassengers[1] != otherID {
		t.Fatalf("result = %+v", res)
	}

	want := map[uint64]model.BookingStatus{
		confirmed.ID: model.BookingCompleted,
		second.ID:    model.BookingCompleted,
		pending.ID:   model.BookingCancelled,
		cancelled.ID: model.BookingCancelled,
	}
	for id, status := range want {
		if b, _ := st.Booking(id); b.Status != status {
			t.Fatalf("booking %d = %s, want %s", id, b.Status, status)
		}
	}
	got, _ := st.Ride(ride.ID)
	if got.Status != model.RideCompleted || got.AvailableSeats != 1 {
		t.Fatalf("ride = %s with %d seats", got.Status, got.AvailableSeats)
	}
	checkSeats(t, st, ride.ID)

	eng.Wait()
	if n := rec.Notices(); len(n) != 2 {
		t.Fatalf("notices = %d, want 2 (pending riders are not told)", len(n))
	}
}

func TestCancelRideReturnsSeats(t *testing.T) {
	eng, st, rec := newEngine(t)
	ride := st.AddRide(model.Ride{DriverID: driverID, TotalSeats: 4, AvailableSeats: 2, DepartsAt: departure})
	st.AddBooking(model.Booking{RideID: ride.ID, RiderID: riderID, SeatsBooked: 2, Status: model.BookingConfirmed})
	st.AddBooking(model.Booking{RideID: ride.ID, RiderID: otherID, SeatsBooked: 1, Status: model.BookingPending})
	ctx := context.Background()

	_, err := eng.CancelRide(ctx, ride.ID, otherID, "")
	wantKind(t, err, inventory.ErrForbidden)

	if _, err := eng.CancelRide(ctx, ride.ID, driverID, "  "); err != nil {
		t.Fatalf("CancelRide: %v", err)
	}
	got, _ := st.Ride(ride.ID)
	if got.Status != model.RideCancelled || got.AvailableSeats != 4 {
		t.Fatalf("ride = %s with %d seats", got.Status, got.AvailableSeats)
	}
	if got.CancelledBy == nil || *got.CancelledBy != driverID || got.CancelledAt == nil {
		t.Fatalf("cancellation not recorded: %+v", got)
	}
	if got.CancellationReason == nil || *got.CancellationReason != inventory.DefaultCancelReason {
		t.Fatalf("reason = %v", got.CancellationReason)
	}
	for _, b := range st.Bookings(ride.ID) {
		if b.Status != model.BookingCancelled {
			t.Fatalf("booking %d = %s", b.ID, b.Status)
		}
	}
	checkSeats(t, st, ride.ID)

	eng.Wait()
	n := rec.Notices()
	if len(n) != 2 {
		t.Fatalf("notices = %d, want 2", len(n))
	}
	for _, x := range n {
		if x.Type != model.NotifyRideCancelled || x.Reason != inventory.DefaultCancelReason {
			t.Fatalf("notice = %+v", x)
		}
	}
}

func TestTerminalRidesStayTerminal(t *testing.T) {
	for _, status := range []model.RideStatus{model.RideCompleted, model.RideCancelled} {
		t.Run(string(status), func(t *testing.T) {
			eng, st, _ := newEngine(t)
			ride := st.AddRide(model.Ride{DriverID: driverID, TotalSeats: 2, Status: status, DepartsAt: departure})
			ctx := context.Background()

			_, err := eng.StartRide(ctx, ride.ID, driverID)
			wantKind(t, err, inventory.ErrInvalidState)
			_, err = eng.CompleteRide(ctx, ride.ID, driverID)
			wantKind(t, err, inventory.ErrInvalidState)
			_, err = eng.CancelRide(ctx, ride.ID, driverID, "again")
			wantKind(t, err, inventory.ErrInvalidState)
			_, err = eng.CreateBooking(ctx, inventory.BookingRequest{RideID: ride.ID, RiderID: riderID, Seats: 1})
			wantKind(t, err, inventory.ErrInvalidState)

			if got, _ := st.Ride(ride.ID); got.Status != status {
				t.Fatalf("status moved to %s", got.Status)
			}
		})
	}
}
