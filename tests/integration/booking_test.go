package integration

import (
	"net/http"
	"sync"
	"testing"

	"cinebook/internal/models"
)

func TestAPI_HealthCheck(t *testing.T) {
	RequireAPI(t)
	client := NewTestClient(BaseURL(), "it-health")

	LogTestStep(t, "Checking API health")
	client.HealthCheck(t)
	LogTestResult(t, "API is healthy")
}

// Full happy path: show, hold, booking, cancellation with full refund.
func TestAPI_BookingLifecycle(t *testing.T) {
	RequireAPI(t)
	client := NewTestClient(BaseURL(), "it-lifecycle")

	LogTestStep(t, "Creating show")
	show := client.CreateShow(t, NewShowRequest("Lifecycle"))
	if show.TotalSeats != 12 {
		t.Fatalf("expected 12 seats, got %d", show.TotalSeats)
	}

	LogTestStep(t, "Holding two seats")
	seatMap := client.GetSeatMap(t, show.ID)
	seats := AvailableSeats(t, seatMap, 2)
	hold := client.CreateHold(t, show.ID, seats)

	availability := client.GetAvailability(t, show.ID)
	if availability.Held != 2 {
		t.Fatalf("expected 2 held seats, got %d", availability.Held)
	}

	LogTestStep(t, "Submitting booking")
	booking := client.SubmitBooking(t, models.SubmitBookingRequest{
		HoldToken:     hold.Token,
		PaymentMethod: "card",
	})
	if booking.Status != models.BookingConfirmed {
		t.Fatalf("expected CONFIRMED booking, got %s", booking.Status)
	}

	availability = client.GetAvailability(t, show.ID)
	if availability.Booked != 2 || availability.Counter != 2 {
		t.Fatalf("expected 2 booked with matching counter, got %+v", availability)
	}

	LogTestStep(t, "Cancelling booking")
	cancelled := client.CancelBooking(t, booking.BookingID)
	if cancelled.RefundAmount != booking.TotalAmount {
		t.Fatalf("expected full refund %d, got %d", booking.TotalAmount, cancelled.RefundAmount)
	}

	availability = client.GetAvailability(t, show.ID)
	if availability.Booked != 0 || availability.Available != 12 {
		t.Fatalf("seats did not return after cancellation: %+v", availability)
	}

	LogTestResult(t, "Booking lifecycle completed")
}

// Two actors race for the same seats; exactly one hold wins.
func TestAPI_ConcurrentHoldsAreExclusive(t *testing.T) {
	RequireAPI(t)
	admin := NewTestClient(BaseURL(), "it-admin")

	show := admin.CreateShow(t, NewShowRequest("Contention"))
	seatMap := admin.GetSeatMap(t, show.ID)
	seats := AvailableSeats(t, seatMap, 2)

	const racers = 8
	var wg sync.WaitGroup
	statuses := make([]int, racers)

	LogTestStep(t, "Racing %d hold attempts for the same seats", racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client := NewTestClient(BaseURL(), "it-racer")
			statuses[i] = client.TryCreateHold(t, show.ID, seats)
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			winners++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d in hold race", status)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winning hold, got %d", winners)
	}

	LogTestResult(t, "1 winner, %d conflicts", conflicts)
}

func TestAPI_ReleaseMakesSeatsAvailableAgain(t *testing.T) {
	RequireAPI(t)
	client := NewTestClient(BaseURL(), "it-release")

	show := client.CreateShow(t, NewShowRequest("Release"))
	seatMap := client.GetSeatMap(t, show.ID)
	seats := AvailableSeats(t, seatMap, 1)

	hold := client.CreateHold(t, show.ID, seats)
	client.ReleaseHold(t, hold.Token)

	// The same seats can be held immediately.
	second := client.CreateHold(t, show.ID, seats)
	if second.Token == hold.Token {
		t.Fatal("expected a fresh hold token")
	}
}

func TestAPI_IdempotentSubmitReturnsSameBooking(t *testing.T) {
	RequireAPI(t)
	client := NewTestClient(BaseURL(), "it-idem")

	show := client.CreateShow(t, NewShowRequest("Idempotency"))
	seatMap := client.GetSeatMap(t, show.ID)
	seats := AvailableSeats(t, seatMap, 1)
	hold := client.CreateHold(t, show.ID, seats)

	req := models.SubmitBookingRequest{
		HoldToken:      hold.Token,
		PaymentMethod:  "card",
		IdempotencyKey: hold.Token, // unique per test run
	}
	first := client.SubmitBooking(t, req)
	second := client.SubmitBooking(t, req)

	if first.BookingID != second.BookingID || first.Code != second.Code {
		t.Fatalf("idempotent replay diverged: %+v vs %+v", first, second)
	}
}

func TestAPI_BookingsListShowsOwnBookingsOnly(t *testing.T) {
	RequireAPI(t)
	owner := NewTestClient(BaseURL(), "it-owner")
	other := NewTestClient(BaseURL(), "it-other")

	show := owner.CreateShow(t, NewShowRequest("Listing"))
	seatMap := owner.GetSeatMap(t, show.ID)
	seats := AvailableSeats(t, seatMap, 1)
	hold := owner.CreateHold(t, show.ID, seats)
	booking := owner.SubmitBooking(t, models.SubmitBookingRequest{
		HoldToken:     hold.Token,
		PaymentMethod: "card",
	})

	for _, item := range owner.ListBookings(t) {
		if item.ID == booking.BookingID {
			goto foreign
		}
	}
	t.Fatal("owner's booking missing from their list")

foreign:
	for _, item := range other.ListBookings(t) {
		if item.ID == booking.BookingID {
			t.Fatal("booking leaked into another actor's list")
		}
	}
}
