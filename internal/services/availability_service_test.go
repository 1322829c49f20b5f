package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/pricing"
)

func newAvailabilityFixture(site *models.Site) (*AvailabilityService, *bookingFixture) {
	f := newBookingFixture(site)
	as := NewAvailabilityService(f.sites, f.calendar, pricing.Policy{ServiceFeePercent: 10, TaxPercent: 8})
	return as, f
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestCheckAvailabilityReflectsBookings(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	as, f := newAvailabilityFixture(site)
	ctx := context.Background()
	checkIn, checkOut := futureStay(30, 3)

	ok, err := as.CheckAvailability(ctx, site.ID, mustDate(t, checkIn), mustDate(t, checkOut))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !ok {
		t.Fatal("empty calendar should be available")
	}

	if _, err := f.svc.CreateReservation(ctx, &CreateReservationRequest{
		SiteID: site.ID.Hex(), CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	}, site.HostID, "guest@example.com"); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	ok, err = as.CheckAvailability(ctx, site.ID, mustDate(t, checkIn), mustDate(t, checkOut))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if ok {
		t.Error("booked window still reported available")
	}

	// The probe is read-only; a booking must still go through afterwards.
	laterIn, laterOut := futureStay(40, 2)
	ok, err = as.CheckAvailability(ctx, site.ID, mustDate(t, laterIn), mustDate(t, laterOut))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !ok {
		t.Error("disjoint window reported unavailable")
	}
}

func TestCheckAvailabilityPreparationBuffer(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	site.Rules.PreparationDays = 1
	as, f := newAvailabilityFixture(site)
	ctx := context.Background()
	checkIn, checkOut := futureStay(30, 2)

	if _, err := f.svc.CreateReservation(ctx, &CreateReservationRequest{
		SiteID: site.ID.Hex(), CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	}, site.HostID, "guest@example.com"); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	// The day after check-out is held by the preparation buffer.
	bufIn, bufOut := futureStay(32, 1)
	ok, err := as.CheckAvailability(ctx, site.ID, mustDate(t, bufIn), mustDate(t, bufOut))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if ok {
		t.Error("preparation day reported available")
	}
}

func TestGroupAvailabilityRemainingCapacity(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityPooled, MaxConcurrent: 3})
	as, f := newAvailabilityFixture(site)
	ctx := context.Background()
	checkIn, checkOut := futureStay(30, 2)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.CreateReservation(ctx, &CreateReservationRequest{
			SiteID: site.ID.Hex(), CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
		}, site.HostID, "guest@example.com"); err != nil {
			t.Fatalf("reservation %d: %v", i+1, err)
		}
	}

	ga, err := as.GroupAvailability(ctx, site.ID, mustDate(t, checkIn), mustDate(t, checkOut))
	if err != nil {
		t.Fatalf("GroupAvailability: %v", err)
	}
	if !ga.Available || ga.RemainingCapacity != 1 {
		t.Errorf("got %+v, want available with remaining 1", ga)
	}
}

func TestBlockedDates(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	as, f := newAvailabilityFixture(site)
	ctx := context.Background()
	checkIn, checkOut := futureStay(30, 2)

	if _, err := f.svc.CreateReservation(ctx, &CreateReservationRequest{
		SiteID: site.ID.Hex(), CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	}, site.HostID, "guest@example.com"); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	from := models.DateOnly(time.Now()).AddDate(0, 0, 28)
	to := from.AddDate(0, 0, 7)
	blocked, err := as.BlockedDates(ctx, site.ID, from, to)
	if err != nil {
		t.Fatalf("BlockedDates: %v", err)
	}
	if want := models.StayDateKeys(mustDate(t, checkIn), mustDate(t, checkOut)); !reflect.DeepEqual(blocked, want) {
		t.Errorf("blocked = %v, want %v", blocked, want)
	}
}

func TestQuoteMatchesCreatePrice(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	as, f := newAvailabilityFixture(site)
	ctx := context.Background()
	checkIn, checkOut := futureStay(30, 3)

	quote, err := as.Quote(ctx, site.ID, mustDate(t, checkIn), mustDate(t, checkOut), 2, 0, 0)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	r, err := f.svc.CreateReservation(ctx, &CreateReservationRequest{
		SiteID: site.ID.Hex(), CheckIn: checkIn, CheckOut: checkOut, Guests: 2,
	}, site.HostID, "guest@example.com")
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	if !reflect.DeepEqual(quote, &r.Price) {
		t.Errorf("quote %+v differs from booked price %+v", quote, r.Price)
	}
}
