package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/owusuansah/campsited/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSites is an in-memory models.SitesRepo.
type fakeSites struct {
	mu    sync.Mutex
	sites map[primitive.ObjectID]*models.Site
}

func newFakeSites(sites ...*models.Site) *fakeSites {
	f := &fakeSites{sites: map[primitive.ObjectID]*models.Site{}}
	for _, s := range sites {
		f.sites[s.ID] = s
	}
	return f
}

func (f *fakeSites) CreateSite(ctx context.Context, site *models.Site) (*models.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = site.BeforeCreate()
	f.sites[site.ID] = site
	return site, nil
}

func (f *fakeSites) GetSiteByID(ctx context.Context, id primitive.ObjectID) (*models.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sites[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSites) ListSitesByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*models.Site, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Site
	for _, s := range f.sites {
		if s.HostID == hostID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

// fakeCalendar mirrors the store-level conditional write: reserve checks
// and claims under one lock, so concurrent callers see conflict semantics.
type fakeCalendar struct {
	mu       sync.Mutex
	entries  map[primitive.ObjectID]*models.CalendarEntry
	reserves int
	releases int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{entries: map[primitive.ObjectID]*models.CalendarEntry{}}
}

func (f *fakeCalendar) entry(siteID primitive.ObjectID) *models.CalendarEntry {
	e, ok := f.entries[siteID]
	if !ok {
		e = &models.CalendarEntry{SiteID: siteID, Counts: map[string]int{}}
		f.entries[siteID] = e
	}
	if e.Counts == nil {
		e.Counts = map[string]int{}
	}
	return e
}

func (f *fakeCalendar) Reserve(ctx context.Context, site *models.Site, dates []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entry(site.ID)
	if !e.CanHold(site.Capacity, dates) {
		return models.ErrConflict
	}
	if site.Capacity.IsPooled() {
		for _, d := range dates {
			e.Counts[d]++
		}
	} else {
		e.Booked = append(e.Booked, dates...)
	}
	f.reserves++
	return nil
}

func (f *fakeCalendar) Release(ctx context.Context, siteID primitive.ObjectID, mode models.CapacityMode, dates []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entry(siteID)
	if mode.IsPooled() {
		for _, d := range dates {
			e.Counts[d]--
		}
	} else {
		drop := map[string]bool{}
		for _, d := range dates {
			drop[d] = true
		}
		var kept []string
		for _, d := range e.Booked {
			if !drop[d] {
				kept = append(kept, d)
			}
		}
		e.Booked = kept
	}
	f.releases++
	return nil
}

func (f *fakeCalendar) GetCalendar(ctx context.Context, siteID primitive.ObjectID) (*models.CalendarEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entry(siteID)
	copied := *e
	return &copied, nil
}

// fakeReservations is an in-memory models.ReservationsRepo whose
// TransitionStatus applies the same compare-and-swap contract as the Mongo
// implementation.
type fakeReservations struct {
	mu           sync.Mutex
	reservations map[primitive.ObjectID]*models.Reservation
	failInsert   bool
	// forceExpired, when set, is returned from FindExpiredPending verbatim
	// to simulate a selection that went stale before the transition.
	forceExpired []*models.Reservation
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{reservations: map[primitive.ObjectID]*models.Reservation{}}
}

func (f *fakeReservations) InsertReservation(ctx context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return fmt.Errorf("simulated insert failure")
	}
	_ = r.BeforeCreate()
	copied := *r
	f.reservations[r.ID] = &copied
	return nil
}

func (f *fakeReservations) GetReservationByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReservations) GetReservationByOrderRef(ctx context.Context, orderRef string) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.OrderRef == orderRef {
			copied := *r
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeReservations) ListReservationsByGuest(ctx context.Context, guestID uuid.UUID, offset, limit int) ([]*models.Reservation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Reservation
	for _, r := range f.reservations {
		if r.GuestID == guestID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakeReservations) ListReservationsByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*models.Reservation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Reservation
	for _, r := range f.reservations {
		if r.HostID == hostID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakeReservations) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceExpired != nil {
		return f.forceExpired, nil
	}
	var out []*models.Reservation
	for _, r := range f.reservations {
		if r.Status == models.ReservationPending && r.PaymentStatus != models.PaymentPaid && r.CreatedAt.Before(cutoff) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeReservations) FindElapsedConfirmed(ctx context.Context, now time.Time) ([]*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Reservation
	for _, r := range f.reservations {
		if r.Status == models.ReservationConfirmed && !r.CheckOut.After(now) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeReservations) TransitionStatus(ctx context.Context, id primitive.ObjectID, from models.ReservationStatus, set bson.M) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if r.Status != from {
		return nil, fmt.Errorf("%w: expected %s, found %s", models.ErrInvalidTransition, from, r.Status)
	}
	for key, value := range set {
		switch key {
		case "status":
			r.Status = value.(models.ReservationStatus)
		case "payment_status":
			r.PaymentStatus = value.(models.PaymentStatus)
		case "cancellation":
			r.Cancellation = value.(*models.Cancellation)
		case "provider_txn_ref":
			r.ProviderTxnRef = value.(string)
		case "paid_at":
			t := value.(time.Time)
			r.PaidAt = &t
		case "refunded_amount":
			r.RefundedAmount = value.(float64)
		}
	}
	r.UpdatedAt = time.Now()
	copied := *r
	return &copied, nil
}

// countingNotifier records which transition notifications fired.
type countingNotifier struct {
	mu        sync.Mutex
	created   int
	confirmed int
	cancelled int
}

func (n *countingNotifier) ReservationCreated(r *models.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
}

func (n *countingNotifier) ReservationConfirmed(r *models.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed++
}

func (n *countingNotifier) ReservationCancelled(r *models.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled++
}
