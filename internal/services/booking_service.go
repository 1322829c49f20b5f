package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/pricing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier is the fire-and-forget notification collaborator. Delivery
// failure never rolls back a transition.
type Notifier interface {
	ReservationCreated(r *models.Reservation)
	ReservationConfirmed(r *models.Reservation)
	ReservationCancelled(r *models.Reservation)
}

// BookingService owns the reservation lifecycle. All status mutations go
// through the transition table plus a conditional store write; no other
// component writes reservation state.
type BookingService struct {
	sites        models.SitesRepo
	reservations models.ReservationsRepo
	calendar     models.CalendarRepo
	policy       pricing.Policy
	// PaymentDeadline is how long an unpaid pending reservation holds its
	// dates before the sweeper expires it.
	paymentDeadline time.Duration
	notifier        Notifier
	logger          *slog.Logger
}

func NewBookingService(sites models.SitesRepo, reservations models.ReservationsRepo, calendar models.CalendarRepo, policy pricing.Policy, paymentDeadline time.Duration, notifier Notifier, logger *slog.Logger) *BookingService {
	return &BookingService{
		sites:           sites,
		reservations:    reservations,
		calendar:        calendar,
		policy:          policy,
		paymentDeadline: paymentDeadline,
		notifier:        notifier,
		logger:          logger,
	}
}

type CreateReservationRequest struct {
	SiteID   string `json:"site_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
	Guests   int    `json:"guests" validate:"required,min=1"`
	Pets     int    `json:"pets" validate:"gte=0"`
	Vehicles int    `json:"vehicles" validate:"gte=0"`
}

// CreateReservation runs the booking critical section: validate the stay,
// price it, claim the calendar dates with a single conditional write, then
// persist the reservation pending payment. If the insert fails the claim is
// rolled back so no partial state survives.
func (bs *BookingService) CreateReservation(ctx context.Context, req *CreateReservationRequest, guestID uuid.UUID, guestEmail string) (*models.Reservation, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidStay, err)
	}

	siteID, err := primitive.ObjectIDFromHex(req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid site id", models.ErrNotFound)
	}
	checkIn, err := models.ParseDate(req.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid check-in date", models.ErrInvalidStay)
	}
	checkOut, err := models.ParseDate(req.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid check-out date", models.ErrInvalidStay)
	}

	site, err := bs.sites.GetSiteByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if !site.Active || !site.Bookable {
		return nil, fmt.Errorf("%w: site is not accepting bookings", models.ErrConflict)
	}

	now := time.Now()
	if err := validateStayWindow(site.Rules, checkIn, now); err != nil {
		return nil, err
	}
	if err := validateOccupancy(site.Rules, req.Guests, req.Pets, req.Vehicles); err != nil {
		return nil, err
	}

	breakdown, err := pricing.Calculate(site.Tariff, site.Rules, checkIn, checkOut, req.Guests, req.Pets, req.Vehicles, bs.policy)
	if err != nil {
		return nil, err
	}

	held := models.HeldDateKeys(checkIn, checkOut, site.Rules.PreparationDays)
	if err := bs.calendar.Reserve(ctx, site, held); err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		SiteID:        site.ID,
		ListingID:     site.ListingID,
		GuestID:       guestID,
		GuestEmail:    guestEmail,
		HostID:        site.HostID,
		CheckIn:       models.DateOnly(checkIn),
		CheckOut:      models.DateOnly(checkOut),
		Nights:        breakdown.Nights,
		HeldDates:     held,
		Guests:        req.Guests,
		Pets:          req.Pets,
		Vehicles:      req.Vehicles,
		Price:         *breakdown,
		Status:        models.ReservationPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := bs.reservations.InsertReservation(ctx, reservation); err != nil {
		// The dates were claimed but the reservation never persisted; give
		// the claim back before surfacing the error.
		if relErr := bs.calendar.Release(ctx, site.ID, site.Capacity, held); relErr != nil {
			bs.logger.Error("failed to roll back calendar claim after insert failure",
				"site_id", site.ID.Hex(), "error", relErr)
		}
		return nil, err
	}

	bs.logger.Info("reservation created",
		"reservation_id", reservation.ID.Hex(),
		"site_id", site.ID.Hex(),
		"check_in", req.CheckIn,
		"check_out", req.CheckOut,
		"total", breakdown.Total,
	)
	bs.notifier.ReservationCreated(reservation)
	return reservation, nil
}

// Actor identifies who initiates a lifecycle operation.
type Actor struct {
	ID    uuid.UUID
	Role  string
	Email string
}

func (a Actor) isAdmin() bool { return a.Role == "admin" }

// CancelReservation cancels a pending or confirmed reservation on behalf of
// the guest or host, releases the held dates and records the refund the
// cancellation policy grants. The state move is a compare-and-swap against
// the status observed here, so a concurrent sweep or confirmation makes the
// cancel fail rather than double-apply.
func (bs *BookingService) CancelReservation(ctx context.Context, id primitive.ObjectID, actor Actor, reason string) (*models.Reservation, error) {
	r, err := bs.reservations.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != r.GuestID && actor.ID != r.HostID && !actor.isAdmin() {
		return nil, models.ErrForbidden
	}
	if _, err := models.NextStatus(r.Status, models.EventCancel); err != nil {
		return nil, err
	}

	now := time.Now()
	cancellation := &models.Cancellation{
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Reason:       reason,
		CancelledAt:  now,
		RefundAmount: refundAmount(r, now),
	}

	updated, err := bs.reservations.TransitionStatus(ctx, r.ID, r.Status, bson.M{
		"status":       models.ReservationCancelled,
		"cancellation": cancellation,
	})
	if err != nil {
		return nil, err
	}

	bs.releaseHeld(ctx, updated)
	bs.logger.Info("reservation cancelled",
		"reservation_id", updated.ID.Hex(),
		"actor_role", actor.Role,
		"refund_amount", cancellation.RefundAmount,
	)
	bs.notifier.ReservationCancelled(updated)
	return updated, nil
}

// refundAmount applies the cancellation policy: full refund a week or more
// before check-in, half within a week, nothing within three days. Unpaid
// reservations refund nothing.
func refundAmount(r *models.Reservation, at time.Time) float64 {
	if r.PaymentStatus != models.PaymentPaid {
		return 0
	}
	daysOut := r.CheckIn.Sub(models.DateOnly(at)).Hours() / 24
	switch {
	case daysOut >= 7:
		return r.Price.Total
	case daysOut >= 3:
		return pricing.Round(r.Price.Total/2, r.Price.Currency)
	default:
		return 0
	}
}

// MarkRefunded records a processed refund on a cancelled or completed
// reservation.
func (bs *BookingService) MarkRefunded(ctx context.Context, id primitive.ObjectID, actor Actor, amount float64) (*models.Reservation, error) {
	r, err := bs.reservations.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != r.HostID && !actor.isAdmin() {
		return nil, models.ErrForbidden
	}
	if _, err := models.NextStatus(r.Status, models.EventRefund); err != nil {
		return nil, err
	}

	if amount <= 0 {
		if r.Cancellation != nil {
			amount = r.Cancellation.RefundAmount
		} else {
			amount = r.Price.Total
		}
	}

	updated, err := bs.reservations.TransitionStatus(ctx, r.ID, r.Status, bson.M{
		"status":          models.ReservationRefunded,
		"payment_status":  models.PaymentRefunded,
		"refunded_amount": amount,
	})
	if err != nil {
		return nil, err
	}

	bs.logger.Info("reservation refunded",
		"reservation_id", updated.ID.Hex(),
		"amount", amount,
	)
	return updated, nil
}

// ExpireUnpaid drives every pending reservation past the payment deadline
// through the expiry transition. Each move is a CAS, so a reservation the
// gateway confirms between selection and transition is skipped, and
// overlapping sweeper runs cannot double-release dates.
func (bs *BookingService) ExpireUnpaid(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-bs.paymentDeadline)
	expired, err := bs.reservations.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range expired {
		updated, err := bs.reservations.TransitionStatus(ctx, r.ID, models.ReservationPending, bson.M{
			"status":         models.ReservationCancelled,
			"payment_status": models.PaymentFailed,
			"cancellation": &models.Cancellation{
				ActorRole:   "system",
				Reason:      "payment deadline expired",
				CancelledAt: time.Now(),
			},
		})
		if err != nil {
			// Confirmed or already expired in the meantime; nothing to do.
			bs.logger.Debug("skipping expiry, reservation state changed",
				"reservation_id", r.ID.Hex(), "error", err)
			continue
		}
		bs.releaseHeld(ctx, updated)
		bs.notifier.ReservationCancelled(updated)
		count++
	}
	return count, nil
}

// CompleteElapsed moves confirmed reservations whose stay has ended to
// completed. The slot was already consumed, so there is no calendar effect.
func (bs *BookingService) CompleteElapsed(ctx context.Context) (int, error) {
	elapsed, err := bs.reservations.FindElapsedConfirmed(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range elapsed {
		_, err := bs.reservations.TransitionStatus(ctx, r.ID, models.ReservationConfirmed, bson.M{
			"status": models.ReservationCompleted,
		})
		if err != nil {
			bs.logger.Debug("skipping completion, reservation state changed",
				"reservation_id", r.ID.Hex(), "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// GetReservation returns a reservation visible to the actor.
func (bs *BookingService) GetReservation(ctx context.Context, id primitive.ObjectID, actor Actor) (*models.Reservation, error) {
	r, err := bs.reservations.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != r.GuestID && actor.ID != r.HostID && !actor.isAdmin() {
		return nil, models.ErrForbidden
	}
	return r, nil
}

func (bs *BookingService) ListReservationsByGuest(ctx context.Context, guestID uuid.UUID, offset, limit int) ([]*models.Reservation, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("invalid offset or limit")
	}
	return bs.reservations.ListReservationsByGuest(ctx, guestID, offset, limit)
}

func (bs *BookingService) ListReservationsByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*models.Reservation, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("invalid offset or limit")
	}
	return bs.reservations.ListReservationsByHost(ctx, hostID, offset, limit)
}

// releaseHeld returns a reservation's frozen date claim to the calendar.
func (bs *BookingService) releaseHeld(ctx context.Context, r *models.Reservation) {
	site, err := bs.sites.GetSiteByID(ctx, r.SiteID)
	if err != nil {
		bs.logger.Error("failed to load site for calendar release",
			"reservation_id", r.ID.Hex(), "site_id", r.SiteID.Hex(), "error", err)
		return
	}
	if err := bs.calendar.Release(ctx, r.SiteID, site.Capacity, r.HeldDates); err != nil {
		bs.logger.Error("failed to release calendar dates",
			"reservation_id", r.ID.Hex(), "site_id", r.SiteID.Hex(), "error", err)
	}
}

func validateStayWindow(rules models.BookingRules, checkIn time.Time, now time.Time) error {
	today := models.DateOnly(now)
	in := models.DateOnly(checkIn)
	if in.Before(today) {
		return fmt.Errorf("%w: check-in is in the past", models.ErrInvalidStay)
	}
	if in.Equal(today) && !rules.AllowSameDay {
		return fmt.Errorf("%w: same-day booking is not allowed", models.ErrInvalidStay)
	}
	if rules.AdvanceNoticeHours > 0 {
		if in.Before(now.Add(time.Duration(rules.AdvanceNoticeHours) * time.Hour)) {
			return fmt.Errorf("%w: requires %d hours advance notice", models.ErrInvalidStay, rules.AdvanceNoticeHours)
		}
	}
	return nil
}

func validateOccupancy(rules models.BookingRules, guests, pets, vehicles int) error {
	if rules.MaxGuests > 0 && guests > rules.MaxGuests {
		return fmt.Errorf("%w: site sleeps at most %d guests", models.ErrInvalidStay, rules.MaxGuests)
	}
	if pets > rules.MaxPets {
		return fmt.Errorf("%w: site allows at most %d pets", models.ErrInvalidStay, rules.MaxPets)
	}
	if rules.MaxVehicles > 0 && vehicles > rules.MaxVehicles {
		return fmt.Errorf("%w: site allows at most %d vehicles", models.ErrInvalidStay, rules.MaxVehicles)
	}
	return nil
}
