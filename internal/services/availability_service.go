package services

import (
	"context"
	"fmt"
	"time"

	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/pricing"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilityService is the read-only surface over the calendar index and
// the pricing calculator. Nothing here mutates state; the authoritative
// availability decision is still the conditional write at booking time.
type AvailabilityService struct {
	sites    models.SitesRepo
	calendar models.CalendarRepo
	policy   pricing.Policy
}

func NewAvailabilityService(sites models.SitesRepo, calendar models.CalendarRepo, policy pricing.Policy) *AvailabilityService {
	return &AvailabilityService{
		sites:    sites,
		calendar: calendar,
		policy:   policy,
	}
}

// CheckAvailability answers whether [checkIn, checkOut) could currently be
// booked on the site, preparation buffer included.
func (as *AvailabilityService) CheckAvailability(ctx context.Context, siteID primitive.ObjectID, checkIn, checkOut time.Time) (bool, error) {
	site, entry, err := as.load(ctx, siteID)
	if err != nil {
		return false, err
	}
	if models.NightsBetween(checkIn, checkOut) < 1 {
		return false, fmt.Errorf("%w: check-out must be after check-in", models.ErrInvalidStay)
	}
	held := models.HeldDateKeys(checkIn, checkOut, site.Rules.PreparationDays)
	return entry.CanHold(site.Capacity, held), nil
}

// GroupAvailability reports availability and remaining capacity for a
// pooled site over the requested window.
type GroupAvailability struct {
	Available         bool `json:"available"`
	RemainingCapacity int  `json:"remaining_capacity"`
}

func (as *AvailabilityService) GroupAvailability(ctx context.Context, siteID primitive.ObjectID, checkIn, checkOut time.Time) (*GroupAvailability, error) {
	site, entry, err := as.load(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if models.NightsBetween(checkIn, checkOut) < 1 {
		return nil, fmt.Errorf("%w: check-out must be after check-in", models.ErrInvalidStay)
	}
	held := models.HeldDateKeys(checkIn, checkOut, site.Rules.PreparationDays)
	remaining := site.Capacity.Limit() - entry.Load(held)
	if remaining < 0 {
		remaining = 0
	}
	return &GroupAvailability{
		Available:         remaining > 0,
		RemainingCapacity: remaining,
	}, nil
}

// BlockedDates returns the dates in [from, to) that would fail a one-night
// availability probe. A derived view for calendar UIs, not a separate store.
func (as *AvailabilityService) BlockedDates(ctx context.Context, siteID primitive.ObjectID, from, to time.Time) ([]string, error) {
	site, entry, err := as.load(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty date window", models.ErrInvalidStay)
	}

	blocked := []string{}
	for d := models.DateOnly(from); d.Before(models.DateOnly(to)); d = d.AddDate(0, 0, 1) {
		probe := models.HeldDateKeys(d, d.AddDate(0, 0, 1), site.Rules.PreparationDays)
		if !entry.CanHold(site.Capacity, probe) {
			blocked = append(blocked, models.DateKey(d))
		}
	}
	return blocked, nil
}

// Quote prices a stay without reserving anything.
func (as *AvailabilityService) Quote(ctx context.Context, siteID primitive.ObjectID, checkIn, checkOut time.Time, guests, pets, vehicles int) (*models.PriceBreakdown, error) {
	site, err := as.sites.GetSiteByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if err := validateOccupancy(site.Rules, guests, pets, vehicles); err != nil {
		return nil, err
	}
	return pricing.Calculate(site.Tariff, site.Rules, checkIn, checkOut, guests, pets, vehicles, as.policy)
}

func (as *AvailabilityService) load(ctx context.Context, siteID primitive.ObjectID) (*models.Site, *models.CalendarEntry, error) {
	site, err := as.sites.GetSiteByID(ctx, siteID)
	if err != nil {
		return nil, nil, err
	}
	entry, err := as.calendar.GetCalendar(ctx, siteID)
	if err != nil {
		return nil, nil, err
	}
	return site, entry, nil
}
