package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CapacityKind string

const (
	CapacityExclusive CapacityKind = "exclusive"
	CapacityPooled    CapacityKind = "pooled"
)

// CapacityMode is the tagged variant that decides which availability rule a
// site is booked under. An exclusive site accepts at most one overlapping
// non-terminal reservation; a pooled site accepts up to MaxConcurrent
// overlapping reservations against an undifferentiated group of identical
// units (the operator assigns a physical unit at arrival).
type CapacityMode struct {
	Kind          CapacityKind `bson:"kind" json:"kind" validate:"required,oneof=exclusive pooled"`
	MaxConcurrent int          `bson:"max_concurrent,omitempty" json:"max_concurrent,omitempty" validate:"required_if=Kind pooled,omitempty,min=1"`
}

func (m CapacityMode) IsPooled() bool {
	return m.Kind == CapacityPooled
}

// Limit returns the number of concurrent holds a single date may carry.
func (m CapacityMode) Limit() int {
	if m.Kind == CapacityPooled && m.MaxConcurrent > 0 {
		return m.MaxConcurrent
	}
	return 1
}

// SeasonalRate substitutes the nightly rate for dates inside [StartDate,
// EndDate). Overlapping windows are resolved by first match in list order.
type SeasonalRate struct {
	Label     string    `bson:"label" json:"label" validate:"required"`
	StartDate time.Time `bson:"start_date" json:"start_date" validate:"required"`
	EndDate   time.Time `bson:"end_date" json:"end_date" validate:"required"`
	Price     float64   `bson:"price" json:"price" validate:"gt=0"`
}

// Covers reports whether the given night falls inside the window.
func (s SeasonalRate) Covers(night time.Time) bool {
	d := DateOnly(night)
	return !d.Before(DateOnly(s.StartDate)) && d.Before(DateOnly(s.EndDate))
}

// Tariff is the pricing configuration of a site. Amounts are in the major
// unit of Currency. A zero WeekendPrice means weekend nights use BasePrice.
type Tariff struct {
	BasePrice              float64        `bson:"base_price" json:"base_price" validate:"gt=0"`
	WeekendPrice           float64        `bson:"weekend_price,omitempty" json:"weekend_price,omitempty" validate:"gte=0"`
	WeeklyDiscountPercent  float64        `bson:"weekly_discount_percent,omitempty" json:"weekly_discount_percent,omitempty" validate:"gte=0,lte=100"`
	MonthlyDiscountPercent float64        `bson:"monthly_discount_percent,omitempty" json:"monthly_discount_percent,omitempty" validate:"gte=0,lte=100"`
	IncludedGuests         int            `bson:"included_guests" json:"included_guests" validate:"gte=0"`
	ExtraGuestFee          float64        `bson:"extra_guest_fee,omitempty" json:"extra_guest_fee,omitempty" validate:"gte=0"`
	PetFee                 float64        `bson:"pet_fee,omitempty" json:"pet_fee,omitempty" validate:"gte=0"`
	VehicleFee             float64        `bson:"vehicle_fee,omitempty" json:"vehicle_fee,omitempty" validate:"gte=0"`
	CleaningFee            float64        `bson:"cleaning_fee,omitempty" json:"cleaning_fee,omitempty" validate:"gte=0"`
	Deposit                float64        `bson:"deposit,omitempty" json:"deposit,omitempty" validate:"gte=0"`
	Currency               string         `bson:"currency" json:"currency" validate:"required,len=3"`
	Seasons                []SeasonalRate `bson:"seasons,omitempty" json:"seasons,omitempty" validate:"dive"`
}

// BookingRules constrain which stays a site accepts.
type BookingRules struct {
	MinNights          int  `bson:"min_nights" json:"min_nights" validate:"gte=1"`
	MaxNights          int  `bson:"max_nights,omitempty" json:"max_nights,omitempty" validate:"gte=0"`
	AdvanceNoticeHours int  `bson:"advance_notice_hours,omitempty" json:"advance_notice_hours,omitempty" validate:"gte=0"`
	AllowSameDay       bool `bson:"allow_same_day" json:"allow_same_day"`
	// PreparationDays is the buffer kept free after each check-out before
	// the next occupancy may start.
	PreparationDays int `bson:"preparation_days,omitempty" json:"preparation_days,omitempty" validate:"gte=0"`
	MaxGuests       int `bson:"max_guests" json:"max_guests" validate:"gte=1"`
	MaxPets         int `bson:"max_pets,omitempty" json:"max_pets,omitempty" validate:"gte=0"`
	MaxVehicles     int `bson:"max_vehicles,omitempty" json:"max_vehicles,omitempty" validate:"gte=0"`
}

// Site is a single bookable physical unit (campsite pad or structure) under
// a listing.
type Site struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ListingID uuid.UUID          `bson:"listing_id" json:"listing_id" validate:"required"`
	HostID    uuid.UUID          `bson:"host_id" json:"host_id"`
	Name      string             `bson:"name" json:"name" validate:"required,min=2,max=120"`
	Capacity  CapacityMode       `bson:"capacity" json:"capacity" validate:"required"`
	Tariff    Tariff             `bson:"tariff" json:"tariff" validate:"required"`
	Rules     BookingRules       `bson:"rules" json:"rules" validate:"required"`
	Active    bool               `bson:"active" json:"active"`
	Bookable  bool               `bson:"bookable" json:"bookable"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

func (s *Site) BeforeCreate() error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.Rules.MinNights == 0 {
		s.Rules.MinNights = 1
	}
	return nil
}

const dateLayout = "2006-01-02"

// DateOnly truncates an instant to its UTC calendar date. All calendar math
// in the engine happens at date granularity.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a date in the form stored in calendar documents.
func DateKey(t time.Time) string {
	return DateOnly(t).Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// NightsBetween returns the number of nights in the half-open stay
// [checkIn, checkOut).
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours() / 24)
}

// StayDateKeys lists the night dates of [checkIn, checkOut).
func StayDateKeys(checkIn, checkOut time.Time) []string {
	return dateKeysRange(DateOnly(checkIn), DateOnly(checkOut))
}

// HeldDateKeys lists the calendar dates a reservation claims: the stay
// nights widened by the preparation buffer past check-out. The widened set
// is frozen on the reservation so release stays correct even if the site's
// rules change later.
func HeldDateKeys(checkIn, checkOut time.Time, preparationDays int) []string {
	end := DateOnly(checkOut)
	if preparationDays > 0 {
		end = end.AddDate(0, 0, preparationDays)
	}
	return dateKeysRange(DateOnly(checkIn), end)
}

func dateKeysRange(from, to time.Time) []string {
	var keys []string
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(dateLayout))
	}
	return keys
}
