package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationRefunded  ReservationStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// ReservationEvent identifies a lifecycle transition trigger.
type ReservationEvent string

const (
	EventPaymentConfirmed ReservationEvent = "payment_confirmed"
	EventExpire           ReservationEvent = "expire"
	EventCancel           ReservationEvent = "cancel"
	EventComplete         ReservationEvent = "complete"
	EventRefund           ReservationEvent = "refund"
)

// transitions is the single authority on legal state changes. No caller
// sets status fields directly; everything goes through NextStatus plus a
// conditional write keyed on the expected current status.
var transitions = map[ReservationStatus]map[ReservationEvent]ReservationStatus{
	ReservationPending: {
		EventPaymentConfirmed: ReservationConfirmed,
		EventExpire:           ReservationCancelled,
		EventCancel:           ReservationCancelled,
	},
	ReservationConfirmed: {
		EventCancel:   ReservationCancelled,
		EventComplete: ReservationCompleted,
	},
	ReservationCancelled: {
		EventRefund: ReservationRefunded,
	},
	ReservationCompleted: {
		EventRefund: ReservationRefunded,
	},
}

// NextStatus returns the state a reservation moves to when event fires in
// the current state, or ErrInvalidTransition if the move is not in the
// transition table.
func NextStatus(current ReservationStatus, event ReservationEvent) (ReservationStatus, error) {
	if next, ok := transitions[current][event]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, current)
}

// IsTerminal reports whether the status no longer occupies calendar
// capacity and accepts no further lifecycle events except refund.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationCancelled, ReservationCompleted, ReservationRefunded:
		return true
	}
	return false
}

// PriceBreakdown is the itemized charge computed once at booking time and
// frozen on the reservation. Every line is rounded to the currency's minor
// unit, and Total is the exact sum of the rounded lines so the stored value
// is independently reproducible.
type PriceBreakdown struct {
	Currency      string  `bson:"currency" json:"currency"`
	Nights        int     `bson:"nights" json:"nights"`
	Subtotal      float64 `bson:"subtotal" json:"subtotal"`
	Discount      float64 `bson:"discount" json:"discount"`
	CleaningFee   float64 `bson:"cleaning_fee" json:"cleaning_fee"`
	ExtraGuestFee float64 `bson:"extra_guest_fee" json:"extra_guest_fee"`
	PetFee        float64 `bson:"pet_fee" json:"pet_fee"`
	VehicleFee    float64 `bson:"vehicle_fee" json:"vehicle_fee"`
	ServiceFee    float64 `bson:"service_fee" json:"service_fee"`
	Tax           float64 `bson:"tax" json:"tax"`
	Total         float64 `bson:"total" json:"total"`
}

// Cancellation is the append-only metadata block set when a reservation is
// cancelled. RefundAmount is what the cancellation policy grants, not what
// has been paid out; payout is recorded by the refund transition.
type Cancellation struct {
	ActorID      uuid.UUID `bson:"actor_id" json:"actor_id"`
	ActorRole    string    `bson:"actor_role" json:"actor_role"`
	Reason       string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CancelledAt  time.Time `bson:"cancelled_at" json:"cancelled_at"`
	RefundAmount float64   `bson:"refund_amount" json:"refund_amount"`
}

// Reservation is a booking of a site for a half-open date range
// [CheckIn, CheckOut). It is never deleted; cancellation and refund are
// represented as state.
type Reservation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SiteID    primitive.ObjectID `bson:"site_id" json:"site_id"`
	ListingID uuid.UUID          `bson:"listing_id" json:"listing_id"`
	GuestID   uuid.UUID          `bson:"guest_id" json:"guest_id"`
	// GuestEmail is captured at booking time for transition notifications.
	GuestEmail string    `bson:"guest_email,omitempty" json:"guest_email,omitempty"`
	HostID     uuid.UUID `bson:"host_id" json:"host_id"`

	CheckIn  time.Time `bson:"check_in" json:"check_in"`
	CheckOut time.Time `bson:"check_out" json:"check_out"`
	Nights   int       `bson:"nights" json:"nights"`
	// HeldDates is the frozen set of calendar dates this reservation
	// claimed, including the preparation buffer.
	HeldDates []string `bson:"held_dates" json:"-"`

	Guests   int `bson:"guests" json:"guests"`
	Pets     int `bson:"pets" json:"pets"`
	Vehicles int `bson:"vehicles" json:"vehicles"`

	Price PriceBreakdown `bson:"price" json:"price"`

	Status        ReservationStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus     `bson:"payment_status" json:"payment_status"`
	// OrderRef is the reference handed to the payment provider; incoming
	// gateway notifications are mapped back through it.
	OrderRef       string     `bson:"order_ref" json:"order_ref"`
	ProviderTxnRef string     `bson:"provider_txn_ref,omitempty" json:"provider_txn_ref,omitempty"`
	PaidAt         *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`

	Cancellation   *Cancellation `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	RefundedAmount float64       `bson:"refunded_amount,omitempty" json:"refunded_amount,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (r *Reservation) BeforeCreate() error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.OrderRef == "" {
		r.OrderRef = "cmp-" + uuid.New().String()
	}
	return nil
}

// Occupying reports whether the reservation still holds its calendar dates.
func (r *Reservation) Occupying() bool {
	return r.Status == ReservationPending || r.Status == ReservationConfirmed
}
