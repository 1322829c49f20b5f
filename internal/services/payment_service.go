package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/owusuansah/campsited/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// WebhookPayload is the at-least-once notification the payment provider
// posts back. Signature covers the other fields; see Canonical.
type WebhookPayload struct {
	OrderRef       string  `json:"order_ref" validate:"required"`
	ProviderTxnRef string  `json:"txn_ref,omitempty"`
	Status         string  `json:"status" validate:"required,oneof=paid failed"`
	Amount         float64 `json:"amount,omitempty"`
	Signature      string  `json:"signature" validate:"required"`
}

// Canonical is the string the provider signs: the payload fields in a fixed
// order, pipe-separated.
func (p *WebhookPayload) Canonical() string {
	return strings.Join([]string{
		p.OrderRef,
		p.ProviderTxnRef,
		p.Status,
		strconv.FormatFloat(p.Amount, 'f', 2, 64),
	}, "|")
}

// Sign computes the hex HMAC-SHA256 of the canonical payload. Exported for
// provider simulators and tests.
func (p *WebhookPayload) Sign(secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(p.Canonical()))
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *WebhookPayload) verify(secret string) bool {
	expected := p.Sign(secret)
	return hmac.Equal([]byte(expected), []byte(p.Signature))
}

// PaymentService is the gateway adapter: it maps external notifications
// back onto reservations and applies the payment transition idempotently.
type PaymentService struct {
	reservations  models.ReservationsRepo
	bookings      *BookingService
	webhookSecret string
	logger        *slog.Logger
}

func NewPaymentService(reservations models.ReservationsRepo, bookings *BookingService, webhookSecret string, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		reservations:  reservations,
		bookings:      bookings,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleNotification processes one provider callback. The provider retries
// until acknowledged, so every outcome other than a malformed payload is an
// ack: verification failures and unknown or already-terminal references are
// logged and swallowed, and duplicate confirmations are no-op successes.
func (ps *PaymentService) HandleNotification(ctx context.Context, payload *WebhookPayload) error {
	if err := models.Validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", models.ErrPaymentVerificationFailed, err)
	}

	if !payload.verify(ps.webhookSecret) {
		ps.logger.Error("payment notification failed signature check",
			"order_ref", payload.OrderRef,
			"txn_ref", payload.ProviderTxnRef,
		)
		return models.ErrPaymentVerificationFailed
	}

	r, err := ps.reservations.GetReservationByOrderRef(ctx, payload.OrderRef)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			ps.logger.Warn("payment notification for unknown order ref",
				"order_ref", payload.OrderRef)
			return nil
		}
		return err
	}

	switch payload.Status {
	case "paid":
		return ps.confirm(ctx, r, payload)
	case "failed":
		return ps.fail(ctx, r, payload)
	default:
		ps.logger.Warn("payment notification with unhandled status",
			"order_ref", payload.OrderRef, "status", payload.Status)
		return nil
	}
}

func (ps *PaymentService) confirm(ctx context.Context, r *models.Reservation, payload *WebhookPayload) error {
	if r.Status != models.ReservationPending {
		// Duplicate delivery or a reservation that already reached a
		// terminal state; acknowledge without side effects.
		ps.logger.Info("ignoring payment confirmation, reservation not pending",
			"reservation_id", r.ID.Hex(), "status", r.Status)
		return nil
	}

	now := time.Now()
	updated, err := ps.reservations.TransitionStatus(ctx, r.ID, models.ReservationPending, bson.M{
		"status":           models.ReservationConfirmed,
		"payment_status":   models.PaymentPaid,
		"provider_txn_ref": payload.ProviderTxnRef,
		"paid_at":          now,
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			// Lost the race to the sweeper or a second delivery; per
			// at-least-once semantics this is still an ack.
			ps.logger.Info("payment confirmation lost state race",
				"reservation_id", r.ID.Hex(), "error", err)
			return nil
		}
		return err
	}

	ps.logger.Info("reservation confirmed by payment gateway",
		"reservation_id", updated.ID.Hex(),
		"order_ref", payload.OrderRef,
		"txn_ref", payload.ProviderTxnRef,
	)
	ps.bookings.notifier.ReservationConfirmed(updated)
	return nil
}

func (ps *PaymentService) fail(ctx context.Context, r *models.Reservation, payload *WebhookPayload) error {
	if r.Status != models.ReservationPending {
		return nil
	}

	updated, err := ps.reservations.TransitionStatus(ctx, r.ID, models.ReservationPending, bson.M{
		"status":         models.ReservationCancelled,
		"payment_status": models.PaymentFailed,
		"cancellation": &models.Cancellation{
			ActorRole:   "gateway",
			Reason:      "payment failed",
			CancelledAt: time.Now(),
		},
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil
		}
		return err
	}

	ps.bookings.releaseHeld(ctx, updated)
	ps.logger.Info("reservation cancelled by payment failure",
		"reservation_id", updated.ID.Hex(),
		"order_ref", payload.OrderRef,
	)
	ps.bookings.notifier.ReservationCancelled(updated)
	return nil
}
