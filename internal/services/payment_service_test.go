package services

import (
	"context"
	"errors"
	"testing"

	"github.com/owusuansah/campsited/internal/models"
)

const testWebhookSecret = "webhook-test-secret"

func newPaymentFixture(site *models.Site) (*PaymentService, *bookingFixture) {
	f := newBookingFixture(site)
	ps := NewPaymentService(f.reservations, f.svc, testWebhookSecret, testLogger())
	return ps, f
}

func signedPayload(orderRef, status string, amount float64) *WebhookPayload {
	p := &WebhookPayload{
		OrderRef:       orderRef,
		ProviderTxnRef: "txn-001",
		Status:         status,
		Amount:         amount,
	}
	p.Signature = p.Sign(testWebhookSecret)
	return p
}

func TestHandleNotificationConfirms(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	ps, f := newPaymentFixture(site)
	r := seedReservation(t, f, site, 10, models.ReservationPending, models.PaymentPending)

	payload := signedPayload(r.OrderRef, "paid", r.Price.Total)
	if err := ps.HandleNotification(context.Background(), payload); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	got, err := f.reservations.GetReservationByID(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if got.Status != models.ReservationConfirmed {
		t.Errorf("status = %s, want %s", got.Status, models.ReservationConfirmed)
	}
	if got.PaymentStatus != models.PaymentPaid {
		t.Errorf("payment status = %s, want %s", got.PaymentStatus, models.PaymentPaid)
	}
	if got.ProviderTxnRef != "txn-001" {
		t.Errorf("txn ref = %q, want txn-001", got.ProviderTxnRef)
	}
	if got.PaidAt == nil {
		t.Error("paid_at not recorded")
	}
	if f.notifier.confirmed != 1 {
		t.Errorf("confirmed notifications = %d, want 1", f.notifier.confirmed)
	}
}

func TestHandleNotificationDuplicateDelivery(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	ps, f := newPaymentFixture(site)
	r := seedReservation(t, f, site, 10, models.ReservationPending, models.PaymentPending)

	payload := signedPayload(r.OrderRef, "paid", r.Price.Total)
	if err := ps.HandleNotification(context.Background(), payload); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// The provider retries; the second delivery must ack without effects.
	if err := ps.HandleNotification(context.Background(), payload); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if f.notifier.confirmed != 1 {
		t.Errorf("confirmed notifications = %d, want 1", f.notifier.confirmed)
	}
}

func TestHandleNotificationBadSignature(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	ps, f := newPaymentFixture(site)
	r := seedReservation(t, f, site, 10, models.ReservationPending, models.PaymentPending)

	payload := signedPayload(r.OrderRef, "paid", r.Price.Total)
	payload.Amount = payload.Amount + 50 // tampered after signing

	err := ps.HandleNotification(context.Background(), payload)
	if !errors.Is(err, models.ErrPaymentVerificationFailed) {
		t.Fatalf("err = %v, want ErrPaymentVerificationFailed", err)
	}

	got, _ := f.reservations.GetReservationByID(context.Background(), r.ID)
	if got.Status != models.ReservationPending {
		t.Errorf("status = %s, want %s untouched", got.Status, models.ReservationPending)
	}
}

func TestHandleNotificationUnknownOrderRef(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	ps, _ := newPaymentFixture(site)

	payload := signedPayload("cmp-does-not-exist", "paid", 100)
	if err := ps.HandleNotification(context.Background(), payload); err != nil {
		t.Fatalf("unknown order ref must still ack, got %v", err)
	}
}

func TestHandleNotificationPaymentFailed(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	ps, f := newPaymentFixture(site)
	r := seedReservation(t, f, site, 10, models.ReservationPending, models.PaymentPending)

	payload := signedPayload(r.OrderRef, "failed", r.Price.Total)
	if err := ps.HandleNotification(context.Background(), payload); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	got, _ := f.reservations.GetReservationByID(context.Background(), r.ID)
	if got.Status != models.ReservationCancelled {
		t.Errorf("status = %s, want %s", got.Status, models.ReservationCancelled)
	}
	if got.PaymentStatus != models.PaymentFailed {
		t.Errorf("payment status = %s, want %s", got.PaymentStatus, models.PaymentFailed)
	}
	if got.Cancellation == nil || got.Cancellation.ActorRole != "gateway" {
		t.Errorf("cancellation = %+v, want gateway actor", got.Cancellation)
	}
	if f.calendar.releases != 1 {
		t.Errorf("calendar releases = %d, want 1", f.calendar.releases)
	}
	if f.notifier.cancelled != 1 {
		t.Errorf("cancelled notifications = %d, want 1", f.notifier.cancelled)
	}
}

func TestHandleNotificationConfirmAfterExpiry(t *testing.T) {
	site := testSite(models.CapacityMode{Kind: models.CapacityExclusive})
	ps, f := newPaymentFixture(site)
	r := seedReservation(t, f, site, 10, models.ReservationCancelled, models.PaymentFailed)

	// A late confirmation for an already-expired reservation is acked
	// without resurrecting it.
	payload := signedPayload(r.OrderRef, "paid", r.Price.Total)
	if err := ps.HandleNotification(context.Background(), payload); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}

	got, _ := f.reservations.GetReservationByID(context.Background(), r.ID)
	if got.Status != models.ReservationCancelled {
		t.Errorf("status = %s, want %s untouched", got.Status, models.ReservationCancelled)
	}
	if f.notifier.confirmed != 0 {
		t.Errorf("confirmed notifications = %d, want 0", f.notifier.confirmed)
	}
}

func TestWebhookPayloadCanonical(t *testing.T) {
	p := &WebhookPayload{OrderRef: "cmp-abc", ProviderTxnRef: "txn-9", Status: "paid", Amount: 356.4}
	if got, want := p.Canonical(), "cmp-abc|txn-9|paid|356.40"; got != want {
		t.Errorf("Canonical() = %q, want %q", got, want)
	}
}
