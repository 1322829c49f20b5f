// Package email is the notification collaborator: transactional mails sent
// on reservation transitions. Delivery is fire-and-forget; a failed send is
// logged and never affects the transition that triggered it.
package email

import (
	"fmt"
	"log/slog"

	"github.com/owusuansah/campsited/internal/models"
	"github.com/wneessen/go-mail"
)

type Notifier struct {
	host      string
	port      int
	user      string
	password  string
	fromName  string
	fromEmail string
	logger    *slog.Logger
	enabled   bool
}

// NewNotifier builds the SMTP notifier. An empty host disables sending
// entirely, which keeps local development quiet.
func NewNotifier(host string, port int, user, password, fromName, fromEmail string, logger *slog.Logger) *Notifier {
	return &Notifier{
		host:      host,
		port:      port,
		user:      user,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
		logger:    logger,
		enabled:   host != "",
	}
}

func (n *Notifier) ReservationCreated(r *models.Reservation) {
	subject := "Your campsite booking is awaiting payment"
	body := fmt.Sprintf(
		"<p>We are holding your site from <b>%s</b> to <b>%s</b> (%d nights).</p>"+
			"<p>Total: %.2f %s. Complete payment to confirm the booking; unpaid holds are released automatically.</p>",
		models.DateKey(r.CheckIn), models.DateKey(r.CheckOut), r.Nights,
		r.Price.Total, r.Price.Currency,
	)
	n.send(r.GuestEmail, subject, body)
}

func (n *Notifier) ReservationConfirmed(r *models.Reservation) {
	subject := "Booking confirmed"
	body := fmt.Sprintf(
		"<p>Payment received — your stay from <b>%s</b> to <b>%s</b> is confirmed.</p>"+
			"<p>Reference: %s</p>",
		models.DateKey(r.CheckIn), models.DateKey(r.CheckOut), r.OrderRef,
	)
	n.send(r.GuestEmail, subject, body)
}

func (n *Notifier) ReservationCancelled(r *models.Reservation) {
	subject := "Booking cancelled"
	refund := 0.0
	if r.Cancellation != nil {
		refund = r.Cancellation.RefundAmount
	}
	body := fmt.Sprintf(
		"<p>Your booking from <b>%s</b> to <b>%s</b> has been cancelled.</p>"+
			"<p>Refund due: %.2f %s.</p>",
		models.DateKey(r.CheckIn), models.DateKey(r.CheckOut),
		refund, r.Price.Currency,
	)
	n.send(r.GuestEmail, subject, body)
}

func (n *Notifier) send(to, subject, htmlBody string) {
	if !n.enabled || to == "" {
		return
	}

	go func() {
		m := mail.NewMsg()
		if err := m.From(fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)); err != nil {
			n.logger.Error("failed to set mail sender", "error", err)
			return
		}
		if err := m.To(to); err != nil {
			n.logger.Error("failed to set mail recipient", "error", err)
			return
		}
		m.Subject(subject)
		m.SetBodyString(mail.TypeTextHTML, htmlBody)

		client, err := mail.NewClient(n.host,
			mail.WithPort(n.port),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.user),
			mail.WithPassword(n.password),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
		if err != nil {
			n.logger.Error("failed to create SMTP client", "host", n.host, "error", err)
			return
		}

		if err := client.DialAndSend(m); err != nil {
			n.logger.Error("failed to send notification mail", "subject", subject, "error", err)
		}
	}()
}
