package container

import (
	"log/slog"

	"github.com/owusuansah/campsited/internal/config"
	"github.com/owusuansah/campsited/internal/email"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/pricing"
	"github.com/owusuansah/campsited/internal/services"
	"github.com/owusuansah/campsited/internal/sweeper"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger        *slog.Logger
	Config        *config.Config
	MongoDBClient *mongo.Client

	SiteService         *services.SiteService
	AvailabilityService *services.AvailabilityService
	BookingService      *services.BookingService
	PaymentService      *services.PaymentService
	Sweeper             *sweeper.Sweeper
}

// NewContainer creates a new dependency injection container
func NewContainer(logger *slog.Logger, cfg *config.Config, mongoDBClient *mongo.Client) *Container {
	// Initialize repositories
	mongo := models.MongodbNewRepo(mongoDBClient)

	policy := pricing.Policy{
		ServiceFeePercent: cfg.ServiceFeePercent,
		TaxPercent:        cfg.TaxPercent,
	}

	notifier := email.NewNotifier(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
		cfg.SMTPFromName, cfg.SMTPFromEmail, logger,
	)

	siteService := services.NewSiteService(mongo)
	availabilityService := services.NewAvailabilityService(mongo, mongo, policy)
	bookingService := services.NewBookingService(mongo, mongo, mongo, policy, cfg.PaymentDeadline, notifier, logger)
	paymentService := services.NewPaymentService(mongo, bookingService, cfg.PaymentWebhookSecret, logger)
	reservationSweeper := sweeper.NewSweeper(bookingService, cfg.SweepInterval, logger)

	return &Container{
		Logger:              logger,
		Config:              cfg,
		MongoDBClient:       mongoDBClient,
		SiteService:         siteService,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		PaymentService:      paymentService,
		Sweeper:             reservationSweeper,
	}
}
