package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/owusuansah/campsited/internal/container"
	"github.com/owusuansah/campsited/internal/handlers"
	"github.com/owusuansah/campsited/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	// Set Gin mode for production
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "campsited-api",
			})
		})

		// Public read surface: availability and price quotes need no auth.
		v1.GET("/sites/:id", handlers.GetSite(container.SiteService))
		v1.GET("/sites/:id/availability", handlers.CheckAvailability(container.AvailabilityService))
		v1.GET("/sites/:id/blocked-dates", handlers.BlockedDates(container.AvailabilityService))
		v1.GET("/sites/:id/group-availability", handlers.GroupAvailability(container.AvailabilityService))
		v1.GET("/sites/:id/quote", handlers.QuotePrice(container.AvailabilityService))

		// Payment provider callback: authenticated by payload signature,
		// not by a user token.
		v1.POST("/payments/webhook", handlers.PaymentWebhook(container.PaymentService))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Config.JWTSecret, container.Logger))

	siteRoutes := protected.Group("/sites")
	{
		siteRoutes.POST("/", handlers.CreateSiteHandler(container.SiteService))
		siteRoutes.GET("/mine", handlers.ListSitesByHost(container.SiteService))
	}

	reservationRoutes := protected.Group("/reservations")
	{
		reservationRoutes.POST("/", handlers.CreateReservation(container.BookingService))
		reservationRoutes.GET("/", handlers.ListReservations(container.BookingService))
		reservationRoutes.GET("/:id", handlers.GetReservation(container.BookingService))
		reservationRoutes.POST("/:id/cancel", handlers.CancelReservation(container.BookingService))
		reservationRoutes.POST("/:id/refund", handlers.RefundReservation(container.BookingService))
	}

	internalRoutes := protected.Group("/internal")
	{
		internalRoutes.POST("/sweep", handlers.SweepNow(container.Sweeper))
	}

	return r
}
