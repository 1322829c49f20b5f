package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/services"
)

// PaymentWebhook receives the provider's at-least-once callbacks. Anything
// except a malformed body is acknowledged with 200 so the provider stops
// retrying; a failed signature check leaves the reservation untouched and
// is logged for investigation.
func PaymentWebhook(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload services.WebhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		err := p.HandleNotification(c.Request.Context(), &payload)
		if err != nil && !errors.Is(err, models.ErrPaymentVerificationFailed) {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"acknowledged": true}, ""))
	}
}

// sweepRunner is satisfied by the sweeper component.
type sweepRunner interface {
	SweepOnce(ctx context.Context)
}

// SweepNow lets an operator trigger a maintenance pass outside the fixed
// schedule.
func SweepNow(s sweepRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		if actor.Role != "admin" {
			c.JSON(http.StatusForbidden, models.ErrorResponse("only admins may trigger a sweep"))
			return
		}

		s.SweepOnce(c.Request.Context())
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "sweep completed"))
	}
}
