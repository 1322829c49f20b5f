package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func CreateReservation(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}

		var req services.CreateReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		reservation, err := b.CreateReservation(c.Request.Context(), &req, actor.ID, actor.Email)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(reservation, "Reservation created, awaiting payment"))
	}
}

func GetReservation(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid reservation ID format"))
			return
		}

		reservation, err := b.GetReservation(c.Request.Context(), id, actor)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(reservation, ""))
	}
}

func ListReservations(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		offset, limit, ok := paginationParams(c)
		if !ok {
			return
		}

		var (
			reservations []*models.Reservation
			total        int
			err          error
		)
		if c.Query("role") == "host" {
			reservations, total, err = b.ListReservationsByHost(c.Request.Context(), actor.ID, offset, limit)
		} else {
			reservations, total, err = b.ListReservationsByGuest(c.Request.Context(), actor.ID, offset, limit)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		page := (offset / limit) + 1
		c.JSON(http.StatusOK, models.PaginatedResponse(reservations, page, limit, total))
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func CancelReservation(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid reservation ID format"))
			return
		}

		var req cancelRequest
		_ = c.ShouldBindJSON(&req)

		reservation, err := b.CancelReservation(c.Request.Context(), id, actor, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(reservation, "Reservation cancelled"))
	}
}

type refundRequest struct {
	Amount float64 `json:"amount"`
}

func RefundReservation(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid reservation ID format"))
			return
		}

		var req refundRequest
		_ = c.ShouldBindJSON(&req)

		reservation, err := b.MarkRefunded(c.Request.Context(), id, actor, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(reservation, "Refund recorded"))
	}
}
