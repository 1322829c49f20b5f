package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/owusuansah/campsited/internal/helpers"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps the engine's error taxonomy to HTTP statuses.
// InvalidTransition through normal flow is an integration defect, so it is
// attached to the gin context for the error-handling middleware to log.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidStay):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrInvalidTransition):
		_ = c.Error(err)
		c.JSON(http.StatusConflict, models.ErrorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
	}
}

// currentActor pulls the authenticated caller out of the request context.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userClaims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return services.Actor{}, false
	}
	claims, ok := userClaims.(*helpers.EnhancedClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
		return services.Actor{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid user ID in token"))
		return services.Actor{}, false
	}
	return services.Actor{ID: id, Role: claims.GetSafeRole(), Email: claims.Email}, true
}

func siteIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid site ID format"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func paginationParams(c *gin.Context) (offset, limit int, ok bool) {
	limitStr := c.DefaultQuery("limit", "10")
	offsetStr := c.DefaultQuery("offset", "0")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid limit parameter"))
		return 0, 0, false
	}
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid offset parameter"))
		return 0, 0, false
	}
	return offset, limit, true
}
