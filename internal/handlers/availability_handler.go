package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/services"
)

func dateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(key+" is required"))
		return time.Time{}, false
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+key+", expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return d, true
}

func countQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.DefaultQuery(key, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+key+" parameter"))
		return 0, false
	}
	return n, true
}

func CheckAvailability(a *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		siteID, ok := siteIDParam(c)
		if !ok {
			return
		}
		checkIn, ok := dateQuery(c, "check_in")
		if !ok {
			return
		}
		checkOut, ok := dateQuery(c, "check_out")
		if !ok {
			return
		}

		available, err := a.CheckAvailability(c.Request.Context(), siteID, checkIn, checkOut)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"available": available}, ""))
	}
}

func BlockedDates(a *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		siteID, ok := siteIDParam(c)
		if !ok {
			return
		}
		from, ok := dateQuery(c, "from")
		if !ok {
			return
		}
		to, ok := dateQuery(c, "to")
		if !ok {
			return
		}

		blocked, err := a.BlockedDates(c.Request.Context(), siteID, from, to)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"blocked_dates": blocked}, ""))
	}
}

func GroupAvailability(a *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		siteID, ok := siteIDParam(c)
		if !ok {
			return
		}
		checkIn, ok := dateQuery(c, "check_in")
		if !ok {
			return
		}
		checkOut, ok := dateQuery(c, "check_out")
		if !ok {
			return
		}

		result, err := a.GroupAvailability(c.Request.Context(), siteID, checkIn, checkOut)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(result, ""))
	}
}

func QuotePrice(a *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		siteID, ok := siteIDParam(c)
		if !ok {
			return
		}
		checkIn, ok := dateQuery(c, "check_in")
		if !ok {
			return
		}
		checkOut, ok := dateQuery(c, "check_out")
		if !ok {
			return
		}
		guests, ok := countQuery(c, "guests", 1)
		if !ok {
			return
		}
		pets, ok := countQuery(c, "pets", 0)
		if !ok {
			return
		}
		vehicles, ok := countQuery(c, "vehicles", 0)
		if !ok {
			return
		}

		breakdown, err := a.Quote(c.Request.Context(), siteID, checkIn, checkOut, guests, pets, vehicles)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(breakdown, ""))
	}
}
