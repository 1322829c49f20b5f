package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/owusuansah/campsited/internal/models"
	"github.com/owusuansah/campsited/internal/services"
)

func CreateSiteHandler(s *services.SiteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		if actor.Role != "host" && actor.Role != "admin" {
			c.JSON(http.StatusForbidden, models.ErrorResponse("only users with host role can create sites"))
			return
		}

		var site models.Site
		if err := c.ShouldBindJSON(&site); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		created, err := s.CreateSite(c.Request.Context(), &site, actor.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Site created successfully"))
	}
}

func GetSite(s *services.SiteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		siteID, ok := siteIDParam(c)
		if !ok {
			return
		}

		site, err := s.GetSiteByID(c.Request.Context(), siteID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(site, ""))
	}
}

func ListSitesByHost(s *services.SiteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		offset, limit, ok := paginationParams(c)
		if !ok {
			return
		}

		sites, total, err := s.ListSitesByHost(c.Request.Context(), actor.ID, offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}

		page := (offset / limit) + 1
		c.JSON(http.StatusOK, models.PaginatedResponse(sites, page, limit, total))
	}
}
