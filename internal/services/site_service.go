package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/owusuansah/campsited/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteService is the minimal resource surface the engine needs: hosts
// register sites with a tariff and booking rules. The full listing catalog
// lives with an external collaborator.
type SiteService struct {
	sites models.SitesRepo
}

func NewSiteService(sites models.SitesRepo) *SiteService {
	return &SiteService{sites: sites}
}

func (ss *SiteService) CreateSite(ctx context.Context, site *models.Site, hostID uuid.UUID) (*models.Site, error) {
	site.HostID = hostID
	if err := models.Validate.Struct(site); err != nil {
		return nil, fmt.Errorf("invalid site data provided: %w", err)
	}
	if site.Capacity.IsPooled() && site.Capacity.MaxConcurrent < 1 {
		return nil, fmt.Errorf("pooled capacity requires max_concurrent >= 1")
	}

	now := time.Now()
	site.Active = true
	site.Bookable = true
	site.CreatedAt = now
	site.UpdatedAt = now

	return ss.sites.CreateSite(ctx, site)
}

func (ss *SiteService) GetSiteByID(ctx context.Context, id primitive.ObjectID) (*models.Site, error) {
	return ss.sites.GetSiteByID(ctx, id)
}

func (ss *SiteService) ListSitesByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*models.Site, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("invalid offset or limit")
	}
	return ss.sites.ListSitesByHost(ctx, hostID, offset, limit)
}
