package repository

import (
	"context"

	"lead-radar/internal/domain"
)

// CampaignRepository manages campaigns scoped to a business.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	Get(ctx context.Context, businessID, id string) (*domain.Campaign, error)
	ListByBusiness(ctx context.Context, businessID string) ([]domain.Campaign, error)
	Update(ctx context.Context, campaign *domain.Campaign) error
	Delete(ctx context.Context, businessID, id string) error
	CountByBusiness(ctx context.Context, businessID string) (int64, error)
}
