package repository

import (
	"context"

	"lead-radar/internal/domain"
)

// LeadRepository manages leads scoped to a business.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, businessID, id string, status domain.LeadStatus) error
	Delete(ctx context.Context, businessID, id string) error
	CountByBusiness(ctx context.Context, businessID string) (int64, error)
	CountByStatus(ctx context.Context, businessID string) (map[string]int64, error)
}
