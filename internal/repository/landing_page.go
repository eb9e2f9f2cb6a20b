package repository

import (
	"context"

	"lead-radar/internal/domain"
)

// LandingPageRepository manages landing pages and their traffic counters.
type LandingPageRepository interface {
	Create(ctx context.Context, page *domain.LandingPage) error
	Get(ctx context.Context, businessID, id string) (*domain.LandingPage, error)
	GetBySlug(ctx context.Context, slug string) (*domain.LandingPage, error)
	ListByBusiness(ctx context.Context, businessID string) ([]domain.LandingPage, error)
	Update(ctx context.Context, page *domain.LandingPage) error
	Delete(ctx context.Context, businessID, id string) error
	// IncrementVisits and IncrementConversions are atomic at the store level.
	IncrementVisits(ctx context.Context, slug string) error
	IncrementConversions(ctx context.Context, slug string) error
}
