package repository

import (
	"context"

	"lead-radar/internal/domain"
)

type InsightRepository interface {
	Create(ctx context.Context, insight *domain.Insight) error
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Insight, error)
}
