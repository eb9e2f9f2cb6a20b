package repository

import (
	"context"

	"lead-radar/internal/domain"
)

// BusinessRepository persists the business owned by each user.
type BusinessRepository interface {
	Create(ctx context.Context, business *domain.Business) error
	GetByUserID(ctx context.Context, userID string) (*domain.Business, error)
	Update(ctx context.Context, business *domain.Business) error
}
