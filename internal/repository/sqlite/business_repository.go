package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

type BusinessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) repository.BusinessRepository {
	return &BusinessRepository{db: db}
}

// Create inserts the business. The one-business-per-user rule is the
// UNIQUE(user_id) constraint, reported as repository.ErrDuplicate.
func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO businesses (id, user_id, name, niche, description, city, state, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.Name,
		b.Niche,
		b.Description,
		b.City,
		b.State,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert business: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

func (r *BusinessRepository) GetByUserID(ctx context.Context, userID string) (*domain.Business, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, niche, description, city, state, created_at, updated_at
FROM businesses
WHERE user_id = ?`,
		userID,
	)

	var b domain.Business
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.Niche,
		&b.Description,
		&b.City,
		&b.State,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("business: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}
	return &b, nil
}

func (r *BusinessRepository) Update(ctx context.Context, b *domain.Business) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE businesses
SET name=?, niche=?, description=?, city=?, state=?, updated_at=?
WHERE user_id=?`,
		b.Name,
		b.Niche,
		b.Description,
		b.City,
		b.State,
		b.UpdatedAt,
		b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	return requireAffected(res, "business")
}
