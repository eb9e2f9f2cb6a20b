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

const landingPageColumns = `id, business_id, title, headline, description, offer, cta_text, slug, visits, conversions, created_at, updated_at`

type LandingPageRepository struct {
	db *sql.DB
}

func NewLandingPageRepository(db *sql.DB) repository.LandingPageRepository {
	return &LandingPageRepository{db: db}
}

func (r *LandingPageRepository) Create(ctx context.Context, p *domain.LandingPage) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO landing_pages (`+landingPageColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.BusinessID,
		p.Title,
		p.Headline,
		p.Description,
		p.Offer,
		p.CTAText,
		p.Slug,
		p.Visits,
		p.Conversions,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert landing page: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert landing page: %w", err)
	}
	return nil
}

func (r *LandingPageRepository) Get(ctx context.Context, businessID, id string) (*domain.LandingPage, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+landingPageColumns+`
FROM landing_pages
WHERE id = ? AND business_id = ?`,
		id,
		businessID,
	)
	return scanLandingPage(row)
}

func (r *LandingPageRepository) GetBySlug(ctx context.Context, slug string) (*domain.LandingPage, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+landingPageColumns+`
FROM landing_pages
WHERE slug = ?`,
		slug,
	)
	return scanLandingPage(row)
}

func (r *LandingPageRepository) ListByBusiness(ctx context.Context, businessID string) ([]domain.LandingPage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+landingPageColumns+`
FROM landing_pages
WHERE business_id = ?
ORDER BY created_at DESC, rowid DESC`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("query landing pages: %w", err)
	}
	defer rows.Close()

	pages := []domain.LandingPage{}
	for rows.Next() {
		p, err := scanLandingPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func (r *LandingPageRepository) Update(ctx context.Context, p *domain.LandingPage) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE landing_pages
SET title=?, headline=?, description=?, offer=?, cta_text=?, updated_at=?
WHERE id=? AND business_id=?`,
		p.Title,
		p.Headline,
		p.Description,
		p.Offer,
		p.CTAText,
		p.UpdatedAt,
		p.ID,
		p.BusinessID,
	)
	if err != nil {
		return fmt.Errorf("update landing page: %w", err)
	}
	return requireAffected(res, "landing page")
}

func (r *LandingPageRepository) Delete(ctx context.Context, businessID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM landing_pages WHERE id=? AND business_id=?`, id, businessID)
	if err != nil {
		return fmt.Errorf("delete landing page: %w", err)
	}
	return requireAffected(res, "landing page")
}

func (r *LandingPageRepository) IncrementVisits(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE landing_pages SET visits = visits + 1 WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("increment visits: %w", err)
	}
	return requireAffected(res, "landing page")
}

func (r *LandingPageRepository) IncrementConversions(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE landing_pages SET conversions = conversions + 1 WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("increment conversions: %w", err)
	}
	return requireAffected(res, "landing page")
}

func scanLandingPage(row scanner) (*domain.LandingPage, error) {
	var p domain.LandingPage
	if err := row.Scan(
		&p.ID,
		&p.BusinessID,
		&p.Title,
		&p.Headline,
		&p.Description,
		&p.Offer,
		&p.CTAText,
		&p.Slug,
		&p.Visits,
		&p.Conversions,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("landing page: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan landing page: %w", err)
	}
	return &p, nil
}
