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

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) repository.CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO campaigns (id, business_id, name, type, description, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.BusinessID,
		c.Name,
		c.Type,
		c.Description,
		string(c.Status),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) ListByBusiness(ctx context.Context, businessID string) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, business_id, name, type, description, status, created_at, updated_at
FROM campaigns
WHERE business_id = ?
ORDER BY created_at DESC, rowid DESC`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) Get(ctx context.Context, businessID, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, business_id, name, type, description, status, created_at, updated_at
FROM campaigns
WHERE id = ? AND business_id = ?`,
		id,
		businessID,
	)
	return scanCampaign(row)
}

func scanCampaign(row scanner) (*domain.Campaign, error) {
	var (
		c      domain.Campaign
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.BusinessID,
		&c.Name,
		&c.Type,
		&c.Description,
		&status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("campaign: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan campaign: %w", err)
	}
	c.Status = domain.CampaignStatus(status)
	return &c, nil
}

func (r *CampaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE campaigns
SET name=?, type=?, description=?, status=?, updated_at=?
WHERE id=? AND business_id=?`,
		c.Name,
		c.Type,
		c.Description,
		string(c.Status),
		c.UpdatedAt,
		c.ID,
		c.BusinessID,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return requireAffected(res, "campaign")
}

func (r *CampaignRepository) Delete(ctx context.Context, businessID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id=? AND business_id=?`, id, businessID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return requireAffected(res, "campaign")
}

func (r *CampaignRepository) CountByBusiness(ctx context.Context, businessID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns WHERE business_id = ?`, businessID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return n, nil
}
