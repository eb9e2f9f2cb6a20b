package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) repository.LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO leads (id, business_id, name, email, phone, interest, source, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID,
		lead.BusinessID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Interest,
		lead.Source,
		string(lead.Status),
		lead.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// ListByBusiness returns leads newest first. A limit <= 0 returns all of them.
func (r *LeadRepository) ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, business_id, name, email, phone, interest, source, status, created_at
FROM leads
WHERE business_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`,
		businessID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := []domain.Lead{}
	for rows.Next() {
		var (
			lead   domain.Lead
			status string
		)
		if err := rows.Scan(
			&lead.ID,
			&lead.BusinessID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.Interest,
			&lead.Source,
			&status,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		lead.Status = domain.LeadStatus(status)
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, businessID, id string, status domain.LeadStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE leads
SET status=?
WHERE id=? AND business_id=?`,
		string(status),
		id,
		businessID,
	)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return requireAffected(res, "lead")
}

func (r *LeadRepository) Delete(ctx context.Context, businessID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id=? AND business_id=?`, id, businessID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return requireAffected(res, "lead")
}

func (r *LeadRepository) CountByBusiness(ctx context.Context, businessID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE business_id = ?`, businessID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (r *LeadRepository) CountByStatus(ctx context.Context, businessID string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT status, COUNT(*)
FROM leads
WHERE business_id = ?
GROUP BY status`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("count leads by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan lead status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
