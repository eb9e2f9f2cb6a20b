package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

type InsightRepository struct {
	db *sql.DB
}

func NewInsightRepository(db *sql.DB) repository.InsightRepository {
	return &InsightRepository{db: db}
}

func (r *InsightRepository) Create(ctx context.Context, in *domain.Insight) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO insights (id, business_id, type, niche, content, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID,
		in.BusinessID,
		string(in.Type),
		in.Niche,
		in.Content,
		in.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

func (r *InsightRepository) ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Insight, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, business_id, type, niche, content, created_at
FROM insights
WHERE business_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`,
		businessID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	insights := []domain.Insight{}
	for rows.Next() {
		var (
			in  domain.Insight
			typ string
		)
		if err := rows.Scan(&in.ID, &in.BusinessID, &typ, &in.Niche, &in.Content, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		in.Type = domain.InsightType(typ)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}
