package repository

import (
	"context"
	"time"

	"lead-radar/internal/domain"
)

// ReportRepository persists generated reports and their archive state.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	Get(ctx context.Context, id string) (*domain.Report, error)
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Report, error)
	ListByArchiveStatus(ctx context.Context, status domain.ArchiveStatus) ([]domain.Report, error)
	MarkArchived(ctx context.Context, id, location string, archivedAt time.Time) error
	MarkArchiveFailed(ctx context.Context, id, message string) error
}
