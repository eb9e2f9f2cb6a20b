package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

const reportColumns = `id, business_id, period, data, analysis, archive_status, s3_location, error_message, created_at, archived_at`

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.ArchiveStatus == "" {
		report.ArchiveStatus = domain.ArchiveStatusPending
	}
	data, err := json.Marshal(report.Data)
	if err != nil {
		return fmt.Errorf("encode report data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO reports (`+reportColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.BusinessID,
		string(report.Period),
		string(data),
		report.Analysis,
		string(report.ArchiveStatus),
		report.S3Location,
		report.ErrorMessage,
		report.CreatedAt.UTC(),
		nullTime(report.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	return scanReport(row)
}

func (r *ReportRepository) ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+reportColumns+`
FROM reports
WHERE business_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`,
		businessID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepository) ListByArchiveStatus(ctx context.Context, status domain.ArchiveStatus) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+reportColumns+`
FROM reports
WHERE archive_status = ?
ORDER BY created_at ASC, rowid ASC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query reports by archive status: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepository) MarkArchived(ctx context.Context, id, location string, archivedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE reports
SET archive_status=?, s3_location=?, error_message='', archived_at=?
WHERE id=?`,
		string(domain.ArchiveStatusArchived),
		location,
		archivedAt.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark report archived: %w", err)
	}
	return requireAffected(res, "report")
}

func (r *ReportRepository) MarkArchiveFailed(ctx context.Context, id, message string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE reports
SET archive_status=?, error_message=?
WHERE id=?`,
		string(domain.ArchiveStatusFailed),
		message,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark report archive failed: %w", err)
	}
	return requireAffected(res, "report")
}

func collectReports(rows *sql.Rows) ([]domain.Report, error) {
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func scanReport(row scanner) (*domain.Report, error) {
	var (
		report     domain.Report
		period     string
		data       string
		status     string
		archivedAt sql.NullTime
	)
	if err := row.Scan(
		&report.ID,
		&report.BusinessID,
		&period,
		&data,
		&report.Analysis,
		&status,
		&report.S3Location,
		&report.ErrorMessage,
		&report.CreatedAt,
		&archivedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	report.Period = domain.ReportPeriod(period)
	report.ArchiveStatus = domain.ArchiveStatus(status)
	if err := json.Unmarshal([]byte(data), &report.Data); err != nil {
		return nil, fmt.Errorf("decode report data: %w", err)
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		report.ArchivedAt = &t
	}
	return &report, nil
}
