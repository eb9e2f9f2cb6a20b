package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
	"lead-radar/internal/storage"
)

const (
	msgReportNotFound    = "report not found"
	msgReportNotArchived = "report archive is not available yet"
	reportHistoryLimit   = 10
	recentLeadsLimit     = 5
	downloadURLExpiry    = 15 * time.Minute
)

// ReportArchiver queues generated reports for upload to object storage.
type ReportArchiver interface {
	Enqueue(ctx context.Context, reportID string) error
}

// ReportService builds dashboards and executive reports.
type ReportService interface {
	Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error)
	Generate(ctx context.Context, userID string, period domain.ReportPeriod) (*domain.Report, error)
	History(ctx context.Context, userID string) ([]domain.Report, error)
	DownloadURL(ctx context.Context, userID, reportID string) (string, error)
	// Archives lists the report objects stored for the caller's business.
	Archives(ctx context.Context, userID string) ([]storage.ObjectInfo, error)
}

// ReportDeps groups the collaborators of the report service. Archiver and
// Storage are optional; without them reports stay pending and cannot be downloaded.
type ReportDeps struct {
	Businesses repository.BusinessRepository
	Leads      repository.LeadRepository
	Campaigns  repository.CampaignRepository
	Pages      repository.LandingPageRepository
	Reports    repository.ReportRepository
	Assistant  Assistant
	Archiver   ReportArchiver
	Storage    storage.Service
	Bucket     string
	KeyPrefix  string
	Logger     *logrus.Logger
}

type reportService struct {
	deps ReportDeps
}

func NewReportService(deps ReportDeps) ReportService {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	return &reportService{deps: deps}
}

func (s *reportService) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	business, err := requireBusiness(ctx, s.deps.Businesses, userID)
	if err != nil {
		return nil, err
	}
	return s.dashboard(ctx, business.ID)
}

func (s *reportService) dashboard(ctx context.Context, businessID string) (*domain.Dashboard, error) {
	totalLeads, err := s.deps.Leads.CountByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	totalCampaigns, err := s.deps.Campaigns.CountByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	pages, err := s.deps.Pages.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	recent, err := s.deps.Leads.ListByBusiness(ctx, businessID, recentLeadsLimit)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.deps.Leads.CountByStatus(ctx, businessID)
	if err != nil {
		return nil, err
	}

	d := &domain.Dashboard{
		RecentLeads:      make([]domain.LeadSummary, 0, len(recent)),
		LeadsByStatus:    byStatus,
		PagesPerformance: make([]domain.PagePerformance, 0, len(pages)),
	}
	d.Overview.TotalLeads = totalLeads
	d.Overview.TotalCampaigns = totalCampaigns
	d.Overview.TotalPages = int64(len(pages))
	for _, p := range pages {
		d.Overview.TotalVisits += p.Visits
		d.Overview.TotalConversions += p.Conversions
		d.PagesPerformance = append(d.PagesPerformance, domain.PagePerformance{
			Title:       p.Title,
			Visits:      p.Visits,
			Conversions: p.Conversions,
		})
	}
	d.Overview.ConversionRate = conversionRate(d.Overview.TotalConversions, d.Overview.TotalVisits)
	for _, l := range recent {
		d.RecentLeads = append(d.RecentLeads, domain.LeadSummary{
			ID:        l.ID,
			Name:      l.Name,
			Email:     l.Email,
			Phone:     l.Phone,
			Source:    l.Source,
			Status:    string(l.Status),
			CreatedAt: l.CreatedAt,
		})
	}
	if d.LeadsByStatus == nil {
		d.LeadsByStatus = map[string]int64{}
	}
	return d, nil
}

// conversionRate is conversions per visit as a percentage rounded to two decimals.
func conversionRate(conversions, visits int64) float64 {
	if visits <= 0 {
		return 0
	}
	return math.Round(float64(conversions)/float64(visits)*100*100) / 100
}

func (s *reportService) Generate(ctx context.Context, userID string, period domain.ReportPeriod) (*domain.Report, error) {
	if period == "" {
		period = domain.ReportPeriodWeekly
	}
	if !period.Valid() {
		return nil, domain.NewValidation("invalid report request", map[string]string{
			"period": "must be one of daily, weekly, monthly",
		})
	}
	business, err := requireBusiness(ctx, s.deps.Businesses, userID)
	if err != nil {
		return nil, err
	}
	dashboard, err := s.dashboard(ctx, business.ID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.deps.Assistant.ExecutiveReport(ctx, period, business.Niche, dashboard.Overview)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		ID:            uuid.NewString(),
		BusinessID:    business.ID,
		Period:        period,
		Data:          *dashboard,
		Analysis:      analysis,
		ArchiveStatus: domain.ArchiveStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.deps.Reports.Create(ctx, report); err != nil {
		return nil, err
	}

	if s.deps.Archiver != nil {
		if err := s.deps.Archiver.Enqueue(ctx, report.ID); err != nil {
			// Resume picks the report up again on the next start.
			s.deps.Logger.WithField("report_id", report.ID).Warnf("queue report archive: %v", err)
		}
	}
	return report, nil
}

func (s *reportService) History(ctx context.Context, userID string) ([]domain.Report, error) {
	business, err := requireBusiness(ctx, s.deps.Businesses, userID)
	if err != nil {
		return nil, err
	}
	return s.deps.Reports.ListByBusiness(ctx, business.ID, reportHistoryLimit)
}

func (s *reportService) DownloadURL(ctx context.Context, userID, reportID string) (string, error) {
	business, err := requireBusiness(ctx, s.deps.Businesses, userID)
	if err != nil {
		return "", err
	}
	report, err := s.deps.Reports.Get(ctx, reportID)
	if err != nil {
		return "", notFoundAs(err, msgReportNotFound)
	}
	if report.BusinessID != business.ID {
		return "", domain.NewNotFound(msgReportNotFound)
	}
	if report.ArchiveStatus != domain.ArchiveStatusArchived || s.deps.Storage == nil {
		return "", domain.NewNotFound(msgReportNotArchived)
	}
	bucket, key, ok := storage.ParseLocation(report.S3Location)
	if !ok {
		return "", errors.New("archived report has a malformed location")
	}
	return s.deps.Storage.GetObjectURL(ctx, bucket, key, downloadURLExpiry)
}

func (s *reportService) Archives(ctx context.Context, userID string) ([]storage.ObjectInfo, error) {
	business, err := requireBusiness(ctx, s.deps.Businesses, userID)
	if err != nil {
		return nil, err
	}
	if s.deps.Storage == nil || s.deps.Bucket == "" {
		return []storage.ObjectInfo{}, nil
	}
	objects, err := s.deps.Storage.ListObjects(ctx, s.deps.Bucket, storage.BusinessPrefix(s.deps.KeyPrefix, business.ID))
	if err != nil {
		return nil, fmt.Errorf("list report archives: %w", err)
	}
	return objects, nil
}
