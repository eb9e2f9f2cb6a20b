package domain

import "time"

type ReportPeriod string

const (
	ReportPeriodDaily   ReportPeriod = "daily"
	ReportPeriodWeekly  ReportPeriod = "weekly"
	ReportPeriodMonthly ReportPeriod = "monthly"
)

func (p ReportPeriod) Valid() bool {
	switch p {
	case ReportPeriodDaily, ReportPeriodWeekly, ReportPeriodMonthly:
		return true
	}
	return false
}

type ArchiveStatus string

const (
	ArchiveStatusPending  ArchiveStatus = "pending"
	ArchiveStatusArchived ArchiveStatus = "archived"
	ArchiveStatusFailed   ArchiveStatus = "failed"
)

// Report is an executive report generated from a dashboard snapshot.
type Report struct {
	ID            string
	BusinessID    string
	Period        ReportPeriod
	Data          Dashboard
	Analysis      string
	ArchiveStatus ArchiveStatus
	S3Location    string
	ErrorMessage  string
	CreatedAt     time.Time
	ArchivedAt    *time.Time
}

// Dashboard aggregates the metrics shown on the business dashboard.
type Dashboard struct {
	Overview         DashboardOverview `json:"overview"`
	RecentLeads      []LeadSummary     `json:"recent_leads"`
	LeadsByStatus    map[string]int64  `json:"leads_by_status"`
	PagesPerformance []PagePerformance `json:"pages_performance"`
}

type DashboardOverview struct {
	TotalLeads       int64   `json:"total_leads"`
	TotalCampaigns   int64   `json:"total_campaigns"`
	TotalPages       int64   `json:"total_pages"`
	TotalVisits      int64   `json:"total_visits"`
	TotalConversions int64   `json:"total_conversions"`
	ConversionRate   float64 `json:"conversion_rate"`
}

type LeadSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type PagePerformance struct {
	Title       string `json:"title"`
	Visits      int64  `json:"visits"`
	Conversions int64  `json:"conversions"`
}
