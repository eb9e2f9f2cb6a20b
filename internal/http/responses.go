package http

import (
	"time"

	"lead-radar/internal/domain"
	"lead-radar/internal/storage"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type BusinessResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Niche       string `json:"niche"`
	Description string `json:"description"`
	City        string `json:"city"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
}

type LeadResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Interest  string            `json:"interest"`
	Source    string            `json:"source"`
	Status    domain.LeadStatus `json:"status"`
	CreatedAt string            `json:"created_at"`
}

type CampaignResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Status      domain.CampaignStatus `json:"status"`
	CreatedAt   string                `json:"created_at"`
}

type LandingPageResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Offer       string `json:"offer"`
	CTAText     string `json:"cta_text"`
	Slug        string `json:"slug"`
	PublicURL   string `json:"public_url"`
	Visits      int64  `json:"visits"`
	Conversions int64  `json:"conversions"`
	CreatedAt   string `json:"created_at"`
}

type PublicLandingPageResponse struct {
	Title       string `json:"title"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Offer       string `json:"offer"`
	CTAText     string `json:"cta_text"`
}

type InsightResponse struct {
	ID        string             `json:"id"`
	Type      domain.InsightType `json:"type"`
	Niche     string             `json:"niche"`
	Content   string             `json:"content"`
	CreatedAt string             `json:"created_at"`
}

type GeneratedReportResponse struct {
	ID            string               `json:"id"`
	Report        string               `json:"report"`
	Data          domain.Dashboard     `json:"data"`
	Period        domain.ReportPeriod  `json:"period"`
	ArchiveStatus domain.ArchiveStatus `json:"archive_status"`
	GeneratedAt   string               `json:"generated_at"`
}

type ReportResponse struct {
	ID            string               `json:"id"`
	Period        domain.ReportPeriod  `json:"period"`
	Analysis      string               `json:"analysis"`
	Data          domain.Dashboard     `json:"data"`
	ArchiveStatus domain.ArchiveStatus `json:"archive_status"`
	ErrorMessage  string               `json:"error_message,omitempty"`
	CreatedAt     string               `json:"created_at"`
	ArchivedAt    *string              `json:"archived_at,omitempty"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func businessToResponse(b *domain.Business) BusinessResponse {
	return BusinessResponse{
		ID:          b.ID,
		Name:        b.Name,
		Niche:       b.Niche,
		Description: b.Description,
		City:        b.City,
		State:       b.State,
		CreatedAt:   formatTime(b.CreatedAt),
	}
}

func leadToResponse(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:        l.ID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Interest:  l.Interest,
		Source:    l.Source,
		Status:    l.Status,
		CreatedAt: formatTime(l.CreatedAt),
	}
}

func campaignToResponse(c *domain.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func (h *Handler) landingPageToResponse(p *domain.LandingPage) LandingPageResponse {
	return LandingPageResponse{
		ID:          p.ID,
		Title:       p.Title,
		Headline:    p.Headline,
		Description: p.Description,
		Offer:       p.Offer,
		CTAText:     p.CTAText,
		Slug:        p.Slug,
		PublicURL:   h.svc.LandingPages.PublicURL(p.Slug),
		Visits:      p.Visits,
		Conversions: p.Conversions,
		CreatedAt:   formatTime(p.CreatedAt),
	}
}

func insightToResponse(i *domain.Insight) InsightResponse {
	return InsightResponse{
		ID:        i.ID,
		Type:      i.Type,
		Niche:     i.Niche,
		Content:   i.Content,
		CreatedAt: formatTime(i.CreatedAt),
	}
}

func reportToResponse(r *domain.Report) ReportResponse {
	resp := ReportResponse{
		ID:            r.ID,
		Period:        r.Period,
		Analysis:      r.Analysis,
		Data:          r.Data,
		ArchiveStatus: r.ArchiveStatus,
		ErrorMessage:  r.ErrorMessage,
		CreatedAt:     formatTime(r.CreatedAt),
	}
	if r.ArchivedAt != nil {
		v := formatTime(*r.ArchivedAt)
		resp.ArchivedAt = &v
	}
	return resp
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := formatTime(*obj.LastModified)
		resp.LastModified = &v
	}
	return resp
}
