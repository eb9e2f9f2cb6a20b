package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"lead-radar/internal/domain"
	"lead-radar/internal/metrics"
	"lead-radar/internal/repository"
)

const (
	msgLandingPageNotFound = "landing page not found"
	slugAttempts           = 3
	defaultQRSize          = 256
	maxQRSize              = 1024
)

// LandingPageInput carries the editable landing page fields.
type LandingPageInput struct {
	Title       string
	Headline    string
	Description string
	Offer       string
	CTAText     string
}

func (in *LandingPageInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Headline = strings.TrimSpace(in.Headline)
	in.Description = strings.TrimSpace(in.Description)
	in.Offer = strings.TrimSpace(in.Offer)
	in.CTAText = strings.TrimSpace(in.CTAText)
	if in.CTAText == "" {
		in.CTAText = domain.DefaultCTAText
	}

	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "is required"
	}
	if in.Headline == "" {
		fields["headline"] = "is required"
	}
	if len(fields) > 0 {
		return domain.NewValidation("invalid landing page", fields)
	}
	return nil
}

// PublicLandingPage is the subset of a landing page shown to anonymous visitors.
type PublicLandingPage struct {
	Title       string
	Headline    string
	Description string
	Offer       string
	CTAText     string
}

// LandingPageService manages landing pages and their public traffic.
type LandingPageService interface {
	Create(ctx context.Context, userID string, in LandingPageInput) (*domain.LandingPage, error)
	List(ctx context.Context, userID string) ([]domain.LandingPage, error)
	Update(ctx context.Context, userID, pageID string, in LandingPageInput) (*domain.LandingPage, error)
	Delete(ctx context.Context, userID, pageID string) error
	// QRCode renders a PNG QR code pointing at the public page URL.
	QRCode(ctx context.Context, userID, pageID string, size int) ([]byte, error)
	// View returns the public page and counts one visit.
	View(ctx context.Context, slug string) (*PublicLandingPage, error)
	// Capture records a lead from the public page and counts one conversion.
	Capture(ctx context.Context, slug string, in LeadInput) (*domain.Lead, error)
	PublicURL(slug string) string
}

type landingPageService struct {
	businesses repository.BusinessRepository
	pages      repository.LandingPageRepository
	leads      repository.LeadRepository
	publicURL  string
}

func NewLandingPageService(
	businesses repository.BusinessRepository,
	pages repository.LandingPageRepository,
	leads repository.LeadRepository,
	publicURL string,
) LandingPageService {
	return &landingPageService{
		businesses: businesses,
		pages:      pages,
		leads:      leads,
		publicURL:  strings.TrimRight(publicURL, "/"),
	}
}

func (s *landingPageService) Create(ctx context.Context, userID string, in LandingPageInput) (*domain.LandingPage, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	page := &domain.LandingPage{
		BusinessID:  business.ID,
		Title:       in.Title,
		Headline:    in.Headline,
		Description: in.Description,
		Offer:       in.Offer,
		CTAText:     in.CTAText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for attempt := 0; ; attempt++ {
		page.ID = uuid.NewString()
		page.Slug = newSlug(business.ID)
		err = s.pages.Create(ctx, page)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt+1 >= slugAttempts {
			return nil, err
		}
	}
}

// newSlug joins the first 8 characters of the business id with those of a fresh UUID.
func newSlug(businessID string) string {
	return prefix8(businessID) + "-" + prefix8(uuid.NewString())
}

func prefix8(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func (s *landingPageService) List(ctx context.Context, userID string) ([]domain.LandingPage, error) {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	return s.pages.ListByBusiness(ctx, business.ID)
}

func (s *landingPageService) Update(ctx context.Context, userID, pageID string, in LandingPageInput) (*domain.LandingPage, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	page, err := s.pages.Get(ctx, business.ID, pageID)
	if err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	page.Title = in.Title
	page.Headline = in.Headline
	page.Description = in.Description
	page.Offer = in.Offer
	page.CTAText = in.CTAText
	if err := s.pages.Update(ctx, page); err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	return page, nil
}

func (s *landingPageService) Delete(ctx context.Context, userID, pageID string) error {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return err
	}
	return notFoundAs(s.pages.Delete(ctx, business.ID, pageID), msgLandingPageNotFound)
}

func (s *landingPageService) QRCode(ctx context.Context, userID, pageID string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		return nil, domain.NewValidation("invalid qr code size", map[string]string{
			"size": fmt.Sprintf("must be at most %d", maxQRSize),
		})
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	page, err := s.pages.Get(ctx, business.ID, pageID)
	if err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	png, err := qrcode.Encode(s.PublicURL(page.Slug), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

func (s *landingPageService) PublicURL(slug string) string {
	return s.publicURL + "/p/" + slug
}

func (s *landingPageService) View(ctx context.Context, slug string) (*PublicLandingPage, error) {
	page, err := s.pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	if err := s.pages.IncrementVisits(ctx, slug); err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	metrics.LandingPageEvents.WithLabelValues("visit").Inc()
	return &PublicLandingPage{
		Title:       page.Title,
		Headline:    page.Headline,
		Description: page.Description,
		Offer:       page.Offer,
		CTAText:     page.CTAText,
	}, nil
}

func (s *landingPageService) Capture(ctx context.Context, slug string, in LeadInput) (*domain.Lead, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	page, err := s.pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	in.Source = domain.LeadSourceForSlug(slug)
	if in.Interest == "" {
		in.Interest = page.Offer
	}
	// Count first: a page deleted meanwhile must not leave an orphan lead behind.
	if err := s.pages.IncrementConversions(ctx, slug); err != nil {
		return nil, notFoundAs(err, msgLandingPageNotFound)
	}
	lead, err := createLead(ctx, s.leads, page.BusinessID, in)
	if err != nil {
		return nil, err
	}
	metrics.LandingPageEvents.WithLabelValues("conversion").Inc()
	return lead, nil
}
