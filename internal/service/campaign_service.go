package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

const msgCampaignNotFound = "campaign not found"

// CampaignInput carries the editable campaign fields.
type CampaignInput struct {
	Name        string
	Type        string
	Description string
	Status      domain.CampaignStatus
}

func (in *CampaignInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = domain.CampaignStatusDraft
	}

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	if in.Type == "" {
		fields["type"] = "is required"
	}
	if !in.Status.Valid() {
		fields["status"] = "must be one of draft, active, paused, finished"
	}
	if len(fields) > 0 {
		return domain.NewValidation("invalid campaign", fields)
	}
	return nil
}

// CampaignService manages the campaigns of the caller's business.
type CampaignService interface {
	Create(ctx context.Context, userID string, in CampaignInput) (*domain.Campaign, error)
	List(ctx context.Context, userID string) ([]domain.Campaign, error)
	Update(ctx context.Context, userID, campaignID string, in CampaignInput) (*domain.Campaign, error)
	Delete(ctx context.Context, userID, campaignID string) error
}

type campaignService struct {
	businesses repository.BusinessRepository
	campaigns  repository.CampaignRepository
}

func NewCampaignService(businesses repository.BusinessRepository, campaigns repository.CampaignRepository) CampaignService {
	return &campaignService{businesses: businesses, campaigns: campaigns}
}

func (s *campaignService) Create(ctx context.Context, userID string, in CampaignInput) (*domain.Campaign, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:          uuid.NewString(),
		BusinessID:  business.ID,
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *campaignService) List(ctx context.Context, userID string) ([]domain.Campaign, error) {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	return s.campaigns.ListByBusiness(ctx, business.ID)
}

func (s *campaignService) Update(ctx context.Context, userID, campaignID string, in CampaignInput) (*domain.Campaign, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.campaigns.Get(ctx, business.ID, campaignID)
	if err != nil {
		return nil, notFoundAs(err, msgCampaignNotFound)
	}
	campaign.Name = in.Name
	campaign.Type = in.Type
	campaign.Description = in.Description
	campaign.Status = in.Status
	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, notFoundAs(err, msgCampaignNotFound)
	}
	return campaign, nil
}

func (s *campaignService) Delete(ctx context.Context, userID, campaignID string) error {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return err
	}
	return notFoundAs(s.campaigns.Delete(ctx, business.ID, campaignID), msgCampaignNotFound)
}
