package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

const msgLeadNotFound = "lead not found"

// LeadInput carries the fields of a new lead.
type LeadInput struct {
	Name     string
	Email    string
	Phone    string
	Interest string
	Source   string
}

func (in *LeadInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Interest = strings.TrimSpace(in.Interest)
	in.Source = strings.TrimSpace(in.Source)

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			fields["email"] = "must be a valid email address"
		}
	}
	if len(fields) > 0 {
		return domain.NewValidation("invalid lead", fields)
	}
	return nil
}

// LeadService manages the leads of the caller's business.
type LeadService interface {
	Create(ctx context.Context, userID string, in LeadInput) (*domain.Lead, error)
	List(ctx context.Context, userID string) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, userID, leadID string, status domain.LeadStatus) error
	Delete(ctx context.Context, userID, leadID string) error
}

type leadService struct {
	businesses repository.BusinessRepository
	leads      repository.LeadRepository
}

func NewLeadService(businesses repository.BusinessRepository, leads repository.LeadRepository) LeadService {
	return &leadService{businesses: businesses, leads: leads}
}

func (s *leadService) Create(ctx context.Context, userID string, in LeadInput) (*domain.Lead, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	if in.Source == "" {
		in.Source = domain.LeadSourceManual
	}
	return createLead(ctx, s.leads, business.ID, in)
}

func createLead(ctx context.Context, leads repository.LeadRepository, businessID string, in LeadInput) (*domain.Lead, error) {
	lead := &domain.Lead{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Interest:   in.Interest,
		Source:     in.Source,
		Status:     domain.LeadStatusNew,
		CreatedAt:  time.Now().UTC(),
	}
	if err := leads.Create(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *leadService) List(ctx context.Context, userID string) ([]domain.Lead, error) {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	return s.leads.ListByBusiness(ctx, business.ID, 0)
}

func (s *leadService) UpdateStatus(ctx context.Context, userID, leadID string, status domain.LeadStatus) error {
	if !status.Valid() {
		return domain.NewValidation("invalid lead status", map[string]string{
			"status": "must be one of new, contacted, qualified, converted, lost",
		})
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return err
	}
	return notFoundAs(s.leads.UpdateStatus(ctx, business.ID, leadID, status), msgLeadNotFound)
}

func (s *leadService) Delete(ctx context.Context, userID, leadID string) error {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return err
	}
	return notFoundAs(s.leads.Delete(ctx, business.ID, leadID), msgLeadNotFound)
}
