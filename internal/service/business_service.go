package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

const (
	msgBusinessNotFound = "business not found; set up your business first"
	msgBusinessTaken    = "business already registered"
)

// BusinessInput carries the editable business fields.
type BusinessInput struct {
	Name        string
	Niche       string
	Description string
	City        string
	State       string
}

func (in *BusinessInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Niche = strings.TrimSpace(in.Niche)
	in.Description = strings.TrimSpace(in.Description)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	if in.Niche == "" {
		fields["niche"] = "is required"
	}
	if len(fields) > 0 {
		return domain.NewValidation("invalid business", fields)
	}
	return nil
}

// BusinessService manages the single business owned by each user.
type BusinessService interface {
	Create(ctx context.Context, userID string, in BusinessInput) (*domain.Business, error)
	Get(ctx context.Context, userID string) (*domain.Business, error)
	Update(ctx context.Context, userID string, in BusinessInput) (*domain.Business, error)
}

type businessService struct {
	businesses repository.BusinessRepository
}

func NewBusinessService(businesses repository.BusinessRepository) BusinessService {
	return &businessService{businesses: businesses}
}

func (s *businessService) Create(ctx context.Context, userID string, in BusinessInput) (*domain.Business, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	business := &domain.Business{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Niche:       in.Niche,
		Description: in.Description,
		City:        in.City,
		State:       in.State,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.businesses.Create(ctx, business); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewConflict(msgBusinessTaken)
		}
		return nil, err
	}
	return business, nil
}

func (s *businessService) Get(ctx context.Context, userID string) (*domain.Business, error) {
	return requireBusiness(ctx, s.businesses, userID)
}

func (s *businessService) Update(ctx context.Context, userID string, in BusinessInput) (*domain.Business, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	business.Name = in.Name
	business.Niche = in.Niche
	business.Description = in.Description
	business.City = in.City
	business.State = in.State
	if err := s.businesses.Update(ctx, business); err != nil {
		return nil, notFoundAs(err, msgBusinessNotFound)
	}
	return business, nil
}

// requireBusiness resolves the caller's business or fails with NotFound.
func requireBusiness(ctx context.Context, businesses repository.BusinessRepository, userID string) (*domain.Business, error) {
	business, err := businesses.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, msgBusinessNotFound)
	}
	return business, nil
}

// notFoundAs maps repository.ErrNotFound to a client facing NotFound error.
func notFoundAs(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFound(message)
	}
	return err
}
