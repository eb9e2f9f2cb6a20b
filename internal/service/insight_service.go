package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

// Assistant produces generated marketing content.
type Assistant interface {
	MarketInsight(ctx context.Context, kind domain.InsightType, niche, city string) (string, error)
	Strategy(ctx context.Context, kind domain.StrategyType, niche string) (string, error)
	ExecutiveReport(ctx context.Context, period domain.ReportPeriod, niche string, overview domain.DashboardOverview) (string, error)
}

const insightHistoryLimit = 50

// InsightService runs market analyses and strategy drafts.
type InsightService interface {
	Market(ctx context.Context, userID string, kind domain.InsightType, niche, city string) (*domain.Insight, error)
	Strategy(ctx context.Context, kind domain.StrategyType, niche string) (string, error)
	List(ctx context.Context, userID string) ([]domain.Insight, error)
}

type insightService struct {
	businesses repository.BusinessRepository
	insights   repository.InsightRepository
	assistant  Assistant
}

func NewInsightService(businesses repository.BusinessRepository, insights repository.InsightRepository, assistant Assistant) InsightService {
	return &insightService{businesses: businesses, insights: insights, assistant: assistant}
}

func (s *insightService) Market(ctx context.Context, userID string, kind domain.InsightType, niche, city string) (*domain.Insight, error) {
	if kind == "" {
		kind = domain.InsightTypeTrends
	}
	niche = strings.TrimSpace(niche)
	fields := map[string]string{}
	if niche == "" {
		fields["niche"] = "is required"
	}
	if !kind.Valid() {
		fields["type"] = "must be one of trends, complaints, opportunities"
	}
	if len(fields) > 0 {
		return nil, domain.NewValidation("invalid insight request", fields)
	}

	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}

	content, err := s.assistant.MarketInsight(ctx, kind, niche, strings.TrimSpace(city))
	if err != nil {
		return nil, err
	}

	insight := &domain.Insight{
		ID:         uuid.NewString(),
		BusinessID: business.ID,
		Type:       kind,
		Niche:      niche,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.insights.Create(ctx, insight); err != nil {
		return nil, err
	}
	return insight, nil
}

func (s *insightService) Strategy(ctx context.Context, kind domain.StrategyType, niche string) (string, error) {
	if kind == "" {
		kind = domain.StrategyTypeCampaign
	}
	niche = strings.TrimSpace(niche)
	fields := map[string]string{}
	if niche == "" {
		fields["niche"] = "is required"
	}
	if !kind.Valid() {
		fields["insight_type"] = "must be one of campaign, content, promotion"
	}
	if len(fields) > 0 {
		return "", domain.NewValidation("invalid strategy request", fields)
	}
	return s.assistant.Strategy(ctx, kind, niche)
}

func (s *insightService) List(ctx context.Context, userID string) ([]domain.Insight, error) {
	business, err := requireBusiness(ctx, s.businesses, userID)
	if err != nil {
		return nil, err
	}
	return s.insights.ListByBusiness(ctx, business.ID, insightHistoryLimit)
}
