package domain

import "time"

type InsightType string

const (
	InsightTypeTrends        InsightType = "trends"
	InsightTypeComplaints    InsightType = "complaints"
	InsightTypeOpportunities InsightType = "opportunities"
)

func (t InsightType) Valid() bool {
	switch t {
	case InsightTypeTrends, InsightTypeComplaints, InsightTypeOpportunities:
		return true
	}
	return false
}

type StrategyType string

const (
	StrategyTypeCampaign  StrategyType = "campaign"
	StrategyTypeContent   StrategyType = "content"
	StrategyTypePromotion StrategyType = "promotion"
)

func (t StrategyType) Valid() bool {
	switch t {
	case StrategyTypeCampaign, StrategyTypeContent, StrategyTypePromotion:
		return true
	}
	return false
}

// Insight is a persisted market analysis produced by the generative provider.
type Insight struct {
	ID         string
	BusinessID string
	Type       InsightType
	Niche      string
	Content    string
	CreatedAt  time.Time
}
