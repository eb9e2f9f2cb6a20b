package domain

import "time"

type CampaignStatus string

const (
	CampaignStatusDraft    CampaignStatus = "draft"
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusPaused   CampaignStatus = "paused"
	CampaignStatusFinished CampaignStatus = "finished"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused, CampaignStatusFinished:
		return true
	}
	return false
}

// Campaign is a marketing campaign planned or run by a business.
type Campaign struct {
	ID          string
	BusinessID  string
	Name        string
	Type        string
	Description string
	Status      CampaignStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
