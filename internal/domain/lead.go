package domain

import "time"

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Valid reports whether s is one of the known lead statuses.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

const LeadSourceManual = "manual"

// Lead is a prospective customer captured manually or through a landing page.
type Lead struct {
	ID         string
	BusinessID string
	Name       string
	Email      string
	Phone      string
	Interest   string
	Source     string
	Status     LeadStatus
	CreatedAt  time.Time
}
