package domain

import "time"

// Business is the single business record owned by a user. Leads, campaigns,
// landing pages, insights and reports all hang off it.
type Business struct {
	ID          string
	UserID      string
	Name        string
	Niche       string
	Description string
	City        string
	State       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
