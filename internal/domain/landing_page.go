package domain

import "time"

const DefaultCTAText = "Join now"

// LandingPage is a public lead capture page reachable by its slug.
type LandingPage struct {
	ID          string
	BusinessID  string
	Title       string
	Headline    string
	Description string
	Offer       string
	CTAText     string
	Slug        string
	Visits      int64
	Conversions int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LeadSourceForSlug is the source recorded on leads captured through a landing page.
func LeadSourceForSlug(slug string) string {
	return "landing_page:" + slug
}
