package domain

import (
	"time"
)

// Platform identifies an external advertising or analytics platform.
type Platform string

const (
	PlatformGoogleAds    Platform = "google_ads"
	PlatformMetaAds      Platform = "meta_ads"
	PlatformWebAnalytics Platform = "web_analytics"

	// PlatformAll is the multi-platform scope marker used in requests;
	// no campaign is ever tagged with it.
	PlatformAll Platform = "all"
)

// Valid reports whether p names a concrete platform or the ALL scope.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGoogleAds, PlatformMetaAds, PlatformWebAnalytics, PlatformAll:
		return true
	}
	return false
}

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
	CampaignEnded  CampaignStatus = "ended"
)

// Campaign represents a single advertising campaign on one platform.
// The id is platform-scoped: two platforms may each have a campaign "42".
type Campaign struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Platform  Platform       `json:"platform" db:"platform"`
	Status    CampaignStatus `json:"status" db:"status"`
	Budget    float64        `json:"budget" db:"budget"` // currency units, non-negative
	StartDate time.Time      `json:"start_date" db:"start_date"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// IsEnded returns true if the campaign is in its final state.
func (c *Campaign) IsEnded() bool {
	return c.Status == CampaignEnded
}

// DateRange is a half-open [Start, End) reporting window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the whole number of days covered by the range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Valid reports whether the range is non-empty and ordered.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.End.After(r.Start)
}
