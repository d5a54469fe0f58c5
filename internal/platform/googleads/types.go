package googleads

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ignite/adpilot/internal/domain"
)

// Raw wire types for the slice of the Google Ads REST surface we touch.
// Int64 metrics arrive as JSON strings; money is in micros.

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Campaign rawCampaign `json:"campaign"`
	Budget   rawBudget   `json:"campaignBudget"`
	Metrics  rawMetrics  `json:"metrics"`
}

type rawCampaign struct {
	ResourceName string `json:"resourceName"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"` // ENABLED, PAUSED, REMOVED
	StartDate    string `json:"startDate"`
}

type rawBudget struct {
	ResourceName string `json:"resourceName"`
	AmountMicros string `json:"amountMicros"`
}

type rawMetrics struct {
	Impressions      string  `json:"impressions"`
	Clicks           string  `json:"clicks"`
	Conversions      float64 `json:"conversions"`
	CostMicros       string  `json:"costMicros"`
	ConversionsValue float64 `json:"conversionsValue"`
}

type mutateBudgetRequest struct {
	CampaignID   string `json:"campaignId"`
	AmountMicros int64  `json:"amountMicros"`
}

type mutateStatusRequest struct {
	CampaignID string `json:"campaignId"`
	Status     string `json:"status"`
}

type mutateResponse struct {
	Result searchResult `json:"result"`
}

const dateFormat = "2006-01-02" // platform-native date format

// micros is one millionth of the currency unit.
const microsPerUnit = 1e6

func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func microsToUnits(s string) float64 {
	return float64(parseCount(s)) / microsPerUnit
}

func unitsToMicros(v float64) int64 {
	// Round, don't truncate: 1.15 is not exactly representable and
	// truncation would yield 1149999 micros.
	return int64(v*microsPerUnit + 0.5)
}

// toSnapshot translates one search row into the normalized contract.
func (r searchResult) toSnapshot(window domain.DateRange) domain.MetricSnapshot {
	return domain.MetricSnapshot{
		CampaignID:  r.Campaign.ID,
		Platform:    domain.PlatformGoogleAds,
		Window:      window,
		Impressions: parseCount(r.Metrics.Impressions),
		Clicks:      parseCount(r.Metrics.Clicks),
		Conversions: int64(r.Metrics.Conversions),
		Cost:        microsToUnits(r.Metrics.CostMicros),
		Revenue:     r.Metrics.ConversionsValue,
	}
}

// toCampaign translates campaign + budget rows into the domain entity.
func (r searchResult) toCampaign() (*domain.Campaign, error) {
	status, err := translateStatus(r.Campaign.Status)
	if err != nil {
		return nil, err
	}
	var start time.Time
	if r.Campaign.StartDate != "" {
		start, err = time.Parse(dateFormat, r.Campaign.StartDate)
		if err != nil {
			return nil, fmt.Errorf("parsing start date %q: %w", r.Campaign.StartDate, err)
		}
	}
	return &domain.Campaign{
		ID:        r.Campaign.ID,
		Name:      r.Campaign.Name,
		Platform:  domain.PlatformGoogleAds,
		Status:    status,
		Budget:    microsToUnits(r.Budget.AmountMicros),
		StartDate: start,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func translateStatus(s string) (domain.CampaignStatus, error) {
	switch s {
	case "ENABLED":
		return domain.CampaignActive, nil
	case "PAUSED":
		return domain.CampaignPaused, nil
	case "REMOVED":
		return domain.CampaignEnded, nil
	default:
		return "", fmt.Errorf("unknown campaign status %q", s)
	}
}
