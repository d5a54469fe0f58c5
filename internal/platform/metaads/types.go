package metaads

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ignite/adpilot/internal/domain"
)

// Raw wire types for the paid-social Graph API slice we use. Spend and
// revenue arrive as decimal strings; budgets are integer cents.

type insightsResponse struct {
	Data []insightRow `json:"data"`
}

type insightRow struct {
	CampaignID   string        `json:"campaign_id"`
	CampaignName string        `json:"campaign_name"`
	Impressions  string        `json:"impressions"`
	Clicks       string        `json:"clicks"`
	Spend        string        `json:"spend"`
	DateStart    string        `json:"date_start"`
	DateStop     string        `json:"date_stop"`
	Actions      []actionValue `json:"actions"`
	ActionValues []actionValue `json:"action_values"`
}

type actionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type campaignNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"` // ACTIVE, PAUSED, ARCHIVED
	DailyBudget string `json:"daily_budget"`
	StartTime   string `json:"start_time"`
}

type campaignList struct {
	Data []campaignNode `json:"data"`
}

// purchaseAction is the action_type rows that count as conversions.
const purchaseAction = "purchase"

const dateFormat = "2006-01-02"

const centsPerUnit = 100

func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func centsToUnits(s string) float64 {
	return float64(parseCount(s)) / centsPerUnit
}

func unitsToCents(v float64) int64 {
	return int64(v*centsPerUnit + 0.5)
}

// conversions sums the purchase actions in a row.
func (r insightRow) conversions() int64 {
	var total int64
	for _, a := range r.Actions {
		if a.ActionType == purchaseAction {
			total += parseCount(a.Value)
		}
	}
	return total
}

// revenue sums the purchase action values in a row.
func (r insightRow) revenue() float64 {
	var total float64
	for _, a := range r.ActionValues {
		if a.ActionType == purchaseAction {
			total += parseDecimal(a.Value)
		}
	}
	return total
}

// toSnapshot translates one insights row into the normalized contract.
func (r insightRow) toSnapshot(window domain.DateRange) domain.MetricSnapshot {
	return domain.MetricSnapshot{
		CampaignID:  r.CampaignID,
		Platform:    domain.PlatformMetaAds,
		Window:      window,
		Impressions: parseCount(r.Impressions),
		Clicks:      parseCount(r.Clicks),
		Conversions: r.conversions(),
		Cost:        parseDecimal(r.Spend),
		Revenue:     r.revenue(),
	}
}

// toCampaign translates a campaign node into the domain entity.
func (n campaignNode) toCampaign() (*domain.Campaign, error) {
	status, err := translateStatus(n.Status)
	if err != nil {
		return nil, err
	}
	var start time.Time
	if n.StartTime != "" {
		start, err = time.Parse(time.RFC3339, n.StartTime)
		if err != nil {
			return nil, fmt.Errorf("parsing start time %q: %w", n.StartTime, err)
		}
	}
	return &domain.Campaign{
		ID:        n.ID,
		Name:      n.Name,
		Platform:  domain.PlatformMetaAds,
		Status:    status,
		Budget:    centsToUnits(n.DailyBudget),
		StartDate: start,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func translateStatus(s string) (domain.CampaignStatus, error) {
	switch s {
	case "ACTIVE":
		return domain.CampaignActive, nil
	case "PAUSED":
		return domain.CampaignPaused, nil
	case "ARCHIVED":
		return domain.CampaignEnded, nil
	default:
		return "", fmt.Errorf("unknown campaign status %q", s)
	}
}
