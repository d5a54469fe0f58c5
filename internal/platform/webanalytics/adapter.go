// Package webanalytics implements the read-only analytics adapter. The
// platform observes traffic rather than serving ads: sessions map to
// clicks, pageviews to impressions, goal completions to conversions, and
// cost is always zero. Budget and status mutations are rejected.
package webanalytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/httpretry"
	"github.com/ignite/adpilot/internal/pkg/ratelimit"
	"github.com/ignite/adpilot/internal/platform"
)

const rateKey = string(domain.PlatformWebAnalytics)

// Adapter implements platform.Adapter for the web analytics property.
type Adapter struct {
	client    *Client
	limiter   *ratelimit.Limiter
	retry     *httpretry.Policy
	ownership *platform.OwnershipCache
}

// NewAdapter creates the adapter with its own rate limiter.
func NewAdapter(cfg config.WebAnalyticsConfig) *Adapter {
	a := &Adapter{
		client: NewClient(cfg),
		limiter: ratelimit.New(map[string]ratelimit.Config{
			rateKey: {Capacity: cfg.RateLimit.Capacity, RefillPerSecond: cfg.RateLimit.RequestsPerSecond},
		}),
		retry: httpretry.NewPolicy(),
	}
	a.ownership = platform.NewOwnershipCache(5*time.Minute, func(ctx context.Context) ([]string, error) {
		if err := a.limiter.Acquire(ctx, rateKey); err != nil {
			return nil, err
		}
		return a.client.listCampaignTags(ctx)
	})
	return a
}

// Platform returns the platform tag.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformWebAnalytics }

// Owns reports whether the property has seen the campaign tag.
func (a *Adapter) Owns(ctx context.Context, campaignID string) bool {
	return a.ownership.Owns(ctx, campaignID)
}

// FetchPerformance returns engagement snapshots. Cost is always zero:
// the analytics property observes traffic, it does not buy it.
func (a *Adapter) FetchPerformance(ctx context.Context, campaignIDs []string, window domain.DateRange, metrics domain.MetricSet) ([]domain.MetricSnapshot, error) {
	if !window.Valid() {
		return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "invalid date range"}
	}
	if len(campaignIDs) == 0 {
		return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "no campaign ids"}
	}
	if err := a.limiter.Acquire(ctx, rateKey); err != nil {
		return nil, err
	}

	var out []domain.MetricSnapshot
	err := a.retry.Execute(ctx, func(ctx context.Context) error {
		resp, err := a.client.fetchReport(ctx, campaignIDs, window)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, row := range resp.Rows {
			out = append(out, domain.MetricSnapshot{
				CampaignID:  row.CampaignID,
				Platform:    domain.PlatformWebAnalytics,
				Window:      window,
				Impressions: row.Pageviews,
				Clicks:      row.Sessions,
				Conversions: row.Goals,
				Cost:        0,
				Revenue:     row.GoalValue,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBudget is unsupported: the analytics platform has no budgets.
func (a *Adapter) UpdateBudget(ctx context.Context, campaignID string, newBudget float64) (*domain.Campaign, error) {
	return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "analytics platform does not support budget updates"}
}

// Pause is unsupported: the analytics platform cannot control delivery.
func (a *Adapter) Pause(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "analytics platform does not support pausing campaigns"}
}

// Resume is unsupported: the analytics platform cannot control delivery.
func (a *Adapter) Resume(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "analytics platform does not support resuming campaigns"}
}

// AudienceInsights returns the property's demographics report.
func (a *Adapter) AudienceInsights(ctx context.Context, campaignID string) (json.RawMessage, error) {
	if err := a.limiter.Acquire(ctx, rateKey); err != nil {
		return nil, err
	}

	var payload json.RawMessage
	err := a.retry.Execute(ctx, func(ctx context.Context) error {
		var err error
		payload, err = a.client.audienceReport(ctx, campaignID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}
