// Package googleads implements the paid-search platform adapter. It owns
// translation from the platform's micros/string-int64 schema into
// normalized snapshots and routes every call through its own token
// bucket and retry policy.
package googleads

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

const rateKey = string(domain.PlatformGoogleAds)

// Adapter implements platform.Adapter for Google Ads.
type Adapter struct {
	client    *Client
	limiter   *ratelimit.Limiter
	retry     *httpretry.Policy
	ownership *platform.OwnershipCache
}

// NewAdapter creates the adapter with its own independently configured
// rate limiter (platform limits and credentials never shared).
func NewAdapter(cfg config.GoogleAdsConfig) *Adapter {
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
		return a.client.listCampaignIDs(ctx)
	})
	return a
}

// Platform returns the platform tag.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformGoogleAds }

// Owns reports whether the campaign id belongs to this account.
func (a *Adapter) Owns(ctx context.Context, campaignID string) bool {
	return a.ownership.Owns(ctx, campaignID)
}

// FetchPerformance returns normalized snapshots for the campaigns.
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
		resp, err := a.client.searchPerformance(ctx, campaignIDs, window)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, r := range resp.Results {
			out = append(out, r.toSnapshot(window))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBudget sets an absolute budget. Absolute set is idempotent, so
// the mutation is declared safe to retry.
func (a *Adapter) UpdateBudget(ctx context.Context, campaignID string, newBudget float64) (*domain.Campaign, error) {
	if newBudget < 0 {
		return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "budget must be non-negative"}
	}
	if err := a.limiter.Acquire(ctx, rateKey); err != nil {
		return nil, err
	}

	var campaign *domain.Campaign
	err := a.retry.ExecuteIdempotent(ctx, true, func(ctx context.Context) error {
		result, err := a.client.mutateBudget(ctx, campaignID, unitsToMicros(newBudget))
		if err != nil {
			return err
		}
		campaign, err = result.toCampaign()
		return err
	})
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// Pause stops delivery. Setting status is idempotent.
func (a *Adapter) Pause(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return a.setStatus(ctx, campaignID, "PAUSED")
}

// Resume restarts delivery. Setting status is idempotent.
func (a *Adapter) Resume(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return a.setStatus(ctx, campaignID, "ENABLED")
}

func (a *Adapter) setStatus(ctx context.Context, campaignID, status string) (*domain.Campaign, error) {
	if err := a.limiter.Acquire(ctx, rateKey); err != nil {
		return nil, err
	}

	var campaign *domain.Campaign
	err := a.retry.ExecuteIdempotent(ctx, true, func(ctx context.Context) error {
		result, err := a.client.mutateStatus(ctx, campaignID, status)
		if err != nil {
			return err
		}
		campaign, err = result.toCampaign()
		return err
	})
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// AudienceInsights returns the platform's opaque audience payload.
func (a *Adapter) AudienceInsights(ctx context.Context, campaignID string) (json.RawMessage, error) {
	if err := a.limiter.Acquire(ctx, rateKey); err != nil {
		return nil, err
	}

	var payload json.RawMessage
	err := a.retry.Execute(ctx, func(ctx context.Context) error {
		var err error
		payload, err = a.client.audienceInsights(ctx, campaignID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}
