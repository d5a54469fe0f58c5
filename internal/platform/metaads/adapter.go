// Package metaads implements the paid-social platform adapter. The
// platform reports spend as decimal strings and budgets as integer
// cents; conversions are derived from purchase action rows.
package metaads

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/httpretry"
	"github.com/ignite/adpilot/internal/pkg/ratelimit"
	"github.com/ignite/adpilot/internal/platform"
)

const rateKey = string(domain.PlatformMetaAds)

// Adapter implements platform.Adapter for Meta Ads.
type Adapter struct {
	client    *Client
	limiter   *ratelimit.Limiter
	retry     *httpretry.Policy
	ownership *platform.OwnershipCache
}

// NewAdapter creates the adapter with its own independently configured
// rate limiter.
func NewAdapter(cfg config.MetaAdsConfig) *Adapter {
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
		nodes, err := a.client.listCampaigns(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(nodes))
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
		return ids, nil
	})
	return a
}

// Platform returns the platform tag.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformMetaAds }

// Owns reports whether the campaign id belongs to this ad account.
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
		resp, err := a.client.fetchInsights(ctx, campaignIDs, window)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, row := range resp.Data {
			out = append(out, row.toSnapshot(window))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateBudget sets an absolute daily budget. Absolute set is
// idempotent, so the mutation is declared safe to retry.
func (a *Adapter) UpdateBudget(ctx context.Context, campaignID string, newBudget float64) (*domain.Campaign, error) {
	if newBudget < 0 {
		return nil, &platform.ValidationError{Platform: a.Platform(), Reason: "budget must be non-negative"}
	}
	fields := url.Values{}
	fields.Set("daily_budget", strconv.FormatInt(unitsToCents(newBudget), 10))
	return a.mutate(ctx, campaignID, fields)
}

// Pause stops delivery. Setting status is idempotent.
func (a *Adapter) Pause(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	fields := url.Values{}
	fields.Set("status", "PAUSED")
	return a.mutate(ctx, campaignID, fields)
}

// Resume restarts delivery. Setting status is idempotent.
func (a *Adapter) Resume(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	fields := url.Values{}
	fields.Set("status", "ACTIVE")
	return a.mutate(ctx, campaignID, fields)
}

func (a *Adapter) mutate(ctx context.Context, campaignID string, fields url.Values) (*domain.Campaign, error) {
	if err := a.limiter.Acquire(ctx, rateKey); err != nil {
		return nil, err
	}

	var campaign *domain.Campaign
	err := a.retry.ExecuteIdempotent(ctx, true, func(ctx context.Context) error {
		node, err := a.client.updateCampaign(ctx, campaignID, cloneValues(fields))
		if err != nil {
			return err
		}
		campaign, err = node.toCampaign()
		return err
	})
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// AudienceInsights returns the platform's opaque demographic breakdown.
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

// cloneValues copies the field set so retries never observe the
// access_token parameter a previous attempt stamped on.
func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
