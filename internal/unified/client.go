// Package unified presents every configured platform behind one client.
// Reads fan out concurrently and tolerate partial failure; mutations
// route to exactly one platform by ownership, and any ambiguity is an
// error rather than a guess.
package unified

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/logger"
	"github.com/ignite/adpilot/internal/platform"
)

var (
	// ErrUnknownCampaign means no configured platform claims the campaign.
	ErrUnknownCampaign = errors.New("no platform owns campaign")

	// ErrAmbiguousCampaign means more than one platform claims the
	// campaign id. The caller must retry with an explicit platform.
	ErrAmbiguousCampaign = errors.New("campaign id owned by multiple platforms")

	// ErrNoPlatforms means the client was built with nothing registered.
	ErrNoPlatforms = errors.New("no platforms configured")

	// ErrAllPlatformsFailed means a fan-out produced zero successes.
	ErrAllPlatformsFailed = errors.New("all platforms failed")
)

// FetchRequest describes a cross-platform performance read.
type FetchRequest struct {
	CampaignIDs []string         `json:"campaign_ids"`
	Platform    domain.Platform  `json:"platform"` // concrete platform or PlatformAll
	Window      domain.DateRange `json:"window"`
	Metrics     domain.MetricSet `json:"metrics,omitempty"`
}

// Summary aggregates counters across platforms. Combined rates are
// computed from the summed counters, so each platform's contribution is
// weighted by its natural denominator, never averaged per platform.
type Summary struct {
	Impressions    int64       `json:"impressions"`
	Clicks         int64       `json:"clicks"`
	Conversions    int64       `json:"conversions"`
	Cost           float64     `json:"cost"`
	Revenue        float64     `json:"revenue"`
	CTR            domain.Rate `json:"ctr"`
	ConversionRate domain.Rate `json:"conversion_rate"`
	ROI            domain.Rate `json:"roi"`
	CPA            domain.Rate `json:"cpa"`
}

// FetchResult carries per-platform snapshots plus per-platform errors.
// Partial is set when at least one platform succeeded and at least one
// failed; the caller decides whether partial data is acceptable.
type FetchResult struct {
	PerPlatform map[domain.Platform][]domain.MetricSnapshot `json:"per_platform"`
	Errors      map[domain.Platform]string                  `json:"errors,omitempty"`
	Partial     bool                                        `json:"partial"`
	Combined    Summary                                     `json:"combined"`
}

// InsightsResult carries per-platform audience payloads from a fan-out.
type InsightsResult struct {
	PerPlatform map[domain.Platform]json.RawMessage `json:"per_platform"`
	Errors      map[domain.Platform]string          `json:"errors,omitempty"`
	Partial     bool                                `json:"partial"`
}

// Client multiplexes adapters. Adapters are registered once at startup;
// the client is safe for concurrent use after that.
type Client struct {
	adapters map[domain.Platform]platform.Adapter
}

// NewClient builds a unified client over the given adapters.
func NewClient(adapters ...platform.Adapter) *Client {
	m := make(map[domain.Platform]platform.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Platform()] = a
	}
	return &Client{adapters: m}
}

// Platforms returns the registered platform tags in stable order.
func (c *Client) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(c.adapters))
	for p := range c.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FetchPerformance reads performance from one platform or all of them.
// Under PlatformAll each adapter only receives the campaign ids it owns;
// a platform owning none of the requested ids is skipped, not failed.
func (c *Client) FetchPerformance(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if len(c.adapters) == 0 {
		return nil, ErrNoPlatforms
	}
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("invalid platform %q", req.Platform)
	}
	if !req.Window.Valid() {
		return nil, fmt.Errorf("invalid date range")
	}
	if len(req.CampaignIDs) == 0 {
		return nil, fmt.Errorf("no campaign ids")
	}

	targets, err := c.fetchTargets(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{
		PerPlatform: make(map[domain.Platform][]domain.MetricSnapshot),
		Errors:      make(map[domain.Platform]string),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for p, ids := range targets {
		adapter := c.adapters[p]
		wg.Add(1)
		go func(p domain.Platform, ids []string) {
			defer wg.Done()
			snaps, err := adapter.FetchPerformance(ctx, ids, req.Window, req.Metrics)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("platform fetch failed", "platform", string(p), "error", err.Error())
				result.Errors[p] = err.Error()
				return
			}
			result.PerPlatform[p] = snaps
		}(p, ids)
	}
	wg.Wait()

	if len(result.PerPlatform) == 0 && len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrAllPlatformsFailed, result.Errors)
	}
	result.Partial = len(result.Errors) > 0
	result.Combined = combine(result.PerPlatform)
	return result, nil
}

// fetchTargets resolves which campaign ids go to which platform.
func (c *Client) fetchTargets(ctx context.Context, req FetchRequest) (map[domain.Platform][]string, error) {
	targets := make(map[domain.Platform][]string)

	if req.Platform != domain.PlatformAll {
		a, ok := c.adapters[req.Platform]
		if !ok {
			return nil, fmt.Errorf("platform %q not configured", req.Platform)
		}
		targets[a.Platform()] = req.CampaignIDs
		return targets, nil
	}

	for p, a := range c.adapters {
		var owned []string
		for _, id := range req.CampaignIDs {
			if a.Owns(ctx, id) {
				owned = append(owned, id)
			}
		}
		if len(owned) > 0 {
			targets[p] = owned
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCampaign, req.CampaignIDs)
	}
	return targets, nil
}

// UpdateBudget routes the budget change to the single owning platform.
// A non-empty scope pins the mutation to that platform and skips the
// ownership fan-out; it is the only way to reach a campaign id claimed
// by more than one ad platform.
func (c *Client) UpdateBudget(ctx context.Context, campaignID string, newBudget float64, scope domain.Platform) (*domain.Campaign, error) {
	a, err := c.route(ctx, campaignID, scope)
	if err != nil {
		return nil, err
	}
	return a.UpdateBudget(ctx, campaignID, newBudget)
}

// PauseCampaign routes the pause to the single owning platform, or to
// the scoped platform when scope is non-empty.
func (c *Client) PauseCampaign(ctx context.Context, campaignID string, scope domain.Platform) (*domain.Campaign, error) {
	a, err := c.route(ctx, campaignID, scope)
	if err != nil {
		return nil, err
	}
	return a.Pause(ctx, campaignID)
}

// ResumeCampaign routes the resume to the single owning platform, or to
// the scoped platform when scope is non-empty.
func (c *Client) ResumeCampaign(ctx context.Context, campaignID string, scope domain.Platform) (*domain.Campaign, error) {
	a, err := c.route(ctx, campaignID, scope)
	if err != nil {
		return nil, err
	}
	return a.Resume(ctx, campaignID)
}

// AudienceInsights fans out to every platform that owns the campaign and
// returns whatever each one knows about the audience.
func (c *Client) AudienceInsights(ctx context.Context, campaignID string) (*InsightsResult, error) {
	if len(c.adapters) == 0 {
		return nil, ErrNoPlatforms
	}

	var owners []platform.Adapter
	for _, a := range c.adapters {
		if a.Owns(ctx, campaignID) {
			owners = append(owners, a)
		}
	}
	if len(owners) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCampaign, campaignID)
	}

	result := &InsightsResult{
		PerPlatform: make(map[domain.Platform]json.RawMessage),
		Errors:      make(map[domain.Platform]string),
	}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, a := range owners {
		wg.Add(1)
		go func(a platform.Adapter) {
			defer wg.Done()
			payload, err := a.AudienceInsights(ctx, campaignID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[a.Platform()] = err.Error()
				return
			}
			result.PerPlatform[a.Platform()] = payload
		}(a)
	}
	wg.Wait()

	if len(result.PerPlatform) == 0 && len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrAllPlatformsFailed, result.Errors)
	}
	result.Partial = len(result.Errors) > 0
	return result, nil
}

// route resolves a campaign id to the one advertising platform allowed
// to mutate it. An explicit scope short-circuits the ownership fan-out;
// the scoped platform then reports its own unknown-campaign error if it
// does not have the id. Without a scope, the analytics platform may also
// claim the id (it sees the same UTM tag), so ownership claims from
// read-only platforms never count toward ambiguity.
func (c *Client) route(ctx context.Context, campaignID string, scope domain.Platform) (platform.Adapter, error) {
	if len(c.adapters) == 0 {
		return nil, ErrNoPlatforms
	}
	if scope != "" && scope != domain.PlatformAll {
		a, ok := c.adapters[scope]
		if !ok {
			return nil, &platform.ValidationError{Platform: scope, Reason: "platform not configured"}
		}
		return a, nil
	}

	var claims []platform.Adapter
	for _, a := range c.adapters {
		if a.Platform() == domain.PlatformWebAnalytics {
			continue
		}
		if a.Owns(ctx, campaignID) {
			claims = append(claims, a)
		}
	}
	switch len(claims) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCampaign, campaignID)
	case 1:
		return claims[0], nil
	default:
		names := make([]string, len(claims))
		for i, a := range claims {
			names[i] = string(a.Platform())
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s claimed by %v", ErrAmbiguousCampaign, campaignID, names)
	}
}

// combine sums counters across platforms and derives the combined rates
// from the totals.
func combine(perPlatform map[domain.Platform][]domain.MetricSnapshot) Summary {
	var total domain.MetricSnapshot
	for _, snaps := range perPlatform {
		for _, s := range snaps {
			total.Add(s)
		}
	}
	return Summary{
		Impressions:    total.Impressions,
		Clicks:         total.Clicks,
		Conversions:    total.Conversions,
		Cost:           total.Cost,
		Revenue:        total.Revenue,
		CTR:            total.CTR(),
		ConversionRate: total.ConversionRate(),
		ROI:            total.ROI(),
		CPA:            total.CPA(),
	}
}
