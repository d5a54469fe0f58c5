package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/unified"
)

type fakeFetcher struct {
	res *unified.FetchResult
	err error
}

func (f *fakeFetcher) FetchPerformance(ctx context.Context, req unified.FetchRequest) (*unified.FetchResult, error) {
	return f.res, f.err
}

func testWindow() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerateMergesRowsByCampaignID(t *testing.T) {
	// The "summer-sale" tag runs on Google and shows up in analytics;
	// it must come back as one row with both platforms underneath.
	fetcher := &fakeFetcher{res: &unified.FetchResult{
		PerPlatform: map[domain.Platform][]domain.MetricSnapshot{
			domain.PlatformGoogleAds: {
				{CampaignID: "summer-sale", Platform: domain.PlatformGoogleAds,
					Impressions: 1000, Clicks: 100, Conversions: 10, Cost: 50, Revenue: 200},
				{CampaignID: "brand", Platform: domain.PlatformGoogleAds,
					Impressions: 500, Clicks: 20, Conversions: 1, Cost: 10, Revenue: 30},
			},
			domain.PlatformWebAnalytics: {
				{CampaignID: "summer-sale", Platform: domain.PlatformWebAnalytics,
					Impressions: 3000, Clicks: 800, Conversions: 30, Cost: 0, Revenue: 900},
			},
		},
	}}

	b := NewBuilder(fetcher)
	b.newID = func() string { return "report-1" }
	b.now = func() time.Time { return time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC) }

	rep, err := b.Generate(context.Background(), unified.FetchRequest{
		CampaignIDs: []string{"summer-sale", "brand"},
		Platform:    domain.PlatformAll,
		Window:      testWindow(),
	})
	require.NoError(t, err)

	assert.Equal(t, "report-1", rep.ID)
	assert.False(t, rep.GeneratedAt.IsZero())
	require.Len(t, rep.Campaigns, 2)

	// Highest cost first.
	sale := rep.Campaigns[0]
	assert.Equal(t, "summer-sale", sale.CampaignID)
	assert.Equal(t, []domain.Platform{domain.PlatformGoogleAds, domain.PlatformWebAnalytics}, sale.Platforms)
	assert.Equal(t, int64(4000), sale.Impressions)
	assert.Equal(t, int64(900), sale.Clicks)
	assert.InDelta(t, 50, sale.Cost, 1e-9)
	assert.InDelta(t, 1100, sale.Revenue, 1e-9)
	require.True(t, sale.CTR.Defined)
	assert.InDelta(t, 22.5, sale.CTR.Value, 1e-9)
}

func TestGenerateZeroCostRatesAreUndefined(t *testing.T) {
	fetcher := &fakeFetcher{res: &unified.FetchResult{
		PerPlatform: map[domain.Platform][]domain.MetricSnapshot{
			domain.PlatformWebAnalytics: {
				{CampaignID: "organic", Platform: domain.PlatformWebAnalytics,
					Impressions: 100, Clicks: 10, Conversions: 0, Cost: 0, Revenue: 50},
			},
		},
	}}

	rep, err := NewBuilder(fetcher).Generate(context.Background(), unified.FetchRequest{
		CampaignIDs: []string{"organic"},
		Platform:    domain.PlatformWebAnalytics,
		Window:      testWindow(),
	})
	require.NoError(t, err)
	require.Len(t, rep.Campaigns, 1)

	assert.False(t, rep.Campaigns[0].ROI.Defined, "ROI over zero cost is undefined, not zero")
	assert.False(t, rep.Campaigns[0].CPA.Defined)
}

func TestGenerateCarriesPartialFlagAndErrors(t *testing.T) {
	fetcher := &fakeFetcher{res: &unified.FetchResult{
		PerPlatform: map[domain.Platform][]domain.MetricSnapshot{
			domain.PlatformGoogleAds: {{CampaignID: "g-1", Platform: domain.PlatformGoogleAds, Cost: 10}},
		},
		Errors:  map[domain.Platform]string{domain.PlatformMetaAds: "rate limited"},
		Partial: true,
	}}

	rep, err := NewBuilder(fetcher).Generate(context.Background(), unified.FetchRequest{
		CampaignIDs: []string{"g-1", "m-1"},
		Platform:    domain.PlatformAll,
		Window:      testWindow(),
	})
	require.NoError(t, err)

	assert.True(t, rep.Partial)
	assert.Equal(t, "rate limited", rep.Errors[domain.PlatformMetaAds])
}

func TestGeneratePropagatesFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("all platforms failed")}

	_, err := NewBuilder(fetcher).Generate(context.Background(), unified.FetchRequest{
		CampaignIDs: []string{"g-1"},
		Platform:    domain.PlatformAll,
		Window:      testWindow(),
	})
	require.Error(t, err)
}
