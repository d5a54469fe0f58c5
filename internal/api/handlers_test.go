package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adpilot/internal/adcopy"
	"github.com/ignite/adpilot/internal/automation"
	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/optimizer"
	"github.com/ignite/adpilot/internal/report"
	"github.com/ignite/adpilot/internal/unified"
)

type fakeClient struct {
	fetchRes   *unified.FetchResult
	fetchErr   error
	campaign   *domain.Campaign
	mutateErr  error
	gotScope   domain.Platform
	insights   *unified.InsightsResult
	insightErr error
}

func (f *fakeClient) FetchPerformance(ctx context.Context, req unified.FetchRequest) (*unified.FetchResult, error) {
	return f.fetchRes, f.fetchErr
}

func (f *fakeClient) UpdateBudget(ctx context.Context, id string, b float64, scope domain.Platform) (*domain.Campaign, error) {
	f.gotScope = scope
	return f.campaign, f.mutateErr
}

func (f *fakeClient) PauseCampaign(ctx context.Context, id string, scope domain.Platform) (*domain.Campaign, error) {
	f.gotScope = scope
	return f.campaign, f.mutateErr
}

func (f *fakeClient) ResumeCampaign(ctx context.Context, id string, scope domain.Platform) (*domain.Campaign, error) {
	f.gotScope = scope
	return f.campaign, f.mutateErr
}

func (f *fakeClient) AudienceInsights(ctx context.Context, id string) (*unified.InsightsResult, error) {
	return f.insights, f.insightErr
}

func (f *fakeClient) Platforms() []domain.Platform {
	return []domain.Platform{domain.PlatformGoogleAds, domain.PlatformMetaAds}
}

type fakeCache struct{ upserted []domain.Campaign }

func (f *fakeCache) Upsert(ctx context.Context, c *domain.Campaign) error {
	f.upserted = append(f.upserted, *c)
	return nil
}

func newTestServer(t *testing.T, client *fakeClient) (http.Handler, *fakeCache, *automation.Tracker) {
	t.Helper()
	tracker := automation.NewTracker(config.AutomationConfig{DefaultHourlyRate: 50}, automation.NewMemoryStore(), nil)
	cache := &fakeCache{}
	h := NewHandlers(client, report.NewBuilder(client),
		optimizer.New(config.OptimizerConfig{MinSampleDays: 7, LowConfidenceCap: 0.4, RoundingTolerance: 0.01}),
		tracker, nil, cache)
	return SetupRoutes(h), cache, tracker
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func perfResult() *unified.FetchResult {
	return &unified.FetchResult{
		PerPlatform: map[domain.Platform][]domain.MetricSnapshot{
			domain.PlatformGoogleAds: {
				{CampaignID: "A", Platform: domain.PlatformGoogleAds,
					Impressions: 1000, Clicks: 100, Conversions: 10, Cost: 1000, Revenue: 3500},
				{CampaignID: "B", Platform: domain.PlatformGoogleAds,
					Impressions: 2000, Clicks: 120, Conversions: 8, Cost: 2000, Revenue: 4000},
			},
		},
		Combined: unified.Summary{Impressions: 3000, Clicks: 220, Cost: 3000, Revenue: 7500},
	}
}

func TestHealthCheck(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{})
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "google_ads")
}

func TestFetchPerformance(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{fetchRes: perfResult()})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/performance/fetch", map[string]any{
		"campaign_ids": []string{"A", "B"},
		"platform":     "all",
		"start_date":   "2026-08-01",
		"end_date":     "2026-08-08",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var res unified.FetchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.PerPlatform[domain.PlatformGoogleAds], 2)
}

func TestFetchPerformanceRejectsBadDates(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{fetchRes: perfResult()})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/performance/fetch", map[string]any{
		"campaign_ids": []string{"A"},
		"start_date":   "2026-08-08",
		"end_date":     "2026-08-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/performance/fetch", map[string]any{
		"campaign_ids": []string{"A"},
		"start_date":   "yesterday",
		"end_date":     "2026-08-08",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateReportTracksAutomation(t *testing.T) {
	handler, _, tracker := newTestServer(t, &fakeClient{fetchRes: perfResult()})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/reports/generate", map[string]any{
		"campaign_ids": []string{"A", "B"},
		"start_date":   "2026-08-01",
		"end_date":     "2026-08-08",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.NotEmpty(t, rep.ID)
	assert.Len(t, rep.Campaigns, 2)

	now := time.Now().UTC()
	summary, err := tracker.Aggregate(context.Background(), domain.DateRange{
		Start: now.Add(-time.Hour), End: now.Add(time.Hour),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalTasks, "report generation is tracked")
}

func TestOptimizeBudget(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{fetchRes: perfResult()})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/budget/optimize", map[string]any{
		"campaign_ids":     []string{"A", "B"},
		"start_date":       "2026-08-01",
		"end_date":         "2026-08-08",
		"total_budget":     3000,
		"goal":             "maximize_roi",
		"previous_budgets": map[string]float64{"A": 1000, "B": 2000},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res optimizer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Allocations, 2)

	var sum float64
	for _, a := range res.Allocations {
		sum += a.RecommendedBudget
	}
	assert.InDelta(t, 3000, sum, 0.02)
}

func TestOptimizeBudgetValidation(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{fetchRes: perfResult()})

	// Unknown goal fails at the boundary.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/budget/optimize", map[string]any{
		"campaign_ids": []string{"A"},
		"start_date":   "2026-08-01",
		"end_date":     "2026-08-08",
		"total_budget": 3000,
		"goal":         "maximize_vibes",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing prior budget is a caller-input problem.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/budget/optimize", map[string]any{
		"campaign_ids": []string{"A"},
		"start_date":   "2026-08-01",
		"end_date":     "2026-08-08",
		"total_budget": 3000,
		"goal":         "maximize_roi",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimizeBudgetConstraintFailureIs422(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{fetchRes: perfResult()})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/budget/optimize", map[string]any{
		"campaign_ids":     []string{"A", "B"},
		"start_date":       "2026-08-01",
		"end_date":         "2026-08-08",
		"total_budget":     1000,
		"goal":             "maximize_roi",
		"previous_budgets": map[string]float64{"A": 1000, "B": 2000},
		"constraints": map[string]any{
			"per_campaign": map[string]any{
				"A": map[string]float64{"min": 800},
				"B": map[string]float64{"min": 800},
			},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "budget_constraint_error")
}

func TestUpdateBudgetCachesResult(t *testing.T) {
	campaign := &domain.Campaign{ID: "A", Platform: domain.PlatformGoogleAds, Status: domain.CampaignActive, Budget: 150}
	handler, cache, _ := newTestServer(t, &fakeClient{campaign: campaign})

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/campaigns/A/budget", map[string]any{"budget": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, cache.upserted, 1)
	assert.Equal(t, "A", cache.upserted[0].ID)
}

func TestMutationScopePassedThrough(t *testing.T) {
	campaign := &domain.Campaign{ID: "42", Platform: domain.PlatformMetaAds, Status: domain.CampaignPaused}
	client := &fakeClient{campaign: campaign}
	handler, _, _ := newTestServer(t, client)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/campaigns/42/pause",
		map[string]any{"platform": "meta_ads"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PlatformMetaAds, client.gotScope)

	// No body at all means unscoped ownership routing.
	client.gotScope = "sentinel"
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/campaigns/42/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Platform(""), client.gotScope)

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/campaigns/42/budget",
		map[string]any{"budget": 90, "platform": "google_ads"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PlatformGoogleAds, client.gotScope)
}

func TestOptimizeBudgetFlagsPartialFetch(t *testing.T) {
	res := perfResult()
	res.Partial = true
	res.Errors = map[domain.Platform]string{domain.PlatformMetaAds: "503 from insights endpoint"}
	handler, _, _ := newTestServer(t, &fakeClient{fetchRes: res})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/budget/optimize", map[string]any{
		"campaign_ids":     []string{"A", "B"},
		"start_date":       "2026-08-01",
		"end_date":         "2026-08-08",
		"total_budget":     3000,
		"goal":             "maximize_roi",
		"previous_budgets": map[string]float64{"A": 1000, "B": 2000},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Allocations    []domain.AllocationResult  `json:"allocations"`
		Partial        bool                       `json:"partial"`
		PlatformErrors map[domain.Platform]string `json:"platform_errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Partial, "incomplete history must be visible in the recommendation")
	assert.Contains(t, body.PlatformErrors, domain.PlatformMetaAds)
	assert.Len(t, body.Allocations, 2)
}

func TestMutationErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown campaign", fmt.Errorf("%w: nope", unified.ErrUnknownCampaign), http.StatusNotFound},
		{"ambiguous campaign", fmt.Errorf("%w: 42", unified.ErrAmbiguousCampaign), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _, _ := newTestServer(t, &fakeClient{mutateErr: tc.err})
			rec := doJSON(t, handler, http.MethodPost, "/api/v1/campaigns/42/pause", nil)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAutomationROIEndpoint(t *testing.T) {
	handler, _, tracker := newTestServer(t, &fakeClient{})

	_, err := tracker.Run(context.Background(), automation.StartOptions{
		TaskType:              domain.TaskReportGeneration,
		ManualDurationMinutes: 60,
		HourlyRate:            60,
	}, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	rec := doJSON(t, handler, http.MethodGet,
		"/api/v1/automation/roi?start_date="+today+"&end_date="+tomorrow+"&cost_basis=30", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.ROISummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.CompletedTasks)
	assert.True(t, summary.ROIPercentage.Defined)
}

func TestAdCopyNotConfigured(t *testing.T) {
	handler, _, _ := newTestServer(t, &fakeClient{})
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/adcopy/generate", adcopy.Request{
		CampaignName: "Summer Sale", Product: "sandals",
	})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
