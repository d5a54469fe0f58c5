package googleads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/httpretry"
	"github.com/ignite/adpilot/internal/platform"
)

func testWindow() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC),
	}
}

// newTestAdapter wires an adapter against an httptest server that also
// plays the oauth token endpoint.
func newTestAdapter(t *testing.T, api http.HandlerFunc) (*Adapter, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
			return
		}
		api(w, r)
	}))
	t.Cleanup(srv.Close)

	a := NewAdapter(config.GoogleAdsConfig{
		BaseURL:        srv.URL,
		TokenURL:       srv.URL + "/token",
		ClientID:       "client",
		ClientSecret:   "secret",
		RefreshToken:   "refresh",
		DeveloperToken: "dev-token",
		CustomerID:     "1234567890",
		TimeoutSeconds: 5,
		RateLimit:      config.RateLimitConfig{Capacity: 100, RequestsPerSecond: 100},
	})
	return a, srv
}

func TestFetchPerformanceNormalizesMetrics(t *testing.T) {
	var gotQuery string
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req.Query

		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-token", r.Header.Get("developer-token"))

		json.NewEncoder(w).Encode(searchResponse{Results: []searchResult{{
			Campaign: rawCampaign{ID: "111", Name: "Brand Search", Status: "ENABLED"},
			Metrics: rawMetrics{
				Impressions:      "1200",
				Clicks:           "150",
				Conversions:      12,
				CostMicros:       "45500000",
				ConversionsValue: 910.5,
			},
		}}})
	})

	snaps, err := a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	s := snaps[0]
	assert.Equal(t, "111", s.CampaignID)
	assert.Equal(t, domain.PlatformGoogleAds, s.Platform)
	assert.Equal(t, int64(1200), s.Impressions)
	assert.Equal(t, int64(150), s.Clicks)
	assert.Equal(t, int64(12), s.Conversions)
	assert.InDelta(t, 45.5, s.Cost, 1e-9)
	assert.InDelta(t, 910.5, s.Revenue, 1e-9)

	assert.Contains(t, gotQuery, "campaign.id IN (111)")
	assert.Contains(t, gotQuery, "2026-08-01")
	assert.Contains(t, gotQuery, "2026-08-08")
}

func TestFetchPerformanceRejectsBadInput(t *testing.T) {
	calls := 0
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	w := testWindow()
	w.End, w.Start = w.Start, w.End
	_, err := a.FetchPerformance(context.Background(), []string{"111"}, w, nil)
	var verr *platform.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = a.FetchPerformance(context.Background(), nil, testWindow(), nil)
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, 0, calls, "invalid input must never reach the API")
}

func TestUpdateBudgetSendsMicros(t *testing.T) {
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/campaignBudgets:mutate"), r.URL.Path)
		var req mutateBudgetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "111", req.CampaignID)
		assert.Equal(t, int64(125500000), req.AmountMicros)

		json.NewEncoder(w).Encode(mutateResponse{Result: searchResult{
			Campaign: rawCampaign{ID: "111", Name: "Brand Search", Status: "ENABLED", StartDate: "2026-07-01"},
			Budget:   rawBudget{AmountMicros: "125500000"},
		}})
	})

	c, err := a.UpdateBudget(context.Background(), "111", 125.5)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, c.Status)
	assert.InDelta(t, 125.5, c.Budget, 1e-9)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), c.StartDate)
}

func TestUnitsToMicrosRounds(t *testing.T) {
	// 1.15 sits just below its decimal value in float64; truncation
	// would produce 1149999.
	assert.Equal(t, int64(1150000), unitsToMicros(1.15))
	assert.Equal(t, int64(125500000), unitsToMicros(125.5))
	assert.Equal(t, int64(0), unitsToMicros(0))
}

func TestUpdateBudgetRejectsNegative(t *testing.T) {
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected API call")
	})
	_, err := a.UpdateBudget(context.Background(), "111", -5)
	var verr *platform.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestPauseTranslatesStatus(t *testing.T) {
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var req mutateStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "PAUSED", req.Status)
		json.NewEncoder(w).Encode(mutateResponse{Result: searchResult{
			Campaign: rawCampaign{ID: "111", Status: "PAUSED"},
		}})
	})

	c, err := a.Pause(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignPaused, c.Status)
}

func TestAuthFailureIsFatal(t *testing.T) {
	calls := 0
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"invalid developer token"}`)
	})

	_, err := a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	var aerr *platform.AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, calls, "authentication failures must not be retried")
}

func TestRateLimitHonorsRetryAfter(t *testing.T) {
	calls := 0
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0.05")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []searchResult{{
			Campaign: rawCampaign{ID: "111", Status: "ENABLED"},
		}}})
	})

	start := time.Now()
	snaps, err := a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestTransientErrorsRetryThenSucceed(t *testing.T) {
	calls := 0
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []searchResult{{
			Campaign: rawCampaign{ID: "111", Status: "ENABLED"},
		}}})
	})
	a.retry = &httpretry.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}

	snaps, err := a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
	assert.Equal(t, 3, calls)
}

func TestTransientErrorsExhaustBudget(t *testing.T) {
	calls := 0
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	a.retry = &httpretry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}

	_, err := a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	var exhausted *httpretry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	var terr *platform.TransientError
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, 3, calls)
}

func TestOwnsUsesCachedCampaignList(t *testing.T) {
	listCalls := 0
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		json.NewEncoder(w).Encode(searchResponse{Results: []searchResult{
			{Campaign: rawCampaign{ID: "111"}},
			{Campaign: rawCampaign{ID: "222"}},
		}})
	})

	ctx := context.Background()
	assert.True(t, a.Owns(ctx, "111"))
	assert.True(t, a.Owns(ctx, "222"))
	assert.False(t, a.Owns(ctx, "999"))
	assert.Equal(t, 1, listCalls, "ownership lookups within the TTL share one list call")
}

func TestNetworkFailureIsTransient(t *testing.T) {
	a, srv := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{})
	})
	// Warm the token, then kill the server so the API call itself fails.
	_, err := a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	require.NoError(t, err)
	srv.Close()

	a.retry = &httpretry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond}
	_, err = a.FetchPerformance(context.Background(), []string{"111"}, testWindow(), nil)
	require.Error(t, err)
	var exhausted *httpretry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected retries to exhaust, got %v", err)
	}
}
