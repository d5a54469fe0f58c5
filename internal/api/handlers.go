// Package api is the HTTP surface over the unified platform client,
// the budget optimizer, the report builder, and the automation tracker.
// Handlers validate input at the boundary and translate the error
// taxonomy onto status codes; they hold no business logic of their own.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/adpilot/internal/adcopy"
	"github.com/ignite/adpilot/internal/automation"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/optimizer"
	"github.com/ignite/adpilot/internal/pkg/httputil"
	"github.com/ignite/adpilot/internal/report"
	"github.com/ignite/adpilot/internal/unified"
)

// PlatformClient is the slice of the unified client the handlers use.
type PlatformClient interface {
	FetchPerformance(ctx context.Context, req unified.FetchRequest) (*unified.FetchResult, error)
	UpdateBudget(ctx context.Context, campaignID string, newBudget float64, scope domain.Platform) (*domain.Campaign, error)
	PauseCampaign(ctx context.Context, campaignID string, scope domain.Platform) (*domain.Campaign, error)
	ResumeCampaign(ctx context.Context, campaignID string, scope domain.Platform) (*domain.Campaign, error)
	AudienceInsights(ctx context.Context, campaignID string) (*unified.InsightsResult, error)
	Platforms() []domain.Platform
}

// ReportBuilder generates performance reports.
type ReportBuilder interface {
	Generate(ctx context.Context, req unified.FetchRequest) (*report.Report, error)
}

// BudgetOptimizer computes budget reallocations.
type BudgetOptimizer interface {
	Optimize(req optimizer.Request) (*optimizer.Result, error)
}

// CopyGenerator produces ranked ad variants.
type CopyGenerator interface {
	Generate(ctx context.Context, req adcopy.Request) ([]adcopy.Variant, error)
}

// CampaignCache persists the latest known campaign state after
// mutations. Optional; nil disables caching.
type CampaignCache interface {
	Upsert(ctx context.Context, c *domain.Campaign) error
}

// Handlers holds every dependency the HTTP surface needs.
type Handlers struct {
	client    PlatformClient
	reports   ReportBuilder
	optimizer BudgetOptimizer
	adcopy    CopyGenerator
	tracker   *automation.Tracker
	cache     CampaignCache
}

// NewHandlers wires the handler set. adcopyGen and cache may be nil when
// those features are not configured.
func NewHandlers(client PlatformClient, reports ReportBuilder, opt BudgetOptimizer,
	tracker *automation.Tracker, adcopyGen CopyGenerator, cache CampaignCache) *Handlers {
	return &Handlers{
		client:    client,
		reports:   reports,
		optimizer: opt,
		adcopy:    adcopyGen,
		tracker:   tracker,
		cache:     cache,
	}
}

// HealthCheck reports liveness and the configured platforms.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":    "ok",
		"platforms": h.client.Platforms(),
	})
}

// ListPlatforms returns the configured platform tags.
func (h *Handlers) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"platforms": h.client.Platforms()})
}

type dateRangeRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// parseDateRange accepts ISO dates (2026-08-01) or RFC3339 timestamps.
func parseDateRange(req dateRangeRequest) (domain.DateRange, error) {
	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, nil
		}
		return time.Parse(time.RFC3339, s)
	}
	start, err := parse(req.StartDate)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid start_date %q", req.StartDate)
	}
	end, err := parse(req.EndDate)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid end_date %q", req.EndDate)
	}
	dr := domain.DateRange{Start: start, End: end}
	if !dr.Valid() {
		return domain.DateRange{}, fmt.Errorf("date range must be non-empty and ordered")
	}
	return dr, nil
}

type fetchRequest struct {
	dateRangeRequest
	CampaignIDs []string         `json:"campaign_ids"`
	Platform    domain.Platform  `json:"platform"`
	Metrics     domain.MetricSet `json:"metrics,omitempty"`
}

func (h *Handlers) buildFetchRequest(w http.ResponseWriter, r *http.Request) (unified.FetchRequest, bool) {
	var req fetchRequest
	if !httputil.Decode(w, r, &req) {
		return unified.FetchRequest{}, false
	}
	window, err := parseDateRange(req.dateRangeRequest)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return unified.FetchRequest{}, false
	}
	if req.Platform == "" {
		req.Platform = domain.PlatformAll
	}
	return unified.FetchRequest{
		CampaignIDs: req.CampaignIDs,
		Platform:    req.Platform,
		Window:      window,
		Metrics:     req.Metrics,
	}, true
}

// FetchPerformance returns normalized cross-platform performance.
func (h *Handlers) FetchPerformance(w http.ResponseWriter, r *http.Request) {
	freq, ok := h.buildFetchRequest(w, r)
	if !ok {
		return
	}
	res, err := h.client.FetchPerformance(r.Context(), freq)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// GenerateReport builds a merged performance report. The run is tracked
// as an automation task so report generation shows up in ROI figures.
func (h *Handlers) GenerateReport(w http.ResponseWriter, r *http.Request) {
	freq, ok := h.buildFetchRequest(w, r)
	if !ok {
		return
	}

	var rep *report.Report
	_, err := h.tracker.Run(r.Context(), automation.StartOptions{
		TaskType: domain.TaskReportGeneration,
		TaskName: "performance report",
	}, func(ctx context.Context) error {
		var err error
		rep, err = h.reports.Generate(ctx, freq)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, rep)
}

type optimizeRequest struct {
	dateRangeRequest
	CampaignIDs     []string           `json:"campaign_ids"`
	Platform        domain.Platform    `json:"platform"`
	PreviousBudgets map[string]float64 `json:"previous_budgets"`
	TotalBudget     float64            `json:"total_budget"`
	Goal            string             `json:"goal"`
	Constraints     domain.Constraints `json:"constraints"`
}

// optimizeResponse wraps the optimizer output with the health of the
// performance fetch behind it. A partial fetch means some campaigns were
// scored on incomplete history; the caller sees exactly which platforms
// dropped out rather than a silently gutted recommendation.
type optimizeResponse struct {
	*optimizer.Result
	Partial        bool                       `json:"partial,omitempty"`
	PlatformErrors map[domain.Platform]string `json:"platform_errors,omitempty"`
}

// OptimizeBudget fetches historical performance, aggregates it per
// campaign, and runs the optimizer over the result.
func (h *Handlers) OptimizeBudget(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	window, err := parseDateRange(req.dateRangeRequest)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	goal := domain.OptimizationGoal(req.Goal)
	if !goal.Valid() {
		httputil.ErrorCode(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("unknown goal %q", req.Goal))
		return
	}
	if req.Platform == "" {
		req.Platform = domain.PlatformAll
	}

	var resp optimizeResponse
	_, err = h.tracker.Run(r.Context(), automation.StartOptions{
		TaskType: domain.TaskBudgetOptimization,
		TaskName: "budget optimization",
	}, func(ctx context.Context) error {
		perf, err := h.client.FetchPerformance(ctx, unified.FetchRequest{
			CampaignIDs: req.CampaignIDs,
			Platform:    req.Platform,
			Window:      window,
		})
		if err != nil {
			return err
		}
		resp.Partial = perf.Partial
		resp.PlatformErrors = perf.Errors

		inputs, err := optimizerInputs(req, window, perf)
		if err != nil {
			return err
		}
		resp.Result, err = h.optimizer.Optimize(optimizer.Request{
			Campaigns:   inputs,
			TotalBudget: req.TotalBudget,
			Goal:        goal,
			Constraints: req.Constraints,
		})
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, resp)
}

// optimizerInputs merges per-platform snapshots into one row per
// campaign and pairs it with the caller-supplied prior budget.
func optimizerInputs(req optimizeRequest, window domain.DateRange, perf *unified.FetchResult) ([]optimizer.CampaignInput, error) {
	merged := make(map[string]*domain.MetricSnapshot)
	for _, snaps := range perf.PerPlatform {
		for _, s := range snaps {
			m, ok := merged[s.CampaignID]
			if !ok {
				m = &domain.MetricSnapshot{CampaignID: s.CampaignID, Window: window}
				merged[s.CampaignID] = m
			}
			m.Add(s)
		}
	}

	inputs := make([]optimizer.CampaignInput, 0, len(req.CampaignIDs))
	for _, id := range req.CampaignIDs {
		prev, ok := req.PreviousBudgets[id]
		if !ok {
			return nil, &requestError{fmt.Sprintf("no previous budget for campaign %q", id)}
		}
		snap := domain.MetricSnapshot{CampaignID: id, Window: window}
		if m, ok := merged[id]; ok {
			snap = *m
		}
		inputs = append(inputs, optimizer.CampaignInput{
			CampaignID:     id,
			PreviousBudget: prev,
			Metrics:        snap,
		})
	}
	return inputs, nil
}

type budgetRequest struct {
	Budget   float64         `json:"budget"`
	Platform domain.Platform `json:"platform,omitempty"`
}

// mutationRequest is the optional body for pause/resume. The platform
// field disambiguates a campaign id claimed by more than one ad
// platform; without it, routing goes by ownership.
type mutationRequest struct {
	Platform domain.Platform `json:"platform,omitempty"`
}

// UpdateBudget sets an absolute budget on the owning platform, or on the
// explicitly scoped one.
func (h *Handlers) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	campaign, err := h.client.UpdateBudget(r.Context(), chi.URLParam(r, "campaignID"), req.Budget, req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheCampaign(r.Context(), campaign)
	httputil.OK(w, campaign)
}

// PauseCampaign stops delivery on the owning platform, or on the
// explicitly scoped one.
func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	var req mutationRequest
	if !httputil.DecodeOptional(w, r, &req) {
		return
	}
	campaign, err := h.client.PauseCampaign(r.Context(), chi.URLParam(r, "campaignID"), req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheCampaign(r.Context(), campaign)
	httputil.OK(w, campaign)
}

// ResumeCampaign restarts delivery on the owning platform, or on the
// explicitly scoped one.
func (h *Handlers) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	var req mutationRequest
	if !httputil.DecodeOptional(w, r, &req) {
		return
	}
	campaign, err := h.client.ResumeCampaign(r.Context(), chi.URLParam(r, "campaignID"), req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheCampaign(r.Context(), campaign)
	httputil.OK(w, campaign)
}

func (h *Handlers) cacheCampaign(ctx context.Context, c *domain.Campaign) {
	if h.cache == nil || c == nil {
		return
	}
	// The platform already accepted the mutation; a cache miss here is
	// an operational problem, not a request failure.
	_ = h.cache.Upsert(ctx, c)
}

// AudienceInsights fans out to every platform that knows the campaign.
func (h *Handlers) AudienceInsights(w http.ResponseWriter, r *http.Request) {
	res, err := h.client.AudienceInsights(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// AutomationROI aggregates automation savings over a query period.
func (h *Handlers) AutomationROI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := parseDateRange(dateRangeRequest{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	var costBasis *float64
	if s := q.Get("cost_basis"); s != "" {
		var v float64
		if _, err := fmt.Sscanf(s, "%g", &v); err != nil || v <= 0 {
			httputil.BadRequest(w, "cost_basis must be a positive number")
			return
		}
		costBasis = &v
	}

	summary, err := h.tracker.Aggregate(r.Context(), period, costBasis)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, summary)
}

// GenerateAdCopy produces ranked ad variants for a campaign brief.
func (h *Handlers) GenerateAdCopy(w http.ResponseWriter, r *http.Request) {
	if h.adcopy == nil {
		httputil.ErrorCode(w, http.StatusNotImplemented, "not_configured", "ad copy generation is not configured")
		return
	}
	var req adcopy.Request
	if !httputil.Decode(w, r, &req) {
		return
	}

	var variants []adcopy.Variant
	_, err := h.tracker.Run(r.Context(), automation.StartOptions{
		TaskType:   domain.TaskAdCopyGeneration,
		TaskName:   "ad copy: " + req.CampaignName,
		CampaignID: req.CampaignName,
	}, func(ctx context.Context) error {
		var err error
		variants, err = h.adcopy.Generate(ctx, req)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"variants": variants})
}
