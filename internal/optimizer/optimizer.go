// Package optimizer redistributes a fixed total budget across campaigns
// by ranked water-filling: floors first, then fill in efficiency order
// up to each campaign's cap, spilling clamped remainder downward.
package optimizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
)

// ErrInvalidRequest wraps every request validation failure so callers
// can classify them without matching message text.
var ErrInvalidRequest = errors.New("invalid optimization request")

// CampaignInput pairs a campaign's prior budget with its aggregated
// historical metrics over the optimization window.
type CampaignInput struct {
	CampaignID     string                `json:"campaign_id"`
	PreviousBudget float64               `json:"previous_budget"`
	Metrics        domain.MetricSnapshot `json:"metrics"`
}

// Request is one optimization run.
type Request struct {
	Campaigns   []CampaignInput         `json:"campaigns"`
	TotalBudget float64                 `json:"total_budget"`
	Goal        domain.OptimizationGoal `json:"goal"`
	Constraints domain.Constraints      `json:"constraints"`
}

// Result is the full output of a run. ProjectedImprovement is a linear
// projection from historical efficiency, not a causal estimate, and is
// undefined when there is no historical baseline to project from.
type Result struct {
	Allocations          []domain.AllocationResult `json:"allocations"`
	ProjectedImprovement domain.Rate               `json:"projected_improvement"`
	ConfidenceScore      float64                   `json:"confidence_score"`
	LowConfidence        bool                      `json:"low_confidence"`
	UnallocatedBudget    float64                   `json:"unallocated_budget,omitempty"`
}

// BudgetConstraintError means the total budget cannot cover every
// campaign's floor. No partial allocation is produced.
type BudgetConstraintError struct {
	TotalBudget     float64
	RequiredMinimum float64
	Campaigns       []string
}

func (e *BudgetConstraintError) Error() string {
	return fmt.Sprintf("total budget %.2f cannot satisfy minimums summing to %.2f for campaigns %v",
		e.TotalBudget, e.RequiredMinimum, e.Campaigns)
}

// Optimizer is stateless; one instance serves all runs.
type Optimizer struct {
	cfg config.OptimizerConfig
}

// New creates an optimizer with the given confidence tuning.
func New(cfg config.OptimizerConfig) *Optimizer {
	return &Optimizer{cfg: cfg}
}

// candidate is one campaign's working state during allocation.
type candidate struct {
	input      CampaignInput
	efficiency float64
	hasSpend   bool
	floor      float64
	cap        float64 // +Inf when unbounded
	allocated  float64
	notes      []string
}

// Optimize validates the request and computes the new budget vector.
func (o *Optimizer) Optimize(req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	cands := o.buildCandidates(req)

	// Floors are satisfied before any preferential allocation. If they
	// cannot all be met the whole run fails.
	var floorSum float64
	for _, c := range cands {
		floorSum += c.floor
	}
	if floorSum > req.TotalBudget+o.cfg.RoundingTolerance {
		var blocked []string
		for _, c := range cands {
			if c.floor > 0 {
				blocked = append(blocked, c.input.CampaignID)
			}
		}
		sort.Strings(blocked)
		return nil, &BudgetConstraintError{
			TotalBudget:     req.TotalBudget,
			RequiredMinimum: floorSum,
			Campaigns:       blocked,
		}
	}

	// Water-filling: highest efficiency first, each filled to its cap,
	// remainder spilling to the next candidate.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].efficiency != cands[j].efficiency {
			return cands[i].efficiency > cands[j].efficiency
		}
		return cands[i].input.CampaignID < cands[j].input.CampaignID
	})

	remaining := req.TotalBudget
	for _, c := range cands {
		c.allocated = c.floor
		remaining -= c.floor
	}
	lastFunded := -1
	for i, c := range cands {
		if remaining <= 0 {
			break
		}
		headroom := c.cap - c.allocated
		if headroom <= 0 {
			continue
		}
		grant := math.Min(remaining, headroom)
		c.allocated += grant
		remaining -= grant
		if grant > 0 {
			lastFunded = i
		}
		if c.allocated >= c.cap && !math.IsInf(c.cap, 1) {
			c.notes = append(c.notes, "held at cap")
		}
	}

	roundAllocations(cands, req.TotalBudget-remaining, lastFunded)

	result := &Result{
		Allocations:       make([]domain.AllocationResult, 0, len(cands)),
		UnallocatedBudget: roundCents(remaining),
	}
	for rank, c := range cands {
		result.Allocations = append(result.Allocations, domain.AllocationResult{
			CampaignID:        c.input.CampaignID,
			PreviousBudget:    c.input.PreviousBudget,
			RecommendedBudget: c.allocated,
			ChangeFraction:    changeFraction(c.input.PreviousBudget, c.allocated),
			Rationale:         rationale(req.Goal, c, rank+1, len(cands)),
		})
	}

	result.ProjectedImprovement = projectImprovement(cands)
	result.ConfidenceScore, result.LowConfidence = o.confidence(cands)
	return result, nil
}

func validate(req Request) error {
	if len(req.Campaigns) == 0 {
		return fmt.Errorf("%w: no campaigns to optimize", ErrInvalidRequest)
	}
	if req.TotalBudget <= 0 {
		return fmt.Errorf("%w: total budget must be positive, got %.2f", ErrInvalidRequest, req.TotalBudget)
	}
	if !req.Goal.Valid() {
		return fmt.Errorf("%w: unknown optimization goal %q", ErrInvalidRequest, req.Goal)
	}
	if f := req.Constraints.MaxChangeFraction; f != nil && (*f <= 0 || *f > 1) {
		return fmt.Errorf("%w: max change fraction must lie in (0, 1], got %v", ErrInvalidRequest, *f)
	}
	seen := make(map[string]bool, len(req.Campaigns))
	for _, c := range req.Campaigns {
		if c.CampaignID == "" {
			return fmt.Errorf("%w: campaign with empty id", ErrInvalidRequest)
		}
		if seen[c.CampaignID] {
			return fmt.Errorf("%w: duplicate campaign %q", ErrInvalidRequest, c.CampaignID)
		}
		seen[c.CampaignID] = true
		if c.PreviousBudget < 0 {
			return fmt.Errorf("%w: campaign %q has negative budget", ErrInvalidRequest, c.CampaignID)
		}
	}
	for id, b := range req.Constraints.PerCampaign {
		if !seen[id] {
			return fmt.Errorf("%w: constraint for unknown campaign %q", ErrInvalidRequest, id)
		}
		if b.Min != nil && *b.Min < 0 {
			return fmt.Errorf("%w: campaign %q: negative minimum", ErrInvalidRequest, id)
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return fmt.Errorf("%w: campaign %q: minimum %.2f exceeds maximum %.2f", ErrInvalidRequest, id, *b.Min, *b.Max)
		}
	}
	return nil
}

func (o *Optimizer) buildCandidates(req Request) []*candidate {
	cands := make([]*candidate, 0, len(req.Campaigns))
	for _, in := range req.Campaigns {
		c := &candidate{input: in, cap: math.Inf(1)}
		c.efficiency, c.hasSpend = efficiency(req.Goal, in.Metrics)

		if b, ok := req.Constraints.PerCampaign[in.CampaignID]; ok {
			if b.Min != nil {
				c.floor = *b.Min
			}
			if b.Max != nil {
				c.cap = *b.Max
			}
		}
		// The change-fraction bound tightens both sides relative to the
		// prior budget.
		if f := req.Constraints.MaxChangeFraction; f != nil && in.PreviousBudget > 0 {
			c.floor = math.Max(c.floor, in.PreviousBudget*(1-*f))
			c.cap = math.Min(c.cap, in.PreviousBudget*(1+*f))
		}
		if c.cap < c.floor {
			c.cap = c.floor
		}
		cands = append(cands, c)
	}
	return cands
}

// efficiency scores a campaign for ranking. Campaigns with no spend have
// no evidence either way and rank last.
func efficiency(goal domain.OptimizationGoal, m domain.MetricSnapshot) (float64, bool) {
	if m.Cost == 0 {
		return 0, false
	}
	switch goal {
	case domain.GoalMaximizeConversions:
		return float64(m.Conversions) / m.Cost, true
	default:
		return (m.Revenue - m.Cost) / m.Cost, true
	}
}

// roundAllocations rounds every recommendation to whole cents and folds
// the residual into the last campaign that received preferential budget,
// keeping the column sum exact.
func roundAllocations(cands []*candidate, allocatedTotal float64, lastFunded int) {
	var sum float64
	for _, c := range cands {
		c.allocated = roundCents(c.allocated)
		sum += c.allocated
	}
	residual := roundCents(allocatedTotal - sum)
	if residual == 0 {
		return
	}
	i := lastFunded
	if i < 0 {
		i = len(cands) - 1
	}
	cands[i].allocated = roundCents(cands[i].allocated + residual)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func changeFraction(prev, next float64) float64 {
	if prev == 0 {
		return 0
	}
	return (next - prev) / prev
}

func rationale(goal domain.OptimizationGoal, c *candidate, rank, total int) string {
	metric := "roi"
	if goal == domain.GoalMaximizeConversions {
		metric = "conversions-per-cost"
	}
	parts := []string{fmt.Sprintf("ranked %d of %d by %s efficiency %.4f", rank, total, metric, c.efficiency)}
	if !c.hasSpend {
		parts = append(parts, "no spend history")
	}
	if c.floor > 0 && c.allocated <= c.floor {
		parts = append(parts, "held at floor")
	}
	parts = append(parts, c.notes...)
	return strings.Join(parts, "; ")
}

// projectImprovement re-scores historical efficiency at the new budget
// vector under a linear-response assumption. It is a projection only.
func projectImprovement(cands []*candidate) domain.Rate {
	var before, after float64
	for _, c := range cands {
		before += c.efficiency * c.input.PreviousBudget
		after += c.efficiency * c.allocated
	}
	if before == 0 {
		return domain.UndefinedRate
	}
	return domain.DefinedRate((after - before) / math.Abs(before) * 100)
}

// confidence blends sample size (days of history) with the stability of
// the efficiency estimates. Below the minimum sample size the score is
// capped and the result flagged, never withheld.
func (o *Optimizer) confidence(cands []*candidate) (float64, bool) {
	minDays := math.MaxInt32
	var effs []float64
	for _, c := range cands {
		if d := c.input.Metrics.Window.Days(); d < minDays {
			minDays = d
		}
		if c.hasSpend {
			effs = append(effs, c.efficiency)
		}
	}
	if minDays == math.MaxInt32 {
		minDays = 0
	}

	sizeFactor := math.Min(1, float64(minDays)/30)
	score := sizeFactor * stabilityFactor(effs)

	if minDays < o.cfg.MinSampleDays {
		if score > o.cfg.LowConfidenceCap {
			score = o.cfg.LowConfidenceCap
		}
		return score, true
	}
	return score, false
}

// stabilityFactor shrinks toward zero as the spread of efficiencies
// grows relative to their mean.
func stabilityFactor(effs []float64) float64 {
	if len(effs) < 2 {
		return 1
	}
	var mean float64
	for _, e := range effs {
		mean += e
	}
	mean /= float64(len(effs))
	if mean == 0 {
		return 1
	}
	var variance float64
	for _, e := range effs {
		variance += (e - mean) * (e - mean)
	}
	variance /= float64(len(effs))
	cv := math.Sqrt(variance) / math.Abs(mean)
	return 1 / (1 + cv)
}
