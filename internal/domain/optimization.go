package domain

// OptimizationGoal is the closed set of objectives the optimizer accepts.
// Free-form goal strings from the inbound API are validated into this enum
// at the boundary; the optimizer itself never sees an unknown goal.
type OptimizationGoal string

const (
	GoalMaximizeROI         OptimizationGoal = "maximize_roi"
	GoalMaximizeConversions OptimizationGoal = "maximize_conversions"
)

// Valid reports whether g is a known goal.
func (g OptimizationGoal) Valid() bool {
	return g == GoalMaximizeROI || g == GoalMaximizeConversions
}

// BudgetBounds is an optional per-campaign [Min, Max] budget constraint.
// A nil bound means unconstrained on that side.
type BudgetBounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Constraints collects everything the caller may impose on a run.
type Constraints struct {
	// PerCampaign maps campaign id to its budget bounds.
	PerCampaign map[string]BudgetBounds `json:"per_campaign,omitempty"`

	// MaxChangeFraction, when set, caps every campaign's budget change at
	// |new-old| <= MaxChangeFraction*old. Must lie in (0, 1].
	MaxChangeFraction *float64 `json:"max_change_fraction,omitempty"`
}

// AllocationResult is one campaign's line in an optimization run.
type AllocationResult struct {
	CampaignID        string  `json:"campaign_id"`
	PreviousBudget    float64 `json:"previous_budget"`
	RecommendedBudget float64 `json:"recommended_budget"`
	ChangeFraction    float64 `json:"change_fraction"`
	Rationale         string  `json:"rationale"`
}
