package domain

import (
	"time"
)

// TaskType enumerates the automated marketing tasks we track savings for.
type TaskType string

const (
	TaskCampaignCreation    TaskType = "campaign_creation"
	TaskBudgetOptimization  TaskType = "budget_optimization"
	TaskAdCopyGeneration    TaskType = "ad_copy_generation"
	TaskPerformanceAnalysis TaskType = "performance_analysis"
	TaskReportGeneration    TaskType = "report_generation"
	TaskAudienceAnalysis    TaskType = "audience_analysis"
)

// TaskStatus is the lifecycle of an automation record.
type TaskStatus string

const (
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// AutomationRecord tracks one automated execution of a task that a human
// would otherwise perform manually. Opened at task start, closed exactly
// once at completion or failure; a closed record is immutable and its
// derived savings are never recomputed.
type AutomationRecord struct {
	ID                    string     `json:"id" db:"id"`
	TaskType              TaskType   `json:"task_type" db:"task_type"`
	TaskName              string     `json:"task_name" db:"task_name"`
	CampaignID            string     `json:"campaign_id,omitempty" db:"campaign_id"`
	ManualDurationMinutes float64    `json:"manual_duration_minutes" db:"manual_duration_minutes"`
	AutomatedDurationSecs float64    `json:"automated_duration_seconds" db:"automated_duration_seconds"`
	HourlyRate            float64    `json:"hourly_rate" db:"hourly_rate"` // currency per hour
	TimeSavedMinutes      float64    `json:"time_saved_minutes" db:"time_saved_minutes"`
	CostSaved             float64    `json:"cost_saved" db:"cost_saved"`
	Status                TaskStatus `json:"status" db:"status"`
	ErrorMessage          string     `json:"error_message,omitempty" db:"error_message"`
	StartedAt             time.Time  `json:"started_at" db:"started_at"`
	CompletedAt           *time.Time `json:"completed_at" db:"completed_at"`
}

// Closed reports whether the record has reached a terminal status.
func (r *AutomationRecord) Closed() bool {
	return r.Status == TaskCompleted || r.Status == TaskFailed
}

// ROISummary aggregates closed automation records over a period.
// Failed records contribute to TotalTasks and FailedTasks with zero
// benefit; they are never dropped from the counts.
type ROISummary struct {
	Period           DateRange `json:"period"`
	TotalTasks       int       `json:"total_tasks"`
	CompletedTasks   int       `json:"completed_tasks"`
	FailedTasks      int       `json:"failed_tasks"`
	TimeSavedMinutes float64   `json:"time_saved_minutes"`
	CostSaved        float64   `json:"cost_saved"`

	// ROIPercentage is only defined when the caller supplies an
	// automation-cost basis; otherwise savings are reported alone.
	ROIPercentage Rate `json:"roi_percentage"`
}
