// Package automation measures what automated task runs are worth. Every
// run opens a record, measures wall time, and closes exactly once with
// the time and cost a human would otherwise have spent. Failures close
// with zero benefit but stay in every aggregate count.
package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/logger"
)

// ErrAlreadyClosed is returned when a task is closed a second time.
// Closed records are immutable.
var ErrAlreadyClosed = errors.New("automation task already closed")

// manualEstimates holds the default manual-duration baseline per task
// type, in minutes, for callers that do not supply their own.
var manualEstimates = map[domain.TaskType]float64{
	domain.TaskCampaignCreation:    120,
	domain.TaskBudgetOptimization:  90,
	domain.TaskAdCopyGeneration:    60,
	domain.TaskPerformanceAnalysis: 45,
	domain.TaskReportGeneration:    180,
	domain.TaskAudienceAnalysis:    60,
}

// StartOptions describes the task being tracked. Zero-valued baseline
// and rate fall back to the per-type estimate table and the configured
// default hourly rate.
type StartOptions struct {
	TaskType              domain.TaskType
	TaskName              string
	CampaignID            string
	ManualDurationMinutes float64
	HourlyRate            float64
}

// Tracker opens and closes automation records against a store and an
// optional rolling counter backend.
type Tracker struct {
	cfg      config.AutomationConfig
	store    RecordStore
	counters *Counters

	now   func() time.Time
	newID func() string
}

// NewTracker creates a tracker. counters may be nil when Redis is not
// configured; counting then only happens in the store.
func NewTracker(cfg config.AutomationConfig, store RecordStore, counters *Counters) *Tracker {
	return &Tracker{
		cfg:      cfg,
		store:    store,
		counters: counters,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

// Task is one open tracking context. Close it exactly once.
type Task struct {
	tracker *Tracker
	rec     domain.AutomationRecord
	closed  bool
}

// Start opens a tracking context and persists the running record.
func (t *Tracker) Start(ctx context.Context, opts StartOptions) (*Task, error) {
	if opts.TaskType == "" {
		return nil, fmt.Errorf("task type required")
	}
	manual := opts.ManualDurationMinutes
	if manual == 0 {
		manual = manualEstimates[opts.TaskType]
	}
	if manual <= 0 {
		return nil, fmt.Errorf("no manual duration baseline for task type %q", opts.TaskType)
	}
	rate := opts.HourlyRate
	if rate == 0 {
		rate = t.cfg.DefaultHourlyRate
	}
	if rate <= 0 {
		return nil, fmt.Errorf("hourly rate must be positive, got %v", rate)
	}

	task := &Task{
		tracker: t,
		rec: domain.AutomationRecord{
			ID:                    t.newID(),
			TaskType:              opts.TaskType,
			TaskName:              opts.TaskName,
			CampaignID:            opts.CampaignID,
			ManualDurationMinutes: manual,
			HourlyRate:            rate,
			Status:                domain.TaskRunning,
			StartedAt:             t.now(),
		},
	}
	if err := t.store.Save(ctx, &task.rec); err != nil {
		return nil, fmt.Errorf("saving automation record: %w", err)
	}
	return task, nil
}

// Close finalizes the record with the measured wall time. A nil taskErr
// closes as completed and computes savings; a non-nil taskErr closes as
// failed with zero benefit. time_saved is the exact identity
// manual − automated/60 and may be negative when automation was slower.
func (task *Task) Close(ctx context.Context, taskErr error) (*domain.AutomationRecord, error) {
	if task.closed {
		return nil, ErrAlreadyClosed
	}
	task.closed = true

	t := task.tracker
	completed := t.now()
	task.rec.CompletedAt = &completed
	task.rec.AutomatedDurationSecs = completed.Sub(task.rec.StartedAt).Seconds()

	if taskErr != nil {
		task.rec.Status = domain.TaskFailed
		task.rec.ErrorMessage = taskErr.Error()
		task.rec.TimeSavedMinutes = 0
		task.rec.CostSaved = 0
	} else {
		task.rec.Status = domain.TaskCompleted
		task.rec.TimeSavedMinutes = task.rec.ManualDurationMinutes - task.rec.AutomatedDurationSecs/60
		task.rec.CostSaved = task.rec.TimeSavedMinutes / 60 * task.rec.HourlyRate
	}

	if err := t.store.Update(ctx, &task.rec); err != nil {
		return nil, fmt.Errorf("closing automation record: %w", err)
	}
	if t.counters != nil {
		// Counters are advisory; the record of truth is the store.
		if err := t.counters.Record(ctx, task.rec.TaskType, task.rec.Status, completed); err != nil {
			logger.Warn("automation counter record failed", "task_type", string(task.rec.TaskType), "error", err.Error())
		}
	}
	rec := task.rec
	return &rec, nil
}

// Record returns a copy of the current record state.
func (task *Task) Record() domain.AutomationRecord { return task.rec }

// Run tracks fn as one task: start, run, close. The work's error is
// returned alongside the closed record so failures still yield their
// zero-benefit entry.
func (t *Tracker) Run(ctx context.Context, opts StartOptions, fn func(ctx context.Context) error) (*domain.AutomationRecord, error) {
	task, err := t.Start(ctx, opts)
	if err != nil {
		return nil, err
	}
	workErr := fn(ctx)
	rec, closeErr := task.Close(ctx, workErr)
	if closeErr != nil {
		return nil, closeErr
	}
	return rec, workErr
}

// Aggregate sums closed records over the period. Records still running
// are excluded; failed records count toward totals with zero benefit.
// ROI is defined when the caller supplies a positive automation-cost
// basis, or failing that when a monthly cost basis is configured.
func (t *Tracker) Aggregate(ctx context.Context, period domain.DateRange, costBasis *float64) (*domain.ROISummary, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("invalid aggregation period")
	}
	records, err := t.store.List(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("listing automation records: %w", err)
	}

	summary := &domain.ROISummary{Period: period}
	for _, rec := range records {
		if !rec.Closed() {
			continue
		}
		summary.TotalTasks++
		switch rec.Status {
		case domain.TaskCompleted:
			summary.CompletedTasks++
			summary.TimeSavedMinutes += rec.TimeSavedMinutes
			summary.CostSaved += rec.CostSaved
		case domain.TaskFailed:
			summary.FailedTasks++
		}
	}

	basis := t.cfg.MonthlyCostBasis
	if costBasis != nil {
		basis = *costBasis
	}
	if basis > 0 {
		summary.ROIPercentage = domain.DefinedRate((summary.CostSaved - basis) / basis * 100)
	}
	return summary, nil
}
