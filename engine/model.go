// ABOUTME: Core data model for pipelines, runs, and step results with their lifecycle statuses.
// ABOUTME: Defines the JSON shapes shared by the engine, the persistence layer, and the HTTP API.
package engine

import "time"

// Status is a lifecycle state for runs and steps.
//
// Runs move pending -> running -> one of {success, failed, cancelled}.
// Steps additionally use skipped (a continue-on-error step that exhausted
// its retries). never_run only appears as a derived pipeline status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusSkipped   Status = "skipped"
	StatusNeverRun  Status = "never_run"
)

// Terminal reports whether no further transition can occur from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusSkipped:
		return true
	}
	return false
}

// DefaultStepTimeout is applied when a step definition omits its timeout.
const DefaultStepTimeout = 300

// StepDefinition is one shell command plus its timing and failure policy,
// embedded immutably in a Pipeline.
type StepDefinition struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Command         string `json:"command"`
	Timeout         int    `json:"timeout,omitempty"` // seconds; 0 means DefaultStepTimeout
	RetryCount      int    `json:"retry_count,omitempty"`
	ContinueOnError bool   `json:"continue_on_error,omitempty"`
}

// EffectiveTimeout returns the step timeout as a duration, applying the default.
func (d StepDefinition) EffectiveTimeout() time.Duration {
	secs := d.Timeout
	if secs <= 0 {
		secs = DefaultStepTimeout
	}
	return time.Duration(secs) * time.Second
}

// Pipeline is a named, versioned definition of ordered command steps and
// variables. Immutable once created; replacement is delete + recreate.
type Pipeline struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	Steps       []StepDefinition  `json:"steps"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PipelineConfig is the submitted definition before the engine assigns
// identity. This is the JSON format accepted by create endpoints.
type PipelineConfig struct {
	Name        string            `json:"name"`
	Version     string            `json:"version,omitempty"`
	Description string            `json:"description,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	Steps       []StepDefinition  `json:"steps"`
}

// StepResult is the executed-side view of a step: the resolved command,
// captured output, and transition timestamps. Mutated only by the run
// executing it.
type StepResult struct {
	Name      string     `json:"name"`
	Command   string     `json:"command"`
	Status    Status     `json:"status"`
	Output    string     `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Run is one concrete execution of a Pipeline. Its step results mirror the
// pipeline's step definitions at creation time, so the run stays fully
// described even if the pipeline is later deleted.
type Run struct {
	ID         string            `json:"id"`
	PipelineID string            `json:"pipeline_id"`
	Name       string            `json:"name"`
	Status     Status            `json:"status"`
	Variables  map[string]string `json:"variables,omitempty"`
	Steps      []StepResult      `json:"steps"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	// Duration in seconds, stamped once with FinishedAt.
	Duration *float64 `json:"total_duration,omitempty"`
}

// RunSummary is the steps-free view of a Run returned by list operations.
type RunSummary struct {
	ID         string     `json:"id"`
	PipelineID string     `json:"pipeline_id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   *float64   `json:"total_duration,omitempty"`
}

// Summary returns the steps-free view of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		PipelineID: r.PipelineID,
		Name:       r.Name,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Duration:   r.Duration,
	}
}

// Clone returns a deep copy of the run so pollers never alias live state.
func (r *Run) Clone() Run {
	out := *r
	out.Steps = make([]StepResult, len(r.Steps))
	copy(out.Steps, r.Steps)
	if r.Variables != nil {
		out.Variables = make(map[string]string, len(r.Variables))
		for k, v := range r.Variables {
			out.Variables[k] = v
		}
	}
	out.StartedAt = cloneTime(r.StartedAt)
	out.FinishedAt = cloneTime(r.FinishedAt)
	if r.Duration != nil {
		d := *r.Duration
		out.Duration = &d
	}
	return out
}

// PipelineStatus is the derived, caller-facing view of a pipeline. The run
// aggregates (status, counts, last run time) are computed from the run
// registry at call time and never stored.
type PipelineStatus struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	ActiveRuns  int        `json:"active_runs"`
	TotalRuns   int        `json:"total_runs"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
