package agent

import (
	"time"
)

// RunStatus represents the current status of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // Not yet started
	RunStatusRunning   RunStatus = "running"   // Currently executing
	RunStatusCompleted RunStatus = "completed" // Reached FINAL cleanly
	RunStatusFailed    RunStatus = "failed"    // Reached FINAL with an error
	RunStatusExhausted RunStatus = "exhausted" // Hit the step ceiling
)

// Run represents a single execution of the agent over one scenario.
// It is the aggregate root for the agent domain.
type Run struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Strategy  Strategy  `json:"strategy"`
	Phase     Phase     `json:"phase"`
	Status    RunStatus `json:"status"`
	Steps     int       `json:"steps"`
	MaxSteps  int       `json:"max_steps"`
	Fallbacks int       `json:"fallbacks"`
	Memory    *Memory   `json:"memory"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewRun creates a pending run in the initial phase.
func NewRun(id, scenario string, strategy Strategy, maxSteps int) *Run {
	return &Run{
		ID:        id,
		Scenario:  scenario,
		Strategy:  strategy,
		Phase:     InitialPhase,
		Status:    RunStatusPending,
		MaxSteps:  maxSteps,
		Memory:    NewMemory(),
		StartTime: time.Now(),
	}
}

// Start marks the run as running.
func (r *Run) Start() {
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// TransitionTo changes the current phase.
func (r *Run) TransitionTo(p Phase) {
	r.Phase = p
}

// RecordError keeps the first error reported during the run.
func (r *Run) RecordError(msg string) {
	if r.Error == "" {
		r.Error = msg
	}
}

// CanStep reports whether another step may run.
func (r *Run) CanStep() bool {
	return !r.Phase.IsTerminal() && r.Steps < r.MaxSteps
}

// Finish settles the final status from the phase and recorded error.
func (r *Run) Finish() {
	r.EndTime = time.Now()
	switch {
	case !r.Phase.IsTerminal():
		r.Status = RunStatusExhausted
	case r.Error != "":
		r.Status = RunStatusFailed
	default:
		r.Status = RunStatusCompleted
	}
}

// IsTerminal returns true if the run has settled.
func (r *Run) IsTerminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusExhausted:
		return true
	default:
		return false
	}
}

// Duration returns the duration of the run.
func (r *Run) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
