// Package artifact provides the per-run output document and its store.
package artifact

import (
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

// Summary is the run header written alongside memory and world state.
type Summary struct {
	RunID     string          `json:"run_id"`
	Scenario  string          `json:"scenario"`
	Strategy  agent.Strategy  `json:"strategy"`
	Provider  string          `json:"provider,omitempty"`
	Phase     agent.Phase     `json:"phase"`
	Status    agent.RunStatus `json:"status"`
	Steps     int             `json:"steps"`
	MaxSteps  int             `json:"max_steps"`
	Fallbacks int             `json:"fallbacks"`
	Error     string          `json:"error,omitempty"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
}

// RunArtifact is everything persisted once per run.
type RunArtifact struct {
	Summary Summary        `json:"run"`
	Memory  *agent.Memory  `json:"memory"`
	World   *world.World   `json:"world"`
	Ledger  []ledger.Entry `json:"ledger"`
}

// New assembles an artifact from a finished run.
func New(run *agent.Run, provider string, w *world.World, l *ledger.Ledger) *RunArtifact {
	a := &RunArtifact{
		Summary: Summary{
			RunID:     run.ID,
			Scenario:  run.Scenario,
			Strategy:  run.Strategy,
			Provider:  provider,
			Phase:     run.Phase,
			Status:    run.Status,
			Steps:     run.Steps,
			MaxSteps:  run.MaxSteps,
			Fallbacks: run.Fallbacks,
			Error:     run.Error,
			StartTime: run.StartTime,
			EndTime:   run.EndTime,
		},
		Memory: run.Memory,
		World:  w,
	}
	if l != nil {
		a.Ledger = l.Entries()
	}
	return a
}

// Ref locates a saved artifact.
type Ref struct {
	// RunID is the run the artifact belongs to.
	RunID string `json:"run_id"`

	// Location is a backend-specific address (directory, DSN fragment, ...).
	Location string `json:"location"`

	// CreatedAt is when the artifact was stored.
	CreatedAt time.Time `json:"created_at"`
}

// String returns the location.
func (r Ref) String() string {
	return r.Location
}
