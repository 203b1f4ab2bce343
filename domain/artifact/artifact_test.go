package artifact

import (
	"errors"
	"testing"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

func TestNew(t *testing.T) {
	t.Parallel()

	run := agent.NewRun("abc", "scenario_main", agent.StrategyFixed, 10)
	run.Start()
	run.Steps = 4
	run.TransitionTo(agent.PhaseFinal)
	run.Finish()

	l := ledger.New(run.ID)
	l.RecordRunStarted(run.Scenario)

	a := New(run, "mock", world.New(), l)

	if a.Summary.RunID != "abc" || a.Summary.Status != agent.RunStatusCompleted || a.Summary.Steps != 4 {
		t.Errorf("Summary = %+v", a.Summary)
	}
	if a.Summary.Provider != "mock" {
		t.Errorf("Provider = %q", a.Summary.Provider)
	}
	if len(a.Ledger) != 1 {
		t.Errorf("len(Ledger) = %d, want 1", len(a.Ledger))
	}
	if a.Memory != run.Memory {
		t.Error("Memory not carried over")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	var nilArtifact *RunArtifact
	if err := nilArtifact.Validate(); !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("nil Validate() error = %v", err)
	}
	if err := (&RunArtifact{}).Validate(); !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("empty Validate() error = %v", err)
	}
}
