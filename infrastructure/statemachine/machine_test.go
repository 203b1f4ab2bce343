package statemachine

import (
	"errors"
	"testing"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *agent.Run, *ledger.Ledger) {
	t.Helper()

	machine, err := NewAgentMachine()
	if err != nil {
		t.Fatalf("NewAgentMachine() error = %v", err)
	}

	run := agent.NewRun("test-run", "scenario_main", agent.StrategyFixed, 10)
	ledg := ledger.New("test-run")
	interp := NewInterpreter(machine, NewContext(run, ledg))
	interp.Start()
	return interp, run, ledg
}

func TestNewAgentMachine(t *testing.T) {
	t.Parallel()

	machine, err := NewAgentMachine()
	if err != nil {
		t.Fatalf("NewAgentMachine() error = %v", err)
	}
	if machine == nil {
		t.Fatal("NewAgentMachine() returned nil machine")
	}
}

func TestEventForTransition(t *testing.T) {
	t.Parallel()

	for _, phase := range agent.AllPhases() {
		t.Run(string(phase), func(t *testing.T) {
			t.Parallel()

			if got := phaseFromEventType(EventForTransition(phase)); got != phase {
				t.Errorf("round trip of %s = %s", phase, got)
			}
		})
	}
}

func TestInterpreter_Start(t *testing.T) {
	t.Parallel()

	interp, run, _ := newTestInterpreter(t)

	if interp.Phase() != agent.PhaseDetect {
		t.Errorf("Initial phase = %s, want DETECT", interp.Phase())
	}
	if run.Status != agent.RunStatusRunning {
		t.Errorf("run status = %s, want running", run.Status)
	}
	if interp.IsTerminal() {
		t.Error("Should not be terminal after start")
	}
	if !interp.Matches(agent.PhaseDetect) {
		t.Error("Should match DETECT")
	}
}

func TestInterpreter_AnyPhaseReachesAnyOther(t *testing.T) {
	t.Parallel()

	for _, from := range agent.NonTerminalPhases() {
		for _, to := range agent.AllPhases() {
			if from == to {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				t.Parallel()

				interp, run, _ := newTestInterpreter(t)
				if err := interp.Transition(from, "setup"); err != nil {
					t.Fatalf("Transition(%s) error = %v", from, err)
				}
				if err := interp.Transition(to, "test"); err != nil {
					t.Fatalf("Transition(%s) error = %v", to, err)
				}
				if interp.Phase() != to || run.Phase != to {
					t.Errorf("phase = %s (run %s), want %s", interp.Phase(), run.Phase, to)
				}
			})
		}
	}
}

func TestInterpreter_TransitionRecordsLedger(t *testing.T) {
	t.Parallel()

	interp, _, ledg := newTestInterpreter(t)

	if err := interp.Transition(agent.PhaseAnalyze, "3 failures detected"); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	entries := ledg.EntriesByType(ledger.EntryPhaseTransition)
	if len(entries) != 1 {
		t.Fatalf("transition entries = %d, want 1", len(entries))
	}

	var details ledger.TransitionDetails
	if err := entries[0].DecodeDetails(&details); err != nil {
		t.Fatalf("DecodeDetails() error = %v", err)
	}
	if details.From != agent.PhaseDetect || details.To != agent.PhaseAnalyze || details.Reason != "3 failures detected" {
		t.Errorf("details = %+v", details)
	}
}

func TestInterpreter_SamePhaseIsNoop(t *testing.T) {
	t.Parallel()

	interp, _, ledg := newTestInterpreter(t)

	if err := interp.Transition(agent.PhaseDetect, "stay"); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if ledg.Count() != 0 {
		t.Errorf("ledger entries = %d, want 0", ledg.Count())
	}
}

func TestInterpreter_InvalidPhase(t *testing.T) {
	t.Parallel()

	interp, _, _ := newTestInterpreter(t)

	err := interp.Transition(agent.Phase("REPAIR"), "bogus")
	if !errors.Is(err, agent.ErrInvalidPhase) {
		t.Errorf("Transition() error = %v, want ErrInvalidPhase", err)
	}
	if interp.Phase() != agent.PhaseDetect {
		t.Errorf("phase = %s, want DETECT", interp.Phase())
	}
}

func TestInterpreter_FinalIsTerminal(t *testing.T) {
	t.Parallel()

	interp, _, _ := newTestInterpreter(t)

	if err := interp.Transition(agent.PhaseFinal, "nothing broken"); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if !interp.IsTerminal() {
		t.Error("FINAL should be terminal")
	}

	err := interp.Transition(agent.PhaseDetect, "restart")
	if !errors.Is(err, agent.ErrRunTerminated) {
		t.Errorf("Transition() after FINAL error = %v, want ErrRunTerminated", err)
	}
}
