// Package agent provides the core domain model for the repair agent:
// phases, actions, decisions, memory and the run aggregate.
package agent

import (
	"fmt"
	"strings"
)

// Phase is the controller's position in its state machine.
// Phases are identified by stable names and serialized only by name.
type Phase string

const (
	PhaseDetect  Phase = "DETECT"  // Find broken nodes
	PhaseAnalyze Phase = "ANALYZE" // Estimate impact per failure
	PhasePlan    Phase = "PLAN"    // Match crews to nodes
	PhaseAct     Phase = "ACT"     // Dispatch the plan
	PhaseWait    Phase = "WAIT"    // Re-check crew availability
	PhaseFinal   Phase = "FINAL"   // Terminal
)

// InitialPhase is the phase every run starts in.
const InitialPhase = PhaseDetect

// IsTerminal returns true if the phase ends the run.
func (p Phase) IsTerminal() bool {
	return p == PhaseFinal
}

// IsValid returns true if the phase is a recognized phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDetect, PhaseAnalyze, PhasePlan, PhaseAct, PhaseWait, PhaseFinal:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// UnmarshalText rejects unrecognized phase names.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase resolves a phase name, ignoring case and surrounding space.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
	return p, nil
}

// AllPhases returns all phases in canonical order.
func AllPhases() []Phase {
	return []Phase{
		PhaseDetect,
		PhaseAnalyze,
		PhasePlan,
		PhaseAct,
		PhaseWait,
		PhaseFinal,
	}
}

// NonTerminalPhases returns every phase except FINAL.
func NonTerminalPhases() []Phase {
	return []Phase{
		PhaseDetect,
		PhaseAnalyze,
		PhasePlan,
		PhaseAct,
		PhaseWait,
	}
}
