// Package statemachine provides the statekit integration for the agent runtime.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
)

// Context carries run state through the state machine.
type Context struct {
	Run    *agent.Run
	Ledger *ledger.Ledger
}

// NewContext creates a new machine context.
func NewContext(run *agent.Run, ledger *ledger.Ledger) *Context {
	return &Context{
		Run:    run,
		Ledger: ledger,
	}
}

// State IDs as StateID type for statekit.
const (
	stateDetect  statekit.StateID = statekit.StateID(agent.PhaseDetect)
	stateAnalyze statekit.StateID = statekit.StateID(agent.PhaseAnalyze)
	statePlan    statekit.StateID = statekit.StateID(agent.PhasePlan)
	stateAct     statekit.StateID = statekit.StateID(agent.PhaseAct)
	stateWait    statekit.StateID = statekit.StateID(agent.PhaseWait)
	stateFinal   statekit.StateID = statekit.StateID(agent.PhaseFinal)
)

// Events, one per target phase.
const (
	eventDetect  statekit.EventType = "TO_DETECT"
	eventAnalyze statekit.EventType = "TO_ANALYZE"
	eventPlan    statekit.EventType = "TO_PLAN"
	eventAct     statekit.EventType = "TO_ACT"
	eventWait    statekit.EventType = "TO_WAIT"
	eventFinal   statekit.EventType = "TO_FINAL"
)

// NewAgentMachine creates the phase statechart. Every non-final phase can
// reach every other phase; the controller decides which edge to take.
func NewAgentMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("agent").
		WithInitial(stateDetect).
		WithContext(&Context{}).
		// Register actions
		WithAction("logEntry", logPhaseEntry).
		WithAction("recordTransition", recordTransition).
		// Register guards
		WithGuard("canTransition", guardCanTransition).
		// Define states
		State(stateDetect).
			OnEntry("logEntry").
			On(eventAnalyze).Target(stateAnalyze).Guard("canTransition").Do("recordTransition").
			On(eventPlan).Target(statePlan).Guard("canTransition").Do("recordTransition").
			On(eventAct).Target(stateAct).Guard("canTransition").Do("recordTransition").
			On(eventWait).Target(stateWait).Guard("canTransition").Do("recordTransition").
			On(eventFinal).Target(stateFinal).Do("recordTransition").
			Done().
		State(stateAnalyze).
			OnEntry("logEntry").
			On(eventDetect).Target(stateDetect).Guard("canTransition").Do("recordTransition").
			On(eventPlan).Target(statePlan).Guard("canTransition").Do("recordTransition").
			On(eventAct).Target(stateAct).Guard("canTransition").Do("recordTransition").
			On(eventWait).Target(stateWait).Guard("canTransition").Do("recordTransition").
			On(eventFinal).Target(stateFinal).Do("recordTransition").
			Done().
		State(statePlan).
			OnEntry("logEntry").
			On(eventDetect).Target(stateDetect).Guard("canTransition").Do("recordTransition").
			On(eventAnalyze).Target(stateAnalyze).Guard("canTransition").Do("recordTransition").
			On(eventAct).Target(stateAct).Guard("canTransition").Do("recordTransition").
			On(eventWait).Target(stateWait).Guard("canTransition").Do("recordTransition").
			On(eventFinal).Target(stateFinal).Do("recordTransition").
			Done().
		State(stateAct).
			OnEntry("logEntry").
			On(eventDetect).Target(stateDetect).Guard("canTransition").Do("recordTransition").
			On(eventAnalyze).Target(stateAnalyze).Guard("canTransition").Do("recordTransition").
			On(eventPlan).Target(statePlan).Guard("canTransition").Do("recordTransition").
			On(eventWait).Target(stateWait).Guard("canTransition").Do("recordTransition").
			On(eventFinal).Target(stateFinal).Do("recordTransition").
			Done().
		State(stateWait).
			OnEntry("logEntry").
			On(eventDetect).Target(stateDetect).Guard("canTransition").Do("recordTransition").
			On(eventAnalyze).Target(stateAnalyze).Guard("canTransition").Do("recordTransition").
			On(eventPlan).Target(statePlan).Guard("canTransition").Do("recordTransition").
			On(eventAct).Target(stateAct).Guard("canTransition").Do("recordTransition").
			On(eventFinal).Target(stateFinal).Do("recordTransition").
			Done().
		State(stateFinal).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}

// EventForTransition returns the event type that moves the machine to a phase.
func EventForTransition(to agent.Phase) statekit.EventType {
	switch to {
	case agent.PhaseDetect:
		return eventDetect
	case agent.PhaseAnalyze:
		return eventAnalyze
	case agent.PhasePlan:
		return eventPlan
	case agent.PhaseAct:
		return eventAct
	case agent.PhaseWait:
		return eventWait
	case agent.PhaseFinal:
		return eventFinal
	default:
		return statekit.EventType("TO_" + string(to))
	}
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) agent.Phase {
	switch eventType {
	case eventDetect:
		return agent.PhaseDetect
	case eventAnalyze:
		return agent.PhaseAnalyze
	case eventPlan:
		return agent.PhasePlan
	case eventAct:
		return agent.PhaseAct
	case eventWait:
		return agent.PhaseWait
	case eventFinal:
		return agent.PhaseFinal
	default:
		return ""
	}
}

// PhaseFromMachine converts the machine state ID to a domain Phase.
func PhaseFromMachine(stateID statekit.StateID) agent.Phase {
	return agent.Phase(stateID)
}
