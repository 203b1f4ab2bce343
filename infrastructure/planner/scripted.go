package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// ScriptStep defines an expected phase and the decision to return.
type ScriptStep struct {
	// ExpectPhase asserts we're in this phase before returning the decision.
	ExpectPhase agent.Phase

	// Decision is the decision to return.
	Decision agent.Decision

	// Err, when set, is returned instead of the decision.
	Err error

	// Condition is an optional additional condition that must be true.
	Condition func(Request) bool
}

// ScriptedPlanner executes a predefined sequence for deterministic runs.
// It validates that the agent is in the expected phase before returning decisions.
type ScriptedPlanner struct {
	steps        []ScriptStep
	index        int
	onUnexpected func(Request) (agent.Decision, error)
	mu           sync.Mutex
}

// NewScriptedPlanner creates a scripted planner with the given steps.
func NewScriptedPlanner(steps ...ScriptStep) *ScriptedPlanner {
	return &ScriptedPlanner{
		steps: steps,
		onUnexpected: func(_ Request) (agent.Decision, error) {
			return agent.Decision{}, ErrScriptExhausted
		},
	}
}

// NewPhaseScript builds a script that answers each phase with its intended
// action, the way a well-behaved model would.
func NewPhaseScript() *ScriptedPlanner {
	p := NewScriptedPlanner()
	p.onUnexpected = func(req Request) (agent.Decision, error) {
		return IntendedDecision(req.Phase), nil
	}
	return p
}

// IntendedDecision returns the decision a cooperative model gives in a phase.
func IntendedDecision(phase agent.Phase) agent.Decision {
	switch phase {
	case agent.PhaseDetect:
		return agent.NewDecision(agent.ActionDetectFailures, "scan the network")
	case agent.PhaseAnalyze:
		return agent.NewDecision(agent.ActionEstimateImpact, "estimate the next pending failure")
	case agent.PhasePlan:
		return agent.NewDecision(agent.ActionPlanRepairs, "match crews to failures")
	case agent.PhaseAct:
		return agent.NewDecision(agent.ActionAssignRepairCrew, "dispatch the plan")
	case agent.PhaseWait:
		return agent.NewDecision(agent.ActionCheckCrews, "check who is free")
	default:
		return agent.NewDecision(agent.ActionFinalize, "done").WithNextPhase(agent.PhaseFinal)
	}
}

// OnUnexpected sets the handler used once the script is exhausted.
func (p *ScriptedPlanner) OnUnexpected(handler func(Request) (agent.Decision, error)) *ScriptedPlanner {
	p.onUnexpected = handler
	return p
}

// Decide returns the next decision if the phase matches expectations.
func (p *ScriptedPlanner) Decide(_ context.Context, req Request) (agent.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.index >= len(p.steps) {
		return p.onUnexpected(req)
	}

	step := p.steps[p.index]

	if step.ExpectPhase != "" && step.ExpectPhase != req.Phase {
		return agent.Decision{}, &UnexpectedPhaseError{
			Expected:  step.ExpectPhase,
			Actual:    req.Phase,
			StepIndex: p.index,
		}
	}

	if step.Condition != nil && !step.Condition(req) {
		return agent.Decision{}, &ConditionFailedError{
			StepIndex: p.index,
			Phase:     req.Phase,
		}
	}

	p.index++
	if step.Err != nil {
		return agent.Decision{}, step.Err
	}
	return step.Decision, nil
}

// Reset resets the planner to the beginning.
func (p *ScriptedPlanner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = 0
}

// CurrentStep returns the current step index.
func (p *ScriptedPlanner) CurrentStep() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// IsComplete returns true if all steps have been executed.
func (p *ScriptedPlanner) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index >= len(p.steps)
}

// UnexpectedPhaseError indicates the planner was asked in an unexpected phase.
type UnexpectedPhaseError struct {
	Expected  agent.Phase
	Actual    agent.Phase
	StepIndex int
}

func (e *UnexpectedPhaseError) Error() string {
	return fmt.Sprintf("unexpected phase at step %d: expected %s, got %s", e.StepIndex, e.Expected, e.Actual)
}

// ConditionFailedError indicates a step condition was not met.
type ConditionFailedError struct {
	StepIndex int
	Phase     agent.Phase
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition failed at step %d in phase %s", e.StepIndex, e.Phase)
}
