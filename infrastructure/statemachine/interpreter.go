package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// Interpreter wraps the statekit interpreter with agent-specific functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the agent state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the initial phase and marks the run as running.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Run.TransitionTo(PhaseFromMachine(i.interp.State().Value))
	i.ctx.Run.Start()
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current phase.
func (i *Interpreter) Phase() agent.Phase {
	return PhaseFromMachine(i.interp.State().Value)
}

// Transition moves the machine to the target phase. Moving to the current
// phase is a no-op.
func (i *Interpreter) Transition(to agent.Phase, reason string) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", agent.ErrInvalidPhase, to)
	}
	from := i.Phase()
	if from.IsTerminal() {
		return agent.ErrRunTerminated
	}
	if to == from {
		return nil
	}

	i.interp.Send(statekit.Event{
		Type:    EventForTransition(to),
		Payload: TransitionPayload{ToPhase: to, Reason: reason},
	})

	if got := i.Phase(); got != to {
		return fmt.Errorf("transition from %s to %s was rejected", from, to)
	}
	i.ctx.Run.TransitionTo(to)
	return nil
}

// IsTerminal returns true if the interpreter is in a terminal phase.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks if the current phase matches the given state ID.
func (i *Interpreter) Matches(phase agent.Phase) bool {
	return i.interp.Matches(statekit.StateID(phase))
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
