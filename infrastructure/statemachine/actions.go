package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToPhase agent.Phase
	Reason  string
}

// logPhaseEntry logs when entering a phase.
// Actions receive a pointer to the context, so with *Context they get **Context.
func logPhaseEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}

	run := (*ctx).Run
	phase := targetPhase(event)
	if phase == "" {
		phase = run.Phase
	}

	logging.Debug().
		Add(logging.RunID(run.ID)).
		Add(logging.Phase(phase)).
		Add(logging.Step(run.Steps)).
		Msg("entered phase")
}

// recordTransition records the phase transition in the ledger and moves the run.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}

	c := *ctx
	from := c.Run.Phase
	to := targetPhase(event)

	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		reason = payload.Reason
	}

	if c.Ledger != nil {
		c.Ledger.RecordTransition(c.Run.Steps, from, to, reason)
	}
	c.Run.TransitionTo(to)
}

func targetPhase(event statekit.Event) agent.Phase {
	if payload, ok := event.Payload.(TransitionPayload); ok && payload.ToPhase != "" {
		return payload.ToPhase
	}
	return phaseFromEventType(event.Type)
}
