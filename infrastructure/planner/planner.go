// Package planner provides decision providers for the repair agent: LLM
// backends behind a common Provider interface plus deterministic planners
// for tests and offline runs.
package planner

import (
	"context"
	"encoding/json"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// Request contains everything a planner sees for one step.
type Request struct {
	RunID string
	Step  int
	Phase agent.Phase

	// Payload is the JSON context snapshot built by the controller.
	Payload json.RawMessage

	// AllowedActions are the tool names eligible in the current phase.
	AllowedActions []string
}

// Planner is the interface for decision engines.
type Planner interface {
	Decide(ctx context.Context, req Request) (agent.Decision, error)
}
