// Package ledger provides the append-only audit trail of a run.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// EntryType classifies the type of ledger entry.
type EntryType string

const (
	EntryRunStarted      EntryType = "run_started"
	EntryRunFinished     EntryType = "run_finished"
	EntryPhaseTransition EntryType = "phase_transition"
	EntryDecision        EntryType = "decision"
	EntryFallback        EntryType = "decision_fallback"
	EntryToolCall        EntryType = "tool_call"
	EntryToolResult      EntryType = "tool_result"
	EntryToolError       EntryType = "tool_error"
	EntryWarning         EntryType = "warning"
)

// Entry represents a single record in the ledger.
type Entry struct {
	Seq       int             `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EntryType       `json:"type"`
	RunID     string          `json:"run_id"`
	Step      int             `json:"step"`
	Phase     agent.Phase     `json:"phase,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// TransitionDetails contains details for phase transition entries.
type TransitionDetails struct {
	From   agent.Phase `json:"from"`
	To     agent.Phase `json:"to"`
	Reason string      `json:"reason,omitempty"`
}

// DecisionDetails contains details for decision entries.
type DecisionDetails struct {
	Reasoning string         `json:"reasoning,omitempty"`
	Action    agent.Action   `json:"action"`
	Arguments map[string]any `json:"arguments,omitempty"`
	NextPhase *agent.Phase   `json:"next_phase,omitempty"`
	Fallback  bool           `json:"fallback,omitempty"`
}

// FallbackDetails records why the provider's decision was replaced.
type FallbackDetails struct {
	Error string `json:"error"`
}

// ToolCallDetails contains details for tool call entries.
type ToolCallDetails struct {
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input"`
	Overridden string          `json:"overridden,omitempty"`
}

// ToolResultDetails contains details for tool result entries.
type ToolResultDetails struct {
	ToolName string          `json:"tool_name"`
	Output   json.RawMessage `json:"output"`
	Duration time.Duration   `json:"duration"`
}

// ToolErrorDetails contains details for tool error entries.
type ToolErrorDetails struct {
	ToolName string `json:"tool_name"`
	Error    string `json:"error"`
}

// MessageDetails carries free-form text for start, finish and warning entries.
type MessageDetails struct {
	Message string `json:"message"`
}

// NewEntry creates a new ledger entry.
func NewEntry(entryType EntryType, step int, phase agent.Phase, details any) Entry {
	var detailsJSON json.RawMessage
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	return Entry{
		Timestamp: time.Now(),
		Type:      entryType,
		Step:      step,
		Phase:     phase,
		Details:   detailsJSON,
	}
}

// DecodeDetails unmarshals the entry details into the given struct.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}
