package ledger

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// Ledger provides an append-only record of all actions during a run.
// Unlike agent memory it is never truncated.
type Ledger struct {
	runID   string
	entries []Entry
	mu      sync.RWMutex
}

// New creates a new ledger for the given run.
func New(runID string) *Ledger {
	return &Ledger{
		runID:   runID,
		entries: make([]Entry, 0),
	}
}

// Append adds an entry to the ledger.
func (l *Ledger) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.RunID = l.runID
	entry.Seq = len(l.entries) + 1
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.entries = append(l.entries, entry)
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// EntriesByType returns entries filtered by type.
func (l *Ledger) EntriesByType(entryType EntryType) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Entry
	for _, e := range l.entries {
		if e.Type == entryType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// LastEntry returns the most recent entry, or nil if empty.
func (l *Ledger) LastEntry() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	entry := l.entries[len(l.entries)-1]
	return &entry
}

// Count returns the number of entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// RunID returns the associated run ID.
func (l *Ledger) RunID() string {
	return l.runID
}

// MarshalJSON encodes the entries as a JSON array.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// RecordRunStarted records the start of a run.
func (l *Ledger) RecordRunStarted(scenario string) {
	l.Append(NewEntry(EntryRunStarted, 0, agent.InitialPhase, MessageDetails{Message: scenario}))
}

// RecordRunFinished records the settled status of a run.
func (l *Ledger) RecordRunFinished(step int, phase agent.Phase, status agent.RunStatus) {
	l.Append(NewEntry(EntryRunFinished, step, phase, MessageDetails{Message: string(status)}))
}

// RecordTransition records a phase transition.
func (l *Ledger) RecordTransition(step int, from, to agent.Phase, reason string) {
	l.Append(NewEntry(EntryPhaseTransition, step, to, TransitionDetails{
		From:   from,
		To:     to,
		Reason: reason,
	}))
}

// RecordDecision records a provider decision.
func (l *Ledger) RecordDecision(step int, phase agent.Phase, d agent.Decision) {
	l.Append(NewEntry(EntryDecision, step, phase, DecisionDetails{
		Reasoning: d.Reasoning,
		Action:    d.Action,
		Arguments: d.Arguments,
		NextPhase: d.NextPhase,
		Fallback:  d.Fallback,
	}))
}

// RecordFallback records a provider failure replaced by the safe default.
func (l *Ledger) RecordFallback(step int, phase agent.Phase, err error) {
	l.Append(NewEntry(EntryFallback, step, phase, FallbackDetails{Error: err.Error()}))
}

// RecordToolCall records a tool invocation. overridden names the action the
// provider asked for when the controller substituted another.
func (l *Ledger) RecordToolCall(step int, phase agent.Phase, toolName string, input json.RawMessage, overridden string) {
	l.Append(NewEntry(EntryToolCall, step, phase, ToolCallDetails{
		ToolName:   toolName,
		Input:      input,
		Overridden: overridden,
	}))
}

// RecordToolResult records a tool result.
func (l *Ledger) RecordToolResult(step int, phase agent.Phase, toolName string, output json.RawMessage, duration time.Duration) {
	l.Append(NewEntry(EntryToolResult, step, phase, ToolResultDetails{
		ToolName: toolName,
		Output:   output,
		Duration: duration,
	}))
}

// RecordToolError records a tool error.
func (l *Ledger) RecordToolError(step int, phase agent.Phase, toolName string, err error) {
	l.Append(NewEntry(EntryToolError, step, phase, ToolErrorDetails{
		ToolName: toolName,
		Error:    err.Error(),
	}))
}

// RecordWarning records a recoverable anomaly.
func (l *Ledger) RecordWarning(step int, phase agent.Phase, msg string) {
	l.Append(NewEntry(EntryWarning, step, phase, MessageDetails{Message: msg}))
}
