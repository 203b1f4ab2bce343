package agent

import (
	"encoding/json"

	"github.com/gkosnia163/ollama-agent/domain/world"
)

// HistoryLimit is the number of step records kept in memory.
const HistoryLimit = 5

// StepRecord is one entry of the bounded step history.
type StepRecord struct {
	Step        int             `json:"step"`
	Phase       Phase           `json:"phase"`
	Action      Action          `json:"action"`
	Reasoning   string          `json:"reasoning,omitempty"`
	Observation json.RawMessage `json:"observation"`
}

// Context holds the named findings accumulated during a run.
type Context struct {
	Failures      []string             `json:"failures"`
	ImpactReports []world.ImpactReport `json:"impact_reports"`
	RepairPlan    []world.Assignment   `json:"repair_plan"`
	Assignments   []world.Outcome      `json:"assignments"`
}

// Memory is the agent's working memory: findings plus a sliding window of
// recent steps. The full audit trail lives in the run ledger.
type Memory struct {
	Context Context      `json:"context"`
	History []StepRecord `json:"history"`
}

// NewMemory creates empty memory.
func NewMemory() *Memory {
	return &Memory{
		Context: Context{
			Failures:      make([]string, 0),
			ImpactReports: make([]world.ImpactReport, 0),
			RepairPlan:    make([]world.Assignment, 0),
			Assignments:   make([]world.Outcome, 0),
		},
		History: make([]StepRecord, 0, HistoryLimit),
	}
}

// Append adds a step record, evicting the oldest once the limit is exceeded.
func (m *Memory) Append(rec StepRecord) {
	m.History = append(m.History, rec)
	if over := len(m.History) - HistoryLimit; over > 0 {
		m.History = append(m.History[:0:0], m.History[over:]...)
	}
}

// Recent returns up to n of the most recent records, oldest first.
func (m *Memory) Recent(n int) []StepRecord {
	if n <= 0 || n > len(m.History) {
		n = len(m.History)
	}
	out := make([]StepRecord, n)
	copy(out, m.History[len(m.History)-n:])
	return out
}

// SetFailures replaces the known failure list.
func (m *Memory) SetFailures(ids []string) {
	m.Context.Failures = append(make([]string, 0, len(ids)), ids...)
}

// RecordImpact stores a report, replacing any earlier report for the node.
func (m *Memory) RecordImpact(r world.ImpactReport) {
	for i, existing := range m.Context.ImpactReports {
		if existing.NodeID == r.NodeID {
			m.Context.ImpactReports[i] = r
			return
		}
	}
	m.Context.ImpactReports = append(m.Context.ImpactReports, r)
}

// SetPlan replaces the repair plan.
func (m *Memory) SetPlan(plan []world.Assignment) {
	m.Context.RepairPlan = append(make([]world.Assignment, 0, len(plan)), plan...)
}

// RecordAssignments appends dispatch outcomes.
func (m *Memory) RecordAssignments(report world.AssignmentReport) {
	m.Context.Assignments = append(m.Context.Assignments, report.Outcomes...)
}

// Analyzed returns the ids of failures that have an impact report, in
// failure order.
func (m *Memory) Analyzed() []string {
	reported := m.reported()
	out := make([]string, 0, len(reported))
	for _, id := range m.Context.Failures {
		if reported[id] {
			out = append(out, id)
		}
	}
	return out
}

// Pending returns the ids of failures still lacking an impact report.
func (m *Memory) Pending() []string {
	reported := m.reported()
	out := make([]string, 0)
	for _, id := range m.Context.Failures {
		if !reported[id] {
			out = append(out, id)
		}
	}
	return out
}

// IsPending reports whether the node is a known failure without a report.
func (m *Memory) IsPending(nodeID string) bool {
	for _, id := range m.Pending() {
		if id == nodeID {
			return true
		}
	}
	return false
}

// Dispatched returns the ids of nodes that received a crew.
func (m *Memory) Dispatched() map[string]bool {
	out := make(map[string]bool)
	for _, o := range m.Context.Assignments {
		if o.Success {
			out[o.NodeID] = true
		}
	}
	return out
}

// Undispatched returns impact reports for analyzed failures that have no crew yet.
func (m *Memory) Undispatched() []world.ImpactReport {
	done := m.Dispatched()
	out := make([]world.ImpactReport, 0)
	for _, r := range m.Context.ImpactReports {
		if !done[r.NodeID] {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) reported() map[string]bool {
	out := make(map[string]bool, len(m.Context.ImpactReports))
	for _, r := range m.Context.ImpactReports {
		out[r.NodeID] = true
	}
	return out
}
