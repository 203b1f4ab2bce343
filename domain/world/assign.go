package world

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	minRepairMinutes = 60
	maxRepairMinutes = 240
)

// Outcome is the result of a single crew/node pairing.
type Outcome struct {
	Key     string `json:"key"`
	NodeID  string `json:"node_id"`
	CrewID  string `json:"crew_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AssignmentReport lists pairing outcomes in call order.
// It marshals as a JSON object of pair-key to outcome message.
type AssignmentReport struct {
	Outcomes []Outcome
}

// Get returns the outcome message for a pair key.
func (r AssignmentReport) Get(key string) (string, bool) {
	for _, o := range r.Outcomes {
		if o.Key == key {
			return o.Message, true
		}
	}
	return "", false
}

// Successes returns the number of successful pairings.
func (r AssignmentReport) Successes() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the report as an ordered object.
func (r AssignmentReport) MarshalJSON() ([]byte, error) {
	m := orderedmap.New[string, string]()
	for _, o := range r.Outcomes {
		m.Set(o.Key, o.Message)
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an ordered pair-key to message object.
func (r *AssignmentReport) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}

	outcomes := make([]Outcome, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		crewID, nodeID, _ := strings.Cut(pair.Key, "->")
		outcomes = append(outcomes, Outcome{
			Key:     pair.Key,
			NodeID:  nodeID,
			CrewID:  crewID,
			Success: !IsFailureOutcome(pair.Value),
			Message: pair.Value,
		})
	}
	r.Outcomes = outcomes
	return nil
}

// PairKey builds the report key for a crew/node pairing.
func PairKey(crewID, nodeID string) string {
	return crewID + "->" + nodeID
}

// AssignRepairCrews pairs nodeIDs[i] with crewIDs[i] and dispatches each crew.
//
// Lists of unequal length are rejected with ErrLengthMismatch before any
// mutation. Each pair is handled independently: a failed pair is recorded
// and skipped, and earlier successes are kept. A successful pair moves the
// node to Repairing and the crew to Busy together.
func (w *World) AssignRepairCrews(nodeIDs, crewIDs []string) (AssignmentReport, error) {
	if len(nodeIDs) != len(crewIDs) {
		return AssignmentReport{}, fmt.Errorf("%w: %d nodes, %d crews", ErrLengthMismatch, len(nodeIDs), len(crewIDs))
	}

	report := AssignmentReport{Outcomes: make([]Outcome, 0, len(nodeIDs))}
	for i := range nodeIDs {
		report.Outcomes = append(report.Outcomes, w.assign(nodeIDs[i], crewIDs[i]))
	}
	return report, nil
}

func (w *World) assign(nodeID, crewID string) Outcome {
	out := Outcome{Key: PairKey(crewID, nodeID), NodeID: nodeID, CrewID: crewID}

	crew, ok := w.crews[crewID]
	if !ok {
		out.Message = fmt.Sprintf("Failed (Crew '%s' not found)", crewID)
		return out
	}
	node, ok := w.nodes[nodeID]
	if !ok {
		out.Message = fmt.Sprintf("Failed (Node '%s' not found)", nodeID)
		return out
	}
	if crew.Status != CrewAvailable {
		out.Message = fmt.Sprintf("Failed (Crew %s)", crew.Status)
		return out
	}

	node.Status = NodeRepairing
	crew.Status = CrewBusy

	minutes := minRepairMinutes + w.rng.IntN(maxRepairMinutes-minRepairMinutes+1)
	out.Success = true
	out.Message = fmt.Sprintf("Success (Duration: %d mins)", minutes)
	return out
}

// IsFailureOutcome reports whether an outcome message denotes a failure.
func IsFailureOutcome(message string) bool {
	return strings.HasPrefix(message, "Failed")
}
