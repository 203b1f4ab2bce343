package application

import (
	"encoding/json"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

// Snapshot is the context payload handed to the decision provider each step.
type Snapshot struct {
	Phase              agent.Phase          `json:"phase"`
	Step               int                  `json:"step"`
	MaxSteps           int                  `json:"max_steps"`
	Failures           []string             `json:"failures"`
	Analyzed           []string             `json:"analyzed"`
	RemainingToAnalyze []string             `json:"remaining_to_analyze"`
	AvailableCrews     []string             `json:"available_crews"`
	BusyCrews          []string             `json:"busy_crews"`
	ImpactReports      []world.ImpactReport `json:"impact_reports"`
	RepairPlan         []world.Assignment   `json:"repair_plan"`
	Assignments        []world.Outcome      `json:"assignments"`
	History            []agent.StepRecord   `json:"history"`
}

// BuildSnapshot assembles the provider context from memory and the world.
func BuildSnapshot(run *agent.Run, w *world.World, phase agent.Phase, step int) Snapshot {
	mem := run.Memory
	return Snapshot{
		Phase:              phase,
		Step:               step,
		MaxSteps:           run.MaxSteps,
		Failures:           mem.Context.Failures,
		Analyzed:           mem.Analyzed(),
		RemainingToAnalyze: mem.Pending(),
		AvailableCrews:     w.AvailableCrews(),
		BusyCrews:          w.BusyCrews(),
		ImpactReports:      mem.Context.ImpactReports,
		RepairPlan:         mem.Context.RepairPlan,
		Assignments:        mem.Context.Assignments,
		History:            mem.Recent(agent.HistoryLimit),
	}
}

// BuildContext returns the JSON payload for the provider.
func BuildContext(run *agent.Run, w *world.World, phase agent.Phase, step int) (json.RawMessage, error) {
	return json.Marshal(BuildSnapshot(run, w, phase, step))
}
