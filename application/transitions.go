package application

import (
	"encoding/json"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

// nextFixed derives the next phase from the outcome of the step under the
// fixed strategy. A non-empty runErr is recorded on the run.
func nextFixed(phase agent.Phase, mem *agent.Memory, w *world.World) (next agent.Phase, reason string, runErr error) {
	switch phase {
	case agent.PhaseDetect:
		if len(mem.Context.Failures) == 0 {
			return agent.PhaseFinal, "no failures detected", nil
		}
		return agent.PhaseAnalyze, "failures detected", nil

	case agent.PhaseAnalyze:
		if len(mem.Pending()) > 0 {
			return agent.PhaseAnalyze, "failures left to analyze", nil
		}
		return agent.PhasePlan, "every failure analyzed", nil

	case agent.PhasePlan:
		if len(mem.Context.RepairPlan) == 0 {
			return agent.PhaseFinal, "empty repair plan", agent.ErrNoCompatibleCrew
		}
		return agent.PhaseAct, "repair plan ready", nil

	case agent.PhaseAct:
		return agent.PhaseFinal, "plan dispatched", nil

	case agent.PhaseWait:
		if len(w.AvailableCrews()) > 0 && len(mem.Undispatched()) > 0 {
			return agent.PhasePlan, "crews free for undispatched failures", nil
		}
		return agent.PhaseFinal, "nothing left to dispatch", nil

	default:
		return agent.PhaseFinal, "terminal", nil
	}
}

// nextModel adopts the provider's declared phase. ok is false when the
// declared phase is not recognized; the caller keeps the current phase.
func nextModel(phase agent.Phase, d agent.Decision) (next agent.Phase, ok bool) {
	if d.NextPhase == nil {
		if d.Action == agent.ActionFinalize {
			return agent.PhaseFinal, true
		}
		return phase, true
	}
	if !d.NextPhase.IsValid() {
		return phase, false
	}
	return *d.NextPhase, true
}

// planCameUpEmpty reports whether a successful plan_repairs call left no
// assignments. The run must then end rather than dispatch nothing.
func planCameUpEmpty(action agent.Action, failed bool, mem *agent.Memory) bool {
	return action == agent.ActionPlanRepairs && !failed && len(mem.Context.RepairPlan) == 0
}

// fixedArguments derives tool input from memory and the world, ignoring the
// provider's arguments except for a still-pending estimate_impact target.
func fixedArguments(action agent.Action, d agent.Decision, mem *agent.Memory) map[string]any {
	switch action {
	case agent.ActionEstimateImpact:
		if id, ok := d.StringArg("node_id"); ok && mem.IsPending(id) {
			return map[string]any{"node_id": id}
		}
		if pending := mem.Pending(); len(pending) > 0 {
			return map[string]any{"node_id": pending[0]}
		}
		return map[string]any{"node_id": ""}

	case agent.ActionPlanRepairs:
		return map[string]any{"reports": mem.Undispatched()}

	case agent.ActionAssignRepairCrew:
		nodes, crews := world.SplitPlan(mem.Context.RepairPlan)
		return map[string]any{"node_ids": nodes, "crew_ids": crews}

	default:
		return map[string]any{}
	}
}

// applyObservation folds a successful tool observation into memory.
func applyObservation(action agent.Action, obs json.RawMessage, mem *agent.Memory) (world.AssignmentReport, error) {
	var report world.AssignmentReport
	switch action {
	case agent.ActionDetectFailures:
		var ids []string
		if err := json.Unmarshal(obs, &ids); err != nil {
			return report, err
		}
		mem.SetFailures(ids)

	case agent.ActionEstimateImpact:
		var r world.ImpactReport
		if err := json.Unmarshal(obs, &r); err != nil {
			return report, err
		}
		mem.RecordImpact(r)

	case agent.ActionPlanRepairs:
		var plan []world.Assignment
		if err := json.Unmarshal(obs, &plan); err != nil {
			return report, err
		}
		mem.SetPlan(plan)

	case agent.ActionAssignRepairCrew:
		if err := json.Unmarshal(obs, &report); err != nil {
			return report, err
		}
		mem.RecordAssignments(report)
	}
	return report, nil
}
