package planner

import (
	"strings"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// BaseInstruction opens every system message.
const BaseInstruction = `You are an Infrastructure Failure Management Agent.
GOAL: Minimize the social impact of network failures.
RESPONSE FORMAT: a single JSON object {"reasoning": string, "action": string, "arguments": object, "next_phase": string}.
Valid actions: detect_failure_nodes, estimate_impact, plan_repairs, assign_repair_crew, check_crew_availability, finalize.
Valid phases: DETECT, ANALYZE, PLAN, ACT, WAIT, FINAL.
Respond ONLY with valid JSON, no additional text.`

var phaseInstructions = map[agent.Phase]string{
	agent.PhaseDetect: `PHASE: FAILURE DETECTION.
Call detect_failure_nodes with no arguments to find broken nodes.
If failures exist the next phase is ANALYZE, otherwise FINAL.`,

	agent.PhaseAnalyze: `PHASE: IMPACT ANALYSIS.
Call estimate_impact with {"node_id": "<id>"} for one node from remaining_to_analyze.
When remaining_to_analyze is empty the next phase is PLAN.`,

	agent.PhasePlan: `PHASE: REPAIR PLANNING.
Call plan_repairs with {"reports": <impact_reports>} to match available crews to broken nodes.
Critical nodes come first; a crew whose specialty matches the node type beats a General crew.
If the plan is empty the next phase is FINAL, otherwise ACT.`,

	agent.PhaseAct: `PHASE: DISPATCH.
Call assign_repair_crew with {"node_ids": [...], "crew_ids": [...]} taken pairwise from repair_plan.
The next phase is FINAL.`,

	agent.PhaseWait: `PHASE: WAIT FOR CREWS.
Call check_crew_availability with no arguments.
If an available crew can take an analyzed node that has no crew yet the next phase is PLAN, otherwise FINAL.`,

	agent.PhaseFinal: `PHASE: FINAL.
Respond with action finalize.`,
}

// PhaseInstruction returns the fixed guidance for a phase.
func PhaseInstruction(p agent.Phase) string {
	return phaseInstructions[p]
}

// SystemMessage joins the base instruction with the phase instruction.
func SystemMessage(base string, p agent.Phase) string {
	instruction := PhaseInstruction(p)
	if instruction == "" {
		return base
	}
	return strings.TrimSpace(base) + "\n\n" + instruction
}
