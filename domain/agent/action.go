package agent

import "strings"

// Action names a tool the controller can dispatch, or the finalize no-op.
type Action string

const (
	ActionDetectFailures   Action = "detect_failure_nodes"
	ActionEstimateImpact   Action = "estimate_impact"
	ActionCheckCrews       Action = "check_crew_availability"
	ActionPlanRepairs      Action = "plan_repairs"
	ActionAssignRepairCrew Action = "assign_repair_crew"
	ActionFinalize         Action = "finalize"

	// ActionUnknown stands in for any name outside the closed set.
	ActionUnknown Action = "unknown"
)

// IsTool returns true if the action dispatches a tool.
func (a Action) IsTool() bool {
	switch a {
	case ActionDetectFailures, ActionEstimateImpact, ActionCheckCrews, ActionPlanRepairs, ActionAssignRepairCrew:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// ParseAction maps a provider-supplied name onto the closed action set.
// Anything unrecognized becomes ActionUnknown.
func ParseAction(s string) Action {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if a.IsTool() || a == ActionFinalize {
		return a
	}
	return ActionUnknown
}

// Strategy selects how the controller picks the next phase.
type Strategy string

const (
	// StrategyFixed derives the next phase from the tool outcome and always
	// runs the phase's intended tool.
	StrategyFixed Strategy = "fixed"

	// StrategyModel adopts the provider's declared next phase.
	StrategyModel Strategy = "model"
)

// IsValid returns true if the strategy is recognized.
func (s Strategy) IsValid() bool {
	return s == StrategyFixed || s == StrategyModel
}

// ParseStrategy resolves a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidStrategy
	}
	return st, nil
}
