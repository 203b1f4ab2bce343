package agent

// Decision is the structured output of the decision provider.
//
// Reasoning is kept for traceability only and never drives control flow.
type Decision struct {
	Reasoning string         `json:"reasoning"`
	Action    Action         `json:"action"`
	Arguments map[string]any `json:"arguments"`
	NextPhase *Phase         `json:"next_phase,omitempty"`

	// RawAction is the provider's action name when it fell outside the closed set.
	RawAction string `json:"raw_action,omitempty"`

	// Fallback marks a decision substituted after a provider failure.
	Fallback bool `json:"fallback,omitempty"`
}

// NewDecision creates a decision with empty arguments.
func NewDecision(action Action, reasoning string) Decision {
	return Decision{
		Reasoning: reasoning,
		Action:    action,
		Arguments: make(map[string]any),
	}
}

// WithNextPhase returns a copy of the decision declaring the next phase.
func (d Decision) WithNextPhase(p Phase) Decision {
	d.NextPhase = &p
	return d
}

// WithArgument returns a copy of the decision with an extra argument.
func (d Decision) WithArgument(key string, value any) Decision {
	args := make(map[string]any, len(d.Arguments)+1)
	for k, v := range d.Arguments {
		args[k] = v
	}
	args[key] = value
	d.Arguments = args
	return d
}

// SafeDefault is the decision used when the provider cannot be trusted:
// do nothing and go to FINAL.
func SafeDefault(reason string) Decision {
	return NewDecision(ActionFinalize, reason).WithNextPhase(PhaseFinal).markFallback()
}

func (d Decision) markFallback() Decision {
	d.Fallback = true
	return d
}

// StringArg returns a string argument.
func (d Decision) StringArg(key string) (string, bool) {
	v, ok := d.Arguments[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
