package agent

import "errors"

// Domain errors for the agent runtime.
var (
	// ErrInvalidPhase indicates a phase name outside the closed set.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrInvalidStrategy indicates an unknown transition strategy.
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrRunTerminated indicates an operation was attempted on a finished run.
	ErrRunTerminated = errors.New("run already terminated")

	// ErrNoCompatibleCrew indicates planning produced an empty plan.
	ErrNoCompatibleCrew = errors.New("no compatible crew")
)
