package planner

import "errors"

// Planner errors. Every one of them makes the controller fall back to the
// safe default decision.
var (
	// ErrEmptyResponse indicates the provider returned no choices or no content.
	ErrEmptyResponse = errors.New("empty provider response")

	// ErrInvalidResponse indicates the response did not match the decision schema.
	ErrInvalidResponse = errors.New("invalid provider response")

	// ErrMissingAPIKey indicates a hosted provider was built without a credential.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrScriptExhausted indicates a scripted planner ran out of steps.
	ErrScriptExhausted = errors.New("script exhausted")
)
