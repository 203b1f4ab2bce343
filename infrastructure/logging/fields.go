package logging

import (
	"time"
	"unicode/utf8"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/gkosnia163/ollama-agent/domain/agent"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// MaxObservationBytes caps observation text written to logs.
const MaxObservationBytes = 2048

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Scenario adds a scenario field.
func Scenario(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("scenario", name)
	}
}

// Phase adds a phase field.
func Phase(p agent.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", string(p))
	}
}

// FromPhase adds a from_phase field for transitions.
func FromPhase(p agent.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_phase", string(p))
	}
}

// ToPhase adds a to_phase field for transitions.
func ToPhase(p agent.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_phase", string(p))
	}
}

// Step adds a step index field.
func Step(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", n)
	}
}

// Action adds an action field.
func Action(a agent.Action) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action", string(a))
	}
}

// Strategy adds a strategy field.
func Strategy(s agent.Strategy) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("strategy", string(s))
	}
}

// Reasoning adds the provider's reasoning text.
func Reasoning(text string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reasoning", text)
	}
}

// Observation adds a tool observation, truncated to MaxObservationBytes.
func Observation(raw []byte) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("observation", truncate(string(raw), MaxObservationBytes))
	}
}

// Provider adds a decision provider name field.
func Provider(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("provider", name)
	}
}

// Fallback adds a fallback flag.
func Fallback(v bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("fallback", v)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an int field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
