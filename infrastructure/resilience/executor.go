// Package resilience bounds decision provider calls using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/infrastructure/planner"
)

// Executor asks a planner for a decision with a bulkhead, a circuit breaker,
// bounded retries and a per-attempt timeout.
type Executor struct {
	bulkhead bulkhead.Bulkhead[agent.Decision]
	breaker  circuitbreaker.CircuitBreaker[agent.Decision]
	retry    retry.Retry[agent.Decision]
	timeout  time.Duration
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent provider calls.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per decision.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between attempts.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// AttemptTimeout bounds each individual provider call.
	AttemptTimeout time.Duration
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           4,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        2,
		RetryInitialDelay:       500 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		AttemptTimeout:          60 * time.Second,
	}
}

// NewExecutor creates a new resilient executor.
func NewExecutor(config ExecutorConfig) *Executor {
	defaults := DefaultExecutorConfig()

	// Ensure positive values for uint32 conversion (G115 fix)
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaults.MaxConcurrent
	}
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = defaults.CircuitBreakerThreshold
	}
	attempts := config.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	multiplier := config.RetryBackoffMultiplier
	if multiplier <= 0 {
		multiplier = defaults.RetryBackoffMultiplier
	}
	breakerTimeout := config.CircuitBreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = defaults.CircuitBreakerTimeout
	}
	timeout := config.AttemptTimeout
	if timeout <= 0 {
		timeout = defaults.AttemptTimeout
	}

	return &Executor{
		bulkhead: bulkhead.New[agent.Decision](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[agent.Decision](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    breakerTimeout,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[agent.Decision](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    multiplier,
		}),
		timeout: timeout,
	}
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

// Decide asks the planner for a decision.
// Composition order: Bulkhead → Circuit Breaker → Retry → per-attempt Timeout.
// Any error left after the attempts are spent is returned to the caller,
// which substitutes the safe default.
func (e *Executor) Decide(ctx context.Context, p planner.Planner, req planner.Request) (agent.Decision, error) {
	return e.bulkhead.Execute(ctx, func(ctx context.Context) (agent.Decision, error) {
		return e.breaker.Execute(ctx, func(ctx context.Context) (agent.Decision, error) {
			return e.retry.Do(ctx, func(ctx context.Context) (agent.Decision, error) {
				attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
				defer cancel()
				return p.Decide(attemptCtx, req)
			})
		})
	})
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (e *Executor) CircuitBreakerState() circuitbreaker.State {
	return e.breaker.State()
}

// Tripped reports whether the breaker has left its initial closed state.
func (e *Executor) Tripped() bool {
	return e.breaker.State().String() != "closed"
}
