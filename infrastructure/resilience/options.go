package resilience

import (
	"time"

	"github.com/gkosnia163/ollama-agent/domain/config"
)

// Option configures the executor.
type Option func(*ExecutorConfig)

// WithMaxConcurrent sets the maximum concurrent provider calls.
func WithMaxConcurrent(n int) Option {
	return func(c *ExecutorConfig) {
		c.MaxConcurrent = n
	}
}

// WithCircuitBreakerThreshold sets the failure threshold for circuit breaker.
func WithCircuitBreakerThreshold(n int) Option {
	return func(c *ExecutorConfig) {
		c.CircuitBreakerThreshold = n
	}
}

// WithCircuitBreakerTimeout sets the circuit breaker open duration.
func WithCircuitBreakerTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.CircuitBreakerTimeout = d
	}
}

// WithRetryAttempts sets the maximum attempts.
func WithRetryAttempts(n int) Option {
	return func(c *ExecutorConfig) {
		c.RetryMaxAttempts = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.RetryInitialDelay = d
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.AttemptTimeout = d
	}
}

// FromConfig maps the resilience section of the agent configuration.
func FromConfig(rc config.ResilienceConfig) Option {
	return func(c *ExecutorConfig) {
		if rc.MaxAttempts > 0 {
			c.RetryMaxAttempts = rc.MaxAttempts
		}
		if rc.InitialDelay > 0 {
			c.RetryInitialDelay = rc.InitialDelay.Duration()
		}
		if rc.Timeout > 0 {
			c.AttemptTimeout = rc.Timeout.Duration()
		}
		if rc.BreakerThreshold > 0 {
			c.CircuitBreakerThreshold = rc.BreakerThreshold
		}
	}
}

// NewExecutorWithOptions creates an executor with the given options.
func NewExecutorWithOptions(opts ...Option) *Executor {
	config := DefaultExecutorConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewExecutor(config)
}
