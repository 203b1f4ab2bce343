package application

import (
	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/artifact"
	"github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/scenario"
	"github.com/gkosnia163/ollama-agent/domain/world"
	"github.com/gkosnia163/ollama-agent/infrastructure/planner"
	"github.com/gkosnia163/ollama-agent/infrastructure/resilience"
	"github.com/gkosnia163/ollama-agent/infrastructure/telemetry"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithPlanner sets the decision provider.
func WithPlanner(p planner.Planner) Option {
	return func(c *EngineConfig) {
		c.Planner = p
	}
}

// WithProviderName overrides the provider label.
func WithProviderName(name string) Option {
	return func(c *EngineConfig) {
		c.ProviderName = name
	}
}

// WithExecutor sets the resilient executor.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *EngineConfig) {
		c.Executor = e
	}
}

// WithLoader sets the scenario loader.
func WithLoader(l scenario.Loader) Option {
	return func(c *EngineConfig) {
		c.Loader = l
	}
}

// WithMatcher sets the crew/node compatibility matcher.
func WithMatcher(m world.Matcher) Option {
	return func(c *EngineConfig) {
		c.Matcher = &m
	}
}

// WithStrategy sets the transition strategy.
func WithStrategy(s agent.Strategy) Option {
	return func(c *EngineConfig) {
		c.Strategy = s
	}
}

// WithMaxSteps sets the maximum number of steps.
func WithMaxSteps(n int) Option {
	return func(c *EngineConfig) {
		c.MaxSteps = n
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithArtifactStore sets the artifact store.
func WithArtifactStore(s artifact.Store) Option {
	return func(c *EngineConfig) {
		c.Artifacts = s
	}
}

// WithMiddleware appends tool middleware after the built-in layers.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *EngineConfig) {
		c.Middleware = append(c.Middleware, mws...)
	}
}

// WithStrictEligibility rejects tools outside the current phase's allow list.
func WithStrictEligibility() Option {
	return func(c *EngineConfig) {
		c.StrictEligibility = true
	}
}

// WithIDGenerator sets the run id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *EngineConfig) {
		c.IDGenerator = fn
	}
}

// NewEngineWithOptions creates a new engine using functional options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	config := EngineConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewEngine(config)
}
